package main

import "time"

type Config struct {
	Host              string        `env:"NANIT_HOST,default=127.0.0.1"`
	Port              int           `env:"NANIT_PORT,default=8080"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	DialTimeout       time.Duration `env:"NANIT_DIAL_TIMEOUT,default=30s"`
	ReadTimeout       time.Duration `env:"NANIT_READ_TIMEOUT,default=30s"`
	PingInterval      time.Duration `env:"NANIT_PING_INTERVAL,default=10s"`
	ReconnectAttempts int           `env:"NANIT_RECONNECT_ATTEMPTS,default=5"`
	ReconnectMaxWait  time.Duration `env:"NANIT_RECONNECT_MAX_WAIT,default=30s"`
	// ExitOnBirthday stops the client once the first record was printed.
	ExitOnBirthday bool `env:"NANIT_EXIT_ON_BIRTHDAY,default=false"`
}
