package mockserver

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Payload PayloadConfig `yaml:"payload"`
	Stream  StreamConfig  `yaml:"stream"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// PayloadConfig is the birthday sent to every client. Raw, when set, is sent verbatim
// instead of the encoded fields.
type PayloadConfig struct {
	Name  string `yaml:"name"`
	DOB   int64  `yaml:"dob"`
	Theme string `yaml:"theme"`
	Raw   string `yaml:"raw"`
}

type StreamConfig struct {
	// Delay before the first frame.
	Delay time.Duration `yaml:"delay"`
	// Repeat is the number of frames sent; zero sends none.
	Repeat   int           `yaml:"repeat"`
	Interval time.Duration `yaml:"interval"`
	// CloseAfterSend makes the server close the connection after the last frame.
	CloseAfterSend bool   `yaml:"close_after_send"`
	CloseCode      int    `yaml:"close_code"`
	CloseReason    string `yaml:"close_reason"`
}

// envOverrides are read with the BIRTHDAY prefix, e.g. BIRTHDAY_PORT.
type envOverrides struct {
	Host  string `envconfig:"HOST"`
	Port  int    `envconfig:"PORT"`
	Name  string `envconfig:"NAME"`
	DOB   int64  `envconfig:"DOB"`
	Theme string `envconfig:"THEME"`
}

const envPrefix = "BIRTHDAY"

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Payload: PayloadConfig{
			Name:  "Mila",
			DOB:   time.Date(2023, time.January, 15, 12, 0, 0, 0, time.UTC).UnixMilli(),
			Theme: "fox",
		},
		Stream: StreamConfig{
			Repeat:      1,
			Interval:    time.Second,
			CloseCode:   1000,
			CloseReason: "bye",
		},
	}
}

// Load reads the yaml file at path on top of the defaults, then applies env overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "cannot read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "cannot parse config %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := envconfig.Process(envPrefix, &o); err != nil {
		return errors.Wrap(err, "cannot process env overrides")
	}
	if o.Host != "" {
		c.Server.Host = o.Host
	}
	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if o.Name != "" {
		c.Payload.Name = o.Name
	}
	if o.DOB != 0 {
		c.Payload.DOB = o.DOB
	}
	if o.Theme != "" {
		c.Payload.Theme = o.Theme
	}
	return nil
}
