// Command nanitws connects to a birthday server, prints the received record and keeps
// listening until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/pkg/errors"

	"github.com/sonirico/nanitws"
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}

	host := flag.String("host", config.Host, "birthday server host")
	portArg := flag.String("port", "", "birthday server port")
	flag.Parse()

	port := config.Port
	if *portArg != "" {
		p, err := nanitws.ParsePort(*portArg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		port = p
	}

	logger := nanitws.NewSlogLogger(logs.GetLoggerFromString(config.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, config, *host, port); err != nil {
		var verr *nanitws.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(os.Stderr, verr.Reason)
			return 2
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger nanitws.Logger, config Config, host string, port int) error {
	cfg := nanitws.DefaultConfig()
	cfg.DialTimeout = config.DialTimeout
	cfg.ReadTimeout = config.ReadTimeout
	cfg.PingInterval = config.PingInterval

	session := nanitws.NewSession(logger, nanitws.NewWebsocketManager(logger, cfg))
	defer session.Close()

	ended := make(chan nanitws.SessionEvent, 1)
	completed := make(chan struct{}, 1)

	session.OnComplete(func(record nanitws.BirthdayRecord) {
		renderRecord(os.Stdout, record, time.Now())
		select {
		case completed <- struct{}{}:
		default:
		}
	})
	session.On(nanitws.SessionEnded, func(ev nanitws.SessionEvent) {
		select {
		case ended <- ev:
		default:
		}
	})

	go func() {
		for state := range session.ObserveState(ctx) {
			renderState(os.Stdout, state)
		}
	}()

	reconnector := nanitws.NewReconnector(
		logger,
		nanitws.CappedBackoff(nanitws.ExponentialBackoffSeconds, config.ReconnectMaxWait),
		config.ReconnectAttempts,
		time.Minute,
	)

	for {
		// Signals left over from the previous connection belong to it.
		clearSignals(completed, ended)

		if err := session.Connect(ctx, host, port); err != nil {
			return err
		}
		reconnector.Connected(time.Now())

		select {
		case <-ctx.Done():
			session.Disconnect()
			return nil
		case <-completed:
			if config.ExitOnBirthday {
				session.Disconnect()
				return nil
			}
			// Keep listening for later records until the connection ends.
			select {
			case <-ctx.Done():
				session.Disconnect()
				return nil
			case ev := <-ended:
				if err := waitReconnect(ctx, reconnector, ev); err != nil {
					return err
				}
			}
		case ev := <-ended:
			// Completion is emitted before the end, so it is already buffered.
			select {
			case <-completed:
				if config.ExitOnBirthday {
					session.Disconnect()
					return nil
				}
			default:
			}
			if err := waitReconnect(ctx, reconnector, ev); err != nil {
				return err
			}
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func clearSignals(completed <-chan struct{}, ended <-chan nanitws.SessionEvent) {
	for {
		select {
		case <-completed:
		case <-ended:
		default:
			return
		}
	}
}

func waitReconnect(ctx context.Context, r *nanitws.Reconnector, ev nanitws.SessionEvent) error {
	ttw, err := r.Next(time.Now(), ev.Err)
	if err != nil {
		return err
	}
	// Cancellation is handled by the caller.
	_ = nanitws.Wait(ctx, ttw)
	return nil
}
