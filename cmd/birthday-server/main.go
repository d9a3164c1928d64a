// Command birthday-server serves a birthday notification on ws://host:port/nanit.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"

	"github.com/sonirico/nanitws/internal/mockserver"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(runMain())
}

func runMain() int {
	configPath := flag.String("config", "", "path to a yaml config file")
	level := flag.String("log-level", "INFO", "log level")
	flag.Parse()

	logger := logs.GetLoggerFromString(*level)

	cfg, err := mockserver.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 2
	}

	srv := mockserver.New(cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Error("cannot start server", "error", err)
		return 1
	}

	host, port := srv.Addr()
	fmt.Printf("birthday server listening on ws://%s:%d%s\n", host, port, mockserver.Path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		return 1
	}
	return 0
}
