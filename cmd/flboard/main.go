package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"flboard/internal/cli"
	"flboard/internal/console"
	applog "flboard/internal/log"
)

func main() {
	cli.LoadEnvFile()
	slogger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(slogger)
	sess := cli.InitSession(slogger, cfg)
	backend := cli.InitBackend(slogger, cfg, sess)

	logger := applog.New(applog.Config{Component: applog.ComponentApp})

	// Ctrl-C cancels in-flight requests; the loop itself ends on 'quit' or
	// stdin EOF.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Starting flboard console", applog.FieldBackend, cfg.DataBackend)
	c := console.New(backend, sess, logger, cfg.AdminLogPerPage, os.Stdin, os.Stdout)
	if err := c.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Console error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Console stopped")
}
