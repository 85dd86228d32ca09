package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"marketpulse/config"
	"marketpulse/internal/collector"
	"marketpulse/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run collector until interrupted
	if err := collector.Start(ctx, cfg, log); err != nil {
		log.Fatal("collector failed", zap.Error(err))
	}
}
