package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/cli"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/config"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/logger"
	"github.com/SimpnicServerTeam/scs-auth-orchestrator/internal/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start")
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close stores cleanly")
		}
	}()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if models.KindOf(err) == models.ErrorKindInvariantViolation {
			log.Error().Err(err).Msg("Account state is inconsistent, contact support")
			return 2
		}
		log.Error().Err(err).Msg("Command failed")
		return 1
	}
	return 0
}
