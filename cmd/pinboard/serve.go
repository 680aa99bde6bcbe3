package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpServer "pinboard/internal/pins/adapters/http"
	"pinboard/internal/pins/adapters/http/sessions"
	"pinboard/internal/pins/adapters/services"
	"pinboard/internal/pins/app"
	"pinboard/internal/pins/db"
	"pinboard/pkg/logger"
	"pinboard/pkg/shutdown"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "pinboard service started"
	LogServiceShutdownDone = "pinboard service shutdown complete"
	LogInitStore           = "initializing record store"
	LogInitSessions        = "initializing session registry"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogStoppingHTTP        = "stopping HTTP server"
	LogClosingStore        = "closing record store"
)

func buildServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for annotation sessions",
		Example: `  # Start with environment configuration
  pinboard serve

  # Start with a config file
  pinboard serve --config deploy/pinboard.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	log := logger.Log(ctx)

	log.Info(ctx, LogInitStore, zap.String("backend", cfg.Store.Backend))
	repo, err := db.Open(ctx, cfg)
	if err != nil {
		log.Error(ctx, ErrOpenStore, zap.Error(err))
		return err
	}

	log.Info(ctx, LogInitSessions)
	registry := sessions.NewRegistry(repo, services.NewSHA256Fingerprinter(), app.SessionConfig{
		DragThreshold: cfg.Session.DragThreshold,
		PromptDelay:   cfg.Session.PromptDelay,
		PanelPosition: app.DefaultPanelPosition,
	}, time.Now,
		sessions.WithIdleTTL(cfg.Session.IdleTTL),
		sessions.WithMaxSessions(cfg.Session.MaxSessions))

	log.Info(ctx, LogInitHTTPServer)
	server := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	})
	httpServer.SetupRouter(server, registry)

	log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
	log.Info(ctx, LogServiceStarted,
		zap.String("log_level", cfg.Logging.Level),
		zap.String("startup_time", time.Now().Format(time.RFC3339)))

	err = runUntilStopped(ctx, func() error { return server.Listen(cfg.HTTP.GetAddress()) }, cfg.Shutdown.GetTimeout(),
		// Хранилище закрывается только после остановки HTTP, чтобы не оборвать запись.
		func(ctx context.Context) error {
			log.Info(ctx, LogStoppingHTTP)
			httpErr := server.ShutdownWithContext(ctx)

			log.Info(ctx, LogClosingStore)
			return errors.Join(httpErr, repo.Close(ctx))
		},
	)

	log.Info(ctx, LogServiceShutdownDone)
	return err
}

// runUntilStopped запускает listen и ждет сигнала завершения.
// Ошибка listen, например занятый порт, тоже запускает завершение и возвращается вызывающему.
func runUntilStopped(ctx context.Context, listen func() error, timeout time.Duration, hooks ...shutdown.Hook) error {
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	listenErr := make(chan error, 1)
	go func() {
		if err := listen(); err != nil {
			logger.Log(ctx).Error(ctx, ErrStartHTTPServer, zap.Error(err))
			listenErr <- err
			cancel()
		}
	}()

	err := shutdown.Wait(serveCtx, timeout, hooks...)

	select {
	case lerr := <-listenErr:
		return errors.Join(fmt.Errorf("%s: %w", ErrStartHTTPServer, lerr), err)
	default:
		return err
	}
}
