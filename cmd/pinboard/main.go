// Package main реализует точку входа сервиса меток на страницах.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pinboard/internal/pins/config"
	"pinboard/pkg/logger"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "PINBOARD_LOGGER_MODE"
	EnvLoggerLevel = "PINBOARD_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrOpenStore            = "failed to open record store"
	ErrStartHTTPServer      = "failed to start HTTP server"
	ErrExport               = "failed to export records"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	log, err := logger.NewLogger(env, os.Getenv(EnvLoggerLevel))
	if err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}
	logger.SetGlobalLogger(log)

	ctx := logger.NewRequestIDContext(context.Background(), "")

	exitCode := 0
	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		exitCode = 1
	}

	if err := logger.Log(ctx).Sync(); err != nil {
		errMsg := err.Error()
		if !strings.Contains(errMsg, ErrSyncStderr) && !strings.Contains(errMsg, ErrSyncStdout) {
			_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err)
		}
	}

	os.Exit(exitCode)
}

func buildRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "pinboard",
		Short:         "Color-coded notes pinned to web pages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to configuration file (YAML or .env); environment variables are used when empty")

	cmd.AddCommand(buildServeCmd(&configPath), buildExportCmd(&configPath))
	return cmd
}

// loadConfig читает конфигурацию и переключает глобальный logger на ее настройки.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	log := logger.Log(ctx)

	cfg, err := config.Load(ctx, path)
	if err != nil {
		log.Error(ctx, ErrLoadConfig, zap.Error(err))
		return nil, err
	}

	finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
	if err != nil {
		log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
		return nil, err
	}
	logger.SetGlobalLogger(finalLogger)

	return cfg, nil
}
