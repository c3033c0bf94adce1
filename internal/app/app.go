package app

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hance08/keasync/internal/billing"
	"github.com/hance08/keasync/internal/config"
	"github.com/hance08/keasync/internal/logging"
	"github.com/hance08/keasync/internal/service"
	"github.com/hance08/keasync/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	Config   *config.Config
	Service  *service.Service
	Store    store.Repository
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// NewApp initialize logger, database and services, then return App entity
func NewApp(cfg *config.Config, migrationFS fs.FS, jsonLogs bool) (*App, func(), error) {
	logger, err := logging.New(cfg.Log.Level, os.Stderr, jsonLogs)
	if err != nil {
		return nil, nil, err
	}

	dbPathRaw := cfg.Database.Path
	if dbPathRaw == "" {
		appDir, err := GetAppDataDir()
		if err != nil {
			return nil, nil, err
		}
		dbPathRaw = filepath.Join(appDir, "kea.db")
	}

	dbStore, err := store.NewStore(dbPathRaw, migrationFS)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Debug("database ready", "path", dbPathRaw)

	registry := prometheus.NewRegistry()
	metrics := billing.NewMetrics(registry)

	svc := service.NewService(dbStore, cfg, logger, metrics)

	cleanup := func() {
		if err := dbStore.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}

	return &App{
		Config:   cfg,
		Service:  svc,
		Store:    dbStore,
		Logger:   logger,
		Registry: registry,
	}, cleanup, nil
}

func GetAppDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("unable to determine user home directory: %w", err)
		}
		return filepath.Join(home, ".kea"), nil
	}

	return filepath.Join(configDir, "kea"), nil
}
