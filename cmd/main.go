package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/cinex/internal/repositories"
	"github.com/desertthunder/cinex/internal/services"
	"github.com/desertthunder/cinex/internal/shared"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	if err := shared.ApplyEnv(config, ".env"); err != nil {
		logger.Warn("failed to load environment", "error", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		HTTPClient: &http.Client{Timeout: config.HTTP.Timeout()},
		Logger:     logger,
	}
	if err := wire(&opts); err != nil {
		logger.Warn("running without local storage", "error", err)
	}

	runner := NewRunner(opts)
	defer runner.Close()

	app := &cli.Command{
		Name:     "cinex",
		Usage:    "Browse movies & TV, keep a watchlist, and play titles from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			logger.Error("not signed in", "hint", "run `cinex auth login`")
			runner.Close()
			os.Exit(1)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}

// wire builds the remote clients and the SQLite-backed stores from opts.Config.
//
// The metadata client needs no local state, so it is set up even when the database cannot be opened.
func wire(opts *RunnerOpts) error {
	config := opts.Config
	logger := opts.Logger

	metadata := services.NewMetadataService(services.MetadataOptions{
		BaseURL:           config.Metadata.BaseURL,
		ImageBaseURL:      config.Metadata.ImageBaseURL,
		APIKey:            config.Metadata.APIKey,
		ReadToken:         config.Metadata.ReadToken,
		Language:          config.Metadata.Language,
		RequestsPerSecond: config.Metadata.RequestsPerSecond,
		HTTPClient:        opts.HTTPClient,
		Logger:            logger,
	})
	opts.Metadata = metadata
	opts.Images = metadata
	opts.API = services.NewAPIService(config.Backend.URL, config.Backend.AnonKey, opts.HTTPClient)
	opts.Profiles = services.NewProfileService(config.Backend.URL, config.Backend.AnonKey, opts.HTTPClient, logger)

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		opts.Auth = services.NewAuthService(config.Backend.URL, config.Backend.AnonKey, services.NewMemoryStorage(), opts.HTTPClient, logger)
		return err
	}

	storage := repositories.NewSessionRepository(db)
	opts.Auth = services.NewAuthService(config.Backend.URL, config.Backend.AnonKey, storage, opts.HTTPClient, logger)
	opts.History = repositories.NewWatchHistoryRepository(db)
	logger.Debug("database ready", "path", config.Database.Path)
	return nil
}
