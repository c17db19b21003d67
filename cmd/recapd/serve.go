package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/api"
	"github.com/recapd/recapd/internal/config"
	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/ingest"
	"github.com/recapd/recapd/internal/logger"
	"github.com/recapd/recapd/internal/search"
	"github.com/recapd/recapd/internal/tags"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(env, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting recapd",
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
	)

	db, err := database.Open(database.Config{
		Path:          cfg.Database.Path,
		PoolSize:      cfg.Database.PoolSize,
		BusyTimeoutMS: cfg.Database.BusyTimeoutMS,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.NewMigrator(db, log).Run(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	frameRepo := database.NewFrameRepo(db)
	audioRepo := database.NewAudioRepo(db)
	uiRepo := database.NewUIRepo(db)
	tagRepo := database.NewTagRepo(db)

	app := &api.App{
		DB:     db,
		Tags:   tags.NewManager(db, frameRepo, audioRepo, tagRepo, log),
		Search: search.NewEngine(db, frameRepo, audioRepo, uiRepo, tagRepo, log),
		Ingest: ingest.New(db, frameRepo, audioRepo, uiRepo, log),
		Limits: search.Limits{
			DefaultPageSize: cfg.Search.DefaultPageSize,
			MaxPageSize:     cfg.Search.MaxPageSize,
		},
		Log: log,
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      api.NewRouter(app),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
