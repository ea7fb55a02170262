package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Paul-frank/todo-app/internal/config"
	"github.com/Paul-frank/todo-app/internal/database"
	"github.com/Paul-frank/todo-app/internal/handlers"
	"github.com/Paul-frank/todo-app/internal/logger"
	"github.com/Paul-frank/todo-app/internal/middleware"
	"github.com/Paul-frank/todo-app/internal/tracing"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file")
	migrateOnly := flag.Bool("migrate-only", false, "apply the schema and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create logger")
	}

	shutdownTracing, err := tracing.Init(context.Background(), cfg.Tracing.Exporter, cfg.Tracing.ServiceName, os.Stdout)
	if err != nil {
		log.WithError(err).Fatal("failed to init tracing")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.WithError(err).Warn("failed to flush traces")
		}
	}()

	db, err := database.NewDatabase(cfg.DB.Driver, cfg.DB.DSN(), cfg.DB.Pool()) // Erstelle eine neue Datenbankinstanz
	if err != nil {
		log.WithError(err).WithField("driver", cfg.DB.Driver).Fatal("failed to open database")
	}
	defer db.Close() // Beenden der Datenbankinstanz

	if err := db.Migrate(context.Background()); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	if *migrateOnly {
		log.WithField("driver", db.Driver()).Info("schema applied")
		return
	}

	todoHandler, err := handlers.NewToDoHandler(database.NewTodoStore(db), log)
	if err != nil {
		log.WithError(err).Fatal("failed to create handlers")
	}

	mux := http.NewServeMux()
	mux.Handle("/", todoHandler.Routes())
	mux.Handle("GET /healthz", handlers.HealthHandler(db))
	mux.Handle("GET /metrics", middleware.MetricsHandler())

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      middleware.Chain(mux, middleware.Standard(log, cfg.HTTP.CSRF)...),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":   cfg.HTTP.Addr,
			"driver": db.Driver(),
			"csrf":   cfg.HTTP.CSRF,
		}).Info("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server failed")
		}
		return
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		return
	}
	log.Info("server stopped")
}
