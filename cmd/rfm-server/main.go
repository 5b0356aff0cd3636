package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tirasundara/rfm-service/internal/api"
	"github.com/tirasundara/rfm-service/internal/config"
	"github.com/tirasundara/rfm-service/internal/domain"
	"github.com/tirasundara/rfm-service/internal/logger"
	"github.com/tirasundara/rfm-service/internal/normalizer"
	"github.com/tirasundara/rfm-service/internal/repository"
	"github.com/tirasundara/rfm-service/internal/service"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadWithDotEnv()
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	var repo domain.TransactionRepository
	switch cfg.DataBackend {
	case "sqlite":
		store, err := repository.NewSQLiteTransactionRepository(cfg.SQLiteDBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLiteDBPath).Msg("Failed to open ledger store")
		}
		defer store.Close()
		repo = store
	default:
		repo = repository.NewCSVTransactionRepository(cfg.TransactionsCSV)
	}
	log.Info().Str("backend", cfg.DataBackend).Str("source", repo.Source()).Msg("Ledger source initialized")

	rfmService := service.NewRFMService(repo, normalizer.New(cfg.DateLayout), time.Now, log)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(rfmService, log, api.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("Starting RFM server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server error")
		os.Exit(1)
	}

	log.Info().Msg("Server stopped gracefully")
}
