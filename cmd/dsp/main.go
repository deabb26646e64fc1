package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/radiusdt/dsp-console/internal/config"
	"github.com/radiusdt/dsp-console/internal/database"
	"github.com/radiusdt/dsp-console/internal/httpserver"
	"github.com/radiusdt/dsp-console/internal/metrics"
	"github.com/radiusdt/dsp-console/internal/middleware"
	"github.com/radiusdt/dsp-console/internal/objectstore"
	"github.com/radiusdt/dsp-console/internal/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use logger yet
		panic("failed to load config: " + err.Error())
	}

	logger, err := middleware.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer logger.Sync()

	// Money and rates go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	logger.Info("starting DSP console",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.Server.Addr),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics("dsp", prometheus.DefaultRegisterer)
	deps := &httpserver.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
	}

	// PostgreSQL
	if cfg.Database.Enabled {
		if cfg.Database.RunMigrations {
			if err := database.Migrate(cfg.Database, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		db, err := database.NewPostgresDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
		}
		defer db.Close()
		deps.DB = db
		go db.ReportStats(ctx, m, 15*time.Second)
	} else {
		logger.Warn("PostgreSQL disabled, using in-memory repositories")
	}

	// Redis
	if cfg.Redis.Enabled {
		redis, err := database.NewRedisDB(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		deps.Redis = redis
	}

	// ClickHouse upload ledger
	if cfg.ClickHouse.Enabled {
		ch, err := database.NewClickHouseDB(ctx, cfg.ClickHouse, logger)
		if err != nil {
			logger.Fatal("failed to connect to ClickHouse", zap.Error(err))
		}
		defer ch.Close()
		ledger := storage.NewClickHouseLedger(ch.Conn)
		if err := ledger.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to prepare upload ledger", zap.Error(err))
		}
		deps.ClickHouse = ch
		deps.Ledger = ledger
	}

	// Object storage
	if cfg.S3.Enabled {
		deps.Blobs = objectstore.NewS3Store(cfg.S3, logger)
	}

	server := httpserver.NewServer(deps)
	go server.CleanupLimiters(ctx, time.Hour)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Stop background goroutines
	cancel()

	logger.Info("server stopped")
}
