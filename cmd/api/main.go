package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/BruksfildServices01/calendar-booking/internal/audit"
	"github.com/BruksfildServices01/calendar-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/calendar-booking/internal/db"
	"github.com/BruksfildServices01/calendar-booking/internal/infra/cache"
	"github.com/BruksfildServices01/calendar-booking/internal/infra/google"
	"github.com/BruksfildServices01/calendar-booking/internal/logging"
	"github.com/BruksfildServices01/calendar-booking/internal/metrics"
	"github.com/BruksfildServices01/calendar-booking/internal/routes"
	"github.com/BruksfildServices01/calendar-booking/internal/tokencodec"
)

func main() {
	cfg := config.Load()

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	key, err := tokencodec.KeyFromString(cfg.TokenEncryptionKey)
	if err != nil {
		return err
	}
	codec, err := tokencodec.New(key)
	if err != nil {
		return err
	}

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return err
	}

	// ------------------------------
	// metrics
	// ------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ------------------------------
	// audit
	// ------------------------------
	sinks := []audit.Sink{audit.New(db)}
	if cfg.AuditS3Bucket != "" {
		sinks = append(sinks, audit.NewS3Sink(audit.S3Config{
			Bucket:    cfg.AuditS3Bucket,
			Region:    cfg.AuditS3Region,
			Endpoint:  cfg.AuditS3Endpoint,
			AccessKey: cfg.AWSAccessKeyID,
			SecretKey: cfg.AWSSecretKey,
		}))
		logger.Info("audit archive enabled", slog.String("bucket", cfg.AuditS3Bucket))
	}
	dispatcher := audit.NewDispatcher(logger, sinks...)
	defer dispatcher.Close()

	deps := routes.Deps{
		DB:     db,
		Config: cfg,
		Provider: google.NewProvider(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
		}, m, logger),
		Codec:    codec,
		Audit:    dispatcher,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	}

	// ------------------------------
	// idempotency (optional)
	// ------------------------------
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			return err
		}
		defer client.Close()
		deps.Idempotency = cache.NewIdempotencyRedisStore(client, cfg.IdempotencyTTL)
	} else {
		logger.Warn("REDIS_URL not set, idempotency keys are ignored")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", slog.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
