package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/bibbank/registry-risk/internal/application/usecase"
	"github.com/bibbank/registry-risk/internal/domain/service"
	"github.com/bibbank/registry-risk/internal/infrastructure/cache"
	"github.com/bibbank/registry-risk/internal/infrastructure/config"
	"github.com/bibbank/registry-risk/internal/infrastructure/kafka"
	"github.com/bibbank/registry-risk/internal/infrastructure/postgres"
	"github.com/bibbank/registry-risk/internal/infrastructure/telemetry"
	grpcpresentation "github.com/bibbank/registry-risk/internal/presentation/grpc"
	"github.com/bibbank/registry-risk/internal/presentation/rest"
	"github.com/bibbank/registry-risk/pkg/auth"
	pkgkafka "github.com/bibbank/registry-risk/pkg/kafka"
	"github.com/bibbank/registry-risk/pkg/observability"
	pkgpg "github.com/bibbank/registry-risk/pkg/postgres"
	"github.com/bibbank/registry-risk/pkg/tlsutil"
)

const serviceName = "registry-risk"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("registry-risk exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slog.SetDefault(logger)

	logger.Info("starting registry-risk",
		"version", version,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"environment", cfg.Environment,
	)

	// Tracing is optional: without an endpoint spans go to the no-op provider.
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName:    serviceName,
			ServiceVersion: version,
			Endpoint:       cfg.OTLPEndpoint,
			Insecure:       !cfg.IsProduction(),
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	recorder, err := telemetry.NewRecorder(meterProvider.Meter("github.com/bibbank/registry-risk"))
	if err != nil {
		return fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	params, err := config.LoadParams(cfg.DetectorConfigFile)
	if err != nil {
		return err
	}

	// Database connection and schema.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpg.NewPool(dbCtx, pkgpg.Config{
		URL:              cfg.DatabaseURL,
		ApplicationName:  serviceName,
		StatementTimeout: cfg.DBStatementTimeout,
		MaxConns:         int32(cfg.DBMaxConns),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	schemaVersion, err := pkgpg.RunMigrations(cfg.DatabaseURL, "file://"+cfg.MigrationsDir)
	if err != nil {
		return err
	}
	logger.Info("database schema ready", "version", schemaVersion)

	// Wire infrastructure adapters.
	assessmentRepo := postgres.NewAssessmentRepository(pool)
	registry := cache.NewRegistrySource(
		postgres.NewRegistrySource(pool, postgres.DefaultRelatedDepth),
		cfg.CacheSize, cfg.CacheTTL, logger,
	)

	kafkaCfg := pkgkafka.Config{Brokers: cfg.KafkaBrokers, ConsumerGroup: cfg.KafkaConsumerGroup}
	producer := pkgkafka.NewProducer(kafkaCfg)
	defer func() { _ = producer.Close() }()
	publisher := kafka.NewPublisher(producer, cfg.KafkaTopic, logger)

	// Wire domain services and use cases.
	analyzer := service.NewAnalyzer(params, logger)
	checkFraudUC := usecase.NewCheckFraud(registry, analyzer, assessmentRepo, publisher, recorder, logger)
	batchCheckUC := usecase.NewBatchCheck(checkFraudUC, cfg.BatchConcurrency, logger)
	getAssessmentUC := usecase.NewGetAssessment(assessmentRepo)

	jwtService, err := newJWTService(cfg)
	if err != nil {
		return err
	}
	authEnabled := jwtService != nil
	if !authEnabled {
		logger.Warn("authentication disabled")
	}

	// gRPC server.
	grpcOpts := grpcpresentation.ServerOptions{
		JWTService: jwtService,
		Reflection: !cfg.IsProduction(),
	}
	if cfg.TLSEnabled() {
		if grpcOpts.Credentials, err = tlsutil.ServerCredentials(cfg.TLSCertFile, cfg.TLSKeyFile, cfg.TLSClientCAFile); err != nil {
			return err
		}
	}
	grpcHandler := grpcpresentation.NewRiskServiceHandler(checkFraudUC, batchCheckUC, getAssessmentUC, authEnabled, logger)
	grpcServer := grpcpresentation.NewServer(grpcHandler, cfg.GRPCAddress(), logger, grpcOpts)

	// HTTP server.
	router := rest.NewRouter(rest.RouterConfig{
		Risk:       rest.NewRiskHandler(checkFraudUC, batchCheckUC, getAssessmentUC, authEnabled, logger),
		Health:     rest.NewHealthHandler(version, readinessChecks(pool), logger),
		Metrics:    metricsHandler,
		JWTService: jwtService,
		Limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		Logger:     logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if cfg.TLSEnabled() {
		if httpServer.TLSConfig, err = tlsutil.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile, cfg.TLSClientCAFile); err != nil {
			return err
		}
	}

	// Start servers.
	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress(), "tls", cfg.TLSEnabled())
		var err error
		if cfg.TLSEnabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Registry updates evict cached snapshots.
	if cfg.KafkaRegistryTopic != "" {
		// A fresh cache holds nothing older than this process, so past updates are skipped.
		consumer := pkgkafka.NewConsumer(kafkaCfg, cfg.KafkaRegistryTopic, registry.InvalidationHandler(), logger,
			pkgkafka.WithStartOffset(pkgkafka.StartLatest),
			pkgkafka.WithRetries(3, 200*time.Millisecond),
		)
		defer func() { _ = consumer.Close() }()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("registry consumer error: %w", err)
			}
		}()
	}

	logger.Info("registry-risk started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down registry-risk")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("registry-risk stopped")
	return nil
}

// newJWTService returns nil when authentication is disabled.
func newJWTService(cfg *config.Config) (*auth.JWTService, error) {
	if cfg.AuthDisabled {
		return nil, nil
	}
	jwtCfg := auth.JWTConfig{Secret: cfg.JWTSecret}
	if cfg.JWTPublicKeyFile != "" {
		pem, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = string(pem)
	}
	return auth.NewJWTService(jwtCfg)
}

func readinessChecks(pool *pgxpool.Pool) map[string]rest.ReadinessCheck {
	return map[string]rest.ReadinessCheck{
		"database": func(ctx context.Context) error { return pkgpg.HealthCheck(ctx, pool) },
	}
}
