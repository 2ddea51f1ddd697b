package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"verigate/internal/audit"
	"verigate/internal/openbanking"
	"verigate/internal/platform/config"
	"verigate/internal/platform/httpserver"
	"verigate/internal/platform/kafka"
	"verigate/internal/platform/logger"
	"verigate/internal/platform/metrics"
	"verigate/internal/platform/middleware"
	"verigate/internal/platform/postgres"
	"verigate/internal/platform/redis"
	"verigate/internal/profile"
	"verigate/internal/sumsub"
	snapcache "verigate/internal/sumsub/cache"
	httptransport "verigate/internal/transport/http"
	verificationhandler "verigate/internal/verification/handler"
	vmetrics "verigate/internal/verification/metrics"
	"verigate/internal/verification/service"
	"verigate/internal/verification/store"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	healthChecks := map[string]func(context.Context) error{}

	// Status store: postgres when configured, in-memory for development.
	var statusStore store.Store
	db, err := postgres.Open(cfg.Postgres.DSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("schema migration failed", "error", err.Error())
			os.Exit(1)
		}
		statusStore = pg
		healthChecks["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL unset, status records will not survive restarts")
		statusStore = store.NewInMemoryStore()
	}

	// Snapshot cache: optional, redis-backed.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	var snapshots service.SnapshotCache
	if redisClient != nil {
		defer redisClient.Close()
		snapshots = snapcache.New(redisClient.Client, config.SnapshotCacheTTL)
		healthChecks["redis"] = redisClient.Health
	}

	// Audit trail: optional, kafka-backed.
	kafkaPublisher, err := kafka.NewPublisher(cfg.Kafka.Brokers, log)
	if err != nil {
		log.Error("kafka connection failed", "error", err.Error())
		os.Exit(1)
	}
	if kafkaPublisher != nil {
		defer kafkaPublisher.Close()
	}
	auditor := audit.NewPublisher(kafkaPublisher, cfg.Kafka.AuditTopic, log)

	provider := sumsub.NewClient(
		cfg.Sumsub.BaseURL,
		sumsub.NewSigner(cfg.Sumsub.AppToken, cfg.Sumsub.SecretKey),
		cfg.Sumsub.CallTimeout,
	)

	domainMetrics := vmetrics.New()
	platformMetrics := metrics.New()

	verificationService, err := service.New(
		provider,
		statusStore,
		snapshots,
		profile.NewInMemoryStore(),
		auditor,
		domainMetrics,
		log,
		cfg.Sumsub.LevelName,
	)
	if err != nil {
		log.Error("service wiring failed", "error", err.Error())
		os.Exit(1)
	}

	openbankingClient := openbanking.NewClient(
		cfg.TruID.BaseURL,
		cfg.TruID.ClientID,
		cfg.TruID.ClientKey,
		cfg.TruID.CallTimeout,
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:        log,
		Metrics:       platformMetrics,
		Verification:  verificationhandler.New(verificationService, log, cfg.Sumsub.WebhookSecret),
		OpenBanking:   openbanking.NewHandler(openbankingClient, log),
		AuthValidator: middleware.HSValidator{SigningKey: []byte(cfg.Auth.JWTSigningKey)},
		HealthChecks:  healthChecks,
	})

	srv := httpserver.New(cfg.Server, router)
	go func() {
		log.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
