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

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"

	"kycflow/internal/audit"
	"kycflow/internal/onboarding/backend"
	"kycflow/internal/onboarding/coordinator"
	"kycflow/internal/onboarding/handler"
	onboardingmetrics "kycflow/internal/onboarding/metrics"
	"kycflow/internal/onboarding/store"
	"kycflow/internal/onboarding/validate"
	"kycflow/internal/platform/config"
	"kycflow/internal/platform/httpserver"
	"kycflow/internal/platform/logger"
	"kycflow/internal/platform/metrics"
	"kycflow/internal/platform/redis"
	"kycflow/pkg/platform/httputil"
	"kycflow/pkg/platform/middleware/metadata"
	"kycflow/pkg/platform/middleware/request"
	"kycflow/pkg/platform/middleware/requesttime"
)

const (
	auditBuffer      = 1024
	auditPartitions  = 3
	auditReplication = 1
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the onboarding packages.
func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	kv, err := buildStore(cfg, redisClient, log)
	if err != nil {
		log.Error("failed to build session store", "error", err)
		os.Exit(1)
	}

	kafkaClient, auditor, err := buildAudit(ctx, cfg, log)
	if err != nil {
		log.Error("failed to set up audit stream", "error", err)
		os.Exit(1)
	}

	api := backend.New(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
		Retries: cfg.BackendRetries,
	}, backend.WithLogger(log))

	coordinatorOpts := []coordinator.Option{
		coordinator.WithMetrics(onboardingmetrics.New(prometheus.DefaultRegisterer)),
		coordinator.WithValidator(validate.New(cfg.MaxUploadBytes)),
	}
	managerOpts := []coordinator.ManagerOption{
		coordinator.WithManagerLogger(log),
		coordinator.WithCoordinatorOptions(coordinatorOpts...),
	}
	if auditor != nil {
		managerOpts = append(managerOpts, coordinator.WithManagerAuditPublisher(auditor))
	}
	sessions, err := coordinator.NewManager(api, kv, cfg.SessionCacheSize, managerOpts...)
	if err != nil {
		log.Error("failed to build session manager", "error", err)
		os.Exit(1)
	}

	httpMetrics := metrics.New(prometheus.DefaultRegisterer)
	router := chi.NewRouter()
	router.Use(request.Recovery(log))
	router.Use(request.RequestID)
	router.Use(request.Logger(log))
	router.Use(metadata.ClientMetadata)
	router.Use(requesttime.Middleware)
	router.Use(metrics.LatencyMiddleware(httpMetrics))

	router.Get("/healthz", health(redisClient))
	router.Handle("/metrics", promhttp.Handler())
	handler.New(sessions, log, httpMetrics, cfg.MaxUploadBytes).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting kycflow", "addr", cfg.Addr, "backend", cfg.BackendURL)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if kafkaClient != nil {
		kafkaClient.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info("server stopped")
}

// buildStore picks Redis when configured and the in-memory store otherwise,
// sealing values when a key is set.
func buildStore(cfg config.Server, client *redis.Client, log *slog.Logger) (store.Store, error) {
	var kv store.Store
	if client != nil {
		kv = store.NewRedisStore(client.Client, cfg.SessionTTL)
		log.Info("using redis session store")
	} else {
		kv = store.NewInMemoryStore(cfg.SessionTTL)
		log.Warn("REDIS_URL not set, sessions are kept in memory")
	}
	if cfg.SealKey == "" {
		return kv, nil
	}
	sealer, err := store.NewSealer(cfg.SealKeyBytes())
	if err != nil {
		return nil, err
	}
	return store.NewSealedStore(kv, sealer), nil
}

// buildAudit starts the Kafka audit worker. Without brokers audit events are
// only written to the log.
func buildAudit(ctx context.Context, cfg config.Server, log *slog.Logger) (*kgo.Client, *audit.AsyncPublisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, audit events are only logged")
		return nil, nil, nil
	}
	client, err := audit.NewKafkaClient(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, err
	}
	if err := audit.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, auditPartitions, auditReplication); err != nil {
		client.Close()
		return nil, nil, err
	}
	publisher := audit.NewAsyncPublisher(auditBuffer, log)
	worker := audit.NewWorker(audit.NewKafkaStore(client, cfg.Kafka.AuditTopic), publisher.Inbox(), log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	return client, publisher, nil
}

func health(client *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if client != nil {
			if err := client.Health(r.Context()); err != nil {
				status = map[string]string{"status": "degraded", "redis": err.Error()}
				httputil.WriteJSON(w, http.StatusServiceUnavailable, status)
				return
			}
			status["redis"] = "ok"
		}
		httputil.WriteJSON(w, http.StatusOK, status)
	}
}
