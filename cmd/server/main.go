package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gatepass/internal/copilot"
	openaiadapter "gatepass/internal/copilot/adapters/openai"
	copilothandler "gatepass/internal/copilot/handler"
	copilotmetrics "gatepass/internal/copilot/metrics"
	httpapi "gatepass/internal/http"
	jwttoken "gatepass/internal/jwt_token"
	"gatepass/internal/notify"
	"gatepass/internal/platform/config"
	"gatepass/internal/platform/httpserver"
	"gatepass/internal/platform/kafka"
	"gatepass/internal/platform/logger"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/platform/postgres"
	"gatepass/internal/platform/redis"
	ratelimitmetrics "gatepass/internal/ratelimit/metrics"
	ratelimit "gatepass/internal/ratelimit/middleware"
	"gatepass/internal/ratelimit/store/bucket"
	visitorhandler "gatepass/internal/visitor/handler"
	visitormetrics "gatepass/internal/visitor/metrics"
	visitorservice "gatepass/internal/visitor/service"
	visitorstore "gatepass/internal/visitor/store"
	audit "gatepass/pkg/platform/audit"
	auditmemory "gatepass/pkg/platform/audit/store/memory"
	auditpostgres "gatepass/pkg/platform/audit/store/postgres"
	txcontext "gatepass/pkg/platform/tx"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
	sendTimeout      = 3 * time.Second
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// infra holds the optional backing services and how to release them.
type infra struct {
	db     *sql.DB
	redis  *redis.Client
	kafka  *kafka.Client
	checks map[string]httpapi.HealthCheck
}

func (i *infra) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	deps, err := connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	store, auditLog, runner, err := buildStores(ctx, deps.db)
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(buildSink(cfg, deps, log),
		notify.WithLogger(log),
		notify.WithMetrics(notify.NewMetrics()),
		notify.WithQueueSize(cfg.Notifications.QueueSize),
		notify.WithWorkers(cfg.Notifications.Workers),
		notify.WithSendTimeout(sendTimeout),
	)

	visitors, err := visitorservice.New(store, auditLog,
		visitorservice.WithLogger(log),
		visitorservice.WithMetrics(visitormetrics.New()),
		visitorservice.WithNotifier(dispatcher),
		visitorservice.WithTxRunner(runner),
		visitorservice.WithEventReader(auditLog),
	)
	if err != nil {
		return fmt.Errorf("visitor service: %w", err)
	}

	var (
		chat      httpapi.Registrar
		chatLimit func(http.Handler) http.Handler
	)
	if cfg.LLM.APIKey == "" {
		log.Warn("LLM_API_KEY not set, chat endpoint disabled")
	} else {
		llm, err := openaiadapter.New(cfg.LLM)
		if err != nil {
			return fmt.Errorf("llm client: %w", err)
		}
		resolver, err := copilot.New(visitors, llm,
			copilot.WithLogger(log),
			copilot.WithMetrics(copilotmetrics.New()),
			copilot.WithTimeout(cfg.LLM.Timeout),
		)
		if err != nil {
			return fmt.Errorf("copilot resolver: %w", err)
		}
		chat = copilothandler.New(resolver, log)

		limiter, err := ratelimit.New(buildBuckets(deps), cfg.RateLimit.ChatLimit, cfg.RateLimit.ChatWindow,
			ratelimit.WithLogger(log),
			ratelimit.WithMetrics(ratelimitmetrics.New()),
		)
		if err != nil {
			return fmt.Errorf("chat rate limiter: %w", err)
		}
		chatLimit = limiter.PerCaller("chat")
	}

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:    log,
		Metrics:   metrics.New(),
		Validator: jwttoken.NewJWTServiceAdapter(jwtService),
		Visitors:  visitorhandler.New(visitors, log),
		Chat:      chat,
		ChatLimit: chatLimit,
		Checks:    deps.checks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gatepass", "addr", cfg.Server.Addr, "notify_sink", string(cfg.Notifications.Sink))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		log.Info("shutting down")
		srvErr := srv.Shutdown(shutdownCtx)
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.Warn("notification queue not drained", "error", err)
		}
		return srvErr
	})
	return g.Wait()
}

func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{checks: map[string]httpapi.HealthCheck{}}

	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		deps.db = db
		deps.checks["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		deps.close()
		return nil, err
	}
	if rdb != nil {
		deps.redis = rdb
		deps.checks["redis"] = rdb.Health
	}

	if cfg.Notifications.Sink == config.SinkKafka {
		kc, err := kafka.New(ctx, cfg.Kafka)
		if err != nil {
			deps.close()
			return nil, err
		}
		if kc != nil {
			deps.kafka = kc
			deps.checks["kafka"] = kc.Health
		}
	}
	return deps, nil
}

// buildStores picks Postgres when a database is connected, otherwise the
// in-memory stores.
func buildStores(ctx context.Context, db *sql.DB) (visitorservice.Store, auditStore, txcontext.Runner, error) {
	if db == nil {
		return visitorstore.NewInMemory(), auditmemory.NewInMemoryStore(), txcontext.Passthrough{}, nil
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, nil, nil, err
	}
	return visitorstore.NewPostgres(db), auditpostgres.New(db), txcontext.NewSQLRunner(db), nil
}

// auditStore is the audit log with its read side.
type auditStore interface {
	audit.Store
	audit.Reader
}

// buildBuckets shares chat budgets through Redis when it is configured.
func buildBuckets(deps *infra) ratelimit.BucketStore {
	if deps.redis != nil {
		return bucket.NewRedisBucketStore(deps.redis)
	}
	return bucket.NewInMemoryBucketStore()
}

// buildSink always logs, and also publishes to the configured broker behind
// a circuit breaker.
func buildSink(cfg config.Config, deps *infra, log *slog.Logger) notify.Sink {
	logSink := notify.NewLogSink(log)
	var remote notify.Sink
	switch {
	case cfg.Notifications.Sink == config.SinkKafka && deps.kafka != nil:
		remote = notify.NewKafkaSink(deps.kafka, deps.kafka.Topic())
	case cfg.Notifications.Sink == config.SinkRedis && deps.redis != nil:
		remote = notify.NewRedisSink(deps.redis)
	default:
		return logSink
	}
	return notify.MultiSink{logSink, notify.NewBreakerSink(remote, breakerThreshold, breakerCooldown)}
}
