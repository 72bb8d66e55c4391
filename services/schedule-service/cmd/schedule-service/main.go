package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/groupslot/groupslot/libs/config"
	"github.com/groupslot/groupslot/libs/db"
	"github.com/groupslot/groupslot/libs/grpcx"
	"github.com/groupslot/groupslot/libs/httpx"
	"github.com/groupslot/groupslot/libs/kafkax"
	otelx "github.com/groupslot/groupslot/libs/otel"
	"github.com/groupslot/groupslot/libs/redisx"
	"github.com/groupslot/groupslot/libs/runtime"
	"github.com/groupslot/groupslot/services/schedule-service/internal/handlers"
	"github.com/groupslot/groupslot/services/schedule-service/internal/outbox"
	"github.com/groupslot/groupslot/services/schedule-service/internal/retention"
	"github.com/groupslot/groupslot/services/schedule-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// healthService is the name the gRPC health server reports this service under.
const healthService = "groupslot.schedule"

func main() {
	if err := config.LoadFromEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "schedule-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	maxConns, err := config.Int("DB_MAX_CONNS", 10)
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.PoolOptions{MaxConns: int32(maxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if migrate, err := config.Bool("DB_AUTO_MIGRATE", false); err != nil {
		panic(err)
	} else if migrate {
		if err := pool.Migrate(ctx, storage.Schema); err != nil {
			logger.Error("schema migration failed", "err", err)
			panic(err)
		}
		logger.Info("schema applied")
	}

	outboxRepo := outbox.NewRepository(pool)
	repo := storage.NewRepository(pool, outboxRepo)

	brokers := config.String("KAFKA_BROKERS", "")
	pollEvery, err := config.Duration("OUTBOX_POLL_EVERY", 2*time.Second)
	if err != nil {
		panic(err)
	}
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: pollEvery,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	retentionDays, err := config.Int("RETENTION_DAYS", 90)
	if err != nil {
		panic(err)
	}
	if retentionDays > 0 {
		sweeper := retention.NewSweeper(repo, outboxRepo, time.Duration(retentionDays)*24*time.Hour, logger)
		go func() {
			if err := sweeper.Run(ctx, config.String("RETENTION_CRON", "@daily")); err != nil {
				logger.Error("retention sweeper stopped", "err", err)
			}
		}()
	} else {
		logger.Warn("retention sweeper disabled")
	}

	grpcServer := grpcx.NewServer(logger)
	grpcServer.SetServing(healthService, true)
	go func() {
		if err := grpcServer.Run(ctx, net.JoinHostPort("", grpcPort)); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if brokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	limitPerMinute, err := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		panic(err)
	}
	failOpen, err := config.Bool("RATE_LIMIT_FAIL_OPEN", true)
	if err != nil {
		panic(err)
	}
	var limiter httpx.Limiter = httpx.NewMemoryLimiter(limitPerMinute, time.Minute)
	rdb, err := redisx.FromConfig()
	if err != nil {
		panic(err)
	}
	if rdb != nil {
		defer rdb.Close()
		limiter = httpx.NewRedisLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl:schedule"))
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: redisx.ReadyCheck(rdb)})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute)
	} else {
		logger.Info("rate limiting enabled (memory)", "per_minute", limitPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewScheduleHandler(repo, logger).Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.FrontendCORS(config.String("FRONTEND_ORIGIN", "http://localhost:5173"))),
		httpx.WithRateLimit(limiter, logger, failOpen),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "schedule")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	runtime.Serve(ctx, logger, srv)
}
