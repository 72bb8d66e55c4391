package main

import (
	"context"
	"net/http"
	"time"

	"github.com/groupslot/groupslot/libs/config"
	"github.com/groupslot/groupslot/libs/grpcx"
	"github.com/groupslot/groupslot/libs/httpx"
	"github.com/groupslot/groupslot/libs/kafkax"
	otelx "github.com/groupslot/groupslot/libs/otel"
	"github.com/groupslot/groupslot/libs/redisx"
	"github.com/groupslot/groupslot/libs/runtime"
	"github.com/groupslot/groupslot/libs/syncgw"
	"github.com/groupslot/groupslot/services/summary-service/internal/cache"
	"github.com/groupslot/groupslot/services/summary-service/internal/handlers"
	"github.com/groupslot/groupslot/services/summary-service/internal/inbox"
	"github.com/groupslot/groupslot/services/summary-service/internal/summary"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadFromEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "summary-service")
	port, err := config.Port("PORT", "8081")
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

	scheduleURL, err := config.RequiredString("SCHEDULE_SERVICE_URL")
	if err != nil {
		panic(err)
	}
	rdb, err := redisx.FromConfig()
	if err != nil {
		panic(err)
	}
	if rdb == nil {
		panic("REDIS_ADDR is required")
	}
	defer rdb.Close()

	cacheTTL, err := config.Duration("SUMMARY_CACHE_TTL", 10*time.Minute)
	if err != nil {
		panic(err)
	}
	svc := summary.NewService(
		summary.NewBuilder(syncgw.NewClient(scheduleURL)),
		cache.New(rdb, cacheTTL),
		logger,
	)

	brokers := config.String("KAFKA_BROKERS", "")
	checks := []runtime.ReadyCheck{{Name: "redis", Check: redisx.ReadyCheck(rdb)}}
	if brokers != "" {
		dedup := inbox.NewRedis(rdb, config.String("INBOX_PREFIX", "summary-inbox"), 7*24*time.Hour)
		handle := summary.EventHandler(svc, logger)
		for _, topic := range summary.Topics {
			reader := kafkax.NewReader(kafkax.ConsumerConfig{
				Brokers: brokers,
				GroupID: config.String("KAFKA_GROUP_ID", "summary-service"),
				Topic:   topic,
			})
			go kafkax.NewConsumer(logger, reader, dedup, handle).Run(ctx)
		}
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("event consumers disabled (no kafka brokers configured)")
	}

	if addr := config.String("SCHEDULE_GRPC_ADDR", ""); addr != "" {
		conn, err := grpcx.NewClient(addr, grpcx.DialOptions{})
		if err != nil {
			logger.Error("schedule grpc client failed", "err", err)
		} else {
			defer conn.Close()
			checks = append(checks, runtime.ReadyCheck{Name: "schedule-service", Check: grpcx.HealthCheck(conn, "groupslot.schedule")})
		}
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewSummaryHandler(svc, logger).Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithRecover(logger),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.FrontendCORS(config.String("FRONTEND_ORIGIN", "http://localhost:5173"))),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "summary")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	runtime.Serve(ctx, logger, srv)
}
