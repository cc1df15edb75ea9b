package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/senirlioglu/Ara/internal/fuzzy"
	"github.com/senirlioglu/Ara/internal/match"
	"github.com/senirlioglu/Ara/internal/normalize"
	"github.com/senirlioglu/Ara/internal/search"
	"github.com/senirlioglu/Ara/internal/search/handler"
	"github.com/senirlioglu/Ara/internal/searchlog"
	"github.com/senirlioglu/Ara/internal/snapshot"
	"github.com/senirlioglu/Ara/internal/store"
	"github.com/senirlioglu/Ara/internal/tokenize"
	"github.com/senirlioglu/Ara/pkg/config"
	"github.com/senirlioglu/Ara/pkg/health"
	"github.com/senirlioglu/Ara/pkg/kafka"
	"github.com/senirlioglu/Ara/pkg/logger"
	"github.com/senirlioglu/Ara/pkg/metrics"
	"github.com/senirlioglu/Ara/pkg/middleware"
	"github.com/senirlioglu/Ara/pkg/postgres"
	pkgredis "github.com/senirlioglu/Ara/pkg/redis"
	"github.com/senirlioglu/Ara/pkg/resilience"
)

const eventBufferSize = 10000

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting inventory search service", "port", cfg.Server.Port)

	// The store is mandatory. Missing credentials are a configuration
	// error, never retried.
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("postgres connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)

	m := metrics.New()

	inventoryStore := store.New(db)
	inventoryStore.Breaker().OnStateChange(func(name string, state resilience.State) {
		m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	})

	norm := normalize.New(normalize.DefaultTables())
	expander := tokenize.NewExpander(norm, tokenize.DefaultTables(), tokenize.Options{
		Stemming:   cfg.Search.Stemming,
		MinRootLen: cfg.Search.MinStemRoot,
	})
	engine := match.NewEngine(match.DefaultExclusions())
	snapshots := snapshot.New(inventoryStore, norm, cfg.Snapshot, m)
	fallback := fuzzy.New(inventoryStore, norm, cfg.Search.MinFuzzyLength, cfg.Search.FuzzyLimit)

	var respCache *search.ResponseCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, response caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		respCache = search.NewResponseCache(redisClient, cfg.Redis.CacheTTL, m)
		slog.Info("response cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
	collector := searchlog.NewCollector(producer, eventBufferSize)
	collector.Start(ctx)
	defer collector.Close()
	slog.Info("search-event collector started", "topic", cfg.Kafka.Topics.SearchEvents)

	logStore := searchlog.NewStore(db)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, searchlog.HandleEvent(logStore))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("search-log consumer error", "error", err)
		}
	}()
	defer consumer.Close()

	var remote search.RemoteSearcher
	if cfg.Search.ServerSide {
		remote = inventoryStore
		slog.Info("server-side search enabled")
	}

	service := search.New(
		snapshots, norm, expander, engine,
		fallback, remote, inventoryStore, collector, respCache,
		m, cfg.Search,
	)

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := db.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("snapshot", func(ctx context.Context) health.ComponentHealth {
		keys := snapshots.Keys()
		if len(keys) == 0 {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no snapshot loaded yet"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d snapshots resident", len(keys))}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background()) //nolint:errcheck
		slog.Info("metrics server listening", "port", cfg.Metrics.Port)
	}

	h := handler.New(service, logStore, cfg.Admin.Secret)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/autocomplete", h.Autocomplete)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)
	mux.HandleFunc("GET /api/v1/analytics", h.Analytics)
	mux.HandleFunc("GET /api/v1/query", h.Dispatch)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Warm today's snapshot in the background so the first query doesn't
	// pay the bulk-load cost.
	go func() {
		if _, err := snapshots.Current(ctx); err != nil {
			slog.Warn("snapshot warm-up failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("inventory search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("inventory search service stopped")
}
