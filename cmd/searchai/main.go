package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/abdul7867/SearchAi/internal/config"
	"github.com/abdul7867/SearchAi/internal/db"
	"github.com/abdul7867/SearchAi/internal/db/memory"
	dbMongo "github.com/abdul7867/SearchAi/internal/db/mongo"
	dbRedis "github.com/abdul7867/SearchAi/internal/db/redis"
	logpkg "github.com/abdul7867/SearchAi/internal/logger"
	"github.com/abdul7867/SearchAi/internal/metrics"
	colrepo "github.com/abdul7867/SearchAi/internal/repository/collection"
	mongorepo "github.com/abdul7867/SearchAi/internal/repository/mongo"
	ratelimitrepo "github.com/abdul7867/SearchAi/internal/repository/ratelimit"
	recrepo "github.com/abdul7867/SearchAi/internal/repository/record"
	chiTransport "github.com/abdul7867/SearchAi/internal/transport/chi"
	openaiGen "github.com/abdul7867/SearchAi/internal/transport/openai"
	collectionuc "github.com/abdul7867/SearchAi/internal/usecase/collection"
	healthuc "github.com/abdul7867/SearchAi/internal/usecase/health"
	historyuc "github.com/abdul7867/SearchAi/internal/usecase/history"
	searchuc "github.com/abdul7867/SearchAi/internal/usecase/search"
	"github.com/abdul7867/SearchAi/internal/version"
)

// recordRepo is what the use cases need from search record storage.
type recordRepo interface {
	historyuc.RecordRepository
	searchuc.RecordRepository
	collectionuc.RecordReader
}

// collectionRepo is what the use cases need from collection storage.
type collectionRepo interface {
	collectionuc.Repository
	historyuc.MembershipRemover
}

// backend bundles the repositories of one storage driver.
type backend struct {
	records     recordRepo
	collections collectionRepo
	pinger      healthuc.DBPinger
	counters    db.CounterStore // nil when the driver has no counters
	close       func()
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting SearchAi API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx := context.Background()
	be, err := openBackend(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer be.close()
	logger.Info("Connected to database")

	// Register domain metrics explicitly (no init())
	metrics.RegisterDomainMetrics()

	// Generator chain: OpenAI -> Instrumented
	base := openaiGen.NewGenerator(&openaiGen.Config{
		APIKey:      cfg.Generator.APIKey,
		BaseURL:     cfg.Generator.BaseURL,
		Model:       cfg.Generator.Model,
		MaxTokens:   cfg.Generator.MaxTokens,
		Temperature: cfg.Generator.Temperature,
		Timeout:     time.Duration(cfg.Generator.TimeoutSec) * time.Second,
		Logger:      logger,
	})
	generator := searchuc.NewInstrumentedGenerator(base, cfg.Generator.Provider, cfg.Generator.Model, logger)
	logger.Info("Generator created",
		zap.String("provider", cfg.Generator.Provider),
		zap.String("model", cfg.Generator.Model),
	)

	historySvc := historyuc.New(be.records, be.collections, cfg.History.Keep)
	collectionSvc := collectionuc.New(be.collections, be.records)
	searchSvc := searchuc.New(generator, be.records, be.collections)
	healthSvc := healthuc.New(cfg.Database.Driver, be.pinger, generator)

	auth := chiTransport.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.CookieName)
	server := chiTransport.NewServer(historySvc, collectionSvc, searchSvc, healthSvc, auth, logger)

	limiter, err := buildLimiter(cfg.RateLimit, be)
	if err != nil {
		logger.Fatal("Failed to create rate limiter", zap.Error(err))
	}

	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		CORS: chiTransport.CORSConfig{
			AllowedOrigins:      cfg.CORS.AllowedOrigins,
			AllowLocalhost:      cfg.CORS.AllowLocalhost,
			AllowVercelPreviews: cfg.CORS.AllowVercelPreviews,
			MaxAgeSec:           cfg.CORS.MaxAgeSec,
		},
		Limiter:    limiter,
		TrustProxy: cfg.RateLimit.TrustProxy,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openBackend connects the configured storage driver and builds its repositories.
func openBackend(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*backend, error) {
	readiness := time.Duration(cfg.ReadinessTimeout) * time.Second

	switch cfg.Driver {
	case config.DriverMongo:
		client, err := dbMongo.Connect(dbMongo.Config{
			URI:         cfg.URI,
			Database:    cfg.Name,
			MaxPoolSize: cfg.MaxPoolSize,
		})
		if err != nil {
			return nil, err
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Warn("mongo disconnect failed", zap.Error(err))
			}
		}
		if err := client.WaitForReady(ctx, readiness); err != nil {
			closeFn()
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, err
		}
		return &backend{
			records:     mongorepo.NewRecords(client.Database()),
			collections: mongorepo.NewCollections(client.Database()),
			pinger:      client,
			close:       closeFn,
		}, nil

	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, err
		}
		if err := store.WaitForReady(ctx, readiness); err != nil {
			store.Close()
			return nil, err
		}
		return storeBackend(store), nil

	case config.DriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		return storeBackend(memory.New()), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func storeBackend(store db.Store) *backend {
	return &backend{
		records:     recrepo.New(store),
		collections: colrepo.New(store),
		pinger:      store,
		counters:    store,
		close:       store.Close,
	}
}

// buildLimiter returns nil when rate limiting is disabled.
func buildLimiter(cfg config.RateLimitConfig, be *backend) (chiTransport.Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	window := time.Duration(cfg.WindowSec) * time.Second
	switch cfg.Backend {
	case config.LimiterStore:
		if be.counters == nil {
			return nil, fmt.Errorf("rate_limit.backend %q needs a redis, valkey or memory database", cfg.Backend)
		}
		return chiTransport.NewWindowLimiter(ratelimitrepo.New(be.counters, window), cfg.Requests), nil
	default:
		return chiTransport.NewTokenBucket(cfg.Requests, window), nil
	}
}
