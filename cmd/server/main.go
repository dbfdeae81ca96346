package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/openrelief/aidbridge/internal/config"
	"github.com/openrelief/aidbridge/internal/database"
	"github.com/openrelief/aidbridge/internal/handlers"
	"github.com/openrelief/aidbridge/internal/logger"
	"github.com/openrelief/aidbridge/internal/middleware"
	"github.com/openrelief/aidbridge/internal/origin"
	"github.com/openrelief/aidbridge/internal/ratelimit"
	"github.com/openrelief/aidbridge/internal/services/verify"
	"github.com/openrelief/aidbridge/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.Env, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("env", cfg.Env),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Int("rate_limit_max", cfg.RateLimitMax),
		zap.Duration("rate_limit_window", cfg.RateLimitWindow),
		zap.String("rate_limit_backend", cfg.RateLimitBackend),
	)

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "aidbridge-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := tp.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			}
		}
	}

	// Origin policy is built once at startup; a wildcard origin refuses to
	// boot rather than run permissive.
	policy, err := origin.NewPolicy(cfg.AllowedOrigins, cfg.CORSAllowCredentials, cfg.Env)
	if err != nil {
		zapLogger.Fatal("invalid_origin_policy", zap.Error(err))
	}
	zapLogger.Info("origin_policy_loaded",
		zap.Strings("allowed_origins", policy.Origins()),
		zap.Bool("allow_credentials", policy.AllowCredentials()),
	)

	if cfg.DatabaseURL == "" {
		zapLogger.Fatal("database_url_required")
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	healthChecks := map[string]handlers.Pinger{"database": db}

	// Admission store: in-memory by default, Redis when a budget shared
	// across processes is wanted.
	var store ratelimit.Store
	switch cfg.RateLimitBackend {
	case "redis":
		redisClient, err := connectRedis(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		store, err = ratelimit.NewRedisStore(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)
		if err != nil {
			zapLogger.Fatal("failed_to_create_redis_rate_limit_store", zap.Error(err))
		}
		healthChecks["redis"] = redisPinger{client: redisClient}
		zapLogger.Info("connected_to_redis")
	default:
		store = ratelimit.NewMemoryStore(cfg.RateLimitMax, cfg.RateLimitWindow)
	}

	norm := middleware.NewNormalizer(zapLogger, cfg.IsDevOrTest())

	// Initialize repositories and handlers
	campaignRepo := database.NewCampaignRepository(db)
	claimRepo := database.NewClaimRepository(db)
	auditRepo := database.NewAuditRepository(db)

	campaignHandler := handlers.NewCampaignHandler(campaignRepo, zapLogger)
	claimHandler := handlers.NewClaimHandler(claimRepo, auditRepo, verify.NewMockScorer(), zapLogger)
	healthChecker := handlers.NewHealthChecker(healthChecks)

	r := buildRouter(cfg, zapLogger, policy, store, norm, campaignHandler, claimHandler, healthChecker)

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// buildRouter assembles the middleware chain and routes. Middleware
// executes in registration order: correlate first so every outcome
// (including 403/429 short-circuits) carries the request id, then audit
// so it observes the status of every denial, then origin policy, then
// admission, then the handler.
func buildRouter(
	cfg *config.Config,
	zapLogger *zap.Logger,
	policy *origin.Policy,
	store ratelimit.Store,
	norm *middleware.Normalizer,
	campaignHandler *handlers.CampaignHandler,
	claimHandler *handlers.ClaimHandler,
	healthChecker *handlers.HealthChecker,
) *mux.Router {
	r := mux.NewRouter()

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("aidbridge-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.RequestID)
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.CORS(policy))
	r.Use(middleware.Logging(zapLogger))
	r.Use(norm.Recover)
	r.Use(middleware.RateLimit(store, zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/health", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	campaignHandler.RegisterRoutes(apiRouter, norm.Wrap)
	claimHandler.RegisterRoutes(apiRouter, norm.Wrap)

	// Catch-all for preflight requests: API routes register concrete
	// methods only, so without this an OPTIONS request would hit the
	// method-mismatch handler before the CORS middleware could answer it.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func connectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

// redisPinger adapts the redis client to the health checker
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
