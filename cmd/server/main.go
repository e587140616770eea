package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/clinlog/clinlog/modules/directory"
	"github.com/clinlog/clinlog/modules/patient"
	"github.com/clinlog/clinlog/modules/registry"
	"github.com/clinlog/clinlog/modules/tasklog"
	"github.com/clinlog/clinlog/pkg/authn"
	"github.com/clinlog/clinlog/pkg/config"
	"github.com/clinlog/clinlog/pkg/httpjson"
	"github.com/clinlog/clinlog/pkg/httpserver"
	"github.com/clinlog/clinlog/pkg/logger"
	"github.com/clinlog/clinlog/pkg/pg"
	"github.com/clinlog/clinlog/pkg/tenant"
	"github.com/clinlog/clinlog/pkg/tenantdb"
)

type appConfig struct {
	Env             string        `env:"APP_ENV" envDefault:"development"`
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	TenantCacheTTL  time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
	RedisURL        string        `env:"REDIS_URL"` // optional; in-memory tenant cache when empty
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	var authCfg authn.Config
	config.MustLoad(&authCfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "clinlog"),
		logger.WithContextExtractors(
			tenant.LoggerExtractor(),
			authn.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, cfg, pgCfg, authCfg, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, pgCfg pg.Config, authCfg authn.Config, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	cache, closeCache, err := tenantCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	registryStore := registry.New(pool)
	tenantDir := tenant.NewCachedDirectory(registryStore, cache, cfg.TenantCacheTTL)

	users := directory.New(pool)
	auth, err := authn.New(authCfg, users, registryStore)
	if err != nil {
		return err
	}

	db := tenantdb.New(pool, tenantdb.WithLogger(log))

	loginHandler := directory.NewHandler(directory.NewService(users, auth, log), auth.TokenTTL())
	patientHandler := patient.NewHandler(patient.NewStore(db))
	tasklogHandler := tasklog.NewHandler(tasklog.NewStore(db, log))

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", healthHandler(pg.Healthcheck(pool)))
	r.Mount("/auth", loginHandler.Routes())

	// Every route in this group runs the full pipeline in order:
	// authenticate -> resolve tenant -> authorize -> bind ambient tenant.
	r.Group(func(r chi.Router) {
		r.Use(authn.Middleware(auth, authErrorHandler))
		r.Use(tenant.Middleware(
			tenant.NewResolver(tenantDir),
			tenant.WithLogger(log),
			tenant.WithErrorHandler(tenantErrorHandler(log)),
		))
		r.Mount("/patients", patientHandler.Routes(tasklogHandler.Routes()))
	})

	srv := httpserver.New(
		httpserver.WithAddr(cfg.Addr),
		httpserver.WithShutdownTimeout(cfg.ShutdownTimeout),
		httpserver.WithLogger(log),
	)
	return srv.Run(ctx, r)
}

// tenantCache picks the directory cache backend: Redis when configured,
// in-process otherwise. The returned closer releases the cache and, for the
// Redis backend, the client it rides on.
func tenantCache(ctx context.Context, cfg appConfig) (tenant.Cache, func(), error) {
	if cfg.RedisURL == "" {
		cache := tenant.NewInMemoryCache()
		return cache, func() { _ = cache.Close() }, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	cache := tenant.NewRedisCache(client, "")
	return cache, func() {
		_ = cache.Close()
		_ = client.Close()
	}, nil
}

func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			httpjson.Error(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
		httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func authErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, authn.ErrUnauthenticated) {
		httpjson.Error(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	httpjson.Error(w, http.StatusServiceUnavailable, "service unavailable")
}

// tenantErrorHandler maps pipeline failures to JSON responses. Wiring
// defects are logged loudly and reported to the client as generic server
// errors.
func tenantErrorHandler(log *slog.Logger) tenant.ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		switch {
		case errors.Is(err, tenant.ErrTenantRequired):
			httpjson.Error(w, http.StatusBadRequest, "tenant context required")
		case errors.Is(err, tenant.ErrTenantUnknown), errors.Is(err, tenant.ErrTenantNotFound):
			httpjson.Error(w, http.StatusNotFound, "unknown tenant")
		case errors.Is(err, tenant.ErrCrossTenantDenied):
			httpjson.Error(w, http.StatusForbidden, "forbidden")
		case errors.Is(err, tenant.ErrNoPrincipal), errors.Is(err, tenant.ErrNoTenantContext):
			log.ErrorContext(r.Context(), "tenant pipeline wiring defect", logger.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "internal server error")
		default:
			httpjson.Error(w, http.StatusServiceUnavailable, "service unavailable")
		}
	}
}
