package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"voice-webhook/internal/auth"
	"voice-webhook/internal/calls"
	"voice-webhook/internal/config"
	"voice-webhook/internal/params"
	"voice-webhook/pkg/logger"
	"voice-webhook/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	store, closeStore, err := openParamStore(rootCtx, cfg)
	if err != nil {
		log.Error("parameter store init failed", "backend", cfg.Params.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	resolver := params.NewResolver(store)
	history := calls.NewService(calls.NewPostgresRepo(db))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:      cfg,
		auth:     authManager,
		resolver: resolver,
		history:  history,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "param_backend", cfg.Params.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// openParamStore builds the configured parameter backend. The returned close
// func is a no-op for backends without a connection to release.
func openParamStore(ctx context.Context, cfg config.Config) (params.Store, func(), error) {
	ns := params.Namespace{SystemName: cfg.Params.SystemName, EnvType: cfg.Params.EnvType}

	switch cfg.Params.Backend {
	case "redis":
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return nil, nil, err
		}
		return params.NewRedisStore(rdb, ns), func() { _ = rdb.Close() }, nil
	case "vault":
		store, err := params.NewVaultStore(cfg.Vault.Addr, cfg.Vault.Token, cfg.Vault.Mount, cfg.Vault.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "static":
		return params.NewStaticStore(staticParamValues()), func() {}, nil
	default:
		return nil, nil, errors.New("unknown PARAMS_BACKEND " + cfg.Params.Backend)
	}
}

// staticParamValues maps PARAM_* env vars to parameter names for local runs:
// PARAM_TWILIO_AUTH_TOKEN becomes twilio-auth-token.
func staticParamValues() map[string]string {
	values := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, "PARAM_") {
			continue
		}
		name := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "PARAM_")), "_", "-")
		values[name] = v
	}
	return values
}
