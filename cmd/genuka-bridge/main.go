package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/genuka-bridge/internal/cache"
	cachemem "github.com/dropDatabas3/genuka-bridge/internal/cache/memory"
	cacheredis "github.com/dropDatabas3/genuka-bridge/internal/cache/redis"
	"github.com/dropDatabas3/genuka-bridge/internal/config"
	"github.com/dropDatabas3/genuka-bridge/internal/genuka"
	"github.com/dropDatabas3/genuka-bridge/internal/http/router"
	authsvc "github.com/dropDatabas3/genuka-bridge/internal/http/services/auth"
	companysvc "github.com/dropDatabas3/genuka-bridge/internal/http/services/company"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
	"github.com/dropDatabas3/genuka-bridge/internal/signature"
	"github.com/dropDatabas3/genuka-bridge/internal/store/core"
	"github.com/dropDatabas3/genuka-bridge/internal/store/memory"
	"github.com/dropDatabas3/genuka-bridge/internal/store/pg"
	"github.com/dropDatabas3/genuka-bridge/internal/webhook"
)

func main() {
	// .env es opcional; en producción las vars vienen del entorno.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using system environment: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "genuka-bridge"})
	defer func() { _ = logger.Sync() }()
	zl := logger.Named("genuka-bridge")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	var (
		repo   core.CompanyRepository
		pinger router.Pinger
	)
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxConns:        int32(cfg.Storage.Postgres.MaxConns),
			MinConns:        int32(cfg.Storage.Postgres.MinConns),
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			zl.Fatal("postgres open failed", logger.Err(err))
		}
		defer store.Close()
		if err := store.RunMigrations(ctx); err != nil {
			zl.Warn("migrations failed, continuing", logger.Err(err))
		}
		repo, pinger = store, store
	case "memory":
		repo = memory.New()
	default:
		zl.Fatal("unknown storage driver", logger.Any("driver", cfg.Storage.Driver))
	}

	// Cache
	var c cache.Cache
	switch cfg.Cache.Kind {
	case "redis":
		c = cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
	case "memory", "":
		c = cachemem.New(cfg.Cache.Memory.DefaultTTL)
	default:
		zl.Fatal("unknown cache kind", logger.Any("kind", cfg.Cache.Kind))
	}

	validator := signature.NewValidator(cfg.Genuka.ClientSecret)
	sessions := session.NewManager(cfg.Genuka.ClientSecret, session.Config{
		SessionTTL:   cfg.Session.SessionTTL,
		RefreshTTL:   cfg.Session.RefreshTTL,
		CookieDomain: cfg.Session.CookieDomain,
		Secure:       cfg.IsProd(),
	})
	client := genuka.New(cfg.Genuka.URL, cfg.Genuka.ClientID, cfg.Genuka.ClientSecret, cfg.Genuka.RedirectURI)

	companies := companysvc.NewService(repo, c, sessions)
	auth := authsvc.NewService(authsvc.Deps{
		Validator: validator,
		Tokens:    client,
		Companies: repo,
		Sessions:  sessions,
		Config: authsvc.Config{
			CallbackMaxAge:       cfg.Genuka.CallbackMaxAge,
			DefaultRedirect:      cfg.Server.DefaultRedirect,
			RedirectAllowedHosts: cfg.Server.RedirectAllowedHosts,
		},
	})

	handler := router.New(router.Deps{
		Auth:               auth,
		Companies:          companies,
		Validator:          validator,
		Webhooks:           webhook.NewDispatcher(repo, client, companies),
		Store:              pinger,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zl.Info("server listening",
			logger.Any("addr", cfg.Server.Addr),
			logger.Any("env", cfg.App.Env),
			logger.Any("storage", cfg.Storage.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", logger.Err(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", logger.Err(err))
	}
}
