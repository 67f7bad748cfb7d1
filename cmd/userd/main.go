package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/forgeml/platform/internal/auth"
	"github.com/forgeml/platform/internal/config"
	"github.com/forgeml/platform/internal/mail"
	"github.com/forgeml/platform/internal/obs"
	"github.com/forgeml/platform/internal/ratelimit"
	"github.com/forgeml/platform/internal/session"
	"github.com/forgeml/platform/internal/store/pg"
)

var version = "0.3.1"

func main() {
	// .env is for local development; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("USERD_CONFIG"))
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := obs.NewLogger(obs.LogConfig{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		App:    cfg.App.Name,
		Env:    cfg.App.Env,
	})
	if err != nil {
		zap.NewExample().Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	obs.Init()

	store, err := pg.Open(cfg.DB.DSN, cfg.DB.QueryTimeout)
	if err != nil {
		log.Fatal("open postgres", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()

	sessions := session.NewRedisStore(rdb, cfg.Redis.OpTimeout)

	tokens, err := auth.NewTokenService(cfg.JWT.Secret,
		auth.WithIssuer(cfg.JWT.Issuer),
		auth.WithAccessTTL(cfg.JWT.AccessTTL),
		auth.WithRefreshTTL(cfg.JWT.RefreshTTL),
	)
	if err != nil {
		log.Fatal("build token service", zap.Error(err))
	}
	hasher := auth.NewPasswordHasher(cfg.Password.BcryptCost, cfg.Password.HashConcurrency)

	opts := []auth.ServiceOption{
		auth.WithLogger(log),
		auth.WithPasswordPolicy(auth.PasswordPolicy{
			MinLength:      cfg.Password.MinLength,
			RequireLetter:  cfg.Password.RequireLetter,
			RequireDigit:   cfg.Password.RequireDigit,
			RequireSpecial: cfg.Password.RequireSpecial,
		}),
		// Login fails closed so an outage never opens a brute-force window;
		// registration fails open so it never blocks signups.
		auth.WithLoginLimiter(ratelimit.NewRedisLimiter(
			rdb, "login", cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow, false)),
		auth.WithRegisterLimiter(ratelimit.NewRedisLimiter(
			rdb, "register", cfg.RateLimit.RegisterLimit, cfg.RateLimit.RegisterWindow, true)),
	}
	if cfg.Mail.ResendAPIKey != "" {
		opts = append(opts, auth.WithVerificationMail(
			sessions, mail.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.From)))
	} else {
		log.Warn("resend api key not set, email verification disabled")
	}

	svc, err := auth.NewService(store.Users(), store.Roles(), sessions, tokens, hasher, opts...)
	if err != nil {
		log.Fatal("build auth service", zap.Error(err))
	}

	if err := svc.EnsureDefaults(context.Background()); err != nil {
		log.Fatal("seed builtin roles", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.DB().PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.Handle("/metrics", obs.Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Info("starting userd", zap.String("version", version), zap.String("addr", srv.Addr))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Info("stopped")
}
