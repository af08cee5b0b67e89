package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"bookdesk/internal/app"
	"bookdesk/internal/config"
	"bookdesk/internal/ratelimit"
	"bookdesk/internal/server"
	"bookdesk/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	accessTokenTTL, err := config.ParseAccessTokenTTL(cfg.AccessTokenTTL)
	if err != nil {
		log.Fatalf("failed to parse access token ttl: %v", err)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:      cfg.DatabaseURL,
		RedisAddr:        cfg.RedisAddr,
		RedisPassword:    cfg.RedisPassword,
		JWTSecret:        cfg.JWTSecret,
		JWTAlgorithm:     cfg.JWTAlgorithm,
		AccessTokenTTL:   accessTokenTTL,
		ModerationStream: cfg.ModerationStream,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	registerLimiter, err := newLimiter(cfg, "bookdesk:ratelimit:register", cfg.RegisterRateLimitPerMinute)
	if err != nil {
		log.Fatalf("failed to init register rate limiter: %v", err)
	}
	loginLimiter, err := newLimiter(cfg, "bookdesk:ratelimit:login", cfg.LoginRateLimitPerMinute)
	if err != nil {
		log.Fatalf("failed to init login rate limiter: %v", err)
	}

	httpServer := server.New(server.Config{
		App:             appCore,
		RegisterLimiter: registerLimiter,
		LoginLimiter:    loginLimiter,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("catalog server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func newLimiter(cfg config.FileConfig, prefix string, perMinute int) (*ratelimit.FixedWindowLimiter, error) {
	if perMinute <= 0 {
		return nil, nil
	}
	return ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, perMinute, time.Minute)
}
