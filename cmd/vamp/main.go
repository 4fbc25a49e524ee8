// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the VAMP community server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vamp/internal/avatar"
	"vamp/internal/cache"
	"vamp/internal/config"
	"vamp/internal/database"
	"vamp/internal/handlers"
	"vamp/internal/middleware"
	"vamp/internal/oauth"
	"vamp/internal/render"
	"vamp/internal/router"
	"vamp/internal/session"
	"vamp/internal/storage"
	"vamp/internal/store"
)

// Sign-in attempts allowed per client IP within authRateWindow.
const (
	authRateLimit  = 20
	authRateWindow = time.Minute
)

func main() {
	// Values from .env fill in whatever the environment leaves unset.
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"base_url", cfg.BaseURL,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions and the page cache).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// S3-compatible storage is optional; without it avatars stay on GitHub.
	storageClient, err := storage.New(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	var avatars *avatar.Cacher
	if storageClient != nil {
		avatars = avatar.NewCacher(storageClient)
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, avatars are served from GitHub")
	}

	// GitHub sign-in is optional in development.
	var provider oauth.Provider
	github, err := oauth.NewGitHubProvider(oauth.GitHubConfig{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.GitHubCallbackURL(),
	})
	switch {
	case err == nil:
		provider = github
	case errors.Is(err, oauth.ErrMissingClientID), errors.Is(err, oauth.ErrMissingClientSecret):
		slog.Warn("github oauth not configured, sign-in disabled")
	default:
		slog.Error("failed to initialize github oauth", "error", err)
		os.Exit(1)
	}

	profileStore := store.NewProfileStore(db)
	projectStore := store.NewProjectStore(db)
	grantStore := store.NewGrantStore(db)
	submissionStore := store.NewSubmissionStore(db)

	authLimiter := middleware.NewRateLimiter(authRateLimit, authRateWindow,
		middleware.WithLimitResponse(renderer.Error))
	defer authLimiter.Stop()

	h := router.Handlers{
		Public: handlers.NewPublic(renderer, profileStore, projectStore, grantStore, submissionStore, pageCache),
		Auth: handlers.NewAuth(renderer, sessionStore, profileStore, handlers.AuthConfig{
			Provider:  provider,
			Avatars:   avatars,
			PageCache: pageCache,
			IsAdmin:   cfg.IsAdminLogin,
			Secure:    secureCookies,
		}),
		Member:    handlers.NewMember(renderer, sessionStore, profileStore, projectStore, grantStore, submissionStore, pageCache),
		Admin:     handlers.NewAdmin(renderer, grantStore, pageCache),
		ErrorPage: renderer.Error,
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.New(sessionStore, h, authLimiter, secureCookies),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
