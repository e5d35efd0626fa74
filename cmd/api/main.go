// Package main is the entrypoint for the note generation API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/notegen/notegen/internal/auth"
	"github.com/notegen/notegen/internal/cache"
	"github.com/notegen/notegen/internal/config"
	"github.com/notegen/notegen/internal/events"
	"github.com/notegen/notegen/internal/handler"
	"github.com/notegen/notegen/internal/jobs"
	"github.com/notegen/notegen/internal/metrics"
	"github.com/notegen/notegen/internal/repository"
	"github.com/notegen/notegen/internal/server"
	"github.com/notegen/notegen/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	loc, err := cfg.QuotaLocation()
	if err != nil {
		logger.Error("invalid quota timezone", "error", err)
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:       cfg.JWTSecret,
		PublicKeyPEM: cfg.JWTPublicKey,
		Issuer:       cfg.JWTIssuer,
		Audience:     cfg.JWTAudience,
	})
	if err != nil {
		logger.Error("failed to initialize token verifier", "error", err)
		os.Exit(1)
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	recorder := metrics.NewPrometheus()
	publisher := events.NewPublisher(cacheClient.Client(), logger, recorder)

	ledger := service.NewLedger(cfg.QuotaFreeDailyLimit, cfg.QuotaPremiumDailyLimit, loc)
	noteService := service.NewNoteService(repo, repo, publisher, ledger, logger, recorder)
	profileService := service.NewProfileService(repo, publisher, logger, recorder)
	expiryService := service.NewExpiryService(repo, publisher, cfg.ExpiryRetention, logger, recorder)

	r := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Health:             handler.NewHealthHandler(repo, cacheClient, logger),
		Notes:              handler.NewNoteHandler(noteService, logger),
		Profiles:           handler.NewProfileHandler(profileService, logger),
		Metrics:            recorder.Handler(),
		Verifier:           verifier,
		Limiter:            cacheClient,
		RateLimitEnabled:   cfg.RateLimitIPEnabled,
		RateLimitRPS:       cfg.RateLimitIPRPS,
		RateLimitBurst:     cfg.RateLimitIPBurst,
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		IsDevelopment:      cfg.IsDevelopment(),
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Hooks run in reverse order: the expiry job stops first, then the
	// worker, and the publisher drains last, before Redis is closed.
	srv.OnShutdown("note-event-publisher", publisher.Shutdown)

	if cfg.EventsWorkerEnabled {
		worker := events.NewWorker(cacheClient.Client(), events.NewLogHandler(logger), logger, events.NewConsumerID(), recorder)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("note event worker exited", "error", err)
			}
		}()
		srv.OnShutdown("note-event-worker", worker.Shutdown)
	}

	if cfg.ExpiryEnabled {
		expiryJob := jobs.NewExpiryJob(expiryService, jobs.ExpiryConfig{
			Location:    loc,
			Timeout:     cfg.ExpiryTimeout,
			MaxAttempts: cfg.ExpiryMaxAttempts,
		}, logger, recorder)
		go func() {
			if err := expiryJob.Run(ctx); err != nil {
				logger.Error("expiry job exited", "error", err)
			}
		}()
		srv.OnShutdown("expiry-job", expiryJob.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"quota_timezone", loc.String(),
		"free_daily_limit", cfg.QuotaFreeDailyLimit,
		"premium_daily_limit", cfg.QuotaPremiumDailyLimit,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "notegen")
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		if username := parsed.User.Username(); username != "" {
			parsed.User = url.User(username)
		} else {
			parsed.User = url.User("redacted")
		}
	}
	return parsed.String()
}

// sanitizeError removes connection secrets from driver error text.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, redactURL(secret))
	}
	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
