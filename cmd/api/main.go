package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/signalix/phoneauth/internal/auth"
	"github.com/signalix/phoneauth/internal/config"
	"github.com/signalix/phoneauth/internal/db"
	httphandler "github.com/signalix/phoneauth/internal/http"
	"github.com/signalix/phoneauth/internal/http/handlers"
	"github.com/signalix/phoneauth/internal/logger"
	"github.com/signalix/phoneauth/internal/media"
	"github.com/signalix/phoneauth/internal/repo"
	"github.com/signalix/phoneauth/internal/telemetry"
	"go.uber.org/zap"
)

const serviceName = "phoneauth"

// codeRetention keeps expired codes around long enough that a late attempt is
// reported as expired rather than unknown.
const codeRetention = 24 * time.Hour

func main() {
	// Env vars take precedence over .env.
	_ = godotenv.Load(".env")

	// Used only for failures before the configured logger exists.
	bootLog := zap.Must(zap.NewProduction())

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("failed to load configuration", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		bootLog.Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	database, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database, log); err != nil {
		return err
	}

	userRepo := repo.NewUserRepo(database)
	var (
		codeRepo      repo.CodeRepo      = repo.NewCodeRepo(database)
		blacklistRepo repo.BlacklistRepo = repo.NewBlacklistRepo(database)
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		codeRepo = repo.NewRedisCodeRepo(rdb, codeRetention)
		blacklistRepo = repo.NewRedisBlacklistRepo(rdb)
		log.Info("using redis for codes and blacklist")
	}

	var sender auth.CodeSender = auth.NewLogSender(log)
	if len(cfg.KafkaBrokers) > 0 {
		writer := auth.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaCodeTopic)
		defer writer.Close()
		sender = auth.NewKafkaSender(writer, log)
		log.Info("publishing codes to kafka", zap.String("topic", cfg.KafkaCodeTopic))
	}

	var issuerOpts []auth.CodeIssuerOption
	if cfg.DevMode {
		issuerOpts = append(issuerOpts, auth.WithFixedCode(cfg.DevCode()))
		log.Warn("dev mode enabled: every one-time code is fixed")
	}
	codeIssuer := auth.NewCodeIssuer(codeRepo, sender, cfg.Auth.CodeSalt, cfg.Auth.CodeLength, cfg.Auth.CodeTTL(), log, issuerOpts...)

	jwtService, err := auth.NewJWTService(cfg.Auth.Secret, cfg.Auth.Algorithm, cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	if err != nil {
		return err
	}
	authService := auth.NewAuthService(codeIssuer, jwtService, userRepo, blacklistRepo, log)

	janitor := auth.NewJanitor(codeRepo, blacklistRepo, cfg.JanitorInterval, codeRetention, log)
	go janitor.Run(ctx)

	deps := httphandler.RouterDeps{
		Auth:   handlers.NewAuthHandler(authService, cfg.DevCode(), log),
		Users:  authService,
		Logger: log,
	}
	if cfg.MediaEnabled() {
		store, err := media.NewS3Store(media.S3Options{
			Endpoint:  cfg.S3.EndpointURL,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
		})
		if err != nil {
			return err
		}
		deps.Media = handlers.NewMediaHandler(store, log)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httphandler.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
