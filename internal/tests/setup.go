// Package tests holds the Postgres-backed integration and end-to-end suites.
// They skip when DATABASE_URL is unset.
package tests

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/signalix/phoneauth/internal/auth"
	"github.com/signalix/phoneauth/internal/config"
	httphandler "github.com/signalix/phoneauth/internal/http"
	"github.com/signalix/phoneauth/internal/http/handlers"
	"github.com/signalix/phoneauth/internal/repo"
	"go.uber.org/zap"
)

// defaultEnv is applied for every key the caller has not set.
var defaultEnv = map[string]string{
	"AUTH_SECRET":                 "test-jwt-secret-at-least-32-characters-long",
	"AUTH_ALGORITHM":              "HS256",
	"ACCESS_TOKEN_EXPIRE_SECONDS": "900",
	"REFRESH_TOKEN_EXPIRE_DAYS":   "30",
	"AUTH_CODE_LENGTH":            "6",
	"AUTH_CODE_EXPIRE_SECONDS":    "300",
	"AUTH_CODE_SALT":              "test-code-salt",
	"DEV_MODE":                    "true",
}

// SetDefaultEnv fills in test configuration. DATABASE_URL is never set here.
func SetDefaultEnv() {
	for k, v := range defaultEnv {
		if os.Getenv(k) == "" {
			_ = os.Setenv(k, v)
		}
	}
}

// NewRouter wires the service against Postgres the same way cmd/api does,
// with the logging code sender.
func NewRouter(cfg *config.Config, database *sql.DB, logger *zap.Logger) (http.Handler, error) {
	userRepo := repo.NewUserRepo(database)
	codeRepo := repo.NewCodeRepo(database)
	blacklistRepo := repo.NewBlacklistRepo(database)

	var opts []auth.CodeIssuerOption
	if cfg.DevMode {
		opts = append(opts, auth.WithFixedCode(cfg.DevCode()))
	}
	codeIssuer := auth.NewCodeIssuer(codeRepo, auth.NewLogSender(logger), cfg.Auth.CodeSalt,
		cfg.Auth.CodeLength, cfg.Auth.CodeTTL(), logger, opts...)

	jwtService, err := auth.NewJWTService(cfg.Auth.Secret, cfg.Auth.Algorithm,
		cfg.Auth.AccessTokenTTL(), cfg.Auth.RefreshTokenTTL())
	if err != nil {
		return nil, err
	}
	authService := auth.NewAuthService(codeIssuer, jwtService, userRepo, blacklistRepo, logger)

	return httphandler.NewRouter(httphandler.RouterDeps{
		Auth:   handlers.NewAuthHandler(authService, cfg.DevCode(), logger),
		Users:  authService,
		Logger: logger,
	}), nil
}
