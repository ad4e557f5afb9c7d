package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalix/phoneauth/internal/logger"
	"github.com/signalix/phoneauth/internal/metrics"
	"github.com/signalix/phoneauth/internal/model"
	"github.com/signalix/phoneauth/internal/repo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/signalix/phoneauth/internal/auth")

// AuthService orchestrates authentication operations
type AuthService struct {
	codes     *CodeIssuer
	jwt       *JWTService
	users     repo.UserRepo
	blacklist repo.BlacklistRepo
	logger    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	codes *CodeIssuer,
	jwtService *JWTService,
	users repo.UserRepo,
	blacklist repo.BlacklistRepo,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		codes:     codes,
		jwt:       jwtService,
		users:     users,
		blacklist: blacklist,
		logger:    logger.Named("auth_service"),
	}
}

// RequestCode issues a new one-time code for phone. Any phone may request one.
func (s *AuthService) RequestCode(ctx context.Context, phone string) (err error) {
	ctx, span := tracer.Start(ctx, "AuthService.RequestCode")
	defer func() { endSpan(span, err) }()

	if err := s.codes.RequestCode(ctx, phone); err != nil {
		metrics.CodesRequested.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("request code failed", logger.Phone(phone), zap.Error(err))
		return err
	}
	metrics.CodesRequested.WithLabelValues(metrics.ResultSuccess).Inc()
	return nil
}

// VerifyCode consumes the phone's code, finds or creates the user and issues a
// fresh token pair.
func (s *AuthService) VerifyCode(ctx context.Context, phone, code string) (_ *model.User, _ model.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.VerifyCode")
	defer func() { endSpan(span, err) }()

	if _, err := s.codes.ConsumeAndVerify(ctx, phone, code); err != nil {
		metrics.CodeVerifications.WithLabelValues(verifyResult(err)).Inc()
		s.logger.Info("code verification failed", logger.Phone(phone), zap.Error(err))
		return nil, model.TokenPair{}, err
	}

	user, err := s.users.GetOrCreateByPhone(ctx, phone)
	if err != nil {
		metrics.CodeVerifications.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("get or create user failed", logger.Phone(phone), zap.Error(err))
		return nil, model.TokenPair{}, fmt.Errorf("%w: %w", ErrFailedToCreate, err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	pair, err := s.jwt.IssuePair(user)
	if err != nil {
		metrics.CodeVerifications.WithLabelValues(metrics.ResultError).Inc()
		return nil, model.TokenPair{}, internal("issue tokens", err)
	}

	metrics.CodeVerifications.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Info("user authenticated", logger.Phone(phone), zap.String("user_id", user.ID.String()))
	return &user, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token's jti
// is blacklisted before anything else is checked, so each refresh token works
// at most once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (_ model.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Refresh")
	defer func() {
		endSpan(span, err)
		metrics.TokenRefreshes.WithLabelValues(refreshResult(err)).Inc()
	}()

	claims, err := s.spendRefreshToken(ctx, refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.userBySubject(ctx, claims)
	if err != nil {
		return model.TokenPair{}, err
	}

	pair, err := s.jwt.IssuePair(user)
	if err != nil {
		return model.TokenPair{}, internal("issue tokens", err)
	}
	return pair, nil
}

// Logout blacklists the refresh token so it can no longer be exchanged.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (err error) {
	ctx, span := tracer.Start(ctx, "AuthService.Logout")
	defer func() { endSpan(span, err) }()

	claims, err := s.spendRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	s.logger.Info("refresh token revoked", zap.String("user_id", claims.Subject))
	return nil
}

// CurrentActiveUser resolves an access token to its active user.
func (s *AuthService) CurrentActiveUser(ctx context.Context, accessToken string) (_ *model.User, err error) {
	ctx, span := tracer.Start(ctx, "AuthService.CurrentActiveUser")
	defer func() { endSpan(span, err) }()

	claims, err := s.jwt.Decode(accessToken)
	if err != nil {
		return nil, err
	}
	if err := ValidateType(claims, TokenTypeAccess); err != nil {
		return nil, err
	}

	user, err := s.userBySubject(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrInactive
	}
	return &user, nil
}

// spendRefreshToken decodes a refresh token and blacklists its jti.
func (s *AuthService) spendRefreshToken(ctx context.Context, refreshToken string) (*Claims, error) {
	claims, err := s.jwt.Decode(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := ValidateType(claims, TokenTypeRefresh); err != nil {
		return nil, err
	}

	jti, err := claims.TokenID()
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	err = s.blacklist.Add(ctx, jti, userID, claims.ExpiresAt.Time)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, repo.ErrAlreadyExists):
		s.logger.Warn("blacklisted refresh token presented",
			zap.String("user_id", userID.String()),
			zap.String("jti", jti.String()),
		)
		return nil, fmt.Errorf("%w: token already used", ErrInvalidToken)
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrUserNotFound
	default:
		return nil, internal("blacklist token", err)
	}
}

func (s *AuthService) userBySubject(ctx context.Context, claims *Claims) (model.User, error) {
	userID, err := claims.UserID()
	if err != nil {
		return model.User{}, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, internal("load user", err)
	}
	return user, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func verifyResult(err error) string {
	switch {
	case errors.Is(err, ErrAuthCodeExpired):
		return metrics.ResultExpired
	case errors.Is(err, ErrInvalidAuthCode):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}

func refreshResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, ErrInternal):
		return metrics.ResultError
	default:
		return metrics.ResultInvalid
	}
}
