package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/signalix/phoneauth/internal/logger"
	"github.com/signalix/phoneauth/internal/middleware"
	"github.com/signalix/phoneauth/internal/model"
	"go.uber.org/zap"
)

// AuthService is the subset of *auth.AuthService the handlers call.
type AuthService interface {
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (*model.User, model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
	devCode     string
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler. A non-empty devCode is echoed
// back by request_code so local clients can log in without an SMS gateway.
func NewAuthHandler(authService AuthService, devCode string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		devCode:     devCode,
		logger:      logger.Named("auth_handler"),
	}
}

// requestCodeRequest is the request body for POST /auth/request_code
type requestCodeRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

// requestCodeResponse is the JSON response for request_code
type requestCodeResponse struct {
	Message string `json:"message"`
	DevCode string `json:"dev_code,omitempty"`
}

// verifyCodeRequest is the request body for POST /auth/verify_code
type verifyCodeRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"code" validate:"required,number,max=10"`
}

// tokenResponse is returned by verify_code and refresh
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// refreshRequest is the request body for POST /auth/refresh and /auth/logout
type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// userResponse is the user object in API responses
type userResponse struct {
	ID        string `json:"id"`
	Phone     string `json:"phone"`
	Active    bool   `json:"active"`
	Superuser bool   `json:"superuser"`
}

func newTokenResponse(pair model.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
}

// HandleRequestCode handles POST /auth/request_code
func (h *AuthHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.RequestCode(r.Context(), req.Phone); err != nil {
		h.logger.Error("request code failed", logger.Phone(req.Phone), zap.Error(err))
		RespondWithServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, requestCodeResponse{Message: "code_sent", DevCode: h.devCode})
}

// HandleVerifyCode handles POST /auth/verify_code
func (h *AuthHandler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, pair, err := h.authService.VerifyCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		RespondWithServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTokenResponse(pair))
}

// HandleRefresh handles POST /auth/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeAndValidate(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	pair, err := h.authService.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		RespondWithServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTokenResponse(pair))
}

// HandleLogout handles POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeAndValidate(r, &req); err != nil {
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.authService.Logout(r.Context(), strings.TrimSpace(req.RefreshToken)); err != nil {
		RespondWithServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe handles GET /auth/me (protected). Returns the authenticated user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	respondJSON(w, http.StatusOK, userResponse{
		ID:        user.ID.String(),
		Phone:     user.PhoneNumber,
		Active:    user.Active,
		Superuser: user.Superuser,
	})
}
