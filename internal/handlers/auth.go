package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"userhub/internal/httpx"
	"userhub/internal/middleware"
	"userhub/internal/security"
	"userhub/internal/service"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=user admin"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.ErrorDetails(c, http.StatusBadRequest, httpx.CodeValidationError, "Invalid input", err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			httpx.Error(c, http.StatusConflict, httpx.CodeEmailExists, "Email already in use")
			return
		}
		h.fail(c, err)
		return
	}

	httpx.OK(c, http.StatusCreated, service.NewUserView(user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.ErrorDetails(c, http.StatusBadRequest, httpx.CodeValidationError, "Invalid input", err.Error())
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.Error(c, http.StatusUnauthorized, httpx.CodeInvalidCredentials, "Invalid email or password")
			return
		}
		h.fail(c, err)
		return
	}

	fingerprint := security.Fingerprint(c.ClientIP(), c.GetHeader("User-Agent"))
	pair, err := h.authService.IssueTokens(user, fingerprint)
	if err != nil {
		h.fail(c, err)
		return
	}

	httpx.OK(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, httpx.CodeValidationError, "refresh_token is required")
		return
	}

	fingerprint := security.Fingerprint(c.ClientIP(), c.GetHeader("User-Agent"))
	pair, err := h.authService.Rotate(c.Request.Context(), req.RefreshToken, fingerprint)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			httpx.Error(c, http.StatusUnauthorized, httpx.CodeTokenExpired, "Token expired")
		case errors.Is(err, security.ErrTokenSignatureInvalid):
			httpx.Error(c, http.StatusUnauthorized, httpx.CodeTokenInvalidSignature, "Invalid token signature")
		case errors.Is(err, security.ErrTokenInvalid):
			httpx.Error(c, http.StatusUnauthorized, httpx.CodeTokenInvalid, "Invalid token")
		case errors.Is(err, service.ErrWrongTokenType):
			httpx.Error(c, http.StatusUnauthorized, httpx.CodeTokenWrongType, "Refresh token required")
		case errors.Is(err, service.ErrUserNotFound):
			httpx.Error(c, http.StatusNotFound, httpx.CodeUserNotFound, "User not found")
		case errors.Is(err, service.ErrTokenRevoked):
			httpx.Error(c, http.StatusUnauthorized, httpx.CodeTokenRevoked, "Token has been revoked")
		default:
			h.fail(c, err)
		}
		return
	}

	httpx.OK(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeMissingAuthHeader, "Authentication required")
		return
	}

	h.authService.Logout(c.Request.Context(), claims)
	httpx.OK(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h HandlerSet) LogoutAll(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeMissingAuthHeader, "Authentication required")
		return
	}

	if err := h.authService.RevokeAll(c.Request.Context(), user.ID); err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"message": "Logged out from all sessions"})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, httpx.CodeMissingAuthHeader, "Authentication required")
		return
	}

	c.Header("ETag", security.ETagFromTime(user.UpdatedAt))
	httpx.OK(c, http.StatusOK, service.NewUserView(user))
}

// fail logs the underlying error and returns the scrubbed envelope.
func (h HandlerSet) fail(c *gin.Context, err error) {
	h.log.Error().Err(err).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.Writer.Header().Get("X-Request-Id")).
		Msg("request failed")
	httpx.Error(c, http.StatusInternalServerError, httpx.CodeInternalError, "Unexpected server error")
}
