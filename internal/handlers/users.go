package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"userhub/internal/httpx"
	"userhub/internal/repository"
	"userhub/internal/security"
	"userhub/internal/service"
)

func (h HandlerSet) ListUsers(c *gin.Context) {
	query := service.ListQuery{
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", 20),
		Name:    c.Query("name"),
		Email:   c.Query("email"),
		Sort:    c.DefaultQuery("sort", "desc"),
		SortBy:  c.DefaultQuery("sort_by", "created_at"),
	}

	result, err := h.userService.List(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, result)
}

func (h HandlerSet) CreateUser(c *gin.Context) {
	// Same contract as self-registration, but admin-gated.
	h.RegisterUser(c)
}

func (h HandlerSet) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			httpx.Error(c, http.StatusNotFound, httpx.CodeUserNotFound, "User not found")
			return
		}
		h.fail(c, err)
		return
	}

	c.Header("ETag", security.ETagFromTime(user.UpdatedAt))
	httpx.OK(c, http.StatusOK, service.NewUserView(user))
}

type updateUserRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=255"`
	Email     *string `json:"email" binding:"omitempty,email"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
	Bio       *string `json:"bio" binding:"omitempty,max=2000"`
}

// UpdateUser serves both PUT and PATCH: every field is optional and absent
// fields are left untouched. The If-Match precondition is evaluated against
// the current row before any write.
func (h HandlerSet) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.ErrorDetails(c, http.StatusBadRequest, httpx.CodeValidationError, "Invalid input", err.Error())
		return
	}

	current, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			httpx.Error(c, http.StatusNotFound, httpx.CodeUserNotFound, "User not found")
			return
		}
		h.fail(c, err)
		return
	}

	if ifMatch := c.GetHeader("If-Match"); ifMatch != "" {
		if ifMatch != security.ETagFromTime(current.UpdatedAt) {
			httpx.Error(c, http.StatusConflict, httpx.CodeVersionConflict, "ETag mismatch")
			return
		}
	}

	updated, err := h.userService.Update(c.Request.Context(), id, repository.UserPatch{
		Name:      req.Name,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			httpx.Error(c, http.StatusConflict, httpx.CodeEmailExists, "Email already in use")
		case errors.Is(err, repository.ErrUserNotFound):
			httpx.Error(c, http.StatusNotFound, httpx.CodeUserNotFound, "User not found")
		default:
			h.fail(c, err)
		}
		return
	}

	c.Header("ETag", security.ETagFromTime(updated.UpdatedAt))
	httpx.OK(c, http.StatusOK, service.NewUserView(updated))
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			httpx.Error(c, http.StatusNotFound, httpx.CodeUserNotFound, "User not found")
			return
		}
		h.fail(c, err)
		return
	}

	httpx.OK(c, http.StatusOK, nil)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		httpx.Error(c, http.StatusNotFound, httpx.CodeUserNotFound, "User not found")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
