package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/feature/auth/transport/http/dto"
	"natours_backend/internal/feature/auth/usecase"
	"natours_backend/internal/shared/apperr"
)

const (
	msgNotForPasswords = "This route is not for password updates. Please use /updateMyPassword."
	msgNoUserWithID    = "No user found with that ID"
)

// UserStore is the account management surface used by the user routes.
type UserStore interface {
	FindByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error)
	UpdateProfile(ctx context.Context, u *entity.User, name, email string) error
	Deactivate(ctx context.Context, u *entity.User) error
	List(ctx context.Context) ([]entity.User, error)
	UpdateRole(ctx context.Context, id string, role entity.Role) (*entity.User, error)
}

// UserHandler serves the self-service and admin user routes.
type UserHandler struct {
	users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the logged-in user.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"data": dto.NewUserRes(user)}})
}

// UpdateMe changes the name and email of the logged-in user.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.UpdateMeReq
	if !bindJSON(c, &req) {
		return
	}
	if req.HasPassword() {
		fail(c, apperr.BadRequest(msgNotForPasswords))
		return
	}
	if err := h.users.UpdateProfile(c.Request.Context(), user, req.Name, req.Email); err != nil {
		slog.Warn("profile update failed", "error", err, "user_id", user.ID)
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": dto.NewUserRes(user)}})
}

// DeleteMe deactivates the logged-in user.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), user); err != nil {
		fail(c, err)
		return
	}
	slog.Info("user deactivated", "user_id", user.ID)
	c.Status(http.StatusNoContent)
}

// List returns every active user.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(users),
		"data":    gin.H{"data": dto.NewUserList(users)},
	})
}

// Get returns the active user with the id from the path.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		fail(c, notFound(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"data": dto.NewUserRes(user)}})
}

// UpdateRole assigns a role to the user with the id from the path.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req dto.UpdateRoleReq
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.UpdateRole(c.Request.Context(), c.Param("id"), entity.Role(req.Role))
	if err != nil {
		fail(c, notFound(err))
		return
	}
	slog.Info("user role updated", "user_id", user.ID, "role", user.Role)
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"data": dto.NewUserRes(user)}})
}

// Deactivate soft-deletes the user with the id from the path.
func (h *UserHandler) Deactivate(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), c.Param("id"), false)
	if err != nil {
		fail(c, notFound(err))
		return
	}
	if err := h.users.Deactivate(c.Request.Context(), user); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func notFound(err error) error {
	if errors.Is(err, usecase.ErrUserNotFound) {
		return apperr.NotFound(msgNoUserWithID)
	}
	return err
}
