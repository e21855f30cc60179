package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/feature/auth/usecase"
	"natours_backend/internal/shared/apperr"
)

// mockUserStore is a mock implementation of the UserStore interface.
type mockUserStore struct {
	FindByIDFunc      func(ctx context.Context, id string, includeInactive bool) (*entity.User, error)
	UpdateProfileFunc func(ctx context.Context, u *entity.User, name, email string) error
	DeactivateFunc    func(ctx context.Context, u *entity.User) error
	ListFunc          func(ctx context.Context) ([]entity.User, error)
	UpdateRoleFunc    func(ctx context.Context, id string, role entity.Role) (*entity.User, error)
}

func (m *mockUserStore) FindByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id, includeInactive)
	}
	return nil, usecase.ErrUserNotFound
}

func (m *mockUserStore) UpdateProfile(ctx context.Context, u *entity.User, name, email string) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, u, name, email)
	}
	return errors.New("update profile not expected")
}

func (m *mockUserStore) Deactivate(ctx context.Context, u *entity.User) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, u)
	}
	return errors.New("deactivate not expected")
}

func (m *mockUserStore) List(ctx context.Context) ([]entity.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserStore) UpdateRole(ctx context.Context, id string, role entity.Role) (*entity.User, error) {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil, errors.New("update role not expected")
}

func TestUserHandler_Me(t *testing.T) {
	h := NewUserHandler(&mockUserStore{})
	r := newEngine()
	r.GET("/api/v1/users/me", withUser(ann()), h.Me)

	w := doJSON(r, http.MethodGet, "/api/v1/users/me", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, annID, data["id"])
	assert.Equal(t, "user", data["role"])
}

func TestUserHandler_UpdateMe(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		updateFunc     func(ctx context.Context, u *entity.User, name, email string) error
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success: name change",
			requestBody: gin.H{"name": "Annie"},
			updateFunc: func(ctx context.Context, u *entity.User, name, email string) error {
				u.Name = name
				return nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "failure: password fields rejected",
			requestBody:    gin.H{"name": "Annie", "password": "newpass123"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "This route is not for password updates. Please use /updateMyPassword.",
		},
		{
			name:        "failure: duplicate email",
			requestBody: gin.H{"email": "b@x.io"},
			updateFunc: func(ctx context.Context, u *entity.User, name, email string) error {
				return apperr.DuplicateKey("email", "b@x.io")
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    `Duplicate field value: "b@x.io". Please use another value!`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandler(&mockUserStore{UpdateProfileFunc: tt.updateFunc})
			r := newEngine()
			r.PATCH("/api/v1/users/updateMe", withUser(ann()), h.UpdateMe)

			w := doJSON(r, http.MethodPatch, "/api/v1/users/updateMe", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decode(t, w)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, body["message"])
				return
			}
			user := body["data"].(map[string]any)["user"].(map[string]any)
			assert.Equal(t, "Annie", user["name"])
		})
	}
}

func TestUserHandler_DeleteMe(t *testing.T) {
	var deactivated *entity.User
	h := NewUserHandler(&mockUserStore{DeactivateFunc: func(ctx context.Context, u *entity.User) error {
		deactivated = u
		return nil
	}})
	r := newEngine()
	r.DELETE("/api/v1/users/deleteMe", withUser(ann()), h.DeleteMe)

	w := doJSON(r, http.MethodDelete, "/api/v1/users/deleteMe", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, deactivated)
	assert.Equal(t, annID, deactivated.ID)
}

func TestUserHandler_List(t *testing.T) {
	h := NewUserHandler(&mockUserStore{ListFunc: func(ctx context.Context) ([]entity.User, error) {
		return []entity.User{*ann()}, nil
	}})
	r := newEngine()
	r.GET("/api/v1/users", h.List)

	w := doJSON(r, http.MethodGet, "/api/v1/users", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["results"])
	assert.NotContains(t, w.Body.String(), "$2a$12$secret")
}

func TestUserHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		id             string
		findFunc       func(ctx context.Context, id string, includeInactive bool) (*entity.User, error)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name: "found",
			id:   annID,
			findFunc: func(ctx context.Context, id string, includeInactive bool) (*entity.User, error) {
				assert.False(t, includeInactive)
				return ann(), nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			id:             annID,
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "No user found with that ID",
		},
		{
			name: "invalid id",
			id:   "abc",
			findFunc: func(ctx context.Context, id string, includeInactive bool) (*entity.User, error) {
				return nil, apperr.InvalidID("id", id)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid id: abc.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandler(&mockUserStore{FindByIDFunc: tt.findFunc})
			r := newEngine()
			r.GET("/api/v1/users/:id", h.Get)

			w := doJSON(r, http.MethodGet, "/api/v1/users/"+tt.id, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, decode(t, w)["message"])
			}
		})
	}
}

func TestUserHandler_UpdateRole(t *testing.T) {
	h := NewUserHandler(&mockUserStore{UpdateRoleFunc: func(ctx context.Context, id string, role entity.Role) (*entity.User, error) {
		assert.Equal(t, entity.RoleGuide, role)
		u := ann()
		u.Role = role
		return u, nil
	}})
	r := newEngine()
	r.PATCH("/api/v1/users/:id/role", h.UpdateRole)

	w := doJSON(r, http.MethodPatch, "/api/v1/users/"+annID+"/role", gin.H{"role": "guide"})

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "guide", data["role"])
}

func TestUserHandler_Deactivate(t *testing.T) {
	store := &mockUserStore{
		FindByIDFunc: func(ctx context.Context, id string, includeInactive bool) (*entity.User, error) { return ann(), nil },
		DeactivateFunc: func(ctx context.Context, u *entity.User) error {
			assert.Equal(t, annID, u.ID)
			return nil
		},
	}
	h := NewUserHandler(store)
	r := newEngine()
	r.DELETE("/api/v1/users/:id", h.Deactivate)

	w := doJSON(r, http.MethodDelete, "/api/v1/users/"+annID, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPageHandler(t *testing.T) {
	h := NewPageHandler()

	t.Run("login page anonymous", func(t *testing.T) {
		r := newEngine()
		r.GET("/login", h.Login)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Log into your account")
		assert.NotContains(t, w.Body.String(), "You are logged in")
	})

	t.Run("login page logged in", func(t *testing.T) {
		r := newEngine()
		r.GET("/login", withUser(ann()), h.Login)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Contains(t, w.Body.String(), "You are logged in as Ann.")
	})

	t.Run("account page", func(t *testing.T) {
		r := newEngine()
		r.GET("/me", withUser(ann()), h.Account)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "a@x.io")
	})

	t.Run("account page without user renders error view", func(t *testing.T) {
		r := newEngine()
		r.GET("/me", h.Account)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Something went wrong!")
	})
}
