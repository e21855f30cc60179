package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"natours_backend/internal/feature/auth/domain/entity"
)

func TestNewUserRes_HidesCredentials(t *testing.T) {
	t.Parallel()

	hash := "digest"
	u := &entity.User{
		ID:                     "5f1d7c2a-3b4e-4c8d-9e0f-1a2b3c4d5e6f",
		Name:                   "Ann",
		Email:                  "a@x.io",
		Photo:                  entity.DefaultPhoto,
		Role:                   entity.RoleLeadGuide,
		PasswordHash:           "$2a$12$secret",
		PasswordResetTokenHash: &hash,
		Active:                 true,
	}

	raw, err := json.Marshal(NewUserRes(u))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, map[string]any{
		"id":    u.ID,
		"name":  "Ann",
		"email": "a@x.io",
		"photo": "default.jpg",
		"role":  "lead-guide",
	}, body)
}

func TestUpdateMeReq_HasPassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		expected bool
	}{
		{"profile only", `{"name":"Ann"}`, false},
		{"password", `{"password":"pass1234"}`, true},
		{"confirm only", `{"passwordConfirm":""}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req UpdateMeReq
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.expected, req.HasPassword())
		})
	}
}
