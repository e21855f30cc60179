package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestIssuer_IssueAndVerify は発行したトークンが同じ秘密鍵で検証でき、subとiatが保持されることを検証します。
func TestIssuer_IssueAndVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	iss := NewIssuer("test-secret", 90*24*time.Hour, WithClock(fixedClock(now)))

	tok, err := iss.Issue("4b1c1a39-2f0e-4d8e-9d1a-0f3f8c1b2a77")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := iss.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "4b1c1a39-2f0e-4d8e-9d1a-0f3f8c1b2a77", claims.Subject)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(90*24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssuer_VerifyExpired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, err := NewIssuer("s", time.Second, WithClock(fixedClock(issuedAt))).Issue("u1")
	require.NoError(t, err)

	later := NewIssuer("s", time.Second, WithClock(fixedClock(issuedAt.Add(2*time.Second))))
	_, err = later.Verify(tok)

	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenMalformed)
}

func TestIssuer_VerifyMalformed(t *testing.T) {
	t.Parallel()

	iss := NewIssuer("test-secret", time.Hour)

	valid, err := iss.Issue("u1")
	require.NoError(t, err)

	otherSecret, err := NewIssuer("other-secret", time.Hour).Issue("u1")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u1",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "u1",
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "garbage"},
		{"empty", ""},
		{"tampered signature", valid[:len(valid)-2] + "xx"},
		{"wrong secret", otherSecret},
		{"alg none", noneToken},
		{"missing subject", noSubject},
		{"missing expiry", noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := iss.Verify(tt.token)
			assert.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestExtractToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		cookie   string
		expected string
	}{
		{"bearer header", "Bearer abc", "", "abc"},
		{"cookie only", "", "fromcookie", "fromcookie"},
		{"header wins over cookie", "Bearer fromheader", "fromcookie", "fromheader"},
		{"basic auth falls back to cookie", "Basic dXNlcjpwYXNz", "fromcookie", "fromcookie"},
		{"lowercase bearer ignored", "bearer abc", "", ""},
		{"empty bearer falls back to cookie", "Bearer ", "fromcookie", "fromcookie"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}

			assert.Equal(t, tt.expected, ExtractToken(req))
		})
	}
}
