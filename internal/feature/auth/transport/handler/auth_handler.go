// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/feature/auth/transport/http/dto"
	"natours_backend/internal/feature/auth/transport/middleware"
	"natours_backend/internal/feature/auth/usecase"
	jwtmw "natours_backend/internal/platform/jwt"
	"natours_backend/internal/platform/metrics"
	"natours_backend/internal/shared/apperr"
)

const (
	msgTokenSent    = "Token sent to email!"
	msgInvalidBody  = "Invalid request body."
	msgBodyTooLarge = "Request body is too large."
	loggedOutValue  = "loggedout"
	loggedOutMaxAge = 10 * time.Second
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は新規ユーザーを登録し、セッショントークンを返します。
	Signup(ctx context.Context, in usecase.SignupInput) (*entity.User, string, error)
	// Login はユーザーを認証し、成功時にJWTトークンを返します。
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	// UpdatePassword は現在のパスワードを確認してから変更し、新しいトークンを返します。
	UpdatePassword(ctx context.Context, user *entity.User, current, password, confirm string) (string, error)
}

// ResetUsecase runs the forgot/reset password handshake.
type ResetUsecase interface {
	RequestReset(ctx context.Context, email string, resetURL func(secret string) string) error
	ResetPassword(ctx context.Context, secret, password, confirm string) (*entity.User, string, error)
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	TTL time.Duration
	// Secure forces the Secure flag; it is also set for TLS requests.
	Secure bool
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth    AuthUsecase
	reset   ResetUsecase
	cookies CookieConfig
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
func NewAuthHandler(auth AuthUsecase, reset ResetUsecase, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, reset: reset, cookies: cookies}
}

// Signup はユーザー登録APIエンドポイントを処理します。
// 成功時は201とトークン、ユーザー情報を返却します。
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if !bindJSON(c, &req) {
		return
	}
	user, token, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		slog.Warn("signup failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		metrics.RecordAuthEvent("signup", "failure")
		fail(c, err)
		return
	}
	slog.Info("user signup successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	metrics.RecordAuthEvent("signup", "success")
	h.sendToken(c, http.StatusCreated, user, token)
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - email/passwordが空の場合は400を返却
// - 認証失敗時は401を返却
// - 認証成功時はJWTトークン付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if !bindJSON(c, &req) {
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("login failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		metrics.RecordAuthEvent("login", "failure")
		fail(c, err)
		return
	}
	slog.Info("user login successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	metrics.RecordAuthEvent("login", "success")
	h.sendToken(c, http.StatusOK, user, token)
}

// Logout overwrites the session cookie with a short-lived placeholder.
func (h *AuthHandler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     jwtmw.CookieName,
		Value:    loggedOutValue,
		Path:     "/",
		Expires:  time.Now().Add(loggedOutMaxAge),
		MaxAge:   int(loggedOutMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secure(c),
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(http.StatusOK, dto.MessageRes{Status: "success"})
}

// ForgotPassword mails a reset link to the account holder.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordReq
	if !bindJSON(c, &req) {
		return
	}
	resetURL := func(secret string) string {
		return fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", scheme(c), c.Request.Host, secret)
	}
	if err := h.reset.RequestReset(c.Request.Context(), req.Email, resetURL); err != nil {
		slog.Warn("password reset request failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
		metrics.RecordAuthEvent("forgot_password", "failure")
		fail(c, err)
		return
	}
	metrics.RecordAuthEvent("forgot_password", "success")
	c.JSON(http.StatusOK, dto.MessageRes{Status: "success", Message: msgTokenSent})
}

// ResetPassword consumes the secret from the URL and logs the user in.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordReq
	if !bindJSON(c, &req) {
		return
	}
	user, token, err := h.reset.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		slog.Warn("password reset failed", "error", err, "remote_addr", c.ClientIP())
		metrics.RecordAuthEvent("reset_password", "failure")
		fail(c, err)
		return
	}
	slog.Info("password reset successful", "user_id", user.ID, "remote_addr", c.ClientIP())
	metrics.RecordAuthEvent("reset_password", "success")
	h.sendToken(c, http.StatusOK, user, token)
}

// UpdateMyPassword changes the password of the logged-in user.
func (h *AuthHandler) UpdateMyPassword(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.UpdatePasswordReq
	if !bindJSON(c, &req) {
		return
	}
	token, err := h.auth.UpdatePassword(c.Request.Context(), user, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		slog.Warn("password update failed", "error", err, "user_id", user.ID, "remote_addr", c.ClientIP())
		metrics.RecordAuthEvent("update_password", "failure")
		fail(c, err)
		return
	}
	metrics.RecordAuthEvent("update_password", "success")
	h.sendToken(c, http.StatusOK, user, token)
}

func (h *AuthHandler) sendToken(c *gin.Context, status int, user *entity.User, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     jwtmw.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cookies.TTL),
		MaxAge:   int(h.cookies.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure(c),
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(status, dto.TokenRes{
		Status: "success",
		Token:  token,
		Data:   dto.UserData{User: dto.NewUserRes(user)},
	})
}

func (h *AuthHandler) secure(c *gin.Context) bool {
	return h.cookies.Secure || scheme(c) == "https"
}

func scheme(c *gin.Context) string {
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		return "https"
	}
	return "http"
}

// bindJSON decodes the body into req. On failure the error is attached to the
// context and false is returned.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			fail(c, apperr.BadRequest(msgBodyTooLarge))
		case errors.Is(err, io.EOF):
			// 空のボディはゼロ値として扱い、検証はユースケースに任せる
			return true
		default:
			slog.Warn("request body invalid", "error", err, "path", c.Request.URL.Path, "remote_addr", c.ClientIP())
			fail(c, apperr.BadRequest(msgInvalidBody))
		}
		return false
	}
	return true
}

func requireUser(c *gin.Context) (*entity.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		fail(c, apperr.Unauthenticated("You are not logged in! Please log in to get access."))
		return nil, false
	}
	return user, true
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
