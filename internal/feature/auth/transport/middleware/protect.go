// Package middleware は認証・認可のginミドルウェアを提供します。
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"natours_backend/internal/feature/auth/domain/entity"
	"natours_backend/internal/feature/auth/usecase"
	jwtmw "natours_backend/internal/platform/jwt"
	"natours_backend/internal/platform/metrics"
	"natours_backend/internal/shared/apperr"
)

const (
	msgNotLoggedIn      = "You are not logged in! Please log in to get access."
	msgUserGone         = "The user belonging to this token no longer exists."
	msgPasswordChanged  = "User recently changed password! Please log in again."
	msgPermissionDenied = "You do not have permission to perform this action"
)

// userKey is the gin context key holding the authenticated user.
const userKey = "currentUser"

type ctxKey struct{}

// TokenVerifier checks a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*jwtmw.Claims, error)
}

// UserFinder loads the account a token belongs to.
type UserFinder interface {
	FindByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error)
}

// Protect requires a valid session token whose user still exists and has not
// changed password since the token was issued.
func Protect(tokens TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authenticate(c.Request, tokens, users)
		if err != nil {
			metrics.RecordAuthEvent("protect", "failure")
			_ = c.Error(err)
			c.Abort()
			return
		}
		SetCurrentUser(c, user)
		c.Next()
	}
}

// IsLoggedIn runs the same checks as Protect for rendered pages but never
// fails: on any problem the request continues anonymously.
func IsLoggedIn(tokens TokenVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := authenticate(c.Request, tokens, users); err == nil {
			SetCurrentUser(c, user)
		}
		c.Next()
	}
}

// RestrictTo allows only users holding one of roles. It must run after Protect.
func RestrictTo(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			_ = c.Error(apperr.Unauthenticated(msgNotLoggedIn))
			c.Abort()
			return
		}
		if !user.HasRole(roles...) {
			_ = c.Error(apperr.Forbidden(msgPermissionDenied))
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(r *http.Request, tokens TokenVerifier, users UserFinder) (*entity.User, error) {
	// 1) トークンの取得
	token := jwtmw.ExtractToken(r)
	if token == "" {
		return nil, apperr.Unauthenticated(msgNotLoggedIn)
	}

	// 2) 署名と有効期限の検証
	claims, err := tokens.Verify(token)
	if err != nil {
		if errors.Is(err, jwtmw.ErrTokenExpired) {
			return nil, apperr.TokenExpired(err)
		}
		return nil, apperr.TokenMalformed(err)
	}

	// 3) ユーザーがまだ存在するか
	user, err := users.FindByID(r.Context(), claims.Subject, false)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) || apperr.KindOf(err) == apperr.KindInvalidID {
			return nil, apperr.Unauthenticated(msgUserGone)
		}
		return nil, err
	}

	// 4) トークン発行後にパスワードが変更されていないか
	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperr.Unauthenticated(msgPasswordChanged)
	}
	return user, nil
}

// SetCurrentUser stores user for the handlers further down the chain.
func SetCurrentUser(c *gin.Context, user *entity.User) {
	c.Set(userKey, user)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, user))
}

// CurrentUser returns the user stored by Protect or IsLoggedIn.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entity.User)
	return user, ok && user != nil
}

// UserFromContext returns the authenticated user carried by ctx.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(*entity.User)
	return user, ok && user != nil
}
