package router

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"natours_backend/internal/feature/auth/domain/entity"
	authhandler "natours_backend/internal/feature/auth/transport/handler"
	authmw "natours_backend/internal/feature/auth/transport/middleware"
	"natours_backend/internal/platform/http/errorhandler"
	"natours_backend/internal/platform/http/handler"
	httpmw "natours_backend/internal/platform/http/middleware"
	"natours_backend/internal/platform/http/views"
	"natours_backend/internal/platform/metrics"
	"natours_backend/internal/shared/ratelimiter"
)

// Deps are the components the routes are built from.
type Deps struct {
	Auth    *authhandler.AuthHandler
	Users   *authhandler.UserHandler
	Pages   *authhandler.PageHandler
	Tokens  authmw.TokenVerifier
	Finder  authmw.UserFinder
	Limiter ratelimiter.RateLimiterInterface
	Ready   handler.ReadinessChecker
}

// Options control the global middleware.
type Options struct {
	Mode        errorhandler.Mode
	Logger      *slog.Logger
	BodyLimit   int64
	CORSOrigins []string
	// TrustedProxies はX-Forwarded-Forを信頼するプロキシのIP/CIDR。空なら接続元アドレスのみを使う
	TrustedProxies []string
}

func NewRouter(opts Options, deps Deps) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, oops.Code("trusted_proxies_invalid").With("trusted_proxies", opts.TrustedProxies).Wrap(err)
	}
	r.SetHTMLTemplate(views.Templates())

	// リクエストログ → エラー変換 → パニック回復 の順で適用
	r.Use(
		httpmw.RequestLogger(opts.Logger),
		errorhandler.Middleware(opts.Mode, opts.Logger),
		errorhandler.Recovery(),
		cors.New(corsConfig(opts.CORSOrigins)),
	)
	r.NoRoute(errorhandler.NotFound)

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(deps.Ready))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	protect := authmw.Protect(deps.Tokens, deps.Finder)

	// API は IP ごとのレート制限とボディサイズ制限の対象
	api := r.Group("/api", httpmw.RateLimit(deps.Limiter), httpmw.BodyLimit(opts.BodyLimit))

	users := api.Group("/v1/users")
	{
		users.POST("/signup", deps.Auth.Signup)
		users.POST("/login", deps.Auth.Login)
		users.GET("/logout", deps.Auth.Logout)
		users.POST("/forgotPassword", deps.Auth.ForgotPassword)
		users.PATCH("/resetPassword/:token", deps.Auth.ResetPassword)
	}

	// 認証必須のルート
	me := users.Group("", protect)
	{
		me.PATCH("/updateMyPassword", deps.Auth.UpdateMyPassword)
		me.GET("/me", deps.Users.Me)
		me.PATCH("/updateMe", deps.Users.UpdateMe)
		me.DELETE("/deleteMe", deps.Users.DeleteMe)
	}

	// 管理者のみ
	admin := me.Group("", authmw.RestrictTo(entity.RoleAdmin))
	{
		admin.GET("", deps.Users.List)
		admin.GET("/:id", deps.Users.Get)
		admin.PATCH("/:id/role", deps.Users.UpdateRole)
		admin.DELETE("/:id", deps.Users.Deactivate)
	}

	bookings := api.Group("/v1/bookings", protect, authmw.RestrictTo(entity.RoleAdmin, entity.RoleLeadGuide))
	bookings.GET("", listBookings)

	// 画面
	r.GET("/login", authmw.IsLoggedIn(deps.Tokens, deps.Finder), deps.Pages.Login)
	r.GET("/me", protect, deps.Pages.Account)

	return r, nil
}

// listBookings stands in for the booking listing; bookings are stored elsewhere.
func listBookings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": 0, "data": gin.H{"data": []any{}}})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", httpmw.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
