// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health answers liveness checks on /healthz. HEAD gets an empty 200 and
// OPTIONS a 204; every other method gets {"status":"ok"}.
func Health(c *gin.Context) {
	noStore(c)

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadinessChecker はサービスがリクエストを受け付け可能かを返します。
type ReadinessChecker func() bool

// Ready は /readyz エンドポイントを返します。
// 起動完了前とシャットダウン中は503を返します。
func Ready(isReady ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		noStore(c)

		if isReady == nil || !isReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// noStore は中間キャッシュが状態を保持しないようにします。
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
}
