// Package errorhandler turns errors attached to a gin context into client
// responses: JSON for /api routes and the error page for everything else.
package errorhandler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"natours_backend/internal/platform/http/views"
	"natours_backend/internal/platform/logging"
	"natours_backend/internal/platform/metrics"
	"natours_backend/internal/shared/apperr"
)

// Mode selects how much detail reaches the client.
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

const (
	pageTitle          = "Something went wrong!"
	msgUnknownAPI      = "Something went wrong. Please try again later."
	msgUnknownPage     = "Please try again later."
	msgUnknownFallback = "An unknown error occurred"
)

// Middleware must be the outermost handler. It runs the rest of the chain and
// renders the last error any stage attached with c.Error.
func Middleware(mode Mode, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if c.Writer.Written() {
			logger.WarnContext(c.Request.Context(), "error after response was written",
				append(logging.ErrorAttrs(err), "path", c.Request.URL.Path)...)
			return
		}
		render(c, mode, logger, err)
	}
}

func render(c *gin.Context, mode Mode, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	statusCode := kind.Status()
	metrics.RecordError(kind.String())

	message := msgUnknownFallback
	if e, ok := apperr.As(err); ok && e.Message != "" {
		message = e.Message
	} else if !ok && err.Error() != "" {
		message = err.Error()
	}

	isAPI := strings.HasPrefix(c.Request.URL.Path, "/api")
	logError(c, mode, logger, kind, err)

	if mode == Development {
		if isAPI {
			c.JSON(statusCode, gin.H{
				"status":  statusText(statusCode),
				"error":   errorDetail(kind, statusCode, err),
				"message": message,
				"stack":   stacktrace(err),
			})
			return
		}
		c.HTML(statusCode, views.Error, gin.H{"title": pageTitle, "msg": message})
		return
	}

	// Production: only operational messages reach the client
	if !kind.Operational() {
		if isAPI {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": msgUnknownAPI})
			return
		}
		c.HTML(http.StatusInternalServerError, views.Error, gin.H{"title": pageTitle, "msg": msgUnknownPage})
		return
	}
	if isAPI {
		c.JSON(statusCode, gin.H{"status": statusText(statusCode), "message": message})
		return
	}
	c.HTML(statusCode, views.Error, gin.H{"title": pageTitle, "msg": message})
}

func logError(c *gin.Context, mode Mode, logger *slog.Logger, kind apperr.Kind, err error) {
	ctx := c.Request.Context()
	attrs := append(logging.ErrorAttrs(err),
		"kind", kind.String(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
	)

	switch {
	case !kind.Operational() || kind == apperr.KindInternal:
		logger.ErrorContext(ctx, "request failed", attrs...)
	case mode == Development:
		logger.WarnContext(ctx, "request failed", attrs...)
	default:
		logger.DebugContext(ctx, "request failed", attrs...)
	}
}

func statusText(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}

func errorDetail(kind apperr.Kind, statusCode int, err error) gin.H {
	detail := gin.H{
		"kind":          kind.String(),
		"statusCode":    statusCode,
		"isOperational": kind.Operational(),
	}
	if e, ok := apperr.As(err); ok {
		if e.Field != "" {
			detail["field"] = e.Field
			detail["value"] = e.Value
		}
		if len(e.Fields) > 0 {
			detail["fields"] = e.Fields
		}
		if e.Err != nil {
			detail["cause"] = e.Err.Error()
		}
		return detail
	}
	detail["cause"] = err.Error()
	return detail
}

func stacktrace(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Stacktrace()
	}
	return ""
}

// NotFound handles requests that match no route.
func NotFound(c *gin.Context) {
	_ = c.Error(apperr.NotFound(fmt.Sprintf("Can't find %s on this server!", c.Request.URL.RequestURI())))
	c.Abort()
}

// Recovery converts panics into errors for Middleware to render.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		_ = c.Error(oops.Code("panic").With("path", c.Request.URL.Path).Errorf("panic recovered: %v", recovered))
		c.Abort()
	})
}
