// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"orderledger/internal/core/apperror"
	"orderledger/pkg/logger"
)

// Recovery turns a panic into a 500 response. The stack goes to the log only.
//
// It writes the response itself: ErrorHandler's post-Next code never runs once
// the handler chain has panicked.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"panic", rec,
				"method", c.Request.Method,
				"path", c.FullPath(),
				"stack", string(debug.Stack()),
			)

			_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)).
				WithDetail("request_id", c.GetString("request_id")))
			c.Abort()
			writeError(c)
		}()
		c.Next()
	}
}
