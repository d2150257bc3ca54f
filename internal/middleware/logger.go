package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/greensiliconvalley/portal/pkg/logger"
)

// Scrape targets fire every few seconds; keep them out of the access log.
var accessLogSkip = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Logger writes a concise structured access log for each request. Requests
// past the auth middleware are tagged with the acting user's id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		if _, skip := accessLogSkip[path]; skip {
			return
		}

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if userID := UserID(c); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		logger.WithModule("http").Info("request", fields...)
	}
}
