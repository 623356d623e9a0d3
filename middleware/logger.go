package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusmesh/campus/api/authz"
	logger "github.com/campusmesh/campus/api/logging"
)

// RequestLogger logs every request once it completes. It runs after the
// authentication middlewares, so when a principal was attached the line
// names who acted and, for tenant traffic, which institution they act for.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if userID := c.GetString("requestingUserID"); userID != "" {
			fields = append(fields, zap.String("requestingUserID", userID))
		}
		if user := authz.CurrentInstitutionUser(c); user != nil {
			fields = append(fields, zap.String("institutionID", user.InstitutionID))
		}

		if len(c.Errors) > 0 {
			for _, e := range c.Errors.Errors() {
				logger.Error("Request failed", append(fields, zap.String("error", e))...)
			}
			return
		}

		logger.Info("Request processed", fields...)
	}
}
