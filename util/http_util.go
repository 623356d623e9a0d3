// util/http_util.go
package util

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/campusmesh/campus/api/logging"
)

// ErrorResponse is the envelope every non-2xx response carries.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
}

// RespondWithError writes the standard error envelope and logs the
// underlying cause.
func RespondWithError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error("HTTP error response",
		zap.Int("statusCode", statusCode),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	c.JSON(statusCode, ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request.URL.Path,
	})
}

// AbortWithError writes the standard error envelope and stops the handler
// chain. Middleware should use this instead of RespondWithError.
func AbortWithError(c *gin.Context, statusCode int, message string, err error) {
	RespondWithError(c, statusCode, message, err)
	c.Abort()
}

// GetUserIDFromContext returns the id of the authenticated principal, set
// by the authentication middleware.
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("requestingUserID")
	if !exists {
		return "", errors.New("no authenticated user on request")
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", errors.New("no authenticated user on request")
	}
	return id, nil
}
