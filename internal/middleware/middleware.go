package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CORS middleware for handling Cross-Origin Resource Sharing
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// StatusClassifier maps a handler error to an HTTP status code
type StatusClassifier func(err error) int

// ErrorHandler renders the last error a handler attached with c.Error.
// Bind errors are always 400; everything else is classified by statusFor.
func ErrorHandler(statusFor StatusClassifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last()
		requestID := c.GetString(RequestIDKey)

		status := http.StatusInternalServerError
		switch {
		case err.Type == gin.ErrorTypeBind:
			status = http.StatusBadRequest
		case statusFor != nil:
			status = statusFor(err.Err)
		}

		logrus.WithFields(logrus.Fields{
			"request_id":  requestID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": status,
			"error":       err.Error(),
		}).Error("Request error")

		c.JSON(status, ErrorResponse{
			Error:     http.StatusText(status),
			Message:   err.Error(),
			RequestID: requestID,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}
