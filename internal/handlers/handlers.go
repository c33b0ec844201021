// Package handlers adapts the services to their two transports: Lambda
// invocations (Handle methods) and the local gin server.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"billing-functions-api/internal/middleware"
	"billing-functions-api/pkg/lambda"
)

// invocationLog returns a log entry for a Lambda invocation of handler
func invocationLog(ctx context.Context, handler string) *logrus.Entry {
	return lambda.Logger(ctx).WithField("handler", handler)
}

// requestLog returns a log entry for a local server request
func requestLog(c *gin.Context, handler string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"handler":    handler,
		"request_id": c.GetString(middleware.RequestIDKey),
	})
}
