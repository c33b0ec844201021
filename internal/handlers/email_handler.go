package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"billing-functions-api/internal/models"
	"billing-functions-api/internal/services"
)

// EmailHandler handles email-related requests
type EmailHandler struct {
	emailService services.EmailService
}

// NewEmailHandler creates a new email handler
func NewEmailHandler(emailService services.EmailService) *EmailHandler {
	return &EmailHandler{
		emailService: emailService,
	}
}

// Handle is the Lambda entry point
func (h *EmailHandler) Handle(ctx context.Context, event models.EmailEvent) (*models.EmailResponse, error) {
	log := invocationLog(ctx, "email").WithFields(logrus.Fields{
		"from":    event.From,
		"to":      event.To,
		"subject": event.Subject,
	})
	log.Info("Send email invoked")

	resp, err := h.emailService.Send(ctx, &event)
	if err != nil {
		log.WithError(err).Error("Send email failed")
		return nil, err
	}
	return resp, nil
}

// Send handles POST /invoke/email
func (h *EmailHandler) Send(c *gin.Context) {
	var event models.EmailEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	requestLog(c, "email").WithField("to", event.To).Info("Send email requested")

	resp, err := h.emailService.Send(c.Request.Context(), &event)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
