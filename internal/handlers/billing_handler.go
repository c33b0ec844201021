package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"billing-functions-api/internal/models"
	"billing-functions-api/internal/services"
)

// BillingHandler handles billing ingestion requests
type BillingHandler struct {
	billingService services.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService services.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// Handle is the Lambda entry point. The invocation payload is ignored.
func (h *BillingHandler) Handle(ctx context.Context) (*models.BillingResponse, error) {
	log := invocationLog(ctx, "billing")
	log.Info("Billing ingestion invoked")

	resp, err := h.billingService.Ingest(ctx)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Ingest handles POST /invoke/billing
func (h *BillingHandler) Ingest(c *gin.Context) {
	requestLog(c, "billing").Info("Billing ingestion requested")

	resp, err := h.billingService.Ingest(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
