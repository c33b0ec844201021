package services

import (
	"context"

	"billing-functions-api/internal/models"
)

// DeployService creates functions from packaged artifacts
type DeployService interface {
	Deploy(ctx context.Context, event *models.DeployEvent) (*models.DeployResponse, error)
}

// BillingService loads the configured billing export into the usage stats collection
type BillingService interface {
	Ingest(ctx context.Context) (*models.BillingResponse, error)
}

// EmailService sends transactional email
type EmailService interface {
	Send(ctx context.Context, event *models.EmailEvent) (*models.EmailResponse, error)
}
