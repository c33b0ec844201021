package services

import (
	"context"

	"billing-functions-api/internal/billing"
	"billing-functions-api/internal/models"
)

// BillingSettings identify the export to load and the store to load it into
type BillingSettings struct {
	Bucket           string
	Key              string
	ConnectionString string
	Database         string
	Collection       string
}

type billingService struct {
	pipeline *billing.Pipeline
	settings BillingSettings
}

// NewBillingService creates a billing service that runs pipeline against the configured export
func NewBillingService(pipeline *billing.Pipeline, settings BillingSettings) BillingService {
	return &billingService{pipeline: pipeline, settings: settings}
}

func (s *billingService) Ingest(ctx context.Context) (*models.BillingResponse, error) {
	return s.pipeline.Run(ctx, billing.Job{
		Bucket:           s.settings.Bucket,
		Key:              s.settings.Key,
		ConnectionString: s.settings.ConnectionString,
		Database:         s.settings.Database,
		Collection:       s.settings.Collection,
	})
}
