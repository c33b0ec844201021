package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"billing-functions-api/internal/adapters/awsapi"
	"billing-functions-api/internal/adapters/docstore"
	"billing-functions-api/internal/adapters/mailer"
	"billing-functions-api/internal/adapters/storage"
	"billing-functions-api/internal/billing"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	DeployService  DeployService
	BillingService BillingService
	EmailService   EmailService
}

// Dependencies are the external collaborators services are built on
type Dependencies struct {
	Roles     awsapi.IAMAPI
	Functions awsapi.LambdaAPI
	Objects   storage.ObjectStorage
	// Artifacts is where deployment packages are looked up. Defaults to Objects.
	Artifacts storage.ObjectStorage
	Dialer    docstore.Dialer
	Mailer    mailer.Mailer
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	Deploy           DeploySettings
	Billing          BillingSettings
	BillingBatchSize int
	BillingBuffer    int
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(deps *Dependencies, config *ServiceConfig) (*ServiceContainer, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies cannot be nil")
	}

	if config == nil {
		config = &ServiceConfig{Deploy: DefaultDeploySettings()}
	}

	var opts []billing.Option
	if config.BillingBatchSize > 0 {
		opts = append(opts, billing.WithBatchSize(config.BillingBatchSize))
	}
	if config.BillingBuffer > 0 {
		opts = append(opts, billing.WithBufferSize(config.BillingBuffer))
	}
	opts = append(opts, billing.WithLogger(logrus.WithField("component", "billing_pipeline")))

	pipeline, err := billing.NewPipeline(deps.Objects, deps.Dialer, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create billing pipeline: %w", err)
	}

	artifacts := deps.Artifacts
	if artifacts == nil {
		artifacts = deps.Objects
	}

	return &ServiceContainer{
		DeployService:  NewDeployService(deps.Roles, deps.Functions, artifacts, config.Deploy),
		BillingService: NewBillingService(pipeline, config.Billing),
		EmailService:   NewEmailService(deps.Mailer),
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	if sc.DeployService == nil {
		return fmt.Errorf("deploy service is nil")
	}
	if sc.BillingService == nil {
		return fmt.Errorf("billing service is nil")
	}
	if sc.EmailService == nil {
		return fmt.Errorf("email service is nil")
	}
	return nil
}
