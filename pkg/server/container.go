package server

import (
	"context"
	"fmt"
	"time"

	"billing-functions-api/internal/adapters/awsapi"
	"billing-functions-api/internal/adapters/docstore"
	"billing-functions-api/internal/adapters/mailer"
	"billing-functions-api/internal/adapters/storage"
	"billing-functions-api/internal/config"
	"billing-functions-api/internal/services"
)

const awsConfigTimeout = 10 * time.Second

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	DeployService  services.DeployService
	BillingService services.BillingService
	EmailService   services.EmailService

	// Internal dependencies
	deps     *services.Dependencies
	services *services.ServiceContainer
}

// NewContainer builds the AWS, MongoDB and Mailgun clients from cfg and wires the services
func NewContainer(cfg *config.Config) (*Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), awsConfigTimeout)
	defer cancel()

	clients, err := awsapi.Load(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS clients: %w", err)
	}

	objects, err := storage.NewFactory(clients.S3).Create(&storage.StorageConfig{
		Type:     cfg.Storage.Type,
		BasePath: cfg.Storage.LocalPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}

	deps := &services.Dependencies{
		Roles:     clients.IAM,
		Functions: clients.Lambda,
		Objects:   objects,
		Artifacts: storage.NewS3ObjectStorage(clients.S3),
		Dialer:    docstore.NewMongoDialer(),
		Mailer: mailer.NewMailgunMailer(mailer.MailgunConfig{
			APIKey:  cfg.Email.APIKey,
			Domain:  cfg.Email.Domain,
			APIBase: cfg.Email.APIBase,
		}),
	}

	return NewContainerWithDependencies(cfg, deps)
}

// NewContainerWithDependencies wires the services over caller-supplied collaborators
func NewContainerWithDependencies(cfg *config.Config, deps *services.Dependencies) (*Container, error) {
	serviceContainer, err := services.NewServiceContainer(deps, serviceConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}

	if err := serviceContainer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service container: %w", err)
	}

	return &Container{
		Config:         cfg,
		DeployService:  serviceContainer.DeployService,
		BillingService: serviceContainer.BillingService,
		EmailService:   serviceContainer.EmailService,
		deps:           deps,
		services:       serviceContainer,
	}, nil
}

func serviceConfig(cfg *config.Config) *services.ServiceConfig {
	return &services.ServiceConfig{
		Deploy: services.DeploySettings{
			MemorySize: cfg.Deploy.MemorySize,
			Timeout:    cfg.Deploy.Timeout,
			Publish:    cfg.Deploy.Publish,
		},
		Billing: services.BillingSettings{
			Bucket:           cfg.Billing.Bucket,
			Key:              cfg.Billing.Key,
			ConnectionString: cfg.Mongo.URL,
			Database:         cfg.Mongo.Database,
			Collection:       cfg.Billing.Collection,
		},
		BillingBatchSize: cfg.Billing.BatchSize,
		BillingBuffer:    cfg.Billing.BufferSize,
	}
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.deps == nil {
		return nil
	}

	if c.deps.Objects != nil {
		if err := c.deps.Objects.Close(); err != nil {
			return fmt.Errorf("failed to close object storage: %w", err)
		}
	}
	if c.deps.Artifacts != nil && c.deps.Artifacts != c.deps.Objects {
		if err := c.deps.Artifacts.Close(); err != nil {
			return fmt.Errorf("failed to close artifact storage: %w", err)
		}
	}

	return nil
}
