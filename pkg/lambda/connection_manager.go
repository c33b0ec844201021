package lambda

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"billing-functions-api/internal/config"
	"billing-functions-api/pkg/server"
)

// ContainerFactory builds a container from configuration
type ContainerFactory func(cfg *config.Config) (*server.Container, error)

// ConfigLoader supplies the configuration for a cold start
type ConfigLoader func() (*config.Config, error)

// ConnectionManager keeps one service container alive across warm invocations.
// Billing still dials its document store per invocation; what is shared here
// are the AWS and Mailgun clients.
type ConnectionManager struct {
	mu        sync.Mutex
	container *server.Container
	factory   ContainerFactory
	load      ConfigLoader
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(server.NewContainer, loadFromEnvironment)
	})
	return globalConnectionManager
}

func loadFromEnvironment() (*config.Config, error) {
	cfg, err := config.GetOptimizedConfig()
	if err != nil {
		return nil, err
	}
	config.ConfigureLogging(cfg.Log)
	return cfg, nil
}

// NewConnectionManager creates a connection manager that builds containers
// with factory from the configuration returned by load
func NewConnectionManager(factory ContainerFactory, load ConfigLoader) *ConnectionManager {
	return &ConnectionManager{factory: factory, load: load}
}

// GetContainer returns the service container, building it on first use.
// A failed build is retried on the next call.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil {
		return cm.container, nil
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}

	container, err := cm.factory(cfg)
	if err != nil {
		return nil, err
	}
	cm.container = container

	Logger(ctx).WithFields(logrus.Fields{
		"environment":  cfg.Environment,
		"storage_type": cfg.Storage.Type,
		"region":       cfg.AWS.Region,
	}).Info("Service container initialized")
	return container, nil
}

// Cleanup closes the container. The next GetContainer builds a new one.
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container != nil {
		if err := cm.container.Close(); err != nil {
			return err
		}
		cm.container = nil
	}

	return nil
}

// Shutdown is the SIGTERM hook for the runtime's spin-down
func (cm *ConnectionManager) Shutdown() {
	if err := cm.Cleanup(); err != nil {
		logrus.WithError(err).Error("Failed to release service container")
		return
	}
	logrus.Info("Service container released")
}
