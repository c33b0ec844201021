package storage

import (
	"fmt"
	"strings"
)

// StorageType represents the type of storage implementation
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMock  StorageType = "mock"
)

// Factory creates ObjectStorage instances based on configuration
type Factory struct {
	s3Client S3API
}

// NewFactory creates a new storage factory. s3Client may be nil when
// S3 storage is never requested.
func NewFactory(s3Client S3API) *Factory {
	return &Factory{
		s3Client: s3Client,
	}
}

// Create creates an ObjectStorage instance based on the provided configuration
func (f *Factory) Create(config *StorageConfig) (ObjectStorage, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	var storage ObjectStorage
	var err error

	switch StorageType(strings.ToLower(config.Type)) {
	case StorageTypeLocal:
		storage, err = f.createLocalStorage(config)
	case StorageTypeS3:
		storage, err = f.createS3Storage()
	case StorageTypeMock:
		storage = NewMockObjectStorage()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", config.Type, err)
	}

	return storage, nil
}

func (f *Factory) createLocalStorage(config *StorageConfig) (ObjectStorage, error) {
	basePath := config.BasePath
	if basePath == "" {
		basePath = "./data"
	}
	return NewLocalObjectStorage(basePath)
}

func (f *Factory) createS3Storage() (ObjectStorage, error) {
	if f.s3Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	return NewS3ObjectStorage(f.s3Client), nil
}
