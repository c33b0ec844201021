package config

import (
	"os"

	"billing-functions-api/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string
	Log         LogConfig
	AWS         AWSConfig
	Mongo       MongoConfig
	Billing     BillingConfig
	Storage     StorageConfig
	Email       EmailConfig
	Deploy      DeployConfig
	RateLimit   RateLimitConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// AWSConfig holds AWS SDK configuration
type AWSConfig struct {
	Region string
}

// MongoConfig holds document store configuration
type MongoConfig struct {
	URL      string
	Database string
}

// BillingConfig holds billing ingestion configuration
type BillingConfig struct {
	Bucket     string
	Key        string
	Collection string
	BatchSize  int
	BufferSize int
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Type      string // "local", "s3" or "mock"
	LocalPath string
}

// EmailConfig holds Mailgun configuration
type EmailConfig struct {
	APIKey  string
	Domain  string
	APIBase string
}

// DeployConfig holds the settings applied to functions created by the deploy handler
type DeployConfig struct {
	MemorySize int32
	Timeout    int32
	Publish    bool
}

// RateLimitConfig holds local server rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("MONGO_DATABASE", "billing")
	v.SetDefault("BILLING_BUCKET", "market-billing-data")
	v.SetDefault("BILLING_KEY", "billing.csv")
	v.SetDefault("BILLING_BATCH_SIZE", 100)
	v.SetDefault("BILLING_BUFFER_SIZE", 256)
	v.SetDefault("STORAGE_TYPE", "local")
	v.SetDefault("STORAGE_LOCAL_PATH", "./data")
	v.SetDefault("DEPLOY_MEMORY_SIZE", 128)
	v.SetDefault("DEPLOY_TIMEOUT", 300)
	v.SetDefault("DEPLOY_PUBLISH", true)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		AWS: AWSConfig{
			Region: v.GetString("AWS_REGION"),
		},
		Mongo: MongoConfig{
			URL:      v.GetString("MONGO_URL"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Billing: BillingConfig{
			Bucket:     v.GetString("BILLING_BUCKET"),
			Key:        v.GetString("BILLING_KEY"),
			Collection: models.UsageStatsCollection,
			BatchSize:  v.GetInt("BILLING_BATCH_SIZE"),
			BufferSize: v.GetInt("BILLING_BUFFER_SIZE"),
		},
		Storage: StorageConfig{
			Type:      v.GetString("STORAGE_TYPE"),
			LocalPath: v.GetString("STORAGE_LOCAL_PATH"),
		},
		Email: EmailConfig{
			APIKey:  v.GetString("EMAIL_API_KEY"),
			Domain:  v.GetString("EMAIL_DOMAIN"),
			APIBase: v.GetString("EMAIL_API_BASE"),
		},
		Deploy: DeployConfig{
			MemorySize: v.GetInt32("DEPLOY_MEMORY_SIZE"),
			Timeout:    v.GetInt32("DEPLOY_TIMEOUT"),
			Publish:    v.GetBool("DEPLOY_PUBLISH"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
