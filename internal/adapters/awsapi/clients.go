// Package awsapi builds the AWS SDK clients used by the handlers and narrows
// them to the calls this service makes.
package awsapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"billing-functions-api/internal/adapters/storage"
)

// IAMAPI is the subset of the IAM client used for role lookup
type IAMAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
}

// LambdaAPI is the subset of the Lambda client used to create functions
type LambdaAPI interface {
	CreateFunction(ctx context.Context, params *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error)
}

var (
	_ IAMAPI        = (*iam.Client)(nil)
	_ LambdaAPI     = (*lambda.Client)(nil)
	_ storage.S3API = (*s3.Client)(nil)
)

// Clients holds one client per AWS service, sharing a single aws.Config
type Clients struct {
	Config aws.Config
	IAM    *iam.Client
	Lambda *lambda.Client
	S3     *s3.Client
}

// Load resolves credentials from the default chain and builds the clients.
// An empty region falls back to the SDK's own resolution.
func Load(ctx context.Context, region string) (*Clients, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return New(cfg), nil
}

// New builds the clients from an existing configuration
func New(cfg aws.Config) *Clients {
	return &Clients{
		Config: cfg,
		IAM:    iam.NewFromConfig(cfg),
		Lambda: lambda.NewFromConfig(cfg),
		S3:     s3.NewFromConfig(cfg),
	}
}
