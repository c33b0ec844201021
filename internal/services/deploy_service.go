package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"billing-functions-api/internal/adapters/awsapi"
	"billing-functions-api/internal/adapters/storage"
	"billing-functions-api/internal/models"
)

// DeploySettings are applied to every function the deploy service creates
type DeploySettings struct {
	MemorySize int32
	Timeout    int32
	Publish    bool
}

// DefaultDeploySettings returns 128 MB, 300 s, published
func DefaultDeploySettings() DeploySettings {
	return DeploySettings{MemorySize: 128, Timeout: 300, Publish: true}
}

var errRoleNotFound = errors.New("role lookup returned no role")

// deployService implements the DeployService interface
type deployService struct {
	roles     awsapi.IAMAPI
	functions awsapi.LambdaAPI
	artifacts storage.ObjectStorage
	settings  DeploySettings
}

// NewDeployService creates a new deploy service instance
func NewDeployService(roles awsapi.IAMAPI, functions awsapi.LambdaAPI, artifacts storage.ObjectStorage, settings DeploySettings) DeployService {
	return &deployService{
		roles:     roles,
		functions: functions,
		artifacts: artifacts,
		settings:  settings,
	}
}

// Deploy looks up the execution role and the artifact in parallel, then
// creates the function from the artifact, pinned to its object version when
// the bucket is versioned.
func (s *deployService) Deploy(ctx context.Context, event *models.DeployEvent) (*models.DeployResponse, error) {
	if err := models.Validate(event); err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"function_name": event.FunctionName,
		"role_name":     event.RoleName,
		"bucket":        event.Bucket,
		"s3_key":        event.S3Key,
	})

	var (
		roleArn  string
		artifact *storage.ObjectMetadata
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.roles.GetRole(gctx, &iam.GetRoleInput{RoleName: aws.String(event.RoleName)})
		if err != nil {
			return fmt.Errorf("failed to get role %s: %w", event.RoleName, err)
		}
		if out.Role == nil || out.Role.Arn == nil {
			return fmt.Errorf("failed to get role %s: %w", event.RoleName, errRoleNotFound)
		}
		roleArn = aws.ToString(out.Role.Arn)
		return nil
	})
	g.Go(func() error {
		meta, err := s.artifacts.GetMetadata(gctx, event.Bucket, event.S3Key)
		if err != nil {
			return fmt.Errorf("failed to get artifact metadata: %w", err)
		}
		artifact = meta
		return nil
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Deploy lookups failed")
		return nil, err
	}

	code := &lambdatypes.FunctionCode{
		S3Bucket: aws.String(event.Bucket),
		S3Key:    aws.String(event.S3Key),
	}
	if artifact.VersionID != "" {
		code.S3ObjectVersion = aws.String(artifact.VersionID)
	}

	out, err := s.functions.CreateFunction(ctx, &lambda.CreateFunctionInput{
		Code:         code,
		FunctionName: aws.String(event.FunctionName),
		Handler:      aws.String(event.Handler),
		Runtime:      lambdatypes.Runtime(event.RunTime),
		Role:         aws.String(roleArn),
		MemorySize:   aws.Int32(s.settings.MemorySize),
		Timeout:      aws.Int32(s.settings.Timeout),
		Publish:      s.settings.Publish,
	})
	if err != nil {
		log.WithError(err).Error("CreateFunction failed")
		return nil, fmt.Errorf("failed to create function %s: %w", event.FunctionName, err)
	}

	fn := describeFunction(out)
	log.WithFields(logrus.Fields{
		"function_arn":   fn.FunctionArn,
		"version":        fn.Version,
		"object_version": artifact.VersionID,
	}).Info("Function created")

	return &models.DeployResponse{Success: true, Data: fn}, nil
}

func describeFunction(out *lambda.CreateFunctionOutput) *models.FunctionDescriptor {
	return &models.FunctionDescriptor{
		FunctionName: aws.ToString(out.FunctionName),
		FunctionArn:  aws.ToString(out.FunctionArn),
		Runtime:      string(out.Runtime),
		Role:         aws.ToString(out.Role),
		Handler:      aws.ToString(out.Handler),
		CodeSize:     out.CodeSize,
		CodeSha256:   aws.ToString(out.CodeSha256),
		MemorySize:   aws.ToInt32(out.MemorySize),
		Timeout:      aws.ToInt32(out.Timeout),
		Version:      aws.ToString(out.Version),
		State:        string(out.State),
		LastModified: aws.ToString(out.LastModified),
		DeployedAt:   time.Now().UTC(),
	}
}
