package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3ObjectStorage
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3ObjectStorage implements ObjectStorage on Amazon S3
type S3ObjectStorage struct {
	client S3API
}

// NewS3ObjectStorage creates a new S3ObjectStorage instance
func NewS3ObjectStorage(client S3API) *S3ObjectStorage {
	return &S3ObjectStorage{client: client}
}

// Open implements ObjectStorage.Open. The body is streamed, not buffered.
func (s *S3ObjectStorage) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := validateLocation(bucket, key); err != nil {
		return nil, NewStorageError("Open", bucket, key, err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, NewStorageError("Open", bucket, key, translateS3Error(err))
	}

	return out.Body, nil
}

// GetMetadata implements ObjectStorage.GetMetadata
func (s *S3ObjectStorage) GetMetadata(ctx context.Context, bucket, key string) (*ObjectMetadata, error) {
	if err := validateLocation(bucket, key); err != nil {
		return nil, NewStorageError("GetMetadata", bucket, key, err)
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, NewStorageError("GetMetadata", bucket, key, translateS3Error(err))
	}

	return &ObjectMetadata{
		Bucket:       bucket,
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         aws.ToString(out.ETag),
		VersionID:    aws.ToString(out.VersionId),
	}, nil
}

// Close implements ObjectStorage.Close
func (s *S3ObjectStorage) Close() error {
	return nil
}

func translateS3Error(err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return errors.Join(ErrObjectNotFound, err)
	}
	return err
}
