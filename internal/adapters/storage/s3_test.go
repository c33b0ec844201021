package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	body       string
	getErr     error
	headErr    error
	versionID  *string
	lastGet    *s3.GetObjectInput
	lastHead   *s3.HeadObjectInput
	modifiedAt time.Time
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastGet = params
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.lastHead = params
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(f.body))),
		ContentType:   aws.String("application/zip"),
		ETag:          aws.String(`"abc"`),
		LastModified:  aws.Time(f.modifiedAt),
		VersionId:     f.versionID,
	}, nil
}

func TestS3ObjectStorage_Open(t *testing.T) {
	client := &fakeS3{body: "a,b\n"}
	storage := NewS3ObjectStorage(client)

	r, err := storage.Open(context.Background(), "market-billing-data", "billing.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	data, _ := io.ReadAll(r)
	if string(data) != "a,b\n" {
		t.Errorf("content = %q", data)
	}
	if aws.ToString(client.lastGet.Bucket) != "market-billing-data" || aws.ToString(client.lastGet.Key) != "billing.csv" {
		t.Errorf("unexpected GetObject input: %+v", client.lastGet)
	}
}

func TestS3ObjectStorage_OpenNotFound(t *testing.T) {
	storage := NewS3ObjectStorage(&fakeS3{getErr: &types.NoSuchKey{}})

	_, err := storage.Open(context.Background(), "bucket", "missing.csv")
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "Open" {
		t.Errorf("expected StorageError for Open, got %v", err)
	}
}

func TestS3ObjectStorage_GetMetadata(t *testing.T) {
	modified := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	client := &fakeS3{body: "zip", versionID: aws.String("3HL4kqtJlcpXroDTDmJ"), modifiedAt: modified}
	storage := NewS3ObjectStorage(client)

	meta, err := storage.GetMetadata(context.Background(), "artifacts", "fn.zip")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.VersionID != "3HL4kqtJlcpXroDTDmJ" {
		t.Errorf("VersionID = %q", meta.VersionID)
	}
	if meta.Size != 3 {
		t.Errorf("Size = %d, want 3", meta.Size)
	}
	if !meta.LastModified.Equal(modified) {
		t.Errorf("LastModified = %v, want %v", meta.LastModified, modified)
	}

	upstream := errors.New("access denied")
	storage = NewS3ObjectStorage(&fakeS3{headErr: upstream})
	if _, err := storage.GetMetadata(context.Background(), "artifacts", "fn.zip"); !errors.Is(err, upstream) {
		t.Errorf("expected upstream error to be wrapped, got %v", err)
	}
}
