package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ErrBucketNotFound is returned when the target bucket does not exist
var ErrBucketNotFound = errors.New("report bucket not found")

// S3Publisher uploads written reports to an S3 bucket
type S3Publisher struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Publisher creates a publisher using the default AWS credential chain
func NewS3Publisher(ctx context.Context, bucket, prefix, region string) (*S3Publisher, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}

	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewS3PublisherWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3PublisherWithClient creates a publisher around an existing client
func NewS3PublisherWithClient(client *s3.Client, bucket, prefix string) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key a local report file is uploaded to
func (p *S3Publisher) Key(localPath string) string {
	name := filepath.Base(localPath)
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads the file at localPath and returns its s3:// URI
func (p *S3Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open report: %w", err)
	}
	defer func() { _ = f.Close() }()

	key := p.Key(localPath)
	if _, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket" {
			return "", fmt.Errorf("%w: %s", ErrBucketNotFound, p.bucket)
		}
		return "", fmt.Errorf("failed to upload report to s3://%s/%s: %w", p.bucket, key, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", p.bucket, key)
	log.Printf("Uploaded report to %s", uri)
	return uri, nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".yaml":
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}
