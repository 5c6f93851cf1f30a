package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/persist"
)

// S3Uploader mirrors blobs into an S3 bucket
type S3Uploader struct {
	client *s3.Client
	bucket string
}

// NewS3Uploader creates an uploader for the configured bucket. It returns nil when no
// bucket is configured, leaving media mirroring disabled without failing the service.
func NewS3Uploader(ctx context.Context) *S3Uploader {
	bucket := env.GetString("S3_BUCKET")
	if bucket == "" {
		return nil
	}

	opts := []func(*config.LoadOptions) error{}
	if region := env.GetString("AWS_REGION"); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if accessKey, secretKey := env.GetString("AWS_ACCESS_KEY_ID"), env.GetString("AWS_SECRET_ACCESS_KEY"); accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		panic(err)
	}

	return &S3Uploader{client: s3.NewFromConfig(cfg), bucket: bucket}
}

// Upload writes the blob under the given key and returns its public URL
func (u *S3Uploader) Upload(ctx context.Context, key string, contentType string, body []byte) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key), nil
}

// Backend reports which storage backend mirrored blobs are persisted against
func (u *S3Uploader) Backend() persist.StorageBackend {
	return persist.StorageBackendS3
}
