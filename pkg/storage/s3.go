// Package storage uploads generated report files to S3 and issues
// presigned download links.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Hamayesh-Negar/Back-end/config"
)

// S3Storage stores report exports in a single bucket.
type S3Storage struct {
	client        *s3.Client
	uploader      *manager.Uploader
	presign       *s3.PresignClient
	bucket        string
	presignExpiry time.Duration
}

// NewS3Storage builds an S3-backed report store from configuration.
func NewS3Storage(ctx context.Context, cfg config.AWSConfig) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		client:        client,
		uploader:      manager.NewUploader(client),
		presign:       s3.NewPresignClient(client),
		bucket:        cfg.ReportsBucket,
		presignExpiry: time.Duration(cfg.PresignExpireMinutes) * time.Minute,
	}, nil
}

// Upload stores a report object and returns its key.
func (s *S3Storage) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// PresignDownload returns a time-limited download URL for a stored
// report.
func (s *S3Storage) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
