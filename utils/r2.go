// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	// Public base for returned URLs; defaults to the bucket endpoint.
	CDNBaseURL string
}

// R2Store uploads screenshots and KYC images to Cloudflare R2 through the
// S3 API.
type R2Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewR2Store(ctx context.Context, c R2Config) (*R2Store, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	baseURL := strings.TrimRight(c.CDNBaseURL, "/")
	if baseURL == "" {
		baseURL = endpoint
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithHTTPClient(HTTPClient),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &R2Store{client: client, bucket: c.Bucket, baseURL: baseURL}, nil
}

// Upload stores body under key and returns the public URL.
// key is the R2 object key (e.g., "results/<tournament>/<uuid>.png")
func (s *R2Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	// R2 needs a seekable body to sign the payload.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}
