package utils

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"shopbilling/config"
)

// R2Store uploads receipt PDFs to a Cloudflare R2 bucket through its S3 API.
type R2Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewR2Store(ctx context.Context, cfg config.R2Config) (*R2Store, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing required R2 configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Store{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores a PDF under key and returns its public URL.
func (s *R2Store) Upload(ctx context.Context, data []byte, key string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return s.ObjectURL(key), nil
}

func (s *R2Store) ObjectURL(key string) string {
	return s.publicBase + "/" + (&url.URL{Path: key}).EscapedPath()
}

// ReceiptKey names the object for a bill's receipt. The random suffix keeps
// reprints from overwriting earlier copies.
func ReceiptKey(billID int64, now time.Time) string {
	return path.Join("receipts", now.UTC().Format("2006/01"),
		fmt.Sprintf("bill_%d_%s.pdf", billID, uuid.NewString()[:8]))
}
