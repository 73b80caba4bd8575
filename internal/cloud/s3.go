package cloud

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/sitecheck/internal/common"
	"github.com/dmitrijs2005/sitecheck/internal/config"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// s3Bucket uploads blobs to an S3-compatible bucket and resolves their
// public URLs.
type s3Bucket struct {
	client s3Client
	cfg    config.S3Config
}

func newS3Bucket(cfg config.S3Config) *s3Bucket {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &s3Bucket{client: s3.New(opts), cfg: cfg}
}

// Upload stores data under the reports namespace and returns the public URL.
func (b *s3Bucket) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	key := BlobNamespace + "/" + path

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrBlobUploadFailed, err)
	}

	return b.publicURL(key), nil
}

func (b *s3Bucket) publicURL(key string) string {
	base := b.cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("%s/%s", strings.TrimSuffix(b.cfg.Endpoint, "/"), b.cfg.Bucket)
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}
