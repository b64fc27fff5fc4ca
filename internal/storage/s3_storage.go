package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/storeup/storeup-backend/pkg/logger"
)

// S3Storage stores images in a bucket. Stored paths are "/<key>", so the
// media base URL should point at the bucket or its CDN.
type S3Storage struct {
	client *s3.Client
	bucket string
}

type PresignedUpload struct {
	UploadURL string `json:"upload_url"`
	Path      string `json:"path"` // value to send back as the image field
	Key       string `json:"key"`
	ExpiresIn int64  `json:"expires_in"`
}

func NewS3Storage(ctx context.Context, region, bucket, accessKeyID, secretAccessKey string) (*S3Storage, error) {
	var cfg aws.Config
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		}
	} else {
		// default chain: environment, shared config, instance role
		var err error
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
	}

	return &S3Storage{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

func (s *S3Storage) Save(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	key := objectKey(folder, filename, contentType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logger.Error("Failed to upload image to S3", err, map[string]interface{}{
			"bucket": s.bucket,
			"key":    key,
		})
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	logger.Debug("Image uploaded to S3", map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
	})
	return "/" + key, nil
}

func (s *S3Storage) Delete(ctx context.Context, path string) error {
	key := strings.TrimPrefix(path, "/")
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// PresignUpload returns a 15 minute PUT URL so clients can upload an image
// directly and then reference the returned path in product requests.
func (s *S3Storage) PresignUpload(ctx context.Context, folder, filename, contentType string) (*PresignedUpload, error) {
	if err := ValidateContentType(contentType); err != nil {
		return nil, err
	}

	key := objectKey(folder, filename, contentType)
	expires := 15 * time.Minute

	req, err := s3.NewPresignClient(s.client).PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		Path:      "/" + key,
		Key:       key,
		ExpiresIn: int64(expires.Seconds()),
	}, nil
}
