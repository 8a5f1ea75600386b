// Package storage uploads portfolio images to S3-compatible object storage
// (Yandex Object Storage in production).
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://storage.yandexcloud.net"
	DefaultRegion   = "ru-central1"

	// MaxImageSize is the largest decoded image accepted
	MaxImageSize = 10 * 1024 * 1024
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// S3API is the part of *s3.Client the storage uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config configures the bucket connection
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
}

// ImageStorage stores images under public URLs
type ImageStorage struct {
	client     S3API
	bucketName string
	endpoint   string
}

// NewImageStorage creates an S3 client for the configured bucket
func NewImageStorage(cfg Config) *ImageStorage {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	})

	logger.Info("Object storage client initialized",
		zap.String("bucket", cfg.BucketName),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", cfg.Region),
	)

	return NewImageStorageWithClient(client, cfg.BucketName, cfg.Endpoint)
}

// NewImageStorageWithClient wires an existing S3 client
func NewImageStorageWithClient(client S3API, bucketName, endpoint string) *ImageStorage {
	return &ImageStorage{
		client:     client,
		bucketName: bucketName,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

// DecodeImage decodes base64 image data, accepting a data URI prefix
func DecodeImage(imageData string) ([]byte, error) {
	encoded := imageData
	if strings.HasPrefix(imageData, "data:") {
		parts := strings.SplitN(imageData, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid data URI format")
		}
		encoded = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, nil
}

// ValidateImageType checks the declared content type
func (s *ImageStorage) ValidateImageType(contentType string) error {
	if _, ok := allowedTypes[strings.ToLower(contentType)]; !ok {
		return fmt.Errorf("invalid file type: %s. Allowed types: jpeg, jpg, png, webp", contentType)
	}
	return nil
}

// ValidateImage checks size and that the bytes really are the declared type
func (s *ImageStorage) ValidateImage(data []byte, contentType string) error {
	if len(data) == 0 {
		return fmt.Errorf("image is empty")
	}
	if len(data) > MaxImageSize {
		return fmt.Errorf("file too large: %d bytes (max %d bytes)", len(data), MaxImageSize)
	}

	declared := strings.ToLower(contentType)
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	detected := mimetype.Detect(data)
	if !detected.Is(declared) {
		return fmt.Errorf("image content is %s, declared %s", detected.String(), contentType)
	}
	return nil
}

// GenerateKey builds the object key of the index-th image of a portfolio
func (s *ImageStorage) GenerateKey(ownerID, portfolioID string, index int, contentType string) string {
	ext := allowedTypes[strings.ToLower(contentType)]
	return path.Join("portfolios", ownerID, portfolioID, fmt.Sprintf("%02d%s", index+1, ext))
}

// UploadImage stores data under key and returns its public URL
func (s *ImageStorage) UploadImage(ctx context.Context, key, contentType string, data []byte) (string, error) {
	start := time.Now()
	operation := "uploadImage"

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})

	duration := metrics.MeasureDuration(start)

	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration,
			zap.Error(err),
			zap.String("key", key),
		)
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	recordMetrics(operation, "success", duration)
	logger.LogAPICall(ctx, "object_storage", operation, "success", duration,
		zap.String("key", key),
		zap.Int("size_bytes", len(data)),
	)

	return s.PublicURL(key), nil
}

// DeleteImage removes an uploaded object
func (s *ImageStorage) DeleteImage(ctx context.Context, key string) error {
	start := time.Now()
	operation := "deleteImage"

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration, zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete image: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return nil
}

// PublicURL is the URL an object is served from: {endpoint}/{bucket}/{key}
func (s *ImageStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucketName, key)
}

func recordMetrics(operation, status string, duration float64) {
	metrics.StorageRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, status).Inc()
}
