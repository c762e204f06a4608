package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"portfolio-gallery/internal/config"
	"portfolio-gallery/internal/repository/variant"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

const cacheControl = "public, max-age=31536000, immutable"

type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// VariantRepository keeps rendered proxy variants in an S3 compatible bucket.
type VariantRepository struct {
	client objectClient
	bucket string
	logger *zlog.Zerolog
}

func NewMinIORepository(ctx context.Context, cfg config.MinioConfig, logger *zlog.Zerolog) (*VariantRepository, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: endpoint and bucket are required", variant.ErrStorageValidation)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	repo := newVariantRepository(client, cfg.Bucket, logger)
	if err := repo.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func newVariantRepository(client objectClient, bucket string, logger *zlog.Zerolog) *VariantRepository {
	return &VariantRepository{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

func (r *VariantRepository) ensureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("%w: failed to check bucket %s: %v", variant.ErrStorageError, r.bucket, err)
	}
	if exists {
		return nil
	}

	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: failed to create bucket %s: %v", variant.ErrStorageError, r.bucket, err)
	}
	r.logger.Info().Str("bucket", r.bucket).Msg("Created variant bucket")
	return nil
}

// Get reports ok=false for a missing object rather than an error.
func (r *VariantRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	obj, err := r.client.GetObject(ctx, r.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return r.missing(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return r.missing(key, err)
	}
	return data, true, nil
}

func (r *VariantRepository) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	_, err := r.client.PutObject(ctx, r.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put %s: %v", variant.ErrStorageError, key, err)
	}

	r.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Variant stored")
	return nil
}

func (r *VariantRepository) missing(key string, err error) ([]byte, bool, error) {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("%w: failed to get %s: %v", variant.ErrStorageError, key, err)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: invalid object key %q", variant.ErrStorageValidation, key)
	}
	return nil
}
