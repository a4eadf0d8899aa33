package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"userhub/internal/config"
)

// ObjectStore holds finished CSV export artifacts in S3-compatible storage.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	bucket := s.cfg.BucketExports
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

func (s *ObjectStore) PutExport(ctx context.Context, objectKey string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.cfg.BucketExports, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return fmt.Errorf("put export %s: %w", objectKey, err)
	}
	return nil
}

// DeleteOlderThan removes export objects whose last modification predates the
// retention cutoff.
func (s *ObjectStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	for object := range s.client.ListObjects(ctx, s.cfg.BucketExports, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return deleted, object.Err
		}
		if object.LastModified.After(cutoff) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.cfg.BucketExports, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return deleted, fmt.Errorf("remove %s: %w", object.Key, err)
		}
		deleted++
	}
	return deleted, nil
}
