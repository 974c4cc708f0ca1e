package minio

import (
	"context"
	"fmt"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Storage struct {
	client          *miniogo.Client
	thumbnailBucket string
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	UseSSL          bool
	ThumbnailBucket string
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Storage{
		client:          client,
		thumbnailBucket: cfg.ThumbnailBucket,
	}, nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.thumbnailBucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.thumbnailBucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.thumbnailBucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.thumbnailBucket, err)
		}
	}
	return nil
}

func (s *Storage) UploadThumbnail(ctx context.Context, objectKey string, localPath string) error {
	_, err := s.client.FPutObject(ctx, s.thumbnailBucket, objectKey, localPath, miniogo.PutObjectOptions{
		ContentType:  "image/jpeg",
		CacheControl: "max-age=31536000",
	})
	if err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}
	return nil
}
