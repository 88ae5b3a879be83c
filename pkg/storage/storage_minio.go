package storage

import (
	"context"
	"fmt"

	"github.com/go-arcade/squadio/pkg/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStorage struct {
	Client *minio.Client
	c      Config
}

func newMinio(c Config) (*MinioStorage, error) {
	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseTLS,
		Region: c.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioStorage{Client: client, c: c}, nil
}

func (m *MinioStorage) ensureBucket(ctx context.Context) error {
	ok, err := m.Client.BucketExists(ctx, m.c.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.c.Bucket, err)
	}
	if ok {
		return nil
	}
	if err := m.Client.MakeBucket(ctx, m.c.Bucket, minio.MakeBucketOptions{Region: m.c.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.c.Bucket, err)
	}
	log.Infow("archive bucket created", "bucket", m.c.Bucket)
	return nil
}

func (m *MinioStorage) Upload(ctx context.Context, objectName, localPath string) (string, error) {
	if err := m.ensureBucket(ctx); err != nil {
		return "", err
	}
	fullPath := getFullPath(m.c.BasePath, objectName)
	info, err := m.Client.FPutObject(ctx, m.c.Bucket, fullPath, localPath, minio.PutObjectOptions{
		ContentType: "application/sql",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fullPath, err)
	}
	log.Infow("archive uploaded", "bucket", m.c.Bucket, "key", fullPath, "size", info.Size)
	return fullPath, nil
}

func (m *MinioStorage) Download(ctx context.Context, objectName, localPath string) error {
	fullPath := getFullPath(m.c.BasePath, objectName)
	if err := m.Client.FGetObject(ctx, m.c.Bucket, fullPath, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s: %w", fullPath, err)
	}
	return nil
}
