package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"voxshare/config"
	"voxshare/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	minioBucket string
)

// InitMinio 初始化 MinIO 客户端。未配置 MINIO_ENDPOINT 时对象存储保持关闭，
// 音频负载将以 data URI 形式内嵌在记录中。
func InitMinio(cfg *config.Config) error {
	if cfg.MinioEndpoint == "" {
		logger.Info("MinIO not configured, audio payloads will be embedded inline")
		return nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 检查存储桶是否存在
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("Created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	minioBucket = cfg.MinioBucket
	logger.Info("MinIO client initialized", logger.String("bucket", cfg.MinioBucket))
	return nil
}

// Enabled reports whether object storage is configured.
func Enabled() bool {
	return minioClient != nil
}

// PutAudioObject uploads an audio payload under the given object name.
func PutAudioObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	_, err := minioClient.PutObject(ctx, minioBucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", objectName, err)
	}
	return nil
}

// GetObject opens an object for streaming to a client. The caller must close
// the returned reader.
func GetObject(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}

	object, err := minioClient.GetObject(ctx, minioBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectName, err)
	}
	return object, nil
}

// RemoveObject deletes a stored payload. Used as best-effort cleanup when an
// audio record is deleted.
func RemoveObject(ctx context.Context, objectName string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	if err := minioClient.RemoveObject(ctx, minioBucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectName, err)
	}
	return nil
}
