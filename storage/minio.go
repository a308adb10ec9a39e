package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"randomradio/config"
	"randomradio/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client. MinIO is optional: when no
// endpoint is configured the client stays nil and the station only plays
// the local library.
func InitMinio(cfg *config.Config) error {
	if cfg.MinioEndpoint == "" {
		return nil
	}

	logger.Info("Connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", cfg.MinioBucket)
	}

	minioClient = client
	logger.Info("MinIO client initialized", logger.String("bucket", cfg.MinioBucket))
	return nil
}

// GetMinioClient returns the MinIO client instance, nil when not configured.
func GetMinioClient() *minio.Client {
	return minioClient
}

// SyncLibrary mirrors album objects from the bucket prefix into the local
// albums root. Objects already present with the same size are skipped, so a
// periodic sync stays cheap. Downloads go through a temp file and rename.
func SyncLibrary(ctx context.Context, cfg *config.Config, localRoot string) (int, error) {
	if minioClient == nil {
		return 0, nil
	}

	downloaded := 0
	objects := minioClient.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
		Prefix:    cfg.MinioPrefix,
		Recursive: true,
	})

	for object := range objects {
		if object.Err != nil {
			return downloaded, fmt.Errorf("failed to list bucket objects: %w", object.Err)
		}

		rel := strings.TrimPrefix(object.Key, cfg.MinioPrefix)
		if rel == "" || strings.HasSuffix(object.Key, "/") {
			continue
		}
		local := filepath.Join(localRoot, filepath.FromSlash(rel))

		if info, err := os.Stat(local); err == nil && info.Size() == object.Size {
			continue
		}

		if err := downloadObject(ctx, cfg.MinioBucket, object.Key, local); err != nil {
			return downloaded, err
		}
		downloaded++
		logger.Info("Mirrored album object",
			logger.String("key", object.Key),
			logger.Int64("bytes", object.Size))
	}

	return downloaded, nil
}

func downloadObject(ctx context.Context, bucket, key, local string) error {
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", local, err)
	}

	tmp := local + ".part"
	if err := minioClient.FGetObject(ctx, bucket, key, tmp, minio.GetObjectOptions{}); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to download %s: %w", key, err)
	}
	if err := os.Rename(tmp, local); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", local, err)
	}
	return nil
}

// BucketStats reports object count and total size under the album prefix.
// Used by the doctor command.
func BucketStats(ctx context.Context, cfg *config.Config) (int64, int64, error) {
	if minioClient == nil {
		return 0, 0, fmt.Errorf("MinIO client not initialized")
	}

	var count, bytes int64
	objects := minioClient.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
		Prefix:    cfg.MinioPrefix,
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			return count, bytes, object.Err
		}
		count++
		bytes += object.Size
	}
	return count, bytes, nil
}
