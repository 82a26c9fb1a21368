package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/nurpe/proposals/internal/config"
)

var (
	ErrInvalidUpload = errors.New("invalid upload")
	ErrDisabled      = errors.New("object storage is not configured")
)

// ObjectPutter is the subset of *minio.Client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Upload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type Uploader struct {
	client    ObjectPutter
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewUploader(client ObjectPutter, bucket, publicURL string) *Uploader {
	return &Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// NewMinio connects to the configured S3-compatible endpoint and makes sure
// the bucket exists.
func NewMinio(ctx context.Context, cfg config.StorageConfig) (*Uploader, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return NewUploader(client, cfg.Bucket, publicURL), nil
}

func (u *Uploader) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader, size int64) (*Upload, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: only images can be uploaded", ErrInvalidUpload)
	}
	key, err := ObjectKey(folder, filename, u.now())
	if err != nil {
		return nil, err
	}
	info, err := u.client.PutObject(ctx, u.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &Upload{
		Key:         key,
		URL:         u.publicURL + "/" + key,
		Size:        info.Size,
		ContentType: contentType,
	}, nil
}

var (
	folderPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// ObjectKey builds folder/<unix-ms>-<name>. Uploads landing in the same
// millisecond with the same name share a key.
func ObjectKey(folder, filename string, now time.Time) (string, error) {
	folder = strings.ToLower(strings.TrimSpace(folder))
	if !folderPattern.MatchString(folder) {
		return "", fmt.Errorf("%w: bad folder %q", ErrInvalidUpload, folder)
	}
	name := unsafeChars.ReplaceAllString(path.Base(strings.ReplaceAll(filename, "\\", "/")), "-")
	name = strings.Trim(name, ".-")
	if name == "" {
		return "", fmt.Errorf("%w: empty file name", ErrInvalidUpload)
	}
	return fmt.Sprintf("%s/%d-%s", folder, now.UnixMilli(), name), nil
}
