package store

import (
	"bytes"
	"context"
	"errors"
	"erdv/internal/errs"
	"erdv/pkg/config"
	"io"
	"net/http"
	"path"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO keeps every key as an object in one bucket. It is safe for
// concurrent use.
type MinIO struct {
	client *miniogo.Client
	bucket string
}

// NewMinIO connects and checks that the bucket exists.
func NewMinIO(ctx context.Context, cfg config.StorageConfig) (*MinIO, error) {
	if cfg.Bucket == "" {
		return nil, errs.New(errs.KindInvalidInput, "storage.bucket is required for the minio provider")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to create minio client", err)
	}

	m := &MinIO{client: client, bucket: cfg.Bucket}

	ok, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, mapMinIOError(err, "ping failed")
	}
	if !ok {
		return nil, errs.New(errs.KindNotFound, "bucket "+cfg.Bucket+" does not exist")
	}

	return m, nil
}

func (m *MinIO) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	name, err := objectName(key)
	if err != nil {
		return nil, err
	}
	stat, err := m.client.StatObject(ctx, m.bucket, name, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapMinIOError(err, "failed to stat "+key)
	}
	return &ObjectInfo{Key: key, Size: stat.Size, LastModified: stat.LastModified}, nil
}

func (m *MinIO) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	name, err := objectName(key)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, name, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapMinIOError(err, "failed to get "+key)
	}
	return obj, nil
}

func (m *MinIO) Write(ctx context.Context, key string, data []byte) (string, error) {
	name, err := objectName(key)
	if err != nil {
		return "", err
	}
	_, err = m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: contentType(name)})
	if err != nil {
		return "", mapMinIOError(err, "failed to put "+key)
	}
	return m.bucket + "/" + name, nil
}

// Close is a no-op; the SDK client holds no persistent connections.
func (m *MinIO) Close() error { return nil }

// objectName turns a key into a bucket-relative object name.
func objectName(key string) (string, error) {
	name := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, `\`, "/")), "/")
	if name == "" || name == "." {
		return "", errs.New(errs.KindInvalidInput, "path is required")
	}
	return name, nil
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".puml", ".dot":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// mapMinIOError classifies an SDK error.
func mapMinIOError(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.KindIO, msg, err)
	}

	var resp miniogo.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey":
			return errs.Wrap(errs.KindNotFound, msg, err)
		case "InvalidBucketName", "InvalidObjectName", "KeyTooLongError":
			return errs.Wrap(errs.KindInvalidInput, msg, err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return errs.Wrap(errs.KindNotFound, msg, err)
		}
	}

	return errs.Wrap(errs.KindIO, msg, err)
}
