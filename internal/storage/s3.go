package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/speechfoundry/chorus/internal/config"
	"github.com/speechfoundry/chorus/internal/tts"
)

// S3 uploads artifacts to an S3-compatible bucket and returns public URLs.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
	host   string
	log    *slog.Logger
}

// NewS3 connects to the configured endpoint and verifies the bucket exists.
func NewS3(ctx context.Context, cfg config.S3Config, log *slog.Logger) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: true,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, tts.NewError(tts.KindStorage, "init s3 client", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, tts.NewError(tts.KindStorage, "check bucket", err)
	}
	if !exists {
		return nil, tts.NewError(tts.KindStorage, fmt.Sprintf("bucket %q does not exist", cfg.Bucket), nil)
	}

	return &S3{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		host:   fmt.Sprintf("https://%s", cfg.Endpoint),
		log:    log.With(slog.String("component", "storage.s3")),
	}, nil
}

// Put uploads the artifact and returns its public URL.
func (s *S3) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := path.Join(s.prefix, name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return "", tts.NewError(tts.KindStorage, "upload audio object", err)
	}
	locator := fmt.Sprintf("%s/%s/%s", s.host, s.bucket, url.PathEscape(key))
	s.log.Debug("artifact uploaded", slog.String("key", key), slog.Int("bytes", len(data)))
	return locator, nil
}
