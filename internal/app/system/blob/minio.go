package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PublicURL string // optional; defaults to <endpoint>/<bucket>
}

// Minio stores objects in a MinIO or S3 bucket.
type Minio struct {
	core      *minio.Client
	bucket    string
	publicURL string
}

// NewMinio connects and creates the bucket when missing.
func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	core, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := core.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := core.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
	}
	return &Minio{core: core, bucket: cfg.Bucket, publicURL: cfg.PublicURL}, nil
}

// Put uploads the object.
func (m *Minio) Put(ctx context.Context, in UploadInput) (string, error) {
	_, err := m.core.PutObject(ctx, m.bucket, in.Key, in.Body, in.Size, minio.PutObjectOptions{ContentType: in.ContentType})
	if err != nil {
		return "", err
	}
	return m.objectURL(in.Key), nil
}

// Delete removes the object.
func (m *Minio) Delete(ctx context.Context, key string) error {
	return m.core.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *Minio) objectURL(key string) string {
	key = strings.TrimLeft(key, "/")
	if m.publicURL != "" {
		return strings.TrimRight(m.publicURL, "/") + "/" + key
	}
	if u := m.core.EndpointURL(); u != nil {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(u.String(), "/"), m.bucket, key)
	}
	return fmt.Sprintf("/%s/%s", m.bucket, key)
}

var _ Store = (*Minio)(nil)
