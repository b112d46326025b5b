package libraries

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ImageStore keeps uploaded images and hands back the URL they are served at.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// NewImageStore returns a GCS-backed store when a bucket is configured and a
// local directory otherwise.
func NewImageStore(ctx context.Context, bucket, credentials, dir string) (ImageStore, error) {
	if bucket == "" {
		return NewDiskImageStore(dir, "/images")
	}
	return NewGCSImageStore(ctx, bucket, credentials)
}

type GCSImageStore struct {
	client *storage.Client
	bucket string
}

// NewGCSImageStore connects to Cloud Storage. credentials is the base64
// encoded service account JSON; when empty the default credentials are used.
func NewGCSImageStore(ctx context.Context, bucket, credentials string) (*GCSImageStore, error) {
	var opts []option.ClientOption
	if credentials != "" {
		decoded, err := base64.StdEncoding.DecodeString(credentials)
		if err != nil {
			return nil, fmt.Errorf("failed to decode service account json: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(decoded))
	}

	gcsClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSImageStore{client: gcsClient, bucket: bucket}, nil
}

func (s *GCSImageStore) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return (&url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: path.Join("/", s.bucket, key)}).String(), nil
}

func (s *GCSImageStore) Close() error {
	return s.client.Close()
}

// DiskImageStore writes images under Dir; the server exposes Dir at BaseURL.
type DiskImageStore struct {
	Dir     string
	BaseURL string
}

func NewDiskImageStore(dir, baseURL string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &DiskImageStore{Dir: dir, BaseURL: baseURL}, nil
}

func (s *DiskImageStore) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	dst := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	return path.Join(s.BaseURL, key), nil
}
