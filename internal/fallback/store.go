package fallback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ImageStore persists rendered page images and returns a reference a client
// can follow: a URL or a path under the service's image route.
type ImageStore interface {
	Put(ctx context.Context, key string, png []byte) (string, error)
}

// FileStore keeps images in a local directory served by the HTTP server.
type FileStore struct {
	dir    string
	prefix string // URL prefix for references, e.g. "/images"
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir, prefix string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &FileStore{dir: dir, prefix: strings.TrimRight(prefix, "/")}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Put writes the image atomically. Existing images with the same key are
// reused.
func (s *FileStore) Put(_ context.Context, key string, png []byte) (string, error) {
	name := filepath.Base(key)
	path := filepath.Join(s.dir, name)
	ref := name
	if s.prefix != "" {
		ref = s.prefix + "/" + name
	}

	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	if _, err := tmp.Write(png); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("publish image: %w", err)
	}
	return ref, nil
}

// ObjectClient is the subset of *r2client.Client used by R2Store.
type ObjectClient interface {
	PutObjectIfNotExists(ctx context.Context, key string, body io.Reader, contentType string) (bool, error)
	ObjectURL(key string) string
}

// R2Store uploads images to an R2 bucket with a public URL.
type R2Store struct {
	client ObjectClient
	prefix string
}

// NewR2Store creates an R2-backed store. Keys are placed under prefix.
func NewR2Store(client ObjectClient, prefix string) *R2Store {
	return &R2Store{client: client, prefix: strings.Trim(prefix, "/")}
}

// Put uploads the image unless an object with the same key exists.
func (s *R2Store) Put(ctx context.Context, key string, png []byte) (string, error) {
	objectKey := key
	if s.prefix != "" {
		objectKey = s.prefix + "/" + key
	}
	if _, err := s.client.PutObjectIfNotExists(ctx, objectKey, bytes.NewReader(png), "image/png"); err != nil {
		return "", fmt.Errorf("upload page image: %w", err)
	}
	ref := s.client.ObjectURL(objectKey)
	if ref == "" {
		return "", fmt.Errorf("no public URL configured for %q", objectKey)
	}
	return ref, nil
}
