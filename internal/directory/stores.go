package directory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

// ObjectClient is the subset of *r2client.Client used by ObjectStore.
type ObjectClient interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// DefaultObjectKey is where servers and the warmup tool keep the snapshot.
const DefaultObjectKey = "directory/snapshot.json.zst"

// ObjectStore keeps the snapshot blob in an object bucket so replicas
// without local state can start from it.
type ObjectStore struct {
	client ObjectClient
	key    string
}

// NewObjectStore stores the snapshot under key.
func NewObjectStore(client ObjectClient, key string) *ObjectStore {
	return &ObjectStore{client: client, key: key}
}

// SaveDirectory uploads the blob.
func (s *ObjectStore) SaveDirectory(ctx context.Context, blob []byte, _ time.Time) error {
	if _, err := s.client.Upload(ctx, s.key, bytes.NewReader(blob), "application/zstd"); err != nil {
		return fmt.Errorf("upload directory: %w", err)
	}
	return nil
}

// LoadDirectory downloads the blob. A missing object is ErrNotFound.
func (s *ObjectStore) LoadDirectory(ctx context.Context) ([]byte, error) {
	body, _, err := s.client.Download(ctx, s.key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	blob, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read directory object: %w", err)
	}
	return blob, nil
}

// tiered saves to every store and loads from the first that has a blob.
type tiered []Store

// Tiered combines stores in preference order: the local cache first, then
// remote copies.
func Tiered(stores ...Store) Store {
	return tiered(stores)
}

func (t tiered) SaveDirectory(ctx context.Context, blob []byte, loadedAt time.Time) error {
	var errs []error
	for _, s := range t {
		if err := s.SaveDirectory(ctx, blob, loadedAt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tiered) LoadDirectory(ctx context.Context) ([]byte, error) {
	var errs []error
	for _, s := range t {
		blob, err := s.LoadDirectory(ctx)
		if err == nil {
			return blob, nil
		}
		if !errors.Is(err, domerrors.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, domerrors.ErrNotFound
}
