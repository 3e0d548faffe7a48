package directory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	domerrors "github.com/garyellow/vyatsu-schedule/internal/errors"
)

type memObjects struct {
	objects map[string][]byte
	err     error
}

func (m *memObjects) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return "etag", nil
}

func (m *memObjects) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("get %s: %w", key, domerrors.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), "etag", nil
}

func TestObjectStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	objects := &memObjects{}
	store := NewObjectStore(objects, "directory/snapshot.json.zst")

	if _, err := store.LoadDirectory(ctx); !errors.Is(err, domerrors.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound before upload, got %v", err)
	}
	if err := store.SaveDirectory(ctx, []byte("blob"), time.Now()); err != nil {
		t.Fatalf("SaveDirectory failed: %v", err)
	}
	blob, err := store.LoadDirectory(ctx)
	if err != nil || string(blob) != "blob" {
		t.Errorf("LoadDirectory() = %q, %v", blob, err)
	}
}

func TestTiered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	local := &memStore{}
	remote := NewObjectStore(&memObjects{}, "snap")
	store := Tiered(local, remote)

	if _, err := store.LoadDirectory(ctx); !errors.Is(err, domerrors.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound from empty tiers, got %v", err)
	}

	if err := store.SaveDirectory(ctx, []byte("v1"), time.Now()); err != nil {
		t.Fatalf("SaveDirectory failed: %v", err)
	}
	if blob, _ := remote.LoadDirectory(ctx); string(blob) != "v1" {
		t.Errorf("Expected remote tier to be written, got %q", blob)
	}

	// A fresh replica with an empty local cache falls through to remote.
	fresh := Tiered(&memStore{}, remote)
	blob, err := fresh.LoadDirectory(ctx)
	if err != nil || string(blob) != "v1" {
		t.Errorf("LoadDirectory() = %q, %v", blob, err)
	}
}

func TestTiered_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	broken := NewObjectStore(&memObjects{err: errors.New("bucket unreachable")}, "snap")
	local := &memStore{}
	store := Tiered(local, broken)

	if err := store.SaveDirectory(ctx, []byte("v1"), time.Now()); err == nil {
		t.Error("Expected error from failing tier")
	}
	if blob, _ := local.LoadDirectory(ctx); string(blob) != "v1" {
		t.Error("Expected healthy tier to be written despite the failure")
	}

	_, err := Tiered(&memStore{}, broken).LoadDirectory(ctx)
	if err == nil || errors.Is(err, domerrors.ErrNotFound) {
		t.Errorf("Expected the remote failure to surface, got %v", err)
	}
}
