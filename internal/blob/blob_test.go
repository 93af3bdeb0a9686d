package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/schemavault/schemavault/internal/errors"
)

func TestLocation_ServiceScoped(t *testing.T) {
	loc := Location("crapi", "identity", 3)
	if loc != "crapi/identity/3.json" {
		t.Errorf("unexpected location: %s", loc)
	}
}

func TestLocation_ApplicationScoped(t *testing.T) {
	loc := Location("crapi", "", 1)
	if loc != "crapi/_app/1.json" {
		t.Errorf("unexpected location: %s", loc)
	}
}

func TestLocation_EscapesUnsafeNames(t *testing.T) {
	loc := Location("my app/../etc", "svc one", 1)
	parts := strings.Split(loc, "/")
	if len(parts) != 3 {
		t.Fatalf("escaped names must stay within their segment: %s", loc)
	}
	for _, part := range parts {
		if part == ".." || part == "." {
			t.Errorf("location must not contain traversal segments: %s", loc)
		}
	}
}

func TestLocation_PlaceholderIsDisjointFromServiceNames(t *testing.T) {
	appScoped := Location("crapi", "", 1)
	svcScoped := Location("crapi", "_app", 1)
	if appScoped == svcScoped {
		t.Errorf("service named %q collides with the application scope: %s", "_app", svcScoped)
	}
	if Location("crapi", "_internal", 1) == "crapi/_internal/1.json" {
		t.Errorf("leading underscore in a service name must be encoded")
	}
}

func TestLocation_Deterministic(t *testing.T) {
	if Location("a", "b", 2) != Location("a", "b", 2) {
		t.Errorf("same inputs must produce the same location")
	}
}

func newFileStore(t *testing.T) *FileStore {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store
}

func TestFileStore_PutGet(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	data := []byte(`{"openapi":"3.0.0"}`)
	if err := store.Put(ctx, "crapi/identity/1.json", data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "crapi/identity/1.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("round-trip mismatch: %s", got)
	}
}

func TestFileStore_PutIsWriteOnce(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "crapi/_app/1.json", []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	err := store.Put(ctx, "crapi/_app/1.json", []byte("second"))
	if !errors.HasCode(err, errors.ErrBlobConflict) {
		t.Fatalf("expected BLOB_CONFLICT, got: %v", err)
	}

	// The original bytes are untouched.
	got, err := store.Get(ctx, "crapi/_app/1.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "first" {
		t.Errorf("write-once blob was overwritten: %s", got)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	store := newFileStore(t)

	_, err := store.Get(context.Background(), "crapi/_app/9.json")
	if !errors.HasCode(err, errors.ErrBlobMissing) {
		t.Errorf("expected BLOB_MISSING, got: %v", err)
	}
}

func TestFileStore_Exists(t *testing.T) {
	store := newFileStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "a/_app/1.json")
	if err != nil || exists {
		t.Errorf("expected not exists, got %v %v", exists, err)
	}

	if err := store.Put(ctx, "a/_app/1.json", []byte("x")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	exists, err = store.Exists(ctx, "a/_app/1.json")
	if err != nil || !exists {
		t.Errorf("expected exists, got %v %v", exists, err)
	}
}

func TestFileStore_HealthCheck(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}

	os.RemoveAll(filepath.Join(dir, "blobs"))
	if err := store.HealthCheck(context.Background()); err == nil {
		t.Errorf("expected HealthCheck failure after base directory removal")
	}
}

func TestMemoryStore_WriteOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "a/_app/1.json", []byte("one")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "a/_app/1.json", []byte("two")); !errors.HasCode(err, errors.ErrBlobConflict) {
		t.Errorf("expected BLOB_CONFLICT, got: %v", err)
	}

	got, err := store.Get(ctx, "a/_app/1.json")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "one" {
		t.Errorf("unexpected bytes: %s", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.HasCode(err, errors.ErrBlobMissing) {
		t.Errorf("expected BLOB_MISSING, got: %v", err)
	}
}

func TestNewStore_Factory(t *testing.T) {
	if _, err := NewStore(StoreConfig{Type: "memory"}); err != nil {
		t.Errorf("memory store creation failed: %v", err)
	}
	if _, err := NewStore(StoreConfig{Type: "filesystem", BasePath: t.TempDir()}); err != nil {
		t.Errorf("filesystem store creation failed: %v", err)
	}
	if _, err := NewStore(StoreConfig{Type: "bogus"}); err == nil {
		t.Errorf("expected error for unsupported store type")
	}
}
