package device

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type brokenStore struct {
	getErr, setErr, deleteErr error
}

func (b brokenStore) Get(string) (string, bool, error) { return "", false, b.getErr }
func (b brokenStore) Set(string, string) error         { return b.setErr }
func (b brokenStore) Delete(string) error              { return b.deleteErr }

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	dir := t.TempDir()
	sqliteStore, err := OpenSQLiteStore(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(dir, "state.json")),
		"sqlite": sqliteStore,
	}
}

func TestIdentityStableAndClear(t *testing.T) {
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			id := NewIdentity(store, quietLogger())

			first := id.ID()
			if _, err := uuid.Parse(first); err != nil {
				t.Fatalf("ID %q is not a UUID: %v", first, err)
			}
			if second := id.ID(); second != first {
				t.Errorf("second ID = %q, want %q", second, first)
			}

			// A new Identity over the same store sees the persisted value.
			if again := NewIdentity(store, quietLogger()).ID(); again != first {
				t.Errorf("ID from fresh Identity = %q, want %q", again, first)
			}

			id.Clear()
			if _, ok, _ := store.Get(StorageKey); ok {
				t.Error("value still stored after Clear")
			}

			fresh := id.ID()
			if fresh == first {
				t.Error("ID after Clear matches the cleared value")
			}
			if id.ID() != fresh {
				t.Error("ID not stable after regeneration")
			}
		})
	}
}

func TestIdentityStorageUnavailable(t *testing.T) {
	id := NewIdentity(brokenStore{getErr: errors.New("disk gone")}, quietLogger())

	a := id.ID()
	b := id.ID()
	if a == "" || b == "" {
		t.Fatal("ID returned empty string")
	}
	if a == b {
		t.Error("ephemeral IDs should not be reused when storage is unreadable")
	}

	// Clear on a failing store must not panic.
	NewIdentity(brokenStore{deleteErr: errors.New("read-only")}, quietLogger()).Clear()
}

func TestIdentityPersistFailureStillReturnsID(t *testing.T) {
	id := NewIdentity(brokenStore{setErr: errors.New("read-only")}, quietLogger())
	if got := id.ID(); got == "" {
		t.Error("ID returned empty string")
	}
}

func TestIdentityNilStore(t *testing.T) {
	id := NewIdentity(nil, nil)
	first := id.ID()
	if id.ID() != first {
		t.Error("nil-store identity should be stable for the process")
	}
	id.Clear()
	if id.ID() == first {
		t.Error("Clear should reset the in-process id")
	}
}

func TestIdentityConcurrentFirstUse(t *testing.T) {
	id := NewIdentity(NewMemoryStore(), quietLogger())

	const n = 32
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = id.ID()
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != results[0] {
			t.Fatalf("result %d = %q, want %q", i, got, results[0])
		}
	}
}

func TestFileStorePermissionsAndCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)

	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}
	if _, _, err := store.Get("k"); err == nil {
		t.Error("expected error reading corrupt state file")
	}
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		kind    string
		wantErr bool
	}{
		{StoreMemory, false},
		{StoreFile, false},
		{"", false},
		{StoreSQLite, false},
		{"redis", true},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			store, err := OpenStore(tt.kind, dir)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenStore: %v", err)
			}
			if closer, ok := store.(interface{ Close() error }); ok {
				t.Cleanup(func() { closer.Close() })
			}
			if err := store.Set("k", "v"); err != nil {
				t.Fatalf("Set: %v", err)
			}
			if v, ok, err := store.Get("k"); err != nil || !ok || v != "v" {
				t.Errorf("Get = %q, %v, %v", v, ok, err)
			}
		})
	}
}
