package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// storeContract runs the SessionStore behavior every backend must satisfy.
func storeContract(t *testing.T, store SessionStore) {
	t.Helper()
	ctx := context.Background()

	// Missing key reads as empty, not an error.
	v, err := store.Get(ctx, "s1", "k")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if v != "" {
		t.Fatalf("get missing = %q, want empty", v)
	}

	if err := store.Set(ctx, "s1", "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ = store.Get(ctx, "s1", "k"); v != "v1" {
		t.Errorf("get = %q, want v1", v)
	}

	// Overwrite, including with the empty string. The pagination cursor
	// depends on empty overwrites landing.
	store.Set(ctx, "s1", "k", "v2")
	if v, _ = store.Get(ctx, "s1", "k"); v != "v2" {
		t.Errorf("overwrite = %q, want v2", v)
	}
	store.Set(ctx, "s1", "k", "")
	if v, _ = store.Get(ctx, "s1", "k"); v != "" {
		t.Errorf("empty overwrite = %q, want empty", v)
	}

	// Values are isolated per session.
	store.Set(ctx, "s1", "tok", "alpha")
	store.Set(ctx, "s2", "tok", "beta")
	if v, _ = store.Get(ctx, "s1", "tok"); v != "alpha" {
		t.Errorf("s1 tok = %q", v)
	}
	if v, _ = store.Get(ctx, "s2", "tok"); v != "beta" {
		t.Errorf("s2 tok = %q", v)
	}

	// Delete is idempotent.
	if err := store.Delete(ctx, "s1", "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "s1", "tok"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if v, _ = store.Get(ctx, "s1", "tok"); v != "" {
		t.Errorf("deleted value = %q", v)
	}
	if v, _ = store.Get(ctx, "s2", "tok"); v != "beta" {
		t.Errorf("delete crossed sessions: s2 tok = %q", v)
	}
}

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStore_ConcurrentSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sid := string(rune('a' + n%8))
			for j := 0; j < 100; j++ {
				store.Set(ctx, sid, "k", "v")
				store.Get(ctx, sid, "k")
				store.Delete(ctx, sid, "k")
			}
		}(i)
	}
	wg.Wait()
}

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer store.Close()
	storeContract(t, store)
}

func TestSQLiteStore_Cleanup(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, "s1", "k", "v")
	if err := store.Cleanup(ctx, time.Hour); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if v, _ := store.Get(ctx, "s1", "k"); v != "v" {
		t.Fatalf("fresh value swept: %q", v)
	}
	// A negative age moves the cutoff into the future and sweeps everything.
	if err := store.Cleanup(ctx, -time.Hour); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if v, _ := store.Get(ctx, "s1", "k"); v != "" {
		t.Errorf("value survived sweep: %q", v)
	}
}
