package consent

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	d, err := store.Get(ctx, "widget_consent")
	if err != nil {
		t.Fatalf("Get before any Set: %v", err)
	}
	if d != Undecided {
		t.Fatalf("fresh store decision = %v, want %v", d, Undecided)
	}

	if err := store.Set(ctx, "widget_consent", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if d, _ = store.Get(ctx, "widget_consent"); d != Granted {
		t.Fatalf("decision after grant = %v, want %v", d, Granted)
	}

	if err := store.Set(ctx, "widget_consent", false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}
	if d, _ = store.Get(ctx, "widget_consent"); d != Declined {
		t.Fatalf("decision after decline = %v, want %v", d, Declined)
	}

	if err := store.Clear(ctx, "widget_consent"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if d, _ = store.Get(ctx, "widget_consent"); d != Undecided {
		t.Fatalf("decision after clear = %v, want %v", d, Undecided)
	}

	// Clearing an absent key is a no-op.
	if err := store.Clear(ctx, "widget_consent"); err != nil {
		t.Fatalf("Clear absent key: %v", err)
	}
}

func TestFileStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.Set(ctx, "site-a", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if d, _ := store.Get(ctx, "site-b"); d != Undecided {
		t.Fatalf("site-b decision = %v, want %v", d, Undecided)
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key := "../escape/attempt key"
	if err := store.Set(ctx, key, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if d, _ := store.Get(ctx, key); d != Granted {
		t.Fatalf("decision = %v, want %v", d, Granted)
	}

	// The file lands inside the store directory, not above it.
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("store dir holds %d files, want 1", len(matches))
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if d, _ := store.Get(ctx, "k"); d != Undecided {
		t.Fatalf("fresh store decision = %v, want %v", d, Undecided)
	}
	if err := store.Set(ctx, "k", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if d, _ := store.Get(ctx, "k"); d != Granted {
		t.Fatalf("decision = %v, want %v", d, Granted)
	}
	if err := store.Set(ctx, "k", false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}
	if d, _ := store.Get(ctx, "k"); d != Declined {
		t.Fatalf("decision = %v, want %v", d, Declined)
	}
	if err := store.Clear(ctx, "k"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if d, _ := store.Get(ctx, "k"); d != Undecided {
		t.Fatalf("decision after clear = %v, want %v", d, Undecided)
	}
}

func TestDecisionString(t *testing.T) {
	if got := Granted.String(); got != "granted" {
		t.Errorf("Granted.String() = %q", got)
	}
	if got := Declined.String(); got != "declined" {
		t.Errorf("Declined.String() = %q", got)
	}
	if got := Undecided.String(); got != "undecided" {
		t.Errorf("Undecided.String() = %q", got)
	}
}
