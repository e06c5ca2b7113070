package bootstate

import (
	"path/filepath"
	"testing"
)

func TestStoreEnsureBootsIncrementsAndPersists(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	boots1, err := store.EnsureBoots("agent one")
	if err != nil {
		t.Fatalf("EnsureBoots: %v", err)
	}
	if boots1 != 1 {
		t.Fatalf("boots1 = %d, want 1", boots1)
	}

	boots2, err := store.EnsureBoots("agent one")
	if err != nil {
		t.Fatalf("EnsureBoots: %v", err)
	}
	if boots2 != 2 {
		t.Fatalf("boots2 = %d, want 2", boots2)
	}

	// A fresh Store reopened at the same directory picks up where the
	// file left off.
	store2, err := NewStore(store.dir)
	if err != nil {
		t.Fatalf("NewStore(2): %v", err)
	}
	boots3, err := store2.EnsureBoots("agent one")
	if err != nil {
		t.Fatalf("EnsureBoots(3): %v", err)
	}
	if boots3 != 3 {
		t.Fatalf("boots3 = %d, want 3", boots3)
	}
}

func TestStoreEnsureBootsIsPerAgent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.EnsureBoots("router1"); err != nil {
		t.Fatalf("EnsureBoots(router1): %v", err)
	}
	boots, err := store.EnsureBoots("router2")
	if err != nil {
		t.Fatalf("EnsureBoots(router2): %v", err)
	}
	if boots != 1 {
		t.Fatalf("router2 boots = %d, want 1 (independent of router1)", boots)
	}
}

func TestStoreSnapshotRoundTrips(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	snap := EngineSnapshot{
		Community:  "public@10",
		IP:         "127.0.0.1",
		Port:       1161,
		V3Enabled:  true,
		V3EngineID: "abc123",
		V3Username: "operator",
	}
	if err := store.SaveSnapshot("switch/core@dc1", snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := store.LoadSnapshot("switch/core@dc1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Agent != "switch/core@dc1" || got.Community != snap.Community || got.Port != snap.Port {
		t.Fatalf("LoadSnapshot = %+v, want agent/community/port to match %+v", got, snap)
	}
}

func TestStoreLoadSnapshotMissingIsNotAnError(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	snap, err := store.LoadSnapshot("never-started")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap != (EngineSnapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
}

func TestEncodeNameIsFilesystemSafe(t *testing.T) {
	name := "core/router one"
	encoded := encodeName(name)
	if filepath.Base(encoded) != encoded {
		t.Fatalf("encodeName(%q) = %q, contains a path separator", name, encoded)
	}
	if encoded == name {
		t.Fatalf("encodeName(%q) did not encode anything", name)
	}
}
