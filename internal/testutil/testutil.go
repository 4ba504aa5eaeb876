// Package testutil provides shared test helpers for setting up vaults and collections.
package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/starford/reboard/internal/collection"
	"github.com/starford/reboard/internal/snooze"
	"github.com/starford/reboard/internal/storage"
)

// Logger returns a silent logger for tests.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestCollection creates a loaded collection over a temporary vault.
func TestCollection(t *testing.T) (storage.Provider, *snooze.Store, *collection.Collection) {
	t.Helper()
	_, store := TestVault(t)
	snoozes := snooze.NewStore(store)
	coll := collection.New(store, snoozes, Logger())
	if err := coll.Load(); err != nil {
		t.Fatalf("load collection: %v", err)
	}
	return store, snoozes, coll
}
