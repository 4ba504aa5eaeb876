package collection

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatcher(t *testing.T, coll *Collection, vaultDir string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := coll.logger
	go func() { _ = Watch(ctx, coll, vaultDir, logger) }()

	// Give the watcher time to register its directory watches.
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewFilePickedUp(t *testing.T) {
	vaultDir, _, _, coll := testEnv(t)
	mustLoad(t, coll)
	startWatcher(t, coll, vaultDir)

	_ = os.WriteFile(filepath.Join(vaultDir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := coll.Get("new.md")
		return ok
	}, "new file not picked up by watcher")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	vaultDir, _, _, coll := testEnv(t)
	mustLoad(t, coll)
	startWatcher(t, coll, vaultDir)

	subDir := filepath.Join(vaultDir, "subdir")
	_ = os.MkdirAll(subDir, 0o755)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		rec, ok := coll.Get("deep.md")
		return ok && rec.Path == "subdir/deep.md"
	}, "file in new subdir not picked up by watcher")
}

func TestWatcher_DeleteRemovesRecord(t *testing.T) {
	vaultDir, store, _, coll := testEnv(t)
	_ = store.Write("del.md", []byte("# Delete Me"))
	mustLoad(t, coll)
	if _, ok := coll.Get("del.md"); !ok {
		t.Fatal("precondition: file should be loaded")
	}
	startWatcher(t, coll, vaultDir)

	_ = os.Remove(filepath.Join(vaultDir, "del.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := coll.Get("del.md")
		return !ok
	}, "deleted file still in collection")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	vaultDir, store, _, coll := testEnv(t)
	_ = store.Write("old.md", []byte("# Rename"))
	mustLoad(t, coll)
	startWatcher(t, coll, vaultDir)

	_ = os.Rename(filepath.Join(vaultDir, "old.md"), filepath.Join(vaultDir, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, oldOK := coll.Get("old.md")
		_, newOK := coll.Get("renamed.md")
		return !oldOK && newOK
	}, "rename reconciliation failed: old name should be gone and new name present")
}

func TestWatcher_TrashIgnored(t *testing.T) {
	vaultDir, store, _, coll := testEnv(t)
	_ = store.Write("keep.md", []byte("# Keep"))
	mustLoad(t, coll)
	startWatcher(t, coll, vaultDir)

	// Trashing happens through a rename into .trash; the trashed copy must
	// not reappear as a collection record.
	if err := store.Trash("keep.md"); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := coll.Get("keep.md")
		return !ok
	}, "trashed file still in collection")

	time.Sleep(300 * time.Millisecond)
	if _, ok := coll.Get("keep.md"); ok {
		t.Error("trashed file resurrected by watcher")
	}
}
