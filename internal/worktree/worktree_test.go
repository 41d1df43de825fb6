package worktree

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateListRemove(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	wtPath := filepath.Join(root, "experiments", "tone")

	w, err := m.Create(wtPath, "greeting", "p1", "You are a helpful assistant.", 2)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if w.CheckedOutVersion != 2 {
		t.Errorf("unexpected version %d", w.CheckedOutVersion)
	}
	if !IsWorktree(wtPath) {
		t.Error("marker file missing")
	}
	content, err := os.ReadFile(w.ContentPath())
	if err != nil || string(content) != "You are a helpful assistant." {
		t.Errorf("content not checked out: %q, %v", content, err)
	}

	if _, err := m.Create(wtPath, "greeting", "p1", "x", 1); err == nil {
		t.Error("expected error creating over existing path")
	}

	active, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(active) != 1 || active[0].PromptName != "greeting" {
		t.Fatalf("unexpected list: %+v", active)
	}

	if err := m.Remove(wtPath, false); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if IsWorktree(wtPath) {
		t.Error("worktree dir still present")
	}
	active, _ = m.List()
	if len(active) != 0 {
		t.Errorf("expected empty list, got %+v", active)
	}
}

func TestRemoveRefusesDirtyWorktree(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	wtPath := filepath.Join(root, "wt")

	if _, err := m.Create(wtPath, "greeting", "p1", "content", 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wtPath, "notes.txt"), []byte("scratch"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := m.Remove(wtPath, false); err == nil {
		t.Fatal("expected refusal to remove dirty worktree")
	}
	if err := m.Remove(wtPath, true); err != nil {
		t.Fatalf("forced remove failed: %v", err)
	}
}

func TestRemoveUntrackedFails(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	plain := filepath.Join(root, "plain")
	if err := os.Mkdir(plain, 0755); err != nil {
		t.Fatal(err)
	}

	if err := m.Remove(plain, false); err == nil {
		t.Error("expected error removing a non-worktree directory")
	}
}

func TestListSkipsDeletedDirectories(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	wtPath := filepath.Join(root, "wt")

	if _, err := m.Create(wtPath, "greeting", "p1", "content", 0); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(wtPath); err != nil {
		t.Fatal(err)
	}

	active, err := m.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected deleted worktree filtered out, got %+v", active)
	}
}

func TestUpdateVersion(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	wtPath := filepath.Join(root, "wt")

	if _, err := m.Create(wtPath, "greeting", "p1", "content", 1); err != nil {
		t.Fatal(err)
	}

	w, err := m.UpdateVersion(wtPath, 4)
	if err != nil {
		t.Fatalf("UpdateVersion failed: %v", err)
	}
	if w.CheckedOutVersion != 4 {
		t.Errorf("unexpected version %d", w.CheckedOutVersion)
	}

	reloaded, err := m.Get(wtPath)
	if err != nil || reloaded == nil || reloaded.CheckedOutVersion != 4 {
		t.Errorf("version not persisted: %+v, %v", reloaded, err)
	}

	if _, err := m.UpdateVersion(filepath.Join(root, "nope"), 1); err == nil {
		t.Error("expected error for untracked path")
	}
}

func TestPruneStale(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)

	stale := filepath.Join(root, "stale")
	fresh := filepath.Join(root, "fresh")
	if _, err := m.Create(stale, "a", "p1", "x", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(fresh, "b", "p2", "y", 0); err != nil {
		t.Fatal(err)
	}

	// Age the first worktree by rewriting its registry timestamps.
	registry, err := m.loadRegistry()
	if err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-60 * 24 * time.Hour).Format(time.RFC3339)
	for key, w := range registry {
		if w.PromptName == "a" {
			w.LastUsed = old
			registry[key] = w
		}
	}
	if err := m.saveRegistry(registry); err != nil {
		t.Fatal(err)
	}

	removed, err := m.PruneStale(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneStale failed: %v", err)
	}
	if len(removed) != 1 || removed[0].PromptName != "a" {
		t.Fatalf("unexpected prune result: %+v", removed)
	}
	if IsWorktree(stale) {
		t.Error("stale worktree dir not removed")
	}
	if !IsWorktree(fresh) {
		t.Error("fresh worktree should survive")
	}
}

func TestWatcherReportsContentEdits(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	wtPath := filepath.Join(root, "wt")
	w, err := m.Create(wtPath, "greeting", "p1", "v1 content", 1)
	if err != nil {
		t.Fatal(err)
	}

	watcher, err := NewWatcher(wtPath, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	watcher.debounce = 50 * time.Millisecond

	changes := make(chan []string, 1)
	watcher.OnChange(func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})

	ctx := t.Context()
	if err := watcher.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer watcher.Stop()

	if err := os.WriteFile(w.ContentPath(), []byte("edited content"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changes:
		found := false
		for _, p := range paths {
			if p == "greeting.md" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected greeting.md in changes, got %v", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}
