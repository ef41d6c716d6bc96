package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
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

func startWatch(t *testing.T, root string, reloads *atomic.Int64) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go Watch(ctx, root, 50*time.Millisecond, logger, func() error {
		reloads.Add(1)
		return nil
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_ChangeTriggersReload(t *testing.T) {
	root := t.TempDir()
	var reloads atomic.Int64
	startWatch(t, root, &reloads)

	_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("---\ntitle: N\ndate: 2020-01-01\n---\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return reloads.Load() > 0
	}, "file change did not trigger a reload")
}

func TestWatch_NonMarkdownIgnored(t *testing.T) {
	root := t.TempDir()
	var reloads atomic.Int64
	startWatch(t, root, &reloads)

	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("not content"), 0o644)

	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Errorf("reloads = %d, want 0 for non-markdown change", n)
	}
}

func TestWatch_BurstDebouncedToOneReload(t *testing.T) {
	root := t.TempDir()
	var reloads atomic.Int64
	startWatch(t, root, &reloads)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(filepath.Join(root, "burst.md"), []byte("---\ntitle: B\ndate: 2020-01-01\n---\nrev"), 0o644)
		time.Sleep(5 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return reloads.Load() >= 1
	}, "burst did not trigger a reload")

	// The burst fits inside one debounce window.
	time.Sleep(300 * time.Millisecond)
	if n := reloads.Load(); n > 2 {
		t.Errorf("reloads = %d, want the burst collapsed", n)
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	var reloads atomic.Int64
	startWatch(t, root, &reloads)

	subDir := filepath.Join(root, "drafts")
	_ = os.MkdirAll(subDir, 0o755)

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return reloads.Load() >= 1
	}, "new directory did not trigger a reload")
	before := reloads.Load()

	_ = os.WriteFile(filepath.Join(subDir, "deep.md"), []byte("---\ntitle: D\ndate: 2020-01-01\n---\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return reloads.Load() > before
	}, "file in new subdir did not trigger a reload")
}
