package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

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

func startWatcher(t *testing.T, root string, opts Options) *atomic.Int32 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var calls atomic.Int32
	go Watch(ctx, root, opts, testLogger(), func(context.Context) {
		calls.Add(1)
	})
	time.Sleep(100 * time.Millisecond)
	return &calls
}

func TestWatcher_NewFileTriggers(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, root, Options{Debounce: 50 * time.Millisecond})

	_ = os.WriteFile(filepath.Join(root, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "new file did not trigger a sync")
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, root, Options{Debounce: 300 * time.Millisecond})

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(filepath.Join(root, "burst.md"), []byte{byte('a' + i)}, 0o644)
		time.Sleep(20 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "burst did not trigger a sync")
	time.Sleep(500 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("trigger called %d times, want 1", n)
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	calls := startWatcher(t, root, Options{Debounce: 50 * time.Millisecond})

	sub := filepath.Join(root, "subdir")
	_ = os.MkdirAll(sub, 0o755)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "new dir did not trigger a sync")

	before := calls.Load()
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return calls.Load() > before
	}, "file in new subdir did not trigger a sync")
}

func TestRelevant(t *testing.T) {
	root := "/vault"
	excluded := map[string]struct{}{"Templates": {}}
	cases := []struct {
		path string
		want bool
	}{
		{"/vault/a.md", true},
		{"/vault/02 - Areas/x/b.md", true},
		{"/vault/image.png", false},
		{"/vault/.parasync-tmp-123.md", false},
		{"/vault/Templates/t.md", false},
		{"/vault/x/Templates/y/t.md", false},
	}
	for _, c := range cases {
		if got := relevant(root, filepath.FromSlash(c.path), excluded); got != c.want {
			t.Errorf("relevant(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
