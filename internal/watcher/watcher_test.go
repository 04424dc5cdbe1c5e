package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
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

func startWatch(t *testing.T, file string, calls *atomic.Int32) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, file, 50*time.Millisecond, quietLogger(), func() { calls.Add(1) })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_WriteTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "apps.json")
	var calls atomic.Int32
	startWatch(t, file, &calls)

	_ = os.WriteFile(file, []byte(`{"apps":[]}`), 0o644)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "callback not invoked after write")
}

func TestWatch_RenameIntoPlaceTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "apps.json")
	var calls atomic.Int32
	startWatch(t, file, &calls)

	tmp := filepath.Join(dir, ".launchpad-tmp-1")
	_ = os.WriteFile(tmp, []byte(`{"apps":[]}`), 0o644)
	_ = os.Rename(tmp, file)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "callback not invoked after rename")
}

func TestWatch_BurstDebounced(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "apps.json")
	var calls atomic.Int32
	startWatch(t, file, &calls)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(file, []byte(`{"apps":[]}`), 0o644)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return calls.Load() >= 1
	}, "callback not invoked")
	time.Sleep(200 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestWatch_OtherFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "apps.json")
	var calls atomic.Int32
	startWatch(t, file, &calls)

	_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestWatch_CreatesMissingDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "public", "config", "apps.json")
	var calls atomic.Int32
	startWatch(t, file, &calls)

	if _, err := os.Stat(filepath.Dir(file)); err != nil {
		t.Fatalf("dir not created: %v", err)
	}
}
