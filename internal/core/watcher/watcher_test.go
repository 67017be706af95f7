package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"["}, nil, func([]string) {}); err == nil {
		t.Fatal("expected error for invalid glob")
	}
}

func waitFor(t *testing.T, changed <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, []string{"exclude_dir"}, []string{"*.bak"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.SetExtensions([]string{"resolve"})

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "Stack_Template.resolve")
	if err := os.WriteFile(testFile, []byte("Concept Stack_Template;"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)

	// Excluded and foreign files stay quiet.
	os.WriteFile(filepath.Join(tmpDir, "Stack_Template.bak"), []byte("old"), 0o644)
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0o644)
	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if base := filepath.Base(p); base == "Stack_Template.bak" || base == "notes.txt" {
				t.Errorf("excluded file triggered event: %s", p)
			}
		}
	case <-time.After(500 * time.Millisecond):
	}

	// A new directory is reported and recursively watched.
	subdir := filepath.Join(tmpDir, "collections")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subdir, 2*time.Second)

	subFile := filepath.Join(subdir, "Queue_Template.resolve")
	if err := os.WriteFile(subFile, []byte("Concept Queue_Template;"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile, 2*time.Second)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "Old.resolve")
	newPath := filepath.Join(tmpDir, "New.resolve")
	if err := os.WriteFile(oldPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_RateLimitHoldsBatches(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(10*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.SetRateLimit(2, 1)
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	first := filepath.Join(tmpDir, "A.resolve")
	os.WriteFile(first, []byte("a"), 0o644)
	waitFor(t, changedFiles, first, 2*time.Second)

	second := filepath.Join(tmpDir, "B.resolve")
	start := time.Now()
	os.WriteFile(second, []byte("b"), 0o644)
	waitFor(t, changedFiles, second, 3*time.Second)
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("second batch arrived after %v, expected the limiter to hold it", elapsed)
	}
}

func TestWatcher_Filters(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, []string{"**/out"}, []string{"*.tmp"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.SetExtensions([]string{".resolve", "co"})

	tests := []struct {
		path    string
		exclude bool
	}{
		{"/lib/Stack_Template.resolve", false},
		{"/lib/Stack_Template.CO", false},
		{"/lib/notes.txt", true},
		{"/lib/scratch.tmp", true},
		{"/lib/collections", false},
	}
	for _, tt := range tests {
		if got := w.shouldExcludeFile(tt.path); got != tt.exclude {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", tt.path, got, tt.exclude)
		}
	}
	if !w.shouldExcludeDir("/proj/build/out") {
		t.Error("expected out to be excluded by path glob")
	}
}

func TestWatcher_RootOf(t *testing.T) {
	w := &Watcher{roots: []string{"/lib", "/lib/vendor", "/other"}}
	tests := map[string]string{
		"/lib/A.resolve":        "/lib",
		"/lib/vendor/B.resolve": "/lib/vendor",
		"/other/C.resolve":      "/other",
		"/elsewhere/D.resolve":  "",
		"/library/E.resolve":    "",
	}
	for path, want := range tests {
		if got := w.rootOf(path); got != want {
			t.Errorf("rootOf(%q) = %q, want %q", path, got, want)
		}
	}
}
