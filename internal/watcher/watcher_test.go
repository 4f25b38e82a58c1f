package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const testDebounce = 50 * time.Millisecond

func startWatcher(t *testing.T, root string, exts []string, calls *atomic.Int32) *Watcher {
	t.Helper()
	w := NewWatcher(root, exts, func(context.Context) { calls.Add(1) }, WithDebounce(testDebounce))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return w
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DebouncesBurstIntoOneRebuild(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, dir, []string{".pdf"}, &calls)

	for i, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := writeFile(filepath.Join(dir, name), string(rune('x'+i))); err != nil {
			t.Fatal(err)
		}
	}
	if !waitFor(t, func() bool { return calls.Load() >= 1 }) {
		t.Fatal("expected a rebuild after files were added")
	}
	time.Sleep(4 * testDebounce)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected one debounced rebuild, got %d", n)
	}
}

func TestWatcher_IgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	startWatcher(t, dir, []string{".pdf"}, &calls)

	if err := writeFile(filepath.Join(dir, "notes.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(sub, "deep.pdf"), "not top level"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(6 * testDebounce)
	if n := calls.Load(); n != 0 {
		t.Errorf("expected no rebuild, got %d", n)
	}
}

func TestWatcher_SkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tarif.pdf")
	if err := writeFile(path, "same"); err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	startWatcher(t, dir, []string{".pdf"}, &calls)

	// Rewriting identical bytes generates events but no change.
	if err := writeFile(path, "same"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(6 * testDebounce)
	if n := calls.Load(); n != 0 {
		t.Fatalf("identical rewrite should not rebuild, got %d", n)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, func() bool { return calls.Load() == 1 }) {
		t.Errorf("removal should rebuild once, got %d", calls.Load())
	}
}

func TestWatcher_StartCreatesRootAndStopIsIdempotent(t *testing.T) {
	root := filepath.Join(t.TempDir(), "dokumen_sumber")
	w := NewWatcher(root, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if w.Root() != root {
		t.Errorf("Root() = %s", w.Root())
	}
	w.Stop()
	w.Stop()
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.pdf", []string{".pdf"}, true},
		{"/a/b.PDF", []string{".pdf"}, true},
		{"/a/b.pdf", []string{"pdf"}, true},
		{"/a/b.md", []string{".pdf"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
