package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lua")
	if err := os.WriteFile(path, []byte("-- v0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// start runs w in the background and reports each callback on the
// returned channel.
func start(t *testing.T, w *Watcher) (<-chan struct{}, context.CancelFunc, <-chan error) {
	t.Helper()
	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		done <- w.Run(ctx, func() { calls <- struct{}{} })
	}()
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	return calls, cancel, done
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.lua")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("New(missing) error = %v, want ErrPathNotExist", err)
	}
	if _, err := New(t.TempDir()); err == nil {
		t.Error("New(dir) should fail")
	}

	path := newFile(t)
	w, err := New(path)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	abs, _ := filepath.Abs(path)
	if w.Path() != abs {
		t.Errorf("Path() = %q, want %q", w.Path(), abs)
	}
}

func TestRunCoalescesBurst(t *testing.T) {
	path := newFile(t)
	w, err := New(path, WithDebounce(150*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	calls, _, _ := start(t, w)

	for i := range 3 {
		write(t, path, "-- v"+string(rune('1'+i))+"\n")
	}

	select {
	case <-calls:
	case <-time.After(3 * time.Second):
		t.Fatal("no callback after writes")
	}

	select {
	case <-calls:
		t.Error("burst produced more than one callback")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestRunIgnoresOtherFiles(t *testing.T) {
	path := newFile(t)
	w, err := New(path, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	calls, _, _ := start(t, w)

	write(t, filepath.Join(filepath.Dir(path), "other.lua"), "x")
	select {
	case <-calls:
		t.Fatal("callback for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}

	write(t, path, "-- v1\n")
	select {
	case <-calls:
	case <-time.After(3 * time.Second):
		t.Fatal("no callback after write")
	}
}

func TestRunStops(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		w, err := New(newFile(t))
		if err != nil {
			t.Fatal(err)
		}
		_, cancel, done := start(t, w)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run() = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return")
		}
	})

	t.Run("close", func(t *testing.T) {
		w, err := New(newFile(t))
		if err != nil {
			t.Fatal(err)
		}
		_, _, done := start(t, w)
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, ErrWatcherClosed) {
				t.Errorf("Run() = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return")
		}

		if err := w.Run(context.Background(), func() {}); !errors.Is(err, ErrWatcherClosed) {
			t.Errorf("Run after Close = %v, want ErrWatcherClosed", err)
		}
	})
}
