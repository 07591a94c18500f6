package watch_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formsync/internal/watch"
)

func startWatcher(t *testing.T, paths ...string) <-chan struct{} {
	t.Helper()
	w, err := watch.New(watch.Config{Paths: paths, Debounce: 50 * time.Millisecond})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("selected: []"), 0o644))

	onChange := startWatcher(t, rulesPath)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(rulesPath, []byte(fmt.Sprintf("name: r%d", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-onChange:
	case <-time.After(time.Second):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "api.yaml")
	otherPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(schemaPath, []byte("openapi: 3.0.3"), 0o644))
	require.NoError(t, os.WriteFile(otherPath, []byte("initial"), 0o644))

	onChange := startWatcher(t, schemaPath)

	require.NoError(t, os.WriteFile(otherPath, []byte("changed"), 0o644))
	select {
	case <-onChange:
		t.Fatal("unexpected notification for unwatched file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNew_RequiresPaths(t *testing.T) {
	_, err := watch.New(watch.Config{})
	require.Error(t, err)
}
