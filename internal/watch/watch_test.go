package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir string, load LoadFunc) {
	t.Helper()
	w, err := New(dir, ".renew", load, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
}

func TestWatcherReloadsOnRenewMarker(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "12.tar.gz")
	require.NoError(t, os.WriteFile(archive, []byte("data"), 0o644))

	loaded := make(chan string, 1)
	startWatcher(t, dir, func(path string) error {
		loaded <- path
		return nil
	})

	marker := archive + ".renew"
	require.NoError(t, os.WriteFile(marker, nil, 0o644))

	select {
	case got := <-loaded:
		assert.Equal(t, archive, got)
	case <-time.After(5 * time.Second):
		t.Fatal("archive was not reloaded")
	}
	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return os.IsNotExist(err)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherRemovesMarkerWhenLoadFails(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "3.tar.gz")
	require.NoError(t, os.WriteFile(archive, []byte("data"), 0o644))

	startWatcher(t, dir, func(string) error { return errors.New("broken") })

	marker := archive + ".renew"
	require.NoError(t, os.WriteFile(marker, nil, 0o644))
	assert.Eventually(t, func() bool {
		_, err := os.Stat(marker)
		return os.IsNotExist(err)
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcherTarget(t *testing.T) {
	w := &Watcher{dir: "/results", suffix: ".renew"}

	got, ok := w.target("/results/12.tar.gz.renew")
	assert.True(t, ok)
	assert.Equal(t, "/results/12.tar.gz", got)

	_, ok = w.target("/results/12.tar.gz")
	assert.False(t, ok)
	_, ok = w.target("/elsewhere/12.tar.gz.renew")
	assert.False(t, ok)
}
