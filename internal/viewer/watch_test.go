package viewer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func TestWatcherCheck(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	for _, p := range []string{a, b} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	start := time.Now().Add(-time.Hour)
	touch(t, a, start)
	touch(t, b, start)

	w, err := NewWatcher(time.Second, a, b)
	require.NoError(t, err)
	assert.Empty(t, w.Check())

	touch(t, b, start.Add(time.Minute))
	assert.Equal(t, []string{b}, w.Check())
	assert.Empty(t, w.Check(), "baseline moves forward")

	require.NoError(t, os.Remove(a))
	assert.Empty(t, w.Check())
}

func TestNewWatcherMissingFile(t *testing.T) {
	_, err := NewWatcher(time.Second, filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestWatcherCallback(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	touch(t, p, time.Now().Add(-time.Hour))

	w, err := NewWatcher(10*time.Millisecond, p)
	require.NoError(t, err)
	got := make(chan []string, 1)
	w.OnChange(func(changed []string) {
		select {
		case got <- changed:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	touch(t, p, time.Now())
	select {
	case changed := <-got:
		assert.Equal(t, []string{p}, changed)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}
}
