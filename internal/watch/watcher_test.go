package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const triple = "<http://ex/s> <http://ex/p> <http://ex/o> .\n"

func collect(ch chan []string) Handler {
	return func(_ context.Context, changed []string) {
		ch <- changed
	}
}

func waitBatch(t *testing.T, ch chan []string) []string {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
		return nil
	}
}

func TestNewValidatesArguments(t *testing.T) {
	ch := make(chan []string, 1)
	_, err := New(nil, 0, collect(ch))
	assert.Error(t, err)

	_, err = New([]string{t.TempDir()}, 0, nil)
	assert.Error(t, err)

	_, err = New([]string{filepath.Join(t.TempDir(), "missing.nq")}, 0, collect(ch))
	assert.Error(t, err)
}

func TestWatchFileDebouncesWrites(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "proof.nq")
	require.NoError(t, os.WriteFile(path, []byte(triple), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.nq"), []byte(triple), 0644))

	ch := make(chan []string, 4)
	w, err := New([]string{path}, 50*time.Millisecond, collect(ch))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(triple+triple), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.nq"), []byte(triple+triple), 0644))

	got := waitBatch(t, ch)
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{abs}, got)

	stats := w.Stats()
	assert.Equal(t, 1, stats.Batches)
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.Equal(t, abs, stats.LastEventPath)
}

func TestWatchDirectoryFiltersExtensions(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	ch := make(chan []string, 4)
	w, err := New([]string{dir}, 30*time.Millisecond, collect(ch))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.nt"), []byte(triple), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.nq"), []byte(triple), 0644))

	got := waitBatch(t, ch)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(abs, "a.nq"), filepath.Join(abs, "b.nt")}, got)
}

func TestStopIsIdempotentAndContextEndsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := New([]string{t.TempDir()}, 10*time.Millisecond, func(context.Context, []string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx), "second Start is a no-op")

	cancel()
	w.Stop()
	w.Stop()
}

func TestStartFailureReleasesWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := filepath.Join(t.TempDir(), "proofs")
	require.NoError(t, os.Mkdir(dir, 0755))

	ch := make(chan []string, 1)
	w, err := New([]string{dir}, 0, collect(ch))
	require.NoError(t, err)
	require.NoError(t, os.Remove(dir))

	assert.Error(t, w.Start(context.Background()))
	assert.ErrorIs(t, w.Start(context.Background()), errClosed)
	w.Stop()
}
