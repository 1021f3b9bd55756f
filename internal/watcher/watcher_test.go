package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startWatcher(t *testing.T, files []string, calls *atomic.Int32) (cancel func()) {
	t.Helper()

	w, err := New(files, 100*time.Millisecond, nil, func(ctx context.Context) {
		calls.Add(1)
	})
	require.NoError(t, err)

	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directories.
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancelCtx()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "Materiais.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("v1"), 0644))

	var calls atomic.Int32
	stop := startWatcher(t, []string{input}, &calls)
	defer stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(input, []byte("v2"), 0644))
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcher_RenameOverTarget(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "NM materiais do SMS SI.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("v1"), 0644))

	var calls atomic.Int32
	stop := startWatcher(t, []string{input}, &calls)
	defer stop()

	tmp := filepath.Join(dir, "~$tmp.xlsx")
	require.NoError(t, os.WriteFile(tmp, []byte("v2"), 0644))
	require.NoError(t, os.Rename(tmp, input))

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "Materiais.xlsx")

	var calls atomic.Int32
	stop := startWatcher(t, []string{input}, &calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.xlsx"), []byte("x"), 0644))
	time.Sleep(400 * time.Millisecond)
	stop()

	assert.Zero(t, calls.Load())
}

func TestNew_NoFiles(t *testing.T) {
	_, err := New(nil, 0, nil, func(context.Context) {})
	assert.Error(t, err)
}
