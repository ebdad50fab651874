package keywatch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/pubship/internal/ports"
)

type countingInvalidator struct {
	n atomic.Int32
}

func (c *countingInvalidator) Invalidate() { c.n.Add(1) }

func TestWatcher_InvalidatesOnKeyChange(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.p12")
	require.NoError(t, os.WriteFile(keyPath, []byte("v1"), 0o600))

	inv := &countingInvalidator{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(keyPath, inv, ports.Discard, 20*time.Millisecond)
	require.NoError(t, w.Start(ctx))

	// Several writes in a burst collapse into one invalidation.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(keyPath, []byte("v2"), 0o600))
	}

	require.Eventually(t, func() bool { return inv.n.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), inv.n.Load())

	cancel()
	w.Wait()
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.p12")
	require.NoError(t, os.WriteFile(keyPath, []byte("v1"), 0o600))

	inv := &countingInvalidator{}
	ctx, cancel := context.WithCancel(context.Background())

	w := New(keyPath, inv, ports.Discard, 10*time.Millisecond)
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))
	time.Sleep(100 * time.Millisecond)

	cancel()
	w.Wait()
	assert.Zero(t, inv.n.Load())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent", "key.p12"), &countingInvalidator{}, ports.Discard, 0)
	assert.Error(t, w.Start(context.Background()))
}
