package execute

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLauncher_RunsEveryIndexExactlyOnce(t *testing.T) {
	const n = 10007
	var seen [n]int32
	err := HostLauncher{}.Launch(context.Background(), n, func(i int) {
		atomic.AddInt32(&seen[i], 1)
	})
	require.NoError(t, err)
	for i, count := range seen {
		require.Equalf(t, int32(1), count, "index %d ran %d times", i, count)
	}
}

func TestHostLauncher_ZeroWorkloadIsNoop(t *testing.T) {
	called := false
	err := HostLauncher{}.Launch(context.Background(), 0, func(i int) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
}

func TestHostLauncher_CombinesPanics(t *testing.T) {
	err := HostLauncher{}.Launch(context.Background(), 4, func(i int) {
		panic("boom")
	})
	require.Error(t, err)
}

func TestHostLauncher_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran int32
	_ = HostLauncher{}.Launch(ctx, 1000, func(i int) {
		atomic.AddInt32(&ran, 1)
	})
	assert.Less(t, int(atomic.LoadInt32(&ran)), 1000)
}

func TestDeviceLauncher_Unsupported(t *testing.T) {
	err := DeviceLauncher{}.Launch(context.Background(), 1, func(i int) {})
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}
