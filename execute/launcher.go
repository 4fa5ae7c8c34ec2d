// Package execute provides the data-parallel execution launcher every
// TSDF kernel dispatches through: one task per workload index, no
// cross-task ordering except the documented atomics (spec.md §5).
package execute

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrUnsupportedBackend is returned by DeviceLauncher, which has no real
// GPU backend in this core (Non-goal: GPU driver abstraction).
var ErrUnsupportedBackend = errors.New("execution launcher backend not supported")

// Launcher launches N independent data-parallel tasks, one per index in
// [0, n). Implementations must not let a single task's panic corrupt the
// others; panics are converted to errors.
type Launcher interface {
	Launch(ctx context.Context, n int, fn func(i int)) error
}

// ParallelFactor controls the max level of host-backend parallelism,
// adapted from the teacher's utils.ParallelFactor so tests can dial it
// down to keep aggregate test time low.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// HostLauncher dispatches work across a fixed number of goroutines, each
// handling a contiguous slice of the index range — the CPU multi-threaded
// backend named in spec.md §5.
type HostLauncher struct{}

// Launch implements Launcher.
func (HostLauncher) Launch(ctx context.Context, n int, fn func(i int)) error {
	if n <= 0 {
		return nil
	}
	groups := ParallelFactor
	if groups > n {
		groups = n
	}
	groupSize := int(math.Floor(float64(n) / float64(groups)))
	extra := n % groups

	var wg sync.WaitGroup
	wg.Add(groups)

	var mu sync.Mutex
	var combined error
	storeErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		combined = multierr.Append(combined, err)
	}

	for g := 0; g < groups; g++ {
		from := groupSize * g
		to := groupSize * (g + 1)
		if g == groups-1 {
			to += extra
		}
		go func(from, to int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					storeErr(fmt.Errorf("panic running workload: %v", r))
				}
			}()
			for i := from; i < to; i++ {
				select {
				case <-ctx.Done():
					return
				default:
				}
				fn(i)
			}
		}(from, to)
	}
	wg.Wait()
	return combined
}

// DeviceLauncher represents the GPU execution launcher external
// dependency named in spec.md §6. Exercising a real GPU backend is out
// of scope for this core; this stub documents the contract without
// implementing device dispatch.
type DeviceLauncher struct{}

// Launch implements Launcher but always reports the backend as
// unsupported, matching spec.md §7's "unsupported hash-map backend for
// the device" fatal case.
func (DeviceLauncher) Launch(ctx context.Context, n int, fn func(i int)) error {
	return ErrUnsupportedBackend
}
