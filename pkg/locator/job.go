package locator

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Job is a build running on its own goroutine. Job is itself the
// ProgressSink of its build and forwards to an optional outer sink.
type Job struct {
	cancel   context.CancelFunc
	group    *errgroup.Group
	done     chan struct{}
	outer    ProgressSink
	progress atomic.Uint64
	canceled atomic.Bool
	result   *Result
}

// Start begins building in the background. sink may be nil.
func Start(ctx context.Context, b *Builder, sink ProgressSink) *Job {
	ctx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)

	j := &Job{
		cancel: cancel,
		group:  group,
		done:   make(chan struct{}),
		outer:  sink,
	}
	group.Go(func() error {
		defer close(j.done)
		res, err := b.Build(gctx, j)
		j.result = res
		return err
	})
	return j
}

// Report records progress.
func (j *Job) Report(fraction float64) {
	j.progress.Store(math.Float64bits(fraction))
	if j.outer != nil {
		j.outer.Report(fraction)
	}
}

// Canceled reports whether the job or the outer sink asked to stop.
func (j *Job) Canceled() bool {
	return j.canceled.Load() || (j.outer != nil && j.outer.Canceled())
}

// Progress returns the last reported fraction.
func (j *Job) Progress() float64 {
	return math.Float64frombits(j.progress.Load())
}

// Cancel asks the build to stop before its next record.
func (j *Job) Cancel() {
	j.canceled.Store(true)
	j.cancel()
}

// Done is closed when the build finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the build finishes and returns its outcome.
func (j *Job) Wait() (*Result, error) {
	err := j.group.Wait()
	j.cancel()
	if err != nil {
		return nil, err
	}
	return j.result, nil
}
