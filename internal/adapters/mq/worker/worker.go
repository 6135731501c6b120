// Package worker runs reconciliation cycles one at a time in response to
// queued triggers.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/aimsync/internal/adapters/mq/trigger"
	"github.com/okian/aimsync/pkg/logger"
)

// Cycler runs a single reconciliation cycle.
type Cycler interface {
	RunCycle(ctx context.Context, reason string) error
}

// Queue defines how the runner receives triggers.
type Queue interface {
	Dequeue(ctx context.Context) <-chan trigger.Trigger
}

// Worker consumes triggers until stopped.
type Worker interface {
	// Run starts the loop until ctx is canceled, Shutdown is called or the
	// queue is closed.
	Run(ctx context.Context)

	// Shutdown stops the loop and waits for a running cycle to finish.
	Shutdown(ctx context.Context) error
}

// Runner is the single consumer of the trigger queue. After a trigger it
// waits for a quiet period, folding in any further triggers, and then runs
// exactly one cycle. Cycles never overlap.
type Runner struct {
	queue    Queue
	cycler   Cycler
	name     string
	debounce time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewRunner creates a runner feeding cycler from queue.
func NewRunner(queue Queue, cycler Cycler, opts ...Option) *Runner {
	r := &Runner{
		queue:    queue,
		cycler:   cycler,
		name:     "runner",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.name != "runner" {
		r.logger = r.logger.Named(r.name)
	}
	return r
}

// Run implements Worker.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)

	triggers := r.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			folded, ok := r.settle(ctx, triggers)
			if !ok {
				return
			}
			if folded > 0 {
				r.logger.Debug(ctx, "folded triggers into one cycle", logger.Int("folded", folded))
			}
			if err := r.cycler.RunCycle(ctx, t.Reason); err != nil {
				r.logger.Error(ctx, "cycle failed", logger.String("reason", t.Reason), logger.Error(err))
			}
		}
	}
}

// settle waits until no trigger arrived for the debounce period. It returns
// the number of triggers absorbed and false when the runner must stop.
func (r *Runner) settle(ctx context.Context, triggers <-chan trigger.Trigger) (int, bool) {
	if r.debounce <= 0 {
		return 0, true
	}
	timer := time.NewTimer(r.debounce)
	defer timer.Stop()

	folded := 0
	for {
		select {
		case <-ctx.Done():
			return folded, false
		case <-r.shutdown:
			return folded, false
		case _, ok := <-triggers:
			if !ok {
				// Closed queue: run the pending cycle before stopping.
				return folded, true
			}
			folded++
			timer.Reset(r.debounce)
		case <-timer.C:
			return folded, true
		}
	}
}

// Shutdown implements Worker.
func (r *Runner) Shutdown(ctx context.Context) error {
	select {
	case <-r.shutdown:
	default:
		close(r.shutdown)
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
