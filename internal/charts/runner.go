package charts

import (
	"context"
	"sync"
)

// Phase is the caller-visible state of an asynchronous build.
type Phase int

const (
	Idle Phase = iota
	Loading
	Error
	Ready
)

// String returns the phase name for display.
func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Ready:
		return "ready"
	default:
		return "idle"
	}
}

// Runner manages asynchronous builds for a UI caller. Each Start
// bumps a generation counter and cancels the previous build's work;
// only the latest generation's outcome is ever committed, so a slow
// superseded build can never clobber a newer result. On error the
// committed result is reset to the zero value rather than keeping
// stale data.
type Runner[T any] struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	phase  Phase
	result T
	err    error
}

// NewRunner creates an idle Runner.
func NewRunner[T any]() *Runner[T] {
	return &Runner[T]{}
}

// Start launches build in its own goroutine, cancelling any build
// still in flight.
func (r *Runner[T]) Start(ctx context.Context, build func(context.Context) (T, error)) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.phase = Loading
	r.mu.Unlock()

	go func() {
		result, err := build(ctx)
		cancel()

		r.mu.Lock()
		defer r.mu.Unlock()
		if gen != r.gen {
			return // superseded; discard
		}
		r.cancel = nil
		if err != nil {
			var zero T
			r.phase = Error
			r.result = zero
			r.err = err
			return
		}
		r.phase = Ready
		r.result = result
		r.err = nil
	}()
}

// Status returns the current phase together with the committed
// result and error. The result is only meaningful when the phase is
// Ready, the error only when it is Error.
func (r *Runner[T]) Status() (Phase, T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase, r.result, r.err
}

// Reset cancels any in-flight build and returns the runner to Idle
// with an empty result.
func (r *Runner[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.gen++
	var zero T
	r.phase = Idle
	r.result = zero
	r.err = nil
}
