package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/vango-dev/vessel/pkg/async"
)

// ErrStalled is returned by RunUntil when the stop condition is unmet but
// there is no queued task and no in-flight work that could change that.
var ErrStalled = errors.New("scheduler: loop stalled with no pending work")

// Loop is a cooperative task loop.
type Loop struct {
	mu       sync.Mutex
	tasks    []func()
	inflight int
	wake     chan struct{}
	ticks    uint64
}

// NewLoop creates an empty Loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post enqueues fn to run as its own tick. It is safe to call from any
// goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Async runs fn on a new goroutine and settles the returned Task on the
// loop once fn returns. Must be called from the loop goroutine.
func (l *Loop) Async(fn func() (any, error)) *async.Task {
	task, res := async.New()
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		v, err := fn()
		l.mu.Lock()
		l.inflight--
		l.tasks = append(l.tasks, func() { res.Settle(v, err) })
		l.mu.Unlock()
		l.signal()
	}()
	return task
}

// Pending returns the number of queued tasks and in-flight async calls.
func (l *Loop) Pending() (queued, inflight int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks), l.inflight
}

// Ticks returns the number of tasks run so far.
func (l *Loop) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

// next pops the next task, or reports how much async work is in flight.
func (l *Loop) next() (func(), int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil, l.inflight
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	l.ticks++
	return fn, l.inflight
}

// RunOnce runs a single queued task and reports whether one ran.
func (l *Loop) RunOnce() bool {
	fn, _ := l.next()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Run drains the loop until no task is queued and no async work is in
// flight.
func (l *Loop) Run(ctx context.Context) error {
	return l.run(ctx, nil)
}

// RunUntil runs tasks until stop reports true. It returns ErrStalled if the
// loop goes idle first, or the context error if ctx ends first.
func (l *Loop) RunUntil(ctx context.Context, stop func() bool) error {
	if stop == nil {
		stop = func() bool { return false }
	}
	return l.run(ctx, stop)
}

func (l *Loop) run(ctx context.Context, stop func() bool) error {
	for {
		if stop != nil && stop() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fn, inflight := l.next()
		if fn != nil {
			fn()
			continue
		}
		if inflight == 0 {
			if stop == nil {
				return nil
			}
			return ErrStalled
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
