// Package async provides Task, the uniform representation of a lifecycle
// hook result that may or may not complete immediately.
//
// A Task is owned by the runtime loop goroutine: it is created, resolved and
// observed there. Work done on other goroutines re-enters the loop through
// scheduler.Loop.Async, which resolves the Task on the loop.
//
// A nil *Task is a valid, already completed Task with no value, so hooks
// that have nothing to wait for can simply return nil.
package async

import "errors"

// ErrResolved is returned when a Task is settled twice.
var ErrResolved = errors.New("async: task already settled")

// Task is a pollable, awaitable result.
type Task struct {
	settled bool
	value   any
	err     error
	waiters []func(any, error)
}

// Resolved returns a completed Task carrying v.
func Resolved(v any) *Task {
	return &Task{settled: true, value: v}
}

// Rejected returns a completed Task carrying err.
func Rejected(err error) *Task {
	return &Task{settled: true, err: err}
}

// New returns a pending Task and the Resolver that settles it.
func New() (*Task, *Resolver) {
	t := &Task{}
	return t, &Resolver{task: t}
}

// Done reports whether the Task has settled.
func (t *Task) Done() bool {
	return t == nil || t.settled
}

// Value returns the resolved value. It is nil until the Task settles.
func (t *Task) Value() any {
	if t == nil {
		return nil
	}
	return t.value
}

// Err returns the rejection error, if any.
func (t *Task) Err() error {
	if t == nil {
		return nil
	}
	return t.err
}

// Then registers fn to run once the Task settles. If it already has, fn
// runs immediately, before Then returns.
func (t *Task) Then(fn func(v any, err error)) {
	if t == nil {
		fn(nil, nil)
		return
	}
	if t.settled {
		fn(t.value, t.err)
		return
	}
	t.waiters = append(t.waiters, fn)
}

func (t *Task) settle(v any, err error) error {
	if t.settled {
		return ErrResolved
	}
	t.settled = true
	t.value = v
	t.err = err
	waiters := t.waiters
	t.waiters = nil
	for _, fn := range waiters {
		fn(v, err)
	}
	return nil
}

// Resolver settles the Task it was created with.
type Resolver struct {
	task *Task
}

// Resolve completes the Task with v.
func (r *Resolver) Resolve(v any) error {
	return r.task.settle(v, nil)
}

// Reject completes the Task with err.
func (r *Resolver) Reject(err error) error {
	if err == nil {
		err = errors.New("async: rejected with nil error")
	}
	return r.task.settle(nil, err)
}

// Settle completes the Task with whichever of v or err applies.
func (r *Resolver) Settle(v any, err error) error {
	if err != nil {
		return r.Reject(err)
	}
	return r.Resolve(v)
}

// All settles once every task has settled. It rejects with the first error
// encountered in argument order; values are collected as []any.
func All(tasks ...*Task) *Task {
	if len(tasks) == 0 {
		return Resolved([]any{})
	}
	out, res := New()
	values := make([]any, len(tasks))
	errs := make([]error, len(tasks))
	remaining := len(tasks)
	for i, t := range tasks {
		t.Then(func(v any, err error) {
			values[i] = v
			errs[i] = err
			remaining--
			if remaining > 0 {
				return
			}
			for _, e := range errs {
				if e != nil {
					res.Reject(e)
					return
				}
			}
			res.Resolve(values)
		})
	}
	return out
}
