package host

import (
	"fmt"

	"github.com/vango-dev/vessel/pkg/async"
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/dom"
)

// OnReady returns a task that resolves with the host's component.Host
// once it has loaded.
func (r *Runtime) OnReady(el dom.Node) *async.Task {
	h, ok := r.Host(el)
	if !ok {
		return async.Rejected(ErrNotHost)
	}
	return h.ready
}

// ForceUpdate schedules a re-render of the host bound to el.
func (r *Runtime) ForceUpdate(el dom.Node) error {
	h, ok := r.Host(el)
	if !ok {
		return ErrNotHost
	}
	r.queueUpdate(h)
	return nil
}

// Call invokes a Method member once the host has loaded. The task
// resolves with the method's result.
func (r *Runtime) Call(el dom.Node, method string, args ...any) *async.Task {
	h, ok := r.Host(el)
	if !ok {
		return async.Rejected(ErrNotHost)
	}
	m, ok := h.desc.Member(method)
	if !ok || m.Kind != component.KindMethod {
		return async.Rejected(fmt.Errorf("%w: %s.%s", ErrNoMethod, h.desc.Tag, method))
	}
	task, res := async.New()
	h.ready.Then(func(_ any, err error) {
		if err != nil {
			_ = res.Reject(err)
			return
		}
		if h.instance == nil {
			_ = res.Reject(ErrDestroyed)
			return
		}
		var out any
		err = safely(func() error {
			var callErr error
			out, callErr = m.Invoke(h.instance, args...)
			return callErr
		})
		_ = res.Settle(out, err)
	})
	return task
}

// Controller reaches the methods of the first element with a tag, creating
// and connecting one under the body when none exists.
type Controller struct {
	rt  *Runtime
	tag string
}

// Tag returns the controlled tag.
func (c *Controller) Tag() string { return c.tag }

// Element returns the controlled element, creating it on first use.
func (c *Controller) Element() dom.Node {
	el := c.rt.doc.FindByTag(c.tag)
	if el == nil {
		el = c.rt.doc.CreateElement(c.tag)
		if body := c.rt.doc.Body(); body != nil {
			c.rt.doc.AppendChild(body, el)
		}
	}
	c.rt.Connect(el)
	return el
}

// Call invokes a method of the controlled element.
func (c *Controller) Call(method string, args ...any) *async.Task {
	return c.rt.Call(c.Element(), method, args...)
}
