package host

import (
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/diag"
	"github.com/vango-dev/vessel/pkg/dom"
)

// queuedEvent is an event received before the instance existed.
type queuedEvent struct {
	l  *hostListener
	ev *dom.Event
}

// hostListener routes one declared listener to the instance.
type hostListener struct {
	h        *Host
	desc     component.ListenerDescriptor
	attached bool
}

func (l *hostListener) options() dom.ListenerOptions {
	return dom.ListenerOptions{Capture: l.desc.Capture, Passive: l.desc.Passive}
}

// HandleEvent implements dom.Listener.
func (l *hostListener) HandleEvent(ev *dom.Event) {
	h := l.h
	if h.destroyed {
		return
	}
	if h.instance == nil {
		h.queued = append(h.queued, queuedEvent{l: l, ev: ev})
		return
	}
	h.rt.invokeListener(l, ev, diag.CategoryEvent)
}

func (r *Runtime) invokeListener(l *hostListener, ev *dom.Event, cat diag.Category) {
	h := l.h
	if err := safely(func() error { return l.desc.Handler(h.instance, ev) }); err != nil {
		r.report(cat, h, err)
	}
}

func (r *Runtime) attachListeners(h *Host) {
	for _, d := range h.desc.Listeners {
		l := &hostListener{h: h, desc: d}
		h.listeners = append(h.listeners, l)
		if !d.Disabled {
			r.doc.AddEventListener(h.elm, d.Event, l, l.options())
			l.attached = true
		}
	}
}

func (r *Runtime) detachListeners(h *Host) {
	for _, l := range h.listeners {
		if l.attached {
			r.doc.RemoveEventListener(h.elm, l.desc.Event, l, l.options())
			l.attached = false
		}
	}
	h.listeners = nil
}

// replayEvents delivers events queued before instantiation, in arrival
// order.
func (r *Runtime) replayEvents(h *Host) {
	queued := h.queued
	h.queued = nil
	for _, q := range queued {
		if h.destroyed {
			return
		}
		r.invokeListener(q.l, q.ev, diag.CategoryEventReplay)
	}
}

// EnableListener attaches or detaches the declared listeners of el for
// event.
func (r *Runtime) EnableListener(el dom.Node, event string, enabled bool) error {
	h, ok := r.Host(el)
	if !ok {
		return ErrNotHost
	}
	for _, l := range h.listeners {
		if l.desc.Event != event || l.attached == enabled {
			continue
		}
		if enabled {
			r.doc.AddEventListener(h.elm, event, l, l.options())
		} else {
			r.doc.RemoveEventListener(h.elm, event, l, l.options())
		}
		l.attached = enabled
	}
	return nil
}

// Dispatch delivers ev to n and flushes the updates it scheduled. It
// returns false if a listener cancelled the event.
func (r *Runtime) Dispatch(n dom.Node, ev *dom.Event) bool {
	ok := r.doc.Dispatch(n, ev)
	r.queue.Flush()
	return ok
}

// emitter dispatches a declared event from its host.
type emitter struct {
	h    *Host
	desc *component.EventDescriptor
}

// Emit implements component.Emitter.
func (e *emitter) Emit(detail any) *dom.Event {
	return e.h.rt.emit(e.h, e.desc.Name, detail)
}

// emit dispatches event from the host element. Declared events use their
// flags; undeclared ones bubble, cancel and compose.
func (r *Runtime) emit(h *Host, event string, detail any) *dom.Event {
	ev := dom.NewEvent(event, detail)
	ev.Bubbles, ev.Cancelable, ev.Composed = true, true, true
	if d, ok := h.desc.Event(event); ok {
		ev.Bubbles, ev.Cancelable, ev.Composed = d.Bubbles, d.Cancelable, d.Composed
	}
	if h.destroyed {
		return ev
	}
	r.doc.Dispatch(h.elm, ev)
	return ev
}
