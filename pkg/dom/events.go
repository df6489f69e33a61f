package dom

// EventPhase is the dispatch phase an event is currently in.
type EventPhase uint8

const (
	PhaseNone EventPhase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

// Event is a dispatched platform event.
type Event struct {
	Type       string
	Detail     any
	Bubbles    bool
	Cancelable bool
	Composed   bool

	Target        Node
	CurrentTarget Node
	Phase         EventPhase

	defaultPrevented bool
	stopped          bool
	passive          bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string, detail any) *Event {
	return &Event{Type: typ, Detail: detail}
}

// PreventDefault cancels the event if it is cancelable and the current
// listener is not passive.
func (e *Event) PreventDefault() {
	if e.Cancelable && !e.passive {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault took effect.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// StopPropagation stops delivery to further nodes on the path.
func (e *Event) StopPropagation() {
	e.stopped = true
}

type registration struct {
	event    string
	listener Listener
	opts     ListenerOptions
}

func (d *Document) AddEventListener(n Node, event string, l Listener, opts ListenerOptions) {
	h := d.node(n)
	if h == nil || l == nil {
		return
	}
	for _, r := range d.listeners[h] {
		if r.event == event && r.listener == l && r.opts.Capture == opts.Capture {
			return
		}
	}
	d.listeners[h] = append(d.listeners[h], registration{event: event, listener: l, opts: opts})
	d.stats.Listeners++
}

func (d *Document) RemoveEventListener(n Node, event string, l Listener, opts ListenerOptions) {
	h := d.node(n)
	if h == nil {
		return
	}
	regs := d.listeners[h]
	for i, r := range regs {
		if r.event == event && r.listener == l && r.opts.Capture == opts.Capture {
			d.listeners[h] = append(regs[:i:i], regs[i+1:]...)
			d.stats.Listeners++
			if len(d.listeners[h]) == 0 {
				delete(d.listeners, h)
			}
			return
		}
	}
}

// ListenerCount returns the number of listeners registered on n.
func (d *Document) ListenerCount(n Node) int {
	return len(d.listeners[d.node(n)])
}

func (d *Document) Dispatch(n Node, ev *Event) bool {
	target := d.node(n)
	if target == nil || ev == nil {
		return true
	}
	ev.Target = n

	// Path from the target's parent up to the document.
	var path []Node
	for p := target.Parent; p != nil; p = p.Parent {
		path = append(path, p)
	}

	ev.Phase = PhaseCapturing
	for i := len(path) - 1; i >= 0 && !ev.stopped; i-- {
		d.invoke(path[i], ev, func(r registration) bool { return r.opts.Capture })
	}

	if !ev.stopped {
		ev.Phase = PhaseAtTarget
		d.invoke(n, ev, func(registration) bool { return true })
	}

	if ev.Bubbles {
		ev.Phase = PhaseBubbling
		for i := 0; i < len(path) && !ev.stopped; i++ {
			d.invoke(path[i], ev, func(r registration) bool { return !r.opts.Capture })
		}
	}

	ev.Phase = PhaseNone
	ev.CurrentTarget = nil
	return !ev.defaultPrevented
}

func (d *Document) invoke(n Node, ev *Event, match func(registration) bool) {
	regs := d.listeners[d.node(n)]
	if len(regs) == 0 {
		return
	}
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)

	ev.CurrentTarget = n
	for _, r := range snapshot {
		if r.event != ev.Type || !match(r) {
			continue
		}
		ev.passive = r.opts.Passive
		r.listener.HandleEvent(ev)
		ev.passive = false
	}
}
