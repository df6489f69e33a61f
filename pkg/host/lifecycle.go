package host

import (
	"fmt"
	"time"

	"github.com/vango-dev/vessel/pkg/async"
	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/diag"
	"github.com/vango-dev/vessel/pkg/dom"
	"github.com/vango-dev/vessel/pkg/scheduler"
	"github.com/vango-dev/vessel/pkg/vdom"
)

// Connected implements dom.ElementCallbacks.
func (r *Runtime) Connected(n dom.Node) {
	r.Connect(n)
}

// Disconnected implements dom.ElementCallbacks.
func (r *Runtime) Disconnected(n dom.Node) {
	if r.tmpDisconnected || r.doc.IsConnected(n) {
		return
	}
	if h, ok := r.Host(n); ok {
		r.destroy(h)
	}
}

// Connect binds el to its descriptor and starts its lifecycle. Calling it
// again for a connected host does nothing. It returns the host, or nil
// when el has no descriptor.
func (r *Runtime) Connect(el dom.Node) *Host {
	if h, ok := r.Host(el); ok {
		return h
	}
	desc, ok := r.registry.Lookup(r.doc.TagName(el))
	if !ok {
		return nil
	}

	r.nextID++
	h := &Host{
		id:        r.nextID,
		rt:        r,
		elm:       el,
		desc:      desc,
		state:     StateConnecting,
		connected: true,
		values:    make(map[string]any),
		active:    make(map[HostID]bool),
	}
	h.ready, h.readyRes = async.New()
	r.hosts[h.id] = h
	r.byElm[el] = h.id
	r.connected++
	r.metrics.HostConnected(desc.Tag)

	r.attachListeners(h)

	// Register with the nearest defined ancestor if it is still loading.
	for p := r.doc.Parent(el); p != nil; p = r.doc.Parent(p) {
		if r.doc.NodeType(p) != dom.ElementNode {
			continue
		}
		if _, defined := r.registry.Lookup(r.doc.TagName(p)); !defined {
			continue
		}
		if a, ok := r.Host(p); ok && !a.loaded {
			h.ancestor = a.id
			a.active[h.id] = true
		}
		break
	}
	if h.ancestor == 0 {
		r.rootActive[h.id] = true
	}

	r.log.Debug("host connected", "tag", desc.Tag, "id", h.id, "ancestor", h.ancestor)
	r.queue.Add(func() { r.beginLoad(h) }, scheduler.High)
	return h
}

func (r *Runtime) beginLoad(h *Host) {
	if h.destroyed {
		return
	}
	if h.desc.Slots != component.SlotsNone {
		h.slots = r.captureSlots(h)
	}

	var task *async.Task
	if r.bundles != nil {
		task = safeTask(func() *async.Task { return r.bundles.Load(h.desc, r.mode) })
	}
	task.Then(func(v any, err error) {
		r.metrics.BundleLoad(err)
		if h.destroyed {
			return
		}
		if err != nil {
			r.report(diag.CategoryBundleLoad, h, err)
			r.abandon(h)
			return
		}
		if b, ok := v.(*component.Bundle); ok && b != nil {
			r.attachStyle(b)
		}
		r.instantiate(h)
	})
}

func (r *Runtime) instantiate(h *Host) {
	h.state = StateInstantiating

	var inst any
	err := safely(func() error {
		if h.desc.New == nil {
			return ErrInstanceLost
		}
		inst = h.desc.New()
		if inst == nil {
			return ErrInstanceLost
		}
		return nil
	})
	if err != nil {
		r.report(diag.CategoryInstanceInit, h, err)
		r.abandon(h)
		return
	}
	h.instance = inst

	err = safely(func() error {
		r.initMembers(h)
		for i := range h.desc.Events {
			ev := &h.desc.Events[i]
			if ev.Bind != nil {
				ev.Bind(inst, &emitter{h: h, desc: ev})
			}
		}
		if hb, ok := inst.(component.HostBinder); ok {
			hb.BindHost(handle{h})
		}
		return nil
	})
	if err != nil {
		r.report(diag.CategoryInstanceInit, h, err)
	}

	r.replayEvents(h)
	r.queueUpdate(h)
}

// abandon finishes a host that cannot get an instance so that ancestors
// and descendants waiting on it still complete.
func (r *Runtime) abandon(h *Host) {
	h.failed = true
	r.markRendered(h)
	r.checkLoaded(h)
}

// queueUpdate schedules one medium-priority update. Further calls before
// the update runs are coalesced.
func (r *Runtime) queueUpdate(h *Host) {
	if h.destroyed || h.instance == nil || h.updateQueued {
		return
	}
	h.updateQueued = true
	r.queue.Add(func() {
		h.updateQueued = false
		r.update(h)
	}, scheduler.Medium)
}

func (r *Runtime) update(h *Host) {
	if h.destroyed || h.instance == nil {
		return
	}
	if !h.rendered {
		r.firstRender(h)
		return
	}

	if h.willUpdatePending {
		// The deferred render reads the latest values.
		return
	}
	h.state = StateUpdating
	var task *async.Task
	if wu, ok := h.instance.(component.WillUpdater); ok {
		task = safeTask(wu.WillUpdate)
	}
	h.willUpdatePending = !task.Done()
	task.Then(func(_ any, err error) {
		h.willUpdatePending = false
		if err != nil {
			r.report(diag.CategoryPreUpdateHook, h, err)
		}
		if h.destroyed {
			return
		}
		r.render(h, true)
		if du, ok := h.instance.(component.DidUpdater); ok {
			if err := safely(du.DidUpdate); err != nil {
				r.report(diag.CategoryPostUpdateHook, h, err)
			}
		}
		h.state = StateLoaded
	})
}

func (r *Runtime) firstRender(h *Host) {
	if a, ok := r.hosts[h.ancestor]; ok && !a.rendered && !a.destroyed {
		// Parent output must exist before the child renders into it.
		a.onRender = append(a.onRender, func() { r.update(h) })
		return
	}
	if h.state == StateRendering {
		return
	}

	h.state = StateRendering
	var task *async.Task
	if wl, ok := h.instance.(component.WillLoader); ok {
		task = safeTask(wl.WillLoad)
	}
	h.willLoadPending = !task.Done()
	task.Then(func(_ any, err error) {
		h.willLoadPending = false
		if err != nil {
			r.report(diag.CategoryPreLoadHook, h, err)
		}
		if h.destroyed {
			return
		}
		r.render(h, false)
		r.checkLoaded(h)
	})
}

func (r *Runtime) render(h *Host, isUpdate bool) {
	start := time.Now()

	var next *vdom.Node
	if rd, ok := h.instance.(component.Renderer); ok {
		if err := safely(func() error {
			next = rd.Render()
			return nil
		}); err != nil {
			r.report(diag.CategoryRender, h, err)
			if h.vnode != nil {
				// Keep the previous output.
				r.markRendered(h)
				return
			}
			next = nil
		}
	}
	switch {
	case next == nil:
		next = vdom.H("", nil)
	case next.Tag != "" || next.IsText:
		next = vdom.H("", nil, next)
	}

	old := h.vnode
	if old == nil {
		old = &vdom.Node{Elm: h.elm}
	}
	if r.ssr != nil && h.ssrID == 0 {
		h.ssrID = r.ssr.Next()
	}

	before := mutations(r.doc)
	err := safely(func() error {
		h.vnode = r.patcher.Patch(old, next, vdom.PatchOptions{
			IsUpdate: isUpdate,
			Slots:    h.slots,
			SSRID:    h.ssrID,
		})
		return nil
	})
	if err != nil {
		r.report(diag.CategoryRender, h, err)
	}
	r.metrics.Mutations(mutations(r.doc) - before)

	h.renders++
	phase := "initial"
	if isUpdate {
		phase = "update"
	}
	r.metrics.Render(h.desc.Tag, phase, time.Since(start))
	r.log.Debug("host rendered", "tag", h.desc.Tag, "id", h.id, "phase", phase)
	r.watch(h)
	r.markRendered(h)
}

// watch restarts the child-list watch of h so that the output of the
// render just done is its baseline.
func (r *Runtime) watch(h *Host) {
	if h.stopWatch != nil {
		h.stopWatch()
	}
	kids := r.doc.ChildNodes(h.elm)
	h.light = make(map[dom.Node]bool, len(kids))
	for _, c := range kids {
		h.light[c] = true
	}
	h.stopWatch = r.watcher.Watch(h.elm, func() { r.childListChanged(h) })
}

// childListChanged projects light-DOM children added since the last render
// and schedules an update.
func (r *Runtime) childListChanged(h *Host) {
	if h.destroyed || !h.rendered {
		return
	}
	if h.desc.Slots != component.SlotsNone {
		var added []dom.Node
		for _, c := range r.doc.ChildNodes(h.elm) {
			if !h.light[c] {
				added = append(added, c)
			}
		}
		if len(added) > 0 {
			r.projectAdded(h, added)
		}
	}
	r.queueUpdate(h)
}

// markRendered flags the first render and releases descendants waiting on
// it.
func (r *Runtime) markRendered(h *Host) {
	h.rendered = true
	callbacks := h.onRender
	h.onRender = nil
	for _, cb := range callbacks {
		cb()
	}
}

// checkLoaded completes a host once it has rendered, its pre-load hook has
// settled and no registered descendant is still loading. Completion
// bubbles to the ancestor.
func (r *Runtime) checkLoaded(h *Host) {
	if h.loaded || h.destroyed || !h.rendered || h.willLoadPending || len(h.active) > 0 {
		return
	}
	h.loaded = true
	h.state = StateLoaded

	if dl, ok := h.instance.(component.DidLoader); ok {
		if err := safely(dl.DidLoad); err != nil {
			r.report(diag.CategoryPostLoadHook, h, err)
		}
	}
	if r.hydratedClass != "" {
		r.doc.AddClass(h.elm, r.hydratedClass)
	}
	if h.failed {
		_ = h.readyRes.Reject(ErrInstanceLost)
	} else {
		_ = h.readyRes.Resolve(handle{h})
	}
	r.log.Debug("host loaded", "tag", h.desc.Tag, "id", h.id)

	if a, ok := r.hosts[h.ancestor]; ok {
		delete(a.active, h.id)
		h.ancestor = 0
		r.checkLoaded(a)
		return
	}
	delete(r.rootActive, h.id)
	r.checkApp()
}

// destroy tears a disconnected host down and clears every reference it
// holds.
func (r *Runtime) destroy(h *Host) {
	if h.destroyed {
		return
	}
	if ul, ok := h.instance.(component.Unloader); ok {
		if err := safely(ul.DidUnload); err != nil {
			r.report(diag.CategoryUnload, h, err)
		}
	}

	h.destroyed = true
	h.connected = false
	h.state = StateDisconnected

	r.detachListeners(h)
	if h.vnode != nil {
		r.patcher.Destroy(h.vnode)
	}
	if h.stopWatch != nil {
		h.stopWatch()
	}

	if a, ok := r.hosts[h.ancestor]; ok {
		delete(a.active, h.id)
		r.checkLoaded(a)
	}
	delete(r.rootActive, h.id)

	// Descendants waiting on this host's first render continue without it.
	waiting := h.onRender
	h.onRender = nil
	_ = h.readyRes.Reject(ErrDestroyed)

	delete(r.hosts, h.id)
	delete(r.byElm, h.elm)
	h.instance = nil
	h.values = nil
	h.vnode = nil
	h.slots = nil
	h.active = nil
	h.queued = nil
	h.ancestor = 0
	h.stopWatch = nil
	h.light = nil
	r.metrics.HostDisconnected()
	r.log.Debug("host disconnected", "tag", h.desc.Tag, "id", h.id)

	for _, cb := range waiting {
		cb()
	}
	r.checkApp()
}

// safely runs fn, converting a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

// safeTask runs a task-returning hook, converting a panic into a rejected
// task.
func safeTask(fn func() *async.Task) (t *async.Task) {
	defer func() {
		if rec := recover(); rec != nil {
			t = async.Rejected(fmt.Errorf("panic: %v", rec))
		}
	}()
	return fn()
}

func mutations(p dom.Platform) int {
	if s, ok := p.(interface{ Stats() dom.Stats }); ok {
		return s.Stats().Mutations()
	}
	return 0
}

// Upgrade connects every defined element under root in document order and
// returns how many hosts it created.
func (r *Runtime) Upgrade(root dom.Node) int {
	n := 0
	var walk func(dom.Node)
	walk = func(el dom.Node) {
		if r.doc.NodeType(el) == dom.ElementNode {
			if _, bound := r.Host(el); !bound && r.doc.IsConnected(el) && r.Connect(el) != nil {
				n++
			}
		}
		for _, c := range r.doc.ChildNodes(el) {
			walk(c)
		}
	}
	walk(root)
	return n
}
