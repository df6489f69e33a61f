package host

import (
	"math"
	"reflect"

	"github.com/vango-dev/vessel/pkg/component"
	"github.com/vango-dev/vessel/pkg/diag"
	"github.com/vango-dev/vessel/pkg/dom"
)

// AttributeChanged implements dom.ElementCallbacks. Observed attributes
// are parsed to the member's declared type and written through the
// change path.
func (r *Runtime) AttributeChanged(n dom.Node, name string, old, value *string) {
	if old != nil && value != nil && *old == *value {
		return
	}
	if old == nil && value == nil {
		return
	}
	h, ok := r.Host(n)
	if !ok {
		return
	}
	m, ok := h.desc.ObservedAttribute(name)
	if !ok {
		return
	}
	r.setValue(h, m, component.ParseAttr(m.Type, value))
}

// SetProp implements vdom.PropSetter. Properties naming a public member
// of a host go through the change path; the rest are plain element
// properties.
func (r *Runtime) SetProp(el dom.Node, name string, v any) {
	if h, ok := r.Host(el); ok {
		if m, ok := h.desc.Member(name); ok && m.Kind.Public() && m.Kind.Reactive() {
			r.setValue(h, m, v)
			return
		}
	}
	r.doc.SetProperty(el, name, v)
}

// SetProperty writes a host property by name. It is the programmatic
// equivalent of assigning the element property.
func (r *Runtime) SetProperty(el dom.Node, name string, v any) {
	r.SetProp(el, name, v)
}

// Property reads a host property. Public members are read from the
// instance once it exists.
func (r *Runtime) Property(el dom.Node, name string) (any, bool) {
	if h, ok := r.Host(el); ok {
		if m, ok := h.desc.Member(name); ok && m.Kind.Public() && m.Kind.Reactive() {
			return r.get(h, name), true
		}
	}
	return r.doc.Property(el, name)
}

// get reads a member value from the instance, or from the values recorded
// before the instance existed.
func (r *Runtime) get(h *Host, name string) any {
	m, ok := h.desc.Member(name)
	if !ok || !m.Kind.Reactive() {
		return nil
	}
	if h.instance != nil {
		return m.Get(h.instance)
	}
	return h.values[name]
}

// setValue writes a reactive member. Unchanged values are ignored. A
// changed value on an instantiated host runs the change hooks and
// schedules one update.
func (r *Runtime) setValue(h *Host, m *component.Member, v any) {
	if h.destroyed {
		return
	}
	if h.instance == nil {
		// Applied when the instance is created.
		h.values[m.Name] = v
		return
	}
	prev := m.Get(h.instance)
	if sameValue(prev, v) {
		return
	}
	if m.BeforeChange != nil {
		if err := safely(func() error { m.BeforeChange(h.instance, v, prev); return nil }); err != nil {
			r.report(diag.CategoryWatch, h, err)
		}
	}
	h.values[m.Name] = v
	m.Set(h.instance, v)
	if m.AfterChange != nil {
		if err := safely(func() error { m.AfterChange(h.instance, v, prev); return nil }); err != nil {
			r.report(diag.CategoryWatch, h, err)
		}
	}
	r.queueUpdate(h)
}

// initMembers seeds a fresh instance. A Prop takes the observed attribute,
// else a property set on the host, else keeps the instance default.
func (r *Runtime) initMembers(h *Host) {
	inst := h.instance
	pending := h.values
	h.values = make(map[string]any, len(pending))

	for i := range h.desc.Members {
		m := &h.desc.Members[i]
		switch m.Kind {
		case component.KindProp, component.KindMutableProp:
			raw, hasAttr := "", false
			if m.Attr != "-" {
				raw, hasAttr = r.doc.Attribute(h.elm, m.Attr)
			}
			if hasAttr {
				m.Set(inst, component.ParseAttr(m.Type, &raw))
			} else if v, ok := pending[m.Name]; ok {
				m.Set(inst, v)
			} else if v, ok := r.doc.Property(h.elm, m.Name); ok {
				m.Set(inst, v)
			}
			h.values[m.Name] = m.Get(inst)
		case component.KindState:
			if v, ok := pending[m.Name]; ok {
				m.Set(inst, v)
			}
			h.values[m.Name] = m.Get(inst)
		case component.KindElementRef:
			m.Set(inst, h.elm)
		case component.KindContext:
			m.Set(inst, r.contexts[m.Context])
		case component.KindConnect:
			m.Set(inst, &Controller{rt: r, tag: m.Context})
		}
	}
}

// sameValue compares member values. Numbers compare by value across
// kinds and NaN equals NaN.
func sameValue(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			if math.IsNaN(fa) && math.IsNaN(fb) {
				return true
			}
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
