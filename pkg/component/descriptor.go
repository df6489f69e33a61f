package component

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/vessel/pkg/dom"
)

// MemberKind is the kind of a reactive member.
type MemberKind uint8

const (
	KindProp        MemberKind = iota // public, settable from the host
	KindMutableProp                   // public, settable from the host and the instance
	KindState                         // internal, settable only from the instance
	KindMethod                        // callable through the host
	KindElementRef                    // receives the host element
	KindContext                       // receives a named runtime context value
	KindConnect                       // receives a controller for a sibling element
)

// String returns the string representation of the MemberKind.
func (k MemberKind) String() string {
	switch k {
	case KindProp:
		return "Prop"
	case KindMutableProp:
		return "MutableProp"
	case KindState:
		return "State"
	case KindMethod:
		return "Method"
	case KindElementRef:
		return "ElementRef"
	case KindContext:
		return "Context"
	case KindConnect:
		return "Connect"
	default:
		return "Unknown"
	}
}

// Reactive reports whether writes to the member schedule an update.
func (k MemberKind) Reactive() bool {
	return k == KindProp || k == KindMutableProp || k == KindState
}

// Public reports whether the member is reachable through the host.
func (k MemberKind) Public() bool {
	return k == KindProp || k == KindMutableProp || k == KindMethod
}

// ValueType is the declared type of an observed attribute.
type ValueType uint8

const (
	TypeAny ValueType = iota
	TypeString
	TypeNumber
	TypeBool
)

// SlotKind classifies how a component uses slots.
type SlotKind uint8

const (
	SlotsNone    SlotKind = iota
	SlotsDefault          // only a default slot
	SlotsNamed            // at least one named slot
)

// Member is one entry of a descriptor's member table.
type Member struct {
	Name string
	Kind MemberKind

	// Attr is the observed attribute for Prop and MutableProp members.
	// Empty derives the dash-case of Name; "-" disables observation.
	Attr string
	Type ValueType

	// Get and Set reach the instance field.
	Get func(inst any) any
	Set func(inst any, v any)

	// Invoke runs a Method member.
	Invoke func(inst any, args ...any) (any, error)

	// Context is the context key of a Context member or the tag of the
	// controller element of a Connect member.
	Context string

	// BeforeChange and AfterChange run around a changing write.
	BeforeChange func(inst any, next, prev any)
	AfterChange  func(inst any, next, prev any)
}

// Emitter dispatches one declared event from the host element.
type Emitter interface {
	Emit(detail any) *dom.Event
}

// EventDescriptor declares an event the component emits.
type EventDescriptor struct {
	Name       string
	Bubbles    bool
	Cancelable bool
	Composed   bool

	// Bind hands the emitter to the instance.
	Bind func(inst any, e Emitter)
}

// ListenerDescriptor declares a host listener routed to the instance.
type ListenerDescriptor struct {
	Event    string
	Handler  func(inst any, ev *dom.Event) error
	Capture  bool
	Passive  bool
	Disabled bool
}

// Descriptor is the registration record of one component type.
type Descriptor struct {
	Tag       string
	Members   []Member
	Events    []EventDescriptor
	Listeners []ListenerDescriptor

	// Styles maps a rendering mode to a style id. The "" entry is the
	// fallback for every mode.
	Styles map[string]string
	Slots  SlotKind
	Shadow bool

	// Module is the bundle path loaded before the first instance is
	// created. Empty means the component is always available.
	Module string

	// New constructs an instance.
	New func() any

	members map[string]int
	attrs   map[string]int
}

// Member returns the member called name.
func (d *Descriptor) Member(name string) (*Member, bool) {
	i, ok := d.members[name]
	if !ok {
		return nil, false
	}
	return &d.Members[i], true
}

// ObservedAttribute returns the member observing attribute name.
// Matching is case-insensitive.
func (d *Descriptor) ObservedAttribute(name string) (*Member, bool) {
	i, ok := d.attrs[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return &d.Members[i], true
}

// ObservedAttributes returns the observed attribute names in order.
func (d *Descriptor) ObservedAttributes() []string {
	names := make([]string, 0, len(d.attrs))
	for name := range d.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StyleID returns the style id for a rendering mode.
func (d *Descriptor) StyleID(mode string) string {
	if id, ok := d.Styles[mode]; ok {
		return id
	}
	return d.Styles[""]
}

// Event returns the declared event called name.
func (d *Descriptor) Event(name string) (*EventDescriptor, bool) {
	for i := range d.Events {
		if d.Events[i].Name == name {
			return &d.Events[i], true
		}
	}
	return nil, false
}

// Registration errors.
var (
	ErrInvalidTag      = errors.New("component: invalid tag name")
	ErrDuplicateTag    = errors.New("component: tag already defined")
	ErrDuplicateMember = errors.New("component: duplicate member")
	ErrInvalidMember   = errors.New("component: invalid member")
)

// Registry holds the defined descriptors of a runtime.
type Registry struct {
	mu    sync.RWMutex
	byTag map[string]*Descriptor
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byTag: make(map[string]*Descriptor)}
}

// Define validates d, builds its lookup tables and adds it.
func (r *Registry) Define(d *Descriptor) error {
	tag := strings.ToLower(d.Tag)
	if !validTag(tag) {
		return fmt.Errorf("%w: %q", ErrInvalidTag, d.Tag)
	}
	d.Tag = tag

	d.members = make(map[string]int, len(d.Members))
	d.attrs = make(map[string]int)
	for i := range d.Members {
		m := &d.Members[i]
		if m.Name == "" {
			return fmt.Errorf("%w: %s member %d has no name", ErrInvalidMember, tag, i)
		}
		if _, dup := d.members[m.Name]; dup {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateMember, tag, m.Name)
		}
		if err := checkMember(m); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrInvalidMember, tag, m.Name, err)
		}
		d.members[m.Name] = i

		if m.Kind != KindProp && m.Kind != KindMutableProp {
			continue
		}
		if m.Attr == "" {
			m.Attr = DashCase(m.Name)
		}
		if m.Attr == "-" {
			continue
		}
		attr := strings.ToLower(m.Attr)
		if _, dup := d.attrs[attr]; dup {
			return fmt.Errorf("%w: %s attribute %q", ErrDuplicateMember, tag, attr)
		}
		d.attrs[attr] = i
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byTag[tag]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateTag, tag)
	}
	r.byTag[tag] = d
	r.order = append(r.order, tag)
	return nil
}

// MustDefine is like Define but panics on error.
func (r *Registry) MustDefine(d *Descriptor) {
	if err := r.Define(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for tag.
func (r *Registry) Lookup(tag string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byTag[strings.ToLower(tag)]
	return d, ok
}

// Tags returns the defined tags in definition order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of defined descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func checkMember(m *Member) error {
	switch m.Kind {
	case KindProp, KindMutableProp, KindState:
		if m.Get == nil || m.Set == nil {
			return errors.New("reactive member needs Get and Set")
		}
	case KindMethod:
		if m.Invoke == nil {
			return errors.New("method member needs Invoke")
		}
	case KindElementRef:
		if m.Set == nil {
			return errors.New("element ref needs Set")
		}
	case KindContext, KindConnect:
		if m.Set == nil || m.Context == "" {
			return errors.New("context member needs Set and Context")
		}
	default:
		return fmt.Errorf("unknown kind %d", m.Kind)
	}
	return nil
}

// validTag reports whether tag is a valid custom element name.
func validTag(tag string) bool {
	if tag == "" || !strings.Contains(tag, "-") {
		return false
	}
	if tag[0] < 'a' || tag[0] > 'z' {
		return false
	}
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
		default:
			return false
		}
	}
	return true
}

// DashCase converts a member name to its attribute form: "firstName"
// becomes "first-name".
func DashCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Bundle is the loaded module of a component type plus the style it
// contributes for the requested mode.
type Bundle struct {
	Module  string
	Source  []byte
	StyleID string
	Style   string
}
