package component

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/vango-dev/vessel/pkg/dom"
)

// MemberOption adjusts a member built by the typed helpers.
type MemberOption func(*Member)

// WithAttr sets the observed attribute name. "-" disables observation.
func WithAttr(name string) MemberOption {
	return func(m *Member) { m.Attr = name }
}

// OnChange registers a hook that runs after a changing write.
func OnChange(fn func(inst any, next, prev any)) MemberOption {
	return func(m *Member) { m.AfterChange = fn }
}

// BeforeChange registers a hook that runs before a changing write is
// stored.
func BeforeChange(fn func(inst any, next, prev any)) MemberOption {
	return func(m *Member) { m.BeforeChange = fn }
}

// Prop declares a public property backed by a field of C.
func Prop[C, T any](name string, field func(*C) *T, opts ...MemberOption) Member {
	return fieldMember(name, KindProp, field, opts)
}

// MutableProp declares a public property the instance may also write.
func MutableProp[C, T any](name string, field func(*C) *T, opts ...MemberOption) Member {
	return fieldMember(name, KindMutableProp, field, opts)
}

// State declares internal state backed by a field of C.
func State[C, T any](name string, field func(*C) *T, opts ...MemberOption) Member {
	return fieldMember(name, KindState, field, opts)
}

func fieldMember[C, T any](name string, kind MemberKind, field func(*C) *T, opts []MemberOption) Member {
	m := Member{
		Name: name,
		Kind: kind,
		Type: typeOf[T](),
		Get: func(inst any) any {
			return *field(inst.(*C))
		},
		Set: func(inst any, v any) {
			if tv, ok := Convert[T](v); ok {
				*field(inst.(*C)) = tv
			}
		},
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Method declares a method callable through the host.
func Method[C any](name string, fn func(c *C, args ...any) (any, error)) Member {
	return Member{
		Name: name,
		Kind: KindMethod,
		Invoke: func(inst any, args ...any) (any, error) {
			return fn(inst.(*C), args...)
		},
	}
}

// ElementRef declares a field that receives the host element.
func ElementRef[C any](name string, field func(*C) *dom.Node) Member {
	return Member{
		Name: name,
		Kind: KindElementRef,
		Set: func(inst any, v any) {
			*field(inst.(*C)) = v
		},
	}
}

// Context declares a field that receives the runtime context value key.
func Context[C, T any](name, key string, field func(*C) *T) Member {
	return Member{
		Name:    name,
		Kind:    KindContext,
		Context: key,
		Set: func(inst any, v any) {
			if tv, ok := Convert[T](v); ok {
				*field(inst.(*C)) = tv
			}
		},
	}
}

// Connect declares a field that receives a controller for the first
// element with tag, created on demand. T is the runtime's controller type.
func Connect[C, T any](name, tag string, field func(*C) *T) Member {
	return Member{
		Name:    name,
		Kind:    KindConnect,
		Context: tag,
		Set: func(inst any, v any) {
			if tv, ok := v.(T); ok {
				*field(inst.(*C)) = tv
			}
		},
	}
}

// Event declares an emitted event and the field that receives its emitter.
func Event[C any](name string, field func(*C) *Emitter, flags ...func(*EventDescriptor)) EventDescriptor {
	e := EventDescriptor{
		Name:       name,
		Bubbles:    true,
		Cancelable: true,
		Composed:   true,
		Bind: func(inst any, em Emitter) {
			*field(inst.(*C)) = em
		},
	}
	for _, f := range flags {
		f(&e)
	}
	return e
}

// Listen declares a host listener handled by a method of C.
func Listen[C any](event string, fn func(c *C, ev *dom.Event) error) ListenerDescriptor {
	return ListenerDescriptor{
		Event: event,
		Handler: func(inst any, ev *dom.Event) error {
			return fn(inst.(*C), ev)
		},
	}
}

func typeOf[T any]() ValueType {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	switch t.Kind() {
	case reflect.String:
		return TypeString
	case reflect.Bool:
		return TypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TypeNumber
	default:
		return TypeAny
	}
}

// Convert coerces v to T. Numbers convert between numeric kinds; nil
// yields the zero value.
func Convert[T any](v any) (T, bool) {
	var zero T
	if v == nil {
		return zero, true
	}
	if tv, ok := v.(T); ok {
		return tv, true
	}
	target := reflect.TypeOf(&zero).Elem()
	rv := reflect.ValueOf(v)
	if isNumeric(rv.Kind()) && isNumeric(target.Kind()) {
		return rv.Convert(target).Interface().(T), true
	}
	if rv.Kind() == target.Kind() && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target).Interface().(T), true
	}
	return zero, false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// ParseAttr converts an attribute value to the member's declared type.
// A nil value (attribute removed) yields nil. Booleans are true unless the
// value is "false"; unparsable numbers yield NaN.
func ParseAttr(t ValueType, value *string) any {
	if value == nil {
		return nil
	}
	switch t {
	case TypeBool:
		return *value != "false"
	case TypeNumber:
		f, err := strconv.ParseFloat(*value, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return *value
	}
}

// FormatValue renders a member value as an attribute value.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
