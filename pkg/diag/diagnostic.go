package diag

import (
	"fmt"
	"strings"
)

// Level is the severity of a Diagnostic.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the Level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Category names the lifecycle transition a diagnostic belongs to.
type Category string

const (
	CategoryBundleLoad     Category = "BundleLoad"
	CategoryEventReplay    Category = "EventReplay"
	CategoryPreLoadHook    Category = "PreLoadHook"
	CategoryPostLoadHook   Category = "PostLoadHook"
	CategoryInstanceInit   Category = "InstanceInit"
	CategoryRender         Category = "Render"
	CategoryPreUpdateHook  Category = "PreUpdateHook"
	CategoryPostUpdateHook Category = "PostUpdateHook"
	CategoryUnload         Category = "Unload"
	CategoryEvent          Category = "Event"
	CategoryWatch          Category = "Watch"
	CategoryHydrate        Category = "Hydrate"
	CategoryTimeout        Category = "Timeout"
)

// Diagnostic is one reported problem or notice.
type Diagnostic struct {
	Level    Level    `json:"level" yaml:"level"`
	Category Category `json:"category" yaml:"category"`
	Code     string   `json:"code,omitempty" yaml:"code,omitempty"`
	Header   string   `json:"header" yaml:"header"`
	Message  string   `json:"message" yaml:"message"`
	Tag      string   `json:"tag,omitempty" yaml:"tag,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-" yaml:"-"`
}

// New creates a Diagnostic from the template registered for category.
// The message is taken from err when given.
func New(category Category, tag string, err error) Diagnostic {
	t, ok := registry[category]
	if !ok {
		t = Template{Code: "V000", Level: LevelError, Header: "Unknown failure"}
	}
	d := Diagnostic{
		Level:    t.Level,
		Category: category,
		Code:     t.Code,
		Header:   t.Header,
		Message:  t.Message,
		Tag:      tag,
		Err:      err,
	}
	if err != nil {
		d.Message = err.Error()
	}
	return d
}

// Newf creates a Diagnostic with a formatted message.
func Newf(category Category, level Level, format string, args ...any) Diagnostic {
	d := New(category, "", nil)
	d.Level = level
	d.Message = fmt.Sprintf(format, args...)
	return d
}

// WithLevel overrides the template level.
func (d Diagnostic) WithLevel(l Level) Diagnostic {
	d.Level = l
	return d
}

// WithHeader overrides the template header.
func (d Diagnostic) WithHeader(h string) Diagnostic {
	d.Header = h
	return d
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	var b strings.Builder
	if d.Code != "" {
		b.WriteString(d.Code)
		b.WriteString(": ")
	}
	b.WriteString(d.Header)
	if d.Tag != "" {
		b.WriteString(" <")
		b.WriteString(d.Tag)
		b.WriteString(">")
	}
	if d.Message != "" {
		b.WriteString(": ")
		b.WriteString(d.Message)
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As support.
func (d Diagnostic) Unwrap() error {
	return d.Err
}
