package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Formatter renders diagnostics for terminal display.
type Formatter struct {
	header  *color.Color
	code    *color.Color
	tag     *color.Color
	message *color.Color
	levels  map[Level]*color.Color
}

// NewFormatter creates a Formatter for w. Colors are enabled only when w is
// a terminal.
func NewFormatter(w io.Writer) *Formatter {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return newFormatter(enabled)
}

// PlainFormatter creates a Formatter that never emits color.
func PlainFormatter() *Formatter {
	return newFormatter(false)
}

func newFormatter(enabled bool) *Formatter {
	f := &Formatter{
		header:  color.New(color.FgWhite, color.Bold),
		code:    color.New(color.FgWhite),
		tag:     color.New(color.FgCyan),
		message: color.New(color.Reset),
		levels: map[Level]*color.Color{
			LevelDebug: color.New(color.FgHiBlack),
			LevelInfo:  color.New(color.FgBlue, color.Bold),
			LevelWarn:  color.New(color.FgYellow, color.Bold),
			LevelError: color.New(color.FgRed, color.Bold),
		},
	}
	for _, c := range f.all() {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return f
}

func (f *Formatter) all() []*color.Color {
	out := []*color.Color{f.header, f.code, f.tag, f.message}
	for _, c := range f.levels {
		out = append(out, c)
	}
	return out
}

// Format renders one diagnostic.
func (f *Formatter) Format(d Diagnostic) string {
	var b strings.Builder

	lc, ok := f.levels[d.Level]
	if !ok {
		lc = f.levels[LevelError]
	}
	b.WriteString(lc.Sprint(strings.ToUpper(d.Level.String())))
	b.WriteString(" ")
	if d.Code != "" {
		b.WriteString(f.code.Sprint(d.Code + ": "))
	}
	b.WriteString(f.header.Sprint(d.Header))
	if d.Tag != "" {
		b.WriteString(" ")
		b.WriteString(f.tag.Sprintf("<%s>", d.Tag))
	}
	b.WriteString("\n")

	if d.Message != "" {
		for _, line := range wrapText(d.Message, 70) {
			b.WriteString("  ")
			b.WriteString(f.message.Sprint(line))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Write renders every diagnostic to w.
func (f *Formatter) Write(w io.Writer, ds []Diagnostic) error {
	for _, d := range ds {
		if _, err := fmt.Fprintln(w, f.Format(d)); err != nil {
			return err
		}
	}
	return nil
}

// Format renders diagnostics without color.
func Format(ds []Diagnostic) string {
	f := PlainFormatter()
	var b strings.Builder
	for i, d := range ds {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.Format(d))
	}
	return b.String()
}

// wrapText wraps text at the specified width.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len()+len(word)+1 > width && line.Len() > 0 {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
