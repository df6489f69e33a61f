package main

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineDiff renders a line-oriented diff of a and b. Unchanged lines are
// prefixed with two spaces, removed lines with "- " and added lines with
// "+ ".
func lineDiff(a, b string, colored bool) string {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	add := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	if colored {
		add.EnableColor()
		del.EnableColor()
	} else {
		add.DisableColor()
		del.DisableColor()
	}

	var out strings.Builder
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				out.WriteString(add.Sprint("+ " + line))
			case diffmatchpatch.DiffDelete:
				out.WriteString(del.Sprint("- " + line))
			default:
				out.WriteString("  " + line)
			}
			out.WriteString("\n")
		}
	}
	return out.String()
}

// splitLines splits s into lines without their terminators. A trailing
// newline does not produce an empty last line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// diffColor reports whether w is a color-capable terminal.
func diffColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
