package compiler

import (
	"fmt"
	"go/token"
	"sort"
	"strings"
)

// Diagnostic is a problem found in annotated source. Generation continues
// past diagnostics, using the documented fallback for the offending marker,
// so that one run reports every problem of a declaration.
type Diagnostic struct {
	Pos     token.Pos
	Message string
	Related []RelatedInformation
}

// RelatedInformation points at another location involved in a diagnostic.
type RelatedInformation struct {
	Pos     token.Pos
	Message string
}

// Diagnostics is a list of diagnostics.
type Diagnostics []Diagnostic

// Sort orders the diagnostics by position, then message.
func (l Diagnostics) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Pos != l[j].Pos {
			return l[i].Pos < l[j].Pos
		}
		return l[i].Message < l[j].Message
	})
}

// dedup drops diagnostics reported twice at the same position, which
// happens when both directions check a marker that applies to both.
func (l Diagnostics) dedup() Diagnostics {
	seen := make(map[string]bool, len(l))
	out := l[:0]
	for _, d := range l {
		key := fmt.Sprintf("%d:%s", d.Pos, d.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// Format renders the diagnostics as file:line:col: message lines, with
// related locations indented below their diagnostic.
func (l Diagnostics) Format(fset *token.FileSet) string {
	var b strings.Builder
	for i, d := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", fset.Position(d.Pos), d.Message)
		for _, r := range d.Related {
			fmt.Fprintf(&b, "\n\t%s: %s", fset.Position(r.Pos), r.Message)
		}
	}
	return b.String()
}

// DiagnosticsError is returned when generation reported diagnostics.
type DiagnosticsError struct {
	Fset *token.FileSet
	List Diagnostics
}

func (e *DiagnosticsError) Error() string {
	return e.List.Format(e.Fset)
}

// diagnostics collects the problems of one declaration.
type diagnostics struct {
	list Diagnostics
}

func (d *diagnostics) errorf(pos token.Pos, format string, args ...any) {
	d.list = append(d.list, Diagnostic{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// duplicates reports repeated markers as a single diagnostic located at the
// first repetition, with every marker listed as related information.
func (d *diagnostics) duplicates(msg string, markers []*marker) {
	related := make([]RelatedInformation, len(markers))
	for i, m := range markers {
		note := "repeated here"
		if i == 0 {
			note = "first marker here"
		}
		related[i] = RelatedInformation{Pos: m.pos, Message: note}
	}
	d.list = append(d.list, Diagnostic{Pos: markers[1].pos, Message: msg, Related: related})
}
