// Diagnostic reporting for the walrus converter. Conversion problems
// that affect a single assignment expression are collected here and
// reported together, rather than aborting at the first one.
package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JarryShaw/walrus/internal/position"
)

// Severity represents the severity level of a diagnostic message.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Kind categorizes conversion failures.
type Kind int

const (
	// ParseFailure: the input is not syntactically valid. Fatal for
	// the whole file; no partial output is produced.
	ParseFailure Kind = iota
	// UnsupportedTarget: the assignment expression target is not a
	// plain identifier. The occurrence is left unmodified; other
	// occurrences are still processed.
	UnsupportedTarget
	// UnhoistableContext: no safe hoist point exists, e.g. the bound
	// value depends on an enclosing lambda's own parameter.
	UnhoistableContext
	// NameCollision: the temporary name allocator could not produce
	// a fresh name. Indicates an internal invariant violation and is
	// fatal for the file.
	NameCollision
)

func (k Kind) String() string {
	switch k {
	case ParseFailure:
		return "parse-failure"
	case UnsupportedTarget:
		return "unsupported-target"
	case UnhoistableContext:
		return "unhoistable-context"
	case NameCollision:
		return "name-collision"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single conversion diagnostic.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Span     position.Span
	Context  string // classified hoist context, when known
	Message  string
}

// String renders the diagnostic in file:line:col form.
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Span.Start.String())
	b.WriteString(": ")
	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Message)
	if d.Context != "" {
		fmt.Fprintf(&b, " (in %s context)", d.Context)
	}
	fmt.Fprintf(&b, " [%s]", d.Kind)
	return b.String()
}

// List accumulates diagnostics across independent nodes of one file.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// Len returns the number of accumulated diagnostics.
func (l *List) Len() int {
	return len(l.items)
}

// HasErrors reports whether any diagnostic is an error.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Items returns the diagnostics ordered by source position.
func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start.Before(out[j].Span.Start)
	})
	return out
}

// Format renders all diagnostics, one per line. When colored is true
// the severity is wrapped in ANSI color codes.
func (l *List) Format(colored bool) string {
	var b strings.Builder
	for _, d := range l.Items() {
		if colored {
			b.WriteString(colorize(d))
		} else {
			b.WriteString(d.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func colorize(d Diagnostic) string {
	var code string
	switch d.Severity {
	case SeverityError:
		code = "\x1b[31m" // red
	case SeverityWarning:
		code = "\x1b[33m" // yellow
	default:
		code = "\x1b[36m" // cyan
	}
	plain := d.String()
	sev := d.Severity.String()
	return strings.Replace(plain, sev, code+sev+"\x1b[0m", 1)
}
