// Package diag implements the compiler's diagnostic collector. Every
// frontend-equivalent error is gathered here and surfaced through a single
// termination token; no diagnostic is ever silently recovered.
package diag

import (
	"fmt"
	"strings"
)

// Kind enumerates the diagnostic kinds the lowering pipeline can report.
type Kind string

const (
	MissingField            Kind = "MissingField"
	UnknownField            Kind = "UnknownField"
	IncompatiblePattern     Kind = "IncompatiblePattern"
	DuplicateIdentifier     Kind = "DuplicateIdentifier"
	UnsatisfiableDependency Kind = "UnsatisfiableDependency"
	UnknownStructureOrEnum  Kind = "UnknownStructureOrEnum"
)

// Location is the source position every diagnostic carries.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is one collected error.
type Diagnostic struct {
	Kind     Kind
	Message  string
	Location Location
	// Field names the specific field a MissingField/UnknownField diagnostic
	// refers to.
	Field string
}

func (d Diagnostic) Error() string {
	if d.Field != "" {
		return fmt.Sprintf("%s: %s: %s (field %q)", d.Location, d.Kind, d.Message, d.Field)
	}
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Kind, d.Message)
}

// Collector accumulates diagnostics for one compile unit. Errors here are
// fatal for the current node and short-circuit to the caller; Collector is
// how that short-circuit is implemented without panicking.
type Collector struct {
	diags []Diagnostic
}

func New() *Collector { return &Collector{} }

// Add records a diagnostic. Returns the Collector for chaining.
func (c *Collector) Add(d Diagnostic) *Collector {
	c.diags = append(c.diags, d)
	return c
}

// MissingField records a MissingField diagnostic for a struct pattern that
// omits a declared field.
func (c *Collector) MissingField(loc Location, structName, field string) {
	c.Add(Diagnostic{
		Kind:     MissingField,
		Message:  fmt.Sprintf("pattern for %q is missing field", structName),
		Location: loc,
		Field:    field,
	})
}

// UnknownField records an UnknownField diagnostic for a struct pattern that
// names a field the structure doesn't declare.
func (c *Collector) UnknownField(loc Location, structName, field string) {
	c.Add(Diagnostic{
		Kind:     UnknownField,
		Message:  fmt.Sprintf("pattern for %q references unknown field", structName),
		Location: loc,
		Field:    field,
	})
}

// IncompatiblePattern records an option pattern matched against a
// non-option scrutinee.
func (c *Collector) IncompatiblePattern(loc Location, msg string) {
	c.Add(Diagnostic{Kind: IncompatiblePattern, Message: msg, Location: loc})
}

// Diagnostics returns every diagnostic collected so far, in insertion
// order.
func (c *Collector) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diags...)
}

// HasErrors reports whether any diagnostic was recorded.
func (c *Collector) HasErrors() bool { return len(c.diags) > 0 }

// Err returns nil if no diagnostics were collected, otherwise a single
// combined error describing everything outstanding.
func (c *Collector) Err() error {
	if len(c.diags) == 0 {
		return nil
	}
	lines := make([]string, len(c.diags))
	for i, d := range c.diags {
		lines[i] = d.Error()
	}
	return fmt.Errorf("%d diagnostic(s):\n%s", len(c.diags), strings.Join(lines, "\n"))
}
