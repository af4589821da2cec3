// Package diag holds the diagnostic accumulator shared by the MIR body builder and the driver.
// It generalizes the teacher's src/util/perror.go buffered-error-listener shape: that type fed a
// goroutine from a channel because multiple parallel compiler workers wrote to one perror
// concurrently. A Bag is owned by a single builder working on a single function, so the
// goroutine/channel plumbing is replaced by a plain mutex-free slice.
package diag

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Severity classifies how a Diagnostic affects the overall compilation result.
type Severity int

// Diagnostic is one reported problem, spanning the taxonomy of spec.md §7: parse/shape errors,
// type mismatches, ambiguity, and scope violations all become Diagnostics; only layout lookup
// failures and pending-statement sightings at emit time are Go errors (returned by the emitters
// in internal/codegen/function).
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     string // textual source span, opaque to this package; supplied by the front end.
}

// Bag accumulates Diagnostics for one builder pass. It never aborts lowering: every rule
// violation appends and lowering continues with a best-effort value.
type Bag struct {
	entries []Diagnostic
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	// Warning is informational: a lossy cast, an infallible `as` cast that could be `From`, etc.
	Warning Severity = iota
	// Error is a reported rule violation that does not, by itself, block emission (ambiguity,
	// scope violation, type mismatch).
	Error
	// Fatal means the driver must refuse to emit IR for this module.
	Fatal
)

// ---------------------
// ----- functions -----
// ---------------------

// Add appends a Diagnostic built from a severity, span and formatted message.
func (b *Bag) Add(sev Severity, span, format string, args ...interface{}) {
	b.entries = append(b.entries, Diagnostic{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// Warnf records a Warning-severity diagnostic.
func (b *Bag) Warnf(span, format string, args ...interface{}) { b.Add(Warning, span, format, args...) }

// Errorf records an Error-severity diagnostic.
func (b *Bag) Errorf(span, format string, args ...interface{}) { b.Add(Error, span, format, args...) }

// Fatalf records a Fatal-severity diagnostic.
func (b *Bag) Fatalf(span, format string, args ...interface{}) { b.Add(Fatal, span, format, args...) }

// Len returns the number of accumulated diagnostics.
func (b *Bag) Len() int { return len(b.entries) }

// Entries returns a copy of the accumulated diagnostics in report order.
func (b *Bag) Entries() []Diagnostic {
	out := make([]Diagnostic, len(b.entries))
	copy(out, b.entries)
	return out
}

// Fatal reports whether any accumulated diagnostic is Fatal severity; the driver must not emit
// IR for a module when this is true.
func (b *Bag) Fatal() bool {
	for _, e := range b.entries {
		if e.Severity == Fatal {
			return true
		}
	}
	return false
}

// Merge appends other's entries onto b, preserving relative order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.entries = append(b.entries, other.entries...)
}

// String renders the bag as one line per diagnostic, for driver-facing output.
func (b *Bag) String() string {
	var sb strings.Builder
	for _, e := range b.entries {
		fmt.Fprintf(&sb, "%s: %s: %s\n", e.Span, e.Severity, e.Message)
	}
	return sb.String()
}

// String names the Severity for diagnostic rendering.
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// DebugDump renders an arbitrary value (typically a mir.Module/mir.Function) with
// github.com/kr/pretty, for use in diagnostic traces and test failure messages — the same role
// golint-fixer-exp's dbg.Printf plays over its disassembler state.
func DebugDump(v interface{}) string {
	return pretty.Sprint(v)
}
