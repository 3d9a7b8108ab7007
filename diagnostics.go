package cfront

import (
	"fmt"
	"strings"
)

// Severity is a diagnostic's severity level (spec.md §3.8 invariant 6,
// §7). Error forces the lexer to end-line; Warning and Suggestion
// never alter control flow.
type Severity int

const (
	SevError Severity = iota
	SevWarning
	SevSuggestion
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	case SevSuggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// Diagnostic is a single error, warning, or suggestion anchored to a
// source range. It implements the standard error interface the same
// way the teacher's CompilerError does, so callers can use errors.Is/
// errors.As against diagnostics returned from a Result[T].
type Diagnostic struct {
	Severity Severity
	Phase    string // "lexer" or "parser", caller-supplied
	Message  string
	Where    Range
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Where, d.Phase, d.Severity, d.Message)
}

// Render formats the diagnostic against source, following spec.md §6's
// exact layout:
//
//	<file>:<line>:<col>: <phase> <severity>: <message>
//	    <line-number> | <source-line>
//	    <spaces>        ^~~~
//
// Multi-line ranges additionally render a second block ending in
// "...and ends here.".
func (d Diagnostic) Render(source string) string {
	var sb strings.Builder
	loc := d.Where.Start
	fmt.Fprintf(&sb, "%s: %s %s: %s\n", loc, d.Phase, d.Severity, d.Message)

	lineText := sourceLine(source, loc.Line)
	lineNum := fmt.Sprintf("%d", loc.Line)
	indent := strings.Repeat(" ", len(lineNum))
	sb.WriteString(indent + " | \n")
	fmt.Fprintf(&sb, "%s | %s\n", lineNum, lineText)

	underlineLen := d.Where.Length
	if underlineLen < 1 {
		underlineLen = 1
	}
	col := loc.Col
	if col < 1 {
		col = 1
	}
	sb.WriteString(indent + " | " + strings.Repeat(" ", col-1) + "^" + strings.Repeat("~", max0(underlineLen-1)) + "\n")

	if d.Where.IsMultiLine() {
		end := d.Where.Continuation.Start
		endLine := sourceLine(source, end.Line)
		endLineNum := fmt.Sprintf("%d", end.Line)
		endIndent := strings.Repeat(" ", len(endLineNum))
		sb.WriteString(endIndent + " | \n")
		fmt.Fprintf(&sb, "%s | %s\n", endLineNum, endLine)
		endCol := end.Col
		if endCol < 1 {
			endCol = 1
		}
		sb.WriteString(endIndent + " | " + strings.Repeat(" ", endCol-1) + "^ ...and ends here.\n")
	}

	return sb.String()
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func sourceLine(source string, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Result carries both a value and the diagnostics accumulated while
// producing it (spec.md §6). Early return short-circuits only on
// Error severity — the lexer and parser otherwise keep going and
// accumulate further diagnostics so a caller inspecting Result sees
// everything wrong with the file, not just the first problem.
type Result[T any] struct {
	Value       T
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic is Error severity.
func (r Result[T]) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// UnwrapOrDisplay prints all diagnostics against source and panics if
// any is Error severity; otherwise it returns the value.
func (r Result[T]) UnwrapOrDisplay(source, phase string) T {
	for _, d := range r.Diagnostics {
		fmt.Print(d.Render(source))
	}
	if r.HasErrors() {
		panic(fmt.Sprintf("%s: aborting due to previous error(s)", phase))
	}
	return r.Value
}

// DisplayedErrors returns the formatted diagnostics without panicking.
func (r Result[T]) DisplayedErrors(source, phase string) string {
	var sb strings.Builder
	for _, d := range r.Diagnostics {
		sb.WriteString(d.Render(source))
	}
	return sb.String()
}

// addError appends an Error-severity diagnostic.
func addError(diags *[]Diagnostic, phase, msg string, where Range) {
	*diags = append(*diags, Diagnostic{Severity: SevError, Phase: phase, Message: msg, Where: where})
}

// addWarning appends a Warning-severity diagnostic.
func addWarning(diags *[]Diagnostic, phase, msg string, where Range) {
	*diags = append(*diags, Diagnostic{Severity: SevWarning, Phase: phase, Message: msg, Where: where})
}

// addSuggestion appends a Suggestion-severity diagnostic.
func addSuggestion(diags *[]Diagnostic, phase, msg string, where Range) {
	*diags = append(*diags, Diagnostic{Severity: SevSuggestion, Phase: phase, Message: msg, Where: where})
}
