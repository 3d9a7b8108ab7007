package cfront

import "fmt"

// EscapeKind tags which sequence an EscapeState is accumulating
// (spec.md §4.3).
type EscapeKind int

const (
	EscShortUnicode EscapeKind = iota // \u, exactly 4 hex digits
	EscUnicode                        // \U, exactly 8 hex digits
	EscHexadecimal                    // \x, 1-2 hex digits
	EscOctal                          // 1-3 octal digits
)

func (k EscapeKind) minDigits() int {
	switch k {
	case EscShortUnicode:
		return 4
	case EscUnicode:
		return 8
	case EscHexadecimal:
		return 1
	case EscOctal:
		return 1
	}
	return 0
}

func (k EscapeKind) maxDigits() int {
	switch k {
	case EscShortUnicode:
		return 4
	case EscUnicode:
		return 8
	case EscHexadecimal:
		return 2
	case EscOctal:
		return 3
	}
	return 0
}

func (k EscapeKind) isDigit(c byte) bool {
	switch k {
	case EscShortUnicode, EscUnicode, EscHexadecimal:
		return isHexDigit(c)
	case EscOctal:
		return c >= '0' && c <= '7'
	}
	return false
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// escapeStage is the state of an in-progress escape sequence.
type escapeStage int

const (
	escNone escapeStage = iota
	escSingle
	escSequence
)

// EscapeState drives the \… state machine inside string/char literals.
type EscapeState struct {
	stage  escapeStage
	kind   EscapeKind
	digits string
}

// singleCharEscapes maps the character after `\` to its replacement
// byte for the fixed single-character escape set (spec.md §4.3).
var singleCharEscapes = map[byte]byte{
	'a': '\a', 'b': '\b', 't': '\t', 'n': '\n', 'v': '\v', 'f': '\f',
	'r': '\r', 'e': 0x1b, '"': '"', '\'': '\'', '?': '?', '\\': '\\', '0': 0,
}

// EscapeResult is what Feed / Finalize hand back to the lexer.
type EscapeResult struct {
	// Done is true once the escape sequence is finished (whether
	// successfully or via error); Rune carries the produced value
	// once Done is true.
	Done     bool
	Rune     rune
	Overflow byte // an extra character that didn't fit and must be
	// reprocessed by the containing lexer state; 0 if none.
	HasOverflow bool
	Diags       []Diagnostic
}

// Start begins processing the character immediately after a `\`
// (spec.md §4.3's "after \, the next character determines kind").
func (e *EscapeState) Start(c byte, at Range) EscapeResult {
	if repl, ok := singleCharEscapes[c]; ok {
		e.stage = escNone
		return EscapeResult{Done: true, Rune: rune(repl)}
	}
	switch c {
	case 'u':
		e.stage, e.kind, e.digits = escSequence, EscShortUnicode, ""
		return EscapeResult{}
	case 'U':
		e.stage, e.kind, e.digits = escSequence, EscUnicode, ""
		return EscapeResult{}
	case 'x':
		e.stage, e.kind, e.digits = escSequence, EscHexadecimal, ""
		return EscapeResult{}
	}
	if c >= '0' && c <= '7' {
		e.stage, e.kind, e.digits = escSequence, EscOctal, string(c)
		return EscapeResult{}
	}
	e.stage = escNone
	return EscapeResult{
		Done: true,
		Rune: rune(c),
		Diags: []Diagnostic{{
			Severity: SevWarning, Phase: "lexer",
			Message: fmt.Sprintf("escape sequence '\\%c' ignored", c), Where: at,
		}},
	}
}

// Feed pushes the next character into an in-progress Sequence state.
// It returns Done=false while still accumulating.
func (e *EscapeState) Feed(c byte, at Range) EscapeResult {
	if e.stage != escSequence {
		return EscapeResult{Done: true, HasOverflow: true, Overflow: c}
	}

	if e.kind == EscOctal {
		if e.kind.isDigit(c) && len(e.digits) < e.kind.maxDigits() {
			candidate := e.digits + string(c)
			val := parseOctalDigits(candidate)
			if val > 0o377 {
				// Pushing would exceed 0o377: finalize now without
				// consuming c; c overflows back to the lexer.
				return e.finalizeOctal(at, true, c)
			}
			e.digits = candidate
			if len(e.digits) == e.kind.maxDigits() {
				return e.finalizeOctal(at, false, 0)
			}
			return EscapeResult{}
		}
		return e.finalizeOctal(at, true, c)
	}

	if e.kind.isDigit(c) && len(e.digits) < e.kind.maxDigits() {
		e.digits += string(c)
		if len(e.digits) == e.kind.maxDigits() {
			return e.finalizeFixedWidth(at, false, 0)
		}
		return EscapeResult{}
	}
	return e.finalizeFixedWidth(at, true, c)
}

func parseOctalDigits(s string) int {
	v := 0
	for i := 0; i < len(s); i++ {
		v = v*8 + int(s[i]-'0')
	}
	return v
}

func parseHexDigits(s string) rune {
	var v rune
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = rune(c - '0')
		case c >= 'a' && c <= 'f':
			d = rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = rune(c-'A') + 10
		}
		v = v*16 + d
	}
	return v
}

func (e *EscapeState) finalizeOctal(at Range, overflow bool, overflowChar byte) EscapeResult {
	e.stage = escNone
	if e.digits == "" {
		return EscapeResult{Done: true, Diags: []Diagnostic{{
			Severity: SevError, Phase: "lexer", Message: "invalid escape sequence: octal escape has no digits", Where: at,
		}}}
	}
	r := rune(parseOctalDigits(e.digits))
	res := EscapeResult{Done: true, Rune: r}
	if overflow {
		res.HasOverflow = true
		res.Overflow = overflowChar
	}
	return res
}

func (e *EscapeState) finalizeFixedWidth(at Range, overflow bool, overflowChar byte) EscapeResult {
	kind := e.kind
	digits := e.digits
	e.stage = escNone

	if len(digits) < kind.minDigits() {
		return EscapeResult{Done: true, Diags: []Diagnostic{{
			Severity: SevError, Phase: "lexer",
			Message: fmt.Sprintf("invalid escape sequence: expected %d hex digits, got %d", kind.minDigits(), len(digits)),
			Where:    at,
		}}}
	}

	r := parseHexDigits(digits)
	var diags []Diagnostic
	if kind == EscShortUnicode || kind == EscUnicode {
		if (r >= 0xD800 && r <= 0xDFFF) || r > 0x10FFFF {
			diags = append(diags, Diagnostic{
				Severity: SevError, Phase: "lexer",
				Message: "invalid escape sequence: not a valid Unicode scalar value", Where: at,
			})
		}
	}

	res := EscapeResult{Done: true, Rune: r, Diags: diags}
	if overflow {
		res.HasOverflow = true
		res.Overflow = overflowChar
	}
	return res
}

// InProgress reports whether the state machine is mid-sequence.
func (e *EscapeState) InProgress() bool {
	return e.stage != escNone
}
