package cfront

import (
	"strings"
	"unicode/utf8"
)

// lexMode is the lexer's current mode (spec.md §4.5).
type lexMode int

const (
	modeUnset lexMode = iota
	modeIdent
	modeChar
	modeStr
	modeSymbols
	modeLineComment
	modeBlockComment
)

// lexer drives the character-by-character tokenizer. It owns the
// SymbolState/EscapeState sub-machines and the running Location.
type lexer struct {
	src   string
	pos   int // byte offset
	loc   Location
	diags []Diagnostic

	tokens []Token

	mode             lexMode
	buf              strings.Builder // ident/number/string accumulator
	sym              SymbolState
	esc              EscapeState
	charVal          rune
	charSet          bool
	blockCommentStar bool // previous byte in a block comment was '*'

	tokenStart Location
	endLine    bool // set on Error, skips rest of logical line
}

// Lex tokenizes content starting at start, producing a flat token
// stream plus accumulated diagnostics (spec.md §6 item 1).
func Lex(content string, start Location) Result[[]Token] {
	l := &lexer{src: content, loc: start}
	l.run()
	return Result[[]Token]{Value: l.tokens, Diagnostics: l.diags}
}

func (l *lexer) error(msg string, r Range)   { addError(&l.diags, "lexer", msg, r); l.endLine = true }
func (l *lexer) warn(msg string, r Range)    { addWarning(&l.diags, "lexer", msg, r) }
func (l *lexer) suggest(msg string, r Range) { addSuggestion(&l.diags, "lexer", msg, r) }

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

// advance consumes one byte, updating loc. Newlines are handled by
// the caller since it needs to finalize end-of-line state first.
func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	l.loc = l.loc.advanceColumn()
	return c
}

func (l *lexer) rangeFrom(start Location) Range {
	n := l.loc.Col - start.Col
	if n < 1 {
		n = 1
	}
	return NewRange(start, n)
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		c := l.peekByte()

		if c == '\n' {
			l.finalizeLine()
			l.advance()
			l.loc = l.loc.advanceLine()
			l.endLine = false
			continue
		}

		if l.endLine {
			l.advance()
			continue
		}

		switch l.mode {
		case modeLineComment:
			l.advance()
			continue
		case modeBlockComment:
			l.stepBlockComment()
			continue
		case modeStr:
			l.stepString()
			continue
		case modeChar:
			l.stepChar()
			continue
		}

		// Line continuation: backslash at end of physical line.
		if c == '\\' && l.tryLineContinuation() {
			continue
		}

		if c == ' ' || c == '\t' || c == '\r' || c == '\v' || c == '\f' {
			l.finalizePending()
			l.advance()
			continue
		}

		if c == '"' {
			l.finalizePending()
			l.startString()
			continue
		}
		if c == '\'' {
			l.finalizePending()
			l.startChar()
			continue
		}

		if isIdentStart(c) || (c >= '0' && c <= '9') {
			if l.mode == modeSymbols {
				l.finalizePending()
			}
			l.stepIdentOrNumber()
			continue
		}

		if l.mode == modeIdent {
			// '.' continuing a numeric buffer, or +/- after an
			// exponent marker, per spec.md §4.5.
			if c == '.' && l.isNumericBuffer() && !strings.ContainsRune(l.buf.String(), '.') {
				l.buf.WriteByte(l.advance())
				continue
			}
			if (c == '+' || c == '-') && l.lastCharIsExponentMarker() {
				l.buf.WriteByte(l.advance())
				continue
			}
			l.finalizePending()
		}

		// Everything else funnels into the symbol state machine.
		l.stepSymbol(c)
	}
	l.finalizeLine()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

// isNumericBuffer reports whether the current identifier-shaped
// buffer looks like a numeric literal so far (starts with a digit).
func (l *lexer) isNumericBuffer() bool {
	s := l.buf.String()
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

func (l *lexer) lastCharIsExponentMarker() bool {
	s := l.buf.String()
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		return last == 'p' || last == 'P'
	}
	return last == 'e' || last == 'E'
}

func (l *lexer) tryLineContinuation() bool {
	// `\` immediately followed by newline: suppress the newline.
	if l.peekAt(1) == '\n' {
		l.advance() // consume backslash
		l.advance() // consume newline
		l.loc = l.loc.advanceLine()
		return true
	}
	// `\` followed by whitespace then newline: suggestion, still a continuation.
	n := 1
	for {
		c := l.peekAt(n)
		if c == ' ' || c == '\t' {
			n++
			continue
		}
		break
	}
	if l.peekAt(n) == '\n' && n > 1 {
		start := l.loc
		for i := 0; i < n+1; i++ {
			l.advance()
		}
		l.suggest("remove the space between '\\' and the end of the line", l.rangeFrom(start))
		l.loc = l.loc.advanceLine()
		return true
	}
	return false
}

// finalizePending flushes whatever the lexer was mid-way through
// (ident/number/symbols) when whitespace or a mode-incompatible
// character is seen.
func (l *lexer) finalizePending() {
	switch l.mode {
	case modeIdent:
		l.emitIdentOrNumber()
	case modeSymbols:
		l.drainSymbols()
	}
	l.mode = modeUnset
}

func (l *lexer) finalizeLine() {
	l.finalizePending()
	if l.mode == modeLineComment {
		l.mode = modeUnset
	}
}

func (l *lexer) stepIdentOrNumber() {
	if l.mode != modeIdent {
		l.mode = modeIdent
		l.buf.Reset()
		l.tokenStart = l.loc
	}
	l.buf.WriteByte(l.advance())
}

func (l *lexer) emitIdentOrNumber() {
	s := l.buf.String()
	if s == "" {
		return
	}
	rng := NewRange(l.tokenStart, len(s))

	if s[0] >= '0' && s[0] <= '9' {
		n, diags := ParseNumber(s, false)
		for i := range diags {
			diags[i].Where = rng
			if diags[i].Severity == SevError {
				l.endLine = true
			}
		}
		l.diags = append(l.diags, diags...)
		l.tokens = append(l.tokens, Token{Kind: TokNumber, Range: rng, Num: n})
		return
	}

	if kw, class, ok := LookupKeyword(s); ok {
		if IsDeprecatedUnderscore(kw) {
			l.suggest("'"+s+"' is deprecated; use '"+deprecatedUnderscoreSuggestion[kw]+"' instead", rng)
		}
		l.tokens = append(l.tokens, Token{Kind: TokKeyword, Range: rng, Keyword: kw, KwClass: class})
		return
	}

	l.tokens = append(l.tokens, Token{Kind: TokIdentifier, Range: rng, Ident: s})
}

func (l *lexer) stepSymbol(c byte) {
	if l.mode != modeSymbols {
		l.mode = modeSymbols
		l.sym = SymbolState{}
	}
	start := l.loc
	prevC1 := l.sym.c1
	prevC2 := l.sym.c2

	// Line/block comment detection: a '/' or '*' arriving while a
	// lone '/' is already pending clears the symbol and starts a
	// comment, instead of being pushed into the operator buffer.
	if c == '/' && prevC1 == '/' && prevC2 == 0 {
		l.advance()
		l.sym = SymbolState{}
		l.mode = modeLineComment
		return
	}
	if c == '*' && prevC1 == '/' && prevC2 == 0 {
		l.advance()
		l.sym = SymbolState{}
		l.mode = modeBlockComment
		l.blockCommentStar = false
		return
	}

	l.advance()
	res := l.sym.Push(c, NewRange(start, 1))
	l.diags = append(l.diags, res.Diags...)
	for _, d := range res.Diags {
		if d.Severity == SevError {
			l.endLine = true
		}
	}
	if res.Ok {
		l.tokens = append(l.tokens, Token{Kind: TokSymbol, Range: NewRange(start, 1), Sym: res.Emitted})
	}
	if res.NeedsRetry {
		// Buffer was full and drained; retry pushing this same
		// character now that there is room.
		l.stepSymbolRetry(c, start)
	}
}

func (l *lexer) stepSymbolRetry(c byte, start Location) {
	res := l.sym.Push(c, NewRange(start, 1))
	l.diags = append(l.diags, res.Diags...)
	for _, d := range res.Diags {
		if d.Severity == SevError {
			l.endLine = true
		}
	}
	if res.Ok {
		l.tokens = append(l.tokens, Token{Kind: TokSymbol, Range: NewRange(start, 1), Sym: res.Emitted})
	}
}

func (l *lexer) drainSymbols() {
	for {
		sym, ok, diags := l.sym.Drain(l.rangeFrom(l.loc))
		l.diags = append(l.diags, diags...)
		for _, d := range diags {
			if d.Severity == SevError {
				l.endLine = true
			}
		}
		if !ok {
			break
		}
		l.tokens = append(l.tokens, Token{Kind: TokSymbol, Range: l.rangeFrom(l.loc), Sym: sym})
	}
}

func (l *lexer) stepBlockComment() {
	c := l.peekByte()
	if l.blockCommentStar {
		if c == '/' {
			l.advance()
			l.mode = modeUnset
			l.blockCommentStar = false
			return
		}
		l.blockCommentStar = c == '*'
		l.advance()
		return
	}
	if c == '*' {
		l.blockCommentStar = true
	}
	l.advance()
}

func (l *lexer) startString() {
	l.mode = modeStr
	l.buf.Reset()
	l.tokenStart = l.loc
	l.advance() // consume opening quote
}

func (l *lexer) stepString() {
	c := l.peekByte()
	if c == '\\' {
		start := l.loc
		l.advance()
		l.consumeEscape(start, false)
		return
	}
	if c == '"' {
		l.advance()
		l.emitString()
		return
	}
	if c == '\n' {
		l.error("missing terminating \" character", NewRange(l.tokenStart, 1))
		l.emitString()
		return
	}
	l.buf.WriteByte(l.advance())
}

func (l *lexer) emitString() {
	s := l.buf.String()
	rng := NewRange(l.tokenStart, len(s)+2)
	// String-literal concatenation: merge with an immediately
	// preceding String token (spec.md §3.2, invariant 5).
	if n := len(l.tokens); n > 0 && l.tokens[n-1].Kind == TokString {
		prev := l.tokens[n-1]
		merged := prev.Str + s
		l.tokens[n-1] = Token{Kind: TokString, Range: NewRange(prev.Range.Start, prev.Range.Length+rng.Length), Str: merged}
		l.mode = modeUnset
		return
	}
	l.tokens = append(l.tokens, Token{Kind: TokString, Range: rng, Str: s})
	l.mode = modeUnset
}

func (l *lexer) startChar() {
	l.mode = modeChar
	l.tokenStart = l.loc
	l.charSet = false
	l.charVal = 0
	l.advance() // consume opening quote
}

func (l *lexer) stepChar() {
	c := l.peekByte()
	if c == '\\' {
		start := l.loc
		l.advance()
		l.consumeEscape(start, true)
		return
	}
	if c == '\'' {
		rng := l.rangeFrom(l.tokenStart)
		l.advance()
		if !l.charSet {
			l.error("empty character constant", rng)
		}
		l.tokens = append(l.tokens, Token{Kind: TokChar, Range: rng, Codepoint: l.charVal})
		l.mode = modeUnset
		return
	}
	if c == '\n' {
		l.error("missing terminating ' character", NewRange(l.tokenStart, 1))
		l.tokens = append(l.tokens, Token{Kind: TokChar, Range: l.rangeFrom(l.tokenStart), Codepoint: l.charVal})
		l.mode = modeUnset
		return
	}
	if l.charSet {
		// A second raw character before the closing quote: multi-char
		// constant, an error, but keep lexing to the closing quote.
		_, size := utf8.DecodeRuneInString(l.src[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		l.error("multi-character character constant", l.rangeFrom(l.tokenStart))
		return
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	for i := 0; i < size; i++ {
		l.advance()
	}
	l.charVal = r
	l.charSet = true
}

// consumeEscape drives the EscapeState across however many bytes the
// sequence needs, feeding it one byte at a time as the lexer advances.
func (l *lexer) consumeEscape(backslashAt Location, isChar bool) {
	res := l.esc.Start(l.peekByte(), NewRange(backslashAt, 2))
	l.advance()
	for !res.Done {
		at := l.loc
		c := l.peekByte()
		res = l.esc.Feed(c, NewRange(at, 1))
		if !res.Done {
			l.advance()
			continue
		}
		if !res.HasOverflow {
			l.advance()
		}
	}
	l.applyEscapeResult(res, isChar)
}

func (l *lexer) applyEscapeResult(res EscapeResult, isChar bool) {
	for _, d := range res.Diags {
		l.diags = append(l.diags, d)
		if d.Severity == SevError {
			l.endLine = true
		}
	}
	if isChar {
		if l.charSet {
			l.error("escape sequence too long to fit in char", NewRange(l.tokenStart, 1))
		} else {
			l.charVal = res.Rune
			l.charSet = true
		}
	} else {
		l.buf.WriteRune(res.Rune)
	}
	// res.Overflow (if any) was never consumed from the source, so the
	// main loop reprocesses it naturally as the next input character.
}
