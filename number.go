package cfront

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumberType tags the C arithmetic type a numeric literal resolved to
// (spec.md §3.3).
type NumberType int

const (
	NumInt NumberType = iota
	NumLong
	NumLongLong
	NumUInt
	NumULong
	NumULongLong
	NumFloat
	NumDouble
	NumLongDouble
)

func (t NumberType) String() string {
	switch t {
	case NumInt:
		return "int"
	case NumLong:
		return "long"
	case NumLongLong:
		return "long long"
	case NumUInt:
		return "unsigned int"
	case NumULong:
		return "unsigned long"
	case NumULongLong:
		return "unsigned long long"
	case NumFloat:
		return "float"
	case NumDouble:
		return "double"
	case NumLongDouble:
		return "long double"
	default:
		return "unknown"
	}
}

func (t NumberType) isFloat() bool {
	return t == NumFloat || t == NumDouble || t == NumLongDouble
}

func (t NumberType) isUnsigned() bool {
	return t == NumUInt || t == NumULong || t == NumULongLong
}

// unsignedWideningChain and signedWideningChain implement the
// promotion order of spec.md §3.3.
var unsignedWideningChain = []NumberType{NumUInt, NumULong, NumULongLong}
var signedWideningChain = []NumberType{NumInt, NumLong, NumLongLong}

// widthBits returns the bit width used to detect overflow for each
// integer NumberType, matching typical LP64 C semantics.
func widthBits(t NumberType) int {
	switch t {
	case NumInt, NumUInt:
		return 32
	case NumLong, NumULong, NumLongLong, NumULongLong:
		return 64
	default:
		return 64
	}
}

// Number is the tagged union of spec.md §3.3: every numeric literal
// the lexer produces resolves to exactly one of these.
type Number struct {
	Type NumberType
	// Unsigned integer magnitude, valid for all integer NumberTypes
	// (negative integer literals are represented by a preceding unary
	// minus in the AST, per spec.md — the lexer never signs a digit run).
	IntVal uint64
	// Floating value, valid for Float/Double/LongDouble. LongDouble is
	// modeled as a float64 since Go has no native extended-precision
	// float type; this is a deliberate simplification, noted in
	// SPEC_FULL.md §3.
	FloatVal float64
}

func (n Number) String() string {
	if n.Type.isFloat() {
		return strconv.FormatFloat(n.FloatVal, 'g', -1, 64)
	}
	return strconv.FormatUint(n.IntVal, 10)
}

// suffixInfo is the result of scanning a numeric literal's suffix
// right-to-left per spec.md §4.2 step 1.
type suffixInfo struct {
	unsigned bool
	lCount   int  // 0, 1 (l) or 2 (ll)
	isFloatF bool // trailing 'f'/'F' suffix (only valid with a dot/exponent)
}

// parseSuffix scans s right-to-left accumulating at most one u, at
// most two l's, and at most one f; more is a fatal error. hasDotOrExp
// tells it whether a trailing 'f'/'F' should be treated as the float
// suffix (true) or, for hex integers without an exponent, as a hex
// digit that is part of the value (false, handled by the caller before
// reaching here).
func parseSuffix(s string, hasDotOrExp bool) (suffixInfo, string, error) {
	var info suffixInfo
	i := len(s)
	for i > 0 {
		c := s[i-1]
		switch c {
		case 'u', 'U':
			if info.unsigned {
				return info, s, fmt.Errorf("invalid number constant: more than one 'u' suffix")
			}
			info.unsigned = true
			i--
		case 'l', 'L':
			if info.lCount >= 2 {
				return info, s, fmt.Errorf("invalid number constant: more than two 'l' suffixes")
			}
			info.lCount++
			i--
		case 'f', 'F':
			if !hasDotOrExp {
				// Not a suffix here; stop — caller treats remaining
				// text (including this character) as the value.
				return info, s[:i], nil
			}
			if info.isFloatF {
				return info, s, fmt.Errorf("invalid number constant: more than one 'f' suffix")
			}
			info.isFloatF = true
			i--
		case 'i', 'I':
			return info, s, fmt.Errorf("invalid number constant: 'i' is not a valid suffix character")
		default:
			return info, s[:i], nil
		}
	}
	return info, s[:i], nil
}

// selectType maps (float?, dotOrExp?, unsigned?, lCount) to a
// NumberType per spec.md §4.2 step 2, rejecting illegal combinations.
func selectType(isFloat, hasDotOrExp bool, info suffixInfo) (NumberType, error) {
	if isFloat {
		if info.unsigned {
			return 0, fmt.Errorf("invalid number constant: 'unsigned' is not valid on a floating constant")
		}
		if info.lCount == 2 {
			return 0, fmt.Errorf("invalid number constant: 'long long' is not valid on a floating constant")
		}
		if info.isFloatF {
			return NumFloat, nil
		}
		if info.lCount == 1 {
			return NumLongDouble, nil
		}
		return NumDouble, nil
	}
	if info.isFloatF {
		return 0, fmt.Errorf("invalid number constant: 'f' suffix requires a decimal point or exponent")
	}
	switch {
	case info.unsigned && info.lCount == 2:
		return NumULongLong, nil
	case info.unsigned && info.lCount == 1:
		return NumULong, nil
	case info.unsigned:
		return NumUInt, nil
	case info.lCount == 2:
		return NumLongLong, nil
	case info.lCount == 1:
		return NumLong, nil
	default:
		return NumInt, nil
	}
}

// numberBase is the base of the digit run, determined by the literal's
// prefix (spec.md §4.2 step 3).
type numberBase int

const (
	baseDecimal numberBase = 10
	baseOctal   numberBase = 8
	baseHex     numberBase = 16
	baseBinary  numberBase = 2
)

func alphabetFor(b numberBase) string {
	switch b {
	case baseBinary:
		return "01"
	case baseOctal:
		return "01234567"
	case baseDecimal:
		return "0123456789"
	case baseHex:
		return "0123456789abcdefABCDEF"
	}
	return ""
}

// ParseNumber classifies and converts the identifier-shaped run `raw`
// collected by the lexer into a Number, per spec.md §4.2. precededByUnaryMinus
// is not read: the sign is never folded into the literal and does not
// change its type or diagnostics, so Number itself is always non-negative.
func ParseNumber(raw string, precededByUnaryMinus bool) (Number, []Diagnostic) {
	var diags []Diagnostic

	isFloatLiteral, hasDot, hasExp := classifyShape(raw)
	// Determine prefix/base first so we know whether a trailing f/F is
	// a hex digit (no exponent) rather than a suffix.
	base, prefixLen := detectBase(raw)
	hasDotOrExp := hasDot || hasExp
	treatFAsSuffix := hasDotOrExp || base != baseHex

	info, body, err := parseSuffix(raw, treatFAsSuffix)
	if err != nil {
		return Number{Type: NumInt}, []Diagnostic{{
			Severity: SevError, Phase: "lexer", Message: err.Error(),
		}}
	}

	numType, err := selectType(isFloatLiteral, hasDotOrExp, info)
	if err != nil {
		return Number{Type: NumInt}, []Diagnostic{{
			Severity: SevError, Phase: "lexer", Message: err.Error(),
		}}
	}

	value := body[prefixLen:]
	if value == "" {
		value = "0"
	}

	if err := validateAlphabet(value, base, isFloatLiteral); err != nil {
		return Number{Type: numType}, []Diagnostic{{
			Severity: SevError, Phase: "lexer", Message: err.Error(),
		}}
	}

	if isFloatLiteral {
		var f float64
		var overflowed bool
		var perr error
		if base == baseHex {
			f, overflowed, perr = parseHexFloat(value)
		} else {
			f, perr = strconv.ParseFloat(value, 64)
			if perr != nil {
				if ne, ok := perr.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
					overflowed = true
					f = math.Inf(1)
					if strings.HasPrefix(value, "-") {
						f = math.Inf(-1)
					}
					perr = nil
				}
			}
		}
		if perr != nil {
			return Number{Type: numType}, []Diagnostic{{
				Severity: SevError, Phase: "lexer",
				Message: fmt.Sprintf("invalid number constant: %v", perr),
			}}
		}
		if overflowed {
			diags = append(diags, Diagnostic{
				Severity: SevWarning, Phase: "lexer",
				Message: "floating constant overflows to infinity",
			})
		}
		return Number{Type: numType, FloatVal: f}, diags
	}

	iv, promoted, overflowDiag := parseIntegerWithPromotion(value, base, numType)
	if overflowDiag != nil {
		diags = append(diags, *overflowDiag)
	}
	return Number{Type: promoted, IntVal: iv}, diags
}

// classifyShape inspects raw for a '.' or an exponent marker appropriate
// to its (not yet known) base; it returns whether the literal is a
// float, whether it has a dot, and whether it has an exponent letter
// that is not itself a hex digit run continuation.
func classifyShape(raw string) (isFloat, hasDot, hasExp bool) {
	lower := strings.ToLower(raw)
	hasDot = strings.ContainsRune(raw, '.')
	// 'p'/'P' is only an exponent marker for hex floats, which always
	// carry a preceding 0x; 'e'/'E' is the decimal exponent marker and
	// is ambiguous with hex digits, so only treat it as an exponent
	// when the literal is not hex-prefixed.
	if strings.HasPrefix(lower, "0x") {
		hasExp = strings.ContainsAny(raw, "pP")
	} else {
		hasExp = strings.ContainsAny(raw, "eE")
	}
	isFloat = hasDot || hasExp
	return
}

// detectBase determines the base from the literal's prefix (spec.md
// §4.2 step 3) and returns the length of that prefix to strip.
func detectBase(raw string) (numberBase, int) {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "0x"):
		return baseHex, 2
	case strings.HasPrefix(lower, "0b"):
		return baseBinary, 2
	case strings.HasPrefix(raw, "0") && len(raw) > 1 && raw[1] >= '0' && raw[1] <= '9' && !strings.ContainsRune(raw, '.') && !strings.ContainsAny(raw, "eE"):
		return baseOctal, 1
	default:
		return baseDecimal, 0
	}
}

// validateAlphabet checks every character of value against base's
// alphabet (plus '.', exponent markers and signs for floats),
// reporting the first invalid character.
func validateAlphabet(value string, base numberBase, isFloat bool) error {
	alphabet := alphabetFor(base)
	for i := 0; i < len(value); i++ {
		c := value[i]
		if strings.IndexByte(alphabet, c) >= 0 {
			continue
		}
		if isFloat && (c == '.' || c == 'e' || c == 'E' || c == 'p' || c == 'P' || c == '+' || c == '-') {
			continue
		}
		return fmt.Errorf("invalid number constant: invalid digit %q at offset %d", c, i)
	}
	return nil
}

// parseIntegerWithPromotion parses value in base as an integer of
// numType, widening via the promotion chain on overflow (spec.md
// §3.3, §4.2 step 5).
func parseIntegerWithPromotion(value string, base numberBase, numType NumberType) (uint64, NumberType, *Diagnostic) {
	chain := signedWideningChain
	if numType.isUnsigned() {
		chain = unsignedWideningChain
	}
	start := 0
	for i, t := range chain {
		if t == numType {
			start = i
			break
		}
	}
	for i := start; i < len(chain); i++ {
		t := chain[i]
		bits := widthBits(t)
		if !t.isUnsigned() {
			bits-- // the sign bit is not available to the magnitude
		}
		v, err := strconv.ParseUint(value, int(base), bits)
		if err == nil {
			return v, t, nil
		}
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return 0, numType, &Diagnostic{
				Severity: SevError, Phase: "lexer",
				Message: fmt.Sprintf("invalid number constant: %v", err),
			}
		}
		// overflowed this width: widen and retry, unless this is the
		// widest type in the chain
		if i == len(chain)-1 {
			v64, err64 := strconv.ParseUint(value, int(base), 64)
			if err64 == nil {
				return v64, t, &Diagnostic{
					Severity: SevWarning, Phase: "lexer",
					Message: fmt.Sprintf("integer constant is so large that it is unsigned in %s", t),
				}
			}
			return 0, t, &Diagnostic{
				Severity: SevError, Phase: "lexer",
				Message: "integer constant overflows even the widest available type",
			}
		}
	}
	return 0, numType, nil
}

// parseHexFloat implements the custom scanner of spec.md §4.2 step 5
// (hex float): IntPart → (after .) DecPart → (after p/P) Exp.
func parseHexFloat(value string) (result float64, overflowed bool, err error) {
	i := 0
	n := len(value)
	readHexDigit := func(c byte) (int, bool) {
		switch {
		case c >= '0' && c <= '9':
			return int(c - '0'), true
		case c >= 'a' && c <= 'f':
			return int(c-'a') + 10, true
		case c >= 'A' && c <= 'F':
			return int(c-'A') + 10, true
		}
		return 0, false
	}

	var intPart float64
	for i < n {
		d, ok := readHexDigit(value[i])
		if !ok {
			break
		}
		intPart = intPart*16 + float64(d)
		i++
	}

	var frac float64
	sawDot := false
	if i < n && value[i] == '.' {
		sawDot = true
		i++
		scale := 1.0 / 16.0
		for i < n {
			d, ok := readHexDigit(value[i])
			if !ok {
				break
			}
			frac += float64(d) * scale
			scale /= 16
			i++
		}
	}

	if i >= n || (value[i] != 'p' && value[i] != 'P') {
		if sawDot {
			return 0, false, fmt.Errorf("hex float requires a 'p' exponent")
		}
		return 0, false, fmt.Errorf("hex integer missing 'p' exponent in float context")
	}
	i++ // consume p/P

	sign := 1
	if i < n && (value[i] == '+' || value[i] == '-') {
		if value[i] == '-' {
			sign = -1
		}
		i++
	}
	if i >= n {
		return 0, false, fmt.Errorf("hex float exponent has no digits")
	}
	expStart := i
	for i < n && value[i] >= '0' && value[i] <= '9' {
		i++
	}
	if i == expStart {
		return 0, false, fmt.Errorf("hex float exponent has no digits")
	}
	exp, _ := strconv.Atoi(value[expStart:i])
	exp *= sign

	mantissa := intPart + frac
	result = mantissa * math.Pow(2, float64(exp))
	if math.IsInf(result, 0) {
		overflowed = true
	}
	return result, overflowed, nil
}
