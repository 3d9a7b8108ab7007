package cfront

// KeywordClass classifies a keyword for the dispatcher (spec.md §3.5).
type KeywordClass int

const (
	KwControl KeywordClass = iota
	KwLiteral
	KwOperator
	KwStorage
	KwType
)

func (c KeywordClass) String() string {
	switch c {
	case KwControl:
		return "control"
	case KwLiteral:
		return "literal"
	case KwOperator:
		return "operator"
	case KwStorage:
		return "storage"
	case KwType:
		return "type"
	default:
		return "unknown"
	}
}

// Keyword is the closed enumeration of every C23 keyword, including
// deprecated underscore variants (spec.md §3.5).
type Keyword int

const (
	KwAuto Keyword = iota
	KwBreak
	KwCase
	KwChar
	KwConst
	KwContinue
	KwDefault
	KwDo
	KwDouble
	KwElse
	KwEnum
	KwExtern
	KwFloat
	KwFor
	KwGoto
	KwIf
	KwInline
	KwInt
	KwLong
	KwRegister
	KwRestrict
	KwReturn
	KwShort
	KwSigned
	KwSizeof
	KwStatic
	KwStruct
	KwSwitch
	KwTypedef
	KwUnion
	KwUnsigned
	KwVoid
	KwVolatile
	KwWhile

	// C11/C23 keywords (modern spelling)
	KwAlignas
	KwAlignof
	KwAtomic
	KwBool
	KwComplex
	KwGeneric
	KwImaginary
	KwNoreturn
	KwStaticAssert
	KwThreadLocal
	KwTrue
	KwFalse
	KwNullptr
	KwTypeof
	KwTypeofUnqual
	KwConstexpr
	KwBitInt

	// deprecated underscore spellings, accepted with a suggestion
	KwUnderscoreAlignas
	KwUnderscoreAlignof
	KwUnderscoreAtomic
	KwUnderscoreBool
	KwUnderscoreComplex
	KwUnderscoreGeneric
	KwUnderscoreImaginary
	KwUnderscoreNoreturn
	KwUnderscoreStaticAssert
	KwUnderscoreThreadLocal
)

// keywordTable maps spelling to (Keyword, class). Lookup is a single
// map hit per identifier the lexer produces; no separate trie is
// needed at this vocabulary size.
var keywordTable = map[string]struct {
	Kw    Keyword
	Class KeywordClass
}{
	"auto":     {KwAuto, KwStorage},
	"break":    {KwBreak, KwControl},
	"case":     {KwCase, KwControl},
	"char":     {KwChar, KwType},
	"const":    {KwConst, KwType},
	"continue": {KwContinue, KwControl},
	"default":  {KwDefault, KwStorage}, // stepKeyword always turns it into a CFDefault node; the case context is not consulted
	"do":       {KwDo, KwControl},
	"double":   {KwDouble, KwType},
	"else":     {KwElse, KwControl},
	"enum":     {KwEnum, KwType},
	"extern":   {KwExtern, KwStorage},
	"float":    {KwFloat, KwType},
	"for":      {KwFor, KwControl},
	"goto":     {KwGoto, KwControl},
	"if":       {KwIf, KwControl},
	"inline":   {KwInline, KwStorage},
	"int":      {KwInt, KwType},
	"long":     {KwLong, KwType},
	"register": {KwRegister, KwStorage},
	"restrict": {KwRestrict, KwType},
	"return":   {KwReturn, KwControl},
	"short":    {KwShort, KwType},
	"signed":   {KwSigned, KwType},
	"sizeof":   {KwSizeof, KwOperator},
	"static":   {KwStatic, KwStorage},
	"struct":   {KwStruct, KwType},
	"switch":   {KwSwitch, KwControl},
	"typedef":  {KwTypedef, KwStorage},
	"union":    {KwUnion, KwType},
	"unsigned": {KwUnsigned, KwType},
	"void":     {KwVoid, KwType},
	"volatile": {KwVolatile, KwType},
	"while":    {KwWhile, KwControl},

	"alignas":       {KwAlignas, KwOperator},
	"alignof":       {KwAlignof, KwOperator},
	"_Atomic":       {KwAtomic, KwType},
	"bool":          {KwBool, KwType},
	"_Complex":      {KwComplex, KwType},
	"_Generic":      {KwGeneric, KwOperator},
	"_Imaginary":    {KwImaginary, KwType},
	"noreturn":      {KwNoreturn, KwStorage},
	"static_assert": {KwStaticAssert, KwOperator},
	"thread_local":  {KwThreadLocal, KwStorage},
	"true":          {KwTrue, KwLiteral},
	"false":         {KwFalse, KwLiteral},
	"nullptr":       {KwNullptr, KwLiteral},
	"typeof":        {KwTypeof, KwOperator},
	"typeof_unqual": {KwTypeofUnqual, KwOperator},
	"constexpr":     {KwConstexpr, KwStorage},
	"_BitInt":       {KwBitInt, KwType},

	"_Alignas":      {KwUnderscoreAlignas, KwOperator},
	"_Alignof":      {KwUnderscoreAlignof, KwOperator},
	"_Bool":         {KwUnderscoreBool, KwType},
	"_Noreturn":     {KwUnderscoreNoreturn, KwStorage},
	"_Static_assert": {KwUnderscoreStaticAssert, KwOperator},
	"_Thread_local":  {KwUnderscoreThreadLocal, KwStorage},
}

// deprecatedUnderscoreSuggestion maps a deprecated underscore keyword
// to the modern spelling a suggestion diagnostic recommends.
var deprecatedUnderscoreSuggestion = map[Keyword]string{
	KwUnderscoreAlignas:      "alignas",
	KwUnderscoreAlignof:      "alignof",
	KwUnderscoreBool:         "bool",
	KwUnderscoreNoreturn:     "[[noreturn]]",
	KwUnderscoreStaticAssert: "static_assert",
	KwUnderscoreThreadLocal:  "thread_local",
}

// IsDeprecatedUnderscore reports whether kw is one of the deprecated
// underscore-prefixed C23 keywords (spec.md §4.10).
func IsDeprecatedUnderscore(kw Keyword) bool {
	_, ok := deprecatedUnderscoreSuggestion[kw]
	return ok
}

// LookupKeyword returns the Keyword/class for an identifier spelling,
// or ok=false if the identifier is not a keyword.
func LookupKeyword(ident string) (Keyword, KeywordClass, bool) {
	e, ok := keywordTable[ident]
	if !ok {
		return 0, 0, false
	}
	return e.Kw, e.Class, true
}
