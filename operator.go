package cfront

// Assoc is an operator's associativity.
type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
)

// Op is the closed set of operators the builder knows about — unary,
// binary, ternary, cast, assignment and comma (spec.md §4.7).
type Op int

const (
	// postfix / primary, precedence 1
	OpSubscript Op = iota // a[b]
	OpMember              // a.b
	OpArrow               // a->b
	OpPostInc
	OpPostDec

	// prefix, precedence 2 (right-to-left), plus Cast
	OpPreInc
	OpPreDec
	OpUnaryPlus
	OpUnaryMinus
	OpLogicalNot
	OpBitNot
	OpDeref     // unary *
	OpAddressOf // unary &
	OpCast
	OpSizeof

	// binary, by precedence
	OpMul
	OpDiv
	OpMod

	OpAdd
	OpSub

	OpShl
	OpShr

	OpLt
	OpLe
	OpGt
	OpGe

	OpEq
	OpNe

	OpBitAnd
	OpBitXor
	OpBitOr

	OpLogicalAnd
	OpLogicalOr

	OpTernary

	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpModAssign
	OpAndAssign
	OpOrAssign
	OpXorAssign
	OpShlAssign
	OpShrAssign

	OpComma

	// call is handled structurally (FunctionCall node), not as an Op,
	// but is given a precedence entry for push-op comparisons.
	OpCall
)

// opInfo holds precedence (1 = tightest) and associativity.
type opInfo struct {
	Prec  int
	Assoc Assoc
	Arity int // 1 = unary, 2 = binary, 3 = ternary
}

var operatorTable = map[Op]opInfo{
	OpSubscript: {1, AssocLeft, 2}, OpMember: {1, AssocLeft, 2}, OpArrow: {1, AssocLeft, 2},
	OpPostInc: {1, AssocLeft, 1}, OpPostDec: {1, AssocLeft, 1}, OpCall: {1, AssocLeft, 2},

	OpPreInc: {2, AssocRight, 1}, OpPreDec: {2, AssocRight, 1},
	OpUnaryPlus: {2, AssocRight, 1}, OpUnaryMinus: {2, AssocRight, 1},
	OpLogicalNot: {2, AssocRight, 1}, OpBitNot: {2, AssocRight, 1},
	OpDeref: {2, AssocRight, 1}, OpAddressOf: {2, AssocRight, 1},
	OpCast: {2, AssocRight, 1}, OpSizeof: {2, AssocRight, 1},

	OpMul: {3, AssocLeft, 2}, OpDiv: {3, AssocLeft, 2}, OpMod: {3, AssocLeft, 2},
	OpAdd: {4, AssocLeft, 2}, OpSub: {4, AssocLeft, 2},
	OpShl: {5, AssocLeft, 2}, OpShr: {5, AssocLeft, 2},
	OpLt: {6, AssocLeft, 2}, OpLe: {6, AssocLeft, 2}, OpGt: {6, AssocLeft, 2}, OpGe: {6, AssocLeft, 2},
	OpEq: {7, AssocLeft, 2}, OpNe: {7, AssocLeft, 2},
	OpBitAnd: {8, AssocLeft, 2},
	OpBitXor: {9, AssocLeft, 2},
	OpBitOr:  {10, AssocLeft, 2},
	OpLogicalAnd: {11, AssocLeft, 2},
	OpLogicalOr:  {12, AssocLeft, 2},
	OpTernary:    {13, AssocRight, 3},

	OpAssign: {14, AssocRight, 2}, OpAddAssign: {14, AssocRight, 2}, OpSubAssign: {14, AssocRight, 2},
	OpMulAssign: {14, AssocRight, 2}, OpDivAssign: {14, AssocRight, 2}, OpModAssign: {14, AssocRight, 2},
	OpAndAssign: {14, AssocRight, 2}, OpOrAssign: {14, AssocRight, 2}, OpXorAssign: {14, AssocRight, 2},
	OpShlAssign: {14, AssocRight, 2}, OpShrAssign: {14, AssocRight, 2},

	OpComma: {15, AssocLeft, 2},
}

// Precedence returns op's precedence (1 = tightest).
func (o Op) Precedence() int { return operatorTable[o].Prec }

// Associativity returns op's associativity.
func (o Op) Associativity() Assoc { return operatorTable[o].Assoc }

// Arity returns the number of operands op takes.
func (o Op) Arity() int { return operatorTable[o].Arity }

// IsAssignment reports whether op is one of the precedence-14
// assignment operators, which trigger the LHS transformation
// (spec.md §4.8.4).
func (o Op) IsAssignment() bool {
	switch o {
	case OpAssign, OpAddAssign, OpSubAssign, OpMulAssign, OpDivAssign, OpModAssign,
		OpAndAssign, OpOrAssign, OpXorAssign, OpShlAssign, OpShrAssign:
		return true
	}
	return false
}

// binaryForSymbol and unaryForSymbol give the operator a Symbol token
// maps to in binary/unary position respectively. Some symbols
// (+ - * &) are ambiguous and the builder picks based on whether the
// current root is waiting for a right operand (spec.md §4.8).
var binaryForSymbol = map[Symbol]Op{
	SymPlus: OpAdd, SymMinus: OpSub, SymStar: OpMul, SymSlash: OpDiv, SymPercent: OpMod,
	SymAmp: OpBitAnd, SymPipe: OpBitOr, SymCaret: OpBitXor,
	SymShl: OpShl, SymShr: OpShr,
	SymLt: OpLt, SymLe: OpLe, SymGt: OpGt, SymGe: OpGe,
	SymEq: OpEq, SymNe: OpNe,
	SymAndAnd: OpLogicalAnd, SymOrOr: OpLogicalOr,
	SymAssign: OpAssign, SymPlusEq: OpAddAssign, SymMinusEq: OpSubAssign,
	SymStarEq: OpMulAssign, SymSlashEq: OpDivAssign, SymPercentEq: OpModAssign,
	SymAmpEq: OpAndAssign, SymPipeEq: OpOrAssign, SymCaretEq: OpXorAssign,
	SymShlEq: OpShlAssign, SymShrEq: OpShrAssign,
	SymComma: OpComma, SymDot: OpMember, SymArrow: OpArrow,
}

var unaryPrefixForSymbol = map[Symbol]Op{
	SymPlus: OpUnaryPlus, SymMinus: OpUnaryMinus, SymStar: OpDeref, SymAmp: OpAddressOf,
	SymBang: OpLogicalNot, SymTilde: OpBitNot,
	SymIncrement: OpPreInc, SymDecrement: OpPreDec,
}

var unaryPostfixForSymbol = map[Symbol]Op{
	SymIncrement: OpPostInc, SymDecrement: OpPostDec,
}

var opSpelling = map[Op]string{
	OpSubscript: "[]", OpMember: ".", OpArrow: "->", OpPostInc: "++", OpPostDec: "--", OpCall: "()",
	OpPreInc: "++", OpPreDec: "--", OpUnaryPlus: "+", OpUnaryMinus: "-",
	OpLogicalNot: "!", OpBitNot: "~", OpDeref: "*", OpAddressOf: "&", OpCast: "cast", OpSizeof: "sizeof",
	OpMul: "*", OpDiv: "/", OpMod: "%", OpAdd: "+", OpSub: "-",
	OpShl: "<<", OpShr: ">>", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpEq: "==", OpNe: "!=", OpBitAnd: "&", OpBitXor: "^", OpBitOr: "|",
	OpLogicalAnd: "&&", OpLogicalOr: "||", OpTernary: "?:",
	OpAssign: "=", OpAddAssign: "+=", OpSubAssign: "-=", OpMulAssign: "*=", OpDivAssign: "/=",
	OpModAssign: "%=", OpAndAssign: "&=", OpOrAssign: "|=", OpXorAssign: "^=",
	OpShlAssign: "<<=", OpShrAssign: ">>=", OpComma: ",",
}

func (o Op) String() string {
	if s, ok := opSpelling[o]; ok {
		return s
	}
	return "<op>"
}
