package cfront

import "testing"

// parseOK lexes and parses src, failing the test on any lexer or
// parser error diagnostic, then returns the root Block node.
func parseOK(t *testing.T, src string) *Node {
	t.Helper()
	lexRes := Lex(src, NewLocation("t.c"))
	for _, d := range lexRes.Diagnostics {
		if d.Severity == SevError {
			t.Fatalf("unexpected lex error in %q: %s", src, d.Message)
		}
	}
	parseRes := Parse(lexRes.Value)
	for _, d := range parseRes.Diagnostics {
		if d.Severity == SevError {
			t.Fatalf("unexpected parse error in %q: %s", src, d.Message)
		}
	}
	if parseRes.Value.Kind != NodeBlock {
		t.Fatalf("root should be a Block, got %v", parseRes.Value.Kind)
	}
	return parseRes.Value
}

func TestParseSimpleDeclaration(t *testing.T) {
	root := parseOK(t, "int x;")
	if len(root.Elts) != 1 {
		t.Fatalf("want 1 top-level element, got %d: %+v", len(root.Elts), root.Elts)
	}
	leaf := root.Elts[0]
	if leaf.Kind != NodeLeaf || !leaf.Leaf.IsVariable {
		t.Fatalf("got %+v", leaf)
	}
	v := leaf.Leaf.Variable
	if !v.HasName || v.Name != "x" || len(v.Attrs) != 1 || v.Attrs[0].Keyword != KwInt {
		t.Fatalf("got %+v", v)
	}
}

func TestParseAssignment(t *testing.T) {
	root := parseOK(t, "x = 1;")
	if len(root.Elts) != 1 {
		t.Fatalf("want 1 element, got %d", len(root.Elts))
	}
	n := root.Elts[0]
	if n.Kind != NodeBinary || n.Op != OpAssign {
		t.Fatalf("got %+v", n)
	}
	if n.Left.Leaf.Variable.Name != "x" {
		t.Fatalf("got %+v", n.Left)
	}
	if n.Right.Leaf.Tok.Num.IntVal != 1 {
		t.Fatalf("got %+v", n.Right)
	}
}

func TestParseArithmeticPrecedence(t *testing.T) {
	root := parseOK(t, "x = 1 + 2 * 3;")
	assign := root.Elts[0]
	if assign.Kind != NodeBinary || assign.Op != OpAssign {
		t.Fatalf("got %+v", assign)
	}
	add := assign.Right
	if add.Kind != NodeBinary || add.Op != OpAdd {
		t.Fatalf("expected + at the top of the rhs, got %+v", add)
	}
	mul := add.Right
	if mul.Kind != NodeBinary || mul.Op != OpMul {
		t.Fatalf("expected * nested under +, got %+v", mul)
	}
}

func TestParseLeftAssociativeChain(t *testing.T) {
	root := parseOK(t, "x = 1 - 2 - 3;")
	sub := root.Elts[0].Right
	if sub.Kind != NodeBinary || sub.Op != OpSub {
		t.Fatalf("got %+v", sub)
	}
	if sub.Left.Kind != NodeBinary || sub.Left.Op != OpSub {
		t.Fatalf("expected (1-2)-3 shape, got %+v", sub.Left)
	}
	if sub.Right.Leaf.Tok.Num.IntVal != 3 {
		t.Fatalf("got %+v", sub.Right)
	}
}

func TestParseIfElse(t *testing.T) {
	root := parseOK(t, "if (x) y; else z;")
	n := root.Elts[0]
	if n.Kind != NodeControlFlow || n.CF.Kind != CFCondition {
		t.Fatalf("got %+v", n)
	}
	if n.CF.Cond == nil || n.CF.Success == nil || !n.CF.HasFailure || n.CF.Failure == nil {
		t.Fatalf("expected full if/else, got %+v", n.CF)
	}
}

func TestParseDanglingElseBindsToNearestIf(t *testing.T) {
	root := parseOK(t, "if (a) if (b) x; else y;")
	outer := root.Elts[0].CF
	if outer.Kind != CFCondition || outer.HasFailure {
		t.Fatalf("outer if should have no else, got %+v", outer)
	}
	inner := outer.Success
	if inner.Kind != NodeControlFlow || inner.CF.Kind != CFCondition {
		t.Fatalf("got %+v", inner)
	}
	if !inner.CF.HasFailure {
		t.Fatalf("else should bind to the inner if, got %+v", inner.CF)
	}
}

func TestParseForLoop(t *testing.T) {
	root := parseOK(t, "for (i = 0; i < 10; i = i + 1) { x; }")
	n := root.Elts[0]
	if n.Kind != NodeControlFlow || n.CF.Kind != CFLoopParens || n.CF.LoopKind != "for" {
		t.Fatalf("got %+v", n)
	}
	parens := n.CF.Parens
	if parens.Kind != NodeBlock || len(parens.Elts) != 3 {
		t.Fatalf("expected a 3-clause block for the for-parens, got %+v", parens)
	}
	body := n.CF.LoopBody
	if body.Kind != NodeBlock || len(body.Elts) != 1 {
		t.Fatalf("got %+v", body)
	}
}

func TestParseWhileLoop(t *testing.T) {
	root := parseOK(t, "while (x) { y; }")
	n := root.Elts[0]
	if n.Kind != NodeControlFlow || n.CF.Kind != CFLoopParens || n.CF.LoopKind != "while" {
		t.Fatalf("got %+v", n)
	}
	if n.CF.LoopBody == nil || len(n.CF.LoopBody.Elts) != 1 {
		t.Fatalf("got %+v", n.CF.LoopBody)
	}
}

func TestParseDoWhile(t *testing.T) {
	root := parseOK(t, "do { x; } while (y);")
	n := root.Elts[0]
	if n.Kind != NodeControlFlow || n.CF.Kind != CFDoWhile {
		t.Fatalf("got %+v", n)
	}
	if n.CF.LoopBody == nil || len(n.CF.LoopBody.Elts) != 1 {
		t.Fatalf("expected the do-body, got %+v", n.CF.LoopBody)
	}
	if n.CF.Parens == nil {
		t.Fatalf("expected the while(...) condition attached, got %+v", n.CF)
	}
}

func TestParseSwitchCaseDefault(t *testing.T) {
	root := parseOK(t, "switch (x) { case 1: y; break; default: z; }")
	n := root.Elts[0]
	if n.Kind != NodeControlFlow || n.CF.Kind != CFLoopParens || n.CF.LoopKind != "switch" {
		t.Fatalf("got %+v", n)
	}
	body := n.CF.LoopBody
	// "case"/"default" only own the one statement directly after their
	// ':'; once that statement's ';' closes, later statements (here
	// "break;") become siblings in the switch body, same as C's own
	// fall-through-by-default statement sequencing.
	if body.Kind != NodeBlock || len(body.Elts) != 3 {
		t.Fatalf("expected case, break, and default as siblings, got %+v", body.Elts)
	}
	caseNode := body.Elts[0]
	if caseNode.Kind != NodeControlFlow || caseNode.CF.Kind != CFCase {
		t.Fatalf("got %+v", caseNode)
	}
	if !caseNode.CF.SeparatorSeen {
		t.Fatalf("case separator should have been consumed, got %+v", caseNode.CF)
	}
	breakNode := body.Elts[1]
	if breakNode.Kind != NodeControlFlow || breakNode.CF.Kind != CFSemiColon || !breakNode.CF.IsBreak {
		t.Fatalf("got %+v", breakNode)
	}
	defaultNode := body.Elts[2]
	if defaultNode.Kind != NodeControlFlow || defaultNode.CF.Kind != CFDefault {
		t.Fatalf("got %+v", defaultNode)
	}
}

func TestParseStructTagOnlyDeclaration(t *testing.T) {
	root := parseOK(t, "struct Foo x;")
	n := root.Elts[0]
	if n.Kind != NodeLeaf || !n.Leaf.IsVariable {
		t.Fatalf("a tag-only struct decl should convert to a plain variable leaf, got %+v", n)
	}
	v := n.Leaf.Variable
	if !v.HasName || v.Name != "x" {
		t.Fatalf("got %+v", v)
	}
	found := false
	for _, a := range v.Attrs {
		if a.Kind == AttrUser && a.User == "Foo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the tag name among the attributes, got %+v", v.Attrs)
	}
}

func TestParseTypedefStructDefinition(t *testing.T) {
	root := parseOK(t, "typedef struct { int a; } Foo;")
	n := root.Elts[0]
	if n.Kind != NodeControlFlow || n.CF.Kind != CFTypedef {
		t.Fatalf("got %+v", n)
	}
	if n.CF.TypedefMode != 2 || n.CF.TypedefInner == nil {
		t.Fatalf("expected a Definition-mode typedef, got %+v", n.CF)
	}
	if !n.CF.HasTypedefName || n.CF.TypedefName != "Foo" {
		t.Fatalf("got %+v", n.CF)
	}
}

func TestParseFunctionCall(t *testing.T) {
	root := parseOK(t, "foo(a, b);")
	n := root.Elts[0]
	if n.Kind != NodeFunctionCall {
		t.Fatalf("got %+v", n)
	}
	if n.Callee.Name != "foo" {
		t.Fatalf("got %+v", n.Callee)
	}
	if len(n.Elts) != 2 {
		t.Fatalf("want 2 args, got %d: %+v", len(n.Elts), n.Elts)
	}
}

func TestParseArraySubscriptAssignment(t *testing.T) {
	root := parseOK(t, "a[i] = 1;")
	n := root.Elts[0]
	if n.Kind != NodeBinary || n.Op != OpAssign {
		t.Fatalf("got %+v", n)
	}
	sub := n.Left
	if sub.Kind != NodeBinary || sub.Op != OpSubscript {
		t.Fatalf("expected a subscript on the lhs, got %+v", sub)
	}
}

func TestParseTernary(t *testing.T) {
	root := parseOK(t, "x = a ? b : c;")
	tern := root.Elts[0].Right
	if tern.Kind != NodeTernary {
		t.Fatalf("got %+v", tern)
	}
	if tern.TCond == nil || tern.TSuccess == nil || !tern.THasFailure || tern.TFailure == nil {
		t.Fatalf("expected a fully-formed ternary, got %+v", tern)
	}
}

func TestParseCastExpression(t *testing.T) {
	root := parseOK(t, "x = (int) y;")
	rhs := root.Elts[0].Right
	if rhs.Kind != NodeCast {
		t.Fatalf("expected (int) to be read as a cast, got %+v", rhs)
	}
	if !rhs.CastType.isPureType() || rhs.CastType.Attrs[0].Keyword != KwInt {
		t.Fatalf("got %+v", rhs.CastType)
	}
	if rhs.CastValue == nil || rhs.CastValue.Leaf.Variable.Name != "y" {
		t.Fatalf("got %+v", rhs.CastValue)
	}
}

func TestParseCommaSeparatesCallArgsNotOperator(t *testing.T) {
	root := parseOK(t, "foo(a, b);")
	n := root.Elts[0]
	if n.Kind != NodeFunctionCall || len(n.Elts) != 2 {
		t.Fatalf("comma inside call args should separate, got %+v", n)
	}
	for _, e := range n.Elts {
		if e.Kind == NodeBinary && e.Op == OpComma {
			t.Fatalf("call args must not be read as a comma expression, got %+v", e)
		}
	}
}

func TestParseCommaIsOperatorInsideRedundantParens(t *testing.T) {
	root := parseOK(t, "x = (a, b);")
	rhs := root.Elts[0].Right
	if rhs.Kind != NodeParens {
		t.Fatalf("got %+v", rhs)
	}
	inner := rhs.Inner
	if inner.Kind != NodeBinary || inner.Op != OpComma {
		t.Fatalf("expected a comma operator inside the parens, got %+v", inner)
	}
}

func TestParseGotoAndLabel(t *testing.T) {
	root := parseOK(t, "goto end; end: x;")
	if len(root.Elts) != 2 {
		t.Fatalf("want 2 top-level elements, got %d: %+v", len(root.Elts), root.Elts)
	}
	g := root.Elts[0]
	if g.Kind != NodeControlFlow || g.CF.Kind != CFGoto || g.CF.Label != "end" {
		t.Fatalf("got %+v", g)
	}
	label := root.Elts[1]
	if label.Kind != NodeControlFlow || label.CF.Kind != CFLabel || label.CF.Label != "end" {
		t.Fatalf("got %+v", label)
	}
}

func TestParseUnterminatedParenIsError(t *testing.T) {
	lexRes := Lex("foo(a, b;", NewLocation("t.c"))
	parseRes := Parse(lexRes.Value)
	if !parseRes.HasErrors() {
		t.Fatalf("expected an unterminated-bracket error, got %v", parseRes.Diagnostics)
	}
}

func TestParseBreakAndContinue(t *testing.T) {
	root := parseOK(t, "while (x) { break; continue; }")
	body := root.Elts[0].CF.LoopBody
	if len(body.Elts) != 2 {
		t.Fatalf("got %+v", body.Elts)
	}
	if body.Elts[0].CF.Kind != CFSemiColon || !body.Elts[0].CF.IsBreak {
		t.Fatalf("got %+v", body.Elts[0])
	}
	if body.Elts[1].CF.Kind != CFSemiColon || body.Elts[1].CF.IsBreak {
		t.Fatalf("got %+v", body.Elts[1])
	}
}

func TestParseReturnWithValue(t *testing.T) {
	root := parseOK(t, "return 1 + 2;")
	n := root.Elts[0]
	if n.Kind != NodeControlFlow || n.CF.Kind != CFReturn || !n.CF.HasValue {
		t.Fatalf("got %+v", n)
	}
	if n.CF.Value.Kind != NodeBinary || n.CF.Value.Op != OpAdd {
		t.Fatalf("got %+v", n.CF.Value)
	}
}
