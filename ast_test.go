package cfront

import "testing"

func intLeaf(v uint64) *Node {
	return newLeaf(Literal{Tok: Token{Kind: TokNumber, Num: Number{Type: NumInt, IntVal: v}}}, Single(loc()))
}

func varLeaf(name string) *Node {
	return newLeaf(Literal{IsVariable: true, Variable: Variable{Name: name, HasName: true}}, Single(loc()))
}

func typeKeywordLeaf(kw Keyword) *Node {
	return newLeaf(Literal{IsVariable: true, Variable: Variable{Attrs: []Attribute{{Kind: AttrKeyword, Keyword: kw}}}}, Single(loc()))
}

func TestPushLeafIntoEmptyBecomesTheLeaf(t *testing.T) {
	n := newEmpty()
	if err := n.pushLeaf(intLeaf(7)); err != nil {
		t.Fatal(err)
	}
	if n.Kind != NodeLeaf || n.Leaf.Tok.Num.IntVal != 7 {
		t.Fatalf("got %+v", n)
	}
}

func TestPushLeafMergesAttributeKeywordsOntoPureType(t *testing.T) {
	// "unsigned long" — two attribute-only keywords merge onto one Variable.
	n := newEmpty()
	if err := n.pushLeaf(typeKeywordLeaf(KwUnsigned)); err != nil {
		t.Fatal(err)
	}
	if err := n.pushLeaf(typeKeywordLeaf(KwLong)); err != nil {
		t.Fatal(err)
	}
	if len(n.Leaf.Variable.Attrs) != 2 {
		t.Fatalf("expected both attrs merged, got %+v", n.Leaf.Variable)
	}
	if n.Leaf.Variable.HasName {
		t.Fatal("should still be nameless after merging only attribute keywords")
	}
}

func TestPushLeafAttachesNameAfterAttributes(t *testing.T) {
	// "int x" — "int" pure type, then "x" attaches as the declared name.
	n := newEmpty()
	n.pushLeaf(typeKeywordLeaf(KwInt))
	if err := n.pushLeaf(varLeaf("x")); err != nil {
		t.Fatal(err)
	}
	if !n.Leaf.Variable.HasName || n.Leaf.Variable.Name != "x" {
		t.Fatalf("got %+v", n.Leaf.Variable)
	}
	if len(n.Leaf.Variable.Attrs) != 1 {
		t.Fatalf("expected the int attribute preserved, got %+v", n.Leaf.Variable.Attrs)
	}
}

func TestPushLeafTwoNamedVariablesIsError(t *testing.T) {
	n := newEmpty()
	n.pushLeaf(varLeaf("x"))
	if err := n.pushLeaf(varLeaf("y")); err == nil {
		t.Fatal("expected an error pushing two consecutive named variables")
	}
}

func TestPushOpWrapsLeafAsBinary(t *testing.T) {
	root := newEmpty()
	root.pushLeaf(intLeaf(1))
	root, err := pushOp(root, OpAdd)
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != NodeBinary || root.Op != OpAdd {
		t.Fatalf("got %+v", root)
	}
	root.pushLeaf(intLeaf(2))
	if root.Left.Leaf.Tok.Num.IntVal != 1 || root.Right.Leaf.Tok.Num.IntVal != 2 {
		t.Fatalf("got %+v", root)
	}
}

func TestPushOpPrecedenceNestsTighterOperator(t *testing.T) {
	// 1 + 2 * 3: '*' should nest under '+' rather than wrap the whole thing.
	root := newEmpty()
	root.pushLeaf(intLeaf(1))
	root, _ = pushOp(root, OpAdd)
	root.pushLeaf(intLeaf(2))
	root, err := pushOp(root, OpMul)
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != NodeBinary || root.Op != OpAdd {
		t.Fatalf("expected + to remain the root, got %+v", root)
	}
	if root.Right.Kind != NodeBinary || root.Right.Op != OpMul {
		t.Fatalf("expected * nested on the right of +, got %+v", root.Right)
	}
}

func TestPushOpLeftAssociativeSamePrecedenceWrapsOutward(t *testing.T) {
	// 1 - 2 - 3 should read as (1 - 2) - 3, so the second '-' wraps the root.
	root := newEmpty()
	root.pushLeaf(intLeaf(1))
	root, _ = pushOp(root, OpSub)
	root.pushLeaf(intLeaf(2))
	root, err := pushOp(root, OpSub)
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != NodeBinary || root.Op != OpSub {
		t.Fatalf("got %+v", root)
	}
	if root.Left.Kind != NodeBinary || root.Left.Op != OpSub {
		t.Fatalf("expected the first subtraction nested on the left, got %+v", root.Left)
	}
}

func TestPushOpRightAssociativeAssignChains(t *testing.T) {
	// a = b = 1 should read as a = (b = 1): assignment nests on the right.
	root := newEmpty()
	root.pushLeaf(varLeaf("a"))
	root, _ = pushOp(root, OpAssign)
	root.pushLeaf(varLeaf("b"))
	root, err := pushOp(root, OpAssign)
	if err != nil {
		t.Fatal(err)
	}
	if root.Kind != NodeBinary || root.Op != OpAssign {
		t.Fatalf("got %+v", root)
	}
	if root.Right.Kind != NodeBinary || root.Right.Op != OpAssign {
		t.Fatalf("expected the second assignment nested on the right, got %+v", root.Right)
	}
}

func TestIsPureTypeTailDetectsCastCandidate(t *testing.T) {
	n := newEmpty()
	n.pushLeaf(typeKeywordLeaf(KwInt))
	if _, ok := n.isPureTypeTail(); !ok {
		t.Fatal("a bare 'int' leaf should be a pure-type tail")
	}
	n.pushLeaf(varLeaf("x"))
	if _, ok := n.isPureTypeTail(); ok {
		t.Fatal("once named, it is no longer a pure type")
	}
}

func TestIsPureTypeTailThroughNestedParens(t *testing.T) {
	inner := newEmpty()
	inner.pushLeaf(typeKeywordLeaf(KwInt))
	wrapped := &Node{Kind: NodeParens, Inner: inner}
	if _, ok := wrapped.isPureTypeTail(); !ok {
		t.Fatal("redundant parens around a pure type should still be detected")
	}
}

func TestOpenTernaryAndHandleColon(t *testing.T) {
	root := newEmpty()
	root.pushLeaf(varLeaf("cond"))
	root = openTernary(root)
	root.TSuccess.pushLeaf(varLeaf("a"))
	if err := root.handleColon(); err != nil {
		t.Fatal(err)
	}
	if !root.THasFailure {
		t.Fatal("handleColon should open the failure branch")
	}
	root.pushLeaf(varLeaf("b"))
	if root.TFailure.Leaf.Variable.Name != "b" {
		t.Fatalf("got %+v", root.TFailure)
	}
}

func TestHandleColonErrorsWithoutOpenTernary(t *testing.T) {
	root := newEmpty()
	root.pushLeaf(varLeaf("x"))
	if err := root.handleColon(); err == nil {
		t.Fatal("expected an error: no ternary is open")
	}
}

func TestTryMakeFunctionConvertsBareVariable(t *testing.T) {
	root := newEmpty()
	root.pushLeaf(varLeaf("foo"))
	if !root.tryMakeFunction() {
		t.Fatal("expected a bare variable to convert into a function call")
	}
	if root.Kind != NodeFunctionCall || root.Callee.Name != "foo" {
		t.Fatalf("got %+v", root)
	}
}

func TestTryMakeFunctionRejectsNonVariable(t *testing.T) {
	root := newEmpty()
	root.pushLeaf(intLeaf(1))
	if root.tryMakeFunction() {
		t.Fatal("a numeric literal cannot become a function call")
	}
}

func TestTryCloseFunctionMarksFull(t *testing.T) {
	root := newEmpty()
	root.pushLeaf(varLeaf("foo"))
	root.tryMakeFunction()
	root.pushLeaf(varLeaf("a"))
	if !root.tryCloseFunction() {
		t.Fatal("expected the call to close")
	}
	if !root.Full {
		t.Fatal("expected Full to be set")
	}
	if root.tryCloseFunction() {
		t.Fatal("closing an already-full call should fail")
	}
}

func TestIdentBlockTagOnlyConvertsToType(t *testing.T) {
	// struct Foo x; — "Foo" is captured as a tag with no braces.
	root := &Node{Kind: NodeControlFlow, CF: &ControlFlow{
		Kind: CFIdentBlock, IdentKind: "struct", Ident: "Foo", HasIdent: true,
	}}
	wrapper, ok := identBlockTagOnly(root)
	if !ok {
		t.Fatal("expected a tag-only struct to be detected")
	}
	converted := tagAsType(wrapper.CF)
	if converted.Kind != NodeLeaf || !converted.Leaf.IsVariable {
		t.Fatalf("got %+v", converted)
	}
	if converted.Leaf.Variable.HasName {
		t.Fatal("the converted type should not yet have a name")
	}
}

func TestIdentBlockTagOnlyRejectsOpenBlock(t *testing.T) {
	root := &Node{Kind: NodeControlFlow, CF: &ControlFlow{
		Kind: CFIdentBlock, IdentKind: "struct", Ident: "Foo", HasIdent: true, HasBlock: true, Block: newEmpty(),
	}}
	if _, ok := identBlockTagOnly(root); ok {
		t.Fatal("a struct with an open block is not tag-only")
	}
}

func TestCfOpenBodyFindsLoopBody(t *testing.T) {
	cf := &ControlFlow{Kind: CFLoopParens, LoopKind: "while", LoopBody: newEmpty()}
	body, ok := cfOpenBody(cf)
	if !ok || body != cf.LoopBody {
		t.Fatalf("expected the loop body to be returned, got %+v ok=%v", body, ok)
	}
}

func TestCfOpenBodyFindsTypedefInner(t *testing.T) {
	inner := newEmpty()
	cf := &ControlFlow{Kind: CFTypedef, TypedefMode: 2, TypedefInner: inner}
	body, ok := cfOpenBody(cf)
	if !ok || body != inner {
		t.Fatalf("expected the typedef's inner node, got %+v ok=%v", body, ok)
	}
}

func TestCaseAwaitingSeparatorRecursesThroughSwitchBody(t *testing.T) {
	// switch (x) { case 1: ... } — the case node sits inside the
	// switch's loop body, not directly at the switch node itself.
	caseCF := &ControlFlow{Kind: CFCase, Value: varLeaf("1"), HasValue: true}
	caseNode := &Node{Kind: NodeControlFlow, CF: caseCF}
	switchCF := &ControlFlow{Kind: CFLoopParens, LoopKind: "switch", LoopBody: caseNode}
	switchNode := &Node{Kind: NodeControlFlow, CF: switchCF}

	found, ok := caseAwaitingSeparator(switchNode)
	if !ok || found != caseCF {
		t.Fatalf("expected to find the nested case, got %+v ok=%v", found, ok)
	}
}

func TestMakeLHSDrillsThroughBlockToAssignmentTarget(t *testing.T) {
	// { x } — makeLHS on the Block should validate/rewrite its last element.
	block := &Node{Kind: NodeBlock, Elts: []*Node{varLeaf("x")}}
	if err := block.makeLHS(); err != nil {
		t.Fatal(err)
	}
}

func TestMakeLHSRejectsConstantTarget(t *testing.T) {
	block := &Node{Kind: NodeBlock, Elts: []*Node{intLeaf(5)}}
	if err := block.makeLHS(); err == nil {
		t.Fatal("a numeric constant is not a valid assignment target")
	}
}

func TestTailIsEmptyOnFreshEmptyNode(t *testing.T) {
	n := newEmpty()
	if !tailIsEmpty(n) {
		t.Fatal("a fresh Empty node has an empty tail")
	}
	n.pushLeaf(intLeaf(1))
	if tailIsEmpty(n) {
		t.Fatal("a filled leaf is not an empty tail")
	}
}

func TestVariableStringRendersAttrsAndName(t *testing.T) {
	v := Variable{Attrs: []Attribute{{Kind: AttrKeyword, Keyword: KwInt}}, Name: "x", HasName: true}
	if got := v.String(); got != "int x" {
		t.Fatalf("got %q", got)
	}
}
