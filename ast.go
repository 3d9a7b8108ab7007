package cfront

import (
	"fmt"
	"strings"
)

// NodeKind tags the closed AST sum type (spec.md §3.6). A single struct
// with a kind tag is used instead of per-variant types so push_leaf and
// push_op can dispatch with one switch, per the "single closed sum
// type" design note.
type NodeKind int

const (
	NodeEmpty NodeKind = iota
	NodeLeaf
	NodeUnary
	NodeBinary
	NodeTernary
	NodeFunctionCall
	NodeListInit
	NodeBlock
	NodeParens
	NodeCast
	NodeControlFlow
)

// AttrKind tags an Attribute variant (spec.md §3.7).
type AttrKind int

const (
	AttrIndirection AttrKind = iota
	AttrKeyword
	AttrUser
)

type Attribute struct {
	Kind    AttrKind
	Keyword Keyword
	User    string
}

func (a Attribute) String() string {
	switch a.Kind {
	case AttrIndirection:
		return "*"
	case AttrKeyword:
		return keywordSpelling(a.Keyword)
	case AttrUser:
		return a.User
	}
	return "?"
}

// VarNameKind tags whether a Variable's name slot is empty, a keyword
// constant (true/false/nullptr, handled elsewhere), or user text.
type VarNameKind int

const (
	VarNameNone VarNameKind = iota
	VarNameUser
)

// Variable is a Leaf's non-constant shape: an attribute list plus an
// optional name (spec.md §3.6, §3.7). A Variable with attrs set and no
// name is a "pure type", the only shape legal inside a cast/sizeof.
type Variable struct {
	Attrs []Attribute
	Name  string
	HasName bool
}

func (v Variable) String() string {
	parts := make([]string, 0, len(v.Attrs)+1)
	for _, a := range v.Attrs {
		parts = append(parts, a.String())
	}
	if v.HasName {
		parts = append(parts, v.Name)
	}
	return strings.Join(parts, " ")
}

func (v Variable) isPureType() bool {
	return len(v.Attrs) > 0 && !v.HasName
}

// Literal is a Leaf's payload: either a Variable or a scalar constant
// token (char/number/string/true/false/nullptr).
type Literal struct {
	IsVariable bool
	Variable   Variable
	Tok        Token
}

func (l Literal) String() string {
	if l.IsVariable {
		return l.Variable.String()
	}
	return l.Tok.Text()
}

// ControlFlow holds the per-kind state of a control-flow AST node
// (spec.md §3.6, §4.9). Only the fields relevant to Kind are live.
type ControlFlow struct {
	Kind CFKind

	// SemiColon
	IsBreak bool

	// Return / Case: value being returned or matched
	Value *Node
	HasValue bool

	// Goto / Label
	Label string

	// Case / Default / Label body. SeparatorSeen marks that the ':'
	// after the Case value (or Default) has been consumed, so
	// subsequent pushes target Body rather than Value.
	Body          *Node
	SeparatorSeen bool

	// Condition (if)
	Cond        *Node
	Success     *Node
	Failure     *Node
	HasFailure  bool
	FullSuccess bool
	FullFailure bool

	// ParensBlock (for/while/switch) and DoWhile
	LoopKind string // "for" | "while" | "switch" | "do"
	Parens   *Node
	HasParens bool
	LoopBody *Node

	// IdentBlock (struct/union/enum)
	IdentKind string // "struct" | "union" | "enum"
	Ident     string
	HasIdent  bool
	Block     *Node
	HasBlock  bool

	// Typedef
	TypedefMode  int // 0 = none, 1 = Type(var), 2 = Definition(inner, name)
	TypedefVar   *Node
	TypedefInner *Node
	TypedefName  string
	HasTypedefName bool

	Full bool
}

type CFKind int

const (
	CFSemiColon CFKind = iota
	CFReturn
	CFGoto
	CFCase
	CFDefault
	CFLabel
	CFCondition
	CFLoopParens
	CFDoWhile
	CFIdentBlock
	CFTypedef
)

// Node is the AST sum type. Exactly the fields relevant to Kind are
// meaningful; the rest are zero. nil child pointers denote an empty
// slot per spec.md Invariant 3 (an operator with a missing arm is
// mid-parse, never in a finalized tree).
type Node struct {
	Kind  NodeKind
	Range Range

	Leaf Literal

	Op    Op
	Left  *Node // Unary: the operand. Binary: the left operand.
	Right *Node // Binary: the right operand.

	TCond    *Node
	TSuccess *Node
	TFailure *Node
	THasFailure bool

	Callee   Variable
	Elts     []*Node // FunctionCall args, Block/ListInit elements
	Full     bool

	Inner *Node // ParensBlock

	CastType  Variable // pure-type Variable naming the destination
	CastValue *Node

	CF *ControlFlow
}

func newEmpty() *Node { return &Node{Kind: NodeEmpty} }

func newLeaf(lit Literal, rng Range) *Node {
	return &Node{Kind: NodeLeaf, Leaf: lit, Range: rng}
}

// isAtomic reports whether n cannot itself absorb another node as a
// child without wrapping (a finished leaf, parens group, or full
// container).
func (n *Node) isAtomic() bool {
	switch n.Kind {
	case NodeLeaf, NodeParens:
		return true
	case NodeFunctionCall, NodeListInit, NodeBlock:
		return n.Full
	}
	return false
}

// canPushLeaf reports whether pushing a leaf into n's right spine can
// succeed, mirroring can_push_leaf in the builder's source material.
func (n *Node) canPushLeaf(isUserVariable bool) bool {
	switch n.Kind {
	case NodeEmpty:
		return true
	case NodeTernary:
		if !n.THasFailure {
			return true
		}
		return n.TFailure.canPushLeaf(isUserVariable)
	case NodeLeaf:
		// A Variable still missing its name has room for more
		// attribute keywords or the final identifier; one that
		// already has a name (or a scalar constant) is finished.
		return n.Leaf.IsVariable && !n.Leaf.Variable.HasName
	case NodeParens:
		return false
	case NodeUnary:
		return n.Left == nil || n.Left.canPushLeaf(isUserVariable)
	case NodeBinary:
		return n.Right == nil || n.Right.canPushLeaf(isUserVariable)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full {
			return false
		}
		if len(n.Elts) == 0 {
			return true
		}
		last := n.Elts[len(n.Elts)-1]
		return last.canPushLeaf(isUserVariable) || (n.Kind == NodeBlock && closedStatement(last))
	case NodeCast:
		return n.CastValue == nil || n.CastValue.canPushLeaf(isUserVariable)
	case NodeControlFlow:
		return n.CF.canPushLeaf(isUserVariable)
	}
	return false
}

// closedStatement reports whether last is a control-flow statement
// whose braced body has been closed, so that the next leaf in the
// enclosing Block starts a new statement beside it.
func closedStatement(last *Node) bool {
	if last.Kind != NodeControlFlow {
		return false
	}
	if last.CF.Kind == CFCondition {
		return last.CF.FullSuccess && (!last.CF.HasFailure || last.CF.FullFailure)
	}
	return last.CF.Full
}

// canPushLeaf mirrors pushLeaf's dispatch: a control-flow node accepts
// a leaf wherever pushLeaf would actually land one, so the two must
// stay in lockstep (spec.md §4.8.1, §4.9).
func (cf *ControlFlow) canPushLeaf(isUserVariable bool) bool {
	switch cf.Kind {
	case CFReturn:
		return !cf.HasValue || cf.Value.canPushLeaf(isUserVariable)
	case CFCase:
		if !cf.SeparatorSeen {
			return !cf.HasValue || cf.Value.canPushLeaf(isUserVariable)
		}
		return cf.Body == nil || cf.Body.canPushLeaf(isUserVariable)
	case CFDefault, CFLabel:
		return cf.Body == nil || cf.Body.canPushLeaf(isUserVariable)
	case CFCondition:
		if !cf.FullSuccess {
			return cf.Success == nil || cf.Success.canPushLeaf(isUserVariable)
		}
		return cf.HasFailure && cf.Failure.canPushLeaf(isUserVariable)
	case CFLoopParens, CFDoWhile:
		return cf.LoopBody == nil || cf.LoopBody.canPushLeaf(isUserVariable)
	case CFIdentBlock:
		return cf.HasBlock && cf.Block.canPushLeaf(isUserVariable)
	case CFTypedef:
		switch cf.TypedefMode {
		case 0:
			return true
		case 1:
			return cf.TypedefVar.canPushLeaf(isUserVariable)
		case 2:
			if cf.TypedefInner != nil && cf.TypedefInner.canPushLeaf(isUserVariable) {
				return true
			}
			return !cf.HasTypedefName && isUserVariable
		}
	}
	return false
}

// pushLeaf implements spec.md §4.8.1: insert a value at the deepest
// empty slot along the right spine.
func (n *Node) pushLeaf(leaf *Node) error {
	isUserVar := leaf.Kind == NodeLeaf && leaf.Leaf.IsVariable && leaf.Leaf.Variable.HasName

	switch n.Kind {
	case NodeEmpty:
		*n = *leaf
		return nil

	case NodeLeaf:
		if n.Leaf.IsVariable && !n.Leaf.Variable.HasName &&
			leaf.Kind == NodeLeaf && leaf.Leaf.IsVariable {
			n.Leaf.Variable.Attrs = append(n.Leaf.Variable.Attrs, leaf.Leaf.Variable.Attrs...)
			if leaf.Leaf.Variable.HasName {
				n.Leaf.Variable.Name = leaf.Leaf.Variable.Name
				n.Leaf.Variable.HasName = true
			}
			return nil
		}
		return fmt.Errorf("parser error: Found 2 consecutive literals: block %s followed by %s.", n, leaf)

	case NodeParens:
		return fmt.Errorf("parser error: Found 2 consecutive literals: block %s followed by %s.", n, leaf)

	case NodeUnary:
		if n.Left == nil {
			n.Left = leaf
			return nil
		}
		return n.Left.pushLeaf(leaf)

	case NodeBinary:
		if n.Right == nil {
			n.Right = leaf
			return nil
		}
		return n.Right.pushLeaf(leaf)

	case NodeTernary:
		if n.THasFailure {
			return n.TFailure.pushLeaf(leaf)
		}
		return n.TSuccess.pushLeaf(leaf)

	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full {
			return fmt.Errorf("parser error: Found 2 consecutive literals: block %s followed by %s.", n, leaf)
		}
		if len(n.Elts) == 0 {
			n.Elts = []*Node{leaf}
			return nil
		}
		last := n.Elts[len(n.Elts)-1]
		if last.canPushLeaf(isUserVar) {
			return last.pushLeaf(leaf)
		}
		if n.Kind == NodeBlock && closedStatement(last) {
			n.Elts = append(n.Elts, leaf)
			return nil
		}
		return fmt.Errorf("parser error: Found 2 consecutive literals: block %s followed by %s.", n, leaf)

	case NodeCast:
		if n.CastValue == nil {
			n.CastValue = leaf
			return nil
		}
		return n.CastValue.pushLeaf(leaf)

	case NodeControlFlow:
		return n.CF.pushLeaf(leaf)
	}
	return fmt.Errorf("parser error: cannot push leaf into %s", n)
}

func (cf *ControlFlow) pushLeaf(leaf *Node) error {
	isUserVar := leaf.Kind == NodeLeaf && leaf.Leaf.IsVariable && leaf.Leaf.Variable.HasName
	switch cf.Kind {
	case CFReturn:
		if !cf.HasValue {
			cf.Value, cf.HasValue = leaf, true
			return nil
		}
		return cf.Value.pushLeaf(leaf)
	case CFCase:
		if !cf.SeparatorSeen {
			if !cf.HasValue {
				cf.Value, cf.HasValue = leaf, true
				return nil
			}
			return cf.Value.pushLeaf(leaf)
		}
		if cf.Body == nil {
			cf.Body = leaf
			return nil
		}
		return cf.Body.pushLeaf(leaf)
	case CFDefault, CFLabel:
		if cf.Body == nil {
			cf.Body = leaf
			return nil
		}
		return cf.Body.pushLeaf(leaf)
	case CFCondition:
		if !cf.FullSuccess {
			if cf.Success == nil {
				cf.Success = leaf
				return nil
			}
			return cf.Success.pushLeaf(leaf)
		}
		if cf.HasFailure {
			return cf.Failure.pushLeaf(leaf)
		}
		return fmt.Errorf("parser error: if statement is already full")
	case CFLoopParens, CFDoWhile:
		if cf.LoopBody == nil {
			cf.LoopBody = leaf
			return nil
		}
		return cf.LoopBody.pushLeaf(leaf)
	case CFIdentBlock:
		if cf.HasBlock {
			return cf.Block.pushLeaf(leaf)
		}
		return fmt.Errorf("parser error: cannot push into unopened block")
	case CFTypedef:
		switch cf.TypedefMode {
		case 0:
			cf.TypedefMode = 1
			cf.TypedefVar = leaf
			return nil
		case 1:
			return cf.TypedefVar.pushLeaf(leaf)
		case 2:
			if cf.TypedefInner != nil && cf.TypedefInner.canPushLeaf(isUserVar) {
				return cf.TypedefInner.pushLeaf(leaf)
			}
			if !cf.HasTypedefName && leaf.Kind == NodeLeaf && leaf.Leaf.IsVariable &&
				leaf.Leaf.Variable.HasName && len(leaf.Leaf.Variable.Attrs) == 0 {
				cf.TypedefName, cf.HasTypedefName = leaf.Leaf.Variable.Name, true
				return nil
			}
			return fmt.Errorf("parser error: unexpected token after typedef definition")
		}
	}
	return fmt.Errorf("parser error: cannot push leaf into control-flow node")
}

// pushOp implements spec.md §4.8.2, walking the right spine by
// precedence/associativity and wrapping at the correct depth. It
// returns the (possibly new) root that the caller must store back.
func pushOp(root *Node, op Op) (*Node, error) {
	info := operatorTable[op]

	switch root.Kind {
	case NodeEmpty:
		return makeOpNode(op, nil, nil), nil

	case NodeLeaf, NodeParens:
		return wrapAsRoot(op, root), nil

	case NodeCast:
		if root.CastValue == nil {
			root.CastValue = makeOpNode(op, nil, nil)
			return root, nil
		}
		oldInfo := operatorTable[OpCast]
		if oldInfo.Prec < info.Prec {
			return wrapAsRoot(op, root), nil
		}
		updated, err := pushOp(root.CastValue, op)
		if err != nil {
			return nil, err
		}
		root.CastValue = updated
		return root, nil

	case NodeFunctionCall, NodeListInit, NodeBlock:
		if root.Full {
			return wrapAsRoot(op, root), nil
		}
		if len(root.Elts) == 0 {
			root.Elts = []*Node{makeOpNode(op, nil, nil)}
			return root, nil
		}
		updated, err := pushOp(root.Elts[len(root.Elts)-1], op)
		if err != nil {
			return nil, err
		}
		root.Elts[len(root.Elts)-1] = updated
		return root, nil

	case NodeUnary:
		oldInfo := operatorTable[root.Op]
		if oldInfo.Prec < info.Prec {
			return wrapAsRoot(op, root), nil
		}
		if root.Left == nil {
			root.Left = makeOpNode(op, nil, nil)
			return root, nil
		}
		updated, err := pushOp(root.Left, op)
		if err != nil {
			return nil, err
		}
		root.Left = updated
		return root, nil

	case NodeBinary:
		oldInfo := operatorTable[root.Op]
		wrapHere := oldInfo.Prec < info.Prec || (oldInfo.Prec == info.Prec && info.Assoc == AssocLeft)
		if wrapHere {
			return wrapAsRoot(op, root), nil
		}
		if root.Right == nil {
			root.Right = makeOpNode(op, nil, nil)
			return root, nil
		}
		updated, err := pushOp(root.Right, op)
		if err != nil {
			return nil, err
		}
		root.Right = updated
		return root, nil

	case NodeTernary:
		if root.THasFailure {
			oldInfo := operatorTable[OpTernary]
			wrapHere := oldInfo.Prec < info.Prec || (oldInfo.Prec == info.Prec && info.Assoc == AssocLeft)
			if wrapHere {
				return wrapAsRoot(op, root), nil
			}
			updated, err := pushOp(root.TFailure, op)
			if err != nil {
				return nil, err
			}
			root.TFailure = updated
			return root, nil
		}
		updated, err := pushOp(root.TSuccess, op)
		if err != nil {
			return nil, err
		}
		root.TSuccess = updated
		return root, nil

	case NodeControlFlow:
		if err := root.CF.pushOp(op); err != nil {
			return nil, err
		}
		return root, nil
	}
	return nil, fmt.Errorf("parser error: cannot push operator into node")
}

// pushOp routes an operator into whichever slot of cf is currently
// open, recursing through pushOp on that slot's subtree.
func (cf *ControlFlow) pushOp(op Op) error {
	switch cf.Kind {
	case CFReturn:
		if !cf.HasValue {
			cf.Value, cf.HasValue = makeOpNode(op, nil, nil), true
			return nil
		}
		updated, err := pushOp(cf.Value, op)
		if err != nil {
			return err
		}
		cf.Value = updated
		return nil
	case CFCase:
		if !cf.SeparatorSeen {
			if !cf.HasValue {
				cf.Value, cf.HasValue = makeOpNode(op, nil, nil), true
				return nil
			}
			updated, err := pushOp(cf.Value, op)
			if err != nil {
				return err
			}
			cf.Value = updated
			return nil
		}
		if cf.Body == nil {
			cf.Body = makeOpNode(op, nil, nil)
			return nil
		}
		updated, err := pushOp(cf.Body, op)
		if err != nil {
			return err
		}
		cf.Body = updated
		return nil
	case CFCondition:
		if !cf.FullSuccess {
			if cf.Success == nil {
				cf.Success = makeOpNode(op, nil, nil)
				return nil
			}
			updated, err := pushOp(cf.Success, op)
			if err != nil {
				return err
			}
			cf.Success = updated
			return nil
		}
		if cf.HasFailure {
			updated, err := pushOp(cf.Failure, op)
			if err != nil {
				return err
			}
			cf.Failure = updated
			return nil
		}
		return fmt.Errorf("parser error: if statement is already full")
	case CFLoopParens, CFDoWhile:
		if cf.LoopBody == nil {
			cf.LoopBody = makeOpNode(op, nil, nil)
			return nil
		}
		updated, err := pushOp(cf.LoopBody, op)
		if err != nil {
			return err
		}
		cf.LoopBody = updated
		return nil
	case CFIdentBlock:
		if cf.HasBlock {
			updated, err := pushOp(cf.Block, op)
			if err != nil {
				return err
			}
			cf.Block = updated
			return nil
		}
		return fmt.Errorf("parser error: cannot push operator before block is opened")
	case CFTypedef:
		switch cf.TypedefMode {
		case 0:
			cf.TypedefMode = 1
			cf.TypedefVar = makeOpNode(op, nil, nil)
			return nil
		case 1:
			updated, err := pushOp(cf.TypedefVar, op)
			if err != nil {
				return err
			}
			cf.TypedefVar = updated
			return nil
		}
		return fmt.Errorf("parser error: cannot push operator after typedef definition")
	case CFDefault, CFLabel:
		if cf.Body == nil {
			cf.Body = makeOpNode(op, nil, nil)
			return nil
		}
		updated, err := pushOp(cf.Body, op)
		if err != nil {
			return err
		}
		cf.Body = updated
		return nil
	}
	return fmt.Errorf("parser error: cannot push operator into this control-flow node")
}

func makeOpNode(op Op, left, right *Node) *Node {
	info := operatorTable[op]
	if info.Arity == 1 {
		return &Node{Kind: NodeUnary, Op: op, Left: left}
	}
	return &Node{Kind: NodeBinary, Op: op, Left: left, Right: right}
}

// wrapAsRoot makes old the operator's (only or left) argument and
// returns the new operator node as root.
func wrapAsRoot(op Op, old *Node) *Node {
	info := operatorTable[op]
	if info.Arity == 1 {
		return &Node{Kind: NodeUnary, Op: op, Left: old}
	}
	return &Node{Kind: NodeBinary, Op: op, Left: old}
}

// openTernary walks the right spine past open containers, open
// ternaries and binary operators that bind looser than "?:" (such as
// assignment), then wraps the node it stops at into a Ternary with that
// node as the condition and an Empty success slot (spec.md §4.8.8).
func openTernary(root *Node) *Node {
	n := root
	for {
		if (n.Kind == NodeBlock || n.Kind == NodeFunctionCall || n.Kind == NodeListInit) && !n.Full && len(n.Elts) > 0 {
			n = n.Elts[len(n.Elts)-1]
		} else if n.Kind == NodeBinary && n.Right != nil && n.Op.Precedence() > OpTernary.Precedence() {
			n = n.Right
		} else if n.Kind == NodeTernary && n.THasFailure {
			n = n.TFailure
		} else if n.Kind == NodeTernary {
			n = n.TSuccess
		} else {
			break
		}
	}
	cond := *n
	*n = Node{Kind: NodeTernary, TCond: &cond, TSuccess: newEmpty()}
	return root
}

// handleColon implements the ":" half of a ternary, or reports that no
// ternary is open at the rightmost slot.
func (n *Node) handleColon() error {
	switch n.Kind {
	case NodeTernary:
		if !n.THasFailure {
			n.TFailure = newEmpty()
			n.THasFailure = true
			return nil
		}
		return n.TFailure.handleColon()
	case NodeEmpty, NodeLeaf, NodeParens:
		return fmt.Errorf("parser error: found unexpected ':'; missing '?' for ternary operator, or 'goto' keyword")
	case NodeUnary:
		if n.Left != nil {
			return n.Left.handleColon()
		}
		return fmt.Errorf("parser error: found non-full operator without ':' match")
	case NodeBinary:
		if n.Right != nil {
			return n.Right.handleColon()
		}
		return fmt.Errorf("parser error: found non-full operator without ':' match")
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if len(n.Elts) == 0 {
			return fmt.Errorf("parser error: empty container before ':'")
		}
		return n.Elts[len(n.Elts)-1].handleColon()
	}
	return fmt.Errorf("parser error: unexpected ':'")
}

// tryMakeFunction converts the rightmost Variable leaf into an empty
// FunctionCall awaiting args, per spec.md §4.8.7. Returns false if the
// rightmost slot is not a bare variable.
func (n *Node) tryMakeFunction() bool {
	switch n.Kind {
	case NodeLeaf:
		if !n.Leaf.IsVariable {
			return false
		}
		callee := n.Leaf.Variable
		n.Kind = NodeFunctionCall
		n.Callee = callee
		n.Elts = nil
		n.Full = false
		n.Leaf = Literal{}
		return true
	case NodeUnary:
		return n.Left != nil && n.Left.tryMakeFunction()
	case NodeBinary:
		return n.Right != nil && n.Right.tryMakeFunction()
	case NodeTernary:
		if n.THasFailure {
			return n.TFailure.tryMakeFunction()
		}
		return false
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return false
		}
		return n.Elts[len(n.Elts)-1].tryMakeFunction()
	}
	return false
}

// tryCloseFunction marks the rightmost open FunctionCall as full.
func (n *Node) tryCloseFunction() bool {
	switch n.Kind {
	case NodeFunctionCall:
		if n.Full {
			return false
		}
		if len(n.Elts) != 0 && n.Elts[len(n.Elts)-1].tryCloseFunction() {
			return true
		}
		n.Full = true
		return true
	case NodeUnary:
		return n.Left != nil && n.Left.tryCloseFunction()
	case NodeBinary:
		return n.Right != nil && n.Right.tryCloseFunction()
	case NodeTernary:
		if n.THasFailure {
			return n.TFailure.tryCloseFunction()
		}
		return false
	case NodeListInit, NodeBlock:
		if len(n.Elts) == 0 {
			return false
		}
		return n.Elts[len(n.Elts)-1].tryCloseFunction()
	}
	return false
}

// isPureTypeTail reports whether the rightmost slot is a pure-type
// Variable, used by cast detection (spec.md §4.8.5).
func (n *Node) isPureTypeTail() (*Variable, bool) {
	switch n.Kind {
	case NodeLeaf:
		if n.Leaf.IsVariable && n.Leaf.Variable.isPureType() {
			return &n.Leaf.Variable, true
		}
		return nil, false
	case NodeParens:
		return n.Inner.isPureTypeTail()
	}
	return nil, false
}

// nextElement finds the nearest open FunctionCall/ListInit/Block
// container along the right spine and appends a fresh empty slot; it
// implements the ',' argument/initialiser separator and the ';'
// statement separator (spec.md §4.8.6, §4.9).
func nextElement(n *Node) error {
	switch n.Kind {
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full {
			return fmt.Errorf("parser error: container already closed")
		}
		if len(n.Elts) == 0 {
			n.Elts = append(n.Elts, newEmpty())
			return nil
		}
		last := n.Elts[len(n.Elts)-1]
		if err := nextElement(last); err == nil {
			return nil
		}
		n.Elts = append(n.Elts, newEmpty())
		return nil
	case NodeUnary:
		if n.Left == nil {
			return fmt.Errorf("parser error: operator missing operand before separator")
		}
		return nextElement(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return fmt.Errorf("parser error: operator missing operand before separator")
		}
		return nextElement(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return nextElement(n.TFailure)
		}
		return nextElement(n.TSuccess)
	case NodeControlFlow:
		return n.CF.nextElement()
	}
	return fmt.Errorf("parser error: no open container for separator")
}

func (cf *ControlFlow) nextElement() error {
	switch cf.Kind {
	case CFIdentBlock:
		if cf.HasBlock {
			return nextElement(cf.Block)
		}
	case CFLoopParens, CFDoWhile:
		if cf.LoopBody != nil {
			return nextElement(cf.LoopBody)
		}
	case CFCondition:
		if cf.HasFailure {
			return nextElement(cf.Failure)
		}
		if cf.Success != nil {
			return nextElement(cf.Success)
		}
	case CFCase, CFDefault, CFLabel:
		if cf.Body != nil {
			return nextElement(cf.Body)
		}
	case CFTypedef:
		if cf.TypedefMode == 2 && cf.TypedefInner != nil {
			return nextElement(cf.TypedefInner)
		}
	}
	return fmt.Errorf("parser error: no open container for separator")
}

// contextOf reports the keyword-dispatch context at the rightmost open
// slot: "case" inside an open case value awaiting ':', "typedef"
// inside an open typedef, "" otherwise (spec.md §4.10).
func contextOf(n *Node) string {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return ""
		}
		return contextOf(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return ""
		}
		return contextOf(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return contextOf(n.TFailure)
		}
		return contextOf(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return ""
		}
		return contextOf(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		return n.CF.context()
	}
	return ""
}

func (cf *ControlFlow) context() string {
	switch cf.Kind {
	case CFCase:
		if !cf.SeparatorSeen {
			return "case"
		}
		if cf.Body != nil {
			return contextOf(cf.Body)
		}
	case CFTypedef:
		switch {
		case cf.TypedefMode == 0:
			return "typedef"
		case cf.TypedefMode == 1 && cf.TypedefVar != nil:
			return contextOf(cf.TypedefVar)
		case cf.TypedefMode == 2 && cf.TypedefInner != nil:
			return contextOf(cf.TypedefInner)
		}
	case CFCondition:
		if !cf.FullSuccess {
			if cf.Success != nil {
				return contextOf(cf.Success)
			}
			return ""
		}
		if cf.HasFailure {
			return contextOf(cf.Failure)
		}
	case CFLoopParens, CFDoWhile:
		if cf.LoopBody != nil {
			return contextOf(cf.LoopBody)
		}
	case CFIdentBlock:
		if cf.HasBlock {
			return contextOf(cf.Block)
		}
	case CFDefault, CFLabel:
		if cf.Body != nil {
			return contextOf(cf.Body)
		}
	}
	return ""
}

// tailIsEmpty reports whether the rightmost open slot is a bare Empty
// node, i.e. a value is expected there. It distinguishes a '{' opening
// a list initialiser (value expected) from one opening a statement
// block (spec.md §4.8.6).
func tailIsEmpty(n *Node) bool {
	switch n.Kind {
	case NodeEmpty:
		return true
	case NodeUnary:
		return n.Left == nil || tailIsEmpty(n.Left)
	case NodeBinary:
		return n.Right == nil || tailIsEmpty(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return tailIsEmpty(n.TFailure)
		}
		return tailIsEmpty(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full {
			return false
		}
		if len(n.Elts) == 0 {
			return true
		}
		return tailIsEmpty(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		return n.CF.tailIsEmpty()
	case NodeCast:
		return n.CastValue == nil || tailIsEmpty(n.CastValue)
	}
	return false
}

func (cf *ControlFlow) tailIsEmpty() bool {
	switch cf.Kind {
	case CFReturn:
		return !cf.HasValue || tailIsEmpty(cf.Value)
	case CFCase:
		if !cf.SeparatorSeen {
			return !cf.HasValue || tailIsEmpty(cf.Value)
		}
		return cf.Body == nil || tailIsEmpty(cf.Body)
	case CFDefault, CFLabel:
		return cf.Body == nil || tailIsEmpty(cf.Body)
	case CFCondition:
		if !cf.FullSuccess {
			return cf.Success == nil || tailIsEmpty(cf.Success)
		}
		if cf.HasFailure {
			return tailIsEmpty(cf.Failure)
		}
		return false
	case CFLoopParens, CFDoWhile:
		return cf.LoopBody == nil || tailIsEmpty(cf.LoopBody)
	case CFIdentBlock:
		return cf.HasBlock && tailIsEmpty(cf.Block)
	case CFTypedef:
		return cf.TypedefMode == 2 && cf.TypedefInner != nil && tailIsEmpty(cf.TypedefInner)
	}
	return false
}

// openElse finds the innermost still-open "if" along the right spine
// whose success branch is complete and failure branch unset, and opens
// it for the following else body (spec.md §4.9, dangling-else binds to
// the nearest enclosing if).
func openElse(n *Node) bool {
	switch n.Kind {
	case NodeUnary:
		return n.Left != nil && openElse(n.Left)
	case NodeBinary:
		return n.Right != nil && openElse(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return openElse(n.TFailure)
		}
		return openElse(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return false
		}
		last := n.Elts[len(n.Elts)-1]
		// The ';' before 'else' already closed the if and appended a
		// fresh placeholder for whatever statement comes next; look
		// past it at the statement 'else' is actually meant to amend,
		// and drop the placeholder once that statement reopens.
		if last.Kind == NodeEmpty && len(n.Elts) >= 2 && openElse(n.Elts[len(n.Elts)-2]) {
			n.Elts = n.Elts[:len(n.Elts)-1]
			return true
		}
		return openElse(last)
	case NodeControlFlow:
		return n.CF.openElse()
	}
	return false
}

func (cf *ControlFlow) openElse() bool {
	switch cf.Kind {
	case CFCondition:
		if !cf.FullSuccess && !(cf.Success != nil && cf.Success.Kind == NodeBlock && cf.Success.Full) {
			// The success branch is still open (an unbraced single
			// statement, possibly itself an if) — the else belongs to
			// whatever innermost if is open inside it, not this one.
			return cf.Success != nil && openElse(cf.Success)
		}
		if !cf.HasFailure {
			cf.Failure, cf.HasFailure = newEmpty(), true
			return true
		}
		return openElse(cf.Failure)
	case CFLoopParens, CFDoWhile:
		return cf.LoopBody != nil && openElse(cf.LoopBody)
	case CFIdentBlock:
		return cf.HasBlock && openElse(cf.Block)
	case CFCase, CFDefault, CFLabel:
		return cf.Body != nil && openElse(cf.Body)
	case CFTypedef:
		return cf.TypedefMode == 2 && cf.TypedefInner != nil && openElse(cf.TypedefInner)
	}
	return false
}

// closeOpenStatement marks the nearest unbraced single-statement
// control-flow body (if/else/for/while/do/case/default/label) as
// complete, so a following ';', 'else' or sibling statement is treated
// as finishing that body rather than extending it.
func closeOpenStatement(n *Node) bool {
	switch n.Kind {
	case NodeUnary:
		return n.Left != nil && closeOpenStatement(n.Left)
	case NodeBinary:
		return n.Right != nil && closeOpenStatement(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return closeOpenStatement(n.TFailure)
		}
		return closeOpenStatement(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return false
		}
		return closeOpenStatement(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		return n.CF.closeOpenStatement()
	}
	return false
}

func (cf *ControlFlow) closeOpenStatement() bool {
	switch cf.Kind {
	case CFCondition:
		if !cf.FullSuccess {
			if cf.Success != nil && closeOpenStatement(cf.Success) {
				return true
			}
			cf.FullSuccess = true
			return true
		}
		if cf.HasFailure && !cf.FullFailure {
			if closeOpenStatement(cf.Failure) {
				return true
			}
			cf.FullFailure = true
			return true
		}
		return false
	case CFLoopParens, CFDoWhile:
		if cf.LoopBody != nil && closeOpenStatement(cf.LoopBody) {
			return true
		}
		if !cf.Full {
			cf.Full = true
			return true
		}
		return false
	case CFIdentBlock:
		return cf.HasBlock && closeOpenStatement(cf.Block)
	case CFCase, CFDefault, CFLabel:
		return cf.Body != nil && closeOpenStatement(cf.Body)
	case CFTypedef:
		return cf.TypedefMode == 2 && cf.TypedefInner != nil && closeOpenStatement(cf.TypedefInner)
	}
	return false
}

// labelify converts the rightmost bare-identifier leaf into a Label
// control-flow node, recognising the "identifier ':'" label form
// (spec.md §4.9).
func labelify(n *Node) bool {
	switch n.Kind {
	case NodeLeaf:
		if n.Leaf.IsVariable && n.Leaf.Variable.HasName && len(n.Leaf.Variable.Attrs) == 0 {
			label := n.Leaf.Variable.Name
			n.Kind = NodeControlFlow
			n.Leaf = Literal{}
			n.CF = &ControlFlow{Kind: CFLabel, Label: label}
			return true
		}
		return false
	case NodeUnary:
		return n.Left != nil && labelify(n.Left)
	case NodeBinary:
		return n.Right != nil && labelify(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return labelify(n.TFailure)
		}
		return labelify(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return false
		}
		return labelify(n.Elts[len(n.Elts)-1])
	}
	return false
}

// closeContainer finds the deepest open Function/ListInit/Block of the
// given kind along the right spine and marks it Full, used by the '}'
// and ')' handlers once their matching open has been confirmed.
func closeContainer(n *Node, kind NodeKind) bool {
	switch n.Kind {
	case NodeUnary:
		return n.Left != nil && closeContainer(n.Left, kind)
	case NodeBinary:
		return n.Right != nil && closeContainer(n.Right, kind)
	case NodeTernary:
		if n.THasFailure {
			return closeContainer(n.TFailure, kind)
		}
		return closeContainer(n.TSuccess, kind)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full {
			return false
		}
		if len(n.Elts) != 0 && closeContainer(n.Elts[len(n.Elts)-1], kind) {
			return true
		}
		if n.Kind == kind {
			if len(n.Elts) != 0 && n.Elts[len(n.Elts)-1].Kind == NodeEmpty {
				n.Elts = n.Elts[:len(n.Elts)-1]
			}
			n.Full = true
			return true
		}
		return false
	case NodeControlFlow:
		return n.CF.closeContainer(kind)
	}
	return false
}

func (cf *ControlFlow) closeContainer(kind NodeKind) bool {
	switch cf.Kind {
	case CFIdentBlock:
		return cf.HasBlock && closeContainer(cf.Block, kind)
	case CFLoopParens, CFDoWhile:
		return cf.LoopBody != nil && closeContainer(cf.LoopBody, kind)
	case CFCondition:
		if cf.HasFailure {
			return closeContainer(cf.Failure, kind)
		}
		if cf.Success != nil {
			return closeContainer(cf.Success, kind)
		}
	case CFCase, CFDefault, CFLabel:
		return cf.Body != nil && closeContainer(cf.Body, kind)
	case CFTypedef:
		return cf.TypedefMode == 2 && cf.TypedefInner != nil && closeContainer(cf.TypedefInner, kind)
	}
	return false
}

// innermostContainerKind reports the kind of the nearest still-open
// Function/ListInit/Block container along the right spine, or -1 if
// none is open; it tells the parser whether a ',' is an argument/
// initialiser separator or the comma operator (spec.md §4.8.6).
func innermostContainerKind(n *Node) NodeKind {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return -1
		}
		return innermostContainerKind(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return -1
		}
		return innermostContainerKind(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return innermostContainerKind(n.TFailure)
		}
		return innermostContainerKind(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full {
			return -1
		}
		if len(n.Elts) == 0 {
			return n.Kind
		}
		if inner := innermostContainerKind(n.Elts[len(n.Elts)-1]); inner != -1 {
			return inner
		}
		return n.Kind
	case NodeControlFlow:
		return n.CF.innermostContainerKind()
	}
	return -1
}

func (cf *ControlFlow) innermostContainerKind() NodeKind {
	switch cf.Kind {
	case CFIdentBlock:
		if cf.HasBlock {
			return innermostContainerKind(cf.Block)
		}
	case CFLoopParens, CFDoWhile:
		if cf.LoopBody != nil {
			return innermostContainerKind(cf.LoopBody)
		}
	case CFCondition:
		if cf.HasFailure {
			return innermostContainerKind(cf.Failure)
		}
		if cf.Success != nil {
			return innermostContainerKind(cf.Success)
		}
	case CFCase, CFDefault, CFLabel:
		if cf.Body != nil {
			return innermostContainerKind(cf.Body)
		}
	case CFTypedef:
		if cf.TypedefMode == 2 && cf.TypedefInner != nil {
			return innermostContainerKind(cf.TypedefInner)
		}
	}
	return -1
}

// caseAwaitingSeparator finds an open "case VALUE" along the right
// spine whose ':' has not yet been seen, used by the ':' handler to
// distinguish it from a ternary close (spec.md §4.8.8, §4.9).
func caseAwaitingSeparator(n *Node) (*ControlFlow, bool) {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return nil, false
		}
		return caseAwaitingSeparator(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return nil, false
		}
		return caseAwaitingSeparator(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return caseAwaitingSeparator(n.TFailure)
		}
		return caseAwaitingSeparator(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return nil, false
		}
		return caseAwaitingSeparator(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		if n.CF.Kind == CFCase && !n.CF.SeparatorSeen {
			return n.CF, true
		}
		if body, ok := cfOpenBody(n.CF); ok {
			return caseAwaitingSeparator(body)
		}
	}
	return nil, false
}

// defaultOrLabelAwaitingColon reports whether the rightmost open slot
// is a "default" or "identifier" label awaiting its ':'.
func defaultOrLabelAwaitingColon(n *Node) bool {
	switch n.Kind {
	case NodeUnary:
		return n.Left != nil && defaultOrLabelAwaitingColon(n.Left)
	case NodeBinary:
		return n.Right != nil && defaultOrLabelAwaitingColon(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return defaultOrLabelAwaitingColon(n.TFailure)
		}
		return defaultOrLabelAwaitingColon(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return false
		}
		return defaultOrLabelAwaitingColon(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		if (n.CF.Kind == CFDefault || n.CF.Kind == CFLabel) && n.CF.Body == nil {
			return true
		}
		if body, ok := cfOpenBody(n.CF); ok {
			return defaultOrLabelAwaitingColon(body)
		}
	}
	return false
}

// cfOpenBody returns the subtree a given control-flow node is
// currently still accepting pushes into (its Success/Failure branch,
// loop body, ident-block body, or typedef definition), used by finder
// functions that need to search through an enclosing statement rather
// than stopping at it (spec.md §4.9, §4.10).
func cfOpenBody(cf *ControlFlow) (*Node, bool) {
	switch cf.Kind {
	case CFCondition:
		if !cf.FullSuccess {
			if cf.Success != nil {
				return cf.Success, true
			}
			return nil, false
		}
		if cf.HasFailure {
			return cf.Failure, true
		}
	case CFLoopParens, CFDoWhile:
		if cf.LoopBody != nil {
			return cf.LoopBody, true
		}
	case CFIdentBlock:
		if cf.HasBlock {
			return cf.Block, true
		}
	case CFTypedef:
		if cf.TypedefMode == 2 && cf.TypedefInner != nil {
			return cf.TypedefInner, true
		}
	case CFCase, CFDefault, CFLabel:
		if cf.Body != nil {
			return cf.Body, true
		}
	}
	return nil, false
}

// openCFParensSlot finds the nearest if/for/while/switch/do-while
// control node along the right spine still awaiting its condition
// parentheses, used by the '(' handler (spec.md §4.9).
func openCFParensSlot(n *Node) (*ControlFlow, bool) {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return nil, false
		}
		return openCFParensSlot(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return nil, false
		}
		return openCFParensSlot(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return openCFParensSlot(n.TFailure)
		}
		return openCFParensSlot(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return nil, false
		}
		return openCFParensSlot(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		switch n.CF.Kind {
		case CFCondition:
			if n.CF.Cond == nil {
				return n.CF, true
			}
			if !n.CF.FullSuccess {
				if n.CF.Success != nil {
					return openCFParensSlot(n.CF.Success)
				}
				return nil, false
			}
			if n.CF.HasFailure {
				return openCFParensSlot(n.CF.Failure)
			}
		case CFLoopParens:
			if !n.CF.HasParens {
				return n.CF, true
			}
			if n.CF.LoopBody != nil {
				return openCFParensSlot(n.CF.LoopBody)
			}
		}
	}
	return nil, false
}

// identBlockAwaitingOpen finds the nearest CFIdentBlock control node
// along the right spine whose braced body has not yet been opened,
// used both to capture an optional tag name and to decide what a
// following '{' means (spec.md §4.9).
func identBlockAwaitingOpen(n *Node) (*ControlFlow, bool) {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return nil, false
		}
		return identBlockAwaitingOpen(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return nil, false
		}
		return identBlockAwaitingOpen(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return identBlockAwaitingOpen(n.TFailure)
		}
		return identBlockAwaitingOpen(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return nil, false
		}
		return identBlockAwaitingOpen(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		if n.CF.Kind == CFIdentBlock && !n.CF.HasBlock {
			return n.CF, true
		}
		if body, ok := cfOpenBody(n.CF); ok {
			return identBlockAwaitingOpen(body)
		}
	}
	return nil, false
}

// cfBodyAwaitingOpen finds the nearest control-flow node along the
// right spine whose braced statement body has not yet been created: an
// if/else arm once its condition (or the preceding 'else') is in place,
// a for/while/switch body once its parens have closed, a do-while body
// before its trailing while(...), or a case/default/label body. A '{'
// landing here opens a statement Block; elsewhere tailIsEmpty governs
// whether it opens a brace-initialiser value instead (spec.md §4.8.6).
func cfBodyAwaitingOpen(n *Node) (*ControlFlow, bool) {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return nil, false
		}
		return cfBodyAwaitingOpen(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return nil, false
		}
		return cfBodyAwaitingOpen(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return cfBodyAwaitingOpen(n.TFailure)
		}
		return cfBodyAwaitingOpen(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return nil, false
		}
		return cfBodyAwaitingOpen(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		return n.CF.bodyAwaitingOpen()
	}
	return nil, false
}

func (cf *ControlFlow) bodyAwaitingOpen() (*ControlFlow, bool) {
	switch cf.Kind {
	case CFCondition:
		if !cf.FullSuccess {
			if cf.Success != nil {
				return cfBodyAwaitingOpen(cf.Success)
			}
			if cf.Cond != nil {
				return cf, true
			}
			return nil, false
		}
		if cf.HasFailure {
			if cf.Failure.Kind != NodeEmpty {
				return cfBodyAwaitingOpen(cf.Failure)
			}
			return cf, true
		}
		return nil, false
	case CFLoopParens:
		if cf.LoopBody != nil {
			return cfBodyAwaitingOpen(cf.LoopBody)
		}
		if cf.HasParens {
			return cf, true
		}
		return nil, false
	case CFDoWhile:
		if cf.LoopBody != nil {
			return cfBodyAwaitingOpen(cf.LoopBody)
		}
		return cf, true
	case CFCase:
		if !cf.SeparatorSeen {
			return nil, false
		}
		if cf.Body != nil {
			return cfBodyAwaitingOpen(cf.Body)
		}
		return cf, true
	case CFDefault, CFLabel:
		if cf.Body != nil {
			return cfBodyAwaitingOpen(cf.Body)
		}
		return cf, true
	case CFIdentBlock:
		if cf.HasBlock {
			return cfBodyAwaitingOpen(cf.Block)
		}
		return nil, false
	case CFTypedef:
		if cf.TypedefMode == 2 && cf.TypedefInner != nil {
			return cfBodyAwaitingOpen(cf.TypedefInner)
		}
		return nil, false
	}
	return nil, false
}

// identBlockTagOnly finds a struct/union/enum control node along the
// right spine whose tag has been captured but whose body was never
// opened — "struct Foo" used as a type rather than a definition — so
// the parser can convert it into a plain type leaf once it is clear no
// '{' is coming (spec.md §4.9).
func identBlockTagOnly(n *Node) (*Node, bool) {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return nil, false
		}
		return identBlockTagOnly(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return nil, false
		}
		return identBlockTagOnly(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return identBlockTagOnly(n.TFailure)
		}
		return identBlockTagOnly(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return nil, false
		}
		return identBlockTagOnly(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		if n.CF.Kind == CFIdentBlock && n.CF.HasIdent && !n.CF.HasBlock {
			return n, true
		}
	}
	return nil, false
}

// tagAsType renders a captured struct/union/enum tag ("struct Foo") as
// a fresh pure-type Variable leaf carrying two attributes: the
// struct/union/enum keyword and the tag name as a user attribute.
func tagAsType(cf *ControlFlow) *Node {
	kw := map[string]Keyword{"struct": KwStruct, "union": KwUnion, "enum": KwEnum}[cf.IdentKind]
	return &Node{Kind: NodeLeaf, Leaf: Literal{IsVariable: true, Variable: Variable{
		Attrs: []Attribute{{Kind: AttrKeyword, Keyword: kw}, {Kind: AttrUser, User: cf.Ident}},
	}}}
}

// typedefAwaitingKind finds the nearest open CFTypedef still in mode 0
// (nothing pushed into it yet), used to decide whether a following
// struct/union/enum keyword starts a Definition-mode typedef rather
// than a plain declaration attribute (spec.md §4.10).
func typedefAwaitingKind(n *Node) (*ControlFlow, bool) {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return nil, false
		}
		return typedefAwaitingKind(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return nil, false
		}
		return typedefAwaitingKind(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return typedefAwaitingKind(n.TFailure)
		}
		return typedefAwaitingKind(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if n.Full || len(n.Elts) == 0 {
			return nil, false
		}
		return typedefAwaitingKind(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		if n.CF.Kind == CFTypedef && n.CF.TypedefMode == 0 {
			return n.CF, true
		}
	}
	return nil, false
}

// findOpenDoAwaitingWhile finds a just-closed "do" body (Full, no
// parens yet) along the right spine, so the "while" keyword that
// follows it is recognised as closing that do-statement rather than
// starting a new while-loop (spec.md §4.9).
func findOpenDoAwaitingWhile(n *Node) (*ControlFlow, bool) {
	switch n.Kind {
	case NodeUnary:
		if n.Left == nil {
			return nil, false
		}
		return findOpenDoAwaitingWhile(n.Left)
	case NodeBinary:
		if n.Right == nil {
			return nil, false
		}
		return findOpenDoAwaitingWhile(n.Right)
	case NodeTernary:
		if n.THasFailure {
			return findOpenDoAwaitingWhile(n.TFailure)
		}
		return findOpenDoAwaitingWhile(n.TSuccess)
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if len(n.Elts) == 0 {
			return nil, false
		}
		return findOpenDoAwaitingWhile(n.Elts[len(n.Elts)-1])
	case NodeControlFlow:
		if n.CF.Kind == CFDoWhile && n.CF.Full && !n.CF.HasParens {
			return n.CF, true
		}
	}
	return nil, false
}

// addAttributeToLeftVariable walks to the leftmost leaf and prepends
// attrs, used while rewriting `T * x` into a declaration (spec.md
// §4.8.4).
func (n *Node) addAttributeToLeftVariable(attrs []Attribute) error {
	switch n.Kind {
	case NodeEmpty:
		return fmt.Errorf("LHS: missing identifier")
	case NodeLeaf:
		if n.Leaf.IsVariable {
			n.Leaf.Variable.Attrs = append(append([]Attribute{}, attrs...), n.Leaf.Variable.Attrs...)
			return nil
		}
		return fmt.Errorf("LHS: constants are illegal in type declarations")
	case NodeUnary:
		if n.Left != nil {
			return n.Left.addAttributeToLeftVariable(attrs)
		}
	case NodeBinary:
		if n.Left != nil {
			return n.Left.addAttributeToLeftVariable(attrs)
		}
	}
	return fmt.Errorf("LHS: illegal type declaration")
}

// makeLHS validates/rewrites n as the left-hand side of an assignment
// (spec.md §4.8.4), rewriting `T * x` to a declared pointer Variable.
func (n *Node) makeLHS() error {
	switch n.Kind {
	case NodeLeaf:
		if n.Leaf.IsVariable {
			return nil
		}
		return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue, found constant literal %s", n.Leaf.Tok.Text())
	case NodeBinary:
		switch n.Op {
		case OpMember, OpArrow:
			return nil // member access: this is an expression LHS, stop rewriting
		case OpMul:
			if err := n.Left.makeLHS(); err != nil {
				return err
			}
			if n.Left.Kind != NodeLeaf || !n.Left.Leaf.IsVariable {
				return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue")
			}
			newVar := n.Left.Leaf.Variable
			newVar.Attrs = append(newVar.Attrs, Attribute{Kind: AttrIndirection})
			if err := n.Right.addAttributeToLeftVariable(newVar.Attrs); err != nil {
				return err
			}
			*n = *n.Right
			return nil
		case OpSubscript:
			return n.Left.makeLHS()
		default:
			return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue, found binary operator '%s'", n.Op)
		}
	case NodeUnary:
		if n.Op == OpDeref {
			return fmt.Errorf("LHS: '*' with an identifier is illegal; change attribute ordering or remove '*'")
		}
		return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue, found unary operator %s", n.Op)
	case NodeEmpty:
		return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue, found nothing")
	case NodeParens:
		return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue, found parenthesis")
	case NodeTernary:
		if n.THasFailure {
			return n.TFailure.makeLHS()
		}
		return n.TSuccess.makeLHS()
	case NodeFunctionCall, NodeListInit, NodeBlock:
		if !n.Full && len(n.Elts) != 0 {
			return n.Elts[len(n.Elts)-1].makeLHS()
		}
		return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue")
	case NodeControlFlow:
		return n.CF.makeLHS()
	default:
		return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue")
	}
}

// makeLHS on a control-flow node drills into whichever slot is
// currently open, mirroring pushLeaf's dispatch (spec.md §4.8.4).
func (cf *ControlFlow) makeLHS() error {
	switch cf.Kind {
	case CFReturn:
		if cf.HasValue {
			return cf.Value.makeLHS()
		}
	case CFCase:
		if !cf.SeparatorSeen {
			if cf.HasValue {
				return cf.Value.makeLHS()
			}
		} else if cf.Body != nil {
			return cf.Body.makeLHS()
		}
	case CFCondition:
		if !cf.FullSuccess {
			if cf.Success != nil {
				return cf.Success.makeLHS()
			}
		} else if cf.HasFailure {
			return cf.Failure.makeLHS()
		}
	case CFLoopParens, CFDoWhile:
		if cf.LoopBody != nil {
			return cf.LoopBody.makeLHS()
		}
	case CFIdentBlock:
		if cf.HasBlock {
			return cf.Block.makeLHS()
		}
	case CFDefault, CFLabel:
		if cf.Body != nil {
			return cf.Body.makeLHS()
		}
	case CFTypedef:
		switch cf.TypedefMode {
		case 1:
			return cf.TypedefVar.makeLHS()
		case 2:
			if cf.TypedefInner != nil {
				return cf.TypedefInner.makeLHS()
			}
		}
	}
	return fmt.Errorf("LHS: expected a declaration or a modifiable lvalue")
}

// String renders n in a bracketed/parenthesized debug form used by
// diagnostics and tests; it is not a C pretty-printer.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case NodeEmpty:
		return "∅"
	case NodeLeaf:
		return n.Leaf.String()
	case NodeUnary:
		arg := "∅"
		if n.Left != nil {
			arg = n.Left.String()
		}
		return "(" + n.Op.String() + arg + ")"
	case NodeBinary:
		left, right := "∅", "∅"
		if n.Left != nil {
			left = n.Left.String()
		}
		if n.Right != nil {
			right = n.Right.String()
		}
		return "(" + left + " " + n.Op.String() + " " + right + ")"
	case NodeTernary:
		succ := "∅"
		if n.TSuccess != nil {
			succ = n.TSuccess.String()
		}
		if !n.THasFailure {
			return "(" + n.TCond.String() + " ? " + succ + ")"
		}
		return "(" + n.TCond.String() + " ? " + succ + " : " + n.TFailure.String() + ")"
	case NodeParens:
		return "(" + n.Inner.String() + ")"
	case NodeCast:
		val := "∅"
		if n.CastValue != nil {
			val = n.CastValue.String()
		}
		return "(" + n.CastType.String() + ")°" + val
	case NodeFunctionCall:
		return n.Callee.String() + "(" + joinNodes(n.Elts) + ")"
	case NodeListInit:
		return "{" + joinNodes(n.Elts) + "}"
	case NodeBlock:
		return "[" + joinNodes(n.Elts) + "]"
	case NodeControlFlow:
		return n.CF.String()
	}
	return "?"
}

func joinNodes(nodes []*Node) string {
	parts := make([]string, len(nodes))
	for i, c := range nodes {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

func (cf *ControlFlow) String() string {
	switch cf.Kind {
	case CFSemiColon:
		if cf.IsBreak {
			return "<break>"
		}
		return "<continue>"
	case CFReturn:
		if cf.HasValue {
			return "<return " + cf.Value.String() + ">"
		}
		return "<return>"
	case CFGoto:
		return "<goto " + cf.Label + ">"
	case CFCase:
		val := "∅"
		if cf.HasValue {
			val = cf.Value.String()
		}
		body := ""
		if cf.Body != nil {
			body = " " + cf.Body.String()
		}
		return "<case " + val + ":" + body + ">"
	case CFDefault:
		body := ""
		if cf.Body != nil {
			body = " " + cf.Body.String()
		}
		return "<default:" + body + ">"
	case CFLabel:
		body := ""
		if cf.Body != nil {
			body = " " + cf.Body.String()
		}
		return "<" + cf.Label + ":" + body + ">"
	case CFCondition:
		succ := "∅"
		if cf.Success != nil {
			succ = cf.Success.String()
		}
		if !cf.HasFailure {
			return "<if " + cf.Cond.String() + " " + succ + ">"
		}
		return "<if " + cf.Cond.String() + " " + succ + " else " + cf.Failure.String() + ">"
	case CFLoopParens:
		body := "∅"
		if cf.LoopBody != nil {
			body = cf.LoopBody.String()
		}
		parens := "∅"
		if cf.HasParens {
			parens = cf.Parens.String()
		}
		return "<" + cf.LoopKind + " (" + parens + ") " + body + ">"
	case CFDoWhile:
		body := "∅"
		if cf.LoopBody != nil {
			body = cf.LoopBody.String()
		}
		parens := "∅"
		if cf.HasParens {
			parens = cf.Parens.String()
		}
		return "<do " + body + " while (" + parens + ")>"
	case CFIdentBlock:
		ident := ""
		if cf.HasIdent {
			ident = " " + cf.Ident
		}
		block := ""
		if cf.HasBlock {
			block = " " + cf.Block.String()
		}
		return "<" + cf.IdentKind + ident + block + ">"
	case CFTypedef:
		switch cf.TypedefMode {
		case 1:
			return "<typedef " + cf.TypedefVar.String() + ">"
		case 2:
			name := ""
			if cf.HasTypedefName {
				name = " " + cf.TypedefName
			}
			return "<typedef " + cf.TypedefInner.String() + name + ">"
		}
		return "<typedef>"
	}
	return "<?>"
}
