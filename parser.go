package cfront

import "fmt"

// frameKind tags why a nesting level was opened, so the matching close
// token is routed to the right place (spec.md §4.8.3, §4.8.6, §4.9).
type frameKind int

const (
	frameParens   frameKind = iota // '(' grouping or cast candidate
	frameCFParens                  // '(' condition of if/for/while/switch/do-while
	frameCallArgs                  // '(' function-call argument list
	frameSubscript                 // '[' array subscript index
	frameListInit                  // '{' brace initialiser
	frameBlock                     // '{' statement block
)

// frame is one entry of the parser's bracket-nesting stack. local is
// only used by frameParens/frameCFParens: parenthesised groups are
// atomic (spec.md Invariant, canPushLeaf is false for NodeParens) so
// their contents are built against a private subtree and spliced back
// into the surrounding tree once the matching ')' is seen.
type frame struct {
	kind  frameKind
	open  Location
	local *Node
	cf    *ControlFlow
}

// parser drives the right-spine AST builder (spec.md §4.8-§4.10) one
// token at a time. Unlike the teacher's recursive-descent design this
// has no grammar productions; every token is routed by push_leaf/
// push_op/close-container dispatch on whatever the rightmost open slot
// currently is.
type parser struct {
	pos        int
	diags      []Diagnostic
	root       *Node
	stack      []frame
	gotoPending bool
	// doWhilePending is the do-loop whose "while" was just read; the
	// next '(' opens that loop's condition.
	doWhilePending *ControlFlow
}

// Parse consumes a fully-lexed token stream (TokEOF stops early) and
// builds the AST. The root is always a Block, one element per
// top-level declaration or statement.
func Parse(tokens []Token) Result[*Node] {
	p := &parser{root: &Node{Kind: NodeBlock}}
	for _, tok := range tokens {
		if tok.Kind == TokEOF {
			break
		}
		p.pos++
		p.step(tok)
	}
	p.finish()
	return Result[*Node]{Value: p.root, Diagnostics: p.diags}
}

func (p *parser) error(where Range, msg string) {
	addError(&p.diags, "parser", msg, where)
}

func (p *parser) suggest(where Range, msg string) {
	addSuggestion(&p.diags, "parser", msg, where)
}

// target returns the node that generic pushLeaf/pushOp calls should
// operate on: the innermost open frameParens/frameCFParens's private
// subtree, or the shared root if no isolating frame is open.
func (p *parser) target() *Node {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if f := p.stack[i]; f.kind == frameParens || f.kind == frameCFParens {
			return f.local
		}
	}
	return p.root
}

// setTarget stores a (possibly new, after wrapping) root back where
// target() found it.
func (p *parser) setTarget(n *Node) {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].kind == frameParens || p.stack[i].kind == frameCFParens {
			p.stack[i].local = n
			return
		}
	}
	p.root = n
}

func (p *parser) pushValue(leaf *Node) {
	if err := p.target().pushLeaf(leaf); err != nil {
		p.error(leaf.Range, err.Error())
	}
}

func (p *parser) pushOperator(op Op, tok Token) {
	if op.IsAssignment() {
		if err := p.target().makeLHS(); err != nil {
			p.error(tok.Range, err.Error())
			return
		}
	}
	newRoot, err := pushOp(p.target(), op)
	if err != nil {
		p.error(tok.Range, err.Error())
		return
	}
	p.setTarget(newRoot)
}

func (p *parser) step(tok Token) {
	switch tok.Kind {
	case TokChar, TokNumber, TokString:
		p.pushValue(newLeaf(Literal{Tok: tok}, tok.Range))
	case TokIdentifier:
		p.stepIdentifier(tok)
	case TokKeyword:
		p.stepKeyword(tok)
	case TokSymbol:
		p.stepSymbol(tok)
	}
}

func (p *parser) stepIdentifier(tok Token) {
	if p.gotoPending {
		p.gotoPending = false
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFGoto, Label: tok.Ident}})
		return
	}
	if cf, ok := identBlockAwaitingOpen(p.target()); ok && !cf.HasIdent {
		cf.Ident, cf.HasIdent = tok.Ident, true
		return
	}
	// "struct Foo" with no braces names an existing type rather than
	// defining one; once a second identifier follows the tag, rewrite
	// the tag node into a plain type leaf so it can take the name.
	if n, ok := identBlockTagOnly(p.target()); ok {
		*n = *tagAsType(n.CF)
	}
	p.pushValue(newLeaf(Literal{IsVariable: true, Variable: Variable{Name: tok.Ident, HasName: true}}, tok.Range))
}

func (p *parser) stepKeyword(tok Token) {
	kw := tok.Keyword
	if IsDeprecatedUnderscore(kw) {
		p.suggest(tok.Range, fmt.Sprintf("'%s' is deprecated; use '%s' instead", keywordSpelling(kw), deprecatedUnderscoreSuggestion[kw]))
	}

	switch kw {
	case KwTrue, KwFalse, KwNullptr:
		p.pushValue(newLeaf(Literal{Tok: tok}, tok.Range))
		return
	case KwSizeof:
		p.pushOperator(OpSizeof, tok)
		return
	case KwDefault:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFDefault}})
		return
	case KwCase:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFCase}})
		return
	case KwIf:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFCondition}})
		return
	case KwElse:
		if !openElse(p.target()) {
			p.error(tok.Range, "'else' without a matching 'if'")
		}
		return
	case KwFor:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFLoopParens, LoopKind: "for"}})
		return
	case KwWhile:
		if cf, ok := findOpenDoAwaitingWhile(p.target()); ok {
			p.doWhilePending = cf
			return
		}
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFLoopParens, LoopKind: "while"}})
		return
	case KwDo:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFDoWhile, LoopKind: "do"}})
		return
	case KwSwitch:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFLoopParens, LoopKind: "switch"}})
		return
	case KwGoto:
		p.gotoPending = true
		return
	case KwReturn:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFReturn}})
		return
	case KwBreak:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFSemiColon, IsBreak: true}})
		return
	case KwContinue:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFSemiColon, IsBreak: false}})
		return
	case KwTypedef:
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFTypedef}})
		return
	case KwStruct, KwUnion, KwEnum:
		name := identKindSpelling[kw]
		if cf, ok := typedefAwaitingKind(p.target()); ok {
			cf.TypedefMode = 2
			cf.TypedefInner = &Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFIdentBlock, IdentKind: name}}
			return
		}
		p.pushValue(&Node{Kind: NodeControlFlow, Range: tok.Range, CF: &ControlFlow{Kind: CFIdentBlock, IdentKind: name}})
		return
	}

	// Every other keyword class (storage, type, and operator-class
	// keywords used as declaration attributes such as alignas/typeof)
	// is a plain attribute leaf; pushLeaf merges consecutive
	// attribute-only leaves onto the same Variable (spec.md §4.10).
	p.pushValue(&Node{Kind: NodeLeaf, Range: tok.Range, Leaf: Literal{
		IsVariable: true,
		Variable:   Variable{Attrs: []Attribute{{Kind: AttrKeyword, Keyword: kw}}},
	}})
}

var identKindSpelling = map[Keyword]string{KwStruct: "struct", KwUnion: "union", KwEnum: "enum"}

func (p *parser) stepSymbol(tok Token) {
	switch tok.Sym {
	case SymLParen:
		p.openParen(tok)
	case SymRParen:
		p.closeParen(tok)
	case SymLBracket:
		p.openBracket(tok)
	case SymRBracket:
		p.closeBracket(tok)
	case SymLBrace:
		p.openBrace(tok)
	case SymRBrace:
		p.closeBrace(tok)
	case SymSemi:
		p.stepSemicolon(tok)
	case SymComma:
		p.stepComma(tok)
	case SymQuestion:
		p.setTarget(openTernary(p.target()))
	case SymColon:
		p.stepColon(tok)
	default:
		p.stepOperatorSymbol(tok)
	}
}

// stepOperatorSymbol resolves the prefix/binary/postfix ambiguity of
// +, -, *, &, ++ and -- by checking whether the rightmost slot still
// expects a value (spec.md §4.8).
func (p *parser) stepOperatorSymbol(tok Token) {
	if tailIsEmpty(p.target()) {
		if op, ok := unaryPrefixForSymbol[tok.Sym]; ok {
			p.pushOperator(op, tok)
			return
		}
		p.error(tok.Range, fmt.Sprintf("expected an expression before '%s'", tok.Sym))
		return
	}
	if op, ok := unaryPostfixForSymbol[tok.Sym]; ok {
		p.pushOperator(op, tok)
		return
	}
	if op, ok := binaryForSymbol[tok.Sym]; ok {
		p.pushOperator(op, tok)
		return
	}
	p.error(tok.Range, fmt.Sprintf("unexpected '%s'", tok.Sym))
}

func (p *parser) stepComma(tok Token) {
	switch innermostContainerKind(p.target()) {
	case NodeFunctionCall, NodeListInit:
		if err := nextElement(p.target()); err != nil {
			p.error(tok.Range, err.Error())
		}
	default:
		p.pushOperator(OpComma, tok)
	}
}

func (p *parser) stepSemicolon(tok Token) {
	closeOpenStatement(p.target())
	if err := nextElement(p.target()); err != nil {
		p.error(tok.Range, err.Error())
	}
}

// stepColon tries, in order: closing an open case value ("case N:"),
// acknowledging a default/label colon, closing an open ternary, and
// finally converting a bare trailing identifier into a goto label
// ("ident:"), per spec.md §4.8.8 and §4.9.
func (p *parser) stepColon(tok Token) {
	if cf, ok := caseAwaitingSeparator(p.target()); ok {
		cf.SeparatorSeen = true
		return
	}
	if defaultOrLabelAwaitingColon(p.target()) {
		return
	}
	if err := p.target().handleColon(); err == nil {
		return
	}
	if labelify(p.target()) {
		return
	}
	p.error(tok.Range, "unexpected ':'")
}

func (p *parser) openParen(tok Token) {
	if cf := p.doWhilePending; cf != nil {
		p.doWhilePending = nil
		p.stack = append(p.stack, frame{kind: frameCFParens, open: tok.Range.Start, cf: cf, local: newEmpty()})
		return
	}
	if cf, ok := openCFParensSlot(p.target()); ok {
		// A for-loop's parens hold three ';'-separated clauses rather
		// than one expression, so give it a Block to separate into.
		local := newEmpty()
		if cf.Kind == CFLoopParens && cf.LoopKind == "for" {
			local = &Node{Kind: NodeBlock}
		}
		p.stack = append(p.stack, frame{kind: frameCFParens, open: tok.Range.Start, cf: cf, local: local})
		return
	}
	if p.target().tryMakeFunction() {
		p.stack = append(p.stack, frame{kind: frameCallArgs, open: tok.Range.Start})
		return
	}
	p.stack = append(p.stack, frame{kind: frameParens, open: tok.Range.Start, local: newEmpty()})
}

func (p *parser) closeParen(tok Token) {
	if len(p.stack) == 0 {
		p.error(tok.Range, "unexpected ')'")
		return
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	switch top.kind {
	case frameCallArgs:
		if !p.target().tryCloseFunction() {
			p.error(tok.Range, "unmatched ')': no open function call")
		}
	case frameCFParens:
		switch top.cf.Kind {
		case CFCondition:
			top.cf.Cond = top.local
		case CFLoopParens, CFDoWhile:
			top.cf.Parens, top.cf.HasParens = top.local, true
		}
	case frameParens:
		finished := finalizeParens(top.local)
		if err := p.target().pushLeaf(finished); err != nil {
			p.error(tok.Range, err.Error())
		}
	default:
		p.error(tok.Range, "unexpected ')'")
	}
}

// finalizeParens decides, at the close paren, whether the grouped
// content is a cast (its whole content is a pure-type Variable) or an
// ordinary parenthesised expression (spec.md §4.8.5).
func finalizeParens(local *Node) *Node {
	if v, ok := local.isPureTypeTail(); ok {
		return &Node{Kind: NodeCast, CastType: *v}
	}
	return &Node{Kind: NodeParens, Inner: local}
}

func (p *parser) openBracket(tok Token) {
	newRoot, err := pushOp(p.target(), OpSubscript)
	if err != nil {
		p.error(tok.Range, err.Error())
		return
	}
	p.setTarget(newRoot)
	p.stack = append(p.stack, frame{kind: frameSubscript, open: tok.Range.Start})
}

func (p *parser) closeBracket(tok Token) {
	if len(p.stack) == 0 || p.stack[len(p.stack)-1].kind != frameSubscript {
		p.error(tok.Range, "unexpected ']'")
		return
	}
	p.stack = p.stack[:len(p.stack)-1]
}

func (p *parser) openBrace(tok Token) {
	if cf, ok := identBlockAwaitingOpen(p.target()); ok {
		cf.HasBlock, cf.Block = true, &Node{Kind: NodeBlock}
		p.stack = append(p.stack, frame{kind: frameBlock, open: tok.Range.Start})
		return
	}
	if _, ok := cfBodyAwaitingOpen(p.target()); ok {
		if err := p.target().pushLeaf(&Node{Kind: NodeBlock}); err != nil {
			p.error(tok.Range, err.Error())
			return
		}
		p.stack = append(p.stack, frame{kind: frameBlock, open: tok.Range.Start})
		return
	}
	if tailIsEmpty(p.target()) {
		if err := p.target().pushLeaf(&Node{Kind: NodeListInit}); err != nil {
			p.error(tok.Range, err.Error())
			return
		}
		p.stack = append(p.stack, frame{kind: frameListInit, open: tok.Range.Start})
		return
	}
	if err := p.target().pushLeaf(&Node{Kind: NodeBlock}); err != nil {
		p.error(tok.Range, err.Error())
		return
	}
	p.stack = append(p.stack, frame{kind: frameBlock, open: tok.Range.Start})
}

func (p *parser) closeBrace(tok Token) {
	if len(p.stack) == 0 {
		p.error(tok.Range, "unexpected '}'")
		return
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	switch top.kind {
	case frameListInit:
		if !closeContainer(p.target(), NodeListInit) {
			p.error(tok.Range, "unmatched '}'")
		}
	case frameBlock:
		closeOpenStatement(p.target())
		if !closeContainer(p.target(), NodeBlock) {
			p.error(tok.Range, "unmatched '}'")
		}
	default:
		p.error(tok.Range, "unexpected '}'")
	}
}

// finish reports every bracket left open at end of input, and trims the
// trailing empty slot nextElement leaves after the last top-level ';'
// (the root Block is never routed through closeContainer since no '{'
// ever opens it).
func (p *parser) finish() {
	closeOpenStatement(p.root)
	if n := len(p.root.Elts); n != 0 && p.root.Elts[n-1].Kind == NodeEmpty {
		p.root.Elts = p.root.Elts[:n-1]
	}
	for _, f := range p.stack {
		switch f.kind {
		case frameParens, frameCFParens:
			p.error(Single(f.open), "unterminated '('; missing matching ')'")
		case frameCallArgs:
			p.error(Single(f.open), "unterminated function call; missing matching ')'")
		case frameSubscript:
			p.error(Single(f.open), "unterminated '['; missing matching ']'")
		case frameListInit, frameBlock:
			p.error(Single(f.open), "unterminated '{'; missing matching '}'")
		}
	}
}
