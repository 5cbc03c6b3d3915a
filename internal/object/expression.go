// internal/object/expression.go
package object

import (
	"math/big"
	"strconv"
	"strings"

	"reckon/internal/errors"
	"reckon/internal/lexer"
	"reckon/internal/runtime"
)

// An expression is a postfix byte sequence of inline objects behind a
// length header. Iteration yields the objects in left-to-right postfix
// order; evaluation runs them against the stack; rendering rebuilds
// the infix syntax with precedence-driven parenthesization.

// Operator precedence, lowest binds loosest.
const (
	precNone    = 0
	precCompare = 10
	precAdd     = 20
	precMul     = 30
	precPow     = 40
	precUnary   = 50
	precFunc    = 60
	precAtom    = 100
)

// opPrecedence returns the infix precedence of a command, or precNone
// for commands rendered as function calls.
func opPrecedence(id ID) int {
	switch id {
	case IDEq, IDNe, IDLt, IDLe, IDGt, IDGe:
		return precCompare
	case IDAdd, IDSub:
		return precAdd
	case IDMul, IDDiv, IDMod, IDRem, IDAnd, IDOr, IDXor:
		return precMul
	case IDPow:
		return precPow
	case IDNeg:
		return precUnary
	}
	return precNone
}

// refVec accumulates object references across allocating calls,
// keeping each one registered with the collector.
type refVec struct {
	ctx     *Context
	handles []*runtime.Handle
}

func newRefVec(ctx *Context) *refVec {
	return &refVec{ctx: ctx}
}

func (v *refVec) push(ref runtime.Ref) {
	v.handles = append(v.handles, v.ctx.RT.Protect(ref))
}

func (v *refVec) len() int {
	return len(v.handles)
}

// refs closes the handles and returns the current references.
func (v *refVec) refs() []runtime.Ref {
	out := make([]runtime.Ref, len(v.handles))
	for i, h := range v.handles {
		out[i] = h.Ref()
		h.Close()
	}
	v.handles = nil
	return out
}

// close releases without reading, for error paths.
func (v *refVec) close() {
	for _, h := range v.handles {
		h.Close()
	}
	v.handles = nil
}

// NewExpression builds an expression from postfix items.
func NewExpression(ctx *Context, items []runtime.Ref) runtime.Ref {
	return NewComposite(ctx, IDExpression, items)
}

// exprItems appends the postfix encoding of ref to body: expressions
// splice their items, everything else copies whole.
func exprItems(ctx *Context, body []byte, ref runtime.Ref) []byte {
	if TypeOf(ctx, ref) == IDExpression {
		b, ok := sizedBytes(ctx, ref)
		if ok {
			return append(body, b...)
		}
		return body
	}
	b := ctx.RT.At(ref)
	sz := sizeAt(b, 0)
	if sz <= 0 {
		return body
	}
	return append(body, b[:sz]...)
}

// exprBinary builds the expression "x op y" in postfix.
func exprBinary(ctx *Context, op ID, x, y runtime.Ref) runtime.Ref {
	var body []byte
	body = exprItems(ctx, body, x)
	body = exprItems(ctx, body, y)
	body = runtime.AppendULEB(body, uint64(op))
	return newSized(ctx, IDExpression, body)
}

// exprUnary builds the expression "op x" in postfix.
func exprUnary(ctx *Context, op ID, x runtime.Ref) runtime.Ref {
	var body []byte
	body = exprItems(ctx, body, x)
	body = runtime.AppendULEB(body, uint64(op))
	return newSized(ctx, IDExpression, body)
}

// evalExpression runs the postfix items against the stack. Symbolic
// operands propagate through the arithmetic layer, so an expression
// over unbound names evaluates to an expression. The walk is by
// offset under a GC handle: item evaluation can move the arena.
func evalExpression(ctx *Context, ref runtime.Ref) error {
	rt := ctx.RT
	depth := rt.Depth()
	h := rt.Protect(ref)
	defer h.Close()

	body, ok := sizedBytes(ctx, ref)
	if !ok {
		ctx.raise(errors.InternalError)
		return rt.Err()
	}
	_, lenSize := runtime.ULEB(payload(ctx, ref))
	headerLen := runtime.ULEBSkip(rt.At(ref)) + lenSize
	end := headerLen + len(body)

	var failed error
	for off := headerLen; off < end; {
		if rt.Interrupted() {
			failed = errors.New(errors.InterruptedError)
			break
		}
		c := h.Ref() + runtime.Ref(off)
		sz := SizeOf(ctx, c)
		if sz <= 0 {
			failed = errors.New(errors.InternalError)
			break
		}
		off += sz
		id := TypeOf(ctx, c)
		if isCommand(id) {
			if err := applyCommand(ctx, id); err != nil {
				failed = err
				break
			}
			continue
		}
		if err := Evaluate(ctx, c); err != nil {
			failed = err
			break
		}
	}
	if failed != nil {
		rt.SetError(failed)
		// Rewind to the depth at entry, leaving the stack consistent.
		if d := rt.Depth() - depth; d > 0 {
			rt.Drop(d)
		}
		return failed
	}
	return nil
}

// ====================================================================
//
//   Rendering
//
// ====================================================================

type renderFrag struct {
	text string
	prec int
}

// renderExpression rebuilds infix source from the postfix items.
func renderExpression(ctx *Context, ref runtime.Ref, r *Renderer) {
	r.PutByte('\'')
	r.PutString(exprInfix(ctx, ref))
	r.PutByte('\'')
}

// exprInfix renders the expression body without the quotes.
func exprInfix(ctx *Context, ref runtime.Ref) string {
	var stack []renderFrag
	pop := func() renderFrag {
		if len(stack) == 0 {
			return renderFrag{text: "?", prec: precAtom}
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return f
	}
	wrap := func(f renderFrag, need bool) string {
		if need {
			return "(" + f.text + ")"
		}
		return f.text
	}

	forEachChild(ctx, ref, func(c runtime.Ref) bool {
		id := TypeOf(ctx, c)
		switch {
		case !isCommand(id):
			text := Render(ctx, c)
			if id == IDExpression {
				text = exprInfix(ctx, c)
			}
			p := precAtom
			if strings.HasPrefix(text, "-") {
				p = precUnary
			}
			stack = append(stack, renderFrag{text: text, prec: p})
		case id == IDNeg:
			x := pop()
			stack = append(stack, renderFrag{
				text: "-" + wrap(x, x.prec < precUnary),
				prec: precUnary,
			})
		case id == IDSq, id == IDCubed, id == IDFact:
			x := pop()
			suffix := map[ID]string{IDSq: "²", IDCubed: "³", IDFact: "!"}[id]
			stack = append(stack, renderFrag{
				text: wrap(x, x.prec < precAtom) + suffix,
				prec: precFunc,
			})
		case opPrecedence(id) != precNone:
			p := opPrecedence(id)
			y := pop()
			x := pop()
			op := id.Name()
			spaced := id == IDMod || id == IDRem || id == IDAnd ||
				id == IDOr || id == IDXor
			var sb strings.Builder
			sb.WriteString(wrap(x, x.prec < p || id == IDPow && x.prec <= p))
			if spaced {
				sb.WriteByte(' ')
			}
			sb.WriteString(op)
			if spaced {
				sb.WriteByte(' ')
			}
			rightParen := y.prec < p
			if id == IDSub || id == IDDiv {
				rightParen = y.prec <= p
			}
			if id == IDPow {
				rightParen = y.prec < p
			}
			sb.WriteString(wrap(y, rightParen))
			stack = append(stack, renderFrag{text: sb.String(), prec: p})
		default:
			// Function-call form, unary or binary.
			if cmdArity(id) == 2 {
				y := pop()
				x := pop()
				stack = append(stack, renderFrag{
					text: id.Name() + "(" + x.text + ";" + y.text + ")",
					prec: precFunc,
				})
			} else {
				x := pop()
				stack = append(stack, renderFrag{
					text: id.Name() + "(" + x.text + ")",
					prec: precFunc,
				})
			}
		}
		return true
	})
	if len(stack) == 0 {
		return "?"
	}
	return stack[len(stack)-1].text
}

// ====================================================================
//
//   Parsing
//
// ====================================================================

// eparser is the recursive-descent expression parser over the scanner
// tokens, producing postfix items.
type eparser struct {
	ctx   *Context
	toks  []lexer.Token
	pos   int
	items *refVec
	src   string
}

// ParseExpression parses infix source into an expression object.
func ParseExpression(ctx *Context, src string) runtime.Ref {
	opts := lexer.Options{
		DecimalSeparator:    ctx.Cfg.DecimalSeparator,
		ExponentSeparator:   ctx.Cfg.ExponentSeparator,
		DigitGroupSeparator: ctx.Cfg.DigitGroupSeparator,
		BasedSeparator:      ctx.Cfg.BasedSeparator,
	}
	toks := lexer.NewScanner(src, opts).ScanTokens()
	p := &eparser{ctx: ctx, toks: toks, items: newRefVec(ctx), src: src}
	if !p.expression() || p.peek().Type != lexer.TokenEOF {
		p.items.close()
		if ctx.RT.Err() == nil {
			ctx.raise(errors.SyntaxError)
			ctx.RT.ErrorSource(src, p.peek().Pos)
		}
		return runtime.Nil
	}
	items := p.items.refs()
	if len(items) == 1 && !isCommand(TypeOf(ctx, items[0])) {
		// A bare atom stays an atom only when symbolic; numbers keep
		// their own type.
		return items[0]
	}
	return NewExpression(ctx, items)
}

func (p *eparser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *eparser) advance() lexer.Token {
	t := p.toks[p.pos]
	if t.Type != lexer.TokenEOF {
		p.pos++
	}
	return t
}

func (p *eparser) matchTok(tt lexer.TokenType) bool {
	if p.peek().Type == tt {
		p.pos++
		return true
	}
	return false
}

func (p *eparser) emit(ref runtime.Ref) bool {
	if ref == runtime.Nil {
		return false
	}
	p.items.push(ref)
	return true
}

func (p *eparser) emitOp(id ID) bool {
	p.items.push(Static(id))
	return true
}

func (p *eparser) expression() bool {
	return p.comparison()
}

func (p *eparser) comparison() bool {
	if !p.additive() {
		return false
	}
	var op ID
	switch p.peek().Type {
	case lexer.TokenEqual:
		op = IDEq
	case lexer.TokenNotEqual:
		op = IDNe
	case lexer.TokenLT:
		op = IDLt
	case lexer.TokenLE:
		op = IDLe
	case lexer.TokenGT:
		op = IDGt
	case lexer.TokenGE:
		op = IDGe
	default:
		return true
	}
	p.advance()
	if !p.additive() {
		return false
	}
	return p.emitOp(op)
}

func (p *eparser) additive() bool {
	if !p.multiplicative() {
		return false
	}
	for {
		var op ID
		switch p.peek().Type {
		case lexer.TokenPlus:
			op = IDAdd
		case lexer.TokenMinus:
			op = IDSub
		default:
			return true
		}
		p.advance()
		if !p.multiplicative() {
			return false
		}
		p.emitOp(op)
	}
}

func (p *eparser) multiplicative() bool {
	if !p.power() {
		return false
	}
	for {
		var op ID
		switch {
		case p.peek().Type == lexer.TokenStar:
			op = IDMul
		case p.peek().Type == lexer.TokenSlash:
			op = IDDiv
		case p.peek().Type == lexer.TokenName && p.peek().Lexeme == "mod":
			op = IDMod
		case p.peek().Type == lexer.TokenName && p.peek().Lexeme == "rem":
			op = IDRem
		default:
			return true
		}
		p.advance()
		if !p.power() {
			return false
		}
		p.emitOp(op)
	}
}

func (p *eparser) power() bool {
	if !p.unary() {
		return false
	}
	if p.matchTok(lexer.TokenCaret) {
		if !p.power() { // right-associative
			return false
		}
		return p.emitOp(IDPow)
	}
	return true
}

func (p *eparser) unary() bool {
	if p.matchTok(lexer.TokenMinus) {
		if !p.unary() {
			return false
		}
		return p.emitOp(IDNeg)
	}
	if p.matchTok(lexer.TokenPlus) {
		return p.unary()
	}
	return p.postfix()
}

func (p *eparser) postfix() bool {
	if !p.primary() {
		return false
	}
	for {
		switch p.peek().Type {
		case lexer.TokenBang:
			p.advance()
			p.emitOp(IDFact)
		case lexer.TokenSq:
			p.advance()
			p.emitOp(IDSq)
		case lexer.TokenCubed:
			p.advance()
			p.emitOp(IDCubed)
		case lexer.TokenUnder:
			p.advance()
			if !p.unitSuffix() {
				return false
			}
		default:
			return true
		}
	}
}

func (p *eparser) primary() bool {
	t := p.peek()
	switch t.Type {
	case lexer.TokenNumber:
		p.advance()
		return p.emit(ParseNumber(p.ctx, t.Lexeme))
	case lexer.TokenDMS:
		p.advance()
		return p.emit(parseDMSLexeme(p.ctx, t.Lexeme))
	case lexer.TokenBased:
		p.advance()
		return p.emit(ParseBased(p.ctx, t.Lexeme))
	case lexer.TokenName:
		p.advance()
		return p.nameOrCall(t.Lexeme)
	case lexer.TokenLParen:
		p.advance()
		return p.parenOrComplex()
	}
	return false
}

// nameOrCall handles a symbol, a named constant, or a function call.
func (p *eparser) nameOrCall(name string) bool {
	if p.peek().Type == lexer.TokenLParen {
		if id, ok := CommandNamed(name); ok && isAlgebraicCmd(id) {
			p.advance()
			arity := cmdArity(id)
			for i := 0; i < arity; i++ {
				if i > 0 && !p.matchTok(lexer.TokenSemi) {
					return false
				}
				if !p.expression() {
					return false
				}
			}
			if !p.matchTok(lexer.TokenRParen) {
				return false
			}
			return p.emitOp(id)
		}
	}
	switch name {
	case "π", "pi":
		return p.emit(NewConstant(p.ctx, "π"))
	case "e":
		return p.emit(NewConstant(p.ctx, "e"))
	case "i", "ⅈ":
		zero := NewInteger(p.ctx, 0)
		g := guard(p.ctx, &zero)
		one := NewInteger(p.ctx, 1)
		g()
		return p.emit(NewRectangular(p.ctx, zero, one))
	}
	return p.emit(NewSymbol(p.ctx, name))
}

// parenOrComplex parses "(expr)", "(re;im)" or "(mod∡arg)".
func (p *eparser) parenOrComplex() bool {
	if !p.expression() {
		return false
	}
	switch {
	case p.matchTok(lexer.TokenSemi):
		if !p.expression() {
			return false
		}
		if !p.matchTok(lexer.TokenRParen) {
			return false
		}
		return p.makePair(IDRectangular)
	case p.matchTok(lexer.TokenAngle):
		if !p.expression() {
			return false
		}
		if !p.matchTok(lexer.TokenRParen) {
			return false
		}
		return p.makePair(IDPolar)
	}
	return p.matchTok(lexer.TokenRParen)
}

// makePair collapses the two most recent items into a complex object.
// Both components must be bare numeric objects.
func (p *eparser) makePair(id ID) bool {
	items := p.items.refs()
	if len(items) < 2 {
		return false
	}
	a, b := items[len(items)-2], items[len(items)-1]
	if !isReal(TypeOf(p.ctx, a)) || !isReal(TypeOf(p.ctx, b)) {
		return false
	}
	for _, it := range items[:len(items)-2] {
		p.items.push(it)
	}
	z := newPair(p.ctx, id, a, b)
	if z == runtime.Nil {
		return false
	}
	p.items.push(z)
	return true
}

// unitSuffix parses the unit expression after '_' and wraps the last
// item in a unit object.
func (p *eparser) unitSuffix() bool {
	uref := p.unitExpr()
	if uref == runtime.Nil {
		return false
	}
	items := p.items.refs()
	if len(items) == 0 {
		return false
	}
	value := items[len(items)-1]
	for _, it := range items[:len(items)-1] {
		p.items.push(it)
	}
	u := NewUnit(p.ctx, value, uref)
	if u == runtime.Nil {
		return false
	}
	p.items.push(u)
	return true
}

// unitExpr parses the restricted unit grammar: names combined with
// multiplication, division and integer powers.
func (p *eparser) unitExpr() runtime.Ref {
	v := newRefVec(p.ctx)
	if !p.unitTerm(v) {
		v.close()
		return runtime.Nil
	}
	for {
		// An operator after a blank is not part of the unit: "3_s *".
		prev := p.toks[p.pos-1]
		glued := p.peek().Pos == prev.Pos+len(prev.Lexeme)
		var op ID
		switch tt := p.peek().Type; {
		case glued && tt == lexer.TokenStar:
			op = IDMul
		case glued && tt == lexer.TokenSlash:
			op = IDDiv
		default:
			items := v.refs()
			if len(items) == 1 {
				return items[0]
			}
			return NewExpression(p.ctx, items)
		}
		p.advance()
		if !p.unitTerm(v) {
			v.close()
			return runtime.Nil
		}
		v.push(Static(op))
	}
}

func (p *eparser) unitTerm(v *refVec) bool {
	t := p.advance()
	if t.Type != lexer.TokenName {
		return false
	}
	v.push(NewSymbol(p.ctx, t.Lexeme))
	if p.matchTok(lexer.TokenCaret) {
		e := p.advance()
		neg := false
		if e.Type == lexer.TokenMinus {
			neg = true
			e = p.advance()
		}
		if e.Type != lexer.TokenNumber {
			return false
		}
		n, err := strconv.ParseInt(e.Lexeme, 10, 32)
		if err != nil {
			return false
		}
		if neg {
			n = -n
		}
		v.push(NewInteger(p.ctx, n))
		v.push(Static(IDPow))
	}
	return true
}

// ParseNumber parses a plain numeric literal: integer or decimal,
// honouring the configured separators.
func ParseNumber(ctx *Context, text string) runtime.Ref {
	clean := text
	if sep := ctx.Cfg.DigitGroupSeparator; sep != 0 {
		clean = strings.ReplaceAll(clean, string(sep), "")
	}
	if sep := ctx.Cfg.DecimalSeparator; sep != '.' && sep != 0 {
		clean = strings.ReplaceAll(clean, string(sep), ".")
	}
	if sep := ctx.Cfg.ExponentSeparator; sep != 'e' && sep != 'E' && sep != 0 {
		clean = strings.ReplaceAll(clean, string(sep), "E")
	}
	clean = strings.ReplaceAll(clean, "⁳", "E")
	if !strings.ContainsAny(clean, ".eE") {
		if v, err := strconv.ParseInt(clean, 10, 64); err == nil {
			return NewInteger(ctx, v)
		}
		if v, ok := new(big.Int).SetString(clean, 10); ok {
			return NewBignum(ctx, v)
		}
		return ctx.raise(errors.MantissaError)
	}
	return ParseDecimal(ctx, clean)
}

// parseDMSLexeme splits d°m′s″ and builds the degrees fraction.
func parseDMSLexeme(ctx *Context, text string) runtime.Ref {
	deg, rest, ok := strings.Cut(text, "°")
	if !ok {
		return ctx.raise(errors.SyntaxError)
	}
	min, rest, _ := strings.Cut(rest, "′")
	sec, _, _ := strings.Cut(rest, "″")
	if min == "" {
		min = "0"
	}
	return ParseDMS(ctx, deg, min, sec)
}
