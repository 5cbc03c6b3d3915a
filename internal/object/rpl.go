// internal/object/rpl.go
package object

import (
	"reckon/internal/errors"
	"reckon/internal/lexer"
	"reckon/internal/runtime"
	"reckon/internal/settings"
)

// The RPL command line: literals push themselves, command names
// execute immediately, quoted expressions and program/list brackets
// build composite objects without evaluating them.

// EvalLine tokenizes and executes one line of RPL source.
func EvalLine(ctx *Context, src string) error {
	opts := lexer.Options{
		DecimalSeparator:    ctx.Cfg.DecimalSeparator,
		ExponentSeparator:   ctx.Cfg.ExponentSeparator,
		DigitGroupSeparator: ctx.Cfg.DigitGroupSeparator,
		BasedSeparator:      ctx.Cfg.BasedSeparator,
	}
	toks := lexer.NewScanner(src, opts).ScanTokens()
	p := &eparser{ctx: ctx, toks: toks, items: newRefVec(ctx), src: src}
	rt := ctx.RT

	for p.peek().Type != lexer.TokenEOF {
		if rt.Err() != nil {
			return rt.Err()
		}
		if rt.Interrupted() {
			rt.SetError(errors.New(errors.InterruptedError))
			return rt.Err()
		}
		t := p.peek()
		// A minus glued to a number at the start of a word is its sign.
		if t.Type == lexer.TokenMinus && p.pos+1 < len(p.toks) {
			n := p.toks[p.pos+1]
			if n.Type == lexer.TokenNumber && n.Pos == t.Pos+1 &&
				(t.Pos == 0 || src[t.Pos-1] == ' ' || src[t.Pos-1] == '\t') {
				p.advance()
				p.advance()
				obj := ParseNumber(ctx, "-"+n.Lexeme)
				if obj == runtime.Nil {
					return lineError(ctx, src, t.Pos)
				}
				if !rt.Push(obj) {
					return rt.Err()
				}
				continue
			}
		}
		switch t.Type {
		case lexer.TokenNumber, lexer.TokenDMS, lexer.TokenBased,
			lexer.TokenString, lexer.TokenQuote, lexer.TokenProgOpen,
			lexer.TokenLBrace, lexer.TokenLBracket, lexer.TokenColon,
			lexer.TokenLParen:
			obj, ok := parseOne(p, false)
			if !ok {
				return lineError(ctx, src, t.Pos)
			}
			if !rt.Push(obj) {
				return rt.Err()
			}
		case lexer.TokenUnder:
			// Attach a unit to the value on the stack.
			p.advance()
			uref := p.unitExpr()
			if uref == runtime.Nil {
				return lineError(ctx, src, t.Pos)
			}
			value := rt.Pop()
			if value == runtime.Nil {
				return rt.Err()
			}
			u := NewUnit(ctx, value, uref)
			if u == runtime.Nil || !rt.Push(u) {
				return rt.Err()
			}
		case lexer.TokenName:
			p.advance()
			if id, ok := CommandNamed(t.Lexeme); ok {
				if err := applyCommand(ctx, id); err != nil {
					return err
				}
				break
			}
			if handled, err := settingCommand(ctx, t.Lexeme); handled {
				if err != nil {
					return err
				}
				break
			}
			switch t.Lexeme {
			case "π", "pi", "e":
				c := NewConstant(ctx, t.Lexeme)
				if c == runtime.Nil {
					return rt.Err()
				}
				if err := Evaluate(ctx, c); err != nil {
					return err
				}
			default:
				s := NewSymbol(ctx, t.Lexeme)
				if s == runtime.Nil {
					return rt.Err()
				}
				if err := Evaluate(ctx, s); err != nil {
					return err
				}
			}
		default:
			id, ok := tokenCommand(t.Type)
			if !ok {
				return lineError(ctx, src, t.Pos)
			}
			p.advance()
			if err := applyCommand(ctx, id); err != nil {
				return err
			}
		}
	}
	return rt.Err()
}

// settingCommand applies a named settings command. Commands that take
// a value pop it from the stack.
func settingCommand(ctx *Context, name string) (bool, error) {
	rt := ctx.RT
	popInt := func(lo, hi int64) (int64, bool) {
		v, ok := IntegerValue(ctx, rt.Pop())
		if !ok || v < lo || v > hi {
			return 0, false
		}
		return v, true
	}
	switch name {
	case "deg":
		ctx.Cfg.Angle = settings.Degrees
	case "rad":
		ctx.Cfg.Angle = settings.Radians
	case "grad":
		ctx.Cfg.Angle = settings.Grads
	case "pirad":
		ctx.Cfg.Angle = settings.PiRadians
	case "std":
		ctx.Cfg.Display = settings.Standard
	case "fix", "sci", "eng":
		n, ok := popInt(0, 34)
		if !ok {
			ctx.raise(errors.ValueError)
			return true, rt.Err()
		}
		ctx.Cfg.DisplayDigits = int(n)
		switch name {
		case "fix":
			ctx.Cfg.Display = settings.Fixed
		case "sci":
			ctx.Cfg.Display = settings.Scientific
		default:
			ctx.Cfg.Display = settings.Engineering
		}
	case "precision":
		n, ok := popInt(3, 9999)
		if !ok {
			ctx.raise(errors.ValueError)
			return true, rt.Err()
		}
		ctx.Cfg.Precision = int(n)
	case "wordsize":
		n, ok := popInt(1, 64)
		if !ok {
			ctx.raise(errors.ValueError)
			return true, rt.Err()
		}
		ctx.Cfg.WordSize = int(n)
	case "base":
		n, ok := popInt(2, 36)
		if !ok {
			ctx.raise(errors.InvalidBaseError)
			return true, rt.Err()
		}
		ctx.Cfg.Base = int(n)
	case "hwfp":
		ctx.Cfg.HardwareFloatingPoint = true
	case "nohwfp":
		ctx.Cfg.HardwareFloatingPoint = false
	case "autosimplify":
		ctx.Cfg.AutoSimplify = true
	case "noautosimplify":
		ctx.Cfg.AutoSimplify = false
	case "numresults":
		ctx.Cfg.NumericalResults = true
	case "symresults":
		ctx.Cfg.NumericalResults = false
	case "mixedfractions":
		ctx.Cfg.MixedFractions = true
	case "improperfractions":
		ctx.Cfg.MixedFractions = false
	default:
		return false, nil
	}
	return true, nil
}

// tokenCommand maps operator tokens to their commands.
func tokenCommand(tt lexer.TokenType) (ID, bool) {
	switch tt {
	case lexer.TokenPlus:
		return IDAdd, true
	case lexer.TokenMinus:
		return IDSub, true
	case lexer.TokenStar:
		return IDMul, true
	case lexer.TokenSlash:
		return IDDiv, true
	case lexer.TokenCaret:
		return IDPow, true
	case lexer.TokenBang:
		return IDFact, true
	case lexer.TokenSq:
		return IDSq, true
	case lexer.TokenCubed:
		return IDCubed, true
	case lexer.TokenEqual:
		return IDEq, true
	case lexer.TokenNotEqual:
		return IDNe, true
	case lexer.TokenLT:
		return IDLt, true
	case lexer.TokenLE:
		return IDLe, true
	case lexer.TokenGT:
		return IDGt, true
	case lexer.TokenGE:
		return IDGe, true
	}
	return IDInvalid, false
}

func lineError(ctx *Context, src string, pos int) error {
	if ctx.RT.Err() == nil {
		ctx.raise(errors.SyntaxError)
	}
	ctx.RT.ErrorSource(src, pos)
	return ctx.RT.Err()
}

// parseOne parses a single object literal without evaluating it.
// Inside programs, command names become command objects.
func parseOne(p *eparser, inProgram bool) (runtime.Ref, bool) {
	t := p.advance()
	switch t.Type {
	case lexer.TokenNumber:
		obj := ParseNumber(p.ctx, t.Lexeme)
		return obj, obj != runtime.Nil
	case lexer.TokenDMS:
		obj := parseDMSLexeme(p.ctx, t.Lexeme)
		return obj, obj != runtime.Nil
	case lexer.TokenBased:
		obj := ParseBased(p.ctx, t.Lexeme)
		return obj, obj != runtime.Nil
	case lexer.TokenString:
		obj := NewText(p.ctx, t.Lexeme)
		return obj, obj != runtime.Nil
	case lexer.TokenQuote:
		// 'expr' — re-enter the infix parser up to the closing quote.
		sub := &eparser{ctx: p.ctx, toks: p.toks, pos: p.pos,
			items: newRefVec(p.ctx), src: p.src}
		if !sub.expression() {
			sub.items.close()
			return runtime.Nil, false
		}
		p.pos = sub.pos
		if !p.matchTok(lexer.TokenQuote) {
			sub.items.close()
			p.ctx.raise(errors.UnterminatedError)
			return runtime.Nil, false
		}
		items := sub.items.refs()
		if len(items) == 1 && !isCommand(TypeOf(p.ctx, items[0])) {
			return items[0], true
		}
		obj := NewExpression(p.ctx, items)
		return obj, obj != runtime.Nil
	case lexer.TokenLParen:
		// (re;im) and (mod∡arg) complex literals
		sub := &eparser{ctx: p.ctx, toks: p.toks, pos: p.pos - 1,
			items: newRefVec(p.ctx), src: p.src}
		if !sub.primary() {
			sub.items.close()
			return runtime.Nil, false
		}
		p.pos = sub.pos
		items := sub.items.refs()
		if len(items) == 1 && !isCommand(TypeOf(p.ctx, items[0])) {
			return items[0], true
		}
		obj := NewExpression(p.ctx, items)
		return obj, obj != runtime.Nil
	case lexer.TokenProgOpen:
		return parseDelimited(p, lexer.TokenProgClose, IDProgram)
	case lexer.TokenLBrace:
		return parseDelimited(p, lexer.TokenRBrace, IDList)
	case lexer.TokenLBracket:
		return parseDelimited(p, lexer.TokenRBracket, IDArray)
	case lexer.TokenColon:
		// :label: object
		label := p.advance()
		if label.Type != lexer.TokenName || !p.matchTok(lexer.TokenColon) {
			return runtime.Nil, false
		}
		inner, ok := parseOne(p, inProgram)
		if !ok {
			return runtime.Nil, false
		}
		obj := NewTag(p.ctx, label.Lexeme, inner)
		return obj, obj != runtime.Nil
	case lexer.TokenName:
		if inProgram {
			if id, ok := CommandNamed(t.Lexeme); ok {
				return Static(id), true
			}
		}
		obj := NewSymbol(p.ctx, t.Lexeme)
		return obj, obj != runtime.Nil
	}
	if inProgram {
		if id, ok := tokenCommand(t.Type); ok {
			return Static(id), true
		}
	}
	return runtime.Nil, false
}

// parseDelimited collects objects up to the closing token and builds
// the composite.
func parseDelimited(p *eparser, closing lexer.TokenType, id ID) (runtime.Ref, bool) {
	items := newRefVec(p.ctx)
	inProgram := id == IDProgram
	for {
		if p.peek().Type == lexer.TokenEOF {
			items.close()
			p.ctx.raise(errors.UnterminatedError)
			return runtime.Nil, false
		}
		if p.matchTok(closing) {
			obj := NewComposite(p.ctx, id, items.refs())
			return obj, obj != runtime.Nil
		}
		obj, ok := parseOne(p, inProgram)
		if !ok {
			items.close()
			return runtime.Nil, false
		}
		items.push(obj)
	}
}
