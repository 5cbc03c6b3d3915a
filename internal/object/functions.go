// internal/object/functions.go
package object

import (
	"math/big"

	"reckon/internal/errors"
	"reckon/internal/runtime"
	"reckon/internal/settings"
)

// Fn evaluates a unary algebraic function over the tower: exact paths
// for integers and fractions where the result stays exact, hardware
// floats when enabled, decimals otherwise, complex where a real
// operation fails, and symbolic deferral for expressions.

func Fn(ctx *Context, op ID, x runtime.Ref) runtime.Ref {
	if TypeOf(ctx, x) == IDTag {
		if _, inner, ok := tagParts(ctx, x); ok {
			x = inner
		}
	}
	xid := TypeOf(ctx, x)

	if isSymbolic(xid) {
		return exprUnary(ctx, op, x)
	}
	if xid == IDUnit {
		return unitFn(ctx, op, x)
	}
	if isComplex(xid) {
		return complexFn(ctx, op, x)
	}
	if !isReal(xid) {
		return ctx.raise(errors.TypeError)
	}

	// Exact results that must not round.
	if out, handled := exactFn(ctx, op, x); handled {
		return out
	}

	// Angle-aware trigonometry has its own path.
	switch op {
	case IDSin, IDCos, IDTan, IDASin, IDACos, IDATan:
		return trigFn(ctx, op, x)
	}

	// Hardware fast path.
	if hwEnabled(ctx) {
		if v, ok := hwPromote(ctx, x); ok {
			if r, ok := hwFn(op, v); ok {
				return newHwResult(ctx, r)
			}
		}
	}

	d, ok := decPromote(ctx, x)
	if !ok {
		return ctx.raise(errors.TypeError)
	}
	p := prec(ctx)
	var r dnum
	switch op {
	case IDNeg:
		r = dNeg(d)
	case IDAbs:
		r = dAbs(d)
	case IDInv:
		if d.isZero() {
			return ctx.raise(errors.ZeroDivideError)
		}
		r = dDiv(dOne(), d, p)
	case IDSq:
		r = dMul(d, d, p)
	case IDCubed:
		r = dMul(dMul(d, d, p+4), d, p)
	case IDSqrt:
		if d.neg && !d.isZero() {
			// Square root of a negative goes complex.
			rt := dSqrt(dAbs(d), p)
			return makeComplexResult(ctx, crect{re: dZero(), im: rt})
		}
		r = dSqrt(d, p)
	case IDCbrt:
		if d.neg {
			r = dNeg(cbrtPositive(ctx, dAbs(d), p))
		} else {
			r = cbrtPositive(ctx, d, p)
		}
	case IDExp:
		r = dExp(ctx, d, p)
	case IDExp2:
		r, _ = decPow(ctx, dFromInt64(2), d, p)
	case IDExp10:
		r, _ = decPow(ctx, dFromInt64(10), d, p)
	case IDExpm1:
		g := p + 8
		r = dSub(dExp(ctx, d, g), dOne(), g)
	case IDLn:
		if d.neg && !d.isZero() {
			return complexFnRect(ctx, op, crect{re: d, im: dZero()})
		}
		if d.isZero() {
			return ctx.raise(errors.DomainError)
		}
		r = dLn(ctx, d, p)
	case IDLog2:
		r = logBase(ctx, d, ctx.constants().ln2, p)
	case IDLog10:
		r = logBase(ctx, d, ctx.constants().ln10, p)
	case IDLog1p:
		g := p + 8
		r = dLn(ctx, dAdd(dOne(), d, g), p)
	case IDSinh:
		r = dSinh(ctx, d, p)
	case IDCosh:
		r = dCosh(ctx, d, p)
	case IDTanh:
		r = dTanh(ctx, d, p)
	case IDASinh:
		r = dAsinh(ctx, d, p)
	case IDACosh:
		r = dAcosh(ctx, d, p)
	case IDATanh:
		r = dAtanh(ctx, d, p)
	case IDErf:
		r = dErf(ctx, d, p)
	case IDErfc:
		r = dErfc(ctx, d, p)
	case IDTGamma:
		r = dGamma(ctx, d, p)
	case IDLGamma:
		r = dLGamma(ctx, d, p)
	case IDFact:
		g := p + 8
		r = dGamma(ctx, dAdd(d, dOne(), g), p)
	case IDSign:
		switch {
		case d.isZero():
			return NewInteger(ctx, 0)
		case d.neg:
			return NewInteger(ctx, -1)
		default:
			return NewInteger(ctx, 1)
		}
	case IDIntPart:
		return makeIntResult(ctx, dTrunc(d))
	case IDFracPart:
		r = dSub(d, dFromBig(dTrunc(d)), p)
	case IDCeil:
		return makeIntResult(ctx, dCeil(d))
	case IDFloor:
		return makeIntResult(ctx, dFloor(d))
	case IDToDecimal:
		r = d
	case IDToFraction:
		return ToFraction(ctx, x, ctx.Cfg.FractionIterations, ctx.Cfg.FractionDigits)
	case IDRe:
		r = d
	case IDIm:
		return NewInteger(ctx, 0)
	case IDConj:
		r = d
	case IDArg:
		if d.neg {
			return NewDecimal(ctx, ConvertAngle(ctx, dOne(), settings.PiRadians, ctx.Cfg.Angle, false))
		}
		return NewInteger(ctx, 0)
	default:
		return ctx.raise(errors.InvalidFunctionError)
	}
	if r.isNaN() {
		return ctx.raise(errors.DomainError)
	}
	return NewDecimal(ctx, dRound(r, p))
}

// cbrtPositive computes the real cube root of a positive decimal.
func cbrtPositive(ctx *Context, d dnum, p int) dnum {
	if d.isZero() || !d.finite() {
		return d
	}
	g := p + 8
	third := dDiv(dOne(), dFromInt64(3), g)
	r, _ := decPow(ctx, d, third, p)
	return r
}

// logBase computes ln(x)/lnBase.
func logBase(ctx *Context, x, lnBase dnum, p int) dnum {
	if x.neg || x.isZero() {
		return dNaN()
	}
	g := p + 8
	return dDiv(dLn(ctx, x, g), lnBase, p)
}

// exactFn handles the cases where an exact result is required: integer
// and fraction arguments under sign, parts and factorial operations,
// perfect squares, and exact-angle trigonometry.
func exactFn(ctx *Context, op ID, x runtime.Ref) (runtime.Ref, bool) {
	xid := TypeOf(ctx, x)
	switch op {
	case IDNeg:
		switch {
		case isInteger(xid) || isBignum(xid):
			v, ok := bigValue(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			return makeIntResult(ctx, v.Neg(v)), true
		case isFraction(xid):
			r, ok := ratOf(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			return makeRatResult(ctx, r.Neg(r)), true
		}
	case IDAbs:
		switch {
		case isInteger(xid) || isBignum(xid):
			v, ok := bigValue(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			return makeIntResult(ctx, v.Abs(v)), true
		case isFraction(xid):
			r, ok := ratOf(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			return makeRatResult(ctx, r.Abs(r)), true
		}
	case IDSign:
		if isInteger(xid) || isBignum(xid) || isFraction(xid) {
			v, ok := ratOf(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			return NewInteger(ctx, int64(v.Sign())), true
		}
	case IDIntPart, IDFracPart, IDFloor, IDCeil:
		if isInteger(xid) || isBignum(xid) {
			if op == IDFracPart {
				return NewInteger(ctx, 0), true
			}
			return x, true
		}
		if isFraction(xid) {
			r, ok := ratOf(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			q := new(big.Int).Quo(r.Num(), r.Denom())
			switch op {
			case IDIntPart:
				return makeIntResult(ctx, q), true
			case IDFracPart:
				f := new(big.Rat).Sub(r, new(big.Rat).SetInt(q))
				return makeRatResult(ctx, f), true
			case IDFloor:
				if r.Sign() < 0 {
					q.Sub(q, bigOne)
				}
				return makeIntResult(ctx, q), true
			case IDCeil:
				if r.Sign() > 0 {
					q.Add(q, bigOne)
				}
				return makeIntResult(ctx, q), true
			}
		}
	case IDInv:
		if isInteger(xid) || isBignum(xid) || isFraction(xid) {
			r, ok := ratOf(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			if r.Sign() == 0 {
				return ctx.raise(errors.ZeroDivideError), true
			}
			return makeRatResult(ctx, r.Inv(r)), true
		}
	case IDSq, IDCubed:
		if isInteger(xid) || isBignum(xid) || isFraction(xid) {
			r, ok := ratOf(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			out := new(big.Rat).Mul(r, r)
			if op == IDCubed {
				out.Mul(out, r)
			}
			return makeRatResult(ctx, out), true
		}
	case IDFact:
		if isInteger(xid) || isBignum(xid) {
			v, ok := bigValue(ctx, x)
			if !ok {
				return runtime.Nil, false
			}
			if v.Sign() < 0 {
				return ctx.raise(errors.DomainError), true
			}
			if !v.IsInt64() || v.Int64() > 100000 {
				return ctx.raise(errors.ValueError), true
			}
			n := v.Int64()
			if n <= 1 {
				return NewInteger(ctx, 1), true
			}
			return makeIntResult(ctx, new(big.Int).MulRange(2, n)), true
		}
	case IDSqrt:
		if isInteger(xid) || isBignum(xid) {
			v, ok := bigValue(ctx, x)
			if ok && v.Sign() >= 0 {
				root := new(big.Int).Sqrt(v)
				if new(big.Int).Mul(root, root).Cmp(v) == 0 {
					return makeIntResult(ctx, root), true
				}
			}
		}
	case IDSin, IDCos, IDTan:
		return exactTrig(ctx, op, x)
	}
	return runtime.Nil, false
}

// exactTrig returns rational results for the degree multiples of 30
// and 45 whose sine or cosine is rational, without rounding.
func exactTrig(ctx *Context, op ID, x runtime.Ref) (runtime.Ref, bool) {
	if ctx.Cfg.Angle != settings.Degrees {
		return runtime.Nil, false
	}
	v, ok := IntegerValue(ctx, x)
	if !ok {
		return runtime.Nil, false
	}
	a := ((v % 360) + 360) % 360

	frac := func(num, den int64) (runtime.Ref, bool) {
		return NewFraction(ctx, big.NewInt(num), big.NewInt(den)), true
	}
	switch op {
	case IDSin:
		switch a {
		case 0, 180:
			return NewInteger(ctx, 0), true
		case 30, 150:
			return frac(1, 2)
		case 210, 330:
			return frac(-1, 2)
		case 90:
			return NewInteger(ctx, 1), true
		case 270:
			return NewInteger(ctx, -1), true
		}
	case IDCos:
		switch a {
		case 90, 270:
			return NewInteger(ctx, 0), true
		case 60, 300:
			return frac(1, 2)
		case 120, 240:
			return frac(-1, 2)
		case 0:
			return NewInteger(ctx, 1), true
		case 180:
			return NewInteger(ctx, -1), true
		}
	case IDTan:
		switch a {
		case 0, 180:
			return NewInteger(ctx, 0), true
		case 45, 225:
			return NewInteger(ctx, 1), true
		case 135, 315:
			return NewInteger(ctx, -1), true
		case 90, 270:
			return ctx.raise(errors.DomainError), true
		}
	}
	return runtime.Nil, false
}

// trigFn handles direct and inverse trigonometry with angle modes.
func trigFn(ctx *Context, op ID, x runtime.Ref) runtime.Ref {
	if hwEnabled(ctx) {
		if v, ok := hwPromote(ctx, x); ok {
			if r, ok := hwTrig(ctx, op, v); ok {
				return newHwResult(ctx, r)
			}
		}
	}
	d, ok := decPromote(ctx, x)
	if !ok {
		return ctx.raise(errors.TypeError)
	}
	p := prec(ctx)
	var r dnum
	switch op {
	case IDSin:
		rad := toRadians(ctx, d, p+4)
		r, _ = dSinCos(ctx, rad, p)
	case IDCos:
		rad := toRadians(ctx, d, p+4)
		_, r = dSinCos(ctx, rad, p)
	case IDTan:
		r = dTanRad(ctx, toRadians(ctx, d, p+4), p)
	case IDASin:
		r = dAsin(ctx, d, p+4)
		if r.isNaN() {
			return ctx.raise(errors.DomainError)
		}
		r = fromRadians(ctx, r, p)
	case IDACos:
		r = dAcos(ctx, d, p+4)
		if r.isNaN() {
			return ctx.raise(errors.DomainError)
		}
		r = fromRadians(ctx, r, p)
	case IDATan:
		r = dAtan(ctx, d, p+4)
		r = fromRadians(ctx, r, p)
	}
	if r.isNaN() {
		return ctx.raise(errors.DomainError)
	}
	return NewDecimal(ctx, dRound(r, p))
}

// unitFn applies the functions that preserve a unit: negation, abs and
// the sign probe; anything else is a type error.
func unitFn(ctx *Context, op ID, x runtime.Ref) runtime.Ref {
	switch op {
	case IDNeg, IDAbs:
		xh := ctx.RT.Protect(x)
		v, _ := unitParts(ctx, x)
		nv := Fn(ctx, op, v)
		x = xh.Ref()
		xh.Close()
		if nv == runtime.Nil {
			return runtime.Nil
		}
		_, u := unitParts(ctx, x)
		return NewUnit(ctx, nv, u)
	case IDSign:
		v, _ := unitParts(ctx, x)
		return Fn(ctx, op, v)
	}
	return ctx.raise(errors.TypeError)
}

// complexFn applies a unary function to a complex operand.
func complexFn(ctx *Context, op ID, x runtime.Ref) runtime.Ref {
	z, ok := complexValue(ctx, x)
	if !ok {
		return ctx.raise(errors.TypeError)
	}
	p := prec(ctx) + 4
	switch op {
	case IDAbs:
		return NewDecimal(ctx, dRound(cAbs(ctx, z, p), prec(ctx)))
	case IDArg:
		_, piRad := rectToPolar(ctx, z)
		return NewDecimal(ctx, ConvertAngle(ctx, piRad, settings.PiRadians, ctx.Cfg.Angle, false))
	case IDRe:
		return NewDecimal(ctx, dRound(z.re, prec(ctx)))
	case IDIm:
		return NewDecimal(ctx, dRound(z.im, prec(ctx)))
	}
	return complexFnRect(ctx, op, z)
}

// complexFnRect applies the function to rectangular working form.
func complexFnRect(ctx *Context, op ID, z crect) runtime.Ref {
	p := prec(ctx) + 4
	var r crect
	switch op {
	case IDNeg:
		r = cNeg(z)
	case IDConj:
		r = cConj(z)
	case IDSq:
		r = cMul(z, z, p)
	case IDCubed:
		r = cMul(cMul(z, z, p), z, p)
	case IDInv:
		inv, ok := cDiv(crect{re: dOne(), im: dZero()}, z, p)
		if !ok {
			return ctx.raise(errors.ZeroDivideError)
		}
		r = inv
	case IDSqrt:
		r = cSqrt(ctx, z, p)
	case IDExp:
		r = cExp(ctx, z, p)
	case IDLn:
		ln, ok := cLn(ctx, z, p)
		if !ok {
			return ctx.raise(errors.DomainError)
		}
		r = ln
	default:
		return ctx.raise(errors.TypeError)
	}
	return makeComplexResult(ctx, r)
}
