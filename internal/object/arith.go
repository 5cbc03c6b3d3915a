// internal/object/arith.go
package object

import (
	"bytes"
	"math/big"

	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// Arithmetic dispatch: for each binary operator an ops descriptor
// names the implementations per tower level, and evaluate tries them
// in widening order — native integer, bignum, fraction, decimal (or
// hardware float), complex. Non-numeric operands divert before the
// tower; symbolic operands defer to expression building.

type arithOps struct {
	integer  func(x, y int64) (int64, bool)
	bignum   func(x, y *big.Int) (*big.Int, bool)
	fraction func(x, y *big.Rat) (*big.Rat, bool)
	decimal  func(ctx *Context, x, y dnum, p int) (dnum, bool)
	cmplx    func(ctx *Context, x, y crect, p int) (crect, bool)
	hw       func(x, y float64) (float64, bool)
}

var arithTable = map[ID]arithOps{
	IDAdd: {
		integer:  addInt64,
		bignum:   func(x, y *big.Int) (*big.Int, bool) { return new(big.Int).Add(x, y), true },
		fraction: func(x, y *big.Rat) (*big.Rat, bool) { return new(big.Rat).Add(x, y), true },
		decimal: func(ctx *Context, x, y dnum, p int) (dnum, bool) {
			return dAdd(x, y, p), true
		},
		cmplx: func(ctx *Context, x, y crect, p int) (crect, bool) {
			return cAdd(x, y, p), true
		},
		hw: func(x, y float64) (float64, bool) { return x + y, true },
	},
	IDSub: {
		integer:  subInt64,
		bignum:   func(x, y *big.Int) (*big.Int, bool) { return new(big.Int).Sub(x, y), true },
		fraction: func(x, y *big.Rat) (*big.Rat, bool) { return new(big.Rat).Sub(x, y), true },
		decimal: func(ctx *Context, x, y dnum, p int) (dnum, bool) {
			return dSub(x, y, p), true
		},
		cmplx: func(ctx *Context, x, y crect, p int) (crect, bool) {
			return cSub(x, y, p), true
		},
		hw: func(x, y float64) (float64, bool) { return x - y, true },
	},
	IDMul: {
		integer:  mulInt64,
		bignum:   func(x, y *big.Int) (*big.Int, bool) { return new(big.Int).Mul(x, y), true },
		fraction: func(x, y *big.Rat) (*big.Rat, bool) { return new(big.Rat).Mul(x, y), true },
		decimal: func(ctx *Context, x, y dnum, p int) (dnum, bool) {
			return dMul(x, y, p), true
		},
		cmplx: func(ctx *Context, x, y crect, p int) (crect, bool) {
			return cMul(x, y, p), true
		},
		hw: func(x, y float64) (float64, bool) { return x * y, true },
	},
	IDDiv: {
		// Integer division widens to a fraction unless it is exact.
		integer: func(x, y int64) (int64, bool) {
			if y == 0 || x%y != 0 {
				return 0, false
			}
			return x / y, true
		},
		bignum: func(x, y *big.Int) (*big.Int, bool) {
			q, r := new(big.Int).QuoRem(x, y, new(big.Int))
			if r.Sign() != 0 {
				return nil, false
			}
			return q, true
		},
		fraction: func(x, y *big.Rat) (*big.Rat, bool) {
			if y.Sign() == 0 {
				return nil, false
			}
			return new(big.Rat).Quo(x, y), true
		},
		decimal: func(ctx *Context, x, y dnum, p int) (dnum, bool) {
			return dDiv(x, y, p), true
		},
		cmplx: func(ctx *Context, x, y crect, p int) (crect, bool) {
			return cDiv(x, y, p)
		},
		hw: func(x, y float64) (float64, bool) {
			if y == 0 {
				return 0, false
			}
			return x / y, true
		},
	},
	IDMod: {
		integer: func(x, y int64) (int64, bool) {
			if y == 0 {
				return 0, false
			}
			m := x % y
			if m != 0 && (m < 0) != (y < 0) {
				m += y
			}
			return m, true
		},
		bignum: func(x, y *big.Int) (*big.Int, bool) {
			m := new(big.Int).Mod(x, y) // Euclidean, always >= 0
			if m.Sign() != 0 && y.Sign() < 0 {
				m.Add(m, y)
			}
			return m, true
		},
		fraction: ratMod,
		decimal: func(ctx *Context, x, y dnum, p int) (dnum, bool) {
			return dModRem(x, y, true, p), true
		},
		hw: func(x, y float64) (float64, bool) {
			if y == 0 {
				return 0, false
			}
			m := hwMod(x, y)
			return m, true
		},
	},
	IDRem: {
		integer: func(x, y int64) (int64, bool) {
			if y == 0 {
				return 0, false
			}
			return x % y, true
		},
		bignum: func(x, y *big.Int) (*big.Int, bool) {
			return new(big.Int).Rem(x, y), true
		},
		fraction: ratRem,
		decimal: func(ctx *Context, x, y dnum, p int) (dnum, bool) {
			return dModRem(x, y, false, p), true
		},
		hw: func(x, y float64) (float64, bool) {
			if y == 0 {
				return 0, false
			}
			return hwRem(x, y), true
		},
	},
	IDPow: {
		decimal: decPow,
		cmplx:   cPow,
	},
	IDXRoot: {
		decimal: func(ctx *Context, x, y dnum, p int) (dnum, bool) {
			// Stack order: level 2 is the radicand, level 1 the index.
			if y.isZero() {
				return dnum{}, false
			}
			if x.neg && dIsInt(y) && dTrunc(y).Bit(0) == 1 {
				// Odd root of a negative radicand stays real.
				r, ok := decPow(ctx, dAbs(x), dDiv(dOne(), y, p+4), p)
				return dNeg(r), ok
			}
			return decPow(ctx, x, dDiv(dOne(), y, p+4), p)
		},
	},
}

// ratMod follows the divisor's sign, like the integer mod.
func ratMod(x, y *big.Rat) (*big.Rat, bool) {
	if y.Sign() == 0 {
		return nil, false
	}
	q := new(big.Rat).Quo(x, y)
	fq := new(big.Int).Quo(q.Num(), q.Denom())
	if q.Sign() < 0 && new(big.Int).Rem(q.Num(), q.Denom()).Sign() != 0 {
		fq.Sub(fq, bigOne)
	}
	m := new(big.Rat).Sub(x, new(big.Rat).Mul(y, new(big.Rat).SetInt(fq)))
	return m, true
}

// ratRem truncates toward zero, following the dividend's sign.
func ratRem(x, y *big.Rat) (*big.Rat, bool) {
	if y.Sign() == 0 {
		return nil, false
	}
	q := new(big.Rat).Quo(x, y)
	tq := new(big.Int).Quo(q.Num(), q.Denom())
	m := new(big.Rat).Sub(x, new(big.Rat).Mul(y, new(big.Rat).SetInt(tq)))
	return m, true
}

func hwMod(x, y float64) float64 {
	m := hwRem(x, y)
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return m
}

func hwRem(x, y float64) float64 {
	return x - y*float64(int64(x/y))
}

// decPow implements y = x^e over decimals: integer exponents by
// squaring, general exponents through exp(e ln x). A negative base
// with a fractional exponent reports false so the dispatch widens to
// complex.
func decPow(ctx *Context, x, e dnum, p int) (dnum, bool) {
	if x.isZero() {
		if e.isZero() {
			return dnum{}, false // 0^0 decided by the caller
		}
		if e.neg {
			return dInf(false), true
		}
		return dZero(), true
	}
	if dIsInt(e) && e.e10() < 10 {
		n := dTrunc(e)
		return dPowIntBig(x, n, p+4), true
	}
	if x.neg {
		return dnum{}, false // complex result
	}
	g := p + 8
	ln := dLn(ctx, x, g)
	return dRound(dExp(ctx, dMul(e, ln, g), g), p), true
}

// sameObject compares two objects byte for byte.
func sameObject(ctx *Context, x, y runtime.Ref) bool {
	xb := ctx.RT.At(x)
	xs := sizeAt(xb, 0)
	yb := ctx.RT.At(y)
	ys := sizeAt(yb, 0)
	if xs != ys || xs <= 0 {
		return false
	}
	return bytes.Equal(xb[:xs], yb[:ys])
}

// isZeroObj reports an exact numeric zero.
func isZeroObj(ctx *Context, ref runtime.Ref) bool {
	id := TypeOf(ctx, ref)
	switch {
	case isInteger(id) || isBased(id):
		_, mag := integerParts(ctx, ref)
		return mag == 0
	case isDecimal(id):
		d, ok := decValue(ctx, ref)
		return ok && d.isZero()
	case isHwFp(id):
		f, ok := hwValue(ctx, ref)
		return ok && f == 0
	}
	return false
}

// isOneObj reports an exact numeric one.
func isOneObj(ctx *Context, ref runtime.Ref) bool {
	id := TypeOf(ctx, ref)
	switch {
	case id == IDInteger:
		_, mag := integerParts(ctx, ref)
		return mag == 1
	case isDecimal(id):
		d, ok := decValue(ctx, ref)
		return ok && d.finite() && !d.neg && dCmp(d, dOne()) == 0
	case isHwFp(id):
		f, ok := hwValue(ctx, ref)
		return ok && f == 1
	}
	return false
}

// imaginaryUnit reports a rectangular (0, ±1).
func imaginaryUnit(ctx *Context, ref runtime.Ref) (bool, bool) {
	if TypeOf(ctx, ref) != IDRectangular {
		return false, false
	}
	re, im := pairParts(ctx, ref)
	if !isZeroObj(ctx, re) {
		return false, false
	}
	if isOneObj(ctx, im) {
		return true, false
	}
	if v, ok := IntegerValue(ctx, im); ok && v == -1 {
		return true, true
	}
	return false, false
}

// Arith evaluates a binary arithmetic operator over the numeric tower.
// A Nil result means the error slot is set.
func Arith(ctx *Context, op ID, x, y runtime.Ref) runtime.Ref {
	// Tags are transparent for arithmetic.
	if TypeOf(ctx, x) == IDTag {
		if _, inner, ok := tagParts(ctx, x); ok {
			x = inner
		}
	}
	if TypeOf(ctx, y) == IDTag {
		if _, inner, ok := tagParts(ctx, y); ok {
			y = inner
		}
	}

	xid, yid := TypeOf(ctx, x), TypeOf(ctx, y)

	// Non-numeric operands divert before the tower.
	if xid == IDText || yid == IDText {
		return textArith(ctx, op, x, y)
	}
	if xid == IDList || yid == IDList || xid == IDArray || yid == IDArray {
		return compositeArith(ctx, op, x, y)
	}
	if xid == IDUnit || yid == IDUnit {
		return unitArith(ctx, op, x, y)
	}
	if xid == IDPolynomial || yid == IDPolynomial {
		if out := polyArith(ctx, op, x, y); out != runtime.Nil || ctx.RT.Err() != nil {
			return out
		}
	}
	if isSymbolic(xid) || isSymbolic(yid) {
		return symbolicArith(ctx, op, x, y)
	}
	if !isNumeric(xid) || !isNumeric(yid) {
		return ctx.raise(errors.TypeError)
	}

	// Division by zero with an exact zero divisor.
	if (op == IDDiv || op == IDMod || op == IDRem) && isZeroObj(ctx, y) {
		if op == IDDiv && isZeroObj(ctx, x) {
			if ctx.Cfg.ZeroOverZeroUndefined {
				return NewDecimal(ctx, dNaN())
			}
			return ctx.raise(errors.ZeroDivideError)
		}
		if op == IDDiv {
			xd, ok := decPromote(ctx, x)
			if ok {
				return NewDecimal(ctx, dInf(xd.neg))
			}
		}
		return ctx.raise(errors.ZeroDivideError)
	}
	// 0^0
	if op == IDPow && isZeroObj(ctx, x) && isZeroObj(ctx, y) {
		if ctx.Cfg.ZeroPowerZeroUndefined {
			return NewDecimal(ctx, dNaN())
		}
		return NewInteger(ctx, 1)
	}

	ops, okOp := arithTable[op]
	if !okOp {
		return ctx.raise(errors.InvalidFunctionError)
	}

	// Complex operands skip the real tower.
	if isComplex(xid) || isComplex(yid) {
		return complexArith(ctx, ops, x, y)
	}

	// Power over exact bases keeps exact results.
	if op == IDPow {
		if out, handled := exactPow(ctx, x, y); handled {
			return out
		}
	}

	based := isBased(xid) || isBased(yid)

	// Based numbers compute as unsigned integers: division truncates
	// instead of widening to a fraction.
	if based && op == IDDiv {
		xv, xok := bigValue(ctx, x)
		yv, yok := bigValue(ctx, y)
		if xok && yok && yv.Sign() != 0 {
			q := new(big.Int).Quo(xv, yv)
			return NewBasedBignum(ctx, q.Abs(q))
		}
	}

	// 1. Native integers.
	if ops.integer != nil &&
		(isInteger(xid) || isBased(xid)) && (isInteger(yid) || isBased(yid)) {
		xv, xok := IntegerValue(ctx, x)
		yv, yok := IntegerValue(ctx, y)
		if xok && yok {
			if r, ok := ops.integer(xv, yv); ok {
				if based {
					return NewBasedInteger(ctx, maskWordSize(ctx, uint64(r)))
				}
				return NewInteger(ctx, r)
			}
		}
	}

	// 2. Bignum.
	if ops.bignum != nil && !isDecimal(xid) && !isDecimal(yid) &&
		!isHwFp(xid) && !isHwFp(yid) &&
		!isFraction(xid) && !isFraction(yid) {
		xv, xok := bigValue(ctx, x)
		yv, yok := bigValue(ctx, y)
		if xok && yok {
			if r, ok := ops.bignum(xv, yv); ok {
				if based {
					return NewBasedBignum(ctx, new(big.Int).Abs(r))
				}
				return makeIntResult(ctx, r)
			}
		}
	}

	// 3. Fractions: exact rational operands, or inexact division.
	if ops.fraction != nil && !isDecimal(xid) && !isDecimal(yid) &&
		!isHwFp(xid) && !isHwFp(yid) {
		xv, xok := ratOf(ctx, x)
		yv, yok := ratOf(ctx, y)
		if xok && yok {
			if r, ok := ops.fraction(xv, yv); ok {
				return makeRatResult(ctx, r)
			}
		}
	}

	// 4. Hardware float fast path.
	if hwEnabled(ctx) && ops.hw != nil {
		xv, xok := hwPromote(ctx, x)
		yv, yok := hwPromote(ctx, y)
		if xok && yok {
			if r, ok := ops.hw(xv, yv); ok {
				return newHwResult(ctx, r)
			}
		}
	}

	// 5. Decimal.
	if ops.decimal != nil {
		xv, xok := decPromote(ctx, x)
		yv, yok := decPromote(ctx, y)
		if xok && yok {
			if r, ok := ops.decimal(ctx, xv, yv, prec(ctx)); ok {
				return NewDecimal(ctx, dRound(r, prec(ctx)))
			}
		}
	}

	// 6. Complex rescue: a real operation that failed goes complex.
	if ops.cmplx != nil {
		return complexArith(ctx, ops, x, y)
	}
	return ctx.raise(errors.TypeError)
}

// exactPow keeps integer and fraction bases exact under integer
// exponents. The bool result reports whether the case was handled.
func exactPow(ctx *Context, x, y runtime.Ref) (runtime.Ref, bool) {
	ev, evok := IntegerValue(ctx, y)
	if !evok {
		return runtime.Nil, false
	}
	xid := TypeOf(ctx, x)
	if isInteger(xid) || isBignum(xid) {
		xv, ok := bigValue(ctx, x)
		if !ok {
			return runtime.Nil, false
		}
		if ev >= 0 {
			if ev > 1<<20 {
				return runtime.Nil, false // too large to keep exact
			}
			r := new(big.Int).Exp(xv, big.NewInt(ev), nil)
			return makeIntResult(ctx, r), true
		}
		if xv.Sign() == 0 {
			return ctx.raise(errors.ZeroDivideError), true
		}
		if -ev > 1<<20 {
			return runtime.Nil, false
		}
		den := new(big.Int).Exp(xv, big.NewInt(-ev), nil)
		return NewFraction(ctx, bigOne, den), true
	}
	if isFraction(xid) {
		r, ok := ratOf(ctx, x)
		if !ok || ev > 1<<16 || ev < -1<<16 {
			return runtime.Nil, false
		}
		num := new(big.Int).Exp(r.Num(), big.NewInt(absInt64(ev)), nil)
		den := new(big.Int).Exp(r.Denom(), big.NewInt(absInt64(ev)), nil)
		if ev < 0 {
			num, den = den, num
		}
		return NewFraction(ctx, num, den), true
	}
	return runtime.Nil, false
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// complexArith promotes both operands and runs the complex case.
func complexArith(ctx *Context, ops arithOps, x, y runtime.Ref) runtime.Ref {
	if ops.cmplx == nil {
		return ctx.raise(errors.TypeError)
	}
	xv, xok := anyToCrect(ctx, x)
	yv, yok := anyToCrect(ctx, y)
	if !xok || !yok {
		return ctx.raise(errors.TypeError)
	}
	r, ok := ops.cmplx(ctx, xv, yv, prec(ctx)+4)
	if !ok {
		return ctx.raise(errors.ZeroDivideError)
	}
	return makeComplexResult(ctx, r)
}

// anyToCrect promotes any numeric operand to rectangular working form.
func anyToCrect(ctx *Context, ref runtime.Ref) (crect, bool) {
	if isComplex(TypeOf(ctx, ref)) {
		return complexValue(ctx, ref)
	}
	d, ok := decPromote(ctx, ref)
	if !ok {
		return crect{}, false
	}
	return crect{re: d, im: dZero()}, true
}

// textArith concatenates text operands under +.
func textArith(ctx *Context, op ID, x, y runtime.Ref) runtime.Ref {
	if op != IDAdd {
		return ctx.raise(errors.TypeError)
	}
	xs := textOrRender(ctx, x)
	ys := textOrRender(ctx, y)
	return NewText(ctx, xs+ys)
}

func textOrRender(ctx *Context, ref runtime.Ref) string {
	if s, ok := TextValue(ctx, ref); ok && TypeOf(ctx, ref) == IDText {
		return s
	}
	return Render(ctx, ref)
}

// compositeArith handles lists (concatenation) and arrays
// (element-wise operation).
func compositeArith(ctx *Context, op ID, x, y runtime.Ref) runtime.Ref {
	xid, yid := TypeOf(ctx, x), TypeOf(ctx, y)
	if xid == IDList && yid == IDList {
		if op != IDAdd {
			return ctx.raise(errors.TypeError)
		}
		items := newRefVec(ctx)
		for _, c := range childList(ctx, x) {
			items.push(c)
		}
		for _, c := range childList(ctx, y) {
			items.push(c)
		}
		return NewComposite(ctx, IDList, items.refs())
	}
	if xid == IDArray || yid == IDArray {
		return arrayArith(ctx, op, x, y)
	}
	return ctx.raise(errors.TypeError)
}

// arrayArith applies the operator element-wise, broadcasting a scalar
// operand across the array. Both parents stay under handles: interior
// children move as results allocate, so they are re-read each round.
func arrayArith(ctx *Context, op ID, x, y runtime.Ref) runtime.Ref {
	xid, yid := TypeOf(ctx, x), TypeOf(ctx, y)
	xh := ctx.RT.Protect(x)
	yh := ctx.RT.Protect(y)
	defer xh.Close()
	defer yh.Close()
	out := newRefVec(ctx)
	switch {
	case xid == IDArray && yid == IDArray:
		n := len(childList(ctx, x))
		if n != len(childList(ctx, y)) {
			out.close()
			return ctx.raise(errors.ValueError)
		}
		for i := 0; i < n; i++ {
			xs := childList(ctx, xh.Ref())
			ys := childList(ctx, yh.Ref())
			r := Arith(ctx, op, xs[i], ys[i])
			if r == runtime.Nil {
				out.close()
				return runtime.Nil
			}
			out.push(r)
		}
	case xid == IDArray:
		n := len(childList(ctx, x))
		for i := 0; i < n; i++ {
			xs := childList(ctx, xh.Ref())
			r := Arith(ctx, op, xs[i], yh.Ref())
			if r == runtime.Nil {
				out.close()
				return runtime.Nil
			}
			out.push(r)
		}
	default:
		n := len(childList(ctx, y))
		for i := 0; i < n; i++ {
			ys := childList(ctx, yh.Ref())
			r := Arith(ctx, op, xh.Ref(), ys[i])
			if r == runtime.Nil {
				out.close()
				return runtime.Nil
			}
			out.push(r)
		}
	}
	return NewComposite(ctx, IDArray, out.refs())
}

// unitArith combines unit operands: additive operators convert to a
// common unit, multiplicative ones combine the unit expressions.
func unitArith(ctx *Context, op ID, x, y runtime.Ref) runtime.Ref {
	switch op {
	case IDAdd, IDSub:
		if TypeOf(ctx, x) != IDUnit || TypeOf(ctx, y) != IDUnit {
			return ctx.raise(errors.InconsistentUnitsError)
		}
		xh := ctx.RT.Protect(x)
		conv := Convert(ctx, y, x)
		x = xh.Ref()
		xh.Close()
		if conv == runtime.Nil {
			return runtime.Nil
		}
		xv, xu := unitParts(ctx, x)
		yv, _ := unitParts(ctx, conv)
		xuh := ctx.RT.Protect(xu)
		sum := Arith(ctx, op, xv, yv)
		xu = xuh.Ref()
		xuh.Close()
		if sum == runtime.Nil {
			return runtime.Nil
		}
		return NewUnit(ctx, sum, xu)
	case IDMul, IDDiv:
		xv, xu := splitUnit(ctx, x)
		yv, yu := splitUnit(ctx, y)
		g := guard(ctx, &xu, &yu)
		value := Arith(ctx, op, xv, yv)
		g()
		if value == runtime.Nil {
			return runtime.Nil
		}
		vh := ctx.RT.Protect(value)
		defer vh.Close()
		var uexpr runtime.Ref
		switch {
		case xu == runtime.Nil && op == IDMul:
			uexpr = yu
		case xu == runtime.Nil:
			// value / unit: the result unit is 1/yu
			yuh := ctx.RT.Protect(yu)
			one := NewInteger(ctx, 1)
			yu = yuh.Ref()
			yuh.Close()
			uexpr = exprBinary(ctx, IDDiv, one, yu)
		case yu == runtime.Nil:
			uexpr = xu
		default:
			uexpr = exprBinary(ctx, op, xu, yu)
		}
		value = vh.Ref()
		if uexpr == runtime.Nil {
			return runtime.Nil
		}
		u := NewUnit(ctx, value, uexpr)
		if u == runtime.Nil {
			return runtime.Nil
		}
		return Simple(ctx, u)
	case IDPow:
		if TypeOf(ctx, x) != IDUnit {
			return ctx.raise(errors.TypeError)
		}
		n, ok := IntegerValue(ctx, y)
		if !ok {
			return ctx.raise(errors.TypeError)
		}
		xh := ctx.RT.Protect(x)
		defer xh.Close()
		yv := NewInteger(ctx, n)
		xv, _ := unitParts(ctx, xh.Ref())
		value := Arith(ctx, IDPow, xv, yv)
		if value == runtime.Nil {
			return runtime.Nil
		}
		vh := ctx.RT.Protect(value)
		defer vh.Close()
		nref := NewInteger(ctx, n)
		_, xu := unitParts(ctx, xh.Ref())
		uexpr := exprBinary(ctx, IDPow, xu, nref)
		if uexpr == runtime.Nil {
			return runtime.Nil
		}
		return NewUnit(ctx, vh.Ref(), uexpr)
	}
	return ctx.raise(errors.TypeError)
}

// splitUnit returns value and unit expression, Nil uexpr for plain
// numerics.
func splitUnit(ctx *Context, ref runtime.Ref) (runtime.Ref, runtime.Ref) {
	if TypeOf(ctx, ref) == IDUnit {
		return unitParts(ctx, ref)
	}
	return ref, runtime.Nil
}

// symbolicArith defers the operation to an expression, applying the
// auto-simplification rules first.
func symbolicArith(ctx *Context, op ID, x, y runtime.Ref) runtime.Ref {
	if ctx.Cfg.AutoSimplify {
		if out, done := autoSimplify(ctx, op, x, y); done {
			return out
		}
	}
	return exprBinary(ctx, op, x, y)
}

// autoSimplify applies the rewrite shortcuts: 0+x=x, x+0=x, x-x=0,
// 0-x=-x, 0*x=0, 1*x=x, x/1=x, x/x=1, x^0=1, x^1=x, i*i=-1, x*x=x².
func autoSimplify(ctx *Context, op ID, x, y runtime.Ref) (runtime.Ref, bool) {
	xz, yz := isZeroObj(ctx, x), isZeroObj(ctx, y)
	xo, yo := isOneObj(ctx, x), isOneObj(ctx, y)
	switch op {
	case IDAdd:
		if xz {
			return y, true
		}
		if yz {
			return x, true
		}
	case IDSub:
		if yz {
			return x, true
		}
		if xz {
			return exprUnary(ctx, IDNeg, y), true
		}
		if sameObject(ctx, x, y) {
			return NewInteger(ctx, 0), true
		}
	case IDMul:
		if xz || yz {
			return NewInteger(ctx, 0), true
		}
		if xo {
			return y, true
		}
		if yo {
			return x, true
		}
		if xi, _ := imaginaryUnit(ctx, x); xi {
			if yi, _ := imaginaryUnit(ctx, y); yi {
				return NewInteger(ctx, -1), true
			}
		}
		if sameObject(ctx, x, y) {
			return exprUnary(ctx, IDSq, x), true
		}
	case IDDiv:
		if yo {
			return x, true
		}
		if sameObject(ctx, x, y) {
			return NewInteger(ctx, 1), true
		}
	case IDPow:
		if yz {
			return NewInteger(ctx, 1), true
		}
		if yo {
			return x, true
		}
	}
	return runtime.Nil, false
}
