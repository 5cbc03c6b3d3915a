// internal/object/complex.go
package object

import (
	"reckon/internal/errors"
	"reckon/internal/runtime"
	"reckon/internal/settings"
)

// Complex numbers come in two concrete variants: rectangular (re, im)
// and polar (mod, arg), the argument stored in fractions of π so that
// the quarter turns stay exact. The components are inline real objects
// of any variant.

// NewRectangular builds a rectangular complex from two real objects.
func NewRectangular(ctx *Context, re, im runtime.Ref) runtime.Ref {
	return newPair(ctx, IDRectangular, re, im)
}

// NewPolar builds a polar complex; the argument is in π-radians and is
// stored as given. It is folded to (-1, 1] by foldPiRadians when the
// polar value is read.
func NewPolar(ctx *Context, mod, arg runtime.Ref) runtime.Ref {
	return newPair(ctx, IDPolar, mod, arg)
}

func newPair(ctx *Context, id ID, a, b runtime.Ref) runtime.Ref {
	ab := ctx.RT.At(a)
	asz := sizeAt(ab, 0)
	if asz <= 0 {
		return ctx.raise(errors.InternalError)
	}
	buf := runtime.AppendULEB(nil, uint64(id))
	buf = append(buf, ab[:asz]...)
	bb := ctx.RT.At(b)
	bsz := sizeAt(bb, 0)
	if bsz <= 0 {
		return ctx.raise(errors.InternalError)
	}
	buf = append(buf, bb[:bsz]...)
	return ctx.RT.Publish(buf)
}

// pairParts returns interior references to the two components.
func pairParts(ctx *Context, ref runtime.Ref) (runtime.Ref, runtime.Ref) {
	b := ctx.RT.At(ref)
	n := runtime.ULEBSkip(b)
	first := ref + runtime.Ref(n)
	n += sizeAt(b, n)
	second := ref + runtime.Ref(n)
	return first, second
}

// crect is the working form: rectangular with decimal components.
type crect struct {
	re, im dnum
}

// complexValue decodes either complex variant to rectangular working
// form at the working precision.
func complexValue(ctx *Context, ref runtime.Ref) (crect, bool) {
	a, b := pairParts(ctx, ref)
	av, aok := decPromote(ctx, a)
	bv, bok := decPromote(ctx, b)
	if !aok || !bok {
		return crect{}, false
	}
	if TypeOf(ctx, ref) == IDPolar {
		return polarToRect(ctx, av, bv), true
	}
	return crect{re: av, im: bv}, true
}

// polarToRect converts (mod, π-radians) to rectangular components.
func polarToRect(ctx *Context, mod, piRad dnum) crect {
	p := prec(ctx) + 4
	rad := dMul(piRad, machinPiAt(ctx, p+4), p)
	sin, cos := dSinCos(ctx, rad, p)
	return crect{re: dMul(mod, cos, p), im: dMul(mod, sin, p)}
}

// rectToPolar converts to (mod, arg) with the argument in π-radians in
// the canonical (-1, 1] range.
func rectToPolar(ctx *Context, z crect) (dnum, dnum) {
	p := prec(ctx) + 4
	mod := cAbs(ctx, z, p)
	if mod.isZero() {
		return dZero(), dZero()
	}
	rad := dAtan2(ctx, z.im, z.re, p)
	piRad := dDiv(rad, machinPiAt(ctx, p+4), p)
	return mod, foldPiRadians(piRad, p)
}

// foldPiRadians folds an angle in π-radians to (-1, 1].
func foldPiRadians(a dnum, p int) dnum {
	two := dFromInt64(2)
	a = dModRem(a, two, true, p) // [0, 2)
	if dCmp(a, dOne()) > 0 {
		a = dSub(a, two, p)
	}
	return a
}

// ConvertAngle folds an angle to (-1, 1] in π-radians and re-emits it
// in the requested unit; negmod mirrors the angle for negative moduli.
func ConvertAngle(ctx *Context, a dnum, from, to settings.AngleMode, negmod bool) dnum {
	p := prec(ctx) + 4
	piRad := a
	switch from {
	case settings.Degrees:
		piRad = dDiv(a, dFromInt64(180), p)
	case settings.Grads:
		piRad = dDiv(a, dFromInt64(200), p)
	case settings.Radians:
		piRad = dDiv(a, machinPiAt(ctx, p+4), p)
	}
	if negmod {
		piRad = dAdd(piRad, dOne(), p)
	}
	piRad = foldPiRadians(piRad, p)
	switch to {
	case settings.Degrees:
		return dRound(dMul(piRad, dFromInt64(180), p), prec(ctx))
	case settings.Grads:
		return dRound(dMul(piRad, dFromInt64(200), p), prec(ctx))
	case settings.Radians:
		return dRound(dMul(piRad, machinPiAt(ctx, p+4), p), prec(ctx))
	}
	return dRound(piRad, prec(ctx))
}

// makeComplexResult publishes a rectangular result, collapsing a zero
// imaginary part back to a real.
func makeComplexResult(ctx *Context, z crect) runtime.Ref {
	if z.im.isZero() {
		return NewDecimal(ctx, dRound(z.re, prec(ctx)))
	}
	re := NewDecimal(ctx, dRound(z.re, prec(ctx)))
	if re == runtime.Nil {
		return runtime.Nil
	}
	un := guard(ctx, &re)
	im := NewDecimal(ctx, dRound(z.im, prec(ctx)))
	un()
	if im == runtime.Nil {
		return runtime.Nil
	}
	return NewRectangular(ctx, re, im)
}

// ====================================================================
//
//   Complex algebra
//
// ====================================================================

func cAdd(z, w crect, p int) crect {
	return crect{re: dAdd(z.re, w.re, p), im: dAdd(z.im, w.im, p)}
}

func cSub(z, w crect, p int) crect {
	return crect{re: dSub(z.re, w.re, p), im: dSub(z.im, w.im, p)}
}

func cMul(z, w crect, p int) crect {
	re := dSub(dMul(z.re, w.re, p), dMul(z.im, w.im, p), p)
	im := dAdd(dMul(z.re, w.im, p), dMul(z.im, w.re, p), p)
	return crect{re: re, im: im}
}

func cDiv(z, w crect, p int) (crect, bool) {
	den := dAdd(dMul(w.re, w.re, p), dMul(w.im, w.im, p), p)
	if den.isZero() {
		return crect{}, false
	}
	re := dDiv(dAdd(dMul(z.re, w.re, p), dMul(z.im, w.im, p), p), den, p)
	im := dDiv(dSub(dMul(z.im, w.re, p), dMul(z.re, w.im, p), p), den, p)
	return crect{re: re, im: im}, true
}

func cNeg(z crect) crect {
	return crect{re: dNeg(z.re), im: dNeg(z.im)}
}

func cConj(z crect) crect {
	return crect{re: z.re, im: dNeg(z.im)}
}

// cAbs computes the modulus.
func cAbs(ctx *Context, z crect, p int) dnum {
	return dSqrt(dAdd(dMul(z.re, z.re, p), dMul(z.im, z.im, p), p), p)
}

// cSqrt takes the principal square root through the polar form.
func cSqrt(ctx *Context, z crect, p int) crect {
	mod := cAbs(ctx, z, p)
	if mod.isZero() {
		return crect{re: dZero(), im: dZero()}
	}
	arg := dAtan2(ctx, z.im, z.re, p)
	root := dSqrt(mod, p)
	half := dDiv(arg, dFromInt64(2), p)
	sin, cos := dSinCos(ctx, half, p)
	return crect{re: dMul(root, cos, p), im: dMul(root, sin, p)}
}

// cExp computes e^z = e^re (cos im + i sin im).
func cExp(ctx *Context, z crect, p int) crect {
	mag := dExp(ctx, z.re, p)
	sin, cos := dSinCos(ctx, z.im, p)
	return crect{re: dMul(mag, cos, p), im: dMul(mag, sin, p)}
}

// cLn computes the principal logarithm.
func cLn(ctx *Context, z crect, p int) (crect, bool) {
	mod := cAbs(ctx, z, p)
	if mod.isZero() {
		return crect{}, false
	}
	return crect{re: dLn(ctx, mod, p), im: dAtan2(ctx, z.im, z.re, p)}, true
}

// cPowInt raises z to an integer power by squaring.
func cPowInt(z crect, n int64, p int) crect {
	result := crect{re: dOne(), im: dZero()}
	neg := n < 0
	if neg {
		n = -n
	}
	sq := z
	for n != 0 {
		if n&1 == 1 {
			result = cMul(result, sq, p)
		}
		sq = cMul(sq, sq, p)
		n >>= 1
	}
	if neg {
		one := crect{re: dOne(), im: dZero()}
		result, _ = cDiv(one, result, p)
	}
	return result
}

// cPow computes z^w = exp(w ln z) for general exponents.
func cPow(ctx *Context, z, w crect, p int) (crect, bool) {
	if w.im.isZero() && dIsInt(w.re) && w.re.e10() < 7 {
		return cPowInt(z, dTrunc(w.re).Int64(), p), true
	}
	lz, ok := cLn(ctx, z, p)
	if !ok {
		// 0^w: zero for positive real part, error otherwise
		if w.re.neg || w.re.isZero() {
			return crect{}, false
		}
		return crect{re: dZero(), im: dZero()}, true
	}
	return cExp(ctx, cMul(w, lz, p), p), true
}

// ====================================================================
//
//   Rendering
//
// ====================================================================

// renderComplex writes "(re;im)" or "(mod∡arg)".
func renderComplex(ctx *Context, ref runtime.Ref, r *Renderer) {
	a, b := pairParts(ctx, ref)
	r.PutByte('(')
	RenderTo(ctx, a, r)
	if TypeOf(ctx, ref) == IDPolar {
		r.PutString("∡")
	} else {
		r.PutByte(';')
	}
	RenderTo(ctx, b, r)
	r.PutByte(')')
}
