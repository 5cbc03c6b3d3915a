// internal/object/fraction.go
package object

import (
	"math/big"
	"strconv"
	"strings"

	"modernc.org/mathutil"

	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// Fractions are stored reduced, with a strictly positive denominator
// and the sign in the tag. A denominator of one canonicalizes to an
// integer in the constructor. Components above 63 bits switch to the
// big variants; the semantics are identical.

// NewFraction builds the canonical fraction num/den.
func NewFraction(ctx *Context, num, den *big.Int) runtime.Ref {
	if den.Sign() == 0 {
		return ctx.raise(errors.ZeroDivideError)
	}
	neg := (num.Sign() < 0) != (den.Sign() < 0)
	n := new(big.Int).Abs(num)
	d := new(big.Int).Abs(den)

	if n.IsUint64() && d.IsUint64() {
		// Native fast path
		nu, du := n.Uint64(), d.Uint64()
		if nu < 1<<63 && du < 1<<63 {
			if g := mathutil.GCDUint64(nu, du); g > 1 {
				nu /= g
				du /= g
			}
			if du == 1 {
				v := int64(nu)
				if neg {
					v = -v
				}
				return NewInteger(ctx, v)
			}
			id := IDFraction
			if neg {
				id = IDNegFraction
			}
			b := runtime.AppendULEB(nil, uint64(id))
			b = runtime.AppendULEB(b, nu)
			b = runtime.AppendULEB(b, du)
			return ctx.RT.Publish(b)
		}
	}

	g := new(big.Int).GCD(nil, nil, n, d)
	if g.Cmp(big.NewInt(1)) > 0 {
		n.Quo(n, g)
		d.Quo(d, g)
	}
	if d.Cmp(big.NewInt(1)) == 0 {
		if neg {
			n.Neg(n)
		}
		return makeIntResult(ctx, n)
	}
	id := IDBigFraction
	if neg {
		id = IDNegBigFraction
	}
	b := runtime.AppendULEB(nil, uint64(id))
	b = appendMagnitude(b, n)
	b = appendMagnitude(b, d)
	return ctx.RT.Publish(b)
}

// fracParts decodes a fraction into sign, numerator and denominator
// magnitudes.
func fracParts(ctx *Context, ref runtime.Ref) (bool, *big.Int, *big.Int, bool) {
	id := TypeOf(ctx, ref)
	p := payload(ctx, ref)
	switch id {
	case IDFraction, IDNegFraction:
		nu, n := runtime.ULEB(p)
		if n == 0 {
			return false, nil, nil, false
		}
		du, m := runtime.ULEB(p[n:])
		if m == 0 {
			return false, nil, nil, false
		}
		return id == IDNegFraction,
			new(big.Int).SetUint64(nu), new(big.Int).SetUint64(du), true
	case IDBigFraction, IDNegBigFraction:
		num, n := readMagnitude(p)
		if n == 0 {
			return false, nil, nil, false
		}
		den, m := readMagnitude(p[n:])
		if m == 0 {
			return false, nil, nil, false
		}
		return id == IDNegBigFraction, num, den, true
	}
	return false, nil, nil, false
}

// ratOf widens integers, bignums and fractions to an exact rational.
func ratOf(ctx *Context, ref runtime.Ref) (*big.Rat, bool) {
	id := TypeOf(ctx, ref)
	if isFraction(id) {
		neg, num, den, ok := fracParts(ctx, ref)
		if !ok {
			return nil, false
		}
		if neg {
			num = new(big.Int).Neg(num)
		}
		return new(big.Rat).SetFrac(num, den), true
	}
	if v, ok := bigValue(ctx, ref); ok {
		return new(big.Rat).SetInt(v), true
	}
	return nil, false
}

// makeRatResult publishes a rational with the canonical representation.
func makeRatResult(ctx *Context, v *big.Rat) runtime.Ref {
	return NewFraction(ctx, v.Num(), v.Denom())
}

// renderFraction writes "num/den", or "w n/d" with mixed fractions on.
func renderFraction(ctx *Context, ref runtime.Ref, r *Renderer) {
	neg, num, den, ok := fracParts(ctx, ref)
	if !ok {
		r.PutString("?")
		return
	}
	if neg {
		r.PutByte('-')
	}
	if ctx.Cfg.MixedFractions {
		quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
		if quo.Sign() != 0 {
			r.PutString(quo.Text(10))
			r.PutByte(' ')
			num = rem
		}
	}
	r.PutString(num.Text(10))
	r.PutByte('/')
	r.PutString(den.Text(10))
}

// evalFraction pushes the fraction, or its decimal form when numeric
// results are requested.
func evalFraction(ctx *Context, ref runtime.Ref) error {
	if ctx.Cfg.NumericalResults {
		if d, ok := decPromote(ctx, ref); ok {
			out := NewDecimal(ctx, d)
			if out != runtime.Nil && ctx.RT.Push(out) {
				return nil
			}
			return ctx.RT.Err()
		}
	}
	return evalSelf(ctx, ref)
}

// ParseDMS converts a degree-minute-second triple to a fraction in
// degrees: d + m/60 + s/3600.
func ParseDMS(ctx *Context, deg, min string, sec string) runtime.Ref {
	d, errD := strconv.ParseInt(deg, 10, 64)
	m, errM := strconv.ParseUint(min, 10, 64)
	if errD != nil || errM != nil {
		return ctx.raise(errors.SyntaxError)
	}
	neg := d < 0
	if neg {
		d = -d
	}
	// seconds may carry a fractional part
	num := new(big.Int).SetInt64(d*3600 + int64(m)*60)
	den := new(big.Int).SetInt64(3600)
	if sec != "" {
		whole := sec
		frac := ""
		if dot := strings.IndexByte(sec, '.'); dot >= 0 {
			whole, frac = sec[:dot], sec[dot+1:]
		}
		s, errS := strconv.ParseUint(whole, 10, 64)
		if errS != nil {
			return ctx.raise(errors.SyntaxError)
		}
		num.Add(num, big.NewInt(int64(s)))
		if frac != "" {
			f, errF := strconv.ParseUint(frac, 10, 64)
			if errF != nil {
				return ctx.raise(errors.SyntaxError)
			}
			scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(len(frac))), nil)
			num.Mul(num, scale)
			num.Add(num, big.NewInt(int64(f)))
			den.Mul(den, scale)
		}
	}
	if neg {
		num.Neg(num)
	}
	return NewFraction(ctx, num, den)
}
