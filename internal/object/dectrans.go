// internal/object/dectrans.go
package object

import (
	"math"
	"math/big"
	"strconv"

	"reckon/internal/errors"
	"reckon/internal/runtime"
	"reckon/internal/settings"
)

// Transcendental functions over the working decimal form. Every entry
// point takes the target precision p in decimal digits and computes
// with guard digits internally, so results are correctly rounded to p
// for all practical arguments.

// ccache holds the constants that depend only on the precision. It is
// rebuilt whenever the precision setting changes.
type ccache struct {
	prec      int
	pi        dnum
	e         dnum
	ln2       dnum
	ln10      dnum
	lnpi      dnum
	sqrt2pi   dnum
	invsqrtpi dnum
	spougeA   int
	spouge    []dnum // c0 .. c(a-1)
}

// constants returns the cache for the current precision.
func (ctx *Context) constants() *ccache {
	p := prec(ctx)
	if ctx.cc.prec == p {
		return &ctx.cc
	}
	g := p + 12
	cc := ccache{prec: p}
	cc.pi = machinPi(g)
	cc.e = seriesE(g)
	cc.ln2 = atanhSeries(1, 3, g) // ln 2 = 2 atanh(1/3)
	ln5 := atanhSeries(2, 3, g)   // ln 5 = 2 atanh(2/3)
	cc.ln10 = dRound(dAdd(cc.ln2, ln5, g), g)
	cc.lnpi = dLnAt(cc.pi, g)
	twopi := dMul(cc.pi, dFromInt64(2), g)
	cc.sqrt2pi = dSqrt(twopi, g)
	cc.invsqrtpi = dDiv(dOne(), dSqrt(cc.pi, g), g)
	ctx.cc = cc
	return &ctx.cc
}

// Pi returns π at the current precision.
func (ctx *Context) Pi() dnum {
	return dRound(ctx.constants().pi, prec(ctx))
}

// machinPi computes π = 16 atan(1/5) - 4 atan(1/239) at g digits.
func machinPi(g int) dnum {
	scale := pow10(g + 4)
	a5 := atanInvInt(5, scale)
	a239 := atanInvInt(239, scale)
	pi := new(big.Int).Mul(a5, big.NewInt(16))
	pi.Sub(pi, new(big.Int).Mul(a239, big.NewInt(4)))
	return dRound(dNorm(dnum{m: pi, k: -(g + 4)}), g)
}

// atanInvInt computes atan(1/x) scaled by scale using the alternating
// series over integers.
func atanInvInt(x int64, scale *big.Int) *big.Int {
	xv := big.NewInt(x)
	xx := new(big.Int).Mul(xv, xv)
	term := new(big.Int).Quo(scale, xv)
	sum := new(big.Int).Set(term)
	t := new(big.Int)
	for n := int64(3); term.Sign() != 0; n += 2 {
		term.Quo(term, xx)
		if term.Sign() == 0 {
			break
		}
		t.Quo(term, big.NewInt(n))
		if (n/2)%2 == 1 {
			sum.Sub(sum, t)
		} else {
			sum.Add(sum, t)
		}
	}
	return sum
}

// seriesE computes e = sum 1/k! at g digits.
func seriesE(g int) dnum {
	scale := pow10(g + 4)
	term := new(big.Int).Set(scale)
	sum := new(big.Int).Set(scale)
	for k := int64(1); term.Sign() != 0; k++ {
		term.Quo(term, big.NewInt(k))
		sum.Add(sum, term)
	}
	return dRound(dNorm(dnum{m: sum, k: -(g + 4)}), g)
}

// atanhSeries computes 2 atanh(n/d) = ln((d+n)/(d-n)) at g digits.
func atanhSeries(n, d int64, g int) dnum {
	scale := pow10(g + 4)
	nv, dv := big.NewInt(n), big.NewInt(d)
	nn := new(big.Int).Mul(nv, nv)
	dd := new(big.Int).Mul(dv, dv)
	term := new(big.Int).Mul(scale, nv)
	term.Quo(term, dv)
	sum := new(big.Int).Set(term)
	t := new(big.Int)
	for k := int64(3); ; k += 2 {
		term.Mul(term, nn)
		term.Quo(term, dd)
		if term.Sign() == 0 {
			break
		}
		t.Quo(term, big.NewInt(k))
		sum.Add(sum, t)
	}
	sum.Lsh(sum, 1)
	return dRound(dNorm(dnum{m: sum, k: -(g + 4)}), g)
}

// dSqrt computes the square root at p digits via the integer square
// root of the scaled mantissa.
func dSqrt(d dnum, p int) dnum {
	if d.cls == clsInf {
		return d
	}
	if d.isNaN() || d.neg && !d.isZero() {
		return dNaN()
	}
	if d.isZero() {
		return dZero()
	}
	shift := 2*(p+4) - d.k
	if shift < 0 {
		shift = 0
	}
	if (d.k-shift)%2 != 0 {
		shift++
	}
	s := new(big.Int).Mul(d.m, pow10(shift))
	root := new(big.Int).Sqrt(s)
	return dRound(dNorm(dnum{m: root, k: (d.k - shift) / 2}), p)
}

// dExp computes e^x at p digits.
func dExp(ctx *Context, x dnum, p int) dnum {
	if x.isNaN() {
		return x
	}
	if x.cls == clsInf {
		if x.neg {
			return dZero()
		}
		return x
	}
	if x.isZero() {
		return dOne()
	}
	// Overflow check from the decimal estimate of x / ln 10.
	maxE := 3 * ctx.Cfg.MaxDecimalExponent
	if est := dApprox(x) / math.Ln10; est > float64(maxE+3) {
		return dInf(false)
	} else if est < -float64(maxE+3) {
		return dZero()
	}

	g := p + 12
	w := dTrunc(x)
	f := dSub(x, dFromBig(w), g)

	// e^f with |f| < 1: halve until tiny, series, square back.
	h := 0
	for !f.isZero() && f.e10() > -2 {
		f = dDiv(f, dFromInt64(2), g+h)
		h++
	}
	g += h
	sum := dOne()
	term := dOne()
	for n := int64(1); ; n++ {
		term = dMul(term, f, g)
		term = dDiv(term, dFromInt64(n), g)
		if term.isZero() || term.e10() < -(g+2) {
			break
		}
		sum = dAdd(sum, term, g)
	}
	for i := 0; i < h; i++ {
		sum = dMul(sum, sum, g)
	}

	// e^w by integer powering of the cached e.
	if w.Sign() != 0 {
		cc := ctx.constants()
		ew := dPowIntBig(cc.e, w, g)
		sum = dMul(sum, ew, g)
	}
	return dRound(sum, p)
}

// dApprox gives a float64 estimate of a finite decimal, saturating on
// overflow; used only for range decisions.
func dApprox(d dnum) float64 {
	if d.m.Sign() == 0 {
		return 0
	}
	digits := d.m.Text(10)
	lead := digits
	if len(lead) > 15 {
		lead = lead[:15]
	}
	f, _ := strconv.ParseFloat(lead, 64)
	e := float64(len(digits)-len(lead)+d.k)
	v := f * math.Pow(10, e)
	if d.neg {
		v = -v
	}
	if math.IsInf(v, 0) {
		if d.neg {
			return -math.MaxFloat64
		}
		return math.MaxFloat64
	}
	return v
}

// dPowIntBig raises a positive base to a big integer power.
func dPowIntBig(base dnum, n *big.Int, p int) dnum {
	neg := n.Sign() < 0
	e := new(big.Int).Abs(n)
	result := dOne()
	sq := base
	for e.Sign() != 0 {
		if e.Bit(0) == 1 {
			result = dMul(result, sq, p)
		}
		sq = dMul(sq, sq, p)
		e.Rsh(e, 1)
	}
	if neg {
		result = dDiv(dOne(), result, p)
	}
	return result
}

// dPowInt raises any decimal to an int64 power.
func dPowInt(x dnum, n int64, p int) dnum {
	return dPowIntBig(x, big.NewInt(n), p)
}

// dLnAt computes the natural logarithm without the constants cache;
// used while building the cache itself.
func dLnAt(x dnum, g int) dnum {
	return lnNewton(x, g)
}

// dLn computes ln x at p digits. Negative arguments return NaN; the
// caller decides whether to go complex.
func dLn(ctx *Context, x dnum, p int) dnum {
	if x.isNaN() || x.neg && !x.isZero() {
		return dNaN()
	}
	if x.isZero() {
		return dInf(true)
	}
	if x.cls == clsInf {
		return x
	}
	return dRound(lnNewton(x, p+10), p)
}

// lnNewton solves e^y = x by Newton iteration from a float64 seed.
func lnNewton(x dnum, g int) dnum {
	seed := math.Log(math.Abs(dApprox(x)))
	if math.IsInf(seed, 0) || math.IsNaN(seed) {
		// Out of float range; use digits and exponent separately.
		seed = float64(x.e10()) * math.Ln10
	}
	y, _ := parseDnum(strconv.FormatFloat(seed, 'e', -1, 64))
	iters := 2
	for need := 14; need < g; need *= 2 {
		iters++
	}
	for i := 0; i < iters; i++ {
		// y += x * e^-y - 1
		ey := expNoCache(dNeg(y), g)
		t := dMul(x, ey, g)
		t = dSub(t, dOne(), g)
		y = dAdd(y, t, g)
	}
	return y
}

// expNoCache is dExp without the cached e, for cache construction and
// Newton steps. The whole-part power uses e computed from its series.
func expNoCache(x dnum, g int) dnum {
	if x.isZero() {
		return dOne()
	}
	w := dTrunc(x)
	f := dSub(x, dFromBig(w), g)
	h := 0
	for !f.isZero() && f.e10() > -2 {
		f = dDiv(f, dFromInt64(2), g+h)
		h++
	}
	wg := g + h
	sum := dOne()
	term := dOne()
	for n := int64(1); ; n++ {
		term = dMul(term, f, wg)
		term = dDiv(term, dFromInt64(n), wg)
		if term.isZero() || term.e10() < -(wg+2) {
			break
		}
		sum = dAdd(sum, term, wg)
	}
	for i := 0; i < h; i++ {
		sum = dMul(sum, sum, wg)
	}
	if w.Sign() != 0 {
		ev := seriesE(wg)
		sum = dMul(sum, dPowIntBig(ev, w, wg), wg)
	}
	return sum
}

// ====================================================================
//
//   Trigonometry
//
// ====================================================================

// toRadians converts an angle from the current mode.
func toRadians(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	switch ctx.Cfg.Angle {
	case settings.Degrees:
		return dDiv(dMul(x, ctx.constants().pi, g), dFromInt64(180), g)
	case settings.Grads:
		return dDiv(dMul(x, ctx.constants().pi, g), dFromInt64(200), g)
	case settings.PiRadians:
		return dMul(x, ctx.constants().pi, g)
	}
	return x
}

// fromRadians converts a result angle back to the current mode.
func fromRadians(ctx *Context, r dnum, p int) dnum {
	g := p + 8
	switch ctx.Cfg.Angle {
	case settings.Degrees:
		return dRound(dDiv(dMul(r, dFromInt64(180), g), ctx.constants().pi, g), p)
	case settings.Grads:
		return dRound(dDiv(dMul(r, dFromInt64(200), g), ctx.constants().pi, g), p)
	case settings.PiRadians:
		return dRound(dDiv(r, ctx.constants().pi, g), p)
	}
	return dRound(r, p)
}

// dSinCos computes sine and cosine of a radian argument.
func dSinCos(ctx *Context, x dnum, p int) (dnum, dnum) {
	if !x.finite() {
		return dNaN(), dNaN()
	}
	g := p + 10
	if x.e10() > 0 {
		g += x.e10()
	}
	pi := machinPiAt(ctx, g)
	twopi := dMul(pi, dFromInt64(2), g)
	t := dModRem(x, twopi, true, g) // t in [0, 2π)
	// Fold to [-π, π]
	if dCmp(t, pi) > 0 {
		t = dSub(t, twopi, g)
	}
	sinNeg := false
	if t.neg {
		t = dNeg(t)
		sinNeg = true
	}
	// t in [0, π]; fold to [0, π/2]
	cosNeg := false
	halfPi := dDiv(pi, dFromInt64(2), g)
	if dCmp(t, halfPi) > 0 {
		t = dSub(pi, t, g)
		cosNeg = true
	}
	// t in [0, π/2]
	var sin, cos dnum
	quarterPi := dDiv(pi, dFromInt64(4), g)
	if dCmp(t, quarterPi) > 0 {
		u := dSub(halfPi, t, g)
		cos = sinSeries(u, g)
		sin = cosSeries(u, g)
	} else {
		sin = sinSeries(t, g)
		cos = cosSeries(t, g)
	}
	if sinNeg {
		sin = dNeg(sin)
	}
	if cosNeg {
		cos = dNeg(cos)
	}
	return dRound(sin, p), dRound(cos, p)
}

// machinPiAt returns π at at least g digits, recomputing beyond the
// cache when range reduction of large arguments needs more.
func machinPiAt(ctx *Context, g int) dnum {
	cc := ctx.constants()
	if cc.prec+12 >= g {
		return cc.pi
	}
	return machinPi(g)
}

// sinSeries sums the Taylor series of sine for |x| <= π/4.
func sinSeries(x dnum, g int) dnum {
	sum := x
	term := x
	xx := dMul(x, x, g)
	for n := int64(1); ; n++ {
		term = dMul(term, xx, g)
		term = dDiv(term, dFromInt64((2*n)*(2*n+1)), g)
		if term.isZero() || (!sum.isZero() && term.e10() < sum.e10()-(g+2)) {
			break
		}
		if n%2 == 1 {
			sum = dSub(sum, term, g)
		} else {
			sum = dAdd(sum, term, g)
		}
	}
	return sum
}

// cosSeries sums the Taylor series of cosine for |x| <= π/4.
func cosSeries(x dnum, g int) dnum {
	sum := dOne()
	term := dOne()
	xx := dMul(x, x, g)
	for n := int64(1); ; n++ {
		term = dMul(term, xx, g)
		term = dDiv(term, dFromInt64((2*n-1)*(2*n)), g)
		if term.isZero() || term.e10() < -(g+2) {
			break
		}
		if n%2 == 1 {
			sum = dSub(sum, term, g)
		} else {
			sum = dAdd(sum, term, g)
		}
	}
	return sum
}

// dTanRad computes tangent of a radian argument.
func dTanRad(ctx *Context, x dnum, p int) dnum {
	sin, cos := dSinCos(ctx, x, p+4)
	if cos.isZero() {
		return dInf(sin.neg)
	}
	return dDiv(sin, cos, p)
}

// dAtan computes the arc tangent in radians.
func dAtan(ctx *Context, x dnum, p int) dnum {
	if x.isNaN() {
		return x
	}
	g := p + 10
	halfPi := dDiv(machinPiAt(ctx, g), dFromInt64(2), g)
	if x.cls == clsInf {
		if x.neg {
			return dRound(dNeg(halfPi), p)
		}
		return dRound(halfPi, p)
	}
	if x.isZero() {
		return dZero()
	}
	neg := x.neg
	x = dAbs(x)
	invert := false
	if dCmp(x, dOne()) > 0 {
		x = dDiv(dOne(), x, g)
		invert = true
	}
	// Halve the argument until the series converges fast.
	h := 0
	for x.e10() > -1 {
		root := dSqrt(dAdd(dOne(), dMul(x, x, g), g), g)
		x = dDiv(x, dAdd(dOne(), root, g), g)
		h++
	}
	sum := x
	term := x
	xx := dMul(x, x, g)
	for n := int64(1); ; n++ {
		term = dMul(term, xx, g)
		t := dDiv(term, dFromInt64(2*n+1), g)
		if t.isZero() || t.e10() < sum.e10()-(g+2) {
			break
		}
		if n%2 == 1 {
			sum = dSub(sum, t, g)
		} else {
			sum = dAdd(sum, t, g)
		}
	}
	for i := 0; i < h; i++ {
		sum = dMul(sum, dFromInt64(2), g)
	}
	if invert {
		sum = dSub(halfPi, sum, g)
	}
	if neg {
		sum = dNeg(sum)
	}
	return dRound(sum, p)
}

// dAsin computes the arc sine in radians; |x| must not exceed 1.
func dAsin(ctx *Context, x dnum, p int) dnum {
	if x.isNaN() || !x.finite() {
		return dNaN()
	}
	g := p + 8
	c := dCmp(dAbs(x), dOne())
	if c > 0 {
		return dNaN()
	}
	if c == 0 {
		halfPi := dDiv(machinPiAt(ctx, g), dFromInt64(2), g)
		if x.neg {
			return dRound(dNeg(halfPi), p)
		}
		return dRound(halfPi, p)
	}
	den := dSqrt(dSub(dOne(), dMul(x, x, g), g), g)
	return dAtan(ctx, dDiv(x, den, g), p)
}

// dAcos computes the arc cosine in radians.
func dAcos(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	asin := dAsin(ctx, x, g)
	if asin.isNaN() {
		return asin
	}
	halfPi := dDiv(machinPiAt(ctx, g), dFromInt64(2), g)
	return dRound(dSub(halfPi, asin, g), p)
}

// dAtan2 computes the angle of the point (x, y) in (-π, π].
func dAtan2(ctx *Context, y, x dnum, p int) dnum {
	g := p + 8
	pi := machinPiAt(ctx, g)
	switch {
	case x.isZero() && y.isZero():
		return dZero()
	case x.isZero():
		half := dDiv(pi, dFromInt64(2), g)
		if y.neg {
			return dRound(dNeg(half), p)
		}
		return dRound(half, p)
	case x.neg:
		a := dAtan(ctx, dDiv(y, x, g), g)
		if y.neg {
			return dRound(dSub(a, pi, g), p)
		}
		return dRound(dAdd(a, pi, g), p)
	default:
		return dAtan(ctx, dDiv(y, x, g), p)
	}
}

// ====================================================================
//
//   Hyperbolics
//
// ====================================================================

func dSinh(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	ex := dExp(ctx, x, g)
	emx := dExp(ctx, dNeg(x), g)
	return dRound(dDiv(dSub(ex, emx, g), dFromInt64(2), g), p)
}

func dCosh(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	ex := dExp(ctx, x, g)
	emx := dExp(ctx, dNeg(x), g)
	return dRound(dDiv(dAdd(ex, emx, g), dFromInt64(2), g), p)
}

func dTanh(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	e2 := dExp(ctx, dMul(x, dFromInt64(2), g), g)
	if e2.cls == clsInf {
		return dOne()
	}
	return dRound(dDiv(dSub(e2, dOne(), g), dAdd(e2, dOne(), g), g), p)
}

func dAsinh(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	root := dSqrt(dAdd(dMul(x, x, g), dOne(), g), g)
	return dLn(ctx, dAdd(x, root, g), p)
}

func dAcosh(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	if dCmp(x, dOne()) < 0 {
		return dNaN()
	}
	root := dSqrt(dSub(dMul(x, x, g), dOne(), g), g)
	return dLn(ctx, dAdd(x, root, g), p)
}

func dAtanh(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	if dCmp(dAbs(x), dOne()) >= 0 {
		return dNaN()
	}
	q := dDiv(dAdd(dOne(), x, g), dSub(dOne(), x, g), g)
	half := dLn(ctx, q, g)
	return dRound(dDiv(half, dFromInt64(2), g), p)
}

// ====================================================================
//
//   Gamma, error function
//
// ====================================================================

// spougeCoefficients fills the Γ-series coefficients for the current
// precision: c0 = √(2π), ck = (-1)^(k-1)/(k-1)! (a-k)^(k-1/2) e^(a-k).
func (ctx *Context) spougeCoefficients() (int, []dnum) {
	cc := ctx.constants()
	if cc.spouge != nil {
		return cc.spougeA, cc.spouge
	}
	p := cc.prec
	g := p + 12
	a := int(float64(p)*math.Ln10/math.Log(2*math.Pi)) + 3
	coefs := make([]dnum, a)
	coefs[0] = cc.sqrt2pi
	fact := big.NewInt(1)
	for k := 1; k < a; k++ {
		if k > 1 {
			fact.Mul(fact, big.NewInt(int64(k-1)))
		}
		ak := dFromInt64(int64(a - k))
		// (a-k)^(k-1/2) = exp((k-1/2) ln(a-k))
		lnak := dLn(ctx, ak, g)
		kh := dSub(dFromInt64(int64(k)), dDiv(dOne(), dFromInt64(2), g), g)
		pw := dExp(ctx, dMul(kh, lnak, g), g)
		ex := dExp(ctx, ak, g)
		c := dMul(pw, ex, g)
		c = dDiv(c, dFromBig(fact), g)
		if k%2 == 0 {
			c = dNeg(c)
		}
		coefs[k] = c
	}
	cc.spougeA = a
	cc.spouge = coefs
	return a, coefs
}

// dGamma computes Γ(x) at p digits by the Spouge approximation, with
// reflection for arguments below one half.
func dGamma(ctx *Context, x dnum, p int) dnum {
	if x.isNaN() || x.cls == clsInf && x.neg {
		return dNaN()
	}
	if x.cls == clsInf {
		return x
	}
	g := p + 12
	if x.neg && dIsInt(x) || x.isZero() {
		return dNaN() // poles at 0, -1, -2, ...
	}
	half := dDiv(dOne(), dFromInt64(2), g)
	if dCmp(x, half) < 0 {
		// Γ(x) = π / (sin(πx) Γ(1-x))
		pi := machinPiAt(ctx, g)
		sinpx, _ := dSinCos(ctx, dMul(pi, x, g), g)
		if sinpx.isZero() {
			return dNaN()
		}
		rest := dGamma(ctx, dSub(dOne(), x, g), g)
		return dRound(dDiv(pi, dMul(sinpx, rest, g), g), p)
	}
	a, coefs := ctx.spougeCoefficients()
	z := dSub(x, dOne(), g) // Spouge is stated for Γ(z+1)
	acc := coefs[0]
	for k := 1; k < a; k++ {
		den := dAdd(z, dFromInt64(int64(k)), g)
		acc = dAdd(acc, dDiv(coefs[k], den, g), g)
	}
	za := dAdd(z, dFromInt64(int64(a)), g)
	// (z+a)^(z+1/2) e^-(z+a)
	lnza := dLn(ctx, za, g)
	zh := dAdd(z, half, g)
	pw := dExp(ctx, dMul(zh, lnza, g), g)
	ex := dExp(ctx, dNeg(za), g)
	out := dMul(pw, ex, g)
	out = dMul(out, acc, g)
	return dRound(out, p)
}

// dLGamma computes ln |Γ(x)|.
func dLGamma(ctx *Context, x dnum, p int) dnum {
	g := p + 8
	gam := dGamma(ctx, x, g)
	if gam.isNaN() {
		return gam
	}
	return dLn(ctx, dAbs(gam), p)
}

// dErf computes the error function by its confluent series; large
// arguments saturate through the complementary function.
func dErf(ctx *Context, x dnum, p int) dnum {
	if x.isNaN() {
		return x
	}
	if x.cls == clsInf {
		if x.neg {
			return dNeg(dOne())
		}
		return dOne()
	}
	if x.isZero() {
		return dZero()
	}
	g := p + 10
	xx := dMul(x, x, g)
	// erf x = 1 for x^2 >> p ln 10
	if est := dApprox(xx); est > float64(p+4)*math.Ln10 {
		one := dOne()
		if x.neg {
			return dNeg(one)
		}
		return one
	}
	// 2/√π e^{-x²} Σ 2^n x^{2n+1} / (1·3···(2n+1))
	term := x
	sum := x
	for n := int64(1); ; n++ {
		term = dMul(term, xx, g)
		term = dMul(term, dFromInt64(2), g)
		term = dDiv(term, dFromInt64(2*n+1), g)
		if term.isZero() || term.e10() < sum.e10()-(g+2) {
			break
		}
		sum = dAdd(sum, term, g)
	}
	two := dFromInt64(2)
	out := dMul(sum, dExp(ctx, dNeg(xx), g), g)
	out = dMul(out, dMul(two, ctx.constants().invsqrtpi, g), g)
	return dRound(out, p)
}

// dErfc computes the complementary error function, switching to the
// continued fraction for large arguments where the series cancels.
func dErfc(ctx *Context, x dnum, p int) dnum {
	if x.isNaN() {
		return x
	}
	g := p + 10
	if x.neg || dCmp(x, dFromInt64(2)) < 0 {
		return dRound(dSub(dOne(), dErf(ctx, x, g), g), p)
	}
	if x.cls == clsInf {
		return dZero()
	}
	// erfc x = e^{-x²}/(x√π) · 1/(1 + u/(1 + 2u/(1 + 3u/(...))))
	// with u = 1/(2x²), evaluated bottom-up at fixed depth.
	xx := dMul(x, x, g)
	if est := dApprox(xx); est > 3*float64(ctx.Cfg.MaxDecimalExponent)*math.Ln10 {
		return dZero()
	}
	u := dDiv(dOne(), dMul(dFromInt64(2), xx, g), g)
	depth := p + 8
	frac := dOne()
	for n := depth; n >= 1; n-- {
		frac = dAdd(dOne(), dDiv(dMul(dFromInt64(int64(n)), u, g), frac, g), g)
	}
	out := dDiv(dExp(ctx, dNeg(xx), g), dMul(x, dSqrt(machinPiAt(ctx, g), g), g), g)
	out = dDiv(out, frac, g)
	return dRound(out, p)
}

// ====================================================================
//
//   Fraction recovery
//
// ====================================================================

// dToFraction runs the continued-fraction algorithm on x, stopping
// after maxIter steps or when the convergent matches to the given
// number of digits.
func dToFraction(ctx *Context, x dnum, maxIter, digits int) (num, den *big.Int, ok bool) {
	if !x.finite() {
		return nil, nil, false
	}
	if maxIter <= 0 {
		maxIter = 64
	}
	if digits <= 0 || digits > prec(ctx) {
		digits = prec(ctx) - 2
	}
	g := prec(ctx) + 4
	eps := dnum{m: big.NewInt(1), k: -digits}

	neg := x.neg
	t := dAbs(x)
	h0, h1 := big.NewInt(1), new(big.Int).Set(dFloor(t)) // h: numerators
	k0, k1 := big.NewInt(0), big.NewInt(1)               // k: denominators
	frac := dSub(t, dFromBig(h1), g)

	for i := 0; i < maxIter; i++ {
		// Accept when the convergent is within epsilon.
		approx := dDiv(dFromBig(h1), dFromBig(k1), g)
		err := dAbs(dSub(approx, t, g))
		bound := dMul(eps, dAbs(t), g)
		if dCmp(dAbs(t), dOne()) < 0 {
			bound = eps
		}
		if dCmp(err, bound) <= 0 {
			break
		}
		if frac.isZero() {
			break
		}
		frac = dDiv(dOne(), frac, g)
		a := dFloor(frac)
		frac = dSub(frac, dFromBig(a), g)
		h0, h1 = h1, new(big.Int).Add(new(big.Int).Mul(a, h1), h0)
		k0, k1 = k1, new(big.Int).Add(new(big.Int).Mul(a, k1), k0)
	}
	if neg {
		h1 = new(big.Int).Neg(h1)
	}
	return h1, k1, true
}

// ToFraction converts a decimal or hardware float object to the
// nearest fraction within the configured tolerances.
func ToFraction(ctx *Context, ref runtime.Ref, maxIter, digits int) runtime.Ref {
	d, okd := decPromote(ctx, ref)
	if !okd {
		return ctx.raise(errors.TypeError)
	}
	num, den, ok := dToFraction(ctx, d, maxIter, digits)
	if !ok {
		return ctx.raise(errors.ValueError)
	}
	return NewFraction(ctx, num, den)
}
