package object

import (
	"math"
	"strconv"
	"testing"
)

// fromFloat builds a dnum from a float64 for loose comparisons.
func fromFloat(t *testing.T, v float64) dnum {
	t.Helper()
	d, ok := parseDnum(strconv.FormatFloat(v, 'e', -1, 64))
	if !ok {
		t.Fatalf("bad float %v", v)
	}
	return d
}

func TestPiAgainstFloat(t *testing.T) {
	ctx := newTestContext(t)
	within(t, ctx.Pi(), fromFloat(t, math.Pi), 14)
}

func TestConstantsCacheInvalidation(t *testing.T) {
	ctx := newTestContext(t)
	first := ctx.constants()
	if ctx.constants() != first {
		t.Error("cache should be stable at a fixed precision")
	}
	ctx.Cfg.Precision = 50
	second := ctx.constants()
	if second.prec != 50 {
		t.Errorf("cache precision = %d", second.prec)
	}
	if dDigits(second.pi.m) < 40 {
		t.Error("higher precision should lengthen pi")
	}
}

func TestSqrtSquares(t *testing.T) {
	p := 30
	for _, v := range []int64{2, 3, 5, 10, 12345} {
		root := dSqrt(dFromInt64(v), p)
		back := dMul(root, root, p)
		within(t, back, dFromInt64(v), p-2)
	}
}

func TestExpLnInverse(t *testing.T) {
	ctx := newTestContext(t)
	p := 24
	for _, lit := range []string{"1", "0.5", "-2.25", "10", "0.001"} {
		x := dn(t, lit)
		back := dLn(ctx, dExp(ctx, x, p+4), p)
		within(t, back, x, p-3)
	}
	// e^1 against the cached constant
	within(t, dExp(ctx, dOne(), p), dRound(ctx.constants().e, p), p-2)
	// ln of a negative is NaN at this layer
	if !dLn(ctx, dn(t, "-1"), p).isNaN() {
		t.Error("ln(-1) should be NaN here")
	}
}

func TestExpOverflowToInfinity(t *testing.T) {
	ctx := newTestContext(t)
	out := dExp(ctx, dn(t, "1e9"), 24)
	if out.cls != clsInf {
		t.Error("exp overflow should be infinity")
	}
	out = dExp(ctx, dn(t, "-1e9"), 24)
	if !out.isZero() {
		t.Error("exp underflow should be zero")
	}
}

func TestSinCosIdentity(t *testing.T) {
	ctx := newTestContext(t)
	p := 24
	for _, lit := range []string{"0.1", "1", "2", "-0.7", "10", "100"} {
		x := dn(t, lit)
		sin, cos := dSinCos(ctx, x, p)
		sum := dAdd(dMul(sin, sin, p+4), dMul(cos, cos, p+4), p+4)
		within(t, sum, dOne(), p-3)
		// Against the float oracle
		within(t, sin, fromFloat(t, math.Sin(dApprox(x))), 12)
	}
}

func TestTanAtan(t *testing.T) {
	ctx := newTestContext(t)
	p := 24
	for _, lit := range []string{"0.3", "1", "-0.9", "5"} {
		x := dn(t, lit)
		back := dTanRad(ctx, dAtan(ctx, x, p+4), p)
		within(t, back, x, p-4)
	}
	// atan(1) = π/4
	within(t, dAtan(ctx, dOne(), p),
		dDiv(ctx.Pi(), dFromInt64(4), p), p-2)
}

func TestAsinAcos(t *testing.T) {
	ctx := newTestContext(t)
	p := 24
	half := dn(t, "0.5")
	// asin(1/2) = π/6
	within(t, dAsin(ctx, half, p), dDiv(ctx.Pi(), dFromInt64(6), p), p-2)
	// acos(x) + asin(x) = π/2
	x := dn(t, "0.3")
	sum := dAdd(dAsin(ctx, x, p), dAcos(ctx, x, p), p)
	within(t, sum, dDiv(ctx.Pi(), dFromInt64(2), p), p-2)
	if !dAsin(ctx, dn(t, "1.5"), p).isNaN() {
		t.Error("asin beyond 1 should be NaN")
	}
}

func TestHyperbolics(t *testing.T) {
	ctx := newTestContext(t)
	p := 24
	x := dn(t, "0.8")
	// cosh² - sinh² = 1
	s := dSinh(ctx, x, p)
	c := dCosh(ctx, x, p)
	diff := dSub(dMul(c, c, p+4), dMul(s, s, p+4), p+4)
	within(t, diff, dOne(), p-4)
	// inverses
	within(t, dAsinh(ctx, s, p), x, p-4)
	within(t, dAcosh(ctx, c, p), x, p-4)
	within(t, dAtanh(ctx, dTanh(ctx, x, p), p), x, p-4)
}

func TestGammaExactValues(t *testing.T) {
	ctx := newTestContext(t)
	p := 24
	// Γ(5) = 24
	within(t, dGamma(ctx, dFromInt64(5), p), dFromInt64(24), p-3)
	// Γ(1/2) = √π
	half := dn(t, "0.5")
	within(t, dGamma(ctx, half, p), dSqrt(ctx.Pi(), p), p-3)
	// poles
	if !dGamma(ctx, dFromInt64(0), p).isNaN() {
		t.Error("Γ(0) should be NaN")
	}
	if !dGamma(ctx, dFromInt64(-3), p).isNaN() {
		t.Error("Γ(-3) should be NaN")
	}
}

func TestErfAgainstFloat(t *testing.T) {
	ctx := newTestContext(t)
	p := 20
	for _, v := range []float64{0.1, 0.5, 1, 2, -1.5} {
		got := dErf(ctx, fromFloat(t, v), p)
		within(t, got, fromFloat(t, math.Erf(v)), 12)
	}
	for _, v := range []float64{0.5, 2, 3} {
		got := dErfc(ctx, fromFloat(t, v), p)
		within(t, got, fromFloat(t, math.Erfc(v)), 8)
	}
}

func TestPowDecimal(t *testing.T) {
	ctx := newTestContext(t)
	p := 24
	// 2^10 = 1024
	r, ok := decPow(ctx, dFromInt64(2), dFromInt64(10), p)
	if !ok {
		t.Fatal("pow failed")
	}
	within(t, r, dFromInt64(1024), p-2)
	// 2^0.5 = √2
	r, ok = decPow(ctx, dFromInt64(2), dn(t, "0.5"), p)
	if !ok {
		t.Fatal("pow failed")
	}
	within(t, r, dSqrt(dFromInt64(2), p), p-3)
	// negative base, fractional exponent defers to complex
	if _, ok = decPow(ctx, dFromInt64(-2), dn(t, "0.5"), p); ok {
		t.Error("negative base with fractional exponent should not stay real")
	}
}
