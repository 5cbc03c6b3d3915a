package object

import (
	"testing"

	"reckon/internal/settings"
)

func TestComplexArithmetic(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src      string
		re, im   int64
	}{
		{"(1;2) (3;4) +", 4, 6},
		{"(1;2) (3;4) -", -2, -2},
		{"(1;2) (3;4) *", -5, 10},
		{"(0;1) (0;1) *", -1, 0},
		{"(3;4) (3;4) /", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ctx.RT.ClearStack()
			eval(t, ctx, tt.src)
			z, ok := anyToCrect(ctx, ctx.RT.Top())
			if !ok {
				t.Fatalf("top not numeric: %v", TypeOf(ctx, ctx.RT.Top()))
			}
			within(t, z.re, dFromInt64(tt.re), 18)
			within(t, z.im, dFromInt64(tt.im), 18)
		})
	}
}

func TestComplexZeroImaginaryCollapses(t *testing.T) {
	ctx := newTestContext(t)
	// (3;4)/(3;4) = 1 with a zero imaginary part collapses to a real.
	eval(t, ctx, "(3;4) (3;4) /")
	if isComplex(TypeOf(ctx, ctx.RT.Top())) {
		t.Error("zero imaginary part should collapse to a real")
	}
}

func TestComplexAbsAndArg(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "(3;4) abs")
	d, _ := decValue(ctx, ctx.RT.Top())
	within(t, d, dFromInt64(5), 20)

	// arg of (0;1) in degrees is 90
	ctx.RT.ClearStack()
	eval(t, ctx, "(0;1) arg")
	d, _ = decValue(ctx, ctx.RT.Top())
	within(t, d, dFromInt64(90), 18)

	// and in radians, π/2
	ctx.Cfg.Angle = settings.Radians
	ctx.RT.ClearStack()
	eval(t, ctx, "(0;1) arg")
	d, _ = decValue(ctx, ctx.RT.Top())
	within(t, d, dDiv(ctx.Pi(), dFromInt64(2), 30), 18)
}

func TestComplexParts(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "(3;4) re")
	if got := top(t, ctx); got != "3." {
		t.Errorf("re = %q", got)
	}
	ctx.RT.ClearStack()
	eval(t, ctx, "(3;4) im")
	if got := top(t, ctx); got != "4." {
		t.Errorf("im = %q", got)
	}
	ctx.RT.ClearStack()
	eval(t, ctx, "(3;4) conj")
	z, _ := complexValue(ctx, ctx.RT.Top())
	within(t, z.im, dFromInt64(-4), 18)
}

func TestPolarRectangularRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	// (1∡0.5): modulus 1, argument π/2
	eval(t, ctx, "(1∡0.5)")
	z, ok := complexValue(ctx, ctx.RT.Top())
	if !ok {
		t.Fatal("decode failed")
	}
	bound := dnum{m: bigOne, k: -20}
	if dCmp(dAbs(z.re), bound) > 0 {
		t.Errorf("re should vanish, got %v×10^%d", z.re.m, z.re.k)
	}
	within(t, z.im, dOne(), 20)

	// Back to polar: canonical argument in (-1, 1] π-radians
	mod, arg := rectToPolar(ctx, z)
	within(t, mod, dOne(), 18)
	within(t, arg, dn(t, "0.5"), 18)
}

func TestArgCanonicalRange(t *testing.T) {
	ctx := newTestContext(t)
	// Angles fold into (-1, 1] in π-radians
	tests := []struct {
		in, want string
	}{
		{"2.5", "0.5"},
		{"-0.5", "-0.5"},
		{"3", "1"},
		{"-1", "1"},
	}
	for _, tt := range tests {
		got := ConvertAngle(ctx, dn(t, tt.in), settings.PiRadians, settings.PiRadians, false)
		within(t, got, dn(t, tt.want), 18)
	}
}

func TestComplexSqrtIdentity(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "(3;4) sqrt dup *")
	z, _ := anyToCrect(ctx, ctx.RT.Top())
	within(t, z.re, dFromInt64(3), 16)
	within(t, z.im, dFromInt64(4), 16)
}

func TestComplexExpLn(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "(1;2) ln exp")
	z, _ := anyToCrect(ctx, ctx.RT.Top())
	within(t, z.re, dOne(), 14)
	within(t, z.im, dFromInt64(2), 14)
}
