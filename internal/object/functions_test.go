package object

import (
	"testing"

	"reckon/internal/settings"
)

func TestExactAngleTrig(t *testing.T) {
	ctx := newTestContext(t) // Degrees, auto-simplify on by default
	tests := []struct {
		src  string
		id   ID
		want string
	}{
		{"30 sin", IDFraction, "1/2"},
		{"150 sin", IDFraction, "1/2"},
		{"210 sin", IDNegFraction, "-1/2"},
		{"90 sin", IDInteger, "1"},
		{"270 sin", IDNegInteger, "-1"},
		{"0 sin", IDInteger, "0"},
		{"60 cos", IDFraction, "1/2"},
		{"180 cos", IDNegInteger, "-1"},
		{"45 tan", IDInteger, "1"},
		{"135 tan", IDNegInteger, "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ctx.RT.ClearStack()
			eval(t, ctx, tt.src)
			ref := ctx.RT.Top()
			if TypeOf(ctx, ref) != tt.id {
				t.Errorf("tag = %v, want %v (exact, not decimal)", TypeOf(ctx, ref), tt.id)
			}
			if got := Render(ctx, ref); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
	// 90 tan is a pole
	ctx.RT.ClearStack()
	if err := EvalLine(ctx, "90 tan"); err == nil {
		t.Error("tan 90° should fail")
	}
}

func TestInexactAngleTrig(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "45 sin")
	d, ok := decValue(ctx, ctx.RT.Top())
	if !ok {
		t.Fatalf("sin 45° should be decimal, got %v", TypeOf(ctx, ctx.RT.Top()))
	}
	root2over2 := dDiv(dSqrt(dFromInt64(2), 30), dFromInt64(2), 30)
	within(t, d, root2over2, 20)
}

func TestAngleModes(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Cfg.Angle = settings.Radians
	eval(t, ctx, "0.5 sin asin")
	d, _ := decValue(ctx, ctx.RT.Top())
	within(t, d, dn(t, "0.5"), 18)

	ctx.Cfg.Angle = settings.Grads
	ctx.RT.ClearStack()
	eval(t, ctx, "100 sin") // 100 grads is a right angle
	d, _ = decValue(ctx, ctx.RT.Top())
	within(t, d, dOne(), 20)

	ctx.Cfg.Angle = settings.PiRadians
	ctx.RT.ClearStack()
	eval(t, ctx, "0.5 sin") // half a π-radian turn is 90°
	d, _ = decValue(ctx, ctx.RT.Top())
	within(t, d, dOne(), 20)
}

func TestSqrtPaths(t *testing.T) {
	ctx := newTestContext(t)
	// Perfect square stays an exact integer
	eval(t, ctx, "16 sqrt")
	if TypeOf(ctx, ctx.RT.Top()) != IDInteger || top(t, ctx) != "4" {
		t.Error("sqrt 16 should be the integer 4")
	}
	// Non-square goes decimal
	ctx.RT.ClearStack()
	eval(t, ctx, "2 sqrt")
	d, ok := decValue(ctx, ctx.RT.Top())
	if !ok {
		t.Fatal("sqrt 2 should be decimal")
	}
	within(t, dMul(d, d, 30), dFromInt64(2), 20)
	// Negative goes complex
	ctx.RT.ClearStack()
	eval(t, ctx, "4 neg sqrt")
	ref := ctx.RT.Top()
	if TypeOf(ctx, ref) != IDRectangular {
		t.Fatalf("sqrt -4 tag = %v", TypeOf(ctx, ref))
	}
	z, _ := complexValue(ctx, ref)
	within(t, z.im, dFromInt64(2), 18)
	if !z.re.isZero() {
		t.Error("sqrt -4 real part should be zero")
	}
}

func TestPartsFunctions(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src, want string
	}{
		{"7 2 / ip", "3"},
		{"7 2 / fp", "1/2"},
		{"7 neg 2 / floor", "-4"},
		{"7 neg 2 / ceil", "-3"},
		{"5 neg abs", "5"},
		{"5 neg sign", "-1"},
		{"0 sign", "0"},
		{"3 4 / inv", "4/3"},
		{"3 sq", "9"},
		{"3 cubed", "27"},
		{"2 3 / neg", "-2/3"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ctx.RT.ClearStack()
			eval(t, ctx, tt.src)
			if got := top(t, ctx); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecimalParts(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src, want string
	}{
		{"2.5 floor", "2"},
		{"2.5 neg floor", "-3"},
		{"2.5 ceil", "3"},
		{"2.5 ip", "2"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ctx.RT.ClearStack()
			eval(t, ctx, tt.src)
			if got := top(t, ctx); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogExpFamily(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "100 log")
	d, _ := decValue(ctx, ctx.RT.Top())
	within(t, d, dFromInt64(2), 20)

	ctx.RT.ClearStack()
	eval(t, ctx, "8 log2")
	d, _ = decValue(ctx, ctx.RT.Top())
	within(t, d, dFromInt64(3), 20)

	ctx.RT.ClearStack()
	eval(t, ctx, "1 exp ln")
	d, _ = decValue(ctx, ctx.RT.Top())
	within(t, d, dOne(), 20)

	// ln of a negative goes complex: ln(-1) = iπ
	ctx.RT.ClearStack()
	eval(t, ctx, "1 neg ln")
	z, ok := complexValue(ctx, ctx.RT.Top())
	if !ok {
		t.Fatal("ln(-1) should be complex")
	}
	within(t, z.im, ctx.Pi(), 18)
}

func TestFactorialOnDecimal(t *testing.T) {
	ctx := newTestContext(t)
	// 0.5! = Γ(1.5) = √π/2
	eval(t, ctx, "0.5 fact")
	d, _ := decValue(ctx, ctx.RT.Top())
	want := dDiv(dSqrt(ctx.Pi(), 30), dFromInt64(2), 30)
	within(t, d, want, 18)
}

func TestSymbolicFunction(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "'X' sin")
	if got := top(t, ctx); got != "'sin(X)'" {
		t.Errorf("got %q", got)
	}
}
