package object

import (
	"math/big"
	"testing"
)

func TestFractionNormalization(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		num, den int64
		want     string
		id       ID
	}{
		{6, 8, "3/4", IDFraction},
		{-10, -25, "2/5", IDFraction},
		{-3, 4, "-3/4", IDNegFraction},
		{3, -4, "-3/4", IDNegFraction},
		{4, 2, "2", IDInteger},
		{-4, 2, "-2", IDNegInteger},
		{0, 7, "0", IDInteger},
	}
	for _, tt := range tests {
		ref := NewFraction(ctx, big.NewInt(tt.num), big.NewInt(tt.den))
		if got := Render(ctx, ref); got != tt.want {
			t.Errorf("%d/%d = %q, want %q", tt.num, tt.den, got, tt.want)
		}
		if id := TypeOf(ctx, ref); id != tt.id {
			t.Errorf("%d/%d tag = %v, want %v", tt.num, tt.den, id, tt.id)
		}
	}
}

func TestFractionReducedInvariant(t *testing.T) {
	ctx := newTestContext(t)
	// gcd(|p|, q) = 1 and q > 0 for anything the constructor returns
	for _, pair := range [][2]int64{{6, 8}, {-10, -25}, {100, 36}, {-7, 21}} {
		ref := NewFraction(ctx, big.NewInt(pair[0]), big.NewInt(pair[1]))
		if !isFraction(TypeOf(ctx, ref)) {
			continue
		}
		_, num, den, ok := fracParts(ctx, ref)
		if !ok {
			t.Fatal("decode failed")
		}
		if den.Sign() <= 0 {
			t.Errorf("%v: denominator not positive", pair)
		}
		g := new(big.Int).GCD(nil, nil, num, den)
		if g.Cmp(big.NewInt(1)) != 0 {
			t.Errorf("%v: not reduced, gcd %v", pair, g)
		}
	}
}

func TestFractionFromDivision(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "6 8 /")
	if got := top(t, ctx); got != "3/4" {
		t.Errorf("6/8 = %q", got)
	}
	if TypeOf(ctx, ctx.RT.Top()) != IDFraction {
		t.Error("division with remainder should widen to fraction")
	}
	// Exact division stays an integer.
	ctx.RT.ClearStack()
	eval(t, ctx, "8 4 /")
	if TypeOf(ctx, ctx.RT.Top()) != IDInteger || top(t, ctx) != "2" {
		t.Error("exact division should stay integer")
	}
}

func TestFractionArithmetic(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src, want string
	}{
		{"1 2 / 1 3 / +", "5/6"},
		{"1 2 / 1 3 / -", "1/6"},
		{"2 3 / 3 4 / *", "1/2"},
		{"1 2 / 1 4 / /", "2"},
		{"1 2 / 2 ^", "1/4"},
		{"2 3 / 2 neg ^", "9/4"},
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

func TestFractionModFollowsDivisorSign(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src, want string
	}{
		{"7 2 / 3 mod", "1/2"},     // 3.5 mod 3
		{"7 neg 2 / 3 mod", "5/2"}, // -3.5 mod 3 is non-negative
		{"7 2 / 3 rem", "1/2"},
		{"7 neg 2 / 3 rem", "-1/2"}, // rem keeps the dividend sign
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

func TestBigFraction(t *testing.T) {
	ctx := newTestContext(t)
	num, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	den, _ := new(big.Int).SetString("333333333333333333333333333333", 10)
	ref := NewFraction(ctx, num, den)
	if TypeOf(ctx, ref) != IDBigFraction {
		t.Fatalf("tag = %v", TypeOf(ctx, ref))
	}
	_, n, d, ok := fracParts(ctx, ref)
	if !ok {
		t.Fatal("decode failed")
	}
	g := new(big.Int).GCD(nil, nil, n, d)
	if g.Cmp(big.NewInt(1)) != 0 {
		t.Error("big fraction not reduced")
	}
}

func TestMixedFractionRendering(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Cfg.MixedFractions = true
	ref := NewFraction(ctx, big.NewInt(7), big.NewInt(2))
	if got := Render(ctx, ref); got != "3 1/2" {
		t.Errorf("mixed render = %q", got)
	}
}
