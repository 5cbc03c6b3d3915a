package object

import (
	"testing"

	"reckon/internal/runtime"
)

func TestIntegerRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		v    int64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-1, "-1"},
		{127, "127"},
		{128, "128"},
		{-1000000, "-1000000"},
	}
	for _, tt := range tests {
		ref := NewInteger(ctx, tt.v)
		if got := Render(ctx, ref); got != tt.want {
			t.Errorf("render %d = %q", tt.v, got)
		}
		got, ok := IntegerValue(ctx, ref)
		if !ok || got != tt.v {
			t.Errorf("value %d = %d %v", tt.v, got, ok)
		}
		id := TypeOf(ctx, ref)
		if tt.v < 0 && id != IDNegInteger {
			t.Errorf("%d tag = %v", tt.v, id)
		}
		if tt.v >= 0 && id != IDInteger {
			t.Errorf("%d tag = %v", tt.v, id)
		}
	}
}

func TestZeroIsCanonicallyPositive(t *testing.T) {
	ctx := newTestContext(t)
	if TypeOf(ctx, NewInteger(ctx, 0)) != IDInteger {
		t.Error("zero must carry the positive tag")
	}
	// 5 - 5 through the dispatch
	eval(t, ctx, "5 5 -")
	if TypeOf(ctx, ctx.RT.Top()) != IDInteger {
		t.Error("computed zero must carry the positive tag")
	}
}

func TestDigitGrouping(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Cfg.DigitGroupSeparator = ' '
	ref := NewInteger(ctx, 1234567)
	if got := Render(ctx, ref); got != "1 234 567" {
		t.Errorf("grouped render = %q", got)
	}
}

func TestBasedLiterals(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src  string
		want string
	}{
		{"#FFh", "#FFh"},
		{"#777o", "#1FFh"}, // rendered in the settings base
		{"#1010b", "#Ah"},
		{"#99d", "#63h"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ctx.RT.ClearStack()
			eval(t, ctx, tt.src)
			if got := top(t, ctx); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if TypeOf(ctx, ctx.RT.Top()) != IDBasedInteger {
				t.Error("based literal tag")
			}
		})
	}
}

func TestBasedDigitError(t *testing.T) {
	ctx := newTestContext(t)
	if err := EvalLine(ctx, "#GZh"); err == nil {
		t.Error("invalid digit should fail")
	}
}

func TestWordSizeMasking(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Cfg.WordSize = 8
	ref := NewBasedInteger(ctx, 0x1FF)
	_, mag := integerParts(ctx, ref)
	if mag != 0xFF {
		t.Errorf("masked value = %#x", mag)
	}
}

func TestBasedLogic(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src  string
		want string
	}{
		{"#3h #5h and", "#1h"},
		{"#3h #5h or", "#7h"},
		{"#3h #5h xor", "#6h"},
		{"#1h sl", "#2h"},
		{"#4h sr", "#2h"},
		{"#3h rl", "#6h"},
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

func TestIntegerOverflowWidensToBignum(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "9223372036854775807 2 *")
	ref := ctx.RT.Top()
	if TypeOf(ctx, ref) != IDBignum {
		t.Fatalf("tag = %v, want bignum", TypeOf(ctx, ref))
	}
	if got := Render(ctx, ref); got != "18446744073709551614" {
		t.Errorf("got %q", got)
	}
}

func TestBignumRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "123456789012345678901234567890")
	ref := ctx.RT.Top()
	if TypeOf(ctx, ref) != IDBignum {
		t.Fatalf("tag = %v", TypeOf(ctx, ref))
	}
	if got := Render(ctx, ref); got != "123456789012345678901234567890" {
		t.Errorf("got %q", got)
	}
	// bignum + integer auto-widens
	eval(t, ctx, "1 +")
	if got := top(t, ctx); got != "123456789012345678901234567891" {
		t.Errorf("after +1: %q", got)
	}
}

func TestDMSLiteral(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "10°30′0″")
	ref := ctx.RT.Top()
	if TypeOf(ctx, ref) != IDFraction {
		t.Fatalf("tag = %v", TypeOf(ctx, ref))
	}
	if got := Render(ctx, ref); got != "21/2" {
		t.Errorf("got %q, want 21/2", got)
	}
}

func TestFactorialThroughTower(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "25 fact")
	ref := ctx.RT.Top()
	if TypeOf(ctx, ref) != IDBignum {
		t.Fatalf("tag = %v, want bignum", TypeOf(ctx, ref))
	}
	if got := Render(ctx, ref); got != "15511210043330985984000000" {
		t.Errorf("25! = %q", got)
	}
	// Small factorial stays native
	ctx.RT.ClearStack()
	eval(t, ctx, "5 fact")
	if TypeOf(ctx, ctx.RT.Top()) != IDInteger || top(t, ctx) != "120" {
		t.Error("5! should be the integer 120")
	}
}

func TestParseBasedBignum(t *testing.T) {
	ctx := newTestContext(t)
	ref := ParseBased(ctx, "FFFFFFFFFFFFFFFFFFh")
	if ref == runtime.Nil {
		t.Fatal("parse failed")
	}
	if TypeOf(ctx, ref) != IDBasedBignum {
		t.Errorf("tag = %v", TypeOf(ctx, ref))
	}
}
