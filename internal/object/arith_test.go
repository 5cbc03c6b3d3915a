package object

import (
	"errors"
	"testing"

	kerrors "reckon/internal/errors"
)

func TestTowerPromotion(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src  string
		id   ID
		want string
	}{
		{"2 3 +", IDInteger, "5"},
		{"2 3 -", IDNegInteger, "-1"},
		{"9223372036854775807 1 +", IDBignum, "9223372036854775808"},
		{"1 3 /", IDFraction, "1/3"},
		{"1 2 / 1 2 / +", IDInteger, "1"},
		{"1.5 2 +", IDDecimal, "3.5"},
		{"1 2 / 0.5 +", IDDecimal, "1."},
		{"2 10 ^", IDInteger, "1024"},
		{"2 100 ^", IDBignum, ""},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			ctx.RT.ClearStack()
			eval(t, ctx, tt.src)
			ref := ctx.RT.Top()
			if TypeOf(ctx, ref) != tt.id {
				t.Errorf("tag = %v, want %v", TypeOf(ctx, ref), tt.id)
			}
			if tt.want != "" {
				if got := Render(ctx, ref); got != tt.want {
					t.Errorf("got %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	ctx := newTestContext(t)
	err := EvalLine(ctx, "0 0 /")
	if err == nil {
		t.Fatal("0/0 should fail by default")
	}
	var ke *kerrors.KernelError
	if !errors.As(err, &ke) || ke.Code != kerrors.ZeroDivideError {
		t.Errorf("error = %v", err)
	}

	// With the 0/0-undefined setting, the result is a quiet NaN.
	ctx.RT.ClearError()
	ctx.RT.ClearStack()
	ctx.Cfg.ZeroOverZeroUndefined = true
	eval(t, ctx, "0 0 /")
	d, ok := decValue(ctx, ctx.RT.Top())
	if !ok || !d.isNaN() {
		t.Error("0/0 should be NaN under the setting")
	}

	// Non-zero over zero is a signed infinity.
	ctx.RT.ClearStack()
	eval(t, ctx, "1 0 /")
	d, _ = decValue(ctx, ctx.RT.Top())
	if d.cls != clsInf || d.neg {
		t.Error("1/0 should be +infinity")
	}
	ctx.RT.ClearStack()
	eval(t, ctx, "1 neg 0 /")
	d, _ = decValue(ctx, ctx.RT.Top())
	if d.cls != clsInf || !d.neg {
		t.Error("-1/0 should be -infinity")
	}
}

func TestZeroPowerZero(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "0 0 ^")
	if got := top(t, ctx); got != "1" {
		t.Errorf("0^0 = %q by default", got)
	}
	ctx.RT.ClearStack()
	ctx.Cfg.ZeroPowerZeroUndefined = true
	eval(t, ctx, "0 0 ^")
	d, ok := decValue(ctx, ctx.RT.Top())
	if !ok || !d.isNaN() {
		t.Error("0^0 should be NaN under the setting")
	}
}

func TestPowRules(t *testing.T) {
	ctx := newTestContext(t)
	ctx.RT.ClearStack()
	eval(t, ctx, "2 3 neg ^")
	if got := top(t, ctx); got != "1/8" {
		t.Errorf("2^-3 = %q", got)
	}
	ctx.RT.ClearStack()
	eval(t, ctx, "4 0.5 ^")
	d, _ := decValue(ctx, ctx.RT.Top())
	within(t, d, dFromInt64(2), 20)

	// negative base, non-integer exponent yields a complex result
	ctx.RT.ClearStack()
	eval(t, ctx, "4 neg 0.5 ^")
	if TypeOf(ctx, ctx.RT.Top()) != IDRectangular {
		t.Errorf("(-4)^0.5 tag = %v", TypeOf(ctx, ctx.RT.Top()))
	}

	// xroot: level 2 is the radicand
	ctx.RT.ClearStack()
	eval(t, ctx, "8 3 xroot")
	d, _ = decValue(ctx, ctx.RT.Top())
	within(t, d, dFromInt64(2), 20)
	ctx.RT.ClearStack()
	eval(t, ctx, "8 neg 3 xroot")
	d, _ = decValue(ctx, ctx.RT.Top())
	within(t, d, dFromInt64(-2), 20)
}

func TestTextConcatenation(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, `"foo" "bar" +`)
	if got := top(t, ctx); got != `"foobar"` {
		t.Errorf("got %q", got)
	}
	ctx.RT.ClearStack()
	eval(t, ctx, `"n=" 42 +`)
	if got := top(t, ctx); got != `"n=42"` {
		t.Errorf("got %q", got)
	}
}

func TestListConcatAndArrayElementwise(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "{ 1 2 } { 3 } +")
	if got := top(t, ctx); got != "{ 1 2 3 }" {
		t.Errorf("list concat = %q", got)
	}
	ctx.RT.ClearStack()
	eval(t, ctx, "[ 1 2 3 ] [ 10 20 30 ] +")
	if got := top(t, ctx); got != "[ 11 22 33 ]" {
		t.Errorf("array add = %q", got)
	}
	ctx.RT.ClearStack()
	eval(t, ctx, "[ 1 2 3 ] 2 *")
	if got := top(t, ctx); got != "[ 2 4 6 ]" {
		t.Errorf("array scale = %q", got)
	}
	if err := EvalLine(ctx, "[ 1 2 ] [ 1 ] +"); err == nil {
		t.Error("length mismatch should fail")
	}
}

func TestSymbolicDeferral(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "'X' 1 +")
	if got := top(t, ctx); got != "'X+1'" {
		t.Errorf("got %q", got)
	}
	ctx.RT.ClearStack()
	eval(t, ctx, "'X' 2 ^")
	if got := top(t, ctx); got != "'X^2'" {
		t.Errorf("got %q", got)
	}
}

func TestAutoSimplification(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src, want string
	}{
		{"0 'X' +", "X"},
		{"'X' 0 +", "X"},
		{"'X' 'X' -", "0"},
		{"0 'X' -", "'-X'"},
		{"0 'X' *", "0"},
		{"1 'X' *", "X"},
		{"'X' 1 /", "X"},
		{"'X' 'X' /", "1"},
		{"'X' 0 ^", "1"},
		{"'X' 1 ^", "X"},
		{"'X' 'X' *", "'X²'"},
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
	// With auto-simplify off the expression is kept.
	ctx.Cfg.AutoSimplify = false
	ctx.RT.ClearStack()
	eval(t, ctx, "0 'X' +")
	if got := top(t, ctx); got != "'0+X'" {
		t.Errorf("unsimplified = %q", got)
	}
}

func TestModRemSigns(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src, want string
	}{
		{"10 3 mod", "1"},
		{"10 neg 3 mod", "2"},
		{"10 3 neg mod", "-2"},
		{"10 3 rem", "1"},
		{"10 neg 3 rem", "-1"},
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
