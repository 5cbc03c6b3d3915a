package object

import (
	"math/big"
	"testing"
)

// dn builds a working decimal from a literal for test comparisons.
func dn(t *testing.T, text string) dnum {
	t.Helper()
	d, ok := parseDnum(text)
	if !ok {
		t.Fatalf("bad literal %q", text)
	}
	return d
}

// within asserts |got - want| < 10^-digits (absolute for small values,
// relative otherwise).
func within(t *testing.T, got, want dnum, digits int) {
	t.Helper()
	p := 40
	diff := dAbs(dSub(got, want, p))
	bound := dnum{m: big.NewInt(1), k: -digits}
	if !want.isZero() && want.e10() > 1 {
		bound = dMul(bound, dAbs(want), p)
	}
	if dCmp(diff, bound) > 0 {
		t.Errorf("got %v×10^%d, want %v×10^%d (±1e-%d)",
			got.m, got.k, want.m, want.k, digits)
	}
}

func TestDecimalWireRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	literals := []string{
		"0", "1", "0.1", "-0.1", "123.456", "1e100", "-2.5e-30",
		"999", "1000", "0.001", "3.14159265358979323846",
	}
	for _, lit := range literals {
		t.Run(lit, func(t *testing.T) {
			want := dn(t, lit)
			ref := NewDecimal(ctx, want)
			got, ok := decValue(ctx, ref)
			if !ok {
				t.Fatal("decode failed")
			}
			if dCmp(got, want) != 0 {
				t.Errorf("round trip changed the value")
			}
			if want.neg && !want.isZero() && TypeOf(ctx, ref) != IDNegDecimal {
				t.Error("sign must live in the tag")
			}
		})
	}
}

func TestDecimalNormalization(t *testing.T) {
	ctx := newTestContext(t)
	// Leading zero kigits are absent: 0.001 stores as 1×1000^-1
	ref := ParseDecimal(ctx, "0.001")
	d, _ := decValue(ctx, ref)
	if d.m.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("mantissa = %v, want 1", d.m)
	}
	// Zero is canonical: positive tag, no kigits
	zref := ParseDecimal(ctx, "0")
	if TypeOf(ctx, zref) != IDDecimal {
		t.Error("zero must have the positive tag")
	}
	if SizeOf(ctx, zref) != 3 { // tag, exponent 0, count 0
		t.Errorf("canonical zero size = %d", SizeOf(ctx, zref))
	}
}

func TestDecimalPrecisionRounding(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Cfg.Precision = 5
	// 1/3 at 5 digits
	eval(t, ctx, "1 3 / todec")
	d, _ := decValue(ctx, ctx.RT.Top())
	within(t, d, dn(t, "0.33333"), 5)
	if dDigits(d.m) > 5 {
		t.Errorf("mantissa digits = %d, want <= 5", dDigits(d.m))
	}
}

func TestRoundHalfEven(t *testing.T) {
	tests := []struct {
		in   string
		p    int
		want string
	}{
		{"2.5", 1, "2"},
		{"3.5", 1, "4"},
		{"2.451", 2, "2.5"},
		{"2.449", 2, "2.4"},
		{"1.25", 2, "1.2"},
		{"1.35", 2, "1.4"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := dRound(dn(t, tt.in), tt.p)
			if dCmp(got, dn(t, tt.want)) != 0 {
				t.Errorf("round(%s, %d): got %v×10^%d, want %s",
					tt.in, tt.p, got.m, got.k, tt.want)
			}
		})
	}
}

func TestDecimalArithmetic(t *testing.T) {
	p := 24
	tests := []struct {
		a, b string
		op   func(a, b dnum) dnum
		want string
	}{
		{"1.5", "2.25", func(a, b dnum) dnum { return dAdd(a, b, p) }, "3.75"},
		{"1", "3", func(a, b dnum) dnum { return dDiv(a, b, p) }, "0.333333333333333333333333"},
		{"1.5", "-2", func(a, b dnum) dnum { return dMul(a, b, p) }, "-3"},
		{"10", "3", func(a, b dnum) dnum { return dModRem(a, b, true, p) }, "1"},
		{"-10", "3", func(a, b dnum) dnum { return dModRem(a, b, true, p) }, "2"},
		{"-10", "3", func(a, b dnum) dnum { return dModRem(a, b, false, p) }, "-1"},
	}
	for _, tt := range tests {
		got := tt.op(dn(t, tt.a), dn(t, tt.b))
		within(t, got, dn(t, tt.want), p-2)
	}
}

func TestDecimalExponentOverflow(t *testing.T) {
	ctx := newTestContext(t)
	// Beyond 1000^499 the encoder reports infinity.
	huge := dnum{m: big.NewInt(1), k: 3 * 600}
	ref := NewDecimal(ctx, huge)
	d, _ := decValue(ctx, ref)
	if d.cls != clsInf {
		t.Error("overflow should produce infinity")
	}
	tiny := dnum{m: big.NewInt(1), k: -3 * 600}
	ref = NewDecimal(ctx, tiny)
	d, _ = decValue(ctx, ref)
	if !d.isZero() {
		t.Error("underflow should produce zero")
	}
}

func TestDecimalClasses(t *testing.T) {
	ctx := newTestContext(t)
	inf := NewDecimal(ctx, dInf(false))
	d, _ := decValue(ctx, inf)
	if d.cls != clsInf || d.neg {
		t.Error("infinity round trip")
	}
	ninf := NewDecimal(ctx, dInf(true))
	d, _ = decValue(ctx, ninf)
	if d.cls != clsInf || !d.neg {
		t.Error("negative infinity round trip")
	}
	nan := NewDecimal(ctx, dNaN())
	d, _ = decValue(ctx, nan)
	if !d.isNaN() {
		t.Error("NaN round trip")
	}
}

func TestKigitPacking(t *testing.T) {
	kigs := []uint16{1, 999, 0, 500, 42}
	packed := packKigits(kigs)
	if len(packed) != (len(kigs)*10+7)/8 {
		t.Fatalf("packed length = %d", len(packed))
	}
	got := unpackKigits(packed, len(kigs))
	for i := range kigs {
		if got[i] != kigs[i] {
			t.Errorf("kigit %d: %d != %d", i, got[i], kigs[i])
		}
	}
}

func TestDecimalRendering(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		lit  string
		want string
	}{
		{"0.1", "0.1"},
		{"123.456", "123.456"},
		{"-0.25", "-0.25"},
		{"1e40", "1E40"}, // falls out of the plain window
	}
	for _, tt := range tests {
		ref := ParseDecimal(ctx, tt.lit)
		if got := Render(ctx, ref); got != tt.want {
			t.Errorf("render %q = %q, want %q", tt.lit, got, tt.want)
		}
	}
}

func TestToFractionScenario(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Cfg.Precision = 34
	ref := ParseDecimal(ctx, "0.1")
	out := ToFraction(ctx, ref, 10, 12)
	if got := Render(ctx, out); got != "1/10" {
		t.Errorf("to_fraction(0.1) = %q, want 1/10", got)
	}
	// A fraction recovered from a computed decimal
	ctx.RT.ClearStack()
	eval(t, ctx, "2 3 / todec tofrac")
	if got := top(t, ctx); got != "2/3" {
		t.Errorf("recovered = %q, want 2/3", got)
	}
}

func TestFractionDecimalRecovery(t *testing.T) {
	ctx := newTestContext(t)
	// fraction(a, b) -> decimal(prec) -> fraction recovers a/b when
	// prec >= log10(b) + 2
	pairs := [][2]int64{{1, 7}, {22, 7}, {355, 113}, {-8, 3}}
	for _, pr := range pairs {
		fr := NewFraction(ctx, big.NewInt(pr[0]), big.NewInt(pr[1]))
		d, ok := decPromote(ctx, fr)
		if !ok {
			t.Fatal("promote failed")
		}
		dref := NewDecimal(ctx, d)
		out := ToFraction(ctx, dref, 64, 12)
		want := Render(ctx, NewFraction(ctx, big.NewInt(pr[0]), big.NewInt(pr[1])))
		oh := ctx.RT.Protect(out)
		got := Render(ctx, oh.Ref())
		oh.Close()
		if got != want {
			t.Errorf("%d/%d recovered as %q", pr[0], pr[1], got)
		}
	}
}
