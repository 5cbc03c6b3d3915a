package object

import (
	"testing"

	"reckon/internal/runtime"
)

func mkpoly(t *testing.T, ctx *Context, src string) runtime.Ref {
	t.Helper()
	expr := ParseExpression(ctx, src)
	if expr == runtime.Nil {
		t.Fatalf("parse %q failed", src)
	}
	p := PolyFromExpression(ctx, expr)
	if p == runtime.Nil {
		t.Fatalf("poly from %q failed: %v", src, ctx.RT.Err())
	}
	return p
}

func TestPolyFromExpression(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct{ src, want string }{
		{"X+1", "X+1"},
		{"X*X", "X²"},
		{"(X+1)*(X-1)", "X²-1"},
		{"X^3-Y^3", "X³-Y³"},
		{"2*X+3*X", "5·X"},
		{"X*Y+Y*X", "2·X·Y"},
		{"-X", "-X"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := mkpoly(t, ctx, tt.src)
			if TypeOf(ctx, p) != IDPolynomial {
				t.Fatalf("tag = %v", TypeOf(ctx, p))
			}
			if got := Render(ctx, p); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPolyRejectsNonPolynomial(t *testing.T) {
	ctx := newTestContext(t)
	for _, src := range []string{"sin(X)", "X^Y", "1/X"} {
		expr := ParseExpression(ctx, src)
		if expr == runtime.Nil {
			t.Fatalf("parse %q failed", src)
		}
		depth := ctx.RT.Depth()
		if out := PolyFromExpression(ctx, expr); out != runtime.Nil {
			t.Errorf("%q should not convert", src)
		}
		ctx.RT.ClearError()
		if ctx.RT.Depth() != depth {
			t.Errorf("%q left stack depth %d, want %d", src, ctx.RT.Depth(), depth)
		}
	}
}

func TestPolyVariablesSorted(t *testing.T) {
	ctx := newTestContext(t)
	p := mkpoly(t, ctx, "B*A")
	pol, ok := decodePoly(ctx, p)
	if !ok {
		t.Fatal("decode failed")
	}
	if len(pol.vars) != 2 || pol.vars[0] != "A" || pol.vars[1] != "B" {
		t.Errorf("vars = %v, want [A B]", pol.vars)
	}
}

func TestPolyArithmetic(t *testing.T) {
	ctx := newTestContext(t)
	a := mkpoly(t, ctx, "X+1")
	ah := ctx.RT.Protect(a)
	b := mkpoly(t, ctx, "X-1")
	a = ah.Ref()
	ah.Close()

	ah = ctx.RT.Protect(a)
	bh := ctx.RT.Protect(b)
	defer ah.Close()
	defer bh.Close()
	sum := polyArith(ctx, IDAdd, ah.Ref(), bh.Ref())
	if got := Render(ctx, sum); got != "2·X" {
		t.Errorf("sum = %q", got)
	}
	prod := polyArith(ctx, IDMul, ah.Ref(), bh.Ref())
	if got := Render(ctx, prod); got != "X²-1" {
		t.Errorf("product = %q", got)
	}
}

func TestPolyQuoremScenario(t *testing.T) {
	ctx := newTestContext(t)
	dividend := mkpoly(t, ctx, "X^3-Y^3")
	dh := ctx.RT.Protect(dividend)
	divisor := mkpoly(t, ctx, "X-Y")
	dividend = dh.Ref()
	dh.Close()

	q, r := PolyQuorem(ctx, dividend, divisor, "X")
	if q == runtime.Nil || r == runtime.Nil {
		t.Fatalf("quorem failed: %v", ctx.RT.Err())
	}
	if got := Render(ctx, q); got != "X²+X·Y+Y²" {
		t.Errorf("quotient = %q", got)
	}
	if got := Render(ctx, r); got != "0" {
		t.Errorf("remainder = %q", got)
	}
}

func TestPolyQuoremProperty(t *testing.T) {
	ctx := newTestContext(t)
	// a = q·b + r must hold
	cases := [][2]string{
		{"X^2+3*X+2", "X+1"},
		{"X^3+1", "X^2-X"},
		{"X^4-1", "X^2+1"},
	}
	for _, c := range cases {
		t.Run(c[0]+" / "+c[1], func(t *testing.T) {
			a := mkpoly(t, ctx, c[0])
			ah := ctx.RT.Protect(a)
			defer ah.Close()
			b := mkpoly(t, ctx, c[1])
			bh := ctx.RT.Protect(b)
			defer bh.Close()

			q, r := PolyQuorem(ctx, ah.Ref(), bh.Ref(), "X")
			if q == runtime.Nil {
				t.Fatalf("quorem failed: %v", ctx.RT.Err())
			}
			qh := ctx.RT.Protect(q)
			defer qh.Close()
			rh := ctx.RT.Protect(r)
			defer rh.Close()

			qb := polyArith(ctx, IDMul, qh.Ref(), bh.Ref())
			qbh := ctx.RT.Protect(qb)
			defer qbh.Close()
			back := polyArith(ctx, IDAdd, qbh.Ref(), rh.Ref())
			if !sameObject(ctx, back, ah.Ref()) {
				t.Errorf("a != q*b + r: %q vs %q",
					Render(ctx, back), Render(ctx, ah.Ref()))
			}
		})
	}
}

func TestPolyDegreeReduction(t *testing.T) {
	ctx := newTestContext(t)
	a := mkpoly(t, ctx, "X^2+1")
	ah := ctx.RT.Protect(a)
	b := mkpoly(t, ctx, "X+1")
	a = ah.Ref()
	ah.Close()
	_, r := PolyQuorem(ctx, a, b, "X")
	pol, ok := decodePoly(ctx, r)
	if !ok {
		t.Fatal("decode failed")
	}
	// deg(r) < deg(b) in X
	for _, term := range pol.terms {
		if len(term.exps) > 0 && term.exps[0] >= 1 {
			t.Errorf("remainder degree too high: %q", Render(ctx, r))
		}
	}
}
