package object

import (
	"testing"

	"reckon/internal/runtime"
)

func TestExpressionParseRenderRoundTrip(t *testing.T) {
	ctx := newTestContext(t)
	// Sources whose canonical rendering equals the input
	sources := []string{
		"X+1",
		"X+Y*Z",
		"(X+Y)*Z",
		"X-(Y-Z)",
		"X^2-2",
		"2*X^3",
		"-X+1",
		"sin(X)",
		"X!",
		"X²+X",
		"xroot(X;3)",
		"X mod 3",
		"X/(Y*Z)",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			ref := ParseExpression(ctx, src)
			if ref == runtime.Nil {
				t.Fatalf("parse failed: %v", ctx.RT.Err())
			}
			if TypeOf(ctx, ref) != IDExpression {
				t.Fatalf("tag = %v", TypeOf(ctx, ref))
			}
			if got := exprInfix(ctx, ref); got != src {
				t.Errorf("round trip %q -> %q", src, got)
			}
		})
	}
}

func TestExpressionPrecedence(t *testing.T) {
	ctx := newTestContext(t)
	// Parsing drops redundant parentheses
	tests := []struct{ src, want string }{
		{"X+(Y*Z)", "X+Y*Z"},
		{"(X*Y)+Z", "X*Y+Z"},
		{"((X))", "X"},
		{"X^(Y^Z)", "X^Y^Z"}, // power is right-associative
	}
	for _, tt := range tests {
		ref := ParseExpression(ctx, tt.src)
		if ref == runtime.Nil {
			t.Fatalf("parse %q failed", tt.src)
		}
		got := exprInfix(ctx, ref)
		if TypeOf(ctx, ref) == IDSymbol {
			got = Render(ctx, ref)
		}
		if got != tt.want {
			t.Errorf("%q -> %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestExpressionEvaluation(t *testing.T) {
	ctx := newTestContext(t)
	// Unbound name: stays symbolic
	eval(t, ctx, "'X+1'")
	ref := ctx.RT.Pop()
	if err := Evaluate(ctx, ref); err != nil {
		t.Fatal(err)
	}
	if got := top(t, ctx); got != "'X+1'" {
		t.Errorf("unbound evaluation = %q", got)
	}

	// Bind X and evaluate numerically
	ctx.RT.ClearStack()
	eval(t, ctx, "41 'X' sto 'X+1'")
	ref = ctx.RT.Pop()
	if err := Evaluate(ctx, ref); err != nil {
		t.Fatal(err)
	}
	if got := top(t, ctx); got != "42" {
		t.Errorf("bound evaluation = %q", got)
	}
}

func TestExpressionStackRewindOnError(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "1 2 3")
	depth := ctx.RT.Depth()
	// An expression with a domain error deep inside
	ref := ParseExpression(ctx, "ln(0-1)-asin(2)")
	if ref == runtime.Nil {
		t.Fatal("parse failed")
	}
	if err := Evaluate(ctx, ref); err == nil {
		t.Fatal("expected evaluation error")
	}
	if ctx.RT.Depth() != depth {
		t.Errorf("stack depth %d after error, want %d", ctx.RT.Depth(), depth)
	}
}

func TestConstantEvaluation(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "pi")
	d, ok := decValue(ctx, ctx.RT.Top())
	if !ok {
		t.Fatal("pi should evaluate to a decimal")
	}
	within(t, d, ctx.Pi(), 20)
}

func TestComplexLiterals(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, "(3;4)")
	ref := ctx.RT.Top()
	if TypeOf(ctx, ref) != IDRectangular {
		t.Fatalf("tag = %v", TypeOf(ctx, ref))
	}
	if got := Render(ctx, ref); got != "(3;4)" {
		t.Errorf("render = %q", got)
	}
	ctx.RT.ClearStack()
	eval(t, ctx, "(1∡0.5)")
	if TypeOf(ctx, ctx.RT.Top()) != IDPolar {
		t.Fatalf("polar tag = %v", TypeOf(ctx, ctx.RT.Top()))
	}
}
