package object

import (
	"errors"
	"testing"

	kerrors "reckon/internal/errors"
	"reckon/internal/runtime"
)

// solveFor runs the root finder and returns the untagged solution as a
// working decimal.
func solveFor(t *testing.T, ctx *Context, eqSrc, varName, guessSrc string) dnum {
	t.Helper()
	eq := ParseExpression(ctx, eqSrc)
	if eq == runtime.Nil {
		t.Fatalf("parse %q failed", eqSrc)
	}
	eh := ctx.RT.Protect(eq)
	name := NewSymbol(ctx, varName)
	nh := ctx.RT.Protect(name)
	if err := EvalLine(ctx, guessSrc); err != nil {
		t.Fatalf("guess %q: %v", guessSrc, err)
	}
	guess := ctx.RT.Pop()
	out := Root(ctx, eh.Ref(), nh.Ref(), guess)
	eh.Close()
	nh.Close()
	if out == runtime.Nil {
		t.Fatalf("solve %q: %v", eqSrc, ctx.RT.Err())
	}
	label, inner, ok := tagParts(ctx, out)
	if !ok || label != varName {
		t.Fatalf("result should be tagged %q, got %v", varName, TypeOf(ctx, out))
	}
	d, okd := decPromote(ctx, inner)
	if !okd {
		t.Fatalf("result not numeric: %v", TypeOf(ctx, inner))
	}
	return d
}

func TestSolveSquareRootOfTwo(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Cfg.SolverIterations = 50
	ctx.Cfg.SolverPrecision = 9

	x := solveFor(t, ctx, "X^2-2", "X", "1.0")
	// |x² - 2| < 1e-9
	resid := dAbs(dSub(dMul(x, x, 30), dFromInt64(2), 30))
	if dCmp(resid, dnum{m: bigOne, k: -9}) >= 0 {
		t.Errorf("residual too large: %v×10^%d", resid.m, resid.k)
	}
}

func TestSolveLinear(t *testing.T) {
	ctx := newTestContext(t)
	x := solveFor(t, ctx, "3*X-12", "X", "1")
	within(t, x, dFromInt64(4), 9)
}

func TestSolveWithEquation(t *testing.T) {
	ctx := newTestContext(t)
	// lhs = rhs forms are solved as lhs - rhs
	x := solveFor(t, ctx, "X^2==9", "X", "2")
	within(t, x, dFromInt64(3), 8)
}

func TestSolveBracketingGuess(t *testing.T) {
	ctx := newTestContext(t)
	eq := ParseExpression(ctx, "X^2-2")
	eh := ctx.RT.Protect(eq)
	name := NewSymbol(ctx, "X")
	nh := ctx.RT.Protect(name)
	eval(t, ctx, "{ 1 2 }")
	guess := ctx.RT.Pop()
	out := Root(ctx, eh.Ref(), nh.Ref(), guess)
	eh.Close()
	nh.Close()
	if out == runtime.Nil {
		t.Fatalf("solve failed: %v", ctx.RT.Err())
	}
	_, inner, _ := tagParts(ctx, out)
	x, _ := decPromote(ctx, inner)
	resid := dAbs(dSub(dMul(x, x, 30), dFromInt64(2), 30))
	if dCmp(resid, dnum{m: bigOne, k: -8}) >= 0 {
		t.Error("bracketing guess did not converge")
	}
}

func TestSolveConstantValue(t *testing.T) {
	ctx := newTestContext(t)
	eq := ParseExpression(ctx, "0*X+5")
	eh := ctx.RT.Protect(eq)
	name := NewSymbol(ctx, "X")
	nh := ctx.RT.Protect(name)
	guess := NewDecimal(ctx, dOne())
	out := Root(ctx, eh.Ref(), nh.Ref(), guess)
	eh.Close()
	nh.Close()
	if out != runtime.Nil {
		t.Fatal("constant equation should not solve")
	}
	var ke *kerrors.KernelError
	if !errors.As(ctx.RT.Err(), &ke) {
		t.Fatalf("error = %v", ctx.RT.Err())
	}
	if ke.Code != kerrors.ConstantValueError && ke.Code != kerrors.NoSolutionError {
		t.Errorf("code = %v", ke.Code)
	}
}

func TestSolveNoRealRoot(t *testing.T) {
	ctx := newTestContext(t)
	eq := ParseExpression(ctx, "X^2+1")
	eh := ctx.RT.Protect(eq)
	name := NewSymbol(ctx, "X")
	nh := ctx.RT.Protect(name)
	guess := NewDecimal(ctx, dOne())
	out := Root(ctx, eh.Ref(), nh.Ref(), guess)
	eh.Close()
	nh.Close()
	if out != runtime.Nil {
		// The secant may wander; if it claims success the residual
		// must actually be small.
		_, inner, _ := tagParts(ctx, out)
		x, _ := decPromote(ctx, inner)
		resid := dAdd(dMul(x, x, 30), dOne(), 30)
		if dCmp(dAbs(resid), dnum{m: bigOne, k: -6}) >= 0 {
			t.Error("claimed a root with a large residual")
		}
		return
	}
	var ke *kerrors.KernelError
	if !errors.As(ctx.RT.Err(), &ke) || ke.Code != kerrors.NoSolutionError {
		t.Errorf("error = %v", ctx.RT.Err())
	}
}

func TestSolveRestoresSettings(t *testing.T) {
	ctx := newTestContext(t)
	ctx.Cfg.NumericalResults = false
	ctx.Cfg.AutoSimplify = true
	solveFor(t, ctx, "X-7", "X", "1")
	if ctx.Cfg.NumericalResults || !ctx.Cfg.AutoSimplify || ctx.NoSave {
		t.Error("solver must restore the ambient flags")
	}
}
