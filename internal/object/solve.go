// internal/object/solve.go
package object

import (
	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// One-dimensional numerical root finder. The secant iteration keeps
// the best and second-best (x, y) pairs seen so far; evaluation
// failures jitter the probe point; convergence is either a small
// residual or a vanishing relative gap.

// Root solves eq for the named variable starting from guess, and
// returns the solution tagged with the variable name.
func Root(ctx *Context, eq, name, guess runtime.Ref) runtime.Ref {
	rt := ctx.RT

	varName, ok := storeName(ctx, name)
	if !ok {
		return ctx.raise(errors.TypeError)
	}

	eqid := TypeOf(ctx, eq)
	if eqid != IDExpression && eqid != IDProgram && eqid != IDPolynomial {
		return ctx.raise(errors.InvalidEquationError)
	}
	if eqid == IDExpression {
		eq = asDifference(ctx, eq)
		if eq == runtime.Nil {
			return runtime.Nil
		}
	}

	// Extract the starting points from the guess.
	var lo, hi crect
	var haveHi bool
	switch TypeOf(ctx, guess) {
	case IDList, IDArray:
		kids := childList(ctx, guess)
		if len(kids) != 2 {
			return ctx.raise(errors.BadGuessError)
		}
		v1, ok1 := anyToCrect(ctx, kids[0])
		v2, ok2 := anyToCrect(ctx, kids[1])
		if !ok1 || !ok2 {
			return ctx.raise(errors.BadGuessError)
		}
		lo, hi = v1, v2
		haveHi = true
	default:
		v, okv := anyToCrect(ctx, guess)
		if !okv {
			return ctx.raise(errors.BadGuessError)
		}
		lo = v
	}
	if !haveHi {
		// Second probe slightly off the first.
		hi = perturb(ctx, lo, 3)
	}

	// Inner evaluations run numeric, without stack decoration.
	restoreNum := ctx.Cfg.SaveNumericalResults(true)
	defer restoreNum()
	restoreSimp := ctx.Cfg.SaveAutoSimplify(false)
	defer restoreSimp()
	savedNoSave := ctx.NoSave
	ctx.NoSave = true
	defer func() { ctx.NoSave = savedNoSave }()

	eqh := rt.Protect(eq)
	defer eqh.Close()

	p := prec(ctx) + 4
	epsDigits := ctx.Cfg.SolverPrecision
	if epsDigits <= 0 {
		epsDigits = 12
	}
	eps := dnum{m: bigOne, k: -epsDigits}
	maxIter := ctx.Cfg.SolverIterations
	if maxIter <= 0 {
		maxIter = 100
	}

	eval := func(x crect) (crect, bool) {
		xref := makeComplexResult(ctx, x)
		if xref == runtime.Nil {
			rt.ClearError()
			return crect{}, false
		}
		rt.Store(varName, xref)
		depth := rt.Depth()
		if err := Evaluate(ctx, eqh.Ref()); err != nil {
			rt.ClearError()
			if d := rt.Depth() - depth; d > 0 {
				rt.Drop(d)
			}
			return crect{}, false
		}
		if rt.Depth() <= depth {
			return crect{}, false
		}
		out := rt.Pop()
		y, oky := anyToCrect(ctx, out)
		if !oky || !y.re.finite() || !y.im.finite() {
			return crect{}, false
		}
		return y, true
	}

	jitterSeed := uint64(0x2545F4914F6CDD1D)
	jitter := func(x crect, round int) crect {
		jitterSeed ^= jitterSeed << 13
		jitterSeed ^= jitterSeed >> 7
		jitterSeed ^= jitterSeed << 17
		k := int64(jitterSeed%17) - 8
		if k == 0 {
			k = 3
		}
		return perturb(ctx, x, k*int64(round+1))
	}

	ly, okl := eval(lo)
	for r := 0; !okl && r < 5; r++ {
		lo = jitter(lo, r)
		ly, okl = eval(lo)
	}
	hy, okh := eval(hi)
	for r := 0; !okh && r < 5; r++ {
		hi = jitter(hi, r)
		hy, okh = eval(hi)
	}
	if !okl || !okh {
		return ctx.raise(errors.BadGuessError)
	}

	// Keep lo as the best point seen.
	if dCmp(cAbs(ctx, hy, p), cAbs(ctx, ly, p)) < 0 {
		lo, hi = hi, lo
		ly, hy = hy, ly
	}

	sameCount := 0
	for iter := 0; iter < maxIter; iter++ {
		if rt.Interrupted() {
			return ctx.raise(errors.InterruptedError)
		}
		if dCmp(cAbs(ctx, ly, p), eps) < 0 {
			return tagResult(ctx, varName, lo)
		}
		// Relative gap |hx-lx| / (|hx|+|lx|)
		gap := cAbs(ctx, cSub(hi, lo, p), p)
		den := dAdd(cAbs(ctx, hi, p), cAbs(ctx, lo, p), p)
		// A single guess has no gap of its own: its second probe is a
		// nudge, so the gap test waits for the first secant step.
		if (haveHi || iter > 0) && !den.isZero() && dCmp(dDiv(gap, den, p), eps) < 0 {
			if sameSignReal(ly, hy) {
				return ctx.raise(errors.NoSolutionError)
			}
			return tagResult(ctx, varName, lo)
		}

		dy := cSub(hy, ly, p)
		if dy.re.isZero() && dy.im.isZero() {
			sameCount++
			if sameCount > 3 {
				return ctx.raise(errors.ConstantValueError)
			}
			hi = jitter(hi, iter)
			var okj bool
			hy, okj = eval(hi)
			if !okj {
				return ctx.raise(errors.NoSolutionError)
			}
			continue
		}

		// Secant step: x = lx - ly (hx - lx) / (hy - ly)
		num := cMul(ly, cSub(hi, lo, p), p)
		step, okd := cDiv(num, dy, p)
		if !okd {
			return ctx.raise(errors.NoSolutionError)
		}
		x := cSub(lo, step, p)
		y, oke := eval(x)
		for r := 0; !oke && r < 5; r++ {
			x = jitter(x, r)
			y, oke = eval(x)
		}
		if !oke {
			return ctx.raise(errors.NoSolutionError)
		}

		// Update the best/second-best pairs.
		if dCmp(cAbs(ctx, y, p), cAbs(ctx, ly, p)) < 0 {
			hi, hy = lo, ly
			lo, ly = x, y
		} else {
			hi, hy = x, y
		}
	}
	return ctx.raise(errors.NoSolutionError)
}

// perturb nudges a point: x + x·eps·k, as a polar perturbation when
// the point is complex.
func perturb(ctx *Context, x crect, k int64) crect {
	p := prec(ctx) + 4
	step := dnum{m: bigOne, k: -(prec(ctx) / 2)}
	factor := dAdd(dOne(), dMul(step, dFromInt64(k), p), p)
	if x.re.isZero() && x.im.isZero() {
		return crect{re: dMul(step, dFromInt64(k), p), im: dZero()}
	}
	if x.im.isZero() {
		return crect{re: dMul(x.re, factor, p), im: dZero()}
	}
	// Polar: scale the modulus, shear the argument a little.
	return cMul(x, crect{re: factor, im: dMul(step, dFromInt64(k), p)}, p)
}

// sameSignReal reports whether two real residuals share a sign.
func sameSignReal(a, b crect) bool {
	if !a.im.isZero() || !b.im.isZero() {
		return false
	}
	return a.re.neg == b.re.neg
}

// tagResult wraps the solution in a tag named after the variable.
func tagResult(ctx *Context, name string, x crect) runtime.Ref {
	xref := makeComplexResult(ctx, x)
	if xref == runtime.Nil {
		return runtime.Nil
	}
	return NewTag(ctx, name, xref)
}

// asDifference rewrites an equation expression lhs = rhs into the
// difference lhs - rhs the solver drives to zero.
func asDifference(ctx *Context, eq runtime.Ref) runtime.Ref {
	body, ok := sizedBytes(ctx, eq)
	if !ok || len(body) == 0 {
		return ctx.raise(errors.InvalidEquationError)
	}
	// Find the last postfix item.
	off, last := 0, 0
	for off < len(body) {
		sz := sizeAt(body[off:], 0)
		if sz <= 0 {
			return ctx.raise(errors.InvalidEquationError)
		}
		last = off
		off += sz
	}
	v, n := runtime.ULEB(body[last:])
	if n > 0 && ID(v) == IDEq {
		out := make([]byte, last)
		copy(out, body[:last])
		out = runtime.AppendULEB(out, uint64(IDSub))
		return newSized(ctx, IDExpression, out)
	}
	return eq
}
