// internal/object/compare.go
package object

import (
	"strings"

	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// Ordered comparison across the tower. Exact operands compare exactly
// through rationals; anything else goes through the decimal form.
// Text compares lexicographically. Complex values only support
// equality.

// Cmp returns -1, 0 or 1; ordered reports whether the operands are
// comparable at all.
func Cmp(ctx *Context, x, y runtime.Ref) (int, bool) {
	xid, yid := TypeOf(ctx, x), TypeOf(ctx, y)
	if xid == IDText && yid == IDText {
		xs, _ := TextValue(ctx, x)
		ys, _ := TextValue(ctx, y)
		return strings.Compare(xs, ys), true
	}
	if isComplex(xid) || isComplex(yid) {
		return 0, false
	}
	if !isReal(xid) || !isReal(yid) {
		return 0, false
	}
	// Exact path
	xr, xok := ratOf(ctx, x)
	yr, yok := ratOf(ctx, y)
	if xok && yok {
		return xr.Cmp(yr), true
	}
	xd, xok := decPromote(ctx, x)
	yd, yok := decPromote(ctx, y)
	if !xok || !yok {
		return 0, false
	}
	if xd.isNaN() || yd.isNaN() {
		return 0, false
	}
	return dCmp(xd, yd), true
}

// Equal tests numeric or textual equality.
func Equal(ctx *Context, x, y runtime.Ref) (bool, bool) {
	xid, yid := TypeOf(ctx, x), TypeOf(ctx, y)
	if isComplex(xid) || isComplex(yid) {
		xz, xok := anyToCrect(ctx, x)
		yz, yok := anyToCrect(ctx, y)
		if !xok || !yok {
			return false, false
		}
		return dCmp(xz.re, yz.re) == 0 && dCmp(xz.im, yz.im) == 0, true
	}
	if c, ok := Cmp(ctx, x, y); ok {
		return c == 0, true
	}
	// Structural equality for everything else
	return sameObject(ctx, x, y), true
}

// evalCompare executes a comparison command against the stack.
func evalCompare(ctx *Context, op ID) error {
	y := ctx.RT.Pop()
	x := ctx.RT.Pop()
	if x == runtime.Nil || y == runtime.Nil {
		return ctx.RT.Err()
	}
	// Symbolic operands defer like arithmetic does.
	if isSymbolic(TypeOf(ctx, x)) || isSymbolic(TypeOf(ctx, y)) {
		out := exprBinary(ctx, op, x, y)
		if out == runtime.Nil || !ctx.RT.Push(out) {
			return ctx.RT.Err()
		}
		return nil
	}
	var truth bool
	switch op {
	case IDSame:
		truth = sameObject(ctx, x, y)
	case IDEq, IDNe:
		eq, ok := Equal(ctx, x, y)
		if !ok {
			ctx.raise(errors.TypeError)
			return ctx.RT.Err()
		}
		truth = eq == (op == IDEq)
	default:
		c, ok := Cmp(ctx, x, y)
		if !ok {
			ctx.raise(errors.TypeError)
			return ctx.RT.Err()
		}
		switch op {
		case IDLt:
			truth = c < 0
		case IDLe:
			truth = c <= 0
		case IDGt:
			truth = c > 0
		case IDGe:
			truth = c >= 0
		}
	}
	out := Static(IDFalse)
	if truth {
		out = Static(IDTrue)
	}
	if !ctx.RT.Push(out) {
		return ctx.RT.Err()
	}
	return nil
}
