// internal/object/unit.go
package object

import (
	"math/big"

	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// A unit object pairs a value with a unit expression built from unit
// symbols and the multiplicative operators. The constructor flattens
// nested units so the value part is never itself a unit.

// dims is the vector of SI base dimensions: m, kg, s, A, K, mol, cd.
type dims [7]int

func (d dims) add(o dims) dims {
	for i := range d {
		d[i] += o[i]
	}
	return d
}

func (d dims) sub(o dims) dims {
	for i := range d {
		d[i] -= o[i]
	}
	return d
}

func (d dims) scale(n int) dims {
	for i := range d {
		d[i] *= n
	}
	return d
}

// uval is a unit-expression value: a conversion factor to SI base
// units and the dimension vector.
type uval struct {
	factor *big.Rat
	dim    dims
}

// unitTable maps unit atoms to their SI definition. External unit
// files extend this at startup; the built-in set covers the SI base
// and the common derived and customary units.
var unitTable = map[string]uval{}

func defUnit(name string, num, den int64, dim dims) {
	unitTable[name] = uval{factor: big.NewRat(num, den), dim: dim}
}

func init() {
	mDim := dims{1, 0, 0, 0, 0, 0, 0}
	kgDim := dims{0, 1, 0, 0, 0, 0, 0}
	sDim := dims{0, 0, 1, 0, 0, 0, 0}

	defUnit("m", 1, 1, mDim)
	defUnit("km", 1000, 1, mDim)
	defUnit("dm", 1, 10, mDim)
	defUnit("cm", 1, 100, mDim)
	defUnit("mm", 1, 1000, mDim)
	defUnit("µm", 1, 1000000, mDim)
	defUnit("in", 254, 10000, mDim)
	defUnit("ft", 3048, 10000, mDim)
	defUnit("yd", 9144, 10000, mDim)
	defUnit("mi", 1609344, 1000, mDim)

	defUnit("kg", 1, 1, kgDim)
	defUnit("g", 1, 1000, kgDim)
	defUnit("mg", 1, 1000000, kgDim)
	defUnit("t", 1000, 1, kgDim)
	defUnit("lb", 45359237, 100000000, kgDim)
	defUnit("oz", 45359237, 1600000000, kgDim)

	defUnit("s", 1, 1, sDim)
	defUnit("min", 60, 1, sDim)
	defUnit("h", 3600, 1, sDim)
	defUnit("d", 86400, 1, sDim)

	defUnit("A", 1, 1, dims{0, 0, 0, 1, 0, 0, 0})
	defUnit("K", 1, 1, dims{0, 0, 0, 0, 1, 0, 0})
	defUnit("mol", 1, 1, dims{0, 0, 0, 0, 0, 1, 0})
	defUnit("cd", 1, 1, dims{0, 0, 0, 0, 0, 0, 1})

	defUnit("Hz", 1, 1, dims{0, 0, -1, 0, 0, 0, 0})
	defUnit("N", 1, 1, dims{1, 1, -2, 0, 0, 0, 0})
	defUnit("J", 1, 1, dims{2, 1, -2, 0, 0, 0, 0})
	defUnit("W", 1, 1, dims{2, 1, -3, 0, 0, 0, 0})
	defUnit("Pa", 1, 1, dims{-1, 1, -2, 0, 0, 0, 0})

	defUnit("L", 1, 1000, dims{3, 0, 0, 0, 0, 0, 0})
	defUnit("mL", 1, 1000000, dims{3, 0, 0, 0, 0, 0, 0})
}

// NewUnit builds a unit object. A unit value flattens: its own unit
// expression is multiplied into the outer one.
func NewUnit(ctx *Context, value, uexpr runtime.Ref) runtime.Ref {
	if TypeOf(ctx, value) == IDUnit {
		iv, iu := pairParts(ctx, value)
		g := guard(ctx, &iv, &uexpr)
		combined := exprBinary(ctx, IDMul, iu, uexpr)
		g()
		if combined == runtime.Nil {
			return runtime.Nil
		}
		return NewUnit(ctx, iv, combined)
	}
	return newPair(ctx, IDUnit, value, uexpr)
}

// unitParts returns the value and unit-expression components.
func unitParts(ctx *Context, ref runtime.Ref) (runtime.Ref, runtime.Ref) {
	return pairParts(ctx, ref)
}

// uexprValue folds a unit expression to its conversion factor and
// dimension vector by walking the postfix items.
func uexprValue(ctx *Context, ref runtime.Ref) (uval, bool) {
	one := uval{factor: big.NewRat(1, 1)}
	if TypeOf(ctx, ref) == IDSymbol {
		name, _ := TextValue(ctx, ref)
		uv, ok := unitTable[name]
		return uv, ok
	}
	if TypeOf(ctx, ref) != IDExpression {
		// A bare numeric scale
		if r, ok := ratOf(ctx, ref); ok {
			return uval{factor: r}, true
		}
		return one, false
	}
	var stack []uval
	okAll := true
	forEachChild(ctx, ref, func(c runtime.Ref) bool {
		id := TypeOf(ctx, c)
		switch {
		case id == IDSymbol:
			name, _ := TextValue(ctx, c)
			uv, ok := unitTable[name]
			if !ok {
				okAll = false
				return false
			}
			stack = append(stack, uv)
		case isReal(id):
			r, ok := ratOf(ctx, c)
			if !ok {
				okAll = false
				return false
			}
			stack = append(stack, uval{factor: r})
		case id == IDMul, id == IDDiv, id == IDPow:
			if len(stack) < 2 {
				okAll = false
				return false
			}
			y := stack[len(stack)-1]
			x := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			switch id {
			case IDMul:
				stack = append(stack, uval{
					factor: new(big.Rat).Mul(x.factor, y.factor),
					dim:    x.dim.add(y.dim),
				})
			case IDDiv:
				if y.factor.Sign() == 0 {
					okAll = false
					return false
				}
				stack = append(stack, uval{
					factor: new(big.Rat).Quo(x.factor, y.factor),
					dim:    x.dim.sub(y.dim),
				})
			case IDPow:
				if !y.factor.IsInt() {
					okAll = false
					return false
				}
				n := int(y.factor.Num().Int64())
				f := new(big.Rat).SetInt64(1)
				base := x.factor
				e := n
				if e < 0 {
					if base.Sign() == 0 {
						okAll = false
						return false
					}
					base = new(big.Rat).Inv(base)
					e = -e
				}
				for i := 0; i < e; i++ {
					f.Mul(f, base)
				}
				stack = append(stack, uval{factor: f, dim: x.dim.scale(n)})
			}
		default:
			okAll = false
			return false
		}
		return true
	})
	if !okAll || len(stack) != 1 {
		return one, false
	}
	return stack[0], true
}

// Convert rewrites a unit value to express it in target's unit.
func Convert(ctx *Context, value, target runtime.Ref) runtime.Ref {
	if TypeOf(ctx, value) != IDUnit || TypeOf(ctx, target) != IDUnit {
		return ctx.raise(errors.TypeError)
	}
	vref, vu := unitParts(ctx, value)
	_, tu := unitParts(ctx, target)
	from, ok1 := uexprValue(ctx, vu)
	to, ok2 := uexprValue(ctx, tu)
	if !ok1 || !ok2 {
		return ctx.raise(errors.InconsistentUnitsError)
	}
	if from.dim != to.dim {
		return ctx.raise(errors.InconsistentUnitsError)
	}
	v, ok := decPromote(ctx, vref)
	if !ok {
		return ctx.raise(errors.TypeError)
	}
	p := prec(ctx) + 4
	ratio := new(big.Rat).Quo(from.factor, to.factor)
	scaled := dMul(v, dDiv(dFromBig(ratio.Num()), dFromBig(ratio.Denom()), p), p)
	tuh := ctx.RT.Protect(tu)
	out := NewDecimal(ctx, dRound(scaled, prec(ctx)))
	tu = tuh.Ref()
	tuh.Close()
	if out == runtime.Nil {
		return runtime.Nil
	}
	return NewUnit(ctx, out, tu)
}

// Simple collapses a unit whose expression reduces to a dimensionless
// constant into a plain numeric.
func Simple(ctx *Context, ref runtime.Ref) runtime.Ref {
	if TypeOf(ctx, ref) != IDUnit {
		return ref
	}
	vref, uref := unitParts(ctx, ref)
	uv, ok := uexprValue(ctx, uref)
	if !ok || uv.dim != (dims{}) {
		return ref
	}
	v, okv := decPromote(ctx, vref)
	if !okv {
		return ref
	}
	p := prec(ctx) + 4
	scaled := dMul(v, dDiv(dFromBig(uv.factor.Num()), dFromBig(uv.factor.Denom()), p), p)
	return NewDecimal(ctx, dRound(scaled, prec(ctx)))
}

// renderUnit writes "value_unit".
func renderUnit(ctx *Context, ref runtime.Ref, r *Renderer) {
	v, u := unitParts(ctx, ref)
	RenderTo(ctx, v, r)
	r.PutByte('_')
	if TypeOf(ctx, u) == IDExpression {
		r.PutString(exprInfix(ctx, u))
	} else {
		RenderTo(ctx, u, r)
	}
}
