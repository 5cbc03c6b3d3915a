// internal/object/polynomial.go
package object

import (
	"math/big"
	"sort"
	"strings"

	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// Dense multivariate polynomials: after the length header come the
// variable count, the sorted variable names, and the terms, each a
// coefficient object followed by one LEB128 exponent per variable.
// Terms are kept in decreasing lexicographic order of exponents and
// zero coefficients are dropped.

// pcoef is a working coefficient: exact rational when rat is set,
// decimal otherwise, complex when z is set.
type pcoef struct {
	rat *big.Rat
	d   dnum
	z   *crect
}

func coefInt(v int64) pcoef {
	return pcoef{rat: new(big.Rat).SetInt64(v)}
}

func (c pcoef) isZero() bool {
	if c.z != nil {
		return c.z.re.isZero() && c.z.im.isZero()
	}
	if c.rat != nil {
		return c.rat.Sign() == 0
	}
	return c.d.isZero()
}

func (c pcoef) toCrect(p int) crect {
	if c.z != nil {
		return *c.z
	}
	if c.rat != nil {
		return crect{re: ratToDnum(c.rat, p), im: dZero()}
	}
	return crect{re: c.d, im: dZero()}
}

func ratToDnum(r *big.Rat, p int) dnum {
	return dDiv(dFromBig(r.Num()), dFromBig(r.Denom()), p)
}

func coefAdd(ctx *Context, a, b pcoef) pcoef {
	p := prec(ctx) + 4
	if a.rat != nil && b.rat != nil {
		return pcoef{rat: new(big.Rat).Add(a.rat, b.rat)}
	}
	if a.z != nil || b.z != nil {
		z := cAdd(a.toCrect(p), b.toCrect(p), p)
		return pcoef{z: &z}
	}
	return pcoef{d: dAdd(a.toCrect(p).re, b.toCrect(p).re, p)}
}

func coefMul(ctx *Context, a, b pcoef) pcoef {
	p := prec(ctx) + 4
	if a.rat != nil && b.rat != nil {
		return pcoef{rat: new(big.Rat).Mul(a.rat, b.rat)}
	}
	if a.z != nil || b.z != nil {
		z := cMul(a.toCrect(p), b.toCrect(p), p)
		return pcoef{z: &z}
	}
	return pcoef{d: dMul(a.toCrect(p).re, b.toCrect(p).re, p)}
}

func coefNeg(c pcoef) pcoef {
	if c.rat != nil {
		return pcoef{rat: new(big.Rat).Neg(c.rat)}
	}
	if c.z != nil {
		z := cNeg(*c.z)
		return pcoef{z: &z}
	}
	return pcoef{d: dNeg(c.d)}
}

func coefDiv(ctx *Context, a, b pcoef) (pcoef, bool) {
	p := prec(ctx) + 4
	if b.isZero() {
		return pcoef{}, false
	}
	if a.rat != nil && b.rat != nil {
		return pcoef{rat: new(big.Rat).Quo(a.rat, b.rat)}, true
	}
	if a.z != nil || b.z != nil {
		z, ok := cDiv(a.toCrect(p), b.toCrect(p), p)
		if !ok {
			return pcoef{}, false
		}
		return pcoef{z: &z}, true
	}
	return pcoef{d: dDiv(a.toCrect(p).re, b.toCrect(p).re, p)}, true
}

// encode publishes the coefficient as an object.
func (c pcoef) encode(ctx *Context) runtime.Ref {
	if c.z != nil {
		return makeComplexResult(ctx, *c.z)
	}
	if c.rat != nil {
		return makeRatResult(ctx, c.rat)
	}
	return NewDecimal(ctx, dRound(c.d, prec(ctx)))
}

type pterm struct {
	coef pcoef
	exps []uint64
}

type poly struct {
	vars  []string
	terms []pterm
}

// expCmp orders exponent vectors lexicographically.
func expCmp(a, b []uint64) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// normalize sorts terms in decreasing order, merges equal exponent
// vectors and drops zero coefficients.
func (p *poly) normalize(ctx *Context) {
	sort.SliceStable(p.terms, func(i, j int) bool {
		return expCmp(p.terms[i].exps, p.terms[j].exps) > 0
	})
	out := p.terms[:0]
	for _, t := range p.terms {
		if len(out) > 0 && expCmp(out[len(out)-1].exps, t.exps) == 0 {
			out[len(out)-1].coef = coefAdd(ctx, out[len(out)-1].coef, t.coef)
			continue
		}
		out = append(out, t)
	}
	kept := out[:0]
	for _, t := range out {
		if !t.coef.isZero() {
			kept = append(kept, t)
		}
	}
	p.terms = kept
}

// mergeVars returns the union variable list and remaps both operands.
func mergeVars(ctx *Context, a, b poly) (poly, poly) {
	set := map[string]bool{}
	for _, v := range a.vars {
		set[v] = true
	}
	for _, v := range b.vars {
		set[v] = true
	}
	vars := make([]string, 0, len(set))
	for v := range set {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return remapPoly(a, vars), remapPoly(b, vars)
}

func remapPoly(p poly, vars []string) poly {
	idx := make([]int, len(p.vars))
	for i, v := range p.vars {
		idx[i] = sort.SearchStrings(vars, v)
	}
	out := poly{vars: vars}
	for _, t := range p.terms {
		exps := make([]uint64, len(vars))
		for i, e := range t.exps {
			exps[idx[i]] = e
		}
		out.terms = append(out.terms, pterm{coef: t.coef, exps: exps})
	}
	return out
}

func polyAddP(ctx *Context, a, b poly, negate bool) poly {
	a, b = mergeVars(ctx, a, b)
	out := poly{vars: a.vars}
	out.terms = append(out.terms, a.terms...)
	for _, t := range b.terms {
		c := t.coef
		if negate {
			c = coefNeg(c)
		}
		out.terms = append(out.terms, pterm{coef: c, exps: t.exps})
	}
	out.normalize(ctx)
	return out
}

func polyMulP(ctx *Context, a, b poly) poly {
	a, b = mergeVars(ctx, a, b)
	out := poly{vars: a.vars}
	for _, ta := range a.terms {
		for _, tb := range b.terms {
			exps := make([]uint64, len(a.vars))
			for i := range exps {
				exps[i] = ta.exps[i] + tb.exps[i]
			}
			out.terms = append(out.terms, pterm{
				coef: coefMul(ctx, ta.coef, tb.coef),
				exps: exps,
			})
		}
	}
	out.normalize(ctx)
	return out
}

func polyNegP(p poly) poly {
	out := poly{vars: p.vars}
	for _, t := range p.terms {
		out.terms = append(out.terms, pterm{coef: coefNeg(t.coef), exps: t.exps})
	}
	return out
}

func polyPowP(ctx *Context, p poly, n uint64) poly {
	result := poly{terms: []pterm{{coef: coefInt(1)}}}
	sq := p
	for n != 0 {
		if n&1 == 1 {
			result = polyMulP(ctx, result, sq)
		}
		n >>= 1
		if n != 0 {
			sq = polyMulP(ctx, sq, sq)
		}
	}
	return result
}

// ====================================================================
//
//   Encoding
//
// ====================================================================

// encodePoly publishes the canonical polynomial object.
func encodePoly(ctx *Context, p poly) runtime.Ref {
	p.normalize(ctx)
	var body []byte
	body = runtime.AppendULEB(body, uint64(len(p.vars)))
	for _, v := range p.vars {
		body = runtime.AppendULEB(body, uint64(len(v)))
		body = append(body, v...)
	}
	for _, t := range p.terms {
		cref := t.coef.encode(ctx)
		if cref == runtime.Nil {
			return runtime.Nil
		}
		cb := ctx.RT.At(cref)
		sz := sizeAt(cb, 0)
		body = append(body, cb[:sz]...)
		for _, e := range t.exps {
			body = runtime.AppendULEB(body, e)
		}
	}
	return newSized(ctx, IDPolynomial, body)
}

// decodePoly reads a polynomial object into working form.
func decodePoly(ctx *Context, ref runtime.Ref) (poly, bool) {
	if TypeOf(ctx, ref) != IDPolynomial {
		return poly{}, false
	}
	body, ok := sizedBytes(ctx, ref)
	if !ok {
		return poly{}, false
	}
	nv, n := runtime.ULEB(body)
	if n == 0 {
		return poly{}, false
	}
	off := n
	out := poly{}
	for i := uint64(0); i < nv; i++ {
		l, m := runtime.ULEB(body[off:])
		if m == 0 || off+m+int(l) > len(body) {
			return poly{}, false
		}
		out.vars = append(out.vars, string(body[off+m:off+m+int(l)]))
		off += m + int(l)
	}
	_, lenSize := runtime.ULEB(payload(ctx, ref))
	headerLen := runtime.ULEBSkip(ctx.RT.At(ref)) + lenSize
	for off < len(body) {
		sz := sizeAt(body[off:], 0)
		if sz <= 0 {
			return poly{}, false
		}
		cref := ref + runtime.Ref(headerLen+off)
		c, okc := decodeCoef(ctx, cref)
		if !okc {
			return poly{}, false
		}
		off += sz
		exps := make([]uint64, len(out.vars))
		for i := range exps {
			e, m := runtime.ULEB(body[off:])
			if m == 0 {
				return poly{}, false
			}
			exps[i] = e
			off += m
		}
		out.terms = append(out.terms, pterm{coef: c, exps: exps})
	}
	return out, true
}

func decodeCoef(ctx *Context, ref runtime.Ref) (pcoef, bool) {
	id := TypeOf(ctx, ref)
	switch {
	case isComplex(id):
		z, ok := complexValue(ctx, ref)
		if !ok {
			return pcoef{}, false
		}
		return pcoef{z: &z}, true
	case isInteger(id) || isBignum(id) || isFraction(id):
		r, ok := ratOf(ctx, ref)
		if !ok {
			return pcoef{}, false
		}
		return pcoef{rat: r}, true
	case isDecimal(id) || isHwFp(id):
		d, ok := decPromote(ctx, ref)
		if !ok {
			return pcoef{}, false
		}
		return pcoef{d: d}, true
	}
	return pcoef{}, false
}

// ====================================================================
//
//   Construction from expressions
//
// ====================================================================

// PolyFromExpression converts an expression to a polynomial by walking
// the postfix items, building intermediate polynomials on the runtime
// stack. Only the polynomial operator set is accepted.
func PolyFromExpression(ctx *Context, ref runtime.Ref) runtime.Ref {
	switch TypeOf(ctx, ref) {
	case IDPolynomial:
		return ref
	case IDSymbol:
		name, _ := TextValue(ctx, ref)
		return encodePoly(ctx, varPoly(name))
	case IDExpression:
	default:
		if c, ok := decodeCoef(ctx, ref); ok {
			return encodePoly(ctx, poly{terms: []pterm{{coef: c}}})
		}
		return ctx.raise(errors.InvalidPolynomialError)
	}

	rt := ctx.RT
	depth := rt.Depth()
	failed := false
	pushP := func(p poly) bool {
		out := encodePoly(ctx, p)
		if out == runtime.Nil || !rt.Push(out) {
			failed = true
			return false
		}
		return true
	}
	popP := func() (poly, bool) {
		top := rt.Pop()
		if top == runtime.Nil {
			failed = true
			return poly{}, false
		}
		p, ok := decodePoly(ctx, top)
		if !ok {
			failed = true
		}
		return p, ok
	}

	// Walk by offset under a handle: pushing intermediates allocates
	// and can move the expression.
	h := rt.Protect(ref)
	defer h.Close()
	body, okb := sizedBytes(ctx, ref)
	if !okb {
		return ctx.raise(errors.InvalidPolynomialError)
	}
	_, lenSize := runtime.ULEB(payload(ctx, ref))
	headerLen := runtime.ULEBSkip(rt.At(ref)) + lenSize
	end := headerLen + len(body)

	step :=func(c runtime.Ref) bool {
		id := TypeOf(ctx, c)
		switch {
		case id == IDSymbol:
			name, _ := TextValue(ctx, c)
			return pushP(varPoly(name))
		case isReal(id) || isComplex(id):
			coef, ok := decodeCoef(ctx, c)
			if !ok {
				failed = true
				return false
			}
			return pushP(poly{terms: []pterm{{coef: coef}}})
		case id == IDAdd, id == IDSub, id == IDMul:
			b, okb := popP()
			if !okb {
				return false
			}
			a, oka := popP()
			if !oka {
				return false
			}
			switch id {
			case IDAdd:
				return pushP(polyAddP(ctx, a, b, false))
			case IDSub:
				return pushP(polyAddP(ctx, a, b, true))
			default:
				return pushP(polyMulP(ctx, a, b))
			}
		case id == IDNeg:
			a, ok := popP()
			if !ok {
				return false
			}
			return pushP(polyNegP(a))
		case id == IDSq:
			a, ok := popP()
			if !ok {
				return false
			}
			return pushP(polyMulP(ctx, a, a))
		case id == IDCubed:
			a, ok := popP()
			if !ok {
				return false
			}
			return pushP(polyMulP(ctx, polyMulP(ctx, a, a), a))
		case id == IDPow:
			b, okb := popP()
			if !okb {
				return false
			}
			a, oka := popP()
			if !oka {
				return false
			}
			if len(b.vars) != 0 || len(b.terms) != 1 || b.terms[0].coef.rat == nil ||
				!b.terms[0].coef.rat.IsInt() || b.terms[0].coef.rat.Sign() < 0 {
				failed = true
				return false
			}
			return pushP(polyPowP(ctx, a, b.terms[0].coef.rat.Num().Uint64()))
		default:
			failed = true
			return false
		}
	}
	for off := headerLen; off < end; {
		c := h.Ref() + runtime.Ref(off)
		sz := SizeOf(ctx, c)
		if sz <= 0 {
			failed = true
			break
		}
		off += sz
		if !step(c) {
			break
		}
	}

	if failed || rt.Depth() != depth+1 {
		if d := rt.Depth() - depth; d > 0 {
			rt.Drop(d)
		}
		return ctx.raise(errors.InvalidPolynomialError)
	}
	return rt.Pop()
}

func varPoly(name string) poly {
	return poly{
		vars:  []string{name},
		terms: []pterm{{coef: coefInt(1), exps: []uint64{1}}},
	}
}

// polyArith handles +, -, *, ^ when a polynomial operand is involved.
// It returns Nil without error when the pair is not polynomial
// material, letting the caller fall back to symbolic deferral.
func polyArith(ctx *Context, op ID, x, y runtime.Ref) runtime.Ref {
	convertible := func(ref runtime.Ref) bool {
		id := TypeOf(ctx, ref)
		return id == IDPolynomial || id == IDSymbol || isReal(id) || isComplex(id)
	}
	if !convertible(x) || !convertible(y) {
		return runtime.Nil
	}
	switch op {
	case IDAdd, IDSub, IDMul:
		xh := ctx.RT.Protect(x)
		yh := ctx.RT.Protect(y)
		a, oka := toPoly(ctx, xh.Ref())
		b, okb := toPoly(ctx, yh.Ref())
		xh.Close()
		yh.Close()
		if !oka || !okb {
			return runtime.Nil
		}
		switch op {
		case IDAdd:
			return encodePoly(ctx, polyAddP(ctx, a, b, false))
		case IDSub:
			return encodePoly(ctx, polyAddP(ctx, a, b, true))
		default:
			return encodePoly(ctx, polyMulP(ctx, a, b))
		}
	case IDPow:
		n, ok := IntegerValue(ctx, y)
		if !ok || n < 0 || n > 1<<12 {
			return runtime.Nil
		}
		a, oka := toPoly(ctx, x)
		if !oka {
			return runtime.Nil
		}
		return encodePoly(ctx, polyPowP(ctx, a, uint64(n)))
	}
	return runtime.Nil
}

func toPoly(ctx *Context, ref runtime.Ref) (poly, bool) {
	id := TypeOf(ctx, ref)
	switch {
	case id == IDPolynomial:
		return decodePoly(ctx, ref)
	case id == IDSymbol:
		name, _ := TextValue(ctx, ref)
		return varPoly(name), true
	default:
		c, ok := decodeCoef(ctx, ref)
		if !ok {
			return poly{}, false
		}
		return poly{terms: []pterm{{coef: c}}}, true
	}
}

// ====================================================================
//
//   Euclidean division
//
// ====================================================================

// PolyQuorem divides a by b with respect to the main variable,
// returning quotient and remainder with a = q·b + r and the remainder
// of smaller degree in the main variable.
func PolyQuorem(ctx *Context, aref, bref runtime.Ref, mainVar string) (runtime.Ref, runtime.Ref) {
	ah := ctx.RT.Protect(aref)
	bh := ctx.RT.Protect(bref)
	defer ah.Close()
	defer bh.Close()
	a, oka := toPoly(ctx, ah.Ref())
	b, okb := toPoly(ctx, bh.Ref())
	if !oka || !okb || len(b.terms) == 0 {
		ctx.raise(errors.InvalidPolynomialError)
		return runtime.Nil, runtime.Nil
	}
	a, b = mergeVars(ctx, a, b)
	main := sort.SearchStrings(a.vars, mainVar)
	if main >= len(a.vars) || a.vars[main] != mainVar {
		ctx.raise(errors.ValueError)
		return runtime.Nil, runtime.Nil
	}

	// Reorder the lex comparison so the main variable leads.
	lexMain := func(t pterm) []uint64 {
		key := make([]uint64, 0, len(t.exps))
		key = append(key, t.exps[main])
		for i, e := range t.exps {
			if i != main {
				key = append(key, e)
			}
		}
		return key
	}
	leading := func(p poly) pterm {
		lead := p.terms[0]
		lk := lexMain(lead)
		for _, t := range p.terms[1:] {
			tk := lexMain(t)
			if expCmp(tk, lk) > 0 {
				lead, lk = t, tk
			}
		}
		return lead
	}
	degree := func(p poly) int {
		deg := -1
		for _, t := range p.terms {
			if int(t.exps[main]) > deg {
				deg = int(t.exps[main])
			}
		}
		return deg
	}

	quo := poly{vars: a.vars}
	rem := a
	bLead := leading(b)
	bDeg := degree(b)
	for len(rem.terms) > 0 && degree(rem) >= bDeg {
		if ctx.RT.Interrupted() {
			ctx.raise(errors.InterruptedError)
			return runtime.Nil, runtime.Nil
		}
		rLead := leading(rem)
		// The leading monomial must be divisible.
		exps := make([]uint64, len(a.vars))
		divisible := true
		for i := range exps {
			if rLead.exps[i] < bLead.exps[i] {
				divisible = false
				break
			}
			exps[i] = rLead.exps[i] - bLead.exps[i]
		}
		if !divisible {
			break
		}
		c, ok := coefDiv(ctx, rLead.coef, bLead.coef)
		if !ok {
			ctx.raise(errors.ZeroDivideError)
			return runtime.Nil, runtime.Nil
		}
		qt := poly{vars: a.vars, terms: []pterm{{coef: c, exps: exps}}}
		quo = polyAddP(ctx, quo, qt, false)
		rem = polyAddP(ctx, rem, polyMulP(ctx, qt, b), true)
	}

	qref := encodePoly(ctx, quo)
	if qref == runtime.Nil {
		return runtime.Nil, runtime.Nil
	}
	qh := ctx.RT.Protect(qref)
	rref := encodePoly(ctx, rem)
	qref = qh.Ref()
	qh.Close()
	if rref == runtime.Nil {
		return runtime.Nil, runtime.Nil
	}
	return qref, rref
}

// ====================================================================
//
//   Rendering
//
// ====================================================================

// renderPolynomial writes the expanded sum-of-terms form.
func renderPolynomial(ctx *Context, ref runtime.Ref, r *Renderer) {
	p, ok := decodePoly(ctx, ref)
	if !ok {
		r.PutString("?")
		return
	}
	if len(p.terms) == 0 {
		r.PutByte('0')
		return
	}
	for i, t := range p.terms {
		neg := false
		c := t.coef
		if c.rat != nil && c.rat.Sign() < 0 {
			neg = true
			c = coefNeg(c)
		} else if c.rat == nil && c.z == nil && c.d.neg {
			neg = true
			c = coefNeg(c)
		}
		if i > 0 {
			if neg {
				r.PutByte('-')
			} else {
				r.PutByte('+')
			}
		} else if neg {
			r.PutByte('-')
		}
		r.PutString(renderTerm(ctx, c, t.exps, p.vars))
	}
}

func renderTerm(ctx *Context, c pcoef, exps []uint64, vars []string) string {
	var parts []string
	one := c.rat != nil && c.rat.Cmp(big.NewRat(1, 1)) == 0
	anyVar := false
	for _, e := range exps {
		if e != 0 {
			anyVar = true
		}
	}
	if !one || !anyVar {
		cref := c.encode(ctx)
		parts = append(parts, Render(ctx, cref))
	}
	for i, e := range exps {
		if e == 0 {
			continue
		}
		v := vars[i]
		switch e {
		case 1:
			parts = append(parts, v)
		case 2:
			parts = append(parts, v+"²")
		case 3:
			parts = append(parts, v+"³")
		default:
			parts = append(parts, v+"^"+new(big.Int).SetUint64(e).Text(10))
		}
	}
	return strings.Join(parts, "·")
}
