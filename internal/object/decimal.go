// internal/object/decimal.go
package object

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"reckon/internal/errors"
	"reckon/internal/runtime"
	"reckon/internal/settings"
)

// Variable-precision decimals are stored in base 1000: a signed LEB128
// exponent, a kigit count, then packed 10-bit kigits, each 0-999,
// most significant first. The value is ±0.K × 1000^exp. Kigit values
// at or above 1000 tag the non-finite classes.
//
// Internally the mantissa is carried as ±m × 10^k with m a big.Int,
// which the base-1000 wire form converts to and from exactly.

const (
	kigNaN  = 1000
	kigSNaN = 1001
	kigQNaN = 1002
	kigInf  = 1003
)

type dclass int

const (
	clsFinite dclass = iota
	clsInf
	clsNaN
	clsSNaN
	clsQNaN
)

// dnum is the working form of a decimal: value = ±m × 10^k.
type dnum struct {
	cls dclass
	neg bool
	m   *big.Int // magnitude, never negative
	k   int
}

var (
	bigOne = big.NewInt(1)
	bigTen = big.NewInt(10)
)

func dZero() dnum         { return dnum{m: new(big.Int)} }
func dInf(neg bool) dnum  { return dnum{cls: clsInf, neg: neg, m: new(big.Int)} }
func dNaN() dnum          { return dnum{cls: clsNaN, m: new(big.Int)} }
func dOne() dnum          { return dnum{m: big.NewInt(1)} }
func dFromInt64(v int64) dnum {
	neg := v < 0
	if neg {
		v = -v
	}
	return dnum{neg: neg, m: big.NewInt(v)}
}

func dFromBig(v *big.Int) dnum {
	return dnum{neg: v.Sign() < 0, m: new(big.Int).Abs(v)}
}

func (d dnum) isZero() bool {
	return d.cls == clsFinite && d.m.Sign() == 0
}

func (d dnum) finite() bool {
	return d.cls == clsFinite
}

func (d dnum) isNaN() bool {
	return d.cls == clsNaN || d.cls == clsSNaN || d.cls == clsQNaN
}

// dDigits returns the number of decimal digits in the mantissa.
func dDigits(m *big.Int) int {
	if m.Sign() == 0 {
		return 0
	}
	return len(m.Text(10))
}

// e10 returns the base-10 exponent of the value: the position of the
// decimal point counted from the first mantissa digit.
func (d dnum) e10() int {
	return dDigits(d.m) + d.k
}

// pow10 caches small powers of ten.
var pow10cache = map[int]*big.Int{}

func pow10(n int) *big.Int {
	if n < 0 {
		n = 0
	}
	if p, ok := pow10cache[n]; ok {
		return p
	}
	p := new(big.Int).Exp(bigTen, big.NewInt(int64(n)), nil)
	if n <= 512 {
		pow10cache[n] = p
	}
	return p
}

// prec returns the working precision in decimal digits.
func prec(ctx *Context) int {
	p := ctx.Cfg.Precision
	if p < 3 {
		p = 3
	}
	return p
}

// dRound rounds d to at most p significant digits, half to even.
func dRound(d dnum, p int) dnum {
	if d.cls != clsFinite || d.m.Sign() == 0 {
		return d
	}
	for {
		dd := dDigits(d.m)
		if dd <= p {
			return d
		}
		drop := dd - p
		pw := pow10(drop)
		q, r := new(big.Int).QuoRem(d.m, pw, new(big.Int))
		half := new(big.Int).Rsh(pw, 1)
		switch r.Cmp(half) {
		case 1:
			q.Add(q, bigOne)
		case 0:
			if q.Bit(0) == 1 {
				q.Add(q, bigOne)
			}
		}
		d = dnum{neg: d.neg, m: q, k: d.k + drop}
		// A carry (999.. -> 1000..) can push the digit count back
		// above p; loop until stable.
		if dDigits(d.m) <= p {
			return d
		}
	}
}

// dNorm strips trailing zeros from the mantissa and canonicalizes zero.
func dNorm(d dnum) dnum {
	if d.cls != clsFinite {
		return d
	}
	if d.m.Sign() == 0 {
		return dZero()
	}
	m := new(big.Int).Set(d.m)
	r := new(big.Int)
	q := new(big.Int)
	for {
		q.QuoRem(m, bigTen, r)
		if r.Sign() != 0 {
			break
		}
		m.Set(q)
		d.k++
	}
	d.m = m
	return d
}

// ====================================================================
//
//   Arithmetic
//
// ====================================================================

// dAddSub adds or subtracts aligned magnitudes with sign handling.
func dAddSub(a, b dnum, sub bool, p int) dnum {
	if a.isNaN() || b.isNaN() {
		return dNaN()
	}
	bneg := b.neg != sub
	if a.cls == clsInf || b.cls == clsInf {
		if a.cls == clsInf && b.cls == clsInf {
			if a.neg == bneg {
				return dInf(a.neg)
			}
			return dNaN()
		}
		if a.cls == clsInf {
			return dInf(a.neg)
		}
		return dInf(bneg)
	}
	if a.isZero() {
		return dnum{neg: bneg, m: new(big.Int).Set(b.m), k: b.k}
	}
	if b.isZero() {
		return a
	}
	// When the operands are too far apart the smaller one vanishes
	// below the precision; avoid building gigantic aligned mantissas.
	guard := p + 4
	if a.e10()-b.e10() > guard+dDigits(a.m) {
		return a
	}
	if b.e10()-a.e10() > guard+dDigits(b.m) {
		return dnum{neg: bneg, m: new(big.Int).Set(b.m), k: b.k}
	}
	k := a.k
	if b.k < k {
		k = b.k
	}
	am := new(big.Int).Mul(a.m, pow10(a.k-k))
	bm := new(big.Int).Mul(b.m, pow10(b.k-k))
	if a.neg {
		am.Neg(am)
	}
	if bneg {
		bm.Neg(bm)
	}
	am.Add(am, bm)
	return dnum{neg: am.Sign() < 0, m: am.Abs(am), k: k}
}

func dAdd(a, b dnum, p int) dnum { return dRound(dNorm(dAddSub(a, b, false, p)), p) }
func dSub(a, b dnum, p int) dnum { return dRound(dNorm(dAddSub(a, b, true, p)), p) }

func dMul(a, b dnum, p int) dnum {
	if a.isNaN() || b.isNaN() {
		return dNaN()
	}
	if a.cls == clsInf || b.cls == clsInf {
		if a.isZero() || b.isZero() {
			return dNaN()
		}
		return dInf(a.neg != b.neg)
	}
	m := new(big.Int).Mul(a.m, b.m)
	return dRound(dNorm(dnum{neg: a.neg != b.neg, m: m, k: a.k + b.k}), p)
}

// dDiv divides to p digits. Division by zero yields an infinity of the
// numerator's sign; 0/0 yields NaN — the dispatch layer decides how to
// surface either.
func dDiv(a, b dnum, p int) dnum {
	if a.isNaN() || b.isNaN() {
		return dNaN()
	}
	if b.isZero() {
		if a.isZero() {
			return dNaN()
		}
		return dInf(a.neg != b.neg)
	}
	if a.isZero() {
		return dZero()
	}
	if b.cls == clsInf {
		if a.cls == clsInf {
			return dNaN()
		}
		return dZero()
	}
	if a.cls == clsInf {
		return dInf(a.neg != b.neg)
	}
	scale := p + 4 + dDigits(b.m) - dDigits(a.m)
	if scale < 0 {
		scale = 0
	}
	num := new(big.Int).Mul(a.m, pow10(scale))
	q := num.Quo(num, b.m)
	return dRound(dNorm(dnum{neg: a.neg != b.neg, m: q, k: a.k - b.k - scale}), p)
}

// dCmp compares two finite decimals: -1, 0 or +1.
func dCmp(a, b dnum) int {
	if a.isZero() && b.isZero() {
		return 0
	}
	if a.cls == clsInf || b.cls == clsInf {
		as, bs := infSign(a), infSign(b)
		if as < bs {
			return -1
		}
		if as > bs {
			return 1
		}
		return 0
	}
	if a.neg != b.neg {
		if a.neg {
			return -1
		}
		return 1
	}
	sign := 1
	if a.neg {
		sign = -1
	}
	if a.isZero() {
		return -sign
	}
	if b.isZero() {
		return sign
	}
	if ea, eb := a.e10(), b.e10(); ea != eb {
		if ea < eb {
			return -sign
		}
		return sign
	}
	k := a.k
	if b.k < k {
		k = b.k
	}
	am := new(big.Int).Mul(a.m, pow10(a.k-k))
	bm := new(big.Int).Mul(b.m, pow10(b.k-k))
	return sign * am.Cmp(bm)
}

// infSign orders values on the extended real line for comparisons.
func infSign(d dnum) int {
	if d.cls == clsInf {
		if d.neg {
			return -2
		}
		return 2
	}
	if d.isZero() {
		return 0
	}
	if d.neg {
		return -1
	}
	return 1
}

func dNeg(d dnum) dnum {
	if !d.isZero() {
		d.neg = !d.neg
	}
	return d
}

func dAbs(d dnum) dnum {
	d.neg = false
	return d
}

// signed returns the mantissa as a signed integer (the value scaled
// by 10^-k).
func (d dnum) signed() *big.Int {
	v := new(big.Int).Set(d.m)
	if d.neg {
		v.Neg(v)
	}
	return v
}

// dTrunc returns the integer part, truncated toward zero.
func dTrunc(d dnum) *big.Int {
	if d.cls != clsFinite || d.m.Sign() == 0 {
		return new(big.Int)
	}
	var v *big.Int
	if d.k >= 0 {
		v = new(big.Int).Mul(d.m, pow10(d.k))
	} else {
		v = new(big.Int).Quo(d.m, pow10(-d.k))
	}
	if d.neg {
		v.Neg(v)
	}
	return v
}

// dFloor returns the largest integer not above d.
func dFloor(d dnum) *big.Int {
	t := dTrunc(d)
	if d.neg && !dFromBig(t).equalValue(d) {
		t.Sub(t, bigOne)
	}
	return t
}

// dCeil returns the smallest integer not below d.
func dCeil(d dnum) *big.Int {
	t := dTrunc(d)
	if !d.neg && !dFromBig(t).equalValue(d) {
		t.Add(t, bigOne)
	}
	return t
}

// equalValue compares two finite decimals for numeric equality.
func (d dnum) equalValue(o dnum) bool {
	return dCmp(d, o) == 0
}

// dIsInt reports whether d is an exact integer.
func dIsInt(d dnum) bool {
	if d.cls != clsFinite {
		return false
	}
	if d.k >= 0 || d.m.Sign() == 0 {
		return true
	}
	_, r := new(big.Int).QuoRem(d.m, pow10(-d.k), new(big.Int))
	return r.Sign() == 0
}

// dModRem computes mod (floored, result follows the divisor sign) or
// rem (truncated, result follows the dividend sign).
func dModRem(a, b dnum, floored bool, p int) dnum {
	if a.isNaN() || b.isNaN() || b.isZero() || a.cls == clsInf {
		return dNaN()
	}
	if b.cls == clsInf {
		return a
	}
	k := a.k
	if b.k < k {
		k = b.k
	}
	am := new(big.Int).Mul(a.m, pow10(a.k-k))
	bm := new(big.Int).Mul(b.m, pow10(b.k-k))
	if a.neg {
		am.Neg(am)
	}
	if b.neg {
		bm.Neg(bm)
	}
	q, r := new(big.Int).QuoRem(am, bm, new(big.Int))
	if floored && r.Sign() != 0 && (r.Sign() < 0) != (bm.Sign() < 0) {
		q.Sub(q, bigOne)
		r.Sub(am, new(big.Int).Mul(q, bm))
	}
	return dRound(dNorm(dnum{neg: r.Sign() < 0, m: r.Abs(r), k: k}), p)
}

// ====================================================================
//
//   Wire encoding
//
// ====================================================================

// NewDecimal publishes a decimal object, rounding to the configured
// precision and clamping the exponent to the overflow bound.
func NewDecimal(ctx *Context, d dnum) runtime.Ref {
	p := prec(ctx)
	d = dRound(dNorm(d), p)

	var kigs []uint16
	exp := 0
	id := IDDecimal

	switch d.cls {
	case clsInf:
		kigs = []uint16{kigInf}
		if d.neg {
			id = IDNegDecimal
		}
	case clsNaN:
		kigs = []uint16{kigNaN}
	case clsSNaN:
		kigs = []uint16{kigSNaN}
	case clsQNaN:
		kigs = []uint16{kigQNaN}
	default:
		if d.m.Sign() == 0 {
			break // canonical zero: no kigits, positive tag
		}
		if d.neg {
			id = IDNegDecimal
		}
		digits := d.m.Text(10)
		e10 := len(digits) + d.k
		e3 := floorDiv(e10+2, 3) // ceil(e10 / 3)
		maxExp := ctx.Cfg.MaxDecimalExponent
		if maxExp > 0 {
			if e3 > maxExp {
				return NewDecimal(ctx, dInf(d.neg))
			}
			if e3 < -maxExp {
				return NewDecimal(ctx, dZero())
			}
		}
		lead := 3*e3 - e10
		var sb strings.Builder
		for i := 0; i < lead; i++ {
			sb.WriteByte('0')
		}
		sb.WriteString(digits)
		for sb.Len()%3 != 0 {
			sb.WriteByte('0')
		}
		s := sb.String()
		for i := 0; i < len(s); i += 3 {
			v := uint16(s[i]-'0')*100 + uint16(s[i+1]-'0')*10 + uint16(s[i+2]-'0')
			kigs = append(kigs, v)
		}
		for len(kigs) > 0 && kigs[len(kigs)-1] == 0 {
			kigs = kigs[:len(kigs)-1]
		}
		exp = e3
	}

	b := runtime.AppendULEB(nil, uint64(id))
	b = runtime.AppendSLEB(b, int64(exp))
	b = runtime.AppendULEB(b, uint64(len(kigs)))
	b = append(b, packKigits(kigs)...)
	return ctx.RT.Publish(b)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// packKigits packs 10-bit kigits most significant bit first.
func packKigits(kigs []uint16) []byte {
	out := make([]byte, (len(kigs)*10+7)/8)
	for i, v := range kigs {
		pos := 10 * i
		for j := 0; j < 10; j++ {
			if v&(1<<uint(9-j)) != 0 {
				p := pos + j
				out[p/8] |= 1 << uint(7-p%8)
			}
		}
	}
	return out
}

// unpackKigits reads n 10-bit kigits from the packed stream.
func unpackKigits(b []byte, n int) []uint16 {
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		pos := 10 * i
		var v uint16
		for j := 0; j < 10; j++ {
			p := pos + j
			if p/8 < len(b) && b[p/8]&(1<<uint(7-p%8)) != 0 {
				v |= 1 << uint(9-j)
			}
		}
		out[i] = v
	}
	return out
}

// decValue decodes a decimal object into its working form.
func decValue(ctx *Context, ref runtime.Ref) (dnum, bool) {
	id := TypeOf(ctx, ref)
	if !isDecimal(id) {
		return dnum{}, false
	}
	p := payload(ctx, ref)
	exp, n := runtime.SLEB(p)
	if n == 0 {
		return dnum{}, false
	}
	nk, m := runtime.ULEB(p[n:])
	if m == 0 {
		return dnum{}, false
	}
	neg := id == IDNegDecimal
	kigs := unpackKigits(p[n+m:], int(nk))
	if len(kigs) == 0 {
		return dZero(), true
	}
	if kigs[0] >= 1000 {
		switch kigs[0] {
		case kigInf:
			return dInf(neg), true
		case kigSNaN:
			return dnum{cls: clsSNaN, m: new(big.Int)}, true
		case kigQNaN:
			return dnum{cls: clsQNaN, m: new(big.Int)}, true
		default:
			return dNaN(), true
		}
	}
	mv := new(big.Int)
	k1000 := big.NewInt(1000)
	for _, kg := range kigs {
		mv.Mul(mv, k1000)
		mv.Add(mv, big.NewInt(int64(kg)))
	}
	return dNorm(dnum{neg: neg, m: mv, k: 3 * (int(exp) - len(kigs))}), true
}

// decPromote widens any real variant to the decimal working form.
func decPromote(ctx *Context, ref runtime.Ref) (dnum, bool) {
	id := TypeOf(ctx, ref)
	switch {
	case isDecimal(id):
		return decValue(ctx, ref)
	case isInteger(id) || isBignum(id) || isBased(id):
		v, ok := bigValue(ctx, ref)
		if !ok {
			return dnum{}, false
		}
		return dFromBig(v), true
	case isFraction(id):
		neg, num, den, ok := fracParts(ctx, ref)
		if !ok {
			return dnum{}, false
		}
		d := dDiv(dFromBig(num), dFromBig(den), prec(ctx)+2)
		d.neg = d.neg != neg
		return d, true
	case isHwFp(id):
		f, ok := hwValue(ctx, ref)
		if !ok {
			return dnum{}, false
		}
		switch {
		case math.IsInf(f, 1):
			return dInf(false), true
		case math.IsInf(f, -1):
			return dInf(true), true
		case math.IsNaN(f):
			return dNaN(), true
		}
		d, ok := parseDnum(strconv.FormatFloat(f, 'e', -1, 64))
		return d, ok
	}
	return dnum{}, false
}

// parseDnum parses a decimal literal: sign, digits, optional point and
// exponent. The decimal separator must already be '.'.
func parseDnum(text string) (dnum, bool) {
	s := text
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	mant := s
	exp := 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mant = s[:i]
		e, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return dnum{}, false
		}
		exp = e
	}
	whole := mant
	frac := ""
	if i := strings.IndexByte(mant, '.'); i >= 0 {
		whole, frac = mant[:i], mant[i+1:]
	}
	digits := whole + frac
	if digits == "" {
		return dnum{}, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return dnum{}, false
		}
	}
	m, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return dnum{}, false
	}
	return dNorm(dnum{neg: neg, m: m, k: exp - len(frac)}), true
}

// ParseDecimal builds a decimal object from literal text.
func ParseDecimal(ctx *Context, text string) runtime.Ref {
	d, ok := parseDnum(text)
	if !ok {
		return ctx.raise(errors.SyntaxError)
	}
	return NewDecimal(ctx, d)
}

// ====================================================================
//
//   Rendering
//
// ====================================================================

// renderDecimal writes a decimal per the display mode settings.
func renderDecimal(ctx *Context, ref runtime.Ref, r *Renderer) {
	d, ok := decValue(ctx, ref)
	if !ok {
		r.PutString("?")
		return
	}
	r.PutString(dToString(ctx, d))
}

// dToString formats a decimal according to the display settings.
func dToString(ctx *Context, d dnum) string {
	switch d.cls {
	case clsInf:
		if d.neg {
			return "-∞"
		}
		return "∞"
	case clsNaN, clsQNaN:
		return "NaN"
	case clsSNaN:
		return "sNaN"
	}
	if d.m.Sign() == 0 {
		return "0" + string(ctx.Cfg.DecimalSeparator)
	}

	cfg := ctx.Cfg
	digits := cfg.DisplayDigits
	if digits <= 0 {
		digits = prec(ctx)
	}

	switch cfg.Display {
	case settings.Fixed:
		return dFixed(ctx, d, digits)
	case settings.Scientific:
		return dSci(ctx, d, digits, false)
	case settings.Engineering:
		return dSci(ctx, d, digits, true)
	}
	// Standard: plain while the exponent stays readable.
	e10 := d.e10()
	if e10 > -6 && e10 <= prec(ctx) {
		return dPlain(ctx, d)
	}
	return dSci(ctx, d, prec(ctx), false)
}

// dPlain writes the positional form.
func dPlain(ctx *Context, d dnum) string {
	var sb strings.Builder
	if d.neg {
		sb.WriteByte('-')
	}
	digits := d.m.Text(10)
	e10 := len(digits) + d.k
	sep := string(ctx.Cfg.DecimalSeparator)
	switch {
	case e10 <= 0:
		sb.WriteString("0")
		sb.WriteString(sep)
		for i := 0; i < -e10; i++ {
			sb.WriteByte('0')
		}
		sb.WriteString(strings.TrimRight(digits, "0"))
	case e10 >= len(digits):
		sb.WriteString(digits)
		for i := len(digits); i < e10; i++ {
			sb.WriteByte('0')
		}
		sb.WriteString(sep)
	default:
		sb.WriteString(digits[:e10])
		sb.WriteString(sep)
		frac := strings.TrimRight(digits[e10:], "0")
		sb.WriteString(frac)
	}
	return sb.String()
}

// dFixed writes with a fixed number of fractional digits.
func dFixed(ctx *Context, d dnum, frac int) string {
	// Shift so that rounding happens at the fraction boundary.
	shifted := dnum{neg: d.neg, m: d.m, k: d.k + frac}
	v := dTrunc(dRound1(shifted))
	s := new(big.Int).Abs(v).Text(10)
	for len(s) <= frac {
		s = "0" + s
	}
	var sb strings.Builder
	if d.neg && v.Sign() != 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(s[:len(s)-frac])
	sb.WriteRune(ctx.Cfg.DecimalSeparator)
	sb.WriteString(s[len(s)-frac:])
	return sb.String()
}

// dRound1 rounds at the integer boundary, half to even.
func dRound1(d dnum) dnum {
	if d.k >= 0 {
		return d
	}
	pw := pow10(-d.k)
	q, r := new(big.Int).QuoRem(d.m, pw, new(big.Int))
	half := new(big.Int).Rsh(pw, 1)
	switch r.Cmp(half) {
	case 1:
		q.Add(q, bigOne)
	case 0:
		if q.Bit(0) == 1 {
			q.Add(q, bigOne)
		}
	}
	return dnum{neg: d.neg, m: q, k: 0}
}

// dSci writes mantissa and exponent form; eng forces the exponent to a
// multiple of three.
func dSci(ctx *Context, d dnum, digits int, eng bool) string {
	d = dRound(d, digits)
	mant := d.m.Text(10)
	e10 := len(mant) + d.k
	exp := e10 - 1
	lead := 1
	if eng {
		lead = ((exp%3)+3)%3 + 1
		exp = e10 - lead
	}
	for len(mant) < lead {
		mant += "0"
	}
	var sb strings.Builder
	if d.neg {
		sb.WriteByte('-')
	}
	sb.WriteString(mant[:lead])
	frac := strings.TrimRight(mant[lead:], "0")
	if frac != "" {
		sb.WriteRune(ctx.Cfg.DecimalSeparator)
		sb.WriteString(frac)
	}
	sb.WriteRune(ctx.Cfg.ExponentSeparator)
	sb.WriteString(strconv.Itoa(exp))
	return sb.String()
}
