// internal/object/bignum.go
package object

import (
	"math/big"
	"strings"

	"reckon/internal/runtime"
)

// Big integers store a ULEB byte count followed by the little-endian
// magnitude bytes; the sign lives in the tag. math/big carries the
// arithmetic behind that encoding.

// appendMagnitude writes the sized little-endian magnitude of |v|.
func appendMagnitude(b []byte, v *big.Int) []byte {
	be := v.Bytes() // big-endian, no sign
	b = runtime.AppendULEB(b, uint64(len(be)))
	for i := len(be) - 1; i >= 0; i-- {
		b = append(b, be[i])
	}
	return b
}

// readMagnitude decodes a sized little-endian magnitude, returning the
// value and the bytes consumed.
func readMagnitude(b []byte) (*big.Int, int) {
	n, m := runtime.ULEB(b)
	if m == 0 || int(n) > len(b)-m {
		return nil, 0
	}
	le := b[m : m+int(n)]
	be := make([]byte, len(le))
	for i, c := range le {
		be[len(le)-1-i] = c
	}
	return new(big.Int).SetBytes(be), m + int(n)
}

// NewBignum builds a big integer object. Values that fit the small
// integer encoding are canonicalized down to it.
func NewBignum(ctx *Context, v *big.Int) runtime.Ref {
	if v.IsInt64() {
		return NewInteger(ctx, v.Int64())
	}
	id := IDBignum
	if v.Sign() < 0 {
		id = IDNegBignum
	}
	b := runtime.AppendULEB(nil, uint64(id))
	b = appendMagnitude(b, v)
	return ctx.RT.Publish(b)
}

// NewBasedBignum builds a based big integer.
func NewBasedBignum(ctx *Context, v *big.Int) runtime.Ref {
	if v.IsUint64() {
		return NewBasedInteger(ctx, v.Uint64())
	}
	b := runtime.AppendULEB(nil, uint64(IDBasedBignum))
	b = appendMagnitude(b, v)
	return ctx.RT.Publish(b)
}

// bigValue widens any integer variant to a signed big.Int.
func bigValue(ctx *Context, ref runtime.Ref) (*big.Int, bool) {
	id := TypeOf(ctx, ref)
	switch id {
	case IDInteger, IDNegInteger, IDBasedInteger:
		neg, mag := integerParts(ctx, ref)
		v := new(big.Int).SetUint64(mag)
		if neg {
			v.Neg(v)
		}
		return v, true
	case IDBignum, IDNegBignum, IDBasedBignum:
		v, n := readMagnitude(payload(ctx, ref))
		if n == 0 {
			return nil, false
		}
		if id == IDNegBignum {
			v.Neg(v)
		}
		return v, true
	}
	return nil, false
}

// makeIntResult publishes a big.Int with the canonical representation:
// small integer when it fits, bignum otherwise.
func makeIntResult(ctx *Context, v *big.Int) runtime.Ref {
	return NewBignum(ctx, v)
}

// parseBigDigits parses an arbitrary-length digit string in a base.
func parseBigDigits(text string, base int) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(strings.ToLower(text), base)
	return v, ok
}

// renderBignum writes the decimal form of a big integer.
func renderBignum(ctx *Context, ref runtime.Ref, r *Renderer) {
	v, ok := bigValue(ctx, ref)
	if !ok {
		r.PutString("?")
		return
	}
	s := v.Text(10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		r.PutByte('-')
		s = s[1:]
	}
	r.PutString(groupDigits(s, ctx.Cfg.DigitGroupSeparator, 3))
}
