// internal/object/integer.go
package object

import (
	"math/bits"
	"strconv"
	"strings"

	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// Small integers store their magnitude as one ULEB128 value after the
// tag; the sign lives in the tag. Based integers compute as unsigned
// values masked to the configured word size, and carry their radix only
// through the settings, for I/O.

// NewInteger builds a small integer object.
func NewInteger(ctx *Context, v int64) runtime.Ref {
	id := IDInteger
	mag := uint64(v)
	if v < 0 {
		id = IDNegInteger
		mag = uint64(-v)
	}
	b := runtime.AppendULEB(nil, uint64(id))
	b = runtime.AppendULEB(b, mag)
	return ctx.RT.Publish(b)
}

// NewBasedInteger builds a based number, masked to the word size.
func NewBasedInteger(ctx *Context, v uint64) runtime.Ref {
	b := runtime.AppendULEB(nil, uint64(IDBasedInteger))
	b = runtime.AppendULEB(b, maskWordSize(ctx, v))
	return ctx.RT.Publish(b)
}

// integerParts decodes the sign and magnitude of a small integer.
func integerParts(ctx *Context, ref runtime.Ref) (bool, uint64) {
	id := TypeOf(ctx, ref)
	mag, _ := runtime.ULEB(payload(ctx, ref))
	return id == IDNegInteger, mag
}

// IntegerValue returns the value of a small integer as an int64. The
// second result is false when the object is not a small integer or its
// magnitude does not fit.
func IntegerValue(ctx *Context, ref runtime.Ref) (int64, bool) {
	id := TypeOf(ctx, ref)
	if !isInteger(id) && id != IDBasedInteger {
		return 0, false
	}
	neg, mag := integerParts(ctx, ref)
	if neg {
		if mag > 1<<63 {
			return 0, false
		}
		return -int64(mag), true
	}
	if mag >= 1<<63 {
		return 0, false
	}
	return int64(mag), true
}

// maskWordSize truncates a based value to the configured word size.
func maskWordSize(ctx *Context, v uint64) uint64 {
	ws := ctx.Cfg.WordSize
	if ws <= 0 || ws >= 64 {
		return v
	}
	return v & (1<<uint(ws) - 1)
}

// Native arithmetic helpers with overflow detection. A false result
// sends the operation down the bignum path.

func addInt64(x, y int64) (int64, bool) {
	s := x + y
	if (s > x) == (y > 0) {
		return s, true
	}
	return 0, false
}

func subInt64(x, y int64) (int64, bool) {
	d := x - y
	if (d < x) == (y > 0) {
		return d, true
	}
	return 0, false
}

func mulInt64(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}
	if x == -1<<63 || y == -1<<63 {
		return 0, false
	}
	neg := (x < 0) != (y < 0)
	xa, ya := x, y
	if xa < 0 {
		xa = -xa
	}
	if ya < 0 {
		ya = -ya
	}
	hi, lo := bits.Mul64(uint64(xa), uint64(ya))
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		return -int64(lo - 1) - 1, true
	}
	if lo > 1<<63-1 {
		return 0, false
	}
	return int64(lo), true
}

// renderInteger writes the decimal form with optional digit grouping.
func renderInteger(ctx *Context, ref runtime.Ref, r *Renderer) {
	neg, mag := integerParts(ctx, ref)
	if neg {
		r.PutByte('-')
	}
	r.PutString(groupDigits(strconv.FormatUint(mag, 10),
		ctx.Cfg.DigitGroupSeparator, 3))
}

// renderBased writes "#<digits><suffix>" in the settings base.
func renderBased(ctx *Context, ref runtime.Ref, r *Renderer) {
	base := ctx.Cfg.Base
	if base < 2 || base > 36 {
		base = 16
	}
	var digits string
	if TypeOf(ctx, ref) == IDBasedBignum {
		v, ok := bigValue(ctx, ref)
		if !ok {
			r.PutString("#?")
			return
		}
		digits = strings.ToUpper(v.Text(base))
	} else {
		_, mag := integerParts(ctx, ref)
		digits = strings.ToUpper(strconv.FormatUint(mag, base))
	}
	r.PutByte('#')
	r.PutString(groupDigits(digits, ctx.Cfg.BasedSeparator, basedGroup(base)))
	r.PutString(baseSuffix(base))
}

// basedGroup selects the digit group width for a base: nibbles group by
// four, everything else by three.
func basedGroup(base int) int {
	if base == 2 || base == 16 {
		return 4
	}
	return 3
}

// baseSuffix returns the literal base marker: a suffix letter for the
// four classical bases, a subscript number otherwise.
func baseSuffix(base int) string {
	switch base {
	case 2:
		return "b"
	case 8:
		return "o"
	case 10:
		return "d"
	case 16:
		return "h"
	}
	var sb strings.Builder
	for _, c := range strconv.Itoa(base) {
		sb.WriteRune(subscriptDigit(c))
	}
	return sb.String()
}

// subscriptDigit maps '0'..'9' to the Unicode subscript digits.
func subscriptDigit(c rune) rune {
	if c >= '0' && c <= '9' {
		return '₀' + (c - '0')
	}
	return c
}

// groupDigits inserts sep every group digits, counting from the right.
// A zero separator disables grouping.
func groupDigits(digits string, sep rune, group int) string {
	if sep == 0 || group <= 0 || len(digits) <= group {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % group
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += group {
		if sb.Len() > 0 {
			sb.WriteRune(sep)
		}
		sb.WriteString(digits[i : i+group])
	}
	return sb.String()
}

// parseBaseSuffix maps a base suffix letter to its radix.
func parseBaseSuffix(c byte) (int, bool) {
	switch c {
	case 'b', 'B':
		return 2, true
	case 'o', 'O':
		return 8, true
	case 'd', 'D':
		return 10, true
	case 'h', 'H':
		return 16, true
	}
	return 0, false
}

// ParseBased parses the text of a based literal, without the leading
// '#': digits in the current (or suffixed) base, with optional group
// separators.
func ParseBased(ctx *Context, text string) runtime.Ref {
	base := ctx.Cfg.Base
	if len(text) > 0 {
		if b, ok := parseBaseSuffix(text[len(text)-1]); ok {
			base = b
			text = text[:len(text)-1]
		}
	}
	if base < 2 || base > 36 {
		return ctx.raise(errors.InvalidBaseError)
	}
	clean := strings.Map(func(c rune) rune {
		if c == '_' || c == ' ' || c == ctx.Cfg.BasedSeparator {
			return -1
		}
		return c
	}, text)
	if clean == "" {
		return ctx.raise(errors.BasedNumberError)
	}
	v, err := strconv.ParseUint(strings.ToLower(clean), base, 64)
	if err != nil {
		// Out of native range: fall back to a based bignum.
		big, ok := parseBigDigits(clean, base)
		if !ok {
			return ctx.raise(errors.BasedDigitError)
		}
		return NewBasedBignum(ctx, big)
	}
	return NewBasedInteger(ctx, v)
}
