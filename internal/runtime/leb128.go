// internal/runtime/leb128.go
package runtime

// LEB128 encoding shared by the whole object model. Every object in the
// arena starts with a ULEB type tag, and most payloads are ULEB or SLEB
// fields, so the arena can be traversed without any out-of-band layout
// information.

// AppendULEB appends the unsigned LEB128 encoding of v to dst.
func AppendULEB(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			return append(dst, b)
		}
	}
}

// ULEB decodes an unsigned LEB128 value from the start of b, returning
// the value and the number of bytes consumed. A truncated encoding
// returns n == 0.
func ULEB(b []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		c := b[i]
		v |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// AppendSLEB appends the signed LEB128 encoding of v to dst.
func AppendSLEB(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// SLEB decodes a signed LEB128 value from the start of b, returning the
// value and the number of bytes consumed. A truncated encoding returns
// n == 0.
func SLEB(b []byte) (int64, int) {
	var v int64
	var shift uint
	for i := 0; i < len(b); i++ {
		c := b[i]
		v |= int64(c&0x7F) << shift
		shift += 7
		if c&0x80 == 0 {
			if c&0x40 != 0 && shift < 64 {
				v |= -1 << shift
			}
			return v, i + 1
		}
	}
	return 0, 0
}

// ULEBLen returns the encoded size of v in bytes.
func ULEBLen(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}

// ULEBSkip returns the number of bytes occupied by the ULEB value at the
// start of b, without decoding it.
func ULEBSkip(b []byte) int {
	for i := 0; i < len(b); i++ {
		if b[i]&0x80 == 0 {
			return i + 1
		}
	}
	return 0
}
