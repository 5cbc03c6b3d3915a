package runtime

import "testing"

func TestULEBRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16383, 16384, 1 << 32, ^uint64(0)}
	for _, v := range values {
		b := AppendULEB(nil, v)
		got, n := ULEB(b)
		if n != len(b) || got != v {
			t.Errorf("ULEB(%d): got %d consumed %d of %d", v, got, n, len(b))
		}
		if ULEBLen(v) != len(b) {
			t.Errorf("ULEBLen(%d) = %d, encoded %d", v, ULEBLen(v), len(b))
		}
		if ULEBSkip(b) != len(b) {
			t.Errorf("ULEBSkip(%d) = %d, want %d", v, ULEBSkip(b), len(b))
		}
	}
}

func TestSLEBRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, 64, -64, -65, 127, 128, -128,
		1 << 40, -(1 << 40), 1<<63 - 1, -1 << 63}
	for _, v := range values {
		b := AppendSLEB(nil, v)
		got, n := SLEB(b)
		if n != len(b) || got != v {
			t.Errorf("SLEB(%d): got %d consumed %d of %d", v, got, n, len(b))
		}
	}
}

func TestULEBTruncated(t *testing.T) {
	if _, n := ULEB([]byte{0x80}); n != 0 {
		t.Errorf("truncated ULEB consumed %d bytes", n)
	}
	if _, n := SLEB([]byte{0xFF}); n != 0 {
		t.Errorf("truncated SLEB consumed %d bytes", n)
	}
}
