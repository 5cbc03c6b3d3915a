// internal/object/hwfp.go
package object

import (
	"encoding/binary"
	"math"
	"math/big"
	"strconv"
	"strings"

	"reckon/internal/runtime"
	"reckon/internal/settings"
)

// Hardware floating point is an acceleration path only: when enabled
// and the requested precision fits float (7 digits) or double (16), the
// numeric paths detour through IEEE values. The variable-precision
// decimal remains the oracle.

// NewHwFloat builds a 32-bit hardware float object.
func NewHwFloat(ctx *Context, v float32) runtime.Ref {
	b := runtime.AppendULEB(nil, uint64(IDHwFloat))
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], math.Float32bits(v))
	return ctx.RT.Publish(append(b, le[:]...))
}

// NewHwDouble builds a 64-bit hardware float object.
func NewHwDouble(ctx *Context, v float64) runtime.Ref {
	b := runtime.AppendULEB(nil, uint64(IDHwDouble))
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], math.Float64bits(v))
	return ctx.RT.Publish(append(b, le[:]...))
}

// newHwResult picks float or double by the configured precision.
func newHwResult(ctx *Context, v float64) runtime.Ref {
	if prec(ctx) <= 7 {
		return NewHwFloat(ctx, float32(v))
	}
	return NewHwDouble(ctx, v)
}

// hwValue reads a hardware float object as a float64.
func hwValue(ctx *Context, ref runtime.Ref) (float64, bool) {
	p := payload(ctx, ref)
	switch TypeOf(ctx, ref) {
	case IDHwFloat:
		if len(p) < 4 {
			return 0, false
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(p))), true
	case IDHwDouble:
		if len(p) < 8 {
			return 0, false
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(p)), true
	}
	return 0, false
}

// hwEnabled reports whether the fast path applies at this precision.
func hwEnabled(ctx *Context) bool {
	return ctx.Cfg.HardwareFloatingPoint && prec(ctx) <= 16
}

// hwPromote converts any real variant to a float64.
func hwPromote(ctx *Context, ref runtime.Ref) (float64, bool) {
	id := TypeOf(ctx, ref)
	switch {
	case isHwFp(id):
		return hwValue(ctx, ref)
	case isInteger(id) || isBased(id):
		neg, mag := integerParts(ctx, ref)
		v := float64(mag)
		if neg {
			v = -v
		}
		return v, true
	case isBignum(id):
		v, ok := bigValue(ctx, ref)
		if !ok {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, true
	case isFraction(id):
		r, ok := ratOf(ctx, ref)
		if !ok {
			return 0, false
		}
		f, _ := r.Float64()
		return f, true
	case isDecimal(id):
		d, ok := decValue(ctx, ref)
		if !ok {
			return 0, false
		}
		switch d.cls {
		case clsInf:
			return math.Inf(boolSign(d.neg)), true
		case clsNaN, clsSNaN, clsQNaN:
			return math.NaN(), true
		}
		return dApprox(d), true
	}
	return 0, false
}

func boolSign(neg bool) int {
	if neg {
		return -1
	}
	return 1
}

// renderHwFp writes the shortest exact decimal form of the float.
func renderHwFp(ctx *Context, ref runtime.Ref, r *Renderer) {
	v, ok := hwValue(ctx, ref)
	if !ok {
		r.PutString("?")
		return
	}
	bits := 64
	if TypeOf(ctx, ref) == IDHwFloat {
		bits = 32
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if ctx.Cfg.ExponentSeparator != 'e' {
		s = strings.ReplaceAll(s, "e", string(ctx.Cfg.ExponentSeparator))
	}
	if ctx.Cfg.DecimalSeparator != '.' {
		s = strings.ReplaceAll(s, ".", string(ctx.Cfg.DecimalSeparator))
	}
	r.PutString(s)
}

// hwFn forwards a unary function to the native math library.
func hwFn(op ID, v float64) (float64, bool) {
	switch op {
	case IDSqrt:
		if v < 0 {
			return 0, false
		}
		return math.Sqrt(v), true
	case IDCbrt:
		return math.Cbrt(v), true
	case IDExp:
		return math.Exp(v), true
	case IDExp2:
		return math.Exp2(v), true
	case IDExp10:
		return math.Pow(10, v), true
	case IDExpm1:
		return math.Expm1(v), true
	case IDLn:
		if v < 0 {
			return 0, false
		}
		return math.Log(v), true
	case IDLog2:
		if v < 0 {
			return 0, false
		}
		return math.Log2(v), true
	case IDLog10:
		if v < 0 {
			return 0, false
		}
		return math.Log10(v), true
	case IDLog1p:
		if v < -1 {
			return 0, false
		}
		return math.Log1p(v), true
	case IDSinh:
		return math.Sinh(v), true
	case IDCosh:
		return math.Cosh(v), true
	case IDTanh:
		return math.Tanh(v), true
	case IDASinh:
		return math.Asinh(v), true
	case IDACosh:
		if v < 1 {
			return 0, false
		}
		return math.Acosh(v), true
	case IDATanh:
		if v <= -1 || v >= 1 {
			return 0, false
		}
		return math.Atanh(v), true
	case IDErf:
		return math.Erf(v), true
	case IDErfc:
		return math.Erfc(v), true
	case IDTGamma:
		return math.Gamma(v), true
	case IDLGamma:
		lg, _ := math.Lgamma(v)
		return lg, true
	case IDAbs:
		return math.Abs(v), true
	case IDNeg:
		return -v, true
	case IDInv:
		if v == 0 {
			return 0, false
		}
		return 1 / v, true
	case IDSq:
		return v * v, true
	case IDCubed:
		return v * v * v, true
	case IDCeil:
		return math.Ceil(v), true
	case IDFloor:
		return math.Floor(v), true
	case IDIntPart:
		return math.Trunc(v), true
	case IDFracPart:
		return v - math.Trunc(v), true
	}
	return 0, false
}

// hwTrig forwards angle-mode aware trigonometry.
func hwTrig(ctx *Context, op ID, v float64) (float64, bool) {
	toRad := func(x float64) float64 {
		switch ctx.Cfg.Angle {
		case settings.Degrees:
			return x * math.Pi / 180
		case settings.Grads:
			return x * math.Pi / 200
		case settings.PiRadians:
			return x * math.Pi
		}
		return x
	}
	fromRad := func(x float64) float64 {
		switch ctx.Cfg.Angle {
		case settings.Degrees:
			return x * 180 / math.Pi
		case settings.Grads:
			return x * 200 / math.Pi
		case settings.PiRadians:
			return x / math.Pi
		}
		return x
	}
	switch op {
	case IDSin:
		return math.Sin(toRad(v)), true
	case IDCos:
		return math.Cos(toRad(v)), true
	case IDTan:
		return math.Tan(toRad(v)), true
	case IDASin:
		if v < -1 || v > 1 {
			return 0, false
		}
		return fromRad(math.Asin(v)), true
	case IDACos:
		if v < -1 || v > 1 {
			return 0, false
		}
		return fromRad(math.Acos(v)), true
	case IDATan:
		return fromRad(math.Atan(v)), true
	}
	return 0, false
}
