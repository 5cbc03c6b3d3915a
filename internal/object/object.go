// internal/object/object.go
package object

import (
	"reckon/internal/errors"
	"reckon/internal/runtime"
	"reckon/internal/settings"
)

// ID enumerates every concrete object variant and every command. The
// tag is the first (LEB128) field of every object in the arena; sign of
// numeric types is encoded in the tag, not the payload.
type ID uint8

const (
	IDInvalid ID = iota

	// Data types
	IDInteger
	IDNegInteger
	IDBignum
	IDNegBignum
	IDBasedInteger
	IDBasedBignum
	IDFraction
	IDNegFraction
	IDBigFraction
	IDNegBigFraction
	IDDecimal
	IDNegDecimal
	IDHwFloat
	IDHwDouble
	IDRectangular
	IDPolar
	IDUnit
	IDSymbol
	IDText
	IDList
	IDArray
	IDExpression
	IDPolynomial
	IDProgram
	IDTag
	IDLocal
	IDConstant
	IDTrue
	IDFalse

	// Binary arithmetic
	IDAdd
	IDSub
	IDMul
	IDDiv
	IDMod
	IDRem
	IDPow
	IDXRoot

	// Unary arithmetic
	IDNeg
	IDInv
	IDSq
	IDCubed
	IDSqrt
	IDCbrt
	IDFact
	IDAbs
	IDSign
	IDIntPart
	IDFracPart
	IDCeil
	IDFloor

	// Trigonometry
	IDSin
	IDCos
	IDTan
	IDASin
	IDACos
	IDATan

	// Hyperbolics
	IDSinh
	IDCosh
	IDTanh
	IDASinh
	IDACosh
	IDATanh

	// Exponentials and logarithms
	IDExp
	IDExp2
	IDExp10
	IDExpm1
	IDLn
	IDLog2
	IDLog10
	IDLog1p

	// Special functions
	IDErf
	IDErfc
	IDTGamma
	IDLGamma

	// Conversions
	IDToFraction
	IDToDecimal

	// Complex parts
	IDRe
	IDIm
	IDArg
	IDConj

	// Comparisons
	IDSame
	IDEq
	IDNe
	IDLt
	IDLe
	IDGt
	IDGe

	// Based-number logic
	IDAnd
	IDOr
	IDXor
	IDNot
	IDSL
	IDSR
	IDASR
	IDRL
	IDRR

	// Stack commands
	IDDup
	IDDrop
	IDSwap
	IDRot
	IDOver
	IDDepth
	IDRoll
	IDRollD
	IDClear
	IDLastArg
	IDUndo

	// Memory commands
	IDSto
	IDRcl
	IDPurge

	// Units
	IDConvert

	// Solver
	IDRoot

	IDCount
)

// idNames is the canonical spelling of each object type or command as
// it appears in source and in rendered output.
var idNames = [IDCount]string{
	IDInvalid:        "invalid",
	IDInteger:        "integer",
	IDNegInteger:     "neg_integer",
	IDBignum:         "bignum",
	IDNegBignum:      "neg_bignum",
	IDBasedInteger:   "based_integer",
	IDBasedBignum:    "based_bignum",
	IDFraction:       "fraction",
	IDNegFraction:    "neg_fraction",
	IDBigFraction:    "big_fraction",
	IDNegBigFraction: "neg_big_fraction",
	IDDecimal:        "decimal",
	IDNegDecimal:     "neg_decimal",
	IDHwFloat:        "hwfloat",
	IDHwDouble:       "hwdouble",
	IDRectangular:    "rectangular",
	IDPolar:          "polar",
	IDUnit:           "unit",
	IDSymbol:         "symbol",
	IDText:           "text",
	IDList:           "list",
	IDArray:          "array",
	IDExpression:     "expression",
	IDPolynomial:     "polynomial",
	IDProgram:        "program",
	IDTag:            "tag",
	IDLocal:          "local",
	IDConstant:       "constant",
	IDTrue:           "True",
	IDFalse:          "False",

	IDAdd:      "+",
	IDSub:      "-",
	IDMul:      "*",
	IDDiv:      "/",
	IDMod:      "mod",
	IDRem:      "rem",
	IDPow:      "^",
	IDXRoot:    "xroot",
	IDNeg:      "neg",
	IDInv:      "inv",
	IDSq:       "sq",
	IDCubed:    "cubed",
	IDSqrt:     "sqrt",
	IDCbrt:     "cbrt",
	IDFact:     "fact",
	IDAbs:      "abs",
	IDSign:     "sign",
	IDIntPart:  "ip",
	IDFracPart: "fp",
	IDCeil:     "ceil",
	IDFloor:    "floor",
	IDSin:      "sin",
	IDCos:      "cos",
	IDTan:      "tan",
	IDASin:     "asin",
	IDACos:     "acos",
	IDATan:     "atan",
	IDSinh:     "sinh",
	IDCosh:     "cosh",
	IDTanh:     "tanh",
	IDASinh:    "asinh",
	IDACosh:    "acosh",
	IDATanh:    "atanh",
	IDExp:      "exp",
	IDExp2:     "exp2",
	IDExp10:    "exp10",
	IDExpm1:    "expm1",
	IDLn:       "ln",
	IDLog2:     "log2",
	IDLog10:    "log",
	IDLog1p:    "log1p",
	IDErf:      "erf",
	IDErfc:     "erfc",
	IDTGamma:   "gamma",
	IDLGamma:   "lgamma",

	IDToFraction: "tofrac",
	IDToDecimal:  "todec",

	IDRe:   "re",
	IDIm:   "im",
	IDArg:  "arg",
	IDConj: "conj",

	IDSame: "same",
	IDEq:   "==",
	IDNe:   "≠",
	IDLt:   "<",
	IDLe:   "≤",
	IDGt:   ">",
	IDGe:   "≥",

	IDAnd: "and",
	IDOr:  "or",
	IDXor: "xor",
	IDNot: "not",
	IDSL:  "sl",
	IDSR:  "sr",
	IDASR: "asr",
	IDRL:  "rl",
	IDRR:  "rr",

	IDDup:     "dup",
	IDDrop:    "drop",
	IDSwap:    "swap",
	IDRot:     "rot",
	IDOver:    "over",
	IDDepth:   "depth",
	IDRoll:    "roll",
	IDRollD:   "rolld",
	IDClear:   "clear",
	IDLastArg: "lastarg",
	IDUndo:    "undo",

	IDSto:   "sto",
	IDRcl:   "rcl",
	IDPurge: "purge",

	IDConvert: "convert",

	IDRoot: "root",
}

// Name returns the canonical spelling of an ID.
func (id ID) Name() string {
	if id < IDCount {
		return idNames[id]
	}
	return "invalid"
}

// handler is the static dispatch entry for one ID. size receives the
// object bytes starting at the tag and returns the full encoded size;
// render appends source form; eval executes the object on the stack.
type handler struct {
	size   func(b []byte) int
	render func(ctx *Context, ref runtime.Ref, r *Renderer)
	eval   func(ctx *Context, ref runtime.Ref) error
}

var handlers [IDCount]handler

// Context carries the runtime and settings through the whole core API,
// replacing the original's process-wide singletons.
type Context struct {
	RT  *runtime.Runtime
	Cfg *settings.Settings

	// NoSave suppresses last-args saving during inner evaluations,
	// as the solver requires.
	NoSave bool

	cc ccache // constants cache, invalidated on precision change
}

// NewContext assembles an interpreter context.
func NewContext(rt *runtime.Runtime, cfg *settings.Settings) *Context {
	return &Context{RT: rt, Cfg: cfg}
}

// raise records an error and returns Nil for use in value returns.
func (ctx *Context) raise(code errors.Code) runtime.Ref {
	ctx.RT.SetError(errors.New(code))
	return runtime.Nil
}

// guard protects references across allocating calls. The returned
// function reloads the (possibly relocated) references and releases
// the handles; it must be called before the references are next read.
func guard(ctx *Context, refs ...*runtime.Ref) func() {
	handles := make([]*runtime.Handle, len(refs))
	for i, r := range refs {
		handles[i] = ctx.RT.Protect(*r)
	}
	return func() {
		for i, r := range refs {
			*r = handles[i].Ref()
			handles[i].Close()
		}
	}
}

// TypeOf reads the type tag of the object at ref.
func TypeOf(ctx *Context, ref runtime.Ref) ID {
	if ref == runtime.Nil {
		return IDInvalid
	}
	b := ctx.RT.At(ref)
	v, n := runtime.ULEB(b)
	if n == 0 || v >= uint64(IDCount) {
		return IDInvalid
	}
	return ID(v)
}

// payload returns the object bytes after the tag.
func payload(ctx *Context, ref runtime.Ref) []byte {
	b := ctx.RT.At(ref)
	return b[runtime.ULEBSkip(b):]
}

// SizeOf returns the full encoded size of the object at ref.
func SizeOf(ctx *Context, ref runtime.Ref) int {
	return sizeAt(ctx.RT.At(ref), 0)
}

// sizeAt computes the size of the object at mem[off:]. Installed as the
// runtime's Sizer so the collector can walk the arena.
func sizeAt(mem []byte, off int) int {
	b := mem[off:]
	v, n := runtime.ULEB(b)
	if n == 0 || v >= uint64(IDCount) {
		return -1
	}
	h := handlers[v]
	if h.size == nil {
		return -1
	}
	return h.size(b)
}

// ====================================================================
//
//   Generic size functions
//
// ====================================================================

// sizeTagOnly covers payload-less objects: commands, True, False.
func sizeTagOnly(b []byte) int {
	return runtime.ULEBSkip(b)
}

// sizeULEB covers a tag followed by one ULEB field.
func sizeULEB(b []byte) int {
	n := runtime.ULEBSkip(b)
	return n + runtime.ULEBSkip(b[n:])
}

// sizeULEB2 covers a tag followed by two ULEB fields.
func sizeULEB2(b []byte) int {
	n := runtime.ULEBSkip(b)
	n += runtime.ULEBSkip(b[n:])
	return n + runtime.ULEBSkip(b[n:])
}

// sizeSized covers a tag followed by a ULEB byte count and that many
// payload bytes: bignums, text, symbols and all composite objects.
func sizeSized(b []byte) int {
	n := runtime.ULEBSkip(b)
	v, m := runtime.ULEB(b[n:])
	return n + m + int(v)
}

// sizeSized2 covers two back-to-back sized payloads (big fractions).
func sizeSized2(b []byte) int {
	n := runtime.ULEBSkip(b)
	v, m := runtime.ULEB(b[n:])
	n += m + int(v)
	v, m = runtime.ULEB(b[n:])
	return n + m + int(v)
}

// sizeDecimal covers tag, SLEB exponent, ULEB kigit count and the
// packed 10-bit kigits rounded up to a byte.
func sizeDecimal(b []byte) int {
	n := runtime.ULEBSkip(b)
	n += runtime.ULEBSkip(b[n:]) // signed exponent
	v, m := runtime.ULEB(b[n:])
	return n + m + (int(v)*10+7)/8
}

// sizePair covers two back-to-back complete objects (complex, unit).
func sizePair(b []byte) int {
	n := runtime.ULEBSkip(b)
	n += sizeAt(b, n)
	return n + sizeAt(b, n)
}

// sizeTagged covers the tag object: label length, label, then one
// complete tagged object.
func sizeTagged(b []byte) int {
	n := runtime.ULEBSkip(b)
	v, m := runtime.ULEB(b[n:])
	n += m + int(v)
	return n + sizeAt(b, n)
}

func sizeHwFloat(b []byte) int  { return runtime.ULEBSkip(b) + 4 }
func sizeHwDouble(b []byte) int { return runtime.ULEBSkip(b) + 8 }

// ====================================================================
//
//   Type predicates
//
// ====================================================================

func isInteger(id ID) bool {
	return id == IDInteger || id == IDNegInteger
}

func isBased(id ID) bool {
	return id == IDBasedInteger || id == IDBasedBignum
}

func isBignum(id ID) bool {
	return id == IDBignum || id == IDNegBignum
}

func isFraction(id ID) bool {
	switch id {
	case IDFraction, IDNegFraction, IDBigFraction, IDNegBigFraction:
		return true
	}
	return false
}

func isDecimal(id ID) bool {
	return id == IDDecimal || id == IDNegDecimal
}

func isHwFp(id ID) bool {
	return id == IDHwFloat || id == IDHwDouble
}

func isComplex(id ID) bool {
	return id == IDRectangular || id == IDPolar
}

// isReal covers the real numeric tower, based numbers included.
func isReal(id ID) bool {
	return isInteger(id) || isBignum(id) || isBased(id) ||
		isFraction(id) || isDecimal(id) || isHwFp(id)
}

// isNumeric covers anything the arithmetic tower can consume directly.
func isNumeric(id ID) bool {
	return isReal(id) || isComplex(id)
}

// isSymbolic covers operands that defer arithmetic to expressions.
func isSymbolic(id ID) bool {
	return id == IDSymbol || id == IDExpression || id == IDConstant ||
		id == IDPolynomial || id == IDLocal
}

// isCommand reports whether the ID is an executable command.
func isCommand(id ID) bool {
	return id >= IDAdd && id < IDCount
}

// isAlgebraicCmd reports whether a command may appear inside an
// expression.
func isAlgebraicCmd(id ID) bool {
	return id >= IDAdd && id <= IDGe
}

// ====================================================================
//
//   Static objects and registration
//
// ====================================================================

// staticRefs holds the read-only object for every payload-less ID:
// commands, True and False. Expressions reference these instead of
// allocating.
var staticRefs [IDCount]runtime.Ref

// Static returns the read-only object for a payload-less ID.
func Static(id ID) runtime.Ref {
	return staticRefs[id]
}

// cmdNames maps source spellings (including aliases) to command IDs.
var cmdNames = map[string]ID{}

// CommandNamed resolves a source spelling to a command ID.
func CommandNamed(name string) (ID, bool) {
	id, ok := cmdNames[name]
	return id, ok
}

func init() {
	registerDataHandlers()
	registerCommandHandlers()

	// Static table: one object per payload-less ID.
	for id := IDTrue; id < IDCount; id++ {
		if id == IDTrue || id == IDFalse || isCommand(id) {
			staticRefs[id] = runtime.RegisterStatic(
				runtime.AppendULEB(nil, uint64(id)))
		}
	}

	// Command name lookup, with the spelling aliases the parser accepts.
	for id := IDAdd; id < IDCount; id++ {
		cmdNames[idNames[id]] = id
	}
	cmdNames["×"] = IDMul
	cmdNames["·"] = IDMul
	cmdNames["÷"] = IDDiv
	cmdNames["√"] = IDSqrt
	cmdNames["!"] = IDFact
	cmdNames["ip"] = IDIntPart
	cmdNames["fp"] = IDFracPart
	cmdNames["!="] = IDNe
	cmdNames["<="] = IDLe
	cmdNames[">="] = IDGe
	cmdNames["ln"] = IDLn
	cmdNames["log10"] = IDLog10

	runtime.Sizer = sizeAt
}

// registerDataHandlers fills the dispatch table for data types. The
// render and eval bodies live with their types in the sibling files.
func registerDataHandlers() {
	handlers[IDInteger] = handler{sizeULEB, renderInteger, evalSelf}
	handlers[IDNegInteger] = handler{sizeULEB, renderInteger, evalSelf}
	handlers[IDBignum] = handler{sizeSized, renderBignum, evalSelf}
	handlers[IDNegBignum] = handler{sizeSized, renderBignum, evalSelf}
	handlers[IDBasedInteger] = handler{sizeULEB, renderBased, evalSelf}
	handlers[IDBasedBignum] = handler{sizeSized, renderBased, evalSelf}
	handlers[IDFraction] = handler{sizeULEB2, renderFraction, evalFraction}
	handlers[IDNegFraction] = handler{sizeULEB2, renderFraction, evalFraction}
	handlers[IDBigFraction] = handler{sizeSized2, renderFraction, evalFraction}
	handlers[IDNegBigFraction] = handler{sizeSized2, renderFraction, evalFraction}
	handlers[IDDecimal] = handler{sizeDecimal, renderDecimal, evalSelf}
	handlers[IDNegDecimal] = handler{sizeDecimal, renderDecimal, evalSelf}
	handlers[IDHwFloat] = handler{sizeHwFloat, renderHwFp, evalSelf}
	handlers[IDHwDouble] = handler{sizeHwDouble, renderHwFp, evalSelf}
	handlers[IDRectangular] = handler{sizePair, renderComplex, evalSelf}
	handlers[IDPolar] = handler{sizePair, renderComplex, evalSelf}
	handlers[IDUnit] = handler{sizePair, renderUnit, evalSelf}
	handlers[IDSymbol] = handler{sizeSized, renderSymbol, evalSymbol}
	handlers[IDText] = handler{sizeSized, renderText, evalSelf}
	handlers[IDList] = handler{sizeSized, renderList, evalSelf}
	handlers[IDArray] = handler{sizeSized, renderList, evalSelf}
	handlers[IDExpression] = handler{sizeSized, renderExpression, evalExpression}
	handlers[IDPolynomial] = handler{sizeSized, renderPolynomial, evalSelf}
	handlers[IDProgram] = handler{sizeSized, renderProgram, evalProgram}
	handlers[IDTag] = handler{sizeTagged, renderTagObj, evalTagObj}
	handlers[IDLocal] = handler{sizeULEB, renderLocal, evalLocal}
	handlers[IDConstant] = handler{sizeSized, renderSymbol, evalConstant}
	handlers[IDTrue] = handler{sizeTagOnly, renderName, evalSelf}
	handlers[IDFalse] = handler{sizeTagOnly, renderName, evalSelf}
}

// registerCommandHandlers fills the dispatch table for commands.
func registerCommandHandlers() {
	for id := IDAdd; id < IDCount; id++ {
		handlers[id] = handler{sizeTagOnly, renderName, evalCommand}
	}
}

// evalSelf pushes the object itself: the evaluation of most data.
func evalSelf(ctx *Context, ref runtime.Ref) error {
	if !ctx.RT.Push(ref) {
		return ctx.RT.Err()
	}
	return nil
}

// renderName renders payload-less objects by their canonical name.
func renderName(ctx *Context, ref runtime.Ref, r *Renderer) {
	r.PutString(TypeOf(ctx, ref).Name())
}
