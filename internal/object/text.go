// internal/object/text.go
package object

import (
	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// Text, symbols and the composite objects share the sized encoding: a
// ULEB byte count followed by UTF-8 bytes or concatenated child
// objects. Children are stored inline, so a composite is traversable
// with the same size dispatch as the arena itself.

// NewText builds a text object.
func NewText(ctx *Context, s string) runtime.Ref {
	return newSized(ctx, IDText, []byte(s))
}

// CloseEditor converts the command-line editor contents into a text
// object and clears the buffer.
func CloseEditor(ctx *Context) runtime.Ref {
	return NewText(ctx, string(ctx.RT.CloseEditor()))
}

// NewSymbol builds a symbol object.
func NewSymbol(ctx *Context, name string) runtime.Ref {
	return newSized(ctx, IDSymbol, []byte(name))
}

// NewConstant builds a named constant object (π, e, ...).
func NewConstant(ctx *Context, name string) runtime.Ref {
	return newSized(ctx, IDConstant, []byte(name))
}

func newSized(ctx *Context, id ID, data []byte) runtime.Ref {
	b := runtime.AppendULEB(nil, uint64(id))
	b = runtime.AppendULEB(b, uint64(len(data)))
	b = append(b, data...)
	return ctx.RT.Publish(b)
}

// sizedBytes returns the data bytes of a sized object.
func sizedBytes(ctx *Context, ref runtime.Ref) ([]byte, bool) {
	p := payload(ctx, ref)
	n, m := runtime.ULEB(p)
	if m == 0 || int(n) > len(p)-m {
		return nil, false
	}
	return p[m : m+int(n)], true
}

// TextValue returns the string contents of a text, symbol or constant.
func TextValue(ctx *Context, ref runtime.Ref) (string, bool) {
	switch TypeOf(ctx, ref) {
	case IDText, IDSymbol, IDConstant:
		b, ok := sizedBytes(ctx, ref)
		return string(b), ok
	}
	return "", false
}

// ====================================================================
//
//   Composite objects
//
// ====================================================================

// NewComposite builds a list, array, expression or program from fully
// built children, copying each child's encoding inline.
func NewComposite(ctx *Context, id ID, children []runtime.Ref) runtime.Ref {
	var body []byte
	for _, c := range children {
		b := ctx.RT.At(c)
		sz := sizeAt(b, 0)
		if sz <= 0 {
			return ctx.raise(errors.InternalError)
		}
		body = append(body, b[:sz]...)
	}
	return newSized(ctx, id, body)
}

// forEachChild visits the inline children of a composite as interior
// references. The callback returns false to stop.
func forEachChild(ctx *Context, ref runtime.Ref, visit func(runtime.Ref) bool) {
	body, ok := sizedBytes(ctx, ref)
	if !ok {
		return
	}
	_, skip := runtime.ULEB(payload(ctx, ref)) // length header size
	off := 0
	for off < len(body) {
		sz := sizeAt(body[off:], 0)
		if sz <= 0 {
			return
		}
		child := ref + runtime.Ref(runtime.ULEBSkip(ctx.RT.At(ref))+skip+off)
		if !visit(child) {
			return
		}
		off += sz
	}
}

// childList collects the interior references of a composite's children.
func childList(ctx *Context, ref runtime.Ref) []runtime.Ref {
	var out []runtime.Ref
	forEachChild(ctx, ref, func(c runtime.Ref) bool {
		out = append(out, c)
		return true
	})
	return out
}

// renderList writes "{ ... }" for lists, "[ ... ]" for arrays.
func renderList(ctx *Context, ref runtime.Ref, r *Renderer) {
	open, close := "{", "}"
	if TypeOf(ctx, ref) == IDArray {
		open, close = "[", "]"
	}
	r.PutString(open)
	forEachChild(ctx, ref, func(c runtime.Ref) bool {
		r.PutByte(' ')
		RenderTo(ctx, c, r)
		return true
	})
	r.PutByte(' ')
	r.PutString(close)
}

// renderProgram writes "« ... »".
func renderProgram(ctx *Context, ref runtime.Ref, r *Renderer) {
	r.PutString("«")
	forEachChild(ctx, ref, func(c runtime.Ref) bool {
		r.PutByte(' ')
		RenderTo(ctx, c, r)
		return true
	})
	r.PutString(" »")
}

// renderText writes the quoted text with quote doubling.
func renderText(ctx *Context, ref runtime.Ref, r *Renderer) {
	b, ok := sizedBytes(ctx, ref)
	if !ok {
		r.PutString("\"?\"")
		return
	}
	r.PutByte('"')
	for _, c := range b {
		if c == '"' {
			r.PutByte('"')
		}
		r.PutByte(c)
	}
	r.PutByte('"')
}

// renderSymbol writes the bare name.
func renderSymbol(ctx *Context, ref runtime.Ref, r *Renderer) {
	b, _ := sizedBytes(ctx, ref)
	r.PutString(string(b))
}

// ====================================================================
//
//   Tag objects
//
// ====================================================================

// NewTag builds a tagged object: label plus the tagged value.
func NewTag(ctx *Context, label string, obj runtime.Ref) runtime.Ref {
	ob := ctx.RT.At(obj)
	sz := sizeAt(ob, 0)
	if sz <= 0 {
		return ctx.raise(errors.InternalError)
	}
	b := runtime.AppendULEB(nil, uint64(IDTag))
	b = runtime.AppendULEB(b, uint64(len(label)))
	b = append(b, label...)
	b = append(b, ob[:sz]...)
	return ctx.RT.Publish(b)
}

// tagParts decodes the label and the inner object of a tag.
func tagParts(ctx *Context, ref runtime.Ref) (string, runtime.Ref, bool) {
	if TypeOf(ctx, ref) != IDTag {
		return "", runtime.Nil, false
	}
	p := payload(ctx, ref)
	n, m := runtime.ULEB(p)
	if m == 0 || int(n) > len(p)-m {
		return "", runtime.Nil, false
	}
	label := string(p[m : m+int(n)])
	taglen := runtime.ULEBSkip(ctx.RT.At(ref))
	inner := ref + runtime.Ref(taglen+m+int(n))
	return label, inner, true
}

func renderTagObj(ctx *Context, ref runtime.Ref, r *Renderer) {
	label, inner, ok := tagParts(ctx, ref)
	if !ok {
		r.PutString("?")
		return
	}
	r.PutByte(':')
	r.PutString(label)
	r.PutByte(':')
	RenderTo(ctx, inner, r)
}

// evalTagObj strips the tag and evaluates the payload.
func evalTagObj(ctx *Context, ref runtime.Ref) error {
	_, inner, ok := tagParts(ctx, ref)
	if !ok {
		ctx.raise(errors.InternalError)
		return ctx.RT.Err()
	}
	return Evaluate(ctx, inner)
}

// ====================================================================
//
//   Locals and symbols
//
// ====================================================================

// NewLocal builds a local-variable reference by frame index.
func NewLocal(ctx *Context, index int) runtime.Ref {
	b := runtime.AppendULEB(nil, uint64(IDLocal))
	b = runtime.AppendULEB(b, uint64(index))
	return ctx.RT.Publish(b)
}

func localIndex(ctx *Context, ref runtime.Ref) int {
	v, _ := runtime.ULEB(payload(ctx, ref))
	return int(v)
}

func renderLocal(ctx *Context, ref runtime.Ref, r *Renderer) {
	RenderTo(ctx, ctx.RT.Local(localIndex(ctx, ref)), r)
}

// evalLocal pushes the bound value of the local slot.
func evalLocal(ctx *Context, ref runtime.Ref) error {
	v := ctx.RT.Local(localIndex(ctx, ref))
	if v == runtime.Nil {
		ctx.raise(errors.ValueError)
		return ctx.RT.Err()
	}
	return evalSelf(ctx, v)
}

// evalSymbol resolves a name through the directory. A bound program
// runs; any other binding is pushed; an unbound name pushes itself.
func evalSymbol(ctx *Context, ref runtime.Ref) error {
	name, _ := TextValue(ctx, ref)
	if bound, ok := ctx.RT.Recall(name); ok {
		if TypeOf(ctx, bound) == IDProgram {
			return Evaluate(ctx, bound)
		}
		return evalSelf(ctx, bound)
	}
	return evalSelf(ctx, ref)
}

// evalConstant pushes the decimal value of a named constant.
func evalConstant(ctx *Context, ref runtime.Ref) error {
	name, _ := TextValue(ctx, ref)
	var d dnum
	switch name {
	case "π", "pi":
		d = ctx.Pi()
	case "e":
		d = dRound(ctx.constants().e, prec(ctx))
	default:
		return evalSelf(ctx, ref)
	}
	out := NewDecimal(ctx, d)
	if out == runtime.Nil {
		return ctx.RT.Err()
	}
	return evalSelf(ctx, out)
}
