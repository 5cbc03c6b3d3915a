// internal/object/renderer.go
package object

import (
	"io"

	"reckon/internal/runtime"
)

// Renderer accumulates the source form of objects. It targets either a
// growable buffer, a fixed-size buffer (max > 0, excess is dropped), or
// an io.Writer for file output.
type Renderer struct {
	buf  []byte
	w    io.Writer
	max  int
	used int
}

// NewRenderer returns a renderer accumulating into memory.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// NewSizedRenderer limits the output to max bytes, truncating beyond.
func NewSizedRenderer(max int) *Renderer {
	return &Renderer{max: max}
}

// NewFileRenderer streams output to w.
func NewFileRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// PutByte appends one byte.
func (r *Renderer) PutByte(c byte) {
	if r.w != nil {
		r.w.Write([]byte{c})
		r.used++
		return
	}
	if r.max > 0 && r.used >= r.max {
		return
	}
	r.buf = append(r.buf, c)
	r.used++
}

// PutString appends a string.
func (r *Renderer) PutString(s string) {
	if r.w != nil {
		io.WriteString(r.w, s)
		r.used += len(s)
		return
	}
	if r.max > 0 {
		room := r.max - r.used
		if room <= 0 {
			return
		}
		if len(s) > room {
			s = s[:room]
		}
	}
	r.buf = append(r.buf, s...)
	r.used += len(s)
}

// PutRune appends a single rune.
func (r *Renderer) PutRune(c rune) {
	r.PutString(string(c))
}

// Len returns the number of bytes produced so far.
func (r *Renderer) Len() int {
	return r.used
}

// String returns the accumulated text. Writer-backed renderers return
// the empty string.
func (r *Renderer) String() string {
	return string(r.buf)
}

// Render produces the source form of the object at ref.
func Render(ctx *Context, ref runtime.Ref) string {
	r := NewRenderer()
	RenderTo(ctx, ref, r)
	return r.String()
}

// RenderTo renders an object into an existing renderer.
func RenderTo(ctx *Context, ref runtime.Ref, r *Renderer) {
	id := TypeOf(ctx, ref)
	if id == IDInvalid {
		r.PutString("?")
		return
	}
	h := handlers[id]
	if h.render == nil {
		r.PutString(id.Name())
		return
	}
	h.render(ctx, ref, r)
}

// RenderToScratch renders an object into the runtime scratchpad and
// returns the scratch bytes, for callers building text objects.
func RenderToScratch(ctx *Context, ref runtime.Ref) []byte {
	text := Render(ctx, ref)
	ctx.RT.AppendScratch([]byte(text))
	return ctx.RT.Scratch()
}
