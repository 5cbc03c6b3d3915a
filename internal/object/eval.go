// internal/object/eval.go
package object

import (
	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// Evaluate executes a single object: data pushes itself, names resolve
// through the directory, programs and expressions run their items.
func Evaluate(ctx *Context, ref runtime.Ref) error {
	id := TypeOf(ctx, ref)
	if id == IDInvalid {
		ctx.raise(errors.InternalError)
		return ctx.RT.Err()
	}
	h := handlers[id]
	if h.eval == nil {
		return evalSelf(ctx, ref)
	}
	return h.eval(ctx, ref)
}

// evalProgram runs a program through the return stack: a cursor pair
// walks the body, nested programs push themselves, commands execute.
func evalProgram(ctx *Context, ref runtime.Ref) error {
	rt := ctx.RT
	body, ok := sizedBytes(ctx, ref)
	if !ok {
		ctx.raise(errors.InternalError)
		return rt.Err()
	}
	_, lenSize := runtime.ULEB(payload(ctx, ref))
	headerLen := runtime.ULEBSkip(rt.At(ref)) + lenSize
	start := ref + runtime.Ref(headerLen)
	end := start + runtime.Ref(len(body))

	baseDepth := rt.RunDepth()
	stackDepth := rt.Depth()
	if !rt.RunPush(start, end) {
		return rt.Err()
	}
	for rt.RunDepth() > baseDepth {
		if rt.Interrupted() {
			rt.SetError(errors.New(errors.InterruptedError))
		}
		if rt.Err() != nil {
			// Unwind: restore stack and call stack to the entry state.
			rt.RunUnwind(baseDepth)
			if d := rt.Depth() - stackDepth; d > 0 {
				rt.Drop(d)
			}
			return rt.Err()
		}
		cur, _ := rt.RunNext()
		if cur.Next == runtime.Nil || cur.Next >= cur.End {
			rt.RunPop()
			continue
		}
		obj := cur.Next
		sz := SizeOf(ctx, obj)
		if sz <= 0 {
			ctx.raise(errors.InternalError)
			continue
		}
		rt.RunSet(obj + runtime.Ref(sz))

		id := TypeOf(ctx, obj)
		switch {
		case id == IDProgram:
			// A nested program pushes itself.
			if !rt.Push(obj) {
				continue
			}
		case isCommand(id):
			if err := applyCommand(ctx, id); err != nil {
				continue // the error slot drives the unwind above
			}
		default:
			if err := Evaluate(ctx, obj); err != nil {
				continue
			}
		}
	}
	return rt.Err()
}

// NewProgram builds a program object from its items.
func NewProgram(ctx *Context, items []runtime.Ref) runtime.Ref {
	return NewComposite(ctx, IDProgram, items)
}
