// internal/object/commands.go
package object

import (
	"math/big"
	"math/bits"

	"reckon/internal/errors"
	"reckon/internal/runtime"
)

// Command execution: every command pops its arguments, saves them as
// last-args, and pushes its results. The same dispatch serves program
// evaluation and expression postfix items.

// cmdArity returns the stack arity of an algebraic command.
func cmdArity(id ID) int {
	switch {
	case id >= IDAdd && id <= IDXRoot:
		return 2
	case id >= IDNeg && id <= IDToDecimal:
		return 1
	case id >= IDRe && id <= IDConj:
		return 1
	case id >= IDSame && id <= IDGe:
		return 2
	case id == IDAnd || id == IDOr || id == IDXor:
		return 2
	case id >= IDNot && id <= IDRR:
		return 1
	case id == IDConvert:
		return 2
	case id == IDRoot:
		return 3
	}
	return 0
}

// evalCommand is the eval handler for command objects.
func evalCommand(ctx *Context, ref runtime.Ref) error {
	return applyCommand(ctx, TypeOf(ctx, ref))
}

// saveArgs records last-args unless an inner evaluation (solver,
// rewriter) disabled the decoration.
func saveArgs(ctx *Context, n int) {
	if !ctx.NoSave {
		ctx.RT.SaveLastArgs(n)
	}
}

// applyCommand executes one command against the stack.
func applyCommand(ctx *Context, id ID) error {
	rt := ctx.RT
	fail := func() error {
		rt.ErrorCommand(id.Name())
		return rt.Err()
	}

	switch {
	case id >= IDAdd && id <= IDXRoot:
		saveArgs(ctx, 2)
		y := rt.Pop()
		x := rt.Pop()
		if x == runtime.Nil || y == runtime.Nil {
			return fail()
		}
		out := Arith(ctx, id, x, y)
		if out == runtime.Nil || !rt.Push(out) {
			return fail()
		}
		return nil

	case id >= IDNeg && id <= IDToDecimal || id >= IDRe && id <= IDConj:
		saveArgs(ctx, 1)
		x := rt.Pop()
		if x == runtime.Nil {
			return fail()
		}
		out := Fn(ctx, id, x)
		if out == runtime.Nil || !rt.Push(out) {
			return fail()
		}
		return nil

	case id >= IDSame && id <= IDGe:
		saveArgs(ctx, 2)
		if err := evalCompare(ctx, id); err != nil {
			return fail()
		}
		return nil

	case id >= IDAnd && id <= IDRR:
		if err := basedLogic(ctx, id); err != nil {
			return fail()
		}
		return nil
	}

	switch id {
	case IDDup:
		if top := rt.Top(); top != runtime.Nil {
			rt.Push(top)
		} else {
			ctx.raise(errors.ValueError)
		}
	case IDDrop:
		rt.Drop(1)
	case IDSwap:
		rt.Roll(2)
	case IDRot:
		rt.Roll(3)
	case IDOver:
		if v := rt.Stack(1); v != runtime.Nil {
			rt.Push(v)
		} else {
			ctx.raise(errors.ValueError)
		}
	case IDDepth:
		depth := int64(rt.Depth())
		if out := NewInteger(ctx, depth); out != runtime.Nil {
			rt.Push(out)
		}
	case IDRoll, IDRollD:
		n, ok := IntegerValue(ctx, rt.Pop())
		if !ok || n <= 0 {
			ctx.raise(errors.ValueError)
			break
		}
		if id == IDRoll {
			rt.Roll(int(n))
		} else {
			rt.RollD(int(n))
		}
	case IDClear:
		rt.ClearStack()
	case IDLastArg:
		rt.LastArgs()
	case IDUndo:
		rt.Undo()

	case IDSto:
		name := rt.Pop()
		value := rt.Pop()
		if name == runtime.Nil || value == runtime.Nil {
			return fail()
		}
		s, ok := storeName(ctx, name)
		if !ok {
			ctx.raise(errors.TypeError)
			return fail()
		}
		rt.Store(s, value)
	case IDRcl:
		name := rt.Pop()
		s, ok := storeName(ctx, name)
		if !ok {
			ctx.raise(errors.TypeError)
			return fail()
		}
		v, found := rt.Recall(s)
		if !found {
			ctx.raise(errors.ValueError)
			return fail()
		}
		rt.Push(v)
	case IDPurge:
		name := rt.Pop()
		s, ok := storeName(ctx, name)
		if !ok {
			ctx.raise(errors.TypeError)
			return fail()
		}
		rt.Purge(s)

	case IDConvert:
		saveArgs(ctx, 2)
		target := rt.Pop()
		value := rt.Pop()
		if target == runtime.Nil || value == runtime.Nil {
			return fail()
		}
		out := Convert(ctx, value, target)
		if out == runtime.Nil || !rt.Push(out) {
			return fail()
		}

	case IDRoot:
		saveArgs(ctx, 3)
		guess := rt.Pop()
		name := rt.Pop()
		eq := rt.Pop()
		if guess == runtime.Nil || name == runtime.Nil || eq == runtime.Nil {
			return fail()
		}
		out := Root(ctx, eq, name, guess)
		if out == runtime.Nil || !rt.Push(out) {
			return fail()
		}

	default:
		ctx.raise(errors.InvalidFunctionError)
	}
	if rt.Err() != nil {
		return fail()
	}
	return nil
}

// storeName accepts a symbol, text or expression-wrapped symbol as a
// directory name.
func storeName(ctx *Context, ref runtime.Ref) (string, bool) {
	switch TypeOf(ctx, ref) {
	case IDSymbol, IDText:
		return TextValue(ctx, ref)
	case IDExpression:
		kids := childList(ctx, ref)
		if len(kids) == 1 && TypeOf(ctx, kids[0]) == IDSymbol {
			return TextValue(ctx, kids[0])
		}
	}
	return "", false
}

// basedLogic implements the bitwise commands over based numbers,
// masked to the configured word size.
func basedLogic(ctx *Context, id ID) error {
	rt := ctx.RT
	ws := uint(ctx.Cfg.WordSize)
	if ws == 0 || ws > 64 {
		ws = 64
	}

	pop1 := func() (uint64, bool) {
		saveArgs(ctx, 1)
		x := rt.Pop()
		return basedValue(ctx, x)
	}

	switch id {
	case IDAnd, IDOr, IDXor:
		saveArgs(ctx, 2)
		y := rt.Pop()
		x := rt.Pop()
		xv, xok := basedValue(ctx, x)
		yv, yok := basedValue(ctx, y)
		if !xok || !yok {
			ctx.raise(errors.TypeError)
			return rt.Err()
		}
		var r uint64
		switch id {
		case IDAnd:
			r = xv & yv
		case IDOr:
			r = xv | yv
		case IDXor:
			r = xv ^ yv
		}
		return pushBased(ctx, r)
	case IDNot:
		v, ok := pop1()
		if !ok {
			ctx.raise(errors.TypeError)
			return rt.Err()
		}
		return pushBased(ctx, ^v)
	case IDSL:
		v, ok := pop1()
		if !ok {
			ctx.raise(errors.TypeError)
			return rt.Err()
		}
		return pushBased(ctx, v<<1)
	case IDSR:
		v, ok := pop1()
		if !ok {
			ctx.raise(errors.TypeError)
			return rt.Err()
		}
		return pushBased(ctx, v>>1)
	case IDASR:
		v, ok := pop1()
		if !ok {
			ctx.raise(errors.TypeError)
			return rt.Err()
		}
		sign := v & (1 << (ws - 1))
		return pushBased(ctx, v>>1|sign)
	case IDRL:
		v, ok := pop1()
		if !ok {
			ctx.raise(errors.TypeError)
			return rt.Err()
		}
		if ws == 64 {
			return pushBased(ctx, bits.RotateLeft64(v, 1))
		}
		return pushBased(ctx, (v<<1|v>>(ws-1)))
	case IDRR:
		v, ok := pop1()
		if !ok {
			ctx.raise(errors.TypeError)
			return rt.Err()
		}
		if ws == 64 {
			return pushBased(ctx, bits.RotateLeft64(v, -1))
		}
		return pushBased(ctx, (v>>1 | v<<(ws-1)))
	}
	ctx.raise(errors.InvalidFunctionError)
	return rt.Err()
}

// basedValue reads a based number, a small integer, or a truth value
// as an unsigned word.
func basedValue(ctx *Context, ref runtime.Ref) (uint64, bool) {
	switch TypeOf(ctx, ref) {
	case IDBasedInteger, IDInteger:
		_, mag := integerParts(ctx, ref)
		return maskWordSize(ctx, mag), true
	case IDBasedBignum, IDBignum:
		v, ok := bigValue(ctx, ref)
		if !ok {
			return 0, false
		}
		low := new(big.Int).And(new(big.Int).Abs(v), new(big.Int).SetUint64(^uint64(0)))
		return maskWordSize(ctx, low.Uint64()), true
	case IDTrue:
		return 1, true
	case IDFalse:
		return 0, true
	}
	return 0, false
}

func pushBased(ctx *Context, v uint64) error {
	out := NewBasedInteger(ctx, v)
	if out == runtime.Nil || !ctx.RT.Push(out) {
		return ctx.RT.Err()
	}
	return nil
}
