package object

import (
	"testing"

	"reckon/internal/runtime"
	"reckon/internal/settings"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	return NewContext(runtime.New(0), settings.Default())
}

// eval runs a line and fails the test on error.
func eval(t *testing.T, ctx *Context, src string) {
	t.Helper()
	if err := EvalLine(ctx, src); err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
}

// top returns the rendering of the top of stack.
func top(t *testing.T, ctx *Context) string {
	t.Helper()
	ref := ctx.RT.Top()
	if ref == runtime.Nil {
		t.Fatal("empty stack")
	}
	return Render(ctx, ref)
}

func TestObjectSizes(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		name string
		make func() runtime.Ref
	}{
		{"integer", func() runtime.Ref { return NewInteger(ctx, 42) }},
		{"neg integer", func() runtime.Ref { return NewInteger(ctx, -300) }},
		{"text", func() runtime.Ref { return NewText(ctx, "hello") }},
		{"symbol", func() runtime.Ref { return NewSymbol(ctx, "X") }},
		{"decimal", func() runtime.Ref { return ParseDecimal(ctx, "3.14") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ctx.RT.Temp()
			ref := tt.make()
			if ref == runtime.Nil {
				t.Fatal("constructor failed")
			}
			if got := SizeOf(ctx, ref); got != ctx.RT.Temp()-before {
				t.Errorf("SizeOf = %d, allocated %d", got, ctx.RT.Temp()-before)
			}
		})
	}
}

func TestStaticCommands(t *testing.T) {
	ctx := newTestContext(t)
	ref := Static(IDAdd)
	if !ctx.RT.IsStatic(ref) {
		t.Fatal("command object should be static")
	}
	if TypeOf(ctx, ref) != IDAdd {
		t.Errorf("static tag = %v", TypeOf(ctx, ref))
	}
	if TypeOf(ctx, Static(IDTrue)) != IDTrue {
		t.Error("True static broken")
	}
}

func TestCommandNamed(t *testing.T) {
	for _, name := range []string{"+", "sin", "sqrt", "√", "dup", "mod"} {
		if _, ok := CommandNamed(name); !ok {
			t.Errorf("command %q not found", name)
		}
	}
	if _, ok := CommandNamed("nosuch"); ok {
		t.Error("unknown command resolved")
	}
}

// Objects reachable from the stack survive a collection with the same
// tag and payload.
func TestGCPreservesObjects(t *testing.T) {
	ctx := newTestContext(t)
	eval(t, ctx, `123456789012345678901234567890 "some text" 'X+1'`)
	want := []string{top(t, ctx), Render(ctx, ctx.RT.Stack(1)), Render(ctx, ctx.RT.Stack(2))}

	// Generate garbage, then collect.
	for i := 0; i < 50; i++ {
		NewText(ctx, "garbage garbage garbage")
	}
	ctx.RT.GC()

	got := []string{top(t, ctx), Render(ctx, ctx.RT.Stack(1)), Render(ctx, ctx.RT.Stack(2))}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("level %d after GC: %q, want %q", i, got[i], want[i])
		}
	}
}
