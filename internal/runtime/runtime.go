// internal/runtime/runtime.go
package runtime

import (
	"sync/atomic"

	"reckon/internal/errors"
)

// Ref is a reference to an object: an offset into the runtime's arena,
// or an index into the static object table when StaticBit is set.
// Ref 0 is the nil reference; no object is ever allocated at offset 0.
type Ref uint32

const (
	// Nil is the null object reference.
	Nil Ref = 0

	// StaticBit marks references into the read-only static table.
	StaticBit Ref = 1 << 31

	// baseOffset is where the first temporary lives. Offsets below it
	// are reserved so that Nil never aliases a real object.
	baseOffset = 8

	// CallsBlock is the granularity of call stack growth.
	CallsBlock = 32

	// redzone is the byte gap kept between the stack areas and the
	// temporaries; crossing it triggers a GC.
	redzone = 64

	// DefaultSize is the default arena size, matching the reference
	// hardware's ~256K RAM budget.
	DefaultSize = 256 * 1024

	refBytes = 4
)

// Sizer computes the byte size of the object encoded at mem[off:]. It
// is installed by the object package at init time; the runtime needs it
// to walk the arena during garbage collection.
var Sizer func(mem []byte, off int) int

// statics is the read-only object table: command descriptors, True and
// False. Entries are registered once at init and never collected.
var statics [][]byte

// RegisterStatic adds a read-only object and returns its reference.
func RegisterStatic(data []byte) Ref {
	statics = append(statics, data)
	return StaticBit | Ref(len(statics)-1)
}

// Cursor is one return-stack entry: the next object to execute and the
// end of the enclosing program body. Both point into the arena.
type Cursor struct {
	Next Ref
	End  Ref
}

// Runtime owns the arena and every mutable area of the calculator:
// temporaries, scratchpad, editor, user stack, last arguments, undo,
// locals, directory and the return stack. It is single-threaded; only
// the interrupt flag may be touched from another goroutine.
type Runtime struct {
	mem      []byte
	temp     int // one past the last temporary
	editor   []byte
	scratch  []byte
	stack    []Ref // stack[len-1] is level 1
	lastArgs []Ref
	undo     []Ref
	haveUndo bool
	locals   []Ref
	calls    []Cursor
	globals  map[string]Ref
	gcSafe   *Handle
	err      error
	errSrc   string
	errPos   int
	errCmd   string
	intr     atomic.Bool

	// GCCycles counts completed garbage collections.
	GCCycles int
}

// New creates a runtime with the given arena size in bytes. A size of
// zero selects DefaultSize.
func New(size int) *Runtime {
	if size <= 0 {
		size = DefaultSize
	}
	rt := &Runtime{
		mem:     make([]byte, size),
		globals: make(map[string]Ref),
	}
	rt.temp = baseOffset
	return rt
}

// Reset restores the runtime to its boot state, keeping the arena.
func (rt *Runtime) Reset() {
	rt.temp = baseOffset
	rt.editor = rt.editor[:0]
	rt.scratch = rt.scratch[:0]
	rt.stack = rt.stack[:0]
	rt.lastArgs = rt.lastArgs[:0]
	rt.undo = rt.undo[:0]
	rt.haveUndo = false
	rt.locals = rt.locals[:0]
	rt.calls = rt.calls[:0]
	rt.globals = make(map[string]Ref)
	rt.gcSafe = nil
	rt.ClearError()
	rt.intr.Store(false)
}

// ====================================================================
//
//   Temporaries
//
// ====================================================================

// overhead is the space consumed by everything that is not a temporary.
func (rt *Runtime) overhead() int {
	return refBytes*(len(rt.stack)+len(rt.lastArgs)+len(rt.undo)+len(rt.locals)) +
		2*refBytes*len(rt.calls) + len(rt.editor) + len(rt.scratch)
}

// Free returns the bytes available for temporaries before the redzone.
func (rt *Runtime) Free() int {
	return len(rt.mem) - rt.temp - rt.overhead() - redzone
}

// Available checks whether size bytes can be allocated, running a GC
// if the first check fails.
func (rt *Runtime) Available(size int) bool {
	if rt.Free() >= size {
		return true
	}
	rt.GC()
	return rt.Free() >= size
}

// Alloc reserves size bytes in the temporaries region and returns the
// reference to the first byte. On failure it reports out of memory and
// returns Nil.
func (rt *Runtime) Alloc(size int) Ref {
	if !rt.Available(size) {
		rt.SetError(errors.New(errors.OutOfMemoryError))
		return Nil
	}
	ref := Ref(rt.temp)
	rt.temp += size
	return ref
}

// Publish copies a fully built object encoding into the temporaries
// region. The data must be a complete, self-describing object.
func (rt *Runtime) Publish(data []byte) Ref {
	ref := rt.Alloc(len(data))
	if ref == Nil {
		return Nil
	}
	copy(rt.mem[ref:], data)
	return ref
}

// Clone copies the object at ref into a fresh temporary.
func (rt *Runtime) Clone(ref Ref) Ref {
	if ref == Nil {
		return Nil
	}
	b := rt.At(ref)
	sz := Sizer(b, 0)
	h := rt.Protect(ref)
	out := rt.Alloc(sz)
	ref = h.Ref()
	h.Close()
	if out == Nil {
		return Nil
	}
	copy(rt.mem[out:], rt.At(ref)[:sz])
	return out
}

// At returns the bytes of the object at ref, extending to the end of
// its containing region. The object encoding is self-describing, so
// readers never run past its actual size.
func (rt *Runtime) At(ref Ref) []byte {
	if ref&StaticBit != 0 {
		return statics[ref&^StaticBit]
	}
	return rt.mem[ref:rt.temp]
}

// IsStatic reports whether ref addresses the read-only table.
func (rt *Runtime) IsStatic(ref Ref) bool {
	return ref&StaticBit != 0
}

// Temp returns the current top of the temporaries region.
func (rt *Runtime) Temp() int {
	return rt.temp
}

// ====================================================================
//
//   Scratchpad
//
// ====================================================================
//   The scratchpad is a byte buffer used while building composite
//   objects, before they are published as temporaries.

// Allocate grows the scratchpad by size bytes and returns the newly
// reserved, writable tail.
func (rt *Runtime) Allocate(size int) []byte {
	if len(rt.mem)-rt.temp-rt.overhead()-redzone < size {
		rt.GC()
	}
	old := len(rt.scratch)
	rt.scratch = append(rt.scratch, make([]byte, size)...)
	return rt.scratch[old:]
}

// AppendScratch appends bytes at the end of the scratchpad.
func (rt *Runtime) AppendScratch(data []byte) {
	rt.scratch = append(rt.scratch, data...)
}

// FreeScratch shrinks the scratchpad by size bytes.
func (rt *Runtime) FreeScratch(size int) {
	if size > len(rt.scratch) {
		size = len(rt.scratch)
	}
	rt.scratch = rt.scratch[:len(rt.scratch)-size]
}

// Scratch returns the current scratchpad contents.
func (rt *Runtime) Scratch() []byte {
	return rt.scratch
}

// Allocated returns the scratchpad size.
func (rt *Runtime) Allocated() int {
	return len(rt.scratch)
}

// ScratchToTemp publishes the scratchpad contents as a temporary and
// empties the scratchpad. The contents must form one valid object.
func (rt *Runtime) ScratchToTemp() Ref {
	ref := rt.Publish(rt.scratch)
	rt.scratch = rt.scratch[:0]
	return ref
}

// ====================================================================
//
//   Command-line editor
//
// ====================================================================

// Edit replaces the editor contents.
func (rt *Runtime) Edit(text []byte) int {
	rt.editor = append(rt.editor[:0], text...)
	return len(rt.editor)
}

// Editing returns the current size of the editor buffer.
func (rt *Runtime) Editing() int {
	return len(rt.editor)
}

// EditorText returns the editor contents.
func (rt *Runtime) EditorText() []byte {
	return rt.editor
}

// Insert inserts data at the given offset, returning the number of
// bytes inserted.
func (rt *Runtime) Insert(offset int, data []byte) int {
	if offset < 0 || offset > len(rt.editor) {
		return 0
	}
	rt.editor = append(rt.editor, data...)
	copy(rt.editor[offset+len(data):], rt.editor[offset:])
	copy(rt.editor[offset:], data)
	return len(data)
}

// Remove deletes size bytes at the given offset, returning the number
// of bytes removed.
func (rt *Runtime) Remove(offset, size int) int {
	if offset < 0 || offset >= len(rt.editor) {
		return 0
	}
	if offset+size > len(rt.editor) {
		size = len(rt.editor) - offset
	}
	rt.editor = append(rt.editor[:offset], rt.editor[offset+size:]...)
	return size
}

// CloseEditor returns the editor contents and clears the buffer. The
// object package wraps the result in a text object.
func (rt *Runtime) CloseEditor() []byte {
	out := make([]byte, len(rt.editor))
	copy(out, rt.editor)
	rt.editor = rt.editor[:0]
	return out
}

// ====================================================================
//
//   User stack
//
// ====================================================================

// Push puts an object reference on the stack. The reference survives
// a collection triggered by the push itself.
func (rt *Runtime) Push(ref Ref) bool {
	if rt.Free() < refBytes {
		h := rt.Protect(ref)
		rt.GC()
		ref = h.Ref()
		h.Close()
		if rt.Free() < refBytes {
			rt.SetError(errors.New(errors.OutOfMemoryError))
			return false
		}
	}
	rt.stack = append(rt.stack, ref)
	return true
}

// Pop removes and returns the top of stack, Nil if empty.
func (rt *Runtime) Pop() Ref {
	if len(rt.stack) == 0 {
		rt.SetError(errors.Newf(errors.ValueError, "Too few arguments"))
		return Nil
	}
	ref := rt.stack[len(rt.stack)-1]
	rt.stack = rt.stack[:len(rt.stack)-1]
	return ref
}

// Top returns stack level 1 without popping.
func (rt *Runtime) Top() Ref {
	return rt.Stack(0)
}

// Stack returns the object at the given depth, 0 being the top.
func (rt *Runtime) Stack(depth int) Ref {
	if depth < 0 || depth >= len(rt.stack) {
		return Nil
	}
	return rt.stack[len(rt.stack)-1-depth]
}

// SetStack overwrites the object at the given depth.
func (rt *Runtime) SetStack(depth int, ref Ref) bool {
	if depth < 0 || depth >= len(rt.stack) {
		return false
	}
	rt.stack[len(rt.stack)-1-depth] = ref
	return true
}

// Drop removes n objects from the stack.
func (rt *Runtime) Drop(n int) bool {
	if n < 0 || n > len(rt.stack) {
		rt.SetError(errors.Newf(errors.ValueError, "Too few arguments"))
		return false
	}
	rt.stack = rt.stack[:len(rt.stack)-n]
	return true
}

// Depth returns the number of objects on the stack.
func (rt *Runtime) Depth() int {
	return len(rt.stack)
}

// Roll moves the object at depth n-1 to the top.
func (rt *Runtime) Roll(n int) bool {
	if n <= 0 || n > len(rt.stack) {
		return false
	}
	i := len(rt.stack) - n
	ref := rt.stack[i]
	copy(rt.stack[i:], rt.stack[i+1:])
	rt.stack[len(rt.stack)-1] = ref
	return true
}

// RollD moves the top of stack down to depth n-1.
func (rt *Runtime) RollD(n int) bool {
	if n <= 0 || n > len(rt.stack) {
		return false
	}
	i := len(rt.stack) - n
	ref := rt.stack[len(rt.stack)-1]
	copy(rt.stack[i+1:], rt.stack[i:len(rt.stack)-1])
	rt.stack[i] = ref
	return true
}

// ClearStack empties the user stack.
func (rt *Runtime) ClearStack() {
	rt.stack = rt.stack[:0]
}

// ====================================================================
//
//   Last arguments and undo
//
// ====================================================================

// SaveLastArgs records the top n stack entries as the last arguments.
func (rt *Runtime) SaveLastArgs(n int) {
	if n > len(rt.stack) {
		n = len(rt.stack)
	}
	rt.lastArgs = append(rt.lastArgs[:0], rt.stack[len(rt.stack)-n:]...)
}

// LastArgs pushes the saved arguments back on the stack.
func (rt *Runtime) LastArgs() bool {
	for _, ref := range rt.lastArgs {
		if !rt.Push(ref) {
			return false
		}
	}
	return true
}

// SaveUndo snapshots the whole stack for a later Undo.
func (rt *Runtime) SaveUndo() {
	rt.undo = append(rt.undo[:0], rt.stack...)
	rt.haveUndo = true
}

// Undo restores the stack to the last snapshot.
func (rt *Runtime) Undo() bool {
	if !rt.haveUndo {
		return false
	}
	rt.stack = append(rt.stack[:0], rt.undo...)
	return true
}

// ====================================================================
//
//   Local variables
//
// ====================================================================

// Locals pushes a frame of n local variables initialized from refs.
func (rt *Runtime) Locals(refs []Ref) bool {
	if rt.Free() < refBytes*len(refs) {
		handles := make([]*Handle, len(refs))
		for i, r := range refs {
			handles[i] = rt.Protect(r)
		}
		rt.GC()
		for i := range refs {
			refs[i] = handles[i].Ref()
			handles[i].Close()
		}
		if rt.Free() < refBytes*len(refs) {
			rt.SetError(errors.New(errors.OutOfMemoryError))
			return false
		}
	}
	rt.locals = append(rt.locals, refs...)
	return true
}

// Local returns local variable i, counted from the innermost frame.
func (rt *Runtime) Local(i int) Ref {
	if i < 0 || i >= len(rt.locals) {
		return Nil
	}
	return rt.locals[len(rt.locals)-1-i]
}

// SetLocal assigns local variable i.
func (rt *Runtime) SetLocal(i int, ref Ref) bool {
	if i < 0 || i >= len(rt.locals) {
		return false
	}
	rt.locals[len(rt.locals)-1-i] = ref
	return true
}

// Unlocals drops the innermost n local variables.
func (rt *Runtime) Unlocals(n int) {
	if n > len(rt.locals) {
		n = len(rt.locals)
	}
	rt.locals = rt.locals[:len(rt.locals)-n]
}

// LocalsDepth returns the number of live locals.
func (rt *Runtime) LocalsDepth() int {
	return len(rt.locals)
}

// ====================================================================
//
//   Directory (global variables)
//
// ====================================================================

// Store binds name to the given object in the directory.
func (rt *Runtime) Store(name string, ref Ref) {
	rt.globals[name] = ref
}

// Recall looks a name up in the directory.
func (rt *Runtime) Recall(name string) (Ref, bool) {
	ref, ok := rt.globals[name]
	return ref, ok
}

// Purge removes a name from the directory.
func (rt *Runtime) Purge(name string) {
	delete(rt.globals, name)
}

// GlobalNames lists the defined directory entries.
func (rt *Runtime) GlobalNames() []string {
	names := make([]string, 0, len(rt.globals))
	for name := range rt.globals {
		names = append(names, name)
	}
	return names
}

// ====================================================================
//
//   Return stack
//
// ====================================================================

// RunPush pushes an execution cursor on the return stack. The call
// stack grows in CallsBlock chunks.
func (rt *Runtime) RunPush(next, end Ref) bool {
	if len(rt.calls) == cap(rt.calls) {
		if rt.Free() < 2*refBytes*CallsBlock {
			rt.GC()
			if rt.Free() < 2*refBytes*CallsBlock {
				rt.SetError(errors.New(errors.OutOfMemoryError))
				return false
			}
		}
		grown := make([]Cursor, len(rt.calls), cap(rt.calls)+CallsBlock)
		copy(grown, rt.calls)
		rt.calls = grown
	}
	rt.calls = append(rt.calls, Cursor{Next: next, End: end})
	return true
}

// RunPop removes and returns the innermost cursor.
func (rt *Runtime) RunPop() (Cursor, bool) {
	if len(rt.calls) == 0 {
		return Cursor{}, false
	}
	c := rt.calls[len(rt.calls)-1]
	rt.calls = rt.calls[:len(rt.calls)-1]
	return c, true
}

// RunNext returns the innermost cursor without popping.
func (rt *Runtime) RunNext() (Cursor, bool) {
	if len(rt.calls) == 0 {
		return Cursor{}, false
	}
	return rt.calls[len(rt.calls)-1], true
}

// RunSet updates the innermost cursor's next pointer.
func (rt *Runtime) RunSet(next Ref) {
	if len(rt.calls) > 0 {
		rt.calls[len(rt.calls)-1].Next = next
	}
}

// RunDepth returns the call stack depth.
func (rt *Runtime) RunDepth() int {
	return len(rt.calls)
}

// RunUnwind drops call stack entries until the given depth.
func (rt *Runtime) RunUnwind(depth int) {
	if depth < 0 {
		depth = 0
	}
	if depth < len(rt.calls) {
		rt.calls = rt.calls[:depth]
	}
}

// ====================================================================
//
//   Errors and interrupts
//
// ====================================================================

// SetError records an error. The first error wins; later ones within
// the same evaluation are discarded.
func (rt *Runtime) SetError(err error) {
	if rt.err == nil {
		rt.err = err
	}
}

// Err returns the sticky error slot.
func (rt *Runtime) Err() error {
	return rt.err
}

// ClearError resets the error slot and its diagnostics.
func (rt *Runtime) ClearError() {
	rt.err = nil
	rt.errSrc = ""
	rt.errPos = 0
	rt.errCmd = ""
}

// ErrorSource records the source fragment related to the current error.
func (rt *Runtime) ErrorSource(src string, pos int) {
	rt.errSrc = src
	rt.errPos = pos
	if ke, ok := rt.err.(*errors.KernelError); ok {
		ke.Source = src
		ke.Pos = pos
	}
}

// ErrorCommand records the command that raised the current error.
func (rt *Runtime) ErrorCommand(name string) {
	rt.errCmd = name
	if ke, ok := rt.err.(*errors.KernelError); ok && ke.Command == "" {
		ke.Command = name
	}
}

// Interrupt requests a cooperative abort of the current operation. It
// may be called from another goroutine (keyboard, timer).
func (rt *Runtime) Interrupt() {
	rt.intr.Store(true)
}

// Interrupted polls and clears the interrupt flag.
func (rt *Runtime) Interrupted() bool {
	return rt.intr.Swap(false)
}
