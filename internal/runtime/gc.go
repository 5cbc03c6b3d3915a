// internal/runtime/gc.go
package runtime

import "sort"

// The collector is stop-the-world, single pass and compacting. It walks
// the temporaries linearly (every byte between the arena base and the
// allocation point is a valid object), marks the objects reachable from
// the roots, slides the survivors down and rewrites every root by the
// delta of its containing object. Interior pointers (return stack
// cursors, component views) keep their offset within the object.

// Handle protects an object reference across calls that may allocate.
// Handles form a singly-linked list that the collector rewrites along
// with the other roots. A handle must be closed when no longer needed.
type Handle struct {
	rt   *Runtime
	ref  Ref
	next *Handle
}

// Protect registers ref with the collector and returns its handle.
func (rt *Runtime) Protect(ref Ref) *Handle {
	h := &Handle{rt: rt, ref: ref, next: rt.gcSafe}
	rt.gcSafe = h
	return h
}

// Ref returns the current, possibly relocated reference.
func (h *Handle) Ref() Ref {
	return h.ref
}

// Set replaces the protected reference.
func (h *Handle) Set(ref Ref) {
	h.ref = ref
}

// Close unregisters the handle from the collector.
func (h *Handle) Close() {
	rt := h.rt
	if rt.gcSafe == h {
		rt.gcSafe = h.next
		return
	}
	for p := rt.gcSafe; p != nil; p = p.next {
		if p.next == h {
			p.next = h.next
			return
		}
	}
}

// layout describes the objects found by the linear walk.
type layout struct {
	starts []int // object start offsets, ascending
	sizes  []int
}

// object returns the index of the object containing offset, or -1.
func (l *layout) object(off int) int {
	i := sort.SearchInts(l.starts, off+1) - 1
	if i < 0 || off >= l.starts[i]+l.sizes[i] {
		return -1
	}
	return i
}

// GC runs a garbage collection and returns the number of bytes freed.
func (rt *Runtime) GC() int {
	if Sizer == nil {
		return 0
	}
	lay := layout{}
	for off := baseOffset; off < rt.temp; {
		size := Sizer(rt.mem, off)
		if size <= 0 {
			// A corrupt object would make the walk loop forever.
			break
		}
		lay.starts = append(lay.starts, off)
		lay.sizes = append(lay.sizes, size)
		off += size
	}

	live := make([]bool, len(lay.starts))
	mark := func(ref Ref) {
		if ref == Nil || ref&StaticBit != 0 {
			return
		}
		if i := lay.object(int(ref)); i >= 0 {
			live[i] = true
		}
	}
	rt.eachRoot(func(ref *Ref) { mark(*ref) })

	// New location of every live object after compaction.
	newStart := make([]int, len(lay.starts))
	next := baseOffset
	for i := range lay.starts {
		if live[i] {
			newStart[i] = next
			next += lay.sizes[i]
		}
	}
	freed := rt.temp - next

	// Rewrite the roots before moving anything.
	rt.eachRoot(func(ref *Ref) {
		r := *ref
		if r == Nil || r&StaticBit != 0 {
			return
		}
		i := lay.object(int(r))
		if i < 0 || !live[i] {
			*ref = Nil
			return
		}
		*ref = Ref(newStart[i] + (int(r) - lay.starts[i]))
	})

	// Slide survivors down, closing the gaps.
	for i := range lay.starts {
		if live[i] && newStart[i] != lay.starts[i] {
			copy(rt.mem[newStart[i]:], rt.mem[lay.starts[i]:lay.starts[i]+lay.sizes[i]])
		}
	}
	rt.temp = next
	rt.GCCycles++
	return freed
}

// eachRoot visits every root pointer slot: the user stack, last
// arguments, undo snapshot, locals, directory entries, the return stack
// cursors and the registered GC-safe handles.
func (rt *Runtime) eachRoot(visit func(*Ref)) {
	for i := range rt.stack {
		visit(&rt.stack[i])
	}
	for i := range rt.lastArgs {
		visit(&rt.lastArgs[i])
	}
	for i := range rt.undo {
		visit(&rt.undo[i])
	}
	for i := range rt.locals {
		visit(&rt.locals[i])
	}
	for name, ref := range rt.globals {
		r := ref
		visit(&r)
		if r != ref {
			rt.globals[name] = r
		}
	}
	for i := range rt.calls {
		visit(&rt.calls[i].Next)
		// End is one past the body: rewrite it through the body's last
		// byte so it stays with the object that contains the body.
		if end := rt.calls[i].End; end != Nil && end&StaticBit == 0 {
			last := end - 1
			visit(&last)
			if last == Nil {
				rt.calls[i].End = Nil
			} else {
				rt.calls[i].End = last + 1
			}
		}
	}
	for h := rt.gcSafe; h != nil; h = h.next {
		visit(&h.ref)
	}
}
