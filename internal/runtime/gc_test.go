package runtime

import (
	"bytes"
	"testing"
)

func TestGCCompactsDeadObjects(t *testing.T) {
	rt := newTestRuntime(t, 4096)

	dead1 := rt.Publish(blob(0xAA, 0xAA))
	live := rt.Publish(blob(0xBB, 0xBB, 0xBB))
	dead2 := rt.Publish(blob(0xCC))
	live2 := rt.Publish(blob(0xDD, 0xDD))
	_ = dead1
	_ = dead2

	rt.Push(live)
	rt.Store("keep", live2)

	before := rt.Temp()
	freed := rt.GC()
	if freed <= 0 {
		t.Fatalf("freed = %d, want > 0", freed)
	}
	if rt.Temp() >= before {
		t.Error("temporaries did not shrink")
	}

	// Roots still point at valid objects with the same payloads.
	got := rt.At(rt.Top())
	if !bytes.Equal(got[:4], []byte{4, 0xBB, 0xBB, 0xBB}) {
		t.Errorf("stack root after GC = %v", got[:4])
	}
	kept, ok := rt.Recall("keep")
	if !ok {
		t.Fatal("directory root lost")
	}
	got = rt.At(kept)
	if !bytes.Equal(got[:3], []byte{3, 0xDD, 0xDD}) {
		t.Errorf("directory root after GC = %v", got[:3])
	}
}

func TestGCRewritesHandles(t *testing.T) {
	rt := newTestRuntime(t, 4096)
	_ = rt.Publish(blob(1, 1, 1, 1)) // garbage ahead of the live object
	live := rt.Publish(blob(7, 7))
	h := rt.Protect(live)
	rt.GC()
	got := rt.At(h.Ref())
	if !bytes.Equal(got[:3], []byte{3, 7, 7}) {
		t.Errorf("handle after GC = %v", got[:3])
	}
	if h.Ref() >= live {
		t.Errorf("object did not move down: %d -> %d", live, h.Ref())
	}
	h.Close()
	// With the handle closed the object is garbage.
	before := rt.Temp()
	rt.GC()
	if rt.Temp() >= before {
		t.Error("closed handle should not keep its object alive")
	}
}

func TestGCInteriorPointers(t *testing.T) {
	rt := newTestRuntime(t, 4096)
	_ = rt.Publish(blob(9, 9, 9, 9, 9, 9)) // garbage
	prog := rt.Publish(blob(1, 2, 3, 4, 5))
	// A cursor pointing into the middle of the object.
	rt.RunPush(prog+2, prog+6)
	rt.GC()
	cur, ok := rt.RunNext()
	if !ok {
		t.Fatal("cursor lost")
	}
	base := cur.Next - 2
	got := rt.At(base)
	if !bytes.Equal(got[:6], []byte{6, 1, 2, 3, 4, 5}) {
		t.Errorf("interior pointer container after GC = %v", got[:6])
	}
	if cur.End-cur.Next != 4 {
		t.Errorf("cursor span changed: %d", cur.End-cur.Next)
	}
}

func TestGCStaticsUntouched(t *testing.T) {
	rt := newTestRuntime(t, 4096)
	static := RegisterStatic([]byte{2, 0x55})
	rt.Push(static)
	rt.GC()
	if rt.Top() != static {
		t.Error("static reference must not be rewritten")
	}
	if rt.At(static)[1] != 0x55 {
		t.Error("static payload changed")
	}
}

func TestGCKeepsDenselyPackedArena(t *testing.T) {
	rt := newTestRuntime(t, 4096)
	var live []Ref
	for i := 0; i < 20; i++ {
		ref := rt.Publish(blob(byte(i), byte(i)))
		if i%2 == 0 {
			rt.Push(ref)
			live = append(live, ref)
		}
	}
	rt.GC()
	// Walk the arena: it must parse as a dense sequence of objects.
	count := 0
	for o := 8; o < rt.Temp(); {
		sz := testSizer(rt.At(0), o)
		if sz <= 0 {
			t.Fatalf("walk broke at %d", o)
		}
		o += sz
		count++
	}
	if count != len(live) {
		t.Errorf("live objects after GC = %d, want %d", count, len(live))
	}
}
