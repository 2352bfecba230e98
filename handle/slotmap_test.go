package handle

import (
	"errors"
	"testing"
)

type widgetMarker struct{}

func (widgetMarker) marker() {}

type WidgetHandle = Handle[widgetMarker]

func TestSlotMapInsertGet(t *testing.T) {
	sm := NewSlotMap[string, widgetMarker]()
	h := sm.Insert("a")
	if h.IsNull() {
		t.Fatal("Insert returned a null handle")
	}
	got, ok := sm.Get(h)
	if !ok || got != "a" {
		t.Fatalf("Get() = %q, %v; want \"a\", true", got, ok)
	}
}

func TestSlotMapStaleHandleAfterErase(t *testing.T) {
	sm := NewSlotMap[string, widgetMarker]()
	h := sm.Insert("a")
	if _, ok := sm.Erase(h); !ok {
		t.Fatal("Erase() = false, want true")
	}
	if _, ok := sm.Get(h); ok {
		t.Fatal("Get() succeeded on an erased handle")
	}
}

func TestSlotMapGenerationBumpOnReuse(t *testing.T) {
	sm := NewSlotMap[string, widgetMarker]()
	h1 := sm.Insert("a")
	sm.Erase(h1)
	h2 := sm.Insert("b")

	if h2.Index() != h1.Index() {
		t.Fatalf("expected slot reuse: h1.Index()=%d h2.Index()=%d", h1.Index(), h2.Index())
	}
	if h2.Gen() <= h1.Gen() {
		t.Fatalf("expected generation to increase: h1.Gen()=%d h2.Gen()=%d", h1.Gen(), h2.Gen())
	}
	// The old handle must not resolve to the new value even though it
	// shares an index with the live slot.
	if _, ok := sm.Get(h1); ok {
		t.Fatal("stale handle resolved after slot reuse")
	}
	got, ok := sm.Get(h2)
	if !ok || got != "b" {
		t.Fatalf("Get(h2) = %q, %v; want \"b\", true", got, ok)
	}
}

func TestSlotMapGetErrDistinguishesNotFoundFromStaleGeneration(t *testing.T) {
	sm := NewSlotMap[string, widgetMarker]()
	h1 := sm.Insert("a")
	sm.Erase(h1)
	h2 := sm.Insert("b")

	if _, err := sm.GetErr(h1); !errors.Is(err, ErrEpochMismatch) {
		t.Fatalf("GetErr(h1) error = %v, want ErrEpochMismatch", err)
	}

	unallocated := NewHandle[widgetMarker](h2.Index()+1000, 1)
	if _, err := sm.GetErr(unallocated); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("GetErr(out-of-range handle) error = %v, want ErrResourceNotFound", err)
	}

	if _, err := sm.GetErr(Null[widgetMarker]()); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("GetErr(null) error = %v, want ErrResourceNotFound", err)
	}

	if _, err := sm.GetErr(h2); err != nil {
		t.Fatalf("GetErr(h2) error = %v, want nil", err)
	}
}

func TestSlotMapNullHandle(t *testing.T) {
	sm := NewSlotMap[string, widgetMarker]()
	null := Null[widgetMarker]()
	if !null.IsNull() {
		t.Fatal("Null() did not report IsNull()")
	}
	if _, ok := sm.Get(null); ok {
		t.Fatal("Get(null) succeeded")
	}
	if _, ok := sm.Erase(null); ok {
		t.Fatal("Erase(null) succeeded")
	}
}

func TestSlotMapGrowsAcrossBlocks(t *testing.T) {
	sm := NewSlotMap[int, widgetMarker]()
	const n = blockSize*2 + 5
	hs := make([]WidgetHandle, n)
	for i := 0; i < n; i++ {
		hs[i] = sm.Insert(i)
	}
	if sm.Len() != n {
		t.Fatalf("Len() = %d, want %d", sm.Len(), n)
	}
	for i, h := range hs {
		got, ok := sm.Get(h)
		if !ok || got != i {
			t.Fatalf("Get(hs[%d]) = %d, %v; want %d, true", i, got, ok, i)
		}
	}
}

func TestSlotMapForEachSkipsVacantSlots(t *testing.T) {
	sm := NewSlotMap[int, widgetMarker]()
	h0 := sm.Insert(0)
	sm.Insert(1)
	sm.Erase(h0)

	seen := 0
	sm.ForEach(func(h WidgetHandle, v int) bool {
		seen++
		if v == 0 {
			t.Fatal("ForEach visited an erased slot")
		}
		return true
	})
	if seen != 1 {
		t.Fatalf("ForEach visited %d entries, want 1", seen)
	}
}

func TestSlotMapForEachEarlyExit(t *testing.T) {
	sm := NewSlotMap[int, widgetMarker]()
	for i := 0; i < 5; i++ {
		sm.Insert(i)
	}
	visited := 0
	sm.ForEach(func(h WidgetHandle, v int) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Fatalf("visited = %d, want 2", visited)
	}
}

func TestSlotMapFreeListLIFO(t *testing.T) {
	sm := NewSlotMap[string, widgetMarker]()
	a := sm.Insert("a")
	b := sm.Insert("b")
	sm.Erase(a)
	sm.Erase(b)

	// Free list is LIFO: b's slot should be handed back before a's.
	c := sm.Insert("c")
	if c.Index() != b.Index() {
		t.Fatalf("expected LIFO reuse of b's slot (%d), got %d", b.Index(), c.Index())
	}
}
