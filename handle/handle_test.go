package handle

import "testing"

func TestRawHandlePackUnzip(t *testing.T) {
	h := NewHandle[widgetMarker](42, 7)
	idx, gen := h.Raw().Unzip()
	if idx != 42 || gen != 7 {
		t.Fatalf("Unzip() = (%d, %d); want (42, 7)", idx, gen)
	}
}

func TestNullRawIsAllOnes(t *testing.T) {
	if NullRaw != ^RawHandle(0) {
		t.Fatalf("NullRaw = %x, want all-ones", uint64(NullRaw))
	}
	if !NullRaw.IsNull() {
		t.Fatal("NullRaw.IsNull() = false")
	}
}

func TestHandleNullDistinctFromZeroValue(t *testing.T) {
	var zero Handle[widgetMarker]
	// A zero-valued Handle (e.g. an unset struct field) is index 0,
	// generation 0 - a real, valid-looking handle, not null. Only the
	// explicit Null() constructor produces the all-ones sentinel.
	if zero.IsNull() {
		t.Fatal("zero-value Handle reported IsNull()")
	}
	if !Null[widgetMarker]().IsNull() {
		t.Fatal("Null() did not report IsNull()")
	}
}
