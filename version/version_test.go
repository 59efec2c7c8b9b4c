package version

import (
	"testing"
	"time"
)

func TestNumber_MonotonicOrdering(t *testing.T) {
	v1 := New()
	v2 := New()

	if !v1.Before(v2) {
		t.Errorf("v1 should order before v2: %s vs %s", v1, v2)
	}
	if v1.Equal(v2) {
		t.Error("independently constructed numbers must not be equal")
	}
	if !v1.Equal(v1) {
		t.Error("a number must equal itself")
	}
	if v2.Compare(v1) != 1 {
		t.Errorf("Compare(v2, v1) = %d, want 1", v2.Compare(v1))
	}
}

func TestNumber_NullOrdersFirst(t *testing.T) {
	null := Null()
	v1 := New()
	v2 := NewAt(time.Now().Add(-2 * time.Hour))

	if !null.IsNull() {
		t.Error("Null() should report IsNull")
	}
	if !null.Before(v1) {
		t.Error("null must order before any constructed number")
	}
	if !null.Before(v2) {
		t.Error("null must order before a number with an old origin time")
	}

	var zero Number
	if !zero.Equal(null) {
		t.Error("zero value must equal Null()")
	}
}

func TestNumber_NewAtTimeRoundtrip(t *testing.T) {
	used := time.Now().Add(-2 * time.Hour)
	v := NewAt(used)

	if !v.Time().Equal(used) {
		t.Errorf("Time() = %v, want %v", v.Time(), used)
	}

	// Explicit origin time does not affect ordering.
	later := New()
	if !v.Before(later) {
		t.Error("NewAt with past time must still order before later constructions")
	}
}

func TestNumber_MapKey(t *testing.T) {
	v1 := New()
	v2 := New()

	seen := map[Number]string{v1: "a", v2: "b"}
	if seen[v1] != "a" || seen[v2] != "b" {
		t.Error("numbers should be usable as distinct map keys")
	}
}

func TestNumber_String(t *testing.T) {
	if Null().String() != "v{null}" {
		t.Errorf("null String() = %q", Null().String())
	}
	if New().String() == "" {
		t.Error("String() should not be empty")
	}
}
