// Where: cli/internal/domain/value/value_test.go
// What: Tests for value conversion helpers.
// Why: Keep context parsing helpers stable across refactors.
package value

import (
	"reflect"
	"testing"
)

func TestAsBool(t *testing.T) {
	cases := []struct {
		in     any
		want   bool
		wantOK bool
	}{
		{true, true, true},
		{false, false, true},
		{"true", true, true},
		{" FALSE ", false, true},
		{"yes", false, false},
		{1, false, false},
		{nil, false, false},
	}
	for _, tc := range cases {
		got, ok := AsBool(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("AsBool(%v) = %v, %v", tc.in, got, ok)
		}
	}
}

func TestAsMap(t *testing.T) {
	m, ok := AsMap(map[any]any{"a": 1, 2: "b"})
	if !ok {
		t.Fatalf("expected map")
	}
	if !reflect.DeepEqual(m, map[string]any{"a": 1, "2": "b"}) {
		t.Fatalf("unexpected map: %v", m)
	}
	if _, ok := AsMap("scalar"); ok {
		t.Fatalf("expected scalar to be rejected")
	}
}

func TestLookup(t *testing.T) {
	bag := map[string]any{"present": "x", "null": nil}
	if _, ok := Lookup(bag, "present"); !ok {
		t.Fatalf("expected present key")
	}
	if _, ok := Lookup(bag, "null"); ok {
		t.Fatalf("expected nil value to count as absent")
	}
	if _, ok := Lookup(nil, "present"); ok {
		t.Fatalf("expected nil bag to be empty")
	}
}

func TestSortedKeysAndClone(t *testing.T) {
	m := map[string]string{"b": "2", "a": "1"}
	if got := SortedKeys(m); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected keys: %v", got)
	}
	clone := CloneStrings(m)
	clone["a"] = "changed"
	if m["a"] != "1" {
		t.Fatalf("expected clone to be independent")
	}
	if CloneStrings(nil) != nil {
		t.Fatalf("expected nil clone")
	}
}
