package ordering

import (
	"errors"
	"reflect"
	"testing"
)

func TestCheckDense(t *testing.T) {
	if err := CheckDense(nil); err != nil {
		t.Fatalf("empty container is dense: %v", err)
	}
	if err := CheckDense([]Slot{{"b", 1}, {"a", 0}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := CheckDense([]Slot{{"a", 0}, {"b", 0}, {"c", 5}})
	var inv *InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
	if !reflect.DeepEqual(inv.Duplicates, []int{0}) || !reflect.DeepEqual(inv.Stray, []int{5}) {
		t.Fatalf("unexpected report %+v", inv)
	}
	if !reflect.DeepEqual(inv.Missing, []int{1, 2}) {
		t.Fatalf("expected missing 1 and 2, got %v", inv.Missing)
	}
}
