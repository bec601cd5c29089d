package ordering

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownItem   = errors.New("item not in container")
	ErrNegativeIndex = errors.New("index must not be negative")
	ErrDuplicateID   = errors.New("duplicate id in order")
	ErrEmptyOrder    = errors.New("order must not be empty")
)

// InvariantError reports a container whose positions are not exactly 0..n-1.
type InvariantError struct {
	Size       int
	Missing    []int
	Duplicates []int
	Stray      []int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("positions not dense for %d items: missing=%v duplicates=%v out_of_range=%v",
		e.Size, e.Missing, e.Duplicates, e.Stray)
}
