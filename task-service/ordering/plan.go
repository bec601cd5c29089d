package ordering

import "fmt"

// PlanMove relocates itemID to index. With sameContainer set the destination
// slots are ignored and the item moves inside source.
//
// Indexes past the end are clamped to append. A same-container move to the
// item's current position yields an empty plan. Every other plan is derived
// from the full reindexed order of each container, so containers that carried
// gaps come out dense.
func PlanMove(source, destination []Slot, itemID string, index int, sameContainer bool) (Plan, error) {
	if index < 0 {
		return Plan{}, ErrNegativeIndex
	}
	src := sequence(source)
	at := indexOf(src, itemID)
	if at < 0 {
		return Plan{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	rest := without(src, at)

	if sameContainer {
		if index > len(rest) {
			index = len(rest)
		}
		if current := positionOf(source, itemID); index == current {
			return Plan{Source: Apply(source, nil)}, nil
		}
		order := insertAt(rest, index, itemID)
		return Plan{Updates: diff(source, order), Source: slotsOf(order)}, nil
	}

	dst := sequence(destination)
	if indexOf(dst, itemID) >= 0 {
		return Plan{}, fmt.Errorf("%w: %s already in destination", ErrDuplicateID, itemID)
	}
	if index > len(dst) {
		index = len(dst)
	}
	order := insertAt(dst, index, itemID)

	updates := diff(source, rest)
	for _, u := range diff(destination, order) {
		if u.ID == itemID {
			continue
		}
		updates = append(updates, u)
	}
	updates = append(updates, Update{ID: itemID, Position: index, Relocate: true})
	return Plan{Updates: updates, Source: slotsOf(rest), Destination: slotsOf(order)}, nil
}

// PlanReindex applies the full-reindex protocol: ids listed in orderedIDs take
// positions 0..k-1 in that order and the remaining items follow in their
// current relative order.
func PlanReindex(current []Slot, orderedIDs []string) (Plan, error) {
	if len(orderedIDs) == 0 {
		return Plan{}, ErrEmptyOrder
	}
	seq := sequence(current)
	listed := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := listed[id]; dup {
			return Plan{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		if indexOf(seq, id) < 0 {
			return Plan{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		listed[id] = struct{}{}
	}
	order := append([]string(nil), orderedIDs...)
	for _, id := range seq {
		if _, ok := listed[id]; !ok {
			order = append(order, id)
		}
	}
	return Plan{Updates: diff(current, order), Source: slotsOf(order)}, nil
}

// PlanRemoval closes the gap left by deleting itemID. An id that is not in
// current only compacts the remaining slots.
func PlanRemoval(current []Slot, itemID string) Plan {
	seq := sequence(current)
	if at := indexOf(seq, itemID); at >= 0 {
		seq = without(seq, at)
	}
	return Plan{Updates: diff(current, seq), Source: slotsOf(seq)}
}

// PlanInsert opens a slot at index for a new item that is not stored yet. The
// returned position is the clamped index the new item must be written with.
func PlanInsert(current []Slot, itemID string, index int) (Plan, int, error) {
	if index < 0 {
		return Plan{}, 0, ErrNegativeIndex
	}
	seq := sequence(current)
	if indexOf(seq, itemID) >= 0 {
		return Plan{}, 0, fmt.Errorf("%w: %s", ErrDuplicateID, itemID)
	}
	if index > len(seq) {
		index = len(seq)
	}
	order := insertAt(seq, index, itemID)
	var updates []Update
	for _, u := range diff(current, order) {
		if u.ID != itemID {
			updates = append(updates, u)
		}
	}
	return Plan{Updates: updates, Source: slotsOf(order)}, index, nil
}

// NextPosition returns the append position for a container whose highest
// position is highest; ok is false for an empty container.
func NextPosition(highest int, ok bool) int {
	if !ok {
		return 0
	}
	return highest + 1
}

// CheckDense verifies that slots occupy exactly positions 0..n-1.
func CheckDense(slots []Slot) error {
	n := len(slots)
	seen := make([]int, n)
	var stray, dups []int
	for _, s := range slots {
		if s.Position < 0 || s.Position >= n {
			stray = append(stray, s.Position)
			continue
		}
		seen[s.Position]++
		if seen[s.Position] == 2 {
			dups = append(dups, s.Position)
		}
	}
	var missing []int
	for pos, count := range seen {
		if count == 0 {
			missing = append(missing, pos)
		}
	}
	if len(missing) == 0 && len(dups) == 0 && len(stray) == 0 {
		return nil
	}
	return &InvariantError{Size: n, Missing: missing, Duplicates: dups, Stray: stray}
}

func positionOf(slots []Slot, id string) int {
	for _, s := range slots {
		if s.ID == id {
			return s.Position
		}
	}
	return -1
}
