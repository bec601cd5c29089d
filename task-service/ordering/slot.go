// Package ordering plans position changes for items kept in dense, zero-based
// sequences. It never touches storage: callers pass the current slots of a
// container and apply the returned updates inside their own transaction.
package ordering

import "sort"

// Slot is the current position of one item inside its container.
type Slot struct {
	ID       string
	Position int
}

// Update assigns a new position to an item. Relocate is set for the single
// item that changes container during a cross-container move.
type Update struct {
	ID       string
	Position int
	Relocate bool
}

// Plan is the outcome of a planning call. Source and Destination hold the
// projected state of the touched containers once Updates are applied;
// Destination is nil when only one container is involved.
type Plan struct {
	Updates     []Update
	Source      []Slot
	Destination []Slot
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool { return len(p.Updates) == 0 }

// Apply returns a copy of slots with the planned positions written over the
// matching ids, sorted by position.
func Apply(slots []Slot, updates []Update) []Slot {
	next := make(map[string]int, len(updates))
	for _, u := range updates {
		next[u.ID] = u.Position
	}
	out := make([]Slot, len(slots))
	for i, s := range slots {
		if pos, ok := next[s.ID]; ok {
			s.Position = pos
		}
		out[i] = s
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// sequence returns the ids of slots ordered by position. Slots sharing a
// position keep their input order, which the store makes deterministic.
func sequence(slots []Slot) []string {
	sorted := append([]Slot(nil), slots...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	ids := make([]string, len(sorted))
	for i, s := range sorted {
		ids[i] = s.ID
	}
	return ids
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func without(ids []string, at int) []string {
	out := make([]string, 0, len(ids)-1)
	out = append(out, ids[:at]...)
	return append(out, ids[at+1:]...)
}

func insertAt(ids []string, at int, id string) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:at]...)
	out = append(out, id)
	return append(out, ids[at:]...)
}

// diff emits an update for every id of order whose index differs from its
// current position.
func diff(current []Slot, order []string) []Update {
	positions := make(map[string]int, len(current))
	for _, s := range current {
		positions[s.ID] = s.Position
	}
	var updates []Update
	for i, id := range order {
		if pos, ok := positions[id]; ok && pos == i {
			continue
		}
		updates = append(updates, Update{ID: id, Position: i})
	}
	return updates
}

func slotsOf(order []string) []Slot {
	out := make([]Slot, len(order))
	for i, id := range order {
		out[i] = Slot{ID: id, Position: i}
	}
	return out
}
