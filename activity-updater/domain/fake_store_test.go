package domain

import (
	"context"
	"sync"

	"taskboard/internal/activity"
)

type fakeStore struct {
	mu      sync.Mutex
	entries map[string]activity.Entry
	inserts int
	err     error
}

func (f *fakeStore) InsertEntry(ctx context.Context, ent activity.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.err != nil {
		return f.err
	}
	if f.entries == nil {
		f.entries = map[string]activity.Entry{}
	}
	key := ent.PartitionKey + "/" + ent.RowKey
	if _, exists := f.entries[key]; exists {
		return ErrDuplicate
	}
	f.entries[key] = ent
	return nil
}
