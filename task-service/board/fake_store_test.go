package board

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"taskboard/internal/events"
	"taskboard/task-service/domain"
	"taskboard/task-service/ordering"
)

type fakeItem struct {
	kind      domain.Kind
	id        string
	owner     string
	parent    string
	status    domain.Status
	priority  domain.Priority
	title     string
	completed bool
	position  int
	seq       int
	version   int
}

// fakeStore keeps committed rows in memory. A transaction takes its scope
// locks, then snapshots the committed rows and works on the copy without
// holding mu, so transactions of different scopes really interleave. Commit
// fails like a repeatable read conflict when a row it changed was changed by
// another transaction after the snapshot.
type fakeStore struct {
	mu    sync.Mutex
	items map[string]*fakeItem
	seq   int
	locks map[string]*sync.Mutex
	taken [][]string

	setPositionsErr error
	skipUpdates     bool
	txCount         int
}

var errSerialization = fmt.Errorf("%w: could not serialize access", domain.ErrTransaction)

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]*fakeItem{}, locks: map[string]*sync.Mutex{}}
}

func (s *fakeStore) add(it fakeItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	it.seq = s.seq
	s.items[it.id] = &it
}

func (s *fakeStore) nextSeq() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *fakeStore) snapshot() map[string]fakeItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]fakeItem, len(s.items))
	for id, it := range s.items {
		out[id] = *it
	}
	return out
}

// lock takes the scope locks of a transaction in sorted order.
func (s *fakeStore) lock(locks []domain.Container) func() {
	set := map[string]bool{}
	for _, c := range locks {
		set[c.Scope().String()] = true
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s.mu.Lock()
	s.taken = append(s.taken, keys)
	held := make([]*sync.Mutex, len(keys))
	for i, k := range keys {
		if s.locks[k] == nil {
			s.locks[k] = &sync.Mutex{}
		}
		held[i] = s.locks[k]
	}
	s.mu.Unlock()

	for _, m := range held {
		m.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (s *fakeStore) lastLocks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.taken) == 0 {
		return nil
	}
	return s.taken[len(s.taken)-1]
}

func (s *fakeStore) Locate(ctx context.Context, kind domain.Kind, ownerID, itemID string) (domain.Container, error) {
	it, err := s.read().owned(kind, ownerID, itemID)
	if err != nil {
		return domain.Container{}, err
	}
	return containerOf(it).Scope(), nil
}

func (s *fakeStore) InTx(ctx context.Context, locks []domain.Container, fn func(tx Tx) error) error {
	unlock := s.lock(locks)
	defer unlock()

	s.mu.Lock()
	s.txCount++
	base := make(map[string]fakeItem, len(s.items))
	work := make(map[string]*fakeItem, len(s.items))
	for id, it := range s.items {
		base[id] = *it
		cp := *it
		work[id] = &cp
	}
	s.mu.Unlock()

	if err := fn(&fakeTx{store: s, items: work}); err != nil {
		return err
	}
	return s.commit(base, work)
}

func (s *fakeStore) commit(base map[string]fakeItem, work map[string]*fakeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range base {
		if w, ok := work[id]; ok && *w == b {
			continue
		}
		if cur, ok := s.items[id]; !ok || cur.version != b.version {
			return errSerialization
		}
	}
	for id := range work {
		if _, ok := base[id]; !ok {
			if _, exists := s.items[id]; exists {
				return errSerialization
			}
		}
	}
	for id, b := range base {
		w, ok := work[id]
		switch {
		case !ok:
			delete(s.items, id)
		case *w != b:
			cp := *w
			cp.version = b.version + 1
			s.items[id] = &cp
		}
	}
	for id, w := range work {
		if _, ok := base[id]; !ok {
			cp := *w
			s.items[id] = &cp
		}
	}
	return nil
}

type fakeTx struct {
	store *fakeStore
	items map[string]*fakeItem
}

func ownerOf(items map[string]*fakeItem, it *fakeItem) string {
	if it.kind == domain.KindChecklist {
		if task, ok := items[it.parent]; ok {
			return task.owner
		}
		return ""
	}
	return it.owner
}

func containerOf(it *fakeItem) domain.Container {
	switch it.kind {
	case domain.KindTask:
		return domain.TaskColumn(it.parent, it.status)
	case domain.KindChecklist:
		return domain.ChecklistOf(it.parent)
	}
	return domain.ProjectList(it.owner)
}

func (tx *fakeTx) owned(kind domain.Kind, ownerID, id string) (*fakeItem, error) {
	it, ok := tx.items[id]
	if !ok || it.kind != kind || ownerOf(tx.items, it) != ownerID {
		return nil, domain.ErrNotFound
	}
	return it, nil
}

func (tx *fakeTx) GetPosition(ctx context.Context, kind domain.Kind, ownerID, itemID string) (domain.Placement, error) {
	it, err := tx.owned(kind, ownerID, itemID)
	if err != nil {
		return domain.Placement{}, err
	}
	return domain.Placement{Container: containerOf(it), Position: it.position}, nil
}

func (tx *fakeTx) CheckContainer(ctx context.Context, ownerID string, c domain.Container) error {
	switch c.Kind {
	case domain.KindTask:
		_, err := tx.owned(domain.KindProject, ownerID, c.Parent)
		return err
	case domain.KindChecklist:
		_, err := tx.owned(domain.KindTask, ownerID, c.Parent)
		return err
	}
	if c.Parent != ownerID {
		return domain.ErrNotFound
	}
	return nil
}

func (tx *fakeTx) members(c domain.Container) []*fakeItem {
	var out []*fakeItem
	for _, it := range tx.items {
		if it.kind == c.Kind && containerOf(it) == c {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].position != out[j].position {
			return out[i].position < out[j].position
		}
		return out[i].seq < out[j].seq
	})
	return out
}

func (tx *fakeTx) ContainerSlots(ctx context.Context, c domain.Container) ([]ordering.Slot, error) {
	var slots []ordering.Slot
	for _, it := range tx.members(c) {
		slots = append(slots, ordering.Slot{ID: it.id, Position: it.position})
	}
	return slots, nil
}

func (tx *fakeTx) MaxPosition(ctx context.Context, c domain.Container) (int, bool, error) {
	m := tx.members(c)
	if len(m) == 0 {
		return 0, false, nil
	}
	return m[len(m)-1].position, true, nil
}

func (tx *fakeTx) SetPositions(ctx context.Context, ownerID string, c domain.Container, updates []ordering.Update) error {
	if tx.store.setPositionsErr != nil {
		return tx.store.setPositionsErr
	}
	applied := 0
	for i, u := range updates {
		if tx.store.skipUpdates && i == 0 {
			continue
		}
		it, err := tx.owned(c.Kind, ownerID, u.ID)
		if err != nil || it.parent != c.Parent && c.Kind != domain.KindProject {
			continue
		}
		it.position = u.Position
		if u.Relocate && c.Kind == domain.KindTask {
			it.status = c.Status
		}
		applied++
	}
	if applied != len(updates) && !tx.store.skipUpdates {
		return domain.ErrNotFound
	}
	return nil
}

func (tx *fakeTx) InsertTask(ctx context.Context, ownerID, projectID string, t domain.NewTask, position int) (domain.Task, error) {
	it := &fakeItem{kind: domain.KindTask, id: t.ID, owner: ownerID, parent: projectID, status: t.Status, priority: t.Priority, title: t.Title, position: position, seq: tx.store.nextSeq()}
	tx.items[it.id] = it
	return toTask(it), nil
}

func (tx *fakeTx) InsertProject(ctx context.Context, ownerID string, p domain.NewProject, position int) (domain.Project, error) {
	it := &fakeItem{kind: domain.KindProject, id: p.ID, owner: ownerID, parent: ownerID, title: p.Name, position: position, seq: tx.store.nextSeq()}
	tx.items[it.id] = it
	return domain.Project{ID: it.id, OwnerID: ownerID, Name: it.title, Color: p.Color, Position: position}, nil
}

func (tx *fakeTx) InsertChecklistItem(ctx context.Context, ownerID, taskID, itemID, title string, position int) (domain.ChecklistItem, error) {
	if _, err := tx.owned(domain.KindTask, ownerID, taskID); err != nil {
		return domain.ChecklistItem{}, err
	}
	it := &fakeItem{kind: domain.KindChecklist, id: itemID, parent: taskID, title: title, position: position, seq: tx.store.nextSeq()}
	tx.items[it.id] = it
	return toChecklist(it), nil
}

func (tx *fakeTx) UpdateFields(ctx context.Context, kind domain.Kind, ownerID, itemID string, fields domain.FieldSet) error {
	it, err := tx.owned(kind, ownerID, itemID)
	if err != nil {
		return err
	}
	for _, f := range fields.Fields() {
		switch f.Name {
		case "title", "name":
			it.title = f.Value.(string)
		case "priority":
			it.priority = domain.Priority(f.Value.(string))
		case "is_completed":
			it.completed = f.Value.(bool)
		}
	}
	return nil
}

func (tx *fakeTx) ToggleChecklistItem(ctx context.Context, ownerID, itemID string) error {
	it, err := tx.owned(domain.KindChecklist, ownerID, itemID)
	if err != nil {
		return err
	}
	it.completed = !it.completed
	return nil
}

func (tx *fakeTx) Delete(ctx context.Context, kind domain.Kind, ownerID, itemID string) error {
	if _, err := tx.owned(kind, ownerID, itemID); err != nil {
		return err
	}
	gone := map[string]bool{itemID: true}
	delete(tx.items, itemID)
	for removed := true; removed; {
		removed = false
		for id, it := range tx.items {
			if it.kind != domain.KindProject && gone[it.parent] {
				gone[id] = true
				delete(tx.items, id)
				removed = true
			}
		}
	}
	return nil
}

func toTask(it *fakeItem) domain.Task {
	return domain.Task{ID: it.id, ProjectID: it.parent, OwnerID: it.owner, Title: it.title, Status: it.status, Priority: it.priority, Position: it.position, CreatedAt: time.Unix(int64(it.seq), 0)}
}

func toChecklist(it *fakeItem) domain.ChecklistItem {
	return domain.ChecklistItem{ID: it.id, TaskID: it.parent, Title: it.title, Completed: it.completed, Position: it.position}
}

// read returns a copy of the committed rows.
func (s *fakeStore) read() *fakeTx {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make(map[string]*fakeItem, len(s.items))
	for id, it := range s.items {
		cp := *it
		items[id] = &cp
	}
	return &fakeTx{store: s, items: items}
}

func (s *fakeStore) ListTasks(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error) {
	tx := s.read()
	if _, err := tx.owned(domain.KindProject, ownerID, projectID); err != nil {
		return nil, err
	}
	var out []domain.Task
	for _, it := range tx.items {
		if it.kind == domain.KindTask && it.parent == projectID && (filter.Status == "" || it.status == filter.Status) {
			out = append(out, toTask(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessByPosition(out[i], out[j]) })
	return out, nil
}

func (s *fakeStore) GetTask(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	tx := s.read()
	it, err := tx.owned(domain.KindTask, ownerID, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	return toTask(it), nil
}

func (s *fakeStore) CountByStatus(ctx context.Context, ownerID, projectID string) (domain.StatusCounts, error) {
	tasks, err := s.ListTasks(ctx, ownerID, projectID, domain.TaskFilter{})
	if err != nil {
		return domain.StatusCounts{}, err
	}
	return CountTasks(tasks), nil
}

func (s *fakeStore) ListProjects(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	tx := s.read()
	var out []domain.ProjectSummary
	for _, it := range tx.members(domain.ProjectList(ownerID)) {
		out = append(out, domain.ProjectSummary{Project: domain.Project{ID: it.id, OwnerID: it.owner, Name: it.title, Position: it.position}})
	}
	return out, nil
}

func (s *fakeStore) GetProject(ctx context.Context, ownerID, projectID string) (domain.ProjectSummary, error) {
	tx := s.read()
	it, err := tx.owned(domain.KindProject, ownerID, projectID)
	if err != nil {
		return domain.ProjectSummary{}, err
	}
	return domain.ProjectSummary{Project: domain.Project{ID: it.id, OwnerID: it.owner, Name: it.title, Position: it.position}}, nil
}

func (s *fakeStore) ListChecklist(ctx context.Context, ownerID, taskID string) ([]domain.ChecklistItem, error) {
	tx := s.read()
	if _, err := tx.owned(domain.KindTask, ownerID, taskID); err != nil {
		return nil, err
	}
	var out []domain.ChecklistItem
	for _, it := range tx.members(domain.ChecklistOf(taskID)) {
		out = append(out, toChecklist(it))
	}
	return out, nil
}

func (s *fakeStore) GetChecklistItem(ctx context.Context, ownerID, itemID string) (domain.ChecklistItem, error) {
	tx := s.read()
	it, err := tx.owned(domain.KindChecklist, ownerID, itemID)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	return toChecklist(it), nil
}

type fakeCache struct {
	mu      sync.Mutex
	evicted []string
}

func (c *fakeCache) Evict(ctx context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evicted = append(c.evicted, ownerID)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, ev)
}

var errBoom = errors.New("boom")
