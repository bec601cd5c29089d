package board

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/events"
	"taskboard/task-service/domain"
	"taskboard/task-service/ordering"
)

// AppendIndex moves an item to the end of its destination container.
const AppendIndex = math.MaxInt32

// Service runs every position change of the board inside one store
// transaction and publishes the committed result.
type Service struct {
	store     Store
	reader    Reader
	cache     Cache
	publisher Publisher
	notes     Notes
	now       func() time.Time
	log       *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithReader serves list and get calls from r instead of the store.
func WithReader(r Reader) Option { return func(s *Service) { s.reader = r } }

// WithCache evicts cached reads of an owner after each committed write.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithPublisher forwards committed changes as board events.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.publisher = p } }

// WithNotes serves daily notes from n. A store that implements Notes is used
// by default.
func WithNotes(n Notes) Option { return func(s *Service) { s.notes = n } }

func NewService(store Store, logger *log.Logger, opts ...Option) *Service {
	s := &Service{store: store, reader: store, now: time.Now, log: logger}
	if n, ok := store.(Notes); ok {
		s.notes = n
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = log.StandardLogger()
	}
	return s
}

// moveResult describes a committed or planned relocation.
type moveResult struct {
	from    domain.Placement
	to      domain.Placement
	shifted int
}

func (r moveResult) noop() bool { return r.from == r.to && r.shifted == 0 }

// move relocates itemID inside tx. For tasks a non-empty status selects the
// destination column; every other kind stays in its container.
func (s *Service) move(ctx context.Context, tx Tx, kind domain.Kind, ownerID, itemID string, status domain.Status, index int) (moveResult, error) {
	from, err := tx.GetPosition(ctx, kind, ownerID, itemID)
	if err != nil {
		return moveResult{}, err
	}
	dest := from.Container
	if kind == domain.KindTask && status != "" {
		dest.Status = status
	}
	same := dest == from.Container

	source, err := tx.ContainerSlots(ctx, from.Container)
	if err != nil {
		return moveResult{}, err
	}
	var destination []ordering.Slot
	if !same {
		if destination, err = tx.ContainerSlots(ctx, dest); err != nil {
			return moveResult{}, err
		}
	}

	plan, err := ordering.PlanMove(source, destination, itemID, index, same)
	if err != nil {
		return moveResult{}, planError(err)
	}
	if plan.Empty() {
		return moveResult{from: from, to: from}, nil
	}
	to := domain.Placement{Container: dest}
	for _, u := range plan.Updates {
		if u.ID == itemID {
			to.Position = u.Position
		}
	}
	if err := checkProjected(plan); err != nil {
		return moveResult{}, err
	}
	if err := tx.SetPositions(ctx, ownerID, dest, plan.Updates); err != nil {
		return moveResult{}, err
	}
	containers := []domain.Container{from.Container}
	if !same {
		containers = append(containers, dest)
	}
	if err := verifyDense(ctx, tx, containers...); err != nil {
		return moveResult{}, err
	}
	return moveResult{from: from, to: to, shifted: len(plan.Updates) - 1}, nil
}

// reindex applies the full-reindex protocol to container c.
func (s *Service) reindex(ctx context.Context, tx Tx, ownerID string, c domain.Container, orderedIDs []string) (int, error) {
	if err := tx.CheckContainer(ctx, ownerID, c); err != nil {
		return 0, err
	}
	slots, err := tx.ContainerSlots(ctx, c)
	if err != nil {
		return 0, err
	}
	plan, err := ordering.PlanReindex(slots, orderedIDs)
	if err != nil {
		return 0, planError(err)
	}
	if plan.Empty() {
		return 0, nil
	}
	if err := checkProjected(plan); err != nil {
		return 0, err
	}
	if err := tx.SetPositions(ctx, ownerID, c, plan.Updates); err != nil {
		return 0, err
	}
	return len(plan.Updates), verifyDense(ctx, tx, c)
}

// compact closes any gap in c, used after a deletion.
func (s *Service) compact(ctx context.Context, tx Tx, ownerID string, c domain.Container, removedID string) (int, error) {
	slots, err := tx.ContainerSlots(ctx, c)
	if err != nil {
		return 0, err
	}
	plan := ordering.PlanRemoval(slots, removedID)
	if !plan.Empty() {
		if err := tx.SetPositions(ctx, ownerID, c, plan.Updates); err != nil {
			return 0, err
		}
	}
	return len(plan.Updates), verifyDense(ctx, tx, c)
}

// insertSlot returns the position a new item of c is written at. A nil index
// appends; otherwise siblings at or after the clamped index shift down.
func (s *Service) insertSlot(ctx context.Context, tx Tx, ownerID string, c domain.Container, newID string, index *int) (int, error) {
	if index == nil {
		highest, ok, err := tx.MaxPosition(ctx, c)
		if err != nil {
			return 0, err
		}
		return ordering.NextPosition(highest, ok), nil
	}
	slots, err := tx.ContainerSlots(ctx, c)
	if err != nil {
		return 0, err
	}
	plan, pos, err := ordering.PlanInsert(slots, newID, *index)
	if err != nil {
		return 0, planError(err)
	}
	if !plan.Empty() {
		if err := tx.SetPositions(ctx, ownerID, c, plan.Updates); err != nil {
			return 0, err
		}
	}
	return pos, nil
}

func checkProjected(plan ordering.Plan) error {
	if err := ordering.CheckDense(plan.Source); err != nil {
		return fmt.Errorf("planned source: %w", err)
	}
	if plan.Destination != nil {
		if err := ordering.CheckDense(plan.Destination); err != nil {
			return fmt.Errorf("planned destination: %w", err)
		}
	}
	return nil
}

// verifyDense re-reads containers inside the transaction so a store that
// applied fewer or different updates than planned is caught before commit.
func verifyDense(ctx context.Context, tx Tx, containers ...domain.Container) error {
	for _, c := range containers {
		slots, err := tx.ContainerSlots(ctx, c)
		if err != nil {
			return err
		}
		if err := ordering.CheckDense(slots); err != nil {
			return fmt.Errorf("container %s: %w", c, err)
		}
	}
	return nil
}

func planError(err error) error {
	switch {
	case errors.Is(err, ordering.ErrUnknownItem):
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case errors.Is(err, ordering.ErrNegativeIndex):
		return domain.Invalid("position", "must be a non-negative integer")
	case errors.Is(err, ordering.ErrDuplicateID), errors.Is(err, ordering.ErrEmptyOrder):
		return domain.Invalid("orderedIds", "%v", err)
	}
	return err
}

// inItemTx runs fn serialized with every other writer of the item's scope
// and of extra.
func (s *Service) inItemTx(ctx context.Context, op string, kind domain.Kind, ownerID, itemID string, fn func(tx Tx) error, extra ...domain.Container) error {
	scope, err := s.store.Locate(ctx, kind, ownerID, itemID)
	if err != nil {
		return err
	}
	return s.inTx(ctx, op, ownerID, append([]domain.Container{scope}, extra...), fn)
}

// inTx runs fn in a store transaction and reports broken position invariants.
func (s *Service) inTx(ctx context.Context, op, ownerID string, locks []domain.Container, fn func(tx Tx) error) error {
	err := s.store.InTx(ctx, locks, fn)
	var inv *ordering.InvariantError
	if errors.As(err, &inv) {
		s.log.WithFields(log.Fields{
			"operation":  op,
			"owner":      ownerID,
			"size":       inv.Size,
			"missing":    inv.Missing,
			"duplicates": inv.Duplicates,
			"stray":      inv.Stray,
		}).WithError(err).Error("position invariant violated, transaction rolled back")
		invariantViolations.WithLabelValues(op).Inc()
		return fmt.Errorf("%w: %v", domain.ErrTransaction, err)
	}
	return err
}

// committed evicts the owner's cached reads and publishes ev.
func (s *Service) committed(ctx context.Context, ownerID, eventType string, kind domain.Kind, entityID string, data events.ChangeData) {
	if s.cache != nil {
		if err := s.cache.Evict(ctx, ownerID); err != nil {
			s.log.WithError(err).WithField("owner", ownerID).Warn("cache eviction failed")
		}
	}
	if s.publisher == nil {
		return
	}
	ev, err := events.New(eventType, string(kind), entityID, ownerID, data)
	if err != nil {
		s.log.WithError(err).Error("build board event")
		return
	}
	s.publisher.Publish(ctx, ev)
}

func location(p domain.Placement) *events.Location {
	return &events.Location{Container: p.Container.String(), Status: string(p.Container.Status), Position: p.Position}
}
