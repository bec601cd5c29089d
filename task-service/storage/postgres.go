package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"taskboard/task-service/board"
	"taskboard/task-service/domain"
	"taskboard/task-service/ordering"
)

const unlockTimeout = 5 * time.Second

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	URL               string
	MaxConns          int32
	MinConns          int32
	HealthCheckPeriod time.Duration
}

// NewPool connects to Postgres and verifies the connection. Idle connections
// are checked every HealthCheckPeriod.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = cfg.HealthCheckPeriod
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// ParseIsolation maps a configuration value to a transaction isolation level.
// Anything weaker than repeatable read is refused.
func ParseIsolation(s string) (pgx.TxIsoLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "repeatable_read", "repeatable read":
		return pgx.RepeatableRead, nil
	case "serializable":
		return pgx.Serializable, nil
	}
	return "", fmt.Errorf("unsupported transaction isolation %q", s)
}

// Postgres is the board store backed by a pgx pool.
type Postgres struct {
	pool      *pgxpool.Pool
	isolation pgx.TxIsoLevel
	retries   int
	log       *log.Logger
}

var _ board.Store = (*Postgres)(nil)

// NewPostgres creates a store running transactions at isolation. Connection
// failures that happen before a statement reaches the server are retried up
// to retries times.
func NewPostgres(pool *pgxpool.Pool, isolation pgx.TxIsoLevel, retries int, logger *log.Logger) *Postgres {
	if isolation == "" {
		isolation = pgx.RepeatableRead
	}
	if retries < 0 {
		retries = 0
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Postgres{pool: pool, isolation: isolation, retries: retries, log: logger}
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Locate resolves the container scope of an item outside any transaction.
func (p *Postgres) Locate(ctx context.Context, kind domain.Kind, ownerID, itemID string) (domain.Container, error) {
	var parent string
	switch kind {
	case domain.KindTask:
		err := p.pool.QueryRow(ctx, `SELECT project_id::text FROM tasks WHERE id = $1 AND user_id = $2`, itemID, ownerID).Scan(&parent)
		if err != nil {
			return domain.Container{}, notFound(err, "locate task")
		}
		return domain.TaskColumn(parent, ""), nil
	case domain.KindChecklist:
		err := p.pool.QueryRow(ctx,
			`SELECT c.task_id::text FROM checklists c JOIN tasks t ON t.id = c.task_id WHERE c.id = $1 AND t.user_id = $2`,
			itemID, ownerID).Scan(&parent)
		if err != nil {
			return domain.Container{}, notFound(err, "locate checklist item")
		}
		return domain.ChecklistOf(parent), nil
	case domain.KindProject:
		return domain.ProjectList(ownerID), nil
	}
	return domain.Container{}, domain.Invalid("kind", "unknown item kind %q", kind)
}

// InTx runs fn in one transaction. Logical conflicts (serialization failures,
// deadlocks, unique violations) are never retried and surface as
// domain.ErrTransaction.
func (p *Postgres) InTx(ctx context.Context, locks []domain.Container, fn func(tx board.Tx) error) error {
	keys := lockKeys(locks)
	for attempt := 0; ; attempt++ {
		err := p.runTx(ctx, keys, fn)
		if err == nil {
			return nil
		}
		if attempt < p.retries && retryable(err) && ctx.Err() == nil {
			p.log.WithError(err).WithField("attempt", attempt+1).Warn("retrying transaction after connection failure")
			continue
		}
		return classify(err)
	}
}

// lockKeys returns the sorted, distinct advisory lock keys of locks. Taking
// them in one global order keeps multi-scope writers free of deadlocks.
func lockKeys(locks []domain.Container) []string {
	keys := make([]string, 0, len(locks))
	for _, c := range locks {
		if c.Kind == "" {
			continue
		}
		keys = append(keys, c.Scope().String())
	}
	sort.Strings(keys)
	return slices.Compact(keys)
}

type commitError struct{ err error }

func (e *commitError) Error() string { return "commit: " + e.err.Error() }
func (e *commitError) Unwrap() error { return e.err }

// runTx takes session advisory locks before BEGIN. A repeatable read snapshot
// is fixed by the first statement of the transaction, so a lock taken inside
// it would leave writes committed while waiting invisible.
func (p *Postgres) runTx(ctx context.Context, keys []string, fn func(tx board.Tx) error) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if len(keys) > 0 {
		defer p.unlock(conn)
		for _, key := range keys {
			if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, key); err != nil {
				return fmt.Errorf("lock %s: %w", key, err)
			}
		}
	}

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: p.isolation})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &commitError{err: err}
	}
	return nil
}

// unlock releases the session locks of conn. A connection that may still hold
// one is closed so the pool discards it on release.
func (p *Postgres) unlock(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
	defer cancel()
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock_all()`); err != nil {
		p.log.WithError(err).Warn("advisory unlock failed, dropping connection")
		_ = conn.Conn().Close(ctx)
	}
}

// retryable reports connection-level failures. An interrupted commit is never
// retried because its outcome is unknown.
func retryable(err error) bool {
	var ce *commitError
	if errors.As(err, &ce) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08 is connection exception; 57P01 is admin shutdown
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01"
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr) || pgconn.SafeToRetry(err)
}

// classify keeps domain errors intact and folds every database failure into
// domain.ErrTransaction.
func classify(err error) error {
	var inv *ordering.InvariantError
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrTransaction),
		domain.IsValidation(err),
		errors.As(err, &inv):
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (SQLSTATE %s)", domain.ErrTransaction, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %v", domain.ErrTransaction, err)
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
