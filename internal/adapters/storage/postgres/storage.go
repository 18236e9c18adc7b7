// Package postgres stores progress records in a relational table. Updates
// only touch existing rows; a player without a row is never created here.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"network-leveling/internal/adapters/metrics"
	"network-leveling/internal/core/domain"
	"network-leveling/internal/wire"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const backendName = "postgres"

// DBTX is the subset of pgxpool.Pool the ledger uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
}

type Options struct {
	URL            string
	Table          string
	MinConns       int32
	MaxConns       int32
	AcquireTimeout time.Duration
}

type PostgresLedger struct {
	pool    *pgxpool.Pool
	db      DBTX
	table   string
	timeout time.Duration
}

func NewPostgresLedger(ctx context.Context, opts Options) (*PostgresLedger, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := withTimeout(ctx, opts.AcquireTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	l := newPostgresLedger(pool, opts.Table, opts.AcquireTimeout)
	l.pool = pool
	return l, nil
}

func newPostgresLedger(db DBTX, table string, timeout time.Duration) *PostgresLedger {
	return &PostgresLedger{db: db, table: table, timeout: timeout}
}

func (l *PostgresLedger) Close() error {
	if l.pool != nil {
		l.pool.Close()
	}
	return nil
}

// EnsureSchema creates the progress table if it does not exist yet.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	uuid TEXT PRIMARY KEY,
	level INTEGER NOT NULL DEFAULT 1,
	experience BIGINT NOT NULL DEFAULT 0
)`, pgx.Identifier{l.table}.Sanitize())

	if _, err := l.db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("%w: create table %s: %v", domain.ErrLedgerUnavailable, l.table, err)
	}
	return nil
}

func (l *PostgresLedger) Find(ctx context.Context, key string, value any) (docs []domain.Document, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedger(backendName, "find", start, err) }()

	if key == "" {
		return nil, fmt.Errorf("%w: empty key", domain.ErrUnsupportedQuery)
	}

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", pgx.Identifier{l.table}.Sanitize(), pgx.Identifier{key}.Sanitize())
	rows, err := l.db.Query(ctx, sql, value)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", domain.ErrLedgerUnavailable, l.table, err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrLedgerUnavailable, l.table, err)
	}

	docs = make([]domain.Document, 0, len(maps))
	for _, m := range maps {
		docs = append(docs, domain.Document(m))
	}
	return docs, nil
}

// Update sets fields on the row where keyWhere = valueWhere. It reports
// false without error when no row matched.
func (l *PostgresLedger) Update(ctx context.Context, keyWhere string, valueWhere any, fields []wire.Field) (ok bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveLedger(backendName, "update", start, err) }()

	if keyWhere == "" || len(fields) == 0 {
		return false, fmt.Errorf("%w: update needs a key and at least one field", domain.ErrUnsupportedQuery)
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		if f.Name == "" {
			return false, fmt.Errorf("%w: empty field name", domain.ErrUnsupportedQuery)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{f.Name}.Sanitize(), i+1))
		args = append(args, f.Value)
	}
	args = append(args, valueWhere)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		pgx.Identifier{l.table}.Sanitize(),
		strings.Join(sets, ", "),
		pgx.Identifier{keyWhere}.Sanitize(),
		len(args),
	)

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	tag, err := l.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("%w: update %s: %v", domain.ErrLedgerUnavailable, l.table, err)
	}
	return tag.RowsAffected() > 0, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
