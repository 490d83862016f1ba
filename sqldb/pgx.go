package sqldb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bawdo/sqlwrapper/results"
	"github.com/bawdo/sqlwrapper/visitors"
)

// PgxQuerier is implemented by *pgxpool.Pool, *pgxpool.Conn, *pgx.Conn and
// pgx.Tx.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxExecutor executes statements through native pgx. Sequences bound with
// ANY are sent as PostgreSQL arrays.
type PgxExecutor struct {
	q       PgxQuerier
	dialect *visitors.Dialect
	types   *pgtype.Map
	opts    options
}

// NewPgxExecutor wraps q. For transactions pass a *pgxpool.Conn or
// *pgx.Conn so that all statements share one session.
func NewPgxExecutor(q PgxQuerier, opts ...Option) *PgxExecutor {
	return &PgxExecutor{
		q:       q,
		dialect: visitors.NewPostgresDialect(),
		types:   pgtype.NewMap(),
		opts:    buildOptions(opts),
	}
}

// OpenPool parses dsn, creates a pool and pings it.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Execute runs one statement and reads at most maxRows rows.
func (e *PgxExecutor) Execute(ctx context.Context, sqlText string, maxRows int, params map[string]any) (*results.Result, error) {
	query, args, err := e.dialect.Rebind(sqlText, params)
	if err != nil {
		return nil, err
	}
	e.opts.logger.Debug("execute", "engine", "pgx", "sql", query, "args", len(args))
	rows, err := e.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	res := &results.Result{Columns: make([]results.Column, len(fields))}
	for i, fd := range fields {
		col := results.Column{Name: fd.Name}
		if t, ok := e.types.TypeForOID(fd.DataTypeOID); ok {
			col.Type = t.Name
		}
		res.Columns[i] = col
	}
	for rows.Next() {
		if maxRows > 0 && len(res.Rows) >= maxRows {
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		res.Rows = append(res.Rows, vals)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return res, nil
}
