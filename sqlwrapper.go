// Package sqlwrapper builds parameterized SQL statements from plain table
// names and value maps and runs them on PostgreSQL, MySQL or SQLite.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/sqlwrapper/managers (statement builders)
//   - github.com/bawdo/sqlwrapper/visitors (SQL text and dialects)
//   - github.com/bawdo/sqlwrapper/adapter (statement execution and transactions)
//   - github.com/bawdo/sqlwrapper/sqldb (database/sql and pgx executors)
package sqlwrapper

import (
	"context"
	"log/slog"

	"github.com/bawdo/sqlwrapper/adapter"
	"github.com/bawdo/sqlwrapper/clauses"
	"github.com/bawdo/sqlwrapper/managers"
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
	"github.com/bawdo/sqlwrapper/results"
	"github.com/bawdo/sqlwrapper/sqldb"
	"github.com/bawdo/sqlwrapper/visitors"
)

// --- Value Types ---

// Values maps field names to values.
type Values = nodes.Values

// Record is one result row keyed by column name.
type Record = results.Record

// GroupSpec describes one column of a grouped query.
type GroupSpec = clauses.GroupSpec

// Transformer rewrites statements before rendering.
type Transformer = plugins.Transformer

// --- Builders ---

// NewSelect creates a SelectManager reading from table.
func NewSelect(table string) *managers.SelectManager {
	return managers.NewSelectManager(table)
}

// NewInsert creates an InsertManager writing into table.
func NewInsert(table string) *managers.InsertManager {
	return managers.NewInsertManager(table)
}

// NewUpdate creates an UpdateManager for table.
func NewUpdate(table string) *managers.UpdateManager {
	return managers.NewUpdateManager(table)
}

// NewDelete creates a DeleteManager for table.
func NewDelete(table string) *managers.DeleteManager {
	return managers.NewDeleteManager(table)
}

// NewGrouping creates a GroupingManager over a table or view.
func NewGrouping(source string) *managers.GroupingManager {
	return managers.NewGroupingManager(source)
}

// NewVisitor returns the visitor rendering %(name)s placeholders.
func NewVisitor() nodes.Visitor {
	return visitors.NewPyformatVisitor()
}

// Dialect returns the placeholder dialect of engine.
func Dialect(engine string) (*visitors.Dialect, error) {
	return visitors.DialectFor(engine)
}

// --- Database ---

type config struct {
	logger       *slog.Logger
	modes        []string
	transformers []plugins.Transformer
}

// Option configures Open.
type Option func(*config)

// WithLogger logs statements at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithTransactionModes sets the modes every transaction begins with.
func WithTransactionModes(modes ...string) Option {
	return func(c *config) { c.modes = modes }
}

// WithTransformers registers plugins applied to every statement.
func WithTransformers(ts ...Transformer) Option {
	return func(c *config) { c.transformers = append(c.transformers, ts...) }
}

// DB runs statements on a connection pool.
type DB struct {
	*adapter.Adapter
	db  *sqldb.DB
	cfg config
}

// Open connects to engine (postgres, mysql or sqlite).
func Open(ctx context.Context, engine, dsn string, opts ...Option) (*DB, error) {
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(&cfg)
	}
	db, err := sqldb.Open(ctx, engine, dsn, sqldb.WithLogger(cfg.logger))
	if err != nil {
		return nil, err
	}
	return &DB{Adapter: cfg.adapter(db), db: db, cfg: cfg}, nil
}

func (c config) adapter(exec adapter.Executor) *adapter.Adapter {
	return adapter.New(exec,
		adapter.WithLogger(c.logger),
		adapter.WithTransactionModes(c.modes...),
		adapter.WithTransformers(c.transformers...),
	)
}

// Engine returns the connected engine name.
func (d *DB) Engine() string { return d.db.Engine() }

// Close closes the pool.
func (d *DB) Close() error { return d.db.Close() }

// Conn is an adapter pinned to one pooled connection. Transactions need a
// Conn unless the pool holds a single connection.
type Conn struct {
	*adapter.Adapter
	conn *sqldb.Conn
}

// Conn reserves a connection from the pool. Close returns it.
func (d *DB) Conn(ctx context.Context) (*Conn, error) {
	c, err := d.db.Pin(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{Adapter: d.cfg.adapter(c), conn: c}, nil
}

// Close returns the connection to the pool.
func (c *Conn) Close() error { return c.conn.Close() }
