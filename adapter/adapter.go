// Package adapter runs generated statements through an Executor and maps
// the results to records.
//
// The Adapter validates every name and renders every statement before it
// reaches the Executor, so a malformed name never causes a database round
// trip. Driver errors are wrapped with the operation but not translated.
//
// An Adapter is not safe for concurrent use: statement execution and the
// transaction nesting level belong to one logical caller. Distinct
// Adapters may be used concurrently.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bawdo/sqlwrapper/clauses"
	"github.com/bawdo/sqlwrapper/managers"
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
	"github.com/bawdo/sqlwrapper/results"
	"github.com/bawdo/sqlwrapper/visitors"
)

var (
	// ErrNotImplemented marks operations the adapter does not support yet.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNotInTransaction is returned by TransactionMode outside Transaction.
	ErrNotInTransaction = errors.New("not in a transaction")
)

// Executor runs one statement. sqlText carries %(name)s value placeholders
// that the executor binds from params. maxRows <= 0 means no limit.
type Executor interface {
	Execute(ctx context.Context, sqlText string, maxRows int, params map[string]any) (*results.Result, error)
}

// Adapter offers table-level operations on top of an Executor.
type Adapter struct {
	exec         Executor
	visitor      nodes.Visitor
	logger       *slog.Logger
	modes        []string
	transformers []plugins.Transformer
	level        int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. Statements are logged at debug level with
// parameter names only.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTransactionModes sets the modes used by BEGIN in Transaction,
// e.g. "read only" or "serializable".
func WithTransactionModes(modes ...string) Option {
	return func(a *Adapter) { a.modes = slices.Clone(modes) }
}

// WithVisitor replaces the pyformat renderer.
func WithVisitor(v nodes.Visitor) Option {
	return func(a *Adapter) {
		if v != nil {
			a.visitor = v
		}
	}
}

// WithTransformers registers plugins applied to every statement.
func WithTransformers(ts ...plugins.Transformer) Option {
	return func(a *Adapter) { a.transformers = append(a.transformers, ts...) }
}

// New returns an Adapter running statements on exec.
func New(exec Executor, opts ...Option) *Adapter {
	a := &Adapter{
		exec:    exec,
		visitor: visitors.NewPyformatVisitor(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Modes sets the modes for the next Transaction and returns a.
func (a *Adapter) Modes(modes ...string) *Adapter {
	a.modes = slices.Clone(modes)
	return a
}

// Level reports the transaction nesting depth; 0 outside Transaction.
func (a *Adapter) Level() int { return a.level }

func (a *Adapter) execute(ctx context.Context, op, sql string, maxRows int, params map[string]any) (*results.Result, error) {
	a.logger.Debug(op, "sql", sql, "max_rows", maxRows, "params", nodes.Values(params).Keys(), "level", a.level)
	res, err := a.exec.Execute(ctx, sql, maxRows, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func returned(res *results.Result, fields []string) ([]results.Record, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	return results.Collect(results.MapRows(res, fields...))
}

// SelectOptions narrows a Select.
type SelectOptions struct {
	Fields  []string // names or aliases; empty means *
	Where   string   // hand-written mask; replaces the one generated from Filter
	Filter  nodes.Values
	MaxRows int
}

// Select reads rows from a table or view. Records are keyed by the result
// column names.
func (a *Adapter) Select(ctx context.Context, table string, opts SelectOptions) ([]results.Record, error) {
	m := managers.NewSelectManager(table).Fields(opts.Fields...).Filter(opts.Filter).Where(opts.Where)
	for _, t := range a.transformers {
		m.Use(t)
	}
	sql, params, err := m.ToSQL(a.visitor)
	if err != nil {
		return nil, err
	}
	res, err := a.execute(ctx, "select", sql, opts.MaxRows, params)
	if err != nil {
		return nil, err
	}
	return results.Records(res)
}

// Insert writes one row. With returning fields the inserted values are
// returned as records.
func (a *Adapter) Insert(ctx context.Context, table string, values nodes.Values, returning ...string) ([]results.Record, error) {
	m := managers.NewInsertManager(table).Values(values).Returning(returning...)
	for _, t := range a.transformers {
		m.Use(t)
	}
	sql, params, err := m.ToSQL(a.visitor)
	if err != nil {
		return nil, err
	}
	res, err := a.execute(ctx, "insert", sql, 0, params)
	if err != nil {
		return nil, err
	}
	return returned(res, returning)
}

// InsertMany is not supported yet.
func (a *Adapter) InsertMany(ctx context.Context, table string, rows []nodes.Values, returning ...string) ([]results.Record, error) {
	return nil, fmt.Errorf("insert many into %s: %w", table, ErrNotImplemented)
}

// UpdateOptions narrows an Update.
type UpdateOptions struct {
	Where     string
	Filter    nodes.Values
	Returning []string
	// NoFork assembles the parameters in Filter itself, which then also
	// receives the update values.
	NoFork bool
}

// Update changes rows. Keys both updated and filtered on must carry the
// same value in both; they are then left out of the SET clause.
func (a *Adapter) Update(ctx context.Context, table string, values nodes.Values, opts UpdateOptions) ([]results.Record, error) {
	m := managers.NewUpdateManager(table).
		Logger(a.logger).
		Set(values).
		Filter(opts.Filter).
		Where(opts.Where).
		Returning(opts.Returning...).
		Fork(!opts.NoFork)
	for _, t := range a.transformers {
		m.Use(t)
	}
	sql, params, err := m.ToSQL(a.visitor)
	if err != nil {
		return nil, err
	}
	res, err := a.execute(ctx, "update", sql, 0, params)
	if err != nil {
		return nil, err
	}
	return returned(res, opts.Returning)
}

// DeleteOptions narrows a Delete. Without Where and Filter the whole table
// is emptied.
type DeleteOptions struct {
	Where     string
	Filter    nodes.Values
	Returning []string
}

// Delete removes rows.
func (a *Adapter) Delete(ctx context.Context, table string, opts DeleteOptions) ([]results.Record, error) {
	m := managers.NewDeleteManager(table).Filter(opts.Filter).Where(opts.Where).Returning(opts.Returning...)
	for _, t := range a.transformers {
		m.Use(t)
	}
	sql, params, err := m.ToSQL(a.visitor)
	if err != nil {
		return nil, err
	}
	res, err := a.execute(ctx, "delete", sql, 0, params)
	if err != nil {
		return nil, err
	}
	return returned(res, opts.Returning)
}

// Query runs a hand-written statement. Name placeholders are substituted
// from names first; the remaining %(key)s placeholders are bound from
// params by the executor.
func (a *Adapter) Query(ctx context.Context, template string, names map[string]string, params map[string]any, maxRows int) ([]results.Record, error) {
	sql, err := clauses.SubstituteNames(template, names)
	if err != nil {
		return nil, err
	}
	res, err := a.execute(ctx, "query", sql, maxRows, params)
	if err != nil {
		return nil, err
	}
	return results.Records(res)
}

// Grouped runs a grouped SELECT over a table or view.
func (a *Adapter) Grouped(ctx context.Context, source string, filter nodes.Values, specs ...clauses.GroupSpec) ([]results.Record, error) {
	m := managers.NewGroupingManager(source).Columns(specs...).Filter(filter)
	for _, t := range a.transformers {
		m.Use(t)
	}
	sql, params, err := m.ToSQL(a.visitor)
	if err != nil {
		return nil, err
	}
	res, err := a.execute(ctx, "grouped", sql, 0, params)
	if err != nil {
		return nil, err
	}
	return results.Records(res)
}

// Fields is not supported yet.
func (a *Adapter) Fields(ctx context.Context, table string) ([]string, error) {
	return nil, fmt.Errorf("fields of %s: %w", table, ErrNotImplemented)
}

// Columns is not supported yet.
func (a *Adapter) Columns(ctx context.Context, table string) ([]results.Column, error) {
	return nil, fmt.Errorf("columns of %s: %w", table, ErrNotImplemented)
}
