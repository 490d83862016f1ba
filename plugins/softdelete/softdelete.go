// Package softdelete provides a Transformer that hides soft-deleted rows.
//
// It adds "deleted = %(deleted)s" with the value false to the filter of
// SELECT, UPDATE and DELETE statements, so rows flagged as deleted are
// neither returned nor changed. Both the column and its "live" value can be
// customised, and the plugin can be restricted to a set of tables.
//
// # Basic usage
//
//	sd := softdelete.New()
//	m := managers.NewSelectManager("users").Use(sd)
//	// SELECT * FROM users WHERE deleted = %(deleted)s;   deleted=false
//
// # Custom column and value
//
//	sd := softdelete.New(softdelete.WithColumn("deleted_at"), softdelete.WithValue(nil))
//
// # Restrict to specific tables
//
//	sd := softdelete.New(softdelete.WithTables("users"))
//
// # Per-table columns
//
//	sd := softdelete.New(
//	    softdelete.WithTableColumn("users", "deleted"),
//	    softdelete.WithTableColumn("posts", "removed"),
//	)
//
// A filter that already names the column is left alone, which is how
// callers query deleted rows explicitly. UPDATE statements that set the
// column themselves (deleting or restoring a row) are not filtered.
// Statements with a hand-written WHERE mask are rejected with
// ErrCustomWhere since their mask cannot be extended safely.
//
// # REPL usage
//
//	sqlwrapper> plugin softdelete
//	sqlwrapper> plugin softdelete removed
//	sqlwrapper> plugin softdelete removed on users posts
//	sqlwrapper> plugin softdelete users.deleted, posts.removed
//	sqlwrapper> plugin off softdelete
//	sqlwrapper> plugins
package softdelete

import (
	"errors"
	"fmt"

	"github.com/bawdo/sqlwrapper/names"
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
)

// DefaultColumn is the soft-delete flag column used unless configured.
const DefaultColumn = "deleted"

// ErrCustomWhere is returned for statements whose WHERE mask is hand-written.
var ErrCustomWhere = errors.New("softdelete: cannot extend a hand-written WHERE mask")

// SoftDelete is a Transformer that filters on a soft-delete column for every
// matching table.
type SoftDelete struct {
	plugins.BaseTransformer
	Column  string
	Value   any
	Columns map[string]string // per-table column overrides (table name → column name)
	tables  plugins.TableSet  // nil means apply to all tables
}

// Option configures a SoftDelete transformer.
type Option func(*SoftDelete)

// WithColumn sets the soft-delete column name. Default is "deleted".
func WithColumn(name string) Option {
	return func(sd *SoftDelete) { sd.Column = name }
}

// WithValue sets the value that marks a live row. Default is false.
func WithValue(v any) Option {
	return func(sd *SoftDelete) { sd.Value = v }
}

// WithTables restricts the plugin to only the named tables.
// By default, the plugin applies to every table.
func WithTables(names ...string) Option {
	return func(sd *SoftDelete) {
		if sd.tables == nil {
			sd.tables = plugins.NewTableSet()
		}
		for _, n := range names {
			sd.tables[n] = true
		}
	}
}

// WithTableColumn sets a per-table column override. The table is
// automatically added to the whitelist, restricting the plugin's scope.
func WithTableColumn(table, column string) Option {
	return func(sd *SoftDelete) {
		if sd.Columns == nil {
			sd.Columns = make(map[string]string)
		}
		sd.Columns[table] = column
		WithTables(table)(sd)
	}
}

// New creates a SoftDelete transformer with the given options.
func New(opts ...Option) *SoftDelete {
	sd := &SoftDelete{Column: DefaultColumn, Value: false}
	for _, o := range opts {
		o(sd)
	}
	return sd
}

// Tables returns the configured table whitelist, nil when unrestricted.
func (sd *SoftDelete) Tables() []string {
	if sd.tables == nil {
		return nil
	}
	out := make([]string, 0, len(sd.tables))
	for t := range sd.tables {
		out = append(out, t)
	}
	return out
}

func (sd *SoftDelete) TransformSelect(s *nodes.SelectStatement) (*nodes.SelectStatement, error) {
	f, err := sd.filter(s.Table, s.Where, s.Filter)
	if err != nil {
		return nil, err
	}
	s.Filter = f
	return s, nil
}

// TransformUpdate filters updates unless the statement sets the column.
func (sd *SoftDelete) TransformUpdate(s *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	if _, ok := s.Set[sd.columnFor(s.Table)]; ok {
		return s, nil
	}
	f, err := sd.filter(s.Table, s.Where, s.Filter)
	if err != nil {
		return nil, err
	}
	s.Filter = f
	return s, nil
}

func (sd *SoftDelete) TransformDelete(s *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	f, err := sd.filter(s.From, s.Where, s.Filter)
	if err != nil {
		return nil, err
	}
	s.Filter = f
	return s, nil
}

func (sd *SoftDelete) filter(table, where string, filter nodes.Values) (nodes.Values, error) {
	if !sd.tables.Contains(table) {
		return filter, nil
	}
	col := sd.columnFor(table)
	if _, err := names.Identifier(col); err != nil {
		return nil, fmt.Errorf("softdelete column: %w", err)
	}
	if _, ok := filter[col]; ok {
		return filter, nil
	}
	if where != "" {
		return nil, fmt.Errorf("%w (table %s)", ErrCustomWhere, table)
	}
	if filter == nil {
		filter = nodes.Values{}
	}
	filter[col] = sd.Value
	return filter, nil
}

// columnFor returns the column name to use for the given table.
// It checks Columns for a per-table override, falling back to Column.
func (sd *SoftDelete) columnFor(table string) string {
	if col, ok := sd.Columns[table]; ok {
		return col
	}
	if col, ok := sd.Columns[plugins.BaseName(table)]; ok {
		return col
	}
	return sd.Column
}
