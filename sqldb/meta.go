package sqldb

import (
	"context"
	"fmt"
	"sync"
)

var tableQueries = map[string]string{
	"postgres": "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name",
	"mysql":    "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name",
	"sqlite":   "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%%' ORDER BY name",
}

var columnQueries = map[string]string{
	"postgres": "SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = %(table)s ORDER BY ordinal_position",
	"mysql":    "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = %(table)s ORDER BY ordinal_position",
	"sqlite":   "SELECT name FROM pragma_table_info(%(table)s)",
}

// Schema caches table and column names for completion.
type Schema struct {
	db *DB

	mu      sync.Mutex
	tables  []string
	columns map[string][]string
}

// NewSchema returns an empty cache over db.
func NewSchema(db *DB) *Schema {
	return &Schema{db: db, columns: make(map[string][]string)}
}

// Load reads the table names, dropping cached columns.
func (s *Schema) Load(ctx context.Context) error {
	tables, err := s.strings(ctx, tableQueries[s.db.engine], nil)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = tables
	clear(s.columns)
	return nil
}

// Tables returns the names read by the last Load.
func (s *Schema) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables
}

// Columns returns the column names of table in ordinal order. Lookup
// failures yield nil.
func (s *Schema) Columns(ctx context.Context, table string) []string {
	s.mu.Lock()
	cols, ok := s.columns[table]
	s.mu.Unlock()
	if ok {
		return cols
	}
	cols, err := s.strings(ctx, columnQueries[s.db.engine], map[string]any{"table": table})
	if err != nil {
		s.db.opts.logger.Debug("column lookup failed", "table", table, "error", err)
		return nil
	}
	s.mu.Lock()
	s.columns[table] = cols
	s.mu.Unlock()
	return cols
}

func (s *Schema) strings(ctx context.Context, query string, params map[string]any) ([]string, error) {
	if query == "" {
		return nil, fmt.Errorf("unsupported engine: %s", s.db.engine)
	}
	res, err := s.db.Execute(ctx, query, 0, params)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row) > 0 {
			out = append(out, fmt.Sprint(row[0]))
		}
	}
	return out, nil
}
