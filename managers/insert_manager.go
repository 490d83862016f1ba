package managers

import (
	"errors"
	"fmt"

	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
)

// ErrEmptyInsertData is returned when an insert has no values.
var ErrEmptyInsertData = errors.New("empty insert data")

// InsertManager provides a fluent API for building single-row INSERT
// statements. Columns are emitted in lexical order.
type InsertManager struct {
	treeManager
	Statement *nodes.InsertStatement
}

// NewInsertManager creates a new InsertManager targeting the given table.
func NewInsertManager(table string) *InsertManager {
	return &InsertManager{
		Statement: &nodes.InsertStatement{Into: table},
	}
}

// Values adds column values for the row.
func (m *InsertManager) Values(values nodes.Values) *InsertManager {
	m.Statement.Values = merge(m.Statement.Values, values)
	return m
}

// Returning sets the RETURNING columns: bare names or a single "*".
func (m *InsertManager) Returning(fields ...string) *InsertManager {
	m.Statement.Returning = append([]string(nil), fields...)
	return m
}

// Use registers a transformer plugin.
func (m *InsertManager) Use(t plugins.Transformer) *InsertManager {
	m.addTransformer(t)
	return m
}

// ToSQL applies transformers and renders the statement.
func (m *InsertManager) ToSQL(v nodes.Visitor) (string, map[string]any, error) {
	stmt := m.Statement.Clone()
	for _, t := range m.transformers {
		var err error
		stmt, err = t.TransformInsert(stmt)
		if err != nil {
			return "", nil, err
		}
	}
	if len(stmt.Values) == 0 {
		return "", nil, fmt.Errorf("insert into %s: %w", stmt.Into, ErrEmptyInsertData)
	}
	sql, err := render(v, stmt)
	if err != nil {
		return "", nil, err
	}
	return sql, params(stmt.Values), nil
}
