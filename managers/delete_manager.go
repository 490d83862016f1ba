package managers

import (
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
)

// DeleteManager provides a fluent API for building DELETE statements.
// Without Filter or Where the statement empties the whole table.
type DeleteManager struct {
	treeManager
	Statement *nodes.DeleteStatement
}

// NewDeleteManager creates a new DeleteManager targeting the given table.
func NewDeleteManager(table string) *DeleteManager {
	return &DeleteManager{
		Statement: &nodes.DeleteStatement{From: table},
	}
}

// Filter adds equality conditions. Slice values match any element.
func (m *DeleteManager) Filter(values nodes.Values) *DeleteManager {
	m.Statement.Filter = merge(m.Statement.Filter, values)
	return m
}

// Where sets a hand-written mask used instead of the generated one.
func (m *DeleteManager) Where(mask string) *DeleteManager {
	m.Statement.Where = mask
	return m
}

// Returning sets the RETURNING columns for the deleted rows.
func (m *DeleteManager) Returning(fields ...string) *DeleteManager {
	m.Statement.Returning = append([]string(nil), fields...)
	return m
}

// Use registers a transformer plugin.
func (m *DeleteManager) Use(t plugins.Transformer) *DeleteManager {
	m.addTransformer(t)
	return m
}

// ToSQL applies transformers and renders the statement.
func (m *DeleteManager) ToSQL(v nodes.Visitor) (string, map[string]any, error) {
	stmt := m.Statement.Clone()
	for _, t := range m.transformers {
		var err error
		stmt, err = t.TransformDelete(stmt)
		if err != nil {
			return "", nil, err
		}
	}
	sql, err := render(v, stmt)
	if err != nil {
		return "", nil, err
	}
	return sql, params(stmt.Filter), nil
}
