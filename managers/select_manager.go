package managers

import (
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
)

// SelectManager provides a fluent API for building SELECT statements on a
// single table or view.
type SelectManager struct {
	treeManager
	Statement *nodes.SelectStatement
}

// NewSelectManager creates a new SelectManager reading from table.
func NewSelectManager(table string) *SelectManager {
	return &SelectManager{
		Statement: &nodes.SelectStatement{Table: table},
	}
}

// Fields sets the projection. Each field is a name, "name alias",
// "name AS alias" or "*". The field order also orders the generated
// filter mask. No fields means *.
func (m *SelectManager) Fields(fields ...string) *SelectManager {
	m.Statement.Fields = append([]string(nil), fields...)
	return m
}

// Filter adds equality conditions. Slice values match any element.
func (m *SelectManager) Filter(values nodes.Values) *SelectManager {
	m.Statement.Filter = merge(m.Statement.Filter, values)
	return m
}

// Where sets a hand-written mask, e.g. "WHERE tan > %(min)s", used instead
// of the generated one. Filter values still supply its parameters.
func (m *SelectManager) Where(mask string) *SelectManager {
	m.Statement.Where = mask
	return m
}

// Use registers a transformer plugin.
func (m *SelectManager) Use(t plugins.Transformer) *SelectManager {
	m.addTransformer(t)
	return m
}

func (m *SelectManager) transformed() (*nodes.SelectStatement, error) {
	stmt := m.Statement.Clone()
	for _, t := range m.transformers {
		var err error
		stmt, err = t.TransformSelect(stmt)
		if err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// ToSQL applies transformers and renders the statement. A nil visitor
// renders pyformat text.
func (m *SelectManager) ToSQL(v nodes.Visitor) (string, map[string]any, error) {
	stmt, err := m.transformed()
	if err != nil {
		return "", nil, err
	}
	sql, err := render(v, stmt)
	if err != nil {
		return "", nil, err
	}
	return sql, params(stmt.Filter), nil
}
