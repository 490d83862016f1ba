package managers

import (
	"github.com/bawdo/sqlwrapper/clauses"
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
)

// GroupingManager builds a grouped SELECT over a table or view. Columns
// without an aggregate become grouping keys; the filter switches to HAVING
// when grouped and aggregated columns are mixed.
type GroupingManager struct {
	treeManager
	Statement *nodes.GroupingStatement
}

// NewGroupingManager creates a new GroupingManager reading from source.
func NewGroupingManager(source string) *GroupingManager {
	return &GroupingManager{
		Statement: &nodes.GroupingStatement{Source: source},
	}
}

// Columns appends output columns.
func (m *GroupingManager) Columns(specs ...clauses.GroupSpec) *GroupingManager {
	m.Statement.Columns = append(m.Statement.Columns, specs...)
	return m
}

// Filter adds equality conditions.
func (m *GroupingManager) Filter(values nodes.Values) *GroupingManager {
	m.Statement.Filter = merge(m.Statement.Filter, values)
	return m
}

// Use registers a transformer plugin.
func (m *GroupingManager) Use(t plugins.Transformer) *GroupingManager {
	m.addTransformer(t)
	return m
}

// ToSQL applies transformers and renders the grouped query.
func (m *GroupingManager) ToSQL(v nodes.Visitor) (string, map[string]any, error) {
	stmt := m.Statement.Clone()
	for _, t := range m.transformers {
		var err error
		stmt, err = t.TransformGrouping(stmt)
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
