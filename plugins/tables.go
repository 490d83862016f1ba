package plugins

import (
	"strings"

	"github.com/bawdo/sqlwrapper/nodes"
)

// TableOf returns the table or view a statement targets. Transaction
// statements have none.
func TableOf(n nodes.Node) (string, bool) {
	switch s := n.(type) {
	case *nodes.SelectStatement:
		return s.Table, true
	case *nodes.InsertStatement:
		return s.Into, true
	case *nodes.UpdateStatement:
		return s.Table, true
	case *nodes.DeleteStatement:
		return s.From, true
	case *nodes.GroupingStatement:
		return s.Source, true
	default:
		return "", false
	}
}

// BaseName strips any schema qualifier: "tan.tan_history" -> "tan_history".
func BaseName(table string) string {
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		return table[i+1:]
	}
	return table
}

// TableSet matches table names either fully qualified or by base name.
// A nil TableSet matches every table.
type TableSet map[string]bool

// NewTableSet returns a set of the given names.
func NewTableSet(names ...string) TableSet {
	s := make(TableSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// Contains reports whether table is in the set.
func (s TableSet) Contains(table string) bool {
	if s == nil {
		return true
	}
	return s[table] || s[BaseName(table)]
}
