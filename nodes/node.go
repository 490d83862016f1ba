// Package nodes defines the statement shapes the builder can emit.
//
// Statements are plain values. They carry table and column names plus the
// value mappings whose keys become placeholders; a Visitor turns them into
// SQL text.
package nodes

import (
	"maps"

	"github.com/bawdo/sqlwrapper/clauses"
)

// Node is the interface all statements implement.
type Node interface {
	Accept(visitor Visitor) (string, error)
}

// Visitor renders statements. Rendering fails when a name does not pass
// validation, so every method returns an error.
type Visitor interface {
	VisitSelect(node *SelectStatement) (string, error)
	VisitInsert(node *InsertStatement) (string, error)
	VisitUpdate(node *UpdateStatement) (string, error)
	VisitDelete(node *DeleteStatement) (string, error)
	VisitGrouping(node *GroupingStatement) (string, error)
	VisitTransaction(node *TransactionStatement) (string, error)
}

// Values maps field names to values. Slice values mean "any of" in filters.
type Values map[string]any

// Clone returns a shallow copy; nil stays nil.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	return maps.Clone(v)
}

// Keys returns the field names in the order used for rendering: priority
// names first, then the rest ascending.
func (v Values) Keys(priority ...string) []string {
	return clauses.OrderKeys(v, priority)
}

// SelectStatement represents SELECT <fields> FROM <table> [mask].
// Fields also set the order of the generated filter mask.
type SelectStatement struct {
	Table  string
	Fields []string // empty means *
	Where  string   // hand-written mask; replaces the generated one
	Filter Values
}

func (n *SelectStatement) Accept(v Visitor) (string, error) { return v.VisitSelect(n) }

// Clone returns a copy that shares no slices or maps with n.
func (n *SelectStatement) Clone() *SelectStatement {
	c := *n
	c.Fields = append([]string(nil), n.Fields...)
	c.Filter = n.Filter.Clone()
	return &c
}

// InsertStatement represents INSERT INTO ... VALUES for a single row.
type InsertStatement struct {
	Into      string
	Values    Values
	Returning []string
}

func (n *InsertStatement) Accept(v Visitor) (string, error) { return v.VisitInsert(n) }

func (n *InsertStatement) Clone() *InsertStatement {
	c := *n
	c.Values = n.Values.Clone()
	c.Returning = append([]string(nil), n.Returning...)
	return &c
}

// UpdateStatement represents UPDATE ... SET ... [mask] [RETURNING].
type UpdateStatement struct {
	Table     string
	Set       Values
	Where     string
	Filter    Values
	Returning []string
}

func (n *UpdateStatement) Accept(v Visitor) (string, error) { return v.VisitUpdate(n) }

func (n *UpdateStatement) Clone() *UpdateStatement {
	c := *n
	c.Set = n.Set.Clone()
	c.Filter = n.Filter.Clone()
	c.Returning = append([]string(nil), n.Returning...)
	return &c
}

// DeleteStatement represents DELETE FROM ... [mask] [RETURNING].
// Without a mask every row of the table is deleted.
type DeleteStatement struct {
	From      string
	Where     string
	Filter    Values
	Returning []string
}

func (n *DeleteStatement) Accept(v Visitor) (string, error) { return v.VisitDelete(n) }

func (n *DeleteStatement) Clone() *DeleteStatement {
	c := *n
	c.Filter = n.Filter.Clone()
	c.Returning = append([]string(nil), n.Returning...)
	return &c
}

// GroupingStatement represents a grouped SELECT over a table or view.
type GroupingStatement struct {
	Source  string
	Columns []clauses.GroupSpec
	Filter  Values
}

func (n *GroupingStatement) Accept(v Visitor) (string, error) { return v.VisitGrouping(n) }

func (n *GroupingStatement) Clone() *GroupingStatement {
	c := *n
	c.Columns = append([]clauses.GroupSpec(nil), n.Columns...)
	c.Filter = n.Filter.Clone()
	return &c
}

// TransactionStatement represents BEGIN/SET TRANSACTION with modes.
type TransactionStatement struct {
	Action clauses.Action
	Modes  []string
}

func (n *TransactionStatement) Accept(v Visitor) (string, error) { return v.VisitTransaction(n) }
