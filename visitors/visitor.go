// Package visitors renders statements into SQL text.
//
// PyformatVisitor produces the canonical one-line form with %(name)s value
// placeholders. FormattingVisitor lays the same clauses out over several
// lines for people to read. Dialects rebind the placeholders for a Go
// database driver.
package visitors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bawdo/sqlwrapper/clauses"
	"github.com/bawdo/sqlwrapper/names"
	"github.com/bawdo/sqlwrapper/nodes"
)

// ErrEmptyValues is returned for INSERT and UPDATE statements without columns.
var ErrEmptyValues = errors.New("statement has no values")

// clause is one keyword-led fragment of a statement.
type clause struct {
	keyword string
	body    string
}

func (c clause) String() string {
	if c.body == "" {
		return c.keyword
	}
	return c.keyword + " " + c.body
}

// splitMask turns a rendered or hand-written mask into a clause.
func splitMask(mask string) clause {
	kw, body, _ := strings.Cut(strings.TrimSpace(mask), " ")
	return clause{keyword: kw, body: strings.TrimSpace(body)}
}

// PyformatVisitor renders statements on a single line, terminated by ";".
// It is stateless and safe for concurrent use.
type PyformatVisitor struct{}

var _ nodes.Visitor = PyformatVisitor{}

// NewPyformatVisitor returns the default renderer.
func NewPyformatVisitor() PyformatVisitor { return PyformatVisitor{} }

func join(cs []clause) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ") + ";"
}

func (v PyformatVisitor) VisitSelect(n *nodes.SelectStatement) (string, error) {
	cs, err := selectClauses(n)
	if err != nil {
		return "", err
	}
	return join(cs), nil
}

func (v PyformatVisitor) VisitInsert(n *nodes.InsertStatement) (string, error) {
	cs, err := insertClauses(n)
	if err != nil {
		return "", err
	}
	return join(cs), nil
}

func (v PyformatVisitor) VisitUpdate(n *nodes.UpdateStatement) (string, error) {
	cs, err := updateClauses(n)
	if err != nil {
		return "", err
	}
	return join(cs), nil
}

func (v PyformatVisitor) VisitDelete(n *nodes.DeleteStatement) (string, error) {
	cs, err := deleteClauses(n)
	if err != nil {
		return "", err
	}
	return join(cs), nil
}

func (v PyformatVisitor) VisitGrouping(n *nodes.GroupingStatement) (string, error) {
	return clauses.GroupingQuery(n.Source, n.Filter, n.Columns...)
}

func (v PyformatVisitor) VisitTransaction(n *nodes.TransactionStatement) (string, error) {
	return clauses.TransactionCommand(n.Action, n.Modes...)
}

// selectFields validates the projection and returns it together with the
// source names that order the generated filter mask.
func selectFields(fields []string) (string, []string, error) {
	if len(fields) == 0 {
		return names.Star, nil, nil
	}
	priority := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, err := names.NameOrAlias(f); err != nil {
			return "", nil, fmt.Errorf("select field: %w", err)
		}
		if f == names.Star {
			continue
		}
		priority = append(priority, strings.Fields(f)[0])
	}
	return strings.Join(fields, ", "), priority, nil
}

func mask(where string, filter nodes.Values, priority []string) ([]clause, error) {
	if where != "" {
		return []clause{splitMask(where)}, nil
	}
	m, err := clauses.FilterMask(filter, priority, clauses.Where)
	if err != nil || m == "" {
		return nil, err
	}
	return []clause{splitMask(m)}, nil
}

func returning(fields []string) ([]clause, error) {
	r, err := clauses.Returning(fields...)
	if err != nil || r == "" {
		return nil, err
	}
	return []clause{splitMask(r)}, nil
}

func selectClauses(n *nodes.SelectStatement) ([]clause, error) {
	table, err := names.Identifier(n.Table)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	fields, priority, err := selectFields(n.Fields)
	if err != nil {
		return nil, err
	}
	cs := []clause{{"SELECT", fields}, {"FROM", table}}
	m, err := mask(n.Where, n.Filter, priority)
	if err != nil {
		return nil, err
	}
	return append(cs, m...), nil
}

func insertClauses(n *nodes.InsertStatement) ([]clause, error) {
	table, err := names.Identifier(n.Into)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	if len(n.Values) == 0 {
		return nil, fmt.Errorf("insert into %s: %w", table, ErrEmptyValues)
	}
	keys := n.Values.Keys()
	if _, err := names.Identifiers(keys...); err != nil {
		return nil, fmt.Errorf("insert column: %w", err)
	}
	phs := make([]string, len(keys))
	for i, k := range keys {
		phs[i] = clauses.Placeholder(k)
	}
	cs := []clause{
		{"INSERT INTO", table + " (" + strings.Join(keys, ", ") + ")"},
		{"VALUES", "(" + strings.Join(phs, ", ") + ")"},
	}
	r, err := returning(n.Returning)
	if err != nil {
		return nil, err
	}
	return append(cs, r...), nil
}

func updateClauses(n *nodes.UpdateStatement) ([]clause, error) {
	table, err := names.Identifier(n.Table)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	if len(n.Set) == 0 {
		return nil, fmt.Errorf("update %s: %w", table, ErrEmptyValues)
	}
	keys := n.Set.Keys()
	assignments := make([]string, len(keys))
	for i, k := range keys {
		if _, err := names.Identifier(k); err != nil {
			return nil, fmt.Errorf("update column: %w", err)
		}
		assignments[i] = k + "=" + clauses.Placeholder(k)
	}
	cs := []clause{{"UPDATE", table}, {"SET", strings.Join(assignments, ", ")}}
	m, err := mask(n.Where, n.Filter, nil)
	if err != nil {
		return nil, err
	}
	r, err := returning(n.Returning)
	if err != nil {
		return nil, err
	}
	cs = append(cs, m...)
	return append(cs, r...), nil
}

func deleteClauses(n *nodes.DeleteStatement) ([]clause, error) {
	table, err := names.Identifier(n.From)
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	cs := []clause{{"DELETE FROM", table}}
	m, err := mask(n.Where, n.Filter, nil)
	if err != nil {
		return nil, err
	}
	r, err := returning(n.Returning)
	if err != nil {
		return nil, err
	}
	cs = append(cs, m...)
	return append(cs, r...), nil
}
