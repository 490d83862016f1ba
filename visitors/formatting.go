package visitors

import (
	"strings"

	"github.com/bawdo/sqlwrapper/clauses"
	"github.com/bawdo/sqlwrapper/nodes"
)

// FormattingVisitor renders statements over several lines with the clause
// keywords right-aligned:
//
//	INSERT INTO tabelle (eins, zwei)
//	     VALUES (%(eins)s, %(zwei)s)
//	  RETURNING eins;
//
// The text is equivalent to PyformatVisitor output and may be executed.
type FormattingVisitor struct{}

var _ nodes.Visitor = FormattingVisitor{}

// NewFormattingVisitor returns a multi-line renderer.
func NewFormattingVisitor() FormattingVisitor { return FormattingVisitor{} }

func layout(cs []clause) string {
	width := 0
	for _, c := range cs {
		width = max(width, len(c.keyword))
	}
	lines := make([]string, len(cs))
	for i, c := range cs {
		pad := strings.Repeat(" ", width-len(c.keyword))
		lines[i] = pad + c.String()
	}
	return strings.Join(lines, "\n") + ";"
}

func (f FormattingVisitor) VisitSelect(n *nodes.SelectStatement) (string, error) {
	cs, err := selectClauses(n)
	if err != nil {
		return "", err
	}
	return layout(cs), nil
}

func (f FormattingVisitor) VisitInsert(n *nodes.InsertStatement) (string, error) {
	cs, err := insertClauses(n)
	if err != nil {
		return "", err
	}
	return layout(cs), nil
}

func (f FormattingVisitor) VisitUpdate(n *nodes.UpdateStatement) (string, error) {
	cs, err := updateClauses(n)
	if err != nil {
		return "", err
	}
	return layout(cs), nil
}

func (f FormattingVisitor) VisitDelete(n *nodes.DeleteStatement) (string, error) {
	cs, err := deleteClauses(n)
	if err != nil {
		return "", err
	}
	return layout(cs), nil
}

// VisitGrouping returns the grouping query, which is multi-line already.
func (f FormattingVisitor) VisitGrouping(n *nodes.GroupingStatement) (string, error) {
	return clauses.GroupingQuery(n.Source, n.Filter, n.Columns...)
}

func (f FormattingVisitor) VisitTransaction(n *nodes.TransactionStatement) (string, error) {
	return clauses.TransactionCommand(n.Action, n.Modes...)
}
