// Package nodetest holds test helpers that depend on the statement types.
// It is separate from testutil so packages below nodes can use testutil.
package nodetest

import (
	"strings"
	"testing"

	"github.com/bawdo/sqlwrapper/nodes"
)

// AssertSQL renders node with v and compares the text with expected.
func AssertSQL(t *testing.T, v nodes.Visitor, node nodes.Node, expected string) {
	t.Helper()
	got, err := node.Accept(v)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got != expected {
		t.Errorf("expected:\n  %s\ngot:\n  %s", expected, got)
	}
}

// StubVisitor implements nodes.Visitor with short fixed strings so tests
// can check which statement reached the visitor and with what target.
type StubVisitor struct{}

var _ nodes.Visitor = StubVisitor{}

func (StubVisitor) VisitSelect(n *nodes.SelectStatement) (string, error) {
	return "select " + n.Table + " " + strings.Join(n.Filter.Keys(), ","), nil
}
func (StubVisitor) VisitInsert(n *nodes.InsertStatement) (string, error) {
	return "insert " + n.Into, nil
}
func (StubVisitor) VisitUpdate(n *nodes.UpdateStatement) (string, error) {
	return "update " + n.Table + " " + strings.Join(n.Filter.Keys(), ","), nil
}
func (StubVisitor) VisitDelete(n *nodes.DeleteStatement) (string, error) {
	return "delete " + n.From + " " + strings.Join(n.Filter.Keys(), ","), nil
}
func (StubVisitor) VisitGrouping(n *nodes.GroupingStatement) (string, error) {
	return "grouping " + n.Source, nil
}
func (StubVisitor) VisitTransaction(n *nodes.TransactionStatement) (string, error) {
	return "transaction " + string(n.Action), nil
}
