package managers

import (
	"errors"
	"testing"

	"github.com/bawdo/sqlwrapper/internal/testutil"
	"github.com/bawdo/sqlwrapper/names"
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/visitors"
)

func TestInsertToSQL(t *testing.T) {
	t.Parallel()
	m := NewInsertManager("tabelle").Values(nodes.Values{"eins": 1, "zwei": 2})
	sql, params, err := m.ToSQL(nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "INSERT INTO tabelle (eins, zwei) VALUES (%(eins)s, %(zwei)s);")
	testutil.AssertEqual(t, len(params), 2)

	sql, _, err = m.Returning("eins").ToSQL(nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "INSERT INTO tabelle (eins, zwei) VALUES (%(eins)s, %(zwei)s) RETURNING eins;")
}

func TestInsertFormatted(t *testing.T) {
	t.Parallel()
	sql, _, err := NewInsertManager("tabelle").
		Values(nodes.Values{"eins": 1, "zwei": 2}).
		Returning("eins").
		ToSQL(visitors.NewFormattingVisitor())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sql, "INSERT INTO tabelle (eins, zwei)\n     VALUES (%(eins)s, %(zwei)s)\n  RETURNING eins;")
}

func TestInsertEmpty(t *testing.T) {
	t.Parallel()
	_, _, err := NewInsertManager("tabelle").ToSQL(nil)
	if !errors.Is(err, ErrEmptyInsertData) {
		t.Errorf("expected ErrEmptyInsertData, got %v", err)
	}
}

func TestInsertReturningAliasRejected(t *testing.T) {
	t.Parallel()
	_, _, err := NewInsertManager("t").Values(nodes.Values{"a": 1}).Returning("id AS x").ToSQL(nil)
	if !errors.Is(err, names.ErrInvalidIdentifier) {
		t.Errorf("expected ErrInvalidIdentifier, got %v", err)
	}
}
