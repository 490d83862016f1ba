// Package policy provides a Transformer that adds row-level policy filters
// to statements.
//
// A policy is evaluated once per statement for the statement's table and
// returns filter values that are merged into the statement's filter. An
// error rejects the statement entirely.
//
// # Basic usage
//
//	p := policy.New(func(table string) (nodes.Values, error) {
//	    if table == "secrets" {
//	        return nil, policy.ErrDenied
//	    }
//	    return nodes.Values{"tenant_id": 42}, nil
//	})
//	m := managers.NewSelectManager("users").Use(p)
//	// SELECT * FROM users WHERE tenant_id = %(tenant_id)s;
//
// # Open Policy Agent
//
// NewFromServer evaluates policies with the partial evaluation (Compile)
// API of an OPA server instead of a Go function. Only equality conditions
// translate to filter values; see Client.Compile.
//
// A caller filter that already names a policy column must carry the same
// value, otherwise the statement is rejected with ErrConflict. Statements
// with a hand-written WHERE mask are rejected with ErrCustomWhere when the
// policy returns conditions.
package policy

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/bawdo/sqlwrapper/names"
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
)

var (
	// ErrDenied rejects a statement on a table the policy does not allow.
	ErrDenied = errors.New("policy: access denied")

	// ErrConflict reports a caller filter that contradicts the policy.
	ErrConflict = errors.New("policy: filter conflicts with policy")

	// ErrCustomWhere is returned when policy conditions meet a hand-written mask.
	ErrCustomWhere = errors.New("policy: cannot extend a hand-written WHERE mask")
)

// Func evaluates the policy for a table. A nil result allows every row.
type Func func(table string) (nodes.Values, error)

// Option configures a Policy.
type Option func(*Policy)

// WithTables restricts the policy to the named tables.
func WithTables(names ...string) Option {
	return func(p *Policy) {
		if p.tables == nil {
			p.tables = plugins.NewTableSet()
		}
		for _, n := range names {
			p.tables[n] = true
		}
	}
}

// Policy is a Transformer that filters SELECT, UPDATE, DELETE and grouped
// statements by the result of a policy evaluation.
type Policy struct {
	plugins.BaseTransformer
	eval   Func
	tables plugins.TableSet
}

// New creates a Policy evaluated by fn.
func New(fn Func, opts ...Option) *Policy {
	p := &Policy{eval: fn}
	for _, o := range opts {
		o(p)
	}
	return p
}

// NewFromServer creates a Policy evaluated by an OPA server. url is the
// server base URL, policyPath the rule to satisfy (e.g. "authz.allow") and
// input the input document sent with each request.
func NewFromServer(url, policyPath string, input map[string]any, opts ...Option) *Policy {
	return New(NewClient(url, policyPath, input).Compile, opts...)
}

func (p *Policy) TransformSelect(s *nodes.SelectStatement) (*nodes.SelectStatement, error) {
	f, err := p.filter(s.Table, s.Where, s.Filter)
	if err != nil {
		return nil, err
	}
	s.Filter = f
	return s, nil
}

func (p *Policy) TransformUpdate(s *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	f, err := p.filter(s.Table, s.Where, s.Filter)
	if err != nil {
		return nil, err
	}
	s.Filter = f
	return s, nil
}

func (p *Policy) TransformDelete(s *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	f, err := p.filter(s.From, s.Where, s.Filter)
	if err != nil {
		return nil, err
	}
	s.Filter = f
	return s, nil
}

func (p *Policy) TransformGrouping(s *nodes.GroupingStatement) (*nodes.GroupingStatement, error) {
	f, err := p.filter(s.Source, "", s.Filter)
	if err != nil {
		return nil, err
	}
	s.Filter = f
	return s, nil
}

func (p *Policy) filter(table, where string, filter nodes.Values) (nodes.Values, error) {
	if !p.tables.Contains(table) {
		return filter, nil
	}
	conds, err := p.eval(table)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", table, err)
	}
	if len(conds) == 0 {
		return filter, nil
	}
	if where != "" {
		return nil, fmt.Errorf("%w (table %s)", ErrCustomWhere, table)
	}
	if filter == nil {
		filter = nodes.Values{}
	}
	for _, col := range conds.Keys() {
		if _, err := names.Identifier(col); err != nil {
			return nil, fmt.Errorf("policy column: %w", err)
		}
		want := conds[col]
		if have, ok := filter[col]; ok && !reflect.DeepEqual(have, want) {
			return nil, fmt.Errorf("%w: %s", ErrConflict, col)
		}
		filter[col] = want
	}
	return filter, nil
}
