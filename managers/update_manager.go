package managers

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
)

var (
	// ErrEmptyUpdateData is returned when no SET values remain after
	// reconciliation with the filter.
	ErrEmptyUpdateData = errors.New("empty update data")

	// ErrConflictingKeys is returned when a key is both filtered on and
	// updated with a different value.
	ErrConflictingKeys = errors.New("update and filter share keys with different values")
)

// UpdateManager provides a fluent API for building UPDATE statements.
//
// SET values and filter values share one parameter namespace. Keys present
// in both with equal values are dropped from the SET clause; keys with
// different values are an error.
type UpdateManager struct {
	treeManager
	Statement *nodes.UpdateStatement
	fork      bool
	logger    *slog.Logger
}

// NewUpdateManager creates a new UpdateManager targeting the given table.
func NewUpdateManager(table string) *UpdateManager {
	return &UpdateManager{
		Statement: &nodes.UpdateStatement{Table: table},
		fork:      true,
		logger:    discard,
	}
}

// Set adds values to the SET clause.
func (m *UpdateManager) Set(values nodes.Values) *UpdateManager {
	m.Statement.Set = merge(m.Statement.Set, values)
	return m
}

// Filter sets the filter values. The map is kept by reference: with
// Fork(false) ToSQL merges the SET values into it.
func (m *UpdateManager) Filter(values nodes.Values) *UpdateManager {
	m.Statement.Filter = values
	return m
}

// Where sets a hand-written mask used instead of the generated one.
func (m *UpdateManager) Where(mask string) *UpdateManager {
	m.Statement.Where = mask
	return m
}

// Returning sets the RETURNING columns, reported after the change.
func (m *UpdateManager) Returning(fields ...string) *UpdateManager {
	m.Statement.Returning = append([]string(nil), fields...)
	return m
}

// Fork controls whether parameters are assembled in a copy of the filter
// (the default) or in the caller's filter map.
func (m *UpdateManager) Fork(fork bool) *UpdateManager {
	m.fork = fork
	return m
}

// Logger sets the logger used to report key conflicts.
func (m *UpdateManager) Logger(l *slog.Logger) *UpdateManager {
	if l != nil {
		m.logger = l
	}
	return m
}

// Use registers a transformer plugin.
func (m *UpdateManager) Use(t plugins.Transformer) *UpdateManager {
	m.addTransformer(t)
	return m
}

// reconcile drops keys from set that the filter pins to the same value.
// set is modified in place and must be a private copy.
func (m *UpdateManager) reconcile(set, filter nodes.Values) error {
	var conflicts []string
	for _, key := range filter.Keys() {
		u, ok := set[key]
		if !ok {
			continue
		}
		q := filter[key]
		if sameValue(u, q) {
			delete(set, key)
			continue
		}
		m.logger.Error("update: key is both in filter and update data",
			"table", m.Statement.Table, "key", key, "filter_value", q, "update_value", u)
		conflicts = append(conflicts, key)
	}
	if len(set) == 0 {
		return fmt.Errorf("update %s: %w", m.Statement.Table, ErrEmptyUpdateData)
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("update %s: %w: %s", m.Statement.Table, ErrConflictingKeys, strings.Join(conflicts, ", "))
	}
	return nil
}

// sameValue compares two filter or SET values. Numbers compare by value
// across Go numeric types, so int(1) and int64(1) match; everything else
// must be deeply equal.
func sameValue(a, b any) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isInt(ra) && isInt(rb):
		return ra.Int() == rb.Int()
	case isUint(ra) && isUint(rb):
		return ra.Uint() == rb.Uint()
	case isInt(ra) && isUint(rb):
		return ra.Int() >= 0 && uint64(ra.Int()) == rb.Uint()
	case isUint(ra) && isInt(rb):
		return rb.Int() >= 0 && uint64(rb.Int()) == ra.Uint()
	case isNumber(ra) && isNumber(rb):
		return toFloat(ra) == toFloat(rb)
	}
	return reflect.DeepEqual(a, b)
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumber(v reflect.Value) bool {
	k := v.Kind()
	return isInt(v) || isUint(v) || k == reflect.Float32 || k == reflect.Float64
}

func toFloat(v reflect.Value) float64 {
	switch {
	case isInt(v):
		return float64(v.Int())
	case isUint(v):
		return float64(v.Uint())
	}
	return v.Float()
}

// ToSQL applies transformers, reconciles the SET values with the resulting
// filter and renders the statement. Filter keys added by plugins take part
// in reconciliation, so a SET value can never rebind a plugin's filter
// value. The returned parameters hold the filter values merged with the
// remaining SET values.
func (m *UpdateManager) ToSQL(v nodes.Visitor) (string, map[string]any, error) {
	stmt := m.Statement.Clone()
	for _, t := range m.transformers {
		var err error
		stmt, err = t.TransformUpdate(stmt)
		if err != nil {
			return "", nil, err
		}
	}
	if err := m.reconcile(stmt.Set, stmt.Filter); err != nil {
		return "", nil, err
	}
	sql, err := render(v, stmt)
	if err != nil {
		return "", nil, err
	}
	if m.fork || m.Statement.Filter == nil {
		return sql, params(stmt.Filter, stmt.Set), nil
	}
	shared := m.Statement.Filter
	merge(shared, stmt.Filter)
	merge(shared, stmt.Set)
	return sql, shared, nil
}
