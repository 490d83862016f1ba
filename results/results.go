// Package results turns raw driver results into name-keyed records.
package results

import (
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
)

// ErrArityMismatch reports a row whose width differs from the name list.
var ErrArityMismatch = errors.New("row arity does not match names")

// ErrConsumed reports a second pass over a single-use record sequence.
var ErrConsumed = errors.New("records already consumed")

// Column describes one result column.
type Column struct {
	Name     string
	Type     string // database type name as reported by the driver, may be empty
	Nullable *bool  // nil when the driver does not know
}

// Result is the raw outcome of one statement: column descriptors in
// column order and positional rows.
type Result struct {
	Columns []Column
	Rows    [][]any
}

// Names returns the column names in column order.
func (r *Result) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Name
	}
	return out
}

// Record is one row keyed by name.
type Record map[string]any

// MapRows zips each row of res with names. A single "*" takes the names
// from the result's columns. The returned sequence may be ranged over
// once; a second pass yields ErrConsumed.
//
// Rows whose width differs from the name list are not truncated: the
// sequence yields ErrArityMismatch for the first such row and stops.
func MapRows(res *Result, names ...string) iter.Seq2[Record, error] {
	if len(names) == 1 && names[0] == "*" {
		names = res.Names()
	}
	var used atomic.Bool
	return func(yield func(Record, error) bool) {
		if used.Swap(true) {
			yield(nil, ErrConsumed)
			return
		}
		if res == nil {
			return
		}
		for i, row := range res.Rows {
			if len(row) != len(names) {
				yield(nil, fmt.Errorf("%w: row %d has %d values for %d names",
					ErrArityMismatch, i, len(row), len(names)))
				return
			}
			rec := make(Record, len(names))
			for j, name := range names {
				rec[name] = row[j]
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Record, error]) ([]Record, error) {
	var out []Record
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Records maps every row of res by its column names.
func Records(res *Result) ([]Record, error) {
	return Collect(MapRows(res, "*"))
}
