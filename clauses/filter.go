// Package clauses builds the SQL fragments that surround the values of a
// statement: WHERE/HAVING masks, RETURNING clauses, transaction commands and
// grouped SELECT wrappers.
//
// Every name a clause emits literally passes through the names package
// first. Values never appear in the generated text; they are referenced by
// pyformat placeholders (%(name)s) and bound later by the driver.
package clauses

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/bawdo/sqlwrapper/names"
)

// Keyword introduces a filter mask.
type Keyword string

const (
	Where  Keyword = "WHERE"
	Having Keyword = "HAVING"
)

// ErrInvalidKeyword reports a filter keyword other than WHERE or HAVING.
var ErrInvalidKeyword = errors.New("invalid filter keyword")

// Placeholder returns the value placeholder for key, e.g. %(key)s.
func Placeholder(key string) string {
	return "%(" + key + ")s"
}

// PlaceholderAt reports whether s[i:] starts with a %(key)s placeholder
// and returns its key and the index just past it. Keys end at the first
// ")"; a "%" or "(" before it means s[i] is not a placeholder.
func PlaceholderAt(s string, i int) (key string, end int, ok bool) {
	if !strings.HasPrefix(s[i:], "%(") {
		return "", 0, false
	}
	start := i + 2
	for j := start; j < len(s); j++ {
		switch s[j] {
		case '%', '(':
			return "", 0, false
		case ')':
			if j+1 < len(s) && s[j+1] == 's' {
				return s[start:j], j + 2, true
			}
			return "", 0, false
		}
	}
	return "", 0, false
}

// IsSequence reports whether v should be matched with = ANY(...) rather
// than plain equality. Slices and arrays are sequences; strings, byte
// slices and driver.Valuer implementations are scalars.
func IsSequence(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(driver.Valuer); ok {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}

// OrderKeys returns the keys of data with the names in priority first, in
// priority order, followed by the remaining keys in ascending order.
// Priority names that are not keys of data are ignored.
func OrderKeys(data map[string]any, priority []string) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(priority) == 0 {
		return keys
	}

	rank := make(map[string]int, len(priority))
	for i, p := range priority {
		if _, dup := rank[p]; !dup {
			rank[p] = i
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return false // both unranked: keep lexical order
		}
	})
	return keys
}

// FilterMask builds a WHERE or HAVING mask over the keys of data. Scalar
// values compare with "key = %(key)s", sequences with "key = ANY(%(key)s)".
// Fragments are joined with AND in the order given by OrderKeys. An empty
// data set yields an empty mask.
func FilterMask(data map[string]any, priority []string, kw Keyword) (string, error) {
	if kw != Where && kw != Having {
		return "", fmt.Errorf("%w: %q", ErrInvalidKeyword, kw)
	}
	if len(data) == 0 {
		return "", nil
	}
	keys := OrderKeys(data, priority)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, err := names.Identifier(key); err != nil {
			return "", err
		}
		if IsSequence(data[key]) {
			parts = append(parts, key+" = ANY("+Placeholder(key)+")")
		} else {
			parts = append(parts, key+" = "+Placeholder(key))
		}
	}
	return string(kw) + " " + strings.Join(parts, " AND "), nil
}
