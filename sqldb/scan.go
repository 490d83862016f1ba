package sqldb

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/bawdo/sqlwrapper/results"
)

// binaryTypes keeps []byte values for these database type names; bytes of
// any other column are returned as strings.
var binaryTypes = []string{"BLOB", "BYTEA", "BINARY"}

func isBinary(typeName string) bool {
	t := strings.ToUpper(typeName)
	for _, b := range binaryTypes {
		if strings.Contains(t, b) {
			return true
		}
	}
	return false
}

// scan reads at most maxRows rows (all when maxRows <= 0) and closes rows.
func scan(rows *sql.Rows, maxRows int) (*results.Result, error) {
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	res := &results.Result{Columns: make([]results.Column, len(types))}
	for i, ct := range types {
		col := results.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = &nullable
		}
		res.Columns[i] = col
	}

	for rows.Next() {
		if maxRows > 0 && len(res.Rows) >= maxRows {
			break
		}
		vals := make([]any, len(types))
		ptrs := make([]any, len(types))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok && !isBinary(res.Columns[i].Type) {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return res, nil
}
