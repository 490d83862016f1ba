package clauses

import (
	"strings"

	"github.com/bawdo/sqlwrapper/names"
)

// Returning builds a PostgreSQL RETURNING clause. A single "*" returns all
// columns; otherwise every field must be a bare identifier. No fields yield
// an empty clause.
//
// Aliases ("id AS x") are rejected here even though names.NameOrAlias
// accepts them elsewhere: drivers report the whole expression as the column
// name, so records built from such a result would carry the wrong keys.
func Returning(fields ...string) (string, error) {
	if len(fields) == 0 {
		return "", nil
	}
	if len(fields) == 1 && fields[0] == names.Star {
		return "RETURNING *", nil
	}
	if _, err := names.Identifiers(fields...); err != nil {
		return "", err
	}
	return "RETURNING " + strings.Join(fields, ", "), nil
}
