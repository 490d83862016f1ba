package visitors

import (
	"fmt"
	"strings"

	"github.com/bawdo/sqlwrapper/clauses"
	"github.com/bawdo/sqlwrapper/internal/quoting"
)

// Interpolate writes params into query as literals. The result is for
// logs and previews only; statements sent to a database go through
// Dialect.Rebind.
func Interpolate(query string, params map[string]any) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(query); {
		if query[i] != '%' {
			sb.WriteByte(query[i])
			i++
			continue
		}
		if strings.HasPrefix(query[i:], "%%") {
			sb.WriteByte('%')
			i += 2
			continue
		}
		key, end, ok := clauses.PlaceholderAt(query, i)
		if !ok {
			sb.WriteByte('%')
			i++
			continue
		}
		val, found := params[key]
		if !found {
			return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
		}
		sb.WriteString(quoting.Literal(val))
		i = end
	}
	return sb.String(), nil
}
