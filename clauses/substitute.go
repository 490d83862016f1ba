package clauses

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/sqlwrapper/names"
)

// SubstituteNames replaces name placeholders in template with the bound
// identifiers, e.g.
//
//	SubstituteNames("SELECT * FROM %(table)s WHERE val=%(val)s;",
//		map[string]string{"table": "fozzie"})
//	// SELECT * FROM fozzie WHERE val=%(val)s;
//
// Bound names are inserted unquoted, so every binding must be an
// identifier. Placeholders without a binding are value placeholders and are
// left verbatim for the driver; their keys must still be identifiers.
// Escaped percent signs (%%) are passed through untouched.
func SubstituteNames(template string, bindings map[string]string) (string, error) {
	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := names.Identifier(k); err != nil {
			return "", fmt.Errorf("name placeholder: %w", err)
		}
		if _, err := names.Identifier(bindings[k]); err != nil {
			return "", fmt.Errorf("name bound to %q: %w", k, err)
		}
	}

	var b strings.Builder
	b.Grow(len(template))
	for i := 0; i < len(template); {
		rest := template[i:]
		switch {
		case strings.HasPrefix(rest, "%%"):
			b.WriteString("%%")
			i += 2
			continue
		case strings.HasPrefix(rest, "%("):
			key, end, ok := PlaceholderAt(template, i)
			if !ok {
				break
			}
			if name, ok := bindings[key]; ok {
				b.WriteString(name)
			} else {
				if _, err := names.Identifier(key); err != nil {
					return "", fmt.Errorf("value placeholder: %w", err)
				}
				b.WriteString(Placeholder(key))
			}
			i = end
			continue
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String(), nil
}
