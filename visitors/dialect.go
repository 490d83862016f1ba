package visitors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bawdo/sqlwrapper/clauses"
)

var (
	// ErrMissingParam is returned when a value placeholder has no parameter.
	ErrMissingParam = errors.New("missing parameter")

	// ErrUnknownEngine is returned by DialectFor for unsupported engines.
	ErrUnknownEngine = errors.New("unknown database engine")
)

// Dialect performs the value-binding pass for one database driver family:
// it rewrites %(name)s placeholders into the driver's bind syntax and
// returns the positional arguments.
type Dialect struct {
	name string

	// placeholder returns the bind marker for a 1-based argument index.
	placeholder func(int) string

	// reuse binds repeated keys to the same argument (numbered markers).
	reuse bool

	// expand rewrites "= ANY(%(k)s)" with a sequence into "IN (...)" for
	// drivers that cannot bind arrays.
	expand bool

	// rewrite maps a transaction command ("BEGIN TRANSACTION", "SET
	// TRANSACTION") to the statements the database understands for its
	// modes. Commands without an entry are kept as they are.
	rewrite map[string]func(modes string) []string
}

// Name returns the engine name the dialect was created for.
func (d *Dialect) Name() string { return d.name }

// Statements returns the statements to run for sqlText. Only transaction
// commands differ between databases; everything else is returned unchanged
// as a single statement. The result may be empty.
func (d *Dialect) Statements(sqlText string) []string {
	trimmed := strings.TrimSpace(sqlText)
	for cmd, fn := range d.rewrite {
		rest, ok := strings.CutPrefix(trimmed, cmd)
		if !ok || (rest != "" && rest[0] != ' ' && rest[0] != ';') {
			continue
		}
		return fn(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ";")))
	}
	return []string{sqlText}
}

// DialectFor returns the dialect for an engine name.
func DialectFor(engine string) (*Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "postgres", "postgresql", "pg":
		return NewPostgresDialect(), nil
	case "mysql", "mariadb":
		return NewMySQLDialect(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDialect(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

func sequenceItems(v any) []any {
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

const anyPrefix = "= ANY("

// Rebind rewrites query for the driver. "%%" becomes "%", a lone "%" is
// kept, and each %(key)s is replaced by a bind marker with params[key]
// appended to the returned arguments.
func (d *Dialect) Rebind(query string, params map[string]any) (string, []any, error) {
	var sb strings.Builder
	sb.Grow(len(query))
	var args []any
	positions := make(map[string]int)

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
			return "", nil, fmt.Errorf("%w: %s", ErrMissingParam, key)
		}

		if d.expand && clauses.IsSequence(val) && strings.HasPrefix(query[end:], ")") {
			if head, ok := strings.CutSuffix(sb.String(), anyPrefix); ok {
				sb.Reset()
				sb.WriteString(head)
				items := sequenceItems(val)
				if len(items) == 0 {
					sb.WriteString("IN (NULL)")
				} else {
					markers := make([]string, len(items))
					for j, item := range items {
						args = append(args, item)
						markers[j] = d.placeholder(len(args))
					}
					sb.WriteString("IN (" + strings.Join(markers, ", ") + ")")
				}
				i = end + 1
				continue
			}
		}

		if n, seen := positions[key]; seen && d.reuse {
			sb.WriteString(d.placeholder(n))
			i = end
			continue
		}
		args = append(args, val)
		positions[key] = len(args)
		sb.WriteString(d.placeholder(len(args)))
		i = end
	}
	return sb.String(), args, nil
}
