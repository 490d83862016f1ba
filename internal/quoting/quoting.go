// Package quoting renders values as SQL literals for debug previews.
package quoting

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// EscapeString escapes a string literal for SQL by doubling single quotes
// and escaping backslashes (for MySQL compatibility).
//
// SECURITY: the result is meant for display. Statements sent to a database
// bind their values through the driver.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

// Literal renders v the way it would appear written into the statement.
// Slices and arrays other than []byte become ARRAY[...].
func Literal(v any) string {
	if dv, ok := v.(driver.Valuer); ok {
		val, err := dv.Value()
		if err != nil {
			return "'" + EscapeString(fmt.Sprint(v)) + "'"
		}
		v = val
	}
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + EscapeString(x) + "'"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case []byte:
		return `'\x` + hex.EncodeToString(x) + "'"
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05.999999999Z07:00") + "'"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = Literal(rv.Index(i).Interface())
		}
		return "ARRAY[" + strings.Join(items, ", ") + "]"
	}
	if s, ok := v.(fmt.Stringer); ok {
		return "'" + EscapeString(s.String()) + "'"
	}
	return "'" + EscapeString(fmt.Sprint(v)) + "'"
}
