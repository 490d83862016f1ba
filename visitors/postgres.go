package visitors

import "fmt"

// NewPostgresDialect binds with numbered markers: $1, $2. A key used twice
// is bound once. Sequences are passed as arrays, which pgx encodes natively.
func NewPostgresDialect() *Dialect {
	return &Dialect{
		name:        "postgres",
		placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
		reuse:       true,
	}
}
