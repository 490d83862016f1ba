package visitors

// NewSQLiteDialect binds with "?" markers and expands "= ANY(...)" filters
// to IN lists, as SQLite has neither arrays nor ANY. Transactions are
// always serializable: BEGIN drops its modes and SET TRANSACTION runs
// nothing.
func NewSQLiteDialect() *Dialect {
	return &Dialect{
		name:        "sqlite",
		placeholder: func(_ int) string { return "?" },
		expand:      true,
		rewrite: map[string]func(string) []string{
			"BEGIN TRANSACTION": func(string) []string { return []string{"BEGIN;"} },
			"SET TRANSACTION":   func(string) []string { return nil },
		},
	}
}
