package visitors

// NewMySQLDialect binds with "?" markers. The driver has no array type, so
// "= ANY(...)" filters are expanded to IN lists. BEGIN TRANSACTION becomes
// SET TRANSACTION for the modes followed by START TRANSACTION.
func NewMySQLDialect() *Dialect {
	return &Dialect{
		name:        "mysql",
		placeholder: func(_ int) string { return "?" },
		expand:      true,
		rewrite: map[string]func(string) []string{
			"BEGIN TRANSACTION": func(modes string) []string {
				if modes == "" {
					return []string{"START TRANSACTION;"}
				}
				return []string{"SET TRANSACTION " + modes + ";", "START TRANSACTION;"}
			},
		},
	}
}
