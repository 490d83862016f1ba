package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bawdo/sqlwrapper/plugins"
	"github.com/bawdo/sqlwrapper/plugins/softdelete"
)

// configureSoftdelete parses the softdelete arguments and registers the
// plugin:
//
//	plugin softdelete                          deleted = false on all tables
//	plugin softdelete removed                  custom column on all tables
//	plugin softdelete removed=0                custom column and value
//	plugin softdelete removed on users posts   custom column on some tables
//	plugin softdelete users.deleted, posts.removed
func configureSoftdelete(s *Session, args string) error {
	rest := strings.TrimSpace(args)
	var opts []softdelete.Option
	var statusFn func() string

	switch {
	case strings.Contains(rest, ".") && !strings.Contains(rest, "="):
		columns := map[string]string{}
		for _, pair := range splitList(rest) {
			table, col, ok := strings.Cut(pair, ".")
			if !ok || table == "" || col == "" {
				return fmt.Errorf("invalid table.column pair: %q", pair)
			}
			opts = append(opts, softdelete.WithTableColumn(table, col))
			columns[table] = col
		}
		statusFn = func() string {
			pairs := make([]string, 0, len(columns))
			for t, c := range columns {
				pairs = append(pairs, t+"."+c)
			}
			sort.Strings(pairs)
			return strings.Join(pairs, ", ")
		}

	case strings.Contains(strings.ToLower(rest), " on "):
		idx := strings.Index(strings.ToLower(rest), " on ")
		colOpts, col, err := softdeleteColumn(strings.TrimSpace(rest[:idx]))
		if err != nil {
			return err
		}
		tableList := strings.Fields(rest[idx+4:])
		if col == "" || len(tableList) == 0 {
			return errors.New("usage: plugin softdelete <column>[=value] on <table1> [table2 ...]")
		}
		opts = append(colOpts, softdelete.WithTables(tableList...))
		statusFn = func() string {
			return fmt.Sprintf("column: %s, tables: %s", col, strings.Join(tableList, ", "))
		}

	case rest != "":
		colOpts, col, err := softdeleteColumn(strings.Fields(rest)[0])
		if err != nil {
			return err
		}
		opts = colOpts
		statusFn = func() string { return "column: " + col }

	default:
		statusFn = func() string { return "column: " + softdelete.DefaultColumn }
	}

	s.plugins.register(pluginEntry{
		name:    "softdelete",
		factory: func() plugins.Transformer { return softdelete.New(opts...) },
		status:  statusFn,
	})
	_, _ = fmt.Fprintf(s.out, "  Soft-delete enabled (%s)\n", statusFn())
	return nil
}

// softdeleteColumn parses "column" or "column=value".
func softdeleteColumn(spec string) ([]softdelete.Option, string, error) {
	if !strings.Contains(spec, "=") {
		return []softdelete.Option{softdelete.WithColumn(spec)}, spec, nil
	}
	col, val, err := parseAssignment(spec, false)
	if err != nil {
		return nil, "", err
	}
	return []softdelete.Option{softdelete.WithColumn(col), softdelete.WithValue(val)}, col, nil
}
