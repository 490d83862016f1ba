package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/bawdo/sqlwrapper/results"
	"github.com/bawdo/sqlwrapper/sqldb"
)

type dbConn struct {
	db     *sqldb.DB
	schema *sqldb.Schema
	dsn    string
	engine string
}

func connect(ctx context.Context, engine, dsn string, logger *slog.Logger, warn io.Writer) (*dbConn, error) {
	db, err := sqldb.Open(ctx, engine, dsn, sqldb.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	conn := &dbConn{db: db, schema: sqldb.NewSchema(db), dsn: dsn, engine: db.Engine()}
	if err := conn.schema.Load(ctx); err != nil {
		// completion only; the connection is still usable
		_, _ = fmt.Fprintf(warn, "  Note: schema introspection failed: %v\n", err)
	}
	return conn, nil
}

func (c *dbConn) close() error {
	return c.db.Close()
}

// renderResult writes res as a table. maxRows is the limit the rows were
// read with; a full result is reported as possibly truncated.
func renderResult(w io.Writer, res *results.Result, maxRows int) {
	if res == nil || len(res.Columns) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c.Name
	}
	t.AppendHeader(header)
	for _, r := range res.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}
	t.Render()

	switch n := len(res.Rows); {
	case n == 1:
		_, _ = fmt.Fprintln(w, "(1 row)")
	default:
		_, _ = fmt.Fprintf(w, "(%d rows)\n", n)
	}
	if maxRows > 0 && len(res.Rows) == maxRows {
		_, _ = fmt.Fprintf(w, "(truncated at %d rows)\n", maxRows)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return fmt.Sprintf("\\x%x", x)
	default:
		return fmt.Sprint(x)
	}
}

func sanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			// built by hand so the mask is not percent-encoded
			masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
			if u.RawQuery != "" {
				masked += "?" + u.RawQuery
			}
			return masked
		}
		return dsn
	}

	// user:pass@tcp(host)/db
	if atIdx := strings.Index(dsn, "@"); atIdx > 0 {
		userPass := dsn[:atIdx]
		if colonIdx := strings.Index(userPass, ":"); colonIdx >= 0 {
			return userPass[:colonIdx+1] + "****" + dsn[atIdx:]
		}
	}
	return dsn
}
