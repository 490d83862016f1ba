package main

import (
	"sort"
	"strings"

	"github.com/bawdo/sqlwrapper/clauses"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand         completionContext = iota // start of line or partial command
	contextTableName                                // after select/update/insert into/...
	contextColumnRef                                // column names of the current table
	contextEngine                                   // after engine
	contextPlugin                                   // after plugin
	contextPluginOff                                // after plugin off
	contextTransactionMode                          // after begin/transaction
	contextValue                                    // free text, nothing to offer
)

var engineNames = []string{"mysql", "postgres", "sqlite"}

var aggregateNames = []string{"AVG", "COUNT", "MAX", "MIN", "SUM"}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of chars from end of line[:pos] that form the prefix being completed.
// newLine contains the suffixes to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])
	ctx, prefix := c.parseContext(lineStr)

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextTableName:
		candidates = c.completeTableNames(prefix)
	case contextColumnRef:
		candidates = c.completeColumns(prefix)
	case contextEngine:
		candidates = filterPrefix(engineNames, prefix)
	case contextPlugin:
		candidates = filterPrefix(append([]string{"off"}, c.sess.pluginNames()...), prefix)
	case contextPluginOff:
		candidates = filterPrefix(c.sess.plugins.names(), prefix)
	case contextTransactionMode:
		candidates = filterPrefix(transactionModeNames(), prefix)
	}

	for _, cand := range candidates {
		suffix := cand[len(prefix):]
		newLine = append(newLine, []rune(suffix+" "))
	}
	length = len([]rune(prefix))
	return
}

// parseContext examines the line up to cursor and determines what kind of
// completion is needed and the current prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)
	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") {
			continue
		}
		if strings.HasPrefix(lower, cmd.prefix) && cmd.completer != nil {
			return cmd.completer(line[len(cmd.prefix):])
		}
	}
	return contextCommand, strings.TrimSpace(line)
}

// completeTableNames returns the database tables matching prefix.
func (c *replCompleter) completeTableNames(prefix string) []string {
	if c.sess.conn == nil {
		return nil
	}
	names := dedup(c.sess.conn.schema.Tables())
	sort.Strings(names)
	return filterPrefix(names, prefix)
}

// completeColumns offers the columns of the statement's table, plus the
// aggregate functions while building a grouped query.
func (c *replCompleter) completeColumns(prefix string) []string {
	var candidates []string
	if c.sess.conn != nil && c.sess.table != "" {
		candidates = append(candidates, c.sess.conn.schema.Columns(c.sess.ctx, c.sess.table)...)
	}
	if c.sess.mode == modeGroup {
		candidates = append(candidates, aggregateNames...)
	}
	return filterPrefix(candidates, prefix)
}

func transactionModeNames() []string {
	modes := clauses.TransactionModes()
	out := make([]string, len(modes))
	for i, m := range modes {
		out[i] = strings.ToLower(m)
	}
	return out
}

// filterPrefix returns items that start with prefix (case-insensitive).
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		result := make([]string, len(items))
		copy(result, items)
		return result
	}
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

// dedup removes duplicate strings.
func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the last whitespace- or comma-separated token.
func lastToken(s string) string {
	if i := strings.LastIndexAny(s, " ,\t"); i >= 0 {
		return s[i+1:]
	}
	return s
}
