package main

import (
	"errors"
	"sort"
	"strings"
)

// commandEntry maps a REPL prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		// --- output ---
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }},
		{prefix: "bound", handler: func(_ string) error { return s.cmdBound() }},
		{prefix: "preview", handler: func(_ string) error { return s.cmdPreview() }},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},

		// --- statements ---
		{prefix: "select ", handler: s.cmdSelect, completer: completeTableArgs},
		{prefix: "insert into ", handler: s.cmdInsertInto, completer: completeTableArgs},
		{prefix: "update ", handler: s.cmdUpdate, completer: completeTableArgs},
		{prefix: "delete from ", handler: s.cmdDeleteFrom, completer: completeTableArgs},
		{prefix: "group ", handler: s.cmdGroup, completer: completeTableArgs},
		{prefix: "column ", handler: s.cmdColumn, completer: completeColumnArgs},
		{prefix: "begin ", handler: s.cmdBegin, completer: completeModeArgs},
		{prefix: "begin", handler: func(_ string) error { return s.cmdBegin("") }},
		{prefix: "transaction ", handler: s.cmdTransaction, completer: completeModeArgs},

		// --- values ---
		{prefix: "set ", handler: s.cmdSet, completer: completeColumnArgs},
		{prefix: "filter ", handler: s.cmdFilter, completer: completeColumnArgs},
		{prefix: "where ", handler: s.cmdWhere, completer: completeColumnArgs},
		{prefix: "where", handler: func(_ string) error { return s.cmdWhere("") }, hidden: true},
		{prefix: "returning ", handler: s.cmdReturning, completer: completeColumnArgs},

		// --- database connectivity ---
		{prefix: "connect ", handler: s.cmdConnect},
		{prefix: "connect", handler: func(_ string) error { return s.cmdConnect("") }},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdExec() }},
		{prefix: "run", handler: func(_ string) error { return s.cmdExec() }},
		{prefix: "query ", handler: s.cmdQuery, completer: completeTableArgs},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }},

		// --- engine / plugins ---
		{prefix: "engine ", handler: s.cmdEngine, completer: completeEngineArgs},
		{prefix: "engine", handler: func(_ string) error { return errors.New("usage: engine <postgres|mysql|sqlite>") }},
		{prefix: "plugin ", handler: s.cmdPlugin, completer: completePluginArgs},
		{prefix: "plugins", handler: func(_ string) error { s.cmdPlugins(); return nil }},
	}

	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// exit/quit are handled by the REPL loop, not Execute().
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

// completeTableArgs completes the table name of select, insert into,
// update, delete from and group.
func completeTableArgs(args string) (completionContext, string) {
	arg := strings.TrimLeft(args, " ")
	if !strings.Contains(arg, " ") {
		return contextTableName, arg
	}
	return contextColumnRef, lastToken(args)
}

// completeColumnArgs completes column names of the current table.
func completeColumnArgs(args string) (completionContext, string) {
	if strings.HasSuffix(args, " ") || strings.HasSuffix(args, ",") {
		return contextColumnRef, ""
	}
	last := lastToken(args)
	if strings.Contains(last, "=") {
		return contextValue, ""
	}
	return contextColumnRef, last
}

// completeModeArgs completes transaction modes after begin/transaction.
func completeModeArgs(args string) (completionContext, string) {
	parts := strings.Split(args, ",")
	return contextTransactionMode, strings.TrimLeft(parts[len(parts)-1], " ")
}

func completeEngineArgs(args string) (completionContext, string) {
	return contextEngine, strings.TrimSpace(args)
}

// completePluginArgs completes plugin names, or after "off" the names of
// enabled plugins.
func completePluginArgs(args string) (completionContext, string) {
	if strings.HasPrefix(strings.ToLower(args), "off ") {
		return contextPluginOff, strings.TrimSpace(args[4:])
	}
	arg := strings.TrimSpace(args)
	if !strings.Contains(arg, " ") {
		return contextPlugin, arg
	}
	return contextValue, ""
}
