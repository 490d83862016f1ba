package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ergochat/readline"

	"github.com/bawdo/sqlwrapper/clauses"
	"github.com/bawdo/sqlwrapper/managers"
	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
	"github.com/bawdo/sqlwrapper/results"
	"github.com/bawdo/sqlwrapper/visitors"
)

var errNoStatement = errors.New("no statement defined (use 'select <table>' first)")

// stmtMode tracks which kind of statement the REPL is building.
type stmtMode int

const (
	modeNone stmtMode = iota
	modeSelect
	modeInsert
	modeUpdate
	modeDelete
	modeGroup
	modeTransaction
)

var modeNames = map[stmtMode]string{
	modeSelect:      "SELECT",
	modeInsert:      "INSERT",
	modeUpdate:      "UPDATE",
	modeDelete:      "DELETE",
	modeGroup:       "GROUP",
	modeTransaction: "TRANSACTION",
}

// Session holds the REPL state: the statement being built, the engine and
// its dialect, the enabled plugins and the database connection.
type Session struct {
	ctx     context.Context
	cfg     Config
	engine  string
	dialect *visitors.Dialect
	visitor nodes.Visitor
	logger  *slog.Logger

	mode      stmtMode
	table     string
	fields    []string
	values    nodes.Values
	filter    nodes.Values
	where     string
	returning []string
	columns   []clauses.GroupSpec
	txAction  clauses.Action
	txModes   []string

	plugins     pluginRegistry
	configurers []pluginConfigurer
	commands    []commandEntry // sorted by prefix length, longest first
	conn        *dbConn        // nil when disconnected
	lastDSN     string
	rl          *readline.Instance
	out         io.Writer
}

// NewSession creates a session for cfg. rl may be nil; interactive
// prompts then fall back to their defaults.
func NewSession(ctx context.Context, cfg Config, rl *readline.Instance) *Session {
	s := &Session{
		ctx:     ctx,
		cfg:     cfg,
		visitor: visitors.NewPyformatVisitor(),
		logger:  slog.New(slog.DiscardHandler),
		rl:      rl,
		out:     os.Stdout,
	}
	s.configurers = []pluginConfigurer{
		{name: "softdelete", configure: configureSoftdelete},
		{name: "policy", configure: configurePolicy},
	}
	s.setEngine(cfg.Engine)
	s.initCommands()
	return s
}

func (s *Session) pluginNames() []string {
	names := make([]string, len(s.configurers))
	for i, c := range s.configurers {
		names[i] = c.name
	}
	return names
}

func (s *Session) setEngine(engine string) {
	d, err := visitors.DialectFor(engine)
	if err != nil {
		d = visitors.NewPostgresDialect()
	}
	s.dialect = d
	s.engine = d.Name()
}

// start begins a new statement of the given kind, dropping the previous one.
func (s *Session) start(mode stmtMode, table string) {
	s.mode = mode
	s.table = table
	s.fields = nil
	s.values = nil
	s.filter = nil
	s.where = ""
	s.returning = nil
	s.columns = nil
	s.txAction = ""
	s.txModes = nil
}

// build renders the current statement with v and the enabled plugins.
func (s *Session) build(v nodes.Visitor) (string, map[string]any, error) {
	switch s.mode {
	case modeSelect:
		m := managers.NewSelectManager(s.table).Fields(s.fields...).Filter(s.filter).Where(s.where)
		s.plugins.applyTo(func(t plugins.Transformer) { m.Use(t) })
		return m.ToSQL(v)
	case modeInsert:
		m := managers.NewInsertManager(s.table).Values(s.values).Returning(s.returning...)
		s.plugins.applyTo(func(t plugins.Transformer) { m.Use(t) })
		return m.ToSQL(v)
	case modeUpdate:
		m := managers.NewUpdateManager(s.table).
			Logger(s.logger).
			Set(s.values).
			Filter(s.filter).
			Where(s.where).
			Returning(s.returning...)
		s.plugins.applyTo(func(t plugins.Transformer) { m.Use(t) })
		return m.ToSQL(v)
	case modeDelete:
		m := managers.NewDeleteManager(s.table).Filter(s.filter).Where(s.where).Returning(s.returning...)
		s.plugins.applyTo(func(t plugins.Transformer) { m.Use(t) })
		return m.ToSQL(v)
	case modeGroup:
		m := managers.NewGroupingManager(s.table).Columns(s.columns...).Filter(s.filter)
		s.plugins.applyTo(func(t plugins.Transformer) { m.Use(t) })
		return m.ToSQL(v)
	case modeTransaction:
		sql, err := (&nodes.TransactionStatement{Action: s.txAction, Modes: s.txModes}).Accept(v)
		return sql, nil, err
	default:
		return "", nil, errNoStatement
	}
}

// Execute parses and runs a single REPL command.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(line[len(cmd.prefix):])
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// --- statement commands ---

func (s *Session) cmdSelect(args string) error {
	table, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	if table == "" {
		return errors.New("usage: select <table> [field, field AS alias, ...]")
	}
	s.start(modeSelect, table)
	s.fields = splitList(rest)
	_, _ = fmt.Fprintf(s.out, "  SELECT from %q\n", table)
	return nil
}

func (s *Session) cmdInsertInto(args string) error {
	table := strings.TrimSpace(args)
	if table == "" {
		return errors.New("usage: insert into <table>")
	}
	s.start(modeInsert, table)
	_, _ = fmt.Fprintf(s.out, "  INSERT into %q (add values with 'set k=v')\n", table)
	return nil
}

func (s *Session) cmdUpdate(args string) error {
	table := strings.TrimSpace(args)
	if table == "" {
		return errors.New("usage: update <table>")
	}
	s.start(modeUpdate, table)
	_, _ = fmt.Fprintf(s.out, "  UPDATE %q\n", table)
	return nil
}

func (s *Session) cmdDeleteFrom(args string) error {
	table := strings.TrimSpace(args)
	if table == "" {
		return errors.New("usage: delete from <table>")
	}
	s.start(modeDelete, table)
	_, _ = fmt.Fprintf(s.out, "  DELETE from %q\n", table)
	return nil
}

func (s *Session) cmdGroup(args string) error {
	source := strings.TrimSpace(args)
	if source == "" {
		return errors.New("usage: group <table or view>")
	}
	s.start(modeGroup, source)
	_, _ = fmt.Fprintf(s.out, "  Grouped query over %q (add columns with 'column')\n", source)
	return nil
}

func (s *Session) cmdColumn(args string) error {
	if s.mode != modeGroup {
		return errors.New("column needs a grouped query (use 'group <table>' first)")
	}
	spec, err := clauses.ParseGroupSpec(strings.Fields(args)...)
	if err != nil {
		return err
	}
	if _, err := spec.Resolve(); err != nil {
		return err
	}
	s.columns = append(s.columns, spec)
	_, _ = fmt.Fprintf(s.out, "  Column added (%d columns)\n", len(s.columns))
	return nil
}

func (s *Session) cmdSet(args string) error {
	if s.mode != modeInsert && s.mode != modeUpdate {
		return errors.New("set needs an INSERT or UPDATE statement")
	}
	key, val, err := parseAssignment(args, false)
	if err != nil {
		return err
	}
	if s.values == nil {
		s.values = nodes.Values{}
	}
	s.values[key] = val
	_, _ = fmt.Fprintf(s.out, "  %s = %v\n", key, formatValue(val))
	return nil
}

func (s *Session) cmdFilter(args string) error {
	switch s.mode {
	case modeSelect, modeUpdate, modeDelete, modeGroup:
	case modeNone:
		return errNoStatement
	default:
		return fmt.Errorf("filter is not supported for %s", modeNames[s.mode])
	}
	key, val, err := parseAssignment(args, true)
	if err != nil {
		return err
	}
	if s.filter == nil {
		s.filter = nodes.Values{}
	}
	s.filter[key] = val
	_, _ = fmt.Fprintf(s.out, "  Filter %s = %v\n", key, formatValue(val))
	return nil
}

func (s *Session) cmdWhere(args string) error {
	switch s.mode {
	case modeSelect, modeUpdate, modeDelete:
	case modeNone:
		return errNoStatement
	default:
		return fmt.Errorf("where is not supported for %s", modeNames[s.mode])
	}
	s.where = strings.TrimSpace(args)
	if s.where == "" {
		_, _ = fmt.Fprintln(s.out, "  WHERE mask cleared")
		return nil
	}
	_, _ = fmt.Fprintln(s.out, "  WHERE mask set (replaces generated filter mask)")
	return nil
}

func (s *Session) cmdReturning(args string) error {
	switch s.mode {
	case modeInsert, modeUpdate, modeDelete:
	case modeNone:
		return errNoStatement
	default:
		return errors.New("returning needs an INSERT, UPDATE or DELETE statement")
	}
	fields := splitList(args)
	if _, err := clauses.Returning(fields...); err != nil {
		return err
	}
	s.returning = fields
	_, _ = fmt.Fprintf(s.out, "  RETURNING %s\n", strings.Join(fields, ", "))
	return nil
}

func (s *Session) cmdBegin(args string) error {
	modes := splitList(args)
	if len(modes) == 0 {
		modes = s.cfg.TransactionModes
	}
	return s.transaction(clauses.Begin, modes)
}

func (s *Session) cmdTransaction(args string) error {
	return s.transaction(clauses.Set, splitList(args))
}

func (s *Session) transaction(action clauses.Action, modes []string) error {
	if _, err := clauses.TransactionCommand(action, modes...); err != nil {
		return err
	}
	s.start(modeTransaction, "")
	s.txAction = action
	s.txModes = modes
	_, _ = fmt.Fprintf(s.out, "  %s TRANSACTION statement ready\n", action)
	return nil
}

// --- output commands ---

func (s *Session) cmdSQL() error {
	sql, params, err := s.build(s.visitor)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s\n", sql)
	s.printParams(params)
	return nil
}

// cmdBound shows the statement as the connected engine's driver receives it.
func (s *Session) cmdBound() error {
	sql, params, err := s.build(s.visitor)
	if err != nil {
		return err
	}
	for _, stmt := range s.dialect.Statements(sql) {
		query, args, err := s.dialect.Rebind(stmt, params)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(s.out, "  %s\n", query)
		if len(args) > 0 {
			_, _ = fmt.Fprintf(s.out, "  Args: %v\n", args)
		}
	}
	return nil
}

// cmdPreview shows the statement laid out on several lines with the values
// inlined. The output is for reading only.
func (s *Session) cmdPreview() error {
	sql, params, err := s.build(visitors.NewFormattingVisitor())
	if err != nil {
		return err
	}
	text, err := visitors.Interpolate(sql, params)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(text, "\n") {
		_, _ = fmt.Fprintf(s.out, "  %s\n", line)
	}
	return nil
}

func (s *Session) printParams(params map[string]any) {
	if len(params) == 0 {
		return
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, formatValue(params[k]))
	}
	_, _ = fmt.Fprintf(s.out, "  Params: %s\n", strings.Join(parts, ", "))
}

func (s *Session) cmdReset() error {
	s.start(modeNone, "")
	_, _ = fmt.Fprintln(s.out, "  Statement cleared")
	return nil
}

// --- database commands ---

func (s *Session) cmdConnect(args string) error {
	if s.conn != nil {
		return fmt.Errorf("already connected to %s (use 'disconnect' first)", sanitizeDSN(s.conn.dsn))
	}
	dsn := strings.TrimSpace(args)
	if dsn != "" {
		return s.connectWithDSN(dsn)
	}
	if s.lastDSN != "" {
		choice := prompt(s.rl, fmt.Sprintf("Reconnect to %s? (y/n/setup)", sanitizeDSN(s.lastDSN)), "y")
		switch strings.ToLower(choice) {
		case "y", "yes":
			return s.connectWithDSN(s.lastDSN)
		case "s", "setup":
		default:
			_, _ = fmt.Fprintln(s.out, "  Connect cancelled")
			return nil
		}
	}
	if s.rl == nil {
		return errors.New("usage: connect <dsn>")
	}
	dsn = buildDSN(s.rl, s.engine)
	if dsn == "" {
		_, _ = fmt.Fprintln(s.out, "  Connect cancelled")
		return nil
	}
	return s.connectWithDSN(dsn)
}

func (s *Session) connectWithDSN(dsn string) error {
	conn, err := connect(s.ctx, s.engine, dsn, s.logger, s.out)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.conn = conn
	s.lastDSN = dsn
	_, _ = fmt.Fprintf(s.out, "  Connected to %s (%s)\n", sanitizeDSN(dsn), s.engine)
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	dsn := sanitizeDSN(s.conn.dsn)
	if err := s.conn.close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	s.conn = nil
	_, _ = fmt.Fprintf(s.out, "  Disconnected from %s\n", dsn)
	return nil
}

func (s *Session) cmdExec() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	sql, params, err := s.build(s.visitor)
	if err != nil {
		return err
	}
	if s.conn.engine != s.engine {
		_, _ = fmt.Fprintf(s.out, "  Warning: connected to %s but engine is set to %s\n", s.conn.engine, s.engine)
	}
	_, _ = fmt.Fprintf(s.out, "  %s\n", sql)
	res, err := s.conn.db.Execute(s.ctx, sql, s.cfg.MaxRows, params)
	if err != nil {
		return err
	}
	renderResult(s.out, res, s.cfg.MaxRows)
	return nil
}

// cmdQuery runs a hand-written statement. The current filter values bind
// its %(name)s placeholders.
func (s *Session) cmdQuery(args string) error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	sql := strings.TrimSpace(args)
	if sql == "" {
		return errors.New("usage: query <sql>")
	}
	res, err := s.conn.db.Execute(s.ctx, sql, s.cfg.MaxRows, s.filter)
	if err != nil {
		return err
	}
	renderResult(s.out, res, s.cfg.MaxRows)
	return nil
}

func (s *Session) cmdTables() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	if err := s.conn.schema.Load(s.ctx); err != nil {
		return err
	}
	tables := s.conn.schema.Tables()
	res := &results.Result{Columns: []results.Column{{Name: "table"}}}
	for _, t := range tables {
		res.Rows = append(res.Rows, []any{t})
	}
	renderResult(s.out, res, 0)
	return nil
}

// --- engine and plugins ---

func (s *Session) cmdEngine(args string) error {
	name := strings.TrimSpace(strings.ToLower(args))
	if !isValidEngine(name) {
		return fmt.Errorf("unknown engine %q (choose: postgres, mysql, sqlite)", name)
	}
	s.setEngine(name)
	_, _ = fmt.Fprintf(s.out, "  Engine set to %s\n", s.engine)
	return nil
}

// cmdPlugin enables a plugin by name or dispatches to cmdPluginOff.
func (s *Session) cmdPlugin(args string) error {
	parts := strings.Fields(strings.TrimSpace(args))
	if len(parts) == 0 {
		return errors.New("usage: plugin <name> [args] | plugin off [name]")
	}
	name := strings.ToLower(parts[0])
	if name == "off" {
		return s.cmdPluginOff(parts[1:])
	}
	c, ok := findConfigurer(s.configurers, name)
	if !ok {
		return fmt.Errorf("unknown plugin: %s", name)
	}
	return c.configure(s, strings.TrimSpace(strings.TrimSpace(args)[len(parts[0]):]))
}

func (s *Session) cmdPluginOff(parts []string) error {
	if len(parts) == 0 {
		s.plugins.deregisterAll()
		_, _ = fmt.Fprintln(s.out, "  All plugins disabled")
		return nil
	}
	name := strings.ToLower(parts[0])
	if !s.plugins.deregister(name) {
		return fmt.Errorf("plugin %q is not enabled", name)
	}
	_, _ = fmt.Fprintf(s.out, "  %s disabled\n", name)
	return nil
}

func (s *Session) cmdPlugins() {
	_, _ = fmt.Fprintln(s.out, "  Available plugins:")
	for _, c := range s.configurers {
		if entry, ok := s.plugins.get(c.name); ok {
			_, _ = fmt.Fprintf(s.out, "    %-14s on   (%s)\n", c.name, entry.status())
		} else {
			_, _ = fmt.Fprintf(s.out, "    %-14s off\n", c.name)
		}
	}
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Statements:
    select <table> [fields]       Start a SELECT (fields: name or name AS alias)
    insert into <table>           Start an INSERT
    update <table>                Start an UPDATE
    delete from <table>           Start a DELETE
    group <table>                 Start a grouped SELECT
    column <name> [agg|-] [alias] Add a column to a grouped SELECT
    begin [modes]                 BEGIN TRANSACTION (modes comma separated)
    transaction <modes>           SET TRANSACTION

  Values:
    set <key>=<value>             Add an INSERT/UPDATE value
    filter <key>=<v>[,<v2>]       Add a filter; several values match any
    where <mask>                  Hand-written mask (replaces the filter mask)
    returning <fields|*>          Set RETURNING
    reset                         Clear the statement

  Output:
    sql                           Show the statement with %(name)s placeholders
    bound                         Show the statement as bound for the engine
    preview                       Show the statement laid out with values inlined

  Database:
    connect [dsn]                 Connect (prompts when no DSN is given)
    disconnect                    Close the connection
    exec / run                    Execute the statement
    query <sql>                   Execute hand-written SQL (filter values bind)
    tables                        List the database tables

  Settings:
    engine <postgres|mysql|sqlite>
    plugin softdelete [args]      Hide soft-deleted rows
    plugin policy <args>          Row-level policy (static filter or OPA server)
    plugin off [name]             Disable one or all plugins
    plugins                       Show plugin status
    help                          Show this help
    exit / quit                   Leave`)
}
