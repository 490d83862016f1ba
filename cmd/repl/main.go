// REPL binary for interactively building and executing statements.
//
// Configuration is read from ./sqlwrapper.yaml (or --config), SQLWRAPPER_*
// environment variables and flags; DATABASE_URL is used when no DSN is
// configured.
//
// Usage:
//
//	go run ./cmd/repl --engine sqlite --dsn :memory:
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/user"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const mainPrompt = "sqlwrapper> "

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func addFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default: ./sqlwrapper.yaml)")
	fs.String("engine", "", "database engine (postgres, mysql, sqlite)")
	fs.String("dsn", "", "connection string; connects on start")
	fs.Int("max-rows", defaultMaxRows, "maximum rows shown per statement")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("history-file", "", "readline history file")
	fs.StringSlice("transaction-mode", nil, "mode for 'begin' without arguments (repeatable)")
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sqlwrapper",
		Short: "Interactive SQL statement builder",
		Long: `sqlwrapper builds SELECT, INSERT, UPDATE, DELETE, grouped and transaction
statements from validated names and %(name)s value placeholders, shows them
as bound for PostgreSQL, MySQL or SQLite, and runs them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	addFlags(cmd.Flags())
	_ = cmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return engineNames, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func run(ctx context.Context, cfg *Config) error {
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          mainPrompt,
		HistoryFile:     cfg.HistoryFile,
		HistoryLimit:    500,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sess := NewSession(ctx, *cfg, rl)
	sess.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	if err := rl.SetConfig(&readline.Config{
		Prompt:          mainPrompt,
		HistoryFile:     cfg.HistoryFile,
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	}); err != nil {
		return fmt.Errorf("readline config: %w", err)
	}

	if cfg.File != "" {
		fmt.Printf("[Config] Using %s\n", cfg.File)
	}
	fmt.Printf("[Config] Engine: %s\n", sess.engine)
	if cfg.DSN != "" {
		if err := sess.connectWithDSN(cfg.DSN); err != nil {
			fmt.Fprintf(os.Stderr, "  Warning: %v\n", err)
		}
	} else {
		fmt.Println("[Config] Not connected; use 'connect [dsn]' to connect")
	}

	fmt.Println()
	fmt.Println("sqlwrapper REPL: type 'help' for commands, 'exit' to quit")
	fmt.Println()

	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) || err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			break
		}
		if err := sess.Execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
	}
	if sess.conn != nil {
		_ = sess.conn.close()
	}
	fmt.Println()
	return nil
}

// prompt prints a label with an optional default and returns the user's input
// (or the default if they press enter).
func prompt(rl *readline.Instance, label, defaultVal string) string {
	if rl == nil {
		return defaultVal
	}
	if defaultVal != "" {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s [%s]: ", label, defaultVal))
	} else {
		rl.SetPrompt(fmt.Sprintf("[Config]   %s: ", label))
	}
	defer rl.SetPrompt(mainPrompt)
	line, err := rl.ReadLine()
	if err != nil {
		return defaultVal
	}
	if val := strings.TrimSpace(line); val != "" {
		return val
	}
	return defaultVal
}

// buildDSN asks for the connection details of engine.
func buildDSN(rl *readline.Instance, engine string) string {
	switch engine {
	case "sqlite":
		fmt.Println("[Config] SQLite connection setup:")
		return prompt(rl, "Database path", ":memory:")
	case "mysql":
		return buildMySQLDSN(rl)
	default:
		return buildPostgresDSN(rl)
	}
}

func buildPostgresDSN(rl *readline.Instance) string {
	fmt.Println("[Config] PostgreSQL connection setup:")

	defaultUser := "postgres"
	if u, err := user.Current(); err == nil && u.Username != "" {
		defaultUser = u.Username
	}

	dbUser := prompt(rl, "User", defaultUser)
	dbPass := prompt(rl, "Password", "")
	host := prompt(rl, "Host", "localhost")
	port := prompt(rl, "Port", "5432")
	dbName := prompt(rl, "Database", dbUser)
	sslMode := prompt(rl, "SSL mode (disable/require/verify-full)", "disable")

	userInfo := url.User(dbUser)
	if dbPass != "" {
		userInfo = url.UserPassword(dbUser, dbPass)
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     userInfo,
		Host:     host + ":" + port,
		Path:     "/" + dbName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// buildMySQLDSN returns a mysql:// URL; sqldb converts it for the driver.
func buildMySQLDSN(rl *readline.Instance) string {
	fmt.Println("[Config] MySQL connection setup:")

	dbUser := prompt(rl, "User", "root")
	dbPass := prompt(rl, "Password", "")
	host := prompt(rl, "Host", "localhost")
	port := prompt(rl, "Port", "3306")
	dbName := prompt(rl, "Database", "")
	if dbName == "" {
		return ""
	}

	userInfo := url.User(dbUser)
	if dbPass != "" {
		userInfo = url.UserPassword(dbUser, dbPass)
	}
	u := &url.URL{Scheme: "mysql", User: userInfo, Host: host + ":" + port, Path: "/" + dbName}
	return u.String()
}
