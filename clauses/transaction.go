package clauses

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Action is the leading verb of a transaction command.
type Action string

const (
	Begin Action = "BEGIN"
	Set   Action = "SET"
)

var (
	// ErrInvalidAction reports a transaction action other than BEGIN or SET.
	ErrInvalidAction = errors.New("invalid transaction action")

	// ErrUnknownTransactionMode reports a mode outside the known vocabulary.
	ErrUnknownTransactionMode = errors.New("unknown transaction mode")

	// ErrEmptyTransactionMode reports a SET TRANSACTION without any mode.
	ErrEmptyTransactionMode = errors.New("no transaction mode given")
)

const isolationPrefix = "ISOLATION LEVEL "

// DefaultIsolation is used by BEGIN when no isolation level is requested.
const DefaultIsolation = "READ COMMITTED"

// Read-only lookup tables, filled once in init.
var (
	isolationLevels = map[string]struct{}{
		"SERIALIZABLE":     {},
		"REPEATABLE READ":  {},
		"READ COMMITTED":   {},
		"READ UNCOMMITTED": {}, // PostgreSQL treats this as READ COMMITTED
	}
	transactionModes = map[string]struct{}{
		"READ WRITE": {},
		"READ ONLY":  {},
	}
)

func init() {
	for level := range isolationLevels {
		transactionModes[level] = struct{}{}
		transactionModes[isolationPrefix+level] = struct{}{}
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsolationLevels returns the known isolation levels in ascending order.
func IsolationLevels() []string { return sortedKeys(isolationLevels) }

// TransactionModes returns every accepted (normalized) mode in ascending order.
func TransactionModes() []string { return sortedKeys(transactionModes) }

// IsIsolationLevel reports whether the normalized s names an isolation level.
func IsIsolationLevel(s string) bool {
	_, ok := isolationLevels[s]
	return ok
}

// IsTransactionMode reports whether the normalized s is an accepted mode.
func IsTransactionMode(s string) bool {
	_, ok := transactionModes[s]
	return ok
}

// NormalizeSnippet upper-cases s and collapses its whitespace, e.g.
// "  read  only " becomes "READ ONLY". Anything but letters and spaces in
// the result is rejected.
func NormalizeSnippet(s string) (string, error) {
	res := strings.Join(strings.Fields(strings.ToUpper(s)), " ")
	for _, r := range res {
		if r != ' ' && !(r >= 'A' && r <= 'Z') {
			if unicode.IsPrint(r) {
				return "", fmt.Errorf("%w: invalid char %q in %q", ErrUnknownTransactionMode, r, s)
			}
			return "", fmt.Errorf("%w: invalid char %U in %q", ErrUnknownTransactionMode, r, s)
		}
	}
	return res, nil
}

// TransactionCommand builds "<action> TRANSACTION <modes>;". Isolation
// levels may be given bare ("serializable") or spelled out ("isolation
// level serializable"); the isolation spec always comes first. If several
// levels are given the last one wins. BEGIN without a level defaults to
// ISOLATION LEVEL READ COMMITTED.
func TransactionCommand(action Action, modes ...string) (string, error) {
	if action != Begin && action != Set {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	var isolation string
	var specs []string
	for _, m := range modes {
		norm, err := NormalizeSnippet(m)
		if err != nil {
			return "", err
		}
		switch {
		case IsIsolationLevel(norm):
			isolation = isolationPrefix + norm
		case !IsTransactionMode(norm):
			return "", fmt.Errorf("%w: %q", ErrUnknownTransactionMode, norm)
		case strings.HasPrefix(norm, isolationPrefix):
			isolation = norm
		default:
			specs = append(specs, norm)
		}
	}
	if isolation == "" && action == Begin {
		isolation = isolationPrefix + DefaultIsolation
	}
	if isolation != "" {
		specs = append([]string{isolation}, specs...)
	}
	if len(specs) == 0 {
		return "", fmt.Errorf("%w: %s TRANSACTION", ErrEmptyTransactionMode, action)
	}
	return string(action) + " TRANSACTION " + strings.Join(specs, ", ") + ";", nil
}
