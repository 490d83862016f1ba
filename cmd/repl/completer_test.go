package main

import (
	"slices"
	"strings"
	"testing"
)

func newTestCompleter(t *testing.T) *replCompleter {
	t.Helper()
	sess, _ := newTestSession(t, "postgres")
	return &replCompleter{sess: sess}
}

func doStrings(c *replCompleter, line string) ([]string, int) {
	out, length := c.Do([]rune(line), len([]rune(line)))
	res := make([]string, len(out))
	for i, r := range out {
		res[i] = strings.TrimSuffix(string(r), " ")
	}
	return res, length
}

// --- Command completion ---

func TestCompleteCommandsEmpty(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	candidates, length := doStrings(c, "")
	if len(candidates) != len(c.sess.commandNames()) || length != 0 {
		t.Errorf("expected every command, got %d (length %d)", len(candidates), length)
	}
}

func TestCompleteCommandsPrefix(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	candidates, length := doStrings(c, "sel")
	if len(candidates) != 1 || candidates[0] != "ect" || length != 3 {
		t.Errorf("expected [ect] with length 3, got %v (%d)", candidates, length)
	}
}

func TestCommandNames(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	names := c.sess.commandNames()
	for _, want := range []string{"select", "insert into", "delete from", "bound", "exit", "quit"} {
		if !slices.Contains(names, want) {
			t.Errorf("expected %q in %v", want, names)
		}
	}
	if slices.Contains(names, "where") && strings.Count(strings.Join(names, " "), "where") > 1 {
		t.Errorf("where listed twice: %v", names)
	}
	if !slices.IsSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
}

// --- Context detection ---

func TestParseContext(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line       string
		wantCtx    completionContext
		wantPrefix string
	}{
		{"sel", contextCommand, "sel"},
		{"select us", contextTableName, "us"},
		{"select users na", contextColumnRef, "na"},
		{"select users id, na", contextColumnRef, "na"},
		{"delete from po", contextTableName, "po"},
		{"set sta", contextColumnRef, "sta"},
		{"set status=ne", contextValue, ""},
		{"filter ", contextColumnRef, ""},
		{"column st", contextColumnRef, "st"},
		{"engine my", contextEngine, "my"},
		{"plugin so", contextPlugin, "so"},
		{"plugin off so", contextPluginOff, "so"},
		{"plugin softdelete del", contextValue, ""},
		{"begin ser", contextTransactionMode, "ser"},
		{"transaction read only, ser", contextTransactionMode, "ser"},
	}
	c := newTestCompleter(t)
	for _, tt := range tests {
		ctx, prefix := c.parseContext(tt.line)
		if ctx != tt.wantCtx || prefix != tt.wantPrefix {
			t.Errorf("%q: expected (%d, %q), got (%d, %q)", tt.line, tt.wantCtx, tt.wantPrefix, ctx, prefix)
		}
	}
}

// --- Argument completion ---

func TestCompleteEngines(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	candidates, _ := doStrings(c, "engine p")
	if len(candidates) != 1 || candidates[0] != "ostgres" {
		t.Errorf("expected [ostgres], got %v", candidates)
	}
}

func TestCompletePlugins(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	candidates, _ := doStrings(c, "plugin ")
	for _, want := range []string{"off", "softdelete"} {
		if !slices.Contains(candidates, want) {
			t.Errorf("expected %q in %v", want, candidates)
		}
	}

	candidates, _ = doStrings(c, "plugin off ")
	if len(candidates) != 0 {
		t.Errorf("no plugin enabled, got %v", candidates)
	}
	execLines(t, c.sess, "plugin softdelete")
	candidates, _ = doStrings(c, "plugin off s")
	if len(candidates) != 1 || candidates[0] != "oftdelete" {
		t.Errorf("expected [oftdelete], got %v", candidates)
	}
}

func TestCompleteTransactionModes(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	candidates, _ := doStrings(c, "begin read ")
	for _, want := range []string{"only", "write", "committed", "uncommitted"} {
		found := false
		for _, cand := range candidates {
			if strings.HasPrefix(cand, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a candidate starting %q in %v", want, candidates)
		}
	}
}

func TestCompleteGroupAggregates(t *testing.T) {
	t.Parallel()
	c := newTestCompleter(t)
	execLines(t, c.sess, "group tan")
	candidates, _ := doStrings(c, "column status CO")
	if len(candidates) != 1 || candidates[0] != "UNT" {
		t.Errorf("expected [UNT], got %v", candidates)
	}
}

func TestCompleteFromSchema(t *testing.T) {
	t.Parallel()
	sess, _ := connectedSession(t)
	c := &replCompleter{sess: sess}
	candidates, _ := doStrings(c, "select us")
	if len(candidates) != 1 || candidates[0] != "ers" {
		t.Errorf("expected [ers], got %v", candidates)
	}

	execLines(t, sess, "select users")
	candidates, _ = doStrings(c, "filter na")
	if len(candidates) != 1 || candidates[0] != "me" {
		t.Errorf("expected [me], got %v", candidates)
	}
}

// --- Helpers ---

func TestFilterPrefix(t *testing.T) {
	t.Parallel()
	items := []string{"Select", "set", "sql", "update"}
	if got := filterPrefix(items, "S"); len(got) != 3 {
		t.Errorf("case-insensitive match: got %v", got)
	}
	got := filterPrefix(items, "")
	got[0] = "changed"
	if items[0] != "Select" {
		t.Error("empty prefix must return a copy")
	}
	if got := filterPrefix(items, "x"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestDedup(t *testing.T) {
	t.Parallel()
	got := dedup([]string{"a", "b", "a", "c", "b"})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected dedup result %v", got)
	}
}

func TestLastToken(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"users id, na": "na",
		"a,b":          "b",
		"single":       "single",
		"trailing ":    "",
	} {
		if got := lastToken(in); got != want {
			t.Errorf("lastToken(%q): expected %q, got %q", in, want, got)
		}
	}
}
