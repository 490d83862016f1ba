package policy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/bawdo/sqlwrapper/managers"
	"github.com/bawdo/sqlwrapper/nodes"
)

func eqExpr(t *testing.T, column string, value string) compileExpression {
	t.Helper()
	raw := `{"index": 0, "terms": [
		{"type": "ref", "value": [{"type": "var", "value": "eq"}]},
		{"type": "ref", "value": [
			{"type": "var", "value": "data"},
			{"type": "string", "value": "users"},
			{"type": "var", "value": "$0"},
			{"type": "string", "value": "` + column + `"}
		]},
		` + value + `
	]}`
	var e compileExpression
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return e
}

func TestCompileTermTypes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		want any
	}{
		{`{"type": "string", "value": "Alice"}`, "Alice"},
		{`{"type": "number", "value": 42}`, 42},
		{`{"type": "number", "value": 1.5}`, 1.5},
		{`{"type": "boolean", "value": true}`, true},
		{`{"type": "null"}`, nil},
		{`{"type": "var", "value": "$0"}`, "$0"},
	}
	for _, tt := range tests {
		var term compileTerm
		if err := json.Unmarshal([]byte(tt.raw), &term); err != nil {
			t.Fatalf("%s: %v", tt.raw, err)
		}
		if term.Value != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.raw, tt.want, term.Value)
		}
	}

	var term compileTerm
	if err := json.Unmarshal([]byte(`{"type": "set", "value": []}`), &term); err == nil {
		t.Error("expected error for unknown term type")
	}
}

func TestTranslateExpression(t *testing.T) {
	t.Parallel()
	col, val, err := translateExpression(eqExpr(t, "tenant_id", `{"type": "number", "value": 42}`))
	if err != nil || col != "tenant_id" || val != 42 {
		t.Errorf("unexpected translation %q %v %v", col, val, err)
	}

	swapped := eqExpr(t, "tenant_id", `{"type": "number", "value": 42}`)
	swapped.Terms[1], swapped.Terms[2] = swapped.Terms[2], swapped.Terms[1]
	col, val, err = translateExpression(swapped)
	if err != nil || col != "tenant_id" || val != 42 {
		t.Errorf("swapped operands: %q %v %v", col, val, err)
	}

	lt := eqExpr(t, "age", `{"type": "number", "value": 18}`)
	lt.Terms[0] = compileTerm{Type: "ref", Value: []compileTerm{{Type: "var", Value: "lt"}}}
	if _, _, err := translateExpression(lt); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for lt, got %v", err)
	}
}

func TestTranslateQueries(t *testing.T) {
	t.Parallel()
	num := func(n string) string { return `{"type": "number", "value": ` + n + `}` }

	got, err := translateQueries(nil)
	if !errors.Is(err, ErrDenied) {
		t.Errorf("no queries: expected ErrDenied, got %v %v", got, err)
	}

	got, err = translateQueries([][]compileExpression{{}})
	if err != nil || got != nil {
		t.Errorf("empty query: expected allow, got %v %v", got, err)
	}

	got, err = translateQueries([][]compileExpression{{
		eqExpr(t, "tenant_id", num("42")),
		eqExpr(t, "active", `{"type": "boolean", "value": true}`),
	}})
	want := nodes.Values{"tenant_id": 42, "active": true}
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Errorf("single query: expected %v, got %v %v", want, got, err)
	}

	got, err = translateQueries([][]compileExpression{
		{eqExpr(t, "tenant_id", num("1"))},
		{eqExpr(t, "tenant_id", num("2"))},
	})
	want = nodes.Values{"tenant_id": []any{1, 2}}
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Errorf("alternatives: expected %v, got %v %v", want, got, err)
	}

	_, err = translateQueries([][]compileExpression{
		{eqExpr(t, "tenant_id", num("1"))},
		{eqExpr(t, "owner_id", num("2"))},
	})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("mixed alternatives: expected ErrUnsupported, got %v", err)
	}

	_, err = translateQueries([][]compileExpression{{
		eqExpr(t, "tenant_id", num("1")),
		eqExpr(t, "tenant_id", num("2")),
	}})
	if !errors.Is(err, ErrDenied) {
		t.Errorf("contradiction: expected ErrDenied, got %v", err)
	}
}

func TestClientCompile(t *testing.T) {
	t.Parallel()
	var got compileRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/compile" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, `{"result": {"queries": [[{"index": 0, "terms": [
			{"type": "ref", "value": [{"type": "var", "value": "eq"}]},
			{"type": "ref", "value": [{"type": "var", "value": "data"}, {"type": "string", "value": "users"},
				{"type": "var", "value": "$0"}, {"type": "string", "value": "tenant_id"}]},
			{"type": "number", "value": 42}]}]]}}`)
	}))
	defer srv.Close()

	p := NewFromServer(srv.URL+"/", "authz.allow", map[string]any{"user": "alice"})
	sql, params, err := managers.NewSelectManager("users").Use(p).ToSQL(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != "SELECT * FROM users WHERE tenant_id = %(tenant_id)s;" || params["tenant_id"] != 42 {
		t.Errorf("unexpected statement %q %v", sql, params)
	}
	if got.Query != "data.authz.allow == true" || got.Unknowns[0] != "data.users" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestClientCompileErrors(t *testing.T) {
	t.Parallel()
	deny := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result": {}}`)
	}))
	defer deny.Close()
	if _, err := NewClient(deny.URL, "data.authz.allow", nil).Compile("users"); !errors.Is(err, ErrDenied) {
		t.Errorf("expected ErrDenied, got %v", err)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()
	if _, err := NewClient(broken.URL, "authz.allow", nil).Compile("users"); err == nil {
		t.Error("expected error for server failure")
	}

	broken.Close()
	if _, err := NewClient(broken.URL, "authz.allow", nil).Compile("users"); err == nil {
		t.Error("expected error for unreachable server")
	}
}
