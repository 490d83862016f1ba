package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/bawdo/sqlwrapper/nodes"
)

// ErrUnsupported reports a partial evaluation result that cannot be
// expressed as filter values.
var ErrUnsupported = errors.New("policy: unsupported condition")

// Client communicates with an OPA server's Compile API.
type Client struct {
	baseURL    string
	policyPath string
	input      map[string]any
	httpClient *http.Client
}

// NewClient creates a Client. The policy path gets a "data." prefix when
// it has none.
func NewClient(baseURL, policyPath string, input map[string]any) *Client {
	if !strings.HasPrefix(policyPath, "data.") {
		policyPath = "data." + policyPath
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		policyPath: policyPath,
		input:      input,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) postJSON(path string, reqBody []byte) ([]byte, error) {
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// --- Compile API types ---

type compileRequest struct {
	Query    string   `json:"query"`
	Input    any      `json:"input,omitempty"`
	Unknowns []string `json:"unknowns"`
}

type compileResponse struct {
	Result struct {
		Queries [][]compileExpression `json:"queries"`
	} `json:"result"`
}

type compileExpression struct {
	Index int           `json:"index"`
	Terms []compileTerm `json:"terms"`
}

type compileTerm struct {
	Type  string
	Value any // string, int, float64, bool, nil or []compileTerm for refs
}

func (ct *compileTerm) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ct.Type = raw.Type

	switch raw.Type {
	case "string", "var":
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return fmt.Errorf("policy: %s term: %w", raw.Type, err)
		}
		ct.Value = s
	case "number":
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			return fmt.Errorf("policy: number term: %w", err)
		}
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			ct.Value = int(f)
		} else {
			ct.Value = f
		}
	case "boolean":
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return fmt.Errorf("policy: boolean term: %w", err)
		}
		ct.Value = b
	case "null":
		ct.Value = nil
	case "ref":
		var terms []compileTerm
		if err := json.Unmarshal(raw.Value, &terms); err != nil {
			return fmt.Errorf("policy: ref term: %w", err)
		}
		ct.Value = terms
	default:
		return fmt.Errorf("policy: unknown term type %q", raw.Type)
	}
	return nil
}

// --- Translation ---

func refParts(term compileTerm) []compileTerm {
	if term.Type != "ref" {
		return nil
	}
	parts, _ := term.Value.([]compileTerm)
	return parts
}

// operator returns the operator name of an expression, e.g. "eq".
func operator(term compileTerm) (string, error) {
	parts := refParts(term)
	if len(parts) == 0 || parts[0].Type != "var" {
		return "", fmt.Errorf("%w: operator is not a var ref", ErrUnsupported)
	}
	name, _ := parts[0].Value.(string)
	return name, nil
}

func isDataRef(term compileTerm) bool {
	parts := refParts(term)
	return len(parts) > 0 && parts[0].Type == "var" && parts[0].Value == "data"
}

// columnName is the last string element of a data ref:
// data.users[_].tenant_id -> tenant_id.
func columnName(term compileTerm) (string, error) {
	parts := refParts(term)
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].Type == "string" {
			return parts[i].Value.(string), nil
		}
	}
	return "", fmt.Errorf("%w: column ref has no name", ErrUnsupported)
}

// translateExpression turns "column = value" into its column and value.
// OPA does not fix the operand order.
func translateExpression(expr compileExpression) (string, any, error) {
	if len(expr.Terms) != 3 {
		return "", nil, fmt.Errorf("%w: expression has %d terms", ErrUnsupported, len(expr.Terms))
	}
	op, err := operator(expr.Terms[0])
	if err != nil {
		return "", nil, err
	}
	if op != "eq" && op != "equal" {
		return "", nil, fmt.Errorf("%w: operator %q", ErrUnsupported, op)
	}
	col, val := expr.Terms[1], expr.Terms[2]
	if !isDataRef(col) {
		col, val = val, col
	}
	if !isDataRef(col) || val.Type == "ref" {
		return "", nil, fmt.Errorf("%w: expression does not compare a column with a value", ErrUnsupported)
	}
	name, err := columnName(col)
	if err != nil {
		return "", nil, err
	}
	return name, val.Value, nil
}

// translateQueries converts a partial evaluation result into filter values.
//
//   - no queries: access denied
//   - an empty query: unconditional allow
//   - one query: each equality becomes a filter value, AND'd
//   - several queries on one column: the values become an "any of" list
func translateQueries(queries [][]compileExpression) (nodes.Values, error) {
	if len(queries) == 0 {
		return nil, ErrDenied
	}
	for _, q := range queries {
		if len(q) == 0 {
			return nil, nil
		}
	}

	if len(queries) == 1 {
		out := nodes.Values{}
		for _, expr := range queries[0] {
			col, val, err := translateExpression(expr)
			if err != nil {
				return nil, err
			}
			if prev, ok := out[col]; ok && prev != val {
				return nil, ErrDenied
			}
			out[col] = val
		}
		return out, nil
	}

	var col string
	var vals []any
	for _, q := range queries {
		if len(q) != 1 {
			return nil, fmt.Errorf("%w: alternatives with several conditions", ErrUnsupported)
		}
		c, val, err := translateExpression(q[0])
		if err != nil {
			return nil, err
		}
		if col != "" && c != col {
			return nil, fmt.Errorf("%w: alternatives on columns %s and %s", ErrUnsupported, col, c)
		}
		col = c
		vals = append(vals, val)
	}
	return nodes.Values{col: vals}, nil
}

// Compile asks the server which rows of table satisfy the policy.
func (c *Client) Compile(table string) (nodes.Values, error) {
	data, err := json.Marshal(compileRequest{
		Query:    c.policyPath + " == true",
		Input:    c.input,
		Unknowns: []string{"data." + table},
	})
	if err != nil {
		return nil, fmt.Errorf("policy: compile request: %w", err)
	}
	body, err := c.postJSON("/v1/compile", data)
	if err != nil {
		return nil, fmt.Errorf("policy: compile request failed: %w", err)
	}
	var resp compileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("policy: compile response: %w", err)
	}
	return translateQueries(resp.Result.Queries)
}
