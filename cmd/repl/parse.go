package main

import (
	"fmt"
	"strconv"
	"strings"
)

// splitList splits s on commas outside single quotes and parentheses and
// trims the parts. Empty parts are dropped.
func splitList(s string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	quoted := false
	flush := func() {
		if p := strings.TrimSpace(cur.String()); p != "" {
			parts = append(parts, p)
		}
		cur.Reset()
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\'':
			quoted = !quoted
			cur.WriteByte(ch)
		case quoted:
			cur.WriteByte(ch)
		case ch == '(':
			depth++
			cur.WriteByte(ch)
		case ch == ')':
			depth--
			cur.WriteByte(ch)
		case ch == ',' && depth == 0:
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return parts
}

// parseValue converts a REPL token to a Go value: true, false and null,
// quoted strings, integers and floats. Anything else is taken as a bare
// string.
func parseValue(token string) any {
	token = strings.TrimSpace(token)
	switch strings.ToLower(token) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") && len(token) >= 2 {
		return strings.ReplaceAll(token[1:len(token)-1], "''", "'")
	}
	if i, err := strconv.Atoi(token); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f
	}
	return token
}

// parseAssignment splits "key=value" and parses the value. A value list
// ("key=a,b") yields a []any, which filters match with ANY.
func parseAssignment(s string, allowList bool) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("expected key=value, got %q", s)
	}
	items := splitList(raw)
	if allowList && len(items) > 1 {
		vals := make([]any, len(items))
		for i, it := range items {
			vals[i] = parseValue(it)
		}
		return key, vals, nil
	}
	return key, parseValue(raw), nil
}
