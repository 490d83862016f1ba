package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
	"github.com/bawdo/sqlwrapper/plugins/policy"
)

// configurePolicy handles:
//
//	plugin policy tenant_id=42, region='eu'
//	plugin policy http://localhost:8181 authz.allow [user=alice ...]
func configurePolicy(s *Session, args string) error {
	rest := strings.TrimSpace(args)
	if rest == "" {
		return errors.New("usage: plugin policy <col>=<value>[, ...] | plugin policy <url> <policy path> [key=value ...]")
	}

	var p *policy.Policy
	var status string
	if strings.HasPrefix(rest, "http://") || strings.HasPrefix(rest, "https://") {
		parts := strings.Fields(rest)
		if len(parts) < 2 {
			return errors.New("usage: plugin policy <url> <policy path> [key=value ...]")
		}
		input := map[string]any{}
		for _, a := range parts[2:] {
			k, v, err := parseAssignment(a, false)
			if err != nil {
				return err
			}
			input[k] = v
		}
		p = policy.NewFromServer(parts[0], parts[1], input)
		status = fmt.Sprintf("server: %s, policy: %s", parts[0], parts[1])
	} else {
		conds := nodes.Values{}
		for _, a := range splitList(rest) {
			k, v, err := parseAssignment(a, false)
			if err != nil {
				return err
			}
			conds[k] = v
		}
		p = policy.New(func(string) (nodes.Values, error) { return conds.Clone(), nil })
		status = "filter: " + strings.Join(conds.Keys(), ", ")
	}

	s.plugins.register(pluginEntry{
		name:    "policy",
		factory: func() plugins.Transformer { return p },
		status:  func() string { return status },
	})
	_, _ = fmt.Fprintf(s.out, "  Policy enabled (%s)\n", status)
	return nil
}
