// Package managers provides fluent builders for the supported statements.
//
// A manager owns one statement. ToSQL clones it, runs the registered
// transformer plugins over the clone and renders it with the given
// visitor, returning the SQL text together with the value parameters the
// driver needs for the %(name)s placeholders.
package managers

import (
	"log/slog"
	"maps"

	"github.com/bawdo/sqlwrapper/nodes"
	"github.com/bawdo/sqlwrapper/plugins"
	"github.com/bawdo/sqlwrapper/visitors"
)

// treeManager is the shared base for all manager types. It holds the
// transformer pipeline common to every manager.
type treeManager struct {
	transformers []plugins.Transformer
}

// addTransformer appends a transformer plugin to the pipeline.
func (tm *treeManager) addTransformer(t plugins.Transformer) {
	tm.transformers = append(tm.transformers, t)
}

// Transformers returns the registered transformer pipeline.
func (tm *treeManager) Transformers() []plugins.Transformer {
	return tm.transformers
}

// render accepts n with v, defaulting to the pyformat visitor.
func render(v nodes.Visitor, n nodes.Node) (string, error) {
	if v == nil {
		v = visitors.NewPyformatVisitor()
	}
	return n.Accept(v)
}

// params merges value maps left to right into a new map.
func params(sets ...nodes.Values) map[string]any {
	out := make(map[string]any)
	for _, s := range sets {
		maps.Copy(out, s)
	}
	return out
}

// merge copies src into dst, allocating dst when nil.
func merge(dst, src nodes.Values) nodes.Values {
	if dst == nil {
		dst = make(nodes.Values, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

var discard = slog.New(slog.DiscardHandler)
