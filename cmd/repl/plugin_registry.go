package main

import (
	"slices"

	"github.com/bawdo/sqlwrapper/plugins"
)

// pluginEntry is an enabled plugin as the session sees it.
type pluginEntry struct {
	name    string                     // "softdelete", "policy"
	factory func() plugins.Transformer // fresh transformer for every statement built
	status  func() string              // one-line summary shown by the plugins command
}

// pluginRegistry holds the enabled plugins. Entries keep registration
// order, which is the order their transformers run in; re-enabling a
// plugin keeps its original slot.
type pluginRegistry struct {
	entries []pluginEntry
}

func (r *pluginRegistry) index(name string) int {
	return slices.IndexFunc(r.entries, func(e pluginEntry) bool { return e.name == name })
}

// register enables a plugin, replacing the configuration of one already
// enabled under the same name.
func (r *pluginRegistry) register(entry pluginEntry) {
	if i := r.index(entry.name); i >= 0 {
		r.entries[i] = entry
		return
	}
	r.entries = append(r.entries, entry)
}

// deregister disables a plugin and reports whether it was enabled.
func (r *pluginRegistry) deregister(name string) bool {
	i := r.index(name)
	if i < 0 {
		return false
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	return true
}

func (r *pluginRegistry) deregisterAll() { r.entries = nil }

func (r *pluginRegistry) get(name string) (pluginEntry, bool) {
	if i := r.index(name); i >= 0 {
		return r.entries[i], true
	}
	return pluginEntry{}, false
}

// names lists the enabled plugins in application order.
func (r *pluginRegistry) names() []string {
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.name)
	}
	return out
}

// applyTo hands use a new transformer from every enabled plugin.
func (r *pluginRegistry) applyTo(use func(plugins.Transformer)) {
	for _, e := range r.entries {
		use(e.factory())
	}
}

// pluginConfigurer is a plugin the plugin command knows how to enable.
// configure parses the rest of the command line and registers an entry.
type pluginConfigurer struct {
	name      string
	configure func(s *Session, args string) error
}

// findConfigurer looks a known plugin up by name.
func findConfigurer(list []pluginConfigurer, name string) (pluginConfigurer, bool) {
	i := slices.IndexFunc(list, func(c pluginConfigurer) bool { return c.name == name })
	if i < 0 {
		return pluginConfigurer{}, false
	}
	return list[i], true
}
