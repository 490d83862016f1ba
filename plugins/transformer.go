// Package plugins defines the Transformer interface for statement middleware.
package plugins

import "github.com/bawdo/sqlwrapper/nodes"

// Transformer is the interface that statement transformation plugins
// implement. Managers call it on a private clone of the statement just
// before rendering, so a plugin may modify its argument in place.
// Plugins embed BaseTransformer and override only the methods they need.
type Transformer interface {
	TransformSelect(stmt *nodes.SelectStatement) (*nodes.SelectStatement, error)
	TransformInsert(stmt *nodes.InsertStatement) (*nodes.InsertStatement, error)
	TransformUpdate(stmt *nodes.UpdateStatement) (*nodes.UpdateStatement, error)
	TransformDelete(stmt *nodes.DeleteStatement) (*nodes.DeleteStatement, error)
	TransformGrouping(stmt *nodes.GroupingStatement) (*nodes.GroupingStatement, error)
}

// BaseTransformer provides no-op defaults for all Transformer methods.
// Plugins embed this and override only the methods they care about.
type BaseTransformer struct{}

func (BaseTransformer) TransformSelect(s *nodes.SelectStatement) (*nodes.SelectStatement, error) {
	return s, nil
}
func (BaseTransformer) TransformInsert(s *nodes.InsertStatement) (*nodes.InsertStatement, error) {
	return s, nil
}
func (BaseTransformer) TransformUpdate(s *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	return s, nil
}
func (BaseTransformer) TransformDelete(s *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	return s, nil
}
func (BaseTransformer) TransformGrouping(s *nodes.GroupingStatement) (*nodes.GroupingStatement, error) {
	return s, nil
}
