package clauses

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bawdo/sqlwrapper/names"
)

// ErrInvalidGroupSpec reports a grouping column spec with a bad shape.
var ErrInvalidGroupSpec = errors.New("invalid group spec")

// GroupSpec describes one output column of a grouped query. Aggregate and
// Alias are optional. A column with an aggregate is not a grouping key.
type GroupSpec struct {
	Name      string
	Aggregate string
	Alias     string
}

// Col groups by a plain column.
func Col(name string) GroupSpec { return GroupSpec{Name: name} }

// ColAs groups by a column shown under another name.
func ColAs(name, alias string) GroupSpec { return GroupSpec{Name: name, Alias: alias} }

// Agg applies an aggregate function to a column, e.g. Agg("date", "MAX").
func Agg(name, fn string) GroupSpec { return GroupSpec{Name: name, Aggregate: fn} }

// AggAs applies an aggregate function and names the result.
func AggAs(name, fn, alias string) GroupSpec {
	return GroupSpec{Name: name, Aggregate: fn, Alias: alias}
}

// ParseGroupSpec builds a spec from one to three parts: name, aggregate and
// alias. An empty or "-" aggregate means none.
func ParseGroupSpec(parts ...string) (GroupSpec, error) {
	if len(parts) == 0 || len(parts) > 3 {
		return GroupSpec{}, fmt.Errorf("%w: expected 1 to 3 parts, got %d", ErrInvalidGroupSpec, len(parts))
	}
	spec := GroupSpec{Name: parts[0]}
	if len(parts) > 1 && parts[1] != "-" {
		spec.Aggregate = parts[1]
	}
	if len(parts) > 2 {
		spec.Alias = parts[2]
	}
	return spec, nil
}

// Resolved is a GroupSpec validated and expanded for query assembly.
type Resolved struct {
	FilterName string // key used for filter ordering
	Display    string // expression in the SELECT list
	GroupKey   string // GROUP BY entry; empty for aggregated columns
}

// Resolve validates the spec and expands it:
//
//	{feld}                  -> feld, "feld", feld
//	{feld, MAX}             -> feld, "MAX(feld) feld", none
//	{feld, MAX, alias}      -> feld, "MAX(feld) alias", none
//	{feld, "", alias}       -> feld, "feld alias", alias
func (g GroupSpec) Resolve() (Resolved, error) {
	name, err := names.Identifier(g.Name)
	if err != nil {
		return Resolved{}, err
	}
	alias := g.Alias
	if alias == "" {
		alias = name
	} else if alias != name {
		if _, err := names.Identifier(alias); err != nil {
			return Resolved{}, err
		}
	}

	if g.Aggregate == "" {
		display := name
		if alias != name {
			display = name + " " + alias
		}
		return Resolved{FilterName: name, Display: display, GroupKey: alias}, nil
	}

	aggr, err := names.Identifier(g.Aggregate)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{
		FilterName: name,
		Display:    aggr + "(" + name + ") " + alias,
	}, nil
}

// GroupingQuery wraps a table or view in a grouped SELECT:
//
//	SELECT status, user used_by, MAX(date) date
//	  FROM the_view
//	 GROUP BY status, used_by
//	HAVING status = %(status)s;
//
// The filter uses HAVING only when aggregated and grouped columns are
// mixed; otherwise WHERE, which is placed before GROUP BY. Filter keys
// follow the order of specs.
func GroupingQuery(source string, filter map[string]any, specs ...GroupSpec) (string, error) {
	var filterNames, display, grouping []string
	for _, spec := range specs {
		r, err := spec.Resolve()
		if err != nil {
			return "", err
		}
		filterNames = append(filterNames, r.FilterName)
		display = append(display, r.Display)
		if r.GroupKey != "" {
			grouping = append(grouping, r.GroupKey)
		}
	}

	kw := Where
	if len(grouping) > 0 && len(grouping) < len(specs) {
		kw = Having
	}
	mask, err := FilterMask(filter, filterNames, kw)
	if err != nil {
		return "", err
	}
	if _, err := names.Identifier(source); err != nil {
		return "", err
	}

	lines := make([]string, 0, 4)
	if len(display) > 0 {
		lines = append(lines, "SELECT "+strings.Join(display, ", "))
	} else {
		lines = append(lines, "SELECT *")
	}
	lines = append(lines, "  FROM "+source)
	if mask != "" && kw == Where {
		lines = append(lines, mask)
	}
	if len(grouping) > 0 {
		lines = append(lines, " GROUP BY "+strings.Join(grouping, ", "))
	}
	if mask != "" && kw == Having {
		lines = append(lines, mask)
	}
	return strings.Join(lines, "\n") + ";", nil
}
