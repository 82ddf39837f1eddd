package grid

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jask/mintpick/internal/schema"
)

// FacetOption is one value in a column's filter panel.
type FacetOption struct {
	Value string
	// Count is how many rows with this value pass every other active filter.
	Count int
	// Total is how many rows carry this value at all.
	Total int
	// Active reports whether the value is currently part of the column's filter.
	Active bool
}

func (g *Grid) facetColumn(key string) (int, error) {
	col := schema.Index(g.cols, key)
	if col < 0 {
		return -1, fmt.Errorf("column %q: %w", key, ErrUnknownColumn)
	}
	if !g.cols[col].Facet {
		return -1, fmt.Errorf("column %q: %w", key, ErrNotFaceted)
	}
	return col, nil
}

// SetFacet restricts column key to rows whose cell is one of values. An empty
// cell is the value "". Passing no values clears the column's filter.
func (g *Grid) SetFacet(key string, values []string) error {
	if _, err := g.facetColumn(key); err != nil {
		return err
	}
	if len(values) == 0 {
		delete(g.facets, key)
		g.dirty = true
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	g.facets[key] = set
	g.dirty = true
	return nil
}

// ToggleFacet adds or removes a single value from a column's filter.
func (g *Grid) ToggleFacet(key, value string) error {
	if _, err := g.facetColumn(key); err != nil {
		return err
	}
	set := g.facets[key]
	if set == nil {
		set = make(map[string]bool)
		g.facets[key] = set
	}
	if set[value] {
		delete(set, value)
	} else {
		set[value] = true
	}
	if len(set) == 0 {
		delete(g.facets, key)
	}
	g.dirty = true
	return nil
}

// FacetValues returns the active filter values for a column, sorted.
func (g *Grid) FacetValues(key string) []string {
	set := g.facets[key]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return compareCells(toLower(out[i]), toLower(out[j])) < 0 })
	return out
}

// ActiveFacets lists column keys that currently filter rows, in column order.
func (g *Grid) ActiveFacets() []string {
	var out []string
	for _, c := range g.cols {
		if len(g.facets[c.Key]) > 0 {
			out = append(out, c.Key)
		}
	}
	return out
}

// ClearFilters drops the search and every facet filter. Selection is kept.
func (g *Grid) ClearFilters() {
	g.facets = make(map[string]map[string]bool)
	g.query = ""
	g.search = nil
	g.dirty = true
}

// Facets builds the filter panel for column key. Counts cascade: they reflect the
// search and the other columns' filters but not this column's own.
func (g *Grid) Facets(key string) ([]FacetOption, error) {
	col, err := g.facetColumn(key)
	if err != nil {
		return nil, err
	}
	byValue := make(map[string]*FacetOption)
	var order []string
	for row := range g.tokens {
		v := g.cells[row][col]
		opt, ok := byValue[v]
		if !ok {
			opt = &FacetOption{Value: v, Active: g.facets[key][v]}
			byValue[v] = opt
			order = append(order, v)
		}
		opt.Total++
		if g.matches(row, key) {
			opt.Count++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return compareCells(toLower(order[i]), toLower(order[j])) < 0
	})
	out := make([]FacetOption, 0, len(order))
	for _, v := range order {
		out = append(out, *byValue[v])
	}
	return out, nil
}

// ErrBadFacetArg is returned by ParseFacetArgs for an argument without "=".
var ErrBadFacetArg = errors.New("facet must be Key=Value")

// ParseFacetArgs groups "Key=Value" arguments by key, keeping first-seen key order.
// The value may be empty to match rows missing the trait. Trait keys may contain
// "=", so each argument is split at the "=" that ends the longest faceted column
// key in cols; with no such key the first "=" is used.
func ParseFacetArgs(args []string, cols []schema.Column) (keys []string, values map[string][]string, err error) {
	values = make(map[string][]string)
	for _, arg := range args {
		k, v, ok := splitFacetArg(arg, cols)
		if !ok || k == "" {
			return nil, nil, fmt.Errorf("%q: %w", arg, ErrBadFacetArg)
		}
		if _, seen := values[k]; !seen {
			keys = append(keys, k)
		}
		values[k] = append(values[k], v)
	}
	return keys, values, nil
}

func splitFacetArg(arg string, cols []schema.Column) (key, value string, ok bool) {
	cut := -1
	for i := 0; i < len(arg); i++ {
		if arg[i] != '=' {
			continue
		}
		if j := schema.Index(cols, arg[:i]); j >= 0 && cols[j].Facet {
			cut = i
		}
	}
	if cut < 0 {
		cut = strings.IndexByte(arg, '=')
		if cut < 0 {
			return "", "", false
		}
	}
	return arg[:cut], arg[cut+1:], true
}
