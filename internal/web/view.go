package web

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/jask/mintpick/internal/grid"
	"github.com/jask/mintpick/internal/schema"
)

// viewState is the table view encoded in the page URL: search, facets, sort and
// page. The URL is the source of truth; every request re-applies it to the grid.
type viewState struct {
	Query     string
	FacetKeys []string
	Facets    map[string][]string
	SortKey   string
	SortDesc  bool
	Page      int
}

func parseView(v url.Values, cols []schema.Column) (viewState, error) {
	vs := viewState{Query: v.Get("q")}

	keys, facets, err := grid.ParseFacetArgs(v["facet"], cols)
	if err != nil {
		return viewState{}, err
	}
	vs.FacetKeys, vs.Facets = keys, facets

	if key := v.Get("sort"); key != "" {
		if schema.Index(cols, key) < 0 {
			return viewState{}, fmt.Errorf("sort column %q: %w", key, grid.ErrUnknownColumn)
		}
		vs.SortKey = key
		vs.SortDesc = v.Get("dir") == "desc"
	}
	if p := v.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return viewState{}, fmt.Errorf("page %q: must be a positive integer", p)
		}
		vs.Page = n - 1
	}
	return vs, nil
}

// apply resets the grid's filters and sort to vs. Selection is untouched.
func (vs viewState) apply(g *grid.Grid) error {
	g.ClearFilters()
	g.SetSearch(vs.Query)
	for _, k := range vs.FacetKeys {
		if err := g.SetFacet(k, vs.Facets[k]); err != nil {
			return err
		}
	}
	if vs.SortKey == "" {
		g.ClearSort()
		return nil
	}
	return g.SortBy(schema.Index(g.Columns(), vs.SortKey), !vs.SortDesc)
}

func (vs viewState) values() url.Values {
	v := url.Values{}
	if vs.Query != "" {
		v.Set("q", vs.Query)
	}
	for _, k := range vs.FacetKeys {
		for _, val := range vs.Facets[k] {
			v.Add("facet", k+"="+val)
		}
	}
	if vs.SortKey != "" {
		v.Set("sort", vs.SortKey)
		if vs.SortDesc {
			v.Set("dir", "desc")
		}
	}
	if vs.Page > 0 {
		v.Set("page", strconv.Itoa(vs.Page+1))
	}
	return v
}

func (vs viewState) encode() string {
	return vs.values().Encode()
}

func (vs viewState) href() string {
	if q := vs.encode(); q != "" {
		return "/?" + q
	}
	return "/"
}

func (vs viewState) clone() viewState {
	out := vs
	out.FacetKeys = append([]string(nil), vs.FacetKeys...)
	out.Facets = make(map[string][]string, len(vs.Facets))
	for k, vals := range vs.Facets {
		out.Facets[k] = append([]string(nil), vals...)
	}
	return out
}

// withFacetToggled adds or removes one facet value and returns to the first page.
func (vs viewState) withFacetToggled(key, value string) viewState {
	out := vs.clone()
	out.Page = 0
	vals := out.Facets[key]
	for i, v := range vals {
		if v == value {
			out.Facets[key] = append(vals[:i], vals[i+1:]...)
			if len(out.Facets[key]) == 0 {
				delete(out.Facets, key)
				for j, k := range out.FacetKeys {
					if k == key {
						out.FacetKeys = append(out.FacetKeys[:j], out.FacetKeys[j+1:]...)
						break
					}
				}
			}
			return out
		}
	}
	if _, ok := out.Facets[key]; !ok {
		out.FacetKeys = append(out.FacetKeys, key)
	}
	out.Facets[key] = append(out.Facets[key], value)
	return out
}

// withSort sorts by key, flipping direction when key is already the sort column.
func (vs viewState) withSort(key string) viewState {
	out := vs.clone()
	out.Page = 0
	if out.SortKey == key {
		out.SortDesc = !out.SortDesc
		return out
	}
	out.SortKey, out.SortDesc = key, false
	return out
}

func (vs viewState) withPage(n int) viewState {
	out := vs.clone()
	out.Page = n
	return out
}
