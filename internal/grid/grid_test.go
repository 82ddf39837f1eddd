package grid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/mintpick/internal/collection"
	"github.com/jask/mintpick/internal/schema"
)

func tok(name, mint string, traits map[string]string) collection.Token {
	return collection.Token{Image: name + ".png", Name: name, Mint: mint, Traits: traits}
}

func sampleGrid(t *testing.T, opts Options) *Grid {
	t.Helper()
	tokens := []collection.Token{
		tok("Alpha", "M0", map[string]string{"Color": "Red", "Level": "10"}),
		tok("Bravo", "M1", map[string]string{"Color": "Blue", "Level": "2"}),
		tok("Charlie", "M2", map[string]string{"Color": "Red"}),
		tok("Delta", "M3", map[string]string{"Color": "Green", "Level": "2"}),
	}
	return New(schema.Build([]string{"Color", "Level"}), tokens, opts)
}

func mints(tokens []collection.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Mint
	}
	return out
}

func TestNewKeepsRowsWithMissingTraits(t *testing.T) {
	g := sampleGrid(t, Options{})
	require.Equal(t, 4, g.Len())
	require.Equal(t, []int{0, 1, 2, 3}, g.Filtered())
	require.Equal(t, "", g.Cell(2, 3), "missing Level renders empty")
	require.Equal(t, "Red", g.Cell(2, 2))
	require.Equal(t, "", g.Cell(9, 0))
}

func TestSearch(t *testing.T) {
	g := sampleGrid(t, Options{})
	g.SetSearch("red")
	require.Equal(t, []int{0, 2}, g.Filtered())

	g.SetSearch("RED alpha")
	require.Equal(t, []int{0}, g.Filtered())

	g.SetSearch("charlee")
	require.Empty(t, g.Filtered(), "no fuzzy matching when disabled")

	g.SetSearch("")
	require.Equal(t, 4, g.FilteredCount())
}

func TestSearchFuzzy(t *testing.T) {
	g := sampleGrid(t, Options{FuzzyDistance: 1})
	g.SetSearch("charlee")
	require.Equal(t, []int{2}, g.Filtered())

	g.SetSearch("rex")
	require.Empty(t, g.Filtered(), "short terms only match as substrings")
}

func TestFacetsCascade(t *testing.T) {
	g := sampleGrid(t, Options{})

	opts, err := g.Facets("Color")
	require.NoError(t, err)
	require.Equal(t, []FacetOption{
		{Value: "Blue", Count: 1, Total: 1},
		{Value: "Green", Count: 1, Total: 1},
		{Value: "Red", Count: 2, Total: 2},
	}, opts)

	require.NoError(t, g.SetFacet("Level", []string{"2"}))
	require.Equal(t, []int{1, 3}, g.Filtered())

	opts, err = g.Facets("Color")
	require.NoError(t, err)
	require.Equal(t, []FacetOption{
		{Value: "Blue", Count: 1, Total: 1},
		{Value: "Green", Count: 1, Total: 1},
		{Value: "Red", Count: 0, Total: 2},
	}, opts)

	level, err := g.Facets("Level")
	require.NoError(t, err)
	require.Equal(t, []FacetOption{
		{Value: "", Count: 1, Total: 1},
		{Value: "2", Count: 2, Total: 2, Active: true},
		{Value: "10", Count: 1, Total: 1},
	}, level)
}

func TestFacetEmptyValueSelectsMissing(t *testing.T) {
	g := sampleGrid(t, Options{})
	require.NoError(t, g.ToggleFacet("Level", ""))
	require.Equal(t, []int{2}, g.Filtered())
	require.Equal(t, []string{"Level"}, g.ActiveFacets())

	require.NoError(t, g.ToggleFacet("Level", ""))
	require.Empty(t, g.ActiveFacets())
	require.Equal(t, 4, g.FilteredCount())
}

func TestFacetIdentityColumnsExcluded(t *testing.T) {
	g := sampleGrid(t, Options{})
	_, err := g.Facets(collection.KeyImage)
	require.ErrorIs(t, err, ErrNotFaceted)
	require.ErrorIs(t, g.SetFacet(collection.KeyName, []string{"Alpha"}), ErrNotFaceted)
	_, err = g.Facets("Hat")
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSort(t *testing.T) {
	g := sampleGrid(t, Options{})
	require.NoError(t, g.SortBy(3, true))
	require.Equal(t, []int{2, 1, 3, 0}, g.Filtered(), "empty first, then numeric order")

	require.NoError(t, g.SortBy(3, false))
	require.Equal(t, []int{0, 1, 3, 2}, g.Filtered())

	col, asc, ok := g.Sort()
	require.True(t, ok)
	require.Equal(t, 3, col)
	require.False(t, asc)

	g.ClearSort()
	require.Equal(t, []int{0, 1, 2, 3}, g.Filtered())
	require.ErrorIs(t, g.SortBy(7, true), ErrOutOfRange)
}

func TestPaging(t *testing.T) {
	g := sampleGrid(t, Options{})
	require.Equal(t, 2, g.Pages(3))
	require.Equal(t, []int{0, 1, 2}, g.Page(0, 3))
	require.Equal(t, []int{3}, g.Page(1, 3))
	require.Equal(t, []int{3}, g.Page(5, 3), "clamped to last page")
	require.Equal(t, []int{0, 1, 2, 3}, g.Page(0, 0))

	g.SetSearch("nothing-matches")
	require.Equal(t, 1, g.Pages(3))
	require.Empty(t, g.Page(0, 3))
}

func TestSelectFilteredIsAdditiveAndIdempotent(t *testing.T) {
	g := sampleGrid(t, Options{})
	require.NoError(t, g.Select(3))

	g.SetSearch("red")
	require.Equal(t, 2, g.SelectFiltered())
	require.Equal(t, []int{0, 2, 3}, g.SelectedIndices())

	require.Equal(t, 0, g.SelectFiltered())
	require.Equal(t, []int{0, 2, 3}, g.SelectedIndices())
	require.Equal(t, 3, g.SelectedCount())
}

func TestSelectedIncludesHiddenRowsInDisplayOrder(t *testing.T) {
	g := sampleGrid(t, Options{})
	require.NoError(t, g.Toggle(0))
	require.NoError(t, g.Toggle(3))
	require.NoError(t, g.SortBy(1, false))

	g.SetSearch("delta")
	require.Equal(t, []string{"M3", "M0"}, mints(g.Selected()))

	require.NoError(t, g.Toggle(3))
	require.False(t, g.IsSelected(3))
	require.Equal(t, []string{"M0"}, mints(g.Selected()))
}

func TestSelectNone(t *testing.T) {
	g := sampleGrid(t, Options{})
	g.SelectFiltered()
	require.Equal(t, 4, g.SelectNone())
	require.Empty(t, g.Selected())
	require.NotNil(t, g.Selected())
}

func TestSelectionBounds(t *testing.T) {
	g := sampleGrid(t, Options{})
	require.ErrorIs(t, g.Toggle(-1), ErrOutOfRange)
	require.ErrorIs(t, g.Select(1, 4), ErrOutOfRange)
	require.Zero(t, g.SelectedCount(), "select is all-or-nothing")
	_, err := g.Token(4)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestClearFiltersKeepsSelection(t *testing.T) {
	g := sampleGrid(t, Options{})
	g.SetSearch("bravo")
	require.NoError(t, g.SetFacet("Color", []string{"Blue"}))
	g.SelectFiltered()
	g.ClearFilters()
	require.Equal(t, "", g.Search())
	require.Equal(t, 4, g.FilteredCount())
	require.Equal(t, []string{"M1"}, mints(g.Selected()))
}

func TestParseFacetArgs(t *testing.T) {
	cols := schema.Build([]string{"Color", "Level", "Note"})
	keys, values, err := ParseFacetArgs([]string{"Color=Red", "Level=", "Color=Blue", "Note=a=b"}, cols)
	require.NoError(t, err)
	require.Equal(t, []string{"Color", "Level", "Note"}, keys)
	require.Equal(t, []string{"Red", "Blue"}, values["Color"])
	require.Equal(t, []string{""}, values["Level"])
	require.Equal(t, []string{"a=b"}, values["Note"])

	_, _, err = ParseFacetArgs([]string{"Color"}, cols)
	require.ErrorIs(t, err, ErrBadFacetArg)
	_, _, err = ParseFacetArgs([]string{"=Red"}, cols)
	require.ErrorIs(t, err, ErrBadFacetArg)

	keys, _, err = ParseFacetArgs([]string{"Size=L"}, cols)
	require.NoError(t, err)
	require.Equal(t, []string{"Size"}, keys, "unknown keys split at the first =")
}

func TestParseFacetArgsKeyWithEquals(t *testing.T) {
	cols := schema.Build([]string{"a", "a=b", "c"})
	keys, values, err := ParseFacetArgs([]string{"a=b=x", "a=y", "c==", "a=b=="}, cols)
	require.NoError(t, err)
	require.Equal(t, []string{"a=b", "a", "c"}, keys)
	require.Equal(t, []string{"x", "="}, values["a=b"])
	require.Equal(t, []string{"y"}, values["a"])
	require.Equal(t, []string{"="}, values["c"])
}
