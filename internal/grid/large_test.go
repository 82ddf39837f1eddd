package grid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/mintpick/internal/sample"
	"github.com/jask/mintpick/internal/schema"
)

func generatedGrid(t *testing.T, n int) *Grid {
	t.Helper()
	ds := sample.Collection(sample.Options{Tokens: n, Seed: 42})
	return New(schema.Build(ds.TraitTypes), ds.Tokens, Options{FuzzyDistance: 1})
}

func TestGeneratedFacetCountsAddUp(t *testing.T) {
	g := generatedGrid(t, 2000)
	require.NoError(t, g.SetFacet("Eyes", []string{"Laser"}))
	shown := g.FilteredCount()
	require.Positive(t, shown)

	opts, err := g.Facets("Background")
	require.NoError(t, err)
	count, total := 0, 0
	for _, o := range opts {
		count += o.Count
		total += o.Total
	}
	require.Equal(t, shown, count, "unfiltered column counts cover the filtered view")
	require.Equal(t, g.Len(), total)
}

func TestGeneratedPagesCoverFilteredView(t *testing.T) {
	g := generatedGrid(t, 1000)
	g.SetSearch("gold")
	require.NoError(t, g.SortBy(schema.Index(g.Columns(), "Level"), false))

	var paged []int
	for p := 0; p < g.Pages(75); p++ {
		paged = append(paged, g.Page(p, 75)...)
	}
	require.Equal(t, g.Filtered(), paged)
}

func TestGeneratedExportFollowsDisplayOrder(t *testing.T) {
	g := generatedGrid(t, 500)
	require.NoError(t, g.SetFacet("Mouth", []string{"Pipe", ""}))
	require.NoError(t, g.SortBy(schema.Index(g.Columns(), "Background"), true))
	require.Equal(t, g.FilteredCount(), g.SelectFiltered())

	var want []string
	for _, row := range g.Filtered() {
		tok, err := g.Token(row)
		require.NoError(t, err)
		want = append(want, tok.Mint)
	}
	require.Equal(t, want, mints(g.Selected()))
}
