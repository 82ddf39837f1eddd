// Package grid is the interactive token table: it owns filtering, faceting,
// sorting, paging and row selection for a loaded collection. Front ends hold a
// *Grid and drive it; they never keep their own copy of the selection.
package grid

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jask/mintpick/internal/collection"
	"github.com/jask/mintpick/internal/schema"
)

var (
	// ErrOutOfRange is returned for a row or column index outside the table.
	ErrOutOfRange = errors.New("index out of range")

	// ErrUnknownColumn is returned when no column has the requested key.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNotFaceted is returned when asking for the facet panel of an identity column.
	ErrNotFaceted = errors.New("column has no facet panel")
)

// Options tunes grid behaviour.
type Options struct {
	// FuzzyDistance is the Levenshtein distance a search term may be from a word
	// in a cell and still match. Zero disables fuzzy matching.
	FuzzyDistance int
}

// Grid is a filtered, sorted, selectable view over a collection's tokens.
// It is not safe for concurrent use.
type Grid struct {
	cols   []schema.Column
	tokens []collection.Token
	cells  [][]string // cells[row][col], display text
	lower  [][]string // lowercased cells for search
	opts   Options

	search []string
	query  string
	facets map[string]map[string]bool

	sortCol int
	sortAsc bool
	order   []int // all rows in display order

	selected map[int]bool

	filtered []int
	dirty    bool
}

// New builds a grid over tokens laid out by cols.
func New(cols []schema.Column, tokens []collection.Token, opts Options) *Grid {
	g := &Grid{
		cols:     cols,
		tokens:   tokens,
		opts:     opts,
		facets:   make(map[string]map[string]bool),
		sortCol:  -1,
		selected: make(map[int]bool),
		dirty:    true,
	}
	g.cells = make([][]string, len(tokens))
	g.lower = make([][]string, len(tokens))
	for i, tok := range tokens {
		row := make([]string, len(cols))
		low := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.Cell(tok)
			low[j] = toLower(row[j])
		}
		g.cells[i] = row
		g.lower[i] = low
	}
	g.resetOrder()
	return g
}

// Columns returns the column schema.
func (g *Grid) Columns() []schema.Column {
	return g.cols
}

// Len is the total number of rows, ignoring filters.
func (g *Grid) Len() int {
	return len(g.tokens)
}

// Token returns the token at row i.
func (g *Grid) Token(i int) (collection.Token, error) {
	if i < 0 || i >= len(g.tokens) {
		return collection.Token{}, fmt.Errorf("row %d: %w", i, ErrOutOfRange)
	}
	return g.tokens[i], nil
}

// Cell returns the display text at row, col. Out of range yields "".
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.cells) || col < 0 || col >= len(g.cols) {
		return ""
	}
	return g.cells[row][col]
}

// Filtered returns the rows passing search and facet filters, in display order.
func (g *Grid) Filtered() []int {
	g.refresh()
	out := make([]int, len(g.filtered))
	copy(out, g.filtered)
	return out
}

// FilteredCount is len(Filtered()) without the copy.
func (g *Grid) FilteredCount() int {
	g.refresh()
	return len(g.filtered)
}

// Pages is the number of pages of the filtered view at the given size.
func (g *Grid) Pages(size int) int {
	if size <= 0 {
		return 1
	}
	n := g.FilteredCount()
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Page returns page n (zero-based) of the filtered view. Only these rows need
// rendering. Out of range pages are clamped.
func (g *Grid) Page(n, size int) []int {
	g.refresh()
	if size <= 0 {
		size = len(g.filtered)
	}
	last := g.Pages(size) - 1
	if n > last {
		n = last
	}
	if n < 0 {
		n = 0
	}
	start := n * size
	if start >= len(g.filtered) {
		return nil
	}
	end := start + size
	if end > len(g.filtered) {
		end = len(g.filtered)
	}
	out := make([]int, end-start)
	copy(out, g.filtered[start:end])
	return out
}

// SortBy orders rows by column col. Numeric cells compare as numbers, everything
// else case-insensitively. Ties keep dataset order.
func (g *Grid) SortBy(col int, asc bool) error {
	if col < 0 || col >= len(g.cols) {
		return fmt.Errorf("sort column %d: %w", col, ErrOutOfRange)
	}
	g.sortCol, g.sortAsc = col, asc
	g.resetOrder()
	sort.SliceStable(g.order, func(a, b int) bool {
		ra, rb := g.order[a], g.order[b]
		c := compareCells(g.lower[ra][col], g.lower[rb][col])
		if asc {
			return c < 0
		}
		return c > 0
	})
	g.dirty = true
	return nil
}

// Sort reports the active sort column and direction. ok is false when rows are
// in dataset order.
func (g *Grid) Sort() (col int, asc bool, ok bool) {
	return g.sortCol, g.sortAsc, g.sortCol >= 0
}

// ClearSort restores dataset order.
func (g *Grid) ClearSort() {
	g.sortCol, g.sortAsc = -1, false
	g.resetOrder()
	g.dirty = true
}

func (g *Grid) resetOrder() {
	g.order = make([]int, len(g.tokens))
	for i := range g.order {
		g.order[i] = i
	}
}

func (g *Grid) refresh() {
	if !g.dirty {
		return
	}
	g.filtered = g.filtered[:0]
	for _, i := range g.order {
		if g.matches(i, "") {
			g.filtered = append(g.filtered, i)
		}
	}
	g.dirty = false
}

// matches applies search and every facet except skipFacet.
func (g *Grid) matches(row int, skipFacet string) bool {
	if !g.matchesSearch(row) {
		return false
	}
	for key, allowed := range g.facets {
		if key == skipFacet || len(allowed) == 0 {
			continue
		}
		col := schema.Index(g.cols, key)
		if col < 0 {
			continue
		}
		if !allowed[g.cells[row][col]] {
			return false
		}
	}
	return true
}
