package grid

import (
	"fmt"

	"github.com/jask/mintpick/internal/collection"
)

// Toggle flips the selection state of row i.
func (g *Grid) Toggle(i int) error {
	if i < 0 || i >= len(g.tokens) {
		return fmt.Errorf("toggle row %d: %w", i, ErrOutOfRange)
	}
	if g.selected[i] {
		delete(g.selected, i)
	} else {
		g.selected[i] = true
	}
	return nil
}

// Select marks rows as selected.
func (g *Grid) Select(rows ...int) error {
	for _, i := range rows {
		if i < 0 || i >= len(g.tokens) {
			return fmt.Errorf("select row %d: %w", i, ErrOutOfRange)
		}
	}
	for _, i := range rows {
		g.selected[i] = true
	}
	return nil
}

// Deselect clears rows from the selection.
func (g *Grid) Deselect(rows ...int) {
	for _, i := range rows {
		delete(g.selected, i)
	}
}

// SelectFiltered adds every row passing the current filters to the selection and
// returns how many were newly selected. Existing selections are kept.
func (g *Grid) SelectFiltered() int {
	g.refresh()
	added := 0
	for _, i := range g.filtered {
		if !g.selected[i] {
			g.selected[i] = true
			added++
		}
	}
	return added
}

// SelectNone clears the selection and returns how many rows were deselected.
func (g *Grid) SelectNone() int {
	n := len(g.selected)
	g.selected = make(map[int]bool)
	return n
}

// IsSelected reports whether row i is selected.
func (g *Grid) IsSelected(i int) bool {
	return g.selected[i]
}

// SelectedCount is the number of selected rows.
func (g *Grid) SelectedCount() int {
	return len(g.selected)
}

// SelectedIndices returns selected rows in display order, including rows the
// current filters hide.
func (g *Grid) SelectedIndices() []int {
	out := make([]int, 0, len(g.selected))
	for _, i := range g.order {
		if g.selected[i] {
			out = append(out, i)
		}
	}
	return out
}

// Selected returns the selected tokens in display order.
func (g *Grid) Selected() []collection.Token {
	idx := g.SelectedIndices()
	out := make([]collection.Token, len(idx))
	for n, i := range idx {
		out[n] = g.tokens[i]
	}
	return out
}
