package grid

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// minFuzzyTerm is the shortest term that may match by edit distance.
const minFuzzyTerm = 4

// SetSearch sets the global search. Terms are whitespace separated and all must match.
func (g *Grid) SetSearch(q string) {
	g.query = q
	g.search = strings.Fields(toLower(q))
	g.dirty = true
}

// Search returns the current search text.
func (g *Grid) Search() string {
	return g.query
}

func (g *Grid) matchesSearch(row int) bool {
	for _, term := range g.search {
		if !g.termMatches(row, term) {
			return false
		}
	}
	return true
}

func (g *Grid) termMatches(row int, term string) bool {
	for _, cell := range g.lower[row] {
		if strings.Contains(cell, term) {
			return true
		}
	}
	if g.opts.FuzzyDistance <= 0 || len([]rune(term)) < minFuzzyTerm {
		return false
	}
	for _, cell := range g.lower[row] {
		for _, word := range words(cell) {
			if levenshtein.ComputeDistance(word, term) <= g.opts.FuzzyDistance {
				return true
			}
		}
	}
	return false
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func toLower(s string) string {
	return strings.ToLower(s)
}

// compareCells orders two lowercased cells: empty first, numbers numerically,
// numbers before text, text lexically.
func compareCells(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}
