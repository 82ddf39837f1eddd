// Package schema derives the table's column layout from a collection's trait types.
package schema

import "github.com/jask/mintpick/internal/collection"

// Kind says which part of a token a column reads.
type Kind int

const (
	KindImage Kind = iota
	KindName
	KindTrait
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindName:
		return "name"
	default:
		return "trait"
	}
}

// Column describes one table column.
type Column struct {
	Key   string
	Title string
	Kind  Kind
	// Facet reports whether the column gets a filter panel. Identity columns do not.
	Facet bool
	// DefaultContent is shown when a token has no value for the column.
	DefaultContent string
}

// Build returns the image and name columns followed by one column per trait type,
// in the order given. The result always has len(traitTypes)+2 entries.
func Build(traitTypes []string) []Column {
	cols := make([]Column, 0, len(traitTypes)+2)
	cols = append(cols,
		Column{Key: collection.KeyImage, Title: "image", Kind: KindImage},
		Column{Key: collection.KeyName, Title: "name", Kind: KindName},
	)
	for _, t := range traitTypes {
		cols = append(cols, Column{Key: t, Title: t, Kind: KindTrait, Facet: true})
	}
	return cols
}

// Value returns the token's raw value for the column and whether it has one.
func (c Column) Value(tok collection.Token) (string, bool) {
	switch c.Kind {
	case KindImage:
		return tok.Image, tok.Image != ""
	case KindName:
		return tok.Name, tok.Name != ""
	default:
		return tok.Trait(c.Key)
	}
}

// Cell returns the display text for tok, falling back to DefaultContent.
func (c Column) Cell(tok collection.Token) string {
	if v, ok := c.Value(tok); ok {
		return v
	}
	return c.DefaultContent
}

// Index returns the position of the column with the given key, or -1.
func Index(cols []Column, key string) int {
	for i, c := range cols {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// Titles lists column titles in order.
func Titles(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Title
	}
	return out
}
