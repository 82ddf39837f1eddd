package sample

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/mintpick/internal/collection"
)

func TestCollectionIsReproducible(t *testing.T) {
	a := Collection(Options{Tokens: 50, Seed: 7})
	b := Collection(Options{Tokens: 50, Seed: 7})
	require.Equal(t, a.Tokens, b.Tokens)
	require.Len(t, a.Tokens, 50)
	require.Equal(t, []string{"Background", "Eyes", "Mouth", "Level"}, a.TraitTypes)
}

func TestCollectionMintsAreValid(t *testing.T) {
	ds := Collection(Options{Tokens: 200, Seed: 1})
	require.Empty(t, ds.MintIssues())
}

func TestCollectionRoundTripsThroughDecode(t *testing.T) {
	ds := Collection(Options{Tokens: 20, Seed: 3})
	data, err := collection.Encode(ds)
	require.NoError(t, err)

	got, err := collection.Decode(data)
	require.NoError(t, err)
	require.Equal(t, ds.TraitTypes, got.TraitTypes)
	require.Equal(t, ds.Tokens, got.Tokens)
}
