// Package sample generates synthetic collections for demos and large-table tests.
package sample

import (
	"fmt"
	"math/rand"

	"github.com/mr-tron/base58"

	"github.com/jask/mintpick/internal/collection"
)

// Options controls Collection.
type Options struct {
	Tokens int
	// Seed makes the output reproducible.
	Seed int64
	// ImageBase prefixes generated image URLs.
	ImageBase string
}

type trait struct {
	Key    string
	Values []string
}

var traits = []trait{
	{Key: "Background", Values: []string{"Blue", "Red", "Green", "Gold", "Purple"}},
	{Key: "Eyes", Values: []string{"Laser", "Sleepy", "Wide", "Closed"}},
	{Key: "Mouth", Values: []string{"Grin", "Pipe", "Smile"}},
	{Key: "Level", Values: []string{"1", "2", "3", "10", "25"}},
}

// Collection builds a dataset of opts.Tokens tokens. About one trait in six is
// left off a token, and every mint is a valid 32-byte base58 key.
func Collection(opts Options) *collection.Dataset {
	rng := rand.New(rand.NewSource(opts.Seed))
	base := opts.ImageBase
	if base == "" {
		base = "https://arweave.net/sample"
	}

	ds := &collection.Dataset{Name: "Sample Collection", Source: "sample"}
	for _, t := range traits {
		ds.TraitTypes = append(ds.TraitTypes, t.Key)
	}
	for i := 0; i < opts.Tokens; i++ {
		key := make([]byte, 32)
		rng.Read(key)
		tok := collection.Token{
			Image:  fmt.Sprintf("%s/%d.png", base, i+1),
			Name:   fmt.Sprintf("Mintpick #%d", i+1),
			Mint:   base58.Encode(key),
			Traits: make(map[string]string, len(traits)),
		}
		for _, t := range traits {
			if rng.Intn(6) == 0 {
				continue
			}
			tok.Traits[t.Key] = t.Values[rng.Intn(len(t.Values))]
		}
		ds.Tokens = append(ds.Tokens, tok)
	}
	return ds
}
