package collection

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reserved record keys. Every other member of a token record is a trait.
const (
	KeyImage = "image__"
	KeyName  = "name__"
	KeyMint  = "mint_address"
)

// Token is one NFT row.
type Token struct {
	Image  string
	Name   string
	Mint   string
	Traits map[string]string
}

// Trait returns the token's value for a trait type and whether it is present.
func (t Token) Trait(key string) (string, bool) {
	v, ok := t.Traits[key]
	return v, ok
}

// UnmarshalJSON splits a flat token record into its fixed fields and traits.
func (t *Token) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("token record is null")
	}
	*t = Token{Traits: make(map[string]string, len(raw))}
	for k, v := range raw {
		text, present, err := TraitText(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		if !present {
			continue
		}
		switch k {
		case KeyImage:
			t.Image = text
		case KeyName:
			t.Name = text
		case KeyMint:
			t.Mint = text
		default:
			t.Traits[k] = text
		}
	}
	return nil
}

// MarshalJSON writes the token back in its flat record shape.
func (t Token) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(t.Traits)+3)
	for k, v := range t.Traits {
		out[k] = v
	}
	out[KeyImage] = t.Image
	out[KeyName] = t.Name
	out[KeyMint] = t.Mint
	return json.Marshal(out)
}

// TraitText renders a JSON value as display text. null counts as absent.
func TraitText(v json.RawMessage) (string, bool, error) {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false, nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return "", false, err
	}
	return buf.String(), true, nil
}

// Dataset is a loaded collection document.
type Dataset struct {
	// Name is the collection's display name. Older documents omit it.
	Name       string
	Tokens     []Token
	TraitTypes []string
	Source     string
}

// Title is the name to show for the collection, falling back to its source.
func (d *Dataset) Title() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Source
}

type document struct {
	Name       string    `json:"collection_name,omitempty"`
	Tokens     *[]Token  `json:"tokens"`
	TraitTypes *[]string `json:"trait_types"`
}

// Decode parses a collection document. Both tokens and trait_types must be present.
func Decode(data []byte) (*Dataset, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Tokens == nil {
		return nil, fmt.Errorf("%w: missing tokens", ErrMalformed)
	}
	if doc.TraitTypes == nil {
		return nil, fmt.Errorf("%w: missing trait_types", ErrMalformed)
	}
	return &Dataset{Name: doc.Name, Tokens: *doc.Tokens, TraitTypes: *doc.TraitTypes}, nil
}

// Encode writes ds as an indented collection document, the inverse of Decode.
func Encode(ds *Dataset) ([]byte, error) {
	tokens, traitTypes := ds.Tokens, ds.TraitTypes
	if tokens == nil {
		tokens = []Token{}
	}
	if traitTypes == nil {
		traitTypes = []string{}
	}
	data, err := json.MarshalIndent(document{Name: ds.Name, Tokens: &tokens, TraitTypes: &traitTypes}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return data, nil
}

// MintIssue describes a token whose mint address is not a valid key.
type MintIssue struct {
	Index int
	Mint  string
	Err   error
}

// MintIssues validates every mint address. Invalid tokens stay in the dataset.
func (d *Dataset) MintIssues() []MintIssue {
	var out []MintIssue
	for i, tok := range d.Tokens {
		if err := ValidateMint(tok.Mint); err != nil {
			out = append(out, MintIssue{Index: i, Mint: tok.Mint, Err: err})
		}
	}
	return out
}
