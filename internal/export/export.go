// Package export turns a row selection into the list of mint addresses handed
// off for archival.
package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jask/mintpick/internal/collection"
)

// Payload is one export of the current selection. It is a snapshot: later
// selection changes do not touch it.
type Payload struct {
	ID        string
	Label     string
	Mints     []string
	CreatedAt time.Time
}

// New projects tokens onto their mint addresses, keeping order and duplicates.
func New(label string, tokens []collection.Token) Payload {
	mints := make([]string, len(tokens))
	for i, tok := range tokens {
		mints[i] = tok.Mint
	}
	return Payload{
		ID:        uuid.NewString(),
		Label:     label,
		Mints:     mints,
		CreatedAt: time.Now().UTC(),
	}
}

// JSON is the mint list as two-space indented JSON. An empty export is "[]".
func (p Payload) JSON() ([]byte, error) {
	mints := p.Mints
	if mints == nil {
		mints = []string{}
	}
	data, err := json.MarshalIndent(mints, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal mints: %w", err)
	}
	return data, nil
}

// Text is the label followed by the JSON list on its own lines.
func (p Payload) Text() (string, error) {
	data, err := p.JSON()
	if err != nil {
		return "", err
	}
	if p.Label == "" {
		return string(data), nil
	}
	return p.Label + "\n" + string(data), nil
}

var htmlTmpl = template.Must(template.New("export").Parse(
	`<p class="export-label">{{.Label}}</p><pre class="export-json">{{.JSON}}</pre>`,
))

// WriteHTML renders the label and a preformatted JSON block with escaping.
func (p Payload) WriteHTML(w io.Writer) error {
	data, err := p.JSON()
	if err != nil {
		return err
	}
	return htmlTmpl.Execute(w, struct {
		Label string
		JSON  string
	}{p.Label, string(data)})
}
