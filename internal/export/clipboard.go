package export

import "github.com/atotto/clipboard"

// Clipboard receives exported text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Copy places the payload's JSON on cb.
func Copy(cb Clipboard, p Payload) error {
	data, err := p.JSON()
	if err != nil {
		return err
	}
	return cb.WriteAll(string(data))
}
