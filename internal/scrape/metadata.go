package scrape

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// TokenMetadataProgram owns every token metadata account.
const TokenMetadataProgram = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

const (
	metadataAccountSize = 679
	mintOffset          = 1 + 32
)

// collectionOffsets are where the collection key sits in a metadata account.
// It moves by one byte with the optional edition nonce before it.
var collectionOffsets = []int{401, 402}

// ErrMetadata is returned for account data that is not a metadata account.
var ErrMetadata = errors.New("malformed metadata account")

// Metadata is the leading part of an on-chain token metadata account.
type Metadata struct {
	UpdateAuthority string
	Mint            string
	Name            string
	Symbol          string
	URI             string
}

// DecodeMetadata reads the fixed header and the name, symbol and uri strings.
// The strings are stored zero-padded; each is cut at its first zero byte.
func DecodeMetadata(data []byte) (Metadata, error) {
	r := reader{buf: data}
	r.take(1)
	authority := r.take(32)
	mint := r.take(32)
	name := r.str()
	symbol := r.str()
	uri := r.str()
	if r.err != nil {
		return Metadata{}, r.err
	}
	return Metadata{
		UpdateAuthority: base58.Encode(authority),
		Mint:            base58.Encode(mint),
		Name:            name,
		Symbol:          symbol,
		URI:             uri,
	}, nil
}

type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.buf)-r.off < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMetadata, n, r.off, len(r.buf)-r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) str() string {
	n := r.take(4)
	if r.err != nil {
		return ""
	}
	b := r.take(int(binary.LittleEndian.Uint32(n)))
	s, _, _ := strings.Cut(string(b), "\x00")
	return s
}
