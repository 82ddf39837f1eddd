package collection

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// mintKeyLen is the size of a Solana public key.
const mintKeyLen = 32

// ErrInvalidMint is returned by ValidateMint.
var ErrInvalidMint = errors.New("invalid mint address")

// ValidateMint checks that mint is a base58 encoded 32-byte public key.
func ValidateMint(mint string) error {
	if mint == "" {
		return fmt.Errorf("%w: empty", ErrInvalidMint)
	}
	decoded, err := base58.Decode(mint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMint, err)
	}
	if len(decoded) != mintKeyLen {
		return fmt.Errorf("%w: decoded to %d bytes", ErrInvalidMint, len(decoded))
	}
	return nil
}
