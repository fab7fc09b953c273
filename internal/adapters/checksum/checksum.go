// Package checksum implements the keyed integrity digest of cache entries.
package checksum

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/wick/internal/core/ports"
)

var _ ports.Checksummer = (*XXHash)(nil)

// XXHash computes digests with XXH64 over the salt and the text.
type XXHash struct{}

// New creates a new XXHash checksummer.
func New() *XXHash {
	return &XXHash{}
}

// Digest returns the hex encoded XXH64 of salt, a separator and text.
func (h *XXHash) Digest(text, salt string) string {
	hasher := xxhash.New()
	_, _ = hasher.WriteString(salt)
	_, _ = hasher.Write([]byte{0}) // Separator
	_, _ = hasher.WriteString(text)
	return fmt.Sprintf("%016x", hasher.Sum64())
}
