// Package hashsum implements the Hasher contract (§6.5): a fast, streaming,
// deterministic 128-bit content hash used by the Mover's integrity checks.
// The spec explicitly names XXH3-128 as the reference choice — the
// integrity domain here is accidental corruption, not adversarial
// tampering, so a non-cryptographic hash is appropriate.
package hashsum

import (
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Hash128 is a 128-bit digest, stored as the two 64-bit halves xxh3 produces.
type Hash128 struct {
	Hi uint64
	Lo uint64
}

// Equal compares two digests for bitwise equality.
func (h Hash128) Equal(other Hash128) bool {
	return h.Hi == other.Hi && h.Lo == other.Lo
}

func (h Hash128) String() string {
	return fmt.Sprintf("%016x%016x", h.Hi, h.Lo)
}

// File streams path's contents through XXH3-128 without loading the whole
// file into memory.
func File(path string) (Hash128, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hash128{}, err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return Hash128{}, err
	}
	sum := h.Sum128()
	return Hash128{Hi: sum.Hi, Lo: sum.Lo}, nil
}
