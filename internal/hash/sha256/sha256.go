// Package sha256 computes image payload checksums.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrEmptyPayload is returned when there is nothing to checksum.
var ErrEmptyPayload = errors.New("sha256: empty payload")

// Hasher implements animal.Hasher. Digests are lower-case hex, which is what
// the stores persist in their checksum column.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of an image payload.
func (h *Hasher) Hash(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", ErrEmptyPayload
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
