// Package hash computes content fingerprints used as generation cache keys.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/brickforge/brickforge/internal/model"
)

// HasherConfig is the configuration for the hasher.
type HasherConfig struct {
	// Weak disables the cryptographic digest and fingerprints files by their
	// metadata instead of their content. Meant for constrained runtimes where
	// reading full file contents is not acceptable. The weak fingerprint is
	// deterministic but NOT collision resistant, so it must only be used as a
	// cache-hit-rate optimization.
	Weak bool
}

// Hasher computes deterministic fingerprints over prompt and image inputs.
type Hasher struct {
	weak bool
}

// NewHasher creates a new hasher.
func NewHasher(cfg HasherConfig) Hasher {
	return Hasher{weak: cfg.Weak}
}

// HashFile returns the hex fingerprint of a single file. In the default mode
// this is the sha256 digest of the raw bytes, so identical content always
// yields the same fingerprint regardless of name or media type.
func (h Hasher) HashFile(f model.ImageFile) string {
	if h.weak {
		s := fmt.Sprintf("%s-%d-%s-%d", f.Name, len(f.Data), f.MediaType, f.ModTime.UnixMilli())
		return weakSum(s)
	}

	sum := sha256.Sum256(f.Data)
	return hex.EncodeToString(sum[:])
}

// HashSet returns the combined fingerprint of a file set plus an optional
// prompt. Per-file fingerprints are sorted lexicographically before joining,
// so the same files in a different order produce the same key. An empty
// prompt hashes identically to an omitted one.
func (h Hasher) HashSet(files []model.ImageFile, prompt string) string {
	sums := make([]string, 0, len(files))
	for _, f := range files {
		sums = append(sums, h.HashFile(f))
	}
	sort.Strings(sums)

	combined := strings.Join(sums, "|") + "|" + prompt

	if h.weak {
		return weakSum(combined)
	}

	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// Short returns a 12-character prefix of a fingerprint for display and log
// messages.
func Short(sum string) string {
	if len(sum) <= 12 {
		return sum
	}
	return sum[:12]
}

// weakSum is a 32-bit rolling checksum over a string, hex encoded and padded
// to 8 characters.
func weakSum(s string) string {
	var sum int32
	for _, c := range s {
		sum = (sum << 5) - sum + c
	}
	if sum < 0 {
		sum = -sum
	}
	return fmt.Sprintf("%08x", uint32(sum))
}
