// Package checksum computes content digests used for change detection
// and optimistic concurrency.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/starford/linkograph/internal/linkograph"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Linkograph returns a digest of a move count and link set that does not
// depend on link order. Duplicate links change the digest.
func Linkograph(moveCount int, links []linkograph.Link) string {
	sorted := slices.Clone(links)
	slices.SortFunc(sorted, func(a, b linkograph.Link) int {
		if a.Move1 != b.Move1 {
			return a.Move1 - b.Move1
		}
		return a.Move2 - b.Move2
	})

	h := sha256.New()
	fmt.Fprintf(h, "moves=%d\n", moveCount)
	for _, l := range sorted {
		fmt.Fprintf(h, "%d-%d\n", l.Move1, l.Move2)
	}
	return hex.EncodeToString(h.Sum(nil))
}
