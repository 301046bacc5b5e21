package ir

import (
	"bufio"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/minio/highwayhash"
)

// normalizeSpan strips only trailing whitespace per line, matching the
// content_hash definition in spec §3.2: comment/whitespace-only edits to a
// node's span must never flip its hash unless they change the normalized
// text, so that the NONE impact level (§4.5.2) is reachable.
func normalizeSpan(text string) string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var b strings.Builder
	first := true
	for scanner.Scan() {
		if !first {
			b.WriteByte('\n')
		}
		first = false
		b.WriteString(strings.TrimRight(scanner.Text(), " \t\r"))
	}
	return b.String()
}

// ContentHash computes the SHA-256 of a node's textual span after
// whitespace-only normalization. This is pinned by spec §3.2 and §8.1
// ("content-hash monotonicity") — it is not swappable for a faster
// non-cryptographic hash, unlike the structural hash below.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(normalizeSpan(text)))
	return hex.EncodeToString(sum[:])
}

// SignatureHash computes the SHA-1 of a normalized signature string built
// from a SignatureEntity's parameter types, return type, and async/static/
// visibility flags — but never its body. Stable under body edits, unstable
// under any of those fields changing (spec §3.4).
func SignatureHash(normalized string) string {
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

var highwayKey = []byte("CODEINTEL-IR-STRUCT-HASH-KEY-000") // highwayhash needs a 32-byte key

// StructuralHash is a fast, non-cryptographic hash; no package in this
// module calls it, and it is never used for impact classification, which
// is pinned to SHA-256/SHA-1 above. Grounded on the
// teacher's inspector/graph/hash.go, which uses the same library for the
// same "fast, not security-sensitive" purpose.
func StructuralHash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(highwayKey)
	if err != nil {
		return 0, err
	}
	if _, err := h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
