// Package hash provides the content digests used for snapshot naming and
// synthetic job identifiers.
package hash

import (
	"crypto/md5" //nolint:gosec // identifier derivation, not security
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex SHA-256 digest of data. Challenge snapshots are
// keyed by it so identical pages overwrite rather than pile up.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortMD5Hex returns the first n hex characters of the MD5 digest of s.
// n is clamped to the digest length.
func ShortMD5Hex(s string, n int) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // identifier derivation, not security
	digest := hex.EncodeToString(sum[:])
	if n <= 0 || n > len(digest) {
		return digest
	}
	return digest[:n]
}
