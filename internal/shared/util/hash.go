package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// HashUserKey returns a filesystem-safe identifier for an owner id.
func HashUserKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashParts hashes an ordered tuple of strings. Each part is length-prefixed
// so ("ab","c") and ("a","bc") never collide.
func HashParts(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strconv.Itoa(len(p))))
		h.Write([]byte{':'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
