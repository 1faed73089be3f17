package submission

import "crypto/sha256"

// sha256Hex hashes the UTF-8 bytes of s, the same hashing the worker pool
// applies to form the candidate digest (mining/worker), used here for the
// signature digest (spec section 4.4:
// "sigdigest = SHA256(lowercase_hex(uncompressed_pubkey))").
func sha256Hex(s string) []byte {
	h := sha256.Sum256([]byte(s))
	return h[:]
}
