package submission

import (
	"encoding/binary"
	"sync"

	mapset "github.com/deckarep/golang-set"
	"github.com/hashicorp/golang-lru"
	"github.com/holiman/bloomfilter/v2"
)

// dedupGuard is the duplicate-submission defense-in-depth described in
// SPEC_FULL section 3: a cheap bloom-filter pre-check, a set of digests
// currently in flight, and a bounded LRU of digests already submitted.
// None of these ever change which candidate wins are valid (spec
// section 8's invariants are unaffected) — they only stop a second HTTP
// round trip for a digest this process has already handled.
type dedupGuard struct {
	mu       sync.Mutex
	bloom    *bloomfilter.Filter
	inFlight mapset.Set
	seen     *lru.Cache
}

func newDedupGuard() *dedupGuard {
	bloom, err := bloomfilter.NewOptimal(1<<20, 0.001)
	if err != nil {
		// NewOptimal only fails on a nonsensical (n, p); our constants are
		// fixed and valid, so this is unreachable in practice. Fall back
		// to a guard that always misses the bloom pre-check rather than
		// panic — the set+LRU checks below still hold correctness.
		bloom = nil
	}
	seen, _ := lru.New(4096)
	return &dedupGuard{
		bloom:    bloom,
		inFlight: mapset.NewSet(),
		seen:     seen,
	}
}

// digestHash64 is a cheap 64-bit adapter implementing hash.Hash64 over a
// fixed value, the shape github.com/holiman/bloomfilter/v2 operates on.
type digestHash64 uint64

func (digestHash64) Write(p []byte) (int, error) { return len(p), nil }
func (digestHash64) Sum(b []byte) []byte         { return b }
func (digestHash64) Reset()                      {}
func (digestHash64) Size() int                   { return 8 }
func (digestHash64) BlockSize() int               { return 8 }
func (d digestHash64) Sum64() uint64             { return uint64(d) }

func digestKey(digestHex string) (digestHash64, string) {
	// First 8 bytes of the hex digest give a well-distributed 64-bit key;
	// the LRU/set below still key on the full hex string for exactness,
	// the bloom filter is only ever a fast maybe.
	return digestHash64(binary.BigEndian.Uint64(decodeHexPrefix(digestHex))), digestHex
}

func decodeHexPrefix(s string) []byte {
	out := make([]byte, 8)
	for i := 0; i < 8 && i*2+1 < len(s); i++ {
		hi := hexNibble(s[i*2])
		lo := hexNibble(s[i*2+1])
		out[i] = hi<<4 | lo
	}
	return out
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// ShouldSubmit reports whether digestHex has neither already been submitted
// nor is currently mid-submission, and if so marks it in-flight. The
// caller must call Done when the submission attempt completes.
func (g *dedupGuard) ShouldSubmit(digestHex string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key, exact := digestKey(digestHex)
	if g.bloom != nil && !g.bloom.Contains(key) {
		// Definitely not seen before; skip the exact checks.
		g.bloom.Add(key)
		g.inFlight.Add(exact)
		return true
	}
	if g.seen.Contains(exact) || g.inFlight.Contains(exact) {
		return false
	}
	if g.bloom != nil {
		g.bloom.Add(key)
	}
	g.inFlight.Add(exact)
	return true
}

// Done marks digestHex's submission attempt finished. If accepted, the
// digest moves into the long-lived "already submitted" LRU; otherwise it
// is simply removed from the in-flight set so a retry is allowed.
func (g *dedupGuard) Done(digestHex string, accepted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight.Remove(digestHex)
	if accepted {
		g.seen.Add(digestHex, struct{}{})
	}
}
