// Package job holds the mining challenge data model: the Job value
// published by the coordinator, the wait/pause sentinel forms used to
// freeze the worker pool, and the hex padding helper shared by every
// component that prints or transmits a 256-bit value.
package job

import (
	"strings"

	"github.com/holiman/uint256"
)

// WaitSeed is the distinguished seed value that freezes workers. A Job
// with this seed carries no work; workers spin until a fresh seed is
// published.
const WaitSeed = "wait"

// Job is a single mining challenge. Seed is the identity of a job: two
// Jobs with the same Seed are the same job, regardless of Diff/Reward/
// LastFound (see the pause-job construction below).
type Job struct {
	Seed      string
	Diff      *uint256.Int
	Reward    float64
	LastFound uint64 // milliseconds since Unix epoch
}

// Wait returns the initial job SharedState is created with: it carries
// no work and keeps every worker spinning until the Job Fetcher
// publishes a real seed.
func Wait() Job {
	return Job{Seed: WaitSeed, Diff: new(uint256.Int)}
}

// Pause returns a copy of j with Seed replaced by WaitSeed. Diff, Reward
// and LastFound are preserved so that, should anything log or inspect
// the paused job, the numbers still describe the challenge that was just
// won. Workers observing a paused job do no work until the Fetcher
// replaces it with a job carrying a different seed.
func (j Job) Pause() Job {
	return Job{
		Seed:      WaitSeed,
		Diff:      j.Diff,
		Reward:    j.Reward,
		LastFound: j.LastFound,
	}
}

// Waiting reports whether j is a wait-job (including a pause-job, which
// is indistinguishable from a wait-job by seed alone).
func (j Job) Waiting() bool {
	return j.Seed == WaitSeed
}

// PadHex zero-pads the big-endian hex encoding of v to exactly n
// characters, lowercase. Used for Diff/digest/best formatting in logs
// and on the wire (spec section 3's 64-hex-character requirement for
// 256-bit values).
func PadHex(v *uint256.Int, n int) string {
	h := v.Hex() // "0x" + minimal hex, e.g. "0x1a"
	h = strings.TrimPrefix(h, "0x")
	if len(h) >= n {
		return h
	}
	return strings.Repeat("0", n-len(h)) + h
}
