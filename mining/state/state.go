// Package state holds SharedState, the single mutable resource of the
// mining engine (spec section 4.1 / 9's "shared mutable state" design
// note). Each logical cell — current job, best-this-window digest, the
// window hash counter, the published rate, cumulative reward, and the
// recent-wins ring — is protected by its own lock (the hash counter by
// atomic operations instead), following the
// teacher's own per-concern locking discipline (miner/worker.go declares
// separate sync.RWMutex fields — mu, pendingMu, snapshotMu — for
// coinbase/extra, pending tasks and the block snapshot respectively,
// rather than one global lock guarding the whole worker struct).
package state

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/holiman/uint256"

	"clcminer/job"
)

// maxU256 is 2^256-1, the initial/window-reset value of Best.
func maxU256() *uint256.Int {
	return new(uint256.Int).Not(new(uint256.Int)) // bitwise NOT of zero: all-ones
}

// recentCap bounds the recent-wins ring (SPEC_FULL section 3).
const recentCap = 32

// WinRecord is one entry in the recent-wins ring: an observational record
// of a submission attempt, never consulted by the mining invariants.
type WinRecord struct {
	Digest    string
	Reward    float64
	Accepted  bool
	CoinID    uint64
	Pool      bool
	Timestamp time.Time
}

// Shared is the engine's SharedState. Zero value is not usable; build one
// with New.
type Shared struct {
	jobMu sync.RWMutex
	job   job.Job

	bestMu sync.RWMutex
	best   *uint256.Int

	hashCount uint64 // atomic; incremented in batches of 100 per worker (spec 4.3 step 7)

	rateMu      sync.RWMutex
	calcedRate  float64
	totalMu     sync.RWMutex
	totalMined  float64

	recentMu sync.Mutex
	recent   []WinRecord
	recentAt int
}

// New creates a SharedState initialized per spec section 3's lifecycle:
// current_job = wait-job, best = 2^256-1, counters zero.
func New() *Shared {
	return &Shared{
		job:  job.Wait(),
		best: maxU256(),
	}
}

// CurrentJob returns a snapshot of the current job. Callers must treat
// the returned value as immutable (Job fields other than the pointer-held
// Diff are already value types; Diff itself is never mutated in place —
// every job transition constructs a new Job, see SetJob/WinPause).
func (s *Shared) CurrentJob() job.Job {
	s.jobMu.RLock()
	defer s.jobMu.RUnlock()
	return s.job
}

// SetJob installs a new job, used by the Job Fetcher when the coordinator
// publishes a new seed.
func (s *Shared) SetJob(j job.Job) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	s.job = j
}

// WinPause atomically flips the current job to its pause-form (spec
// invariant 2: the job must be paused before submission begins). It
// returns the job as it was immediately before pausing, which is already
// a pause-form if another caller paused first. The worker pool's win path
// ignores it and submits against the job snapshot it mined on.
func (s *Shared) WinPause() job.Job {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	won := s.job
	s.job = s.job.Pause()
	return won
}

// Best returns the minimum candidate digest observed in the current
// window.
func (s *Shared) Best() *uint256.Int {
	s.bestMu.RLock()
	defer s.bestMu.RUnlock()
	return s.best
}

// ObserveDigest implements the compare-and-write pattern of spec 4.1: a
// cheap read-only check first, then the write lock only when the
// candidate might actually improve Best. Transient losses under
// concurrent writers are tolerated (spec 5's linearizable-but-racy note)
// and self-correct at the next window.
func (s *Shared) ObserveDigest(d *uint256.Int) {
	s.bestMu.RLock()
	improves := d.Lt(s.best)
	s.bestMu.RUnlock()
	if !improves {
		return
	}
	s.bestMu.Lock()
	defer s.bestMu.Unlock()
	if d.Lt(s.best) {
		s.best = d
	}
}

// ResetWindow zeroes the hash counter and resets Best to all-ones,
// returning the pre-reset hash count and best so Rate Display can
// compute the window's rate and log the window's minimum (spec 4.6).
func (s *Shared) ResetWindow() (hashCount uint64, best *uint256.Int) {
	hashCount = atomic.SwapUint64(&s.hashCount, 0)

	s.bestMu.Lock()
	best = s.best
	s.best = maxU256()
	s.bestMu.Unlock()

	return hashCount, best
}

// AddHashes increments the window hash counter. Workers call this in
// batches of 100 (spec 4.3 step 7) to keep the counter a cheap atomic add
// rather than a per-candidate lock acquisition.
func (s *Shared) AddHashes(n uint64) {
	atomic.AddUint64(&s.hashCount, n)
}

// HashCount peeks the live window counter without resetting it, used by
// the admin console / status API for an interim reading between window
// boundaries.
func (s *Shared) HashCount() uint64 {
	return atomic.LoadUint64(&s.hashCount)
}

// SetRate publishes the last computed hashes-per-millisecond snapshot
// (spec 3's calced_rate), consumed by Telemetry.
func (s *Shared) SetRate(r float64) {
	s.rateMu.Lock()
	s.calcedRate = r
	s.rateMu.Unlock()
}

// Rate returns the last published rate snapshot.
func (s *Shared) Rate() float64 {
	s.rateMu.RLock()
	defer s.rateMu.RUnlock()
	return s.calcedRate
}

// AddReward increases total_mined. Spec invariant 4: only ever called
// after the coordinator returns a success status for a submission.
func (s *Shared) AddReward(r float64) {
	s.totalMu.Lock()
	s.totalMined += r
	s.totalMu.Unlock()
}

// TotalMined returns the cumulative reward from successful submissions.
func (s *Shared) TotalMined() float64 {
	s.totalMu.RLock()
	defer s.totalMu.RUnlock()
	return s.totalMined
}

// RecordWin appends to the recent-wins ring (SPEC_FULL section 3),
// evicting the oldest entry once full — the same fixed-capacity,
// evict-oldest shape as the teacher's unconfirmedBlocks ring in
// miner/unconfirmed.go, repurposed from "blocks pending confirmation" to
// "submission attempts pending no further action" (purely observational
// either way).
func (s *Shared) RecordWin(r WinRecord) {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	if len(s.recent) < recentCap {
		s.recent = append(s.recent, r)
		return
	}
	s.recent[s.recentAt] = r
	s.recentAt = (s.recentAt + 1) % recentCap
}

// Recent returns up to n most-recent win records, newest first.
func (s *Shared) Recent(n int) []WinRecord {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()

	total := len(s.recent)
	if n <= 0 || n > total {
		n = total
	}
	out := make([]WinRecord, 0, n)
	// s.recent is a logical ring starting at recentAt once full; walk
	// backwards from the most recently written slot.
	start := (s.recentAt - 1 + total) % max(total, 1)
	for i := 0; i < n && total > 0; i++ {
		idx := (start - i + total) % total
		out = append(out, s.recent[idx])
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
