// Package worker implements spec section 4.3: a pool of CPU-bound
// searchers, each generating secp256k1 keypairs, hashing them against the
// current job's seed, and handing any candidate that beats the job's
// difficulty target to Submission. It is a direct translation of the
// per-worker tokio::spawn loop in original_source/src/main.rs, one
// goroutine per unit of parallelism in place of one async task per OS
// thread — the same "one goroutine per concern" shape the teacher uses
// to start its worker's mainLoop/newWorkLoop/resultLoop/taskLoop
// (miner/worker.go's newWorker).
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"runtime"

	"github.com/btcsuite/btcd/btcec"
	"github.com/holiman/uint256"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
	"clcminer/mining/submission"
)

// batchSize is how many iterations a worker accumulates locally before
// touching the shared hash counter (spec 4.3 step 7).
const batchSize = 100

// Config configures the pool. Threads <= 0 means "use the machine's
// logical parallelism" (spec section 4.3's Pool sizing, sentinel -1 in
// the TOML config translated to <= 0 here since unsigned/-1 round trips
// awkwardly through config parsing).
type Config struct {
	Threads      int
	State        *state.Shared
	Submitter    *submission.Submitter
	Log          *plog.Logger
	SubmitServer func() string
	RewardsDir   func() string
	BackupDir    func() string
	OnMined      func() string
	PoolSecret   func() string
}

// Pool runs Threads worker goroutines until ctx is done.
type Pool struct {
	cfg Config
}

// New builds a Pool from cfg, resolving the thread-count sentinel.
func New(cfg Config) *Pool {
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}
	return &Pool{cfg: cfg}
}

// Threads returns the resolved worker count (after sentinel resolution).
func (p *Pool) Threads() int { return p.cfg.Threads }

// Run starts the pool and blocks until ctx is canceled.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.cfg.Threads; i++ {
		go p.worker(ctx)
	}
	<-ctx.Done()
}

// worker is a single search loop (spec 4.3's "Worker loop").
func (p *Pool) worker(ctx context.Context) {
	var localCount uint64

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Step 1: read current_job as a single self-consistent snapshot
		// (spec section 5's ordering guarantee: seed and diff must be
		// read together, never separately).
		current := p.cfg.State.CurrentJob()
		if current.Waiting() {
			// Yield so control tasks (Job Fetcher, Rate Display) make
			// progress even on a GOMAXPROCS=1 cooperative scheduler
			// (spec section 5's "Suspension points").
			runtime.Gosched()
			continue
		}

		// Step 2-3: fresh keypair, hash public key || seed.
		priv, err := btcec.NewPrivateKey(btcec.S256())
		if err != nil {
			// Infallible given a healthy CSPRNG per spec 4.3's Failure
			// note; treat a transient OS RNG failure as a skipped tick
			// rather than crash the worker (spec 7: no error is fatal).
			continue
		}
		pub := priv.PubKey()
		pubHex := hex.EncodeToString(pub.SerializeUncompressed())

		sum := sha256.Sum256([]byte(pubHex + current.Seed))
		digest := new(uint256.Int).SetBytes(sum[:])

		// Step 5: best-effort window minimum.
		p.cfg.State.ObserveDigest(digest)

		// Step 6: win check.
		if digest.Cmp(current.Diff) <= 0 {
			p.handleWin(current, priv, pub, digest)
		}

		// Step 7: batch the shared counter update.
		localCount++
		if localCount == batchSize {
			p.cfg.State.AddHashes(batchSize)
			localCount = 0
		}
	}
}

// handleWin executes spec 4.3 step 6: pause the job, build a Solution,
// submit it (awaiting completion, as the spec requires so that a second
// win cannot race the pause).
func (p *Pool) handleWin(won job.Job, priv *btcec.PrivateKey, pub *btcec.PublicKey, digest *uint256.Int) {
	// Invariant 1: never submit a digest above the diff it was measured
	// against. The Cmp check in worker already enforces this at the
	// moment of the win; re-stating it here would only re-read
	// current_job, which spec 4.3's "Ordering notes" explicitly allows to
	// have moved on already.
	p.cfg.Log.Success("Found a candidate", "reward", won.Reward, "diff", job.PadHex(won.Diff, 64))

	// Invariant 2: pause before submission begins.
	p.cfg.State.WinPause()

	digestHex := job.PadHex(digest, 64)
	p.cfg.Submitter.Submit(submission.Solution{
		PublicKey:  pub,
		PrivateKey: priv,
		DigestHex:  digestHex,
		Server:     p.cfg.SubmitServer(),
		RewardsDir: p.cfg.RewardsDir(),
		BackupDir:  p.cfg.BackupDir(),
		OnMined:    p.cfg.OnMined(),
		Reward:     won.Reward,
		PoolSecret: p.cfg.PoolSecret(),
	})
}
