package job

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/holiman/uint256"

	"clcminer/internal/plog"
)

// body is the coordinator's /get-challenge response shape (spec section 6).
type body struct {
	Seed      string  `json:"seed"`
	Diff      string  `json:"diff"`
	Reward    float64 `json:"reward"`
	LastFound uint64  `json:"lastFound"`
}

// parseDiff decodes a bare (no "0x" prefix) hex-encoded 256-bit target.
func parseDiff(hexDiff string) (*uint256.Int, error) {
	v := new(uint256.Int)
	if err := v.SetFromHex("0x" + hexDiff); err != nil {
		return nil, fmt.Errorf("invalid diff hex %q: %w", hexDiff, err)
	}
	return v, nil
}

// fetch performs a single GET {server}/get-challenge and decodes it into a Job.
func fetch(client *http.Client, server string) (Job, error) {
	resp, err := client.Get(server + "/get-challenge")
	if err != nil {
		return Job{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Job{}, fmt.Errorf("get-challenge: unexpected status %s", resp.Status)
	}

	var b body
	if err := json.NewDecoder(resp.Body).Decode(&b); err != nil {
		return Job{}, fmt.Errorf("get-challenge: decode: %w", err)
	}

	diff, err := parseDiff(b.Diff)
	if err != nil {
		return Job{}, err
	}

	return Job{
		Seed:      b.Seed,
		Diff:      diff,
		Reward:    b.Reward,
		LastFound: b.LastFound,
	}, nil
}

// Target is the minimal surface the Fetcher needs from the shared mining
// state: read the current job for change detection, and publish a new one.
type Target interface {
	CurrentJob() Job
	SetJob(Job)
}

// Fetcher repeatedly polls the coordinator for the current challenge and
// publishes it to Target when its seed differs both from the current job's
// seed and from the seed of the previous poll (spec section 4.2). The
// second condition keeps a paused job frozen while the coordinator still
// serves the challenge that was just won; a Poke waives it for one poll.
type Fetcher struct {
	Server   func() string // resolved at the top of each poll; cmd/clcminer passes the startup value, as server is not hot-reloadable
	Interval func() time.Duration
	Target   Target
	Log      *plog.Logger
	Now      func() time.Time
	client   *http.Client
	poke     chan struct{}
}

// NewFetcher builds a Fetcher with a sane default HTTP client timeout.
// spec section 5 notes the original source has no explicit timeout here;
// we add one, as the spec invites implementers to do.
func NewFetcher(server func() string, interval func() time.Duration, target Target, log *plog.Logger) *Fetcher {
	return &Fetcher{
		Server:   server,
		Interval: interval,
		Target:   target,
		Log:      log,
		Now:      time.Now,
		client:   &http.Client{Timeout: 10 * time.Second},
		poke:     make(chan struct{}, 1),
	}
}

// Poke requests an out-of-band poll on the next opportunity, bypassing the
// normal interval sleep, and republishes the fetched job even if its seed
// is unchanged. Used by the admin console's resume command (SPEC_FULL
// §4.8) to re-fetch immediately after an operator override.
func (f *Fetcher) Poke() {
	select {
	case f.poke <- struct{}{}:
	default:
	}
}

// Run blocks, polling until ctx-like stop is requested via the done channel.
// A nil done channel polls forever.
func (f *Fetcher) Run(done <-chan struct{}) {
	var lastSeed string // seed returned by the previous successful poll
	force := false      // set by a Poke: publish even if the seed is unchanged
	for {
		select {
		case <-done:
			return
		default:
		}

		j, err := fetch(f.client, f.Server())
		if err != nil {
			f.Log.Error("Error fetching job", "err", err)
			// Failure semantics (spec 4.2): retry promptly, no normal-interval sleep.
			continue
		}

		current := f.Target.CurrentJob()
		if current.Seed != j.Seed && (j.Seed != lastSeed || force) {
			f.Target.SetJob(j)
			f.logNewJob(j)
		}
		lastSeed = j.Seed
		force = false

		select {
		case <-done:
			return
		case <-f.poke:
			force = true
		case <-time.After(f.Interval()):
		}
	}
}

func (f *Fetcher) logNewJob(j Job) {
	elapsedSecs := f.Now().Unix() - int64(j.LastFound/1000)
	f.Log.Info("New job",
		"seed", j.Seed,
		"diff", PadHex(j.Diff, 64),
		"reward", j.Reward,
		"lastFoundAgo", fmt.Sprintf("%ds", elapsedSecs),
	)
}
