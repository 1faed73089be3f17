package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
	"clcminer/mining/submission"
)

func TestPoolResolvesZeroThreadsToGOMAXPROCS(t *testing.T) {
	p := New(Config{Threads: 0, State: state.New(), Log: plog.New()})
	require.Greater(t, p.Threads(), 0)
}

func TestPoolNegativeThreadsResolvesToGOMAXPROCS(t *testing.T) {
	p := New(Config{Threads: -1, State: state.New(), Log: plog.New()})
	require.Greater(t, p.Threads(), 0)
}

func TestPoolExplicitThreadsHonored(t *testing.T) {
	p := New(Config{Threads: 3, State: state.New(), Log: plog.New()})
	require.Equal(t, 3, p.Threads())
}

// TestWorkerFindsWinAgainstTrivialDifficulty sets current_job's diff to the
// maximum 256-bit value, so every candidate digest is a win on its first
// try, and checks that the worker loop drives a submission through to
// completion (spec 4.3 steps 2-6).
func TestWorkerFindsWinAgainstTrivialDifficulty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1}`)
	}))
	defer srv.Close()

	s := state.New()
	maxDiff := new(uint256.Int).Not(new(uint256.Int))
	s.SetJob(job.Job{Seed: "trivial", Diff: maxDiff, Reward: 1})

	rewardsDir := t.TempDir()
	log := plog.New()
	pool := New(Config{
		Threads:      1,
		State:        s,
		Submitter:    submission.NewSubmitter(log, s),
		Log:          log,
		SubmitServer: func() string { return srv.URL },
		RewardsDir:   func() string { return rewardsDir },
		OnMined:      func() string { return "" },
		PoolSecret:   func() string { return "" },
		BackupDir:    func() string { return "" },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	pool.Run(ctx)

	require.Greater(t, s.TotalMined(), 0.0)
}

// TestWorkerRejectsEverythingAgainstZeroDifficulty covers spec scenario 3
// ("Difficulty reject"): diff = 0 means no digest can ever satisfy
// digest <= diff (short of an astronomically improbable all-zero hash),
// so workers must run without ever producing a submission.
func TestWorkerRejectsEverythingAgainstZeroDifficulty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1}`)
	}))
	defer srv.Close()

	s := state.New()
	s.SetJob(job.Job{Seed: "impossible", Diff: new(uint256.Int), Reward: 1})

	rewardsDir := t.TempDir()
	log := plog.New()
	pool := New(Config{
		Threads:      1,
		State:        s,
		Submitter:    submission.NewSubmitter(log, s),
		Log:          log,
		SubmitServer: func() string { return srv.URL },
		RewardsDir:   func() string { return rewardsDir },
		OnMined:      func() string { return "" },
		PoolSecret:   func() string { return "" },
		BackupDir:    func() string { return "" },
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pool.Run(ctx)

	require.Equal(t, 0.0, s.TotalMined())
}

// TestWorkerIdlesOnWaitJob ensures a wait-job never produces a submission:
// the worker must spin without generating keys against a seed that carries
// no work.
func TestWorkerIdlesOnWaitJob(t *testing.T) {
	s := state.New() // starts as a wait-job
	rewardsDir := t.TempDir()
	log := plog.New()
	pool := New(Config{
		Threads:      1,
		State:        s,
		Submitter:    submission.NewSubmitter(log, s),
		Log:          log,
		SubmitServer: func() string { return "" },
		RewardsDir:   func() string { return rewardsDir },
		OnMined:      func() string { return "" },
		PoolSecret:   func() string { return "" },
		BackupDir:    func() string { return "" },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	pool.Run(ctx)

	require.Equal(t, 0.0, s.TotalMined())
}
