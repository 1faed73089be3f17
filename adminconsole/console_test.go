package adminconsole

import (
	"bytes"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
)

func newTestConsole(t *testing.T) (*Console, *state.Shared) {
	s := state.New()
	f := job.NewFetcher(func() string { return "" }, func() time.Duration { return time.Hour }, s, plog.New())
	var out bytes.Buffer
	return New(Config{State: s, Fetcher: f, Log: plog.New(), Out: &out}), s
}

func TestDispatchStatusShowsCurrentJob(t *testing.T) {
	c, s := newTestConsole(t)
	s.SetJob(job.Job{Seed: "abc", Diff: new(uint256.Int), Reward: 3})

	out := c.Dispatch("status")
	require.Contains(t, out, "abc")
}

func TestDispatchRecentEmpty(t *testing.T) {
	c, _ := newTestConsole(t)
	require.Equal(t, "no submissions recorded yet", c.Dispatch("recent"))
}

func TestDispatchRecentShowsEntries(t *testing.T) {
	c, s := newTestConsole(t)
	s.RecordWin(state.WinRecord{Digest: "feed", Accepted: true})

	out := c.Dispatch("recent 5")
	require.Contains(t, out, "feed")
}

func TestDispatchPauseForcesWaitJob(t *testing.T) {
	c, s := newTestConsole(t)
	s.SetJob(job.Job{Seed: "active"})

	c.Dispatch("pause")
	require.True(t, s.CurrentJob().Waiting())
}

func TestDispatchUnknownCommand(t *testing.T) {
	c, _ := newTestConsole(t)
	out := c.Dispatch("bogus")
	require.Contains(t, out, "unknown command")
}

func TestDispatchEmptyLine(t *testing.T) {
	c, _ := newTestConsole(t)
	require.Equal(t, "", c.Dispatch("   "))
}
