package job

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestWaitJobIsWaiting(t *testing.T) {
	w := Wait()
	require.True(t, w.Waiting())
	require.Equal(t, WaitSeed, w.Seed)
}

func TestPausePreservesDiffRewardLastFound(t *testing.T) {
	diff := new(uint256.Int).SetUint64(42)
	j := Job{Seed: "abc", Diff: diff, Reward: 1.5, LastFound: 1000}

	paused := j.Pause()

	require.True(t, paused.Waiting())
	require.Equal(t, diff, paused.Diff)
	require.Equal(t, j.Reward, paused.Reward)
	require.Equal(t, j.LastFound, paused.LastFound)
}

func TestPadHex(t *testing.T) {
	v := new(uint256.Int).SetUint64(0xabc)
	got := PadHex(v, 64)
	require.Len(t, got, 64)
	require.Equal(t, "0000000000000000000000000000000000000000000000000000000000000abc", got)
}

func TestPadHexNoTruncationWhenAlreadyLong(t *testing.T) {
	v := new(uint256.Int).Not(new(uint256.Int)) // all-ones, 64 hex chars
	got := PadHex(v, 64)
	require.Len(t, got, 64)
}
