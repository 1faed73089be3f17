// Package submission implements spec section 4.4: signing a winning
// candidate, POSTing (as a GET with query parameters, per the
// coordinator's actual protocol) it to the coordinator, persisting the
// reward file, and firing the optional post-mine hook. It is a close
// translation of original_source/src/submit.rs.
package submission

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/pborman/uuid"

	"clcminer/backup"
	"clcminer/internal/plog"
	"clcminer/mining/state"
)

// Solution is the bundle needed to submit one winning candidate (spec
// section 4.4's Inputs list).
type Solution struct {
	PublicKey  *btcec.PublicKey
	PrivateKey *btcec.PrivateKey
	DigestHex  string // 64-char lowercase hex, the winning digest
	Server     string // submit_server
	RewardsDir string
	BackupDir  string // SPEC_FULL 4.7; empty disables the secondary copy
	OnMined    string
	Reward     float64
	PoolSecret string
}

// coordinatorResponse is the /challenge-solved success body in solo mode.
type coordinatorResponse struct {
	ID uint64 `json:"id"`
}

// Submitter performs the HTTP round trip and all side effects of a win.
type Submitter struct {
	Log    *plog.Logger
	State  *state.Shared
	client *http.Client
	guard  *dedupGuard
}

// NewSubmitter builds a Submitter with the 5-second total timeout spec
// section 4.4 requires.
func NewSubmitter(log *plog.Logger, shared *state.Shared) *Submitter {
	return &Submitter{
		Log:    log,
		State:  shared,
		client: &http.Client{Timeout: 5 * time.Second},
		guard:  newDedupGuard(),
	}
}

// Submit performs the full submission flow for sol, returning once it has
// either succeeded, definitively failed, or been skipped as a duplicate.
// total_mined (via s.State.AddReward) is only ever increased after the
// coordinator itself returns a success status (spec invariant 4).
func (s *Submitter) Submit(sol Solution) {
	attemptID := uuid.New()

	if !s.guard.ShouldSubmit(sol.DigestHex) {
		s.Log.Info("Skipping duplicate submission", "attempt", attemptID, "hash", sol.DigestHex)
		return
	}
	accepted := false
	defer func() { s.guard.Done(sol.DigestHex, accepted) }()

	pubHex := hex.EncodeToString(sol.PublicKey.SerializeUncompressed())

	sigDigest := sha256Hex(pubHex)
	sig, err := sol.PrivateKey.Sign(sigDigest)
	if err != nil {
		s.Log.Error("Failed to sign candidate", "attempt", attemptID, "err", err)
		return
	}
	sigHex := hex.EncodeToString(sig.Serialize())

	reqURL := fmt.Sprintf("%s/challenge-solved?holder=%s&sign=%s&hash=%s",
		sol.Server, pubHex, sigHex, sol.DigestHex)
	if sol.PoolSecret != "" {
		reqURL = fmt.Sprintf("%s&poolsecret=%s&key=%s",
			reqURL, sol.PoolSecret, url.QueryEscape(hex.EncodeToString(sol.PrivateKey.Serialize())))
	}

	s.Log.Info("Submitting solution", "attempt", attemptID, "hash", sol.DigestHex)

	resp, err := s.client.Get(reqURL)
	if err != nil {
		s.Log.Error("Submission request failed", "attempt", attemptID, "err", err)
		s.State.RecordWin(state.WinRecord{Digest: sol.DigestHex, Reward: sol.Reward, Accepted: false, Timestamp: time.Now()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readAll(resp)
		s.Log.Error("Submission rejected", "attempt", attemptID, "status", resp.Status, "body", body)
		s.State.RecordWin(state.WinRecord{Digest: sol.DigestHex, Reward: sol.Reward, Accepted: false, Timestamp: time.Now()})
		return
	}

	// Success: total_mined is credited regardless of pool/solo mode (spec
	// 4.4 step 1 happens before the pool/solo branch).
	s.State.AddReward(sol.Reward)
	accepted = true
	s.Log.Success("Submission accepted", "attempt", attemptID, "hash", sol.DigestHex, "reward", sol.Reward)

	if sol.PoolSecret != "" {
		s.Log.Info("Pool mode: not persisting a local coin file", "attempt", attemptID)
		s.State.RecordWin(state.WinRecord{Digest: sol.DigestHex, Reward: sol.Reward, Accepted: true, Pool: true, Timestamp: time.Now()})
		return
	}

	body, err := readAll(resp)
	if err != nil {
		s.Log.Error("Failed to read submission response", "attempt", attemptID, "err", err)
		s.State.RecordWin(state.WinRecord{Digest: sol.DigestHex, Reward: sol.Reward, Accepted: true, Timestamp: time.Now()})
		return
	}

	var cr coordinatorResponse
	if err := json.Unmarshal([]byte(body), &cr); err != nil {
		s.Log.Error("Failed to decode submission response", "attempt", attemptID, "err", err, "body", body)
		s.State.RecordWin(state.WinRecord{Digest: sol.DigestHex, Reward: sol.Reward, Accepted: true, Timestamp: time.Now()})
		return
	}

	s.State.RecordWin(state.WinRecord{Digest: sol.DigestHex, Reward: sol.Reward, Accepted: true, CoinID: cr.ID, Timestamp: time.Now()})
	s.persistAndHook(attemptID, sol, cr.ID)
}

func (s *Submitter) persistAndHook(attemptID string, sol Solution, id uint64) {
	if err := os.MkdirAll(sol.RewardsDir, 0o755); err != nil {
		s.Log.Error("Could not create rewards dir", "attempt", attemptID, "dir", sol.RewardsDir, "err", err)
		return
	}

	coinPath := filepath.Join(sol.RewardsDir, fmt.Sprintf("%d.coin", id))
	keyHex := hex.EncodeToString(sol.PrivateKey.Serialize())
	if err := os.WriteFile(coinPath, []byte(keyHex), 0o600); err != nil {
		s.Log.Error("Could not write coin file", "attempt", attemptID, "path", coinPath, "err", err)
		// spec 4.4: on_mined must not run before the coin file exists.
		return
	}
	s.Log.Success("Persisted coin file", "attempt", attemptID, "path", coinPath)

	if sol.BackupDir != "" {
		if err := backup.CopyCoinFile(coinPath, sol.BackupDir, id); err != nil {
			s.Log.Error("Coin file backup failed", "attempt", attemptID, "err", err)
		}
	}

	if sol.OnMined == "" {
		return
	}
	cmdLine := strings.ReplaceAll(sol.OnMined, "%cid%", fmt.Sprintf("%d", id))
	out, err := runHook(cmdLine)
	if err != nil {
		s.Log.Error("on_mined hook failed", "attempt", attemptID, "err", err)
		return
	}
	s.Log.Info("on_mined output", "attempt", attemptID, "output", strings.TrimRight(string(out), "\n"))
}

func runHook(cmdLine string) ([]byte, error) {
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", "/C", cmdLine).Output()
	}
	return exec.Command("sh", "-c", cmdLine).Output()
}

func readAll(resp *http.Response) (string, error) {
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}
