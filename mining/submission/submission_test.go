package submission

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"

	"clcminer/internal/plog"
	"clcminer/mining/state"
)

func newTestSubmitter() *Submitter {
	return NewSubmitter(plog.New(), state.New())
}

func mustKey(t *testing.T) (*btcec.PrivateKey, *btcec.PublicKey) {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)
	return priv, priv.PubKey()
}

func TestSubmitSoloPersistsCoinFile(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":7}`)
	}))
	defer srv.Close()

	priv, pub := mustKey(t)
	s := newTestSubmitter()
	s.Submit(Solution{
		PublicKey:  pub,
		PrivateKey: priv,
		DigestHex:  "deadbeef",
		Server:     srv.URL,
		RewardsDir: dir,
		Reward:     1,
	})

	coinPath := filepath.Join(dir, "7.coin")
	data, err := os.ReadFile(coinPath)
	require.NoError(t, err)
	require.Len(t, string(data), 64)

	require.Equal(t, 1.0, s.State.TotalMined())
}

func TestSubmitPoolModeSkipsCoinFile(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `ok`)
	}))
	defer srv.Close()

	priv, pub := mustKey(t)
	s := newTestSubmitter()
	s.Submit(Solution{
		PublicKey:  pub,
		PrivateKey: priv,
		DigestHex:  "cafebabe",
		Server:     srv.URL,
		RewardsDir: dir,
		PoolSecret: "p00lsecret",
		Reward:     2,
	})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Equal(t, 2.0, s.State.TotalMined())
}

func TestSubmitFailureDoesNotCreditReward(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	priv, pub := mustKey(t)
	s := newTestSubmitter()
	s.Submit(Solution{
		PublicKey:  pub,
		PrivateKey: priv,
		DigestHex:  "0011",
		Server:     srv.URL,
		RewardsDir: dir,
		Reward:     5,
	})

	require.Equal(t, 0.0, s.State.TotalMined())
}

func TestSubmitDuplicateDigestSkipsSecondRoundTrip(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"id":1}`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	priv, pub := mustKey(t)
	s := newTestSubmitter()
	sol := Solution{PublicKey: pub, PrivateKey: priv, DigestHex: "ffaa", Server: srv.URL, RewardsDir: dir, Reward: 1}
	s.Submit(sol)
	s.Submit(sol)

	require.Equal(t, 1, calls)
}

func TestSubmitPoolModeAppendsSecretAndKey(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `ok`)
	}))
	defer srv.Close()

	priv, pub := mustKey(t)
	s := newTestSubmitter()
	s.Submit(Solution{
		PublicKey:  pub,
		PrivateKey: priv,
		DigestHex:  "1234",
		Server:     srv.URL,
		RewardsDir: t.TempDir(),
		PoolSecret: "topsecret",
		Reward:     1,
	})

	require.Contains(t, gotQuery, "poolsecret=topsecret")
	require.Contains(t, gotQuery, "key=")
}
