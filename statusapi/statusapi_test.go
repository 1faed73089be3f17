package statusapi

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
)

func TestStatusEndpointReturnsCurrentState(t *testing.T) {
	s := state.New()
	s.SetJob(job.Job{Seed: "seed1", Diff: new(uint256.Int).SetUint64(5), Reward: 2})
	s.AddReward(3)

	srv := httptest.NewServer(New(s, plog.New()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "seed1", body.Seed)
	require.Equal(t, 3.0, body.TotalMined)
	require.Equal(t, job.PadHex(s.Best(), 64), body.Best)
}

func TestStatusEndpointAllowsCrossOrigin(t *testing.T) {
	s := state.New()
	srv := httptest.NewServer(New(s, plog.New()))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dashboard.example")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func freePort(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().String()
}

func TestSuperviseStartsStopsAndRestartsOnAddrChange(t *testing.T) {
	s := state.New()
	done := make(chan struct{})
	defer close(done)

	addr := freePort(t)
	var current string
	addrFn := func() string { return current }

	go Supervise(done, addrFn, s, plog.New())

	current = addr
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/status")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	current = ""
	require.Eventually(t, func() bool {
		_, err := http.Get("http://" + addr + "/status")
		return err != nil
	}, 3*time.Second, 20*time.Millisecond)
}
