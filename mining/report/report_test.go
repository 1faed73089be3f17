package report

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clcminer/internal/plog"
	"clcminer/mining/state"
)

func staticCfg(server string) Config {
	return Config{
		ReportServer: func() string { return server },
		ReportUser:   func() string { return "alice" },
		Interval:     func() time.Duration { return time.Hour },
	}
}

func TestTelemetryTickHitsReportEndpoint(t *testing.T) {
	var hits int32
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	s := state.New()
	tel := New(staticCfg(srv.URL), s, plog.New())
	tel.tick()

	require.Equal(t, int32(1), atomic.LoadInt32(&hits))
	require.Equal(t, "/report", gotPath)
}

func TestTelemetryInertWhenServerEmpty(t *testing.T) {
	s := state.New()
	tel := New(staticCfg(""), s, plog.New())
	// Must not panic or attempt any network call.
	tel.tick()
}

func TestTelemetryRunStopsOnDone(t *testing.T) {
	s := state.New()
	tel := New(staticCfg(""), s, plog.New())

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		tel.Run(done)
		close(finished)
	}()
	close(done)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after done was closed")
	}
}
