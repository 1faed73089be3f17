package adminconsole

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
)

func TestListenAndServeDispatchesCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("opens a real unix socket")
	}

	sockPath := filepath.Join(t.TempDir(), "clcminer.sock")
	log := plog.New()
	l, err := Listen(sockPath, log)
	require.NoError(t, err)
	defer l.Close()

	s := state.New()
	f := job.NewFetcher(func() string { return "" }, func() time.Duration { return time.Hour }, s, log)
	cfg := Config{State: s, Fetcher: f, Log: log}

	go Serve(l, cfg)

	conn, err := net.DialTimeout(l.Addr().Network(), l.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("recent\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, "no submissions recorded yet")
}
