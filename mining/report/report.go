// Package report implements spec section 4.5 (Telemetry): a periodic GET
// to the coordinator's /report endpoint. It is a close translation of
// original_source/src/report.rs. The optional secondary InfluxDB sink
// from SPEC_FULL section 4.10 is wired into mining/ratedisplay instead,
// since that section ties it to the rate-display window, not this
// reporter's independent report_interval.
package report

import (
	"fmt"
	"net/http"
	"time"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
)

// Config resolves the dynamic (hot-reloadable, SPEC_FULL 4.11) reporting
// settings on every tick.
type Config struct {
	ReportServer func() string
	ReportUser   func() string
	Interval     func() time.Duration
}

// Telemetry runs the periodic reporting loop.
type Telemetry struct {
	cfg    Config
	state  *state.Shared
	log    *plog.Logger
	client *http.Client
}

// New builds a Telemetry reporter. A 10s timeout is added per spec
// section 5's suggestion that Job/Telemetry requests should not hang
// indefinitely even though the original source has no explicit timeout.
func New(cfg Config, s *state.Shared, log *plog.Logger) *Telemetry {
	return &Telemetry{cfg: cfg, state: s, log: log, client: &http.Client{Timeout: 10 * time.Second}}
}

// Run blocks, reporting until done is closed.
func (t *Telemetry) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		t.tick()

		select {
		case <-done:
			return
		case <-time.After(t.cfg.Interval()):
		}
	}
}

func (t *Telemetry) tick() {
	server := t.cfg.ReportServer()
	bestHex := job.PadHex(t.state.Best(), 64)
	rate := t.state.Rate()
	mined := t.state.TotalMined()

	if server != "" {
		url := fmt.Sprintf("%s/report?user=%s&speed=%v&best=%s&mined=%v",
			server, t.cfg.ReportUser(), rate, bestHex, mined)
		resp, err := t.client.Get(url)
		if err != nil {
			t.log.Error("Error reporting", "err", err)
		} else {
			resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				t.log.Error("Error reporting", "status", resp.Status)
			}
			// Success is silent, per spec section 4.5.
		}
	}
}
