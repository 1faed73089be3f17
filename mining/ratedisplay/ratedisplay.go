// Package ratedisplay implements spec section 4.6: every 3 seconds, read
// and zero the shared hash counter, compute calced_rate, format a human
// rate at the appropriate scale, and print it on a terminal-width-padded
// carriage-returned line so successive prints overwrite. It is a close
// translation of original_source/src/main.rs's display loop.
package ratedisplay

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	influx "github.com/influxdata/influxdb/client/v2"
	"golang.org/x/term"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
)

// window is the fixed reporting interval (spec 4.6: "every 3 seconds").
const window = 3 * time.Second

// windowMillis is the window length in milliseconds, the literal divisor
// spec section 4.6 uses for calced_rate ("hash_count / 3000.0").
const windowMillis = 3000.0

// InfluxConfig resolves the optional secondary telemetry sink's
// hot-reloadable settings (SPEC_FULL 4.10/4.11) on every window tick.
type InfluxConfig struct {
	Addr func() string
	DB   func() string
	User func() string
}

// Display runs the rate-display loop.
type Display struct {
	state  *state.Shared
	log    *plog.Logger
	influx InfluxConfig
	out    io.Writer
}

// New builds a Display writing status lines to stdout. influxCfg's
// fields may be nil, in which case the secondary sink is disabled.
func New(s *state.Shared, log *plog.Logger, influxCfg InfluxConfig) *Display {
	return &Display{state: s, log: log, influx: influxCfg, out: os.Stdout}
}

// Run blocks, printing one status line per window until done is closed.
func (d *Display) Run(done <-chan struct{}) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			d.tick()
		}
	}
}

func (d *Display) tick() {
	hashCount, best := d.state.ResetWindow()

	// calced_rate is hashes per millisecond (spec 4.6 step 2), the value
	// Telemetry transmits as "speed" in its /report GET.
	calcedRate := float64(hashCount) / windowMillis
	d.state.SetRate(calcedRate)

	line := fmt.Sprintf("rate: %s  best: %s  mined: %v",
		formatRate(hashCount), job.PadHex(best, 64), d.state.TotalMined())

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	if pad := width - len(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	fmt.Fprintf(d.out, "\r%s", line)

	if d.influx.Addr != nil && d.influx.DB != nil {
		if addr, db := d.influx.Addr(), d.influx.DB(); addr != "" && db != "" {
			user := ""
			if d.influx.User != nil {
				user = d.influx.User()
			}
			d.writeInflux(addr, db, user, calcedRate, d.state.TotalMined())
		}
	}
}

// writeInflux pushes one point per rate-display window to the optional
// secondary telemetry sink (SPEC_FULL 4.10), matching the cadence the
// primary rate line itself is printed at. Failure is logged and never
// affects mining, matching Telemetry's failure policy (spec section 4.5).
func (d *Display) writeInflux(addr, db, user string, rate, mined float64) {
	c, err := influx.NewHTTPClient(influx.HTTPConfig{Addr: addr, Timeout: 5 * time.Second})
	if err != nil {
		d.log.Error("Influx client init failed", "err", err)
		return
	}
	defer c.Close()

	bp, err := influx.NewBatchPoints(influx.BatchPointsConfig{Database: db})
	if err != nil {
		d.log.Error("Influx batch init failed", "err", err)
		return
	}

	pt, err := influx.NewPoint("clcminer",
		map[string]string{"user": user},
		map[string]interface{}{"hashrate": rate, "total_mined": mined},
		time.Now(),
	)
	if err != nil {
		d.log.Error("Influx point encode failed", "err", err)
		return
	}
	bp.AddPoint(pt)

	if err := c.Write(bp); err != nil {
		d.log.Error("Influx write failed", "err", err)
	}
}

// formatRate applies spec section 4.6's scale table: thresholds and
// displayed values are both against the raw hash_count accumulated over
// the 3-second window, not a separately-rounded per-second rate.
func formatRate(hashCount uint64) string {
	h := float64(hashCount)
	switch {
	case h >= 3e12:
		return fmt.Sprintf("%.2f TH/s", h/3e12)
	case h >= 3e9:
		return fmt.Sprintf("%.2f GH/s", h/3e9)
	case h >= 3e6:
		return fmt.Sprintf("%.2f M/s", h/3e6)
	case h >= 3e3:
		return fmt.Sprintf("%.2f KH/s", h/3e3)
	default:
		return fmt.Sprintf("%.2f H/s", h)
	}
}
