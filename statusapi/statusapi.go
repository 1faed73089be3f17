// Package statusapi implements SPEC_FULL section 4.9: a read-only
// GET /status JSON endpoint for dashboards/monitoring, loopback/LAN-facing
// only and never NAT-punched (see DESIGN.md's dropped jackpal/go-nat-pmp
// and huin/goupnp entries). There is no single teacher file this mirrors —
// the teacher's rpc/les backends serve a full JSON-RPC node API, not a
// status blob — but the "thin HTTP layer reading shared state, nothing
// more" shape follows the general pattern visible in les/backend.go.
package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"clcminer/internal/plog"
	"clcminer/job"
	"clcminer/mining/state"
)

// statusResponse mirrors the admin console's "status" table fields
// (SPEC_FULL §4.8), as JSON.
type statusResponse struct {
	Seed       string  `json:"seed"`
	Diff       string  `json:"diff"`
	Reward     float64 `json:"reward"`
	Hashrate   float64 `json:"hashrate"`
	Best       string  `json:"best"`
	TotalMined float64 `json:"totalMined"`
}

// New builds the status API's http.Handler: a single read-only route
// behind a permissive CORS wrapper, since the payload carries no secrets
// and any dashboard origin should be able to poll it.
func New(s *state.Shared, log *plog.Logger) http.Handler {
	router := httprouter.New()
	router.GET("/status", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		current := s.CurrentJob()
		resp := statusResponse{
			Seed:       current.Seed,
			Diff:       job.PadHex(current.Diff, 64),
			Reward:     current.Reward,
			Hashrate:   s.Rate(),
			Best:       job.PadHex(s.Best(), 64),
			TotalMined: s.TotalMined(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error("status api: encode failed", "err", err)
		}
	})

	return cors.AllowAll().Handler(router)
}

// ListenAndServe starts the status API on addr and blocks. addr is
// expected to already have been checked non-empty by the caller (an empty
// status_addr disables the API entirely, SPEC_FULL §4.9). cmd/clcminer
// does not call it; it runs the API through Supervise.
func ListenAndServe(addr string, s *state.Shared, log *plog.Logger) error {
	log.Info("Status API listening", "addr", addr)
	return http.ListenAndServe(addr, New(s, log))
}

// Supervise keeps a status API server running at whatever address addrFn
// currently returns, restarting it when status_addr changes on config
// reload (SPEC_FULL §4.9, §4.11) and stopping it when addrFn returns "".
// It blocks until done is closed.
func Supervise(done <-chan struct{}, addrFn func() string, s *state.Shared, log *plog.Logger) {
	const pollInterval = 500 * time.Millisecond

	var (
		srv     *http.Server
		running string
	)
	stop := func() {
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Status API shutdown failed", "err", err)
		}
		srv = nil
		running = ""
	}
	defer stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		want := addrFn()
		if want != running {
			stop()
			if want != "" {
				srv = &http.Server{Addr: want, Handler: New(s, log)}
				running = want
				log.Info("Status API listening", "addr", want)
				go func(s *http.Server) {
					if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Error("Status API stopped", "err", err)
					}
				}(srv)
			}
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
