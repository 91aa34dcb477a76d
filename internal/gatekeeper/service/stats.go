package service

import (
	"time"

	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

// Stats is a snapshot of what this gatekeeper has decided since start.
// Served by the local status endpoint.
type Stats struct {
	Decisions      uint64    `json:"decisions"`
	Granted        uint64    `json:"granted"`
	Denied         uint64    `json:"denied"`
	LiveDecisions  uint64    `json:"live_decisions"`
	CacheDecisions uint64    `json:"cache_decisions"`
	LastDecidedAt  time.Time `json:"last_decided_at,omitzero"`
	LastReason     string    `json:"last_reason,omitempty"`
}

func (g *Gatekeeper) note(dec types.Decision) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stats.Decisions++
	if dec.Granted {
		g.stats.Granted++
	} else {
		g.stats.Denied++
	}
	if dec.Source == types.SourceLive {
		g.stats.LiveDecisions++
	} else {
		g.stats.CacheDecisions++
	}
	g.stats.LastDecidedAt = dec.DecidedAt
	g.stats.LastReason = dec.Reason
}

// Snapshot returns a copy of the current counters.
func (g *Gatekeeper) Snapshot() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}
