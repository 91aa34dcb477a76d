package types

import "time"

// AccessRequest is the JSON body sent to the authority's access endpoint.
type AccessRequest struct {
	ModuleID    string `json:"module_id"`
	CardID      string `json:"card_id"`
	RequestedAt string `json:"requested_at,omitempty"` // device timestamp, RFC3339
}

// AccessWindow is the wire form of one weekly schedule window.
type AccessWindow struct {
	Day   string `json:"day"`   // "mon".."sun"
	Start string `json:"start"` // "HH:MM" or "HH:MM:SS"
	End   string `json:"end"`
}

// AccessResponse is the authority's answer.  Windows carries the
// credential's resolved weekly schedule so the gatekeeper can keep
// enforcing it while the authority is unreachable.
type AccessResponse struct {
	OK         bool           `json:"ok"`
	Known      bool           `json:"known"`
	Granted    bool           `json:"granted"`
	Reason     string         `json:"reason,omitempty"`
	ModuleID   string         `json:"module_id"`
	ServerTime string         `json:"server_time"`
	Windows    []AccessWindow `json:"windows,omitempty"`
}

// Source records which path produced a decision.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
)

// Decision is the terminal outcome of one credential scan.  The reader
// loop acts on Granted and nothing else; everything beyond that is for
// the audit trail.
type Decision struct {
	DecisionID string
	CardID     string
	Granted    bool
	Reason     string
	Source     Source
	DecidedAt  time.Time
}
