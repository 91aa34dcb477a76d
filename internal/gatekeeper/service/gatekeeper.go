package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/doorward/gatekeeper/internal/gatekeeper/authority"
	"github.com/doorward/gatekeeper/internal/gatekeeper/store"
	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

var ErrInvalidCardID = errors.New("card id is required")

// AuthorityChecker is what the Gatekeeper needs from the authority
// client.  Check never fails — unreachability is a result, not an error.
type AuthorityChecker interface {
	Check(ctx context.Context, cardID string) authority.Result
}

type Config struct {
	ModuleID string

	// CacheMaxAge bounds how long a cached verdict stays usable for
	// fallback decisions.  Hours, not days: it means "recently seen at
	// this door", not "was a member once".
	CacheMaxAge time.Duration
}

// Gatekeeper runs one access decision per scanned credential:
// ask the authority, fall back to the verdict cache when it cannot be
// reached, record the outcome.  It holds no per-decision state across
// calls; everything that survives lives in the stores.
type Gatekeeper struct {
	authority AuthorityChecker
	verdicts  store.VerdictStore
	decisions store.DecisionStore
	moduleID  string
	maxAge    time.Duration
	logger    *log.Logger

	// now is swappable for tests.
	now func() time.Time

	mu    sync.Mutex
	stats Stats
}

func NewGatekeeper(ac AuthorityChecker, vs store.VerdictStore, ds store.DecisionStore, cfg Config, logger *log.Logger) *Gatekeeper {
	maxAge := cfg.CacheMaxAge
	if maxAge <= 0 {
		maxAge = 12 * time.Hour
	}
	return &Gatekeeper{
		authority: ac,
		verdicts:  vs,
		decisions: ds,
		moduleID:  cfg.ModuleID,
		maxAge:    maxAge,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Authorize decides whether cardID may enter right now.  It always
// returns a definite decision: every transport and storage failure is
// absorbed here, because the relay downstream needs an unambiguous
// instruction every cycle.
func (g *Gatekeeper) Authorize(ctx context.Context, cardID string) (types.Decision, error) {
	if cardID == "" {
		return types.Decision{}, ErrInvalidCardID
	}

	now := g.now()
	res := g.authority.Check(ctx, cardID)

	if res.Status.Definitive() {
		// Refresh the cache on every live answer, allow or deny.  A
		// failed write only degrades future fallback; this decision is
		// already in hand, so log and continue.
		err := g.verdicts.Put(ctx, store.Verdict{
			CardID:     cardID,
			Allowed:    res.Status == authority.StatusAllowed,
			ObservedAt: now,
			Windows:    res.Windows,
		})
		if err != nil {
			g.logger.WithError(err).Warn("verdict cache write failed")
		}
	}

	var cached *store.Verdict
	if !res.Status.Definitive() {
		var err error
		cached, err = g.verdicts.Get(ctx, cardID)
		if err != nil {
			// Unreadable cache is a cache miss: still fail closed, still
			// no error at the door.
			g.logger.WithError(err).Warn("verdict cache read failed")
			cached = nil
		}
	}

	granted, reason, source := Resolve(res, cached, now, g.maxAge)

	dec := types.Decision{
		DecisionID: uuid.NewString(),
		CardID:     cardID,
		Granted:    granted,
		Reason:     reason,
		Source:     source,
		DecidedAt:  now,
	}

	g.record(ctx, dec)
	g.note(dec)

	return dec, nil
}

// record appends the decision to the audit log.  Failures are logged,
// never returned — a lost audit row must not hold the door.
func (g *Gatekeeper) record(ctx context.Context, dec types.Decision) {
	err := g.decisions.Append(ctx, store.DecisionRecord{
		DecisionID: dec.DecisionID,
		ModuleID:   g.moduleID,
		CardID:     dec.CardID,
		Granted:    dec.Granted,
		Reason:     dec.Reason,
		Source:     dec.Source,
		DecidedAt:  dec.DecidedAt,
	})
	if err != nil {
		g.logger.WithError(err).Warn("decision log write failed")
	}
}
