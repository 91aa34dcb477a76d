package service

import (
	"time"

	"github.com/doorward/gatekeeper/internal/gatekeeper/authority"
	"github.com/doorward/gatekeeper/internal/gatekeeper/schedule"
	"github.com/doorward/gatekeeper/internal/gatekeeper/store"
	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

// Decision reasons, recorded on every audit entry.
const (
	ReasonAuthorityAllowed = "authority_allowed"
	ReasonAuthorityDenied  = "authority_denied"
	ReasonCachedAllowed    = "cached_allowed"
	ReasonCacheMiss        = "cache_miss"
	ReasonCacheStale       = "cache_stale"
	ReasonCacheDenied      = "cache_denied"
	ReasonOutsideSchedule  = "outside_schedule"
)

// Resolve is the decision core: a pure function from one authority
// result plus whatever the cache remembers to a final allow/deny.  It
// touches no clock, network or storage, which is what keeps the whole
// policy unit-testable.
//
// A definitive authority answer always wins.  On unreachable, the only
// way in is a cached allow that is both fresh and — when the cached
// verdict carries a schedule snapshot — inside one of its windows right
// now.  Everything else fails closed.
func Resolve(res authority.Result, cached *store.Verdict, now time.Time, maxAge time.Duration) (granted bool, reason string, source types.Source) {
	switch res.Status {
	case authority.StatusAllowed:
		return true, ReasonAuthorityAllowed, types.SourceLive
	case authority.StatusDenied:
		return false, ReasonAuthorityDenied, types.SourceLive
	}

	// Authority unreachable: fall back to memory of this credential.
	switch {
	case cached == nil:
		return false, ReasonCacheMiss, types.SourceCache
	case !cached.Fresh(now, maxAge):
		return false, ReasonCacheStale, types.SourceCache
	case !cached.Allowed:
		return false, ReasonCacheDenied, types.SourceCache
	case len(cached.Windows) > 0 && !schedule.WithinAny(cached.Windows, schedule.At(now)):
		return false, ReasonOutsideSchedule, types.SourceCache
	}
	return true, ReasonCachedAllowed, types.SourceCache
}
