package deps

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/facade"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
	"github.com/MrSnakeDoc/bubbletime/internal/version"
)

// RefreshTrigger queues a background refresh of bubble times.
type RefreshTrigger interface {
	Trigger() bool
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Build        version.Info
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed on mutating routes
	AllowedCIDRS []string         // IPs allowed to access healthz/readyz/infra endpoints
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateBurst    int              // per-IP token bucket size on mutating routes
	RatePerMin   int              // per-IP refill rate on mutating routes
	StoreKind    store.Kind       // backend name reported by /infra
	Store        store.Repository // pinged by /readyz
	Facade       *facade.Facade   // domain entry point
	Refresher    RefreshTrigger   // async refresh (nil disables ?async=true)

	// WriteGuard wraps every mutating route. NewRouter builds it once so
	// all routes share one rate limiter.
	WriteGuard func(http.Handler) http.Handler
}

// Now returns the configured clock.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
