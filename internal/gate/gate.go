// Package gate is the navigation-gating engine. For every navigation event
// it consults, in order: the URL filter, the allow-override store, the
// verdict cache and finally the classification client, then decides
// pass-through vs redirect to the warning page.
//
// The gate exclusively owns both stores; UI collaborators reach them only
// through the accessor operations here, which is what keeps the cache
// invariants enforceable.
package gate

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"phishgate/internal/logging"
	"phishgate/internal/overrides"
	"phishgate/internal/urlfilter"
	"phishgate/internal/urlutil"
	"phishgate/internal/verdict"
	"phishgate/internal/verdictcache"
)

// ErrNotCheckable is returned by CheckURL for filter-ineligible URLs
// (browser-internal pages and other non-navigable schemes).
var ErrNotCheckable = errors.New("url is not eligible for checking")

// Classifier is the outbound reputation check. Implementations never
// return an error; failures resolve to an Unknown/error entry (fail-open).
type Classifier interface {
	Classify(ctx context.Context, url string) *verdict.Entry
}

// Redirector moves a tab to the warning page. Implementations are
// best-effort: the navigation may already have completed by the time the
// redirect is attempted.
type Redirector interface {
	Redirect(ctx context.Context, tabID, targetURL string) error
}

// BlockRecorder persists blocked navigations for the audit history.
type BlockRecorder interface {
	RecordBlock(ctx context.Context, entry *verdict.Entry) error
}

// NavigationEvent is one navigation observed in the browser.
type NavigationEvent struct {
	// TabID identifies the originating tab/target; empty when the tab is
	// already gone.
	TabID string

	// URL is the navigation target.
	URL string

	// TopFrame is true only for the main document frame. Sub-frame
	// navigations are ignored.
	TopFrame bool
}

// Action is the terminal outcome of one gating pass.
type Action string

const (
	// ActionPass lets the navigation proceed.
	ActionPass Action = "pass"

	// ActionRedirect sends the tab to the warning page.
	ActionRedirect Action = "redirect"
)

// Decision is the result of one gating pass.
type Decision struct {
	Action Action

	// Entry is the verdict behind the decision; nil when the gate
	// short-circuited before classification (filter reject, override).
	Entry *verdict.Entry

	// RedirectURL is set for ActionRedirect.
	RedirectURL string

	// CacheHit is true when the verdict came from the cache.
	CacheHit bool
}

// Config controls gate timing and the warning-page target.
type Config struct {
	// CacheTTL is the verdict cache lifetime per exact URL.
	CacheTTL time.Duration

	// AllowTTL is the override lifetime when AllowHost is called without
	// an explicit TTL.
	AllowTTL time.Duration

	// WarningURL is the warning page address; the original URL and
	// verdict metadata are appended as query parameters.
	WarningURL string
}

// DefaultConfig returns the stock timings and warning target.
func DefaultConfig() Config {
	return Config{
		CacheTTL:   verdictcache.DefaultTTL,
		AllowTTL:   overrides.DefaultTTL,
		WarningURL: "http://127.0.0.1:8844/warning",
	}
}

// Stats reports live+stale entry counts for diagnostics.
type Stats struct {
	CacheSize     int `json:"cache_size"`
	OverridesSize int `json:"allow_overrides_size"`
}

// Gate wires the filter, stores and classifier into the per-navigation
// decision flow.
type Gate struct {
	cfg        Config
	cache      *verdictcache.Cache
	overrides  *overrides.Store
	classifier Classifier
	redirector Redirector
	recorder   BlockRecorder
	logger     logging.Logger
	events     *broadcaster
}

// New creates a Gate. classifier is required; redirector and recorder are
// optional (nil disables redirecting / block history respectively).
func New(cfg Config, cls Classifier, logger logging.Logger) *Gate {
	def := DefaultConfig()
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.AllowTTL <= 0 {
		cfg.AllowTTL = def.AllowTTL
	}
	if cfg.WarningURL == "" {
		cfg.WarningURL = def.WarningURL
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("gate")
	}
	return &Gate{
		cfg:        cfg,
		cache:      verdictcache.New(),
		overrides:  overrides.New(),
		classifier: cls,
		logger:     logger.With(logging.Field{Key: "component", Value: "gate"}),
		events:     newBroadcaster(),
	}
}

// SetRedirector installs the redirect mechanism. Split from New because
// the browser watcher needs the gate before the gate needs the watcher.
func (g *Gate) SetRedirector(r Redirector) { g.redirector = r }

// SetBlockRecorder installs the block-history sink.
func (g *Gate) SetBlockRecorder(r BlockRecorder) { g.recorder = r }

// HandleNavigation runs one gating pass for ev. It is terminal in a single
// pass: no retries, and a classification failure is absorbed by the
// classifier's fail-open contract. Safe to call from concurrent
// goroutines, one per navigation event.
func (g *Gate) HandleNavigation(ctx context.Context, ev NavigationEvent) Decision {
	// Malformed or sub-frame events are discarded early.
	if !ev.TopFrame || ev.URL == "" || ev.TabID == "" {
		return Decision{Action: ActionPass}
	}

	if !urlfilter.Eligible(ev.URL) {
		return Decision{Action: ActionPass}
	}

	host := urlutil.Host(ev.URL)
	if g.overrides.IsAllowed(host) {
		g.logger.Debug("host temporarily allowed",
			logging.Field{Key: "host", Value: host})
		g.publish(ev.URL, host, Decision{Action: ActionPass})
		return Decision{Action: ActionPass}
	}

	entry, hit := g.lookupOrClassify(ctx, ev.URL)

	decision := Decision{Action: ActionPass, Entry: entry, CacheHit: hit}
	if entry.IsPhishing() {
		decision.Action = ActionRedirect
		decision.RedirectURL = g.warningURL(entry)
		g.block(ctx, ev.TabID, entry, decision.RedirectURL)
	}

	g.publish(ev.URL, host, decision)
	return decision
}

// CheckURL runs the same check-or-cache path as the gate for display
// purposes. It never consults overrides and never redirects.
func (g *Gate) CheckURL(ctx context.Context, rawURL string) (*verdict.Entry, error) {
	if !urlfilter.Eligible(rawURL) {
		return nil, ErrNotCheckable
	}
	entry, _ := g.lookupOrClassify(ctx, rawURL)
	return entry, nil
}

// AllowHost inserts or refreshes a temporary override for host. Invoked
// only on an explicit user "proceed" action. A non-positive ttl uses the
// configured default.
func (g *Gate) AllowHost(host string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = g.cfg.AllowTTL
	}
	g.overrides.Allow(host, ttl)
	g.logger.Info("host allowed temporarily",
		logging.Field{Key: "host", Value: host},
		logging.Field{Key: "ttl", Value: ttl.String()})
}

// Stats returns live+stale counts for both stores.
func (g *Gate) Stats() Stats {
	return Stats{
		CacheSize:     g.cache.Size(),
		OverridesSize: g.overrides.Size(),
	}
}

// Cache exposes the verdict cache for tests and diagnostics.
func (g *Gate) Cache() *verdictcache.Cache { return g.cache }

// Overrides exposes the override store for tests and diagnostics.
func (g *Gate) Overrides() *overrides.Store { return g.overrides }

// lookupOrClassify is the shared cache-or-backend path. A cache-miss race
// between concurrent identical URLs may issue two backend calls; both
// converge on the same key and the later write wins harmlessly.
func (g *Gate) lookupOrClassify(ctx context.Context, rawURL string) (*verdict.Entry, bool) {
	if entry := g.cache.Get(rawURL); entry != nil {
		return entry, true
	}
	entry := g.classifier.Classify(ctx, rawURL)
	g.cache.Put(rawURL, entry, g.cfg.CacheTTL)
	return entry, false
}

// warningURL builds the redirect target carrying the verdict metadata the
// warning page renders.
func (g *Gate) warningURL(entry *verdict.Entry) string {
	q := url.Values{}
	q.Set("url", entry.URL)
	q.Set("source", string(entry.Source))
	if entry.Confidence != nil {
		q.Set("confidence", strconv.FormatFloat(*entry.Confidence, 'f', -1, 64))
	}
	if entry.Category != "" {
		q.Set("type", entry.Category)
	}
	return g.cfg.WarningURL + "?" + q.Encode()
}

// block performs the redirect and records the event. Both are best-effort:
// the tab may already be gone, and a failed history write never affects
// the decision.
func (g *Gate) block(ctx context.Context, tabID string, entry *verdict.Entry, redirectURL string) {
	g.logger.Info("blocking navigation",
		logging.Field{Key: "url", Value: entry.URL},
		logging.Field{Key: "source", Value: string(entry.Source)},
		logging.Field{Key: "tab_id", Value: tabID})

	if g.recorder != nil {
		if err := g.recorder.RecordBlock(ctx, entry); err != nil {
			g.logger.Warn("recording block",
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
	if g.redirector != nil {
		if err := g.redirector.Redirect(ctx, tabID, redirectURL); err != nil {
			g.logger.Warn("redirect failed",
				logging.Field{Key: "tab_id", Value: tabID},
				logging.Field{Key: "error", Value: err.Error()})
		}
	}
}
