// Package browser attaches the gating engine to a real Chrome instance
// over the DevTools protocol. Top-level frame navigations are fed to the
// gate; phishing verdicts move the tab to the warning page.
//
// Redirection here is best-effort by design: the navigation has usually
// committed by the time the verdict lands, so a blocked page may flash
// briefly before the warning replaces it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"phishgate/internal/gate"
	"phishgate/internal/logging"
)

// Config controls how the watcher obtains its browser.
type Config struct {
	// RemoteURL is a DevTools websocket address of an already-running
	// browser (e.g. ws://127.0.0.1:9222). When empty the watcher launches
	// its own instance.
	RemoteURL string

	// Headless applies only to launched instances.
	Headless bool

	// StartURL is opened after attach; defaults to about:blank.
	StartURL string
}

// DefaultConfig launches a headless instance.
func DefaultConfig() Config {
	return Config{Headless: true, StartURL: "about:blank"}
}

// Watcher subscribes to frame navigations of one attached tab and runs
// each through the gate. It also implements gate.Redirector for that tab.
type Watcher struct {
	cfg    Config
	gate   *gate.Gate
	logger logging.Logger

	mu      sync.Mutex
	tabCtx  context.Context
	started bool
}

// New creates a Watcher. Call Run to attach; install the watcher as the
// gate's redirector before that so blocks can take effect.
func New(cfg Config, g *gate.Gate, logger logging.Logger) *Watcher {
	if cfg.StartURL == "" {
		cfg.StartURL = "about:blank"
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("browser")
	}
	return &Watcher{
		cfg:    cfg,
		gate:   g,
		logger: logger.With(logging.Field{Key: "component", Value: "browser"}),
	}
}

// Run attaches to the browser and blocks until ctx is canceled. Each
// observed top-level navigation is dispatched on its own goroutine; the
// classifier round trip is the only slow step in that path.
func (w *Watcher) Run(ctx context.Context) error {
	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if w.cfg.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, w.cfg.RemoteURL)
	} else {
		opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
		if !w.cfg.Headless {
			opts = append(opts, chromedp.Flag("headless", false))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	w.mu.Lock()
	w.tabCtx = tabCtx
	w.started = true
	w.mu.Unlock()

	chromedp.ListenTarget(tabCtx, func(ev any) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			w.onFrameNavigated(e.Frame)
		}
	})

	if err := chromedp.Run(tabCtx,
		page.Enable(),
		chromedp.Navigate(w.cfg.StartURL),
	); err != nil {
		return fmt.Errorf("attaching to browser: %w", err)
	}

	w.logger.Info("watching browser navigations",
		logging.Field{Key: "remote", Value: w.cfg.RemoteURL != ""},
		logging.Field{Key: "start_url", Value: w.cfg.StartURL})

	<-ctx.Done()
	return ctx.Err()
}

func (w *Watcher) onFrameNavigated(frame *cdp.Frame) {
	if frame == nil {
		return
	}

	ev := gate.NavigationEvent{
		TabID:    frame.ID.String(),
		URL:      frame.URL,
		TopFrame: frame.ParentID == "",
	}

	// One independent task per navigation event; no ordering between them.
	go func() {
		w.gate.HandleNavigation(context.Background(), ev)
	}()
}

// Redirect implements gate.Redirector for the attached tab. tabID is
// informational: the watcher drives a single tab, and a redirect against a
// tab that has since navigated away or closed simply fails here and is
// swallowed by the gate.
func (w *Watcher) Redirect(ctx context.Context, tabID, targetURL string) error {
	w.mu.Lock()
	tabCtx := w.tabCtx
	started := w.started
	w.mu.Unlock()

	if !started || tabCtx == nil {
		return errors.New("browser watcher not running")
	}
	if err := tabCtx.Err(); err != nil {
		return fmt.Errorf("tab gone: %w", err)
	}

	w.logger.Info("redirecting tab to warning page",
		logging.Field{Key: "tab_id", Value: tabID},
		logging.Field{Key: "target", Value: targetURL})

	if err := chromedp.Run(tabCtx, chromedp.Navigate(targetURL)); err != nil {
		return fmt.Errorf("navigating tab %s: %w", tabID, err)
	}
	return nil
}
