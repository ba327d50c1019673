// Package demobackend is a stand-in classification backend for local demos
// and manual testing. It speaks the same /check contract as a real backend
// and lets verdicts be scripted per host at runtime.
package demobackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"phishgate/internal/urlutil"
	"phishgate/internal/verdict"
)

// DemoBackend serves scriptable classification verdicts.
type DemoBackend struct {
	cfg Config

	mu       sync.RWMutex
	verdicts map[string]verdict.Entry // host -> scripted verdict
}

// NewDemoBackend creates a demo backend with no scripted verdicts. Unscripted
// hosts are classified by name: anything containing "phish" is flagged by a
// pretend model, everything else is legitimate.
func NewDemoBackend(cfg Config) *DemoBackend {
	return &DemoBackend{
		cfg:      cfg,
		verdicts: make(map[string]verdict.Entry),
	}
}

// Script sets the verdict returned for every URL on host.
func (b *DemoBackend) Script(host string, e verdict.Entry) {
	b.mu.Lock()
	b.verdicts[strings.ToLower(host)] = e
	b.mu.Unlock()
}

// Handler returns the backend's HTTP handler; useful for httptest.
func (b *DemoBackend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/check", b.checkHandler)
	mux.HandleFunc("/health", b.healthHandler)
	mux.HandleFunc("/demo/script", b.scriptHandler)
	return mux
}

// Start starts the demo backend.
func (b *DemoBackend) Start() error {
	addr := fmt.Sprintf(":%d", b.cfg.Port)
	fmt.Printf("Demo backend listening on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, b.Handler())
}

func (b *DemoBackend) checkHandler(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	if b.cfg.Latency > 0 {
		time.Sleep(time.Duration(b.cfg.Latency) * time.Millisecond)
	}

	start := time.Now()
	entry := b.classify(rawURL)
	entry.URL = rawURL
	entry.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entry)
}

func (b *DemoBackend) classify(rawURL string) verdict.Entry {
	host := urlutil.Host(rawURL)

	b.mu.RLock()
	scripted, ok := b.verdicts[host]
	b.mu.RUnlock()
	if ok {
		return scripted
	}

	if strings.Contains(host, "phish") {
		conf := 0.92
		return verdict.Entry{
			Result:     verdict.Phishing,
			Source:     verdict.SourceModel,
			Confidence: &conf,
			Category:   "credential-harvesting",
		}
	}
	return verdict.Entry{
		Result: verdict.Legitimate,
		Source: verdict.SourceModel,
	}
}

func (b *DemoBackend) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// scriptHandler sets a verdict for a host: POST {"host": ..., "result": ...,
// "source": ..., "confidence": ..., "type": ...}.
func (b *DemoBackend) scriptHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Host       string   `json:"host"`
		Result     string   `json:"result"`
		Source     string   `json:"source"`
		Confidence *float64 `json:"confidence,omitempty"`
		Category   string   `json:"type,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Host == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b.Script(req.Host, verdict.Entry{
		Result:     verdict.ParseResult(req.Result),
		Source:     verdict.ParseSource(req.Source),
		Confidence: req.Confidence,
		Category:   req.Category,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"host":    req.Host,
	})
}
