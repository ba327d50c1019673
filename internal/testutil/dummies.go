// Package testutil provides shared test doubles for use across package
// tests. All dummies implement the corresponding interfaces from the
// production code, allowing injection into components under test without
// real I/O or side effects.
package testutil

import (
	"context"
	"sync"

	"phishgate/internal/logging"
	"phishgate/internal/verdict"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// ─── Classifier ────────────────────────────────────────────────────────

// DummyClassifier implements gate.Classifier with canned verdicts per URL.
// URLs without a canned verdict resolve to an Unknown/error entry, same as
// a real failed check. Calls are recorded for call-count assertions.
type DummyClassifier struct {
	mu       sync.Mutex
	Verdicts map[string]*verdict.Entry
	Calls    []string
}

func (d *DummyClassifier) Classify(_ context.Context, url string) *verdict.Entry {
	d.mu.Lock()
	d.Calls = append(d.Calls, url)
	canned := d.Verdicts[url]
	d.mu.Unlock()

	if canned != nil {
		return canned
	}
	return &verdict.Entry{URL: url, Result: verdict.Unknown, Source: verdict.SourceError}
}

// CallCount returns how many times url was classified; "" counts all calls.
func (d *DummyClassifier) CallCount(url string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if url == "" {
		return len(d.Calls)
	}
	n := 0
	for _, c := range d.Calls {
		if c == url {
			n++
		}
	}
	return n
}

// ─── Redirector ────────────────────────────────────────────────────────

// DummyRedirector implements gate.Redirector with in-memory recording.
type DummyRedirector struct {
	mu        sync.Mutex
	Err       error
	Redirects []Redirect
}

// Redirect records one redirect attempt.
type Redirect struct {
	TabID string
	URL   string
}

func (d *DummyRedirector) Redirect(_ context.Context, tabID, targetURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Redirects = append(d.Redirects, Redirect{TabID: tabID, URL: targetURL})
	return d.Err
}

// Last returns the most recent redirect, or a zero value.
func (d *DummyRedirector) Last() Redirect {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Redirects) == 0 {
		return Redirect{}
	}
	return d.Redirects[len(d.Redirects)-1]
}

// Count returns the number of redirect attempts.
func (d *DummyRedirector) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Redirects)
}

// ─── Block recorder ────────────────────────────────────────────────────

// DummyRecorder implements gate.BlockRecorder.
type DummyRecorder struct {
	mu      sync.Mutex
	Err     error
	Blocked []*verdict.Entry
}

func (d *DummyRecorder) RecordBlock(_ context.Context, entry *verdict.Entry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Blocked = append(d.Blocked, entry)
	return d.Err
}

// Count returns the number of recorded blocks.
func (d *DummyRecorder) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Blocked)
}

// ─── Settings ──────────────────────────────────────────────────────────

// DummySettings implements classifier.SettingsSource.
type DummySettings struct {
	mu  sync.Mutex
	URL string
	Err error
}

func (d *DummySettings) BackendURL(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.URL, d.Err
}

// Set swaps the backend URL, simulating a config change.
func (d *DummySettings) Set(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.URL = url
}
