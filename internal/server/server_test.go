package server_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"

	"phishgate/internal/gate"
	"phishgate/internal/registry"
	"phishgate/internal/server"
	"phishgate/internal/testutil"
	"phishgate/internal/verdict"

	_ "modernc.org/sqlite" // SQLite driver
)

func floatPtr(f float64) *float64 { return &f }

func newTestServer(t *testing.T, cls *testutil.DummyClassifier) (*server.Server, *gate.Gate) {
	t.Helper()

	if cls == nil {
		cls = &testutil.DummyClassifier{}
	}
	logger := &testutil.DummyLogger{}

	g := gate.New(gate.Config{}, cls, logger)

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "phishgate.db"))
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	reg, err := registry.NewRegistry(db, logger)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	g.SetBlockRecorder(reg)

	s, err := server.NewServer(server.Config{
		ListenAddr: ":0",
		Gate:       g,
		Registry:   reg,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, g
}

func doJSON(t *testing.T, s http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON response: %v (body: %s)", err, rec.Body.String())
	}
}

// ─── CORS & health ─────────────────────────────────────────────────────

func TestServer_CORS_HeaderPresent(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, "GET", "/health", "")

	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected CORS origin *, got %q", origin)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

// ─── /check ────────────────────────────────────────────────────────────

func TestServer_Check_ReturnsVerdict(t *testing.T) {
	t.Parallel()
	u := "https://bad.example/login"
	cls := &testutil.DummyClassifier{
		Verdicts: map[string]*verdict.Entry{
			u: {URL: u, Result: verdict.Phishing, Source: verdict.SourceModel, Confidence: floatPtr(0.94), Category: "credential-harvesting"},
		},
	}
	s, _ := newTestServer(t, cls)

	rec := doJSON(t, s, "GET", "/check?url="+strings.ReplaceAll(u, ":", "%3A"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var entry verdict.Entry
	decodeJSON(t, rec, &entry)
	if entry.Result != verdict.Phishing || entry.Source != verdict.SourceModel {
		t.Errorf("unexpected verdict %+v", entry)
	}
	if entry.Confidence == nil || *entry.Confidence != 0.94 {
		t.Errorf("expected confidence 0.94, got %v", entry.Confidence)
	}
}

func TestServer_Check_MissingURL(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, "GET", "/check", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestServer_Check_IneligibleURL(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, "GET", "/check?url=chrome%3A%2F%2Fsettings", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("internal pages are not checkable, expected 400, got %d", rec.Code)
	}
}

// ─── /allow ────────────────────────────────────────────────────────────

func TestServer_Allow_CreatesOverride(t *testing.T) {
	t.Parallel()
	s, g := newTestServer(t, nil)

	rec := doJSON(t, s, "POST", "/allow", `{"host":"bad.example","ttl_ms":10000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp server.AllowHostResponse
	decodeJSON(t, rec, &resp)
	if !resp.OK {
		t.Error("expected ok:true")
	}
	if !g.Overrides().IsAllowed("bad.example") {
		t.Error("override should be live")
	}
}

func TestServer_Allow_InvalidPayloads(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	if rec := doJSON(t, s, "POST", "/allow", `{invalid}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON: expected 400, got %d", rec.Code)
	}
	if rec := doJSON(t, s, "POST", "/allow", `{"ttl_ms":1000}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing host: expected 400, got %d", rec.Code)
	}
}

// ─── /stats ────────────────────────────────────────────────────────────

func TestServer_Stats(t *testing.T) {
	t.Parallel()
	u := "https://good.example/"
	cls := &testutil.DummyClassifier{
		Verdicts: map[string]*verdict.Entry{
			u: {URL: u, Result: verdict.Legitimate, Source: verdict.SourceDatabase},
		},
	}
	s, g := newTestServer(t, cls)

	g.HandleNavigation(context.Background(), gate.NavigationEvent{TabID: "t", URL: u, TopFrame: true})
	g.AllowHost("other.example", time.Minute)

	rec := doJSON(t, s, "GET", "/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats server.StatsResponse
	decodeJSON(t, rec, &stats)
	if stats.CacheSize != 1 || stats.OverridesSize != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

// ─── /settings ─────────────────────────────────────────────────────────

func TestServer_Settings_RoundTrip(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, "PUT", "/settings", `{"backend_url":"http://backend.internal:9000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "GET", "/settings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp server.SettingsResponse
	decodeJSON(t, rec, &resp)
	if resp.BackendURL != "http://backend.internal:9000" {
		t.Errorf("expected persisted backend url, got %q", resp.BackendURL)
	}
}

func TestServer_Settings_RejectsEmpty(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	if rec := doJSON(t, s, "PUT", "/settings", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// ─── /blocked ──────────────────────────────────────────────────────────

func TestServer_Blocked_ListsHistory(t *testing.T) {
	t.Parallel()
	u := "https://bad.example/login"
	cls := &testutil.DummyClassifier{
		Verdicts: map[string]*verdict.Entry{
			u: {URL: u, Result: verdict.Phishing, Source: verdict.SourceDatabase},
		},
	}
	s, g := newTestServer(t, cls)

	g.HandleNavigation(context.Background(), gate.NavigationEvent{TabID: "t", URL: u, TopFrame: true})

	rec := doJSON(t, s, "GET", "/blocked", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var blocks []registry.Block
	decodeJSON(t, rec, &blocks)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].URL != u || blocks[0].Host != "bad.example" {
		t.Errorf("unexpected block %+v", blocks[0])
	}
}

// ─── /warning ──────────────────────────────────────────────────────────

func TestServer_Warning_RendersVerdictMetadata(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, "GET",
		"/warning?url=https%3A%2F%2Fbad.example%2Flogin&source=model&confidence=0.94&type=credential-harvesting", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected html, got %q", ct)
	}

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parsing warning page: %v", err)
	}

	if got := doc.Find("#url").Text(); got != "https://bad.example/login" {
		t.Errorf("expected original url, got %q", got)
	}
	if got := doc.Find("#source").Text(); got != "Machine-learned model" {
		t.Errorf("unexpected source text %q", got)
	}
	if got := doc.Find("#confidence").Text(); got != "94%" {
		t.Errorf("expected floored 94%%, got %q", got)
	}
	if got := doc.Find("#type").Text(); got != "credential-harvesting" {
		t.Errorf("unexpected type %q", got)
	}
	if doc.Find("#proceed").Length() != 1 {
		t.Error("warning page should carry the proceed control")
	}
}

func TestServer_Warning_OmitsAbsentFields(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	rec := doJSON(t, s, "GET", "/warning?url=https%3A%2F%2Fbad.example%2F&source=database", "")
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parsing warning page: %v", err)
	}

	if doc.Find("#confidence").Length() != 0 {
		t.Error("confidence row should be absent for database verdicts")
	}
	if doc.Find("#type").Length() != 0 {
		t.Error("type row should be absent when not reported")
	}
	if got := doc.Find("#source").Text(); got != "Phishing database" {
		t.Errorf("unexpected source text %q", got)
	}
}

// ─── /ws/decisions ─────────────────────────────────────────────────────

func TestServer_DecisionsWS_StreamsEvents(t *testing.T) {
	t.Parallel()
	u := "https://good.example/"
	cls := &testutil.DummyClassifier{
		Verdicts: map[string]*verdict.Entry{
			u: {URL: u, Result: verdict.Legitimate, Source: verdict.SourceDatabase},
		},
	}
	s, g := newTestServer(t, cls)

	ts := httptest.NewServer(s)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/decisions"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	// Give the server a moment to register the subscription.
	time.Sleep(50 * time.Millisecond)
	g.HandleNavigation(context.Background(), gate.NavigationEvent{TabID: "t", URL: u, TopFrame: true})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev gate.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading decision event: %v", err)
	}
	if ev.URL != u || ev.Action != gate.ActionPass {
		t.Errorf("unexpected event %+v", ev)
	}
}
