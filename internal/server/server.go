package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"phishgate/internal/gate"
	"phishgate/internal/logging"
)

// Server is the HTTP + WebSocket control surface for the gating engine:
// on-demand checks, host overrides, cache stats, settings, block history,
// the warning page and a live decision stream.
type Server struct {
	cfg      Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewServer creates a Server around an already-constructed gate.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Gate == nil {
		return nil, errors.New("server requires a gate")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}

	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/check", s.optionsHandler("GET"))
	r.Options("/allow", s.optionsHandler("POST"))
	r.Options("/stats", s.optionsHandler("GET"))
	r.Options("/settings", s.optionsHandler("GET, PUT"))
	r.Options("/blocked", s.optionsHandler("GET"))

	r.Get("/health", s.handleHealth)

	// Control messages
	r.Get("/check", s.handleCheck)
	r.Post("/allow", s.handleAllow)
	r.Get("/stats", s.handleStats)

	// Settings & history
	r.Get("/settings", s.handleGetSettings)
	r.Put("/settings", s.handleUpdateSettings)
	r.Get("/blocked", s.handleListBlocked)

	// Warning page shown to blocked tabs
	r.Get("/warning", s.handleWarning)

	// Live decision stream
	r.Get("/ws/decisions", s.handleDecisionsWS)

	s.mountSwagger(r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
		if bodyBytes, err := io.ReadAll(r.Body); err == nil {
			fields = append(fields, logging.Field{Key: "body", Value: string(bodyBytes)})
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCheck runs the check-or-cache path for display purposes. It never
// redirects anything.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "missing url query parameter")
		return
	}

	entry, err := s.cfg.Gate.CheckURL(r.Context(), rawURL)
	if errors.Is(err, gate.ErrNotCheckable) {
		writeError(w, http.StatusBadRequest, "url is not checkable")
		return
	}
	if err != nil {
		s.logger.Warn("checking url", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("checked url",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "result", Value: string(entry.Result)})
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleAllow(w http.ResponseWriter, r *http.Request) {
	var body AllowHostRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Host == "" {
		writeError(w, http.StatusBadRequest, "missing host")
		return
	}

	s.cfg.Gate.AllowHost(body.Host, time.Duration(body.TTLMs)*time.Millisecond)
	writeJSON(w, http.StatusOK, AllowHostResponse{OK: true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st := s.cfg.Gate.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		CacheSize:     st.CacheSize,
		OverridesSize: st.OverridesSize,
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Registry == nil {
		writeError(w, http.StatusServiceUnavailable, "settings storage not configured")
		return
	}

	backendURL, err := s.cfg.Registry.BackendURL(r.Context())
	if err != nil {
		s.logger.Warn("reading settings", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{BackendURL: backendURL})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Registry == nil {
		writeError(w, http.StatusServiceUnavailable, "settings storage not configured")
		return
	}

	var body UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.BackendURL == "" {
		writeError(w, http.StatusBadRequest, "missing backend_url")
		return
	}

	if err := s.cfg.Registry.SetBackendURL(r.Context(), body.BackendURL); err != nil {
		s.logger.Warn("saving settings", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{BackendURL: body.BackendURL})
}

func (s *Server) handleListBlocked(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Registry == nil {
		writeError(w, http.StatusServiceUnavailable, "block history not configured")
		return
	}

	limit := 0
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.Atoi(ls); err == nil && v > 0 {
			limit = v
		}
	}

	blocks, err := s.cfg.Registry.ListBlocks(r.Context(), limit)
	if err != nil {
		s.logger.Warn("listing blocks", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("listed blocks", logging.Field{Key: "count", Value: len(blocks)})
	writeJSON(w, http.StatusOK, blocks)
}

// --- WebSocket ---

// handleDecisionsWS streams gate decisions to a websocket client until the
// client disconnects.
func (s *Server) handleDecisionsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	events, cancel := s.cfg.Gate.Subscribe()
	defer cancel()

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected
			return
		}
	}
}
