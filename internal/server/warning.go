package server

import (
	"html/template"
	"net/http"
	"strconv"

	"phishgate/internal/logging"
	"phishgate/internal/urlutil"
)

// warningTemplate renders the block page shown to a redirected tab. The
// proceed control posts a short-lived host override back to /allow and
// then resumes the original navigation.
var warningTemplate = template.Must(template.New("warning").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Navigation blocked</title>
  <style>
    body { font-family: sans-serif; background: #b71c1c; color: #fff; margin: 0; }
    .panel { max-width: 640px; margin: 10vh auto; background: rgba(0,0,0,0.35); padding: 2em; border-radius: 8px; }
    .url { word-break: break-all; font-family: monospace; background: rgba(0,0,0,0.3); padding: 0.5em; border-radius: 4px; }
    dt { font-weight: bold; margin-top: 0.6em; }
    button { font-size: 1em; padding: 0.5em 1.2em; margin-right: 1em; border: 0; border-radius: 4px; cursor: pointer; }
    #goBack { background: #fff; color: #b71c1c; }
    #proceed { background: transparent; color: #fff; border: 1px solid #fff; }
  </style>
</head>
<body>
  <div class="panel">
    <h1>This site was flagged as phishing</h1>
    <p id="mainMessage">{{.Message}}</p>
    <p class="url" id="url">{{.URL}}</p>
    <dl id="detectionInfo">
      <dt>Detected by</dt><dd id="source">{{.SourceText}}</dd>
      {{if .HasConfidence}}<dt>Confidence</dt><dd id="confidence">{{.ConfidencePercent}}%</dd>{{end}}
      {{if .Category}}<dt>Type</dt><dd id="type">{{.Category}}</dd>{{end}}
    </dl>
    <button id="goBack" onclick="history.length > 1 ? history.back() : (location.href = 'about:blank')">Go back</button>
    <button id="proceed">Proceed anyway (10s)</button>
  </div>
  <script>
    document.getElementById('proceed').addEventListener('click', async () => {
      const host = {{.Host}};
      const original = {{.URL}};
      if (!host || !original) return;
      const resp = await fetch('/allow', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ host: host, ttl_ms: 10000 })
      });
      if (resp.ok) location.href = original;
    });
  </script>
</body>
</html>
`))

type warningData struct {
	URL               string
	Host              string
	SourceText        string
	Message           string
	HasConfidence     bool
	ConfidencePercent int
	Category          string
}

func sourceText(source string) string {
	switch source {
	case "database":
		return "Phishing database"
	case "model":
		return "Machine-learned model"
	case "error":
		return "Check failed"
	default:
		return "Unknown"
	}
}

func sourceMessage(source string) string {
	switch source {
	case "database":
		return "This site is a known phishing page."
	case "model":
		return "This site was predicted to be phishing with high likelihood."
	default:
		return "The page you were about to visit may be phishing."
	}
}

// handleWarning renders the warning page with the verdict metadata carried
// in the redirect query parameters.
func (s *Server) handleWarning(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data := warningData{
		URL:        q.Get("url"),
		Host:       urlutil.Host(q.Get("url")),
		SourceText: sourceText(q.Get("source")),
		Message:    sourceMessage(q.Get("source")),
		Category:   q.Get("type"),
	}
	if cs := q.Get("confidence"); cs != "" {
		if conf, err := strconv.ParseFloat(cs, 64); err == nil {
			data.HasConfidence = true
			// Floor, not round: 0.949 displays as 94%.
			data.ConfidencePercent = int(conf * 100)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := warningTemplate.Execute(w, data); err != nil {
		s.logger.Warn("rendering warning page", logging.Field{Key: "error", Value: err.Error()})
	}
}
