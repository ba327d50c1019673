// Package verdict defines the classification outcome for a URL and the
// boundary parsing of the backend's wire representation. The rest of the
// engine only ever sees the closed Result/Source types, never raw strings.
package verdict

import "strings"

// Result is the classification outcome for a URL.
type Result string

const (
	// Legitimate means the backend judged the URL safe.
	Legitimate Result = "legitimate"

	// Phishing means the backend judged the URL malicious.
	Phishing Result = "phishing"

	// Unknown means the backend returned no definitive judgment, or was
	// unreachable (fail-open).
	Unknown Result = "unknown"
)

// Source is the provenance of a verdict. It is display-only and never
// feeds gating logic.
type Source string

const (
	// SourceDatabase means the verdict came from a known-URL database hit.
	SourceDatabase Source = "database"

	// SourceModel means the verdict came from a learned model; Confidence
	// is populated in that case.
	SourceModel Source = "model"

	// SourceError marks entries produced on a failed or unreachable check.
	SourceError Source = "error"
)

// Entry is an immutable classification record for one exact URL string
// (query string included; no normalization beyond exact match). A cache
// update replaces the whole Entry, never part of it.
type Entry struct {
	URL    string `json:"url"`
	Result Result `json:"result"`
	Source Source `json:"source"`

	// Confidence is the model's probability for the *predicted* class,
	// not the probability of phishing. Present only for model verdicts.
	Confidence *float64 `json:"confidence,omitempty"`

	// Category is a free-form label (e.g. phishing type), display-only.
	Category string `json:"type,omitempty"`

	// ElapsedMS is the backend-reported check duration, if provided.
	ElapsedMS float64 `json:"elapsed_ms,omitempty"`
}

// IsPhishing reports whether the entry blocks navigation.
func (e *Entry) IsPhishing() bool {
	return e != nil && e.Result == Phishing
}

// ParseResult maps a backend result string onto the closed Result type.
// Unrecognized values collapse to Unknown rather than propagating raw
// strings through the engine.
func ParseResult(s string) Result {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legitimate":
		return Legitimate
	case "phishing":
		return Phishing
	default:
		return Unknown
	}
}

// ParseSource maps a backend source string onto the closed Source type.
// Unrecognized values collapse to SourceError.
func ParseSource(s string) Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "database":
		return SourceDatabase
	case "model":
		return SourceModel
	default:
		return SourceError
	}
}
