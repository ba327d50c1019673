package server

// AllowHostRequest asks for a temporary host override after the user chose
// to proceed past a warning.
type AllowHostRequest struct {
	Host  string `json:"host" example:"bad.example"`
	TTLMs int64  `json:"ttl_ms" example:"10000"`
}

// AllowHostResponse acknowledges an override.
type AllowHostResponse struct {
	OK bool `json:"ok" example:"true"`
}

// SettingsResponse carries the persisted backend base URL.
type SettingsResponse struct {
	BackendURL string `json:"backend_url" example:"http://localhost:5000"`
}

// UpdateSettingsRequest replaces the backend base URL.
type UpdateSettingsRequest struct {
	BackendURL string `json:"backend_url" example:"http://localhost:5000"`
}

// StatsResponse reports live+stale entry counts per store.
type StatsResponse struct {
	CacheSize     int `json:"cache_size" example:"12"`
	OverridesSize int `json:"allow_overrides_size" example:"1"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
