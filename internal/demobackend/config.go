package demobackend

// Config holds settings for the demo classifier backend.
type Config struct {
	// Port to listen on.
	Port int

	// Latency is a fixed per-request delay in milliseconds, for exercising
	// caller timeouts. Zero answers immediately.
	Latency int
}

// DefaultConfig returns the default demo backend configuration.
func DefaultConfig() Config {
	return Config{Port: 5000}
}
