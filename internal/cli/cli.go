package cli

import (
	"flag"
	"io"

	"phishgate/internal/config"
)

// CLIArgs are the command-line arguments of the gating service. Flags
// override the corresponding config file fields.
type CLIArgs struct {
	// ConfigPath is an optional YAML configuration file.
	ConfigPath string

	// Listen overrides server.addr.
	Listen string

	// Backend overrides backend.url.
	Backend string

	// Storage overrides storage.root.
	Storage string

	// AttachBrowser enables the navigation watcher.
	AttachBrowser bool

	// BrowserRemote attaches to a running browser over DevTools instead of
	// launching one. Implies AttachBrowser.
	BrowserRemote string

	// Headed launches a visible browser window.
	Headed bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by
// passing arbitrary slices. The function is deterministic and does not read
// os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("phishgate", flag.ContinueOnError)
	var (
		configPath    = fs.String("config", "", "Path to a YAML config file")
		listen        = fs.String("listen", "", "Control API listen address (e.g. :8844)")
		backend       = fs.String("backend", "", "Classifier backend base URL")
		storage       = fs.String("storage", "", "Storage root directory")
		attachBrowser = fs.Bool("attach-browser", false, "Attach the navigation watcher to a browser")
		browserRemote = fs.String("browser-remote", "", "DevTools websocket URL of a running browser")
		headed        = fs.Bool("headed", false, "Launch a visible browser window")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &CLIArgs{
		ConfigPath:    *configPath,
		Listen:        *listen,
		Backend:       *backend,
		Storage:       *storage,
		AttachBrowser: *attachBrowser || *browserRemote != "",
		BrowserRemote: *browserRemote,
		Headed:        *headed,
		RawArgs:       args,
	}, nil
}

// Apply overlays the parsed flags onto cfg. Empty flags leave the config
// value alone.
func (a *CLIArgs) Apply(cfg *config.Config) {
	if a.Listen != "" {
		cfg.Server.Addr = a.Listen
	}
	if a.Backend != "" {
		cfg.Backend.URL = a.Backend
	}
	if a.Storage != "" {
		cfg.Storage.Root = a.Storage
	}
	if a.AttachBrowser {
		cfg.Browser.Attach = true
	}
	if a.BrowserRemote != "" {
		cfg.Browser.RemoteURL = a.BrowserRemote
	}
	if a.Headed {
		cfg.Browser.Headless = false
	}
}
