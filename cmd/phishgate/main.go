// Command phishgate runs the navigation gating service: the control API,
// the verdict cache, the block registry and, optionally, a browser watcher
// attached over the DevTools protocol.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"phishgate/internal/browser"
	"phishgate/internal/classifier"
	"phishgate/internal/cli"
	"phishgate/internal/config"
	"phishgate/internal/gate"
	"phishgate/internal/logging"
	"phishgate/internal/registry"
	"phishgate/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "phishgate: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	parsed, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if parsed.ConfigPath != "" {
		cfg, err = config.Load(parsed.ConfigPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	parsed.Apply(&cfg)

	logger := logging.NewZerologLogger(os.Stdout, "phishgate")

	storageRoot, err := expandHome(cfg.Storage.Root)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		return fmt.Errorf("creating storage root: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(storageRoot, "phishgate.db"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	reg, err := registry.NewRegistry(db, logger)
	if err != nil {
		return fmt.Errorf("initializing registry: %w", err)
	}

	cls := classifier.New(classifier.Config{
		DefaultBackendURL: cfg.Backend.URL,
		Timeout:           cfg.BackendTimeout(),
	}, reg, logger, nil)

	g := gate.New(gate.Config{
		CacheTTL:   cfg.VerdictTTL(),
		AllowTTL:   cfg.AllowTTL(),
		WarningURL: warningURL(cfg.Server.Addr),
	}, cls, logger)
	g.SetBlockRecorder(reg)

	srv, err := server.NewServer(server.Config{
		ListenAddr: cfg.Server.Addr,
		Gate:       g,
		Registry:   reg,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Browser.Attach {
		watcher := browser.New(browser.Config{
			RemoteURL: cfg.Browser.RemoteURL,
			Headless:  cfg.Browser.Headless,
			StartURL:  cfg.Browser.StartURL,
		}, g, logger)
		g.SetRedirector(watcher)
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("browser watcher stopped", logging.Field{Key: "error", Value: err.Error()})
			}
		}()
	}

	httpSrv := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("control API listening", logging.Field{Key: "addr", Value: cfg.Server.Addr})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// warningURL derives the warning-page address from the listen address, so a
// non-default port keeps the redirect target consistent.
func warningURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://127.0.0.1:8844/warning"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s/warning", net.JoinHostPort(host, port))
}

// expandHome resolves a leading "~/" against the current user's home.
func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
