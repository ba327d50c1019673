package server

import (
	"phishgate/internal/gate"
	"phishgate/internal/logging"
	"phishgate/internal/registry"
)

// Config wires the server to its collaborators.
type Config struct {
	// ListenAddr is the HTTP listen address for the control API.
	ListenAddr string

	// Gate is the navigation-gating engine behind every endpoint.
	Gate *gate.Gate

	// Registry persists settings and block history. Optional; when nil
	// the settings and history endpoints report an error.
	Registry *registry.Registry

	Logger logging.Logger
}
