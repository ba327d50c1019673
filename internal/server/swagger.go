package server

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Phishgate API
// @version 0.1
// @description Control surface for the phishgate navigation-gating engine.
// @BasePath /

func (s *Server) mountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}
