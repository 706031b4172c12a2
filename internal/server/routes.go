package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	// Items.
	mux.HandleFunc("POST /items", s.handleAddItem)
	mux.HandleFunc("GET /items", s.handleListItems)
	mux.HandleFunc("GET /items/{id}", s.handleGetItem)
	mux.HandleFunc("GET /search", s.handleSearchItems)

	// Categories and images.
	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("GET /image/{name}", s.handleGetImage)

	return s.withRequestID(s.withRequestLogging(s.withCORS(mux)))
}
