package server

import (
	"net/http"

	"mercari/internal/api"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Hello, world!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Info(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.InfoResponse{
		SchemaVersion:   info.SchemaVersion,
		TotalItems:      info.TotalItems,
		TotalCategories: info.TotalCategories,
		ImagesDir:       s.imagesDir,
	})
}
