package server

import "net/http"

// handleListTemplates returns every live template cache entry.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := s.cache.List(r.Context())

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"templates": templates,
		"total":     len(templates),
	})
}

// handleInvalidateTemplate removes a single cache entry by key.
func (s *Server) handleInvalidateTemplate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		s.errorResponse(w, http.StatusBadRequest, "Cache key is required")
		return
	}

	s.cache.Invalidate(r.Context(), key)
	s.jsonResponse(w, http.StatusOK, map[string]string{"invalidated": key})
}

// handleClearTemplates empties the template cache.
func (s *Server) handleClearTemplates(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear(r.Context())
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "cleared"})
}
