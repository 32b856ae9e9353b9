package server

import "net/http"

type optionsResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Renders     []string `json:"renders"`
	Parses      []string `json:"parses"`
}

// options describes a collection or instance route. It needs no
// credentials.
func (s *Server) options(name, description string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, optionsResponse{
			Name:        name,
			Description: description,
			Renders:     []string{"application/json"},
			Parses:      []string{"application/json"},
		})
	})
}
