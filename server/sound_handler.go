package server

import (
	"net/http"

	"whisperli/core/catalog"
)

type soundEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type categoryEntry struct {
	Name   string       `json:"name"`
	Sounds []soundEntry `json:"sounds"`
}

func (s *Server) categories() []categoryEntry {
	c := s.app.Catalog
	names := c.Categories()
	out := make([]categoryEntry, 0, len(names))
	for _, name := range names {
		entry := categoryEntry{Name: name}
		for _, path := range c.Sounds(name) {
			entry.Sounds = append(entry.Sounds, soundEntry{Name: catalog.Name(path), Path: path})
		}
		out = append(out, entry)
	}
	return out
}

// ListSoundsHandler returns the catalog grouped by category.
func (s *Server) ListSoundsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.categories())
}

// RefreshSoundsHandler rescans the sound directories.
func (s *Server) RefreshSoundsHandler(w http.ResponseWriter, r *http.Request) {
	s.app.Catalog.Refresh()
	writeJSON(w, http.StatusOK, s.categories())
}
