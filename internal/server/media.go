package server

import (
	"errors"
	"io/fs"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"lichtwerk/internal/api"
)

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	notFound := api.ErrorResponse{Error: "media not found", Code: api.CodeNotFound}
	if s.opts.Media == nil {
		writeJSON(w, http.StatusNotFound, notFound)
		return
	}
	key := chi.URLParam(r, "*")
	f, err := s.opts.Media.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, notFound)
			return
		}
		writeBadRequest(w, "invalid media key")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, notFound)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	http.ServeContent(w, r, path.Base(key), info.ModTime(), f)
}
