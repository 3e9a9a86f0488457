package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"lichtwerk/internal/api"
	"lichtwerk/internal/backend"
	"lichtwerk/internal/logging"
)

// handleUpload spools the multipart parts to a temporary directory and hands
// them to the backend as one batch.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		writeBadRequest(w, "expected multipart/form-data")
		return
	}
	spool, err := os.MkdirTemp("", "lichtwerk-upload-")
	if err != nil {
		s.writeError(w, r, fmt.Errorf("create spool dir: %w", err))
		return
	}
	defer func() {
		if err := os.RemoveAll(spool); err != nil {
			s.logger.Warn("spool cleanup failed", logging.Error(err))
		}
	}()

	var files []backend.File
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeBadRequest(w, fmt.Sprintf("read multipart: %v", err))
			return
		}
		if part.FormName() != api.UploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		if s.opts.MaxBatchFiles > 0 && len(files) >= s.opts.MaxBatchFiles {
			_ = part.Close()
			s.writeError(w, r, validationf("batch exceeds %d files", s.opts.MaxBatchFiles))
			return
		}
		file, err := s.spoolPart(spool, len(files), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		captured, err := api.ParseCaptureTime(part.Header.Get(api.CapturedAtHeader))
		if err != nil {
			s.writeError(w, r, validationf("%s: %v", file.Name, err))
			return
		}
		file.CapturedAt = captured
		files = append(files, file)
	}

	res, err := s.backend.Upload(r.Context(), chi.URLParam(r, "jobID"), files)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	dups := res.Duplicates
	if dups == nil {
		dups = []string{}
	}
	writeJSON(w, http.StatusOK, api.UploadResponse{UploadedCount: res.UploadedCount, Duplicates: dups})
}

func (s *Server) spoolPart(dir string, index int, name string, r io.Reader) (backend.File, error) {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	target := filepath.Join(dir, fmt.Sprintf("%04d%s", index, strings.ToLower(filepath.Ext(name))))
	f, err := os.Create(target)
	if err != nil {
		return backend.File{}, fmt.Errorf("spool %s: %w", name, err)
	}
	src := r
	if s.opts.MaxFileBytes > 0 {
		src = io.LimitReader(r, s.opts.MaxFileBytes+1)
	}
	written, err := io.Copy(f, src)
	closeErr := f.Close()
	if err != nil {
		return backend.File{}, fmt.Errorf("spool %s: %w", name, err)
	}
	if closeErr != nil {
		return backend.File{}, fmt.Errorf("spool %s: %w", name, closeErr)
	}
	if s.opts.MaxFileBytes > 0 && written > s.opts.MaxFileBytes {
		return backend.File{}, validationf("%s exceeds the %d byte file limit", name, s.opts.MaxFileBytes)
	}
	return backend.File{
		Name: name,
		Size: written,
		Open: func() (io.ReadCloser, error) { return os.Open(target) },
	}, nil
}
