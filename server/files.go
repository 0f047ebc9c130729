package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/safal938/nurse-sim/storage"
)

type fileRequest struct {
	PID      string `json:"pid"`
	FileName string `json:"file_name"`
}

// contentType maps a file extension to the response media type.
func contentType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "json":
		return "application/json"
	case "md", "txt":
		return "text/markdown; charset=utf-8"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) handlePatientFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	key, err := s.profiles.Key(req.PID, req.FileName)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.opts.Logger.Info("fetching patient file", "path", key)
	b, err := s.profiles.Read(r.Context(), req.PID, req.FileName)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.opts.Logger.Warn("patient file not found", "path", key)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found", "path": key})
		return
	case err != nil:
		s.opts.Logger.Error("patient file unreadable", "path", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	ct := contentType(req.FileName)
	if ct == "application/json" && !json.Valid(b) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stored file is not valid JSON"})
		return
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
