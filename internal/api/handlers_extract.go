package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/reportgest/internal/parser"
	"github.com/dgallion1/reportgest/internal/pipeline"
	"github.com/dgallion1/reportgest/internal/sections"
	"github.com/dgallion1/reportgest/internal/sink"
)

// handleExtract extracts a report posted as the raw request body. The
// Content-Type picks the parser; ?store=key also persists the result.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	p, err := parser.ForContentType(r.Header.Get("Content-Type"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := r.URL.Query().Get("store")
	if key != "" {
		if err := sink.ValidateKey(key); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, "body exceeds max size", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	res, err := pipeline.ExtractDocument(s.extractor, p, data, s.metrics)
	if err != nil {
		if errors.Is(err, sections.ErrUnparseable) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, "extraction failed", http.StatusInternalServerError)
		return
	}

	if key != "" {
		if err := s.orchestrator.Sink().Put(r.Context(), key, res); err != nil {
			s.log.Error("store result", "key", key, "error", err)
			jsonError(w, "failed to store result", http.StatusBadGateway)
			return
		}
		w.Header().Set("X-Report-Key", key)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// handleGetReport returns a stored result by key.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if err := sink.ValidateKey(key); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := s.orchestrator.Sink().Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, sink.ErrNotFound) {
			jsonError(w, "report not found", http.StatusNotFound)
			return
		}
		s.log.Error("load result", "key", key, "error", err)
		jsonError(w, "failed to load report", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
