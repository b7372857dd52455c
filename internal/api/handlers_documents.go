package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/quizpress/internal/render"
)

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc := s.svc.Document(chi.URLParam(r, "docID"))
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc.Snapshot())
}

// handleUpdateText replaces the generated text and renders it again.
func (s *Server) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := s.svc.Rerender(chi.URLParam(r, "docID"), body.Text)
	if err != nil {
		status, msg := errorStatus(err)
		jsonError(w, msg, status)
		return
	}
	writeJSON(w, http.StatusOK, doc.Snapshot())
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc := s.svc.Document(chi.URLParam(r, "docID"))
	if doc == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	data, ok := doc.Artifact(format)
	if !ok {
		jsonError(w, "document has no rendered output", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.svc.Delete(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "deleted": true})
}
