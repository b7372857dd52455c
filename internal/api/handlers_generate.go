package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"maps"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/quizpress/internal/generate"
	"github.com/dgallion1/quizpress/internal/layout"
	"github.com/dgallion1/quizpress/internal/parser"
	"github.com/dgallion1/quizpress/internal/pipeline"
	"github.com/dgallion1/quizpress/internal/session"
)

const defaultCount = 3

// requestError is a malformed HTTP request, reported before the pipeline runs.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

// readInput parses the multipart form shared by the HTML form and the JSON
// API. The reference file is optional.
func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (pipeline.Input, error) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return pipeline.Input{}, &requestError{http.StatusBadRequest, "invalid multipart form: " + err.Error()}
	}
	defer r.MultipartForm.RemoveAll()

	in := pipeline.Input{
		Topic:  r.FormValue("topic"),
		Count:  defaultCount,
		APIKey: r.FormValue("api_key"),
	}
	if v := strings.TrimSpace(r.FormValue("count")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, &requestError{http.StatusBadRequest, "count must be a number"}
		}
		in.Count = n
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, &requestError{http.StatusBadRequest, "invalid file: " + err.Error()}
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return in, &requestError{http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))}
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return in, &requestError{http.StatusInternalServerError, "failed to read file"}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return in, &requestError{http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)}
	}
	in.Filename = filename
	in.Data = data
	return in, nil
}

// errorStatus maps a pipeline error to an HTTP status and a message that is
// safe to show the user.
func errorStatus(err error) (int, string) {
	var reqErr *requestError
	var inErr *pipeline.InputError
	var apiErr *generate.APIError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.msg
	case errors.Is(err, generate.ErrMissingCredential):
		return http.StatusBadRequest, "an API key is required: enter one in the form or configure the server"
	case errors.As(err, &inErr):
		return http.StatusBadRequest, inErr.Error()
	case errors.Is(err, pipeline.ErrNotFound):
		return http.StatusNotFound, "document not found"
	case generate.IsAuthError(err):
		return http.StatusBadRequest, "the generation service rejected the API key"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, fmt.Sprintf("generation service error (status %d)", apiErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "generation timed out"
	case errors.Is(err, layout.ErrOverflow):
		return http.StatusInternalServerError, "layout failed: " + err.Error()
	}
	return http.StatusInternalServerError, "generation failed"
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	in, err := s.readInput(w, r)
	if err != nil {
		status, msg := errorStatus(err)
		jsonError(w, msg, status)
		return
	}

	doc, err := s.svc.Run(r.Context(), in)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= 500 {
			s.log.Error("generate failed", "error", err)
		}
		if doc != nil {
			writeJSON(w, status, map[string]any{"error": msg, "document": doc.Snapshot()})
			return
		}
		jsonError(w, msg, status)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"document": doc.Snapshot(),
		"downloads": map[string]string{
			"pdf": fmt.Sprintf("/api/documents/%s/download?format=pdf", doc.ID),
			"txt": fmt.Sprintf("/api/documents/%s/download?format=txt", doc.ID),
		},
	})
}

type indexPage struct {
	MinCount, MaxCount, Count int
	NeedsKey                  bool
	Accept                    string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	exts := slices.Sorted(maps.Keys(parser.SupportedExtensions))
	s.renderPage(w, http.StatusOK, "index.html", indexPage{
		MinCount: generate.MinCount,
		MaxCount: generate.MaxCount,
		Count:    defaultCount,
		NeedsKey: s.cfg.ServerAPIKey() == "",
		Accept:   strings.Join(exts, ","),
	})
}

type resultPage struct {
	Doc  session.Snapshot
	Body template.HTML
}

type errorPage struct {
	Status  int
	Message string
	DocID   string
}

func (s *Server) handleGenerateForm(w http.ResponseWriter, r *http.Request) {
	in, err := s.readInput(w, r)
	if err == nil {
		var doc *session.Document
		doc, err = s.svc.Run(r.Context(), in)
		if err == nil {
			snap := doc.Snapshot()
			s.renderPage(w, http.StatusOK, "result.html", resultPage{Doc: snap, Body: s.markdown(snap.Text)})
			return
		}
	}
	status, msg := errorStatus(err)
	if status >= 500 {
		s.log.Error("generate failed", "error", err)
	}
	s.renderPage(w, status, "error.html", errorPage{Status: status, Message: msg})
}

// markdown converts generated text to HTML. Raw HTML in the text is not
// passed through.
func (s *Server) markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>")
	}
	return template.HTML(buf.String())
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error("render page", "page", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
