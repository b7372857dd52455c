package api

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dgallion1/quizpress/internal/config"
	"github.com/dgallion1/quizpress/internal/generate"
	"github.com/dgallion1/quizpress/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP server for quizpress.
type Server struct {
	router chi.Router
	svc    *pipeline.Service
	stats  *generate.LLMStats
	log    *slog.Logger
	cfg    config.Config
	pages  *template.Template
	md     goldmark.Markdown
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *pipeline.Service, stats *generate.LLMStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:   svc,
		stats: stats,
		log:   log,
		cfg:   cfg,
		pages: template.Must(template.ParseFS(templateFS, "templates/*.html")),
		md:    goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps())),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/generate", s.handleGenerateForm)
	r.Get("/documents/{docID}/download", s.handleDownload)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/generate", s.handleGenerate)
		r.Post("/api/layout", s.handleLayout)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Put("/api/documents/{docID}/text", s.handleUpdateText)
		r.Get("/api/documents/{docID}/download", s.handleDownload)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
