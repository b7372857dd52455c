package api

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"github.com/dgallion1/quizpress/internal/layout"
)

const maxLayoutBody = 1 << 20

type layoutSettings struct {
	Mode         string  `json:"mode"`
	MaxWidth     float64 `json:"max_width"`
	PageWidth    float64 `json:"page_width"`
	WordLimit    float64 `json:"word_limit"`
	LineHeight   float64 `json:"line_height"`
	PageHeight   float64 `json:"page_height"`
	OptionIndent float64 `json:"option_indent"`
}

// handleLayout runs the layout engine over posted text and returns the
// placement instructions. The body is either JSON {"text": "..."} or plain
// text.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLayoutBody))
	if err != nil {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	text := string(body)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
			return
		}
		text = req.Text
	}

	res, cfg := s.svc.Layout(text)
	writeJSON(w, http.StatusOK, map[string]any{
		"pages":        res.Pages,
		"placements":   res.Count(layout.KindPlace),
		"page_breaks":  res.Count(layout.KindPageBreak),
		"dropped":      res.Dropped,
		"instructions": res.Instructions,
		"settings": layoutSettings{
			Mode:         cfg.Mode.String(),
			MaxWidth:     cfg.MaxWidth,
			PageWidth:    cfg.PageWidth,
			WordLimit:    cfg.WordLimit,
			LineHeight:   cfg.LineHeight,
			PageHeight:   cfg.PageHeight,
			OptionIndent: cfg.OptionIndent,
		},
	})
}
