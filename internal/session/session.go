package session

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/quizpress/internal/render"
)

// Status is the state of one generation cycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusExtracting Status = "extracting"
	StatusGenerating Status = "generating"
	StatusRendering  Status = "rendering"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Document is the state of one generated question set. It lives only in
// memory and is discarded after the store's TTL.
type Document struct {
	mu sync.Mutex

	ID    string
	Topic string
	Count int
	Model string

	Status Status
	Phase  string

	CreatedAt time.Time
	UpdatedAt time.Time

	source      Source
	text        string
	pdf         []byte
	txt         []byte
	renderStats render.Stats
	err         string
}

// Source describes the reference material a document was generated from.
type Source struct {
	Filename     string `json:"filename,omitempty"`
	ContentHash  string `json:"content_hash,omitempty"`
	ExcerptChars int    `json:"excerpt_chars"`
	Truncated    bool   `json:"truncated"`
	Pages        []int  `json:"pages,omitempty"`
}

// NewDocument returns a pending document with a fresh ID.
func NewDocument(topic string, count int) *Document {
	now := time.Now()
	return &Document{
		ID:        uuid.NewString(),
		Topic:     topic,
		Count:     count,
		Status:    StatusPending,
		Phase:     "pending",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates the status atomically.
func (d *Document) SetStatus(status Status, phase string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Status = status
	d.Phase = phase
	d.UpdatedAt = time.Now()
}

// Fail marks the document failed in the current phase.
func (d *Document) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Status = StatusFailed
	d.err = err.Error()
	d.UpdatedAt = time.Now()
}

func (d *Document) SetSource(src Source) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.source = src
	d.UpdatedAt = time.Now()
}

func (d *Document) SetModel(model string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Model = model
}

// SetText stores the generated text.
func (d *Document) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.UpdatedAt = time.Now()
}

// Text returns the generated text.
func (d *Document) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// SetArtifacts stores the rendered downloads and marks the document ready.
func (d *Document) SetArtifacts(pdf, txt []byte, stats render.Stats) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pdf = pdf
	d.txt = txt
	d.renderStats = stats
	d.Status = StatusReady
	d.Phase = "done"
	d.UpdatedAt = time.Now()
}

// Artifact returns the bytes for a download format, or false if the
// document has not been rendered.
func (d *Document) Artifact(f render.Format) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b []byte
	switch f {
	case render.FormatText:
		b = d.txt
	default:
		b = d.pdf
	}
	return b, len(b) > 0
}

// Snapshot is a read-only, JSON-safe copy of document state.
type Snapshot struct {
	ID        string        `json:"doc_id"`
	Topic     string        `json:"topic"`
	Count     int           `json:"count"`
	Model     string        `json:"model,omitempty"`
	Status    Status        `json:"status"`
	Phase     string        `json:"phase"`
	Source    Source        `json:"source"`
	Text      string        `json:"text,omitempty"`
	Render    *render.Stats `json:"render,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the document state.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := Snapshot{
		ID:        d.ID,
		Topic:     d.Topic,
		Count:     d.Count,
		Model:     d.Model,
		Status:    d.Status,
		Phase:     d.Phase,
		Source:    d.source,
		Text:      d.text,
		Error:     d.err,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.source.Pages) > 0 {
		snap.Source.Pages = append([]int(nil), d.source.Pages...)
	}
	if d.Status == StatusReady {
		stats := d.renderStats
		snap.Render = &stats
	}
	return snap
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
