package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/quizpress/internal/render"
)

func TestContentHashHex(t *testing.T) {
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := ContentHashHex([]byte("hello world")); got != want {
		t.Errorf("expected hash %q, got %q", want, got)
	}
	if ContentHashHex([]byte("aaa")) == ContentHashHex([]byte("bbb")) {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("Biology", 3)
	if _, err := uuid.Parse(doc.ID); err != nil {
		t.Errorf("expected a UUID id, got %q", doc.ID)
	}
	if doc.Status != StatusPending {
		t.Errorf("expected pending status, got %q", doc.Status)
	}
	if NewDocument("Biology", 3).ID == doc.ID {
		t.Error("expected unique ids")
	}
}

func TestDocument_StateTransitions(t *testing.T) {
	doc := NewDocument("Physics", 2)
	transitions := []struct {
		status Status
		phase  string
	}{
		{StatusExtracting, "extracting reference text"},
		{StatusGenerating, "waiting for model"},
		{StatusRendering, "rendering pdf"},
	}
	for _, tr := range transitions {
		before := doc.UpdatedAt
		time.Sleep(time.Millisecond)
		doc.SetStatus(tr.status, tr.phase)
		snap := doc.Snapshot()
		if snap.Status != tr.status || snap.Phase != tr.phase {
			t.Errorf("expected %q/%q, got %q/%q", tr.status, tr.phase, snap.Status, snap.Phase)
		}
		if !snap.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestDocument_Fail(t *testing.T) {
	doc := NewDocument("Chemistry", 1)
	doc.SetStatus(StatusGenerating, "waiting for model")
	doc.Fail(errors.New("status 401"))

	snap := doc.Snapshot()
	if snap.Status != StatusFailed || snap.Error != "status 401" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Phase != "waiting for model" {
		t.Errorf("expected failing phase to be kept, got %q", snap.Phase)
	}
	if snap.Render != nil {
		t.Error("expected no render stats on failure")
	}
}

func TestDocument_Artifacts(t *testing.T) {
	doc := NewDocument("Mathematics", 1)
	if _, ok := doc.Artifact(render.FormatPDF); ok {
		t.Fatal("expected no artifact before rendering")
	}

	doc.SetText("MATHEMATICS\nQ1. 1+1?")
	doc.SetArtifacts([]byte("%PDF-1.3"), []byte("MATHEMATICS\n"), render.Stats{Pages: 1, Placements: 2})

	pdf, ok := doc.Artifact(render.FormatPDF)
	if !ok || string(pdf) != "%PDF-1.3" {
		t.Errorf("unexpected pdf artifact %q", pdf)
	}
	txt, ok := doc.Artifact(render.FormatText)
	if !ok || string(txt) != "MATHEMATICS\n" {
		t.Errorf("unexpected text artifact %q", txt)
	}

	snap := doc.Snapshot()
	if snap.Status != StatusReady || snap.Render == nil || snap.Render.Pages != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if doc.Text() != "MATHEMATICS\nQ1. 1+1?" {
		t.Errorf("unexpected text %q", doc.Text())
	}
}

func TestDocument_SnapshotCopiesPages(t *testing.T) {
	doc := NewDocument("Biology", 1)
	doc.SetSource(Source{Filename: "ref.pdf", Pages: []int{1, 2}})
	snap := doc.Snapshot()
	snap.Source.Pages[0] = 99
	if doc.Snapshot().Source.Pages[0] != 1 {
		t.Error("expected snapshot to own its page slice")
	}
}

func TestStore_PutGet(t *testing.T) {
	store := NewStore(time.Hour)
	doc := NewDocument("Physics", 1)
	store.Put(doc)

	if got := store.Get(doc.ID); got != doc {
		t.Fatal("expected to get document back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing document")
	}
	store.Delete(doc.ID)
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d", store.Len())
	}
}

func TestStore_TTLCleanup(t *testing.T) {
	store := NewStore(50 * time.Millisecond)

	old := NewDocument("old", 1)
	store.Put(old)
	time.Sleep(100 * time.Millisecond)

	fresh := NewDocument("new", 1)
	store.Put(fresh)

	if store.Get(old.ID) != nil {
		t.Error("expected expired document to be hidden")
	}
	if n := store.Cleanup(); n != 1 {
		t.Errorf("expected 1 removal, got %d", n)
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh document to survive cleanup")
	}
}

func TestStore_Janitor(t *testing.T) {
	store := NewStore(10 * time.Millisecond)
	store.Put(NewDocument("old", 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Janitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if store.Len() != 0 {
		t.Errorf("expected janitor to evict the document, %d left", store.Len())
	}
}
