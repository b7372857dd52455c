package parser

import "testing"

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		wantErr  bool
	}{
		{"notes.txt", false},
		{"README.MD", false},
		{"table.csv", false},
		{"page.htm", false},
		{"paper.pdf", false},
		{"essay.docx", false},
		{"image.png", true},
		{"noext", true},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			_, err := ForFile(tt.filename, Options{})
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestForFile_PDFOptions(t *testing.T) {
	p, err := ForFile("paper.pdf", Options{MaxPages: 10, FallbackPdftotext: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pdf, ok := p.(*PDFParser)
	if !ok {
		t.Fatalf("expected *PDFParser, got %T", p)
	}
	if pdf.MaxPages != 10 || !pdf.FallbackPdftotext {
		t.Errorf("expected options to carry through, got %+v", pdf)
	}
}

func TestSplitPages(t *testing.T) {
	pages := splitPages("one\ftwo\fthree")
	if len(pages) != 3 || pages[2] != "three" {
		t.Errorf("unexpected pages: %q", pages)
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("Quiz.PDF") {
		t.Error("expected upper-case .PDF to be supported")
	}
	if IsSupportedExtension("quiz.exe") {
		t.Error("expected .exe to be rejected")
	}
}
