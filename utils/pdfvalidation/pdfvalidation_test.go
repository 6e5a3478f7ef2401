package pdfvalidation

import (
	"bytes"
	"errors"
	"testing"
)

func TestCheckRejects(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		limits  Limits
		want    error
	}{
		{"no header", []byte("hello"), DefaultLimits, ErrNotPDF},
		{"too large", bytes.Repeat([]byte("x"), 2<<20), Limits{MaxFileSizeMB: 1}, ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Check(tt.content, tt.limits); !errors.Is(err, tt.want) {
				t.Errorf("Check() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Check([]byte("%PDF-1.4\ngarbage"), DefaultLimits); err == nil {
		t.Error("expected parse error for a truncated PDF")
	}
}

func TestTrimTrailer(t *testing.T) {
	in := []byte("%PDF-1.4 body %%EOF\r\njunk")
	if got := string(trimTrailer(in)); got != "%PDF-1.4 body %%EOF\r\n" {
		t.Errorf("trimTrailer = %q", got)
	}
	if got := trimTrailer([]byte("no marker")); string(got) != "no marker" {
		t.Errorf("trimTrailer without marker = %q", got)
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF("Consent.PDF") || IsPDF("consent.docx") {
		t.Error("IsPDF misclassified a name")
	}
}
