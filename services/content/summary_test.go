package content

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"paragraphs", "<p>Hello</p><p>world</p>", "Hello world"},
		{"script dropped", "<p>Visible</p><script>alert(1)</script><style>p{}</style>", "Visible"},
		{"unclosed tags", "<div><b>bold <i>text", "bold text"},
		{"entities", "<p>a &amp; b</p>", "a & b"},
		{"plain", "  just   text ", "just text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.input); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	short := "<p>短文</p>"
	if got := Summary(short, 10); got != "短文" {
		t.Errorf("Summary(short) = %q", got)
	}

	long := "<p>" + strings.Repeat("心理", 100) + "</p>"
	got := Summary(long, 0)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long summary should end with an ellipsis: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != DefaultSummaryLength+1 {
		t.Errorf("summary has %d runes, want %d", n, DefaultSummaryLength+1)
	}
}

func TestImageSources(t *testing.T) {
	got := ImageSources(`<p><img src="/static/a.png"><img alt="x"><img src="https://cdn/b.jpg"/></p>`)
	if len(got) != 2 || got[0] != "/static/a.png" || got[1] != "https://cdn/b.jpg" {
		t.Errorf("ImageSources = %v", got)
	}
	if got := ImageSources("<p>no images</p>"); len(got) != 0 {
		t.Errorf("ImageSources(no images) = %v", got)
	}
}
