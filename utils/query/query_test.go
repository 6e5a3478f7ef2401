package queryHelper

import (
	"testing"

	"github.com/mindbridge/counsel-api/utils/response"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		want       Page
		wantOffset int
	}{
		{"defaults", 0, 0, Page{Page: 1, Size: response.DefaultPageSize}, 0},
		{"negative", -3, -1, Page{Page: 1, Size: response.DefaultPageSize}, 0},
		{"third page", 3, 20, Page{Page: 3, Size: 20}, 40},
		{"clamped size", 2, 1000, Page{Page: 2, Size: response.MaxPageSize}, response.MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPage(tt.page, tt.size)
			if got != tt.want {
				t.Errorf("NewPage(%d, %d) = %+v, want %+v", tt.page, tt.size, got, tt.want)
			}
			if got.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got.Offset(), tt.wantOffset)
			}
		})
	}
}

func TestPageMeta(t *testing.T) {
	meta := NewPage(2, 10).Meta(25)
	if meta.CurrentPage != 2 || meta.PerPage != 10 || meta.Total != 25 || meta.TotalPages != 3 {
		t.Errorf("Meta(25) = %+v", meta)
	}
	if empty := NewPage(1, 10).Meta(0); empty.TotalPages != 0 {
		t.Errorf("Meta(0).TotalPages = %d, want 0", empty.TotalPages)
	}
}
