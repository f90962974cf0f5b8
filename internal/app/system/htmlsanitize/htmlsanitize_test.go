package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/congregationhub/internal/app/system/htmlsanitize"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \n ", ""},
		{"plain text", "Group was well prepared.", "Group was well prepared."},
		{"safe formatting kept", "<p><strong>Bold</strong> and <em>italic</em></p>", "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{"script removed", "<p>Hello</p><script>alert('xss')</script>", "<p>Hello</p>"},
		{"list kept", "<ul><li>Follow up with family</li></ul>", "<ul><li>Follow up with family</li></ul>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_RemovesOnclick(t *testing.T) {
	got := htmlsanitize.Sanitize(`<p onclick="alert('xss')">Click</p>`)
	if strings.Contains(got, "onclick") {
		t.Errorf("expected onclick attribute to be removed, got %q", got)
	}
}

func TestSanitize_Links(t *testing.T) {
	bad := htmlsanitize.Sanitize(`<a href="javascript:alert('xss')">Click</a>`)
	if strings.Contains(bad, "javascript:") {
		t.Errorf("expected javascript: href to be removed, got %q", bad)
	}

	good := htmlsanitize.Sanitize(`<a href="https://example.com">Link</a>`)
	if !strings.Contains(good, "https://example.com") || !strings.Contains(good, "nofollow") {
		t.Errorf("expected safe link preserved with nofollow, got %q", good)
	}
}

func TestStripTags(t *testing.T) {
	got := htmlsanitize.StripTags(" <b>North</b> group ")
	if got != "North group" {
		t.Errorf("StripTags: got %q", got)
	}
}
