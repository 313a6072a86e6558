package markup

import (
	"strings"
	"testing"
)

func TestConverter_ToHTML(t *testing.T) {
	c := New()

	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name:   "heading and paragraph",
			source: "# Title\n\nSome *text*.",
			want:   []string{"<h1>Title</h1>", "<p>Some <em>text</em>.</p>"},
		},
		{
			name:   "task list",
			source: "- [x] done\n- [ ] todo",
			want:   []string{`type="checkbox"`, "done", "todo"},
		},
		{
			name:   "table",
			source: "| a | b |\n|---|---|\n| 1 | 2 |",
			want:   []string{"<table>", "<td>1</td>"},
		},
		{
			name:   "raw html passes through",
			source: `<span class="x">kept</span>`,
			want:   []string{`<span class="x">kept</span>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ToHTML(tt.source)
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("ToHTML() = %q, want it to contain %q", got, w)
				}
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", FormatHTML, false},
		{"HTML", FormatHTML, false},
		{"markdown", FormatMarkdown, false},
		{" md ", FormatMarkdown, false},
		{"rst", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
