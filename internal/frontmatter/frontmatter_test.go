package frontmatter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/taigrr/trilium-mcp/internal/types"
)

func TestHandler_ParseWithFrontmatter(t *testing.T) {
	handler := New()

	content := `---
title: Test Note
tags: [test, example]
created: 2023-01-01
---

# Test Note

This is a test note with frontmatter.`

	result := handler.Parse(content)

	if result.Frontmatter["title"] != "Test Note" {
		t.Errorf("Frontmatter[title] = %v, want %q", result.Frontmatter["title"], "Test Note")
	}

	tags, ok := result.Frontmatter["tags"].([]any)
	if !ok {
		t.Errorf("Frontmatter[tags] is not []any: %T", result.Frontmatter["tags"])
	} else if len(tags) != 2 || tags[0] != "test" || tags[1] != "example" {
		t.Errorf("Frontmatter[tags] = %v, want [test, example]", tags)
	}

	expectedBody := "# Test Note\n\nThis is a test note with frontmatter."
	if strings.TrimSpace(result.Body) != expectedBody {
		t.Errorf("Body = %q, want %q", strings.TrimSpace(result.Body), expectedBody)
	}
}

func TestHandler_ParseWithoutFrontmatter(t *testing.T) {
	handler := New()

	content := `# Test Note

This is a test note without frontmatter.`

	result := handler.Parse(content)

	if len(result.Frontmatter) != 0 {
		t.Errorf("Frontmatter = %v, want empty map", result.Frontmatter)
	}
	if result.Body != content {
		t.Errorf("Body = %q, want %q", result.Body, content)
	}
}

func TestHandler_ParseInvalidYAML(t *testing.T) {
	handler := New()

	content := "---\n: : bad\n  - [\n---\nbody"
	result := handler.Parse(content)

	if len(result.Frontmatter) != 0 {
		t.Errorf("Frontmatter = %v, want empty map", result.Frontmatter)
	}
	if result.Body != content {
		t.Errorf("Body = %q, want original content", result.Body)
	}
}

func TestHandler_ParseFrontmatterOnly(t *testing.T) {
	handler := New()

	result := handler.Parse("---\ntitle: Only\n---")
	if result.Frontmatter["title"] != "Only" {
		t.Errorf("Frontmatter[title] = %v, want %q", result.Frontmatter["title"], "Only")
	}
	if result.Body != "" {
		t.Errorf("Body = %q, want empty", result.Body)
	}
}

func TestHandler_ValidateValidFrontmatter(t *testing.T) {
	handler := New()

	fm := map[string]any{
		"title":   "Valid Title",
		"tags":    []string{"tag1", "tag2"},
		"count":   42,
		"enabled": true,
	}

	result := handler.Validate(fm)

	if !result.IsValid {
		t.Errorf("IsValid = false, want true. Errors: %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want empty", result.Errors)
	}
}

func TestHandler_ValidateRejectsUnmappableValues(t *testing.T) {
	handler := New()

	tests := []struct {
		name string
		fm   map[string]any
		want string
	}{
		{
			name: "nested object",
			fm:   map[string]any{"author": map[string]any{"name": "x"}},
			want: "Nested objects",
		},
		{
			name: "nested list",
			fm:   map[string]any{"matrix": []any{[]any{1, 2}}},
			want: "Nested lists",
		},
		{
			name: "function",
			fm:   map[string]any{"bad": func() string { return "not allowed" }},
			want: "Functions are not allowed",
		},
		{
			name: "invalid label name",
			fm:   map[string]any{"has space": "x"},
			want: "Invalid label name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := handler.Validate(tt.fm)
			if result.IsValid {
				t.Fatal("IsValid = true, want false")
			}
			if !strings.Contains(strings.Join(result.Errors, "; "), tt.want) {
				t.Errorf("Errors = %v, want mention of %q", result.Errors, tt.want)
			}
		})
	}
}

func TestHandler_Labels(t *testing.T) {
	handler := New()

	fm := map[string]any{
		"title":    "Skipped",
		"tags":     []any{"work", "q3"},
		"priority": 2,
		"pinned":   true,
		"archived": false,
		"empty":    nil,
		"status":   "draft",
	}

	got, err := handler.Labels(fm)
	if err != nil {
		t.Fatalf("Labels() error = %v", err)
	}

	want := []types.Attribute{
		{Type: "label", Name: "pinned"},
		{Type: "label", Name: "priority", Value: "2"},
		{Type: "label", Name: "status", Value: "draft"},
		{Type: "label", Name: "tags", Value: "work"},
		{Type: "label", Name: "tags", Value: "q3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Labels() = %+v, want %+v", got, want)
	}
}

func TestHandler_LabelsInvalid(t *testing.T) {
	handler := New()

	if _, err := handler.Labels(map[string]any{"a b": "x"}); err == nil {
		t.Error("Labels() error = nil, want error")
	}
}

func TestHandler_Title(t *testing.T) {
	handler := New()

	if got := handler.Title(map[string]any{"title": "  Hello "}); got != "Hello" {
		t.Errorf("Title() = %q, want %q", got, "Hello")
	}
	if got := handler.Title(map[string]any{"title": 5}); got != "" {
		t.Errorf("Title() = %q, want empty", got)
	}
}
