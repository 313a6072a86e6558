// Package frontmatter turns YAML frontmatter at the top of agent-authored
// markdown into note labels.
package frontmatter

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/taigrr/trilium-mcp/internal/types"
	"gopkg.in/yaml.v3"
)

// TitleKey is the frontmatter key that supplies a note title instead of a
// label.
const TitleKey = "title"

var labelNamePattern = regexp.MustCompile(`^[\p{L}\p{N}_:]+$`)

// Document is markdown split into frontmatter and body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Handler handles frontmatter parsing and validation.
type Handler struct{}

// New creates a new Handler.
func New() *Handler {
	return &Handler{}
}

// Parse splits content into frontmatter and body. Content without a valid
// frontmatter block is returned whole as the body.
func (h *Handler) Parse(content string) Document {
	result := Document{
		Frontmatter: make(map[string]any),
		Body:        content,
	}

	if !strings.HasPrefix(content, "---\n") {
		return result
	}

	var yamlContent, body string
	endIndex := strings.Index(content[4:], "\n---\n")
	switch {
	case endIndex != -1:
		yamlContent = content[4 : endIndex+4]
		body = content[endIndex+4+5:]
	case strings.HasSuffix(content, "\n---"):
		yamlContent = content[4 : len(content)-4]
	default:
		return result
	}

	var fm map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &fm); err != nil {
		return result
	}
	if fm != nil {
		result.Frontmatter = fm
	}
	result.Body = body
	return result
}

// Validate reports values that cannot be expressed as labels.
func (h *Handler) Validate(fm map[string]any) types.FrontmatterValidationResult {
	result := types.FrontmatterValidationResult{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}

	for key, value := range fm {
		if key == TitleKey {
			continue
		}
		if !labelNamePattern.MatchString(key) {
			result.IsValid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid label name: %q", key))
		}
		h.checkValue(value, &result, key, false)
	}
	sort.Strings(result.Errors)
	return result
}

func (h *Handler) checkValue(obj any, result *types.FrontmatterValidationResult, path string, inList bool) {
	if obj == nil {
		return
	}

	v := reflect.ValueOf(obj)
	switch v.Kind() {
	case reflect.Func:
		result.IsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Functions are not allowed in frontmatter at path: %s", path))
	case reflect.Map:
		result.IsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Nested objects cannot become labels at path: %s", path))
	case reflect.Slice, reflect.Array:
		if inList {
			result.IsValid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Nested lists cannot become labels at path: %s", path))
			return
		}
		for i := 0; i < v.Len(); i++ {
			h.checkValue(v.Index(i).Interface(), result, fmt.Sprintf("%s[%d]", path, i), true)
		}
	}
}

// Labels converts frontmatter into label attributes sorted by name. A list
// value yields one label per element; true yields a valueless label; false
// and null yield nothing. The title key is skipped.
func (h *Handler) Labels(fm map[string]any) ([]types.Attribute, error) {
	validation := h.Validate(fm)
	if !validation.IsValid {
		return nil, fmt.Errorf("invalid frontmatter: %s", strings.Join(validation.Errors, ", "))
	}

	keys := make([]string, 0, len(fm))
	for k := range fm {
		if k != TitleKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var labels []types.Attribute
	for _, key := range keys {
		for _, v := range flatten(fm[key]) {
			if label, ok := toLabel(key, v); ok {
				labels = append(labels, label)
			}
		}
	}
	return labels, nil
}

// Title returns the frontmatter title, if any.
func (h *Handler) Title(fm map[string]any) string {
	if s, ok := fm[TitleKey].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func toLabel(name string, value any) (types.Attribute, bool) {
	label := types.Attribute{Type: "label", Name: name}
	switch v := value.(type) {
	case nil:
		return label, false
	case bool:
		if !v {
			return label, false
		}
	case string:
		label.Value = v
	default:
		label.Value = fmt.Sprint(v)
	}
	return label, true
}

func flatten(value any) []any {
	v := reflect.ValueOf(value)
	if value == nil || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return []any{value}
	}
	values := make([]any, v.Len())
	for i := range values {
		values[i] = v.Index(i).Interface()
	}
	return values
}
