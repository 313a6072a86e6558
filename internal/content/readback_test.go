package content

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/taigrr/trilium-mcp/internal/types"
)

func TestVerifyReadback(t *testing.T) {
	t.Run("all replacements present", func(t *testing.T) {
		err := VerifyReadback("<p>one</p><p>two</p>", []types.Edit{
			{Search: "1", Replacement: "one"},
			{Search: "2", Replacement: "two"},
		})
		assert.NoError(t, err)
	})

	t.Run("deletions are not checked", func(t *testing.T) {
		err := VerifyReadback("anything", []types.Edit{{Search: "gone", Replacement: ""}})
		assert.NoError(t, err)
	})

	t.Run("collects every missing replacement", func(t *testing.T) {
		err := VerifyReadback("<p>one</p>", []types.Edit{
			{Search: "a", Replacement: "one"},
			{Search: "b", Replacement: "two"},
			{Search: "c", Replacement: ""},
			{Search: "d", Replacement: "three"},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrReadbackMismatch))

		var cerr *Error
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, []string{"two", "three"}, cerr.Details)
		assert.Contains(t, err.Error(), "2 of 3")
		assert.NotContains(t, err.Error(), `"one"`)
	})

	t.Run("long replacements are truncated", func(t *testing.T) {
		long := strings.Repeat("z", 250)
		err := VerifyReadback("", []types.Edit{{Search: "x", Replacement: long}})

		var cerr *Error
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, strings.Repeat("z", 200)+"...", cerr.Details[0])
	})
}

func TestVerifyReadback_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		persisted := rapid.StringMatching(`[a-c]{0,20}`).Draw(t, "persisted")
		replacements := rapid.SliceOf(rapid.StringMatching(`[a-c]{0,3}`)).Draw(t, "replacements")

		edits := make([]types.Edit, len(replacements))
		var want []string
		for i, r := range replacements {
			edits[i] = types.Edit{Search: "s", Replacement: r}
			if r != "" && !strings.Contains(persisted, r) {
				want = append(want, r)
			}
		}

		err := VerifyReadback(persisted, edits)
		if len(want) == 0 {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}

		var cerr *Error
		if !errors.As(err, &cerr) || cerr.Kind != KindReadbackMismatch {
			t.Fatalf("expected read-back mismatch, got %v", err)
		}
		if strings.Join(cerr.Details, "|") != strings.Join(want, "|") {
			t.Fatalf("missing = %q, want %q", cerr.Details, want)
		}
	})
}
