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

func TestApplySearchReplace(t *testing.T) {
	t.Run("single occurrence", func(t *testing.T) {
		got, err := ApplySearchReplace("<p>Hello world</p>", []types.Edit{
			{Search: "world", Replacement: "there"},
		})
		require.NoError(t, err)
		assert.Equal(t, "<p>Hello there</p>", got)
	})

	t.Run("empty search prepends", func(t *testing.T) {
		got, err := ApplySearchReplace("body", []types.Edit{
			{Search: "", Replacement: "<h1>Title</h1>"},
		})
		require.NoError(t, err)
		assert.Equal(t, "<h1>Title</h1>body", got)
	})

	t.Run("dependent chain", func(t *testing.T) {
		got, err := ApplySearchReplace("AAABBB", []types.Edit{
			{Search: "AAA", Replacement: "CCC"},
			{Search: "CCCBBB", Replacement: "DONE"},
		})
		require.NoError(t, err)
		assert.Equal(t, "DONE", got)
	})

	t.Run("deletion", func(t *testing.T) {
		got, err := ApplySearchReplace("keep drop keep2", []types.Edit{
			{Search: " drop", Replacement: ""},
		})
		require.NoError(t, err)
		assert.Equal(t, "keep keep2", got)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := ApplySearchReplace("abc", []types.Edit{{Search: "xyz", Replacement: "q"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "could not find")
		assert.Contains(t, err.Error(), "xyz")
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := ApplySearchReplace("one two one", []types.Edit{{Search: "one", Replacement: "1"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAmbiguous))
		assert.Equal(t, KindAmbiguous, KindOf(err))
		assert.Contains(t, err.Error(), "ambiguous")
	})

	t.Run("overlapping occurrences are ambiguous", func(t *testing.T) {
		_, err := ApplySearchReplace("aaa", []types.Edit{{Search: "aa", Replacement: "b"}})
		assert.True(t, errors.Is(err, ErrAmbiguous))
	})

	t.Run("failure aborts the batch", func(t *testing.T) {
		got, err := ApplySearchReplace("alpha beta", []types.Edit{
			{Search: "alpha", Replacement: "ALPHA"},
			{Search: "gamma", Replacement: "GAMMA"},
		})
		require.Error(t, err)
		assert.Empty(t, got)
		assert.Contains(t, err.Error(), "edit 2")
	})

	t.Run("long search is truncated in message", func(t *testing.T) {
		search := strings.Repeat("x", 150)
		_, err := ApplySearchReplace("short", []types.Edit{{Search: search, Replacement: ""}})
		require.Error(t, err)

		var cerr *Error
		require.True(t, errors.As(err, &cerr))
		require.Len(t, cerr.Details, 1)
		assert.Equal(t, strings.Repeat("x", 100)+"...", cerr.Details[0])
		assert.NotContains(t, err.Error(), strings.Repeat("x", 101))
	})

	t.Run("exactly 100 characters is not truncated", func(t *testing.T) {
		search := strings.Repeat("y", 100)
		_, err := ApplySearchReplace("short", []types.Edit{{Search: search, Replacement: ""}})

		var cerr *Error
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, search, cerr.Details[0])
	})

	t.Run("no edits leaves content unchanged", func(t *testing.T) {
		got, err := ApplySearchReplace("same", nil)
		require.NoError(t, err)
		assert.Equal(t, "same", got)
	})
}

func TestApplySearchReplace_UniqueMatchProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.StringMatching(`[a-z \n]{0,30}`).Draw(t, "prefix")
		suffix := rapid.StringMatching(`[a-z \n]{0,30}`).Draw(t, "suffix")
		search := "<" + rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "search") + ">"
		replacement := rapid.String().Draw(t, "replacement")
		content := prefix + search + suffix

		got, err := ApplySearchReplace(content, []types.Edit{{Search: search, Replacement: replacement}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != prefix+replacement+suffix {
			t.Fatalf("got %q, want %q", got, prefix+replacement+suffix)
		}
		if len(got) != len(content)-len(search)+len(replacement) {
			t.Fatalf("length %d, want %d", len(got), len(content)-len(search)+len(replacement))
		}
	})
}

func TestApplySearchReplace_PrependProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		content := rapid.String().Draw(t, "content")
		prefix := rapid.String().Draw(t, "prefix")

		got, err := ApplySearchReplace(content, []types.Edit{{Search: "", Replacement: prefix}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != prefix+content {
			t.Fatalf("got %q, want %q", got, prefix+content)
		}
	})
}

func TestApplySearchReplace_RepeatedIsAmbiguousProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		search := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "search")
		middle := rapid.String().Draw(t, "middle")
		content := search + middle + search

		_, err := ApplySearchReplace(content, []types.Edit{{Search: search, Replacement: "x"}})
		if !errors.Is(err, ErrAmbiguous) {
			t.Fatalf("expected ambiguous error, got %v", err)
		}
	})
}
