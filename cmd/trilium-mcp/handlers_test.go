package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/trilium-mcp/internal/content"
	"github.com/taigrr/trilium-mcp/internal/etapi"
	"github.com/taigrr/trilium-mcp/internal/etapi/etapitest"
	"github.com/taigrr/trilium-mcp/internal/logging"
	"github.com/taigrr/trilium-mcp/internal/notefilter"
	"github.com/taigrr/trilium-mcp/internal/notes"
	"github.com/taigrr/trilium-mcp/internal/search"
	"github.com/taigrr/trilium-mcp/internal/types"
)

func setupServices(t *testing.T) *etapitest.Server {
	t.Helper()
	srv := etapitest.NewServer(t)
	client, err := etapi.New(srv.URL, etapitest.Token)
	require.NoError(t, err)
	nf, err := notefilter.New(nil)
	require.NoError(t, err)

	log := logging.Discard()
	logger = log
	noteService = notes.New(client, nf, nil, log)
	searchService = search.New(client, nf, log)
	return srv
}

func TestHandleUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("edits persist and verify", func(t *testing.T) {
		srv := setupServices(t)
		srv.AddNote(types.Note{NoteID: "abc", Title: "Todo"}, "<p>one</p>\n<p>two</p>\n")

		res, out, err := handleUpdate(ctx, nil, UpdateInput{
			NoteID: "abc",
			Edits:  []types.Edit{{Search: "<p>two</p>", Replacement: "<p>2</p>"}},
		})
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.True(t, out.Verified)
		assert.Equal(t, "edits", out.Mode)
		assert.Contains(t, out.Diff, "+<p>2</p>")
		assert.Equal(t, "<p>one</p>\n<p>2</p>\n", srv.Content("abc"))
	})

	t.Run("failure is reported as tool error", func(t *testing.T) {
		srv := setupServices(t)
		srv.AddNote(types.Note{NoteID: "abc", Title: "Todo"}, "<p>one</p>")

		res, out, err := handleUpdate(ctx, nil, UpdateInput{
			NoteID: "abc",
			Edits:  []types.Edit{{Search: "<p>three</p>", Replacement: "x"}},
		})
		require.Error(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "abc", out.NoteID)
		assert.Equal(t, content.KindNotFound, content.KindOf(err))
		assert.Contains(t, err.Error(), "could not find")
		assert.Zero(t, srv.Writes())
	})

	t.Run("patch", func(t *testing.T) {
		srv := setupServices(t)
		srv.AddNote(types.Note{NoteID: "abc", Title: "Todo"}, "<p>one</p>\n<p>two</p>\n")

		patch := "--- a/abc\n+++ b/abc\n@@ -1,2 +1,2 @@\n <p>one</p>\n-<p>two</p>\n+<p>deux</p>\n"
		_, out, err := handleUpdate(ctx, nil, UpdateInput{NoteID: "abc", Patch: &patch})
		require.NoError(t, err)
		assert.Equal(t, "patch", out.Mode)
		assert.Equal(t, "<p>one</p>\n<p>deux</p>\n", srv.Content("abc"))
	})

	t.Run("no mode", func(t *testing.T) {
		setupServices(t)
		res, _, err := handleUpdate(ctx, nil, UpdateInput{NoteID: "abc"})
		require.Error(t, err)
		assert.True(t, res.IsError)
		assert.ErrorIs(t, err, content.ErrNoModeSpecified)
	})
}

func TestHandleGet(t *testing.T) {
	ctx := context.Background()
	srv := setupServices(t)
	srv.AddNote(types.Note{NoteID: "abc", Title: "Lines"}, "l1\nl2\nl3\nl4")

	_, out, err := handleGet(ctx, nil, GetInput{NoteID: "abc", Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "l2\nl3", out.Content)
	assert.Equal(t, 4, out.TotalLines)
	assert.True(t, out.Truncated)
	assert.Equal(t, "Lines", out.Note.Title)

	_, out, err = handleGet(ctx, nil, GetInput{NoteID: "abc", Find: "l3", ContextLines: 1})
	require.NoError(t, err)
	assert.Empty(t, out.Content)
	require.Len(t, out.Matches, 1)
	assert.Equal(t, 3, out.Matches[0].Line)
	assert.Equal(t, "l2\nl3\nl4", out.Matches[0].Context)

	res, _, err := handleGet(ctx, nil, GetInput{NoteID: "missing"})
	require.Error(t, err)
	assert.True(t, res.IsError)
}

func TestHandleSearch(t *testing.T) {
	srv := setupServices(t)
	srv.AddNote(types.Note{NoteID: "n1", Title: "Groceries"}, "<p>milk</p>")

	_, out, err := handleSearch(context.Background(), nil, SearchInput{Query: "milk or #shopping"})
	require.NoError(t, err)
	assert.Equal(t, "note.content *=* milk OR #shopping", out.Query)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "n1", out.Results[0].NoteID)
}

func TestHandleCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	srv := setupServices(t)

	_, created, err := handleCreate(ctx, nil, CreateInput{
		Title:   "Draft",
		Content: "Hello *world*",
		Format:  "markdown",
	})
	require.NoError(t, err)
	assert.Contains(t, srv.Content(created.NoteID), "<em>world</em>")

	res, _, err := handleDelete(ctx, nil, DeleteInput{NoteID: created.NoteID, Confirm: "yes"})
	require.Error(t, err)
	assert.True(t, res.IsError)

	_, out, err := handleDelete(ctx, nil, DeleteInput{NoteID: created.NoteID, Confirm: created.NoteID})
	require.NoError(t, err)
	assert.True(t, out.Success)
	_, ok := srv.Note(created.NoteID)
	assert.False(t, ok)
}

func TestHandleAttributes(t *testing.T) {
	ctx := context.Background()
	srv := setupServices(t)
	srv.AddNote(types.Note{NoteID: "abc", Title: "Task"}, "")

	_, set, err := handleSetAttribute(ctx, nil, SetAttributeInput{NoteID: "abc", Name: "#priority", Value: "high"})
	require.NoError(t, err)
	assert.Equal(t, "priority", set.Attribute.Name)

	_, del, err := handleDeleteAttribute(ctx, nil, DeleteAttributeInput{NoteID: "abc", Name: "priority"})
	require.NoError(t, err)
	assert.Equal(t, set.Attribute.AttributeID, del.AttributeID)
}

func TestHandleAppInfo(t *testing.T) {
	setupServices(t)
	_, out, err := handleAppInfo(context.Background(), nil, AppInfoInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, out.AppVersion)
}
