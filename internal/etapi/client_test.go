package etapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/trilium-mcp/internal/etapi"
	"github.com/taigrr/trilium-mcp/internal/etapi/etapitest"
	"github.com/taigrr/trilium-mcp/internal/types"
)

func newClient(t *testing.T, srv *etapitest.Server) *etapi.Client {
	t.Helper()
	c, err := etapi.New(srv.URL, etapitest.Token)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		serverURL  string
		wantServer string
		wantErr    bool
	}{
		{name: "plain", serverURL: "http://localhost:8080", wantServer: "http://localhost:8080"},
		{name: "trailing slash", serverURL: "http://localhost:8080/", wantServer: "http://localhost:8080"},
		{name: "etapi suffix", serverURL: "https://notes.example.com/etapi", wantServer: "https://notes.example.com"},
		{name: "sub path", serverURL: "https://example.com/trilium/", wantServer: "https://example.com/trilium"},
		{name: "no scheme", serverURL: "localhost:8080", wantErr: true},
		{name: "ftp", serverURL: "ftp://example.com", wantErr: true},
		{name: "empty", serverURL: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := etapi.New(tt.serverURL, "token")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantServer, c.ServerURL())
		})
	}
}

func TestClient_ContentRoundTrip(t *testing.T) {
	srv := etapitest.NewServer(t)
	srv.AddNote(types.Note{NoteID: "abc", Title: "Groceries"}, "<p>milk</p>")
	c := newClient(t, srv)
	ctx := context.Background()

	got, err := c.GetContent(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "<p>milk</p>", got)

	require.NoError(t, c.PutContent(ctx, "abc", "<p>eggs</p>"))
	assert.Equal(t, "<p>eggs</p>", srv.Content("abc"))
	assert.Equal(t, 1, srv.Writes())
}

func TestClient_GetNote(t *testing.T) {
	srv := etapitest.NewServer(t)
	srv.AddNote(types.Note{NoteID: "abc", Title: "Groceries"}, "")
	c := newClient(t, srv)

	note, err := c.GetNote(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", note.Title)
	assert.Equal(t, "text", note.Type)
	assert.Equal(t, []string{"root"}, note.ParentNoteIDs)
	assert.Equal(t, []string{"root_abc"}, note.ParentBranchIDs)
}

func TestClient_NotFound(t *testing.T) {
	srv := etapitest.NewServer(t)
	c := newClient(t, srv)

	_, err := c.GetNote(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, etapi.IsNotFound(err))

	var apiErr *etapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "NOTE_NOT_FOUND", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "Note 'missing' not found.")
}

func TestClient_Unauthorized(t *testing.T) {
	srv := etapitest.NewServer(t)
	c, err := etapi.New(srv.URL, "wrong")
	require.NoError(t, err)

	_, err = c.AppInfo(context.Background())
	require.Error(t, err)
	assert.True(t, etapi.IsUnauthorized(err))
	assert.False(t, etapi.IsNotFound(err))
}

func TestClient_PlainTextError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	c, err := etapi.New(ts.URL, "token")
	require.NoError(t, err)

	err = c.DeleteNote(context.Background(), "abc")
	var apiErr *etapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestClient_SearchNotesParams(t *testing.T) {
	srv := etapitest.NewServer(t)
	srv.AddNote(types.Note{NoteID: "a1", Title: "Kubernetes"}, "<p>pods</p>")
	srv.AddNote(types.Note{NoteID: "a2", Title: "Cooking"}, "<p>pasta</p>")
	c := newClient(t, srv)

	notes, err := c.SearchNotes(context.Background(), types.SearchParams{
		Query:          "pods",
		FastSearch:     true,
		AncestorNoteID: "root",
		OrderBy:        "title",
		Limit:          5,
	})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "a1", notes[0].NoteID)

	q := srv.LastSearch()
	assert.Equal(t, "pods", q.Get("search"))
	assert.Equal(t, "true", q.Get("fastSearch"))
	assert.Equal(t, "root", q.Get("ancestorNoteId"))
	assert.Equal(t, "title", q.Get("orderBy"))
	assert.Equal(t, "5", q.Get("limit"))
	assert.False(t, q.Has("includeArchivedNotes"))
}

func TestClient_CreateAndBranches(t *testing.T) {
	srv := etapitest.NewServer(t)
	srv.AddNote(types.Note{NoteID: "inbox", Title: "Inbox"}, "")
	srv.AddNote(types.Note{NoteID: "archive", Title: "Archive"}, "")
	c := newClient(t, srv)
	ctx := context.Background()

	created, err := c.CreateNote(ctx, types.CreateNoteParams{
		ParentNoteID: "inbox",
		Title:        "Idea",
		Type:         "text",
		Content:      "<p>x</p>",
	})
	require.NoError(t, err)
	id := created.Note.NoteID
	assert.Equal(t, "inbox_"+id, created.Branch.BranchID)

	branch, err := c.CreateBranch(ctx, types.Branch{NoteID: id, ParentNoteID: "archive"})
	require.NoError(t, err)
	require.NoError(t, c.DeleteBranch(ctx, created.Branch.BranchID))

	note, err := c.GetNote(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"archive"}, note.ParentNoteIDs)

	require.NoError(t, c.DeleteBranch(ctx, branch.BranchID))
	_, err = c.GetNote(ctx, id)
	assert.True(t, etapi.IsNotFound(err), "removing the last branch deletes the note")
}

func TestClient_Attributes(t *testing.T) {
	srv := etapitest.NewServer(t)
	srv.AddNote(types.Note{NoteID: "abc", Title: "Task"}, "")
	c := newClient(t, srv)
	ctx := context.Background()

	attr, err := c.CreateAttribute(ctx, types.Attribute{NoteID: "abc", Type: "label", Name: "status", Value: "open"})
	require.NoError(t, err)
	require.NotEmpty(t, attr.AttributeID)

	attr, err = c.PatchAttribute(ctx, attr.AttributeID, types.AttributePatch{Value: "done"})
	require.NoError(t, err)
	assert.Equal(t, "done", attr.Value)

	note, err := c.GetNote(ctx, "abc")
	require.NoError(t, err)
	require.Len(t, note.Attributes, 1)
	assert.Equal(t, "done", note.Attributes[0].Value)

	require.NoError(t, c.DeleteAttribute(ctx, attr.AttributeID))
	note, err = c.GetNote(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, note.Attributes)
}

func TestClient_RevisionAndPatch(t *testing.T) {
	srv := etapitest.NewServer(t)
	srv.AddNote(types.Note{NoteID: "abc", Title: "Old"}, "")
	c := newClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.CreateRevision(ctx, "abc"))
	assert.Equal(t, 1, srv.Revisions("abc"))

	note, err := c.PatchNote(ctx, "abc", types.NotePatch{Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", note.Title)
}

func TestClient_AppInfo(t *testing.T) {
	srv := etapitest.NewServer(t)
	c := newClient(t, srv)

	info, err := c.AppInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.63.0", info.AppVersion)
}
