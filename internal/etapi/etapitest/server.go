// Package etapitest provides an in-memory ETAPI server for tests.
package etapitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/taigrr/trilium-mcp/internal/types"
)

// Token is the ETAPI token the server accepts.
const Token = "test-token"

// Server is a fake Trilium server holding notes in memory. It starts with a
// single "root" text note.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	notes      map[string]*types.Note
	contents   map[string]string
	attributes map[string]types.Attribute
	branches   map[string]types.Branch
	revisions  map[string]int
	nextID     int
	writes     int
	lastSearch url.Values
	onWrite    func(noteID, content string) string
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		notes:      map[string]*types.Note{},
		contents:   map[string]string{},
		attributes: map[string]types.Attribute{},
		branches:   map[string]types.Branch{},
		revisions:  map[string]int{},
	}
	s.notes["root"] = &types.Note{NoteID: "root", Title: "root", Type: "text"}
	s.contents["root"] = ""

	mux := http.NewServeMux()
	mux.HandleFunc("GET /etapi/app-info", s.handleAppInfo)
	mux.HandleFunc("GET /etapi/notes", s.handleSearch)
	mux.HandleFunc("GET /etapi/notes/{noteId}", s.handleGetNote)
	mux.HandleFunc("PATCH /etapi/notes/{noteId}", s.handlePatchNote)
	mux.HandleFunc("DELETE /etapi/notes/{noteId}", s.handleDeleteNote)
	mux.HandleFunc("GET /etapi/notes/{noteId}/content", s.handleGetContent)
	mux.HandleFunc("PUT /etapi/notes/{noteId}/content", s.handlePutContent)
	mux.HandleFunc("POST /etapi/notes/{noteId}/revision", s.handleRevision)
	mux.HandleFunc("POST /etapi/create-note", s.handleCreateNote)
	mux.HandleFunc("POST /etapi/attributes", s.handleCreateAttribute)
	mux.HandleFunc("PATCH /etapi/attributes/{attributeId}", s.handlePatchAttribute)
	mux.HandleFunc("DELETE /etapi/attributes/{attributeId}", s.handleDeleteAttribute)
	mux.HandleFunc("POST /etapi/branches", s.handleCreateBranch)
	mux.HandleFunc("DELETE /etapi/branches/{branchId}", s.handleDeleteBranch)

	s.Server = httptest.NewServer(s.authenticate(mux))
	t.Cleanup(s.Close)
	return s
}

// AddNote stores a note under root unless it names its own parents.
func (s *Server) AddNote(note types.Note, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note.Type == "" {
		note.Type = "text"
	}
	parents := note.ParentNoteIDs
	if len(parents) == 0 {
		parents = []string{"root"}
	}
	note.ParentNoteIDs = nil
	n := note
	s.notes[note.NoteID] = &n
	s.contents[note.NoteID] = content
	for _, p := range parents {
		s.addBranchLocked(types.Branch{NoteID: note.NoteID, ParentNoteID: p})
	}
}

// Content returns the stored content of a note.
func (s *Server) Content(noteID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contents[noteID]
}

// Note returns the stored metadata of a note.
func (s *Server) Note(noteID string) (types.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok {
		return types.Note{}, false
	}
	return s.viewLocked(n), true
}

// SetOnWrite installs a function that rewrites content as it is stored,
// simulating a server that silently normalizes what it is given.
func (s *Server) SetOnWrite(fn func(noteID, content string) string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite = fn
}

// Writes returns how many content writes the server accepted.
func (s *Server) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Revisions returns how many revisions were created for a note.
func (s *Server) Revisions(noteID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revisions[noteID]
}

// LastSearch returns the query parameters of the most recent search.
func (s *Server) LastSearch() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSearch
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != Token {
			writeError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleAppInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.AppInfo{AppVersion: "0.63.0", DBVersion: 228, SyncVersion: 34})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[r.PathValue("noteId")]
	if !ok {
		writeNoteNotFound(w, r.PathValue("noteId"))
		return
	}
	writeJSON(w, http.StatusOK, s.viewLocked(n))
}

func (s *Server) handlePatchNote(w http.ResponseWriter, r *http.Request) {
	var patch types.NotePatch
	if !readJSON(w, r, &patch) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[r.PathValue("noteId")]
	if !ok {
		writeNoteNotFound(w, r.PathValue("noteId"))
		return
	}
	if patch.Title != "" {
		n.Title = patch.Title
	}
	if patch.Type != "" {
		n.Type = patch.Type
	}
	if patch.Mime != "" {
		n.Mime = patch.Mime
	}
	writeJSON(w, http.StatusOK, s.viewLocked(n))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("noteId")
	if _, ok := s.notes[id]; !ok {
		writeNoteNotFound(w, id)
		return
	}
	s.deleteNoteLocked(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("noteId")
	if _, ok := s.notes[id]; !ok {
		writeNoteNotFound(w, id)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, s.contents[id])
}

func (s *Server) handlePutContent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_BODY", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("noteId")
	if _, ok := s.notes[id]; !ok {
		writeNoteNotFound(w, id)
		return
	}
	content := string(body)
	if s.onWrite != nil {
		content = s.onWrite(id, content)
	}
	s.contents[id] = content
	s.writes++
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRevision(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("noteId")
	if _, ok := s.notes[id]; !ok {
		writeNoteNotFound(w, id)
		return
	}
	s.revisions[id]++
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var params types.CreateNoteParams
	if !readJSON(w, r, &params) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[params.ParentNoteID]; !ok {
		writeError(w, http.StatusNotFound, "PARENT_NOTE_NOT_FOUND",
			fmt.Sprintf("Parent note '%s' not found.", params.ParentNoteID))
		return
	}
	if params.Title == "" || params.Type == "" {
		writeError(w, http.StatusBadRequest, "PROPERTY_VALIDATION_ERROR", "title and type are mandatory")
		return
	}

	id := params.NoteID
	if id == "" {
		s.nextID++
		id = fmt.Sprintf("note%04d", s.nextID)
	}
	n := &types.Note{NoteID: id, Title: params.Title, Type: params.Type, Mime: params.Mime}
	s.notes[id] = n
	s.contents[id] = params.Content
	branch := s.addBranchLocked(types.Branch{NoteID: id, ParentNoteID: params.ParentNoteID, Prefix: params.Prefix})

	writeJSON(w, http.StatusCreated, types.CreatedNote{Note: s.viewLocked(n), Branch: branch})
}

func (s *Server) handleCreateAttribute(w http.ResponseWriter, r *http.Request) {
	var attr types.Attribute
	if !readJSON(w, r, &attr) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[attr.NoteID]; !ok {
		writeNoteNotFound(w, attr.NoteID)
		return
	}
	if attr.Type != "label" && attr.Type != "relation" {
		writeError(w, http.StatusBadRequest, "PROPERTY_VALIDATION_ERROR", "type must be label or relation")
		return
	}
	s.nextID++
	attr.AttributeID = fmt.Sprintf("attr%04d", s.nextID)
	s.attributes[attr.AttributeID] = attr
	writeJSON(w, http.StatusCreated, attr)
}

func (s *Server) handlePatchAttribute(w http.ResponseWriter, r *http.Request) {
	var patch types.AttributePatch
	if !readJSON(w, r, &patch) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("attributeId")
	attr, ok := s.attributes[id]
	if !ok {
		writeError(w, http.StatusNotFound, "ATTRIBUTE_NOT_FOUND", fmt.Sprintf("Attribute '%s' not found.", id))
		return
	}
	attr.Value = patch.Value
	if patch.Position != 0 {
		attr.Position = patch.Position
	}
	s.attributes[id] = attr
	writeJSON(w, http.StatusOK, attr)
}

func (s *Server) handleDeleteAttribute(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("attributeId")
	if _, ok := s.attributes[id]; !ok {
		writeError(w, http.StatusNotFound, "ATTRIBUTE_NOT_FOUND", fmt.Sprintf("Attribute '%s' not found.", id))
		return
	}
	delete(s.attributes, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var branch types.Branch
	if !readJSON(w, r, &branch) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[branch.NoteID]; !ok {
		writeNoteNotFound(w, branch.NoteID)
		return
	}
	if _, ok := s.notes[branch.ParentNoteID]; !ok {
		writeNoteNotFound(w, branch.ParentNoteID)
		return
	}
	writeJSON(w, http.StatusCreated, s.addBranchLocked(branch))
}

func (s *Server) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("branchId")
	branch, ok := s.branches[id]
	if !ok {
		writeError(w, http.StatusNotFound, "BRANCH_NOT_FOUND", fmt.Sprintf("Branch '%s' not found.", id))
		return
	}
	delete(s.branches, id)

	stillPlaced := false
	for _, b := range s.branches {
		if b.NoteID == branch.NoteID {
			stillPlaced = true
			break
		}
	}
	if !stillPlaced {
		s.deleteNoteLocked(branch.NoteID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSearch = q
	terms := searchTerms(q.Get("search"))

	ids := make([]string, 0, len(s.notes))
	for id := range s.notes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	results := []types.Note{}
	for _, id := range ids {
		haystack := strings.ToLower(s.notes[id].Title + "\n" + s.contents[id])
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				results = append(results, s.viewLocked(s.notes[id]))
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// searchTerms extracts lowercase keywords from a query, ignoring operators
// and the content-contains syntax.
func searchTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(query) {
		f = strings.Trim(f, `()"`)
		switch strings.ToLower(f) {
		case "", "or", "and", "note.content", "*=*":
			continue
		}
		terms = append(terms, strings.ToLower(f))
	}
	return terms
}

func (s *Server) addBranchLocked(b types.Branch) types.Branch {
	b.BranchID = b.ParentNoteID + "_" + b.NoteID
	s.branches[b.BranchID] = b
	return b
}

func (s *Server) deleteNoteLocked(id string) {
	delete(s.notes, id)
	delete(s.contents, id)
	for bid, b := range s.branches {
		if b.NoteID == id || b.ParentNoteID == id {
			delete(s.branches, bid)
		}
	}
	for aid, a := range s.attributes {
		if a.NoteID == id {
			delete(s.attributes, aid)
		}
	}
}

// viewLocked returns a copy of n with its attributes and tree placement
// filled in.
func (s *Server) viewLocked(n *types.Note) types.Note {
	v := *n
	v.Attributes = nil
	v.ParentNoteIDs, v.ParentBranchIDs = nil, nil
	v.ChildNoteIDs, v.ChildBranchIDs = nil, nil

	for _, a := range s.attributes {
		if a.NoteID == n.NoteID {
			v.Attributes = append(v.Attributes, a)
		}
	}
	slices.SortFunc(v.Attributes, func(a, b types.Attribute) int {
		return strings.Compare(a.AttributeID, b.AttributeID)
	})

	for _, b := range s.branches {
		if b.NoteID == n.NoteID {
			v.ParentNoteIDs = append(v.ParentNoteIDs, b.ParentNoteID)
			v.ParentBranchIDs = append(v.ParentBranchIDs, b.BranchID)
		}
		if b.ParentNoteID == n.NoteID {
			v.ChildNoteIDs = append(v.ChildNoteIDs, b.NoteID)
			v.ChildBranchIDs = append(v.ChildBranchIDs, b.BranchID)
		}
	}
	slices.Sort(v.ParentNoteIDs)
	slices.Sort(v.ParentBranchIDs)
	slices.Sort(v.ChildNoteIDs)
	slices.Sort(v.ChildBranchIDs)
	return v
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"status": status, "code": code, "message": message})
}

func writeNoteNotFound(w http.ResponseWriter, id string) {
	writeError(w, http.StatusNotFound, "NOTE_NOT_FOUND", fmt.Sprintf("Note '%s' not found.", id))
}
