// Package notes reads and changes notes on the remote store.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/taigrr/trilium-mcp/internal/content"
	"github.com/taigrr/trilium-mcp/internal/diff"
	"github.com/taigrr/trilium-mcp/internal/etapi"
	"github.com/taigrr/trilium-mcp/internal/frontmatter"
	"github.com/taigrr/trilium-mcp/internal/markup"
	"github.com/taigrr/trilium-mcp/internal/notefilter"
	"github.com/taigrr/trilium-mcp/internal/types"
	"github.com/taigrr/trilium-mcp/internal/uri"
)

// RootNoteID is the ID of the tree root, which cannot be deleted or moved.
const RootNoteID = "root"

// Service provides note operations against a Trilium server.
type Service struct {
	client             *etapi.Client
	noteFilter         *notefilter.NoteFilter
	frontmatterHandler *frontmatter.Handler
	converter          *markup.Converter
	logger             logrus.FieldLogger
}

// New creates a new Service. nf and fh may be nil to use defaults.
func New(client *etapi.Client, nf *notefilter.NoteFilter, fh *frontmatter.Handler, logger logrus.FieldLogger) *Service {
	if nf == nil {
		nf, _ = notefilter.New(nil)
	}
	if fh == nil {
		fh = frontmatter.New()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		client:             client,
		noteFilter:         nf,
		frontmatterHandler: fh,
		converter:          markup.New(),
		logger:             logger,
	}
}

// Read returns a note's metadata, content and web link.
func (s *Service) Read(ctx context.Context, noteID string) (types.NoteWithContent, error) {
	note, err := s.fetchNote(ctx, noteID)
	if err != nil {
		return types.NoteWithContent{}, err
	}
	if note.IsProtected {
		return types.NoteWithContent{}, fmt.Errorf("note %s is protected; its content cannot be read through ETAPI", noteID)
	}

	body, err := s.client.GetContent(ctx, noteID)
	if err != nil {
		return types.NoteWithContent{}, fmt.Errorf("failed to read content of note %s: %w", noteID, err)
	}

	return types.NoteWithContent{
		Note:    note,
		Content: body,
		URL:     uri.NoteURL(s.client.ServerURL(), noteID),
	}, nil
}

// Update changes a note's content by full replacement, search/replace edits
// or a unified diff. Nothing is written when any edit or hunk fails, or when
// the result equals the current content. Edits are verified by reading the
// note back after the write.
func (s *Service) Update(ctx context.Context, params types.UpdateParams) (types.UpdateResult, error) {
	start := time.Now()

	req, err := content.NewRequest(params.Content, params.Edits, params.Patch)
	if err != nil {
		return types.UpdateResult{}, err
	}
	format, err := markup.ValidateFormat(params.Format)
	if err != nil {
		return types.UpdateResult{}, err
	}

	note, err := s.fetchNote(ctx, params.NoteID)
	if err != nil {
		return types.UpdateResult{}, err
	}
	if err := s.noteFilter.CheckEditable(note); err != nil {
		return types.UpdateResult{}, err
	}

	existing, err := s.client.GetContent(ctx, note.NoteID)
	if err != nil {
		return types.UpdateResult{}, fmt.Errorf("failed to read content of note %s: %w", note.NoteID, err)
	}

	var convert content.ConvertFunc
	if format == markup.FormatMarkdown && note.Type == "text" {
		convert = s.converter.ToHTML
	}

	updated, err := content.Resolve(existing, req, convert)
	if err != nil {
		return types.UpdateResult{}, err
	}

	result := types.UpdateResult{
		NoteID: note.NoteID,
		Mode:   req.Mode().String(),
	}
	if updated == existing {
		s.logger.WithFields(logrus.Fields{
			"noteId": note.NoteID,
			"mode":   result.Mode,
		}).Info("note unchanged, write skipped")
		return result, nil
	}

	if params.CreateRevision {
		if err := s.client.CreateRevision(ctx, note.NoteID); err != nil {
			return types.UpdateResult{}, fmt.Errorf("failed to create revision of note %s: %w", note.NoteID, err)
		}
	}
	if err := s.client.PutContent(ctx, note.NoteID, updated); err != nil {
		return types.UpdateResult{}, fmt.Errorf("failed to write content of note %s: %w", note.NoteID, err)
	}

	persisted := updated
	if req.Mode() == content.ModeEdits {
		persisted, err = s.client.GetContent(ctx, note.NoteID)
		if err != nil {
			return types.UpdateResult{}, fmt.Errorf("failed to read back note %s: %w", note.NoteID, err)
		}
		if err := content.VerifyReadback(persisted, req.Edits()); err != nil {
			s.logger.WithField("noteId", note.NoteID).WithError(err).Warn("read-back verification failed")
			return types.UpdateResult{}, err
		}
		result.Verified = true
	}

	change := diff.Compute(existing, persisted, note.NoteID)
	result.Changed = change.Changed()
	result.Inserted = change.Inserted
	result.Deleted = change.Deleted
	result.Diff = change.Unified

	s.logger.WithFields(logrus.Fields{
		"noteId":   note.NoteID,
		"mode":     result.Mode,
		"inserted": result.Inserted,
		"deleted":  result.Deleted,
		"duration": time.Since(start).String(),
	}).Info("note updated")

	return result, nil
}

// Create creates a note. Markdown input is rendered to HTML for text notes,
// and its frontmatter becomes labels, with a "title" key standing in for a
// missing title.
func (s *Service) Create(ctx context.Context, params types.CreateParams) (types.CreateResult, error) {
	parentID := strings.TrimSpace(params.ParentNoteID)
	if parentID == "" {
		parentID = RootNoteID
	}
	if !s.noteFilter.IsAllowed(parentID) {
		return types.CreateResult{}, fmt.Errorf("access denied: %s", parentID)
	}

	format, err := markup.ValidateFormat(params.Format)
	if err != nil {
		return types.CreateResult{}, err
	}

	noteType := params.Type
	if noteType == "" {
		noteType = "text"
	}
	title := strings.TrimSpace(params.Title)
	body := params.Content

	var labels []types.Attribute
	if format == markup.FormatMarkdown {
		doc := s.frontmatterHandler.Parse(body)
		labels, err = s.frontmatterHandler.Labels(doc.Frontmatter)
		if err != nil {
			return types.CreateResult{}, err
		}
		if title == "" {
			title = s.frontmatterHandler.Title(doc.Frontmatter)
		}
		body = doc.Body
		if noteType == "text" {
			body, err = s.converter.ToHTML(body)
			if err != nil {
				return types.CreateResult{}, err
			}
		}
	}
	if title == "" {
		return types.CreateResult{}, errors.New("title is required")
	}

	created, err := s.client.CreateNote(ctx, types.CreateNoteParams{
		ParentNoteID: parentID,
		Title:        title,
		Type:         noteType,
		Mime:         params.Mime,
		Content:      body,
	})
	if err != nil {
		if etapi.IsNotFound(err) {
			return types.CreateResult{}, fmt.Errorf("parent note not found: %s", parentID)
		}
		return types.CreateResult{}, fmt.Errorf("failed to create note: %w", err)
	}

	result := types.CreateResult{
		Note:   created.Note,
		Branch: created.Branch,
		URL:    uri.NoteURL(s.client.ServerURL(), created.Note.NoteID),
	}
	for _, label := range labels {
		label.NoteID = created.Note.NoteID
		attr, err := s.client.CreateAttribute(ctx, label)
		if err != nil {
			return result, fmt.Errorf("note %s created but label %q failed: %w", created.Note.NoteID, label.Name, err)
		}
		result.Labels = append(result.Labels, attr)
	}

	s.logger.WithFields(logrus.Fields{
		"noteId": created.Note.NoteID,
		"parent": parentID,
		"labels": len(result.Labels),
	}).Info("note created")

	return result, nil
}

// Rename changes a note's title.
func (s *Service) Rename(ctx context.Context, noteID, title string) (types.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.Note{}, errors.New("title is required")
	}
	if !s.noteFilter.IsAllowed(noteID) {
		return types.Note{}, fmt.Errorf("access denied: %s", noteID)
	}

	note, err := s.client.PatchNote(ctx, noteID, types.NotePatch{Title: title})
	if err != nil {
		return types.Note{}, s.wrapNoteError(noteID, "rename", err)
	}
	return note, nil
}

// Move places a note under a new parent and removes it from the old one.
// The new branch is created first so the note is never left without a
// parent.
func (s *Service) Move(ctx context.Context, params types.MoveParams) (types.MoveResult, error) {
	if params.NoteID == RootNoteID {
		return types.MoveResult{}, errors.New("the root note cannot be moved")
	}
	if !s.noteFilter.IsAllowed(params.NewParentNoteID) {
		return types.MoveResult{}, fmt.Errorf("access denied: %s", params.NewParentNoteID)
	}

	note, err := s.fetchNote(ctx, params.NoteID)
	if err != nil {
		return types.MoveResult{}, err
	}

	oldParent := params.OldParentNoteID
	if oldParent == "" {
		if len(note.ParentNoteIDs) != 1 {
			return types.MoveResult{}, fmt.Errorf("note %s has %d parents (%s); specify which one to move from",
				note.NoteID, len(note.ParentNoteIDs), strings.Join(note.ParentNoteIDs, ", "))
		}
		oldParent = note.ParentNoteIDs[0]
	}
	oldBranch := ""
	for i, p := range note.ParentNoteIDs {
		if p == oldParent && i < len(note.ParentBranchIDs) {
			oldBranch = note.ParentBranchIDs[i]
		}
		if p == params.NewParentNoteID {
			return types.MoveResult{}, fmt.Errorf("note %s is already under %s", note.NoteID, p)
		}
	}
	if oldBranch == "" {
		return types.MoveResult{}, fmt.Errorf("note %s is not under %s", note.NoteID, oldParent)
	}

	branch, err := s.client.CreateBranch(ctx, types.Branch{
		NoteID:       note.NoteID,
		ParentNoteID: params.NewParentNoteID,
		Prefix:       params.Prefix,
	})
	if err != nil {
		if etapi.IsNotFound(err) {
			return types.MoveResult{}, fmt.Errorf("note not found: %s", params.NewParentNoteID)
		}
		return types.MoveResult{}, fmt.Errorf("failed to place note %s under %s: %w", note.NoteID, params.NewParentNoteID, err)
	}
	if err := s.client.DeleteBranch(ctx, oldBranch); err != nil {
		return types.MoveResult{}, fmt.Errorf("note %s now also under %s but removing it from %s failed: %w",
			note.NoteID, params.NewParentNoteID, oldParent, err)
	}

	return types.MoveResult{
		NoteID:          note.NoteID,
		OldParentNoteID: oldParent,
		NewParentNoteID: params.NewParentNoteID,
		BranchID:        branch.BranchID,
	}, nil
}

// Delete deletes a note and its subtree. confirm must repeat the note ID.
func (s *Service) Delete(ctx context.Context, noteID, confirm string) error {
	if confirm != noteID {
		return fmt.Errorf("deletion not confirmed: confirm must equal the note ID %q", noteID)
	}
	if noteID == RootNoteID {
		return errors.New("the root note cannot be deleted")
	}
	if !s.noteFilter.IsAllowed(noteID) {
		return fmt.Errorf("access denied: %s", noteID)
	}

	if err := s.client.DeleteNote(ctx, noteID); err != nil {
		return s.wrapNoteError(noteID, "delete", err)
	}
	s.logger.WithField("noteId", noteID).Info("note deleted")
	return nil
}

// SetAttribute creates a label or relation, or changes the value of the
// first existing one with the same type and name.
func (s *Service) SetAttribute(ctx context.Context, attr types.Attribute) (types.Attribute, error) {
	if attr.Type == "" {
		attr.Type = "label"
	}
	if attr.Type != "label" && attr.Type != "relation" {
		return types.Attribute{}, fmt.Errorf("attribute type must be label or relation, got %q", attr.Type)
	}
	attr.Name = strings.TrimSpace(attr.Name)
	if attr.Name == "" {
		return types.Attribute{}, errors.New("attribute name is required")
	}
	if attr.Type == "relation" && attr.Value == "" {
		return types.Attribute{}, errors.New("a relation needs the target note ID as its value")
	}

	note, err := s.fetchNote(ctx, attr.NoteID)
	if err != nil {
		return types.Attribute{}, err
	}

	if existing, ok := findAttribute(note, attr.Type, attr.Name); ok {
		updated, err := s.client.PatchAttribute(ctx, existing.AttributeID, types.AttributePatch{
			Value:    attr.Value,
			Position: attr.Position,
		})
		if err != nil {
			return types.Attribute{}, fmt.Errorf("failed to update %s %q: %w", attr.Type, attr.Name, err)
		}
		return updated, nil
	}

	created, err := s.client.CreateAttribute(ctx, attr)
	if err != nil {
		return types.Attribute{}, fmt.Errorf("failed to create %s %q: %w", attr.Type, attr.Name, err)
	}
	return created, nil
}

// DeleteAttribute removes the first attribute of the given type and name
// and returns its ID.
func (s *Service) DeleteAttribute(ctx context.Context, noteID, attrType, name string) (string, error) {
	if attrType == "" {
		attrType = "label"
	}
	note, err := s.fetchNote(ctx, noteID)
	if err != nil {
		return "", err
	}

	existing, ok := findAttribute(note, attrType, name)
	if !ok {
		return "", fmt.Errorf("note %s has no %s named %q", noteID, attrType, name)
	}
	if err := s.client.DeleteAttribute(ctx, existing.AttributeID); err != nil {
		return "", fmt.Errorf("failed to delete %s %q: %w", attrType, name, err)
	}
	return existing.AttributeID, nil
}

// AppInfo returns information about the connected server.
func (s *Service) AppInfo(ctx context.Context) (types.AppInfo, error) {
	info, err := s.client.AppInfo(ctx)
	if err != nil {
		return types.AppInfo{}, fmt.Errorf("failed to reach Trilium: %w", err)
	}
	return info, nil
}

func (s *Service) fetchNote(ctx context.Context, noteID string) (types.Note, error) {
	noteID = strings.TrimSpace(noteID)
	if noteID == "" {
		return types.Note{}, errors.New("note ID is required")
	}
	if !s.noteFilter.IsAllowed(noteID) {
		return types.Note{}, fmt.Errorf("access denied: %s", noteID)
	}

	note, err := s.client.GetNote(ctx, noteID)
	if err != nil {
		return types.Note{}, s.wrapNoteError(noteID, "read", err)
	}
	return note, nil
}

func (s *Service) wrapNoteError(noteID, action string, err error) error {
	if etapi.IsNotFound(err) {
		return fmt.Errorf("note not found: %s", noteID)
	}
	return fmt.Errorf("failed to %s note %s: %w", action, noteID, err)
}

func findAttribute(note types.Note, attrType, name string) (types.Attribute, bool) {
	for _, a := range note.Attributes {
		if a.Type == attrType && a.Name == name {
			return a, true
		}
	}
	return types.Attribute{}, false
}
