package main

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/taigrr/trilium-mcp/internal/search"
	"github.com/taigrr/trilium-mcp/internal/types"
)

const defaultContextLines = 2

// logCall records a finished tool call.
func logCall(tool string, start time.Time, fields logrus.Fields, err error) {
	entry := logger.WithFields(fields).WithFields(logrus.Fields{
		"tool":     tool,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("tool call failed")
		return
	}
	entry.Info("tool call")
}

func contextLines(n int) int {
	if n <= 0 {
		return defaultContextLines
	}
	return n
}

func handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	start := time.Now()
	resp, err := searchService.Search(ctx, types.SearchParams{
		Query:                input.Query,
		FastSearch:           input.FastSearch,
		IncludeArchivedNotes: input.IncludeArchivedNotes,
		AncestorNoteID:       strings.TrimSpace(input.AncestorNoteID),
		AncestorDepth:        input.AncestorDepth,
		OrderBy:              input.OrderBy,
		OrderDirection:       input.OrderDirection,
		Limit:                input.Limit,
	})
	logCall("search_notes", start, logrus.Fields{"query": input.Query, "effective": resp.Query}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Query:   resp.Query,
		Results: resp.Results,
		Hidden:  resp.Hidden,
	}, nil
}

func handleGrep(ctx context.Context, req *mcp.CallToolRequest, input GrepInput) (*mcp.CallToolResult, GrepOutput, error) {
	start := time.Now()
	results, err := searchService.Grep(ctx, types.GrepParams{
		Search: types.SearchParams{Query: input.Query, Limit: input.Limit},
		Find: types.FindParams{
			Pattern:       input.Pattern,
			UseRegex:      input.UseRegex,
			CaseSensitive: input.CaseSensitive,
			ContextLines:  contextLines(input.ContextLines),
		},
	})
	logCall("grep_notes", start, logrus.Fields{"query": input.Query, "notes": len(results)}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, GrepOutput{}, err
	}

	return nil, GrepOutput{Results: results}, nil
}

func handleGet(ctx context.Context, req *mcp.CallToolRequest, input GetInput) (*mcp.CallToolResult, GetOutput, error) {
	start := time.Now()
	noteID := strings.TrimSpace(input.NoteID)
	note, err := noteService.Read(ctx, noteID)
	logCall("get_note", start, logrus.Fields{"noteId": noteID}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, GetOutput{}, err
	}

	lines := strings.Split(note.Content, "\n")
	totalLines := len(lines)
	output := GetOutput{
		Note:       note.Note,
		TotalLines: totalLines,
		URL:        note.URL,
	}

	if input.Find != "" {
		matches, err := search.FindInContent(note.Content, types.FindParams{
			Pattern:       input.Find,
			UseRegex:      input.UseRegex,
			CaseSensitive: input.CaseSensitive,
			ContextLines:  contextLines(input.ContextLines),
		})
		if err != nil {
			return &mcp.CallToolResult{IsError: true}, GetOutput{}, err
		}
		output.Matches = matches
		return nil, output, nil
	}

	offset := max(input.Offset, 0)
	if offset >= totalLines {
		output.Truncated = true
		return nil, output, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = totalLines
	}

	endIdx := offset + limit
	if endIdx >= totalLines {
		endIdx = totalLines
	} else {
		output.Truncated = true
	}

	output.Content = strings.Join(lines[offset:endIdx], "\n")
	return nil, output, nil
}

func handleCreate(ctx context.Context, req *mcp.CallToolRequest, input CreateInput) (*mcp.CallToolResult, CreateOutput, error) {
	start := time.Now()
	result, err := noteService.Create(ctx, types.CreateParams{
		ParentNoteID: input.ParentNoteID,
		Title:        input.Title,
		Type:         input.Type,
		Mime:         input.Mime,
		Content:      input.Content,
		Format:       input.Format,
	})
	logCall("create_note", start, logrus.Fields{"parent": input.ParentNoteID, "noteId": result.Note.NoteID}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, CreateOutput{}, err
	}

	return nil, CreateOutput{
		NoteID:   result.Note.NoteID,
		Title:    result.Note.Title,
		BranchID: result.Branch.BranchID,
		Labels:   result.Labels,
		URL:      result.URL,
	}, nil
}

func handleUpdate(ctx context.Context, req *mcp.CallToolRequest, input UpdateInput) (*mcp.CallToolResult, UpdateOutput, error) {
	start := time.Now()
	noteID := strings.TrimSpace(input.NoteID)
	result, err := noteService.Update(ctx, types.UpdateParams{
		NoteID:         noteID,
		Content:        input.Content,
		Edits:          input.Edits,
		Patch:          input.Patch,
		Format:         input.Format,
		CreateRevision: input.CreateRevision,
	})
	logCall("update_note", start, logrus.Fields{"noteId": noteID, "mode": result.Mode, "edits": len(input.Edits)}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, UpdateOutput{NoteID: noteID}, err
	}

	return nil, UpdateOutput{
		NoteID:   result.NoteID,
		Mode:     result.Mode,
		Changed:  result.Changed,
		Verified: result.Verified,
		Inserted: result.Inserted,
		Deleted:  result.Deleted,
		Diff:     result.Diff,
	}, nil
}

func handleRename(ctx context.Context, req *mcp.CallToolRequest, input RenameInput) (*mcp.CallToolResult, RenameOutput, error) {
	start := time.Now()
	noteID := strings.TrimSpace(input.NoteID)
	note, err := noteService.Rename(ctx, noteID, input.Title)
	logCall("rename_note", start, logrus.Fields{"noteId": noteID}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, RenameOutput{NoteID: noteID}, err
	}

	return nil, RenameOutput{NoteID: note.NoteID, Title: note.Title}, nil
}

func handleMove(ctx context.Context, req *mcp.CallToolRequest, input MoveInput) (*mcp.CallToolResult, MoveOutput, error) {
	start := time.Now()
	noteID := strings.TrimSpace(input.NoteID)
	result, err := noteService.Move(ctx, types.MoveParams{
		NoteID:          noteID,
		OldParentNoteID: strings.TrimSpace(input.OldParentNoteID),
		NewParentNoteID: strings.TrimSpace(input.NewParentNoteID),
		Prefix:          input.Prefix,
	})
	logCall("move_note", start, logrus.Fields{"noteId": noteID, "parent": input.NewParentNoteID}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, MoveOutput{NoteID: noteID}, err
	}

	return nil, MoveOutput{
		NoteID:          result.NoteID,
		OldParentNoteID: result.OldParentNoteID,
		NewParentNoteID: result.NewParentNoteID,
		BranchID:        result.BranchID,
	}, nil
}

func handleDelete(ctx context.Context, req *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	start := time.Now()
	noteID := strings.TrimSpace(input.NoteID)
	err := noteService.Delete(ctx, noteID, strings.TrimSpace(input.Confirm))
	logCall("delete_note", start, logrus.Fields{"noteId": noteID}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, DeleteOutput{Success: false, NoteID: noteID}, err
	}

	return nil, DeleteOutput{Success: true, NoteID: noteID}, nil
}

func handleSetAttribute(ctx context.Context, req *mcp.CallToolRequest, input SetAttributeInput) (*mcp.CallToolResult, SetAttributeOutput, error) {
	start := time.Now()
	noteID := strings.TrimSpace(input.NoteID)
	attr, err := noteService.SetAttribute(ctx, types.Attribute{
		NoteID:        noteID,
		Type:          input.Type,
		Name:          strings.TrimLeft(input.Name, "#~"),
		Value:         input.Value,
		Position:      input.Position,
		IsInheritable: input.IsInheritable,
	})
	logCall("set_attribute", start, logrus.Fields{"noteId": noteID, "name": input.Name}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, SetAttributeOutput{}, err
	}

	return nil, SetAttributeOutput{Attribute: attr}, nil
}

func handleDeleteAttribute(ctx context.Context, req *mcp.CallToolRequest, input DeleteAttributeInput) (*mcp.CallToolResult, DeleteAttributeOutput, error) {
	start := time.Now()
	noteID := strings.TrimSpace(input.NoteID)
	id, err := noteService.DeleteAttribute(ctx, noteID, input.Type, strings.TrimLeft(input.Name, "#~"))
	logCall("delete_attribute", start, logrus.Fields{"noteId": noteID, "name": input.Name}, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, DeleteAttributeOutput{}, err
	}

	return nil, DeleteAttributeOutput{Success: true, AttributeID: id}, nil
}

func handleAppInfo(ctx context.Context, req *mcp.CallToolRequest, input AppInfoInput) (*mcp.CallToolResult, AppInfoOutput, error) {
	start := time.Now()
	info, err := noteService.AppInfo(ctx)
	logCall("app_info", start, nil, err)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, AppInfoOutput{}, err
	}

	return nil, AppInfoOutput{
		AppVersion:  info.AppVersion,
		DBVersion:   info.DBVersion,
		SyncVersion: info.SyncVersion,
		BuildDate:   info.BuildDate,
		ServerTime:  info.UTCDateTime,
	}, nil
}
