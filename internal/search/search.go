// Package search finds notes on the remote store and matches text within
// their content.
package search

import (
	"context"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/taigrr/trilium-mcp/internal/etapi"
	"github.com/taigrr/trilium-mcp/internal/notefilter"
	"github.com/taigrr/trilium-mcp/internal/query"
	"github.com/taigrr/trilium-mcp/internal/types"
	"github.com/taigrr/trilium-mcp/internal/uri"
)

// Result limits.
const (
	DefaultLimit = 25
	MaxLimit     = 100
	// maxGrepNotes bounds how many notes Grep fetches content for.
	maxGrepNotes = 50
)

// Service provides search over a Trilium server.
type Service struct {
	client     *etapi.Client
	noteFilter *notefilter.NoteFilter
	logger     logrus.FieldLogger
}

// New creates a new Service.
func New(client *etapi.Client, nf *notefilter.NoteFilter, logger logrus.FieldLogger) *Service {
	if nf == nil {
		nf, _ = notefilter.New(nil)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		client:     client,
		noteFilter: nf,
		logger:     logger,
	}
}

// Search runs a Trilium search. Plain keywords OR-ed with attribute filters
// are rewritten into content-contains conditions first; the query actually
// sent is returned in the response.
func (s *Service) Search(ctx context.Context, params types.SearchParams) (types.SearchResponse, error) {
	if strings.TrimSpace(params.Query) == "" {
		return types.SearchResponse{}, &SearchError{Message: "Search query cannot be empty"}
	}

	params.Query = query.Preprocess(params.Query)
	params.Limit = clampLimit(params.Limit)

	notes, err := s.client.SearchNotes(ctx, params)
	if err != nil {
		return types.SearchResponse{}, &SearchError{Message: "Search failed: " + err.Error()}
	}

	allowed, hidden := s.noteFilter.FilterNotes(notes)
	results := make([]types.SearchResult, 0, len(allowed))
	for _, n := range allowed {
		results = append(results, types.SearchResult{
			NoteID:       n.NoteID,
			Title:        n.Title,
			Type:         n.Type,
			DateModified: n.DateModified,
			URL:          uri.NoteURL(s.client.ServerURL(), n.NoteID),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"query":   params.Query,
		"results": len(results),
		"hidden":  hidden,
	}).Debug("search")

	return types.SearchResponse{
		Query:   params.Query,
		Results: results,
		Hidden:  hidden,
	}, nil
}

// Grep searches for notes, then matches params.Find against the content of
// each hit. Only notes with at least one match are returned, in search
// order.
func (s *Service) Grep(ctx context.Context, params types.GrepParams) ([]types.GrepResult, error) {
	matcher, err := compile(params.Find)
	if err != nil {
		return nil, err
	}

	if params.Search.Limit <= 0 || params.Search.Limit > maxGrepNotes {
		params.Search.Limit = maxGrepNotes
	}
	resp, err := s.Search(ctx, params.Search)
	if err != nil {
		return nil, err
	}
	hits := resp.Results

	numWorkers := max(min(runtime.NumCPU(), len(hits)), 1)

	type indexedResult struct {
		idx    int
		result types.GrepResult
	}

	resultsCh := make(chan indexedResult, len(hits))
	hitCh := make(chan int, len(hits))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for idx := range hitCh {
				hit := hits[idx]
				body, err := s.client.GetContent(ctx, hit.NoteID)
				if err != nil {
					s.logger.WithField("noteId", hit.NoteID).WithError(err).Warn("grep: skipping note")
					continue
				}
				matches := matchLines(body, matcher, params.Find.ContextLines)
				if len(matches) > 0 {
					resultsCh <- indexedResult{
						idx: idx,
						result: types.GrepResult{
							NoteID:  hit.NoteID,
							Title:   hit.Title,
							Matches: matches,
						},
					}
				}
			}
		})
	}

	for i := range hits {
		hitCh <- i
	}
	close(hitCh)

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	var indexed []indexedResult
	for r := range resultsCh {
		indexed = append(indexed, r)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Slice(indexed, func(i, j int) bool {
		return indexed[i].idx < indexed[j].idx
	})

	results := make([]types.GrepResult, 0, len(indexed))
	for _, ir := range indexed {
		results = append(results, ir.result)
	}
	return results, nil
}

// FindInContent returns the lines of content matching params.Pattern, each
// with params.ContextLines lines of surrounding context. Line numbers are
// 1-based.
func FindInContent(content string, params types.FindParams) ([]types.ContentMatch, error) {
	matcher, err := compile(params)
	if err != nil {
		return nil, err
	}
	return matchLines(content, matcher, params.ContextLines), nil
}

func compile(params types.FindParams) (*regexp.Regexp, error) {
	if strings.TrimSpace(params.Pattern) == "" {
		return nil, &SearchError{Message: "Search pattern cannot be empty"}
	}

	pattern := params.Pattern
	if !params.UseRegex {
		pattern = regexp.QuoteMeta(pattern)
	}
	if !params.CaseSensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		if params.UseRegex {
			return nil, &SearchError{Message: "Invalid regex pattern: " + err.Error()}
		}
		return nil, &SearchError{Message: "Search error: " + err.Error()}
	}
	return re, nil
}

func matchLines(content string, re *regexp.Regexp, contextLines int) []types.ContentMatch {
	contextLines = max(contextLines, 0)
	lines := strings.Split(content, "\n")

	var matches []types.ContentMatch
	for lineNum, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		startLine := max(lineNum-contextLines, 0)
		endLine := min(lineNum+contextLines+1, len(lines))
		matches = append(matches, types.ContentMatch{
			Line:    lineNum + 1,
			Context: strings.Join(lines[startLine:endLine], "\n"),
		})
	}
	return matches
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// SearchError represents a search error.
type SearchError struct {
	Message string
}

func (e *SearchError) Error() string {
	return e.Message
}
