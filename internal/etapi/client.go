// Package etapi is a client for the Trilium ETAPI REST interface.
package etapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/taigrr/trilium-mcp/internal/types"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

// Client talks to a single Trilium server.
type Client struct {
	serverURL  string
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client for the server at serverURL, authenticating with an
// ETAPI token. serverURL may include the /etapi suffix or not.
func New(serverURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", serverURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", serverURL)
	}

	server := strings.TrimSuffix(strings.TrimRight(u.String(), "/"), "/etapi")
	c := &Client{
		serverURL:  server,
		baseURL:    server + "/etapi",
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ServerURL returns the server root, without the /etapi suffix.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// GetNote fetches a note's metadata.
func (c *Client) GetNote(ctx context.Context, noteID string) (types.Note, error) {
	var note types.Note
	err := c.doJSON(ctx, http.MethodGet, "/notes/"+url.PathEscape(noteID), nil, nil, &note)
	return note, err
}

// GetContent fetches a note's content as stored.
func (c *Client) GetContent(ctx context.Context, noteID string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/notes/"+url.PathEscape(noteID)+"/content", nil, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read content of note %s: %w", noteID, err)
	}
	return string(body), nil
}

// PutContent replaces a note's content.
func (c *Client) PutContent(ctx context.Context, noteID, content string) error {
	resp, err := c.do(ctx, http.MethodPut, "/notes/"+url.PathEscape(noteID)+"/content", nil,
		strings.NewReader(content), "text/plain; charset=utf-8")
	if err != nil {
		return err
	}
	return drain(resp)
}

// CreateNote creates a note under params.ParentNoteID.
func (c *Client) CreateNote(ctx context.Context, params types.CreateNoteParams) (types.CreatedNote, error) {
	var created types.CreatedNote
	err := c.doJSON(ctx, http.MethodPost, "/create-note", nil, params, &created)
	return created, err
}

// PatchNote updates a note's title, type or mime.
func (c *Client) PatchNote(ctx context.Context, noteID string, patch types.NotePatch) (types.Note, error) {
	var note types.Note
	err := c.doJSON(ctx, http.MethodPatch, "/notes/"+url.PathEscape(noteID), nil, patch, &note)
	return note, err
}

// DeleteNote deletes a note and all its branches.
func (c *Client) DeleteNote(ctx context.Context, noteID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/notes/"+url.PathEscape(noteID), nil, nil, nil)
}

// CreateRevision snapshots the note's current content as a revision.
func (c *Client) CreateRevision(ctx context.Context, noteID string) error {
	return c.doJSON(ctx, http.MethodPost, "/notes/"+url.PathEscape(noteID)+"/revision", nil, nil, nil)
}

// SearchNotes runs a search query. The query is sent verbatim.
func (c *Client) SearchNotes(ctx context.Context, params types.SearchParams) ([]types.Note, error) {
	q := url.Values{}
	q.Set("search", params.Query)
	if params.FastSearch {
		q.Set("fastSearch", "true")
	}
	if params.IncludeArchivedNotes {
		q.Set("includeArchivedNotes", "true")
	}
	if params.AncestorNoteID != "" {
		q.Set("ancestorNoteId", params.AncestorNoteID)
	}
	if params.AncestorDepth != "" {
		q.Set("ancestorDepth", params.AncestorDepth)
	}
	if params.OrderBy != "" {
		q.Set("orderBy", params.OrderBy)
	}
	if params.OrderDirection != "" {
		q.Set("orderDirection", params.OrderDirection)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}

	var out struct {
		Results []types.Note `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/notes", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// CreateAttribute adds a label or relation to a note.
func (c *Client) CreateAttribute(ctx context.Context, attr types.Attribute) (types.Attribute, error) {
	var created types.Attribute
	err := c.doJSON(ctx, http.MethodPost, "/attributes", nil, attr, &created)
	return created, err
}

// PatchAttribute changes an attribute's value or position.
func (c *Client) PatchAttribute(ctx context.Context, attributeID string, patch types.AttributePatch) (types.Attribute, error) {
	var attr types.Attribute
	err := c.doJSON(ctx, http.MethodPatch, "/attributes/"+url.PathEscape(attributeID), nil, patch, &attr)
	return attr, err
}

// DeleteAttribute removes an attribute.
func (c *Client) DeleteAttribute(ctx context.Context, attributeID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/attributes/"+url.PathEscape(attributeID), nil, nil, nil)
}

// CreateBranch places a note under an additional parent.
func (c *Client) CreateBranch(ctx context.Context, branch types.Branch) (types.Branch, error) {
	var created types.Branch
	err := c.doJSON(ctx, http.MethodPost, "/branches", nil, branch, &created)
	return created, err
}

// DeleteBranch removes a placement. Trilium deletes the note itself when its
// last branch goes.
func (c *Client) DeleteBranch(ctx context.Context, branchID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/branches/"+url.PathEscape(branchID), nil, nil, nil)
}

// AppInfo returns server version information.
func (c *Client) AppInfo(ctx context.Context) (types.AppInfo, error) {
	var info types.AppInfo
	err := c.doJSON(ctx, http.MethodGet, "/app-info", nil, nil, &info)
	return info, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return drain(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// do sends a request and returns the response for any 2xx status. Other
// statuses are converted to *Error and the body is closed.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("etapi request")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, decodeError(method, path, resp)
}

func drain(resp *http.Response) error {
	defer resp.Body.Close()
	_, err := io.Copy(io.Discard, resp.Body)
	return err
}
