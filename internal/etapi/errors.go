package etapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error is a non-2xx response from the server.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Code       string // ETAPI error code, e.g. NOTE_NOT_FOUND
	Message    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether the server rejected the token.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
}

func decodeError(method, path string, resp *http.Response) error {
	e := &Error{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Status  int    `json:"status"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && (body.Code != "" || body.Message != "") {
		e.Code = body.Code
		e.Message = body.Message
	} else {
		e.Message = strings.TrimSpace(string(data))
	}
	return e
}
