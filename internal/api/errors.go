package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a non-2xx response. Body holds the raw response text.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.Code, msg)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if se, ok := errors.AsType[*StatusError](err); ok {
		return se.Code
	}
	return 0
}

// Message turns err into text suitable for a page or a toast.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if se, ok := errors.AsType[*StatusError](err); ok {
		if body := errorBody(se.Body); body != "" {
			return fmt.Sprintf("HTTP %d: %s", se.Code, body)
		}
		return fmt.Sprintf("HTTP %d", se.Code)
	}
	if _, ok := errors.AsType[*TransportError](err); ok {
		return "Backend unreachable: " + err.Error()
	}
	return err.Error()
}
