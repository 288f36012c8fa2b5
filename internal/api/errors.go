package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// TransportError reports a failed catalog call: the request never completed,
// the status was not 2xx, or the body could not be decoded.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		msg := fmt.Sprintf("%s: %s %s: unexpected status %d", e.Op, e.Method, e.URL, e.Status)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UploadError reports a failed asset upload.
type UploadError struct {
	Kind AssetKind
	File string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s %q: %v", e.Kind, e.File, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the catalog.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// readSnippet keeps the head of an error body so failures are readable in the
// log without dumping whole pages.
func readSnippet(r io.Reader) error {
	b, err := io.ReadAll(io.LimitReader(r, 256))
	if err != nil {
		return nil
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return nil
	}
	return errors.New(s)
}
