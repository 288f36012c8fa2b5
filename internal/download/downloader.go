// Package download fetches remote catalog assets into a scratch directory so
// they can be previewed locally.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// DefaultMaxBytes caps a single preview download.
const DefaultMaxBytes = 32 << 20

// ErrTooLarge is returned when an asset exceeds the download cap.
var ErrTooLarge = errors.New("asset exceeds preview size limit")

// Result describes a completed download.
type Result struct {
	Path         string
	ContentType  string
	BytesWritten int64
	Duration     time.Duration
}

// Downloader streams assets from the catalog.
type Downloader struct {
	httpClient *http.Client
	dir        string

	// Resolve turns a stored asset value into a URL. Nil leaves values as-is.
	Resolve func(string) string
	// MaxBytes caps each download; zero means DefaultMaxBytes.
	MaxBytes int64
}

// New creates a Downloader writing into dir.
func New(httpClient *http.Client, dir string) *Downloader {
	return &Downloader{httpClient: httpClient, dir: dir}
}

// Fetch downloads the asset behind value into a fresh file in the scratch
// directory and returns its path. The caller removes the file.
func (d *Downloader) Fetch(ctx context.Context, value string) (string, error) {
	res, err := d.Download(ctx, value)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// Download fetches value and reports what was written.
func (d *Downloader) Download(ctx context.Context, value string) (Result, error) {
	started := time.Now()

	src := value
	if d.Resolve != nil {
		src = d.Resolve(value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("download %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("download %s: unexpected status %d", src, resp.StatusCode)
	}

	limit := d.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if resp.ContentLength > limit {
		return Result{}, fmt.Errorf("download %s: %w", src, ErrTooLarge)
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create scratch dir: %w", err)
	}

	out, err := os.CreateTemp(d.dir, "*-"+localName(src))
	if err != nil {
		return Result{}, fmt.Errorf("create scratch file: %w", err)
	}
	dstPath := out.Name()

	n, err := io.Copy(out, io.LimitReader(resp.Body, limit+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return Result{}, fmt.Errorf("write file %s: %w", dstPath, err)
	}

	return Result{
		Path:         dstPath,
		ContentType:  resp.Header.Get("Content-Type"),
		BytesWritten: n,
		Duration:     time.Since(started),
	}, nil
}

// localName derives a filesystem-safe file name from the URL path.
func localName(src string) string {
	name := ""
	if u, err := url.Parse(src); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = "asset"
	}
	return MakeValid(filepath.Base(name))
}
