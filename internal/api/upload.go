package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

// AssetKind selects the upload endpoint and multipart field for an asset.
type AssetKind int

const (
	AssetImage AssetKind = iota
	AssetAudio
)

func (k AssetKind) String() string {
	if k == AssetAudio {
		return "audio"
	}
	return "image"
}

// FieldName is the single multipart field the catalog expects.
func (k AssetKind) FieldName() string {
	if k == AssetAudio {
		return "song"
	}
	return "image"
}

func (k AssetKind) endpoint() string {
	if k == AssetAudio {
		return "/uploadSong"
	}
	return "/uploadImage"
}

// Asset is a stored upload. Path is what the catalog returned; URL is the
// fully-qualified remote path written into forms.
type Asset struct {
	Path string `json:"path"`
	URL  string `json:"-"`
}

// ProgressUpdate carries upload progress information.
type ProgressUpdate struct {
	BytesSent  int64
	TotalBytes int64
}

// ProgressFunc receives throttled progress updates while a file is sent.
type ProgressFunc func(ProgressUpdate)

// UploadRequest describes one asset upload.
type UploadRequest struct {
	Kind     AssetKind
	File     string
	TaskID   string
	Progress ProgressFunc
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload streams a local file to the catalog as a one-part multipart body.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (Asset, error) {
	asset, err := c.upload(ctx, req)
	if err != nil {
		return Asset{}, &UploadError{Kind: req.Kind, File: req.File, Err: err}
	}
	return asset, nil
}

func (c *Client) upload(ctx context.Context, ur UploadRequest) (Asset, error) {
	f, err := os.Open(ur.File)
	if err != nil {
		return Asset{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Asset{}, fmt.Errorf("stat file: %w", err)
	}
	contentType, err := sniffContentType(f)
	if err != nil {
		return Asset{}, err
	}

	op := "upload " + ur.Kind.String()
	endpoint := c.baseURL + ur.Kind.endpoint()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.Close()
		return Asset{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if ur.TaskID != "" {
		req.Header.Set("X-Upload-Id", ur.TaskID)
	}

	go func() {
		pw.CloseWithError(writePart(mw, ur.Kind.FieldName(), filepath.Base(ur.File), contentType, f, info.Size(), ur.Progress))
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return Asset{}, &TransportError{Op: op, Method: http.MethodPost, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()
	// The server may answer before draining the body; unblock the writer.
	defer pr.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Asset{}, &TransportError{Op: op, Method: http.MethodPost, URL: endpoint, Status: resp.StatusCode, Err: readSnippet(resp.Body)}
	}

	var asset Asset
	if err := json.NewDecoder(resp.Body).Decode(&asset); err != nil {
		return Asset{}, &TransportError{Op: op, Method: http.MethodPost, URL: endpoint, Err: fmt.Errorf("decode %s: %w", endpoint, err)}
	}
	if strings.TrimSpace(asset.Path) == "" {
		return Asset{}, &TransportError{Op: op, Method: http.MethodPost, URL: endpoint, Err: fmt.Errorf("response carries no path")}
	}
	asset.URL = c.ResolveAsset(asset.Path)
	return asset, nil
}

func sniffContentType(f *os.File) (string, error) {
	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read file header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind file: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream", nil
	}
	return kind.MIME.Value, nil
}

func writePart(mw *multipart.Writer, field, filename, contentType string, src io.Reader, size int64, progress ProgressFunc) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	if _, err := copyWithProgress(part, src, size, progress); err != nil {
		return fmt.Errorf("write part: %w", err)
	}
	return mw.Close()
}

func copyWithProgress(dst io.Writer, src io.Reader, totalBytes int64, progress ProgressFunc) (int64, error) {
	buf := make([]byte, 32*1024)
	var sent int64
	var lastProgress time.Time

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			written, writeErr := dst.Write(buf[:n])
			if written > 0 {
				sent += int64(written)
			}
			if writeErr != nil {
				return sent, writeErr
			}
			if written != n {
				return sent, io.ErrShortWrite
			}

			if progress != nil {
				now := time.Now()
				if lastProgress.IsZero() || now.Sub(lastProgress) >= 250*time.Millisecond {
					progress(ProgressUpdate{BytesSent: sent, TotalBytes: totalBytes})
					lastProgress = now
				}
			}
		}

		if readErr != nil {
			if readErr == io.EOF {
				if progress != nil {
					progress(ProgressUpdate{BytesSent: sent, TotalBytes: totalBytes})
				}
				return sent, nil
			}
			return sent, readErr
		}
	}
}
