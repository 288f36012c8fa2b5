package upload

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dhowden/tag"
	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"

	"orange-console/internal/api"
)

// ErrKindMismatch is returned when a picked file is clearly not the kind of
// asset the field accepts.
var ErrKindMismatch = errors.New("file does not match the field's asset kind")

const (
	thumbWidth  = 16
	thumbHeight = 8
)

// Preview is built from the raw local file before any network call.
type Preview struct {
	Name string
	Size int64
	MIME string

	// images
	Width  int
	Height int
	thumb  *image.NRGBA

	// audio
	Title  string
	Artist string
	Format string
}

// BuildPreview reads path and describes it for display.
func BuildPreview(path string, kind api.AssetKind) (Preview, error) {
	f, err := os.Open(path)
	if err != nil {
		return Preview{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Preview{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Preview{}, fmt.Errorf("%s is a directory", path)
	}

	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Preview{}, fmt.Errorf("read %s: %w", path, err)
	}
	head = head[:n]

	p := Preview{Name: filepath.Base(path), Size: info.Size()}
	if t, err := filetype.Match(head); err == nil && t != filetype.Unknown {
		p.MIME = t.MIME.Value
	}

	switch kind {
	case api.AssetImage:
		if filetype.IsAudio(head) || filetype.IsVideo(head) {
			return Preview{}, fmt.Errorf("%s: %w", p.Name, ErrKindMismatch)
		}
		img, err := imaging.Open(path)
		if err != nil {
			return Preview{}, fmt.Errorf("decode image %s: %w", p.Name, err)
		}
		b := img.Bounds()
		p.Width, p.Height = b.Dx(), b.Dy()
		p.thumb = imaging.Thumbnail(img, thumbWidth, thumbHeight, imaging.Box)

	case api.AssetAudio:
		if filetype.IsImage(head) || filetype.IsDocument(head) || filetype.IsArchive(head) {
			return Preview{}, fmt.Errorf("%s: %w", p.Name, ErrKindMismatch)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return Preview{}, fmt.Errorf("rewind %s: %w", path, err)
		}
		// Untagged audio is fine; the preview just has fewer details.
		if m, err := tag.ReadFrom(f); err == nil {
			p.Title = m.Title()
			p.Artist = m.Artist()
			p.Format = string(m.FileType())
		}
	}

	return p, nil
}

// Summary is a one-line description of the file.
func (p Preview) Summary() string {
	parts := []string{p.Name, humanize.Bytes(uint64(max(p.Size, 0)))}
	if p.Width > 0 && p.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", p.Width, p.Height))
	}
	if p.Format != "" {
		parts = append(parts, p.Format)
	} else if p.MIME != "" {
		parts = append(parts, p.MIME)
	}
	if p.Title != "" {
		label := p.Title
		if p.Artist != "" {
			label = p.Artist + " - " + p.Title
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " · ")
}

// Thumbnail renders the image preview with two-space cells painted in the
// pixel colors. It is empty for non-image previews.
func (p Preview) Thumbnail() string {
	if p.thumb == nil {
		return ""
	}
	b := p.thumb.Bounds()
	rows := make([]string, 0, b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		var row strings.Builder
		for x := b.Min.X; x < b.Max.X; x++ {
			c := p.thumb.NRGBAAt(x, y)
			hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
			row.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  "))
		}
		rows = append(rows, row.String())
	}
	return strings.Join(rows, "\n")
}
