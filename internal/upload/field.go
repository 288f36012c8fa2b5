// Package upload binds a local file picker to one asset slot of a form and
// moves the picked file to the catalog in the background.
package upload

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"orange-console/internal/api"
	"orange-console/internal/form"
	"orange-console/internal/logging"
)

// Status is the upload state of a field.
type Status int

const (
	Empty Status = iota
	PreviewPending
	Uploading
	Bound
	Failed
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case PreviewPending:
		return "preview"
	case Uploading:
		return "uploading"
	case Bound:
		return "bound"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Uploader moves a local file to the catalog.
type Uploader interface {
	Upload(ctx context.Context, req api.UploadRequest) (api.Asset, error)
}

// Fetcher downloads a bound asset to a local file for previewing.
type Fetcher interface {
	Fetch(ctx context.Context, value string) (string, error)
}

// StartedMsg tells a field that its upload command is running on the loop's
// behalf and the request should be issued.
type StartedMsg struct {
	FieldID string
	Gen     uint64
}

// DoneMsg carries the outcome of one upload back to the loop.
type DoneMsg struct {
	FieldID string
	Gen     uint64
	Asset   api.Asset
	Err     error
}

// RemotePreviewMsg carries the preview of an asset that was already bound
// when the field was mounted.
type RemotePreviewMsg struct {
	FieldID string
	Gen     uint64
	Preview Preview
	Err     error
}

// Field is one asset slot of an open form. It is driven from the event loop;
// only the progress counters are touched by the upload goroutine.
type Field struct {
	Key  string
	Kind api.AssetKind

	id       string
	state    *form.State
	uploader Uploader
	logger   *logging.Logger

	status   Status
	settled  Status // Empty or Bound, shown while not uploading
	preview  Preview
	shown    Preview // preview that goes with settled
	file     string
	gen      uint64
	detached bool
	cancel   context.CancelFunc
	lastErr  error

	sent  atomic.Int64
	total atomic.Int64
}

// New creates a field writing into state under key.
func New(key string, kind api.AssetKind, state *form.State, uploader Uploader, logger *logging.Logger) *Field {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Field{
		Key:      key,
		Kind:     kind,
		id:       uuid.NewString(),
		state:    state,
		uploader: uploader,
		logger:   logger,
	}
}

// ID identifies the field across messages.
func (f *Field) ID() string {
	return f.id
}

// Mount picks up an asset path already present in the form state, as in an
// edit dialog. No upload is made. With a fetcher, the returned command
// downloads the bound asset so it can be previewed; otherwise it is nil.
func (f *Field) Mount(fetcher Fetcher) tea.Cmd {
	value := strings.TrimSpace(f.state.Get(f.Key))
	if value == "" {
		f.status, f.settled = Empty, Empty
		return nil
	}
	f.status, f.settled = Bound, Bound
	if fetcher == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	fieldID, gen, kind := f.id, f.gen, f.Kind
	return func() tea.Msg {
		msg := RemotePreviewMsg{FieldID: fieldID, Gen: gen}
		local, err := fetcher.Fetch(ctx, value)
		if err != nil {
			msg.Err = err
			return msg
		}
		defer os.Remove(local)

		p, err := BuildPreview(local, kind)
		if err != nil {
			msg.Err = err
			return msg
		}
		p.Name = path.Base(value)
		msg.Preview = p
		return msg
	}
}

// Status returns the current state.
func (f *Field) Status() Status {
	return f.status
}

// Preview returns the local preview of the most recent pick.
func (f *Field) Preview() Preview {
	return f.preview
}

// Value is the remote path currently held by the form state.
func (f *Field) Value() string {
	return f.state.Get(f.Key)
}

// LastError is the most recent upload failure, which is logged but not
// otherwise surfaced.
func (f *Field) LastError() error {
	return f.lastErr
}

// Progress reports bytes sent and total for the running upload.
func (f *Field) Progress() (int64, int64) {
	return f.sent.Load(), f.total.Load()
}

// Pick builds the local preview synchronously, enters PreviewPending and
// returns the command that starts the upload. Picking again while an upload
// is in flight supersedes it.
func (f *Field) Pick(path string) (tea.Cmd, error) {
	if f.detached {
		return nil, fmt.Errorf("field %s is closed", f.Key)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("no file selected")
	}

	p, err := BuildPreview(path, f.Kind)
	if err != nil {
		return nil, err
	}

	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.gen++
	f.status = PreviewPending
	f.preview = p
	f.file = path
	f.sent.Store(0)
	f.total.Store(p.Size)

	msg := StartedMsg{FieldID: f.id, Gen: f.gen}
	return func() tea.Msg { return msg }, nil
}

// Update applies StartedMsg and DoneMsg addressed to this field. It reports
// whether the message belonged to the field; stale generations and messages
// arriving after Detach are claimed and dropped.
func (f *Field) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case StartedMsg:
		if msg.FieldID != f.id {
			return false, nil
		}
		if f.detached || msg.Gen != f.gen || f.status != PreviewPending {
			return true, nil
		}
		return true, f.start()

	case DoneMsg:
		if msg.FieldID != f.id {
			return false, nil
		}
		if f.detached || msg.Gen != f.gen {
			f.logger.Debugf("Dropping stale %s upload result for %s (gen %d, current %d)", f.Kind, f.Key, msg.Gen, f.gen)
			return true, nil
		}
		f.resolve(msg)
		return true, nil

	case RemotePreviewMsg:
		if msg.FieldID != f.id {
			return false, nil
		}
		if f.detached || msg.Gen != f.gen || f.status != Bound {
			return true, nil
		}
		if f.cancel != nil {
			f.cancel()
			f.cancel = nil
		}
		if msg.Err != nil {
			f.logger.Warnf("No preview for %s %s: %v", f.Key, f.Value(), msg.Err)
			return true, nil
		}
		f.preview, f.shown = msg.Preview, msg.Preview
		return true, nil
	}
	return false, nil
}

func (f *Field) start() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.status = Uploading

	req := api.UploadRequest{
		Kind:   f.Kind,
		File:   f.file,
		TaskID: fmt.Sprintf("%s-%d", f.id, f.gen),
		Progress: func(p api.ProgressUpdate) {
			f.sent.Store(p.BytesSent)
			if p.TotalBytes > 0 {
				f.total.Store(p.TotalBytes)
			}
		},
	}
	fieldID, gen, uploader := f.id, f.gen, f.uploader
	f.logger.Infof("Uploading %s %s for %s (task %s)", f.Kind, f.preview.Name, f.Key, req.TaskID)

	return func() tea.Msg {
		asset, err := uploader.Upload(ctx, req)
		return DoneMsg{FieldID: fieldID, Gen: gen, Asset: asset, Err: err}
	}
}

func (f *Field) resolve(msg DoneMsg) {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	if msg.Err != nil {
		f.lastErr = msg.Err
		f.status = Failed
		f.preview = f.shown
		f.logger.Errorf("Upload error for %s: %v", f.Key, msg.Err)
		return
	}

	value := msg.Asset.URL
	if value == "" {
		value = msg.Asset.Path
	}
	f.state.Set(f.Key, value)
	f.lastErr = nil
	f.status, f.settled = Bound, Bound
	f.shown = f.preview
	f.logger.Infof("Bound %s to %s", f.Key, value)
}

// Detach cancels any running upload and makes the field ignore later
// results. It is called when the dialog owning the form closes.
func (f *Field) Detach() {
	f.detached = true
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Shown is the state presented to the user: a failed upload falls back to
// whatever the field showed before the pick.
func (f *Field) Shown() Status {
	if f.status == Failed {
		return f.settled
	}
	return f.status
}

// View renders the field's current state.
func (f *Field) View() string {
	switch f.Shown() {
	case PreviewPending:
		return "preview: " + f.preview.Summary() + withThumb(f.preview)
	case Uploading:
		sent, total := f.Progress()
		progress := humanize.Bytes(uint64(max(sent, 0)))
		if total > 0 {
			progress += " / " + humanize.Bytes(uint64(total))
		}
		return "uploading " + f.preview.Summary() + " (" + progress + ")" + withThumb(f.preview)
	case Bound:
		if f.preview.Name != "" {
			return "✓ " + f.Value() + "\n" + f.preview.Summary() + withThumb(f.preview)
		}
		return "✓ " + f.Value()
	default:
		return "no file"
	}
}

func withThumb(p Preview) string {
	if t := p.Thumbnail(); t != "" {
		return "\n" + t
	}
	return ""
}
