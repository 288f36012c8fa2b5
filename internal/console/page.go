package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"orange-console/internal/api"
	"orange-console/internal/form"
	"orange-console/internal/listview"
	"orange-console/internal/logging"
	"orange-console/internal/model"
	"orange-console/internal/refresh"
	"orange-console/internal/upload"
)

// env is shared by every page of one App.
type env struct {
	ctx     context.Context
	client  *api.Client
	fetcher upload.Fetcher
	logger  *logging.Logger
	send    func(tea.Msg)
}

// deliver hands a message from a background goroutine to the program.
func (e *env) deliver(msg tea.Msg) {
	if e.send != nil {
		e.send(msg)
	}
}

type page interface {
	Kind() model.Kind
	Load(ctx context.Context) error
	Coordinator() *refresh.Coordinator
	Update(msg tea.Msg) tea.Cmd
	HandleKey(msg tea.KeyMsg) tea.Cmd
	Modal() bool
	SetHeight(rows int)
	View() string
	Help() string
}

type pendingDelete struct {
	id    model.ID
	label string
}

// Page lists one collection and hosts its create, edit and delete flows.
type Page[T any] struct {
	res   resource[T]
	env   *env
	table *listview.Table[T]
	coord *refresh.Coordinator

	dialog   *dialog
	confirm  *pendingDelete
	deleting bool

	loaded   bool
	loadedAt time.Time
	loadErr  string
}

func newPage[T any](res resource[T], e *env) *Page[T] {
	p := &Page[T]{res: res, env: e}
	p.table = listview.New(func(row T) string { return res.rowID(row).String() }, res.columns...)
	if res.edit != nil {
		p.table.OnEdit = func(row T) tea.Cmd { return p.openDialog(res.edit(row)) }
	}
	p.table.OnDelete = func(id string) tea.Cmd {
		p.askDelete(model.ID(id))
		return nil
	}
	p.coord = refresh.New(p.Load, func(err error) {
		if err != nil {
			e.deliver(loadFailedMsg{kind: res.kind, err: err})
		}
	})
	return p
}

func (p *Page[T]) Kind() model.Kind {
	return p.res.kind
}

func (p *Page[T]) Coordinator() *refresh.Coordinator {
	return p.coord
}

// Load fetches the collection and delivers it to the loop.
func (p *Page[T]) Load(ctx context.Context) error {
	rows, err := p.res.list(ctx, p.env.client)
	if err != nil {
		return fmt.Errorf("load %s: %w", p.res.kind, err)
	}
	p.env.deliver(loadedMsg{kind: p.res.kind, rows: rows, at: time.Now()})
	return nil
}

func (p *Page[T]) Modal() bool {
	return p.dialog != nil || p.confirm != nil
}

func (p *Page[T]) SetHeight(rows int) {
	p.table.Height = max(rows, 3)
}

func (p *Page[T]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.kind != p.res.kind {
			return nil
		}
		rows, ok := msg.rows.([]T)
		if !ok {
			return nil
		}
		p.table.SetRows(rows)
		p.loaded, p.loadedAt, p.loadErr = true, msg.at, ""
		if p.confirm != nil && !p.hasRow(p.confirm.id) {
			p.confirm = nil
		}
		return nil

	case loadFailedMsg:
		if msg.kind != p.res.kind {
			return nil
		}
		p.loadErr = msg.err.Error()
		p.env.logger.Errorf("Refresh %s failed: %v", p.res.kind, msg.err)
		return nil

	case submitDoneMsg:
		if msg.kind != p.res.kind {
			return nil
		}
		return p.submitted(msg)

	case deleteDoneMsg:
		if msg.kind != p.res.kind {
			return nil
		}
		p.deleting = false
		if msg.err != nil {
			p.env.logger.Errorf("Delete %s %s failed: %v", p.res.noun, msg.id, msg.err)
			return notifyErr(fmt.Sprintf("Could not delete %s: %v", p.res.noun, msg.err))
		}
		p.env.logger.Infof("Deleted %s %s", p.res.noun, msg.id)
		p.coord.Request()
		return notify("Deleted " + p.res.noun)
	}

	if p.dialog != nil {
		return p.dialog.Update(msg)
	}
	return nil
}

func (p *Page[T]) HandleKey(msg tea.KeyMsg) tea.Cmd {
	if p.dialog != nil {
		action, cmd := p.dialog.HandleKey(msg)
		switch action {
		case actCancel:
			p.closeDialog()
			return nil
		case actSubmit:
			return p.submit()
		}
		return cmd
	}

	if p.confirm != nil {
		switch msg.String() {
		case "y", "Y":
			return p.delete()
		case "n", "N", "esc":
			p.confirm = nil
		}
		return nil
	}

	if msg.String() == "a" {
		return p.openDialog(form.New(p.res.kind))
	}
	return p.table.Update(msg)
}

// openDialog shows f in a new dialog and fetches its relation options.
// Create dialogs always start from a fresh form.
func (p *Page[T]) openDialog(f *form.Form) tea.Cmd {
	p.closeDialog()
	d, mount := newDialog(p.res.noun, f, p.env.client, p.env.fetcher, p.env.logger)
	p.dialog = d

	cmds := []tea.Cmd{mount}
	for _, src := range d.remoteSources() {
		cmds = append(cmds, p.loadOptions(d.id, src))
	}
	return tea.Batch(cmds...)
}

func (p *Page[T]) closeDialog() {
	if p.dialog == nil {
		return
	}
	p.dialog.close()
	p.dialog = nil
}

func (p *Page[T]) loadOptions(dialogID string, src optionSource) tea.Cmd {
	ctx, client := p.env.ctx, p.env.client
	return func() tea.Msg {
		msg := optionsLoadedMsg{dialogID: dialogID, source: src}
		switch src {
		case optArtists:
			singers, err := client.Singers(ctx)
			msg.options, msg.err = artistOptions(singers), err
		case optAlbums:
			albums, err := client.Albums(ctx)
			msg.options, msg.err = albumOptions(albums), err
		}
		return msg
	}
}

func (p *Page[T]) submit() tea.Cmd {
	d := p.dialog
	if err := d.form.Validate(); err != nil {
		d.err = err.Error()
		return nil
	}
	if d.uploading() {
		p.env.logger.Warnf("Saving %s while an upload is still running; the new asset is not part of this save", p.res.noun)
	}

	run := p.res.prepare(d.form)
	d.busy, d.err = true, ""

	ctx, client, kind, dialogID := p.env.ctx, p.env.client, p.res.kind, d.id
	return tea.Batch(d.spin.Tick, func() tea.Msg {
		return submitDoneMsg{kind: kind, dialogID: dialogID, err: run(ctx, client)}
	})
}

func (p *Page[T]) submitted(msg submitDoneMsg) tea.Cmd {
	d := p.dialog
	if d == nil || d.id != msg.dialogID {
		if msg.err == nil {
			p.coord.Request()
		}
		return nil
	}

	d.busy = false
	if msg.err != nil {
		p.env.logger.Errorf("Save %s failed: %v", p.res.noun, msg.err)
		d.err = "Save failed: " + msg.err.Error()
		return nil
	}

	verb := "Created"
	if d.form.Mode == form.Edit {
		verb = "Updated"
	}
	p.env.logger.Infof("%s %s", verb, p.res.noun)
	p.closeDialog()
	p.coord.Request()
	return notify(verb + " " + p.res.noun)
}

func (p *Page[T]) askDelete(id model.ID) {
	label := id.String()
	for _, row := range p.table.Rows() {
		if p.res.rowID(row) == id {
			label = p.res.label(row)
			break
		}
	}
	p.confirm = &pendingDelete{id: id, label: label}
}

func (p *Page[T]) hasRow(id model.ID) bool {
	for _, row := range p.table.Rows() {
		if p.res.rowID(row) == id {
			return true
		}
	}
	return false
}

func (p *Page[T]) delete() tea.Cmd {
	id := p.confirm.id
	p.confirm = nil
	p.deleting = true

	ctx, client, kind, remove := p.env.ctx, p.env.client, p.res.kind, p.res.remove
	return func() tea.Msg {
		return deleteDoneMsg{kind: kind, id: id, err: remove(ctx, client, id)}
	}
}

func (p *Page[T]) status() string {
	parts := []string{fmt.Sprintf("%d %s", p.table.Len(), p.res.kind)}
	if n := len(p.table.Selected()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	switch {
	case p.coord.Pending():
		parts = append(parts, "refreshing…")
	case p.loaded:
		parts = append(parts, "refreshed "+humanize.Time(p.loadedAt))
	default:
		parts = append(parts, "loading…")
	}
	if p.deleting {
		parts = append(parts, "deleting…")
	}
	return strings.Join(parts, " · ")
}

func (p *Page[T]) View() string {
	if p.dialog != nil {
		return p.dialog.View()
	}

	lines := []string{dimStyle.Render(p.status())}
	if p.loadErr != "" {
		lines = append(lines, errorStyle.Render("Last refresh failed: "+p.loadErr))
	}
	lines = append(lines, "", p.table.View())
	if p.confirm != nil {
		lines = append(lines, "", errorStyle.Render(fmt.Sprintf("Delete %s %q? (y/n)", p.res.noun, p.confirm.label)))
	}
	return strings.Join(lines, "\n")
}

func (p *Page[T]) Help() string {
	if p.dialog != nil {
		return ""
	}
	if p.confirm != nil {
		return "y confirm | n cancel"
	}
	keys := "j/k move | space select | ctrl+a all | a add"
	if p.res.edit != nil {
		keys += " | e edit"
	}
	return keys + " | d delete | enter actions | r refresh | tab page | L logout | q quit"
}
