package console

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"orange-console/internal/form"
	"orange-console/internal/logging"
	"orange-console/internal/model"
	"orange-console/internal/upload"
)

const inputWidth = 40

type dialogAction int

const (
	actNone dialogAction = iota
	actSubmit
	actCancel
)

// dialog is an open create or edit form.
type dialog struct {
	id    string
	noun  string
	form  *form.Form
	specs []fieldSpec
	focus int

	inputs  map[string]textinput.Model
	area    textarea.Model
	areaKey string
	uploads map[string]*upload.Field
	pickErr map[string]string

	options map[optionSource][]option
	optErr  map[optionSource]string

	spin spinner.Model
	busy bool
	err  string
}

// newDialog builds the dialog for f. The returned command fetches previews of
// assets the form already holds.
func newDialog(noun string, f *form.Form, uploader upload.Uploader, fetcher upload.Fetcher, logger *logging.Logger) (*dialog, tea.Cmd) {
	d := &dialog{
		id:      uuid.NewString(),
		noun:    noun,
		form:    f,
		specs:   fieldsFor(f.Kind),
		inputs:  make(map[string]textinput.Model),
		uploads: make(map[string]*upload.Field),
		pickErr: make(map[string]string),
		options: make(map[optionSource][]option),
		optErr:  make(map[optionSource]string),
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	var mounts []tea.Cmd
	for _, spec := range d.specs {
		switch spec.typ {
		case fieldText:
			ti := newInput("")
			ti.SetValue(f.State.Get(spec.key))
			ti.CursorEnd()
			d.inputs[spec.key] = ti
		case fieldArea:
			ta := textarea.New()
			ta.ShowLineNumbers = false
			ta.SetWidth(inputWidth)
			ta.SetHeight(3)
			ta.Cursor.SetMode(cursor.CursorStatic)
			ta.SetValue(f.State.Get(spec.key))
			ta.Blur()
			d.area, d.areaKey = ta, spec.key
		case fieldAsset:
			d.inputs[spec.key] = newInput("path to a local file, enter to upload")
			fld := upload.New(spec.key, spec.asset, f.State, uploader, logger)
			if cmd := fld.Mount(fetcher); cmd != nil {
				mounts = append(mounts, cmd)
			}
			d.uploads[spec.key] = fld
		case fieldChoice:
			if spec.options == optSingerTypes {
				d.options[optSingerTypes] = singerTypeOptions()
			}
		}
	}
	d.setFocus(0)
	return d, tea.Batch(mounts...)
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.Width = inputWidth
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// remoteSources lists the option sources that must be fetched.
func (d *dialog) remoteSources() []optionSource {
	var out []optionSource
	for _, spec := range d.specs {
		if spec.typ == fieldChoice && (spec.options == optArtists || spec.options == optAlbums) {
			out = append(out, spec.options)
		}
	}
	return out
}

func (d *dialog) title() string {
	if d.form.Mode == form.Edit {
		return fmt.Sprintf("Edit %s #%s", d.noun, d.form.ID)
	}
	return "New " + d.noun
}

func (d *dialog) current() fieldSpec {
	return d.specs[d.focus]
}

func (d *dialog) setFocus(i int) {
	if len(d.specs) == 0 {
		return
	}
	d.focus = (i + len(d.specs)) % len(d.specs)
	for key, ti := range d.inputs {
		if key == d.current().key {
			ti.Focus()
		} else {
			ti.Blur()
		}
		d.inputs[key] = ti
	}
	if d.areaKey == d.current().key {
		d.area.Focus()
	} else {
		d.area.Blur()
	}
}

// close detaches every upload field so late completions are dropped.
func (d *dialog) close() {
	for _, fld := range d.uploads {
		fld.Detach()
	}
}

// uploading reports whether any asset is still on its way.
func (d *dialog) uploading() bool {
	for _, fld := range d.uploads {
		if s := fld.Status(); s == upload.PreviewPending || s == upload.Uploading {
			return true
		}
	}
	return false
}

// Update applies non-key messages addressed to the dialog.
func (d *dialog) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case upload.StartedMsg, upload.DoneMsg, upload.RemotePreviewMsg:
		for _, fld := range d.uploads {
			if handled, cmd := fld.Update(msg); handled {
				return cmd
			}
		}
	case optionsLoadedMsg:
		if msg.dialogID != d.id {
			return nil
		}
		if msg.err != nil {
			d.optErr[msg.source] = msg.err.Error()
			return nil
		}
		delete(d.optErr, msg.source)
		d.options[msg.source] = msg.options
	case spinner.TickMsg:
		if !d.busy {
			return nil
		}
		var cmd tea.Cmd
		d.spin, cmd = d.spin.Update(msg)
		return cmd
	}
	return nil
}

// HandleKey edits the focused field or reports a submit or cancel request.
func (d *dialog) HandleKey(msg tea.KeyMsg) (dialogAction, tea.Cmd) {
	if d.busy {
		return actNone, nil
	}

	switch msg.String() {
	case "esc":
		return actCancel, nil
	case "ctrl+s":
		return actSubmit, nil
	case "tab":
		d.setFocus(d.focus + 1)
		return actNone, nil
	case "shift+tab":
		d.setFocus(d.focus - 1)
		return actNone, nil
	}

	spec := d.current()
	switch spec.typ {
	case fieldText:
		switch msg.String() {
		case "enter", "down":
			d.setFocus(d.focus + 1)
			return actNone, nil
		case "up":
			d.setFocus(d.focus - 1)
			return actNone, nil
		}
		ti, cmd := d.inputs[spec.key].Update(msg)
		d.inputs[spec.key] = ti
		if v := ti.Value(); v != d.form.State.Get(spec.key) {
			d.form.State.Set(spec.key, v)
		}
		return actNone, cmd

	case fieldArea:
		var cmd tea.Cmd
		d.area, cmd = d.area.Update(msg)
		if v := d.area.Value(); v != d.form.State.Get(spec.key) {
			d.form.State.Set(spec.key, v)
		}
		return actNone, cmd

	case fieldAsset:
		switch msg.String() {
		case "enter":
			return actNone, d.pick(spec.key)
		case "down":
			d.setFocus(d.focus + 1)
			return actNone, nil
		case "up":
			d.setFocus(d.focus - 1)
			return actNone, nil
		}
		ti, cmd := d.inputs[spec.key].Update(msg)
		d.inputs[spec.key] = ti
		return actNone, cmd

	case fieldChoice:
		switch msg.String() {
		case "right", "l", " ":
			d.cycle(spec, 1)
		case "left", "h":
			d.cycle(spec, -1)
		case "backspace", "delete":
			d.form.State.Set(spec.key, "")
		case "enter", "down":
			d.setFocus(d.focus + 1)
		case "up":
			d.setFocus(d.focus - 1)
		}
		return actNone, nil

	case fieldDate:
		switch msg.String() {
		case "right", "l":
			d.stepDate(0, 0, 1)
		case "left", "h":
			d.stepDate(0, 0, -1)
		case "]":
			d.stepDate(0, 1, 0)
		case "[":
			d.stepDate(0, -1, 0)
		case "}":
			d.stepDate(1, 0, 0)
		case "{":
			d.stepDate(-1, 0, 0)
		case "t":
			d.form.SetDate(time.Now())
		case "backspace", "delete":
			d.form.ClearDate()
		case "enter", "down":
			d.setFocus(d.focus + 1)
		case "up":
			d.setFocus(d.focus - 1)
		}
		return actNone, nil

	case fieldToggle:
		switch msg.String() {
		case " ", "left", "right", "h", "l", "x":
			liked, _ := strconv.ParseBool(d.form.State.Get(spec.key))
			d.form.State.Set(spec.key, strconv.FormatBool(!liked))
		case "enter", "down":
			d.setFocus(d.focus + 1)
		case "up":
			d.setFocus(d.focus - 1)
		}
		return actNone, nil
	}
	return actNone, nil
}

func (d *dialog) pick(key string) tea.Cmd {
	fld := d.uploads[key]
	cmd, err := fld.Pick(d.inputs[key].Value())
	if err != nil {
		d.pickErr[key] = err.Error()
		return nil
	}
	delete(d.pickErr, key)
	return cmd
}

func (d *dialog) cycle(spec fieldSpec, step int) {
	opts := d.options[spec.options]
	if len(opts) == 0 {
		return
	}
	cur := -1
	value := d.form.State.Get(spec.key)
	for i, o := range opts {
		if o.value == value {
			cur = i
			break
		}
	}
	next := 0
	switch {
	case cur < 0 && step < 0:
		next = len(opts) - 1
	case cur >= 0:
		next = (cur + step + len(opts)) % len(opts)
	}

	o := opts[next]
	d.form.State.Set(spec.key, o.value)
	if spec.key == form.KeyAlbumID && d.form.Kind == model.KindSong && o.related != "" {
		d.form.State.Set(form.KeySingerID, o.related)
	}
}

func (d *dialog) stepDate(years, months, days int) {
	base := d.form.Date()
	if base.IsZero() {
		d.form.SetDate(time.Now())
		return
	}
	d.form.SetDate(base.AddDate(years, months, days))
}

func (d *dialog) choiceLabel(spec fieldSpec) string {
	if msg, ok := d.optErr[spec.options]; ok {
		return errorStyle.Render("options unavailable: " + msg)
	}
	value := d.form.State.Get(spec.key)
	opts, loaded := d.options[spec.options]
	if !loaded {
		if value != "" {
			return "#" + value + dimStyle.Render(" (loading options…)")
		}
		return dimStyle.Render("loading options…")
	}
	for _, o := range opts {
		if o.value == value {
			return "‹ " + o.label + " ›"
		}
	}
	if value != "" {
		return "‹ #" + value + " ›"
	}
	return dimStyle.Render("‹ none ›")
}

func (d *dialog) dateLabel(spec fieldSpec) string {
	if t := d.form.Date(); !t.IsZero() {
		return "‹ " + model.FormatDate(t) + " ›"
	}
	if raw := d.form.State.Get(spec.key); raw != "" {
		return raw
	}
	return dimStyle.Render("‹ unset ›")
}

func (d *dialog) View() string {
	lines := []string{titleStyle.Render(d.title()), ""}

	for i, spec := range d.specs {
		marker := "  "
		label := labelStyle.Render(spec.label)
		if i == d.focus {
			marker = focusStyle.Render("> ")
			label = focusStyle.Render(labelStyle.Render(spec.label))
		}

		var body string
		switch spec.typ {
		case fieldText:
			body = d.inputs[spec.key].View()
		case fieldArea:
			body = d.area.View()
		case fieldAsset:
			body = d.inputs[spec.key].View() + "\n" + d.uploads[spec.key].View()
			if msg, ok := d.pickErr[spec.key]; ok {
				body += "\n" + errorStyle.Render(msg)
			}
		case fieldChoice:
			body = d.choiceLabel(spec)
		case fieldDate:
			body = d.dateLabel(spec)
		case fieldToggle:
			if liked, _ := strconv.ParseBool(d.form.State.Get(spec.key)); liked {
				body = "[x]"
			} else {
				body = "[ ]"
			}
		}
		lines = append(lines, indentBody(marker+label, body))
	}

	lines = append(lines, "")
	if d.err != "" {
		lines = append(lines, errorStyle.Render(d.err))
	}
	if d.busy {
		lines = append(lines, d.spin.View()+" Saving…")
	} else {
		lines = append(lines, helpStyle.Render(d.help()))
	}
	return dialogStyle.Render(strings.Join(lines, "\n"))
}

func (d *dialog) help() string {
	base := "tab next field | ctrl+s save | esc cancel"
	switch d.current().typ {
	case fieldChoice:
		return "←/→ choose | " + base
	case fieldDate:
		return "←/→ day | [/] month | {/} year | t today | " + base
	case fieldAsset:
		return "enter upload | " + base
	case fieldToggle:
		return "space toggle | " + base
	}
	return base
}

func indentBody(head, body string) string {
	pad := strings.Repeat(" ", labelWidth+2)
	parts := strings.Split(body, "\n")
	for i := 1; i < len(parts); i++ {
		parts[i] = pad + parts[i]
	}
	return head + strings.Join(parts, "\n")
}
