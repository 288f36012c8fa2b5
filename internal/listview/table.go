// Package listview renders an in-memory collection as a selectable table
// with a per-row action menu. It performs no I/O; the owning page supplies
// rows and reacts to the edit and delete callbacks.
package listview

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultHeight = 12

// HeaderCheck is the tri-state select-all checkbox.
type HeaderCheck int

const (
	CheckNone HeaderCheck = iota
	CheckSome
	CheckAll
)

func (h HeaderCheck) String() string {
	switch h {
	case CheckAll:
		return "[x]"
	case CheckSome:
		return "[-]"
	default:
		return "[ ]"
	}
}

// Column renders one cell per row.
type Column[T any] struct {
	Title string
	Width int
	Cell  func(T) string
}

// Action is one entry of the row action menu.
type Action int

const (
	ActionEdit Action = iota
	ActionDelete
)

func (a Action) String() string {
	if a == ActionEdit {
		return "edit"
	}
	return "delete"
}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	menuStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	menuItemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// Table is a selectable list of rows of T.
type Table[T any] struct {
	Columns []Column[T]
	Height  int

	// OnEdit receives the full row; nil hides the edit action.
	OnEdit func(T) tea.Cmd
	// OnDelete receives the row id.
	OnDelete func(id string) tea.Cmd

	rowID    func(T) string
	rows     []T
	selected map[string]struct{}
	cursor   int

	menuOpen   bool
	menuCursor int
}

// New creates an empty table keyed by rowID.
func New[T any](rowID func(T) string, columns ...Column[T]) *Table[T] {
	return &Table[T]{
		Columns:  columns,
		Height:   defaultHeight,
		rowID:    rowID,
		selected: make(map[string]struct{}),
	}
}

// SetRows replaces the collection. Selections of rows that disappeared are
// dropped and the cursor is clamped.
func (t *Table[T]) SetRows(rows []T) {
	t.rows = rows
	present := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		present[t.rowID(r)] = struct{}{}
	}
	for id := range t.selected {
		if _, ok := present[id]; !ok {
			delete(t.selected, id)
		}
	}
	if t.cursor >= len(rows) {
		t.cursor = max(0, len(rows)-1)
	}
	if len(rows) == 0 {
		t.menuOpen = false
	}
}

// Rows returns the current collection.
func (t *Table[T]) Rows() []T {
	return t.rows
}

// Len is the number of rows.
func (t *Table[T]) Len() int {
	return len(t.rows)
}

// Cursor returns the highlighted row index.
func (t *Table[T]) Cursor() int {
	return t.cursor
}

// Current returns the highlighted row.
func (t *Table[T]) Current() (T, bool) {
	var zero T
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return zero, false
	}
	return t.rows[t.cursor], true
}

// Move shifts the cursor by delta, clamped to the rows.
func (t *Table[T]) Move(delta int) {
	if len(t.rows) == 0 {
		t.cursor = 0
		return
	}
	t.cursor = min(max(t.cursor+delta, 0), len(t.rows)-1)
}

// Toggle flips the selection of the row with id.
func (t *Table[T]) Toggle(id string) {
	if _, ok := t.selected[id]; ok {
		delete(t.selected, id)
		return
	}
	for _, r := range t.rows {
		if t.rowID(r) == id {
			t.selected[id] = struct{}{}
			return
		}
	}
}

// ToggleAll selects every row unless all are already selected, in which
// case it clears the selection.
func (t *Table[T]) ToggleAll() {
	if t.Header() == CheckAll {
		clear(t.selected)
		return
	}
	for _, r := range t.rows {
		t.selected[t.rowID(r)] = struct{}{}
	}
}

// IsSelected reports whether the row with id is selected.
func (t *Table[T]) IsSelected(id string) bool {
	_, ok := t.selected[id]
	return ok
}

// Selected returns selected ids in row order.
func (t *Table[T]) Selected() []string {
	out := make([]string, 0, len(t.selected))
	for _, r := range t.rows {
		if id := t.rowID(r); t.IsSelected(id) {
			out = append(out, id)
		}
	}
	return out
}

// Header reflects whether none, some or all rows are selected.
func (t *Table[T]) Header() HeaderCheck {
	n := len(t.selected)
	switch {
	case n == 0 || len(t.rows) == 0:
		return CheckNone
	case n == len(t.rows):
		return CheckAll
	default:
		return CheckSome
	}
}

// Actions lists the menu entries available for a row.
func (t *Table[T]) Actions() []Action {
	if t.OnEdit == nil {
		return []Action{ActionDelete}
	}
	return []Action{ActionEdit, ActionDelete}
}

// MenuOpen reports whether the action menu is showing.
func (t *Table[T]) MenuOpen() bool {
	return t.menuOpen
}

// Invoke runs action against the highlighted row.
func (t *Table[T]) Invoke(action Action) tea.Cmd {
	row, ok := t.Current()
	if !ok {
		return nil
	}
	t.menuOpen = false
	switch action {
	case ActionEdit:
		if t.OnEdit != nil {
			return t.OnEdit(row)
		}
	case ActionDelete:
		if t.OnDelete != nil {
			return t.OnDelete(t.rowID(row))
		}
	}
	return nil
}

// Update handles navigation, selection and the action menu.
func (t *Table[T]) Update(msg tea.KeyMsg) tea.Cmd {
	if t.menuOpen {
		actions := t.Actions()
		switch msg.String() {
		case "up", "k":
			t.menuCursor = max(0, t.menuCursor-1)
		case "down", "j":
			t.menuCursor = min(len(actions)-1, t.menuCursor+1)
		case "enter":
			return t.Invoke(actions[t.menuCursor])
		case "esc", "m":
			t.menuOpen = false
		}
		return nil
	}

	switch msg.String() {
	case "up", "k":
		t.Move(-1)
	case "down", "j":
		t.Move(1)
	case "ctrl+u", "pgup":
		t.Move(-max(1, t.height()/2))
	case "ctrl+d", "pgdown":
		t.Move(max(1, t.height()/2))
	case "home", "g":
		t.cursor = 0
	case "end", "G":
		t.Move(len(t.rows))
	case " ", "x":
		if row, ok := t.Current(); ok {
			t.Toggle(t.rowID(row))
		}
	case "ctrl+a":
		t.ToggleAll()
	case "enter", "m":
		if len(t.rows) > 0 {
			t.menuOpen = true
			t.menuCursor = 0
		}
	case "e":
		if t.OnEdit != nil {
			return t.Invoke(ActionEdit)
		}
	case "d":
		return t.Invoke(ActionDelete)
	}
	return nil
}

func (t *Table[T]) height() int {
	if t.Height <= 0 {
		return defaultHeight
	}
	return t.Height
}

// View renders the header, the visible window of rows and, when open, the
// action menu.
func (t *Table[T]) View() string {
	header := []string{t.Header().String()}
	for _, c := range t.Columns {
		header = append(header, pad(c.Title, c.Width))
	}
	lines := []string{"  " + headerStyle.Render(strings.Join(header, " "))}

	if len(t.rows) == 0 {
		lines = append(lines, dimStyle.Render("  (no rows)"))
		return strings.Join(lines, "\n")
	}

	start, end := window(len(t.rows), t.cursor, t.height())
	for i := start; i < end; i++ {
		row := t.rows[i]
		check := "[ ]"
		if t.IsSelected(t.rowID(row)) {
			check = "[x]"
		}
		cells := []string{check}
		for _, c := range t.Columns {
			cells = append(cells, pad(c.Cell(row), c.Width))
		}
		line := strings.Join(cells, " ")
		if i == t.cursor {
			lines = append(lines, cursorStyle.Render("> "+line))
		} else {
			lines = append(lines, "  "+line)
		}
	}
	if end < len(t.rows) {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  ... %d more row(s)", len(t.rows)-end)))
	}

	out := strings.Join(lines, "\n")
	if t.menuOpen {
		items := make([]string, 0, 2)
		for i, a := range t.Actions() {
			if i == t.menuCursor {
				items = append(items, menuItemStyle.Render("> "+a.String()))
			} else {
				items = append(items, "  "+a.String())
			}
		}
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, "  ", menuStyle.Render(strings.Join(items, "\n")))
	}
	return out
}

func pad(s string, width int) string {
	if width <= 0 {
		return s
	}
	w := lipgloss.Width(s)
	if w > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
			r = r[:len(r)-1]
		}
		return string(r) + "…"
	}
	return s + strings.Repeat(" ", width-w)
}

func window(total, cursor, size int) (int, int) {
	if total <= 0 {
		return 0, 0
	}
	if size <= 0 || total <= size {
		return 0, total
	}

	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > total {
		start = total - size
	}
	return start, start + size
}
