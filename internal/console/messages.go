package console

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"orange-console/internal/model"
)

// loadedMsg replaces a page's rows. rows holds the page's []T.
type loadedMsg struct {
	kind model.Kind
	rows any
	at   time.Time
}

type loadFailedMsg struct {
	kind model.Kind
	err  error
}

type submitDoneMsg struct {
	kind     model.Kind
	dialogID string
	err      error
}

type deleteDoneMsg struct {
	kind model.Kind
	id   model.ID
	err  error
}

type optionsLoadedMsg struct {
	dialogID string
	source   optionSource
	options  []option
	err      error
}

type noticeMsg struct {
	text string
	err  bool
}

type clearNoticeMsg struct {
	seq int
}

func notify(text string) tea.Cmd {
	return func() tea.Msg { return noticeMsg{text: text} }
}

func notifyErr(text string) tea.Cmd {
	return func() tea.Msg { return noticeMsg{text: text, err: true} }
}
