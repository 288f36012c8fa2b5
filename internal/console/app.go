// Package console is the interactive catalog console: one page per
// collection, form dialogs for create and edit, and background refreshes.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"orange-console/internal/api"
	"orange-console/internal/download"
	"orange-console/internal/logging"
	"orange-console/internal/model"
	"orange-console/internal/worker"
)

const defaultNoticeTTL = 4 * time.Second

// Logouter ends the persisted session.
type Logouter interface {
	Logout() error
}

// Options configures an App.
type Options struct {
	Client *api.Client
	// Downloader fetches bound assets for previews in edit dialogs. Nil
	// disables remote previews.
	Downloader *download.Downloader
	Logger     *logging.Logger
	Session    Logouter
	Workers    int
	StartPage  model.Kind
	NoticeTTL  time.Duration
}

// App is the root bubbletea model.
type App struct {
	env     *env
	pages   []page
	active  int
	session Logouter
	workers int

	notice    string
	noticeErr bool
	noticeSeq int
	noticeTTL time.Duration

	width, height int
	loggedOut     bool
}

// New builds the console for every collection.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	e := &env{ctx: context.Background(), client: opts.Client, logger: logger}
	if opts.Downloader != nil {
		e.fetcher = opts.Downloader
	}

	a := &App{
		env:       e,
		session:   opts.Session,
		workers:   max(opts.Workers, 1),
		noticeTTL: opts.NoticeTTL,
		pages: []page{
			newPage(singerResource(opts.Client), e),
			newPage(albumResource(opts.Client), e),
			newPage(songResource(opts.Client), e),
			newPage(recommendationResource(), e),
		},
	}
	if a.noticeTTL <= 0 {
		a.noticeTTL = defaultNoticeTTL
	}
	for i, p := range a.pages {
		if p.Kind() == opts.StartPage {
			a.active = i
		}
	}
	return a
}

// Start loads every collection through the worker pool and then starts the
// refresh loops. send delivers background results to the running program.
// It must be called before the program starts processing messages.
func (a *App) Start(ctx context.Context, send func(tea.Msg)) {
	a.env.ctx = ctx
	a.env.send = send

	go func() {
		jobs := make([]worker.Job, 0, len(a.pages))
		for _, p := range a.pages {
			jobs = append(jobs, worker.Job{
				Name: p.Kind().String(),
				Run: func(ctx context.Context) error {
					err := p.Load(ctx)
					if err != nil {
						a.env.deliver(loadFailedMsg{kind: p.Kind(), err: err})
					}
					return err
				},
			})
		}

		if err := worker.Run(ctx, a.workers, jobs); err != nil {
			a.env.logger.Errorf("Initial load: %v", err)
			if ctx.Err() == nil {
				a.env.deliver(noticeMsg{text: "Some collections could not be loaded; press r to retry", err: true})
			}
		}
		if ctx.Err() != nil {
			return
		}
		for _, p := range a.pages {
			go p.Coordinator().Run(ctx)
		}
	}()
}

// LoggedOut reports whether the operator ended the session.
func (a *App) LoggedOut() bool {
	return a.loggedOut
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) page() page {
	return a.pages[a.active]
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		for _, p := range a.pages {
			p.SetHeight(msg.Height - 8)
		}
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case noticeMsg:
		a.noticeSeq++
		a.notice, a.noticeErr = msg.text, msg.err
		seq := a.noticeSeq
		return a, tea.Tick(a.noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })

	case clearNoticeMsg:
		if msg.seq == a.noticeSeq {
			a.notice = ""
		}
		return a, nil
	}

	var cmds []tea.Cmd
	for _, p := range a.pages {
		if cmd := p.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if a.page().Modal() {
		return a.page().HandleKey(msg)
	}

	switch key := msg.String(); key {
	case "q":
		return tea.Quit
	case "tab":
		a.active = (a.active + 1) % len(a.pages)
	case "shift+tab":
		a.active = (a.active + len(a.pages) - 1) % len(a.pages)
	case "1", "2", "3", "4":
		if i := int(key[0] - '1'); i < len(a.pages) {
			a.active = i
		}
	case "r":
		a.page().Coordinator().Request()
	case "L":
		return a.logout()
	default:
		return a.page().HandleKey(msg)
	}
	return nil
}

func (a *App) logout() tea.Cmd {
	if a.session != nil {
		if err := a.session.Logout(); err != nil {
			a.env.logger.Errorf("Logout: %v", err)
			return notifyErr("Logout failed: " + err.Error())
		}
	}
	a.env.logger.Infof("Logged out")
	a.loggedOut = true
	return tea.Quit
}

func (a *App) View() string {
	tabs := make([]string, 0, len(a.pages))
	for i, p := range a.pages {
		label := fmt.Sprintf("%d %s", i+1, p.Kind())
		if i == a.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}

	lines := []string{
		titleStyle.Render("orange console") + "  " + dimStyle.Render(a.env.client.BaseURL()),
		strings.Join(tabs, " "),
		"",
		a.page().View(),
		"",
	}
	if a.notice != "" {
		if a.noticeErr {
			lines = append(lines, errorStyle.Render(a.notice))
		} else {
			lines = append(lines, noticeStyle.Render(a.notice))
		}
	}
	if help := a.page().Help(); help != "" {
		lines = append(lines, helpStyle.Render(help))
	}
	return strings.Join(lines, "\n")
}
