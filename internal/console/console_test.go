package console

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orange-console/internal/api"
	"orange-console/internal/download"
	"orange-console/internal/form"
	"orange-console/internal/logging"
	"orange-console/internal/model"
	"orange-console/internal/upload"
)

type harness struct {
	t    *testing.T
	cat  *fakeCatalog
	app  *App
	msgs chan tea.Msg
}

func newHarness(t *testing.T, start model.Kind, setup ...func(*fakeCatalog)) *harness {
	t.Helper()
	cat := newFakeCatalog()
	for _, fn := range setup {
		fn(cat)
	}
	srv := cat.serve(t)

	client := api.New(srv.URL, srv.Client())
	opts := Options{
		Client:    client,
		Logger:    logging.Discard(),
		Workers:   2,
		StartPage: start,
		NoticeTTL: time.Hour,
	}
	if cat.assets != nil {
		opts.Downloader = download.New(srv.Client(), t.TempDir())
		opts.Downloader.Resolve = client.ResolveAsset
	}
	app := New(opts)
	h := &harness{t: t, cat: cat, app: app, msgs: make(chan tea.Msg, 64)}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app.Start(ctx, func(msg tea.Msg) { h.msgs <- msg })

	for range model.Kinds {
		msg := h.next()
		_, ok := msg.(loadedMsg)
		require.True(t, ok, "unexpected startup message %T", msg)
		h.send(msg)
	}
	return h
}

// next waits for a message delivered from a background goroutine.
func (h *harness) next() tea.Msg {
	h.t.Helper()
	select {
	case msg := <-h.msgs:
		return msg
	case <-time.After(3 * time.Second):
		h.t.Fatal("timed out waiting for a background message")
		return nil
	}
}

func (h *harness) send(msg tea.Msg) {
	_, cmd := h.app.Update(msg)
	h.exec(cmd)
}

// exec runs cmd and feeds its messages back into the app. Commands that do
// not produce a message promptly (notice timers) are abandoned and spinner
// frames are dropped.
func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-out:
	case <-time.After(500 * time.Millisecond):
		return
	}

	switch msg := msg.(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.exec(c)
		}
	case spinner.TickMsg:
	default:
		h.send(msg)
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (h *harness) press(keys ...string) {
	for _, k := range keys {
		h.send(keyMsg(k))
	}
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func pageOf[T any](h *harness, kind model.Kind) *Page[T] {
	for _, p := range h.app.pages {
		if p.Kind() == kind {
			return p.(*Page[T])
		}
	}
	h.t.Fatalf("no page for %s", kind)
	return nil
}

func TestStartupLoadsEveryCollection(t *testing.T) {
	h := newHarness(t, model.KindAlbum)

	require.Len(t, pageOf[model.Singer](h, model.KindSinger).table.Rows(), 2)
	require.Len(t, pageOf[model.Album](h, model.KindAlbum).table.Rows(), 1)
	require.Len(t, pageOf[model.Song](h, model.KindSong).table.Rows(), 1)
	require.Len(t, pageOf[model.Recommendation](h, model.KindRecommendation).table.Rows(), 1)

	view := h.app.View()
	assert.Contains(t, view, "Blue")
	assert.Contains(t, view, "2021-06-30")
}

func TestAddSingerRefetchesOnce(t *testing.T) {
	h := newHarness(t, model.KindSinger)
	p := pageOf[model.Singer](h, model.KindSinger)

	h.press("a")
	require.NotNil(t, p.dialog)
	h.typeText("A")
	h.press("tab")
	h.typeText("B")
	h.press("tab", "tab", "right", "right", "right", "tab")
	h.typeText("X")
	h.press("ctrl+s")

	require.Nil(t, p.dialog)
	body := h.cat.lastBody("POST /addArtist")
	require.Equal(t, "A", body["name"])
	require.Equal(t, "B", body["bio"])
	require.Equal(t, "组合", body["type"])
	require.Equal(t, "X", body["location"])
	require.Empty(t, body["profileImage"])
	assert.Equal(t, "Created singer", h.app.notice)

	h.send(h.next())
	require.Eventually(t, func() bool { return !p.coord.Pending() }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 2, h.cat.count("GET /artists"))

	names := make([]string, 0)
	for _, s := range p.table.Rows() {
		names = append(names, s.Name)
	}
	require.Contains(t, names, "A")
}

func TestFailedSubmitKeepsDialogOpen(t *testing.T) {
	h := newHarness(t, model.KindSinger, func(c *fakeCatalog) { c.failAdd = true })
	p := pageOf[model.Singer](h, model.KindSinger)

	h.press("a")
	h.typeText("A")
	h.press("ctrl+s")

	require.NotNil(t, p.dialog)
	require.False(t, p.dialog.busy)
	require.Contains(t, p.dialog.err, "500")
	require.Equal(t, "A", p.dialog.form.State.Get(form.KeyName))
	require.Contains(t, h.app.View(), "Save failed")
	require.Empty(t, h.app.notice)

	time.Sleep(50 * time.Millisecond)
	require.False(t, p.coord.Pending())
	require.Equal(t, 1, h.cat.count("GET /artists"))
}

func TestMissingRequiredFieldBlocksSubmit(t *testing.T) {
	h := newHarness(t, model.KindSinger)
	p := pageOf[model.Singer](h, model.KindSinger)

	h.press("a", "ctrl+s")
	require.NotNil(t, p.dialog)
	require.Contains(t, p.dialog.err, "missing required field(s): name")
	require.Zero(t, h.cat.count("POST /addArtist"))
}

func TestCancelDiscardsCreateForm(t *testing.T) {
	h := newHarness(t, model.KindSinger)
	p := pageOf[model.Singer](h, model.KindSinger)

	h.press("a")
	h.typeText("Z")
	h.press("esc")
	require.Nil(t, p.dialog)

	h.press("a")
	require.Empty(t, p.dialog.form.State.Get(form.KeyName))
}

func TestDeleteRemovesRowAfterRefetch(t *testing.T) {
	h := newHarness(t, model.KindSinger)
	p := pageOf[model.Singer](h, model.KindSinger)

	h.press("d")
	require.NotNil(t, p.confirm)
	require.Contains(t, h.app.View(), `Delete singer "Nina"?`)
	h.press("y")
	assert.Equal(t, "Deleted singer", h.app.notice)

	h.send(h.next())
	for _, s := range p.table.Rows() {
		require.NotEqual(t, model.ID("1"), s.ID)
	}
	require.Len(t, p.table.Rows(), 1)
}

func TestFailedDeleteShowsErrorWithoutRefresh(t *testing.T) {
	h := newHarness(t, model.KindSinger, func(c *fakeCatalog) { c.failDelete = true })
	p := pageOf[model.Singer](h, model.KindSinger)

	h.press("d", "y")
	require.True(t, h.app.noticeErr)
	require.Contains(t, h.app.notice, "Could not delete singer")

	time.Sleep(50 * time.Millisecond)
	require.False(t, p.coord.Pending())
	require.Equal(t, 1, h.cat.count("GET /artists"))
	require.Len(t, p.table.Rows(), 2)
}

func TestEditAlbumSeedsAndUpdates(t *testing.T) {
	h := newHarness(t, model.KindAlbum)
	p := pageOf[model.Album](h, model.KindAlbum)

	h.press("e")
	require.NotNil(t, p.dialog)
	v := p.dialog.form.State.Snapshot()
	require.Equal(t, "Blue", v[form.KeyTitle])
	require.Equal(t, "1", v[form.KeyArtistID])
	require.Equal(t, "2021-06-30", v[form.KeyReleaseDate])
	require.Len(t, p.dialog.options[optArtists], 2)

	h.typeText("!")
	h.press("tab", "tab", "tab", "]", "tab", "right", "ctrl+s")

	require.Nil(t, p.dialog)
	body := h.cat.lastBody("PUT /updateAlbum/{id}")
	require.Equal(t, "Blue!", body["title"])
	require.Equal(t, "2021-07-30", body["releaseDate"])
	require.Equal(t, "2", body["artistId"])

	h.send(h.next())
	require.Equal(t, "Blue!", p.table.Rows()[0].Title)
	require.Equal(t, "Bo", p.table.Rows()[0].ArtistName())
}

func TestEditSingerPreviewsBoundImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 8, 4))))
	h := newHarness(t, model.KindSinger, func(c *fakeCatalog) {
		c.singers[0].ProfileImage = "uploads/nina.png"
		c.assets = map[string][]byte{"nina.png": buf.Bytes()}
	})
	p := pageOf[model.Singer](h, model.KindSinger)

	h.press("e")
	require.NotNil(t, p.dialog)
	fld := p.dialog.uploads[form.KeyProfileImage]
	require.Equal(t, upload.Bound, fld.Status())
	require.Equal(t, 8, fld.Preview().Width)
	require.Equal(t, 1, h.cat.count("GET /uploads/{name}"))
	assert.Contains(t, h.app.View(), "nina.png")
}

func TestEditSongLeavesDurationUntouched(t *testing.T) {
	h := newHarness(t, model.KindSong, func(c *fakeCatalog) { c.songs[0].Duration = "212.6" })
	p := pageOf[model.Song](h, model.KindSong)
	require.Contains(t, p.View(), "3:33")

	h.press("e")
	require.NotNil(t, p.dialog)
	require.Equal(t, "212.6", p.dialog.form.State.Get(form.KeyDuration))
	h.press("ctrl+s")

	require.Nil(t, p.dialog)
	require.Equal(t, "212.6", h.cat.lastBody("PUT /updateSong/{id}")["duration"])
	h.send(h.next())
	require.Equal(t, model.Seconds("212.6"), p.table.Rows()[0].Duration)
}

func TestSongWithBlankDurationStaysListable(t *testing.T) {
	h := newHarness(t, model.KindSong, func(c *fakeCatalog) { c.songs[0].Duration = "" })
	p := pageOf[model.Song](h, model.KindSong)

	h.press("r")
	h.send(h.next())
	require.Empty(t, p.loadErr)
	require.Len(t, p.table.Rows(), 1)
	require.Contains(t, p.View(), "0:00")
}

func TestRecommendationsHaveNoEdit(t *testing.T) {
	h := newHarness(t, model.KindRecommendation)
	p := pageOf[model.Recommendation](h, model.KindRecommendation)

	h.press("e")
	require.Nil(t, p.dialog)

	h.press("a", "right", "ctrl+s")
	require.Nil(t, p.dialog)
	require.Equal(t, "10", h.cat.lastBody("POST /addRecommendation")["albumId"])
	h.send(h.next())
	require.Len(t, p.table.Rows(), 2)
}

func TestSubmitDuringUploadKeepsPreviousPath(t *testing.T) {
	release := make(chan struct{})
	h := newHarness(t, model.KindSong, func(c *fakeCatalog) { c.uploadRelease = release })
	p := pageOf[model.Song](h, model.KindSong)

	audio := filepath.Join(t.TempDir(), "take.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("ID3\x03\x00\x00\x00\x00\x00\x00 audio bytes"), 0o644))

	h.press("a")
	h.typeText("New song")
	h.press("tab")
	h.typeText("61")
	h.press("tab")
	h.typeText(audio)

	_, cmd := h.app.Update(keyMsg("enter"))
	require.NotNil(t, cmd)
	fld := p.dialog.uploads[form.KeyFilePath]
	require.Equal(t, upload.PreviewPending, fld.Status())

	_, uploadCmd := h.app.Update(cmd())
	require.NotNil(t, uploadCmd)
	require.Equal(t, upload.Uploading, fld.Status())
	done := make(chan tea.Msg, 1)
	go func() { done <- uploadCmd() }()

	h.press("tab", "right", "ctrl+s")
	require.Nil(t, p.dialog)

	body := h.cat.lastBody("POST /addSong")
	require.Equal(t, "New song", body["title"])
	require.Equal(t, "61", body["duration"])
	require.Equal(t, "10", body["albumId"])
	require.Equal(t, "1", body["singerId"])
	require.Nil(t, body["filePath"])

	close(release)
	h.send(<-done)
	require.NotEqual(t, upload.Bound, fld.Status())

	h.send(h.next())
	rows := p.table.Rows()
	require.Equal(t, "New song", rows[len(rows)-1].Title)
	require.Empty(t, rows[len(rows)-1].FilePath)
}

func TestPageSwitchingAndLogout(t *testing.T) {
	h := newHarness(t, model.KindSinger)
	require.Equal(t, model.KindSinger, h.app.page().Kind())

	h.press("tab")
	require.Equal(t, model.KindAlbum, h.app.page().Kind())
	h.press("4")
	require.Equal(t, model.KindRecommendation, h.app.page().Kind())

	sess := &fakeSession{}
	h.app.session = sess
	_, cmd := h.app.Update(keyMsg("L"))
	require.NotNil(t, cmd)
	require.True(t, sess.loggedOut)
	require.True(t, h.app.LoggedOut())
}

func TestManualRefresh(t *testing.T) {
	h := newHarness(t, model.KindSong)
	h.press("r")
	msg := h.next()
	loaded, ok := msg.(loadedMsg)
	require.True(t, ok)
	require.Equal(t, model.KindSong, loaded.kind)
	h.send(msg)
	require.Equal(t, 2, h.cat.count("GET /songs"))
}

type fakeSession struct {
	loggedOut bool
}

func (s *fakeSession) Logout() error {
	s.loggedOut = true
	return nil
}
