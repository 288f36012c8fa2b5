package console

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"orange-console/internal/model"
)

// fakeCatalog is an in-memory catalog API.
type fakeCatalog struct {
	mu      sync.Mutex
	nextID  int
	singers []model.Singer
	albums  []model.Album
	songs   []model.Song
	recs    []model.ID

	hits   map[string]int
	bodies map[string][]map[string]any

	failAdd       bool
	failDelete    bool
	uploadRelease chan struct{}

	// assets are served under /uploads/ and enable remote previews.
	assets map[string][]byte
}

func newFakeCatalog() *fakeCatalog {
	nina := model.Singer{ID: "1", Name: "Nina", Type: "女", Location: "NYC"}
	blue := model.Album{ID: "10", Title: "Blue", Genre: "jazz", ReleaseDate: "2021-06-30T00:00:00.000Z", Artist: &nina}
	return &fakeCatalog{
		nextID:  100,
		singers: []model.Singer{nina, {ID: "2", Name: "Bo", Type: "男"}},
		albums:  []model.Album{blue},
		songs:   []model.Song{{ID: "20", Title: "Intro", Duration: "125", Album: &blue}},
		recs:    []model.ID{"10"},
		hits:    make(map[string]int),
		bodies:  make(map[string][]map[string]any),
	}
}

func (c *fakeCatalog) count(route string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[route]
}

func (c *fakeCatalog) lastBody(route string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bodies[route]
	if len(b) == 0 {
		return nil
	}
	return b[len(b)-1]
}

func (c *fakeCatalog) newID() model.ID {
	c.nextID++
	return model.ID(strconv.Itoa(c.nextID))
}

func (c *fakeCatalog) albumByID(id model.ID) *model.Album {
	for i := range c.albums {
		if c.albums[i].ID == id {
			return &c.albums[i]
		}
	}
	return nil
}

func (c *fakeCatalog) singerByID(id model.ID) *model.Singer {
	for i := range c.singers {
		if c.singers[i].ID == id {
			return &c.singers[i]
		}
	}
	return nil
}

func (c *fakeCatalog) serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	handle := func(pattern string, fn func(w http.ResponseWriter, r *http.Request, body map[string]any)) {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			if r.Header.Get("Content-Type") == "application/json" {
				raw, _ := io.ReadAll(r.Body)
				if len(raw) > 0 {
					_ = json.Unmarshal(raw, &body)
				}
			}
			c.mu.Lock()
			c.hits[pattern]++
			if body != nil {
				c.bodies[pattern] = append(c.bodies[pattern], body)
			}
			c.mu.Unlock()
			fn(w, r, body)
		})
	}
	str := func(body map[string]any, key string) string {
		v, _ := body[key].(string)
		return v
	}

	handle("GET /artists", func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		writeJSON(w, c.singers)
	})
	handle("POST /addArtist", func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.failAdd {
			http.Error(w, "db down", http.StatusInternalServerError)
			return
		}
		s := model.Singer{ID: c.newID(), Name: str(body, "name"), Bio: str(body, "bio"), ProfileImage: str(body, "profileImage"), Type: str(body, "type"), Location: str(body, "location")}
		c.singers = append(c.singers, s)
		writeJSON(w, s)
	})
	handle("DELETE /deleteArtist/{id}", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.failDelete {
			http.Error(w, "in use", http.StatusConflict)
			return
		}
		id := model.ID(r.PathValue("id"))
		kept := c.singers[:0]
		for _, s := range c.singers {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		c.singers = kept
		w.WriteHeader(http.StatusNoContent)
	})
	handle("GET /albums", func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		writeJSON(w, c.albums)
	})
	handle("PUT /updateAlbum/{id}", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		a := c.albumByID(model.ID(r.PathValue("id")))
		if a == nil {
			http.NotFound(w, r)
			return
		}
		a.Title, a.Genre, a.ReleaseDate = str(body, "title"), str(body, "genre"), str(body, "releaseDate")
		a.Artist = c.singerByID(model.ID(str(body, "artistId")))
		writeJSON(w, a)
	})
	handle("GET /songs", func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		writeJSON(w, c.songs)
	})
	handle("POST /addSong", func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		s := model.Song{ID: c.newID(), Title: str(body, "title"), FilePath: str(body, "filePath"), Album: c.albumByID(model.ID(str(body, "albumId")))}
		c.songs = append(c.songs, s)
		writeJSON(w, map[string]any{"id": s.ID})
	})
	handle("PUT /updateSong/{id}", func(w http.ResponseWriter, r *http.Request, body map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i := range c.songs {
			if c.songs[i].ID == model.ID(r.PathValue("id")) {
				c.songs[i].Title = str(body, "title")
				c.songs[i].Duration = model.Seconds(str(body, "duration"))
				writeJSON(w, c.songs[i])
				return
			}
		}
		http.NotFound(w, r)
	})
	handle("GET /recommendations", func(w http.ResponseWriter, _ *http.Request, _ map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		out := make([]model.Album, 0, len(c.recs))
		for _, id := range c.recs {
			if a := c.albumByID(id); a != nil {
				out = append(out, *a)
			}
		}
		writeJSON(w, out)
	})
	handle("POST /addRecommendation", func(w http.ResponseWriter, _ *http.Request, body map[string]any) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.recs = append(c.recs, model.ID(str(body, "albumId")))
		w.WriteHeader(http.StatusCreated)
	})
	handle("POST /uploadSong", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		c.mu.Lock()
		release := c.uploadRelease
		c.mu.Unlock()
		if release != nil {
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
		}
		writeJSON(w, map[string]string{"path": "uploads/late.mp3"})
	})

	handle("GET /uploads/{name}", func(w http.ResponseWriter, r *http.Request, _ map[string]any) {
		c.mu.Lock()
		b, ok := c.assets[r.PathValue("name")]
		c.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(b)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
