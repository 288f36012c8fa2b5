package console

import (
	"context"
	"strings"

	"orange-console/internal/api"
	"orange-console/internal/form"
	"orange-console/internal/listview"
	"orange-console/internal/model"
)

// submitFunc performs a prepared mutation. The payload is captured when the
// operator submits, so later form writes do not leak into it.
type submitFunc func(ctx context.Context, c *api.Client) error

// resource describes how one catalog collection is listed and mutated.
type resource[T any] struct {
	kind    model.Kind
	noun    string
	columns []listview.Column[T]
	rowID   func(T) model.ID
	label   func(T) string

	list   func(ctx context.Context, c *api.Client) ([]T, error)
	remove func(ctx context.Context, c *api.Client, id model.ID) error
	// edit is nil for collections without an edit flow.
	edit    func(T) *form.Form
	prepare func(f *form.Form) submitFunc
}

func singerResource(c *api.Client) resource[model.Singer] {
	return resource[model.Singer]{
		kind: model.KindSinger,
		noun: "singer",
		columns: []listview.Column[model.Singer]{
			{Title: "Name", Width: 18, Cell: func(s model.Singer) string { return s.Name }},
			{Title: "Type", Width: 12, Cell: func(s model.Singer) string { return model.SingerType(s.Type).Label() }},
			{Title: "Location", Width: 14, Cell: func(s model.Singer) string { return s.Location }},
			{Title: "Bio", Width: 28, Cell: func(s model.Singer) string { return oneLine(s.Bio) }},
			{Title: "Image", Width: 30, Cell: func(s model.Singer) string { return c.ResolveAsset(s.ProfileImage) }},
		},
		rowID: func(s model.Singer) model.ID { return s.ID },
		label: func(s model.Singer) string { return s.Name },
		list: func(ctx context.Context, c *api.Client) ([]model.Singer, error) {
			return c.Singers(ctx)
		},
		remove: func(ctx context.Context, c *api.Client, id model.ID) error {
			return c.DeleteSinger(ctx, id)
		},
		edit: form.EditSinger,
		prepare: func(f *form.Form) submitFunc {
			body, id := f.Singer(), f.ID
			if f.Mode == form.Edit {
				return func(ctx context.Context, c *api.Client) error {
					_, err := c.UpdateSinger(ctx, id, body)
					return err
				}
			}
			return func(ctx context.Context, c *api.Client) error {
				_, err := c.AddSinger(ctx, body)
				return err
			}
		},
	}
}

func albumResource(c *api.Client) resource[model.Album] {
	return resource[model.Album]{
		kind: model.KindAlbum,
		noun: "album",
		columns: []listview.Column[model.Album]{
			{Title: "Title", Width: 22, Cell: func(a model.Album) string { return a.Title }},
			{Title: "Artist", Width: 16, Cell: func(a model.Album) string { return a.ArtistName() }},
			{Title: "Genre", Width: 12, Cell: func(a model.Album) string { return a.Genre }},
			{Title: "Released", Width: 10, Cell: func(a model.Album) string { return model.DisplayDate(a.ReleaseDate) }},
			{Title: "Cover", Width: 30, Cell: func(a model.Album) string { return c.ResolveAsset(a.CoverImage) }},
		},
		rowID: func(a model.Album) model.ID { return a.ID },
		label: func(a model.Album) string { return a.Title },
		list: func(ctx context.Context, c *api.Client) ([]model.Album, error) {
			return c.Albums(ctx)
		},
		remove: func(ctx context.Context, c *api.Client, id model.ID) error {
			return c.DeleteAlbum(ctx, id)
		},
		edit: form.EditAlbum,
		prepare: func(f *form.Form) submitFunc {
			body, id := f.Album(), f.ID
			if f.Mode == form.Edit {
				return func(ctx context.Context, c *api.Client) error {
					_, err := c.UpdateAlbum(ctx, id, body)
					return err
				}
			}
			return func(ctx context.Context, c *api.Client) error {
				_, err := c.AddAlbum(ctx, body)
				return err
			}
		},
	}
}

func songResource(c *api.Client) resource[model.Song] {
	return resource[model.Song]{
		kind: model.KindSong,
		noun: "song",
		columns: []listview.Column[model.Song]{
			{Title: "Title", Width: 22, Cell: func(s model.Song) string { return s.Title }},
			{Title: "Album", Width: 18, Cell: func(s model.Song) string { return s.AlbumTitle() }},
			{Title: "Singer", Width: 14, Cell: func(s model.Song) string { return s.SingerName() }},
			{Title: "Length", Width: 6, Cell: func(s model.Song) string { return model.FormatDuration(s.Duration) }},
			{Title: "♥", Width: 1, Cell: func(s model.Song) string {
				if s.IsLiked {
					return "♥"
				}
				return ""
			}},
			{Title: "File", Width: 30, Cell: func(s model.Song) string { return c.ResolveAsset(s.FilePath) }},
		},
		rowID: func(s model.Song) model.ID { return s.ID },
		label: func(s model.Song) string { return s.Title },
		list: func(ctx context.Context, c *api.Client) ([]model.Song, error) {
			return c.Songs(ctx)
		},
		remove: func(ctx context.Context, c *api.Client, id model.ID) error {
			return c.DeleteSong(ctx, id)
		},
		edit: form.EditSong,
		prepare: func(f *form.Form) submitFunc {
			body, id := f.Song(), f.ID
			if f.Mode == form.Edit {
				return func(ctx context.Context, c *api.Client) error {
					_, err := c.UpdateSong(ctx, id, body)
					return err
				}
			}
			return func(ctx context.Context, c *api.Client) error {
				_, err := c.AddSong(ctx, body)
				return err
			}
		},
	}
}

func recommendationResource() resource[model.Recommendation] {
	return resource[model.Recommendation]{
		kind: model.KindRecommendation,
		noun: "recommendation",
		columns: []listview.Column[model.Recommendation]{
			{Title: "Album", Width: 24, Cell: func(r model.Recommendation) string { return r.Title }},
			{Title: "Artist", Width: 18, Cell: func(r model.Recommendation) string { return r.ArtistName() }},
			{Title: "Genre", Width: 12, Cell: func(r model.Recommendation) string { return r.Genre }},
			{Title: "Released", Width: 10, Cell: func(r model.Recommendation) string { return model.DisplayDate(r.ReleaseDate) }},
		},
		rowID: func(r model.Recommendation) model.ID { return r.ID },
		label: func(r model.Recommendation) string { return r.Title },
		list: func(ctx context.Context, c *api.Client) ([]model.Recommendation, error) {
			return c.Recommendations(ctx)
		},
		remove: func(ctx context.Context, c *api.Client, albumID model.ID) error {
			return c.DeleteRecommendation(ctx, albumID)
		},
		prepare: func(f *form.Form) submitFunc {
			albumID := f.RecommendedAlbum()
			return func(ctx context.Context, c *api.Client) error {
				return c.AddRecommendation(ctx, albumID)
			}
		},
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
