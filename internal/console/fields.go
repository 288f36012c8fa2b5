package console

import (
	"orange-console/internal/api"
	"orange-console/internal/form"
	"orange-console/internal/model"
)

type fieldType int

const (
	fieldText fieldType = iota
	fieldArea
	fieldChoice
	fieldDate
	fieldAsset
	fieldToggle
)

// optionSource names where a choice field gets its options.
type optionSource int

const (
	optNone optionSource = iota
	optSingerTypes
	optArtists
	optAlbums
)

type fieldSpec struct {
	key     string
	label   string
	typ     fieldType
	asset   api.AssetKind
	options optionSource
}

// option is one entry of a choice field. related carries a value derived
// from the choice, such as the artist of a picked album.
type option struct {
	value   string
	label   string
	related string
}

func fieldsFor(kind model.Kind) []fieldSpec {
	switch kind {
	case model.KindSinger:
		return []fieldSpec{
			{key: form.KeyName, label: "Name", typ: fieldText},
			{key: form.KeyBio, label: "Bio", typ: fieldArea},
			{key: form.KeyProfileImage, label: "Image", typ: fieldAsset, asset: api.AssetImage},
			{key: form.KeyType, label: "Type", typ: fieldChoice, options: optSingerTypes},
			{key: form.KeyLocation, label: "Location", typ: fieldText},
		}
	case model.KindAlbum:
		return []fieldSpec{
			{key: form.KeyTitle, label: "Title", typ: fieldText},
			{key: form.KeyCoverImage, label: "Cover", typ: fieldAsset, asset: api.AssetImage},
			{key: form.KeyGenre, label: "Genre", typ: fieldText},
			{key: form.KeyReleaseDate, label: "Released", typ: fieldDate},
			{key: form.KeyArtistID, label: "Artist", typ: fieldChoice, options: optArtists},
		}
	case model.KindSong:
		return []fieldSpec{
			{key: form.KeyTitle, label: "Title", typ: fieldText},
			{key: form.KeyDuration, label: "Duration (s)", typ: fieldText},
			{key: form.KeyFilePath, label: "Audio", typ: fieldAsset, asset: api.AssetAudio},
			{key: form.KeyAlbumID, label: "Album", typ: fieldChoice, options: optAlbums},
			{key: form.KeyIsLiked, label: "Liked", typ: fieldToggle},
		}
	case model.KindRecommendation:
		return []fieldSpec{
			{key: form.KeyAlbumID, label: "Album", typ: fieldChoice, options: optAlbums},
		}
	}
	return nil
}

func singerTypeOptions() []option {
	out := make([]option, 0, len(model.SingerTypes))
	for _, t := range model.SingerTypes {
		out = append(out, option{value: string(t), label: t.Label()})
	}
	return out
}

func artistOptions(singers []model.Singer) []option {
	out := make([]option, 0, len(singers))
	for _, s := range singers {
		out = append(out, option{value: s.ID.String(), label: s.Name})
	}
	return out
}

func albumOptions(albums []model.Album) []option {
	out := make([]option, 0, len(albums))
	for _, a := range albums {
		o := option{value: a.ID.String(), label: a.Title}
		if a.Artist != nil {
			o.related = a.Artist.ID.String()
			if a.Artist.Name != "" {
				o.label += " (" + a.Artist.Name + ")"
			}
		}
		out = append(out, o)
	}
	return out
}
