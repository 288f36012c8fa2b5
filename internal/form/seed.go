package form

import (
	"strconv"

	"orange-console/internal/model"
)

// EditSinger seeds an edit form from an existing singer.
func EditSinger(s model.Singer) *Form {
	f := &Form{Kind: model.KindSinger, Mode: Edit, ID: s.ID, State: NewState()}
	f.State.Reset(map[string]string{
		KeyName:         s.Name,
		KeyBio:          s.Bio,
		KeyProfileImage: s.ProfileImage,
		KeyType:         s.Type,
		KeyLocation:     s.Location,
	})
	return f
}

// EditAlbum seeds an edit form from an existing album. The embedded artist is
// flattened into the artistId slot and the release date is parsed for the
// date selector, which rewrites the slot in canonical form.
func EditAlbum(a model.Album) *Form {
	f := &Form{Kind: model.KindAlbum, Mode: Edit, ID: a.ID, State: NewState()}
	values := map[string]string{
		KeyTitle:       a.Title,
		KeyCoverImage:  a.CoverImage,
		KeyGenre:       a.Genre,
		KeyReleaseDate: a.ReleaseDate,
	}
	if a.Artist != nil {
		values[KeyArtistID] = a.Artist.ID.String()
	}
	f.State.Reset(values)

	if d, err := model.ParseDate(a.ReleaseDate); err == nil {
		f.SetDate(d)
	}
	return f
}

// EditSong seeds an edit form from an existing song. The album is flattened
// into albumId and the singer into singerId, falling back to the album's
// artist.
func EditSong(s model.Song) *Form {
	f := &Form{Kind: model.KindSong, Mode: Edit, ID: s.ID, State: NewState()}
	values := map[string]string{
		KeyTitle:    s.Title,
		KeyDuration: string(s.Duration),
		KeyFilePath: s.FilePath,
		KeyIsLiked:  strconv.FormatBool(s.IsLiked),
	}
	if s.Album != nil {
		values[KeyAlbumID] = s.Album.ID.String()
	}
	switch {
	case s.Singer != nil:
		values[KeySingerID] = s.Singer.ID.String()
	case s.Album != nil && s.Album.Artist != nil:
		values[KeySingerID] = s.Album.Artist.ID.String()
	}
	f.State.Reset(values)
	return f
}
