package form

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"orange-console/internal/model"
)

// Mode distinguishes a create dialog from an edit dialog.
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// Field keys. They match the catalog's JSON names; the *Id keys are the flat
// relation slots used by option selectors.
const (
	KeyName         = "name"
	KeyBio          = "bio"
	KeyProfileImage = "profileImage"
	KeyType         = "type"
	KeyLocation     = "location"
	KeyTitle        = "title"
	KeyCoverImage   = "coverImage"
	KeyGenre        = "genre"
	KeyReleaseDate  = "releaseDate"
	KeyArtistID     = "artistId"
	KeyDuration     = "duration"
	KeyFilePath     = "filePath"
	KeyAlbumID      = "albumId"
	KeySingerID     = "singerId"
	KeyIsLiked      = "isLiked"
)

var required = map[model.Kind][]string{
	model.KindSinger:         {KeyName},
	model.KindAlbum:          {KeyTitle, KeyArtistID},
	model.KindSong:           {KeyTitle, KeyAlbumID},
	model.KindRecommendation: {KeyAlbumID},
}

// Required lists the keys that must be present before kind can be submitted.
func Required(kind model.Kind) []string {
	return required[kind]
}

// ValidationError lists required fields that were left empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// Form is one entity instance being created or edited.
type Form struct {
	Kind  model.Kind
	Mode  Mode
	ID    model.ID
	State *State

	// date backs the date selector; the state slot holds its text form.
	date time.Time
}

// New returns an empty create form for kind.
func New(kind model.Kind) *Form {
	return &Form{Kind: kind, Mode: Create, State: NewState()}
}

// Date returns the selected release date, zero when unset.
func (f *Form) Date() time.Time {
	return f.date
}

// SetDate selects a release date and writes its canonical text form into
// the state.
func (f *Form) SetDate(t time.Time) {
	f.date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	f.State.Set(KeyReleaseDate, model.FormatDate(f.date))
}

// ClearDate unsets the release date.
func (f *Form) ClearDate() {
	f.date = time.Time{}
	f.State.Set(KeyReleaseDate, "")
}

// Validate checks required-field presence only.
func (f *Form) Validate() error {
	var missing []string
	for _, key := range required[f.Kind] {
		if strings.TrimSpace(f.State.Get(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Singer builds the write body for a singer form.
func (f *Form) Singer() model.Singer {
	v := f.State.Snapshot()
	return model.Singer{
		ID:           f.ID,
		Name:         strings.TrimSpace(v[KeyName]),
		Bio:          v[KeyBio],
		ProfileImage: v[KeyProfileImage],
		Type:         v[KeyType],
		Location:     strings.TrimSpace(v[KeyLocation]),
	}
}

// Album builds the write body for an album form.
func (f *Form) Album() model.AlbumWrite {
	v := f.State.Snapshot()
	return model.AlbumWrite{
		ID:          f.ID,
		Title:       strings.TrimSpace(v[KeyTitle]),
		CoverImage:  v[KeyCoverImage],
		Genre:       strings.TrimSpace(v[KeyGenre]),
		ReleaseDate: v[KeyReleaseDate],
		ArtistID:    model.ID(v[KeyArtistID]),
	}
}

// Song builds the write body for a song form.
func (f *Form) Song() model.SongWrite {
	v := f.State.Snapshot()
	liked, _ := strconv.ParseBool(v[KeyIsLiked])
	return model.SongWrite{
		ID:       f.ID,
		Title:    strings.TrimSpace(v[KeyTitle]),
		Duration: strings.TrimSpace(v[KeyDuration]),
		FilePath: v[KeyFilePath],
		AlbumID:  model.ID(v[KeyAlbumID]),
		SingerID: model.ID(v[KeySingerID]),
		IsLiked:  liked,
	}
}

// RecommendedAlbum returns the album a recommendation form points at.
func (f *Form) RecommendedAlbum() model.ID {
	return model.ID(f.State.Get(KeyAlbumID))
}
