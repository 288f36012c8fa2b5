package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier assigned by the catalog service. The service returns
// some ids as JSON numbers, so decoding accepts both forms.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id %s: %w", b, err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// SingerType is the stored value of a singer's category.
type SingerType string

const (
	SingerMale   SingerType = "男"
	SingerFemale SingerType = "女"
	SingerGroup  SingerType = "组合"
)

// SingerTypes lists the categories offered when editing a singer.
var SingerTypes = []SingerType{SingerMale, SingerFemale, SingerGroup}

// Label returns a display label for the category.
func (t SingerType) Label() string {
	switch t {
	case SingerMale:
		return "男 (male)"
	case SingerFemale:
		return "女 (female)"
	case SingerGroup:
		return "组合 (group)"
	default:
		return string(t)
	}
}

// Singer is returned by the artists endpoint.
type Singer struct {
	ID           ID     `json:"id,omitempty"`
	Name         string `json:"name"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage,omitempty"`
	Type         string `json:"type"`
	Location     string `json:"location"`
}

// Album is returned by the albums endpoint with its artist embedded.
type Album struct {
	ID          ID      `json:"id,omitempty"`
	Title       string  `json:"title"`
	CoverImage  string  `json:"coverImage,omitempty"`
	Genre       string  `json:"genre"`
	ReleaseDate string  `json:"releaseDate"`
	Artist      *Singer `json:"artist,omitempty"`
}

// ArtistName returns the embedded artist's name or an empty string.
func (a Album) ArtistName() string {
	if a.Artist == nil {
		return ""
	}
	return a.Artist.Name
}

// AlbumWrite is the body of an album create or update call.
type AlbumWrite struct {
	ID          ID     `json:"id,omitempty"`
	Title       string `json:"title"`
	CoverImage  string `json:"coverImage,omitempty"`
	Genre       string `json:"genre"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	ArtistID    ID     `json:"artistId"`
}

// Song is returned by the songs endpoint.
type Song struct {
	ID       ID      `json:"id,omitempty"`
	Title    string  `json:"title"`
	Duration Seconds `json:"duration"`
	FilePath string  `json:"filePath,omitempty"`
	Album    *Album  `json:"album,omitempty"`
	Singer   *Singer `json:"singer,omitempty"`
	IsLiked  bool    `json:"isLiked"`
}

// AlbumTitle returns the owning album's title or an empty string.
func (s Song) AlbumTitle() string {
	if s.Album == nil {
		return ""
	}
	return s.Album.Title
}

// SingerName returns the song's singer, falling back to the album artist.
func (s Song) SingerName() string {
	if s.Singer != nil {
		return s.Singer.Name
	}
	if s.Album != nil {
		return s.Album.ArtistName()
	}
	return ""
}

// SongWrite is the body of a song create or update call. Duration travels as
// text.
type SongWrite struct {
	ID       ID     `json:"id,omitempty"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	FilePath string `json:"filePath,omitempty"`
	AlbumID  ID     `json:"albumId"`
	SingerID ID     `json:"singerId,omitempty"`
	IsLiked  bool   `json:"isLiked"`
}

// Recommendation is a featured album. The recommendations endpoint returns
// the referenced albums themselves.
type Recommendation struct {
	Album
}

// AlbumRef is the body of recommendation writes and album/recommendation
// deletes.
type AlbumRef struct {
	AlbumID ID `json:"albumId"`
}

// Seconds is a song length as the catalog stores it: text that normally
// holds a non-negative number of seconds. The text is kept verbatim so an
// edit that leaves the length alone writes back exactly what was read.
type Seconds string

// UnmarshalJSON accepts a JSON string, number or null. Numbers keep their
// literal form; strings are not validated.
func (s *Seconds) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return fmt.Errorf("decode duration: %w", err)
		}
		*s = Seconds(raw)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode duration %s: %w", b, err)
	}
	*s = Seconds(n.String())
	return nil
}

// MarshalJSON encodes the stored text as a JSON string.
func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s Seconds) String() string {
	return string(s)
}

// Value returns the length in seconds. ok is false when the text is not a
// finite non-negative number.
func (s Seconds) Value() (float64, bool) {
	n, ok := parseSeconds(string(s))
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}
