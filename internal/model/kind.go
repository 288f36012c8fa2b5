package model

import (
	"fmt"
	"strings"
)

// Kind names one of the catalog collections managed by the console.
type Kind int

const (
	KindSinger Kind = iota
	KindAlbum
	KindSong
	KindRecommendation
)

// Kinds lists every collection in navigation order.
var Kinds = []Kind{KindSinger, KindAlbum, KindSong, KindRecommendation}

func (k Kind) String() string {
	switch k {
	case KindSinger:
		return "singers"
	case KindAlbum:
		return "albums"
	case KindSong:
		return "songs"
	case KindRecommendation:
		return "recommendations"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind resolves a collection name such as "albums".
func ParseKind(s string) (Kind, error) {
	q := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if q == k.String() || q+"s" == k.String() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown page %q (want singers, albums, songs or recommendations)", s)
}
