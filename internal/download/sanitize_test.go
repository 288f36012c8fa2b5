package download

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestMakeValid(t *testing.T) {
	require.Equal(t, "A___bad__name___with_chars_", MakeValid("A:/<bad>|name?* with\\chars'"))
	require.Equal(t, "封面.png", MakeValid("封面.png"))
	require.Equal(t, "hidden", MakeValid("..hidden"))
	require.Equal(t, "ab.mp3", MakeValid("a\x00b\n.mp3"))
	require.Equal(t, "asset", MakeValid(".."))
}

func TestMakeValidKeepsExtensionWhenTruncating(t *testing.T) {
	got := MakeValid(strings.Repeat("歌", 200) + ".flac")
	require.Equal(t, maxNameRunes, utf8.RuneCountInString(got))
	require.True(t, strings.HasSuffix(got, ".flac"))
}
