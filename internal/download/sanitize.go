package download

import (
	"path/filepath"
	"strings"
	"unicode"
)

// maxNameRunes bounds scratch file names; the extension is kept.
const maxNameRunes = 80

var replacer = strings.NewReplacer(
	":", "_",
	"/", "_",
	"<", "_",
	">", "_",
	"'", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
	" ", "_",
)

// MakeValid turns an asset name into a filesystem-safe file name.
func MakeValid(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, replacer.Replace(name))
	name = strings.TrimLeft(name, ".")

	if r := []rune(name); len(r) > maxNameRunes {
		ext := []rune(filepath.Ext(name))
		if len(ext) >= maxNameRunes {
			ext = nil
		}
		name = string(r[:maxNameRunes-len(ext)]) + string(ext)
	}
	if name == "" {
		return "asset"
	}
	return name
}
