package site

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts one path segment to its URL form: diacritics stripped,
// lowercased, spaces and underscores hyphenated, everything else dropped.
func Slugify(segment string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(folder, segment); err == nil {
		segment = folded
	}
	segment = strings.ToLower(segment)

	var b strings.Builder
	pendingHyphen := false
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-' || r == '.':
			pendingHyphen = true
		}
	}
	return b.String()
}

// SlugifyPath slugifies every segment of a /-separated path.
func SlugifyPath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = Slugify(seg)
	}
	return strings.Join(segments, "/")
}

// TitleFromSlug derives a human title from a slug: hyphens become spaces and
// words are title-cased.
func TitleFromSlug(slug string) string {
	words := strings.ReplaceAll(slug, "-", " ")
	return cases.Title(language.Und).String(words)
}
