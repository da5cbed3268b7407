package generator

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxNameLength caps directory names; long titles with years and subtitles
// otherwise overflow conservative filesystem limits once nested.
const maxNameLength = 150

// fallbackName substitutes for titles that sanitize down to nothing.
const fallbackName = "Unknown Series"

// illegalChars are characters not allowed in filenames on common filesystems.
var illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00]`)

// multiSpace matches multiple consecutive spaces.
var multiSpace = regexp.MustCompile(`\s+`)

// multiDot matches multiple consecutive dots.
var multiDot = regexp.MustCompile(`\.{2,}`)

// accentFolder strips combining marks after NFD decomposition, so
// "Café Señor" becomes "Cafe Senor".
var accentFolder = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// SanitizeName turns a series title into a filesystem-safe directory name.
// Illegal characters collapse to spaces, accents are folded, leading and
// trailing separators and dots are trimmed, and the result is length-capped.
// An empty result yields a placeholder so every series gets a directory.
func SanitizeName(name string) string {
	if folded, _, err := transform.String(accentFolder, name); err == nil {
		name = folded
	}

	name = strings.ReplaceAll(name, "\x00", "")
	name = illegalChars.ReplaceAllString(name, " ")
	name = multiDot.ReplaceAllString(name, ".")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")

	if len(name) > maxNameLength {
		name = strings.Trim(name[:maxNameLength], " .")
	}
	if name == "" {
		return fallbackName
	}
	return name
}
