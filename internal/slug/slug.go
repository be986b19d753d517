// Package slug derives unique article slugs from titles.
package slug

import (
	"github.com/google/uuid"
	gosimple "github.com/gosimple/slug"
)

// Transliterate converts title to lowercase ASCII, spelling out non-Latin
// scripts and special letters ("Straße" becomes "strasse", "Привет" becomes
// "privet"), and joins the remaining alphanumeric runs with single hyphens.
func Transliterate(title string) string {
	return gosimple.MakeLang(title, "en")
}

// Generate returns Transliterate(title) followed by a random UUID suffix.
// Titles are not unique; the suffix makes the slug unique.
func Generate(title string) string {
	return withSuffix(Transliterate(title), uuid.NewString())
}

func withSuffix(base, suffix string) string {
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
