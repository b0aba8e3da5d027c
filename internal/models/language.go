package models

import "strings"

// CardLanguage is the language a physical copy was printed in. The app only
// distinguishes English and Japanese stock.
type CardLanguage string

const (
	LanguageEnglish  CardLanguage = "English"
	LanguageJapanese CardLanguage = "Japanese"
)

// NormalizeLanguage maps assorted language string formats onto the two
// supported values. Unknown or empty input defaults to English.
func NormalizeLanguage(lang string) CardLanguage {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "japanese", "jp", "ja", "jpn":
		return LanguageJapanese
	default:
		return LanguageEnglish
	}
}
