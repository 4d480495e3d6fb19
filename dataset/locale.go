package dataset

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Locale selects one of the two language variants of a Localized text.
type Locale string

const (
	Indonesian Locale = "id"
	English    Locale = "en"
)

// DefaultLocale is used when nothing better can be negotiated.
const DefaultLocale = Indonesian

// Indonesian comes first so that it wins when no tag matches.
var localeMatcher = language.NewMatcher([]language.Tag{language.Indonesian, language.English})

// ParseLocale accepts "id" or "en" in any case.
func ParseLocale(s string) (Locale, error) {
	switch Locale(strings.ToLower(strings.TrimSpace(s))) {
	case Indonesian:
		return Indonesian, nil
	case English:
		return English, nil
	}
	return "", fmt.Errorf("unsupported locale %q", s)
}

// MatchLocale picks the best supported locale for an Accept-Language header.
func MatchLocale(acceptLanguage string) Locale {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	if idx == 1 {
		return English
	}
	return Indonesian
}

// Localized holds the Indonesian and English variants of a text.
type Localized struct {
	ID string `json:"id" yaml:"id"`
	EN string `json:"en" yaml:"en"`
}

// In returns the variant for locale without falling back to the other language.
func (l Localized) In(locale Locale) string {
	if locale == English {
		return l.EN
	}
	return l.ID
}

// Display is like In but falls back to the other variant when the requested one is empty.
func (l Localized) Display(locale Locale) string {
	if s := l.In(locale); s != "" {
		return s
	}
	if locale == English {
		return l.ID
	}
	return l.EN
}

// Empty reports whether both variants are blank.
func (l Localized) Empty() bool {
	return strings.TrimSpace(l.ID) == "" && strings.TrimSpace(l.EN) == ""
}
