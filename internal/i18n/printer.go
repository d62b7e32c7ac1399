// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package i18n

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NewCLIPrinter returns a printer for operator-facing output, localized
// from $LC_ALL / $LANG when they name a supported language.
func NewCLIPrinter() *message.Printer {
	return message.NewPrinter(MatchLanguage(envLocale()))
}

// MatchLanguage picks the best supported tag for a locale string such as
// "de_DE.UTF-8". English is the fallback.
func MatchLanguage(locale string) language.Tag {
	locale, _, _ = strings.Cut(locale, ".")
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	matcher := language.NewMatcher([]language.Tag{language.English, language.German, language.Japanese})
	best, _, _ := matcher.Match(tag)
	return best
}

func envLocale() string {
	for _, key := range []string{"LC_ALL", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
