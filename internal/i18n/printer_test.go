// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	assert.Equal(t, language.English, MatchLanguage(""))
	assert.Equal(t, language.English, MatchLanguage("C"))
	assert.Equal(t, language.English, MatchLanguage("not a locale!!"))

	base, _ := MatchLanguage("de_DE.UTF-8").Base()
	assert.Equal(t, "de", base.String())
}

func TestNewCLIPrinter_FormatsNumbers(t *testing.T) {
	t.Setenv("LC_ALL", "en_US.UTF-8")
	p := NewCLIPrinter()
	assert.Equal(t, "1,234 lines", p.Sprintf("%d lines", 1234))
}
