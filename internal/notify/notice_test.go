package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestResolve(t *testing.T) {
	l := NewLocalizer()

	assert.Equal(t, "fr", l.Resolve(""))
	assert.Equal(t, "fr", l.Resolve("fr-CA,fr;q=0.9"))
	assert.Equal(t, "en", l.Resolve("en-GB,en;q=0.8,fr;q=0.5"))
	assert.Equal(t, "fr", l.Resolve("de-DE"))
	assert.Equal(t, "fr", l.Resolve("not a header"))
}

func TestLocalize(t *testing.T) {
	l := NewLocalizer()

	n := l.Localize("en", LevelSuccess, CodeEnrollmentSubmitted)
	assert.Equal(t, LevelSuccess, n.Level)
	assert.Equal(t, "Your enrollment request has been sent.", n.Message)

	n = l.Localize("fr", LevelError, CodeSessionFull)
	assert.Equal(t, "Cette session est complète.", n.Message)

	n = l.Localize("zz", LevelInfo, "unknown_code")
	assert.Equal(t, "unknown_code", n.Message)

	for tag, messages := range catalog {
		assert.Len(t, messages, len(catalog[language.French]), tag.String())
	}
}
