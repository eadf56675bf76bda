package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	defer SetLocales(DEFAULT_LOCALE)

	SetLocales(DEFAULT_LOCALE)
	assert.Equal("line 3 'copy' missing", From("line %d '%v' missing", 3, "copy"))
	assert.NotNil(Printer())

	// Unknown and empty locales fall back to a working printer.
	SetLocales("", "  ")
	assert.Equal("halted", From("halted"))

	SetLocales("xx-YY")
	assert.Equal("ready 1", From("ready %v", 1))
}

func TestClean(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(clean(nil))
	assert.Equal([]string{"fr-FR", "en-US"}, clean([]string{" fr-FR", "", "en-US "}))
}
