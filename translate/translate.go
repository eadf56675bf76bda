// Package translate localizes the user visible messages of the onebit
// toolchain.
//
// The locale is taken from the ONEBIT_LANG environment variable when set,
// then from the system locales, falling back to en-US.
package translate

import (
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DEFAULT_LOCALE = "en-US"
	LOCALE_ENV     = "ONEBIT_LANG"
)

var (
	printer atomic.Pointer[message.Printer]
	tag     atomic.Pointer[language.Tag]
)

func init() {
	var locales []string

	if env, ok := os.LookupEnv(LOCALE_ENV); ok {
		locales = strings.Split(env, ",")
	} else {
		var err error
		locales, err = locale.GetLocales()
		if err != nil {
			log.Printf("onebit: locale: %v", err)
		}
	}

	SetLocales(locales...)
}

// SetLocales selects the best supported language for a list of locales,
// in preference order. An empty list selects en-US.
func SetLocales(locales ...string) {
	locales = clean(locales)
	if len(locales) == 0 {
		locales = []string{DEFAULT_LOCALE}
	}

	matched := message.MatchLanguage(locales...)
	tag.Store(&matched)
	printer.Store(message.NewPrinter(matched))
}

// Language returns the language selected by the last SetLocales.
func Language() language.Tag {
	return *tag.Load()
}

func clean(locales []string) (result []string) {
	for _, name := range locales {
		name = strings.TrimSpace(name)
		if len(name) != 0 {
			result = append(result, name)
		}
	}
	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return Printer().Sprintf(key, args...)
}

// Printer returns the message printer for the selected locale.
func Printer() *message.Printer {
	return printer.Load()
}
