// Package i18n holds the translated UI strings. Messages are keyed by their English text.
package i18n

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported languages, the first one is the fallback
var Supported = []language.Tag{language.English, language.Czech}

var (
	matcher = language.NewMatcher(Supported)
	cat     = buildCatalog()

	printersMu sync.Mutex
	printers   = map[language.Tag]*message.Printer{}
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key := range czech {
		_ = b.SetString(language.English, key, key)
	}
	for key, msg := range czech {
		_ = b.SetString(language.Czech, key, msg)
	}
	return b
}

// Match picks the best supported language for the given preferences, in order of priority.
// Empty and malformed tags are skipped.
func Match(prefs ...string) language.Tag {
	var valid []string
	for _, p := range prefs {
		if p != "" {
			valid = append(valid, p)
		}
	}
	tag, _ := language.MatchStrings(matcher, valid...)
	base, _ := tag.Base()
	for _, s := range Supported {
		if b, _ := s.Base(); b == base {
			return s
		}
	}
	return Supported[0]
}

// Printer returns the message printer of tag
func Printer(tag language.Tag) *message.Printer {
	printersMu.Lock()
	defer printersMu.Unlock()

	if p, ok := printers[tag]; ok {
		return p
	}
	p := message.NewPrinter(tag, message.Catalog(cat))
	printers[tag] = p
	return p
}

// For returns the printer of the best language for prefs
func For(prefs ...string) *message.Printer {
	return Printer(Match(prefs...))
}
