// Package i18n localizes ltsync's own prompts and messages. Catalogs are
// embedded in the binary; Init selects one at startup and T/N look
// strings up in it, falling back to the msgid when nothing matches.
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Catalog layout: locales/{lang}/LC_MESSAGES/ltsync.po
//
//go:embed all:locales
var locales embed.FS

const domain = "ltsync"

var po *gotext.Locale

// Init loads the catalog for lang. An empty lang means detect from the
// environment. Call once before any T or N.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	po = gotext.NewLocaleFSWithPath(lang, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T translates msgid, returning it unchanged when untranslated.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates with plural forms selected by n.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// detectLanguage picks the locale from the environment using the GNU
// gettext precedence: LANGUAGE, LC_ALL, LC_MESSAGES, LANG.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(env)
		if val == "" {
			continue
		}
		// LANGUAGE is a colon-separated preference list.
		if env == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		// "de_DE.UTF-8" -> "de_DE"
		val, _, _ = strings.Cut(val, ".")
		if val == "C" || val == "POSIX" || val == "" {
			continue
		}
		return val
	}
	return "en"
}
