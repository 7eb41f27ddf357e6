// Package langmeta provides a registry of translation-provider target
// language codes and their English display names, used to label languages
// in prompts and to name languages when the provider listing omits one.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/localekit/ltsync/locale"
)

// Registry contains the DeepL target language codes with canonical names.
// Variants not listed here are resolved in Resolve() via tag normalization
// and base-language fallback.
var Registry = map[string]string{
	"AR":      "Arabic",
	"BG":      "Bulgarian",
	"CS":      "Czech",
	"DA":      "Danish",
	"DE":      "German",
	"EL":      "Greek",
	"EN":      "English",
	"EN-GB":   "English (British)",
	"EN-US":   "English (American)",
	"ES":      "Spanish",
	"ET":      "Estonian",
	"FI":      "Finnish",
	"FR":      "French",
	"HU":      "Hungarian",
	"ID":      "Indonesian",
	"IT":      "Italian",
	"JA":      "Japanese",
	"KO":      "Korean",
	"LT":      "Lithuanian",
	"LV":      "Latvian",
	"NB":      "Norwegian Bokmål",
	"NL":      "Dutch",
	"PL":      "Polish",
	"PT":      "Portuguese",
	"PT-BR":   "Portuguese (Brazilian)",
	"PT-PT":   "Portuguese (European)",
	"RO":      "Romanian",
	"RU":      "Russian",
	"SK":      "Slovak",
	"SL":      "Slovenian",
	"SV":      "Swedish",
	"TR":      "Turkish",
	"UK":      "Ukrainian",
	"ZH":      "Chinese (simplified)",
	"ZH-HANS": "Chinese (simplified)",
	"ZH-HANT": "Chinese (traditional)",
}

// Normalize canonicalizes a language code to the provider convention:
// uppercase with a hyphen separator (pt_br -> PT-BR, de -> DE).
func Normalize(code string) string {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if tag, err := language.Parse(code); err == nil {
		return strings.ToUpper(tag.String())
	}
	return strings.ToUpper(code)
}

// Resolve returns the English display name for a language code. Unknown
// but valid tags fall back to their base language, then to the CLDR
// English name; a code nothing can name is returned as-is.
func Resolve(code string) string {
	norm := Normalize(code)
	if name, ok := Registry[norm]; ok {
		return name
	}

	if idx := strings.IndexByte(norm, '-'); idx > 0 {
		if name, ok := Registry[norm[:idx]]; ok {
			return name
		}
	}

	if tag, err := language.Parse(code); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return norm
}

// Language builds a locale.Language with a normalized code and a
// best-effort display name.
func Language(code string) locale.Language {
	return locale.Language{Code: Normalize(code), Name: Resolve(code)}
}
