// Package translate implements the boundary to the external translation
// providers (DeepL over its HTTP API, OpenAI via chat completions) and the
// batch adapter that turns a locale document's entries into an ordered
// provider request and zips the response back onto the original keys.
package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/localekit/ltsync/locale"
)

// Provider IDs accepted by New and the --provider flag.
const (
	ProviderDeepL  = "deepl"
	ProviderOpenAI = "openai"
)

// Translator is the external translation capability. Implementations must
// return exactly one translated text per submitted text, in the same order.
type Translator interface {
	// Translate submits an ordered batch of source texts for one target
	// language. A provider error is fatal to the whole synchronization
	// attempt; there is no retry policy.
	Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
	// TargetLanguages lists the languages the provider can translate into.
	TargetLanguages(ctx context.Context) ([]locale.Language, error)
	// Validate checks that the configured credentials are usable.
	Validate(ctx context.Context) error
}

// Options controls provider behavior.
type Options struct {
	// Formality requests a formality level where the provider supports it
	// ("more", "less", "prefer_more", "prefer_less"). Empty = default.
	Formality string
	// PreserveFormatting asks the provider not to normalize punctuation
	// and casing.
	PreserveFormatting bool
	// Timeout is the per-request timeout. Default: 60s.
	Timeout time.Duration
	// Proxy is an optional HTTP proxy URL.
	Proxy string
	// Model overrides the OpenAI model.
	Model string
}

func (o Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 60 * time.Second
}

// New constructs a Translator for a provider ID.
func New(provider, apiKey string, opts Options) (Translator, error) {
	switch provider {
	case ProviderDeepL:
		return NewDeepL(apiKey, opts), nil
	case ProviderOpenAI:
		return NewOpenAI(apiKey, opts), nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", provider)
	}
}

// makeHTTPClient creates an HTTP client with optional proxy support.
func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}

	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport := http.DefaultTransport.(*http.Transport).Clone()
			transport.Proxy = http.ProxyURL(parsed)
			client.Transport = transport
		}
	}

	return client
}

// ---------------------------------------------------------------------------
// Batch adapter
// ---------------------------------------------------------------------------

// pair binds a key to its source text. The pair list is built exactly once
// per batch; the same list supplies the request texts and the keys the
// response is zipped back onto, so the two can never disagree on order.
type pair struct {
	key  string
	text string
}

func buildPairs(data *locale.Data) []pair {
	pairs := make([]pair, 0, data.Len())
	for _, k := range data.Keys() {
		v, _ := data.Get(k)
		pairs = append(pairs, pair{key: k, text: v})
	}
	return pairs
}

// Texts returns a document's values in enumeration order, ready to submit
// as a provider batch.
func Texts(data *locale.Data) []string {
	pairs := buildPairs(data)
	texts := make([]string, len(pairs))
	for i, p := range pairs {
		texts[i] = p.text
	}
	return texts
}

// Apply translates every entry of data into the target language with a
// single provider call and returns a new Data pairing the i-th key with
// the i-th translated text. Duplicate source values are submitted as-is.
// A count mismatch in the provider response is an invariant violation.
func Apply(ctx context.Context, tr Translator, data *locale.Data, target locale.Language) (*locale.Data, error) {
	out := locale.NewData()
	if data.Len() == 0 {
		return out, nil
	}

	pairs := buildPairs(data)
	texts := make([]string, len(pairs))
	for i, p := range pairs {
		texts[i] = p.text
	}

	translated, err := tr.Translate(ctx, texts, locale.SourceLanguage.Code, target.Code)
	if err != nil {
		return nil, fmt.Errorf("translating to %s: %w", target.Code, err)
	}
	if len(translated) != len(texts) {
		return nil, fmt.Errorf("provider returned %d translations for %d source texts (language %s)",
			len(translated), len(texts), target.Code)
	}

	for i, p := range pairs {
		out.Set(p.key, translated[i])
	}
	return out, nil
}

// truncate shortens a string for error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
