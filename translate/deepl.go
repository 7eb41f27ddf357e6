package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/localekit/ltsync/langmeta"
	"github.com/localekit/ltsync/locale"
)

// DeepL API hosts. Free-tier keys carry a ":fx" suffix and are served from
// a separate host.
const (
	deeplProHost  = "https://api.deepl.com"
	deeplFreeHost = "https://api-free.deepl.com"

	freeKeySuffix = ":fx"
)

// DeepL is a Translator backed by the DeepL HTTP API.
type DeepL struct {
	apiKey  string
	baseURL string
	opts    Options
	client  *http.Client
}

// NewDeepL creates a DeepL client. The API host is derived from the key
// suffix; baseURL can be overridden for tests via SetBaseURL.
func NewDeepL(apiKey string, opts Options) *DeepL {
	host := deeplProHost
	if strings.HasSuffix(apiKey, freeKeySuffix) {
		host = deeplFreeHost
	}
	return &DeepL{
		apiKey:  apiKey,
		baseURL: host,
		opts:    opts,
		client:  makeHTTPClient(opts.Proxy, opts.effectiveTimeout()),
	}
}

// SetBaseURL overrides the API host.
func (d *DeepL) SetBaseURL(u string) {
	d.baseURL = strings.TrimSuffix(u, "/")
}

// Validate checks the API key with a usage query.
func (d *DeepL) Validate(ctx context.Context) error {
	var usage struct {
		CharacterCount int64 `json:"character_count"`
		CharacterLimit int64 `json:"character_limit"`
	}
	if err := d.call(ctx, "/v2/usage", nil, &usage); err != nil {
		return fmt.Errorf("validating DeepL API key: %w", err)
	}
	return nil
}

// TargetLanguages lists the languages DeepL can translate into.
func (d *DeepL) TargetLanguages(ctx context.Context) ([]locale.Language, error) {
	form := url.Values{}
	form.Set("type", "target")

	var listed []struct {
		Language string `json:"language"`
		Name     string `json:"name"`
	}
	if err := d.call(ctx, "/v2/languages", form, &listed); err != nil {
		return nil, fmt.Errorf("listing DeepL target languages: %w", err)
	}

	langs := make([]locale.Language, 0, len(listed))
	for _, l := range listed {
		name := l.Name
		if name == "" {
			name = langmeta.Resolve(l.Language)
		}
		langs = append(langs, locale.Language{Code: l.Language, Name: name})
	}
	return langs, nil
}

// Translate submits one batch to /v2/translate. DeepL preserves the order
// and count of the text fields; the response is returned positionally.
func (d *DeepL) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	form := url.Values{}
	for _, t := range texts {
		form.Add("text", t)
	}
	form.Set("source_lang", sourceLang)
	form.Set("target_lang", targetLang)
	if d.opts.PreserveFormatting {
		form.Set("preserve_formatting", "1")
	}
	if d.opts.Formality != "" {
		form.Set("formality", d.opts.Formality)
	}

	var resp struct {
		Translations []struct {
			DetectedSourceLanguage string `json:"detected_source_language"`
			Text                   string `json:"text"`
		} `json:"translations"`
	}
	if err := d.call(ctx, "/v2/translate", form, &resp); err != nil {
		return nil, err
	}

	out := make([]string, len(resp.Translations))
	for i, t := range resp.Translations {
		out[i] = t.Text
	}
	return out, nil
}

// call performs one form-encoded POST against the API and decodes the JSON
// response. Any non-200 status is an error; there is no retry.
func (d *DeepL) call(ctx context.Context, path string, form url.Values, v any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("DeepL request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DeepL returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	if err := json.Unmarshal(respBody, v); err != nil {
		return fmt.Errorf("decoding DeepL response: %w", err)
	}
	return nil
}
