package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/localekit/ltsync/langmeta"
	"github.com/localekit/ltsync/locale"
)

// openAISystemPrompt instructs the model to behave as a pure batch
// translation endpoint. The JSON-array protocol is what lets the adapter
// validate the count/order invariant the same way it does for DeepL.
const openAISystemPrompt = `You are a professional translator for software UI strings.
You receive a JSON array of source strings in %s and return ONLY a JSON array
of the same length with the translations into %s, in the same order.
Translate every element, including duplicates, independently.
Do not merge, reorder, drop, or add elements. Preserve placeholders,
punctuation, and formatting. Return the JSON array and nothing else.`

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// OpenAI is a Translator backed by an OpenAI-compatible chat completion
// endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
	opts   Options
}

// NewOpenAI creates an OpenAI client.
func NewOpenAI(apiKey string, opts Options) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = makeHTTPClient(opts.Proxy, opts.effectiveTimeout())

	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		opts:   opts,
	}
}

// Validate checks the API key by listing available models.
func (o *OpenAI) Validate(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return fmt.Errorf("validating OpenAI API key: %w", err)
	}
	return nil
}

// TargetLanguages returns the static registry; OpenAI has no listing
// endpoint for translation targets.
func (o *OpenAI) TargetLanguages(ctx context.Context) ([]locale.Language, error) {
	codes := make([]string, 0, len(langmeta.Registry))
	for code := range langmeta.Registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	langs := make([]locale.Language, 0, len(codes))
	for _, code := range codes {
		langs = append(langs, locale.Language{Code: code, Name: langmeta.Registry[code]})
	}
	return langs, nil
}

// Translate submits one batch as a single chat completion.
func (o *OpenAI) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("encoding batch: %w", err)
	}

	sourceName := langmeta.Resolve(sourceLang)
	targetName := langmeta.Resolve(targetLang)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(openAISystemPrompt, sourceName, targetName),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: string(payload),
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	return parseTranslations(resp.Choices[0].Message.Content, len(texts))
}

// parseTranslations extracts a JSON string array from a model response and
// validates its length against the submitted batch.
func parseTranslations(content string, expected int) ([]string, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code blocks if present.
	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	// Narrow to the outermost JSON array.
	startIdx := strings.Index(content, "[")
	endIdx := strings.LastIndex(content, "]")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var translations []string
	if err := json.Unmarshal([]byte(content), &translations); err != nil {
		return nil, fmt.Errorf("parsing translation response as JSON array: %w\nResponse: %s", err, truncate(content, 300))
	}

	if len(translations) != expected {
		return nil, fmt.Errorf("got %d translations, expected %d", len(translations), expected)
	}

	return translations, nil
}
