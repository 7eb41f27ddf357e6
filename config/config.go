// Package config — .ltsync.yaml project options file support.
//
// When a .ltsync.yaml file exists in the project root it supplies provider
// defaults (provider ID, formality, formatting, timeout, proxy). Command
// line flags override it; a missing file means built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/localekit/ltsync/translate"
)

// FileName is the options file name in the project root.
const FileName = ".ltsync.yaml"

// File is the top-level .ltsync.yaml structure.
type File struct {
	// Provider is the translation provider ID: "deepl" (default) or "openai".
	Provider string `yaml:"provider,omitempty"`
	// Formality requests a formality level where the provider supports it.
	Formality string `yaml:"formality,omitempty"`
	// PreserveFormatting asks the provider not to normalize punctuation.
	PreserveFormatting *bool `yaml:"preserve_formatting,omitempty"`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
	// Proxy is an optional HTTP proxy URL for provider requests.
	Proxy string `yaml:"proxy,omitempty"`
	// Model overrides the OpenAI model.
	Model string `yaml:"model,omitempty"`
}

// Default returns the built-in options.
func Default() *File {
	return &File{Provider: translate.ProviderDeepL}
}

// Load reads .ltsync.yaml from the project root. A missing file yields the
// defaults; an invalid one is an error.
func Load(root string) (*File, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f := Default()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := f.validate(path); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) validate(path string) error {
	switch f.Provider {
	case translate.ProviderDeepL, translate.ProviderOpenAI:
	default:
		return fmt.Errorf("%s: unknown provider %q (expected %q or %q)",
			path, f.Provider, translate.ProviderDeepL, translate.ProviderOpenAI)
	}

	switch f.Formality {
	case "", "more", "less", "prefer_more", "prefer_less":
	default:
		return fmt.Errorf("%s: invalid formality %q", path, f.Formality)
	}

	if f.TimeoutSeconds < 0 {
		return fmt.Errorf("%s: timeout_seconds must not be negative", path)
	}
	return nil
}

// Options converts the file into provider options. PreserveFormatting
// defaults to true: locale strings carry placeholders the provider must
// not reflow.
func (f *File) Options() translate.Options {
	preserve := true
	if f.PreserveFormatting != nil {
		preserve = *f.PreserveFormatting
	}
	return translate.Options{
		Formality:          f.Formality,
		PreserveFormatting: preserve,
		Timeout:            time.Duration(f.TimeoutSeconds) * time.Second,
		Proxy:              f.Proxy,
		Model:              f.Model,
	}
}
