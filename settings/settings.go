// Package settings stores provider API keys for ltsync.
//
// Keys are kept in the XDG data directory:
//
//	$XDG_DATA_HOME/ltsync/auth.json  (default: ~/.local/share/ltsync/)
//
// The file is a JSON object keyed by provider ID. File permissions are
// 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. DEEPL_API_KEY / OPENAI_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localekit/ltsync/translate"
)

const (
	dataDirName = "ltsync"
	fileName    = "auth.json"
)

// Info is the entry stored per provider in auth.json.
type Info struct {
	Key string `json:"key"`
}

// Store holds all provider credentials, keyed by provider ID.
type Store map[string]*Info

// dataDir returns the XDG data directory for ltsync.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the credential store. A missing file yields an empty store.
func Load() (Store, error) {
	path, err := filePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(Store), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if store == nil {
		store = make(Store)
	}
	return store, nil
}

// Save writes the credential store with restrictive permissions.
func (s Store) Save() error {
	path, err := filePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SetKey records an API key for a provider.
func SetKey(provider, key string) error {
	store, err := Load()
	if err != nil {
		return err
	}
	store[provider] = &Info{Key: key}
	return store.Save()
}

// RemoveKey deletes a provider's stored key. Returns false if none was
// stored.
func RemoveKey(provider string) (bool, error) {
	store, err := Load()
	if err != nil {
		return false, err
	}
	if _, ok := store[provider]; !ok {
		return false, nil
	}
	delete(store, provider)
	return true, store.Save()
}

// envVar returns the environment variable consulted for a provider.
func envVar(provider string) string {
	switch provider {
	case translate.ProviderDeepL:
		return "DEEPL_API_KEY"
	case translate.ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// APIKey resolves the API key for a provider: flag value, then the
// provider's environment variable, then the credential store. The second
// return value names the source for diagnostics ("flag", "env", "store").
func APIKey(provider, flagValue string) (string, string, error) {
	if flagValue != "" {
		return flagValue, "flag", nil
	}

	if env := envVar(provider); env != "" {
		if v := os.Getenv(env); v != "" {
			return v, "env", nil
		}
	}

	store, err := Load()
	if err != nil {
		return "", "", err
	}
	if info, ok := store[provider]; ok && info.Key != "" {
		return info.Key, "store", nil
	}

	return "", "", fmt.Errorf("no API key found for provider %q; set it with 'ltsync auth set %s' or the %s environment variable",
		provider, provider, envVar(provider))
}
