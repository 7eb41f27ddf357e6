// Package manifest implements the persisted project configuration:
// the source locale path, the enabled languages, and the file path of
// every derived locale document.
//
// The manifest lives at ltsync/manifest.toml under the project root and
// round-trips losslessly through a load/save cycle (tables are emitted
// with sorted keys, so repeated saves are byte-stable).
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/localekit/ltsync/locale"
)

// AppDirName is the per-project state directory created at setup.
const AppDirName = "ltsync"

// FileName is the manifest file name inside the app directory.
const FileName = "manifest.toml"

// HistoryFileName is the source snapshot file inside the app directory.
// It holds the source document as of the last successful sync.
const HistoryFileName = "source-history.json"

// ErrNotExist is returned by Load when no manifest has been created yet.
var ErrNotExist = errors.New("manifest does not exist")

// external is the on-disk TOML shape.
type external struct {
	SourceLocalePath string            `toml:"source_locale_path"`
	LocalePaths      map[string]string `toml:"locale_paths"`
	LanguageNames    map[string]string `toml:"language_names"`
}

// Manifest is the in-memory project configuration.
type Manifest struct {
	// SourceLocalePath is the human-edited English locale file.
	SourceLocalePath string
	// localePaths maps language code to derived document path.
	localePaths map[string]string
	// languageNames maps language code to display name.
	languageNames map[string]string
}

// New returns an empty manifest pointing at the given source locale file.
func New(sourceLocalePath string) *Manifest {
	return &Manifest{
		SourceLocalePath: sourceLocalePath,
		localePaths:      make(map[string]string),
		languageNames:    make(map[string]string),
	}
}

// Path returns the manifest file path for a project root.
func Path(root string) string {
	return filepath.Join(root, AppDirName, FileName)
}

// HistoryPath returns the source snapshot file path for a project root.
func HistoryPath(root string) string {
	return filepath.Join(root, AppDirName, HistoryFileName)
}

// Load reads the manifest for a project root. Returns ErrNotExist when the
// file is missing; a manifest that exists but cannot be parsed is an error.
func Load(root string) (*Manifest, error) {
	path := Path(root)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var ext external
	if err := toml.Unmarshal(raw, &ext); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	m := New(ext.SourceLocalePath)
	for code, p := range ext.LocalePaths {
		m.localePaths[code] = p
	}
	for code, name := range ext.LanguageNames {
		m.languageNames[code] = name
	}
	return m, nil
}

// Save writes the manifest under the project root, creating the app
// directory if needed.
func (m *Manifest) Save(root string) error {
	ext := external{
		SourceLocalePath: m.SourceLocalePath,
		LocalePaths:      m.localePaths,
		LanguageNames:    m.languageNames,
	}
	data, err := toml.Marshal(ext)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	path := Path(root)
	if err := locale.WriteFile(path, data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Languages returns the enabled languages sorted by code.
func (m *Manifest) Languages() []locale.Language {
	codes := make([]string, 0, len(m.languageNames))
	for code := range m.languageNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	langs := make([]locale.Language, 0, len(codes))
	for _, code := range codes {
		langs = append(langs, locale.Language{Code: code, Name: m.languageNames[code]})
	}
	return langs
}

// LocalePath returns the derived document path for a language code.
func (m *Manifest) LocalePath(code string) (string, bool) {
	p, ok := m.localePaths[code]
	return p, ok
}

// AddLanguage enables a language and records its derived document path.
func (m *Manifest) AddLanguage(lang locale.Language, path string) {
	m.languageNames[lang.Code] = lang.Name
	m.localePaths[lang.Code] = path
}

// RemoveLanguage drops a language from the manifest. The derived document
// file on disk is deliberately left untouched. Returns the dropped path.
func (m *Manifest) RemoveLanguage(code string) (string, bool) {
	p, ok := m.localePaths[code]
	if !ok {
		if _, named := m.languageNames[code]; !named {
			return "", false
		}
	}
	delete(m.localePaths, code)
	delete(m.languageNames, code)
	return p, true
}
