// Package locale implements reading and writing of flat JSON locale files.
//
// The expected file format is a single flat object mapping string keys to
// string values:
//
//	{
//	    "greeting": "Hello",
//	    "farewell": "Bye"
//	}
//
// Key order from the file is preserved through a parse/marshal round trip,
// so untouched entries stay byte-identical on rewrite.
package locale

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrAbsent is returned by Load when the file does not exist. Callers use
// this to tell "never generated yet" apart from "exists but corrupt".
var ErrAbsent = errors.New("locale file does not exist")

// ValueError reports a locale entry whose value is not a plain string.
type ValueError struct {
	Path string
	Key  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("non-string value for key %q in %s", e.Key, e.Path)
}

// ---------------------------------------------------------------------------
// Language
// ---------------------------------------------------------------------------

// Language is a (code, display name) pair. Codes follow the translation
// provider's convention (uppercase, e.g. "EN", "DE", "PT-BR").
type Language struct {
	Code string
	Name string
}

// SourceLanguage is the fixed language all derived documents are
// translated from.
var SourceLanguage = Language{Code: "EN", Name: "English"}

// Equal reports whether two languages are the same. Names are cosmetic;
// only codes are compared.
func (l Language) Equal(other Language) bool {
	return l.Code == other.Code
}

func (l Language) String() string {
	return fmt.Sprintf("%s (%s)", l.Code, l.Name)
}

// ---------------------------------------------------------------------------
// Data — ordered flat string map
// ---------------------------------------------------------------------------

// Data is an ordered flat mapping from string key to string value.
// Insertion order is preserved for round-trip fidelity; semantic equality
// ignores order.
type Data struct {
	keys   []string
	values map[string]string
}

// NewData returns an empty Data.
func NewData() *Data {
	return &Data{values: make(map[string]string)}
}

// Len returns the number of entries.
func (d *Data) Len() int {
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Data) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get returns the value for a key.
func (d *Data) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set inserts or overwrites an entry. New keys are appended at the end;
// existing keys keep their position.
func (d *Data) Set(key, value string) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Delete removes an entry. Returns false if the key is not present.
func (d *Data) Delete(key string) bool {
	if _, ok := d.values[key]; !ok {
		return false
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Equal reports semantic equality: same key set, same values. Order is
// ignored.
func (d *Data) Equal(other *Data) bool {
	if len(d.values) != len(other.values) {
		return false
	}
	for k, v := range d.values {
		ov, ok := other.values[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	out := &Data{
		keys:   make([]string, len(d.keys)),
		values: make(map[string]string, len(d.values)),
	}
	copy(out.keys, d.keys)
	for k, v := range d.values {
		out.values[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

// Document is a locale Data bound to the language it represents and the
// file it is persisted to.
type Document struct {
	Data     *Data
	Language Language
	Path     string
}

// Write saves the document to its path.
func (doc *Document) Write() error {
	return Save(doc.Path, doc.Data)
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads and parses a flat JSON locale file. A missing file yields
// ErrAbsent; a file that exists but cannot be parsed as a flat string map
// is an error naming the file and, where applicable, the offending key.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrAbsent)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(raw, path)
}

// Parse parses flat JSON locale data. The path is used in diagnostics only.
func Parse(raw []byte, path string) (*Data, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing %s: expected a JSON object, got %v", path, t)
	}

	d := NewData()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("parsing %s: expected string key, got %T", path, kt)
		}

		vt, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		value, ok := vt.(string)
		if !ok {
			return nil, &ValueError{Path: path, Key: key}
		}

		d.Set(key, value)
	}

	if t, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	} else if delim, ok := t.(json.Delim); !ok || delim != '}' {
		return nil, fmt.Errorf("parsing %s: expected }, got %v", path, t)
	}

	// The object must be the whole file. Trailing bytes mean a truncated
	// or concatenated file that happens to start with a valid document.
	if t, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return nil, fmt.Errorf("parsing %s: unexpected data after closing brace: %v", path, t)
	}

	return d, nil
}

// Marshal produces the JSON output with 4-space indentation, preserving
// insertion order.
func (d *Data) Marshal() []byte {
	var b bytes.Buffer
	b.WriteString("{\n")
	for i, k := range d.keys {
		b.WriteString("    ")
		b.Write(jsonString(k))
		b.WriteString(": ")
		b.Write(jsonString(d.values[k]))
		if i < len(d.keys)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	return b.Bytes()
}

// jsonString encodes s as a JSON string literal. HTML escaping is off so
// values containing <, > or & stay byte-identical across a round trip.
func jsonString(s string) []byte {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Encoding a plain string cannot fail.
		panic(err)
	}
	return bytes.TrimRight(b.Bytes(), "\n")
}

// Save writes the data to path atomically.
func Save(path string, d *Data) error {
	return WriteFile(path, d.Marshal())
}

// WriteFile writes raw to path atomically: the bytes go to a temp file in
// the same directory which is then renamed over the target, so a
// partially-written file is never mistaken for a valid one. Missing parent
// directories are created.
func WriteFile(path string, raw []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".ltsync-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions on %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
