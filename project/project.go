// Package project implements the synchronization cycles that keep every
// derived locale document in lockstep with the source document: initial
// setup, incremental update, and enabled-language management.
//
// All cycles follow the same write discipline: provider calls happen
// first, file writes only after every translation result for the run is
// in hand, and the source snapshot plus manifest are persisted last. A
// failure at any step therefore leaves the on-disk state as it was, and
// re-running the cycle after fixing the cause is always safe.
package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/localekit/ltsync/diff"
	"github.com/localekit/ltsync/locale"
	"github.com/localekit/ltsync/manifest"
	"github.com/localekit/ltsync/translate"
)

// ErrPendingChanges rejects language-set edits while the source document
// has unsynced changes. This is the one operator-actionable error in the
// core; the condition is cleared by running the update cycle.
var ErrPendingChanges = errors.New("the source locale file has unsynced changes; run 'ltsync project update' first")

// Syncer drives synchronization cycles for one project.
type Syncer struct {
	// Root is the project root directory the app state lives under.
	Root string
	// Manifest is the loaded project manifest.
	Manifest *manifest.Manifest
	// Translator is the external translation capability.
	Translator translate.Translator
	// Log, when set, receives progress messages.
	Log func(format string, args ...any)
}

func (s *Syncer) logf(format string, args ...any) {
	if s.Log != nil {
		s.Log(format, args...)
	}
}

// LoadSource loads the current source document. Absent is fatal for every
// cycle, so it is surfaced as a plain error.
func (s *Syncer) LoadSource() (*locale.Data, error) {
	data, err := locale.Load(s.Manifest.SourceLocalePath)
	if err != nil {
		if errors.Is(err, locale.ErrAbsent) {
			return nil, fmt.Errorf("missing source locale file %s", s.Manifest.SourceLocalePath)
		}
		return nil, err
	}
	return data, nil
}

// LoadHistory loads the source snapshot from the last successful sync.
func (s *Syncer) LoadHistory() (*locale.Data, error) {
	data, err := locale.Load(manifest.HistoryPath(s.Root))
	if err != nil {
		if errors.Is(err, locale.ErrAbsent) {
			return nil, fmt.Errorf("missing source locale history; run 'ltsync project setup' first")
		}
		return nil, err
	}
	return data, nil
}

// PendingDiff computes the diff between the snapshot history and the
// current source document. nil means there is nothing to sync.
func (s *Syncer) PendingDiff() (*diff.Result, error) {
	history, err := s.LoadHistory()
	if err != nil {
		return nil, err
	}
	current, err := s.LoadSource()
	if err != nil {
		return nil, err
	}
	return diff.Compute(history, current), nil
}

// writeAppData persists the snapshot (= current source) and the manifest.
// Every cycle calls this last, after all derived documents are written.
func (s *Syncer) writeAppData(current *locale.Data) error {
	if err := locale.Save(manifest.HistoryPath(s.Root), current); err != nil {
		return fmt.Errorf("writing source history: %w", err)
	}
	if err := s.Manifest.Save(s.Root); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Initial setup
// ---------------------------------------------------------------------------

// Setup runs the first full translation: every enabled language gets a
// brand-new derived document translated from the whole current source.
func (s *Syncer) Setup(ctx context.Context) error {
	current, err := s.LoadSource()
	if err != nil {
		return err
	}

	langs := s.Manifest.Languages()
	docs := make([]*locale.Document, 0, len(langs))
	for _, lang := range langs {
		path, ok := s.Manifest.LocalePath(lang.Code)
		if !ok {
			return fmt.Errorf("missing locale path for language %q in manifest", lang.Code)
		}

		s.logf("Translating %s...", lang)
		translated, err := translate.Apply(ctx, s.Translator, current, lang)
		if err != nil {
			return err
		}
		docs = append(docs, &locale.Document{Data: translated, Language: lang, Path: path})
	}

	for _, doc := range docs {
		if err := doc.Write(); err != nil {
			return err
		}
		s.logf("Wrote %s locale to %s", doc.Language.Code, doc.Path)
	}

	return s.writeAppData(current)
}

// ---------------------------------------------------------------------------
// Incremental update
// ---------------------------------------------------------------------------

// UpdateResult summarizes one completed update cycle.
type UpdateResult struct {
	Diff      *diff.Result
	Languages int
}

// Update runs one incremental cycle. A nil result means the source
// document has not changed since the last sync: no translation happens
// and no file is touched.
func (s *Syncer) Update(ctx context.Context) (*UpdateResult, error) {
	history, err := s.LoadHistory()
	if err != nil {
		return nil, err
	}
	current, err := s.LoadSource()
	if err != nil {
		return nil, err
	}

	d := diff.Compute(history, current)
	if d == nil {
		return nil, nil
	}

	// Load every derived document up front; the manifest and the
	// filesystem must agree before anything is translated.
	langs := s.Manifest.Languages()
	docs := make([]*locale.Document, 0, len(langs))
	for _, lang := range langs {
		path, ok := s.Manifest.LocalePath(lang.Code)
		if !ok {
			return nil, fmt.Errorf("missing locale path for language %q in manifest", lang.Code)
		}
		data, err := locale.Load(path)
		if err != nil {
			if errors.Is(err, locale.ErrAbsent) {
				return nil, fmt.Errorf("missing locale file for language %q: %s", lang.Code, path)
			}
			return nil, err
		}
		docs = append(docs, &locale.Document{Data: data, Language: lang, Path: path})
	}

	// One provider call per language, all results collected before any
	// file is written.
	translated := make(map[string]*locale.Data, len(docs))
	for _, doc := range docs {
		if d.ChangedOrAdded.Len() == 0 {
			translated[doc.Language.Code] = locale.NewData()
			continue
		}
		s.logf("Translating %d changed entr%s for %s...",
			d.ChangedOrAdded.Len(), plural(d.ChangedOrAdded.Len(), "y", "ies"), doc.Language)
		out, err := translate.Apply(ctx, s.Translator, d.ChangedOrAdded, doc.Language)
		if err != nil {
			return nil, err
		}
		translated[doc.Language.Code] = out
	}

	for _, doc := range docs {
		for _, k := range d.Removed.Keys() {
			if !doc.Data.Delete(k) {
				return nil, fmt.Errorf("failed to remove key %q from locale %q: key not present", k, doc.Language.Code)
			}
		}
		for _, k := range translated[doc.Language.Code].Keys() {
			v, _ := translated[doc.Language.Code].Get(k)
			doc.Data.Set(k, v)
		}
		if err := doc.Write(); err != nil {
			return nil, err
		}
		s.logf("Updated %s locale at %s", doc.Language.Code, doc.Path)
	}

	if err := s.writeAppData(current); err != nil {
		return nil, err
	}

	return &UpdateResult{Diff: d, Languages: len(docs)}, nil
}

// ---------------------------------------------------------------------------
// Language-set management
// ---------------------------------------------------------------------------

// LanguageChange summarizes an applied language-set edit.
type LanguageChange struct {
	Added   []locale.Language
	Removed []locale.Language
	// RemovedPaths are the derived document files that are no longer
	// tracked. They are deliberately left on disk.
	RemovedPaths []string
}

// EditLanguages applies a new language selection. It is rejected with
// ErrPendingChanges while the source document has an unsynced diff, so a
// newly added language can never silently miss content an update is about
// to deliver. outputPath is consulted once per added language.
func (s *Syncer) EditLanguages(ctx context.Context, selected []locale.Language, outputPath func(locale.Language) (string, error)) (*LanguageChange, error) {
	pending, err := s.PendingDiff()
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrPendingChanges
	}

	ld := diff.Languages(s.Manifest.Languages(), selected)
	if ld == nil {
		return nil, nil
	}

	change := &LanguageChange{Added: ld.Added, Removed: ld.Removed}

	current, err := s.LoadSource()
	if err != nil {
		return nil, err
	}

	// Resolve output paths before spending provider quota.
	paths := make(map[string]string, len(ld.Added))
	for _, lang := range ld.Added {
		p, err := outputPath(lang)
		if err != nil {
			return nil, err
		}
		paths[lang.Code] = p
	}

	docs := make([]*locale.Document, 0, len(ld.Added))
	for _, lang := range ld.Added {
		s.logf("Translating %s...", lang)
		translated, err := translate.Apply(ctx, s.Translator, current, lang)
		if err != nil {
			return nil, err
		}
		docs = append(docs, &locale.Document{Data: translated, Language: lang, Path: paths[lang.Code]})
	}

	for _, lang := range ld.Removed {
		if p, ok := s.Manifest.RemoveLanguage(lang.Code); ok && p != "" {
			change.RemovedPaths = append(change.RemovedPaths, p)
		}
	}

	for _, doc := range docs {
		if err := doc.Write(); err != nil {
			return nil, err
		}
		s.Manifest.AddLanguage(doc.Language, doc.Path)
		s.logf("Wrote %s locale to %s", doc.Language.Code, doc.Path)
	}

	if err := s.Manifest.Save(s.Root); err != nil {
		return nil, err
	}
	return change, nil
}

// SetSourcePath points the manifest at a different source locale file and
// persists it.
func (s *Syncer) SetSourcePath(path string) error {
	s.Manifest.SourceLocalePath = path
	return s.Manifest.Save(s.Root)
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
