// Package diff computes the change set between two snapshots of a locale
// document, and between two enabled-language sets. The update cycle uses
// the document diff to re-translate only entries that actually changed.
package diff

import (
	"github.com/localekit/ltsync/locale"
)

// Result classifies the entries of a current document against an original
// snapshot. ChangedOrAdded holds every key of current whose value differs
// from original or is new; Removed holds every key of original missing
// from current, with its original value.
type Result struct {
	ChangedOrAdded *locale.Data
	Removed        *locale.Data
}

// Compute diffs two documents. A nil result means the documents are
// semantically identical and the caller must treat the cycle as a no-op.
// Iteration order of both result maps follows the input documents, so
// results are deterministic.
func Compute(original, current *locale.Data) *Result {
	if original.Equal(current) {
		return nil
	}

	changedOrAdded := locale.NewData()
	for _, k := range current.Keys() {
		v, _ := current.Get(k)
		if old, ok := original.Get(k); !ok || old != v {
			changedOrAdded.Set(k, v)
		}
	}

	removed := locale.NewData()
	for _, k := range original.Keys() {
		if _, ok := current.Get(k); !ok {
			v, _ := original.Get(k)
			removed.Set(k, v)
		}
	}

	if changedOrAdded.Len() == 0 && removed.Len() == 0 {
		return nil
	}

	return &Result{ChangedOrAdded: changedOrAdded, Removed: removed}
}

// LanguageResult classifies a newly selected language set against the
// currently enabled one. Membership is decided by language code.
type LanguageResult struct {
	Added   []locale.Language
	Removed []locale.Language
}

// Languages diffs two language sets. A nil result means the selection is
// unchanged.
func Languages(original, current []locale.Language) *LanguageResult {
	var added, removed []locale.Language

	for _, curr := range current {
		if !containsCode(original, curr.Code) {
			added = append(added, curr)
		}
	}
	for _, orig := range original {
		if !containsCode(current, orig.Code) {
			removed = append(removed, orig)
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	return &LanguageResult{Added: added, Removed: removed}
}

func containsCode(langs []locale.Language, code string) bool {
	for _, l := range langs {
		if l.Code == code {
			return true
		}
	}
	return false
}
