package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/localekit/ltsync/locale"
	"github.com/localekit/ltsync/manifest"
)

// fakeTranslator translates by prefixing the target code, e.g. "DE:Hello".
// failOn makes the n-th Translate call (1-based) fail.
type fakeTranslator struct {
	calls   int
	batches [][]string
	failOn  int
}

func (f *fakeTranslator) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	f.calls++
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.failOn > 0 && f.calls == f.failOn {
		return nil, fmt.Errorf("simulated provider failure")
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = targetLang + ":" + t
	}
	return out, nil
}

func (f *fakeTranslator) TargetLanguages(ctx context.Context) ([]locale.Language, error) {
	return nil, nil
}

func (f *fakeTranslator) Validate(ctx context.Context) error { return nil }

func writeJSON(t *testing.T, path string, d *locale.Data) {
	t.Helper()
	if err := locale.Save(path, d); err != nil {
		t.Fatal(err)
	}
}

func data(pairs ...string) *locale.Data {
	d := locale.NewData()
	for i := 0; i+1 < len(pairs); i += 2 {
		d.Set(pairs[i], pairs[i+1])
	}
	return d
}

// newProject builds a project rooted in a temp dir with an English source
// file and the given enabled languages, without running setup.
func newProject(t *testing.T, source *locale.Data, codes ...string) (*Syncer, *fakeTranslator) {
	t.Helper()
	root := t.TempDir()

	srcPath := filepath.Join(root, "lang", "en.json")
	writeJSON(t, srcPath, source)

	m := manifest.New(srcPath)
	for _, code := range codes {
		m.AddLanguage(locale.Language{Code: code, Name: code}, filepath.Join(root, "lang", code+".json"))
	}

	tr := &fakeTranslator{}
	return &Syncer{Root: root, Manifest: m, Translator: tr}, tr
}

// setUp runs Setup and asserts success.
func setUp(t *testing.T, s *Syncer) {
	t.Helper()
	if err := s.Setup(context.Background()); err != nil {
		t.Fatalf("Setup error: %v", err)
	}
}

func readDerived(t *testing.T, s *Syncer, code string) *locale.Data {
	t.Helper()
	path, ok := s.Manifest.LocalePath(code)
	if !ok {
		t.Fatalf("no path for %s", code)
	}
	d, err := locale.Load(path)
	if err != nil {
		t.Fatalf("loading %s locale: %v", code, err)
	}
	return d
}

func TestSetup_TranslatesAllAndSnapshotsSource(t *testing.T) {
	source := data("greeting", "Hello", "farewell", "Bye")
	s, tr := newProject(t, source, "DE", "FR")

	setUp(t, s)

	if tr.calls != 2 {
		t.Fatalf("expected one batched call per language, got %d", tr.calls)
	}

	de := readDerived(t, s, "DE")
	if v, _ := de.Get("greeting"); v != "DE:Hello" {
		t.Fatalf("DE greeting = %q", v)
	}

	history, err := locale.Load(manifest.HistoryPath(s.Root))
	if err != nil {
		t.Fatalf("loading history: %v", err)
	}
	if !history.Equal(source) {
		t.Fatal("snapshot must equal the source document after setup")
	}

	if _, err := manifest.Load(s.Root); err != nil {
		t.Fatalf("manifest not persisted: %v", err)
	}
}

func TestUpdate_NoChangesIsNoOp(t *testing.T) {
	s, tr := newProject(t, data("greeting", "Hello"), "DE")
	setUp(t, s)

	// Plant non-canonical bytes; any rewrite would normalize them.
	dePath, _ := s.Manifest.LocalePath("DE")
	marker := []byte("{\"greeting\": \"DE:Hello\"}\n")
	if err := os.WriteFile(dePath, marker, 0644); err != nil {
		t.Fatal(err)
	}

	tr.calls = 0
	res, err := s.Update(context.Background())
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if res != nil {
		t.Fatalf("expected no-op, got %+v", res)
	}
	if tr.calls != 0 {
		t.Fatalf("no-op cycle made %d provider calls", tr.calls)
	}

	got, err := os.ReadFile(dePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(marker) {
		t.Fatal("no-op cycle rewrote a derived document")
	}
}

func TestUpdate_OnlyChangedKeyIsTranslated(t *testing.T) {
	s, tr := newProject(t, data("greeting", "Hello", "farewell", "Bye"), "DE")
	setUp(t, s)

	// Hand the derived doc a distinct farewell so byte-identity is provable.
	dePath, _ := s.Manifest.LocalePath("DE")
	writeJSON(t, dePath, data("greeting", "Hallo", "farewell", "Tschüss"))

	// Edit only the greeting in the source.
	writeJSON(t, s.Manifest.SourceLocalePath, data("greeting", "Hi there", "farewell", "Bye"))

	tr.calls, tr.batches = 0, nil
	res, err := s.Update(context.Background())
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if res == nil || res.Languages != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if tr.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", tr.calls)
	}
	if len(tr.batches[0]) != 1 || tr.batches[0][0] != "Hi there" {
		t.Fatalf("submitted batch = %v, want exactly the changed value", tr.batches[0])
	}

	de := readDerived(t, s, "DE")
	if v, _ := de.Get("greeting"); v != "DE:Hi there" {
		t.Fatalf("DE greeting = %q", v)
	}
	if v, _ := de.Get("farewell"); v != "Tschüss" {
		t.Fatalf("DE farewell = %q; untouched entries must stay as they were", v)
	}

	history, _ := locale.Load(manifest.HistoryPath(s.Root))
	if v, _ := history.Get("greeting"); v != "Hi there" {
		t.Fatal("snapshot not advanced to the current source")
	}
}

func TestUpdate_RemovalOnlySkipsProvider(t *testing.T) {
	s, tr := newProject(t, data("greeting", "Hello", "farewell", "Bye"), "DE", "FR")
	setUp(t, s)

	writeJSON(t, s.Manifest.SourceLocalePath, data("greeting", "Hello"))

	tr.calls = 0
	res, err := s.Update(context.Background())
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if res == nil {
		t.Fatal("expected a non-nil result for a removal")
	}
	if tr.calls != 0 {
		t.Fatalf("removal-only cycle made %d provider calls", tr.calls)
	}

	for _, code := range []string{"DE", "FR"} {
		d := readDerived(t, s, code)
		if _, ok := d.Get("farewell"); ok {
			t.Fatalf("%s still contains the removed key", code)
		}
		if _, ok := d.Get("greeting"); !ok {
			t.Fatalf("%s lost an unrelated key", code)
		}
	}
}

func TestUpdate_ProviderFailureLeavesStateUntouched(t *testing.T) {
	s, tr := newProject(t, data("greeting", "Hello"), "DE", "FR", "JA")
	setUp(t, s)

	writeJSON(t, s.Manifest.SourceLocalePath, data("greeting", "Hi there"))

	historyBefore, _ := os.ReadFile(manifest.HistoryPath(s.Root))
	dePath, _ := s.Manifest.LocalePath("DE")
	deBefore, _ := os.ReadFile(dePath)

	tr.calls = 0
	tr.failOn = 2 // fail for the second of three languages
	if _, err := s.Update(context.Background()); err == nil {
		t.Fatal("expected provider failure to surface")
	}

	historyAfter, _ := os.ReadFile(manifest.HistoryPath(s.Root))
	if string(historyBefore) != string(historyAfter) {
		t.Fatal("snapshot advanced despite a failed run")
	}
	deAfter, _ := os.ReadFile(dePath)
	if string(deBefore) != string(deAfter) {
		t.Fatal("derived document written despite a failed run")
	}

	// Retry with the failure removed reproduces the full end state.
	tr.failOn = 0
	res, err := s.Update(context.Background())
	if err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if res == nil || res.Languages != 3 {
		t.Fatalf("unexpected retry result: %+v", res)
	}
	for _, code := range []string{"DE", "FR", "JA"} {
		d := readDerived(t, s, code)
		if v, _ := d.Get("greeting"); v != code+":Hi there" {
			t.Fatalf("%s greeting = %q after retry", code, v)
		}
	}
	history, _ := locale.Load(manifest.HistoryPath(s.Root))
	if v, _ := history.Get("greeting"); v != "Hi there" {
		t.Fatal("snapshot not advanced after successful retry")
	}
}

func TestUpdate_IdempotentResync(t *testing.T) {
	s, tr := newProject(t, data("greeting", "Hello"), "DE")
	setUp(t, s)

	writeJSON(t, s.Manifest.SourceLocalePath, data("greeting", "Hi there"))

	if _, err := s.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := tr.calls

	res, err := s.Update(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Fatalf("second run must be a no-op, got %+v", res)
	}
	if tr.calls != callsAfterFirst {
		t.Fatalf("second run made %d extra provider calls", tr.calls-callsAfterFirst)
	}
}

func TestUpdate_MissingHistoryIsFatal(t *testing.T) {
	s, _ := newProject(t, data("greeting", "Hello"), "DE")

	if _, err := s.Update(context.Background()); err == nil {
		t.Fatal("expected error without a snapshot history")
	}
}

func TestUpdate_MissingDerivedFileIsFatal(t *testing.T) {
	s, _ := newProject(t, data("greeting", "Hello"), "DE")
	setUp(t, s)

	dePath, _ := s.Manifest.LocalePath("DE")
	if err := os.Remove(dePath); err != nil {
		t.Fatal(err)
	}
	writeJSON(t, s.Manifest.SourceLocalePath, data("greeting", "Changed"))

	if _, err := s.Update(context.Background()); err == nil {
		t.Fatal("expected error for manifest/filesystem drift")
	}
}

func TestUpdate_DriftedRemovalIsFatal(t *testing.T) {
	s, _ := newProject(t, data("greeting", "Hello", "farewell", "Bye"), "DE")
	setUp(t, s)

	// The derived doc has drifted: the key the diff wants to remove is gone.
	dePath, _ := s.Manifest.LocalePath("DE")
	writeJSON(t, dePath, data("greeting", "Hallo"))

	writeJSON(t, s.Manifest.SourceLocalePath, data("greeting", "Hello"))

	if _, err := s.Update(context.Background()); err == nil {
		t.Fatal("expected error removing a key that is not present")
	}
}

func TestEditLanguages_RejectedWhilePendingDiff(t *testing.T) {
	s, tr := newProject(t, data("greeting", "Hello"), "DE")
	setUp(t, s)

	writeJSON(t, s.Manifest.SourceLocalePath, data("greeting", "Changed"))

	manifestBefore, _ := os.ReadFile(manifest.Path(s.Root))
	tr.calls = 0

	_, err := s.EditLanguages(context.Background(),
		[]locale.Language{{Code: "DE"}, {Code: "FR"}},
		func(l locale.Language) (string, error) { return filepath.Join(s.Root, "lang", "fr.json"), nil })
	if !errors.Is(err, ErrPendingChanges) {
		t.Fatalf("expected ErrPendingChanges, got %v", err)
	}

	if tr.calls != 0 {
		t.Fatal("guard must fire before any provider call")
	}
	manifestAfter, _ := os.ReadFile(manifest.Path(s.Root))
	if string(manifestBefore) != string(manifestAfter) {
		t.Fatal("guard must not mutate the manifest")
	}
	if _, err := os.Stat(filepath.Join(s.Root, "lang", "fr.json")); !os.IsNotExist(err) {
		t.Fatal("guard must not create files")
	}
}

func TestEditLanguages_AddAndRemove(t *testing.T) {
	s, tr := newProject(t, data("greeting", "Hello"), "DE")
	setUp(t, s)

	dePath, _ := s.Manifest.LocalePath("DE")
	frPath := filepath.Join(s.Root, "lang", "fr.json")

	tr.calls = 0
	change, err := s.EditLanguages(context.Background(),
		[]locale.Language{{Code: "FR", Name: "French"}},
		func(l locale.Language) (string, error) { return frPath, nil })
	if err != nil {
		t.Fatalf("EditLanguages error: %v", err)
	}
	if change == nil {
		t.Fatal("expected a change")
	}
	if len(change.Added) != 1 || change.Added[0].Code != "FR" {
		t.Fatalf("added = %v", change.Added)
	}
	if len(change.Removed) != 1 || change.Removed[0].Code != "DE" {
		t.Fatalf("removed = %v", change.Removed)
	}
	if len(change.RemovedPaths) != 1 || change.RemovedPaths[0] != dePath {
		t.Fatalf("removed paths = %v", change.RemovedPaths)
	}

	// Removed language file stays on disk, manifest entry is gone.
	if _, err := os.Stat(dePath); err != nil {
		t.Fatalf("removed language file was deleted: %v", err)
	}
	if _, ok := s.Manifest.LocalePath("DE"); ok {
		t.Fatal("removed language still in manifest")
	}

	// Added language got a full translation of the current source.
	fr, err := locale.Load(frPath)
	if err != nil {
		t.Fatalf("loading FR locale: %v", err)
	}
	if v, _ := fr.Get("greeting"); v != "FR:Hello" {
		t.Fatalf("FR greeting = %q", v)
	}
	if tr.calls != 1 {
		t.Fatalf("expected 1 provider call for the added language, got %d", tr.calls)
	}

	reloaded, err := manifest.Load(s.Root)
	if err != nil {
		t.Fatal(err)
	}
	langs := reloaded.Languages()
	if len(langs) != 1 || langs[0].Code != "FR" {
		t.Fatalf("persisted languages = %v", langs)
	}
}

func TestEditLanguages_NoChangeIsNil(t *testing.T) {
	s, tr := newProject(t, data("greeting", "Hello"), "DE")
	setUp(t, s)

	tr.calls = 0
	change, err := s.EditLanguages(context.Background(),
		[]locale.Language{{Code: "DE", Name: "renamed, still DE"}},
		func(l locale.Language) (string, error) { return "", nil })
	if err != nil {
		t.Fatal(err)
	}
	if change != nil {
		t.Fatalf("expected nil change, got %+v", change)
	}
	if tr.calls != 0 {
		t.Fatal("unchanged selection must not call the provider")
	}
}

func TestSetSourcePath(t *testing.T) {
	s, _ := newProject(t, data("greeting", "Hello"), "DE")
	setUp(t, s)

	newPath := filepath.Join(s.Root, "lang", "english.json")
	if err := s.SetSourcePath(newPath); err != nil {
		t.Fatal(err)
	}

	reloaded, err := manifest.Load(s.Root)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.SourceLocalePath != newPath {
		t.Fatalf("persisted source path = %q", reloaded.SourceLocalePath)
	}
}
