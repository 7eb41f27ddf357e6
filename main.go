// ltsync — locale translation sync: keeps derived JSON locale files in
// lockstep with an English source file, translating only what changed
// since the last successful sync.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/localekit/ltsync/config"
	"github.com/localekit/ltsync/i18n"
	"github.com/localekit/ltsync/interact"
	"github.com/localekit/ltsync/langmeta"
	"github.com/localekit/ltsync/locale"
	"github.com/localekit/ltsync/manifest"
	"github.com/localekit/ltsync/project"
	"github.com/localekit/ltsync/settings"
	"github.com/localekit/ltsync/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir      string
	providerFlag string
	apiKeyFlag   string
	assumeYes    bool
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ltsync",
		Short: "Keep translated locale files in sync with an English source file",
		Long: `ltsync — locale translation sync.

Tracks an English JSON locale file and keeps a set of translated locale
files synchronized with it. After setup, 'project update' detects which
entries changed, were added, or were removed since the last sync and
re-translates only the changed content, leaving everything else untouched.

Commands:
  project setup    Set up a new project around an existing English locale file
  project manage   Change project settings (source path, enabled languages)
  project update   Sync all translated locales with source file edits
  translate        Translate a single locale file without project mode
  status           Show project info and pending changes
  auth             Manage provider API keys

Providers:
  deepl    DeepL API (default) — DEEPL_API_KEY
  openai   OpenAI-compatible chat completions — OPENAI_API_KEY`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&providerFlag, "provider", "", "Translation provider (deepl, openai)")
	root.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Provider API key (overrides env and stored keys)")
	root.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts")

	root.AddCommand(
		newProjectCmd(),
		newTranslateCmd(),
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	// Best effort: a .env in the working directory may carry API keys.
	_ = godotenv.Load()
	i18n.Init("")

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Provider wiring
// ---------------------------------------------------------------------------

// newTranslator builds and validates the configured translation provider.
func newTranslator(ctx context.Context) (translate.Translator, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}

	providerID := cfg.Provider
	if providerFlag != "" {
		providerID = providerFlag
	}

	key, source, err := settings.APIKey(providerID, apiKeyFlag)
	if err != nil {
		return nil, err
	}

	tr, err := translate.New(providerID, key, cfg.Options())
	if err != nil {
		return nil, err
	}

	if err := tr.Validate(ctx); err != nil {
		return nil, fmt.Errorf("provider %s rejected the API key (from %s): %w", providerID, source, err)
	}
	return tr, nil
}

// loadedSyncer loads the manifest and builds a Syncer. withProvider
// controls whether the translation provider is wired and validated;
// read-only commands skip it.
func loadedSyncer(ctx context.Context, withProvider bool) (*project.Syncer, error) {
	m, err := manifest.Load(rootDir)
	if err != nil {
		if errors.Is(err, manifest.ErrNotExist) {
			return nil, fmt.Errorf("missing project data; run 'ltsync project setup' in your project directory first")
		}
		return nil, err
	}

	s := &project.Syncer{Root: rootDir, Manifest: m, Log: logInfo}
	if withProvider {
		tr, err := newTranslator(ctx)
		if err != nil {
			return nil, err
		}
		s.Translator = tr
	}
	return s, nil
}

// ---------------------------------------------------------------------------
// project (setup / manage / update)
// ---------------------------------------------------------------------------

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project mode: set up and maintain synchronized locale files",
	}
	cmd.AddCommand(newProjectSetupCmd(), newProjectManageCmd(), newProjectUpdateCmd())
	return cmd
}

func newProjectSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Set up a new project around an existing English locale file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectSetup(cmd.Context())
		},
	}
}

func runProjectSetup(ctx context.Context) error {
	if _, err := manifest.Load(rootDir); err == nil {
		return fmt.Errorf("project has already been set up; to fully reset it, remove the '%s' directory", manifest.AppDirName)
	} else if !errors.Is(err, manifest.ErrNotExist) {
		return err
	}

	prompter := interact.Default()
	prompter.AssumeYes = assumeYes

	ok, err := prompter.Confirm("Set up a new ltsync project in the current directory?")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(i18n.T("Setup canceled."))
	}

	sourcePath, err := prompter.SelectSourceLocale(filepath.Join("lang", "en.json"))
	if err != nil {
		return err
	}

	// The source file must parse before spending any provider quota.
	if _, err := locale.Load(sourcePath); err != nil {
		return err
	}

	tr, err := newTranslator(ctx)
	if err != nil {
		return err
	}

	available, err := tr.TargetLanguages(ctx)
	if err != nil {
		return err
	}
	selected, err := prompter.SelectLanguages(available, nil)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return errors.New("no target languages selected")
	}

	m := manifest.New(sourcePath)
	for _, lang := range selected {
		def := filepath.Join(filepath.Dir(sourcePath), strings.ToLower(lang.Code)+".json")
		out, err := prompter.SelectOutputPath(lang, def)
		if err != nil {
			return err
		}
		m.AddLanguage(lang, out)
	}

	ok, err = prompter.Confirm(i18n.T("Are you sure you want to translate these files?"))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(i18n.T("Translation canceled."))
	}

	logInfo("%s", i18n.T("Translation in progress. Please wait..."))
	s := &project.Syncer{Root: rootDir, Manifest: m, Translator: tr, Log: logInfo}
	if err := s.Setup(ctx); err != nil {
		return err
	}

	logSuccess("%s", i18n.T("All translations complete. Writing project data..."))
	logWarning("Do not edit the manifest or translated locale files by hand; use 'ltsync project manage' to change settings.")
	return nil
}

func newProjectManageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manage",
		Short: "Change project settings such as enabled languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectManage(cmd.Context())
		},
	}
}

func runProjectManage(ctx context.Context) error {
	s, err := loadedSyncer(ctx, false)
	if err != nil {
		return err
	}

	prompter := interact.Default()
	prompter.AssumeYes = assumeYes

	choice, err := prompter.Input("What setting would you like to change? (1: source locale path, 2: enabled languages)", "2")
	if err != nil {
		return err
	}

	switch choice {
	case "1":
		path, err := prompter.SelectSourceLocale(s.Manifest.SourceLocalePath)
		if err != nil {
			return err
		}
		if err := s.SetSourcePath(path); err != nil {
			return err
		}
		logSuccess("Source locale path updated to %s", path)
		return nil

	case "2":
		tr, err := newTranslator(ctx)
		if err != nil {
			return err
		}
		s.Translator = tr

		available, err := tr.TargetLanguages(ctx)
		if err != nil {
			return err
		}
		enabled := s.Manifest.Languages()
		selected, err := prompter.SelectLanguages(available, enabled)
		if err != nil {
			return err
		}

		change, err := s.EditLanguages(ctx, selected, func(lang locale.Language) (string, error) {
			def := filepath.Join(filepath.Dir(s.Manifest.SourceLocalePath), strings.ToLower(lang.Code)+".json")
			return prompter.SelectOutputPath(lang, def)
		})
		if err != nil {
			return err
		}
		if change == nil {
			logInfo("Language selection unchanged.")
			return nil
		}

		for _, lang := range change.Added {
			logSuccess("Enabled %s", lang)
		}
		if len(change.RemovedPaths) > 0 {
			logWarning("Removed languages are no longer tracked, but their files were not deleted: %s",
				strings.Join(change.RemovedPaths, ", "))
		}
		return nil

	default:
		return fmt.Errorf("unknown setting %q", choice)
	}
}

func newProjectUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Sync all translated locales with source file edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectUpdate(cmd.Context())
		},
	}
}

func runProjectUpdate(ctx context.Context) error {
	// Check for pending changes before wiring the provider, so a clean
	// tree costs no network round-trips at all.
	s, err := loadedSyncer(ctx, false)
	if err != nil {
		return err
	}
	pending, err := s.PendingDiff()
	if err != nil {
		return err
	}
	if pending == nil {
		logInfo("%s", i18n.T("Everything is up to date."))
		return nil
	}

	tr, err := newTranslator(ctx)
	if err != nil {
		return err
	}
	s.Translator = tr

	res, err := s.Update(ctx)
	if err != nil {
		return err
	}
	if res == nil {
		logInfo("%s", i18n.T("Everything is up to date."))
		return nil
	}

	logSuccess("Synced %d language%s: %d changed or added, %d removed",
		res.Languages, pluralSuffix(res.Languages),
		res.Diff.ChangedOrAdded.Len(), res.Diff.Removed.Len())
	return nil
}

// ---------------------------------------------------------------------------
// translate (one-shot, no project state)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var langCode string

	cmd := &cobra.Command{
		Use:   "translate <input-file> <output-file>",
		Short: "Translate a single locale file in its entirety without project mode",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslateFile(cmd.Context(), args[0], args[1], langCode)
		},
	}

	cmd.Flags().StringVarP(&langCode, "language", "l", "", "Target language code (skips the selection prompt)")
	return cmd
}

func runTranslateFile(ctx context.Context, inputPath, outputPath, langCode string) error {
	data, err := locale.Load(inputPath)
	if err != nil {
		return err
	}

	tr, err := newTranslator(ctx)
	if err != nil {
		return err
	}

	available, err := tr.TargetLanguages(ctx)
	if err != nil {
		return err
	}

	prompter := interact.Default()
	prompter.AssumeYes = assumeYes

	var target locale.Language
	if langCode != "" {
		code := langmeta.Normalize(langCode)
		for _, l := range available {
			if l.Code == code {
				target = l
				break
			}
		}
		if target.Code == "" {
			return fmt.Errorf("language %q is not available with this provider", langCode)
		}
	} else {
		selected, err := prompter.SelectLanguages(available, nil)
		if err != nil {
			return err
		}
		if len(selected) != 1 {
			return errors.New("select exactly one target language")
		}
		target = selected[0]
	}

	ok, err := prompter.Confirm(i18n.T("Are you sure you want to translate these files?"))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(i18n.T("Translation canceled."))
	}

	logInfo("%s", i18n.T("Translation in progress. Please wait..."))
	translated, err := translate.Apply(ctx, tr, data, target)
	if err != nil {
		return err
	}

	if err := locale.Save(outputPath, translated); err != nil {
		return err
	}
	logSuccess("Translation complete. Output written to %s", outputPath)
	return nil
}

// ---------------------------------------------------------------------------
// status (read-only)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project info and pending changes",
		Long: `Show the project manifest, the enabled languages, and the changes in the
source locale file that have not been synced yet. Makes no provider calls
and modifies no files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

func runStatus(ctx context.Context) error {
	s, err := loadedSyncer(ctx, false)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%sProject%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Source:     %s\n", s.Manifest.SourceLocalePath)

	langs := s.Manifest.Languages()
	fmt.Fprintf(os.Stderr, "  Languages:  %d\n", len(langs))
	for _, lang := range langs {
		path, _ := s.Manifest.LocalePath(lang.Code)
		count := "missing"
		if data, err := locale.Load(path); err == nil {
			count = fmt.Sprintf("%d entr%s", data.Len(), plural(data.Len(), "y", "ies"))
		}
		fmt.Fprintf(os.Stderr, "    %-20s %s (%s)\n", lang.String(), path, count)
	}

	pending, err := s.PendingDiff()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n%sPending changes%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	if pending == nil {
		fmt.Fprintln(os.Stderr, "  none — everything is up to date")
		return nil
	}
	fmt.Fprintf(os.Stderr, "  changed or added: %d\n", pending.ChangedOrAdded.Len())
	fmt.Fprintf(os.Stderr, "  removed:          %d\n", pending.Removed.Len())
	fmt.Fprintln(os.Stderr, "\n  run 'ltsync project update' to sync")
	return nil
}

// ---------------------------------------------------------------------------
// auth (API key management)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
	}
	cmd.AddCommand(newAuthSetCmd(), newAuthStatusCmd(), newAuthRemoveCmd())
	return cmd
}

func providerArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return translate.ProviderDeepL
}

func newAuthSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [provider]",
		Short: "Store an API key (default provider: deepl)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := providerArg(args)
			if _, err := translate.New(providerID, "placeholder", translate.Options{}); err != nil {
				return err
			}

			key, err := interact.Default().Input(fmt.Sprintf("API key for %s:", providerID), "")
			if err != nil {
				return err
			}
			if key == "" {
				return errors.New("no key entered")
			}
			if err := settings.SetKey(providerID, key); err != nil {
				return err
			}
			logSuccess("Stored API key for %s", providerID)
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which providers have keys configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.Load()
			if err != nil {
				return err
			}
			for _, providerID := range []string{translate.ProviderDeepL, translate.ProviderOpenAI} {
				state := "not configured"
				if _, source, err := settings.APIKey(providerID, ""); err == nil {
					state = "configured (" + source + ")"
				}
				fmt.Fprintf(os.Stderr, "  %-8s %s\n", providerID, state)
			}
			for providerID := range store {
				if providerID != translate.ProviderDeepL && providerID != translate.ProviderOpenAI {
					logWarning("auth.json contains a key for unknown provider %q", providerID)
				}
			}
			return nil
		},
	}
}

func newAuthRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [provider]",
		Short: "Delete a stored API key (default provider: deepl)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := providerArg(args)
			removed, err := settings.RemoveKey(providerID)
			if err != nil {
				return err
			}
			if !removed {
				logInfo("No stored key for %s", providerID)
				return nil
			}
			logSuccess("Removed stored key for %s", providerID)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ltsync version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

func pluralSuffix(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
