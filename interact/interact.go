// Package interact implements the operator-facing prompts: confirmations,
// path selection, and target-language selection. The reader and writer are
// injected so flows can be exercised in tests without a terminal.
package interact

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/localekit/ltsync/i18n"
	"github.com/localekit/ltsync/langmeta"
	"github.com/localekit/ltsync/locale"
)

// Prompter asks questions on Out and reads answers from In.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// AssumeYes makes every confirmation succeed without prompting
	// (wired to the --yes flag).
	AssumeYes bool
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Default returns a Prompter on stdin/stderr.
func Default() *Prompter {
	return New(os.Stdin, os.Stderr)
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question, defaulting to yes.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}

	fmt.Fprintf(p.out, "%s [Y/n] ", prompt)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Input asks for a line of text, offering a default value.
func (p *Prompter) Input(prompt, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s] ", prompt, def)
	} else {
		fmt.Fprintf(p.out, "%s ", prompt)
	}

	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// SelectSourceLocale asks for the English locale file path until an
// existing file is named.
func (p *Prompter) SelectSourceLocale(def string) (string, error) {
	for {
		path, err := p.Input(i18n.T("What is the path of the English locale file?"), def)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		fmt.Fprintln(p.out, i18n.T("The file you specified does not exist. Please try again."))
	}
}

// SelectOutputPath asks for a derived document path for one language.
// The path must end in .json and must not already exist.
func (p *Prompter) SelectOutputPath(lang locale.Language, def string) (string, error) {
	for {
		prompt := fmt.Sprintf("[%s] %s", lang, i18n.T("What should the output file be called?"))
		path, err := p.Input(prompt, def)
		if err != nil {
			return "", err
		}
		if !strings.HasSuffix(path, ".json") {
			fmt.Fprintln(p.out, i18n.T("The file must have a .json extension."))
			continue
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintln(p.out, i18n.T("The file you specified already exists. Please give it a different name."))
			continue
		}
		return path, nil
	}
}

// SelectLanguages presents the available target languages as a numbered
// list with the currently enabled ones marked, and reads a comma-separated
// selection of numbers or language codes. An empty answer keeps the
// current selection.
func (p *Prompter) SelectLanguages(available, enabled []locale.Language) ([]locale.Language, error) {
	enabledCodes := make(map[string]bool, len(enabled))
	for _, l := range enabled {
		enabledCodes[l.Code] = true
	}

	fmt.Fprintln(p.out, i18n.T("What languages do you want to translate to?"))
	for i, l := range available {
		marker := " "
		if enabledCodes[l.Code] {
			marker = "x"
		}
		fmt.Fprintf(p.out, "  [%s] %2d. %s\n", marker, i+1, l)
	}
	fmt.Fprint(p.out, "> ")

	answer, err := p.readLine()
	if err != nil {
		return nil, err
	}
	if answer == "" {
		return append([]locale.Language(nil), enabled...), nil
	}

	var selected []locale.Language
	seen := make(map[string]bool)
	for _, field := range strings.Split(answer, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		var lang locale.Language
		if n, err := strconv.Atoi(field); err == nil {
			if n < 1 || n > len(available) {
				return nil, fmt.Errorf("selection %d is out of range", n)
			}
			lang = available[n-1]
		} else {
			code := langmeta.Normalize(field)
			found := false
			for _, l := range available {
				if l.Code == code {
					lang, found = l, true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("language %q is not available", field)
			}
		}

		if !seen[lang.Code] {
			seen[lang.Code] = true
			selected = append(selected, lang)
		}
	}

	return selected, nil
}
