package main

import (
	"testing"
)

func TestPluralHelpers(t *testing.T) {
	if got := plural(1, "entry", "entries"); got != "entry" {
		t.Fatalf("plural(1) = %q, want %q", got, "entry")
	}
	if got := plural(0, "entry", "entries"); got != "entries" {
		t.Fatalf("plural(0) = %q, want %q", got, "entries")
	}
	if got := plural(3, "entry", "entries"); got != "entries" {
		t.Fatalf("plural(3) = %q, want %q", got, "entries")
	}

	if got := pluralSuffix(1); got != "" {
		t.Fatalf("pluralSuffix(1) = %q, want empty", got)
	}
	if got := pluralSuffix(2); got != "s" {
		t.Fatalf("pluralSuffix(2) = %q, want %q", got, "s")
	}
}

func TestProviderArg(t *testing.T) {
	if got := providerArg(nil); got != "deepl" {
		t.Fatalf("providerArg(nil) = %q, want %q", got, "deepl")
	}
	if got := providerArg([]string{"openai"}); got != "openai" {
		t.Fatalf("providerArg(openai) = %q, want %q", got, "openai")
	}
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	want := map[string][]string{
		"project":   {"setup", "manage", "update"},
		"translate": nil,
		"status":    nil,
		"auth":      {"set", "status", "remove"},
		"version":   nil,
	}

	for name, subs := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("root command is missing %q: %v", name, err)
		}
		for _, sub := range subs {
			child, _, err := root.Find([]string{name, sub})
			if err != nil || child.Name() != sub {
				t.Fatalf("command %q is missing subcommand %q: %v", name, sub, err)
			}
		}
	}
}
