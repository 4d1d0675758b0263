package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestTranslatorResolvesKeys(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": &fstest.MapFile{
			Data: []byte("greeting: \"Hello, %s!\"\nplain: \"just text\"\n"),
		},
	}

	tr, err := NewTranslator(fsys, "en")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if got := tr.T("plain"); got != "just text" {
		t.Fatalf("expected plain text, got %q", got)
	}
	if got := tr.T("greeting", "world"); got != "Hello, world!" {
		t.Fatalf("expected formatted greeting, got %q", got)
	}
}

func TestTranslatorUnknownKeyFallsBack(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": &fstest.MapFile{Data: []byte("a: b\n")},
	}
	tr, err := NewTranslator(fsys, "en")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if got := tr.T("missing_key"); got != "missing_key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestTranslatorMissingLocale(t *testing.T) {
	if _, err := NewTranslator(fstest.MapFS{}, "xx"); err == nil {
		t.Fatal("expected error for missing locale file")
	}
}

func TestEmbeddedEnglishCatalog(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("embedded catalog should load: %v", err)
	}
	for _, key := range []string{
		"welcome_message", "error_unauthorized", "error_generic",
		"broadcast_prompt", "broadcast_done", "profile_card",
	} {
		if tr.T(key) == key {
			t.Fatalf("embedded catalog is missing %q", key)
		}
	}
	if !strings.Contains(tr.T("broadcast_done", 2, 1, 0), "2") {
		t.Fatal("broadcast_done should format counts")
	}
}
