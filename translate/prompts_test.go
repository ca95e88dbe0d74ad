package translate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetPrompts(t *testing.T) {
	t.Helper()
	old := globalPrompts
	globalPrompts = nil
	t.Cleanup(func() { globalPrompts = old })
}

func TestGetPrompt_DefaultsWhenUnloaded(t *testing.T) {
	resetPrompts(t)

	if got := getPrompt("default"); got != DefaultSystemPrompt {
		t.Fatal("default prompt not returned")
	}
	if got := getPrompt("nonexistent"); got != DefaultSystemPrompt {
		t.Fatal("unknown prompt type should fall back to default")
	}
}

func TestLoadPromptsFromFile(t *testing.T) {
	resetPrompts(t)

	path := filepath.Join(t.TempDir(), "prompts.json")
	content := `{"prompts": {"default": "custom prompt for {{targetLang}}"}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadPromptsFromFile(path); err != nil {
		t.Fatalf("error: %v", err)
	}
	if got := getPrompt("default"); got != "custom prompt for {{targetLang}}" {
		t.Fatalf("getPrompt() = %q", got)
	}
}

func TestLoadPromptsFromFile_MissingIsNoop(t *testing.T) {
	resetPrompts(t)

	if err := LoadPromptsFromFile(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if globalPrompts != nil {
		t.Fatal("missing file should leave defaults in place")
	}
}

func TestLoadPromptsFromDefaultLocations_CreatesFile(t *testing.T) {
	resetPrompts(t)
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	path, err := LoadPromptsFromDefaultLocations()
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	want := filepath.Join(tmp, "xckit", "prompts.json")
	if path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("prompts file not created: %v", err)
	}
	if !strings.Contains(string(data), "professional translator") {
		t.Fatal("created file missing the built-in prompt")
	}
}

func TestDefaultSystemPrompt_Contract(t *testing.T) {
	for _, want := range []string{"{{targetLang}}", "{{sourceLang}}", "%lld", "JSON"} {
		if !strings.Contains(DefaultSystemPrompt, want) {
			t.Errorf("default prompt missing %q", want)
		}
	}
}
