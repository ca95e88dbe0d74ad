package translate

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/minios-linux/xckit/settings"
)

// ---------------------------------------------------------------------------
// System Prompts Configuration
// ---------------------------------------------------------------------------

// PromptsConfig holds all system prompts loaded from prompts.json
type PromptsConfig struct {
	Prompts map[string]string `json:"prompts"`
}

// globalPrompts holds the loaded prompts configuration
var globalPrompts *PromptsConfig

// LoadPromptsFromFile loads system prompts from a JSON file.
// If the file doesn't exist, it returns nil (embedded defaults are used).
func LoadPromptsFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read prompts file: %w", err)
	}

	var config PromptsConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse prompts file: %w", err)
	}

	globalPrompts = &config
	return nil
}

// defaultPromptsMap returns all built-in system prompts as a map.
func defaultPromptsMap() map[string]string {
	return map[string]string{
		"default": DefaultSystemPrompt,
	}
}

// createDefaultPromptsFile writes the built-in prompts to path as a formatted JSON file.
func createDefaultPromptsFile(path string) error {
	config := PromptsConfig{
		Prompts: defaultPromptsMap(),
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling default prompts: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating prompts directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing default prompts file: %w", err)
	}
	return nil
}

// LoadPromptsFromDefaultLocations tries to load prompts from the user data
// directory ($XDG_DATA_HOME/xckit/prompts.json), creating the file with the
// built-in defaults on first use. Returns the path of the loaded file.
func LoadPromptsFromDefaultLocations() (string, error) {
	path, err := settings.PromptsFilePath()
	if err != nil {
		return "", fmt.Errorf("cannot determine prompts file path: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefaultPromptsFile(path); err != nil {
			return "", fmt.Errorf("creating default prompts file: %w", err)
		}
	}

	if err := LoadPromptsFromFile(path); err != nil {
		return "", err
	}

	if globalPrompts != nil {
		return path, nil
	}

	return "", nil
}

// getPrompt returns the system prompt for a given content type.
// If custom prompts are loaded, it uses them; otherwise falls back to embedded defaults.
func getPrompt(promptType string) string {
	if globalPrompts != nil {
		if prompt, ok := globalPrompts.Prompts[promptType]; ok && prompt != "" {
			return prompt
		}
	}

	if p, ok := defaultPromptsMap()[promptType]; ok {
		return p
	}
	return DefaultSystemPrompt
}

// ---------------------------------------------------------------------------
// Default system prompt
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is the system prompt for translating iOS/macOS app UI
// strings from a String Catalog.
const DefaultSystemPrompt = `You are a professional translator specializing in iOS and macOS app localization. You are translating UI strings from an Xcode String Catalog.

CONTEXT AWARENESS:
- The audience is app users
- Tone: professional yet approachable, clear and concise
- Use terminology that is standard in {{targetLang}} app ecosystems (follow Apple's glossaries where established)
- Adapt to the app's specific domain based on the source text context

IMPORTANT TRANSLATION PRINCIPLES:
- Translate from {{sourceLang}} to {{targetLang}} for NATURALNESS and FLUENCY, not word-for-word
- Use idiomatic expressions natural to {{targetLang}}, not literal translations
- Adapt sentence structure to match {{targetLang}} conventions
- Maintain the original tone and intent, but express it naturally in {{targetLang}}
- Keep brand names and proper nouns unchanged

CRITICAL RULES FOR iOS PLACEHOLDERS:
- Keep %@ as %@ (NOT %1$@ or %s)
- Keep %lld as %lld (NOT %1$lld or %d)
- Keep %d as %d (NOT %1$d)
- Keep all other format specifiers UNCHANGED, in the same order
- Do NOT add positional indicators like %1$, %2$

TECHNICAL REQUIREMENTS:
- The input is a JSON object mapping string identifiers to source text
- Return a JSON object with the exact same keys; only the values are translated
- Include ALL keys from the input
- Return ONLY the JSON object, no explanations or markdown code blocks`
