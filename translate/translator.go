package translate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// Unit is one translatable string: a catalog key and its source-language
// text. Units are always built from the base value, never from a prior
// partial translation.
type Unit struct {
	Key    string
	Source string
}

// Translator performs text translation for one batch of units. A batch is a
// single atomic call: it either yields a translation for every unit or fails
// as a whole.
type Translator interface {
	TranslateBatch(ctx context.Context, sourceLang, targetLang string, units []Unit) (map[string]string, error)
}

// ProviderTranslator implements Translator over an HTTP AI provider.
type ProviderTranslator struct {
	// Provider is the AI provider configuration.
	Provider Provider
	// Temperature for the model call.
	Temperature float64
	// SystemPrompt overrides the default system prompt when non-empty.
	// The {{sourceLang}} and {{targetLang}} placeholders are substituted.
	SystemPrompt string
	// OnLog emits warnings (placeholder drift, ignored extra keys).
	OnLog func(format string, args ...any)
}

func (t *ProviderTranslator) log(format string, args ...any) {
	if t.OnLog != nil {
		t.OnLog(format, args...)
	}
}

// TranslateBatch sends one chunk of units to the provider and decodes the
// translated key→text mapping. A response whose key set does not cover the
// request is a malformed-response failure for the whole chunk.
func (t *ProviderTranslator) TranslateBatch(ctx context.Context, sourceLang, targetLang string, units []Unit) (map[string]string, error) {
	if len(units) == 0 {
		return map[string]string{}, nil
	}

	systemPrompt := t.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = getPrompt("default")
	}
	systemPrompt = strings.ReplaceAll(systemPrompt, "{{sourceLang}}", sourceLang)
	systemPrompt = strings.ReplaceAll(systemPrompt, "{{targetLang}}", targetLang)

	userPrompt, err := buildBatchPrompt(targetLang, units)
	if err != nil {
		return nil, errorf(KindUnknown, "building prompt: %v", err)
	}

	text, err := callProvider(ctx, t.Provider, systemPrompt, userPrompt, t.Temperature)
	if err != nil {
		return nil, err
	}

	translated, err := parseBatchResponse(text)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(units))
	for _, u := range units {
		value, ok := translated[u.Key]
		if !ok {
			return nil, errorf(KindMalformedResponse,
				"response is missing key %q (%d of %d keys returned)", u.Key, len(translated), len(units))
		}
		if warn := CheckPlaceholders(u.Source, value); warn != "" {
			t.log("placeholder mismatch in %q: %s", u.Key, warn)
		}
		result[u.Key] = value
	}
	if len(translated) > len(units) {
		t.log("response contained %d unexpected keys, ignored", len(translated)-len(units))
	}

	return result, nil
}

// buildBatchPrompt renders the units as a JSON object in chunk order.
func buildBatchPrompt(targetLang string, units []Unit) (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Translate the values of this JSON object to %s:\n{\n", targetLang))
	for i, u := range units {
		key, err := json.Marshal(u.Key)
		if err != nil {
			return "", err
		}
		val, err := json.Marshal(u.Source)
		if err != nil {
			return "", err
		}
		sb.Write(key)
		sb.WriteString(": ")
		sb.Write(val)
		if i < len(units)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	sb.WriteString(fmt.Sprintf("Return a JSON object with the same %d keys and translated values.", len(units)))
	return sb.String(), nil
}

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// parseBatchResponse extracts the key→text object from the model output.
func parseBatchResponse(content string) (map[string]string, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code blocks if present
	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	// Try to find a JSON object in the response
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var translated map[string]string
	if err := json.Unmarshal([]byte(content), &translated); err != nil {
		return nil, errorf(KindMalformedResponse,
			"failed to parse translation response as JSON object: %v\nResponse: %s", err, truncate(content, 300))
	}
	return translated, nil
}
