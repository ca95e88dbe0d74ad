package translate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

// ---------------------------------------------------------------------------
// buildBatchPrompt
// ---------------------------------------------------------------------------

func TestBuildBatchPrompt(t *testing.T) {
	units := []Unit{
		{Key: "hello", Source: "Hello"},
		{Key: "%lld items", Source: "%lld items"},
	}

	prompt, err := buildBatchPrompt("ru", units)
	if err != nil {
		t.Fatalf("error: %v", err)
	}

	if !strings.Contains(prompt, `"hello": "Hello"`) {
		t.Errorf("prompt missing first pair:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"%lld items": "%lld items"`) {
		t.Errorf("prompt missing placeholder pair:\n%s", prompt)
	}
	if !strings.Contains(prompt, "to ru") {
		t.Errorf("prompt missing target language:\n%s", prompt)
	}
	if !strings.Contains(prompt, "same 2 keys") {
		t.Errorf("prompt missing key count contract:\n%s", prompt)
	}
	// First key must appear before the second (chunk order).
	if strings.Index(prompt, `"hello"`) > strings.Index(prompt, `"%lld items"`) {
		t.Errorf("prompt keys out of order:\n%s", prompt)
	}
}

// ---------------------------------------------------------------------------
// parseBatchResponse
// ---------------------------------------------------------------------------

func TestParseBatchResponse_PlainObject(t *testing.T) {
	got, err := parseBatchResponse(`{"hello": "Привет", "bye": "Пока"}`)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got["hello"] != "Привет" || got["bye"] != "Пока" {
		t.Fatalf("got %#v", got)
	}
}

func TestParseBatchResponse_MarkdownFence(t *testing.T) {
	content := "Here you go:\n```json\n{\"hello\": \"Hallo\"}\n```\nDone."
	got, err := parseBatchResponse(content)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got["hello"] != "Hallo" {
		t.Fatalf("got %#v", got)
	}
}

func TestParseBatchResponse_ProseAroundObject(t *testing.T) {
	content := `Sure! The translations are {"hello": "Bonjour"} as requested.`
	got, err := parseBatchResponse(content)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got["hello"] != "Bonjour" {
		t.Fatalf("got %#v", got)
	}
}

func TestParseBatchResponse_Invalid(t *testing.T) {
	for _, content := range []string{"no object here", `["array", "not", "object"]`, `{"broken": }`} {
		_, err := parseBatchResponse(content)
		if KindOf(err) != KindMalformedResponse {
			t.Fatalf("content %q: kind = %q, want malformed-response", content, KindOf(err))
		}
	}
}

// ---------------------------------------------------------------------------
// ProviderTranslator.TranslateBatch
// ---------------------------------------------------------------------------

// chatServer fakes an OpenAI-compatible endpoint returning content verbatim.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := json.Marshal(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
		if err != nil {
			t.Errorf("marshal: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}))
}

func TestTranslateBatch_Success(t *testing.T) {
	srv := chatServer(t, `{"hello": "Hallo", "bye": "Tschüss"}`)
	defer srv.Close()

	tr := &ProviderTranslator{Provider: testProvider(srv.URL), Temperature: 0.3}
	got, err := tr.TranslateBatch(context.Background(), "en", "de", []Unit{
		{Key: "hello", Source: "Hello"},
		{Key: "bye", Source: "Goodbye"},
	})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if got["hello"] != "Hallo" || got["bye"] != "Tschüss" {
		t.Fatalf("got %#v", got)
	}
}

func TestTranslateBatch_MissingKeyIsMalformed(t *testing.T) {
	srv := chatServer(t, `{"hello": "Hallo"}`)
	defer srv.Close()

	tr := &ProviderTranslator{Provider: testProvider(srv.URL)}
	_, err := tr.TranslateBatch(context.Background(), "en", "de", []Unit{
		{Key: "hello", Source: "Hello"},
		{Key: "bye", Source: "Goodbye"},
	})
	if KindOf(err) != KindMalformedResponse {
		t.Fatalf("kind = %q (%v), want malformed-response", KindOf(err), err)
	}
}

func TestTranslateBatch_ExtraKeysIgnoredWithWarning(t *testing.T) {
	srv := chatServer(t, `{"hello": "Hallo", "phantom": "Geist"}`)
	defer srv.Close()

	var logged []string
	tr := &ProviderTranslator{
		Provider: testProvider(srv.URL),
		OnLog: func(format string, args ...any) {
			logged = append(logged, format)
		},
	}

	got, err := tr.TranslateBatch(context.Background(), "en", "de", []Unit{
		{Key: "hello", Source: "Hello"},
	})
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(got) != 1 || got["hello"] != "Hallo" {
		t.Fatalf("got %#v", got)
	}
	if _, ok := got["phantom"]; ok {
		t.Fatal("extra key leaked into the result")
	}
	found := false
	for _, msg := range logged {
		if strings.Contains(msg, "unexpected keys") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no warning about extra keys, logged: %v", logged)
	}
}

func TestTranslateBatch_PlaceholderDriftWarns(t *testing.T) {
	srv := chatServer(t, `{"count": "элементов"}`)
	defer srv.Close()

	var logged []string
	tr := &ProviderTranslator{
		Provider: testProvider(srv.URL),
		OnLog: func(format string, args ...any) {
			logged = append(logged, format)
		},
	}

	got, err := tr.TranslateBatch(context.Background(), "en", "ru", []Unit{
		{Key: "count", Source: "%lld items"},
	})
	if err != nil {
		t.Fatalf("placeholder drift must not fail the chunk: %v", err)
	}
	if got["count"] != "элементов" {
		t.Fatalf("got %#v", got)
	}
	found := false
	for _, msg := range logged {
		if strings.Contains(msg, "placeholder") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no placeholder warning, logged: %v", logged)
	}
}

func TestTranslateBatch_SystemPromptSubstitution(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"k\": \"v\"}"}}]}`))
	}))
	defer srv.Close()

	tr := &ProviderTranslator{
		Provider:     testProvider(srv.URL),
		SystemPrompt: "Translate from {{sourceLang}} to {{targetLang}}.",
	}
	if _, err := tr.TranslateBatch(context.Background(), "en", "fr", []Unit{{Key: "k", Source: "V"}}); err != nil {
		t.Fatalf("error: %v", err)
	}
	if !strings.Contains(gotBody, "Translate from en to fr.") {
		t.Fatalf("system prompt placeholders not substituted: %s", gotBody)
	}
}

func TestTranslateBatch_EmptyChunk(t *testing.T) {
	tr := &ProviderTranslator{Provider: Provider{ID: ProviderCustomOpenAI, BaseURL: "http://invalid.invalid", Timeout: time.Second}}
	got, err := tr.TranslateBatch(context.Background(), "en", "de", nil)
	if err != nil {
		t.Fatalf("error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %#v, want empty", got)
	}
}
