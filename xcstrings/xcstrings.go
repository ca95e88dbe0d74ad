// Package xcstrings implements reading and writing of Xcode String Catalog
// (.xcstrings) files.
//
// An .xcstrings file is a JSON document:
//
//	{
//	    "sourceLanguage": "en",
//	    "strings": {
//	        "Some key": {
//	            "extractionState": "manual",
//	            "localizations": {
//	                "de": { "stringUnit": { "state": "translated", "value": "..." } }
//	            }
//	        }
//	    },
//	    "version": "1.0"
//	}
//
// Round-trip fidelity: key order from the source file is preserved at every
// level, and fields this package does not understand (comments, extraction
// state, variations, future schema additions) are carried through verbatim.
// Only stringUnit objects explicitly replaced via SetTranslation are
// rewritten.
package xcstrings

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	json "github.com/goccy/go-json"
)

// Translation states stored in stringUnit.state.
const (
	StateTranslated  = "translated"
	StateNeedsReview = "needs_review"
	StateNew         = "new"
)

// ParseError describes a structurally invalid catalog. A catalog that fails
// to load is never partially usable.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return "parsing xcstrings: " + e.Msg }

func parseErrorf(format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// StringUnit is one language's translation of a key.
type StringUnit struct {
	State string `json:"state"`
	Value string `json:"value"`
}

// rawField is a single JSON object member preserved in document order.
type rawField struct {
	name string
	raw  json.RawMessage // nil for structurally parsed members
}

// localization is one language's localization object within an entry.
type localization struct {
	lang   string
	fields []rawField // ordered; the stringUnit member raw is kept for passthrough
	unit   *StringUnit
}

// Entry is a single key in the catalog.
type Entry struct {
	key    string
	fields []rawField // ordered entry members; "localizations" has nil raw
	locs   []*localization
	locIdx map[string]int
}

// File represents a parsed .xcstrings catalog.
type File struct {
	sourceLanguage string
	top            []rawField // ordered top-level members; "strings" has nil raw
	entries        []*Entry
	index          map[string]int
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses an .xcstrings catalog from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses catalog content from a byte slice.
func Parse(data []byte) (*File, error) {
	f := &File{index: make(map[string]int)}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, parseErrorf("%v", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, parseErrorf("expected top-level object, got %v", tok)
	}

	seen := make(map[string]bool)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, parseErrorf("reading field name: %v", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, parseErrorf("expected string field name, got %T", keyTok)
		}
		if seen[name] {
			return nil, parseErrorf("duplicate top-level field %q", name)
		}
		seen[name] = true

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, parseErrorf("value of %q: %v", name, err)
		}

		switch name {
		case "sourceLanguage":
			if err := json.Unmarshal(raw, &f.sourceLanguage); err != nil {
				return nil, parseErrorf("sourceLanguage: %v", err)
			}
			f.top = append(f.top, rawField{name: name, raw: raw})
		case "strings":
			if err := f.parseStrings(raw); err != nil {
				return nil, err
			}
			f.top = append(f.top, rawField{name: name})
		default:
			f.top = append(f.top, rawField{name: name, raw: raw})
		}
	}

	if _, err := dec.Token(); err != nil { // consume closing '}'
		return nil, parseErrorf("%v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, parseErrorf("trailing data after catalog object")
	}

	if f.sourceLanguage == "" {
		return nil, parseErrorf("missing required field sourceLanguage")
	}

	return f, nil
}

// parseStrings parses the "strings" object preserving entry order.
func (f *File) parseStrings(raw json.RawMessage) error {
	return eachMember(raw, "strings", func(key string, val json.RawMessage) error {
		if _, dup := f.index[key]; dup {
			return parseErrorf("duplicate key %q", key)
		}
		e, err := parseEntry(key, val)
		if err != nil {
			return err
		}
		f.index[key] = len(f.entries)
		f.entries = append(f.entries, e)
		return nil
	})
}

func parseEntry(key string, raw json.RawMessage) (*Entry, error) {
	e := &Entry{key: key, locIdx: make(map[string]int)}

	err := eachMember(raw, fmt.Sprintf("entry %q", key), func(name string, val json.RawMessage) error {
		if name != "localizations" {
			e.fields = append(e.fields, rawField{name: name, raw: val})
			return nil
		}
		e.fields = append(e.fields, rawField{name: name})
		return eachMember(val, fmt.Sprintf("localizations of %q", key), func(lang string, lraw json.RawMessage) error {
			if _, dup := e.locIdx[lang]; dup {
				return parseErrorf("entry %q: duplicate language %q", key, lang)
			}
			loc, err := parseLocalization(key, lang, lraw)
			if err != nil {
				return err
			}
			e.locIdx[lang] = len(e.locs)
			e.locs = append(e.locs, loc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func parseLocalization(key, lang string, raw json.RawMessage) (*localization, error) {
	loc := &localization{lang: lang}

	err := eachMember(raw, fmt.Sprintf("localization %s of %q", lang, key), func(name string, val json.RawMessage) error {
		loc.fields = append(loc.fields, rawField{name: name, raw: val})
		if name == "stringUnit" {
			var su StringUnit
			if err := json.Unmarshal(val, &su); err != nil {
				return parseErrorf("entry %q, language %s: stringUnit: %v", key, lang, err)
			}
			loc.unit = &su
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// eachMember walks the members of a JSON object in document order.
func eachMember(raw json.RawMessage, what string, fn func(name string, val json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return parseErrorf("%s: %v", what, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return parseErrorf("%s: expected object, got %v", what, tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return parseErrorf("%s: %v", what, err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return parseErrorf("%s: expected string key, got %T", what, keyTok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return parseErrorf("%s, member %q: %v", what, name, err)
		}
		if err := fn(name, val); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// SourceLanguage returns the catalog's base language code.
func (f *File) SourceLanguage() string { return f.sourceLanguage }

// Languages returns the sorted set of language codes: the source language
// plus every language present in any entry's localizations.
func (f *File) Languages() []string {
	set := map[string]bool{f.sourceLanguage: true}
	for _, e := range f.entries {
		for _, loc := range e.locs {
			set[loc.lang] = true
		}
	}
	langs := make([]string, 0, len(set))
	for l := range set {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Keys returns all catalog keys in document order.
func (f *File) Keys() []string {
	keys := make([]string, len(f.entries))
	for i, e := range f.entries {
		keys[i] = e.key
	}
	return keys
}

// BaseString is one key together with its source-language text.
type BaseString struct {
	Key   string
	Value string
}

// BaseStrings returns key and source text pairs in document order.
func (f *File) BaseStrings() []BaseString {
	out := make([]BaseString, len(f.entries))
	for i, e := range f.entries {
		out[i] = BaseString{Key: e.key, Value: f.baseValue(e)}
	}
	return out
}

// BaseValue returns the source-language text for a key. When the entry has
// no explicit source localization the key itself is the source text, as is
// conventional for String Catalogs.
func (f *File) BaseValue(key string) (string, bool) {
	idx, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.baseValue(f.entries[idx]), true
}

func (f *File) baseValue(e *Entry) string {
	if idx, ok := e.locIdx[f.sourceLanguage]; ok {
		if u := e.locs[idx].unit; u != nil && u.Value != "" {
			return u.Value
		}
	}
	return e.key
}

// GetTranslation returns the stringUnit for a key in a language.
// The second result is false when the key has no localization for lang
// (or no stringUnit inside it).
func (f *File) GetTranslation(key, lang string) (StringUnit, bool) {
	idx, ok := f.index[key]
	if !ok {
		return StringUnit{}, false
	}
	e := f.entries[idx]
	lidx, ok := e.locIdx[lang]
	if !ok {
		return StringUnit{}, false
	}
	if u := e.locs[lidx].unit; u != nil {
		return *u, true
	}
	return StringUnit{}, false
}

// Stats returns (total keys, keys translated for lang).
func (f *File) Stats(lang string) (int, int) {
	total, translated := len(f.entries), 0
	for _, e := range f.entries {
		if idx, ok := e.locIdx[lang]; ok {
			if u := e.locs[idx].unit; u != nil && u.State == StateTranslated {
				translated++
			}
		}
	}
	return total, translated
}

// ---------------------------------------------------------------------------
// Mutation
// ---------------------------------------------------------------------------

// SetTranslation replaces the stringUnit of key/lang with the given value and
// state, creating the localization (and the localizations member) as needed.
// Sibling localization fields such as variations are left untouched. The key
// must already exist: translation never adds or removes catalog keys.
func (f *File) SetTranslation(key, lang, value, state string) error {
	idx, ok := f.index[key]
	if !ok {
		return fmt.Errorf("key %q not found in catalog", key)
	}
	e := f.entries[idx]

	unit := StringUnit{State: state, Value: value}
	raw, err := json.Marshal(unit)
	if err != nil {
		return fmt.Errorf("encoding stringUnit for %q: %w", key, err)
	}

	f.ensureStringsField()

	lidx, ok := e.locIdx[lang]
	if !ok {
		e.ensureLocalizationsField()
		lidx = len(e.locs)
		e.locIdx[lang] = lidx
		e.locs = append(e.locs, &localization{lang: lang})
	}
	loc := e.locs[lidx]
	loc.unit = &unit

	for i := range loc.fields {
		if loc.fields[i].name == "stringUnit" {
			loc.fields[i].raw = raw
			return nil
		}
	}
	loc.fields = append(loc.fields, rawField{name: "stringUnit", raw: raw})
	return nil
}

// ensureStringsField makes sure the top level carries a strings member for
// catalogs that were loaded without one.
func (f *File) ensureStringsField() {
	for _, tf := range f.top {
		if tf.name == "strings" {
			return
		}
	}
	f.top = append(f.top, rawField{name: "strings"})
}

// ensureLocalizationsField makes sure the entry carries a localizations
// member so newly added languages have somewhere to live.
func (e *Entry) ensureLocalizationsField() {
	for _, fld := range e.fields {
		if fld.name == "localizations" {
			return
		}
	}
	e.fields = append(e.fields, rawField{name: "localizations"})
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the catalog to JSON with 2-space indentation,
// re-emitting all fields in their original document order.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, tf := range f.top {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		writeKey(&buf, tf.name)
		if tf.name == "strings" {
			if err := f.marshalStrings(&buf); err != nil {
				return nil, err
			}
		} else {
			writeRaw(&buf, tf.raw, 1)
		}
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func (f *File) marshalStrings(buf *bytes.Buffer) error {
	if len(f.entries) == 0 {
		buf.WriteString("{}")
		return nil
	}
	buf.WriteString("{")
	for i, e := range f.entries {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		writeKey(buf, e.key)
		if err := e.marshal(buf); err != nil {
			return err
		}
	}
	buf.WriteString("\n  }")
	return nil
}

func (e *Entry) marshal(buf *bytes.Buffer) error {
	if len(e.fields) == 0 {
		buf.WriteString("{}")
		return nil
	}
	buf.WriteString("{")
	for i, fld := range e.fields {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n      ")
		writeKey(buf, fld.name)
		if fld.name == "localizations" && fld.raw == nil {
			e.marshalLocalizations(buf)
		} else {
			writeRaw(buf, fld.raw, 3)
		}
	}
	buf.WriteString("\n    }")
	return nil
}

func (e *Entry) marshalLocalizations(buf *bytes.Buffer) {
	if len(e.locs) == 0 {
		buf.WriteString("{}")
		return
	}
	buf.WriteString("{")
	for i, loc := range e.locs {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n        ")
		writeKey(buf, loc.lang)
		buf.WriteString("{")
		for j, fld := range loc.fields {
			if j > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n          ")
			writeKey(buf, fld.name)
			writeRaw(buf, fld.raw, 5)
		}
		buf.WriteString("\n        }")
	}
	buf.WriteString("\n      }")
}

func writeKey(buf *bytes.Buffer, name string) {
	k, _ := json.Marshal(name)
	buf.Write(k)
	buf.WriteString(": ")
}

// writeRaw re-indents a raw JSON value for the given nesting level.
func writeRaw(buf *bytes.Buffer, raw json.RawMessage, level int) {
	var pretty bytes.Buffer
	prefix := bytes.Repeat([]byte("  "), level)
	if err := json.Indent(&pretty, raw, string(prefix), "  "); err != nil {
		buf.Write(raw)
		return
	}
	buf.Write(pretty.Bytes())
}

// ---------------------------------------------------------------------------
// Files and backups
// ---------------------------------------------------------------------------

// WriteFile serialises and writes to path.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Backup copies the catalog at path to a timestamped sibling
// (path.bak.YYYYMMDD_HHMMSS) and returns the backup path. A missing original
// is not an error; there is nothing to back up.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	bak := fmt.Sprintf("%s.bak.%s", path, time.Now().Format("20060102_150405"))
	if err := os.WriteFile(bak, data, 0644); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", bak, err)
	}
	return bak, nil
}
