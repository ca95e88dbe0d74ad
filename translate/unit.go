package translate

import (
	"github.com/minios-linux/xckit/xcstrings"
)

// Mode selects which catalog keys become translatable units.
type Mode string

const (
	// ModeAll selects every key.
	ModeAll Mode = "all"
	// ModeMissing selects only keys that do not yet have a translated
	// state for the target language.
	ModeMissing Mode = "missing"
	// ModeKeys selects an explicit key set.
	ModeKeys Mode = "keys"
)

// Selection describes which keys to translate. Keys is consulted only for
// ModeKeys.
type Selection struct {
	Mode Mode
	Keys []string
}

// SelectAll selects every catalog key.
func SelectAll() Selection { return Selection{Mode: ModeAll} }

// SelectMissing selects keys lacking a translated state for the target.
func SelectMissing() Selection { return Selection{Mode: ModeMissing} }

// SelectKeys selects an explicit key set.
func SelectKeys(keys ...string) Selection { return Selection{Mode: ModeKeys, Keys: keys} }

// Extract builds the ordered sequence of translatable units for a target
// language. Catalog key order is preserved; the source text is always the
// base value. Extraction never mutates the catalog.
//
// ModeKeys fails with a KeyNotFoundError when any requested key is absent.
func Extract(cat *xcstrings.File, targetLang string, sel Selection) ([]Unit, error) {
	switch sel.Mode {
	case ModeKeys:
		return extractKeys(cat, sel.Keys)
	case ModeMissing:
		return extractFiltered(cat, func(key string) bool {
			u, ok := cat.GetTranslation(key, targetLang)
			return !ok || u.State != xcstrings.StateTranslated
		}), nil
	default:
		return extractFiltered(cat, func(string) bool { return true }), nil
	}
}

func extractFiltered(cat *xcstrings.File, include func(key string) bool) []Unit {
	var units []Unit
	for _, bs := range cat.BaseStrings() {
		if include(bs.Key) {
			units = append(units, Unit{Key: bs.Key, Source: bs.Value})
		}
	}
	return units
}

// extractKeys validates the requested set first, then emits matching units
// in catalog order rather than request order.
func extractKeys(cat *xcstrings.File, keys []string) ([]Unit, error) {
	requested := make(map[string]bool, len(keys))
	for _, key := range keys {
		if _, ok := cat.BaseValue(key); !ok {
			return nil, &KeyNotFoundError{Key: key}
		}
		requested[key] = true
	}
	return extractFiltered(cat, func(key string) bool { return requested[key] }), nil
}
