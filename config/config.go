// Package config holds the translation engine settings and project
// detection for xckit: locating the .xcstrings catalog and resolving the
// engine knobs from the .xckit.yaml file, flags, and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Engine defaults. MaxConcurrentChunks is the single authoritative
// concurrency knob; nothing else in the tree hardcodes a chunk parallelism.
const (
	DefaultChunkSize           = 50
	DefaultMaxConcurrentChunks = 2
	DefaultRateLimitDelay      = time.Second
	DefaultTemperature         = 0.3
)

// Settings are the engine knobs consumed by the translation core.
type Settings struct {
	// ChunkSize is how many strings go into one translator call.
	ChunkSize int
	// MaxConcurrentChunks caps simultaneous translator calls.
	MaxConcurrentChunks int
	// RateLimitDelay is the minimum spacing between call starts.
	RateLimitDelay time.Duration
	// Model is the model identifier passed to the provider.
	Model string
	// Temperature for the model call.
	Temperature float64
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		ChunkSize:           DefaultChunkSize,
		MaxConcurrentChunks: DefaultMaxConcurrentChunks,
		RateLimitDelay:      DefaultRateLimitDelay,
		Temperature:         DefaultTemperature,
	}
}

// Validate rejects settings the engine cannot run with.
func (s Settings) Validate() error {
	if s.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1, got %d", s.ChunkSize)
	}
	if s.MaxConcurrentChunks < 1 {
		return fmt.Errorf("max_concurrent_chunks must be at least 1, got %d", s.MaxConcurrentChunks)
	}
	if s.RateLimitDelay < 0 {
		return fmt.Errorf("rate_limit_delay must not be negative, got %v", s.RateLimitDelay)
	}
	if s.Temperature < 0 || s.Temperature > 1 {
		return fmt.Errorf("temperature must be within 0.0-1.0, got %g", s.Temperature)
	}
	return nil
}

// Project holds the resolved project configuration.
type Project struct {
	// Root is the project root directory.
	Root string
	// CatalogPath is the .xcstrings file to operate on.
	CatalogPath string
	// Languages is the default target language list (from .xckit.yaml).
	Languages []string
	// Provider is the default provider ID (from .xckit.yaml).
	Provider string
	// Translation are the engine settings.
	Translation Settings
	// FromFile is true when a .xckit.yaml declared the project.
	FromFile bool
}

// Detect resolves the project for a root directory. A .xckit.yaml file is
// the sole source of truth when present; otherwise the catalog is located
// by scanning for .xcstrings files.
func Detect(root string) (*Project, error) {
	if root == "" {
		root = "."
	}

	if f, err := LoadFile(root); err != nil {
		return nil, err
	} else if f != nil {
		return f.project(root)
	}

	proj := &Project{Root: root, Translation: DefaultSettings()}
	proj.CatalogPath = findCatalog(root)
	return proj, nil
}

// findCatalog locates the catalog by convention: Localizable.xcstrings at
// the root wins, then the lexically first *.xcstrings found within two
// directory levels.
func findCatalog(root string) string {
	preferred := filepath.Join(root, "Localizable.xcstrings")
	if fileExists(preferred) {
		return preferred
	}

	var found []string
	patterns := []string{
		filepath.Join(root, "*.xcstrings"),
		filepath.Join(root, "*", "*.xcstrings"),
		filepath.Join(root, "*", "*", "*.xcstrings"),
	}
	for _, pat := range patterns {
		matches, _ := filepath.Glob(pat)
		for _, m := range matches {
			if filepath.Base(m) == "Localizable.xcstrings" {
				return m
			}
			found = append(found, m)
		}
	}
	if len(found) == 0 {
		return ""
	}
	sort.Strings(found)
	return found[0]
}

// ParseLangList splits a comma-separated language list.
func ParseLangList(s string) []string {
	var langs []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			langs = append(langs, part)
		}
	}
	return langs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
