// Package config: .xckit.yaml configuration file support.
//
// When a .xckit.yaml file exists in the project root, xckit uses it as the
// sole source of truth: the catalog path and target languages must be
// declared explicitly, no scanning is performed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = ".xckit.yaml"

// File is the top-level .xckit.yaml structure.
type File struct {
	// Catalog is the .xcstrings file path relative to the project root.
	Catalog string `yaml:"catalog"`
	// Languages is the default target language list.
	Languages []string `yaml:"languages,omitempty"`
	// Provider is the default AI provider ID.
	Provider string `yaml:"provider,omitempty"`
	// Translation tunes the engine.
	Translation TranslationConfig `yaml:"translation,omitempty"`
}

// TranslationConfig is the translation section of .xckit.yaml.
type TranslationConfig struct {
	// ChunkSize is how many strings go into one translator call.
	ChunkSize int `yaml:"chunk_size,omitempty"`
	// MaxConcurrentChunks caps simultaneous translator calls.
	MaxConcurrentChunks int `yaml:"max_concurrent_chunks,omitempty"`
	// RateLimitDelay is the minimum spacing between call starts, in seconds.
	RateLimitDelay float64 `yaml:"rate_limit_delay,omitempty"`
	// Model is the model identifier.
	Model string `yaml:"model,omitempty"`
	// Temperature for the model call.
	Temperature float64 `yaml:"temperature,omitempty"`
}

// LoadFile reads .xckit.yaml from root. Returns (nil, nil) when the file
// does not exist.
func LoadFile(root string) (*File, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.Catalog == "" {
		return nil, fmt.Errorf("%s: catalog is required", path)
	}
	return &f, nil
}

// project resolves the file into a Project, layering the file's translation
// section over the defaults.
func (f *File) project(root string) (*Project, error) {
	s := DefaultSettings()
	if f.Translation.ChunkSize != 0 {
		s.ChunkSize = f.Translation.ChunkSize
	}
	if f.Translation.MaxConcurrentChunks != 0 {
		s.MaxConcurrentChunks = f.Translation.MaxConcurrentChunks
	}
	if f.Translation.RateLimitDelay != 0 {
		s.RateLimitDelay = time.Duration(f.Translation.RateLimitDelay * float64(time.Second))
	}
	if f.Translation.Model != "" {
		s.Model = f.Translation.Model
	}
	if f.Translation.Temperature != 0 {
		s.Temperature = f.Translation.Temperature
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}

	return &Project{
		Root:        root,
		CatalogPath: filepath.Join(root, f.Catalog),
		Languages:   f.Languages,
		Provider:    f.Provider,
		Translation: s,
		FromFile:    true,
	}, nil
}
