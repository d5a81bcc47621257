// Package config implements the live RAGConfig, its three presets, and
// versioned persistence (C12). Generalized from the teacher's AppConfig (a
// flat Embedder/Chunker/VectorStore/Summarizer YAML document with a
// Load/Save/LoadDefault file-discovery chain), expanded from four
// capability selections to the five SPEC_FULL.md registries plus the
// chunking/retrieval/generation numeric knobs spec §4.11 names. The
// teacher's file-discovery chain (./config.yaml, then a dotfile under the
// user's home) and its Save-creates-parent-dirs behavior are both kept,
// adapted to the new RAGConfig shape.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/localcorpus/ragengine/internal/store"
)

// SchemaVersion gates the persisted config: a mismatch discards the stored
// document and falls back to defaults, per spec §4.11.
const SchemaVersion = 1

// ChunkerConfig configures C2.
type ChunkerConfig struct {
	ChunkSize      int `yaml:"chunk_size"`
	OverlapPercent int `yaml:"overlap_percent"`
}

// EmbedderConfig selects the embedding strategy by registry id.
type EmbedderConfig struct {
	Strategy string `yaml:"strategy"`
}

// RetrievalConfig selects the retriever strategy and its knobs.
type RetrievalConfig struct {
	Mode  string  `yaml:"mode"`
	TopK  int     `yaml:"top_k"`
	Alpha float64 `yaml:"alpha"`
}

// GenerationConfig selects the chat-mode generator and post-processor.
type GenerationConfig struct {
	Generator     string `yaml:"generator"`
	Polish        bool   `yaml:"polish"`
	PostProcessor string `yaml:"post_processor"`
	MaxTokens     int    `yaml:"max_tokens"`
}

// RAGConfig is the complete live engine configuration: one selection per
// capability registry plus the numeric knobs spec §4.11 and §9 name.
type RAGConfig struct {
	SchemaVersion int              `yaml:"schema_version"`
	Chunker       ChunkerConfig    `yaml:"chunker"`
	Embedder      EmbedderConfig   `yaml:"embedder"`
	Retrieval     RetrievalConfig  `yaml:"retrieval"`
	Generation    GenerationConfig `yaml:"generation"`
}

// Preset names the three fixed configurations spec §4.11 defines.
type Preset string

const (
	PresetFast     Preset = "fast"
	PresetBalanced Preset = "balanced"
	PresetAccurate Preset = "accurate"
)

// Default returns the balanced preset, the engine's out-of-the-box config.
func Default() RAGConfig {
	return Apply(PresetBalanced)
}

// Apply returns the RAGConfig for a named preset. An unrecognized preset
// falls back to balanced rather than erroring — preset selection is a UX
// convenience, not a strategy id subject to the Programmer-error rule.
func Apply(p Preset) RAGConfig {
	base := RAGConfig{
		SchemaVersion: SchemaVersion,
		Embedder:      EmbedderConfig{Strategy: "tfidf"},
		Generation:    GenerationConfig{Generator: "simple-extractive", PostProcessor: "polish", MaxTokens: 256},
	}
	switch p {
	case PresetFast:
		base.Chunker = ChunkerConfig{ChunkSize: 500, OverlapPercent: 10}
		base.Retrieval = RetrievalConfig{Mode: "lexical", TopK: 5}
		base.Generation.Polish = false
	case PresetAccurate:
		base.Chunker = ChunkerConfig{ChunkSize: 300, OverlapPercent: 15}
		base.Retrieval = RetrievalConfig{Mode: "hybrid", TopK: 15, Alpha: 0.7}
		base.Generation.Polish = true
	case PresetBalanced:
		fallthrough
	default:
		base.Chunker = ChunkerConfig{ChunkSize: 400, OverlapPercent: 12}
		base.Retrieval = RetrievalConfig{Mode: "hybrid", TopK: 10, Alpha: 0.5}
		base.Generation.Polish = true
	}
	return base
}

const metaConfigKey = "ragconfig"

// Load fetches the persisted config from st. On schema-version mismatch or
// absence, it discards whatever is stored and returns the balanced default
// (spec §4.11: "stored config is discarded and defaults are returned").
func Load(st *store.Store) (RAGConfig, error) {
	raw, err := st.GetMeta(metaConfigKey)
	if errors.Is(err, store.ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return RAGConfig{}, err
	}
	var cfg RAGConfig
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil || cfg.SchemaVersion != SchemaVersion {
		return Default(), nil
	}
	return cfg, nil
}

// Save persists cfg into st, stamping the current schema version.
func Save(st *store.Store, cfg RAGConfig) error {
	cfg.SchemaVersion = SchemaVersion
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return st.SetMeta(metaConfigKey, string(data))
}

// Export serializes cfg to its YAML representation for external round-trip.
func Export(cfg RAGConfig) ([]byte, error) {
	cfg.SchemaVersion = SchemaVersion
	return yaml.Marshal(cfg)
}

// Import parses a previously Exported document back into a RAGConfig. The
// roundtrip spec §4.11 requires is Import(Export(cfg)) == cfg.
func Import(data []byte) (RAGConfig, error) {
	var cfg RAGConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RAGConfig{}, err
	}
	return cfg, nil
}

// FileDiscoveryPaths returns the teacher's LoadDefault discovery chain:
// ./config.yaml, then ~/.config/ragengine/config.yaml.
func FileDiscoveryPaths() []string {
	paths := []string{"config.yaml"}
	home, err := os.UserHomeDir()
	if err != nil {
		return paths
	}
	return append(paths, filepath.Join(home, ".config", "ragengine", "config.yaml"))
}

// LoadFromFile reads a YAML RAGConfig from the first existing path in
// FileDiscoveryPaths. If none exist, it writes the balanced default to the
// last (user-home) path and returns it, mirroring the teacher's
// LoadDefault (kxddry's internal/config.LoadDefault).
func LoadFromFile() (RAGConfig, string, error) {
	paths := FileDiscoveryPaths()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return RAGConfig{}, "", err
		}
		cfg, err := Import(data)
		if err != nil {
			return RAGConfig{}, "", err
		}
		return cfg, p, nil
	}
	cfg := Default()
	fallback := paths[len(paths)-1]
	if err := SaveToFile(fallback, cfg); err != nil {
		return RAGConfig{}, "", err
	}
	return cfg, fallback, nil
}

// SaveToFile writes cfg as YAML to path, creating parent directories.
func SaveToFile(path string, cfg RAGConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := Export(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
