package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// UseSummarization switches ancestor blocks to summaries when available.
	// Threaded explicitly into every assembly call; never ambient state.
	UseSummarization bool `json:"use_summarization,omitempty"`

	// QuoteBodyCap is the rune cap applied to a quoted ancestor's body at
	// the first level beyond direct parents when no summary exists yet.
	QuoteBodyCap int `json:"quote_body_cap,omitempty"`

	// DeepQuoteBodyCap is the rune cap for the same fallback at deeper
	// synthetic levels. Both caps are observed behavior carried as
	// configuration, not derived from a formula.
	DeepQuoteBodyCap int `json:"deep_quote_body_cap,omitempty"`

	// VirtualTopK caps virtual ancestors after lineage filtering.
	VirtualTopK int `json:"virtual_top_k,omitempty"`

	// SimilarityThreshold drops search candidates below this normalized score.
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// MaxTraversal is the hard iteration ceiling for graph walks. It is a
	// termination guarantee for malformed cyclic data, not a tuning knob.
	MaxTraversal int `json:"max_traversal,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		QuoteBodyCap:        500,
		DeepQuoteBodyCap:    300,
		VirtualTopK:         5,
		SimilarityThreshold: 0.25,
		MaxTraversal:        10000,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.trellis.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.trellis) and repo
// (.trellis) directories. Repo config is found by walking upward from
// startDir; it takes precedence for scalar values, arrays are merged.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest
// .trellis/config.json. Returns the path if found, or empty string if not.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".trellis", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.QuoteBodyCap = overlayInt(base.QuoteBodyCap, overlay.QuoteBodyCap)
	result.DeepQuoteBodyCap = overlayInt(base.DeepQuoteBodyCap, overlay.DeepQuoteBodyCap)
	result.VirtualTopK = overlayInt(base.VirtualTopK, overlay.VirtualTopK)
	result.MaxTraversal = overlayInt(base.MaxTraversal, overlay.MaxTraversal)
	result.DBMaxOpenConns = overlayInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = overlayInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns)

	result.SimilarityThreshold = overlay.SimilarityThreshold
	if result.SimilarityThreshold == 0 {
		result.SimilarityThreshold = base.SimilarityThreshold
	}

	// Booleans: overlay wins if true, else base
	result.UseSummarization = base.UseSummarization || overlay.UseSummarization

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func overlayInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
