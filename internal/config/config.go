// Package config loads and saves .keel/keel.json (§6). The loader
// generalizes the teacher's config.Load/LoadWithRoot pattern (defaults,
// merge with an optional base), but the wire format is the spec-mandated
// JSON document rather than the teacher's KDL, and unknown top-level
// keys MUST survive a load-then-save round trip.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/standardbeagle/keel/internal/errkit"
)

const (
	DataDirName   = ".keel"
	ConfigFile    = "keel.json"
	GraphDBFile   = "graph.db"
	SnapshotFile  = "violation_snapshot"
	CurrentSchema = "1"
)

// EnforceConfig toggles individual violation categories. All default to
// true for backward compatibility with a config file that predates a
// given flag.
type EnforceConfig struct {
	TypeHints      bool `json:"type_hints"`
	Docstrings     bool `json:"docstrings"`
	Placement      bool `json:"placement"`
	DuplicateNames bool `json:"duplicate_names"`
}

// CircuitBreakerConfig controls the three-strike downgrade in §4.6.
type CircuitBreakerConfig struct {
	MaxFailures int `json:"max_failures"`
}

// Config is the typed projection of keel.json. Extra top-level keys the
// current binary doesn't understand are preserved separately in raw and
// re-emitted verbatim by Save.
type Config struct {
	Version        string               `json:"version"`
	Languages      []string             `json:"languages"`
	Enforce        EnforceConfig        `json:"enforce"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
	BatchExpiryMin int                  `json:"batch_expiry_minutes"`

	raw  map[string]json.RawMessage `json:"-"`
	path string                     `json:"-"`
}

// Default returns the configuration written by `init` and used whenever
// no keel.json exists yet.
func Default() *Config {
	return &Config{
		Version:   CurrentSchema,
		Languages: []string{"go", "python", "javascript", "typescript", "rust", "java", "csharp", "php", "cpp", "zig"},
		Enforce: EnforceConfig{
			TypeHints:      true,
			Docstrings:     true,
			Placement:      true,
			DuplicateNames: true,
		},
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
		BatchExpiryMin: 10,
	}
}

// DataDir returns the .keel directory for a given project root.
func DataDir(projectRoot string) string {
	return filepath.Join(projectRoot, DataDirName)
}

// Load reads keel.json from the project's data directory. A missing
// file is not an error at this layer (init creates it); callers that
// require an initialized project check for it separately. A malformed
// file degrades to Default() with a ConfigParseFailureError the caller
// may log but must not treat as fatal (§7).
func Load(projectRoot string) (*Config, error) {
	path := filepath.Join(DataDir(projectRoot), ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = path
			return cfg, nil
		}
		return nil, &errkit.IoFailureError{Op: "read", Path: path, Underlying: err}
	}

	cfg, perr := parse(data)
	if perr != nil {
		fallback := Default()
		fallback.path = path
		return fallback, &errkit.ConfigParseFailureError{Path: path, Underlying: perr}
	}
	cfg.path = path
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	known := map[string]bool{
		"version": true, "languages": true, "enforce": true,
		"circuit_breaker": true, "batch_expiry_minutes": true,
	}
	unknown := make(map[string]json.RawMessage)
	for k, v := range raw {
		if !known[k] {
			unknown[k] = v
		}
	}
	cfg.raw = unknown
	return cfg, nil
}

// Save writes the config back to its keel.json path, re-emitting any
// unknown top-level keys that were present on load untouched.
func (c *Config) Save() error {
	if c.path == "" {
		return &errkit.IoFailureError{Op: "save", Path: "", Underlying: os.ErrInvalid}
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return &errkit.IoFailureError{Op: "mkdir", Path: filepath.Dir(c.path), Underlying: err}
	}

	merged := map[string]json.RawMessage{}
	for k, v := range c.raw {
		merged[k] = v
	}

	encode := func(v any) json.RawMessage {
		b, _ := json.Marshal(v)
		return b
	}
	merged["version"] = encode(c.Version)
	merged["languages"] = encode(c.Languages)
	merged["enforce"] = encode(c.Enforce)
	merged["circuit_breaker"] = encode(c.CircuitBreaker)
	merged["batch_expiry_minutes"] = encode(c.BatchExpiryMin)

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, out, 0o644); err != nil {
		return &errkit.IoFailureError{Op: "write", Path: c.path, Underlying: err}
	}
	return nil
}

// Init creates .keel/ and writes the default configuration. It returns
// an error (mapped by the CLI to exit code 2) if .keel/ already exists
// with a config file, since init is not a merge operation.
func Init(projectRoot string) (*Config, error) {
	dir := DataDir(projectRoot)
	path := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(path); err == nil {
		return nil, &errkit.IoFailureError{Op: "init", Path: path, Underlying: os.ErrExist, SetupLevel: true}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &errkit.IoFailureError{Op: "mkdir", Path: dir, Underlying: err, SetupLevel: true}
	}
	cfg := Default()
	cfg.path = path
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}
