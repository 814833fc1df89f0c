// Package config loads archmap configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the project root.
const DefaultFileName = "archmap.yaml"

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config controls indexing behavior. All inputs are static per invocation.
type Config struct {
	// IndexFile is the persisted artifact name, relative to the root.
	IndexFile string `yaml:"index_file"`

	// MaxTreeDepth caps the rendered directory tree.
	MaxTreeDepth int `yaml:"max_tree_depth"`

	// MaxIndexBytes caps the serialized index; exceeding it triggers the
	// ordered degradation policy.
	MaxIndexBytes int `yaml:"max_index_bytes"`

	// TreeKeep is how many tree entries survive degradation step one.
	TreeKeep int `yaml:"tree_keep"`

	// MaxFiles stops the walk once this many files are tracked.
	MaxFiles int `yaml:"max_files"`

	// MaxFileBytes degrades larger files to listed-only.
	MaxFileBytes int64 `yaml:"max_file_bytes"`

	// IgnorePatterns are extra gitignore-style rules beyond the built-in
	// exclusion set and any .gitignore at the root.
	IgnorePatterns []string `yaml:"ignore_patterns"`

	// UpdateTimeout bounds one incremental update invocation.
	UpdateTimeout Duration `yaml:"update_timeout"`

	// StalenessTimeout bounds one staleness check invocation.
	StalenessTimeout Duration `yaml:"staleness_timeout"`

	// StalenessThreshold is how many divergent paths are tolerated before
	// a rebuild is recommended.
	StalenessThreshold int `yaml:"staleness_threshold"`

	// MaxIndexAge marks the index stale regardless of divergence.
	MaxIndexAge Duration `yaml:"max_index_age"`

	// WatchDebounce coalesces rapid file events in watch mode.
	WatchDebounce Duration `yaml:"watch_debounce"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		IndexFile:          "PROJECT_INDEX.json",
		MaxTreeDepth:       5,
		MaxIndexBytes:      1 << 20,
		TreeKeep:           200,
		MaxFiles:           10000,
		MaxFileBytes:       1 << 20,
		UpdateTimeout:      Duration(10 * time.Second),
		StalenessTimeout:   Duration(10 * time.Second),
		StalenessThreshold: 0,
		MaxIndexAge:        Duration(168 * time.Hour),
		WatchDebounce:      Duration(500 * time.Millisecond),
	}
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. Values present in the file replace the defaults.
func Load(path string) (*Config, error) {
	defaults := Default()

	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	defaults.Merge(&fileCfg)
	return defaults, nil
}

// LoadFromDir loads configuration from the config file in dir.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, DefaultFileName))
}

// Merge overlays other onto c, with non-zero values in other taking
// precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.IndexFile != "" {
		c.IndexFile = other.IndexFile
	}
	if other.MaxTreeDepth > 0 {
		c.MaxTreeDepth = other.MaxTreeDepth
	}
	if other.MaxIndexBytes > 0 {
		c.MaxIndexBytes = other.MaxIndexBytes
	}
	if other.TreeKeep > 0 {
		c.TreeKeep = other.TreeKeep
	}
	if other.MaxFiles > 0 {
		c.MaxFiles = other.MaxFiles
	}
	if other.MaxFileBytes > 0 {
		c.MaxFileBytes = other.MaxFileBytes
	}
	if len(other.IgnorePatterns) > 0 {
		c.IgnorePatterns = other.IgnorePatterns
	}
	if other.UpdateTimeout > 0 {
		c.UpdateTimeout = other.UpdateTimeout
	}
	if other.StalenessTimeout > 0 {
		c.StalenessTimeout = other.StalenessTimeout
	}
	if other.StalenessThreshold > 0 {
		c.StalenessThreshold = other.StalenessThreshold
	}
	if other.MaxIndexAge > 0 {
		c.MaxIndexAge = other.MaxIndexAge
	}
	if other.WatchDebounce > 0 {
		c.WatchDebounce = other.WatchDebounce
	}
}
