package devtools

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration for a devtools Recorder and its
// optional SQLite persistence, loaded from a YAML file.
type Config struct {
	// MaxEvents bounds the in-memory recorder's circular buffer.
	MaxEvents int `yaml:"max_events"`

	// SQLitePath, if non-empty, enables historical persistence to this
	// database file.
	SQLitePath string `yaml:"sqlite_path"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{MaxEvents: 1000}
}

// LoadConfig reads and parses a YAML config file at path.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
