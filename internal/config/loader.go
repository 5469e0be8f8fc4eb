// Package config provides configuration loading for the eos-profile tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/eosprofile/internal/constants"
)

// Loader reads the configuration file.
type Loader struct {
	path string
}

// NewLoader creates a loader. The file is resolved in this order:
//  1. EOS_PROFILE_CONFIG environment variable.
//  2. <user config dir>/eos-profile/config.yaml.
//  3. eos-profile/config.yaml under the temporary directory, for
//     environments without a home directory. The file normally does not
//     exist there, so Load returns defaults with environment overrides.
func NewLoader() *Loader {
	if path := os.Getenv(constants.EnvConfig); path != "" {
		return &Loader{path: path}
	}

	if dir, err := os.UserConfigDir(); err == nil {
		return &Loader{path: filepath.Join(dir, constants.ConfigDir, constants.ConfigFile)}
	}

	return &Loader{path: filepath.Join(os.TempDir(), constants.ConfigDir, constants.ConfigFile)}
}

// NewLoaderWithPath creates a loader reading path.
func NewLoaderWithPath(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the configuration file on top of the defaults, then applies
// environment variable overrides and validates the result. A missing file
// yields the defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	//nolint:gosec // G304: Path is from the user's config directory.
	data, err := os.ReadFile(l.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", l.path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", l.path, err)
		}
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to the configuration file, creating its directory.
func (l *Loader) Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	//nolint:gosec // G301: Directory needs standard permissions for traversal
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(l.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
