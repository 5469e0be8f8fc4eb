package config

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the eos-profile configuration file.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Output  OutputConfig  `yaml:"output"`
	Capture CaptureConfig `yaml:"capture"`
	Export  ExportConfig  `yaml:"export"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `yaml:"level" env:"EOS_PROFILE_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"EOS_PROFILE_PRETTY"`
}

// OutputConfig controls how commands render their results.
type OutputConfig struct {
	// Color is one of auto, always or never.
	Color string `yaml:"color" env:"EOS_PROFILE_COLOR"`
	// DiffFormat is the default format of the diff command (plain or json).
	DiffFormat string `yaml:"diff_format" env:"EOS_PROFILE_DIFF_FORMAT"`
}

// CaptureConfig controls how capture files are read.
type CaptureConfig struct {
	// MaxSize bounds the size of capture files, e.g. "256MiB".
	MaxSize ByteSize `yaml:"max_size" env:"EOS_PROFILE_MAX_CAPTURE_SIZE"`
	// AllowSymlinks permits reading captures through symbolic links.
	AllowSymlinks bool `yaml:"allow_symlinks" env:"EOS_PROFILE_ALLOW_SYMLINKS"`
}

// ExportConfig controls the DuckDB export.
type ExportConfig struct {
	// Database is the default DuckDB file of the export command.
	Database string `yaml:"database" env:"EOS_PROFILE_EXPORT_DB"`
}

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ByteSize is a size in bytes written in human form ("64MB", "1GiB", "4096").
type ByteSize int64

// UnmarshalText parses a human readable size.
func (s *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", text, err)
	}
	if n > 1<<62 {
		return fmt.Errorf("size %q is too large", text)
	}
	*s = ByteSize(n)
	return nil
}

// UnmarshalYAML accepts both plain integers and human readable sizes.
func (s *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	return s.UnmarshalText([]byte(node.Value))
}

// MarshalYAML writes the size in IEC units.
func (s ByteSize) MarshalYAML() (any, error) {
	return s.String(), nil
}

func (s ByteSize) String() string {
	if s < 0 {
		return fmt.Sprintf("%d", int64(s))
	}
	return humanize.IBytes(uint64(s))
}
