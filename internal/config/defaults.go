package config

import (
	"github.com/coral-mesh/eosprofile/internal/constants"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  constants.DefaultLogLevel,
			Pretty: true,
		},
		Output: OutputConfig{
			Color:      ColorAuto,
			DiffFormat: constants.DefaultDiffFormat,
		},
		Capture: CaptureConfig{
			MaxSize: ByteSize(constants.DefaultMaxCaptureSize),
		},
	}
}
