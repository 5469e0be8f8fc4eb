// Package constants defines shared configuration constants and defaults.
package constants

// Output defaults.
const (
	// DefaultColumns is the console width used when stdout is not a terminal.
	DefaultColumns = 256

	// DefaultDiffFormat is the output format of eos-profile diff.
	DefaultDiffFormat = "plain"

	// DefaultConvertFormat is the output format of eos-profile convert.
	DefaultConvertFormat = "json"

	DefaultLogLevel = "warn"
)

// File permissions.
const (
	// CaptureDirPerm is the mode of the default capture directory.
	CaptureDirPerm = 0o700

	// OutputFilePerm is the mode of files written by the CLI.
	OutputFilePerm = 0o644
)

// DefaultMaxCaptureSize bounds the size of capture files read by the CLI.
const DefaultMaxCaptureSize int64 = 256 << 20
