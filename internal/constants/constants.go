// Package constants defines shared configuration constants.
package constants

var (
	// EnvProfile selects the profiling mode of instrumented programs.
	EnvProfile = "EOS_PROFILE"

	// EnvConfig overrides the location of the eos-profile configuration file.
	EnvConfig = "EOS_PROFILE_CONFIG"

	// CaptureDirName is the directory under the user cache dir holding
	// captures written without an explicit path.
	CaptureDirName = "com.endlessm.Sdk.Profile"

	// CaptureExt is the extension of capture files.
	CaptureExt = ".db"

	ConfigDir = "eos-profile"

	ConfigFile = "config.yaml"

	// Component is the zerolog component name used by the SDK.
	Component = "eosprofile"
)
