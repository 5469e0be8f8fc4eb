// Package profile provides low-overhead timing probes for Go programs.
//
// A probe is a named timer. Starting a probe records an in-flight sample,
// stopping it closes the sample; probes are created on first use and live
// until the registry is drained. Probe names are '/'-separated paths, for
// example "/app/startup" or "/store/query".
//
// Profiling is controlled by the EOS_PROFILE environment variable:
//
//	unset or empty       profiling disabled, probes are no-ops
//	capture              samples are written to a capture file in the user
//	                     cache directory
//	capture:/some/path   samples are written to /some/path
//	anything else        a summary is printed to stdout at shutdown
//
// Basic usage with the process-wide registry:
//
//	import "github.com/coral-mesh/eosprofile/pkg/profile"
//
//	func main() {
//	    defer profile.Shutdown()
//
//	    p := profile.Start("/app/startup")
//	    loadEverything()
//	    p.Stop()
//	}
//
//	func handle() {
//	    defer profile.Start("/app/handle").Stop()
//	    // ...
//	}
//
// Programs that need several registries, or tests, can build one
// explicitly:
//
//	reg := profile.New(profile.Options{Mode: profile.ModeConsole})
//	p := reg.Start("/work")
//	work()
//	p.Stop()
//	_ = reg.Dump()
//
// When profiling is disabled, Start returns a shared no-op probe without
// locking or allocating.
//
// Re-entrant use of the same probe is resolved when it is stopped: the
// outermost open sample is closed and every open sample started after it is
// discarded. Mismatched start and stop calls therefore lose data instead of
// reporting skewed timings.
//
// Capture files are read back with the eos-profile tool (show, convert,
// diff, export).
package profile
