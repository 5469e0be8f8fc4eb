package profile

import (
	"sync"
)

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewFromEnv(Options{})
})

// Default returns the process-wide registry, configured from EOS_PROFILE on
// first use.
func Default() *Registry {
	return defaultRegistry()
}

// Start starts the probe called name on the process-wide registry.
func Start(name string) *Probe {
	return Default().startCaller(3, name)
}

// StartAt starts the probe called name on the process-wide registry with an
// explicit location.
func StartAt(file string, line int, function, name string) *Probe {
	return Default().StartAt(file, line, function, name)
}

// Shutdown drains the process-wide registry. Call it once before the
// program exits.
func Shutdown() error {
	return Default().Dump()
}
