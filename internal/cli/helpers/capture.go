package helpers

import (
	"github.com/coral-mesh/eosprofile/internal/capture"
)

// LoadCapture opens a capture file with the configured read limits.
func (rt *Runtime) LoadCapture(path string) (*capture.File, error) {
	f, err := capture.Open(path, rt.ReadOptions())
	if err != nil {
		return nil, err
	}

	meta := f.Meta()
	rt.Logger.Debug().
		Str("file", path).
		Str("app_id", meta.AppID).
		Str("session_id", meta.SessionID).
		Int("probes", len(f.ProbeNames())).
		Msg("Capture loaded")

	return f, nil
}
