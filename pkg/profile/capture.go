package profile

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/coral-mesh/eosprofile/internal/capture"
)

// processStartTime returns the wall clock start of the current process in
// unix seconds, as seen by the OS.
func processStartTime(fallback time.Time) int64 {
	proc, err := process.NewProcess(int32(os.Getpid())) // #nosec G115 - pids fit in int32.
	if err != nil {
		return fallback.Unix()
	}
	created, err := proc.CreateTime()
	if err != nil || created <= 0 {
		return fallback.Unix()
	}
	return time.UnixMilli(created).Unix()
}

func (r *Registry) writeCapture(records []Record, window int64) error {
	meta := capture.Meta{
		AppID:       r.appID,
		StartTime:   processStartTime(r.startWall),
		ProfileTime: window,
		SessionID:   uuid.NewString(),
	}

	if err := capture.Write(r.captureFile, meta, records); err != nil {
		return err
	}

	r.logger.Info().
		Str("file", r.captureFile).
		Str("session_id", meta.SessionID).
		Msg("Profiling capture written")
	return nil
}
