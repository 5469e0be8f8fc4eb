package profile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/eosprofile/internal/capture"
	"github.com/coral-mesh/eosprofile/internal/constants"
	"github.com/coral-mesh/eosprofile/internal/safe"
)

// ErrDrained is returned by Dump once the registry has been drained.
var ErrDrained = errors.New("profile: registry already drained")

// Record is the state of one probe as handed out by Records.
type Record = capture.Record

// Options configures a Registry. Zero values select the defaults.
type Options struct {
	// Mode selects what happens to the samples.
	Mode Mode

	// CaptureFile is the capture destination in ModeCapture. Empty means
	// DefaultCapturePath.
	CaptureFile string

	// AppID identifies the application in captures. Defaults to the
	// program name.
	AppID string

	// Output receives the console summary (defaults to os.Stdout).
	Output io.Writer

	// ErrOutput receives drain errors (defaults to os.Stderr).
	ErrOutput io.Writer

	// Logger is the logger instance (optional, defaults to zerolog.Nop()).
	Logger zerolog.Logger

	// Columns returns the console width. Defaults to the width of the
	// terminal on stdout, or 256 columns.
	Columns func() int

	// Clock returns a monotonic time in microseconds. Defaults to the time
	// elapsed since the package was loaded.
	Clock func() int64
}

// Registry holds every probe of a profiling session.
type Registry struct {
	mode        Mode
	captureFile string
	appID       string
	out         io.Writer
	errOut      io.Writer
	logger      zerolog.Logger
	columns     func() int
	clock       func() int64

	startWall   time.Time
	windowStart int64

	mu      sync.Mutex
	probes  map[string]*Probe
	drained bool
}

var clockBase = time.Now()

func monotonicMicros() int64 {
	return time.Since(clockBase).Microseconds()
}

// New creates a registry. A registry in ModeDisabled hands out the no-op
// probe and never records anything.
func New(opts Options) *Registry {
	r := &Registry{
		mode:        opts.Mode,
		captureFile: opts.CaptureFile,
		appID:       opts.AppID,
		out:         opts.Output,
		errOut:      opts.ErrOutput,
		logger:      opts.Logger,
		columns:     opts.Columns,
		clock:       opts.Clock,
		startWall:   time.Now(),
	}

	if r.logger.GetLevel() == zerolog.Disabled {
		r.logger = zerolog.Nop()
	}
	r.logger = r.logger.With().Str("component", constants.Component).Logger()

	if r.mode == ModeDisabled {
		return r
	}

	if r.appID == "" {
		r.appID = programName()
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	if r.errOut == nil {
		r.errOut = os.Stderr
	}
	if r.columns == nil {
		r.columns = terminalColumns
	}
	if r.clock == nil {
		r.clock = monotonicMicros
	}
	if r.mode == ModeCapture && r.captureFile == "" {
		r.captureFile = DefaultCapturePath(programName(), os.Getpid())
	}

	r.probes = make(map[string]*Probe)
	r.windowStart = r.clock()

	r.logger.Debug().
		Str("mode", r.mode.String()).
		Str("capture_file", r.captureFile).
		Msg("Profiling enabled")

	return r
}

// NewFromEnv creates a registry whose mode and capture file come from the
// EOS_PROFILE environment variable. Mode and CaptureFile in opts are
// ignored.
func NewFromEnv(opts Options) *Registry {
	opts.Mode, opts.CaptureFile = ParseMode(os.Getenv(constants.EnvProfile))
	return New(opts)
}

// Enabled reports whether the registry records samples.
func (r *Registry) Enabled() bool {
	return r != nil && r.mode != ModeDisabled
}

// Mode returns the registry mode.
func (r *Registry) Mode() Mode {
	if r == nil {
		return ModeDisabled
	}
	return r.mode
}

// CaptureFile returns the capture destination, or "" outside capture mode.
func (r *Registry) CaptureFile() string {
	if r == nil || r.mode != ModeCapture {
		return ""
	}
	return r.captureFile
}

// Start starts the probe called name, recording the caller as its location.
func (r *Registry) Start(name string) *Probe {
	return r.startCaller(3, name)
}

// startCaller starts name with the location of the frame skip levels above
// the caller helper.
func (r *Registry) startCaller(skip int, name string) *Probe {
	if !r.Enabled() {
		return dummy
	}
	file, line, function := caller(skip)
	return r.StartAt(file, line, function, name)
}

// StartAt starts the probe called name. The location is only used when the
// probe is created.
func (r *Registry) StartAt(file string, line int, function, name string) *Probe {
	if !r.Enabled() {
		return dummy
	}

	now := r.clock()

	r.mu.Lock()
	if r.drained {
		r.mu.Unlock()
		return dummy
	}
	p, ok := r.probes[name]
	if !ok {
		p = &Probe{
			name:     name,
			file:     file,
			line:     line,
			function: function,
			clock:    r.clock,
		}
		r.probes[name] = p
	}
	r.mu.Unlock()

	p.begin(now)
	return p
}

func caller(skip int) (string, int, string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", 0, "unknown"
	}
	function := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
	}
	return file, line, function
}

func lineNumber(line int) uint32 {
	n, _ := safe.IntToUint32(line)
	return n
}

// Records returns a copy of every probe, sorted by name. Samples keep their
// insertion order; open samples have End set to stats.Open.
func (r *Registry) Records() []Record {
	if !r.Enabled() {
		return nil
	}

	r.mu.Lock()
	probes := make([]*Probe, 0, len(r.probes))
	for _, p := range r.probes {
		probes = append(probes, p)
	}
	r.mu.Unlock()

	records := make([]Record, 0, len(probes))
	for _, p := range probes {
		records = append(records, p.record(p.snapshot()))
	}
	sortRecords(records)
	return records
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})
}

// drain detaches every probe and its samples. It succeeds once.
func (r *Registry) drain() ([]Record, int64, error) {
	r.mu.Lock()
	if r.drained {
		r.mu.Unlock()
		return nil, 0, ErrDrained
	}
	r.drained = true
	probes := r.probes
	r.probes = nil
	window := r.clock() - r.windowStart
	r.mu.Unlock()

	records := make([]Record, 0, len(probes))
	for _, p := range probes {
		records = append(records, p.record(p.detach()))
	}
	sortRecords(records)
	return records, window, nil
}

// Dump drains the registry and reports its content: a console summary in
// ModeConsole, a capture file in ModeCapture. Only the first call does any
// work; later calls return ErrDrained. Failures are also written to the
// error output, prefixed with "PROFILE: ".
func (r *Registry) Dump() error {
	if !r.Enabled() {
		return nil
	}

	records, window, err := r.drain()
	if err != nil {
		return err
	}

	switch r.mode {
	case ModeConsole:
		err = r.writeConsole(records)
	case ModeCapture:
		err = r.writeCapture(records, window)
	}
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "PROFILE: %v\n", err)
		r.logger.Error().Err(err).Str("mode", r.mode.String()).Msg("Failed to dump profiling data")
		return err
	}

	r.logger.Debug().
		Int("probes", len(records)).
		Int64("profile_time_us", window).
		Msg("Profiling data dumped")
	return nil
}
