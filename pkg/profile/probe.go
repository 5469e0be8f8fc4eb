package profile

import (
	"sync"

	"github.com/coral-mesh/eosprofile/internal/stats"
)

type sampleState uint8

const (
	sampleOpen sampleState = iota
	sampleClosed
)

type sample struct {
	start int64
	end   int64
	state sampleState
}

// Probe is a named timer owned by a Registry. Handles stay valid for the
// life of the process; stopping a probe after its registry was drained is a
// no-op.
type Probe struct {
	name     string
	file     string
	line     int
	function string
	clock    func() int64

	mu      sync.Mutex
	samples []sample
}

// dummy is handed out whenever profiling is off.
var dummy = &Probe{name: "dummy"}

// Name returns the probe name.
func (p *Probe) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

func (p *Probe) begin(now int64) {
	p.mu.Lock()
	p.samples = append(p.samples, sample{start: now, state: sampleOpen})
	p.mu.Unlock()
}

// Stop closes the outermost sample of the trailing run of open samples and
// drops the open samples that follow it. Stopping a probe with no open
// sample does nothing.
func (p *Probe) Stop() {
	if p == nil || p == dummy {
		return
	}

	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	first := -1
	for i := len(p.samples) - 1; i >= 0 && p.samples[i].state == sampleOpen; i-- {
		first = i
	}
	if first < 0 {
		return
	}

	p.samples[first].end = now
	p.samples[first].state = sampleClosed
	p.samples = p.samples[:first+1]
}

// detach hands the samples over to the caller and leaves the probe empty.
func (p *Probe) detach() []sample {
	p.mu.Lock()
	defer p.mu.Unlock()

	samples := p.samples
	p.samples = nil
	return samples
}

// snapshot copies the samples without modifying the probe.
func (p *Probe) snapshot() []sample {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]sample, len(p.samples))
	copy(out, p.samples)
	return out
}

func (p *Probe) record(samples []sample) Record {
	rec := Record{
		Name:     p.name,
		Function: p.function,
		File:     p.file,
		Samples:  make([]stats.Sample, len(samples)),
	}
	rec.Line = lineNumber(p.line)

	for i, s := range samples {
		end := s.end
		if s.state == sampleOpen {
			end = stats.Open
		}
		rec.Samples[i] = stats.Sample{Start: s.start, End: end}
	}
	return rec
}
