package helpers

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/coral-mesh/eosprofile/internal/config"
)

// Printer writes the tool's prefixed messages. Messages go to out, warnings
// and errors to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer

	info    lipgloss.Style
	probe   lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
}

// NewPrinter creates a printer. color is one of the config color modes;
// auto colors only when the writer is a terminal.
func NewPrinter(out, errOut io.Writer, color string) *Printer {
	return &Printer{
		out:     out,
		errOut:  errOut,
		info:    prefixStyle(out, color, "4"),
		probe:   prefixStyle(out, color, "2"),
		warning: prefixStyle(errOut, color, "3"),
		failure: prefixStyle(errOut, color, "1"),
	}
}

func prefixStyle(w io.Writer, color, ansi string) lipgloss.Style {
	r := lipgloss.NewRenderer(w)
	switch color {
	case config.ColorAlways:
		r.SetColorProfile(termenv.ANSI)
	case config.ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}
	return r.NewStyle().Bold(true).Foreground(lipgloss.Color(ansi))
}

func (p *Printer) prefixed(w io.Writer, style lipgloss.Style, prefix, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "%s: %s\n", style.Render(prefix), fmt.Sprintf(format, args...))
}

// Info prints an INFO line.
func (p *Printer) Info(format string, args ...any) {
	p.prefixed(p.out, p.info, "INFO", format, args...)
}

// Probe prints a PROBE line naming a probe.
func (p *Printer) Probe(name string) {
	p.prefixed(p.out, p.probe, "PROBE", "%s", name)
}

// Plain prints an unprefixed line.
func (p *Printer) Plain(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Warning prints a WARNING line on the error stream.
func (p *Printer) Warning(format string, args ...any) {
	p.prefixed(p.errOut, p.warning, "WARNING", format, args...)
}

// Error prints an ERROR line on the error stream.
func (p *Printer) Error(format string, args ...any) {
	p.prefixed(p.errOut, p.failure, "ERROR", format, args...)
}
