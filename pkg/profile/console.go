package profile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/coral-mesh/eosprofile/internal/constants"
	"github.com/coral-mesh/eosprofile/internal/stats"
)

func terminalColumns() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if width, _, err := term.GetSize(fd); err == nil && width > 0 {
			return width
		}
	}
	return constants.DefaultColumns
}

// summaryMessage renders the one-line summary printed next to a probe name.
func summaryMessage(sum stats.Summary) string {
	switch {
	case sum.HasDistribution():
		avg, avgUnit := stats.Scale(sum.Average)
		lo, loUnit := stats.ScaleInt(sum.Min)
		hi, hiUnit := stats.ScaleInt(sum.Max)

		msg := fmt.Sprintf("%d samples: avg:%.6g %s, min:%d %s, max:%d %s",
			sum.Count, avg, avgUnit, lo, loUnit, hi, hiUnit)
		if sum.Sigma != 0 {
			msg += fmt.Sprintf(", σ:%.6g", sum.Sigma)
		}
		return msg
	case sum.Count == 1:
		total, unit := stats.ScaleInt(sum.Total)
		return fmt.Sprintf("total time:%d %s", total, unit)
	default:
		return "not enough valid samples found"
	}
}

// alignLine right-aligns msg to cols display cells after name. Names that do
// not fit are cut short and end with '~'.
func alignLine(name, msg string, cols int) string {
	msgWidth := runewidth.StringWidth(msg)
	nameWidth := runewidth.StringWidth(name)

	if nameWidth+msgWidth >= cols-2 {
		limit := max(cols-msgWidth-1, 2)
		name = runewidth.Truncate(name, limit, "~")
		nameWidth = runewidth.StringWidth(name)
	}

	pad := max(cols-nameWidth-msgWidth, 1)
	return name + strings.Repeat(" ", pad) + msg
}

func writeSummary(w io.Writer, records []Record, cols int) error {
	var sb strings.Builder
	for _, rec := range records {
		sb.WriteString(alignLine(rec.Name, summaryMessage(stats.Summarize(rec.Samples)), cols))
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, "  %s at %s:%d\n\n", rec.Function, rec.File, rec.Line)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func (r *Registry) writeConsole(records []Record) error {
	if err := writeSummary(r.out, records, r.columns()); err != nil {
		return fmt.Errorf("failed to write profiling summary: %w", err)
	}
	return nil
}
