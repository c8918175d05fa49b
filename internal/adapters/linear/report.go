package linear

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/ui/output"
	"go.trai.ch/bake/internal/ui/style"
)

// FormatReport renders the end-of-run summary. err is the error the run returned.
func FormatReport(rep *domain.RunReport, err error) string {
	var b strings.Builder
	built := len(rep.Dispatched)
	elapsed := rep.Elapsed.Round(time.Millisecond)

	switch {
	case errors.Is(err, domain.ErrInterrupted):
		fmt.Fprintf(&b, "interrupted after building %d of %d target(s) in %v\n", built, rep.Total, elapsed)
	case rep.Failed != "":
		fmt.Fprintf(&b, "failed building %s after building %d of %d target(s) in %v\n", rep.Failed, built, rep.Total, elapsed)
	case err != nil:
		fmt.Fprintf(&b, "stopped after building %d of %d target(s) in %v\n", built, rep.Total, elapsed)
	case rep.DryRun:
		fmt.Fprintf(&b, "%d of %d target(s) would be built, %d up to date\n", built, rep.Total, rep.UpToDate)
		for _, name := range rep.Dispatched {
			fmt.Fprintf(&b, "  %s %s\n", style.Tilde, name)
		}
	case built == 0:
		fmt.Fprintf(&b, "all %d target(s) up to date (%v)\n", rep.Total, elapsed)
	default:
		fmt.Fprintf(&b, "built %d of %d target(s), %d up to date in %v\n", built, rep.Total, rep.UpToDate, elapsed)
	}

	for _, w := range rep.Warnings {
		fmt.Fprintf(&b, "%s warning: %s\n", style.Warning, w)
	}
	return b.String()
}

// PrintReport writes the summary to w, coloured by outcome.
func PrintReport(w io.Writer, rep *domain.RunReport, err error) {
	out := output.New(w)
	color := termenv.ANSIGreen
	if err != nil {
		color = termenv.ANSIRed
	}

	lines := strings.SplitAfter(FormatReport(rep, err), "\n")
	for i, line := range lines {
		if i == 0 {
			line = out.String(line).Foreground(color).String()
		}
		_, _ = out.WriteString(line)
	}
}
