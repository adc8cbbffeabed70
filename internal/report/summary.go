package report

import (
	"fmt"
	"io"
	"strings"
)

const rule = 60

// Failure names one item that did not complete and why.
type Failure struct {
	Volume  int
	Item    int
	ItemID  int64
	Message string
}

// VolumeSummary is the outcome of extracting one volume.
type VolumeSummary struct {
	Volume      int
	Pages       int
	Created     int
	Undecidable int
	Dropped     int
	Failed      []Failure
}

// TranslationSummary is the outcome of one translation run.
type TranslationSummary struct {
	Total     int
	Succeeded int
	Failed    []Failure
}

// Banner prints a title framed by horizontal rules.
func Banner(w io.Writer, title string) {
	line := strings.Repeat("=", rule)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n\n", line, title, line)
}

// PrintVolumeSummary writes the per-volume completion line plus any failures.
func PrintVolumeSummary(w io.Writer, s VolumeSummary) {
	fmt.Fprintf(w, "\nVolume %d complete: %d items processed (%d pages, %d undecidable pairs, %d failed)\n",
		s.Volume, s.Created, s.Pages, s.Undecidable, len(s.Failed))
	for _, f := range s.Failed {
		fmt.Fprintf(w, "  - Vol%d Item %d: %s\n", f.Volume, f.Item, f.Message)
	}
}

// PrintTranslationSummary writes the end-of-run tally and the failed items.
func PrintTranslationSummary(w io.Writer, s TranslationSummary) {
	Banner(w, "TRANSLATION SUMMARY")
	fmt.Fprintf(w, "Successful: %d\n", s.Succeeded)
	fmt.Fprintf(w, "Failed: %d\n", len(s.Failed))
	fmt.Fprintf(w, "Total: %d\n\n", s.Total)
	if len(s.Failed) == 0 {
		return
	}
	fmt.Fprintln(w, "Failed items:")
	for _, f := range s.Failed {
		fmt.Fprintf(w, "  - Vol%d Item %d: %s\n", f.Volume, f.Item, f.Message)
	}
}
