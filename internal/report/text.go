package report

import (
	"fmt"
	"io"
	"time"

	"github.com/granule-data/maskfill/internal/maskfill"
)

// WriteText renders the run summary for terminal users, one line per
// file plus a closing tally.
func WriteText(w io.Writer, outcomes []maskfill.Outcome) {
	fmt.Fprintln(w, "=== Mask Fill Results ===")
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "✗ %s: %v\n", o.Input, o.Err)
			continue
		}
		notes := fmt.Sprintf("coverage %.1f%%", o.Coverage*100)
		if o.CacheHit {
			notes += ", cache hit"
		}
		notes += fmt.Sprintf(", %s", o.Duration.Round(time.Millisecond))
		if o.Output == "" {
			fmt.Fprintf(w, "✓ %s: mask grid cached (%s)\n", o.Input, notes)
			continue
		}
		if o.Coverage == 0 {
			notes += "; output is all fill"
		}
		fmt.Fprintf(w, "✓ %s: wrote %s (%s)\n", o.Input, o.Output, notes)
	}

	failed := maskfill.Failed(outcomes)
	if failed == 0 {
		fmt.Fprintf(w, "\n✓ %d file(s) processed successfully\n", len(outcomes))
	} else {
		fmt.Fprintf(w, "\n⚠️  %d of %d file(s) failed\n", failed, len(outcomes))
	}
}
