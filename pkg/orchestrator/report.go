package orchestrator

import (
	"fmt"
	"strings"
)

// ProgressLine formats one per-segment completion line, e.g.
//
//	[3/12] _hyper_1_3_chunk: 42 rows (1.2s)
//	[4/12] _hyper_1_4_chunk: FAILED after 0.3s: mutation failed: ...
func ProgressLine(completed, total int, res Result) string {
	name := res.Segment
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}

	if res.Failed() {
		return fmt.Sprintf("  [%d/%d] %s: FAILED after %.1fs: %v",
			completed, total, name, res.Duration.Seconds(), res.Err)
	}

	return fmt.Sprintf("  [%d/%d] %s: %d rows (%.1fs)",
		completed, total, name, res.Rows, res.Duration.Seconds())
}

// FormatSummary renders the end-of-run summary block.
func FormatSummary(s *Summary) string {
	var b strings.Builder

	b.WriteString("=== Summary ===\n")
	fmt.Fprintf(&b, "Segments processed: %d\n", s.SegmentsProcessed)
	fmt.Fprintf(&b, "Segments failed: %d\n", s.SegmentsFailed)
	fmt.Fprintf(&b, "Rows affected: %d\n", s.TotalRows)
	fmt.Fprintf(&b, "Total time: %.1fs\n", s.Elapsed.Seconds())

	return b.String()
}
