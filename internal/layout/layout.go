// Package layout reconstructs reading-order text from positioned page runs.
package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"contest-translator/internal/document"
)

// YTolerance is the max Y distance (in page coordinate units) between two
// runs that still count as the same line.
const YTolerance = 5.0

type line struct {
	// y is the Y of the first run assigned to the line. Later runs within
	// tolerance do not move it; lines are never re-centered after a merge.
	y    float64
	runs []document.TextRun
}

// ReconstructPage converts one page's positioned runs into reading-order
// text: lines top-to-bottom (descending Y), runs left-to-right within a
// line, runs joined by a single space, one trailing newline per line.
// A page with no runs yields the empty string.
func ReconstructPage(runs []document.TextRun) string {
	var lines []line
	for _, r := range runs {
		placed := false
		for i := range lines {
			if math.Abs(lines[i].y-r.Y) < YTolerance {
				lines[i].runs = append(lines[i].runs, r)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, line{y: r.Y, runs: []document.TextRun{r}})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].y > lines[j].y
	})

	var sb strings.Builder
	for _, ln := range lines {
		sort.SliceStable(ln.runs, func(i, j int) bool {
			return ln.runs[i].X < ln.runs[j].X
		})
		for i, r := range ln.runs {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(r.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatPage wraps a page's reconstructed text with its page delimiter
// header and the trailing blank line separating it from the next page.
func FormatPage(pageNum int, pageText string) string {
	return fmt.Sprintf("--- Page %d ---\n%s\n\n", pageNum, pageText)
}
