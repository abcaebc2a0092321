// Package segment proposes problem boundaries for multi-page contest PDFs.
package segment

import (
	"regexp"
	"strings"

	"contest-translator/internal/document"
	"contest-translator/internal/logger"
	"contest-translator/internal/types"
)

// headingPattern matches a problem heading: the word "Problem" or "Task"
// followed by a capital identifier, or a capital letter followed by a period.
var headingPattern = regexp.MustCompile(`(?i)(?:Problem|Task)\s+[A-Z]|\b[A-Z]\.\s+`)

// snippetRuns is how many leading non-blank runs of a page are examined for
// a heading.
const snippetRuns = 5

// Analyzer scans a document for problem headings.
type Analyzer struct {
	log logger.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(log logger.Logger) *Analyzer {
	return &Analyzer{log: log}
}

// Analyze partitions [1, pageCount] into contiguous segments, opening a new
// segment at every page (from page 2 on) whose leading text matches the
// heading pattern. The result always covers the whole document with no gaps
// or overlaps; a document with no detected headings yields one segment.
//
// If any page cannot be decoded the whole analysis fails; a partial
// segmentation is never returned. The result is advisory: the caller decides
// whether to apply the split.
func (a *Analyzer) Analyze(h document.Handle) ([]types.SegmentBoundary, error) {
	totalPages := h.PageCount()
	var segments []types.SegmentBoundary
	currentStart := 1

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page, err := h.Page(pageNum)
		if err != nil {
			a.log.Warn("segmentation aborted, page unreadable",
				logger.Int("page", pageNum), logger.Err(err))
			return nil, types.NewAppErrorWithPage(types.ErrDecode,
				"文档分析失败", pageNum, err)
		}
		if pageNum > 1 && headingPattern.MatchString(leadingSnippet(page.TextRuns())) {
			segments = append(segments, types.SegmentBoundary{Start: currentStart, End: pageNum - 1})
			currentStart = pageNum
		}
	}
	segments = append(segments, types.SegmentBoundary{Start: currentStart, End: totalPages})

	a.log.Debug("segmentation complete",
		logger.Int("pages", totalPages), logger.Int("segments", len(segments)))
	return segments, nil
}

// leadingSnippet joins the first few non-blank run texts of a page.
func leadingSnippet(runs []document.TextRun) string {
	parts := make([]string, 0, snippetRuns)
	for _, r := range runs {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		parts = append(parts, r.Text)
		if len(parts) == snippetRuns {
			break
		}
	}
	return strings.Join(parts, " ")
}
