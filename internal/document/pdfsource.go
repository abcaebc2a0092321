package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"contest-translator/internal/types"
)

// PDFSource parses PDFs with the pure-Go ledongthuc/pdf reader.
type PDFSource struct{}

// NewPDFSource creates a PDF document source.
func NewPDFSource() *PDFSource {
	return &PDFSource{}
}

// Parse opens the document from memory. Encrypted or malformed documents
// fail with PARSE_FAILED.
func (s *PDFSource) Parse(data []byte) (Handle, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, types.NewAppError(types.ErrParse, "无法打开 PDF 文件", err)
	}
	return &pdfHandle{reader: r}, nil
}

type pdfHandle struct {
	reader *pdf.Reader
}

func (h *pdfHandle) PageCount() int {
	return h.reader.NumPage()
}

func (h *pdfHandle) Page(n int) (Page, error) {
	if n < 1 || n > h.reader.NumPage() {
		return nil, types.NewAppErrorWithPage(types.ErrDecode,
			fmt.Sprintf("页码 %d 超出文档范围 (1-%d)", n, h.reader.NumPage()), n, nil)
	}
	p := h.reader.Page(n)
	if p.V.IsNull() {
		return nil, types.NewAppErrorWithPage(types.ErrDecode,
			fmt.Sprintf("无法读取第 %d 页", n), n, nil)
	}
	return &pdfPage{page: p}, nil
}

type pdfPage struct {
	page pdf.Page
}

// TextRuns decodes the page content stream into positioned word-level runs.
func (p *pdfPage) TextRuns() (runs []TextRun) {
	// The underlying decoder panics on some malformed content streams;
	// surface those pages as empty rather than crashing the caller.
	defer func() {
		if r := recover(); r != nil {
			runs = nil
		}
	}()
	return mergeGlyphs(p.page.Content().Text)
}

// mergeGlyphs joins the glyph-level entries the decoder emits into
// word-level runs. Glyphs continue the current run while they stay on the
// same baseline and advance without a visible horizontal gap.
func mergeGlyphs(glyphs []pdf.Text) []TextRun {
	var runs []TextRun
	var sb strings.Builder
	var start pdf.Text
	var prev pdf.Text

	flush := func() {
		text := strings.TrimSpace(sb.String())
		sb.Reset()
		if text != "" {
			runs = append(runs, TextRun{Text: text, X: start.X, Y: start.Y})
		}
	}

	for i, g := range glyphs {
		if i == 0 {
			start, prev = g, g
			sb.WriteString(g.S)
			continue
		}
		gap := g.X - (prev.X + prev.W)
		threshold := prev.FontSize
		if threshold <= 0 {
			threshold = 10
		}
		if g.Y == prev.Y && g.X >= prev.X && gap < threshold {
			if gap > threshold*0.2 && !strings.HasSuffix(sb.String(), " ") {
				sb.WriteString(" ")
			}
			sb.WriteString(g.S)
			prev = g
			continue
		}
		flush()
		start, prev = g, g
		sb.WriteString(g.S)
	}
	flush()
	return runs
}
