// Package document abstracts the PDF backends behind narrow interfaces.
// The rest of the application never touches raw PDF bytes directly: parsing
// and text runs go through Source, rasterization goes through Rasterizer.
package document

import "image"

// TextRun is a positioned piece of page text. Y increases upward and X
// increases rightward in the page coordinate space.
type TextRun struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Page is a single decoded page.
type Page interface {
	// TextRuns returns the page's positioned text runs in content-stream order.
	TextRuns() []TextRun
}

// Handle is a parsed document.
type Handle interface {
	PageCount() int
	// Page returns the n-th page (1-based). Pages that cannot be decoded
	// return a DECODE_FAILED error.
	Page(n int) (Page, error)
}

// Source parses raw PDF bytes into a Handle.
type Source interface {
	Parse(data []byte) (Handle, error)
}

// RenderJob rasterizes the pages of one prepared page range.
// Jobs are single-use and must be closed.
type RenderJob interface {
	// PageCount returns the number of pages in the prepared range.
	PageCount() int
	// RenderPage rasterizes the n-th page of the range (1-based) at the
	// given scale multiplier.
	RenderPage(n int, scale float64) (image.Image, error)
	Close() error
}

// Rasterizer prepares a page range of a document for rasterization.
type Rasterizer interface {
	// EnsureReady verifies the rendering backend is usable. It is idempotent
	// and safe to call concurrently; the probe runs once and its result is
	// cached.
	EnsureReady() error
	// Prepare trims the inclusive page range [start, end] out of the
	// document and returns a job that renders its pages.
	Prepare(data []byte, start, end int) (RenderJob, error)
}
