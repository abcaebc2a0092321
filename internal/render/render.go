// Package render produces cached, cancellable page previews for problem
// units.
//
// Every render call takes a monotonically increasing generation token at
// invocation. The token is re-checked after each suspension point (document
// parse, each page rasterization); a mismatch means a newer call owns the
// output container and the stale call abandons silently. Only the call
// holding the latest token ever commits visible output.
package render

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"contest-translator/internal/document"
	"contest-translator/internal/logger"
	"contest-translator/internal/types"
)

// Sink is the caller-owned output container a render call commits into.
type Sink interface {
	ShowLoading(unit types.ProblemUnit)
	ShowPages(unitID string, pages []image.Image)
	ShowError(unitID, message string)
}

type cacheEntry struct {
	key   string
	pages []image.Image
}

// Config carries the scale derivation parameters.
type Config struct {
	PixelRatio float64
	MinScale   float64
	MaxScale   float64
}

// Pipeline renders page previews with a per-unit artifact cache.
type Pipeline struct {
	source document.Source
	rast   document.Rasterizer
	log    logger.Logger
	cfg    Config

	lastToken atomic.Int64

	mu    sync.Mutex
	cache map[string]cacheEntry // unit id -> latest artifact
}

// NewPipeline creates a render pipeline.
func NewPipeline(source document.Source, rast document.Rasterizer, cfg Config, log logger.Logger) *Pipeline {
	return &Pipeline{
		source: source,
		rast:   rast,
		log:    log,
		cfg:    cfg,
		cache:  make(map[string]cacheEntry),
	}
}

// Scale derives the render scale from the display pixel ratio, clamped to
// the configured bounds.
func (p *Pipeline) Scale() float64 {
	s := p.cfg.PixelRatio * 1.5
	if s < p.cfg.MinScale {
		s = p.cfg.MinScale
	}
	if s > p.cfg.MaxScale {
		s = p.cfg.MaxScale
	}
	return s
}

// InvalidateAll drops every cached artifact. Called when the problem
// collection is replaced.
func (p *Pipeline) InvalidateAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]cacheEntry)
}

func cacheKey(unit types.ProblemUnit, scale float64) string {
	end := "end"
	if unit.PageEnd != nil {
		end = fmt.Sprintf("%d", *unit.PageEnd)
	}
	return fmt.Sprintf("%s-%d-%s-%g", unit.ID, unit.PageStart, end, scale)
}

func (p *Pipeline) cached(unitID, key string) ([]image.Image, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.cache[unitID]
	if !ok || entry.key != key {
		return nil, false
	}
	return entry.pages, true
}

func (p *Pipeline) storeArtifact(unitID, key string, pages []image.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[unitID] = cacheEntry{key: key, pages: pages}
}

// Render produces one page image per page of the unit's range and commits
// the artifact into sink. A cache hit short-circuits straight to display
// with no token bump and no rasterization. A superseded call returns nil
// without committing anything; a failed call shows an error artifact and
// caches nothing.
func (p *Pipeline) Render(unit types.ProblemUnit, sink Sink) error {
	scale := p.Scale()
	key := cacheKey(unit, scale)

	if pages, ok := p.cached(unit.ID, key); ok {
		p.log.Debug("preview cache hit", logger.String("unit", unit.ID))
		sink.ShowPages(unit.ID, pages)
		return nil
	}

	token := p.lastToken.Add(1)
	sink.ShowLoading(unit)

	handle, err := p.source.Parse(unit.Source.Data)
	if err != nil {
		sink.ShowError(unit.ID, "无法渲染预览")
		return types.NewAppError(types.ErrRender, "无法渲染 PDF: "+unit.DisplayName, err)
	}
	if p.superseded(token, unit.ID) {
		return nil
	}

	end := unit.ResolveEnd(handle.PageCount())
	if unit.PageStart < 1 || end > handle.PageCount() || end < unit.PageStart {
		sink.ShowError(unit.ID, "无法渲染预览")
		return types.NewAppError(types.ErrRender,
			fmt.Sprintf("页码范围无效: %s", types.PageLabel(unit.PageStart, unit.PageEnd)), nil)
	}

	job, err := p.rast.Prepare(unit.Source.Data, unit.PageStart, end)
	if err != nil {
		sink.ShowError(unit.ID, "无法渲染预览")
		return types.NewAppError(types.ErrRender, "无法渲染 PDF: "+unit.DisplayName, err)
	}
	defer job.Close()

	pages := make([]image.Image, 0, job.PageCount())
	for i := 1; i <= job.PageCount(); i++ {
		img, err := job.RenderPage(i, scale)
		if err != nil {
			sink.ShowError(unit.ID, "无法渲染预览")
			return types.NewAppError(types.ErrRender, "无法渲染 PDF: "+unit.DisplayName, err)
		}
		if p.superseded(token, unit.ID) {
			return nil
		}
		pages = append(pages, img)
	}

	p.storeArtifact(unit.ID, key, pages)
	sink.ShowPages(unit.ID, pages)
	return nil
}

func (p *Pipeline) superseded(token int64, unitID string) bool {
	if token == p.lastToken.Load() {
		return false
	}
	p.log.Debug("render superseded", logger.String("unit", unitID),
		logger.Int64("token", token))
	return true
}
