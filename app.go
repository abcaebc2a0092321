package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"contest-translator/internal/archive"
	"contest-translator/internal/config"
	"contest-translator/internal/document"
	"contest-translator/internal/layout"
	"contest-translator/internal/logger"
	"contest-translator/internal/problem"
	"contest-translator/internal/render"
	"contest-translator/internal/segment"
	"contest-translator/internal/translator"
	"contest-translator/internal/types"
)

// Event names for frontend communication
const (
	EventNotification    = "notification"
	EventProblemsUpdated = "problems-updated"
	EventPreviewLoading  = "preview-loading"
	EventPreviewReady    = "preview-ready"
	EventPreviewError    = "preview-error"
)

// UploadResult is returned by the upload operations.
type UploadResult struct {
	Problems       []types.ProblemUnit `json:"problems"`
	ContestName    string              `json:"contest_name"`
	SplitAvailable bool                `json:"split_available"`
	SegmentCount   int                 `json:"segment_count"`
}

// pendingSplit holds an advisory segmentation proposal until the caller
// confirms or discards it by uploading something else.
type pendingSplit struct {
	source   *types.DocumentRef
	segments []types.SegmentBoundary
}

// App is the main application controller. It wires the document/archive
// collaborators, the problem store, the render pipeline, and the
// translation engine, and exposes the bound operations the presentation
// layer consumes.
type App struct {
	ctx      context.Context
	log      logger.Logger
	config   *config.Manager
	store    *problem.Store
	builder  *problem.Builder
	docs     document.Source
	archives archive.Source
	analyzer *segment.Analyzer
	pipeline *render.Pipeline
	engine   *translator.Engine

	mu      sync.Mutex
	pending *pendingSplit

	// isWailsRuntime indicates whether the app runs inside a Wails
	// environment; event emission is skipped otherwise (tests, CLI mode).
	isWailsRuntime bool
}

// NewApp creates an App with its dependencies unwired; startup completes
// initialization.
func NewApp() *App {
	return &App{}
}

// SetWailsRuntime sets the Wails runtime flag. Called from main.go when the
// app is started in GUI mode.
func (a *App) SetWailsRuntime(isWails bool) {
	a.isWailsRuntime = isWails
}

// startup is called when the app starts. It constructs the logger, loads
// configuration, and wires all services.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	if a.log == nil {
		log, err := logger.New(logger.DefaultConfig())
		if err != nil {
			log2 := logger.NewNop()
			a.log = log2
		} else {
			a.log = log
		}
	}
	a.log.Info("application starting up")

	if a.config == nil {
		mgr, err := config.NewManager("", a.log)
		if err != nil {
			a.log.Error("failed to create config manager", err)
			return
		}
		a.config = mgr
	}
	if err := a.config.Load(); err != nil {
		a.log.Warn("failed to load config, using defaults", logger.Err(err))
	}
	cfg := a.config.Get()

	a.docs = document.NewPDFSource()
	a.archives = archive.NewZipSource()
	a.analyzer = segment.NewAnalyzer(a.log)
	a.store = problem.NewStore()
	a.pipeline = render.NewPipeline(a.docs, document.NewPopplerRasterizer(a.log), render.Config{
		PixelRatio: cfg.PixelRatio,
		MinScale:   cfg.MinRenderScale,
		MaxScale:   cfg.MaxRenderScale,
	}, a.log)
	a.builder = problem.NewBuilder(a.store, a.log, a.pipeline)
	a.engine = translator.NewEngine(cfg.APIKey, cfg.Model, cfg.BaseURL, a.log)

	a.log.Info("application ready")
}

// shutdown is called on app teardown.
func (a *App) shutdown(ctx context.Context) {
	if a.log != nil {
		a.log.Info("application shutting down")
		a.log.Close()
	}
}

// safeEmit emits an event to the frontend only when running under Wails.
func (a *App) safeEmit(eventName string, data ...interface{}) {
	if !a.isWailsRuntime {
		return
	}
	runtime.EventsEmit(a.ctx, eventName, data...)
}

// notify reports a user-visible notification. Display is the presentation
// layer's concern; the core only emits the record.
func (a *App) notify(kind types.NotificationType, message string) {
	a.log.Info("notify", logger.String("type", string(kind)), logger.String("message", message))
	a.safeEmit(EventNotification, types.Notification{Type: kind, Message: message})
}

func (a *App) emitProblems() {
	a.safeEmit(EventProblemsUpdated, a.store.Units())
}

// UploadSingleFile ingests one PDF. The whole document becomes a single
// problem unit; if the document is long enough, a segmentation pass proposes
// a contest-mode split that the caller may apply with ConfirmSplit.
func (a *App) UploadSingleFile(path string) (*UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		a.notify(types.NotifyError, "无法读取 PDF 文件")
		return nil, types.NewAppError(types.ErrParse, "无法读取 PDF 文件", err)
	}
	handle, err := a.docs.Parse(data)
	if err != nil {
		a.notify(types.NotifyError, "无法读取 PDF 文件")
		return nil, err
	}

	src := &types.DocumentRef{Name: filepath.Base(path), Data: data}

	var segments []types.SegmentBoundary
	if handle.PageCount() > a.config.Get().SplitPromptThreshold {
		segments, err = a.analyzer.Analyze(handle)
		if err != nil {
			// Segmentation is advisory; fall back to single-unit treatment.
			a.log.Warn("segmentation unavailable", logger.Err(err))
			segments = nil
		}
	}

	a.mu.Lock()
	if len(segments) > 1 {
		a.pending = &pendingSplit{source: src, segments: segments}
	} else {
		a.pending = nil
	}
	a.mu.Unlock()

	a.builder.BuildSingle(src, handle.PageCount())
	a.notify(types.NotifySuccess, "文件上传成功")
	a.emitProblems()

	return &UploadResult{
		Problems:       a.store.Units(),
		ContestName:    a.store.ContestName(),
		SplitAvailable: len(segments) > 1,
		SegmentCount:   len(segments),
	}, nil
}

// ConfirmSplit applies the pending segmentation proposal from the last
// single-file upload.
func (a *App) ConfirmSplit() (*UploadResult, error) {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	if pending == nil {
		return nil, types.NewAppError(types.ErrInternal, "没有待确认的拆分方案", nil)
	}

	units := a.builder.BuildSplit(pending.source, pending.segments)
	a.notify(types.NotifySuccess, fmt.Sprintf("成功拆分为 %d 个题目", len(units)))
	a.emitProblems()

	return &UploadResult{
		Problems:    a.store.Units(),
		ContestName: a.store.ContestName(),
	}, nil
}

// UploadArchive ingests a zip of PDFs, one problem unit per usable entry.
// An archive with no usable entries leaves the current collection unchanged.
func (a *App) UploadArchive(path string) (*UploadResult, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".zip") {
		a.notify(types.NotifyError, "请上传 .zip 格式的文件")
		return nil, types.NewAppError(types.ErrParse, "请上传 .zip 格式的文件", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		a.notify(types.NotifyError, "无法读取 ZIP 文件")
		return nil, types.NewAppError(types.ErrParse, "无法读取 ZIP 文件", err)
	}
	handle, err := a.archives.Open(data)
	if err != nil {
		a.notify(types.NotifyError, "无法解析 ZIP 文件，请确保文件未损坏")
		return nil, err
	}

	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()

	units, err := a.builder.BuildArchive(filepath.Base(path), handle)
	if err != nil {
		if types.CodeOf(err) == types.ErrNoEntries {
			a.notify(types.NotifyError, "压缩包内没有找到有效的 PDF 文件")
		} else {
			a.notify(types.NotifyError, "无法解析 ZIP 文件，请确保文件未损坏")
		}
		return nil, err
	}

	a.notify(types.NotifySuccess, fmt.Sprintf("成功解析 %d 个题目", len(units)))
	a.emitProblems()

	return &UploadResult{
		Problems:    a.store.Units(),
		ContestName: a.store.ContestName(),
	}, nil
}

// ExtractText reconstructs the reading-order text for one unit's page range.
// A failure at any page discards the whole attempt for that unit; sibling
// units are unaffected. The unit is re-resolved by id after every suspension
// so a collection replaced mid-flight silently drops the update.
func (a *App) ExtractText(unitID string) error {
	unit, idx, ok := a.store.GetByID(unitID)
	if !ok {
		return types.NewAppError(types.ErrInternal, "题目不存在: "+unitID, nil)
	}

	a.store.Patch(idx, problem.UnitPatch{
		Extracting: problem.BoolPtr(true),
		LastError:  problem.StrPtr(""),
	})
	a.emitProblems()

	text, err := a.extractUnitText(unit)
	if err != nil {
		a.log.Error("text extraction failed", err, logger.String("unit", unitID))
		a.store.PatchByID(unitID, problem.UnitPatch{
			Extracting: problem.BoolPtr(false),
			LastError:  problem.StrPtr("文本提取失败"),
		})
		a.emitProblems()
		a.notify(types.NotifyError, "提取文本失败，可能是加密的 PDF")
		return err
	}

	a.store.PatchByID(unitID, problem.UnitPatch{
		ExtractedText: problem.StrPtr(text),
		Extracting:    problem.BoolPtr(false),
	})
	a.emitProblems()
	return nil
}

// extractUnitText runs the per-page reconstruction over the unit's resolved
// range.
func (a *App) extractUnitText(unit types.ProblemUnit) (string, error) {
	handle, err := a.docs.Parse(unit.Source.Data)
	if err != nil {
		return "", err
	}
	end := unit.ResolveEnd(handle.PageCount())
	if unit.PageStart < 1 || end > handle.PageCount() || end < unit.PageStart {
		return "", types.NewAppError(types.ErrExtract,
			fmt.Sprintf("页码范围无效: %s", types.PageLabel(unit.PageStart, unit.PageEnd)), nil)
	}

	var sb strings.Builder
	for pageNum := unit.PageStart; pageNum <= end; pageNum++ {
		page, err := handle.Page(pageNum)
		if err != nil {
			return "", types.NewAppErrorWithPage(types.ErrExtract, "文本提取失败", pageNum, err)
		}
		sb.WriteString(layout.FormatPage(pageNum, layout.ReconstructPage(page.TextRuns())))
	}
	return sb.String(), nil
}

// RenderPreview renders the unit's pages into the preview container. A call
// superseded by a later one commits nothing and reports no error.
func (a *App) RenderPreview(unitID string) error {
	unit, _, ok := a.store.GetByID(unitID)
	if !ok {
		return types.NewAppError(types.ErrInternal, "题目不存在: "+unitID, nil)
	}
	err := a.pipeline.Render(unit, &eventSink{app: a})
	if err != nil {
		a.notify(types.NotifyError, "无法渲染 PDF: "+unit.DisplayName)
	}
	return err
}

// Translate submits the unit's extracted text to the translation service.
func (a *App) Translate(unitID string) error {
	unit, idx, ok := a.store.GetByID(unitID)
	if !ok {
		return types.NewAppError(types.ErrInternal, "题目不存在: "+unitID, nil)
	}
	if unit.ExtractedText == "" {
		a.notify(types.NotifyInfo, "请先等待文本提取完成")
		return nil
	}

	a.store.Patch(idx, problem.UnitPatch{
		Translating: problem.BoolPtr(true),
		LastError:   problem.StrPtr(""),
	})
	a.emitProblems()

	translated, err := a.engine.Translate(a.opCtx(), unit.ExtractedText)
	if err != nil {
		a.log.Error("translation failed", err, logger.String("unit", unitID))
		a.store.PatchByID(unitID, problem.UnitPatch{
			Translating: problem.BoolPtr(false),
			LastError:   problem.StrPtr("翻译失败: " + err.Error()),
		})
		a.emitProblems()
		a.notify(types.NotifyError, "翻译失败: "+err.Error())
		return err
	}

	a.store.PatchByID(unitID, problem.UnitPatch{
		TranslatedText: problem.StrPtr(translated),
		Translating:    problem.BoolPtr(false),
	})
	a.emitProblems()
	a.notify(types.NotifySuccess, "翻译完成！")
	return nil
}

func (a *App) opCtx() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

// SetAPIKey stores the translation credential.
func (a *App) SetAPIKey(key string) error {
	if err := a.config.SetAPIKey(key); err != nil {
		a.notify(types.NotifyError, "无法保存 API Key")
		return err
	}
	a.engine.SetAPIKey(key)
	a.notify(types.NotifySuccess, "API Key 已保存")
	return nil
}

// Problems returns a snapshot of the current collection.
func (a *App) Problems() []types.ProblemUnit {
	return a.store.Units()
}

// ContestName returns the current contest name.
func (a *App) ContestName() string {
	return a.store.ContestName()
}

// CurrentProblem returns the selected unit, or nil when the store is empty.
func (a *App) CurrentProblem() *types.ProblemUnit {
	unit, ok := a.store.Current()
	if !ok {
		return nil
	}
	return &unit
}

// SelectProblem moves the selection cursor.
func (a *App) SelectProblem(index int) error {
	if !a.store.Select(index) {
		return types.NewAppError(types.ErrInternal, fmt.Sprintf("题目序号无效: %d", index), nil)
	}
	return nil
}

// eventSink commits render pipeline output to the frontend preview
// container via events, encoding pages as base64 PNG.
type eventSink struct {
	app *App
}

func (s *eventSink) ShowLoading(unit types.ProblemUnit) {
	s.app.safeEmit(EventPreviewLoading, map[string]interface{}{
		"unit_id":    unit.ID,
		"page_start": unit.PageStart,
		"page_end":   unit.PageEnd,
	})
}

func (s *eventSink) ShowPages(unitID string, pages []image.Image) {
	encoded := make([]string, 0, len(pages))
	for _, img := range pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			s.app.log.Error("failed to encode preview page", err, logger.String("unit", unitID))
			continue
		}
		encoded = append(encoded, base64.StdEncoding.EncodeToString(buf.Bytes()))
	}
	s.app.safeEmit(EventPreviewReady, map[string]interface{}{
		"unit_id": unitID,
		"pages":   encoded,
	})
}

func (s *eventSink) ShowError(unitID, message string) {
	s.app.safeEmit(EventPreviewError, map[string]interface{}{
		"unit_id": unitID,
		"message": message,
	})
}
