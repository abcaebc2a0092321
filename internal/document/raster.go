package document

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"contest-translator/internal/logger"
	"contest-translator/internal/types"
)

// baseDPI is the rasterization DPI at scale 1.0.
const baseDPI = 72

// PopplerRasterizer renders PDF pages through the external pdftoppm tool.
// The unit's page range is first trimmed into a scratch document with pdfcpu
// so that only the requested pages are ever touched by the renderer.
type PopplerRasterizer struct {
	log logger.Logger

	readyOnce sync.Once
	readyErr  error
}

// NewPopplerRasterizer creates a rasterizer backed by poppler-utils.
func NewPopplerRasterizer(log logger.Logger) *PopplerRasterizer {
	return &PopplerRasterizer{log: log}
}

// EnsureReady probes for pdftoppm once and caches the result. Safe to call
// concurrently.
func (r *PopplerRasterizer) EnsureReady() error {
	r.readyOnce.Do(func() {
		if err := exec.Command("pdftoppm", "-v").Run(); err != nil {
			r.readyErr = types.NewAppError(types.ErrRender,
				"未找到 pdftoppm，请安装 poppler-utils", err)
			return
		}
		r.log.Debug("pdftoppm available")
	})
	return r.readyErr
}

// Prepare trims [start, end] out of the document into a temp file and
// returns a job rendering the trimmed pages.
func (r *PopplerRasterizer) Prepare(data []byte, start, end int) (RenderJob, error) {
	if err := r.EnsureReady(); err != nil {
		return nil, err
	}
	if end < start {
		return nil, types.NewAppError(types.ErrRender,
			fmt.Sprintf("非法页码范围 %d-%d", start, end), nil)
	}

	tmpDir, err := os.MkdirTemp("", "preview_*")
	if err != nil {
		return nil, types.NewAppError(types.ErrRender, "failed to create temp dir", err)
	}

	srcPath := filepath.Join(tmpDir, "source.pdf")
	if err := os.WriteFile(srcPath, data, 0600); err != nil {
		os.RemoveAll(tmpDir)
		return nil, types.NewAppError(types.ErrRender, "failed to write scratch document", err)
	}

	trimmed := filepath.Join(tmpDir, "range.pdf")
	pages := []string{fmt.Sprintf("%d-%d", start, end)}
	if err := api.TrimFile(srcPath, trimmed, pages, nil); err != nil {
		os.RemoveAll(tmpDir)
		return nil, types.NewAppError(types.ErrRender,
			fmt.Sprintf("无法截取页码范围 %d-%d", start, end), err)
	}

	r.log.Debug("render range prepared",
		logger.Int("start", start), logger.Int("end", end),
		logger.String("dir", tmpDir))

	return &popplerJob{
		log:     r.log,
		tmpDir:  tmpDir,
		pdfPath: trimmed,
		pages:   end - start + 1,
	}, nil
}

type popplerJob struct {
	log     logger.Logger
	tmpDir  string
	pdfPath string
	pages   int
}

func (j *popplerJob) PageCount() int { return j.pages }

// RenderPage rasterizes one page of the trimmed range as PNG and decodes it.
func (j *popplerJob) RenderPage(n int, scale float64) (image.Image, error) {
	if n < 1 || n > j.pages {
		return nil, types.NewAppErrorWithPage(types.ErrRender,
			fmt.Sprintf("渲染页码 %d 超出范围", n), n, nil)
	}

	dpi := int(baseDPI * scale)
	outPrefix := filepath.Join(j.tmpDir, fmt.Sprintf("page_%d", n))
	args := []string{
		"-f", fmt.Sprintf("%d", n),
		"-l", fmt.Sprintf("%d", n),
		"-png",
		"-r", fmt.Sprintf("%d", dpi),
		"-singlefile",
		j.pdfPath,
		outPrefix,
	}
	cmd := exec.Command("pdftoppm", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, types.NewAppErrorWithPage(types.ErrRender,
			fmt.Sprintf("pdftoppm failed: %s", string(output)), n, err)
	}

	imgPath := outPrefix + ".png"
	f, err := os.Open(imgPath)
	if err != nil {
		return nil, types.NewAppErrorWithPage(types.ErrRender, "failed to open rendered page", n, err)
	}
	defer f.Close()
	defer os.Remove(imgPath)

	img, err := png.Decode(f)
	if err != nil {
		return nil, types.NewAppErrorWithPage(types.ErrRender, "failed to decode rendered page", n, err)
	}
	return img, nil
}

func (j *popplerJob) Close() error {
	return os.RemoveAll(j.tmpDir)
}
