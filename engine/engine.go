// Package engine 组合数据加载、表格排版、合并、栅格化与页范围截取，
// 是命令行与任务文件共用的核心入口。
package engine

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/dataset"
	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/pdfio"
	"github.com/ByLCY/quire/renderer"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
)

// Options 配置 Engine。未设置的渲染组件统一使用 canvas 渲染器。
type Options struct {
	Log     logrus.FieldLogger
	Workers int    // <=0 时取 GOMAXPROCS
	BaseDir string // 相对路径（字体、任务中的来源）的基准目录

	Typesetter layout.MeasureTypesetter
	PDF        renderer.PDFRenderer
	Pages      document.PageRenderer
}

// Engine 本身无状态，可并发使用；唯一共享的可变状态在渲染器的字体缓存里。
type Engine struct {
	log     logrus.FieldLogger
	workers int
	baseDir string

	ts    layout.MeasureTypesetter
	pdf   renderer.PDFRenderer
	pages document.PageRenderer
}

func New(opts Options) *Engine {
	e := &Engine{
		log:     opts.Log,
		workers: opts.Workers,
		baseDir: opts.BaseDir,
		ts:      opts.Typesetter,
		pdf:     opts.PDF,
		pages:   opts.Pages,
	}
	if e.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		e.log = l
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	if e.ts == nil || e.pdf == nil || e.pages == nil {
		cr := canvasrenderer.NewRenderer(opts.BaseDir)
		if e.ts == nil {
			e.ts = cr
		}
		if e.pdf == nil {
			e.pdf = cr
		}
		if e.pages == nil {
			e.pages = pdfio.NewRasterizer(cr)
		}
	}
	return e
}

// Close 释放页面渲染器缓存的来源文档。
func (e *Engine) Close() error {
	if c, ok := e.pages.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// PlanAndPaginate 把数据集的每个工作表排成页面，工作表之间并行，结果按工作表顺序拼接。
// 没有工作表的数据集输出一页占位文字。
func (e *Engine) PlanAndPaginate(ds *dataset.Dataset, cfg config.LayoutConfig) (*document.Document, error) {
	opts, err := cfg.SheetOptions()
	if err != nil {
		return nil, fmt.Errorf("排版配置无效: %w", err)
	}
	opts.Typesetter = e.ts

	sheets := ds.Sheets
	if len(sheets) == 0 {
		empty, _ := dataset.NewSheet(ds.Name, nil, nil)
		sheets = []*dataset.Sheet{empty}
	}

	workers := e.workers
	if cfg.Workers > 0 {
		workers = cfg.Workers
	}
	results := make([][]layout.Page, len(sheets))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, sheet := range sheets {
		g.Go(func() error {
			start := time.Now()
			so := opts
			if cfg.SheetTitles {
				so.Title = sheet.Name
			}
			pages, err := layout.BuildSheet(sheet, so)
			if err != nil {
				return fmt.Errorf("排版工作表 %q 失败: %w", sheet.Name, err)
			}
			results[i] = pages
			e.log.WithFields(logrus.Fields{
				"dataset": ds.Name,
				"sheet":   sheet.Name,
				"rows":    sheet.NumRows(),
				"columns": sheet.NumColumns(),
				"pages":   len(pages),
				"elapsed": time.Since(start),
			}).Debug("工作表排版完成")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := document.New(layout.DocumentMeta{Title: ds.Name, Creator: "quire"})
	for _, pages := range results {
		if err := doc.AppendPages(pages...); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Assemble 按各来源的位置合并。
func (e *Engine) Assemble(spec document.MergeSpec) (*document.Document, error) {
	doc, err := document.Assemble(spec)
	if err != nil {
		e.log.WithError(err).WithField("sources", len(spec.Placements)).Warn("合并失败")
		return nil, err
	}
	for _, p := range spec.Placements {
		e.log.WithFields(logrus.Fields{"source": p.Source.SourceName(), "position": p.Position}).Debug("已合并来源")
	}
	e.log.WithFields(logrus.Fields{"sources": len(spec.Placements), "pages": doc.PageCount()}).Info("合并完成")
	return doc, nil
}

// Rasterize 以 dpi 重新生成每一页的位图版本。
func (e *Engine) Rasterize(doc *document.Document, dpi int) (*document.Document, error) {
	start := time.Now()
	out, err := document.Rasterize(doc, dpi, e.pages)
	if err != nil {
		e.log.WithError(err).WithField("dpi", dpi).Warn("栅格化失败")
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"dpi": dpi, "pages": out.PageCount(), "elapsed": time.Since(start)}).Info("栅格化完成")
	return out, nil
}

// Extract 截取 [from, to]（从 1 开始，闭区间）。
func (e *Engine) Extract(doc *document.Document, from, to int) (*document.Document, error) {
	out, err := document.Extract(doc, document.PageRange{From: from, To: to})
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{"from": from, "to": to, "pages": out.PageCount()}).Info("截取完成")
	return out, nil
}
