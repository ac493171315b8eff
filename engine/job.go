package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/quire/config"
	"github.com/ByLCY/quire/dataset"
	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/dsl"
	"github.com/ByLCY/quire/pdfio"
)

// LoadSources 并行读取并解码所有来源，返回与 specs 一一对应的 Placement。
// 表格来源在这里就完成排版。
func (e *Engine) LoadSources(specs []dsl.SourceSpec, cfg config.LayoutConfig) ([]document.Placement, error) {
	placements := make([]document.Placement, len(specs))
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, spec := range specs {
		g.Go(func() error {
			src, err := e.loadSource(spec, cfg)
			if err != nil {
				return err
			}
			placements[i] = document.Placement{Source: src, Position: spec.Position}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return placements, nil
}

func (e *Engine) loadSource(spec dsl.SourceSpec, cfg config.LayoutConfig) (document.Source, error) {
	path := e.resolve(spec.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取来源 %s 失败: %w", spec.Path, err)
	}
	log := e.log.WithFields(logrus.Fields{"source": spec.Path, "kind": spec.Kind, "bytes": len(data)})
	switch spec.Kind {
	case dsl.SourceTable:
		ds, err := dataset.Load(filepath.Base(path), data)
		if err != nil {
			return nil, err
		}
		doc, err := e.PlanAndPaginate(ds, cfg)
		if err != nil {
			return nil, err
		}
		log.WithField("pages", doc.PageCount()).Debug("已加载表格")
		return document.PagesSource{Name: spec.Path, Pages: doc.Pages}, nil
	case dsl.SourceDocument:
		doc, err := pdfio.Decode(spec.Path, data)
		if err != nil {
			return nil, err
		}
		log.WithField("pages", doc.PageCount()).Debug("已加载 PDF")
		return document.DocumentSource{Name: spec.Path, Doc: doc}, nil
	case dsl.SourceImage:
		img, err := pdfio.DecodeImage(spec.Path, data)
		if err != nil {
			return nil, err
		}
		log.WithField("size", img.Bounds().Size()).Debug("已加载图片")
		return document.ImageSource{Name: spec.Path, Image: img}, nil
	default:
		return nil, fmt.Errorf("未知的来源类型 %q", spec.Kind)
	}
}

func (e *Engine) resolve(path string) string {
	if filepath.IsAbs(path) || e.baseDir == "" {
		return path
	}
	return filepath.Join(e.baseDir, path)
}

// Result 是执行任务得到的文档；Compact 表示输出时需要压缩。
type Result struct {
	Doc     *document.Document
	Compact bool
}

// Execute 按任务计划校验顺序、加载来源、合并，再依次执行 compress/extract 步骤。
// layout 段覆盖 cfg 中的同名配置。
func (e *Engine) Execute(plan *dsl.Plan, cfg config.LayoutConfig) (Result, error) {
	for _, s := range plan.Layout {
		if err := cfg.Set(s.Key, s.Value); err != nil {
			return Result{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("排版配置无效: %w", err)
	}
	// 顺序错误不必等到读完所有来源
	positions := make([]int, len(plan.Sources))
	for i, s := range plan.Sources {
		positions[i] = s.Position
	}
	if err := document.ValidatePositions(positions); err != nil {
		e.log.WithError(err).WithField("sources", len(positions)).Warn("来源顺序无效")
		return Result{}, err
	}

	placements, err := e.LoadSources(plan.Sources, cfg)
	if err != nil {
		return Result{}, err
	}
	doc, err := e.Assemble(document.MergeSpec{Placements: placements, Meta: plan.Meta})
	if err != nil {
		return Result{}, err
	}

	res := Result{Doc: doc}
	for _, step := range plan.Steps {
		switch step.Kind {
		case dsl.StepCompress:
			dpi := step.DPI
			if dpi == 0 {
				dpi = document.DefaultDPI
			}
			if res.Doc, err = e.Rasterize(res.Doc, dpi); err != nil {
				return Result{}, err
			}
			res.Compact = true
		case dsl.StepExtract:
			if res.Doc, err = e.Extract(res.Doc, step.From, step.To); err != nil {
				return Result{}, err
			}
		}
	}
	return res, nil
}

// Write 编码文档并写入 path，必要时创建目录。
func (e *Engine) Write(doc *document.Document, path string, compact bool) error {
	var buf bytes.Buffer
	if err := pdfio.Encode(doc, &buf, pdfio.EncodeOptions{Renderer: e.pdf, Compact: compact}); err != nil {
		return fmt.Errorf("生成 PDF 失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	e.log.WithFields(logrus.Fields{"output": path, "pages": doc.PageCount(), "bytes": buf.Len(), "compact": compact}).Info("已写出 PDF")
	return nil
}

// Run 执行任务并写出 plan.Output（相对路径基于 BaseDir）。
func (e *Engine) Run(plan *dsl.Plan, cfg config.LayoutConfig) (*document.Document, error) {
	res, err := e.Execute(plan, cfg)
	if err != nil {
		return nil, err
	}
	if err := e.Write(res.Doc, e.resolve(plan.Output), res.Compact); err != nil {
		return nil, err
	}
	return res.Doc, nil
}
