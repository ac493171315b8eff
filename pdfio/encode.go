package pdfio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

// EncodeOptions 控制 PDF 输出。
type EncodeOptions struct {
	// Renderer 绘制排版页面，必填。
	Renderer renderer.PDFRenderer
	// Compact 在合并后再做一次对象去重与流压缩。
	Compact bool
}

// segment 是一段连续的页面：要么全部是排版页面，要么全部引用同一个来源。
type segment struct {
	source string // 空表示排版页面
	pages  []layout.Page
}

// Encode 定稿 doc 并写出 PDF。连续的排版页面由 Renderer 绘制为一段，
// 连续的引用页从来源 PDF 中截取为一段，最后按顺序合并。
func Encode(doc *document.Document, w io.Writer, opts EncodeOptions) error {
	if doc.PageCount() == 0 {
		return fmt.Errorf("文档没有页面")
	}
	if opts.Renderer == nil {
		return fmt.Errorf("缺少 PDF 渲染器")
	}
	doc.Finalize()

	contexts := map[string]*model.Context{}
	var parts [][]byte
	for _, seg := range splitSegments(doc.Pages) {
		var (
			data []byte
			err  error
		)
		if seg.source == "" {
			data, err = opts.Renderer.RenderPDF(seg.pages, doc.Meta)
		} else {
			data, err = extractSegment(doc, seg, contexts)
		}
		if err != nil {
			return err
		}
		parts = append(parts, data)
	}

	merged := parts[0]
	if len(parts) > 1 {
		readers := make([]io.ReadSeeker, len(parts))
		for i, p := range parts {
			readers[i] = bytes.NewReader(p)
		}
		var out bytes.Buffer
		if err := api.MergeRaw(readers, &out, false, model.NewDefaultConfiguration()); err != nil {
			return fmt.Errorf("合并 PDF 失败: %w", err)
		}
		merged = out.Bytes()
	}

	if opts.Compact {
		if err := api.Optimize(bytes.NewReader(merged), w, model.NewDefaultConfiguration()); err != nil {
			return fmt.Errorf("压缩 PDF 失败: %w", err)
		}
		return nil
	}
	_, err := w.Write(merged)
	return err
}

func splitSegments(pages []layout.Page) []segment {
	var out []segment
	for _, p := range pages {
		src := ""
		if p.Embedded != nil {
			src = p.Embedded.Source
		}
		if n := len(out); n > 0 && out[n-1].source == src && ascending(out[n-1].pages, p) {
			out[n-1].pages = append(out[n-1].pages, p)
			continue
		}
		out = append(out, segment{source: src, pages: []layout.Page{p}})
	}
	return out
}

// ascending 保证同一段内的引用页按页码递增，页码回退或重复时另起一段。
func ascending(pages []layout.Page, next layout.Page) bool {
	if next.Embedded == nil {
		return true
	}
	return pages[len(pages)-1].Embedded.Index < next.Embedded.Index
}

func extractSegment(doc *document.Document, seg segment, contexts map[string]*model.Context) ([]byte, error) {
	ctx, ok := contexts[seg.source]
	if !ok {
		data, found := doc.Sources[seg.source]
		if !found {
			return nil, fmt.Errorf("找不到来源 PDF %q", seg.source)
		}
		var err error
		ctx, err = api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
		if err != nil {
			return nil, fmt.Errorf("读取来源 PDF %q 失败: %w", seg.source, err)
		}
		if err := ctx.EnsurePageCount(); err != nil {
			return nil, err
		}
		contexts[seg.source] = ctx
	}

	indices := make([]int, len(seg.pages))
	for i, p := range seg.pages {
		if p.Embedded.Index < 1 || p.Embedded.Index > ctx.PageCount {
			return nil, fmt.Errorf("来源 %q 没有第 %d 页（共 %d 页）", seg.source, p.Embedded.Index, ctx.PageCount)
		}
		indices[i] = p.Embedded.Index
	}
	out, err := pdfcpu.ExtractPages(ctx, indices, false)
	if err != nil {
		return nil, fmt.Errorf("截取来源 %q 的页面失败: %w", seg.source, err)
	}
	var buf bytes.Buffer
	if err := api.WriteContext(out, &buf); err != nil {
		return nil, fmt.Errorf("写出来源 %q 的页面失败: %w", seg.source, err)
	}
	return buf.Bytes(), nil
}
