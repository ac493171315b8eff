package document

import (
	"fmt"
	"image"
	"slices"

	"github.com/ByLCY/quire/errs"
	"github.com/ByLCY/quire/layout"
)

// DPI 的允许范围。
const (
	MinDPI     = 50
	MaxDPI     = 200
	DefaultDPI = 100
)

// PageRenderer 把单页渲染成位图。sources 为文档的来源表，用于渲染引用页。
type PageRenderer interface {
	RenderPage(page layout.Page, sources map[string][]byte, dpi int) (image.Image, error)
}

// Rasterize 把每一页渲染为 dpi 下的位图并生成新文档：新页面尺寸等于位图像素数（按 pt 计），
// 唯一内容就是该位图。任意一页失败都会中止并返回 *errs.RasterError，不会产出部分文档，
// 也不会自动降低 DPI 重试。
func Rasterize(doc *Document, dpi int, renderer PageRenderer) (*Document, error) {
	if dpi < MinDPI || dpi > MaxDPI {
		return nil, &errs.RasterError{DPI: dpi, Err: fmt.Errorf("dpi 必须在 %d 到 %d 之间", MinDPI, MaxDPI)}
	}
	if renderer == nil {
		return nil, &errs.RasterError{DPI: dpi, Err: fmt.Errorf("缺少页面渲染器")}
	}
	out := New(doc.Meta)
	out.Meta.Keywords = slices.Clone(doc.Meta.Keywords)
	out.Pages = make([]layout.Page, 0, len(doc.Pages))
	for i, page := range doc.Pages {
		img, err := renderer.RenderPage(page, doc.Sources, dpi)
		if err != nil {
			return nil, &errs.RasterError{Page: i + 1, DPI: dpi, Err: err}
		}
		if img == nil || img.Bounds().Empty() {
			return nil, &errs.RasterError{Page: i + 1, DPI: dpi, Err: fmt.Errorf("渲染结果为空")}
		}
		out.Pages = append(out.Pages, ImagePage(img, fmt.Sprintf("page-%d", i+1)))
	}
	return out, nil
}
