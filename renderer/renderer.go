package renderer

import (
	"image"

	"github.com/ByLCY/quire/layout"
)

// PDFRenderer 将排好的页面输出为 PDF 字节。
type PDFRenderer interface {
	RenderPDF(pages []layout.Page, meta layout.DocumentMeta) ([]byte, error)
}

// Rasterizer 将单个排好的页面渲染为位图。
type Rasterizer interface {
	RasterizePage(page layout.Page, dpi int) (image.Image, error)
}
