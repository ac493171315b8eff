// Package pdfio 是文档模型与外部格式之间的边界：解码 PDF 与图片、编码 PDF、
// 以及把页面渲染为位图。
package pdfio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/errs"
	"github.com/ByLCY/quire/layout"
)

// Decode 读取 PDF 的页数与页面尺寸，返回一个由整页引用组成的文档。
// PDF 原始字节以 name 为 id 保存在文档来源表中，编码时再按页截取。
func Decode(name string, data []byte) (*document.Document, error) {
	conf := model.NewDefaultConfiguration()
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return nil, &errs.SourceParseError{Source: name, Kind: "document", Err: err}
	}
	if len(dims) == 0 {
		return nil, &errs.SourceParseError{Source: name, Kind: "document", Err: errors.New("PDF 没有页面")}
	}

	doc := document.New(layout.DocumentMeta{Title: name})
	if err := doc.AddSource(name, data); err != nil {
		return nil, err
	}
	for i, dim := range dims {
		page := layout.Page{
			Width:    dim.Width * layout.PtToMm,
			Height:   dim.Height * layout.PtToMm,
			Embedded: &layout.EmbeddedPage{Source: name, Index: i + 1},
		}
		if err := doc.AppendPages(page); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// DecodeImage 解码 png/jpeg/gif/bmp/tiff/webp 图片。
func DecodeImage(name string, data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &errs.SourceParseError{Source: name, Kind: "image", Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &errs.SourceParseError{Source: name, Kind: "image", Err: fmt.Errorf("%s 图片尺寸为 0", format)}
	}
	return img, nil
}
