package pdfio

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

// Rasterizer 实现 document.PageRenderer：排版页面交给 canvas 渲染器，
// 引用页由 MuPDF 按来源字节渲染。
type Rasterizer struct {
	Layout renderer.Rasterizer

	mu   sync.Mutex
	docs map[string]cachedDoc
}

type cachedDoc struct {
	data []byte
	doc  *fitz.Document
}

var _ document.PageRenderer = (*Rasterizer)(nil)

func NewRasterizer(layoutRenderer renderer.Rasterizer) *Rasterizer {
	return &Rasterizer{Layout: layoutRenderer, docs: map[string]cachedDoc{}}
}

func (r *Rasterizer) RenderPage(page layout.Page, sources map[string][]byte, dpi int) (image.Image, error) {
	if page.Embedded == nil {
		if r.Layout == nil {
			return nil, fmt.Errorf("缺少排版页面渲染器")
		}
		return r.Layout.RasterizePage(page, dpi)
	}

	data, ok := sources[page.Embedded.Source]
	if !ok || len(data) == 0 {
		return nil, fmt.Errorf("找不到来源 PDF %q", page.Embedded.Source)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.open(page.Embedded.Source, data)
	if err != nil {
		return nil, err
	}
	if n := doc.NumPage(); page.Embedded.Index < 1 || page.Embedded.Index > n {
		return nil, fmt.Errorf("来源 %q 没有第 %d 页（共 %d 页）", page.Embedded.Source, page.Embedded.Index, n)
	}
	img, err := doc.ImageDPI(page.Embedded.Index-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("渲染来源 %q 第 %d 页失败: %w", page.Embedded.Source, page.Embedded.Index, err)
	}
	return img, nil
}

// open 按来源 id 复用已解析的 PDF；同一 id 换了内容时关闭旧文档重新解析。
func (r *Rasterizer) open(id string, data []byte) (*fitz.Document, error) {
	if r.docs == nil {
		r.docs = map[string]cachedDoc{}
	}
	if c, ok := r.docs[id]; ok {
		if len(c.data) == len(data) && &c.data[0] == &data[0] {
			return c.doc, nil
		}
		_ = c.doc.Close()
		delete(r.docs, id)
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("解析来源 PDF %q 失败: %w", id, err)
	}
	r.docs[id] = cachedDoc{data: data, doc: doc}
	return doc, nil
}

// Close 释放缓存的来源文档。
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errList []error
	for id, c := range r.docs {
		errList = append(errList, c.doc.Close())
		delete(r.docs, id)
	}
	return errors.Join(errList...)
}
