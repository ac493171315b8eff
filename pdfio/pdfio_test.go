package pdfio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/errs"
	"github.com/ByLCY/quire/layout"
	canvasrenderer "github.com/ByLCY/quire/renderer/canvas"
)

func layoutDoc(n int) *document.Document {
	font := layout.FontResource{Name: "Body", Src: "embed:regular"}
	doc := document.New(layout.DocumentMeta{Title: "layout"})
	for i := 0; i < n; i++ {
		_ = doc.AppendPages(layout.Page{
			Width: 210, Height: 297,
			Texts: []layout.TextBox{{Content: "hello", X: 20, Y: 20, Width: 100, Font: font, FontSize: 4}},
			Lines: []layout.Line{{X1: 10, Y1: 30, X2: 200, Y2: 30}},
		})
	}
	return doc
}

func encode(t *testing.T, doc *document.Document, compact bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := Encode(doc, &buf, EncodeOptions{Renderer: canvasrenderer.NewRenderer(""), Compact: compact})
	require.NoError(t, err)
	return buf.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := layoutDoc(3)
	data := encode(t, doc, false)
	assert.True(t, doc.Finalized())

	back, err := Decode("out.pdf", data)
	require.NoError(t, err)
	require.Equal(t, 3, back.PageCount())
	for i, p := range back.Pages {
		require.NotNil(t, p.Embedded)
		assert.Equal(t, "out.pdf", p.Embedded.Source)
		assert.Equal(t, i+1, p.Embedded.Index)
		assert.InDelta(t, 210, p.Width, 0.5)
		assert.InDelta(t, 297, p.Height, 0.5)
	}
	assert.Equal(t, data, back.Sources["out.pdf"])
}

func TestEncodeMixedSegments(t *testing.T) {
	first, err := Decode("a.pdf", encode(t, layoutDoc(2), false))
	require.NoError(t, err)

	merged, err := document.Assemble(document.MergeSpec{Placements: []document.Placement{
		{Source: document.DocumentSource{Name: "a.pdf", Doc: first}, Position: 2},
		{Source: document.PagesSource{Name: "fresh", Pages: layoutDoc(1).Pages}, Position: 1},
		{Source: document.ImageSource{Name: "dot.png", Image: image.NewRGBA(image.Rect(0, 0, 40, 30))}, Position: 3},
	}})
	require.NoError(t, err)

	out, err := Decode("merged.pdf", encode(t, merged, true))
	require.NoError(t, err)
	assert.Equal(t, 4, out.PageCount())
	assert.InDelta(t, 40*layout.PtToMm, out.Pages[3].Width, 0.5)
}

func TestSplitSegments(t *testing.T) {
	ref := func(src string, i int) layout.Page {
		return layout.Page{Embedded: &layout.EmbeddedPage{Source: src, Index: i}}
	}
	pages := []layout.Page{ref("a", 1), ref("a", 2), {}, {}, ref("a", 3), ref("a", 1), ref("b", 1)}
	segs := splitSegments(pages)
	var sizes []int
	for _, s := range segs {
		sizes = append(sizes, len(s.pages))
	}
	assert.Equal(t, []int{2, 2, 1, 1, 1}, sizes)
}

func TestEncodeRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(document.New(layout.DocumentMeta{}), &buf, EncodeOptions{Renderer: canvasrenderer.NewRenderer("")})
	assert.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode("junk.pdf", []byte("definitely not a pdf"))
	var spe *errs.SourceParseError
	require.ErrorAs(t, err, &spe)
	assert.Equal(t, "junk.pdf", spe.Source)
	assert.Equal(t, "document", spe.Kind)
}

func TestDecodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 7, 5))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := DecodeImage("x.png", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 7, img.Bounds().Dx())

	_, err = DecodeImage("x.png", []byte("nope"))
	var spe *errs.SourceParseError
	require.ErrorAs(t, err, &spe)
	assert.Equal(t, "image", spe.Kind)
}

func TestRasterizerLayoutPages(t *testing.T) {
	r := NewRasterizer(canvasrenderer.NewRenderer(""))
	out, err := document.Rasterize(layoutDoc(2), 50, r)
	require.NoError(t, err)
	require.Equal(t, 2, out.PageCount())
	// 210mm 在 50dpi 下约 413 像素，新页面每像素 1pt
	assert.InDelta(t, 413*layout.PtToMm, out.Pages[0].Width, 2*layout.PtToMm)
}

func TestRasterizerMissingSource(t *testing.T) {
	r := NewRasterizer(canvasrenderer.NewRenderer(""))
	page := layout.Page{Width: 10, Height: 10, Embedded: &layout.EmbeddedPage{Source: "gone.pdf", Index: 1}}
	_, err := r.RenderPage(page, map[string][]byte{}, 100)
	assert.Error(t, err)
}

func TestRasterizerEmbeddedPages(t *testing.T) {
	src, err := Decode("src.pdf", encode(t, layoutDoc(2), false))
	require.NoError(t, err)

	r := NewRasterizer(canvasrenderer.NewRenderer(""))
	defer r.Close()
	img, err := r.RenderPage(src.Pages[1], src.Sources, 50)
	require.NoError(t, err)
	// A4 宽 210mm，50dpi 下约 413 像素
	assert.InDelta(t, 413, img.Bounds().Dx(), 2)

	out, err := document.Rasterize(src, 50, r)
	require.NoError(t, err)
	require.Equal(t, 2, out.PageCount())
	for _, p := range out.Pages {
		assert.Nil(t, p.Embedded)
		assert.Len(t, p.Images, 1)
	}
}

func TestRasterizerPageOutOfRange(t *testing.T) {
	src, err := Decode("src.pdf", encode(t, layoutDoc(1), false))
	require.NoError(t, err)

	r := NewRasterizer(nil)
	defer r.Close()
	page := layout.Page{Width: 210, Height: 297, Embedded: &layout.EmbeddedPage{Source: "src.pdf", Index: 2}}
	_, err = r.RenderPage(page, src.Sources, 50)
	assert.ErrorContains(t, err, "第 2 页")
}

func TestRasterizerReopensChangedSource(t *testing.T) {
	one := encode(t, layoutDoc(1), false)
	three := encode(t, layoutDoc(3), false)
	page := layout.Page{Width: 210, Height: 297, Embedded: &layout.EmbeddedPage{Source: "x.pdf", Index: 3}}

	r := NewRasterizer(nil)
	defer r.Close()
	_, err := r.RenderPage(page, map[string][]byte{"x.pdf": one}, 50)
	assert.Error(t, err)
	_, err = r.RenderPage(page, map[string][]byte{"x.pdf": three}, 50)
	assert.NoError(t, err)
}
