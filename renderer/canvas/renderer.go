package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/quire/fonts"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/renderer"
)

const tableBorderWidth = 0.2

var headerFill = canvas.Hex("#eeeeee")

// Renderer draws layout pages via github.com/tdewolff/canvas. It also serves as
// the measurer and typesetter for table layout.
type Renderer struct {
	baseDir  string
	compress bool

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.PDFRenderer      = (*Renderer)(nil)
	_ renderer.Rasterizer       = (*Renderer)(nil)
	_ layout.MeasureTypesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir  string // 解析字体/图片相对路径的目录
	Compress bool   // 压缩 PDF 内容流
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving assets.
func NewRenderer(baseDir string) *Renderer {
	return NewRendererWithOptions(Options{BaseDir: baseDir, Compress: true})
}

func NewRendererWithOptions(opts Options) *Renderer {
	return &Renderer{
		baseDir:      opts.BaseDir,
		compress:     opts.Compress,
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

// RenderPDF 把页面绘制为一个 PDF。页面中不能包含对已有 PDF 的引用。
func (r *Renderer) RenderPDF(pages []layout.Page, meta layout.DocumentMeta) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}
	opts := pdf.DefaultOptions
	opts.Compress = r.compress

	var buf bytes.Buffer
	writer := pdf.New(&buf, pages[0].Width, pages[0].Height, &opts)
	writer.SetInfo(meta.Title, meta.Subject, strings.Join(meta.Keywords, ", "), meta.Author, meta.Creator)
	for i, page := range pages {
		if page.Embedded != nil {
			return nil, fmt.Errorf("第 %d 页引用了外部 PDF，不能由 canvas 绘制", i+1)
		}
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c, err := r.drawCanvas(page)
		if err != nil {
			return nil, fmt.Errorf("绘制第 %d 页失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// RasterizePage 以 dpi 把单页栅格化，背景为白色。
func (r *Renderer) RasterizePage(page layout.Page, dpi int) (image.Image, error) {
	if page.Embedded != nil {
		return nil, fmt.Errorf("引用页需要由 PDF 渲染器栅格化")
	}
	c, err := r.drawCanvas(page)
	if err != nil {
		return nil, err
	}
	return rasterizer.Draw(c, canvas.DPI(float64(dpi)), canvas.DefaultColorSpace), nil
}

func (r *Renderer) drawCanvas(page layout.Page) (*canvas.Canvas, error) {
	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	ctx.SetFillColor(canvas.White)
	ctx.SetStrokeColor(color.RGBA{})
	ctx.DrawPath(0, 0, canvas.Rectangle(page.Width, page.Height))
	if err := r.drawPage(ctx, page); err != nil {
		return nil, err
	}
	return c, nil
}

// TextWidth 实现 layout.Measurer。fontSize 为 mm，返回 mm。
func (r *Renderer) TextWidth(text string, font layout.FontResource, fontSize float64) (float64, error) {
	if !utf8.ValidString(text) {
		return 0, &layout.MeasurementError{Text: text, Font: font.Name, Err: errors.New("非法 UTF-8")}
	}
	face, err := r.fontFace(font, toPt(fontSize), layout.Color{})
	if err != nil {
		return 0, &layout.MeasurementError{Text: text, Font: font.Name, Err: err}
	}
	w := face.TextWidth(text)
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, &layout.MeasurementError{Text: text, Font: font.Name, Err: errors.New("宽度无效")}
	}
	return w, nil
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：fontSize/lineHeight 入参均为毫米（mm）。渲染器内部与字体系统交互使用 pt，并在边界做 mm↔pt 换算。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, toPt(fontSize), layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return nil, err
	}
	if wrap == "" {
		wrap = "anywhere"
	}
	lines := greedyWrap(content, width, faceWidth(face), wrap)
	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Height: textHeight}}
	}
	for i := range lines {
		lines[i].Height = textHeight
		if i == 0 {
			lines[i].GapBefore = 0
		} else {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page) error {
	r.drawLines(ctx, page.Lines)

	if err := r.drawImages(ctx, page.Images); err != nil {
		return err
	}
	if err := r.drawTables(ctx, page.Tables); err != nil {
		return err
	}
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(tb.Font, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}
	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign, anchorX = canvas.Center, tb.X+tb.Width/2
	case "right", "end":
		textAlign, anchorX = canvas.Right, tb.X+tb.Width
	default:
		textAlign, anchorX = canvas.Left, tb.X
	}

	ascent := face.Metrics().Ascent
	cursorY := tb.Y
	for _, line := range lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.FontSize
		}
		ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.Content, textAlign))
		cursorY += lineHeight
	}
	return nil
}

func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox) error {
	for _, box := range images {
		img := box.Image
		if img == nil {
			if box.Path == "" {
				continue
			}
			loaded, err := r.loadImage(box.Path)
			if err != nil {
				return err
			}
			img = loaded
		}
		px := img.Bounds().Dx()
		if px <= 0 {
			continue
		}
		width := box.Width
		if width <= 0 {
			width = float64(px) * layout.PtToMm
		}
		ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(float64(px)/width))
	}
	return nil
}

func (r *Renderer) loadImage(path string) (image.Image, error) {
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许使用相对图片路径：%s", path)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", path, err)
	}
	return img, nil
}

func (r *Renderer) drawTables(ctx *canvas.Context, tables []layout.TableBox) error {
	for _, table := range tables {
		if len(table.ColumnWidths) == 0 {
			continue
		}
		for _, row := range table.Rows {
			x := table.X
			for idx, cell := range row.Cells {
				colWidth := table.ColumnWidths[min(idx, len(table.ColumnWidths)-1)]
				fill := canvas.White
				if row.IsHeader {
					fill = headerFill
				}
				ctx.SetFillColor(fill)
				ctx.SetStrokeColor(colorFromLayout(table.BorderColor))
				ctx.SetStrokeWidth(tableBorderWidth)
				ctx.DrawPath(x, row.Y, canvas.Rectangle(colWidth, row.Height))

				if err := r.drawTextBox(ctx, cell.Text); err != nil {
					return err
				}
				x += colWidth
			}
		}
	}
	return nil
}

// drawLines 绘制直线列表（毫米单位）
func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(strokeOrDefault(ln.Width))
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
}

func strokeOrDefault(w float64) float64 {
	if w <= 0 {
		return tableBorderWidth
	}
	return w
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	name := font.Name
	if name == "" {
		name = "Body"
	}
	family := canvas.NewFontFamily(name)
	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		return fallback, canvas.FontRegular, nil
	}
	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	src := font.Src
	if src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

// fallback 在调用方持有 fontMu 时使用。
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	data, err := fonts.Load("regular")
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("quire-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFamily = family
	return family, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
