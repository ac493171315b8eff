package canvasrenderer

import (
	"image"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/layout"
)

// 单元格文字按 9pt、1.4 倍行高排版，和表格默认参数一致。
func TestLayoutLinesForCells(t *testing.T) {
	r := NewRenderer("")
	font := layout.FontResource{Name: "Body", Src: "embed:regular"}
	size := 9 * layout.PtToMm
	lineHeight := size * 1.4

	t.Run("long cell wraps within column", func(t *testing.T) {
		lines, err := r.LayoutLines(strings.Repeat("quarterly revenue ", 8), 30, font, size, lineHeight, "anywhere")
		require.NoError(t, err)
		require.Greater(t, len(lines), 2)
		for i, ln := range lines {
			assert.LessOrEqual(t, ln.Width, 30+1e-6, "line %d", i)
		}
	})

	t.Run("unbroken token is split", func(t *testing.T) {
		lines, err := r.LayoutLines(strings.Repeat("9", 80), 20, font, size, lineHeight, "anywhere")
		require.NoError(t, err)
		require.Greater(t, len(lines), 1)
		assert.Equal(t, strings.Repeat("9", 80), joinContents(lines))
	})

	t.Run("multi-line cell keeps blank line", func(t *testing.T) {
		lines, err := r.LayoutLines("north\n\nsouth", 100, font, size, lineHeight, "")
		require.NoError(t, err)
		require.Len(t, lines, 3)
		assert.Empty(t, lines[1].Content)
	})

	t.Run("leading between lines", func(t *testing.T) {
		lines, err := r.LayoutLines("alpha beta gamma delta epsilon zeta eta theta", 15, font, size, lineHeight, "")
		require.NoError(t, err)
		require.Greater(t, len(lines), 1)
		textHeight := lines[0].Height
		require.Greater(t, textHeight, 0.0)
		assert.Zero(t, lines[0].GapBefore)
		for i := 1; i < len(lines); i++ {
			assert.InDelta(t, math.Max(lineHeight-textHeight, 0), lines[i].GapBefore, 1e-6)
			assert.InDelta(t, textHeight, lines[i].Height, 1e-6)
		}
	})

	t.Run("missing font falls back to regular", func(t *testing.T) {
		want, err := r.LayoutLines("fallback", 100, font, size, lineHeight, "")
		require.NoError(t, err)
		got, err := r.LayoutLines("fallback", 100, layout.FontResource{Name: "Nope", Src: "embed:nope"}, size, lineHeight, "")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDelta(t, want[0].Width, got[0].Width, 1e-6)
	})
}

func joinContents(lines []layout.TextLine) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Content)
	}
	return b.String()
}

func TestTextWidthMeasuresAndReportsErrors(t *testing.T) {
	r := NewRenderer("")
	font := layout.FontResource{Name: "Body", Src: "embed:regular"}
	size := 10 * layout.PtToMm

	short, err := r.TextWidth("abc", font, size)
	require.NoError(t, err)
	long, err := r.TextWidth("abcabcabc", font, size)
	require.NoError(t, err)
	assert.Greater(t, short, 0.0)
	assert.InEpsilon(t, 3*short, long, 0.05)

	_, err = r.TextWidth("bad \xff byte", font, size)
	var me *layout.MeasurementError
	assert.ErrorAs(t, err, &me)
}

func tablePage() layout.Page {
	font := layout.FontResource{Name: "Body", Src: "embed:regular"}
	cell := func(s string, x float64) layout.TableCell {
		return layout.TableCell{Text: layout.TextBox{Content: s, X: x + 1, Y: 21, Width: 40, Font: font, FontSize: 3}}
	}
	return layout.Page{
		Width: 100, Height: 60,
		Texts: []layout.TextBox{{Content: "Title", X: 10, Y: 10, Width: 80, Font: font, FontSize: 4}},
		Tables: []layout.TableBox{{
			X: 10, Y: 20, Width: 80, ColumnWidths: []float64{40, 40},
			Rows: []layout.TableRow{
				{Index: -1, Y: 20, Height: 6, IsHeader: true, Cells: []layout.TableCell{cell("a", 10), cell("b", 50)}},
			},
		}},
	}
}

func TestRenderPDF(t *testing.T) {
	r := NewRenderer("")
	data, err := r.RenderPDF([]layout.Page{tablePage(), tablePage()}, layout.DocumentMeta{Title: "t"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))

	_, err = r.RenderPDF([]layout.Page{{Width: 10, Height: 10, Embedded: &layout.EmbeddedPage{Source: "x", Index: 1}}}, layout.DocumentMeta{})
	assert.Error(t, err)
	_, err = r.RenderPDF(nil, layout.DocumentMeta{})
	assert.Error(t, err)
}

func TestRasterizePageSize(t *testing.T) {
	r := NewRenderer("")
	img, err := r.RasterizePage(tablePage(), 100)
	require.NoError(t, err)
	b := img.Bounds()
	assert.InDelta(t, 100/25.4*100, float64(b.Dx()), 1.5)
	assert.InDelta(t, 60/25.4*100, float64(b.Dy()), 1.5)

	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	page := layout.Page{Width: 20 * layout.PtToMm, Height: 10 * layout.PtToMm,
		Images: []layout.ImageBox{{Width: 20 * layout.PtToMm, Height: 10 * layout.PtToMm, Image: src}}}
	_, err = r.RasterizePage(page, 72)
	require.NoError(t, err)
}

func TestRasterizeDrawsLines(t *testing.T) {
	r := NewRenderer("")
	page := layout.Page{Width: 100, Height: 60,
		Lines: []layout.Line{{X1: 10, Y1: 30, X2: 90, Y2: 30, Width: 1}}}
	img, err := r.RasterizePage(page, 100)
	require.NoError(t, err)

	px := func(mm float64) int { return int(mm / 25.4 * 100) }
	gray := func(x, y int) uint32 {
		cr, cg, cb, _ := img.At(x, y).RGBA()
		return (cr + cg + cb) / 3
	}
	assert.Less(t, gray(px(50), px(30)), uint32(0x4000), "线上应为深色")
	assert.Greater(t, gray(px(50), px(45)), uint32(0xc000), "线外仍是白色背景")
}
