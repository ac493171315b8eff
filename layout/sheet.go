package layout

import (
	"fmt"
	"math"

	"github.com/ByLCY/quire/dataset"
)

const (
	defaultCellPadding = 1.5
	defaultLineFactor  = 1.4
	titleGap           = 3.0
	titleRuleWidth     = 0.3
)

var (
	defaultBorderColor = Color{R: 200, G: 200, B: 200}
	defaultTextColor   = Color{R: 30, G: 30, B: 30}
	placeholderColor   = Color{R: 130, G: 130, B: 130}
)

// SheetOptions 描述一个 sheet 的版面。长度均为 mm。
type SheetOptions struct {
	PageWidth  float64
	PageHeight float64
	Margin     Margin

	Typesetter MeasureTypesetter
	Font       FontResource
	HeaderFont FontResource // 为空时使用 Font
	FontSize   float64
	LineFactor float64 // 行高 = FontSize * LineFactor，<=0 时为 1.4

	CellPadding float64
	MinColumn   float64
	MaxColumn   float64
	SampleSize  int
	Sampler     Sampler

	RepeatHeader bool
	Title        string // 非空时在首页表格上方输出
	EmptyText    string // 无数据时的占位文字
}

func (o SheetOptions) contentWidth() float64 {
	return o.PageWidth - o.Margin.Left - o.Margin.Right
}

func (o SheetOptions) contentHeight() float64 {
	return o.PageHeight - o.Margin.Top - o.Margin.Bottom
}

// BuildSheet 规划列宽、分页，并把结果落成页面。
// 没有列时输出一页占位文字；有列无行时只输出表头和占位文字。
func BuildSheet(sheet *dataset.Sheet, opts SheetOptions) ([]Page, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("缺少排版器")
	}
	if opts.contentWidth() <= 0 || opts.contentHeight() <= 0 {
		return nil, fmt.Errorf("页面 %.1fx%.1fmm 扣除边距后没有可用区域", opts.PageWidth, opts.PageHeight)
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 9 * PtToMm
	}
	if opts.LineFactor <= 0 {
		opts.LineFactor = defaultLineFactor
	}
	if opts.CellPadding <= 0 {
		opts.CellPadding = defaultCellPadding
	}
	if opts.HeaderFont.Src == "" {
		opts.HeaderFont = opts.Font
	}
	if opts.EmptyText == "" {
		opts.EmptyText = "(empty sheet)"
	}

	b := &sheetBuilder{sheet: sheet, opts: opts, rows: map[int]TableRow{}}
	pages := []Page{b.newPage()}

	offset := 0.0
	if opts.Title != "" {
		title, err := b.textBox(opts.Title, opts.HeaderFont, opts.FontSize*1.3, opts.Margin.Left, opts.Margin.Top, opts.contentWidth(), defaultTextColor)
		if err != nil {
			return nil, err
		}
		pages[0].Texts = append(pages[0].Texts, title)
		offset = title.Height + titleGap
		// 标题下方的分隔线
		ruleY := opts.Margin.Top + title.Height + titleGap/2
		pages[0].Lines = append(pages[0].Lines, Line{
			X1: opts.Margin.Left, Y1: ruleY,
			X2: opts.Margin.Left + opts.contentWidth(), Y2: ruleY,
			Color: defaultBorderColor, Width: titleRuleWidth,
		})
	}

	plan := PlanColumns(sheet, PlanOptions{
		Measurer:   opts.Typesetter,
		Font:       opts.Font,
		FontSize:   opts.FontSize,
		Available:  opts.contentWidth(),
		Padding:    2 * opts.CellPadding,
		Min:        opts.MinColumn,
		Max:        opts.MaxColumn,
		SampleSize: opts.SampleSize,
		Sampler:    opts.Sampler,
	})
	b.plan = plan

	seq := Paginate(sheet, plan, opts.contentHeight(), b.rowHeight,
		WithRepeatHeader(opts.RepeatHeader), WithTopOffset(offset))
	lastY := offset
	for blk := range seq {
		if b.err != nil {
			break
		}
		for len(pages) <= blk.Page {
			pages = append(pages, b.newPage())
		}
		page := &pages[blk.Page]
		y := opts.Margin.Top + blk.Y
		if blk.Kind == BlockEmpty {
			tb, err := b.textBox(opts.EmptyText, opts.Font, opts.FontSize, opts.Margin.Left, y, opts.contentWidth(), placeholderColor)
			if err != nil {
				return nil, err
			}
			page.Texts = append(page.Texts, tb)
			continue
		}
		if len(page.Tables) == 0 {
			page.Tables = append(page.Tables, TableBox{
				Sheet:        sheet.Name,
				X:            opts.Margin.Left,
				Y:            y,
				Width:        plan.Total(),
				ColumnWidths: plan.Widths,
				BorderColor:  defaultBorderColor,
			})
		}
		page.Tables[0].Rows = append(page.Tables[0].Rows, b.place(blk.Row, y))
		lastY = blk.Y + blk.Height
	}
	if b.err != nil {
		return nil, b.err
	}

	if sheet.NumColumns() > 0 && sheet.NumRows() == 0 {
		last := &pages[len(pages)-1]
		tb, err := b.textBox(opts.EmptyText, opts.Font, opts.FontSize, opts.Margin.Left, opts.Margin.Top+lastY+opts.CellPadding, opts.contentWidth(), placeholderColor)
		if err != nil {
			return nil, err
		}
		last.Texts = append(last.Texts, tb)
	}
	return pages, nil
}

type sheetBuilder struct {
	sheet *dataset.Sheet
	opts  SheetOptions
	plan  ColumnPlan
	rows  map[int]TableRow // 行排版结果，坐标相对于行顶部
	err   error
}

func (b *sheetBuilder) newPage() Page {
	return Page{Width: b.opts.PageWidth, Height: b.opts.PageHeight, Margin: b.opts.Margin}
}

func (b *sheetBuilder) rowHeight(row int) float64 {
	r, err := b.layoutRow(row)
	if err != nil && b.err == nil {
		b.err = err
	}
	return r.Height
}

// layoutRow 排版一行（row=-1 为表头）并缓存。
func (b *sheetBuilder) layoutRow(row int) (TableRow, error) {
	if r, ok := b.rows[row]; ok {
		return r, nil
	}
	header := row < 0
	var texts []string
	font := b.opts.Font
	if header {
		texts = b.sheet.Columns
		font = b.opts.HeaderFont
	} else {
		texts = b.sheet.RenderRow(row)
	}

	pad := b.opts.CellPadding
	minHeight := b.opts.FontSize*b.opts.LineFactor + 2*pad
	out := TableRow{Index: row, IsHeader: header, Height: minHeight}
	x := b.opts.Margin.Left
	for c, text := range texts {
		colWidth := b.plan.Widths[c]
		cellWidth := colWidth - 2*pad
		if cellWidth <= 0 {
			cellWidth = colWidth
		}
		tb, err := b.textBox(text, font, b.opts.FontSize, x+pad, pad, cellWidth, defaultTextColor)
		if err != nil {
			return TableRow{}, fmt.Errorf("排版第 %d 行第 %d 列失败: %w", row+1, c+1, err)
		}
		tb.Wrap = "anywhere"
		out.Cells = append(out.Cells, TableCell{Text: tb})
		out.Height = math.Max(out.Height, tb.Height+2*pad)
		x += colWidth
	}
	b.rows[row] = out
	return out, nil
}

// place 把缓存的行平移到页面坐标 y。
func (b *sheetBuilder) place(row int, y float64) TableRow {
	r := b.rows[row]
	placed := TableRow{Index: r.Index, Y: y, Height: r.Height, IsHeader: r.IsHeader, Cells: make([]TableCell, len(r.Cells))}
	for i, cell := range r.Cells {
		cell.Text.Y += y
		placed.Cells[i] = cell
	}
	return placed
}

func (b *sheetBuilder) textBox(content string, font FontResource, fontSize, x, y, width float64, col Color) (TextBox, error) {
	lineHeight := fontSize * b.opts.LineFactor
	lines, err := b.opts.Typesetter.LayoutLines(content, width, font, fontSize, lineHeight, "anywhere")
	if err != nil {
		return TextBox{}, err
	}
	if len(lines) == 0 {
		lines = []TextLine{{Height: fontSize}}
	}
	leading := math.Max(lineHeight-fontSize, 0)
	total := 0.0
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = fontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = leading
		}
		total += lines[i].GapBefore + lines[i].Height
	}
	return TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       font,
		FontSize:   fontSize,
		Color:      col,
		Lines:      lines,
		Height:     total,
	}, nil
}
