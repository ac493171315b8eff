package layout

import (
	"iter"

	"github.com/ByLCY/quire/dataset"
)

// BlockKind 区分分页器产出的块。
type BlockKind int

const (
	BlockHeader BlockKind = iota
	BlockRow
	BlockEmpty // 无列的 sheet，只占位
)

func (k BlockKind) String() string {
	switch k {
	case BlockHeader:
		return "header"
	case BlockRow:
		return "row"
	default:
		return "empty"
	}
}

// Block 是一个已定位的表格行。Page 从 0 开始，Y 相对于内容区顶部（mm）。
// 表头的 Row 为 -1。
type Block struct {
	Kind   BlockKind
	Page   int
	Row    int
	Y      float64
	Height float64
}

// RowHeightFunc 返回某一行的高度，row 为 -1 表示表头。
type RowHeightFunc func(row int) float64

type paginateConfig struct {
	repeatHeader bool
	topOffset    float64
}

// PaginateOption 调整分页行为。
type PaginateOption func(*paginateConfig)

// WithRepeatHeader 在每个新页顶部重复表头；默认只在第一页出现一次。
func WithRepeatHeader(repeat bool) PaginateOption {
	return func(c *paginateConfig) { c.repeatHeader = repeat }
}

// WithTopOffset 在第一页顶部预留 h 的高度（例如 sheet 标题）。
func WithTopOffset(h float64) PaginateOption {
	return func(c *paginateConfig) { c.topOffset = h }
}

// Paginate 惰性地产出表头与数据行的位置。序列可以重复遍历，结果相同；
// 行的顺序与 sheet 一致。放不下的行移到下一页；高于整页的行独占一页。
func Paginate(sheet *dataset.Sheet, plan ColumnPlan, pageHeight float64, rowHeight RowHeightFunc, opts ...PaginateOption) iter.Seq[Block] {
	var cfg paginateConfig
	for _, o := range opts {
		o(&cfg)
	}
	return func(yield func(Block) bool) {
		if sheet.NumColumns() == 0 || plan.Len() == 0 {
			yield(Block{Kind: BlockEmpty, Row: -1, Y: cfg.topOffset})
			return
		}

		page := 0
		y := cfg.topOffset
		headerHeight := rowHeight(-1)
		// top 是新页上第一条数据行的起点；行已经从 top 开始仍放不下时，换页也无济于事
		top := 0.0
		if cfg.repeatHeader {
			top = headerHeight
		}

		put := func(kind BlockKind, row int, h float64) bool {
			ok := yield(Block{Kind: kind, Page: page, Row: row, Y: y, Height: h})
			y += h
			return ok
		}
		putRow := func(row int, h float64) bool {
			if y+h > pageHeight && y > top {
				page++
				y = 0
				if cfg.repeatHeader && !put(BlockHeader, -1, headerHeight) {
					return false
				}
			}
			return put(BlockRow, row, h)
		}

		// 预留区下放不下表头和首行时整体换页，避免表头孤零零留在第一页底部
		first := headerHeight
		if sheet.NumRows() > 0 {
			first += rowHeight(0)
		}
		if y > 0 && y+first > pageHeight && first <= pageHeight {
			page++
			y = 0
		}
		if !put(BlockHeader, -1, headerHeight) {
			return
		}
		for r := 0; r < sheet.NumRows(); r++ {
			if !putRow(r, rowHeight(r)) {
				return
			}
		}
	}
}
