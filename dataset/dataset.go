// Package dataset 描述待排版的表格数据：有序的工作表集合，每个工作表是一个矩形单元格表。
//
// Dataset 由加载器一次性构造，之后只读；多个排版任务可以并发读取同一个 Dataset。
package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrRaggedRow 表示某一行的单元格数与表头列数不一致。
	ErrRaggedRow = errors.New("行的列数与表头不一致")
	// ErrUnsupportedFormat 表示无法根据扩展名识别数据格式。
	ErrUnsupportedFormat = errors.New("不支持的数据格式")
)

// Dataset 是有序的工作表序列。
type Dataset struct {
	Name   string
	Sheets []*Sheet
}

// Sheet 是一个二维表。Columns 为列名（可能为空或由加载器合成），
// Rows 中每一行的长度都等于 len(Columns)。
type Sheet struct {
	Name    string
	Columns []string
	rows    [][]Cell
}

// NewSheet 校验并构造工作表；任何一行列数不等于表头列数都会返回 ErrRaggedRow。
func NewSheet(name string, columns []string, rows [][]Cell) (*Sheet, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("工作表 %q 第 %d 行有 %d 列，表头 %d 列: %w", name, i+1, len(row), len(columns), ErrRaggedRow)
		}
	}
	return &Sheet{Name: name, Columns: columns, rows: rows}, nil
}

// Normalize 把参差不齐的原始行补齐为矩形：短行以 Missing 补足，
// 长行则为超出的列合成 "Column N" 形式的列名。
func Normalize(name string, header []string, rows [][]Cell) (*Sheet, error) {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	columns := make([]string, width)
	copy(columns, header)
	for i := len(header); i < width; i++ {
		columns[i] = fmt.Sprintf("Column %d", i+1)
	}
	out := make([][]Cell, len(rows))
	for i, row := range rows {
		if len(row) == width {
			out[i] = row
			continue
		}
		padded := make([]Cell, width)
		copy(padded, row)
		for j := len(row); j < width; j++ {
			padded[j] = Missing()
		}
		out[i] = padded
	}
	return NewSheet(name, columns, out)
}

// NumRows returns the number of data rows.
func (s *Sheet) NumRows() int { return len(s.rows) }

// NumColumns returns the number of columns.
func (s *Sheet) NumColumns() int { return len(s.Columns) }

// Cell returns the cell at (row, col); both indexes are 0-based.
func (s *Sheet) Cell(row, col int) Cell { return s.rows[row][col] }

// Row 返回第 row 行的副本，调用方修改副本不会影响工作表。
func (s *Sheet) Row(row int) []Cell {
	return append([]Cell(nil), s.rows[row]...)
}

// RenderRow 返回第 row 行各单元格的显示文本。
func (s *Sheet) RenderRow(row int) []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.rows[row] {
		out[i] = c.Render()
	}
	return out
}
