package dataset

import (
	"math"
	"strconv"
	"time"
)

// Kind 区分单元格的取值类型。
type Kind int

const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindDate
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "missing"
	}
}

// Cell 是一个封闭的取值变体：Text / Number / Date / Missing。
// 缺失值与空字符串是两种不同的变体，二者渲染结果都为空。
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
	Date   time.Time
	// Display 为来源提供的格式化文本（例如电子表格的数字格式），为空时按类型格式化。
	Display string
}

// Missing 返回缺失值。
func Missing() Cell { return Cell{Kind: KindMissing} }

// Text 返回文本单元格；空字符串仍是文本，而不是缺失值。
func Text(s string) Cell { return Cell{Kind: KindText, Text: s} }

// Number 返回数值单元格。
func Number(v float64) Cell { return Cell{Kind: KindNumber, Number: v} }

// Date 返回日期单元格。
func Date(t time.Time) Cell { return Cell{Kind: KindDate, Date: t} }

// WithDisplay 返回带有预格式化文本的副本。
func (c Cell) WithDisplay(display string) Cell {
	c.Display = display
	return c
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.Kind == KindMissing }

// Render 把单元格转换为可显示的文本。
func (c Cell) Render() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		if c.Display != "" {
			return c.Display
		}
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return strconv.FormatFloat(c.Number, 'g', -1, 64)
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindDate:
		if c.Display != "" {
			return c.Display
		}
		if c.Date.IsZero() {
			return ""
		}
		h, m, s := c.Date.Clock()
		if h == 0 && m == 0 && s == 0 && c.Date.Nanosecond() == 0 {
			return c.Date.Format(time.DateOnly)
		}
		return c.Date.Format(time.DateTime)
	default:
		return ""
	}
}
