package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the unit a length was written in (config files, job files, CLI flags).
type Unit int

const (
	UnitNone Unit = iota // bare number, read as mm where a length is expected
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u Unit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length keeps a number together with the unit it was written in.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToMM converts to millimetres. Bare numbers are already millimetres.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// ToPT converts to points.
func (l Length) ToPT() float64 {
	if l.Unit == UnitPT {
		return l.Value
	}
	return l.ToMM() * MmToPt
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

var unitSuffixes = []struct {
	s string
	u Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}}

// ParseLength parses strings such as "12mm", "0.5in", "9pt" or "7".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	if f < 0 {
		return Length{}, fmt.Errorf("长度不能为负: %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}

// ParseRawLengthStr is the lenient form of ParseLength: invalid input yields zero.
func ParseRawLengthStr(value string) Length {
	l, err := ParseLength(value)
	if err != nil {
		return Length{}
	}
	return l
}

// ParseMargin 支持 CSS 风格的 1/2/3/4 值写法，例如 "12mm" 或 "10mm 15mm"。
func ParseMargin(value string) (Margin, error) {
	parts := strings.Fields(value)
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		l, err := ParseLength(p)
		if err != nil {
			return Margin{}, err
		}
		vals = append(vals, l.ToMM())
	}
	switch len(vals) {
	case 1:
		return Margin{Top: vals[0], Right: vals[0], Bottom: vals[0], Left: vals[0]}, nil
	case 2:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	case 4:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	default:
		return Margin{}, fmt.Errorf("margin 需要 1-4 个值，得到 %d 个", len(vals))
	}
}

// PageSize 页面尺寸，单位 mm（纵向）。
type PageSize struct {
	Width  float64
	Height float64
}

var pagePresets = map[string]PageSize{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// ResolvePageSize 按名称查找预设纸张，landscape 时交换宽高。
func ResolvePageSize(name string, landscape bool) (PageSize, error) {
	size, ok := pagePresets[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return PageSize{}, fmt.Errorf("未知的纸张尺寸 %q", name)
	}
	if landscape {
		size.Width, size.Height = size.Height, size.Width
	}
	return size, nil
}
