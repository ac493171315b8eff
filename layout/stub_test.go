package layout

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ByLCY/quire/dataset"
)

// stubTypesetter 以固定字宽（0.5 * fontSize 每个字符）测量和断行，
// 避免测试依赖真实字体。含有 "\x00" 的文本视为无法测量。
type stubTypesetter struct {
	calls int
}

func (s *stubTypesetter) TextWidth(text string, font FontResource, fontSize float64) (float64, error) {
	s.calls++
	if strings.Contains(text, "\x00") {
		return 0, &MeasurementError{Text: text, Font: font.Name, Err: errors.New("缺少字形")}
	}
	return float64(utf8.RuneCountInString(text)) * fontSize * 0.5, nil
}

func (s *stubTypesetter) LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error) {
	w, _ := s.TextWidth(strings.ReplaceAll(content, "\x00", ""), font, fontSize)
	n := 1
	if width > 0 && w > width {
		n = int(math.Ceil(w / width))
	}
	lines := make([]TextLine, n)
	for i := range lines {
		lines[i] = TextLine{Content: content, Width: math.Min(w, width), Height: fontSize}
	}
	return lines, nil
}

func mustSheet(name string, columns []string, rows ...[]string) *dataset.Sheet {
	cells := make([][]dataset.Cell, len(rows))
	for i, r := range rows {
		cells[i] = make([]dataset.Cell, len(r))
		for j, v := range r {
			if v == "" {
				cells[i][j] = dataset.Missing()
			} else {
				cells[i][j] = dataset.Text(v)
			}
		}
	}
	s, err := dataset.NewSheet(name, columns, cells)
	if err != nil {
		panic(err)
	}
	return s
}
