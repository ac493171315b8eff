package layout

import "fmt"

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

// Measurer 返回文本在给定字体和字号下的宽度（mm）。
// 字体缺字形等问题以 *MeasurementError 报告，由列宽规划器吸收。
type Measurer interface {
	TextWidth(text string, font FontResource, fontSize float64) (float64, error)
}

// MeasurementError 表示单个文本无法测量。
type MeasurementError struct {
	Text string
	Font string
	Err  error
}

func (e *MeasurementError) Error() string {
	return fmt.Sprintf("无法测量文本 %q（字体 %s）: %v", e.Text, e.Font, e.Err)
}

func (e *MeasurementError) Unwrap() error { return e.Err }

// MeasureTypesetter 同时具备测量与断行能力，canvas 渲染器实现了它。
type MeasureTypesetter interface {
	Measurer
	Typesetter
}
