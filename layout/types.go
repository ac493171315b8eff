package layout

import "image"

// 该文件定义页面模型：排版、渲染、栅格化与调试 JSON 共用同一套类型。
// 所有长度单位均为毫米（mm）。

// Page 记录页面尺寸、边距与最终可以直接渲染的元素。
// Embedded 非空时，页面内容来自已有 PDF 的某一页，按原样整页引用。
type Page struct {
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Margin   Margin        `json:"margin"`
	Texts    []TextBox     `json:"texts,omitempty"`
	Images   []ImageBox    `json:"images,omitempty"`
	Tables   []TableBox    `json:"tables,omitempty"`
	Lines    []Line        `json:"lines,omitempty"`
	Embedded *EmbeddedPage `json:"embedded,omitempty"`
}

// EmbeddedPage 引用某个来源 PDF 的一页（Index 从 1 开始）。
type EmbeddedPage struct {
	Source string `json:"source"`
	Index  int    `json:"index"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// FontResource 描述字体资源，Src 形如 "embed:regular" 或文件路径。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Content    string       `json:"content"`
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	Width      float64      `json:"width"`
	LineHeight float64      `json:"lineHeight"`
	Font       FontResource `json:"font"`
	FontSize   float64      `json:"fontSize"`
	Color      Color        `json:"color"`
	Lines      []TextLine   `json:"lines"`
	Height     float64      `json:"height"`
	Align      string       `json:"align,omitempty"` // left/center/right，默认 left
	Wrap       string       `json:"wrap,omitempty"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// ImageBox 描述图片位置与尺寸。Image 为已解码的位图，Path 仅用于调试输出。
type ImageBox struct {
	Path    string      `json:"path,omitempty"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Opacity float64     `json:"opacity"`
	Image   image.Image `json:"-"`
}

// TableBox 保存一页内的表格片段：列宽来自 ColumnPlan，行按顺序纵向排列。
type TableBox struct {
	Sheet        string     `json:"sheet,omitempty"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Width        float64    `json:"width"`
	ColumnWidths []float64  `json:"columnWidths"`
	Rows         []TableRow `json:"rows"`
	BorderColor  Color      `json:"borderColor"`
}

// TableRow 记录每一行的位置、高度与单元格；Index 为数据行号，表头为 -1。
type TableRow struct {
	Index    int         `json:"index"`
	Y        float64     `json:"y"`
	Height   float64     `json:"height"`
	IsHeader bool        `json:"isHeader"`
	Cells    []TableCell `json:"cells"`
}

// TableCell 复用 TextBox 作为单元格内容。
type TableCell struct {
	Text TextBox `json:"text"`
}

// Line 表示一条线段，目前用于工作表标题下的分隔线。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（mm），<=0 时由渲染器给默认值
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
