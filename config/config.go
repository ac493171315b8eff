// Package config 读取表格排版配置（YAML），并转换为 layout.SheetOptions 所需的数值。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/quire/layout"
)

// LayoutConfig 是表格排版的全部可配置项。长度写成带单位的字符串，例如 "12mm"、"9pt"、"0.5in"。
type LayoutConfig struct {
	Page         string  `yaml:"page"`         // A3/A4/A5/Letter/Legal
	Landscape    bool    `yaml:"landscape"`
	Width        string  `yaml:"width"`        // 与 height 同时设置时覆盖 page
	Height       string  `yaml:"height"`
	Margin       string  `yaml:"margin"`       // CSS 风格 1-4 个值
	FontSize     string  `yaml:"font_size"`
	LineHeight   float64 `yaml:"line_height"`  // 字号的倍数
	CellPadding  string  `yaml:"cell_padding"`
	MinColumn    string  `yaml:"min_column"`
	MaxColumn    string  `yaml:"max_column"`
	SampleSize   int     `yaml:"sample_size"`
	Sampling     string  `yaml:"sampling"`     // random / first
	Seed         uint64  `yaml:"seed"`
	RepeatHeader bool    `yaml:"repeat_header"`
	SheetTitles  bool    `yaml:"sheet_titles"`
	Font         string  `yaml:"font"`         // embed:regular 或字体文件路径
	HeaderFont   string  `yaml:"header_font"`
	Workers      int     `yaml:"workers"`
}

// Default 返回默认配置：A4 横向、0.5in 边距、9pt 字号。
func Default() LayoutConfig {
	return LayoutConfig{
		Page:        "A4",
		Landscape:   true,
		Margin:      "0.5in",
		FontSize:    "9pt",
		LineHeight:  1.4,
		CellPadding: "1.5mm",
		MinColumn:   "12mm",
		MaxColumn:   "90mm",
		SampleSize:  layout.DefaultSampleSize,
		Sampling:    "random",
		SheetTitles: true,
		Font:        "embed:regular",
		HeaderFont:  "embed:bold",
		Workers:     4,
	}
}

// Load 在默认配置之上叠加 YAML 文件中的值并校验。
func Load(path string) (LayoutConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Set 按键名覆盖单个配置项，供任务文件与命令行使用。
func (c *LayoutConfig) Set(key, value string) error {
	if !knownKey(key) {
		return fmt.Errorf("未知的配置项 %q", key)
	}
	// 值作为未加标签的标量交给 yaml 按字段类型解析，# 和 ": " 不会被当作语法
	node := yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: key},
		{Kind: yaml.ScalarNode, Value: value},
	}}
	if err := node.Decode(c); err != nil {
		return fmt.Errorf("配置项 %s=%q 无效: %w", key, value, err)
	}
	return nil
}

func knownKey(key string) bool {
	switch key {
	case "page", "landscape", "width", "height", "margin", "font_size", "line_height",
		"cell_padding", "min_column", "max_column", "sample_size", "sampling", "seed",
		"repeat_header", "sheet_titles", "font", "header_font", "workers":
		return true
	}
	return false
}

// Validate 检查所有长度可以解析、数值在合理范围内。
func (c LayoutConfig) Validate() error {
	var problems []error
	if _, err := c.PageSize(); err != nil {
		problems = append(problems, err)
	}
	if _, err := layout.ParseMargin(c.Margin); err != nil {
		problems = append(problems, fmt.Errorf("margin: %w", err))
	}
	for name, v := range map[string]string{
		"font_size": c.FontSize, "cell_padding": c.CellPadding,
		"min_column": c.MinColumn, "max_column": c.MaxColumn,
	} {
		if _, err := layout.ParseLength(v); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.LineHeight < 1 {
		problems = append(problems, fmt.Errorf("line_height 不能小于 1，得到 %g", c.LineHeight))
	}
	minW, maxW := c.mm(c.MinColumn), c.mm(c.MaxColumn)
	if maxW > 0 && minW > maxW {
		problems = append(problems, fmt.Errorf("min_column (%gmm) 大于 max_column (%gmm)", minW, maxW))
	}
	if c.SampleSize < 0 {
		problems = append(problems, fmt.Errorf("sample_size 不能为负"))
	}
	switch strings.ToLower(c.Sampling) {
	case "", "random", "first":
	default:
		problems = append(problems, fmt.Errorf("sampling 只能是 random 或 first，得到 %q", c.Sampling))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Errorf("workers 不能为负"))
	}
	return errors.Join(problems...)
}

// PageSize 解析纸张尺寸（mm）。
func (c LayoutConfig) PageSize() (layout.PageSize, error) {
	if c.Width != "" || c.Height != "" {
		w, err := layout.ParseLength(c.Width)
		if err != nil {
			return layout.PageSize{}, fmt.Errorf("width: %w", err)
		}
		h, err := layout.ParseLength(c.Height)
		if err != nil {
			return layout.PageSize{}, fmt.Errorf("height: %w", err)
		}
		size := layout.PageSize{Width: w.ToMM(), Height: h.ToMM()}
		if c.Landscape && size.Width < size.Height {
			size.Width, size.Height = size.Height, size.Width
		}
		return size, nil
	}
	return layout.ResolvePageSize(c.Page, c.Landscape)
}

// Sampler 返回配置对应的抽样策略。
func (c LayoutConfig) Sampler() layout.Sampler {
	if strings.EqualFold(c.Sampling, "first") {
		return layout.FirstNSampler{}
	}
	return layout.RandomSampler{Seed: c.Seed}
}

// SheetOptions 把配置转换为排版参数；调用方需要再填入 Typesetter。
func (c LayoutConfig) SheetOptions() (layout.SheetOptions, error) {
	if err := c.Validate(); err != nil {
		return layout.SheetOptions{}, err
	}
	size, _ := c.PageSize()
	margin, _ := layout.ParseMargin(c.Margin)
	return layout.SheetOptions{
		PageWidth:    size.Width,
		PageHeight:   size.Height,
		Margin:       margin,
		Font:         fontResource("Body", c.Font, "regular"),
		HeaderFont:   fontResource("Header", c.HeaderFont, "bold"),
		FontSize:     c.mm(c.FontSize),
		LineFactor:   c.LineHeight,
		CellPadding:  c.mm(c.CellPadding),
		MinColumn:    c.mm(c.MinColumn),
		MaxColumn:    c.mm(c.MaxColumn),
		SampleSize:   c.SampleSize,
		Sampler:      c.Sampler(),
		RepeatHeader: c.RepeatHeader,
	}, nil
}

func (c LayoutConfig) mm(v string) float64 { return layout.ParseRawLengthStr(v).ToMM() }

func fontResource(name, src, style string) layout.FontResource {
	if src == "" {
		src = "embed:" + style
	}
	return layout.FontResource{Name: name, Src: src, Style: style}
}
