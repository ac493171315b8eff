package document

import (
	"fmt"
	"image"
	"slices"

	"github.com/ByLCY/quire/errs"
	"github.com/ByLCY/quire/layout"
)

// Source 是可以被合并的输入：已排好的页面、已有文档或一张图片。
type Source interface {
	// SourceName 用于日志与错误信息。
	SourceName() string
	contents() ([]layout.Page, map[string][]byte, error)
}

// PagesSource 是 layout 生成的页面，Sources 为页面中引用到的 PDF。
type PagesSource struct {
	Name    string
	Pages   []layout.Page
	Sources map[string][]byte
}

func (s PagesSource) SourceName() string { return s.Name }

func (s PagesSource) contents() ([]layout.Page, map[string][]byte, error) {
	return s.Pages, s.Sources, nil
}

// DocumentSource 把整个文档原样拼入。
type DocumentSource struct {
	Name string
	Doc  *Document
}

func (s DocumentSource) SourceName() string { return s.Name }

func (s DocumentSource) contents() ([]layout.Page, map[string][]byte, error) {
	if s.Doc == nil {
		return nil, nil, fmt.Errorf("来源 %s 的文档为空", s.Name)
	}
	return s.Doc.Pages, s.Doc.Sources, nil
}

// ImageSource 生成单页文档：页面尺寸等于图片像素数（按 pt 计），图片铺满整页。
type ImageSource struct {
	Name  string
	Image image.Image
}

func (s ImageSource) SourceName() string { return s.Name }

func (s ImageSource) contents() ([]layout.Page, map[string][]byte, error) {
	if s.Image == nil {
		return nil, nil, fmt.Errorf("来源 %s 的图片为空", s.Name)
	}
	return []layout.Page{ImagePage(s.Image, s.Name)}, nil, nil
}

// ImagePage 返回一张只包含 img 的页面，每个像素对应 1pt。
func ImagePage(img image.Image, name string) layout.Page {
	b := img.Bounds()
	w := float64(b.Dx()) * layout.PtToMm
	h := float64(b.Dy()) * layout.PtToMm
	return layout.Page{
		Width:  w,
		Height: h,
		Images: []layout.ImageBox{{Path: name, Width: w, Height: h, Opacity: 1, Image: img}},
	}
}

// Placement 指定来源在输出中的位置（从 1 开始）。
type Placement struct {
	Source   Source
	Position int
}

// MergeSpec 是一次合并请求。Positions 必须恰好是 1..N 的一个排列。
type MergeSpec struct {
	Placements []Placement
	Meta       layout.DocumentMeta
}

// ValidateOrder 检查位置是否构成 1..N 的排列，不满足时返回 *errs.OrderingError。
func ValidateOrder(spec MergeSpec) error {
	positions := make([]int, len(spec.Placements))
	for i, p := range spec.Placements {
		positions[i] = p.Position
	}
	return ValidatePositions(positions)
}

// ValidatePositions 与 ValidateOrder 相同，但只看位置本身，可以在读取来源之前调用。
func ValidatePositions(positions []int) error {
	n := len(positions)
	seen := make(map[int]int, n)
	oe := &errs.OrderingError{Count: n}
	for _, pos := range positions {
		if pos < 1 || pos > n {
			oe.OutOfRange = append(oe.OutOfRange, pos)
			continue
		}
		seen[pos]++
		if seen[pos] == 2 {
			oe.Duplicates = append(oe.Duplicates, pos)
		}
	}
	for pos := 1; pos <= n; pos++ {
		if seen[pos] == 0 {
			oe.Missing = append(oe.Missing, pos)
		}
	}
	if n == 0 || len(oe.Missing) > 0 || len(oe.Duplicates) > 0 || len(oe.OutOfRange) > 0 {
		return oe
	}
	return nil
}

// Assemble 按位置顺序拼接所有来源。顺序无效时在读取任何来源之前返回错误。
// 输入不会被修改；引用同一 id 但内容不同的 PDF 会被重新编号。
func Assemble(spec MergeSpec) (*Document, error) {
	if err := ValidateOrder(spec); err != nil {
		return nil, err
	}
	ordered := slices.Clone(spec.Placements)
	slices.SortFunc(ordered, func(a, b Placement) int { return a.Position - b.Position })

	doc := New(spec.Meta)
	for _, p := range ordered {
		if p.Source == nil {
			return nil, fmt.Errorf("位置 %d 的来源为空", p.Position)
		}
		pages, sources, err := p.Source.contents()
		if err != nil {
			return nil, err
		}
		renamed := map[string]string{}
		for id := range referencedSources(pages) {
			data, ok := sources[id]
			if !ok {
				return nil, fmt.Errorf("来源 %s 引用了不存在的 PDF %q", p.Source.SourceName(), id)
			}
			target := id
			for i := 2; ; i++ {
				if old, taken := doc.Sources[target]; !taken || slices.Equal(old, data) {
					break
				}
				target = fmt.Sprintf("%s#%d", id, i)
			}
			if err := doc.AddSource(target, data); err != nil {
				return nil, err
			}
			if target != id {
				renamed[id] = target
			}
		}
		for _, page := range pages {
			if page.Embedded != nil {
				ref := *page.Embedded
				if to, ok := renamed[ref.Source]; ok {
					ref.Source = to
				}
				page.Embedded = &ref
			}
			if err := doc.AppendPages(page); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}
