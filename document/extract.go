package document

import (
	"slices"

	"github.com/ByLCY/quire/errs"
)

// PageRange 是从 1 开始、两端包含的页码范围。
type PageRange struct {
	From int
	To   int
}

// Validate 检查 1 ≤ From ≤ To ≤ pageCount。
func (r PageRange) Validate(pageCount int) error {
	if r.From < 1 || r.From > r.To || r.To > pageCount {
		return &errs.InvalidRangeError{From: r.From, To: r.To, PageCount: pageCount}
	}
	return nil
}

// Extract 结构化复制 [From, To] 范围内的页面，不重新渲染；只保留被引用的来源。
func Extract(doc *Document, r PageRange) (*Document, error) {
	if err := r.Validate(doc.PageCount()); err != nil {
		return nil, err
	}
	out := New(doc.Meta)
	out.Meta.Keywords = slices.Clone(doc.Meta.Keywords)
	out.Pages = slices.Clone(doc.Pages[r.From-1 : r.To])
	for id := range referencedSources(out.Pages) {
		out.Sources[id] = doc.Sources[id]
	}
	return out, nil
}
