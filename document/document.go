// Package document 保存分页文档的内存模型，并提供合并、栅格化与页码截取。
//
// 文档中的页面分两种：由 layout 排好的页面，以及对已有 PDF 某一页的整页引用
// （layout.Page.Embedded）。被引用 PDF 的原始字节保存在 Sources 中，按 id 索引。
package document

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/ByLCY/quire/layout"
)

// ErrFinalized 表示文档已经交给编码器，不能再追加内容。
var ErrFinalized = errors.New("文档已定稿，不能再修改")

// Document 是有序的页面序列。
type Document struct {
	Pages   []layout.Page
	Meta    layout.DocumentMeta
	Sources map[string][]byte

	finalized bool
}

// New 创建一个空文档。
func New(meta layout.DocumentMeta) *Document {
	return &Document{Meta: meta, Sources: map[string][]byte{}}
}

func (d *Document) PageCount() int { return len(d.Pages) }

// Finalize 冻结文档。重复调用无副作用。
func (d *Document) Finalize() { d.finalized = true }

func (d *Document) Finalized() bool { return d.finalized }

// AppendPages 在末尾追加页面。
func (d *Document) AppendPages(pages ...layout.Page) error {
	if d.finalized {
		return ErrFinalized
	}
	d.Pages = append(d.Pages, pages...)
	return nil
}

// AddSource 登记一个被引用的 PDF。同一 id 只能对应同一份内容。
func (d *Document) AddSource(id string, data []byte) error {
	if d.finalized {
		return ErrFinalized
	}
	if d.Sources == nil {
		d.Sources = map[string][]byte{}
	}
	if old, ok := d.Sources[id]; ok && !slices.Equal(old, data) {
		return fmt.Errorf("来源 id %q 已被另一份内容占用", id)
	}
	d.Sources[id] = data
	return nil
}

// Clone 返回一份未定稿的副本；页面切片与来源表是新的，来源字节共享（只读）。
func (d *Document) Clone() *Document {
	out := &Document{
		Pages:   slices.Clone(d.Pages),
		Meta:    d.Meta,
		Sources: maps.Clone(d.Sources),
	}
	out.Meta.Keywords = slices.Clone(d.Meta.Keywords)
	if out.Sources == nil {
		out.Sources = map[string][]byte{}
	}
	return out
}

// referencedSources 返回 pages 中引用到的来源 id。
func referencedSources(pages []layout.Page) map[string]bool {
	ids := map[string]bool{}
	for _, p := range pages {
		if p.Embedded != nil {
			ids[p.Embedded.Source] = true
		}
	}
	return ids
}
