// Package errs 定义对调用方可见的错误类型。
//
// 结构类错误（排序、页码范围、栅格化失败、来源解析失败）一律立即返回，
// 不产生部分输出；单元格测量失败属于局部可恢复错误，见 layout.MeasurementError。
package errs

import (
	"fmt"
	"sort"
	"strings"
)

// SourceParseError 表示输入来源（数据集、图片或 PDF）无法解析。
type SourceParseError struct {
	Source string // 出错的来源标识，通常是文件名
	Kind   string // dataset / image / document
	Err    error
}

func (e *SourceParseError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "source"
	}
	return fmt.Sprintf("解析 %s %q 失败: %v", kind, e.Source, e.Err)
}

func (e *SourceParseError) Unwrap() error { return e.Err }

// OrderingError 表示合并顺序不是 1..N 的完整排列。
type OrderingError struct {
	Count      int   // 来源数量 N
	Missing    []int // 未被使用的位置
	Duplicates []int // 被重复使用的位置
	OutOfRange []int // 超出 1..N 的位置
}

func (e *OrderingError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "缺少位置 "+joinInts(e.Missing))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, "重复位置 "+joinInts(e.Duplicates))
	}
	if len(e.OutOfRange) > 0 {
		parts = append(parts, "越界位置 "+joinInts(e.OutOfRange))
	}
	if len(parts) == 0 {
		parts = append(parts, "顺序为空")
	}
	return fmt.Sprintf("合并顺序无效（共 %d 个来源）: %s", e.Count, strings.Join(parts, "; "))
}

// InvalidRangeError 表示页码范围不满足 1 ≤ from ≤ to ≤ pageCount。
type InvalidRangeError struct {
	From, To  int
	PageCount int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("页码范围 [%d, %d] 无效，文档共 %d 页", e.From, e.To, e.PageCount)
}

// RasterError 表示某一页在给定 DPI 下渲染失败；Page 为 0 表示参数本身无效。
type RasterError struct {
	Page int
	DPI  int
	Err  error
}

func (e *RasterError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("栅格化失败 (dpi=%d): %v", e.DPI, e.Err)
	}
	return fmt.Sprintf("第 %d 页栅格化失败 (dpi=%d): %v", e.Page, e.DPI, e.Err)
}

func (e *RasterError) Unwrap() error { return e.Err }

func joinInts(vals []int) string {
	sorted := append([]int(nil), vals...)
	sort.Ints(sorted)
	out := make([]string, len(sorted))
	for i, v := range sorted {
		out[i] = fmt.Sprint(v)
	}
	return strings.Join(out, ",")
}
