package layout

import (
	"errors"
	"math"

	"github.com/ByLCY/quire/dataset"
)

// PlanOptions 描述列宽规划的输入。长度与字号单位均为 mm。
type PlanOptions struct {
	Measurer   Measurer
	Font       FontResource
	FontSize   float64
	Available  float64
	Padding    float64
	Min        float64
	Max        float64 // <=0 表示不设上限
	SampleSize int     // <=0 时使用 DefaultSampleSize
	Sampler    Sampler // nil 时使用 RandomSampler{}
}

// ColumnPlan 为每一列给出最终宽度。Raw 为测量得到的自然宽度，
// Fallback[i] 为 true 表示该列测量失败、宽度退回到最小值。
type ColumnPlan struct {
	Widths   []float64 `json:"widths"`
	Raw      []float64 `json:"raw"`
	Fallback []bool    `json:"fallback,omitempty"`
}

func (p ColumnPlan) Len() int { return len(p.Widths) }

func (p ColumnPlan) Total() float64 {
	sum := 0.0
	for _, w := range p.Widths {
		sum += w
	}
	return sum
}

const planEpsilon = 1e-9

// PlanColumns 计算 sheet 的列宽。测量错误只影响出错的列，不会返回给调用方。
func PlanColumns(sheet *dataset.Sheet, opts PlanOptions) ColumnPlan {
	n := sheet.NumColumns()
	if n == 0 {
		return ColumnPlan{}
	}
	sampleSize := opts.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	sampler := opts.Sampler
	if sampler == nil {
		sampler = RandomSampler{}
	}
	maxW := opts.Max
	if maxW <= 0 {
		maxW = math.Inf(1)
	}

	plan := ColumnPlan{
		Widths:   make([]float64, n),
		Raw:      make([]float64, n),
		Fallback: make([]bool, n),
	}
	rawSum := 0.0
	for c := 0; c < n; c++ {
		raw, err := measureColumn(sheet, c, opts, sampler, sampleSize)
		if err != nil {
			plan.Fallback[c] = true
			raw = 0
		}
		plan.Raw[c] = raw
		rawSum += raw
	}

	switch {
	case rawSum <= planEpsilon:
		for c := range plan.Widths {
			plan.Widths[c] = opts.Available / float64(n)
		}
	case n == 1:
		plan.Widths[0] = opts.Available
	default:
		desired := make([]float64, n)
		for c, raw := range plan.Raw {
			desired[c] = clamp(raw+opts.Padding, opts.Min, maxW)
		}
		plan.Widths = fill(desired, plan.Fallback, opts.Available, opts.Min, maxW)
	}
	if !hasFallback(plan.Fallback) {
		plan.Fallback = nil
	}
	return plan
}

func measureColumn(sheet *dataset.Sheet, c int, opts PlanOptions, sampler Sampler, sampleSize int) (float64, error) {
	width := 0.0
	measure := func(text string) error {
		if opts.Measurer == nil {
			return &MeasurementError{Text: text, Font: opts.Font.Name, Err: errors.New("未配置测量器")}
		}
		w, err := opts.Measurer.TextWidth(text, opts.Font, opts.FontSize)
		if err != nil {
			return err
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return &MeasurementError{Text: text, Font: opts.Font.Name, Err: errors.New("宽度无效")}
		}
		width = math.Max(width, w)
		return nil
	}
	if err := measure(sheet.Columns[c]); err != nil {
		return 0, err
	}

	var candidates []int
	for r := 0; r < sheet.NumRows(); r++ {
		if !sheet.Cell(r, c).IsMissing() {
			candidates = append(candidates, r)
		}
	}
	for _, i := range sampler.Sample(len(candidates), sampleSize, c) {
		if err := measure(sheet.Cell(candidates[i], c).Render()); err != nil {
			return 0, err
		}
	}
	return width, nil
}

// fill 按比例把 desired 拉伸到恰好 avail。可行时（n*min <= avail <= n*max）
// 每列落在 [min, max] 内，越界的列被固定在边界上，余量在其余列之间按比例分配；
// 测量失败的列固定为 min。不可行时放弃边界，只做纯比例缩放。
func fill(desired []float64, fixedMin []bool, avail, minW, maxW float64) []float64 {
	n := len(desired)
	out := make([]float64, n)
	if float64(n)*minW > avail+planEpsilon || float64(n)*maxW < avail-planEpsilon {
		return scale(desired, avail)
	}

	pinned := make([]bool, n)
	for c := range desired {
		if c < len(fixedMin) && fixedMin[c] {
			out[c] = minW
			pinned[c] = true
		}
	}
	for iter := 0; iter < n; iter++ {
		remaining := avail
		freeSum := 0.0
		for c := range desired {
			if pinned[c] {
				remaining -= out[c]
			} else {
				freeSum += desired[c]
			}
		}
		if freeSum <= planEpsilon {
			break
		}
		k := remaining / freeSum
		over, under := false, false
		for c := range desired {
			if pinned[c] {
				continue
			}
			out[c] = desired[c] * k
			over = over || out[c] > maxW+planEpsilon
			under = under || out[c] < minW-planEpsilon
		}
		if !over && !under {
			break
		}
		// 先固定超出上限的列，剩余空间变大后再检查下限
		for c := range desired {
			if pinned[c] {
				continue
			}
			if over && out[c] > maxW+planEpsilon {
				out[c], pinned[c] = maxW, true
			} else if !over && out[c] < minW-planEpsilon {
				out[c], pinned[c] = minW, true
			}
		}
	}
	settle(out, fixedMin, avail, minW, maxW)
	return out
}

// settle 把剩余误差按各列可调整空间分摊，保证总和等于 avail。
// 测量失败的列保持 min，只有其余列都已到边界时才由它们吸收剩下的误差。
func settle(widths []float64, fixedMin []bool, avail, minW, maxW float64) {
	residual := avail
	for _, w := range widths {
		residual -= w
	}
	fixed := func(c int) bool { return c < len(fixedMin) && fixedMin[c] }
	residual = spread(widths, residual, minW, maxW, func(c int) bool { return !fixed(c) })
	spread(widths, residual, minW, maxW, fixed)
}

// spread 把 residual 分给 use 选中的列，每列不越过 [minW, maxW]，返回分不下的部分。
func spread(widths []float64, residual, minW, maxW float64, use func(int) bool) float64 {
	if math.Abs(residual) <= planEpsilon {
		return residual
	}
	room := make([]float64, len(widths))
	total, capacity := 0.0, 0.0
	for c, w := range widths {
		if !use(c) {
			continue
		}
		if residual > 0 {
			room[c] = maxW - w
		} else {
			room[c] = w - minW
		}
		capacity += max(room[c], 0)
		if math.IsInf(room[c], 1) {
			room[c] = w // 无上限时按现有宽度比例分摊
		}
		room[c] = max(room[c], 0)
		total += room[c]
	}
	if total <= planEpsilon {
		return residual
	}
	share := residual
	if math.Abs(share) > capacity {
		share = math.Copysign(capacity, residual)
	}
	for c := range widths {
		widths[c] += share * room[c] / total
	}
	return residual - share
}

func scale(desired []float64, avail float64) []float64 {
	sum := 0.0
	for _, d := range desired {
		sum += d
	}
	out := make([]float64, len(desired))
	for c, d := range desired {
		if sum <= planEpsilon {
			out[c] = avail / float64(len(desired))
		} else {
			out[c] = d * avail / sum
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func hasFallback(fb []bool) bool {
	for _, f := range fb {
		if f {
			return true
		}
	}
	return false
}
