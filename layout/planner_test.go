package layout

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planOpts(ts *stubTypesetter, avail float64) PlanOptions {
	return PlanOptions{
		Measurer:  ts,
		Font:      FontResource{Name: "Body"},
		FontSize:  2, // 每个字符 1mm
		Available: avail,
		Padding:   2,
		Min:       2,
		Max:       60,
		Sampler:   FirstNSampler{},
	}
}

func TestPlanColumnsFillsAvailableWidth(t *testing.T) {
	sheet := mustSheet("s", []string{"id", "name", "description"},
		[]string{"1", "bolt", "a short description"},
		[]string{"22", "hex nut", "another one that is a little longer"},
	)
	for _, avail := range []float64{40, 90, 150, 179.5} {
		plan := PlanColumns(sheet, planOpts(&stubTypesetter{}, avail))
		require.Equal(t, 3, plan.Len())
		assert.InDelta(t, avail, plan.Total(), 1e-6, "avail=%v", avail)
	}
}

func TestPlanColumnsNoColumns(t *testing.T) {
	sheet := mustSheet("s", nil)
	plan := PlanColumns(sheet, planOpts(&stubTypesetter{}, 100))
	assert.Equal(t, 0, plan.Len())
	assert.Zero(t, plan.Total())
}

func TestPlanColumnsZeroSignalSplitsEqually(t *testing.T) {
	sheet := mustSheet("s", []string{"", "", "", ""})
	plan := PlanColumns(sheet, planOpts(&stubTypesetter{}, 100))
	assert.Equal(t, []float64{25, 25, 25, 25}, plan.Widths)
}

func TestPlanColumnsSingleColumnTakesAll(t *testing.T) {
	sheet := mustSheet("s", []string{"only"}, []string{strings.Repeat("x", 500)})
	plan := PlanColumns(sheet, planOpts(&stubTypesetter{}, 170))
	assert.Equal(t, []float64{170}, plan.Widths)
}

func TestPlanColumnsLongColumnClampsToMax(t *testing.T) {
	sheet := mustSheet("s", []string{"a", "b", "c"},
		[]string{"x", "xx", strings.Repeat("y", 200)},
	)
	plan := PlanColumns(sheet, planOpts(&stubTypesetter{}, 150))

	assert.InDelta(t, 60, plan.Widths[2], 1e-9)
	assert.InDelta(t, 150, plan.Total(), 1e-6)
	// 剩余宽度按 desired（raw+padding = 3 与 4）的比例分配
	assert.InDelta(t, 3.0/4.0, plan.Widths[0]/plan.Widths[1], 1e-9)
	for _, w := range plan.Widths {
		assert.GreaterOrEqual(t, w, 2.0)
		assert.LessOrEqual(t, w, 60+1e-9)
	}
}

func TestPlanColumnsKeepsBoundsWhenFeasible(t *testing.T) {
	sheet := mustSheet("s", []string{"a", "bb", "ccc", "dddd"},
		[]string{"1", "22", strings.Repeat("3", 80), strings.Repeat("4", 5)},
	)
	opts := planOpts(&stubTypesetter{}, 120)
	opts.Min = 15
	opts.Max = 50
	plan := PlanColumns(sheet, opts)
	assert.InDelta(t, 120, plan.Total(), 1e-6)
	for i, w := range plan.Widths {
		assert.GreaterOrEqual(t, w, 15-1e-9, "column %d", i)
		assert.LessOrEqual(t, w, 50+1e-9, "column %d", i)
	}
}

func TestPlanColumnsInfeasibleBoundsStillFill(t *testing.T) {
	sheet := mustSheet("s", []string{"a", "b"}, []string{"xxxx", "yy"})
	opts := planOpts(&stubTypesetter{}, 200)
	opts.Max = 30 // 2*30 < 200
	plan := PlanColumns(sheet, opts)
	assert.InDelta(t, 200, plan.Total(), 1e-6)
}

func TestPlanColumnsMeasurementFailureFallsBackToMin(t *testing.T) {
	sheet := mustSheet("s", []string{"name", "broken", "notes"},
		[]string{"alpha", "bad\x00glyph", "some notes here"},
	)
	opts := planOpts(&stubTypesetter{}, 100)
	opts.Min = 10
	plan := PlanColumns(sheet, opts)

	require.Len(t, plan.Fallback, 3)
	assert.Equal(t, []bool{false, true, false}, plan.Fallback)
	assert.Zero(t, plan.Raw[1])
	assert.InDelta(t, 10, plan.Widths[1], 1e-9)
	assert.InDelta(t, 100, plan.Total(), 1e-6)
}

func TestSettleLeavesFallbackColumnsAtMin(t *testing.T) {
	widths := []float64{40, 10, 20}
	settle(widths, []bool{false, true, false}, 80, 10, 40)
	assert.InDeltaSlice(t, []float64{40, 10, 30}, widths, 1e-9)

	// 其余列都到了上限，误差只能交给测量失败的列
	widths = []float64{40, 10, 25}
	settle(widths, []bool{false, true, false}, 100, 10, 40)
	assert.InDeltaSlice(t, []float64{40, 20, 40}, widths, 1e-9)
}

func TestPlanColumnsFallbackYieldsOnlyWhenOthersAtMax(t *testing.T) {
	sheet := mustSheet("s", []string{"a", "b", "c"},
		[]string{strings.Repeat("x", 200), "bad\x00glyph", strings.Repeat("y", 200)},
	)
	opts := planOpts(&stubTypesetter{}, 100)
	opts.Min, opts.Max = 10, 40
	plan := PlanColumns(sheet, opts)

	assert.Equal(t, []bool{false, true, false}, plan.Fallback)
	assert.InDeltaSlice(t, []float64{40, 20, 40}, plan.Widths, 1e-6)
	assert.InDelta(t, 100, plan.Total(), 1e-6)
}

func TestPlanColumnsSkipsMissingAndBoundsSample(t *testing.T) {
	rows := make([][]string, 0, 500)
	for i := 0; i < 500; i++ {
		rows = append(rows, []string{fmt.Sprint(i)})
	}
	rows = append(rows, []string{""})
	sheet := mustSheet("s", []string{"n"}, rows...)

	ts := &stubTypesetter{}
	opts := planOpts(ts, 100)
	opts.SampleSize = 50
	PlanColumns(sheet, opts)
	assert.Equal(t, 1+50, ts.calls, "表头 + 样本")
}

func TestSamplers(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, FirstNSampler{}.Sample(3, 10, 0))
	assert.Equal(t, []int{0, 1}, FirstNSampler{}.Sample(10, 2, 0))

	a := RandomSampler{Seed: 7}.Sample(1000, 200, 3)
	b := RandomSampler{Seed: 7}.Sample(1000, 200, 3)
	assert.Equal(t, a, b)
	require.Len(t, a, 200)
	assert.True(t, slices.IsSorted(a))
	assert.Len(t, slices.Compact(slices.Clone(a)), 200, "不放回抽样")
	for _, i := range a {
		assert.True(t, i >= 0 && i < 1000)
	}
	assert.NotEqual(t, a, RandomSampler{Seed: 8}.Sample(1000, 200, 3))
	assert.Equal(t, []int{0, 1, 2, 3}, RandomSampler{Seed: 1}.Sample(4, 200, 0))
}
