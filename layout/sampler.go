package layout

import "math/rand/v2"

// DefaultSampleSize 是每列参与测量的最大单元格数量。
const DefaultSampleSize = 200

// Sampler 从 candidates 个候选下标（0..candidates-1）中挑出至多 n 个。
// 返回的下标按升序排列，同一输入必须得到同一结果。
type Sampler interface {
	Sample(candidates, n int, column int) []int
}

// FirstNSampler 取前 n 个候选。
type FirstNSampler struct{}

func (FirstNSampler) Sample(candidates, n int, _ int) []int {
	if n > candidates {
		n = candidates
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// RandomSampler 以 Seed 和列号派生随机源，不放回地抽取 n 个候选。
type RandomSampler struct {
	Seed uint64
}

func (s RandomSampler) Sample(candidates, n int, column int) []int {
	if n >= candidates {
		return FirstNSampler{}.Sample(candidates, candidates, column)
	}
	rng := rand.New(rand.NewPCG(s.Seed, uint64(column)))
	picked := make([]bool, candidates)
	// Floyd 抽样
	for j := candidates - n; j < candidates; j++ {
		k := rng.IntN(j + 1)
		if picked[k] {
			k = j
		}
		picked[k] = true
	}
	out := make([]int, 0, n)
	for i, ok := range picked {
		if ok {
			out = append(out, i)
		}
	}
	return out
}
