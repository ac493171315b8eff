package layout

import (
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		back := pt * PtToMm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt back=%g diff=%g", pt, back, diff)
		}
	}
}

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		mm   float64
		unit Unit
	}{
		{"1in", 25.4, UnitIN},
		{"2.54cm", 25.4, UnitCM},
		{"12pt", 12 * PtToMm, UnitPT},
		{" 10MM ", 10, UnitMM},
		{"7", 7, UnitNone},
	}
	for _, c := range cases {
		l, err := ParseLength(c.in)
		if err != nil {
			t.Fatalf("%q: 意外错误 %v", c.in, err)
		}
		if l.Unit != c.unit {
			t.Fatalf("%q: 单位期望 %v，实际 %v", c.in, c.unit, l.Unit)
		}
		if got := l.ToMM(); math.Abs(got-c.mm) > 1e-9 {
			t.Fatalf("%q: 期望 %gmm，实际 %g", c.in, c.mm, got)
		}
	}
	for _, bad := range []string{"", "abc", "-3mm", "12px"} {
		if _, err := ParseLength(bad); err == nil {
			t.Fatalf("%q 应该解析失败", bad)
		}
	}
	if l := ParseRawLengthStr("oops"); !l.IsZero() {
		t.Fatalf("宽松解析失败时应返回零值，得到 %v", l)
	}
}

func TestParseMargin(t *testing.T) {
	m, err := ParseMargin("10mm 20mm 30mm")
	if err != nil {
		t.Fatal(err)
	}
	want := Margin{Top: 10, Right: 20, Bottom: 30, Left: 20}
	if m != want {
		t.Fatalf("期望 %+v，实际 %+v", want, m)
	}
	m, err = ParseMargin("0.5in")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(m.Left-12.7) > 1e-9 || m.Left != m.Top {
		t.Fatalf("0.5in 四边应为 12.7mm，实际 %+v", m)
	}
	if _, err := ParseMargin("1mm 2mm 3mm 4mm 5mm"); err == nil {
		t.Fatal("5 个值应报错")
	}
}

func TestResolvePageSize(t *testing.T) {
	s, err := ResolvePageSize("a4", true)
	if err != nil {
		t.Fatal(err)
	}
	if s.Width != 297 || s.Height != 210 {
		t.Fatalf("A4 横向期望 297x210，实际 %+v", s)
	}
	if _, err := ResolvePageSize("B9", false); err == nil {
		t.Fatal("未知纸张应报错")
	}
}
