package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/quire/layout"
)

// widthFunc 返回文本宽度（mm）。
type widthFunc func(string) float64

func faceWidth(face *canvas.FontFace) widthFunc {
	return func(s string) float64 { return face.TextWidth(s) }
}

// greedyWrap 按 wrap 策略把 content 拆成不超过 width 的行：
// nowrap 只按显式换行拆分；break-word 逐字符切分；其余在空白处断行，单词过长时在词内拆分。
func greedyWrap(content string, width float64, measure widthFunc, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}
	switch wrap {
	case "nowrap":
		parts := strings.Split(strings.ReplaceAll(content, "\r", ""), "\n")
		lines := make([]layout.TextLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, layout.TextLine{Content: p, Width: measure(p)})
		}
		return lines
	case "break-word":
		return wrapRunes(content, limit, measure)
	}

	lb := &lineBuilder{measure: measure}
	for _, token := range tokenize(content) {
		if token == "\n" {
			lb.emit(true)
			continue
		}
		tw := measure(token)
		if lb.width > 0 && lb.width+tw > limit {
			lb.emit(false)
			if strings.TrimSpace(token) == "" {
				continue // 行首空白丢弃
			}
		}
		if tw <= limit {
			lb.add(token)
			continue
		}
		for _, chunk := range splitByWidth(token, limit, measure) {
			cw := measure(chunk)
			if lb.width > 0 && lb.width+cw > limit {
				lb.emit(false)
			}
			lb.add(chunk)
		}
	}
	lb.emit(true)
	return lb.lines
}

type lineBuilder struct {
	measure widthFunc
	buf     strings.Builder
	width   float64
	lines   []layout.TextLine
}

func (b *lineBuilder) add(s string) {
	b.buf.WriteString(s)
	b.width = b.measure(b.buf.String())
}

// emit 输出当前行。force 为 true 时即使为空也输出（显式换行产生的空行）。
func (b *lineBuilder) emit(force bool) {
	if b.buf.Len() == 0 {
		if force {
			b.lines = append(b.lines, layout.TextLine{})
		}
		return
	}
	text := strings.TrimRightFunc(b.buf.String(), unicode.IsSpace)
	b.lines = append(b.lines, layout.TextLine{Content: text, Width: b.measure(text)})
	b.buf.Reset()
	b.width = 0
}

func wrapRunes(content string, limit float64, measure widthFunc) []layout.TextLine {
	lb := &lineBuilder{measure: measure}
	for _, r := range content {
		switch r {
		case '\r':
			continue
		case '\n':
			lb.emit(true)
			continue
		}
		s := string(r)
		if lb.width > 0 && lb.width+measure(s) > limit {
			lb.emit(false)
		}
		lb.add(s)
	}
	lb.emit(true)
	return lb.lines
}

// tokenize 把文本拆成交替的空白/非空白片段，显式换行单独成为 "\n"。
func tokenize(s string) []string {
	var tokens []string
	var buf strings.Builder
	lastSpace := false
	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}
	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastSpace = false
			continue
		}
		space := unicode.IsSpace(r)
		if buf.Len() > 0 && space != lastSpace {
			flush()
		}
		lastSpace = space
		buf.WriteRune(r)
	}
	flush()
	return tokens
}

func splitByWidth(token string, limit float64, measure widthFunc) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var cur []rune
	for _, r := range token {
		cur = append(cur, r)
		if len(cur) > 1 && measure(string(cur)) > limit {
			parts = append(parts, string(cur[:len(cur)-1]))
			cur = []rune{r}
		}
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}
