package canvasrenderer

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// 每个字符 1mm，方便按字符数推算断行位置。
func runeWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) }

func contents(t *testing.T, content string, width float64, wrap string) []string {
	t.Helper()
	var out []string
	for _, l := range greedyWrap(content, width, runeWidth, wrap) {
		if width > 0 && wrap != "nowrap" {
			assert.LessOrEqual(t, l.Width, width, "line %q", l.Content)
		}
		out = append(out, l.Content)
	}
	return out
}

func TestGreedyWrap(t *testing.T) {
	cases := []struct {
		name    string
		content string
		width   float64
		wrap    string
		want    []string
	}{
		{"fits", "abc def", 10, "", []string{"abc def"}},
		{"breaks at space", "abc def", 3, "", []string{"abc", "def"}},
		// 行宽恰好等于列宽且紧跟显式换行时不产生空行
		{"equal width then newline", "abcd\nefgh", 4, "", []string{"abcd", "efgh"}},
		{"blank line kept", "a\n\nb", 4, "", []string{"a", "", "b"}},
		{"long token split", "abcdefghij", 4, "", []string{"abcd", "efgh", "ij"}},
		{"anywhere behaves like default", "12345 6", 4, "anywhere", []string{"1234", "5 6"}},
		{"nowrap", "a b c d\ne", 2, "nowrap", []string{"a b c d", "e"}},
		{"break-word", "ab cdef", 3, "break-word", []string{"ab", "cde", "f"}},
		{"unbounded", "one two three", 0, "", []string{"one two three"}},
		{"empty", "", 5, "", []string{""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, contents(t, tc.content, tc.width, tc.wrap))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"ab", "  ", "c", "\n", "d"}, tokenize("ab  c\r\nd"))
}
