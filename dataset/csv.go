package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// detectSeparator 统计首行中常见分隔符的出现次数，取最多者，默认逗号。
func detectSeparator(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return ','
	}
	first := sc.Text()
	best, bestCount := ',', 0
	for _, sep := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(first, string(sep)); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

func loadCSV(name string, data []byte) (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.Comma = detectSeparator(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 失败: %w", err)
	}
	var header []string
	var rows [][]Cell
	if len(records) > 0 {
		header = records[0]
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		for _, rec := range records[1:] {
			row := make([]Cell, len(rec))
			for i, field := range rec {
				row[i] = inferCell(field)
			}
			rows = append(rows, row)
		}
	}
	sheet, err := Normalize(sheetName(name), header, rows)
	if err != nil {
		return nil, err
	}
	return &Dataset{Sheets: []*Sheet{sheet}}, nil
}

// inferCell 把文本字段识别为数值、日期或文本；空字段视为缺失值。
func inferCell(field string) Cell {
	s := strings.TrimSpace(field)
	if s == "" {
		return Missing()
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return Number(v).WithDisplay(s)
	}
	for _, layout := range []string{time.DateOnly, time.DateTime, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t).WithDisplay(s)
		}
	}
	return Text(field)
}
