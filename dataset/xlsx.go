package dataset

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// loadXLSX 读取工作簿中的全部工作表，首行作为表头。
// 单元格的显示文本取自工作簿的数字格式，类型取自原始值。
func loadXLSX(name string, data []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("打开工作簿失败: %w", err)
	}
	defer f.Close()

	ds := &Dataset{}
	for _, sheet := range f.GetSheetList() {
		formatted, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("读取工作表 %s 失败: %w", sheet, err)
		}
		raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("读取工作表 %s 原始值失败: %w", sheet, err)
		}

		var header []string
		var rows [][]Cell
		for r, values := range formatted {
			if r == 0 {
				header = make([]string, len(values))
				for i, v := range values {
					header[i] = strings.TrimSpace(v)
				}
				continue
			}
			row := make([]Cell, len(values))
			for c, display := range values {
				rawValue := display
				if r < len(raw) && c < len(raw[r]) {
					rawValue = raw[r][c]
				}
				cellType := excelize.CellTypeUnset
				if axis, err := excelize.CoordinatesToCellName(c+1, r+1); err == nil {
					cellType, _ = f.GetCellType(sheet, axis)
				}
				row[c] = xlsxCell(cellType, rawValue, display)
			}
			rows = append(rows, row)
		}
		s, err := Normalize(sheet, header, rows)
		if err != nil {
			return nil, err
		}
		ds.Sheets = append(ds.Sheets, s)
	}
	return ds, nil
}

func xlsxCell(cellType excelize.CellType, raw, display string) Cell {
	if raw == "" && display == "" {
		return Missing()
	}
	switch cellType {
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return Date(t).WithDisplay(display)
		}
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeFormula:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			break
		}
		if looksLikeDate(display) {
			if t, err := excelize.ExcelDateToTime(v, false); err == nil {
				return Date(t).WithDisplay(display)
			}
		}
		return Number(v).WithDisplay(display)
	}
	return Text(display)
}

// looksLikeDate 判断数字格式化后的文本是否为日期（原始值为序列号而显示为日期）。
func looksLikeDate(display string) bool {
	if _, err := strconv.ParseFloat(strings.ReplaceAll(display, ",", ""), 64); err == nil {
		return false
	}
	return strings.ContainsAny(display, "-/") && strings.ContainsAny(display, "0123456789")
}
