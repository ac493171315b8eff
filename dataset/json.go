package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// loadJSON 接受对象数组（或单个对象），列顺序为各键首次出现的顺序。
func loadJSON(name string, data []byte) (*Dataset, error) {
	var records []json.RawMessage
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		records = []json.RawMessage{trimmed}
	} else if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("解析 JSON 失败: %w", err)
	}

	var columns []string
	index := map[string]int{}
	var parsed []map[string]Cell
	for i, rec := range records {
		obj, keys, err := decodeObject(rec)
		if err != nil {
			return nil, fmt.Errorf("第 %d 条记录: %w", i+1, err)
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
		parsed = append(parsed, obj)
	}

	rows := make([][]Cell, len(parsed))
	for i, obj := range parsed {
		row := make([]Cell, len(columns))
		for c, name := range columns {
			if cell, ok := obj[name]; ok {
				row[c] = cell
			} else {
				row[c] = Missing()
			}
		}
		rows[i] = row
	}
	sheet, err := NewSheet(sheetName(name), columns, rows)
	if err != nil {
		return nil, err
	}
	return &Dataset{Sheets: []*Sheet{sheet}}, nil
}

func decodeObject(raw json.RawMessage) (map[string]Cell, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("期望 JSON 对象，得到 %v", tok)
	}
	out := map[string]Cell{}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("期望字符串键，得到 %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, seen := out[key]; !seen {
			keys = append(keys, key)
		}
		out[key] = jsonCell(v)
	}
	return out, keys, nil
}

func jsonCell(v any) Cell {
	switch val := v.(type) {
	case nil:
		return Missing()
	case string:
		return Text(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return Number(f).WithDisplay(val.String())
		}
		return Text(val.String())
	case bool:
		return Text(strconv.FormatBool(val))
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return Text(fmt.Sprint(val))
		}
		return Text(string(b))
	}
}
