package layout

import (
	"encoding/json"
	"os"
)

// DebugDump 是调试 JSON 的顶层结构。
type DebugDump struct {
	Meta  DocumentMeta `json:"meta"`
	Pages []Page       `json:"pages"`
}

// WriteDebugJSON 将页面模型输出为 JSON，便于检查列宽与分页。
func WriteDebugJSON(meta DocumentMeta, pages []Page, path string) error {
	data, err := json.MarshalIndent(DebugDump{Meta: meta, Pages: pages}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
