package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/quire/errs"
)

// Format 表示数据文件的类型。
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
	FormatParquet
	FormatJSON
)

// DetectFormat 根据扩展名判断数据格式。
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".parquet":
		return FormatParquet
	case ".json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// Load 把原始字节解析为 Dataset，name 用于识别格式与报告错误。
// 所有解析失败都以 *errs.SourceParseError 返回。
func Load(name string, data []byte) (*Dataset, error) {
	var (
		ds  *Dataset
		err error
	)
	switch DetectFormat(name) {
	case FormatCSV:
		ds, err = loadCSV(name, data)
	case FormatXLSX:
		ds, err = loadXLSX(name, data)
	case FormatParquet:
		ds, err = loadParquet(name, data)
	case FormatJSON:
		ds, err = loadJSON(name, data)
	default:
		err = fmt.Errorf("%s: %w", filepath.Ext(name), ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, &errs.SourceParseError{Source: name, Kind: "dataset", Err: err}
	}
	ds.Name = name
	return ds, nil
}

// LoadFile 读取并解析 path 指向的数据文件。
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件 %s 失败: %w", path, err)
	}
	return Load(filepath.Base(path), data)
}

func sheetName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
