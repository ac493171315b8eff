package dataset

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

func loadParquet(name string, data []byte) (*Dataset, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data), file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("创建 parquet reader 失败: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("创建 arrow reader 失败: %w", err)
	}
	table, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("读取 parquet 数据失败: %w", err)
	}
	defer table.Release()

	numRows := int(table.NumRows())
	numCols := int(table.NumCols())
	columns := make([]string, numCols)
	rows := make([][]Cell, numRows)
	for r := range rows {
		rows[r] = make([]Cell, numCols)
	}
	for c := 0; c < numCols; c++ {
		columns[c] = table.Schema().Field(c).Name
		r := 0
		for _, chunk := range table.Column(c).Data().Chunks() {
			for i := 0; i < chunk.Len() && r < numRows; i++ {
				rows[r][c] = arrowCell(chunk, i)
				r++
			}
		}
	}
	sheet, err := NewSheet(sheetName(name), columns, rows)
	if err != nil {
		return nil, err
	}
	return &Dataset{Sheets: []*Sheet{sheet}}, nil
}

// arrowCell 把 arrow 数组中的一个元素转换为 Cell，null 一律视为缺失值。
func arrowCell(arr arrow.Array, i int) Cell {
	if arr.IsNull(i) {
		return Missing()
	}
	switch a := arr.(type) {
	case *array.String:
		return Text(a.Value(i))
	case *array.LargeString:
		return Text(a.Value(i))
	case *array.Int64:
		return Number(float64(a.Value(i)))
	case *array.Int32:
		return Number(float64(a.Value(i)))
	case *array.Int16:
		return Number(float64(a.Value(i)))
	case *array.Int8:
		return Number(float64(a.Value(i)))
	case *array.Uint64:
		return Number(float64(a.Value(i)))
	case *array.Uint32:
		return Number(float64(a.Value(i)))
	case *array.Float64:
		return Number(a.Value(i))
	case *array.Float32:
		return Number(float64(a.Value(i)))
	case *array.Date32:
		return Date(a.Value(i).ToTime())
	case *array.Date64:
		return Date(a.Value(i).ToTime())
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return Date(a.Value(i).ToTime(unit))
	default:
		return Text(arr.ValueStr(i))
	}
}
