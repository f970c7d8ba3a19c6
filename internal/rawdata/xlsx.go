package rawdata

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// readXLSX 读取 Excel 工作簿的第一个工作表，首行为列名
func readXLSX(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	columns := rows[0]
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}

	// excelize 会省略行尾空单元格，补齐到列数
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		padded := make([]string, len(columns))
		copy(padded, row)
		data = append(data, padded)
	}
	return columns, data, nil
}
