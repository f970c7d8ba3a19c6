package datapackage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"gridpack/internal/model"
)

// readResourceCSV 读取资源 CSV，首行为列名
func readResourceCSV(path string, delimiter rune) ([]string, []model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open resource csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read resource csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("resource csv %s is empty", path)
	}

	columns := records[0]
	rows := make([]model.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(model.Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

// writeResourceCSV 写出资源 CSV，列顺序取自资源定义
func writeResourceCSV(path string, res *model.Resource, delimiter rune) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create resource csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = delimiter

	if err := w.Write(res.Columns); err != nil {
		return err
	}
	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i, col := range res.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
