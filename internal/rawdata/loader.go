package rawdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gridpack/internal/model"
)

// ScenarioWildcard 场景过滤列中的通配值
// 标记为所有场景共同继承的基线数据，任何过滤值下都保留
const ScenarioWildcard = "ALL"

// rawTableName 原始数据在存储中的表名
const rawTableName = "raw"

// Row 原始数据的一行，按列名取值
type Row = model.Row

// Loader 原始覆盖文件加载器
type Loader struct {
	// Delimiter 分隔符，零值时取分号
	Delimiter rune
}

// RawTable 已过滤的原始数据表
// 迭代通过重新执行过滤查询实现，可重复、惰性
type RawTable struct {
	Path    string
	columns []string

	store        *Store
	filterColumn string
	filterValue  string
}

// Load 读入原始文件并按场景过滤
// 保留 filterColumn 等于 filterValue 或等于 ALL 的行
func (l Loader) Load(path, filterColumn, filterValue string) (*RawTable, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", model.ErrRawFileNotFound, path)
		}
		return nil, fmt.Errorf("stat raw file %s: %w", path, err)
	}

	columns, rows, err := l.readFile(path)
	if err != nil {
		return nil, err
	}
	if !containsColumn(columns, filterColumn) {
		return nil, fmt.Errorf("%w: filter column %q not in %s", model.ErrInvalidOverlaySpec, filterColumn, path)
	}

	store, err := OpenStore()
	if err != nil {
		return nil, err
	}
	if err := store.CreateTable(rawTableName, columns); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.InsertRows(rawTableName, columns, rows); err != nil {
		store.Close()
		return nil, fmt.Errorf("ingest %s: %w", path, err)
	}

	return &RawTable{
		Path:         path,
		columns:      columns,
		store:        store,
		filterColumn: filterColumn,
		filterValue:  filterValue,
	}, nil
}

// readFile 按扩展名选择读取方式
func (l Loader) readFile(path string) ([]string, [][]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return readXLSX(path)
	}
	return l.readCSV(path)
}

// readCSV 读取分隔文本，首行为列名
func (l Loader) readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open raw file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = l.delimiter()
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read raw file %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s is empty", model.ErrInvalidOverlaySpec, path)
	}
	columns := records[0]
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}
	return columns, records[1:], nil
}

func (l Loader) delimiter() rune {
	if l.Delimiter == 0 {
		return ';'
	}
	return l.Delimiter
}

// Columns 原始数据的列名集合
func (t *RawTable) Columns() []string {
	return t.columns
}

// FilterColumn 场景过滤列名，覆盖时作为元数据列排除
func (t *RawTable) FilterColumn() string {
	return t.filterColumn
}

// Each 迭代过滤后的行，可重复调用
func (t *RawTable) Each(fn func(Row) error) error {
	quoted := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		quoted = append(quoted, quoteIdent(col))
	}
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ? OR %s = ?",
		strings.Join(quoted, ", "), quoteIdent(rawTableName),
		quoteIdent(t.filterColumn), quoteIdent(t.filterColumn),
	)
	rows, err := t.store.Query(query, t.filterValue, ScenarioWildcard)
	if err != nil {
		return fmt.Errorf("filter %s: %w", t.Path, err)
	}
	defer rows.Close()

	scan := make([]any, len(t.columns))
	cells := make([]string, len(t.columns))
	for i := range cells {
		scan[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return err
		}
		row := make(Row, len(t.columns))
		for i, col := range t.columns {
			row[col] = cells[i]
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close 释放底层存储
func (t *RawTable) Close() error {
	return t.store.Close()
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
