package overlay

import (
	"encoding/json"
	"fmt"
	"strings"

	"gridpack/internal/model"
	"gridpack/internal/rawdata"
	"gridpack/internal/timeindex"
)

// Applier 把已识别形态的原始数据合并进目标资源
// 只更新行列都已存在的单元格：不新增属性列、不新增实例行、不新增时间点
// 未匹配的数据静默跳过，零更新也是合法结果
type Applier struct {
	Names ColumnNames
}

// NewApplier 创建使用默认列名约定的合并器
func NewApplier() *Applier {
	return &Applier{Names: DefaultColumnNames()}
}

// Apply 合并数据并返回发生变化的单元格数
func (a *Applier) Apply(src Source, shape Shape, target *model.Resource) (int, error) {
	switch shape {
	case ShapeSingleValueElement:
		return a.applySingleValue(src, target)
	case ShapeMultiAttributeElement:
		return a.applyMultiAttribute(src, target)
	case ShapeColumnwiseSequence:
		return a.applyColumnwise(src, target)
	case ShapeRowwiseSequence:
		return a.applyRowwise(src, target)
	}
	return 0, fmt.Errorf("%w: cannot apply shape %s", model.ErrUnrecognizedOverlayShape, shape)
}

// applySingleValue 单值元素：按 name 定位行，var_name 定位列，写入 var_value
func (a *Applier) applySingleValue(src Source, target *model.Resource) (int, error) {
	numeric := numericColumns(target)
	changed := 0
	err := src.Each(func(row rawdata.Row) error {
		targetRow := target.RowByName(row[model.NameColumn])
		if targetRow == nil {
			return nil
		}
		attr := row[a.Names.VarName]
		if !target.HasColumn(attr) {
			return nil
		}
		if setCell(targetRow, attr, row[a.Names.VarValue], numeric[attr]) {
			changed++
		}
		return nil
	})
	return changed, err
}

// applyMultiAttribute 多属性元素：按 name 定位行，拷贝两侧共有的属性列
func (a *Applier) applyMultiAttribute(src Source, target *model.Resource) (int, error) {
	meta := map[string]struct{}{
		model.NameColumn:   {},
		src.FilterColumn(): {},
		"id":               {},
	}
	var shared []string
	for _, col := range src.Columns() {
		if _, isMeta := meta[col]; isMeta {
			continue
		}
		if target.HasColumn(col) {
			shared = append(shared, col)
		}
	}
	if len(shared) == 0 {
		return 0, nil
	}

	numeric := numericColumns(target)
	changed := 0
	err := src.Each(func(row rawdata.Row) error {
		targetRow := target.RowByName(row[model.NameColumn])
		if targetRow == nil {
			return nil
		}
		for _, col := range shared {
			if setCell(targetRow, col, row[col], numeric[col]) {
				changed++
			}
		}
		return nil
	})
	return changed, err
}

// applyColumnwise 列式序列：按时间戳精确对齐，拷贝共有列
// 目标索引之外的原始时间戳忽略，原始数据未覆盖的目标行保持不变
func (a *Applier) applyColumnwise(src Source, target *model.Resource) (int, error) {
	var shared []string
	for _, col := range src.Columns() {
		if col == a.Names.Timeindex {
			continue
		}
		if target.HasColumn(col) {
			shared = append(shared, col)
		}
	}
	if len(shared) == 0 {
		return 0, nil
	}

	index := target.TimeindexMap()
	numeric := numericColumns(target)
	changed := 0
	err := src.Each(func(row rawdata.Row) error {
		targetRow, ok := index[row[a.Names.Timeindex]]
		if !ok {
			return nil
		}
		for _, col := range shared {
			if setCell(targetRow, col, row[col], numeric[col]) {
				changed++
			}
		}
		return nil
	})
	return changed, err
}

// applyRowwise 行式序列：解析 series 字面量，从 timeindex_start 按
// timeindex_resolution 合成自身时间索引，仅写入两侧共有的时间点
// 目标列必须已存在，行式合并从不新建列
func (a *Applier) applyRowwise(src Source, target *model.Resource) (int, error) {
	index := target.TimeindexMap()
	numeric := numericColumns(target)
	changed := 0
	err := src.Each(func(row rawdata.Row) error {
		column := row[a.Names.VarName]
		if !target.HasColumn(column) {
			return nil
		}
		values, err := parseSeries(row[a.Names.Series])
		if err != nil {
			return fmt.Errorf("%w: series for %q: %v", model.ErrInvalidOverlaySpec, column, err)
		}
		start, err := timeindex.Parse(row[a.Names.TimeindexStart])
		if err != nil {
			return fmt.Errorf("%w: %s for %q: %v", model.ErrInvalidOverlaySpec, a.Names.TimeindexStart, column, err)
		}
		step, err := timeindex.ParseResolution(row[a.Names.TimeindexResolution])
		if err != nil {
			return fmt.Errorf("%w: %s for %q: %v", model.ErrInvalidOverlaySpec, a.Names.TimeindexResolution, column, err)
		}

		for i, ts := range timeindex.Range(start, step, len(values)) {
			targetRow, ok := index[ts]
			if !ok {
				continue
			}
			if setCell(targetRow, column, values[i], numeric[column]) {
				changed++
			}
		}
		return nil
	})
	return changed, err
}

// setCell 写入单元格，报告值是否发生变化
func setCell(row model.Row, column, value string, numeric bool) bool {
	coerced := model.CoerceValue(value, numeric)
	if row[column] == coerced {
		return false
	}
	row[column] = coerced
	return true
}

// numericColumns 每轮合并开始时对目标各列判定一次数值性
// 判定结果在整轮合并内复用，避免逐单元格重扫整列
func numericColumns(target *model.Resource) map[string]bool {
	m := make(map[string]bool, len(target.Columns))
	for _, col := range target.Columns {
		m[col] = target.ColumnIsNumeric(col)
	}
	return m
}

// parseSeries 解析 series 单元格的数值列表字面量，如 [4.5866, 4.047]
// 用 json.Number 保留原始数字写法
func parseSeries(literal string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(literal))
	dec.UseNumber()
	var raw []json.Number
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse series %q: %w", literal, err)
	}
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		out = append(out, n.String())
	}
	return out, nil
}
