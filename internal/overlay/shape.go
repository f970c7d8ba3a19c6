// Package overlay 识别原始数据的布局形态并把数据合并进目标资源
package overlay

import (
	"fmt"

	"gridpack/internal/model"
	"gridpack/internal/rawdata"
)

// Shape 原始覆盖数据的布局形态
type Shape int

const (
	// ShapeUnknown 未识别
	ShapeUnknown Shape = iota
	// ShapeSingleValueElement 元素数据：每行一个 name + var_name + var_value
	ShapeSingleValueElement
	// ShapeMultiAttributeElement 元素数据：每行一个 name，列即属性
	ShapeMultiAttributeElement
	// ShapeColumnwiseSequence 序列数据：列即目标序列，按时间索引对齐
	ShapeColumnwiseSequence
	// ShapeRowwiseSequence 序列数据：每行携带 series 字面量与自描述时间范围
	ShapeRowwiseSequence
)

// String 形态名称
func (s Shape) String() string {
	switch s {
	case ShapeSingleValueElement:
		return "single-value-element"
	case ShapeMultiAttributeElement:
		return "multi-attribute-element"
	case ShapeColumnwiseSequence:
		return "columnwise-sequence"
	case ShapeRowwiseSequence:
		return "rowwise-sequence"
	default:
		return "unknown"
	}
}

// ColumnNames 形态识别与合并依赖的列名约定，均可配置
type ColumnNames struct {
	VarName             string
	VarValue            string
	Series              string
	Timeindex           string
	TimeindexStart      string
	TimeindexStop       string
	TimeindexResolution string
}

// DefaultColumnNames 默认列名约定
func DefaultColumnNames() ColumnNames {
	return ColumnNames{
		VarName:             "var_name",
		VarValue:            "var_value",
		Series:              "series",
		Timeindex:           model.TimeindexColumn,
		TimeindexStart:      "timeindex_start",
		TimeindexStop:       "timeindex_stop",
		TimeindexResolution: "timeindex_resolution",
	}
}

// Source 已过滤的原始数据，迭代可重复
// 由 rawdata.RawTable 实现；测试中可用内存实现替代
type Source interface {
	Columns() []string
	FilterColumn() string
	Each(fn func(rawdata.Row) error) error
}

// Detector 按列名识别原始数据布局
// 识别按文件而非按行，一个文件假定形态同质
type Detector struct {
	Names ColumnNames
}

// NewDetector 创建使用默认列名约定的识别器
func NewDetector() *Detector {
	return &Detector{Names: DefaultColumnNames()}
}

// Classify 识别原始数据相对目标资源的布局形态
func (d *Detector) Classify(src Source, target *model.Resource) (Shape, error) {
	columns := src.Columns()
	switch target.Kind {
	case model.KindElement:
		return d.classifyElement(columns)
	case model.KindSequence:
		return d.classifySequence(columns, target)
	}
	return ShapeUnknown, fmt.Errorf("%w: resource %q has unknown kind", model.ErrUnrecognizedOverlayShape, target.Name)
}

// classifyElement 元素数据：有 var_name+var_value 即单值，否则按多属性处理
// 两种形态都要求有 name 列才能匹配目标行
func (d *Detector) classifyElement(columns []string) (Shape, error) {
	if !containsColumn(columns, model.NameColumn) {
		return ShapeUnknown, fmt.Errorf("%w: element data without %q column", model.ErrUnrecognizedOverlayShape, model.NameColumn)
	}
	if containsColumn(columns, d.Names.VarName) && containsColumn(columns, d.Names.VarValue) {
		return ShapeSingleValueElement, nil
	}
	return ShapeMultiAttributeElement, nil
}

// classifySequence 序列数据：列名与目标列有交集即列式；
// 携带 series+var_name+时间范围描述即行式
func (d *Detector) classifySequence(columns []string, target *model.Resource) (Shape, error) {
	if containsColumn(columns, d.Names.Timeindex) {
		for _, col := range columns {
			if col == d.Names.Timeindex {
				continue
			}
			if target.HasColumn(col) {
				return ShapeColumnwiseSequence, nil
			}
		}
	}
	if containsColumn(columns, d.Names.Series) &&
		containsColumn(columns, d.Names.VarName) &&
		containsColumn(columns, d.Names.TimeindexStart) &&
		containsColumn(columns, d.Names.TimeindexResolution) {
		return ShapeRowwiseSequence, nil
	}
	return ShapeUnknown, fmt.Errorf("%w: data does not match resource %q columnwise or rowwise", model.ErrUnrecognizedOverlayShape, target.Name)
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
