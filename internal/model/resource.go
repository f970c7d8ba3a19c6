package model

import (
	"fmt"
	"sort"
	"strconv"
)

// ResourceKind 资源类型
type ResourceKind string

const (
	// KindElement 元素资源：每行一个命名实例，列为属性
	KindElement ResourceKind = "element"
	// KindSequence 序列资源：每行一个时间点，列为命名序列
	KindSequence ResourceKind = "sequence"
)

// 资源中的固定列名
const (
	// NameColumn 元素资源的主键列
	NameColumn = "name"
	// TimeindexColumn 序列资源的主键列
	TimeindexColumn = "timeindex"
)

// Row 一行数据，按列名取值；缺失的列视为空值
type Row map[string]string

// Resource 数据包中的单个表格资源
// 列顺序有意义（决定 CSV 输出顺序），单元格统一存为字符串
type Resource struct {
	Name    string
	Kind    ResourceKind
	Columns []string
	Rows    []Row
}

// NewElementResource 创建空的元素资源
func NewElementResource(name string, columns []string) *Resource {
	return &Resource{Name: name, Kind: KindElement, Columns: columns}
}

// NewSequenceResource 创建序列资源，按给定时间索引预置行
func NewSequenceResource(name string, timeindex []string) *Resource {
	r := &Resource{Name: name, Kind: KindSequence, Columns: []string{TimeindexColumn}}
	for _, ts := range timeindex {
		r.Rows = append(r.Rows, Row{TimeindexColumn: ts})
	}
	return r
}

// HasColumn 判断资源是否包含指定列
func (r *Resource) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn 追加新列，已有行填入给定初始值
func (r *Resource) AddColumn(name, fill string) {
	if r.HasColumn(name) {
		return
	}
	r.Columns = append(r.Columns, name)
	for _, row := range r.Rows {
		row[name] = fill
	}
}

// AppendRow 追加一行；元素资源要求 name 唯一
func (r *Resource) AppendRow(row Row) error {
	if r.Kind == KindElement {
		name := row[NameColumn]
		if name == "" {
			return fmt.Errorf("%w: row without %s in resource %q", ErrInvalidInstance, NameColumn, r.Name)
		}
		if r.RowByName(name) != nil {
			return fmt.Errorf("%w: duplicate name %q in resource %q", ErrInvalidInstance, name, r.Name)
		}
	}
	r.Rows = append(r.Rows, row)
	return nil
}

// RowByName 按 name 查找元素行，找不到返回 nil
func (r *Resource) RowByName(name string) Row {
	for _, row := range r.Rows {
		if row[NameColumn] == name {
			return row
		}
	}
	return nil
}

// RowByTimeindex 按时间戳查找序列行，找不到返回 nil
func (r *Resource) RowByTimeindex(ts string) Row {
	for _, row := range r.Rows {
		if row[TimeindexColumn] == ts {
			return row
		}
	}
	return nil
}

// TimeindexMap 构建时间戳到行的索引，供批量对齐使用
func (r *Resource) TimeindexMap() map[string]Row {
	m := make(map[string]Row, len(r.Rows))
	for _, row := range r.Rows {
		m[row[TimeindexColumn]] = row
	}
	return m
}

// ColumnIsNumeric 判断某列已有的非空值是否全部为数值
// 整列为空时返回 false（尚无类型可言）
func (r *Resource) ColumnIsNumeric(column string) bool {
	seen := false
	for _, row := range r.Rows {
		v := row[column]
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// Coerce 按目标列已有的取值类型归一化写入值
// 目标列已是数值列且新值可解析时按数值字面量规范化，否则原样保留
func (r *Resource) Coerce(column, value string) string {
	return CoerceValue(value, r.ColumnIsNumeric(column))
}

// CoerceValue 按列的数值性归一化单元格值
// 批量写入时数值性判定一次即可，不必每个单元格重扫整列
func CoerceValue(value string, numeric bool) string {
	if !numeric {
		return value
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Clone 深拷贝资源
func (r *Resource) Clone() *Resource {
	c := &Resource{
		Name:    r.Name,
		Kind:    r.Kind,
		Columns: append([]string(nil), r.Columns...),
		Rows:    make([]Row, 0, len(r.Rows)),
	}
	for _, row := range r.Rows {
		cr := make(Row, len(row))
		for k, v := range row {
			cr[k] = v
		}
		c.Rows = append(c.Rows, cr)
	}
	return c
}

// Datapackage 一组资源构成的数据包
type Datapackage struct {
	Name      string
	Resources []*Resource
}

// Resource 按名称查找资源，找不到返回 nil
func (d *Datapackage) Resource(name string) *Resource {
	for _, r := range d.Resources {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// ElementResources 返回全部元素资源，保持声明顺序
func (d *Datapackage) ElementResources() []*Resource {
	var out []*Resource
	for _, r := range d.Resources {
		if r.Kind == KindElement {
			out = append(out, r)
		}
	}
	return out
}

// AddResource 添加资源，同名资源会被替换
func (d *Datapackage) AddResource(r *Resource) {
	for i, existing := range d.Resources {
		if existing.Name == r.Name {
			d.Resources[i] = r
			return
		}
	}
	d.Resources = append(d.Resources, r)
}

// SortResources 按名称排序资源，保证持久化顺序稳定
func (d *Datapackage) SortResources() {
	sort.Slice(d.Resources, func(i, j int) bool {
		return d.Resources[i].Name < d.Resources[j].Name
	})
}

// Clone 深拷贝数据包并改名，用于场景构建
func (d *Datapackage) Clone(newName string) *Datapackage {
	c := &Datapackage{Name: newName, Resources: make([]*Resource, 0, len(d.Resources))}
	for _, r := range d.Resources {
		c.Resources = append(c.Resources, r.Clone())
	}
	return c
}

// FormatValue 把 YAML 标量统一转成单元格字符串
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
