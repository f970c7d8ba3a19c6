// Package blueprint 把蓝图文档展开成完整的数据包
package blueprint

import (
	"fmt"
	"sort"

	"gridpack/internal/model"
	"gridpack/internal/timeindex"
)

// 区域展开时使用的固定列名
const regionColumn = "region"

// Expand 展开蓝图为数据包
// 每个元素组生成一个元素资源；显式声明的序列与推导出的默认 profile
// 生成序列资源；组件定义中声明的 bus 属性值汇总为 bus 资源
func Expand(bp *model.Blueprint, catalog model.ComponentCatalog) (*model.Datapackage, error) {
	index, err := buildTimeindex(bp.Timeindex)
	if err != nil {
		return nil, err
	}

	pkg := &model.Datapackage{}

	groupNames := make([]string, 0, len(bp.Elements))
	for name := range bp.Elements {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	busNames := map[string]struct{}{}

	for _, groupName := range groupNames {
		group := bp.Elements[groupName]

		comp, err := catalog.Component(group.Component)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", groupName, err)
		}

		attrs := activeAttributes(group, comp, bp.Regions)
		seqFields := sequenceFields(group, comp, attrs)

		res := model.NewElementResource(groupName, attrs)
		if err := addInstances(res, group, comp, attrs, seqFields, bp.Regions); err != nil {
			return nil, err
		}
		pkg.AddResource(res)

		collectBusNames(res, comp, busNames)

		if profile := defaultProfileResource(groupName, res, seqFields, index); profile != nil {
			pkg.AddResource(profile)
		}
	}

	if err := addDeclaredSequences(pkg, bp, index); err != nil {
		return nil, err
	}

	if _, declared := bp.Elements["bus"]; !declared && len(busNames) > 0 {
		pkg.AddResource(busResource(busNames))
	}

	pkg.SortResources()
	return pkg, nil
}

// buildTimeindex 构建规范时间索引（小时步长，含起点）
func buildTimeindex(spec model.TimeindexSpec) ([]string, error) {
	if spec.Start == "" || spec.Periods <= 0 {
		return nil, nil
	}
	start, err := timeindex.Parse(spec.Start)
	if err != nil {
		return nil, fmt.Errorf("timeindex start: %w", err)
	}
	return timeindex.Hourly(start, spec.Periods), nil
}

// activeAttributes 解析元素组的生效属性集
// 组内显式给出 attributes 时使用之，否则取组件定义的全部属性；
// 任一层级配置了区域时追加 region 列
func activeAttributes(group model.ElementGroup, comp *model.Component, globalRegions []string) []string {
	var attrs []string
	if len(group.Attributes) > 0 {
		attrs = append(attrs, group.Attributes...)
	} else {
		attrs = append(attrs, comp.Attributes.Names...)
	}

	regions := group.Regions
	if regions == nil {
		regions = globalRegions
	}
	if len(regions) > 0 && !contains(attrs, regionColumn) {
		attrs = append(attrs, regionColumn)
	}
	if !contains(attrs, model.NameColumn) {
		attrs = append(attrs, model.NameColumn)
	}
	return attrs
}

// sequenceFields 取元素组与组件定义声明的序列属性（限生效属性集内）
func sequenceFields(group model.ElementGroup, comp *model.Component, attrs []string) []string {
	seen := map[string]struct{}{}
	var fields []string
	for _, f := range append(append([]string{}, group.Sequences...), comp.Sequences...) {
		if _, ok := seen[f]; ok || !contains(attrs, f) {
			continue
		}
		seen[f] = struct{}{}
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// addInstances 把元素组的全部实例写入资源，按需做区域复制
func addInstances(res *model.Resource, group model.ElementGroup, comp *model.Component, attrs, seqFields, globalRegions []string) error {
	regions := group.Regions
	if regions == nil {
		regions = globalRegions
	}

	for _, instance := range group.Instances {
		name, err := instanceName(res.Name, instance)
		if err != nil {
			return err
		}
		if err := checkInstanceAttributes(res.Name, name, instance, attrs); err != nil {
			return err
		}

		if len(regions) == 0 {
			row := instanceRow(instance, attrs, seqFields, name)
			if err := res.AppendRow(row); err != nil {
				return err
			}
			continue
		}

		for _, region := range regions {
			qualified := region + "-" + name
			row := instanceRow(instance, attrs, seqFields, qualified)
			row[regionColumn] = region
			if err := res.AppendRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// instanceName 取实例的 name，缺失时报错
func instanceName(groupName string, instance map[string]any) (string, error) {
	v, ok := instance[model.NameColumn]
	name := model.FormatValue(v)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: instance without name in group %q", model.ErrInvalidInstance, groupName)
	}
	return name, nil
}

// checkInstanceAttributes 拒绝生效属性集之外的属性
func checkInstanceAttributes(groupName, name string, instance map[string]any, attrs []string) error {
	for attr := range instance {
		if !contains(attrs, attr) {
			return fmt.Errorf("%w: attribute %q not available for %q in group %q",
				model.ErrInvalidInstance, attr, name, groupName)
		}
	}
	return nil
}

// instanceRow 按生效属性集组装一行；缺失属性留空
// 序列属性未显式给值时默认指向 {实例名}-profile
func instanceRow(instance map[string]any, attrs, seqFields []string, name string) model.Row {
	row := model.Row{}
	for _, attr := range attrs {
		if v, ok := instance[attr]; ok {
			row[attr] = model.FormatValue(v)
		} else {
			row[attr] = ""
		}
	}
	row[model.NameColumn] = name
	for _, f := range seqFields {
		if row[f] == "" {
			row[f] = name + "-profile"
		}
	}
	return row
}

// defaultProfileResource 为元素组推导默认 profile 序列资源
// 每个实例引用到的 profile 名成为一个零值列
func defaultProfileResource(groupName string, res *model.Resource, seqFields, index []string) *model.Resource {
	if len(seqFields) == 0 || len(index) == 0 {
		return nil
	}
	refs := map[string]struct{}{}
	for _, row := range res.Rows {
		for _, f := range seqFields {
			if row[f] != "" {
				refs[row[f]] = struct{}{}
			}
		}
	}
	if len(refs) == 0 {
		return nil
	}

	profile := model.NewSequenceResource(groupName+"_profile", index)
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		profile.AddColumn(name, "0")
	}
	return profile
}

// addDeclaredSequences 创建蓝图显式声明的序列资源
// 声明了 columns 时按列预置零值，否则仅有时间索引，等待覆盖
func addDeclaredSequences(pkg *model.Datapackage, bp *model.Blueprint, index []string) error {
	names := make([]string, 0, len(bp.Sequences))
	for name := range bp.Sequences {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		group := bp.Sequences[name]
		res := pkg.Resource(name)
		if res == nil {
			res = model.NewSequenceResource(name, index)
			pkg.AddResource(res)
		}
		for _, col := range group.Columns {
			res.AddColumn(col, "0")
		}
	}
	return nil
}

// collectBusNames 汇总组件 bus 属性引用到的名称
func collectBusNames(res *model.Resource, comp *model.Component, into map[string]struct{}) {
	for _, busAttr := range comp.Busses {
		if !res.HasColumn(busAttr) {
			continue
		}
		for _, row := range res.Rows {
			if v := row[busAttr]; v != "" {
				into[v] = struct{}{}
			}
		}
	}
}

// busResource 把收集到的 bus 名称生成 bus 元素资源
func busResource(names map[string]struct{}) *model.Resource {
	res := model.NewElementResource("bus", []string{model.NameColumn, "type", "balanced"})
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	for _, name := range sorted {
		// 重名在收集阶段已去重，AppendRow 不会失败
		_ = res.AppendRow(model.Row{model.NameColumn: name, "type": "", "balanced": "true"})
	}
	return res
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
