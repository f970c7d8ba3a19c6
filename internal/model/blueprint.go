package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TimeindexSpec 时间索引定义：起始时间 + 周期数，小时分辨率
type TimeindexSpec struct {
	Start   string `yaml:"start"`
	Periods int    `yaml:"periods"`
}

// ElementGroup 蓝图中的一组元素实例
type ElementGroup struct {
	Component  string           `yaml:"component"`
	Attributes []string         `yaml:"attributes"`
	Regions    []string         `yaml:"regions"`
	Sequences  []string         `yaml:"sequences"`
	Instances  []map[string]any `yaml:"instances"`
}

// SequenceGroup 蓝图中显式声明的序列资源
type SequenceGroup struct {
	Columns []string `yaml:"columns"`
}

// Blueprint 蓝图文档：数据包的初始结构与内容
type Blueprint struct {
	Timeindex TimeindexSpec            `yaml:"timeindex"`
	Regions   []string                 `yaml:"regions"`
	Elements  map[string]ElementGroup  `yaml:"elements"`
	Sequences map[string]SequenceGroup `yaml:"sequences"`
}

// LoadBlueprint 从 YAML 文件加载蓝图
func LoadBlueprint(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprint: %w", err)
	}
	var bp Blueprint
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return nil, fmt.Errorf("parse blueprint %s: %w", path, err)
	}
	return &bp, nil
}
