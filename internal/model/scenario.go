package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultScenarioColumn 原始数据中场景过滤列的默认列名
const DefaultScenarioColumn = "scenario"

// ElementOverlaySpec 元素覆盖配置：对数据包中所有元素资源按 name 匹配
type ElementOverlaySpec struct {
	Path           string `yaml:"path"`
	Scenario       string `yaml:"scenario"`
	ScenarioColumn string `yaml:"scenario_column"`
}

// SequenceOverlaySpec 序列覆盖配置：指向单个序列资源
type SequenceOverlaySpec struct {
	Path           string `yaml:"path"`
	SequenceName   string `yaml:"sequence_name"`
	Scenario       string `yaml:"scenario"`
	ScenarioColumn string `yaml:"scenario_column"`
}

// Scenario 场景文档：一组按声明顺序应用的覆盖配置
type Scenario struct {
	RawDir    string                `yaml:"raw_dir"`
	Elements  []ElementOverlaySpec  `yaml:"elements"`
	Sequences []SequenceOverlaySpec `yaml:"sequences"`
}

// LoadScenario 从 YAML 文件加载场景并填充默认值
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	for i := range sc.Elements {
		if sc.Elements[i].ScenarioColumn == "" {
			sc.Elements[i].ScenarioColumn = DefaultScenarioColumn
		}
	}
	for i := range sc.Sequences {
		if sc.Sequences[i].ScenarioColumn == "" {
			sc.Sequences[i].ScenarioColumn = DefaultScenarioColumn
		}
	}
	return &sc, nil
}
