package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ComponentAttribute 组件属性的描述信息
type ComponentAttribute struct {
	Type        string `yaml:"type"`
	Unit        string `yaml:"unit"`
	Description string `yaml:"description"`
}

// AttributeSet 组件的属性集合，保留 YAML 中的声明顺序
type AttributeSet struct {
	Names []string
	Info  map[string]ComponentAttribute
}

// UnmarshalYAML 按映射节点顺序解析属性集合
func (s *AttributeSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("attributes: expected mapping, got %s", node.Tag)
	}
	s.Info = make(map[string]ComponentAttribute, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var attr ComponentAttribute
		if err := node.Content[i+1].Decode(&attr); err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
		s.Names = append(s.Names, name)
		s.Info[name] = attr
	}
	return nil
}

// Has 判断属性是否存在
func (s *AttributeSet) Has(name string) bool {
	_, ok := s.Info[name]
	return ok
}

// Component 组件定义：某一组件类型的全部合法属性目录
type Component struct {
	Name       string       `yaml:"-"`
	Attributes AttributeSet `yaml:"attributes"`
	Busses     []string     `yaml:"busses"`
	Sequences  []string     `yaml:"sequences"`
}

// ComponentCatalog 按组件类型查找组件定义
type ComponentCatalog interface {
	Component(name string) (*Component, error)
}

// DirCatalog 以目录为后端的组件目录，每个组件一个 YAML 文件
type DirCatalog struct {
	dir string
}

// NewDirCatalog 创建目录组件目录
func NewDirCatalog(dir string) *DirCatalog {
	return &DirCatalog{dir: dir}
}

// Component 加载 <dir>/<name>.yaml 中的组件定义
func (c *DirCatalog) Component(name string) (*Component, error) {
	path := filepath.Join(c.dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrMissingComponentDefinition, name)
		}
		return nil, fmt.Errorf("read component %q: %w", name, err)
	}
	var comp Component
	if err := yaml.Unmarshal(data, &comp); err != nil {
		return nil, fmt.Errorf("parse component %q: %w", name, err)
	}
	comp.Name = name
	return &comp, nil
}

// List 列出目录中可用的组件名
func (c *DirCatalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names, nil
}
