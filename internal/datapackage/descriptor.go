package datapackage

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"gridpack/internal/model"
)

// descriptorFile 数据包描述文件名
const descriptorFile = "datapackage.json"

// Descriptor 数据包描述：资源清单与各自的存放路径
type Descriptor struct {
	Name      string               `json:"name"`
	Resources []ResourceDescriptor `json:"resources"`
}

// ResourceDescriptor 单个资源的描述
type ResourceDescriptor struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	PrimaryKey string `json:"primaryKey"`
}

// resourcePath 资源在数据包内的相对路径
// 元素与序列分目录存放，目录即资源类型
func resourcePath(res *model.Resource) string {
	sub := "elements"
	if res.Kind == model.KindSequence {
		sub = "sequences"
	}
	return path.Join("data", sub, res.Name+".csv")
}

// kindFromPath 从资源路径推断资源类型
func kindFromPath(p string) model.ResourceKind {
	if path.Base(path.Dir(p)) == "sequences" {
		return model.KindSequence
	}
	return model.KindElement
}

// primaryKey 资源主键列名
func primaryKey(kind model.ResourceKind) string {
	if kind == model.KindSequence {
		return model.TimeindexColumn
	}
	return model.NameColumn
}

// buildDescriptor 为数据包生成描述
func buildDescriptor(d *model.Datapackage) Descriptor {
	desc := Descriptor{Name: d.Name}
	for _, res := range d.Resources {
		desc.Resources = append(desc.Resources, ResourceDescriptor{
			Name:       res.Name,
			Path:       resourcePath(res),
			PrimaryKey: primaryKey(res.Kind),
		})
	}
	return desc
}

// writeDescriptor 写出 datapackage.json
func writeDescriptor(dir string, desc Descriptor) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path.Join(dir, descriptorFile), data, 0644)
}

// readDescriptor 读入 datapackage.json
func readDescriptor(dir string) (Descriptor, error) {
	var desc Descriptor
	data, err := os.ReadFile(path.Join(dir, descriptorFile))
	if err != nil {
		return desc, fmt.Errorf("read descriptor: %w", err)
	}
	if err := json.Unmarshal(data, &desc); err != nil {
		return desc, fmt.Errorf("parse descriptor in %s: %w", dir, err)
	}
	return desc, nil
}
