// Package datapackage 负责数据包在磁盘上的布局与整包读写
// 布局：<目录>/datapackage.json + data/elements/*.csv + data/sequences/*.csv
package datapackage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"gridpack/internal/model"
)

// Load 从目录加载数据包
func Load(dir string, delimiter rune) (*model.Datapackage, error) {
	desc, err := readDescriptor(dir)
	if err != nil {
		return nil, err
	}

	pkg := &model.Datapackage{Name: desc.Name}
	for _, rd := range desc.Resources {
		columns, rows, err := readResourceCSV(filepath.Join(dir, filepath.FromSlash(rd.Path)), delimiter)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", rd.Name, err)
		}
		pkg.AddResource(&model.Resource{
			Name:    rd.Name,
			Kind:    kindFromPath(rd.Path),
			Columns: columns,
			Rows:    rows,
		})
	}
	return pkg, nil
}

// Save 整包写出数据包
// 先写入带唯一后缀的暂存目录，再把旧包让位、新包换入、旧包清理
// 中途任何失败都不会留下部分写出的数据包，也不会丢失既有数据包
func Save(pkg *model.Datapackage, baseDir string, delimiter rune) error {
	finalDir := filepath.Join(baseDir, pkg.Name)
	suffix := uuid.NewString()[:8]
	staging := finalDir + ".staging-" + suffix

	if err := writeAll(pkg, staging, delimiter); err != nil {
		os.RemoveAll(staging)
		return err
	}

	old := finalDir + ".old-" + suffix
	replacing := false
	if _, err := os.Stat(finalDir); err == nil {
		if err := os.Rename(finalDir, old); err != nil {
			os.RemoveAll(staging)
			return fmt.Errorf("set aside datapackage %q: %w", pkg.Name, err)
		}
		replacing = true
	}
	if err := os.Rename(staging, finalDir); err != nil {
		if replacing {
			// 换入失败时把旧包放回原位
			os.Rename(old, finalDir)
		}
		os.RemoveAll(staging)
		return fmt.Errorf("move datapackage %q into place: %w", pkg.Name, err)
	}
	if replacing {
		os.RemoveAll(old)
	}
	return nil
}

// writeAll 把描述与全部资源写入目录
func writeAll(pkg *model.Datapackage, dir string, delimiter rune) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, res := range pkg.Resources {
		target := filepath.Join(dir, filepath.FromSlash(resourcePath(res)))
		if err := writeResourceCSV(target, res, delimiter); err != nil {
			return fmt.Errorf("resource %q: %w", res.Name, err)
		}
	}
	return writeDescriptor(dir, buildDescriptor(pkg))
}

// List 列出基目录下已有的数据包名
func List(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(baseDir, e.Name(), descriptorFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
