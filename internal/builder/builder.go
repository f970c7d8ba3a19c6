// Package builder 装配数据包：展开蓝图，或克隆既有数据包并叠加场景数据
package builder

import (
	"fmt"
	"log"
	"path/filepath"

	"gridpack/internal/blueprint"
	"gridpack/internal/config"
	"gridpack/internal/datapackage"
	"gridpack/internal/model"
	"gridpack/internal/overlay"
	"gridpack/internal/rawdata"
)

// Builder 数据包装配器
type Builder struct {
	cfg      *config.AppConfig
	detector *overlay.Detector
	applier  *overlay.Applier
}

// New 创建装配器
func New(cfg *config.AppConfig) *Builder {
	return &Builder{
		cfg:      cfg,
		detector: overlay.NewDetector(),
		applier:  overlay.NewApplier(),
	}
}

// BuildBlueprint 展开蓝图并持久化为 datapackages/<name>
func (b *Builder) BuildBlueprint(name string) (*model.Datapackage, error) {
	bp, err := model.LoadBlueprint(filepath.Join(b.cfg.Dirs.Blueprints, name+".yaml"))
	if err != nil {
		return nil, err
	}

	catalog := model.NewDirCatalog(b.cfg.Dirs.Components)
	pkg, err := blueprint.Expand(bp, catalog)
	if err != nil {
		return nil, err
	}
	pkg.Name = name

	if err := datapackage.Save(pkg, b.cfg.Dirs.Datapackages, b.cfg.Delimiter()); err != nil {
		return nil, err
	}
	log.Printf("datapackage %q created (%d resources)", name, len(pkg.Resources))
	return pkg, nil
}

// BuildScenario 克隆既有数据包并按场景文档叠加原始数据
// 覆盖配置严格按声明顺序应用，后面的配置覆盖前面的重叠单元格；
// 全部成功后才整包写盘，中途失败不留任何输出
func (b *Builder) BuildScenario(baseName, scenarioName string) (*model.Datapackage, error) {
	sc, err := model.LoadScenario(filepath.Join(b.cfg.Dirs.Scenarios, scenarioName+".yaml"))
	if err != nil {
		return nil, err
	}

	base, err := datapackage.Load(filepath.Join(b.cfg.Dirs.Datapackages, baseName), b.cfg.Delimiter())
	if err != nil {
		return nil, err
	}
	pkg := base.Clone(baseName + "_" + scenarioName)

	rawDir := sc.RawDir
	if rawDir == "" {
		rawDir = b.cfg.Dirs.Raw
	}
	loader := rawdata.Loader{Delimiter: b.cfg.Delimiter()}

	for _, spec := range sc.Elements {
		if err := b.applyElementOverlay(pkg, loader, rawDir, spec, scenarioName); err != nil {
			return nil, err
		}
	}
	for _, spec := range sc.Sequences {
		if err := b.applySequenceOverlay(pkg, loader, rawDir, spec, scenarioName); err != nil {
			return nil, err
		}
	}

	if err := datapackage.Save(pkg, b.cfg.Dirs.Datapackages, b.cfg.Delimiter()); err != nil {
		return nil, err
	}
	log.Printf("datapackage %q created from %q", pkg.Name, baseName)
	return pkg, nil
}

// applyElementOverlay 把一个元素覆盖文件应用到全部元素资源
// 按 name 匹配行，原始数据常常宽于任何单个资源，未命中静默跳过
func (b *Builder) applyElementOverlay(pkg *model.Datapackage, loader rawdata.Loader, rawDir string, spec model.ElementOverlaySpec, scenarioName string) error {
	raw, err := loader.Load(filepath.Join(rawDir, spec.Path), spec.ScenarioColumn, filterValue(spec.Scenario, scenarioName))
	if err != nil {
		return err
	}
	defer raw.Close()

	targets := pkg.ElementResources()
	if len(targets) == 0 {
		return nil
	}

	// 元素数据的形态只取决于文件列名，对所有目标一致
	shape, err := b.detector.Classify(raw, targets[0])
	if err != nil {
		return fmt.Errorf("%s: %w", spec.Path, err)
	}

	total := 0
	for _, res := range targets {
		changed, err := b.applier.Apply(raw, shape, res)
		if err != nil {
			return fmt.Errorf("%s -> %s: %w", spec.Path, res.Name, err)
		}
		total += changed
	}
	log.Printf("overlay %s (%s): %d cells updated", spec.Path, shape, total)
	return nil
}

// applySequenceOverlay 把一个序列覆盖文件应用到指定序列资源
func (b *Builder) applySequenceOverlay(pkg *model.Datapackage, loader rawdata.Loader, rawDir string, spec model.SequenceOverlaySpec, scenarioName string) error {
	target := pkg.Resource(spec.SequenceName)
	if target == nil || target.Kind != model.KindSequence {
		return fmt.Errorf("%w: sequence %q for %s", model.ErrTargetResourceNotFound, spec.SequenceName, spec.Path)
	}

	raw, err := loader.Load(filepath.Join(rawDir, spec.Path), spec.ScenarioColumn, filterValue(spec.Scenario, scenarioName))
	if err != nil {
		return err
	}
	defer raw.Close()

	shape, err := b.detector.Classify(raw, target)
	if err != nil {
		return fmt.Errorf("%s: %w", spec.Path, err)
	}

	changed, err := b.applier.Apply(raw, shape, target)
	if err != nil {
		return fmt.Errorf("%s -> %s: %w", spec.Path, target.Name, err)
	}
	log.Printf("overlay %s (%s): %d cells updated", spec.Path, shape, changed)
	return nil
}

// filterValue 覆盖配置未指定过滤值时，默认用正在构建的场景名
func filterValue(specValue, scenarioName string) string {
	if specValue != "" {
		return specValue
	}
	return scenarioName
}
