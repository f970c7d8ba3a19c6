package builder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gridpack/internal/config"
	"gridpack/internal/datapackage"
	"gridpack/internal/model"
)

const loadComponentYAML = `attributes:
  name:
    type: str
  bus:
    type: str
  amount:
    type: float
  type:
    type: str
  profile:
    type: str
busses:
  - bus
sequences:
  - profile
`

const baseBlueprintYAML = `timeindex:
  start: "2050-01-01 00:00:00"
  periods: 4
regions:
  - BB
  - B
elements:
  demand:
    component: load
    instances:
      - name: d1
        bus: electricity
        amount: 5000
        type: load
`

func setupWorkspace(t *testing.T) *config.AppConfig {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Dirs.Blueprints = filepath.Join(root, "blueprints")
	cfg.Dirs.Scenarios = filepath.Join(root, "scenarios")
	cfg.Dirs.Components = filepath.Join(root, "components")
	cfg.Dirs.Datapackages = filepath.Join(root, "datapackages")
	cfg.Dirs.Raw = filepath.Join(root, "raw")

	for _, dir := range []string{cfg.Dirs.Blueprints, cfg.Dirs.Scenarios, cfg.Dirs.Components, cfg.Dirs.Raw} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	writeFile(t, filepath.Join(cfg.Dirs.Components, "load.yaml"), loadComponentYAML)
	writeFile(t, filepath.Join(cfg.Dirs.Blueprints, "base.yaml"), baseBlueprintYAML)
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBuildBlueprint(t *testing.T) {
	t.Parallel()

	cfg := setupWorkspace(t)
	b := New(cfg)

	pkg, err := b.BuildBlueprint("base")
	if err != nil {
		t.Fatalf("build blueprint: %v", err)
	}

	demand := pkg.Resource("demand")
	if demand == nil {
		t.Fatal("demand resource missing")
	}
	if demand.RowByName("BB-d1") == nil || demand.RowByName("B-d1") == nil {
		t.Fatalf("region expansion incomplete: %v", demand.Rows)
	}

	// 落盘校验
	persisted, err := datapackage.Load(filepath.Join(cfg.Dirs.Datapackages, "base"), cfg.Delimiter())
	if err != nil {
		t.Fatalf("load persisted: %v", err)
	}
	if got := persisted.Resource("demand").RowByName("BB-d1")["amount"]; got != "5000" {
		t.Fatalf("persisted amount: got=%s want=5000", got)
	}
	profile := persisted.Resource("demand_profile")
	if profile == nil || !profile.HasColumn("BB-d1-profile") {
		t.Fatal("default profile resource missing")
	}
}

func TestBuildScenario(t *testing.T) {
	t.Parallel()

	cfg := setupWorkspace(t)
	b := New(cfg)
	if _, err := b.BuildBlueprint("base"); err != nil {
		t.Fatalf("build blueprint: %v", err)
	}

	writeFile(t, filepath.Join(cfg.Dirs.Raw, "single.csv"), `name;var_name;var_value;scenario
BB-d1;amount;10;ALL
BB-d1;amount;777;2070
`)
	writeFile(t, filepath.Join(cfg.Dirs.Raw, "multi.csv"), `name;amount;scenario
BB-d1;42;ALL
`)
	writeFile(t, filepath.Join(cfg.Dirs.Raw, "series.csv"), `var_name;series;timeindex_start;timeindex_resolution;scenario_key
BB-d1-profile;[1.5, 2.5];2050-01-01 00:00:00;h;ALL
B-d1-profile;[9];2050-01-01 00:00:00;h;2030
`)
	writeFile(t, filepath.Join(cfg.Dirs.Scenarios, "2050.yaml"), `elements:
  - path: single.csv
    scenario: "2050"
  - path: multi.csv
    scenario: ALL
sequences:
  - path: series.csv
    sequence_name: demand_profile
    scenario: 2050-el
    scenario_column: scenario_key
`)

	pkg, err := b.BuildScenario("base", "2050")
	if err != nil {
		t.Fatalf("build scenario: %v", err)
	}
	if pkg.Name != "base_2050" {
		t.Fatalf("package name: %s", pkg.Name)
	}

	demand := pkg.Resource("demand")
	// 后声明的覆盖赢得重叠单元格：single.csv 的 10 被 multi.csv 的 42 覆盖
	if got := demand.RowByName("BB-d1")["amount"]; got != "42" {
		t.Fatalf("BB-d1 amount: got=%s want=42", got)
	}
	// 未命中的行保持原值
	if got := demand.RowByName("B-d1")["amount"]; got != "5000" {
		t.Fatalf("B-d1 amount: got=%s want=5000", got)
	}

	profile := pkg.Resource("demand_profile")
	want := []string{"1.5", "2.5", "0", "0"}
	for i, w := range want {
		if got := profile.Rows[i]["BB-d1-profile"]; got != w {
			t.Fatalf("profile row%d: got=%s want=%s", i, got, w)
		}
	}
	// 被场景过滤排除的序列行不生效
	for i := range profile.Rows {
		if got := profile.Rows[i]["B-d1-profile"]; got != "0" {
			t.Fatalf("B-d1-profile row%d touched: %s", i, got)
		}
	}

	// 基础数据包不受影响
	base, err := datapackage.Load(filepath.Join(cfg.Dirs.Datapackages, "base"), cfg.Delimiter())
	if err != nil {
		t.Fatalf("reload base: %v", err)
	}
	if got := base.Resource("demand").RowByName("BB-d1")["amount"]; got != "5000" {
		t.Fatalf("base mutated: amount=%s", got)
	}

	// 场景包已落盘
	if _, err := os.Stat(filepath.Join(cfg.Dirs.Datapackages, "base_2050", "datapackage.json")); err != nil {
		t.Fatalf("scenario package not persisted: %v", err)
	}
}

func TestBuildScenarioMissingSequenceResource(t *testing.T) {
	t.Parallel()

	cfg := setupWorkspace(t)
	b := New(cfg)
	if _, err := b.BuildBlueprint("base"); err != nil {
		t.Fatalf("build blueprint: %v", err)
	}

	writeFile(t, filepath.Join(cfg.Dirs.Raw, "series.csv"), `var_name;series;timeindex_start;timeindex_resolution;scenario
x;[1];2050-01-01 00:00:00;h;ALL
`)
	writeFile(t, filepath.Join(cfg.Dirs.Scenarios, "bad.yaml"), `sequences:
  - path: series.csv
    sequence_name: no_such_profile
    scenario: ALL
`)

	_, err := b.BuildScenario("base", "bad")
	if !errors.Is(err, model.ErrTargetResourceNotFound) {
		t.Fatalf("got=%v want ErrTargetResourceNotFound", err)
	}

	// 全有或全无：失败的构建不留输出
	if _, statErr := os.Stat(filepath.Join(cfg.Dirs.Datapackages, "base_bad")); !os.IsNotExist(statErr) {
		t.Fatalf("partial package left on disk: %v", statErr)
	}
}

func TestBuildScenarioMissingRawFile(t *testing.T) {
	t.Parallel()

	cfg := setupWorkspace(t)
	b := New(cfg)
	if _, err := b.BuildBlueprint("base"); err != nil {
		t.Fatalf("build blueprint: %v", err)
	}

	writeFile(t, filepath.Join(cfg.Dirs.Scenarios, "lost.yaml"), `elements:
  - path: does_not_exist.csv
    scenario: ALL
`)

	_, err := b.BuildScenario("base", "lost")
	if !errors.Is(err, model.ErrRawFileNotFound) {
		t.Fatalf("got=%v want ErrRawFileNotFound", err)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Dirs.Datapackages, "base_lost")); !os.IsNotExist(statErr) {
		t.Fatalf("partial package left on disk: %v", statErr)
	}
}
