package rawdata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"gridpack/internal/model"
)

func writeRaw(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write raw file: %v", err)
	}
	return path
}

func collect(t *testing.T, raw *RawTable) []Row {
	t.Helper()
	var rows []Row
	if err := raw.Each(func(r Row) error {
		rows = append(rows, r)
		return nil
	}); err != nil {
		t.Fatalf("each: %v", err)
	}
	return rows
}

func TestLoadFiltersByScenario(t *testing.T) {
	t.Parallel()

	path := writeRaw(t, "single.csv", `name;var_name;var_value;scenario
l1;amount;10;ALL
l1;amount;7;2050-eff
l1;amount;3;2030-base
`)

	raw, err := Loader{}.Load(path, "scenario", "2050-eff")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer raw.Close()

	rows := collect(t, raw)
	if len(rows) != 2 {
		t.Fatalf("rows: got=%d want=2 (ALL + 2050-eff)", len(rows))
	}
	for _, row := range rows {
		if row["scenario"] != ScenarioWildcard && row["scenario"] != "2050-eff" {
			t.Fatalf("unexpected row retained: %v", row)
		}
	}
}

func TestLoadWildcardAlwaysIncluded(t *testing.T) {
	t.Parallel()

	path := writeRaw(t, "single.csv", `name;amount;scenario
l1;10;ALL
`)

	for _, value := range []string{"a", "b", "ALL"} {
		raw, err := Loader{}.Load(path, "scenario", value)
		if err != nil {
			t.Fatalf("load %q: %v", value, err)
		}
		rows := collect(t, raw)
		raw.Close()
		if len(rows) != 1 {
			t.Fatalf("filter %q: got=%d rows want=1", value, len(rows))
		}
	}
}

func TestEachIsRestartable(t *testing.T) {
	t.Parallel()

	path := writeRaw(t, "multi.csv", `name;capacity;scenario
liion;99;ALL
naion;50;ALL
`)

	raw, err := Loader{}.Load(path, "scenario", "whatever")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer raw.Close()

	first := collect(t, raw)
	second := collect(t, raw)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("iteration not restartable: first=%d second=%d", len(first), len(second))
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Loader{}.Load(filepath.Join(t.TempDir(), "nope.csv"), "scenario", "x")
	if !errors.Is(err, model.ErrRawFileNotFound) {
		t.Fatalf("got=%v want ErrRawFileNotFound", err)
	}
}

func TestLoadMissingFilterColumn(t *testing.T) {
	t.Parallel()

	path := writeRaw(t, "single.csv", `name;amount
l1;10
`)
	_, err := Loader{}.Load(path, "scenario", "x")
	if !errors.Is(err, model.ErrInvalidOverlaySpec) {
		t.Fatalf("got=%v want ErrInvalidOverlaySpec", err)
	}
}

func TestLoadCustomDelimiter(t *testing.T) {
	t.Parallel()

	path := writeRaw(t, "single.csv", "name,amount,scenario\nl1,10,ALL\n")

	raw, err := Loader{Delimiter: ','}.Load(path, "scenario", "x")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer raw.Close()

	rows := collect(t, raw)
	if len(rows) != 1 || rows[0]["amount"] != "10" {
		t.Fatalf("rows: %v", rows)
	}
}

func TestLoadXLSXMatchesCSV(t *testing.T) {
	t.Parallel()

	content := [][]string{
		{"name", "var_name", "var_value", "scenario"},
		{"l1", "amount", "10", "ALL"},
		{"l1", "amount", "7", "2050"},
		{"l1", "amount", "3", "2030"},
	}

	dir := t.TempDir()

	csvPath := filepath.Join(dir, "raw.csv")
	var sb strings.Builder
	for _, row := range content {
		sb.WriteString(strings.Join(row, ";"))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(csvPath, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	xlsxPath := filepath.Join(dir, "raw.xlsx")
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	for i, row := range content {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		anchor, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetSheetRow(sheet, anchor, &cells); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	if err := wb.SaveAs(xlsxPath); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	wb.Close()

	load := func(path string) []Row {
		raw, err := Loader{}.Load(path, "scenario", "2050")
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		defer raw.Close()
		return collect(t, raw)
	}

	fromCSV := load(csvPath)
	fromXLSX := load(xlsxPath)
	if len(fromCSV) != 2 {
		t.Fatalf("csv rows: got=%d want=2 (ALL + 2050)", len(fromCSV))
	}
	// 同样的数据，工作簿与分隔文本产出完全一致的过滤结果
	if diff := cmp.Diff(fromCSV, fromXLSX); diff != "" {
		t.Fatalf("xlsx differs from csv (-csv +xlsx):\n%s", diff)
	}
}

func TestLoadQuotedColumnNames(t *testing.T) {
	t.Parallel()

	// 列名来自外部文件，内嵌引号也不能破坏查询
	path := writeRaw(t, "odd.csv", `name;"od""d";scenario
l1;x;ALL
`)
	raw, err := Loader{}.Load(path, "scenario", "x")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer raw.Close()

	if len(collect(t, raw)) != 1 {
		t.Fatal("row lost")
	}
}
