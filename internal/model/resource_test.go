package model

import (
	"errors"
	"testing"
)

func TestAppendRowRejectsDuplicateName(t *testing.T) {
	t.Parallel()

	res := NewElementResource("demand", []string{"name", "amount"})
	if err := res.AppendRow(Row{"name": "d1", "amount": "5"}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	err := res.AppendRow(Row{"name": "d1", "amount": "6"})
	if !errors.Is(err, ErrInvalidInstance) {
		t.Fatalf("duplicate append: got=%v want ErrInvalidInstance", err)
	}
}

func TestAppendRowRequiresName(t *testing.T) {
	t.Parallel()

	res := NewElementResource("demand", []string{"name", "amount"})
	err := res.AppendRow(Row{"amount": "5"})
	if !errors.Is(err, ErrInvalidInstance) {
		t.Fatalf("nameless append: got=%v want ErrInvalidInstance", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	res := NewElementResource("demand", []string{"name", "amount"})
	if err := res.AppendRow(Row{"name": "d1", "amount": "5"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	pkg := &Datapackage{Name: "base", Resources: []*Resource{res}}

	clone := pkg.Clone("base_test")
	clone.Resource("demand").Rows[0]["amount"] = "99"
	clone.Resource("demand").Columns[1] = "changed"

	if got := res.Rows[0]["amount"]; got != "5" {
		t.Fatalf("original row mutated: amount=%s", got)
	}
	if got := res.Columns[1]; got != "amount" {
		t.Fatalf("original columns mutated: %s", got)
	}
	if clone.Name != "base_test" {
		t.Fatalf("clone name: %s", clone.Name)
	}
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	res := NewSequenceResource("profile", []string{"2050-01-01 00:00:00", "2050-01-01 01:00:00"})
	res.AddColumn("p", "0")

	// 数值列：可解析的新值按数值字面量归一化
	if got := res.Coerce("p", "4.5866"); got != "4.5866" {
		t.Fatalf("numeric coerce: got=%s", got)
	}
	// 数值列：不可解析的新值原样保留
	if got := res.Coerce("p", "n/a"); got != "n/a" {
		t.Fatalf("unparsable coerce: got=%s", got)
	}

	// 全空列尚无类型，原样保留
	res.AddColumn("q", "")
	if got := res.Coerce("q", "007"); got != "007" {
		t.Fatalf("untyped coerce: got=%s", got)
	}
}

func TestColumnIsNumeric(t *testing.T) {
	t.Parallel()

	res := NewElementResource("demand", []string{"name", "amount", "label"})
	_ = res.AppendRow(Row{"name": "d1", "amount": "5", "label": "x"})
	_ = res.AppendRow(Row{"name": "d2", "amount": "", "label": "7"})

	if !res.ColumnIsNumeric("amount") {
		t.Fatal("amount should be numeric (empty cells ignored)")
	}
	if res.ColumnIsNumeric("label") {
		t.Fatal("label should not be numeric")
	}
	if res.ColumnIsNumeric("missing") {
		t.Fatal("missing column should not be numeric")
	}
}
