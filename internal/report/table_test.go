package report

import (
	"strings"
	"testing"
)

func TestMoney(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{100, "1.00"},
		{123456, "1234.56"},
		{-250, "-2.50"},
		{-5, "-0.05"},
	}
	for _, c := range cases {
		if got := Money(c.cents); got != c.want {
			t.Fatalf("Money(%d) = %s, want %s", c.cents, got, c.want)
		}
	}
}

func TestTableWrite(t *testing.T) {
	table := Table{
		Name:    "demo",
		Columns: []string{"sku", "amount"},
	}
	table.AddRow("MED001", Money(123456))
	table.AddRow("MED002", Money(-250))

	var sb strings.Builder
	if err := table.Write(&sb, ','); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := "sku,amount\nMED001,1234.56\nMED002,-2.50\n"
	if sb.String() != want {
		t.Fatalf("output = %q, want %q", sb.String(), want)
	}
}

func TestTableWriteQuotesEmbeddedDelimiter(t *testing.T) {
	table := Table{
		Name:    "demo",
		Columns: []string{"name"},
	}
	table.AddRow("Cough Syrup, 100ml")

	var sb strings.Builder
	if err := table.Write(&sb, ','); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(sb.String(), `"Cough Syrup, 100ml"`) {
		t.Fatalf("embedded comma not quoted: %q", sb.String())
	}
}

func TestTableWriteRejectsRaggedRows(t *testing.T) {
	table := Table{
		Name:    "demo",
		Columns: []string{"a", "b"},
	}
	table.AddRow("only-one-cell")

	var sb strings.Builder
	if err := table.Write(&sb, ','); err == nil {
		t.Fatalf("expected error for ragged row")
	}
}
