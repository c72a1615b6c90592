package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mkXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestRecordsXLSX(t *testing.T) {
	blob := mkXLSX(t, [][]any{
		{"merchant", "amount", "date"},
		{"Acme", "42.50", "2026-01-02"},
		{"Coffee Bar", "4.80", "2026-01-03"},
	})
	path := writeFile(t, "statement.xlsx", blob)

	records := Records(path)
	if len(records) != 2 {
		t.Fatalf("len=%d", len(records))
	}
	if records[0]["merchant"] != "Acme" || records[0]["amount"] != "42.50" {
		t.Fatalf("record[0]=%v", records[0])
	}
}

func TestRecordsCSV(t *testing.T) {
	path := writeFile(t, "statement.csv", []byte("merchant,amount\nAcme,42.50\nCoffee Bar,4.80\n"))
	records := Records(path)
	if len(records) != 2 {
		t.Fatalf("len=%d", len(records))
	}
	if records[1]["merchant"] != "Coffee Bar" {
		t.Fatalf("record[1]=%v", records[1])
	}
}

func TestRecordsJSON(t *testing.T) {
	path := writeFile(t, "statement.json", []byte(`[{"merchant":"Acme","amount":42.5},{"merchant":"Coffee Bar","amount":"4.80"}]`))
	records := Records(path)
	if len(records) != 2 {
		t.Fatalf("len=%d", len(records))
	}
	if records[0]["amount"] != "42.5" {
		t.Fatalf("numeric amount not stringified: %v", records[0])
	}

	single := writeFile(t, "one.json", []byte(`{"merchant":"Acme","amount":"42.50"}`))
	if got := Records(single); len(got) != 1 {
		t.Fatalf("single object should yield one record, got %d", len(got))
	}
}

func TestRecordsTxt(t *testing.T) {
	path := writeFile(t, "statement.txt", []byte("merchant: Acme amount: 42.50\nmerchant: Coffee Bar amount: 4.80\nnoise line\n"))
	records := Records(path)
	if len(records) != 2 {
		t.Fatalf("len=%d", len(records))
	}
	if records[0]["merchant"] == "" {
		t.Fatalf("record[0]=%v", records[0])
	}
}

func TestRecordsHTML(t *testing.T) {
	html := `<table><tr><th>merchant</th><th>amount</th></tr><tr><td>Acme</td><td>42.50</td></tr></table>`
	path := writeFile(t, "statement.html", []byte(html))
	records := Records(path)
	if len(records) != 1 {
		t.Fatalf("len=%d", len(records))
	}
	if records[0]["amount"] != "42.50" {
		t.Fatalf("record=%v", records[0])
	}
}

func TestRecordsUnsupported(t *testing.T) {
	path := writeFile(t, "image.png", []byte{0x89, 'P', 'N', 'G'})
	if got := Records(path); len(got) != 0 {
		t.Fatalf("unsupported format must yield empty list, got %v", got)
	}
	if got := Records(filepath.Join(t.TempDir(), "missing.csv")); len(got) != 0 {
		t.Fatalf("missing file must yield empty list, got %v", got)
	}
}
