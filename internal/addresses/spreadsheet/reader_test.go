package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"avfall_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheets map[string][][]any, order []string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, values := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			row := values
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatalf("set row: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestReadPrefersDataSheet(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"Info": {{"Kommentar"}, {"ikke importer"}},
		"DATA": {
			{"Postnummer", "Gate/vei", "Husnr", "Sted", "Avfall", "Ukedag"},
			{372, "Kirkegata", "5", "Oslo", 119901, 3},
			{"0150", "Storgata"},
		},
	}, []string{"Info", "DATA"})

	sheet, err := Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if sheet.Name != "DATA" {
		t.Fatalf("expected data sheet, got %q", sheet.Name)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(sheet.Rows))
	}

	first := sheet.Rows[0]
	if first["Postnummer"] != "372" || first["Avfall"] != "119901" || first["Ukedag"] != "3" {
		t.Fatalf("unexpected first row %v", first)
	}

	second := sheet.Rows[1]
	if second["Sted"] != "" || second["Ukedag"] != "" {
		t.Fatalf("expected missing trailing cells to be empty, got %v", second)
	}
}

func TestReadFallsBackToFirstSheet(t *testing.T) {
	buf := workbook(t, map[string][][]any{
		"Ark1": {{"Postnr", "Gate"}, {"1234", "Nordbyveien"}},
		"Ark2": {{"Postnr"}, {"9999"}},
	}, []string{"Ark1", "Ark2"})

	sheet, err := Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if sheet.Name != "Ark1" || len(sheet.Rows) != 1 || sheet.Rows[0]["Gate"] != "Nordbyveien" {
		t.Fatalf("unexpected sheet %+v", sheet)
	}
}

func TestReadRejectsNonWorkbook(t *testing.T) {
	_, err := Read(strings.NewReader("Postnummer;Gate\n0372;Kirkegata\n"))
	if err == nil {
		t.Fatal("expected error for a non-xlsx upload")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
