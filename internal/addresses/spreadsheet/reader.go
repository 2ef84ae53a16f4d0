// Package spreadsheet reads address rows out of uploaded xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"avfall_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

// DataSheetName is the sheet preferred when a workbook has several.
const DataSheetName = "data"

// Sheet is one worksheet flattened to header-keyed rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []map[string]any
}

// Read opens a workbook and returns the sheet named "data" (trimmed,
// case-insensitive) or, failing that, the first sheet. Row 1 holds the
// headers; columns with an empty header are ignored and cells missing at
// the end of a row read as "".
func Read(r io.Reader) (Sheet, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return Sheet{}, apperr.Wrap(apperr.KindValidation, "could not read spreadsheet", err).
			WithDetails(err.Error())
	}
	defer func() { _ = f.Close() }()

	name := pickSheet(f.GetSheetList())
	if name == "" {
		return Sheet{}, apperr.Validation("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return Sheet{}, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("could not read sheet %q", name), err)
	}

	sheet := Sheet{Name: name}
	if len(rows) == 0 {
		return sheet, nil
	}

	sheet.Headers = make([]string, len(rows[0]))
	for i, header := range rows[0] {
		sheet.Headers[i] = strings.TrimSpace(header)
	}

	sheet.Rows = make([]map[string]any, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		sheet.Rows = append(sheet.Rows, rowMap(sheet.Headers, cells))
	}
	return sheet, nil
}

func pickSheet(names []string) string {
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), DataSheetName) {
			return name
		}
	}
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func rowMap(headers []string, cells []string) map[string]any {
	row := make(map[string]any, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		if _, dup := row[header]; dup {
			continue
		}
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		row[header] = value
	}
	return row
}
