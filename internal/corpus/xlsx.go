package corpus

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX returns the rows of the first non-empty sheet.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		return rows, nil
	}

	return nil, errors.New("no data found in XLSX")
}
