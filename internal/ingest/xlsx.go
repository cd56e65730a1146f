package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(ext string) bool { return ext == "xlsx" }

func (xlsxReader) Read(path string, opt Options) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, nil, fmt.Errorf("sheet %q not found; available sheets: %s", opt.Sheet, strings.Join(sheets, ", "))
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return splitHeader(rows)
}

// splitHeader takes the first non-blank row as the header and drops blank
// rows, which spreadsheets commonly leave between blocks of data.
func splitHeader(rows [][]string) ([]string, [][]string, error) {
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	header := rows[0]
	var records [][]string
	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		if len(r) > len(header) {
			// Trailing cells past the header get positional names.
			for i := len(header); i < len(r); i++ {
				header = append(header, "")
			}
		}
		records = append(records, r)
	}
	return header, records, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
