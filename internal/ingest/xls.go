package ingest

import (
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

type xlsReader struct{}

func (xlsReader) CanRead(ext string) bool { return ext == "xls" }

func (xlsReader) Read(path string, opt Options) (header []string, records [][]string, err error) {
	// The legacy BIFF decoder panics on some malformed streams.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("decode xls: %v", p)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, nil, nil
	}

	sheet := wb.GetSheet(0)
	if opt.Sheet != "" {
		sheet = nil
		var names []string
		for i := 0; i < wb.NumSheets(); i++ {
			s := wb.GetSheet(i)
			if s == nil {
				continue
			}
			names = append(names, s.Name)
			if strings.EqualFold(s.Name, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == nil {
			return nil, nil, fmt.Errorf("sheet %q not found; available sheets: %s", opt.Sheet, strings.Join(names, ", "))
		}
	}
	if sheet == nil {
		return nil, nil, nil
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return splitHeader(rows)
}
