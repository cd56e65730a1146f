package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

type csvReader struct{}

func (csvReader) CanRead(ext string) bool { return ext == "csv" }

func (csvReader) Read(path string, opt Options) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if opt.Delimiter != 0 {
		r.Comma = opt.Delimiter
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)

	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		if len(rec) > len(header) {
			return nil, nil, fmt.Errorf("row %d: expected %d fields, saw %d", len(records)+1, len(header), len(rec))
		}
		records = append(records, rec)
	}
	return header, records, nil
}
