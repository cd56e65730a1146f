// Package ingest loads CSV and Excel files into typed tables.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabloom/internal/table"
)

var (
	// ErrUnsupportedFormat is returned for extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported file format: please upload CSV or Excel files")
	// ErrEmptyDataset is returned when a file parses to zero data rows.
	ErrEmptyDataset = errors.New("the file is empty")
)

// FileReadError wraps a failure from the underlying format reader.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string { return fmt.Sprintf("error reading file: %v", e.Err) }
func (e *FileReadError) Unwrap() error { return e.Err }

// Options tunes how a file is read.
type Options struct {
	// Sheet selects a workbook sheet by name; empty means the first sheet.
	Sheet string
	// Delimiter overrides the CSV field separator; 0 means ','.
	Delimiter rune
}

// Reader turns one file format into a header plus raw text records.
type Reader interface {
	CanRead(ext string) bool
	Read(path string, opt Options) (header []string, records [][]string, err error)
}

var registry []Reader

// Register adds a reader to the registry. Later registrations do not
// override earlier ones for the same extension.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
	Register(xlsReader{})
}

// Extension returns the lowercased extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Supported reports whether a registered reader handles the extension.
func Supported(ext string) bool {
	return readerFor(strings.ToLower(strings.TrimPrefix(ext, "."))) != nil
}

func readerFor(ext string) Reader {
	for _, r := range registry {
		if r.CanRead(ext) {
			return r
		}
	}
	return nil
}

// Load reads a file with default options.
func Load(path string) (*table.Table, error) {
	return LoadWithOptions(path, Options{})
}

// LoadWithOptions dispatches on the file extension and builds a typed table.
func LoadWithOptions(path string, opt Options) (*table.Table, error) {
	ext := Extension(path)
	r := readerFor(ext)
	if r == nil {
		return nil, fmt.Errorf("%w (got %q)", ErrUnsupportedFormat, filepath.Ext(path))
	}
	header, records, err := r.Read(path, opt)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	if len(header) == 0 || len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	t, err := build(filepath.Base(path), header, records)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return t, nil
}

func build(name string, header []string, records [][]string) (*table.Table, error) {
	names := columnNames(header)
	cols := make([]*table.Column, len(names))
	cells := make([]string, len(records))
	for j, n := range names {
		for i, rec := range records {
			if j < len(rec) {
				cells[i] = rec[j]
			} else {
				cells[i] = ""
			}
		}
		cols[j] = table.InferColumn(n, cells)
	}
	return table.New(name, cols)
}

// columnNames fills blank headers and suffixes repeats as name.1, name.2.
func columnNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[h]; dup {
			base := h
			for n := seen[base] + 1; ; n++ {
				cand := fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[cand]; !taken {
					seen[base] = n
					h = cand
					break
				}
			}
		}
		seen[h] = 0
		out[i] = h
	}
	return out
}
