// Package export renders ledger datasets as CSV, Excel or PDF documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format is an export file format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
)

// ErrUnsupportedFormat is returned for formats other than csv, xlsx and pdf
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat parses a format name. "excel" is accepted as an alias of xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// FileExtension returns the file extension of the format, including the dot
func (f Format) FileExtension() string {
	switch f {
	case FormatCSV, FormatExcel, FormatPDF:
		return "." + string(f)
	default:
		return ""
	}
}

// Column describes one field of a dataset
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Dataset is a named table of rows ready for export
type Dataset struct {
	Name    string
	Title   string
	Columns []Column
	Rows    []map[string]any
	Summary map[string]any
}

// Keys returns the column keys in order
func (d Dataset) Keys() []string {
	keys := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		keys[i] = c.Key
	}
	return keys
}

// Labels returns the column labels in order
func (d Dataset) Labels() []string {
	labels := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		labels[i] = c.Label
	}
	return labels
}

// Write renders the dataset to w in the given format
func Write(w io.Writer, format Format, ds Dataset) error {
	switch format {
	case FormatCSV:
		e := NewCSVExporter(w, DefaultCSVOptions())
		if err := e.WriteDataset(ds); err != nil {
			return err
		}
		return e.Flush()
	case FormatExcel:
		opts := DefaultExcelOptions()
		opts.SheetName = sheetName(ds.Name)
		e := NewExcelExporter(opts)
		defer e.Close()
		if err := e.WriteDataset(ds); err != nil {
			return err
		}
		return e.WriteTo(w)
	case FormatPDF:
		opts := DefaultPDFOptions()
		opts.Title = ds.Title
		g := NewPDFGenerator(opts)
		if err := g.GenerateReport(ds); err != nil {
			return err
		}
		return g.WriteTo(w)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// sheetName keeps sheet names within Excel's 31 character limit
func sheetName(name string) string {
	if name == "" {
		return "Report"
	}
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
