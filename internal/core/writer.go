package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RowWriter writes output records as CSV under a fixed field list.
type RowWriter struct {
	w      io.Writer
	csv    *csv.Writer
	fields []string
	known  map[string]bool
	eol    string
}

// NewRowWriter creates a writer for the given output fields.
func NewRowWriter(w io.Writer, fields []string, useCRLF bool) *RowWriter {
	cw := csv.NewWriter(w)
	cw.UseCRLF = useCRLF

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f] = true
	}

	eol := "\n"
	if useCRLF {
		eol = "\r\n"
	}

	return &RowWriter{w: w, csv: cw, fields: fields, known: known, eol: eol}
}

// WriteHeader writes the opaque file header line followed by the output
// field header row.
func (w *RowWriter) WriteHeader(fileHeader string) error {
	if _, err := io.WriteString(w.w, fileHeader+w.eol); err != nil {
		return fmt.Errorf("write file header: %w", err)
	}
	if err := w.csv.Write(w.fields); err != nil {
		return fmt.Errorf("write column header: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// WriteRecord writes one record in output field order.
//
// A record with a field outside the output list, or with overflow values,
// is rejected with ErrFieldMismatch and nothing is written. Output fields
// the record lacks are written empty. Each row is flushed, so an I/O error
// is reported by the row that hit it.
func (w *RowWriter) WriteRecord(r Record) error {
	var extra []string
	for _, k := range r.Keys() {
		if !w.known[k] {
			extra = append(extra, k)
		}
	}
	if len(r.Overflow) > 0 {
		extra = append(extra, fmt.Sprintf("%d overflow value(s)", len(r.Overflow)))
	}
	if len(extra) > 0 {
		return fmt.Errorf("%w: unexpected %s", ErrFieldMismatch, strings.Join(extra, ", "))
	}

	row := make([]string, len(w.fields))
	for i, f := range w.fields {
		row[i], _ = r.Get(f)
	}

	if err := w.csv.Write(row); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Flush writes any buffered rows to the underlying writer.
func (w *RowWriter) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
