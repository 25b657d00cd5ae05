package core

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Reader streams an input file: one opaque header line followed by a
// comma-delimited table whose first row names the fields.
//
// A Reader is lazy and can not be restarted. Only the current row is held
// in memory.
type Reader struct {
	file       *os.File
	counter    *StreamingCountingReader
	buf        *bufio.Reader
	csv        *csv.Reader
	fileHeader string
	columns    []string
	headerDone bool
	headerErr  error
}

// OpenReader opens path and reads its file header line.
// Fails with ErrEmptyFile when the file has no first line.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	r, err := newReader(f, size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.file = f
	return r, nil
}

// NewReader wraps an arbitrary stream. The caller owns closing it.
func NewReader(src io.Reader) (*Reader, error) {
	return newReader(src, 0)
}

func newReader(src io.Reader, size int64) (*Reader, error) {
	wrapped, counter := WrapForStreaming(src, size)
	buf := bufio.NewReader(wrapped)

	line, err := buf.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header line: %w", err)
	}
	if line == "" {
		return nil, ErrEmptyFile
	}

	// Quotes are strict: a stray quote must fail its own row instead of
	// running the following lines into one field.
	cr := csv.NewReader(buf)
	cr.FieldsPerRecord = -1 // Ragged rows are padded or overflowed, not rejected

	return &Reader{
		counter:    counter,
		buf:        buf,
		csv:        cr,
		fileHeader: strings.TrimSuffix(line, "\n"),
	}, nil
}

// FileHeader returns the first line of the file without its line terminator.
// It has been through the input normalization: a leading BOM is dropped and
// invalid UTF-8 bytes read as '?'.
func (r *Reader) FileHeader() string {
	return r.fileHeader
}

// Columns returns the field names from the column header row.
// It is nil until ReadColumns or the first call to Next.
func (r *Reader) Columns() []string {
	return r.columns
}

// ReadColumns reads the column header row, once, and returns it.
//
// A file with nothing after its header line has no columns: the result is
// nil with a nil error. A column header that can not be parsed fails with
// ErrColumnHeader, and every later call returns the same error.
func (r *Reader) ReadColumns() ([]string, error) {
	if r.headerDone {
		return r.columns, r.headerErr
	}
	r.headerDone = true

	header, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		r.headerErr = fmt.Errorf("%w: %w", ErrColumnHeader, err)
		return nil, r.headerErr
	}
	r.columns = append([]string(nil), header...)
	return r.columns, nil
}

// Next returns the next data row and its line number.
//
// Short rows get "" for missing fields and extra values go to
// Record.Overflow. A malformed row returns a *csv.ParseError; the reader
// stays usable and the following call moves on to the next row. A malformed
// column header is not a row error: Next returns the ErrColumnHeader error
// from ReadColumns on every call. Returns io.EOF when no rows remain.
func (r *Reader) Next() (Record, int, error) {
	if _, err := r.ReadColumns(); err != nil {
		return Record{}, 0, err
	}
	if r.columns == nil {
		return Record{}, 0, io.EOF
	}

	row, err := r.csv.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return Record{}, pe.StartLine + 1, err
		}
		return Record{}, 0, err
	}
	line, _ := r.csv.FieldPos(0)

	rec := NewRecord(len(r.columns))
	for i, col := range r.columns {
		if i < len(row) {
			rec.Set(col, row[i])
		} else {
			rec.Set(col, "")
		}
	}
	if len(row) > len(r.columns) {
		rec.Overflow = append([]string(nil), row[len(r.columns):]...)
	}

	// csv line numbers start after the file header line.
	return rec, line + 1, nil
}

// BytesRead returns the number of raw input bytes consumed so far.
func (r *Reader) BytesRead() int64 {
	return r.counter.BytesRead
}

// Close releases the underlying file, if the reader opened one.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
