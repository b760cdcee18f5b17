package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrNoHeader      = errors.New("csv has no header row")
)

// Reader streams a header-keyed CSV file one record at a time. Column order
// does not matter; lookups go through the header.
type Reader struct {
	name   string
	csv    *csv.Reader
	header []string
	col    map[string]int
	closer io.Closer
}

// Open opens a CSV export. Spreadsheet exports often carry a UTF-8 or
// UTF-16 byte order mark; both are honoured.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader reads the header row from src. name identifies the source in
// error messages.
func NewReader(name string, src io.Reader) (*Reader, error) {
	decoded := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(bufio.NewReader(decoded))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", name, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[i] = h
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	return &Reader{name: name, csv: cr, header: header, col: col}, nil
}

func (r *Reader) Name() string { return r.name }

// Header returns the trimmed header cells in file order.
func (r *Reader) Header() []string { return r.header }

func (r *Reader) Has(column string) bool {
	_, ok := r.col[column]
	return ok
}

func (r *Reader) Require(columns ...string) error {
	for _, c := range columns {
		if !r.Has(c) {
			return fmt.Errorf("%s: %w: %s", r.name, ErrMissingColumn, c)
		}
	}
	return nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	fields, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("%s: %w", r.name, err)
	}
	line, _ := r.csv.FieldPos(0)
	return Record{Line: line, fields: fields, col: r.col}, nil
}

// Each calls fn for every remaining record and stops at the first error.
func (r *Reader) Each(fn func(Record) error) error {
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Record is one data row. Line is the 1-based line in the source file.
type Record struct {
	Line   int
	fields []string
	col    map[string]int
}

// Get returns the trimmed value of a named column, or "" when the column
// is absent or the row is short.
func (rec Record) Get(column string) string {
	i, ok := rec.col[column]
	if !ok {
		return ""
	}
	return rec.At(i)
}

// At returns the trimmed value at a column position.
func (rec Record) At(i int) string {
	if i < 0 || i >= len(rec.fields) {
		return ""
	}
	return strings.TrimSpace(rec.fields[i])
}
