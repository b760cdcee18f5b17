package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Writer writes CSV rows, creating parent directories on Create.
type Writer struct {
	buf    *bufio.Writer
	csv    *csv.Writer
	closer io.Closer
}

func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

func NewWriter(dst io.Writer) *Writer {
	buf := bufio.NewWriter(dst)
	return &Writer{buf: buf, csv: csv.NewWriter(buf)}
}

func (w *Writer) Write(fields ...string) error {
	return w.csv.Write(fields)
}

// Close flushes buffered rows and closes the underlying file, if any.
func (w *Writer) Close() error {
	w.csv.Flush()
	err := w.csv.Error()
	if ferr := w.buf.Flush(); err == nil {
		err = ferr
	}
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	return err
}
