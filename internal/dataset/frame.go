// Package dataset loads numeric tabular data for the command line tools.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// Frame is a numeric table with named columns.
type Frame struct {
	Columns []string
	Data    *mat.Dense
}

// NewFrame wraps data with column names. Empty names are replaced with X1..Xn.
func NewFrame(columns []string, data *mat.Dense) (*Frame, error) {
	if data == nil {
		return nil, errors.NewValueError("dataset.NewFrame", "nil data")
	}
	_, c := data.Dims()
	if columns == nil {
		columns = defaultNames(c)
	}
	if len(columns) != c {
		return nil, errors.NewDimensionError("dataset.NewFrame", c, len(columns), 1)
	}
	seen := make(map[string]struct{}, c)
	for _, name := range columns {
		if _, dup := seen[name]; dup {
			return nil, errors.NewValidationError("columns", "duplicate column name", name)
		}
		seen[name] = struct{}{}
	}
	return &Frame{Columns: append([]string(nil), columns...), Data: data}, nil
}

// Dims returns the number of rows and columns.
func (f *Frame) Dims() (int, int) {
	return f.Data.Dims()
}

// Index returns the position of a column, or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Select copies the named columns, in the given order, into a new matrix.
func (f *Frame) Select(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		return nil, errors.NewValueError("Frame.Select", "no columns requested")
	}
	idx := make([]int, len(names))
	for j, name := range names {
		idx[j] = f.Index(name)
		if idx[j] < 0 {
			return nil, errors.NewValidationError("column", "not found in data", name)
		}
	}
	r, _ := f.Dims()
	out := mat.NewDense(r, len(idx), nil)
	for i := 0; i < r; i++ {
		for j, c := range idx {
			out.Set(i, j, f.Data.At(i, c))
		}
	}
	return out, nil
}

// Except returns every column name except the given ones, in frame order.
func (f *Frame) Except(names ...string) []string {
	skip := make(map[string]struct{}, len(names))
	for _, n := range names {
		skip[n] = struct{}{}
	}
	var out []string
	for _, c := range f.Columns {
		if _, ok := skip[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// ReadCSV parses comma separated numeric data. The first row is taken as a
// header when any of its cells is not a number; otherwise columns are named
// X1..Xn.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	first, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("dataset.ReadCSV", "invalid input", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "dataset.ReadCSV")
	}

	var (
		columns []string
		rows    [][]float64
	)
	if isHeader(first) {
		columns = first
	} else {
		columns = defaultNames(len(first))
		row, err := parseRow(first, 1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "dataset.ReadCSV")
		}
		row, err := parseRow(record, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("dataset.ReadCSV", "invalid input", errors.ErrEmptyData)
	}

	data := mat.NewDense(len(rows), len(columns), nil)
	for i, row := range rows {
		data.SetRow(i, row)
	}
	return NewFrame(columns, data)
}

// WriteCSV writes the frame with a header row.
func WriteCSV(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns); err != nil {
		return errors.Wrap(err, "dataset.WriteCSV")
	}
	r, c := f.Dims()
	record := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			record[j] = strconv.FormatFloat(f.Data.At(i, j), 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, "dataset.WriteCSV")
		}
	}
	writer.Flush()
	return errors.WithStack(writer.Error())
}

// isHeader treats a row as a header when one or more values is not a number.
func isHeader(row []string) bool {
	for _, val := range row {
		if _, err := strconv.ParseFloat(val, 64); err != nil {
			return true
		}
	}
	return false
}

func parseRow(record []string, line int) ([]float64, error) {
	row := make([]float64, len(record))
	for j, val := range record {
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("line %d column %d", line, j+1), "not a number", val)
		}
		row[j] = v
	}
	return row, nil
}

func defaultNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("X%d", i+1)
	}
	return names
}
