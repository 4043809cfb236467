package net

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrEmptyDataset is returned by LoadCSV when the file has no data rows.
var ErrEmptyDataset = errors.New("net: dataset has no rows")

// Dataset pairs network inputs with their teacher vectors.
type Dataset struct {
	Inputs   [][]float64
	Teachers [][]float64
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	return len(d.Inputs)
}

// LoadCSV reads a numeric CSV file. Columns listed in teacherCols form the
// teacher vector in the given order; all others form the input in file
// order. hasHeader skips the first line.
func LoadCSV(filename string, teacherCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, ErrEmptyDataset
	}

	numCols := len(records[0])
	teacherAt := make(map[int]int, len(teacherCols))
	for k, col := range teacherCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("teacher column %d out of range [0, %d)", col, numCols)
		}
		teacherAt[col] = k
	}

	d := &Dataset{
		Inputs:   make([][]float64, 0, len(records)-startRow),
		Teachers: make([][]float64, 0, len(records)-startRow),
	}
	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}

		input := make([]float64, 0, numCols-len(teacherAt))
		teacher := make([]float64, len(teacherCols))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			if k, ok := teacherAt[j]; ok {
				teacher[k] = v
			} else {
				input = append(input, v)
			}
		}
		d.Inputs = append(d.Inputs, input)
		d.Teachers = append(d.Teachers, teacher)
	}
	return d, nil
}

// Normalize rescales every input column to [0, 1]. Constant columns become 0.
func (d *Dataset) Normalize() {
	if len(d.Inputs) == 0 {
		return
	}

	lo := append([]float64(nil), d.Inputs[0]...)
	hi := append([]float64(nil), d.Inputs[0]...)
	for _, x := range d.Inputs {
		for i, v := range x {
			lo[i] = min(lo[i], v)
			hi[i] = max(hi[i], v)
		}
	}

	for _, x := range d.Inputs {
		for i := range x {
			if span := hi[i] - lo[i]; span != 0 {
				x[i] = (x[i] - lo[i]) / span
			} else {
				x[i] = 0
			}
		}
	}
}

// Split returns the first ratio share of the examples and the rest. The
// halves share backing storage with d.
func (d *Dataset) Split(ratio float64) (*Dataset, *Dataset) {
	if ratio <= 0 {
		return &Dataset{}, d
	}
	if ratio >= 1 {
		return d, &Dataset{}
	}

	at := int(float64(len(d.Inputs)) * ratio)
	return &Dataset{Inputs: d.Inputs[:at], Teachers: d.Teachers[:at]},
		&Dataset{Inputs: d.Inputs[at:], Teachers: d.Teachers[at:]}
}
