package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadCSV reads a labeled stream from a CSV file. Every column but the last
// is a feature; the last column is the binary label. A first row that does
// not parse as numbers is treated as a header and skipped. The dataset name
// is the file's base name without extension.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ReadCSV(name, f)
}

// ReadCSV parses CSV rows from r into a dataset named name.
func ReadCSV(name string, r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var x [][]float64
	var y []int
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataIntegrityError{Source: name, Index: row, Reason: err.Error()}
		}
		if len(record) < 2 {
			return nil, &DataIntegrityError{Source: name, Index: row,
				Reason: fmt.Sprintf("row has %d columns, need at least 2", len(record))}
		}

		features, label, perr := parseRow(record)
		if perr != nil {
			if row == 0 {
				// Header row.
				row++
				continue
			}
			return nil, &DataIntegrityError{Source: name, Index: row, Reason: perr.Error()}
		}
		x = append(x, features)
		y = append(y, label)
		row++
	}

	if err := validate(name, x, y); err != nil {
		return nil, err
	}
	return &Dataset{Name: name, X: x, Y: y}, nil
}

func parseRow(record []string) ([]float64, int, error) {
	features := make([]float64, len(record)-1)
	for j := 0; j < len(record)-1; j++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[j]), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("column %d: %w", j, err)
		}
		features[j] = v
	}

	raw := strings.TrimSpace(record[len(record)-1])
	label, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("label column: %w", err)
	}
	switch label {
	case 0:
		return features, 0, nil
	case 1:
		return features, 1, nil
	default:
		return nil, 0, fmt.Errorf("label %q is not 0 or 1", raw)
	}
}
