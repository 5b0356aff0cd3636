package fileutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\ufeff"

// CSVReader provides a helper/utility to read header-delimited CSV file(s)
type CSVReader struct {
	FilePath string
}

// NewCSVReader returns a CSVReader instance for a specified CSV file
func NewCSVReader(fp string) *CSVReader {
	return &CSVReader{
		FilePath: fp,
	}
}

// ReadHeader reads ONLY the header of the specified CSV file.
// A leading UTF-8 byte order mark and surrounding spaces are stripped from the column names.
func (r *CSVReader) ReadHeader() ([]string, error) {
	f, err := os.Open(r.FilePath)
	if err != nil {
		return nil, fmt.Errorf("opening a csv file: %w", err)
	}
	defer f.Close()

	return readHeader(csv.NewReader(f))
}

// ReadAndProcessByRow reads and processes a CSV file row by row, allows for streaming large file(s).
// processorFn receives the 1-based data row index (the header is not counted).
// A row whose field count differs from the header's is an error.
func (r *CSVReader) ReadAndProcessByRow(processorFn func(rowIndex int, row []string) error) error {
	f, err := os.Open(r.FilePath)
	if err != nil {
		return fmt.Errorf("opening a csv file: %w", err)
	}
	defer f.Close()

	return ProcessRows(f, processorFn)
}

// ProcessRows is ReadAndProcessByRow over an arbitrary reader, the header row is skipped
func ProcessRows(src io.Reader, processorFn func(rowIndex int, row []string) error) error {
	reader := csv.NewReader(src)

	if _, err := readHeader(reader); err != nil {
		return err
	}

	// read and process row by row
	for rowIndex := 1; ; rowIndex++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break // end of file, stop
		}
		if err != nil {
			return fmt.Errorf("reading CSV row %d: %w", rowIndex, err)
		}

		if err = processorFn(rowIndex, row); err != nil {
			return err
		}
	}

	return nil
}

func readHeader(reader *csv.Reader) ([]string, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	for i, column := range header {
		if i == 0 {
			column = strings.TrimPrefix(column, utf8BOM)
		}
		header[i] = strings.TrimSpace(column)
	}

	return header, nil
}
