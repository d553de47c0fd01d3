// Package csvio reads and writes the delimited files used by the
// batch operations. Files live in a configured data directory and
// carry a header record that is skipped on load.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Header is the fixed column order of import and export files. Email
// and address may be left empty in data rows.
var Header = []string{"firstname", "lastname", "phone", "email", "address"}

// Resolve returns the path of a bare filename inside the data
// directory.
func Resolve(dataDir, filename string) string {
	return filepath.Join(dataDir, filename)
}

// Exists reports whether the file is present, so front ends can check
// before starting a batch.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads a CSV file and returns its data rows. The first record
// is always treated as a header and skipped. Rows may have fewer or
// more fields than the header; the phonebook decides what to do with
// them.
func Load(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv file: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

// Save writes the header followed by the given rows, producing a file
// that Load can read back.
func Save(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	writer := csv.NewWriter(f)
	if err := writer.Write(Header); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write csv rows: %w", err)
	}
	return f.Close()
}
