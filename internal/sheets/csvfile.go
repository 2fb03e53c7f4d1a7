package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
)

// FileSource reads rows from a local CSV file. Used for offline
// imports and as the fixture-backed source in tests; the access token
// is ignored.
type FileSource struct {
	path string
}

// NewFileSource constructs a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ReadRows loads the whole file, header row included.
func (s *FileSource) ReadRows(ctx context.Context, _ string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open response file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read response file: %w", err)
	}
	return rows, nil
}
