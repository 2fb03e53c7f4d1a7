package sheets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceReadRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "responses.csv")
	content := "Timestamp,Email,Edition,Module\n2024-03-01 10:00:00,a@example.com,1,M1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	src := NewFileSource(path)
	rows, err := src.ReadRows(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@example.com", rows[1][1])
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.csv"))
	_, err := src.ReadRows(context.Background(), "")
	assert.Error(t, err)
}
