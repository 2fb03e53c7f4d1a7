package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalboard/evalboard-api/internal/models"
)

func TestEnrolledCountExactCombination(t *testing.T) {
	svc := NewEnrollmentService("", nil)
	assert.Equal(t, 447, svc.EnrolledCount("M1", "Ed1"))
	assert.Equal(t, 0, svc.EnrolledCount("P2", "Ed2"))
	assert.Equal(t, 0, svc.EnrolledCount("M99", "Ed1"))
}

func TestEnrolledCountWildcards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrollment.csv")
	content := "module,edition,count\nM1,Ed1,30\nM1,Ed2,20\nM2,Ed1,10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	svc := NewEnrollmentService(path, nil)
	assert.Equal(t, 50, svc.EnrolledCount("M1", models.CodeAll))
	assert.Equal(t, 40, svc.EnrolledCount(models.CodeAll, "Ed1"))
	assert.Equal(t, 60, svc.EnrolledCount(models.CodeAll, models.CodeAll))
}

func TestEnrollmentFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrollment.csv")
	content := "module,edition,count\nM1,Ed1,40\nM2,Ed1,12\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	svc := NewEnrollmentService(path, nil)
	assert.Equal(t, 40, svc.EnrolledCount("M1", "Ed1"))
	assert.Equal(t, 52, svc.EnrolledCount(models.CodeAll, "Ed1"))
	// override replaces the built-in table entirely
	assert.Equal(t, 0, svc.EnrolledCount("M3", "Ed1"))
	assert.Equal(t, 0, svc.EnrolledCount("M1", "Ed2"))
}

func TestEnrollmentFileUnreadableFallsBack(t *testing.T) {
	svc := NewEnrollmentService(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Equal(t, 447, svc.EnrolledCount("M1", "Ed1"))
}
