package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sheetHeader() []string {
	return []string{"Timestamp", "Email Address", "Edition", "Module",
		"1.1", "1.2", "1.3", "1.4", "1.5",
		"2.1", "2.2", "2.3", "2.4", "2.5", "2.6", "2.7",
		"3.1", "3.2", "3.3", "Comments"}
}

func TestParseSkipsHeaderAndMapsColumns(t *testing.T) {
	parser := NewSheetParser(nil)
	rows := [][]string{
		sheetHeader(),
		{"2024-03-01 10:30:00", "a@example.com", "2", "M3",
			"7", "6", "5", "4", "3",
			"7", "7", "7", "6", "6", "6", "7",
			"5", "5", "4", "great module"},
	}

	responses := parser.Parse(rows)
	require.Len(t, responses, 1)
	r := responses[0]
	assert.Equal(t, "a@example.com", r.Email)
	assert.Equal(t, "Ed2", r.Edition)
	assert.Equal(t, "M3", r.Module)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), r.Timestamp)
	assert.Equal(t, 7, r.ObjectiveClarity)
	assert.Equal(t, 3, r.OverallCourseRating)
	assert.Equal(t, 7, r.LessonStructure)
	assert.Equal(t, 7, r.OverallTeacherRating)
	assert.Equal(t, 4, r.FacilitiesEquipment)
	require.NotNil(t, r.Comments)
	assert.Equal(t, "great module", *r.Comments)
}

func TestParseTooFewRows(t *testing.T) {
	parser := NewSheetParser(nil)
	assert.Empty(t, parser.Parse(nil))
	assert.Empty(t, parser.Parse([][]string{sheetHeader()}))
}

func TestParseDefaults(t *testing.T) {
	parser := NewSheetParser(nil)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	parser.now = func() time.Time { return fixed }

	rows := [][]string{
		sheetHeader(),
		{"not a date", "b@example.com", "", "M1", "x", "8"},
	}

	responses := parser.Parse(rows)
	require.Len(t, responses, 1)
	r := responses[0]
	assert.Equal(t, fixed, r.Timestamp)
	assert.Equal(t, "Ed1", r.Edition)
	assert.Equal(t, 0, r.ObjectiveClarity)
	assert.Equal(t, 8, r.ModuleArticulation)
	assert.Equal(t, 0, r.PlatformUse)
	assert.Nil(t, r.Comments)
}

func TestParseEditionCodes(t *testing.T) {
	assert.Equal(t, "Ed1", parseEdition(""))
	assert.Equal(t, "Ed1", parseEdition("  "))
	assert.Equal(t, "Ed2", parseEdition("2"))
	assert.Equal(t, "Ed1C", parseEdition("1C"))
	// already-canonical codes pass through untouched
	assert.Equal(t, "Ed1", parseEdition("Ed1"))
	assert.Equal(t, "EdX", parseEdition("EdX"))
}

func TestParseShortRow(t *testing.T) {
	parser := NewSheetParser(nil)
	rows := [][]string{
		sheetHeader(),
		{"2024-03-01 10:30:00", "c@example.com"},
	}

	responses := parser.Parse(rows)
	require.Len(t, responses, 1)
	assert.Equal(t, "Ed1", responses[0].Edition)
	assert.Equal(t, "", responses[0].Module)
	assert.Nil(t, responses[0].Comments)
}
