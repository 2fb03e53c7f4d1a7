package service

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
)

// Consolidated sheet layout, one response per row:
//
//	col 0      timestamp
//	col 1      email address
//	col 2      edition number (1, 2, ...)
//	col 3      module code (M1..M9, P1, P2)
//	cols 4-8   course items
//	cols 9-15  teaching items
//	cols 16-18 organization items
//	col 19     free-text comments
//
// The first row is the header and is skipped.
const (
	colTimestamp = 0
	colEmail     = 1
	colEdition   = 2
	colModule    = 3
	colComments  = 19
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"1/2/2006 15:04:05",
	"02/01/2006",
	"2006-01-02",
}

// SheetParser converts raw spreadsheet rows into response records.
type SheetParser struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSheetParser constructs a parser.
func NewSheetParser(logger *zap.Logger) *SheetParser {
	return &SheetParser{logger: logger, now: time.Now}
}

// Parse converts the raw sheet into responses. Inputs shorter than two
// rows carry no data rows and yield an empty slice. Malformed cells
// degrade per field rather than dropping the row.
func (p *SheetParser) Parse(rows [][]string) []models.StudentResponse {
	if len(rows) < 2 {
		return []models.StudentResponse{}
	}

	responses := make([]models.StudentResponse, 0, len(rows)-1)
	for _, row := range rows[1:] {
		responses = append(responses, p.parseRow(row))
	}
	return responses
}

func (p *SheetParser) parseRow(row []string) models.StudentResponse {
	response := models.StudentResponse{
		Timestamp: p.parseTimestamp(cell(row, colTimestamp)),
		Email:     strings.TrimSpace(cell(row, colEmail)),
		Edition:   parseEdition(cell(row, colEdition)),
		Module:    strings.TrimSpace(cell(row, colModule)),

		ObjectiveClarity:      parseRating(cell(row, 4)),
		ModuleArticulation:    parseRating(cell(row, 5)),
		PlatformUse:           parseRating(cell(row, 6)),
		KnowledgeContribution: parseRating(cell(row, 7)),
		OverallCourseRating:   parseRating(cell(row, 8)),

		LessonStructure:       parseRating(cell(row, 9)),
		ContentDelivery:       parseRating(cell(row, 10)),
		ContentMastery:        parseRating(cell(row, 11)),
		Punctuality:           parseRating(cell(row, 12)),
		SupportAvailability:   parseRating(cell(row, 13)),
		ParticipationStimulus: parseRating(cell(row, 14)),
		OverallTeacherRating:  parseRating(cell(row, 15)),

		ExecutiveSupport:    parseRating(cell(row, 16)),
		CourseOrganization:  parseRating(cell(row, 17)),
		FacilitiesEquipment: parseRating(cell(row, 18)),
	}

	if comment := strings.TrimSpace(cell(row, colComments)); comment != "" {
		response.Comments = &comment
	}
	return response
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return row[index]
}

// parseTimestamp accepts the formats the sheet has historically
// produced. An unparseable value falls back to the current time so the
// row is never lost over a bad date.
func (p *SheetParser) parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return p.now().UTC()
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	if p.logger != nil {
		p.logger.Warn("unparseable timestamp, using current time", zap.String("value", raw))
	}
	return p.now().UTC()
}

// parseEdition maps the sheet's edition number onto the EdN code.
// Missing values default to the first edition. Cells that already
// carry the Ed prefix pass through unchanged so a re-imported export
// never becomes "EdEd1".
func parseEdition(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Ed1"
	}
	if strings.HasPrefix(raw, "Ed") {
		return raw
	}
	return "Ed" + raw
}

// parseRating reads a 1-7 scale cell. Blank and malformed cells become
// 0, the no-answer marker.
func parseRating(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
