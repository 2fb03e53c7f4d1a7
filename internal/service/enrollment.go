package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/evalboard/evalboard-api/internal/models"
)

// defaultEnrollment is the built-in headcount per module and edition,
// used when no enrollment file is configured. Counts are administrative
// facts maintained by hand as new editions open.
var defaultEnrollment = map[string]int{
	"M1-Ed1": 447, "M2-Ed1": 0, "M3-Ed1": 0, "M4-Ed1": 0, "M5-Ed1": 0,
	"M6-Ed1": 0, "M7-Ed1": 0, "M8-Ed1": 0, "M9-Ed1": 0,
	"P1-Ed1": 0, "P2-Ed1": 0,
	"M1-Ed2": 0, "M2-Ed2": 0, "M3-Ed2": 0, "M4-Ed2": 0, "M5-Ed2": 0,
	"M6-Ed2": 0, "M7-Ed2": 0, "M8-Ed2": 0, "M9-Ed2": 0,
	"P1-Ed2": 0, "P2-Ed2": 0,
}

// EnrollmentService resolves the number of enrolled students for a
// module and edition combination, including the ALL wildcards.
type EnrollmentService struct {
	table  map[string]int
	logger *zap.Logger
}

// NewEnrollmentService builds the service from the built-in table,
// optionally overridden by a CSV file with module,edition,count rows.
func NewEnrollmentService(filePath string, logger *zap.Logger) *EnrollmentService {
	table := make(map[string]int, len(defaultEnrollment))
	for k, v := range defaultEnrollment {
		table[k] = v
	}

	if filePath != "" {
		loaded, err := loadEnrollmentFile(filePath)
		if err != nil {
			if logger != nil {
				logger.Warn("enrollment file not loaded, using built-in table",
					zap.String("path", filePath), zap.Error(err))
			}
		} else {
			table = loaded
		}
	}

	return &EnrollmentService{table: table, logger: logger}
}

func loadEnrollmentFile(path string) (map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open enrollment file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read enrollment file: %w", err)
	}

	table := make(map[string]int)
	for i, record := range records {
		if len(record) < 3 {
			continue
		}
		module := strings.TrimSpace(record[0])
		edition := strings.TrimSpace(record[1])
		count, convErr := strconv.Atoi(strings.TrimSpace(record[2]))
		if convErr != nil {
			if i == 0 {
				// header row
				continue
			}
			return nil, fmt.Errorf("enrollment row %d: %w", i+1, convErr)
		}
		table[module+"-"+edition] = count
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("enrollment file %s has no usable rows", path)
	}
	return table, nil
}

// EnrolledCount returns the headcount for a module and edition. The
// ALL wildcard on either axis sums across that axis; unknown
// combinations return 0.
func (s *EnrollmentService) EnrolledCount(module, edition string) int {
	if module != models.CodeAll && edition != models.CodeAll {
		return s.table[module+"-"+edition]
	}

	total := 0
	for key, count := range s.table {
		sep := strings.LastIndex(key, "-")
		if sep < 0 {
			continue
		}
		keyModule, keyEdition := key[:sep], key[sep+1:]
		if module != models.CodeAll && keyModule != module {
			continue
		}
		if edition != models.CodeAll && keyEdition != edition {
			continue
		}
		total += count
	}
	return total
}
