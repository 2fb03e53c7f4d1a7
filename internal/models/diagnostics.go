package models

// CombinationDiagnostic reports the response coverage of one
// module/edition combination.
type CombinationDiagnostic struct {
	Module        string `json:"module"`
	Edition       string `json:"edition"`
	ResponseCount int    `json:"response_count"`
	HasData       bool   `json:"has_data"`
}

// DiagnosticsStats summarises overall data coverage.
type DiagnosticsStats struct {
	TotalCombinations       int `json:"total_combinations"`
	CombinationsWithData    int `json:"combinations_with_data"`
	CombinationsWithoutData int `json:"combinations_without_data"`
	CoveragePercentage      int `json:"coverage_percentage"`
}

// DiagnosticsReport is the full coverage grid over every known
// module/edition combination.
type DiagnosticsReport struct {
	Combinations []CombinationDiagnostic `json:"combinations"`
	Stats        DiagnosticsStats        `json:"stats"`
}
