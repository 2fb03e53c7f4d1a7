package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	sheetsapi "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"github.com/evalboard/evalboard-api/pkg/config"
)

// GoogleSource reads the consolidated response sheet through the
// Google Sheets API using the caller's OAuth access token.
type GoogleSource struct {
	cfg config.SheetsConfig
}

// NewGoogleSource constructs a GoogleSource.
func NewGoogleSource(cfg config.SheetsConfig) *GoogleSource {
	if cfg.SheetName == "" {
		cfg.SheetName = "Base_Dados"
	}
	if cfg.ReadRange == "" {
		cfg.ReadRange = "A1:Z5000"
	}
	return &GoogleSource{cfg: cfg}
}

// ReadRows fetches all rows of the configured range. The access token
// belongs to the triggering user, so the read runs with their
// spreadsheet permissions.
func (s *GoogleSource) ReadRows(ctx context.Context, accessToken string) ([][]string, error) {
	if s.cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id not configured")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token required")
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	readRange := fmt.Sprintf("%s!%s", s.cfg.SheetName, s.cfg.ReadRange)
	resp, err := svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", readRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			if cell == nil {
				continue
			}
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
