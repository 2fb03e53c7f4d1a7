// Package sheets provides access to the external response sheet. The
// sync pipeline only sees RowSource, so the concrete transport (Google
// Sheets API, flat file, test fixture) stays swappable.
package sheets

import "context"

// RowSource reads the full response sheet as a matrix of cell values,
// header row first. Implementations must fail with a descriptive error
// when the read cannot be performed at all; they never interpret cell
// contents.
type RowSource interface {
	ReadRows(ctx context.Context, accessToken string) ([][]string, error)
}
