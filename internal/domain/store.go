package domain

import "context"

// RecordStore is the tabular backend. Rows and columns are 1-based, row 1 is
// the header. It is the only source of truth for field values; concurrent
// writes to one row are last-write-wins.
type RecordStore interface {
	AppendRow(ctx context.Context, values []string) (int, error)
	ReadRow(ctx context.Context, row int) ([]string, error)
	ReadCell(ctx context.Context, row, col int) (string, error)
	WriteCell(ctx context.Context, row, col int, value string) error
}

// HeaderBootstrapper writes the header row when it is absent or differs.
type HeaderBootstrapper interface {
	EnsureHeader(ctx context.Context, header []string) error
}

// HeaderMatches reports whether existing starts with want.
func HeaderMatches(existing, want []string) bool {
	if len(existing) < len(want) {
		return false
	}
	for i := range want {
		if existing[i] != want[i] {
			return false
		}
	}
	return true
}
