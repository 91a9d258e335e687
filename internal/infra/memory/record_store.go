package memory

import (
	"context"
	"fmt"
	"sync"

	"lead-intake-bot/internal/domain"
)

// RecordStore keeps rows in memory. Row 1 is reserved for the header even
// when EnsureHeader was never called.
type RecordStore struct {
	mu   sync.RWMutex
	rows [][]string
}

func NewRecordStore() *RecordStore {
	return &RecordStore{rows: make([][]string, 1, 64)}
}

func (r *RecordStore) EnsureHeader(_ context.Context, header []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !domain.HeaderMatches(r.rows[0], header) {
		r.rows[0] = append([]string(nil), header...)
	}
	return nil
}

func (r *RecordStore) AppendRow(_ context.Context, values []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, append([]string(nil), values...))
	return len(r.rows), nil
}

func (r *RecordStore) ReadRow(_ context.Context, row int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(row); err != nil {
		return nil, err
	}
	return append([]string(nil), r.rows[row-1]...), nil
}

func (r *RecordStore) ReadCell(_ context.Context, row, col int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.check(row); err != nil {
		return "", err
	}
	if col < 1 {
		return "", fmt.Errorf("column %d out of range", col)
	}
	cells := r.rows[row-1]
	if col > len(cells) {
		return "", nil
	}
	return cells[col-1], nil
}

func (r *RecordStore) WriteCell(_ context.Context, row, col int, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(row); err != nil {
		return err
	}
	if col < 1 {
		return fmt.Errorf("column %d out of range", col)
	}
	cells := r.rows[row-1]
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	r.rows[row-1] = cells
	return nil
}

// DataRows returns the number of rows below the header.
func (r *RecordStore) DataRows() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows) - 1
}

func (r *RecordStore) check(row int) error {
	if row < 1 || row > len(r.rows) {
		return fmt.Errorf("row %d: %w", row, domain.ErrRowNotFound)
	}
	return nil
}
