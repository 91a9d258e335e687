package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"lead-intake-bot/internal/domain"
)

// RecordStore keeps leads in one sheet of a workbook on local disk. The file
// is saved after every mutation.
type RecordStore struct {
	mu    sync.Mutex
	file  *excelize.File
	path  string
	sheet string
	last  int // последняя занятая строка, 1 = заголовок
}

// Open loads path or creates a new workbook with a single sheet.
func Open(path, sheet string) (*RecordStore, error) {
	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f = excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
			return nil, fmt.Errorf("xlsx rename sheet: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("xlsx open %s: %w", path, err)
	default:
		idx, err := f.GetSheetIndex(sheet)
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("xlsx new sheet: %w", err)
			}
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("xlsx read %s: %w", sheet, err)
	}
	return &RecordStore{file: f, path: path, sheet: sheet, last: max(len(rows), domain.HeaderRow)}, nil
}

func (r *RecordStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

func (r *RecordStore) EnsureHeader(ctx context.Context, header []string) error {
	existing, err := r.ReadRow(ctx, domain.HeaderRow)
	if err != nil {
		return err
	}
	if domain.HeaderMatches(existing, header) {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.setRow(domain.HeaderRow, header); err != nil {
		return err
	}
	if err := r.save(); err != nil {
		r.restoreRow(domain.HeaderRow, existing, len(header))
		return err
	}
	return nil
}

func (r *RecordStore) AppendRow(_ context.Context, values []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.last + 1
	if err := r.setRow(row, values); err != nil {
		return 0, err
	}
	if err := r.save(); err != nil {
		r.restoreRow(row, nil, len(values))
		return 0, err
	}
	r.last = row
	return row, nil
}

func (r *RecordStore) ReadRow(_ context.Context, row int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(row); err != nil {
		return nil, err
	}
	rows, err := r.file.GetRows(r.sheet)
	if err != nil {
		return nil, err
	}
	if row > len(rows) {
		return []string{}, nil
	}
	return append([]string(nil), rows[row-1]...), nil
}

func (r *RecordStore) ReadCell(_ context.Context, row, col int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(row); err != nil {
		return "", err
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	return r.file.GetCellValue(r.sheet, cell)
}

func (r *RecordStore) WriteCell(_ context.Context, row, col int, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.check(row); err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	prev, err := r.file.GetCellValue(r.sheet, cell)
	if err != nil {
		return err
	}
	if err := r.file.SetCellValue(r.sheet, cell, value); err != nil {
		return err
	}
	if err := r.save(); err != nil {
		_ = r.file.SetCellValue(r.sheet, cell, prev)
		return err
	}
	return nil
}

func (r *RecordStore) setRow(row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return r.file.SetSheetRow(r.sheet, cell, &cells)
}

// restoreRow puts prev back into the first width cells of row after a failed
// save, so the workbook in memory matches the file on disk.
func (r *RecordStore) restoreRow(row int, prev []string, width int) {
	cells := make([]interface{}, max(width, len(prev)))
	for i := range cells {
		cells[i] = ""
		if i < len(prev) {
			cells[i] = prev[i]
		}
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return
	}
	_ = r.file.SetSheetRow(r.sheet, cell, &cells)
}

func (r *RecordStore) save() error {
	if err := r.file.SaveAs(r.path); err != nil {
		return fmt.Errorf("xlsx save %s: %w", r.path, err)
	}
	return nil
}

func (r *RecordStore) check(row int) error {
	if row < 1 || row > r.last {
		return fmt.Errorf("row %d: %w", row, domain.ErrRowNotFound)
	}
	return nil
}
