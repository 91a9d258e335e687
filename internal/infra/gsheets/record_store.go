package gsheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"lead-intake-bot/internal/domain"
)

const (
	valueInputRaw  = "RAW"
	insertDataRows = "INSERT_ROWS"
)

// RecordStore is a tab of a Google spreadsheet. Rows past the last data row
// read as empty: a sheet has no notion of a missing row.
type RecordStore struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheet         string
}

// NewRecordStore connects with the given client options, usually a
// service-account credentials file plus sheets.SpreadsheetsScope.
func NewRecordStore(ctx context.Context, spreadsheetID, sheet string, opts ...option.ClientOption) (*RecordStore, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &RecordStore{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		sheet:         sheet,
	}, nil
}

func (r *RecordStore) EnsureHeader(ctx context.Context, header []string) error {
	existing, err := r.ReadRow(ctx, domain.HeaderRow)
	if err != nil {
		return err
	}
	if domain.HeaderMatches(existing, header) {
		return nil
	}
	rng, err := r.rowRange(domain.HeaderRow, len(header))
	if err != nil {
		return err
	}
	_, err = r.values.Update(r.spreadsheetID, rng, valueRange(header)).
		ValueInputOption(valueInputRaw).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets write header: %w", err)
	}
	return nil
}

func (r *RecordStore) AppendRow(ctx context.Context, values []string) (int, error) {
	resp, err := r.values.Append(r.spreadsheetID, r.a1("A1"), valueRange(values)).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertDataRows).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets append: %w", err)
	}
	if resp.Updates == nil {
		return 0, fmt.Errorf("sheets append: response without updated range")
	}
	return parseUpdatedRow(resp.Updates.UpdatedRange)
}

func (r *RecordStore) ReadRow(ctx context.Context, row int) ([]string, error) {
	if row < 1 {
		return nil, fmt.Errorf("row %d: %w", row, domain.ErrRowNotFound)
	}
	rng, err := r.rowRange(row, domain.ColumnCount)
	if err != nil {
		return nil, err
	}
	vr, err := r.values.Get(r.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets read row %d: %w", row, err)
	}
	out := []string{}
	if len(vr.Values) > 0 {
		for _, v := range vr.Values[0] {
			out = append(out, fmt.Sprint(v))
		}
	}
	return out, nil
}

func (r *RecordStore) ReadCell(ctx context.Context, row, col int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	vr, err := r.values.Get(r.spreadsheetID, r.a1(cell)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets read %s: %w", cell, err)
	}
	if len(vr.Values) == 0 || len(vr.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(vr.Values[0][0]), nil
}

func (r *RecordStore) WriteCell(ctx context.Context, row, col int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	_, err = r.values.Update(r.spreadsheetID, r.a1(cell), valueRange([]string{value})).
		ValueInputOption(valueInputRaw).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets write %s: %w", cell, err)
	}
	return nil
}

// a1 prefixes a cell range with the quoted tab name.
func (r *RecordStore) a1(rng string) string {
	return "'" + strings.ReplaceAll(r.sheet, "'", "''") + "'!" + rng
}

func (r *RecordStore) rowRange(row, width int) (string, error) {
	from, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return "", err
	}
	return r.a1(from + ":" + to), nil
}

func valueRange(values []string) *sheets.ValueRange {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return &sheets.ValueRange{Values: [][]interface{}{row}}
}

// parseUpdatedRow extracts the row of the first cell of "'Leads'!A5:AF5".
func parseUpdatedRow(updated string) (int, error) {
	rng := updated
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	first, _, _ := strings.Cut(rng, ":")
	_, row, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return 0, fmt.Errorf("sheets append: bad updated range %q: %w", updated, err)
	}
	return row, nil
}
