package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"lead-intake-bot/internal/domain"
)

// RecordStore keeps the lead sheet in SQLite: one row per sheet row, one
// record per non-header cell. Row indexes match sheet rows, header is row 1.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(dsn string) (*RecordStore, error) {
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateRecords(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &RecordStore{db: db}, nil
}

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// один писатель, иначе SQLITE_BUSY на параллельных append
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateRecords(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS lead_rows (
    row_index INTEGER PRIMARY KEY,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS lead_cells (
    row_index INTEGER NOT NULL REFERENCES lead_rows(row_index),
    col INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (row_index, col)
);
`)
	return err
}

func (r *RecordStore) Close() error { return r.db.Close() }

func (r *RecordStore) EnsureHeader(ctx context.Context, header []string) error {
	existing, err := r.ReadRow(ctx, domain.HeaderRow)
	if err != nil && !errors.Is(err, domain.ErrRowNotFound) {
		return err
	}
	if err == nil && domain.HeaderMatches(existing, header) {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO lead_rows(row_index, created_at) VALUES(?, ?)`, domain.HeaderRow, time.Now()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM lead_cells WHERE row_index = ?`, domain.HeaderRow); err != nil {
			return err
		}
		return insertCells(ctx, tx, domain.HeaderRow, header)
	})
}

func (r *RecordStore) AppendRow(ctx context.Context, values []string) (int, error) {
	var row int
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		// строка 1 зарезервирована под заголовок, даже если его ещё нет
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(row_index), ?) + 1 FROM lead_rows`, domain.HeaderRow).Scan(&row); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lead_rows(row_index, created_at) VALUES(?, ?)`, row, time.Now()); err != nil {
			return err
		}
		return insertCells(ctx, tx, row, values)
	})
	if err != nil {
		return 0, fmt.Errorf("sqlite append: %w", err)
	}
	return row, nil
}

func (r *RecordStore) ReadRow(ctx context.Context, row int) ([]string, error) {
	if err := r.check(ctx, row); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT col, value FROM lead_cells WHERE row_index = ? ORDER BY col`, row)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var col int
		var value string
		if err := rows.Scan(&col, &value); err != nil {
			return nil, err
		}
		for len(out) < col {
			out = append(out, "")
		}
		out[col-1] = value
	}
	return out, rows.Err()
}

func (r *RecordStore) ReadCell(ctx context.Context, row, col int) (string, error) {
	if col < 1 {
		return "", fmt.Errorf("column %d out of range", col)
	}
	if err := r.check(ctx, row); err != nil {
		return "", err
	}
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM lead_cells WHERE row_index = ? AND col = ?`, row, col).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *RecordStore) WriteCell(ctx context.Context, row, col int, value string) error {
	if col < 1 {
		return fmt.Errorf("column %d out of range", col)
	}
	if err := r.check(ctx, row); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO lead_cells(row_index, col, value) VALUES(?, ?, ?)
ON CONFLICT(row_index, col) DO UPDATE SET value = excluded.value`, row, col, value)
	return err
}

// DataRows counts rows below the header.
func (r *RecordStore) DataRows(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead_rows WHERE row_index > ?`, domain.HeaderRow).Scan(&n)
	return n, err
}

func (r *RecordStore) check(ctx context.Context, row int) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM lead_rows WHERE row_index = ?`, row).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("row %d: %w", row, domain.ErrRowNotFound)
	}
	return err
}

func (r *RecordStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertCells(ctx context.Context, tx *sql.Tx, row int, values []string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lead_cells(row_index, col, value) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, v := range values {
		if _, err := stmt.ExecContext(ctx, row, i+1, v); err != nil {
			return err
		}
	}
	return nil
}
