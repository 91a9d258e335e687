package sqlite

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"lead-intake-bot/internal/usecase"
)

// FunnelRepo is an append-only log of workflow steps per user.
type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(dsn string) (*FunnelRepo, error) {
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateFunnel(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &FunnelRepo{db: db}, nil
}

func migrateFunnel(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS funnel_hits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    step TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_funnel_hits_step ON funnel_hits(step);
`)
	return err
}

func (r *FunnelRepo) Close() error { return r.db.Close() }

func (r *FunnelRepo) Hit(step usecase.Step, userID int64) error {
	_, err := r.db.Exec(`INSERT INTO funnel_hits(user_id, step, created_at) VALUES(?,?,?)`, userID, string(step), time.Now())
	return err
}
