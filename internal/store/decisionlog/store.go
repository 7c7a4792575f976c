// Package decisionlog keeps the append-only audit trail of per-market
// decisions in its own SQLite file, separate from the portfolio store, so a
// busy decision log never contends with position bookkeeping.
package decisionlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"polytrader/internal/model"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp INTEGER NOT NULL,
    cycle INTEGER NOT NULL,
    match_slug TEXT NOT NULL,
    action TEXT NOT NULL,
    outcome TEXT,
    side TEXT,
    size REAL,
    confidence REAL,
    edge REAL,
    reasoning TEXT,
    error TEXT,
    market_data TEXT
);
CREATE INDEX IF NOT EXISTS idx_decisions_timestamp ON decisions(timestamp);
CREATE INDEX IF NOT EXISTS idx_decisions_cycle ON decisions(cycle);
`

type Store struct {
	mu sync.Mutex
	db *sql.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("decision log path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing decision log schema failed: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes one decision audit row. Rows are never updated or deleted.
func (s *Store) Append(ctx context.Context, rec model.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var edge any
	if rec.Edge != nil {
		edge = *rec.Edge
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions
			(timestamp, cycle, match_slug, action, outcome, side, size, confidence, edge, reasoning, error, market_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Unix(), rec.Cycle, rec.MatchSlug, string(rec.Action),
		rec.Outcome, string(rec.Side), rec.Size, rec.Confidence, edge,
		rec.Reasoning, rec.Err, string(rec.MarketData),
	)
	if err != nil {
		return fmt.Errorf("appending decision failed: %w", err)
	}
	return nil
}

// Recent returns the latest rows, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]model.CycleRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, cycle, match_slug, action, outcome, side, size, confidence, edge, reasoning, error, market_data
		FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CycleRecord
	for rows.Next() {
		var (
			rec        model.CycleRecord
			ts         int64
			action     string
			side       sql.NullString
			edge       sql.NullFloat64
			outcome    sql.NullString
			reasoning  sql.NullString
			errText    sql.NullString
			marketData sql.NullString
		)
		if err := rows.Scan(&ts, &rec.Cycle, &rec.MatchSlug, &action, &outcome, &side,
			&rec.Size, &rec.Confidence, &edge, &reasoning, &errText, &marketData); err != nil {
			return nil, err
		}
		rec.Timestamp = time.Unix(ts, 0)
		rec.Action = model.Action(action)
		rec.Outcome = outcome.String
		rec.Side = model.Side(side.String)
		rec.Reasoning = reasoning.String
		rec.Err = errText.String
		if edge.Valid {
			v := edge.Float64
			rec.Edge = &v
		}
		if marketData.Valid && marketData.String != "" {
			rec.MarketData = []byte(marketData.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
