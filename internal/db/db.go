// Package db persists scored lane-sequence candidates to sqlite.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the score database at path and ensures the
// base schema exists. Schema evolution beyond the base tables goes
// through migrations (see migrate.go).
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scoring_runs (
			run_id            TEXT PRIMARY KEY,
			snapshot_path     TEXT,
			model_path        TEXT,
			created_unix_nanos BIGINT
		);
		CREATE TABLE IF NOT EXISTS lane_scores (
			run_id            TEXT,
			obstacle_id       BIGINT,
			candidate_index   BIGINT,
			probability       DOUBLE,
			created_unix_nanos BIGINT,
			PRIMARY KEY (run_id, obstacle_id, candidate_index),
			FOREIGN KEY(run_id) REFERENCES scoring_runs(run_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// ScoreRecord is one stored candidate score.
type ScoreRecord struct {
	RunID          string
	ObstacleID     int64
	CandidateIndex int
	Probability    float64
	CreatedNanos   int64
}

// RecordRun inserts a scoring-run row.
func (db *DB) RecordRun(runID, snapshotPath, modelPath string) error {
	_, err := db.Exec(
		`INSERT INTO scoring_runs (run_id, snapshot_path, model_path, created_unix_nanos) VALUES (?, ?, ?, ?)`,
		runID, snapshotPath, modelPath, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert scoring run: %w", err)
	}
	return nil
}

// RecordScores inserts the scores of one pass in a single transaction.
func (db *DB) RecordScores(records []ScoreRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin score insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO lane_scores (run_id, obstacle_id, candidate_index, probability, created_unix_nanos) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare score insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for _, r := range records {
		created := r.CreatedNanos
		if created == 0 {
			created = now
		}
		if _, err := stmt.Exec(r.RunID, r.ObstacleID, r.CandidateIndex, r.Probability, created); err != nil {
			return fmt.Errorf("insert score (obstacle %d candidate %d): %w", r.ObstacleID, r.CandidateIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit score insert: %w", err)
	}
	return nil
}

// ScoresForRun returns every stored score of one run, ordered by obstacle
// then candidate index.
func (db *DB) ScoresForRun(runID string) ([]ScoreRecord, error) {
	rows, err := db.Query(
		`SELECT run_id, obstacle_id, candidate_index, probability, created_unix_nanos
		 FROM lane_scores WHERE run_id = ?
		 ORDER BY obstacle_id, candidate_index`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query scores for run %s: %w", runID, err)
	}
	defer rows.Close()
	return scanScores(rows)
}

// RecentScores returns the most recently stored scores, newest first.
func (db *DB) RecentScores(limit int) ([]ScoreRecord, error) {
	rows, err := db.Query(
		`SELECT run_id, obstacle_id, candidate_index, probability, created_unix_nanos
		 FROM lane_scores ORDER BY created_unix_nanos DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent scores: %w", err)
	}
	defer rows.Close()
	return scanScores(rows)
}

func scanScores(rows *sql.Rows) ([]ScoreRecord, error) {
	var records []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.RunID, &r.ObstacleID, &r.CandidateIndex, &r.Probability, &r.CreatedNanos); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
