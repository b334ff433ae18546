package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, config, seed)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config = excluded.config,
			seed = excluded.seed
	`, run.ID, run.Config, int64(run.Seed))
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	run := Run{ID: id}
	var seed int64
	err = db.QueryRowContext(ctx, `SELECT config, seed FROM runs WHERE id = ?`, id).Scan(&run.Config, &seed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	run.Seed = uint64(seed)
	return run, true, nil
}

func (s *SQLiteStore) SaveStep(ctx context.Context, runID string, record StepRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO steps (run_id, step, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(run_id, step) DO UPDATE SET
			payload = excluded.payload
	`, runID, record.Step, payload)
	return err
}

func (s *SQLiteStore) GetSteps(ctx context.Context, runID string) ([]StepRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM steps WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var records []StepRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, false, err
		}
		var record StepRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, false, fmt.Errorf("decode step of run %s: %w", runID, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return records, len(records) > 0, nil
}

func (s *SQLiteStore) SaveChargeStates(ctx context.Context, runID string, record ChargeStateRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(record.Weights)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO charge_states (run_id, species, step, mean_charge, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, species, step) DO UPDATE SET
			mean_charge = excluded.mean_charge,
			payload = excluded.payload
	`, runID, record.Species, record.Step, record.MeanCharge, payload)
	return err
}

func (s *SQLiteStore) GetChargeStates(ctx context.Context, runID, species string) ([]ChargeStateRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT step, mean_charge, payload FROM charge_states
		WHERE run_id = ? AND species = ?
		ORDER BY step
	`, runID, species)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var records []ChargeStateRecord
	for rows.Next() {
		record := ChargeStateRecord{Species: species}
		var payload []byte
		if err := rows.Scan(&record.Step, &record.MeanCharge, &payload); err != nil {
			return nil, false, err
		}
		if err := json.Unmarshal(payload, &record.Weights); err != nil {
			return nil, false, fmt.Errorf("decode charge states of %s: %w", species, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return records, len(records) > 0, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			config TEXT NOT NULL,
			seed INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, step)
		);
		CREATE TABLE IF NOT EXISTS charge_states (
			run_id TEXT NOT NULL,
			species TEXT NOT NULL,
			step INTEGER NOT NULL,
			mean_charge REAL NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, species, step)
		);
	`)
	return err
}
