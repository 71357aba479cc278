package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/puzzlebench/arc-explainer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves
// local runs where no PostgreSQL instance is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS explanations (
	id                       TEXT PRIMARY KEY,
	puzzle_id                TEXT NOT NULL,
	provider                 TEXT NOT NULL,
	model_name               TEXT NOT NULL,
	pattern_description      TEXT,
	solving_strategy         TEXT,
	hints                    TEXT,
	predicted_grid           TEXT,
	has_multiple_predictions INTEGER NOT NULL DEFAULT 0,
	prediction_grids         TEXT,
	is_prediction_correct    INTEGER,
	multi_test_all_correct   INTEGER,
	multi_test_incomplete    INTEGER NOT NULL DEFAULT 0,
	confidence               INTEGER,
	trustworthiness          REAL,
	extraction_method        TEXT NOT NULL DEFAULT 'none',
	input_tokens             INTEGER NOT NULL DEFAULT 0,
	output_tokens            INTEGER NOT NULL DEFAULT 0,
	estimated_cost_usd       REAL NOT NULL DEFAULT 0,
	provider_response_id     TEXT,
	raw_response             TEXT,
	created_at               DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_explanations_puzzle_id ON explanations(puzzle_id);
CREATE INDEX IF NOT EXISTS idx_explanations_model_name ON explanations(model_name);
CREATE INDEX IF NOT EXISTS idx_explanations_provider ON explanations(provider);
CREATE INDEX IF NOT EXISTS idx_explanations_created_at ON explanations(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) SaveExplanation(ctx context.Context, exp *model.Explanation) error {
	row, err := explanationRow(exp)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO explanations (`+explanationColumnList+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row...,
	)
	return eris.Wrapf(err, "sqlite: insert explanation for puzzle %s", exp.PuzzleID)
}

// SaveExplanations inserts a batch one row at a time inside a
// transaction. SQLite has no COPY protocol.
func (s *SQLiteStore) SaveExplanations(ctx context.Context, exps []model.Explanation) (int64, error) {
	if len(exps) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin batch insert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO explanations (`+explanationColumnList+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare batch insert")
	}
	defer stmt.Close()

	var n int64
	for i := range exps {
		row, err := explanationRow(&exps[i])
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert explanation for puzzle %s", exps[i].PuzzleID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit batch insert")
	}
	return n, nil
}

func (s *SQLiteStore) GetExplanation(ctx context.Context, id string) (*model.Explanation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+explanationColumnList+` FROM explanations WHERE id = ?`,
		id,
	)
	exp, err := scanExplanation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get explanation %s", id)
	}
	return exp, nil
}

func (s *SQLiteStore) ListExplanations(ctx context.Context, filter Filter) ([]model.Explanation, error) {
	query := `SELECT ` + explanationColumnList + ` FROM explanations WHERE true`
	args := []any{}

	if filter.PuzzleID != "" {
		query += ` AND puzzle_id = ?`
		args = append(args, filter.PuzzleID)
	}
	if filter.Provider != "" {
		query += ` AND provider = ?`
		args = append(args, filter.Provider)
	}
	if filter.ModelName != "" {
		query += ` AND model_name = ?`
		args = append(args, filter.ModelName)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list explanations")
	}
	defer rows.Close() //nolint:errcheck

	var exps []model.Explanation
	for rows.Next() {
		exp, err := scanExplanation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan explanation")
		}
		exps = append(exps, *exp)
	}
	return exps, eris.Wrap(rows.Err(), "sqlite: list explanations iterate")
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
