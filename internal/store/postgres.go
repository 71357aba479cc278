package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/puzzlebench/arc-explainer/internal/db"
	"github.com/puzzlebench/arc-explainer/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const explanationColumnList = `id, puzzle_id, provider, model_name,
	pattern_description, solving_strategy, hints,
	predicted_grid, has_multiple_predictions, prediction_grids,
	is_prediction_correct, multi_test_all_correct, multi_test_incomplete,
	confidence, trustworthiness, extraction_method,
	input_tokens, output_tokens, estimated_cost_usd,
	provider_response_id, raw_response, created_at`

// explanationColumns names the table columns in COPY order. Keep in
// sync with explanationColumnList and the row builders below.
var explanationColumns = []string{
	"id", "puzzle_id", "provider", "model_name",
	"pattern_description", "solving_strategy", "hints",
	"predicted_grid", "has_multiple_predictions", "prediction_grids",
	"is_prediction_correct", "multi_test_all_correct", "multi_test_incomplete",
	"confidence", "trustworthiness", "extraction_method",
	"input_tokens", "output_tokens", "estimated_cost_usd",
	"provider_response_id", "raw_response", "created_at",
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_explanation": `INSERT INTO explanations (` + explanationColumnList + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
	"get_explanation": `SELECT ` + explanationColumnList + ` FROM explanations WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS explanations (
	id                       TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	puzzle_id                TEXT NOT NULL,
	provider                 TEXT NOT NULL,
	model_name               TEXT NOT NULL,
	pattern_description      TEXT,
	solving_strategy         TEXT,
	hints                    JSONB,
	predicted_grid           JSONB,
	has_multiple_predictions BOOLEAN NOT NULL DEFAULT false,
	prediction_grids         JSONB,
	is_prediction_correct    BOOLEAN,
	multi_test_all_correct   BOOLEAN,
	multi_test_incomplete    BOOLEAN NOT NULL DEFAULT false,
	confidence               INTEGER,
	trustworthiness          DOUBLE PRECISION,
	extraction_method        TEXT NOT NULL DEFAULT 'none',
	input_tokens             BIGINT NOT NULL DEFAULT 0,
	output_tokens            BIGINT NOT NULL DEFAULT 0,
	estimated_cost_usd       DOUBLE PRECISION NOT NULL DEFAULT 0,
	provider_response_id     TEXT,
	raw_response             TEXT,
	created_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_explanations_puzzle_id ON explanations(puzzle_id);
CREATE INDEX IF NOT EXISTS idx_explanations_model_name ON explanations(model_name);
CREATE INDEX IF NOT EXISTS idx_explanations_provider ON explanations(provider);
CREATE INDEX IF NOT EXISTS idx_explanations_created_at ON explanations(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_explanations_puzzle_model ON explanations(puzzle_id, model_name);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveExplanation(ctx context.Context, exp *model.Explanation) error {
	row, err := explanationRow(exp)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO explanations (`+explanationColumnList+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		row...,
	)
	return eris.Wrapf(err, "postgres: insert explanation for puzzle %s", exp.PuzzleID)
}

// SaveExplanations bulk-inserts a batch of explanations via COPY.
func (s *PostgresStore) SaveExplanations(ctx context.Context, exps []model.Explanation) (int64, error) {
	rows := make([][]any, 0, len(exps))
	for i := range exps {
		row, err := explanationRow(&exps[i])
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}
	return db.CopyFrom(ctx, s.pool, "explanations", explanationColumns, rows)
}

func (s *PostgresStore) GetExplanation(ctx context.Context, id string) (*model.Explanation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+explanationColumnList+` FROM explanations WHERE id = $1`,
		id,
	)
	exp, err := scanExplanation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get explanation %s", id)
	}
	return exp, nil
}

func (s *PostgresStore) ListExplanations(ctx context.Context, filter Filter) ([]model.Explanation, error) {
	query := `SELECT ` + explanationColumnList + ` FROM explanations WHERE true`
	args := []any{}
	argIdx := 1

	if filter.PuzzleID != "" {
		query += fmt.Sprintf(` AND puzzle_id = $%d`, argIdx)
		args = append(args, filter.PuzzleID)
		argIdx++
	}
	if filter.Provider != "" {
		query += fmt.Sprintf(` AND provider = $%d`, argIdx)
		args = append(args, filter.Provider)
		argIdx++
	}
	if filter.ModelName != "" {
		query += fmt.Sprintf(` AND model_name = $%d`, argIdx)
		args = append(args, filter.ModelName)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list explanations")
	}
	defer rows.Close()

	var exps []model.Explanation
	for rows.Next() {
		exp, err := scanExplanation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan explanation")
		}
		exps = append(exps, *exp)
	}
	return exps, eris.Wrap(rows.Err(), "postgres: list explanations iterate")
}

// explanationRow flattens an Explanation into positional column values.
// Grids and hints are stored as JSON; nil slices become SQL NULL rather
// than the string "null".
func explanationRow(exp *model.Explanation) ([]any, error) {
	hintsJSON, err := marshalNullable(exp.Hints, len(exp.Hints) > 0)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal hints")
	}
	gridJSON, err := marshalNullable(exp.PredictedGrid, exp.PredictedGrid != nil)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal predicted grid")
	}
	gridsJSON, err := marshalNullable(exp.PredictionGrids, len(exp.PredictionGrids) > 0)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal prediction grids")
	}

	return []any{
		exp.ID, exp.PuzzleID, exp.Provider, exp.ModelName,
		nullableString(exp.PatternDescription), nullableString(exp.SolvingStrategy), hintsJSON,
		gridJSON, exp.HasMultiplePredictions, gridsJSON,
		exp.IsPredictionCorrect, exp.MultiTestAllCorrect, exp.MultiTestIncomplete,
		exp.Confidence, exp.Trustworthiness, exp.ExtractionMethod,
		exp.InputTokens, exp.OutputTokens, exp.EstimatedCostUSD,
		nullableString(exp.ProviderResponseID), nullableString(exp.RawResponse), exp.CreatedAt,
	}, nil
}

func marshalNullable(v any, present bool) ([]byte, error) {
	if !present {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExplanation(row rowScanner) (*model.Explanation, error) {
	var exp model.Explanation
	var patternDesc, solvingStrategy, responseID, rawResponse *string
	var hintsJSON, gridJSON, gridsJSON []byte

	err := row.Scan(
		&exp.ID, &exp.PuzzleID, &exp.Provider, &exp.ModelName,
		&patternDesc, &solvingStrategy, &hintsJSON,
		&gridJSON, &exp.HasMultiplePredictions, &gridsJSON,
		&exp.IsPredictionCorrect, &exp.MultiTestAllCorrect, &exp.MultiTestIncomplete,
		&exp.Confidence, &exp.Trustworthiness, &exp.ExtractionMethod,
		&exp.InputTokens, &exp.OutputTokens, &exp.EstimatedCostUSD,
		&responseID, &rawResponse, &exp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if patternDesc != nil {
		exp.PatternDescription = *patternDesc
	}
	if solvingStrategy != nil {
		exp.SolvingStrategy = *solvingStrategy
	}
	if responseID != nil {
		exp.ProviderResponseID = *responseID
	}
	if rawResponse != nil {
		exp.RawResponse = *rawResponse
	}
	if hintsJSON != nil {
		if err := json.Unmarshal(hintsJSON, &exp.Hints); err != nil {
			return nil, eris.Wrap(err, "unmarshal hints")
		}
	}
	if gridJSON != nil {
		if err := json.Unmarshal(gridJSON, &exp.PredictedGrid); err != nil {
			return nil, eris.Wrap(err, "unmarshal predicted grid")
		}
	}
	if gridsJSON != nil {
		if err := json.Unmarshal(gridsJSON, &exp.PredictionGrids); err != nil {
			return nil, eris.Wrap(err, "unmarshal prediction grids")
		}
	}
	return &exp, nil
}
