// Package store persists explanation records to PostgreSQL or SQLite.
package store

import (
	"context"

	"github.com/puzzlebench/arc-explainer/internal/model"
)

// Filter specifies criteria for listing explanations.
type Filter struct {
	PuzzleID  string `json:"puzzle_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	ModelName string `json:"model_name,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis results.
type Store interface {
	SaveExplanation(ctx context.Context, exp *model.Explanation) error
	SaveExplanations(ctx context.Context, exps []model.Explanation) (int64, error)
	GetExplanation(ctx context.Context, id string) (*model.Explanation, error)
	ListExplanations(ctx context.Context, filter Filter) ([]model.Explanation, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
