package solver

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/puzzlebench/arc-explainer/internal/arc"
	"github.com/puzzlebench/arc-explainer/internal/extract"
	"github.com/puzzlebench/arc-explainer/internal/model"
)

// BatchResult summarizes one batch run.
type BatchResult struct {
	Analyzed int
	Correct  int
	Failed   int
	// Explanations holds every stored record, in no particular order.
	Explanations []model.Explanation
}

// AnalyzeBatch runs every task through the provider with bounded
// concurrency and a shared rate limit. A task whose provider call fails
// is counted and logged but does not abort the rest of the batch.
func (s *Solver) AnalyzeBatch(ctx context.Context, tasks []*arc.Task, provider extract.Provider) (*BatchResult, error) {
	limiter := rate.NewLimiter(rate.Limit(s.cfg.Batch.RequestsPerSec), 1)
	if s.cfg.Batch.RequestsPerSec <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	var mu sync.Mutex
	result := &BatchResult{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Batch.MaxConcurrent)

	for _, task := range tasks {
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}

			exp, err := s.Analyze(ctx, task, provider)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				zap.L().Error("batch task failed",
					zap.String("puzzle_id", task.ID),
					zap.String("provider", provider.String()),
					zap.Error(err),
				)
				// Stop the whole batch only on cancellation.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}

			result.Analyzed++
			if correct(exp) {
				result.Correct++
			}
			result.Explanations = append(result.Explanations, *exp)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	zap.L().Info("batch complete",
		zap.String("provider", provider.String()),
		zap.Int("analyzed", result.Analyzed),
		zap.Int("correct", result.Correct),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func correct(exp *model.Explanation) bool {
	if exp.IsPredictionCorrect != nil {
		return *exp.IsPredictionCorrect
	}
	if exp.MultiTestAllCorrect != nil {
		return *exp.MultiTestAllCorrect
	}
	return false
}
