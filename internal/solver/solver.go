package solver

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/puzzlebench/arc-explainer/internal/arc"
	"github.com/puzzlebench/arc-explainer/internal/config"
	"github.com/puzzlebench/arc-explainer/internal/explain"
	"github.com/puzzlebench/arc-explainer/internal/extract"
	"github.com/puzzlebench/arc-explainer/internal/model"
	"github.com/puzzlebench/arc-explainer/internal/resilience"
	"github.com/puzzlebench/arc-explainer/internal/store"
	"github.com/puzzlebench/arc-explainer/pkg/anthropic"
	"github.com/puzzlebench/arc-explainer/pkg/gemini"
	"github.com/puzzlebench/arc-explainer/pkg/openaicompat"
)

// Clients bundles the provider clients the solver can dispatch to.
// Unused providers may be nil; dispatching to a nil client is an error.
type Clients struct {
	Anthropic  anthropic.Client
	Gemini     gemini.Client
	OpenAI     openaicompat.Client
	Grok       openaicompat.Client
	DeepSeek   openaicompat.Client
	OpenRouter openaicompat.Client
}

// Solver runs analyses end to end and persists the results.
type Solver struct {
	clients Clients
	store   store.Store
	cfg     *config.Config
	retry   resilience.RetryConfig
}

// New creates a Solver.
func New(clients Clients, st store.Store, cfg *config.Config) *Solver {
	retry := resilience.DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.InitialBackoffMs > 0 {
		retry.InitialBackoff = time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond
	}
	if cfg.Retry.MaxBackoffMs > 0 {
		retry.MaxBackoff = time.Duration(cfg.Retry.MaxBackoffMs) * time.Millisecond
	}
	if cfg.Retry.Multiplier > 0 {
		retry.Multiplier = cfg.Retry.Multiplier
	}
	return &Solver{clients: clients, store: st, cfg: cfg, retry: retry}
}

// callResult is what one provider round trip produces.
type callResult struct {
	content string
	usage   explain.Usage
	meta    explain.Meta
}

// Analyze runs one puzzle through one provider and persists the
// explanation. A response the extractor cannot use still produces a
// stored record with extraction method "none"; only provider transport
// failures and store failures return an error.
func (s *Solver) Analyze(ctx context.Context, task *arc.Task, provider extract.Provider) (*model.Explanation, error) {
	if s.cfg.Solver.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Solver.TimeoutSecs)*time.Second)
		defer cancel()
	}

	prompt := BuildPrompt(task)

	retry := s.retry
	retry.OnRetry = resilience.RetryLogger(provider.String(), "analyze")

	res, err := resilience.Do(ctx, retry, func(ctx context.Context) (callResult, error) {
		return s.call(ctx, provider, prompt)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "solver: provider call for puzzle %s", task.ID)
	}

	prediction, extractErr := extract.Extract(res.content, provider)
	if extractErr != nil {
		zap.L().Warn("extraction failed",
			zap.String("puzzle_id", task.ID),
			zap.String("provider", provider.String()),
			zap.Error(extractErr),
		)
	}

	exp := explain.Build(task, prediction, res.usage, res.meta)

	if err := s.store.SaveExplanation(ctx, &exp); err != nil {
		return nil, eris.Wrapf(err, "solver: save explanation for puzzle %s", task.ID)
	}

	zap.L().Info("analysis complete",
		zap.String("puzzle_id", task.ID),
		zap.String("provider", provider.String()),
		zap.String("model", exp.ModelName),
		zap.String("extraction_method", exp.ExtractionMethod),
		zap.Boolp("correct", exp.IsPredictionCorrect),
		zap.Boolp("multi_test_all_correct", exp.MultiTestAllCorrect),
		zap.Float64p("trustworthiness", exp.Trustworthiness),
		zap.Int64("input_tokens", exp.InputTokens),
		zap.Int64("output_tokens", exp.OutputTokens),
		zap.Float64("estimated_cost_usd", exp.EstimatedCostUSD),
	)

	return &exp, nil
}

// call dispatches to the right provider client and normalizes the
// response into a callResult.
func (s *Solver) call(ctx context.Context, provider extract.Provider, prompt string) (callResult, error) {
	switch provider {
	case extract.ProviderAnthropic:
		return s.callAnthropic(ctx, prompt)
	case extract.ProviderGemini:
		return s.callGemini(ctx, prompt)
	case extract.ProviderOpenAI:
		return s.callChat(ctx, s.clients.OpenAI, s.cfg.OpenAI.Model, provider, prompt)
	case extract.ProviderGrok:
		return s.callChat(ctx, s.clients.Grok, s.cfg.Grok.Model, provider, prompt)
	case extract.ProviderDeepSeek:
		return s.callChat(ctx, s.clients.DeepSeek, s.cfg.DeepSeek.Model, provider, prompt)
	case extract.ProviderOpenRouter:
		return s.callChat(ctx, s.clients.OpenRouter, s.cfg.OpenRouter.Model, provider, prompt)
	default:
		return callResult{}, eris.Errorf("solver: unknown provider %s", provider)
	}
}

func (s *Solver) callAnthropic(ctx context.Context, prompt string) (callResult, error) {
	if s.clients.Anthropic == nil {
		return callResult{}, eris.New("solver: anthropic client not configured")
	}

	modelName := s.cfg.Anthropic.Model
	resp, err := s.clients.Anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     modelName,
		MaxTokens: int64(s.cfg.Anthropic.MaxTokens),
		System: []anthropic.SystemBlock{
			// The instruction preamble is identical across puzzles, so
			// let the API cache it during batch runs.
			{Text: systemPrompt, CacheControl: &anthropic.CacheControl{TTL: "5m"}},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return callResult{}, err
	}

	content := resp.Text()
	return callResult{
		content: content,
		usage: explain.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			CostUSD:      s.cost(modelName, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.EstimateCost(modelName)),
		},
		meta: explain.Meta{
			Provider:   extract.ProviderAnthropic.String(),
			ModelName:  modelName,
			ResponseID: resp.ID,
			Raw:        content,
		},
	}, nil
}

func (s *Solver) callGemini(ctx context.Context, prompt string) (callResult, error) {
	if s.clients.Gemini == nil {
		return callResult{}, eris.New("solver: gemini client not configured")
	}

	modelName := s.cfg.Gemini.Model
	resp, err := s.clients.Gemini.Generate(ctx, gemini.GenerateRequest{
		Model:    modelName,
		System:   systemPrompt,
		Prompt:   prompt,
		JSONMode: true,
	})
	if err != nil {
		return callResult{}, err
	}

	return callResult{
		content: resp.Content,
		usage: explain.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			CostUSD:      s.cost(modelName, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.EstimateCost(modelName)),
		},
		meta: explain.Meta{
			Provider:  extract.ProviderGemini.String(),
			ModelName: modelName,
			Raw:       resp.Content,
		},
	}, nil
}

func (s *Solver) callChat(ctx context.Context, client openaicompat.Client, modelName string, provider extract.Provider, prompt string) (callResult, error) {
	if client == nil {
		return callResult{}, eris.Errorf("solver: %s client not configured", provider)
	}

	resp, err := client.CreateChat(ctx, openaicompat.ChatRequest{
		Model:    modelName,
		System:   systemPrompt,
		Prompt:   prompt,
		JSONMode: true,
	})
	if err != nil {
		return callResult{}, err
	}

	return callResult{
		content: resp.Content,
		usage: explain.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			CostUSD:      s.cost(modelName, resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.EstimateCost(modelName)),
		},
		meta: explain.Meta{
			Provider:   provider.String(),
			ModelName:  modelName,
			ResponseID: resp.ID,
			Raw:        resp.Content,
		},
	}, nil
}

// cost prefers configured pricing over the client's built-in table.
func (s *Solver) cost(modelName string, inputTokens, outputTokens int64, fallback float64) float64 {
	if pricing, ok := s.cfg.Pricing.Models[modelName]; ok {
		return (float64(inputTokens)/1e6)*pricing.Input + (float64(outputTokens)/1e6)*pricing.Output
	}
	return fallback
}
