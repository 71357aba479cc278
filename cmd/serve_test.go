package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puzzlebench/arc-explainer/internal/config"
	"github.com/puzzlebench/arc-explainer/internal/model"
	"github.com/puzzlebench/arc-explainer/internal/solver"
	"github.com/puzzlebench/arc-explainer/internal/store"
)

// stubStore is an in-memory store.Store for handler tests.
type stubStore struct {
	byID       map[string]model.Explanation
	listed     []model.Explanation
	lastFilter store.Filter
}

func newStubStore() *stubStore {
	return &stubStore{byID: map[string]model.Explanation{}}
}

func (s *stubStore) SaveExplanation(_ context.Context, exp *model.Explanation) error {
	s.byID[exp.ID] = *exp
	return nil
}

func (s *stubStore) SaveExplanations(_ context.Context, exps []model.Explanation) (int64, error) {
	for _, exp := range exps {
		s.byID[exp.ID] = exp
	}
	return int64(len(exps)), nil
}

func (s *stubStore) GetExplanation(_ context.Context, id string) (*model.Explanation, error) {
	if exp, ok := s.byID[id]; ok {
		return &exp, nil
	}
	return nil, nil
}

func (s *stubStore) ListExplanations(_ context.Context, filter store.Filter) ([]model.Explanation, error) {
	s.lastFilter = filter
	return s.listed, nil
}

func (s *stubStore) Migrate(context.Context) error { return nil }
func (s *stubStore) Close() error                  { return nil }

func newTestMux(t *testing.T, st *stubStore) *http.ServeMux {
	t.Helper()

	tasksDir := t.TempDir()
	taskJSON := `{"train": [{"input": [[1]], "output": [[2]]}], "test": [{"input": [[3]], "output": [[4]]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(tasksDir, "11852cab.json"), []byte(taskJSON), 0644))

	prev := cfg
	cfg = &config.Config{
		Data:  config.DataConfig{TasksDir: tasksDir},
		Batch: config.BatchConfig{MaxConcurrent: 1},
	}
	t.Cleanup(func() { cfg = prev })

	env := &env{
		Store:  st,
		Solver: solver.New(solver.Clients{}, st, cfg),
	}
	return newMux(context.Background(), env)
}

func TestServe_Health(t *testing.T) {
	mux := newTestMux(t, newStubStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe_AnalyzeBadRequests(t *testing.T) {
	mux := newTestMux(t, newStubStore())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", "{not json", http.StatusBadRequest},
		{"missing puzzle id", `{"provider": "openai"}`, http.StatusBadRequest},
		{"unknown provider", `{"puzzle_id": "11852cab", "provider": "mistral"}`, http.StatusBadRequest},
		{"unknown puzzle", `{"puzzle_id": "ffffffff", "provider": "openai"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(tt.body))
			mux.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServe_AnalyzeAccepted(t *testing.T) {
	mux := newTestMux(t, newStubStore())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"puzzle_id": "11852cab", "provider": "openai"}`))
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "11852cab", resp["puzzle_id"])
	assert.Equal(t, "openai", resp["provider"])
}

func TestServe_ListExplanations(t *testing.T) {
	st := newStubStore()
	st.listed = []model.Explanation{{ID: "abc", PuzzleID: "11852cab"}}
	mux := newTestMux(t, st)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/explanations?puzzle_id=11852cab&provider=openai&limit=5&offset=10", nil)
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.Filter{
		PuzzleID: "11852cab",
		Provider: "openai",
		Limit:    5,
		Offset:   10,
	}, st.lastFilter)

	var exps []model.Explanation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exps))
	require.Len(t, exps, 1)
	assert.Equal(t, "abc", exps[0].ID)
}

func TestServe_GetExplanation(t *testing.T) {
	st := newStubStore()
	st.byID["abc"] = model.Explanation{ID: "abc", PuzzleID: "11852cab"}
	mux := newTestMux(t, st)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/explanations/abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/explanations/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
