package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/puzzlebench/arc-explainer/internal/extract"
	"github.com/puzzlebench/arc-explainer/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for analysis requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newMux(ctx, env),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newMux builds the API routes. ctx outlives individual requests and
// bounds the detached analysis goroutines.
func newMux(ctx context.Context, env *env) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PuzzleID string `json:"puzzle_id"`
			Provider string `json:"provider"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.PuzzleID == "" {
			http.Error(w, `{"error":"puzzle_id is required"}`, http.StatusBadRequest)
			return
		}

		provider, err := extract.ParseProvider(req.Provider)
		if err != nil {
			http.Error(w, `{"error":"unknown provider"}`, http.StatusBadRequest)
			return
		}

		task, err := loadTaskArg(req.PuzzleID)
		if err != nil {
			http.Error(w, `{"error":"unknown puzzle"}`, http.StatusNotFound)
			return
		}

		// Analysis can take minutes; run it detached and let the client
		// poll /explanations for the result.
		go func() {
			if _, err := env.Solver.Analyze(ctx, task, provider); err != nil {
				zap.L().Error("analysis request failed",
					zap.String("puzzle_id", task.ID),
					zap.String("provider", provider.String()),
					zap.Error(err),
				)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":    "accepted",
			"puzzle_id": task.ID,
			"provider":  provider.String(),
		})
	})

	mux.HandleFunc("GET /explanations", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		exps, err := env.Store.ListExplanations(r.Context(), store.Filter{
			PuzzleID:  q.Get("puzzle_id"),
			Provider:  q.Get("provider"),
			ModelName: q.Get("model"),
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			zap.L().Error("list explanations failed", zap.Error(err))
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, exps)
	})

	mux.HandleFunc("GET /explanations/{id}", func(w http.ResponseWriter, r *http.Request) {
		exp, err := env.Store.GetExplanation(r.Context(), r.PathValue("id"))
		if err != nil {
			zap.L().Error("get explanation failed", zap.Error(err))
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if exp == nil {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, exp)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
