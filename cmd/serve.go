package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justice-rest/Intel-sub010/internal/capacity"
	"github.com/justice-rest/Intel-sub010/internal/claims"
	"github.com/justice-rest/Intel-sub010/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for research requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e := initEnv()

		mux := buildMux(ctx, e)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
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

// buildMux wires the HTTP routes. Split out for testability.
func buildMux(ctx context.Context, e *env) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /breakers", func(w http.ResponseWriter, r *http.Request) {
		states := make(map[string]string)
		for name, s := range e.breakers.States() {
			states[name] = s.String()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(states)
	})

	mux.HandleFunc("POST /capacity", func(w http.ResponseWriter, r *http.Request) {
		var in capacity.Inputs
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		res := capacity.Calculate(cfg.Capacity, in, capacity.TypeAll)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	})

	mux.HandleFunc("POST /report", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Subject  report.Subject  `json:"subject"`
			Capacity capacity.Inputs `json:"capacity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Subject.Name == "" {
			http.Error(w, `{"error":"subject.name is required"}`, http.StatusBadRequest)
			return
		}

		// Run research asynchronously; results land in the log.
		go func() {
			tracker := claims.NewTracker()
			collector := report.NewCollector(e.client).WithCapacityConfig(cfg.Capacity)
			cache, err := collector.Collect(ctx, report.Request{
				Subject:  req.Subject,
				Capacity: req.Capacity,
			}, tracker)
			if err != nil {
				zap.L().Error("report collection failed",
					zap.String("subject", req.Subject.Name),
					zap.Error(err),
				)
				return
			}
			rep, err := report.NewSynthesizer().Synthesize(cache, tracker)
			if err != nil {
				zap.L().Error("report synthesis failed",
					zap.String("subject", req.Subject.Name),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("report complete",
				zap.String("run_id", rep.RunID),
				zap.String("subject", req.Subject.Name),
				zap.String("rating", string(rep.Summary.Rating)),
				zap.String("data_quality", string(rep.Summary.DataQuality)),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "accepted",
			"subject": req.Subject.Name,
		})
	})

	return mux
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
