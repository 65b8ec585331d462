package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-classifier/internal/attribution"
	"github.com/sells-group/lead-classifier/internal/batch"
	"github.com/sells-group/lead-classifier/internal/classifier"
	"github.com/sells-group/lead-classifier/internal/fetcher"
	"github.com/sells-group/lead-classifier/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the classification API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		clf, err := loadClassifier(cfg.Rules.Path)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(clf, cfg.Batch.Workers, int64(cfg.Server.MaxBodyMB)<<20, dateOrder(cfg.Attribution)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// classifyRequest is the POST /v1/classify body: a chat export plus
// optional attribution rows (objects keyed by column name).
type classifyRequest struct {
	Items       *[]model.Message `json:"items"`
	Attribution json.RawMessage  `json:"attribution,omitempty"`
}

// buildRouter returns the API handler. Requests larger than maxBody bytes
// are rejected.
func buildRouter(clf *classifier.Classifier, workers int, maxBody int64, order attribution.DateOrder) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/classify", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		var body classifyRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBody)).Decode(&body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Items == nil {
			writeError(w, http.StatusBadRequest, "items is required")
			return
		}

		var idx *attribution.Index
		if len(body.Attribution) > 0 && !bytes.Equal(bytes.TrimSpace(body.Attribution), []byte("null")) {
			tbl, err := fetcher.DecodeAttributionJSON(ctx, bytes.NewReader(body.Attribution))
			if err != nil {
				writeError(w, http.StatusBadRequest, "attribution must be an array of objects")
				return
			}
			idx = attribution.NewIndex(tbl, attribution.WithDateOrder(order))
		}

		out, err := batch.Run(ctx, *body.Items, idx, batch.Options{
			Classifier: clf,
			Workers:    workers,
			RunID:      middleware.GetReqID(ctx),
		})
		if err != nil {
			zap.L().Error("classify request failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "classification cancelled")
			return
		}

		writeJSON(w, http.StatusOK, out)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
