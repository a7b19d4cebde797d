package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"handlerd/internal/manifest"
	"handlerd/internal/worker"
	"handlerd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Models() []manifest.Model
	Status() types.StatusResponse
	Predict(ctx context.Context, inputs []any) (worker.Result, error)
	Ready() bool
}

// NewMux builds the router for svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)

	// @Summary List models
	// @Description Canonical manifests of the models found in the store.
	// @Produce json
	// @Success 200 {object} types.ModelsResponse
	// @Router /models [get]
	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		models := svc.Models()
		resp := types.ModelsResponse{Models: make([]json.RawMessage, 0, len(models))}
		for _, m := range models {
			resp.Models = append(resp.Models, json.RawMessage(m.String()))
		}
		writeJSON(w, http.StatusOK, resp)
	})

	// @Summary Get model
	// @Produce json
	// @Param name path string true "model name"
	// @Success 200 {object} object
	// @Failure 404 {object} types.ErrorResponse
	// @Router /models/{name} [get]
	r.Get("/models/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		for _, m := range svc.Models() {
			if m.ModelName() == name {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(m.String()))
				return
			}
		}
		writeJSONError(w, http.StatusNotFound, "model not found: "+name)
	})

	// @Summary Handler status
	// @Produce json
	// @Success 200 {object} types.StatusResponse
	// @Router /status [get]
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	// @Summary Run one batch
	// @Description Runs preprocess, inference and postprocess over the inputs.
	// @Description On failure every output slot holds the error text and the
	// @Description handler's reported status code is returned.
	// @Accept json
	// @Produce json
	// @Param request body types.PredictRequest true "batch"
	// @Success 200 {object} types.PredictResponse
	// @Failure 400 {object} types.ErrorResponse
	// @Failure 415 {object} types.ErrorResponse
	// @Failure 429 {object} types.ErrorResponse
	// @Failure 500 {object} types.PredictResponse
	// @Router /predictions [post]
	r.Post("/predictions", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(req.Inputs) == 0 {
			writeJSONError(w, http.StatusBadRequest, "inputs are required")
			return
		}

		start := time.Now()
		lvl := requestLogLevel(r)
		logEvent(r, lvl, LevelInfo, zerolog.InfoLevel).Int("size", len(req.Inputs)).Msg("predict start")

		// Shutdown of the base context cancels queued requests too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if predictTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, time.Duration(predictTimeout)*time.Second)
			defer tcancel()
		}

		res, err := svc.Predict(ctx, req.Inputs)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := http.StatusInternalServerError
			switch {
			case worker.IsTooBusy(err):
				status = http.StatusTooManyRequests
				IncrementBackpressure("queue")
			case ctx.Err() != nil:
				status = http.StatusGatewayTimeout
			default:
				if he, ok := err.(HTTPError); ok {
					status = he.StatusCode()
				}
			}
			writeJSONError(w, status, err.Error())
			logEvent(r, lvl, LevelError, zerolog.WarnLevel).Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("predict end")
			return
		}

		resp := types.PredictResponse{BatchID: res.BatchID, Outputs: res.Outputs}
		status := http.StatusOK
		if res.Failed() {
			status = res.StatusCode
			resp.Error = res.StatusMessage
		}
		writeJSON(w, status, resp)
		logEvent(r, lvl, LevelInfo, zerolog.InfoLevel).Int("status", status).Str("batch_id", res.BatchID).Dur("dur", time.Since(start)).Msg("predict end")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
