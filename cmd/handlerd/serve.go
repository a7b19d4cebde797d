package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"handlerd/internal/config"
	"handlerd/internal/handler"
	"handlerd/internal/handlers"
	_ "handlerd/internal/handlers/echo"
	"handlerd/internal/httpapi"
	"handlerd/internal/logx"
	"handlerd/internal/manifest"
	"handlerd/internal/registry"
	"handlerd/internal/worker"
)

// PropModelDir is set on the handler properties to the package directory of
// the served model, when it comes from the store.
const PropModelDir = "model_dir"

const shutdownTimeout = 5 * time.Second

func buildServeCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one handler over HTTP",
		Example: "  handlerd serve --model-store ./store --model resnet\n" +
			"  handlerd serve --handler echo --batch-size 4",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadServeConfig(cmd, rf)
			if err != nil {
				return err
			}
			log, closer := logx.New(logx.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
			defer closer.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address, e.g. :8080")
	f.String("model-store", "", "Directory holding packaged handlers (<model>/MAR-INF/MANIFEST.json)")
	f.String("model", "", "Model name to serve from the store")
	f.String("handler", "", "Handler entry point when no model is selected")
	f.Int("batch-size", 0, "Batch size passed to the handler")
	f.String("cors-origins", "", "Comma separated allowed origins; enables CORS")
	return cmd
}

// loadServeConfig reads the config file, if any, and applies flags on top.
func loadServeConfig(cmd *cobra.Command, rf *rootFlags) (config.Config, error) {
	var cfg config.Config
	if rf.config != "" {
		c, err := config.Load(rf.config)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	fl := cmd.Flags()
	for name, dst := range map[string]*string{
		"addr":        &cfg.Addr,
		"model-store": &cfg.ModelStore,
		"model":       &cfg.Model,
		"handler":     &cfg.Handler,
	} {
		if fl.Changed(name) {
			*dst, _ = fl.GetString(name)
		}
	}
	if fl.Changed("batch-size") {
		cfg.BatchSize, _ = fl.GetInt("batch-size")
	}
	if fl.Changed("cors-origins") {
		origins, _ := fl.GetString("cors-origins")
		cfg.CORSEnabled = true
		cfg.CORSOrigins = splitCSV(origins)
	}
	if rf.logLevel != "" {
		cfg.LogLevel = rf.logLevel
	}
	if rf.logFormat != "" {
		cfg.LogFormat = rf.logFormat
	}
	return cfg.WithDefaults(), nil
}

// service joins the worker with the manifests found in the store.
type service struct {
	*worker.Worker
	models []manifest.Model
}

func (s *service) Models() []manifest.Model { return s.models }

// buildService resolves the handler, constructs the worker and initializes it.
// An initialization failure is fatal.
func buildService(cfg config.Config, log zerolog.Logger) (*service, error) {
	var entries []registry.Entry
	if cfg.ModelStore != "" {
		es, err := registry.LoadDir(cfg.ModelStore)
		switch {
		case err == nil:
			entries = es
		case cfg.Model != "":
			return nil, fmt.Errorf("load model store: %w", err)
		default:
			log.Warn().Err(err).Str("model_store", cfg.ModelStore).Msg("model store unavailable")
		}
	}

	name := cfg.Model
	entry := cfg.Handler
	props := handler.Properties{}
	if cfg.Model != "" {
		e, ok := registry.Find(entries, cfg.Model)
		if !ok {
			return nil, fmt.Errorf("model %q not found in %s", cfg.Model, cfg.ModelStore)
		}
		entry = e.Manifest.Model.Handler()
		for k, v := range e.Manifest.Model.Extensions() {
			props[k] = v
		}
		props[PropModelDir] = e.Dir
	} else {
		name = handlers.EntryName(entry)
	}
	for k, v := range cfg.HandlerProperties() {
		props[k] = v
	}

	h, err := handlers.New(entry)
	if err != nil {
		return nil, err
	}
	w := worker.New(h, worker.Config{
		Model:         name,
		HandlerName:   entry,
		Properties:    props,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       cfg.MaxWait(),
		Logger:        log,
	})
	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", entry, err)
	}
	return &service{Worker: w, models: registry.Models(entries)}, nil
}

func runServe(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	svc, err := buildService(cfg, log)
	if err != nil {
		return err
	}

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetPredictTimeoutSeconds(cfg.PredictTimeoutSeconds)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins,
		[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
		[]string{"Content-Type", "X-Log-Level"})

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(svc), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("model", svc.Model()).Msg("handlerd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

var _ httpapi.Service = (*service)(nil)
