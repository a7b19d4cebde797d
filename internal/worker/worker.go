package worker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"handlerd/internal/handler"
	"handlerd/internal/metrics"
	"handlerd/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
	recorderLimit        = 300
)

// Config encapsulates all tunables for Worker construction.
type Config struct {
	// Model and HandlerName label metrics, logs and status.
	Model       string
	HandlerName string
	// Properties are shared read-only by every call to the handler.
	Properties    handler.Properties
	MaxQueueDepth int
	MaxWait       time.Duration
	Logger        zerolog.Logger
	// Metrics and Status receive handler output in addition to the
	// Prometheus collectors. Either may be nil, including a typed nil pointer.
	Metrics   handler.MetricsSink
	Status    handler.StatusReporter
	Publisher EventPublisher
}

// Worker owns one handler instance and serializes batches through it.
type Worker struct {
	model       string
	handlerName string
	props       handler.Properties
	lc          *handler.Lifecycle
	log         zerolog.Logger
	pub         EventPublisher

	metrics  handler.MetricsSink
	status   handler.StatusReporter
	recorder *metrics.Recorder

	genCh   chan struct{} // size 1: single in-flight batch
	queueCh chan struct{} // buffered: queue slots
	maxWait time.Duration

	mu        sync.RWMutex
	snap      handler.State
	batches   uint64
	failures  uint64
	startTime time.Time
}

// New wraps h. Call Start before serving.
func New(h handler.Handler, cfg Config) *Worker {
	depth := cfg.MaxQueueDepth
	if depth <= 0 {
		depth = defaultMaxQueueDepth
	}
	wait := cfg.MaxWait
	if wait <= 0 {
		wait = defaultMaxWait
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}
	log := cfg.Logger.With().Str("model", cfg.Model).Logger()
	rec := metrics.NewRecorder(recorderLimit)
	sinks := metrics.Multi{metrics.NewPrometheusSink(cfg.Model), rec}
	if !metrics.IsNil(cfg.Metrics) {
		sinks = append(sinks, cfg.Metrics)
	}
	reporters := multiStatus{metrics.NewPrometheusStatus(cfg.Model)}
	if !metrics.IsNil(cfg.Status) {
		reporters = append(reporters, cfg.Status)
	}
	w := &Worker{
		model:       cfg.Model,
		handlerName: cfg.HandlerName,
		props:       cfg.Properties,
		lc:          handler.NewLifecycle(h, handler.WithLogger(log)),
		log:         log,
		pub:         pub,
		metrics:     sinks,
		status:      reporters,
		recorder:    rec,
		genCh:       make(chan struct{}, 1),
		queueCh:     make(chan struct{}, depth),
		maxWait:     wait,
		startTime:   time.Now(),
	}
	w.snap = w.lc.State()
	return w
}

// Start initializes the handler. A failure is fatal for this worker.
func (w *Worker) Start() error {
	w.genCh <- struct{}{}
	defer func() { <-w.genCh }()

	err := w.lc.Initialize(handler.NewContext(w.props, w.metrics, w.status))
	w.mu.Lock()
	w.snap = w.lc.State()
	w.mu.Unlock()
	if err != nil {
		w.pub.Publish(Event{Name: EventInitializeFailed, Model: w.model, Fields: map[string]any{"error": err.Error()}})
		return err
	}
	w.log.Info().Str("handler", w.handlerName).Int("batch_size", w.snap.BatchSize).Msg("handler ready")
	w.pub.Publish(Event{Name: EventInitializeDone, Model: w.model, Fields: map[string]any{"batch_size": w.snap.BatchSize}})
	return nil
}

// Ready reports whether the handler initialized successfully.
func (w *Worker) Ready() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snap.Initialized
}

// Model returns the served model name.
func (w *Worker) Model() string { return w.model }

// Status builds a status response for /status.
func (w *Worker) Status() types.StatusResponse {
	w.mu.RLock()
	defer w.mu.RUnlock()
	now := time.Now()
	return types.StatusResponse{
		Model:          w.model,
		Handler:        w.handlerName,
		State:          string(w.snap.Phase),
		Initialized:    w.snap.Initialized,
		BatchSize:      w.snap.BatchSize,
		LastError:      w.snap.LastError,
		LastTimingsMS:  w.recorder.Last(),
		QueueLen:       len(w.queueCh),
		Inflight:       len(w.genCh),
		MaxQueueDepth:  cap(w.queueCh),
		BatchesTotal:   w.batches,
		FailuresTotal:  w.failures,
		UptimeSeconds:  int64(now.Sub(w.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}

type multiStatus []handler.StatusReporter

func (m multiStatus) ReportStatus(code int, msg string) {
	for _, s := range m {
		if !metrics.IsNil(s) {
			s.ReportStatus(code, msg)
		}
	}
}
