package handler

import (
	"math"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Lifecycle drives a Handler: it initializes it once and then runs each batch
// through preprocess → inference → postprocess, timing every stage and turning
// any stage failure into a uniform batch-shaped response.
type Lifecycle struct {
	h       Handler
	log     zerolog.Logger
	now     func() time.Time
	phase   Phase
	lastErr error
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithLogger sets the logger used to record stage failures.
func WithLogger(l zerolog.Logger) Option {
	return func(lc *Lifecycle) { lc.log = l }
}

// WithClock overrides the wall clock used for stage timings.
func WithClock(now func() time.Time) Option {
	return func(lc *Lifecycle) {
		if now != nil {
			lc.now = now
		}
	}
}

// NewLifecycle wraps h. The handler is not initialized here.
func NewLifecycle(h Handler, opts ...Option) *Lifecycle {
	lc := &Lifecycle{h: h, log: zerolog.Nop(), now: time.Now, phase: PhaseUninitialized}
	for _, o := range opts {
		o(lc)
	}
	if h.Initialized() {
		lc.phase = PhaseReady
	}
	return lc
}

// Handler returns the wrapped handler.
func (l *Lifecycle) Handler() Handler { return l.h }

// Initialize initializes the wrapped handler. Errors are fatal and returned
// unchanged; the handler stays uninitialized.
func (l *Lifecycle) Initialize(hctx *Context) error {
	if err := l.h.Initialize(hctx); err != nil {
		l.log.Error().Err(err).Msg("handler initialize failed")
		return err
	}
	l.phase = PhaseReady
	l.log.Debug().Int("batch_size", l.h.BatchSize()).Msg("handler initialized")
	return nil
}

// Handle processes one batch. It always returns one entry per batch slot: the
// postprocess results on success, or the failing stage's error text in every
// slot on failure. Metrics are recorded only when all three stages succeed.
func (l *Lifecycle) Handle(data []any, hctx *Context) []any {
	l.lastErr = nil

	if !l.h.Initialized() {
		// No configured batch size yet; answer each request we were given.
		return l.fail(hctx, StagePreprocess, ErrNotInitialized, len(data))
	}
	size := l.h.BatchSize()

	var (
		input   any
		output  any
		results []any
	)
	preprocessStart := l.now()
	if err := l.runStage(StagePreprocess, func() (err error) {
		input, err = l.h.Preprocess(data)
		return err
	}); err != nil {
		return l.fail(hctx, StagePreprocess, err, size)
	}
	inferenceStart := l.now()
	if err := l.runStage(StageInference, func() (err error) {
		output, err = l.h.Inference(input)
		return err
	}); err != nil {
		return l.fail(hctx, StageInference, err, size)
	}
	postprocessStart := l.now()
	if err := l.runStage(StagePostprocess, func() (err error) {
		results, err = l.h.Postprocess(output)
		if err == nil && len(results) != size {
			err = &InvalidBatchSizeError{Want: size, Got: len(results)}
		}
		return err
	}); err != nil {
		return l.fail(hctx, StagePostprocess, err, size)
	}
	end := l.now()

	m := hctx.metrics()
	m.AddTime(MetricPreprocessTime, elapsedMS(preprocessStart, inferenceStart))
	m.AddTime(MetricInferenceTime, elapsedMS(inferenceStart, postprocessStart))
	m.AddTime(MetricPostprocessTime, elapsedMS(postprocessStart, end))

	l.phase = PhaseReady
	return results
}

// LastError returns the error raised by the most recent Handle, or nil.
func (l *Lifecycle) LastError() error { return l.lastErr }

// State returns a snapshot of the handler instance.
func (l *Lifecycle) State() State {
	s := State{
		Phase:       l.phase,
		Initialized: l.h.Initialized(),
		BatchSize:   l.h.BatchSize(),
	}
	if l.lastErr != nil {
		s.LastError = l.lastErr.Error()
	}
	return s
}

func (l *Lifecycle) runStage(stage Stage, fn func() error) (err error) {
	l.phase = stage.phase()
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Str("stage", string(stage)).Bytes("stack", debug.Stack()).Msgf("recovered panic: %v", r)
			err = panicError{v: r}
		}
	}()
	return fn()
}

func (l *Lifecycle) fail(hctx *Context, stage Stage, err error, slots int) []any {
	l.phase = PhaseError
	l.lastErr = &UnknownInferenceError{Stage: stage, Err: err}
	l.log.Error().
		Err(err).
		Str("stage", string(stage)).
		Int("batch_size", slots).
		Msg("inference failed")
	hctx.status().ReportStatus(StatusUnknownInference, MsgUnknownInference)
	l.phase = PhaseReady
	if !l.h.Initialized() {
		l.phase = PhaseUninitialized
	}
	return Fill(slots, err.Error())
}

// elapsedMS returns b-a in milliseconds rounded to two decimal places.
func elapsedMS(a, b time.Time) float64 {
	ms := float64(b.Sub(a)) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
