package worker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"handlerd/internal/handler"
	"handlerd/internal/metrics"
)

// Result is the outcome of one batch.
type Result struct {
	BatchID string
	Outputs []any
	// StatusCode and StatusMessage hold what the handler reported; a zero
	// StatusCode means the batch succeeded.
	StatusCode    int
	StatusMessage string
}

// Failed reports whether the handler reported a failure status.
func (r Result) Failed() bool { return r.StatusCode != 0 }

// Predict waits for exclusive access to the handler and runs one batch.
// Errors are limited to admission (context cancellation, backpressure); batch
// failures are reported through Result.
func (w *Worker) Predict(ctx context.Context, inputs []any) (Result, error) {
	release, err := w.acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer release()

	id := uuid.NewString()
	capture := &metrics.StatusCapture{Next: w.status}
	hctx := handler.NewContext(w.props, w.metrics, capture)

	start := time.Now()
	outputs := w.lc.Handle(inputs, hctx)
	dur := time.Since(start)

	w.mu.Lock()
	w.snap = w.lc.State()
	w.batches++
	if capture.Calls > 0 {
		w.failures++
	}
	lastErr := w.snap.LastError
	w.mu.Unlock()

	res := Result{BatchID: id, Outputs: outputs, StatusCode: capture.Code, StatusMessage: capture.Message}
	if res.Failed() {
		metrics.ObserveBatch(w.model, "error")
		w.log.Warn().Str("batch_id", id).Int("size", len(inputs)).Dur("dur", dur).Str("error", lastErr).Msg("batch failed")
		w.pub.Publish(Event{Name: EventBatchFailed, Model: w.model, Fields: map[string]any{"batch_id": id, "error": lastErr}})
		return res, nil
	}
	metrics.ObserveBatch(w.model, "ok")
	w.log.Debug().Str("batch_id", id).Int("size", len(inputs)).Dur("dur", dur).Msg("batch done")
	w.pub.Publish(Event{Name: EventBatchDone, Model: w.model, Fields: map[string]any{"batch_id": id}})
	return res, nil
}
