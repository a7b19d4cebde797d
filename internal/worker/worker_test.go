package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"handlerd/internal/handler"
	"handlerd/internal/metrics"
)

// blockingHandler parks in Inference until release is closed.
type blockingHandler struct {
	handler.Base
	entered chan struct{}
	release chan struct{}
}

func (h *blockingHandler) Inference(any) (any, error) {
	h.entered <- struct{}{}
	<-h.release
	return nil, nil
}

type boomHandler struct{ handler.Base }

func (h *boomHandler) Inference(any) (any, error) { return nil, errors.New("boom") }

// countingHandler fails the test if two batches overlap.
type countingHandler struct {
	handler.Base
	mu      sync.Mutex
	active  int
	overlap bool
}

func (h *countingHandler) Inference(any) (any, error) {
	h.mu.Lock()
	h.active++
	if h.active > 1 {
		h.overlap = true
	}
	h.mu.Unlock()
	time.Sleep(time.Millisecond)
	h.mu.Lock()
	h.active--
	h.mu.Unlock()
	return nil, nil
}

func newStarted(t *testing.T, h handler.Handler, cfg Config) *Worker {
	t.Helper()
	if cfg.Properties == nil {
		cfg.Properties = handler.Properties{handler.PropBatchSize: 2}
	}
	w := New(h, cfg)
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return w
}

func TestNewDefaults(t *testing.T) {
	w := New(&handler.Base{}, Config{})
	if cap(w.queueCh) != defaultMaxQueueDepth {
		t.Fatalf("expected default queue depth %d got %d", defaultMaxQueueDepth, cap(w.queueCh))
	}
	if w.maxWait != defaultMaxWait {
		t.Fatalf("expected default maxWait=%v got %v", defaultMaxWait, w.maxWait)
	}
	if w.Ready() {
		t.Fatalf("worker ready before Start")
	}
}

func TestStart_ConfigurationErrorIsFatal(t *testing.T) {
	pub := NewMemoryPublisher()
	w := New(&handler.Base{}, Config{Model: "m", Properties: handler.Properties{}, Publisher: pub})
	err := w.Start()
	if !handler.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if w.Ready() {
		t.Fatalf("worker must not be ready")
	}
	evts := pub.Events()
	if len(evts) != 1 || evts[0].Name != EventInitializeFailed {
		t.Fatalf("unexpected events: %+v", evts)
	}
}

func TestPredict_Success(t *testing.T) {
	rec := metrics.NewRecorder(0)
	pub := NewMemoryPublisher()
	w := newStarted(t, &handler.Base{}, Config{Model: "m-ok", Metrics: rec, Publisher: pub})

	res, err := w.Predict(context.Background(), []any{"req1", "req2"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Failed() || len(res.Outputs) != 2 || res.Outputs[0] != "OK" || res.BatchID == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(rec.Timings()) != 3 {
		t.Fatalf("expected 3 timings, got %+v", rec.Timings())
	}
	st := w.Status()
	if st.BatchesTotal != 1 || st.FailuresTotal != 0 || st.BatchSize != 2 || st.State != string(handler.PhaseReady) {
		t.Fatalf("unexpected status: %+v", st)
	}
	if len(st.LastTimingsMS) != 3 {
		t.Fatalf("expected last timings in status: %+v", st.LastTimingsMS)
	}
	names := map[string]bool{}
	for _, e := range pub.Events() {
		names[e.Name] = true
	}
	if !names[EventInitializeDone] || !names[EventBatchDone] {
		t.Fatalf("missing events: %+v", pub.Events())
	}
}

func TestPredict_FailureReportsStatus(t *testing.T) {
	status := &metrics.StatusCapture{}
	w := newStarted(t, &boomHandler{}, Config{Model: "m-boom", Status: status})

	res, err := w.Predict(context.Background(), []any{"a", "b"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !res.Failed() || res.StatusCode != handler.StatusUnknownInference || res.StatusMessage != handler.MsgUnknownInference {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Outputs[0] != "boom" || res.Outputs[1] != "boom" {
		t.Fatalf("unexpected outputs: %+v", res.Outputs)
	}
	if status.Calls != 1 {
		t.Fatalf("external status reporter called %d times", status.Calls)
	}
	st := w.Status()
	if st.FailuresTotal != 1 || st.LastError == "" {
		t.Fatalf("unexpected status: %+v", st)
	}

	// next success clears the error
	w2 := newStarted(t, &handler.Base{}, Config{Model: "m-clear"})
	_, _ = w2.Predict(context.Background(), []any{"a"})
	if w2.Status().LastError == "" {
		t.Fatalf("expected batch size error")
	}
	_, _ = w2.Predict(context.Background(), []any{"a", "b"})
	if got := w2.Status().LastError; got != "" {
		t.Fatalf("expected cleared error, got %q", got)
	}
}

func TestPredict_TooBusy(t *testing.T) {
	h := &blockingHandler{entered: make(chan struct{}, 1), release: make(chan struct{})}
	w := newStarted(t, h, Config{Model: "m-busy", MaxQueueDepth: 1, MaxWait: 20 * time.Millisecond})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.Predict(context.Background(), []any{"a", "b"})
	}()
	<-h.entered

	_, err := w.Predict(context.Background(), []any{"a", "b"})
	if !IsTooBusy(err) {
		t.Fatalf("expected too busy, got %v", err)
	}
	if st := w.Status(); st.Inflight != 1 {
		t.Fatalf("expected 1 in flight, got %+v", st)
	}
	close(h.release)
	<-done
}

func TestPredict_ContextCanceled(t *testing.T) {
	h := &blockingHandler{entered: make(chan struct{}, 1), release: make(chan struct{})}
	w := newStarted(t, h, Config{Model: "m-cancel", MaxWait: time.Second})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.Predict(context.Background(), []any{"a", "b"})
	}()
	<-h.entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := w.Predict(ctx, []any{"a", "b"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(h.release)
	<-done
	if st := w.Status(); st.QueueLen != 0 || st.Inflight != 0 {
		t.Fatalf("slots leaked: %+v", st)
	}
}

func TestPredict_ExclusiveAccess(t *testing.T) {
	h := &countingHandler{}
	w := newStarted(t, h, Config{Model: "m-excl"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.Predict(context.Background(), []any{"a", "b"}); err != nil {
				t.Errorf("predict: %v", err)
			}
		}()
	}
	wg.Wait()
	if h.overlap {
		t.Fatalf("handler saw overlapping batches")
	}
	if w.Status().BatchesTotal != 8 {
		t.Fatalf("expected 8 batches, got %d", w.Status().BatchesTotal)
	}
}

func TestNew_TypedNilSinksAreIgnored(t *testing.T) {
	var rec *metrics.Recorder
	var status *metrics.StatusCapture
	w := newStarted(t, &handler.Base{}, Config{Model: "m-typed-nil", Metrics: rec, Status: status})
	if _, err := w.Predict(context.Background(), []any{"a", "b"}); err != nil {
		t.Fatalf("predict: %v", err)
	}

	wb := newStarted(t, &boomHandler{}, Config{Model: "m-typed-nil-boom", Metrics: rec, Status: status})
	res, err := wb.Predict(context.Background(), []any{"a", "b"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !res.Failed() || res.StatusCode != handler.StatusUnknownInference {
		t.Fatalf("unexpected result: %+v", res)
	}
}
